package models

import (
	"time"
)

// SuggestionReason encodes why a candidate friend was suggested.
type SuggestionReason int8

const (
	SuggestReasonInvite SuggestionReason = iota
	SuggestReasonCoworker
	SuggestReasonCoAuthor
	SuggestReasonFriendOfFriend
	SuggestReasonNeighbor
)

func (r SuggestionReason) String() string {
	switch r {
	case SuggestReasonInvite:
		return "They sent you an invitation to the site."
	case SuggestReasonCoworker:
		return "They work at the same organization/company."
	case SuggestReasonCoAuthor:
		return "They have published together with you."
	case SuggestReasonFriendOfFriend:
		return "They're connected to you through another member on the site."
	case SuggestReasonNeighbor:
		return "They live in the same town or city."
	}
	return "unknown"
}

// FriendSuggestion is a system-generated candidate friendship. UserID is
// nil while the target side is only known by email; it is backfilled once
// that email registers. Realized suggestions are deactivated, not deleted.
type FriendSuggestion struct {
	ID              uint    `gorm:"primaryKey"`
	UserID          *uint   `gorm:"index:idx_suggestion_pair"`
	User            *User   `gorm:"foreignKey:UserID"`
	Email           string  `gorm:"type:varchar(254);index"`
	SuggestedUserID uint    `gorm:"not null;index:idx_suggestion_pair"`
	SuggestedUser   User    `gorm:"foreignKey:SuggestedUserID;constraint:OnDelete:CASCADE"`

	Why    SuggestionReason `gorm:"not null"`
	Active bool             `gorm:"default:true;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (FriendSuggestion) TableName() string {
	return "friend_suggestions"
}
