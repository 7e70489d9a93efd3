package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Friendship is one directed row of the symmetric friendship relation.
// Every accepted friendship is stored as two rows, one per direction,
// created in the same transaction.
type Friendship struct {
	ID         uint `gorm:"primaryKey"`
	FromUserID uint `gorm:"not null;index:idx_friendship_pair,unique,priority:2"`
	FromUser   User `gorm:"foreignKey:FromUserID;constraint:OnDelete:CASCADE"`
	ToUserID   uint `gorm:"not null;index:idx_friendship_pair,unique,priority:1"`
	ToUser     User `gorm:"foreignKey:ToUserID;constraint:OnDelete:CASCADE"`

	// How the two users know each other: a set of tags plus optional
	// free text, rendered together by RelationSentence.
	RelationTags []string `gorm:"serializer:json;type:text"`
	HowRelated   string   `gorm:"type:varchar(100)"`

	Added     time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Friendship) TableName() string {
	return "friendships"
}

// RelationSentence renders the relation metadata for display,
// e.g. "coworker, neighbor (met at the conference)".
func (f *Friendship) RelationSentence() string {
	tags := strings.Join(f.RelationTags, ", ")
	text := strings.TrimSpace(f.HowRelated)
	switch {
	case tags != "" && text != "":
		return tags + " (" + text + ")"
	case tags != "":
		return tags
	default:
		return text
	}
}

// InviteStatus is shared by friendship and join invitations.
type InviteStatus int8

const (
	InviteStatusCreated InviteStatus = iota + 1
	InviteStatusSent
	InviteStatusFailed
	InviteStatusExpired
	InviteStatusAccepted
	InviteStatusDeclined
	InviteStatusJoinedIndependently
	InviteStatusDeleted
)

func (s InviteStatus) String() string {
	switch s {
	case InviteStatusCreated:
		return "created"
	case InviteStatusSent:
		return "sent"
	case InviteStatusFailed:
		return "failed"
	case InviteStatusExpired:
		return "expired"
	case InviteStatusAccepted:
		return "accepted"
	case InviteStatusDeclined:
		return "declined"
	case InviteStatusJoinedIndependently:
		return "joined_independently"
	case InviteStatusDeleted:
		return "deleted"
	}
	return "unknown"
}

// Live reports whether the invitation still blocks a new invitation for
// the same pair. Declined and Deleted rows do not.
func (s InviteStatus) Live() bool {
	return s != InviteStatusDeclined && s != InviteStatusDeleted
}

// Terminal reports whether the status admits no further transitions.
func (s InviteStatus) Terminal() bool {
	switch s {
	case InviteStatusAccepted, InviteStatusDeclined, InviteStatusExpired,
		InviteStatusJoinedIndependently, InviteStatusDeleted:
		return true
	}
	return false
}

// FriendshipInvitation is a proposal from one user to another to form a
// friendship edge.
type FriendshipInvitation struct {
	ID         uint   `gorm:"primaryKey"`
	UUID       string `gorm:"uniqueIndex;type:char(36);not null"`
	FromUserID uint   `gorm:"not null;index:idx_invitation_pair"`
	FromUser   User   `gorm:"foreignKey:FromUserID;constraint:OnDelete:CASCADE"`
	ToUserID   uint   `gorm:"not null;index:idx_invitation_pair"`
	ToUser     User   `gorm:"foreignKey:ToUserID;constraint:OnDelete:CASCADE"`

	Message      string   `gorm:"type:varchar(2000)"`
	RelationTags []string `gorm:"serializer:json;type:text"`
	HowRelated   string   `gorm:"type:varchar(100)"`

	Sent   time.Time    `gorm:"autoCreateTime"`
	Status InviteStatus `gorm:"not null"`
}

func (FriendshipInvitation) TableName() string {
	return "friendship_invitations"
}

func (i *FriendshipInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.NewString()
	}
	return nil
}

// FriendshipInvitationHistory is the append-only archive a superseded
// invitation is copied into before the replacement row is written.
type FriendshipInvitationHistory struct {
	ID         uint         `gorm:"primaryKey"`
	FromUserID uint         `gorm:"not null;index"`
	ToUserID   uint         `gorm:"not null;index"`
	Message    string       `gorm:"type:varchar(2000)"`
	Sent       time.Time    `gorm:"not null"`
	Status     InviteStatus `gorm:"not null"`
	ArchivedAt time.Time    `gorm:"autoCreateTime"`
}

func (FriendshipInvitationHistory) TableName() string {
	return "friendship_invitation_history"
}

// JoinInvitation invites an email address that has no account yet. The
// confirmation key is the durable secret; the emailed accept URL wraps
// it in a signed, expiring token.
type JoinInvitation struct {
	ID         uint    `gorm:"primaryKey"`
	UUID       string  `gorm:"uniqueIndex;type:char(36);not null"`
	FromUserID uint    `gorm:"not null;index"`
	FromUser   User    `gorm:"foreignKey:FromUserID;constraint:OnDelete:CASCADE"`
	ContactID  uint    `gorm:"not null;index"`
	Contact    Contact `gorm:"foreignKey:ContactID"`

	Message         string       `gorm:"type:varchar(2000)"`
	ConfirmationKey string       `gorm:"uniqueIndex;type:char(64);not null"`
	Sent            time.Time    `gorm:"autoCreateTime"`
	Status          InviteStatus `gorm:"not null"`
}

func (JoinInvitation) TableName() string {
	return "join_invitations"
}

func (i *JoinInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.NewString()
	}
	return nil
}
