package repositories

import (
	"github.com/mroshb/friends/internal/models"
)

// FriendEntry pairs a friend with the edge it was found through, so
// callers can show relation metadata without a second lookup.
type FriendEntry struct {
	Friend     models.User
	Friendship models.Friendship
}

// ContactStore is the persistence contract for address-book entries.
type ContactStore interface {
	// GetOrCreate is the only creation path outside import. It is
	// idempotent on (owner, email) and revives a soft-deleted row
	// instead of violating the unique key.
	GetOrCreate(ownerID uint, email string) (*models.Contact, bool, error)
	CreateFromUser(ownerID uint, user *models.User) (*models.Contact, error)
	Save(contact *models.Contact) error
	GetByID(id uint) (*models.Contact, error)
	ListForOwner(ownerID uint) ([]models.Contact, error)
	Search(ownerID uint, query string) ([]models.Contact, error)
	SoftDelete(id uint) error
	ExistsForOwner(ownerID uint, email string) (bool, error)
	// LinkUserByEmail backfills the user reference on every contact row
	// with the given user's email, across all owners.
	LinkUserByEmail(user *models.User) (int64, error)
	// PurgeUnclaimedImports removes previously imported contacts of the
	// given source type that never got linked to a user and whose email
	// is absent from keep.
	PurgeUnclaimedImports(ownerID uint, contactType string, keep []string) (int64, error)
}

// FriendshipStore maintains the mirrored edge pairs of the graph.
type FriendshipStore interface {
	// Create writes the edge and its mirror in a single transaction.
	Create(friendship *models.Friendship) error
	AreFriends(userID1, userID2 uint) (bool, error)
	// Remove deletes both directions transactionally.
	Remove(userID1, userID2 uint) error
	FriendsFor(userID uint) ([]FriendEntry, error)
	FriendIDs(userID uint) ([]uint, error)
	FriendsOfFriends(userID uint) ([]models.User, error)
	SharedFriends(userID1, userID2 uint) ([]models.User, error)
}

// InvitationStore persists both invitation kinds and the history log.
type InvitationStore interface {
	HasActiveBetween(fromUserID, toUserID uint) (bool, error)
	// ArchiveAndCreate copies any prior invitation rows for the ordered
	// pair to history, deletes them, and inserts the new row, all in one
	// transaction.
	ArchiveAndCreate(invitation *models.FriendshipInvitation) error
	GetByUUID(uuid string) (*models.FriendshipInvitation, error)
	GetPending(fromUserID, toUserID uint) (*models.FriendshipInvitation, error)
	UpdateStatus(id uint, status models.InviteStatus) error
	// MarkDeletedForPair forces non-terminal invitations for the ordered
	// pair to Deleted.
	MarkDeletedForPair(fromUserID, toUserID uint) error
	HistoryForPair(fromUserID, toUserID uint) ([]models.FriendshipInvitationHistory, error)

	CreateJoin(invitation *models.JoinInvitation) error
	GetJoinByKey(confirmationKey string) (*models.JoinInvitation, error)
	JoinsForEmail(email string) ([]models.JoinInvitation, error)
	UpdateJoinStatus(id uint, status models.InviteStatus) error
}

// SuggestionStore persists candidate friendships.
type SuggestionStore interface {
	GetOrCreate(userID *uint, email string, suggestedUserID uint, why models.SuggestionReason) (*models.FriendSuggestion, bool, error)
	// DeactivatePair deactivates suggestions in both orientations once
	// the corresponding friendship exists.
	DeactivatePair(userID1, userID2 uint) error
	LinkUserByEmail(user *models.User) (int64, error)
	ActiveFor(userID uint) ([]models.FriendSuggestion, error)
}

// UserStore is the user-directory lookup surface the core consumes. The
// rows themselves are owned by the surrounding application.
type UserStore interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}
