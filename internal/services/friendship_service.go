package services

import (
	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/internal/notify"
	"github.com/mroshb/friends/internal/repositories"
	"github.com/mroshb/friends/pkg/errors"
	"github.com/mroshb/friends/pkg/logger"
)

type FriendshipService struct {
	friendships repositories.FriendshipStore
	contacts    repositories.ContactStore
	invitations repositories.InvitationStore
	suggestions repositories.SuggestionStore
	users       repositories.UserStore

	notifier             notify.Notifier
	notificationsEnabled bool
}

func NewFriendshipService(
	friendships repositories.FriendshipStore,
	contacts repositories.ContactStore,
	invitations repositories.InvitationStore,
	suggestions repositories.SuggestionStore,
	users repositories.UserStore,
	notifier notify.Notifier,
	notificationsEnabled bool,
) *FriendshipService {
	return &FriendshipService{
		friendships:          friendships,
		contacts:             contacts,
		invitations:          invitations,
		suggestions:          suggestions,
		users:                users,
		notifier:             notifier,
		notificationsEnabled: notificationsEnabled,
	}
}

// Establish creates the mirrored friendship pair and runs the
// post-conditions that keep the rest of the graph consistent:
// suggestions between the pair are deactivated, a pending invitation is
// marked accepted, both sides get a contact card for the other, and
// mutual friends are notified of the new connection.
func (s *FriendshipService) Establish(fromUserID, toUserID uint, relationTags []string, howRelated string) (*models.Friendship, error) {
	if fromUserID == toUserID {
		return nil, errors.New(errors.ErrCodeSelfFriendship, "cannot befriend yourself")
	}

	fromUser, err := s.users.GetByID(fromUserID)
	if err != nil {
		return nil, err
	}
	toUser, err := s.users.GetByID(toUserID)
	if err != nil {
		return nil, err
	}

	alreadyFriends, err := s.friendships.AreFriends(fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if alreadyFriends {
		return nil, errors.New(errors.ErrCodeAlreadyFriends, "users are already friends")
	}

	friendship := &models.Friendship{
		FromUserID:   fromUserID,
		ToUserID:     toUserID,
		RelationTags: relationTags,
		HowRelated:   howRelated,
	}
	if err := s.friendships.Create(friendship); err != nil {
		return nil, err
	}

	if err := s.suggestions.DeactivatePair(fromUserID, toUserID); err != nil {
		return nil, err
	}

	s.acceptPendingInvitation(fromUserID, toUserID)
	s.acceptPendingInvitation(toUserID, fromUserID)

	if _, err := s.contacts.CreateFromUser(fromUserID, toUser); err != nil {
		return nil, err
	}
	if _, err := s.contacts.CreateFromUser(toUserID, fromUser); err != nil {
		return nil, err
	}

	s.notifyMutualFriends(fromUser, toUser)

	return friendship, nil
}

// acceptPendingInvitation marks a live invitation for the ordered pair
// accepted, if one exists; absence is not an error.
func (s *FriendshipService) acceptPendingInvitation(fromUserID, toUserID uint) {
	invitation, err := s.invitations.GetPending(fromUserID, toUserID)
	if err != nil {
		return
	}
	if invitation.Status == models.InviteStatusAccepted {
		return
	}
	if err := s.invitations.UpdateStatus(invitation.ID, models.InviteStatusAccepted); err != nil {
		logger.Warn("failed to mark invitation accepted",
			"invitation", invitation.UUID, "error", err)
	}
}

// notifyMutualFriends fires friends_otherconnect to everyone in the
// union of both friend sets, excluding the two users themselves.
// Notification failures are logged, never propagated.
func (s *FriendshipService) notifyMutualFriends(fromUser, toUser *models.User) {
	if !s.notificationsEnabled || s.notifier == nil {
		return
	}

	recipients := make(map[uint]models.User)
	for _, userID := range []uint{fromUser.ID, toUser.ID} {
		entries, err := s.friendships.FriendsFor(userID)
		if err != nil {
			logger.Warn("failed to load friend set for notification", "user", userID, "error", err)
			continue
		}
		for _, entry := range entries {
			if entry.Friend.ID == fromUser.ID || entry.Friend.ID == toUser.ID {
				continue
			}
			recipients[entry.Friend.ID] = entry.Friend
		}
	}

	if len(recipients) == 0 {
		return
	}

	users := make([]models.User, 0, len(recipients))
	for _, u := range recipients {
		users = append(users, u)
	}

	if err := s.notifier.Send(users, notify.EventFriendsOther, map[string]interface{}{
		"from_user": fromUser.ID,
		"to_user":   toUser.ID,
	}); err != nil {
		logger.Warn("failed to send otherconnect notification", "error", err)
	}
}

// Remove deletes both directions of the pair and cascades any live
// invitation between them to Deleted.
func (s *FriendshipService) Remove(userID1, userID2 uint) error {
	if err := s.friendships.Remove(userID1, userID2); err != nil {
		return err
	}

	if err := s.invitations.MarkDeletedForPair(userID1, userID2); err != nil {
		return err
	}
	return s.invitations.MarkDeletedForPair(userID2, userID1)
}

func (s *FriendshipService) AreFriends(userID1, userID2 uint) (bool, error) {
	return s.friendships.AreFriends(userID1, userID2)
}

func (s *FriendshipService) FriendsFor(userID uint) ([]repositories.FriendEntry, error) {
	return s.friendships.FriendsFor(userID)
}

func (s *FriendshipService) SharedFriends(userID1, userID2 uint) ([]models.User, error) {
	return s.friendships.SharedFriends(userID1, userID2)
}

func (s *FriendshipService) FriendsOfFriends(userID uint) ([]models.User, error) {
	return s.friendships.FriendsOfFriends(userID)
}
