package services

import (
	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/internal/repositories"
	"github.com/mroshb/friends/pkg/logger"
)

// IdentityService is the intake for user-directory events. The user
// rows themselves belong to the surrounding application; the graph only
// reacts to them.
type IdentityService struct {
	contacts    repositories.ContactStore
	suggestions repositories.SuggestionStore
	invitations repositories.InvitationStore
}

func NewIdentityService(
	contacts repositories.ContactStore,
	suggestions repositories.SuggestionStore,
	invitations repositories.InvitationStore,
) *IdentityService {
	return &IdentityService{
		contacts:    contacts,
		suggestions: suggestions,
		invitations: invitations,
	}
}

// OnUserCreated backfills the user reference on every contact and
// bare-email suggestion matching the new account's email address. The
// fan-out is keyed by email across all owners.
func (s *IdentityService) OnUserCreated(user *models.User) error {
	linked, err := s.contacts.LinkUserByEmail(user)
	if err != nil {
		return err
	}
	if linked > 0 {
		logger.Info("linked contacts to new user", "user", user.ID, "contacts", linked)
	}

	if _, err := s.suggestions.LinkUserByEmail(user); err != nil {
		return err
	}
	return nil
}

// OnUserVerified runs the created-backfill and additionally resolves
// outstanding join invitations: anyone who invited this email gets the
// invitation marked JoinedIndependently, unless it was already accepted
// through the invite link.
func (s *IdentityService) OnUserVerified(user *models.User) error {
	if err := s.OnUserCreated(user); err != nil {
		return err
	}

	invitations, err := s.invitations.JoinsForEmail(user.Email)
	if err != nil {
		return err
	}

	for _, invitation := range invitations {
		switch invitation.Status {
		case models.InviteStatusAccepted, models.InviteStatusJoinedIndependently:
			continue
		}
		if err := s.invitations.UpdateJoinStatus(invitation.ID, models.InviteStatusJoinedIndependently); err != nil {
			logger.Warn("failed to mark invitation joined independently",
				"invitation", invitation.UUID, "error", err)
		}
	}

	return nil
}
