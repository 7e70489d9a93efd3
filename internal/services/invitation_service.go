package services

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/internal/notify"
	"github.com/mroshb/friends/internal/repositories"
	"github.com/mroshb/friends/internal/security"
	"github.com/mroshb/friends/pkg/errors"
	"github.com/mroshb/friends/pkg/logger"
	"github.com/mroshb/friends/pkg/utils"
)

// InvitationConfig carries the settings the invitation flows need.
type InvitationConfig struct {
	SiteHost             string
	ContactEmail         string
	DefaultFromEmail     string
	TokenSecret          string
	InviteTokenTTL       time.Duration
	MaxBatchInvites      int
	NotificationsEnabled bool
}

type InvitationService struct {
	invitations repositories.InvitationStore
	contacts    repositories.ContactStore
	suggestions repositories.SuggestionStore
	users       repositories.UserStore
	friendships *FriendshipService

	notifier notify.Notifier
	mailer   notify.Mailer
	cfg      InvitationConfig
	validate *validator.Validate
}

func NewInvitationService(
	invitations repositories.InvitationStore,
	contacts repositories.ContactStore,
	suggestions repositories.SuggestionStore,
	users repositories.UserStore,
	friendships *FriendshipService,
	notifier notify.Notifier,
	mailer notify.Mailer,
	cfg InvitationConfig,
) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		contacts:    contacts,
		suggestions: suggestions,
		users:       users,
		friendships: friendships,
		notifier:    notifier,
		mailer:      mailer,
		cfg:         cfg,
		validate:    validator.New(),
	}
}

// SendFriendshipInvitation proposes a friendship between two members.
// A user may not hold two simultaneous live invitations with the same
// counterpart in either direction; any archived prior invitation for
// the ordered pair is copied to history before the new row is written.
func (s *InvitationService) SendFriendshipInvitation(fromUserID, toUserID uint, message string, relationTags []string, howRelated string) (*models.FriendshipInvitation, error) {
	if fromUserID == toUserID {
		return nil, errors.New(errors.ErrCodeSelfFriendship, "cannot invite yourself")
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

	active, err := s.invitations.HasActiveBetween(fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, errors.New(errors.ErrCodeDuplicateInvitation,
			fmt.Sprintf("friendship already requested with %s", toUser.Username))
	}

	// symmetric duplicate check
	inverse, err := s.invitations.HasActiveBetween(toUserID, fromUserID)
	if err != nil {
		return nil, err
	}
	if inverse {
		return nil, errors.New(errors.ErrCodeDuplicateInvitation,
			fmt.Sprintf("%s has already requested friendship with you", toUser.Username))
	}

	invitation := &models.FriendshipInvitation{
		FromUserID:   fromUserID,
		ToUserID:     toUserID,
		Message:      security.SanitizeText(message),
		RelationTags: relationTags,
		HowRelated:   security.SanitizeText(howRelated),
		Status:       models.InviteStatusSent,
	}
	if err := s.invitations.ArchiveAndCreate(invitation); err != nil {
		return nil, err
	}

	s.send([]models.User{*toUser}, notify.EventFriendsInvite, invitation.UUID)
	s.send([]models.User{*fromUser}, notify.EventFriendsInviteSent, invitation.UUID)

	return invitation, nil
}

// Accept realizes the invitation as a friendship. Accepting when the
// two users are already friends is a silent no-op, so racing accepts
// neither duplicate edges nor double-send notifications.
func (s *InvitationService) Accept(invitationUUID string) (*models.FriendshipInvitation, error) {
	invitation, err := s.invitations.GetByUUID(invitationUUID)
	if err != nil {
		return nil, err
	}

	alreadyFriends, err := s.friendships.AreFriends(invitation.FromUserID, invitation.ToUserID)
	if err != nil {
		return nil, err
	}
	if alreadyFriends {
		return invitation, nil
	}

	if _, err := s.friendships.Establish(
		invitation.FromUserID, invitation.ToUserID,
		invitation.RelationTags, invitation.HowRelated,
	); err != nil {
		// A concurrent accept can win the race between the check above
		// and the insert; treat that as the no-op case.
		if errors.HasCode(err, errors.ErrCodeAlreadyFriends) {
			return invitation, nil
		}
		return nil, err
	}

	if err := s.invitations.UpdateStatus(invitation.ID, models.InviteStatusAccepted); err != nil {
		return nil, err
	}
	invitation.Status = models.InviteStatusAccepted

	s.send([]models.User{invitation.FromUser}, notify.EventFriendsAccept, invitation.UUID)
	s.send([]models.User{invitation.ToUser}, notify.EventFriendsAcceptSent, invitation.UUID)

	return invitation, nil
}

// Decline marks the invitation declined unless the pair is already
// friends, which guards against declining a stale invite after an
// acceptance raced in.
func (s *InvitationService) Decline(invitationUUID string) (*models.FriendshipInvitation, error) {
	invitation, err := s.invitations.GetByUUID(invitationUUID)
	if err != nil {
		return nil, err
	}

	alreadyFriends, err := s.friendships.AreFriends(invitation.FromUserID, invitation.ToUserID)
	if err != nil {
		return nil, err
	}
	if alreadyFriends {
		return invitation, nil
	}

	if err := s.invitations.UpdateStatus(invitation.ID, models.InviteStatusDeclined); err != nil {
		return nil, err
	}
	invitation.Status = models.InviteStatusDeclined

	return invitation, nil
}

// SendJoinInvitation invites an email address with no account yet. The
// contact row is created (or revived) under the sender's ownership, the
// accept URL wraps the confirmation key in a signed expiring token, and
// a mail failure degrades the invitation to Failed without undoing it.
func (s *InvitationService) SendJoinInvitation(fromUserID uint, toEmail, message string) (*models.JoinInvitation, error) {
	if err := s.validate.Var(toEmail, "required,email"); err != nil {
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("invalid email address %q", toEmail))
	}

	fromUser, err := s.users.GetByID(fromUserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(toEmail); err == nil {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "someone with that email address is already a member")
	} else if !errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	contact, _, err := s.contacts.GetOrCreate(fromUserID, toEmail)
	if err != nil {
		return nil, err
	}
	contact.Type = models.ContactTypeInvited
	if err := s.contacts.Save(contact); err != nil {
		return nil, err
	}

	key, err := security.ConfirmationKey(contact.Email)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to generate confirmation key")
	}

	invitation := &models.JoinInvitation{
		FromUserID:      fromUserID,
		ContactID:       contact.ID,
		Message:         security.SanitizeText(message),
		ConfirmationKey: key,
		Status:          models.InviteStatusSent,
	}
	if err := s.invitations.CreateJoin(invitation); err != nil {
		return nil, err
	}
	invitation.FromUser = *fromUser
	invitation.Contact = *contact

	// suggest the sender to the future invitee
	if _, _, err := s.suggestions.GetOrCreate(nil, contact.Email, fromUserID, models.SuggestReasonInvite); err != nil {
		logger.Warn("failed to seed suggestion from invite", "email", contact.Email, "error", err)
	}

	if err := s.deliverJoinInvitation(invitation, fromUser); err != nil {
		logger.Warn("failed to deliver join invitation",
			"invitation", invitation.UUID, "to", contact.Email, "error", err)
		if updateErr := s.invitations.UpdateJoinStatus(invitation.ID, models.InviteStatusFailed); updateErr == nil {
			invitation.Status = models.InviteStatusFailed
		}
	}

	return invitation, nil
}

func (s *InvitationService) deliverJoinInvitation(invitation *models.JoinInvitation, fromUser *models.User) error {
	if s.mailer == nil {
		return nil
	}

	token, err := security.AcceptToken(invitation.ConfirmationKey, s.cfg.TokenSecret, s.cfg.InviteTokenTTL)
	if err != nil {
		return err
	}
	acceptURL := fmt.Sprintf("http://%s/invitations/accept/%s", s.cfg.SiteHost, token)

	subject := fmt.Sprintf("%s invited you to join %s", fromUser.FullName(), s.cfg.SiteHost)
	body := fmt.Sprintf("%s\n\nAccept the invitation: %s\n\nQuestions? Contact %s\n",
		invitation.Message, acceptURL, s.cfg.ContactEmail)

	return s.mailer.Send(subject, body, s.cfg.DefaultFromEmail, invitation.Contact.Email)
}

// AcceptJoin resolves an accept-URL token into its invitation and forms
// the friendship with the newly registered user. An expired token marks
// the invitation Expired and reports a validation failure.
func (s *InvitationService) AcceptJoin(token string, newUserID uint) (*models.JoinInvitation, error) {
	key, err := security.ParseAcceptToken(token, s.cfg.TokenSecret)
	if err != nil {
		if stderrors.Is(err, security.ErrTokenExpired) && key != "" {
			if invitation, lookupErr := s.invitations.GetJoinByKey(key); lookupErr == nil && !invitation.Status.Terminal() {
				if updateErr := s.invitations.UpdateJoinStatus(invitation.ID, models.InviteStatusExpired); updateErr != nil {
					logger.Warn("failed to expire join invitation", "invitation", invitation.UUID, "error", updateErr)
				}
			}
			return nil, errors.New(errors.ErrCodeValidation, "invitation has expired")
		}
		return nil, errors.New(errors.ErrCodeValidation, "invalid invitation code")
	}

	invitation, err := s.invitations.GetJoinByKey(key)
	if err != nil {
		return nil, err
	}

	newUser, err := s.users.GetByID(newUserID)
	if err != nil {
		return nil, err
	}

	if invitation.Status == models.InviteStatusAccepted {
		return invitation, nil
	}

	if err := s.invitations.UpdateJoinStatus(invitation.ID, models.InviteStatusAccepted); err != nil {
		return nil, err
	}
	invitation.Status = models.InviteStatusAccepted

	if _, err := s.friendships.Establish(invitation.FromUserID, newUser.ID, nil, ""); err != nil &&
		!errors.HasCode(err, errors.ErrCodeAlreadyFriends) {
		return nil, err
	}

	s.send([]models.User{invitation.FromUser}, notify.EventJoinAccept, invitation.UUID)

	return invitation, nil
}

// InviteBatchResult reports how each address in a multi-invite was
// classified.
type InviteBatchResult struct {
	Total            int
	FriendRequests   int
	ExistingContacts int
	JoinInvitations  int
	Invalid          []string
}

// InviteMany fans a pasted block of addresses out to the right flow per
// address: members get a friendship invitation, existing contacts are
// skipped, everyone else gets a join invitation. Per-address failures
// do not abort the batch.
func (s *InvitationService) InviteMany(fromUserID uint, rawEmails string) (*InviteBatchResult, error) {
	emails := utils.SplitEmailList(rawEmails)
	if len(emails) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "no valid email addresses given")
	}
	if s.cfg.MaxBatchInvites > 0 && len(emails) > s.cfg.MaxBatchInvites {
		return nil, errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("cannot invite more than %d addresses at once (got %d)", s.cfg.MaxBatchInvites, len(emails)))
	}

	result := &InviteBatchResult{}
	for _, email := range emails {
		result.Total++

		if err := s.validate.Var(email, "required,email"); err != nil {
			result.Invalid = append(result.Invalid, email)
			continue
		}

		if member, err := s.users.GetByEmail(email); err == nil {
			if _, err := s.SendFriendshipInvitation(fromUserID, member.ID, "", nil, ""); err != nil {
				logger.Warn("batch friend request failed", "email", email, "error", err)
				continue
			}
			result.FriendRequests++
			continue
		}

		exists, err := s.contacts.ExistsForOwner(fromUserID, email)
		if err != nil {
			return nil, err
		}
		if exists {
			result.ExistingContacts++
			continue
		}

		if _, err := s.SendJoinInvitation(fromUserID, email, ""); err != nil {
			logger.Warn("batch join invitation failed", "email", email, "error", err)
			continue
		}
		result.JoinInvitations++
	}

	return result, nil
}

func (s *InvitationService) send(recipients []models.User, kind, invitationUUID string) {
	if !s.cfg.NotificationsEnabled || s.notifier == nil {
		return
	}
	if err := s.notifier.Send(recipients, kind, map[string]interface{}{
		"invitation": invitationUUID,
	}); err != nil {
		logger.Warn("failed to send notification", "kind", kind, "error", err)
	}
}
