package services

import (
	"gorm.io/gorm"

	"github.com/mroshb/friends/internal/config"
	"github.com/mroshb/friends/internal/importer"
	"github.com/mroshb/friends/internal/notify"
	"github.com/mroshb/friends/internal/repositories"
)

// Registry wires the repositories and services over a single database
// handle. The surrounding application constructs one at startup and
// hands out the services it needs.
type Registry struct {
	Friendships *FriendshipService
	Invitations *InvitationService
	Suggestions *SuggestionService
	Identity    *IdentityService
	Importer    *importer.Importer

	Users    repositories.UserStore
	Contacts repositories.ContactStore
}

func NewRegistry(db *gorm.DB, cfg *config.Config, notifier notify.Notifier, mailer notify.Mailer, profiles ProfileProvider) *Registry {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	if mailer == nil {
		mailer = notify.NoopMailer{}
	}

	contacts := repositories.NewContactRepository(db)
	friendships := repositories.NewFriendshipRepository(db)
	invitations := repositories.NewInvitationRepository(db)
	suggestions := repositories.NewSuggestionRepository(db)
	users := repositories.NewUserRepository(db)

	friendshipSvc := NewFriendshipService(
		friendships, contacts, invitations, suggestions, users,
		notifier, cfg.NotificationsEnabled,
	)

	invitationSvc := NewInvitationService(
		invitations, contacts, suggestions, users, friendshipSvc,
		notifier, mailer,
		InvitationConfig{
			SiteHost:             cfg.SiteHost,
			ContactEmail:         cfg.ContactEmail,
			DefaultFromEmail:     cfg.DefaultFromEmail,
			TokenSecret:          cfg.TokenSecret,
			InviteTokenTTL:       cfg.GetInviteTokenTTL(),
			MaxBatchInvites:      cfg.MaxBatchInvites,
			NotificationsEnabled: cfg.NotificationsEnabled,
		},
	)

	return &Registry{
		Friendships: friendshipSvc,
		Invitations: invitationSvc,
		Suggestions: NewSuggestionService(suggestions, friendships, profiles, cfg.MaxNeighborSuggestions),
		Identity:    NewIdentityService(contacts, suggestions, invitations),
		Importer:    importer.New(contacts, users),
		Users:       users,
		Contacts:    contacts,
	}
}
