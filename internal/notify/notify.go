// Package notify defines the outbound collaborator contracts. Delivery
// is out of scope: implementations live in the surrounding application,
// and failures never roll back the state transition that fired them.
package notify

import (
	"github.com/mroshb/friends/internal/models"
)

// Notification event kinds.
const (
	EventFriendsInvite     = "friends_invite"
	EventFriendsInviteSent = "friends_invite_sent"
	EventFriendsAccept     = "friends_accept"
	EventFriendsAcceptSent = "friends_accept_sent"
	EventFriendsOther      = "friends_otherconnect"
	EventJoinAccept        = "join_accept"
)

// Notifier dispatches an in-app notification event to recipients.
type Notifier interface {
	Send(recipients []models.User, eventKind string, context map[string]interface{}) error
}

// Mailer delivers a single email; used only for join-invitation accept
// URLs.
type Mailer interface {
	Send(subject, body, from, to string) error
}

// NoopNotifier satisfies Notifier when no dispatcher is wired in.
type NoopNotifier struct{}

func (NoopNotifier) Send([]models.User, string, map[string]interface{}) error {
	return nil
}

// NoopMailer satisfies Mailer for deployments without outbound mail.
type NoopMailer struct{}

func (NoopMailer) Send(subject, body, from, to string) error {
	return nil
}
