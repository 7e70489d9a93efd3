package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/internal/repositories"
	"github.com/mroshb/friends/pkg/errors"
)

// In-memory store implementations backing the service tests.

type memUsers struct {
	users []*models.User
}

func (m *memUsers) Create(user *models.User) error {
	user.ID = uint(len(m.users) + 1)
	m.users = append(m.users, user)
	return nil
}

func (m *memUsers) GetByID(id uint) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}

func (m *memUsers) GetByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}

func (m *memUsers) GetByUsername(username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}

type memContacts struct {
	contacts map[string]*models.Contact
	nextID   uint
}

func newMemContacts() *memContacts {
	return &memContacts{contacts: make(map[string]*models.Contact)}
}

func (m *memContacts) key(ownerID uint, email string) string {
	return fmt.Sprintf("%d|%s", ownerID, strings.ToLower(email))
}

func (m *memContacts) GetOrCreate(ownerID uint, email string) (*models.Contact, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if c, ok := m.contacts[m.key(ownerID, email)]; ok {
		return c, false, nil
	}
	m.nextID++
	c := &models.Contact{ID: m.nextID, OwnerID: ownerID, Email: email, Type: models.ContactTypeManual}
	m.contacts[m.key(ownerID, email)] = c
	return c, true, nil
}

func (m *memContacts) CreateFromUser(ownerID uint, user *models.User) (*models.Contact, error) {
	c, created, err := m.GetOrCreate(ownerID, user.Email)
	if err != nil {
		return nil, err
	}
	if created {
		c.FirstName = user.FirstName
		c.LastName = user.LastName
		c.Type = models.ContactTypeFriendship
	}
	c.UserID = &user.ID
	return c, nil
}

func (m *memContacts) Save(contact *models.Contact) error {
	m.contacts[m.key(contact.OwnerID, contact.Email)] = contact
	return nil
}

func (m *memContacts) GetByID(id uint) (*models.Contact, error) {
	for _, c := range m.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "contact not found")
}

func (m *memContacts) ListForOwner(ownerID uint) ([]models.Contact, error) {
	var out []models.Contact
	for _, c := range m.contacts {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memContacts) Search(ownerID uint, query string) ([]models.Contact, error) {
	query = strings.ToLower(query)
	var out []models.Contact
	for _, c := range m.contacts {
		if c.OwnerID == ownerID && strings.Contains(strings.ToLower(c.Name), query) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memContacts) SoftDelete(id uint) error {
	for key, c := range m.contacts {
		if c.ID == id {
			delete(m.contacts, key)
			return nil
		}
	}
	return errors.New(errors.ErrCodeNotFound, "contact not found")
}

func (m *memContacts) ExistsForOwner(ownerID uint, email string) (bool, error) {
	_, ok := m.contacts[m.key(ownerID, email)]
	return ok, nil
}

func (m *memContacts) LinkUserByEmail(user *models.User) (int64, error) {
	var linked int64
	for _, c := range m.contacts {
		if c.Email == strings.ToLower(user.Email) && c.UserID == nil {
			id := user.ID
			c.UserID = &id
			linked++
		}
	}
	return linked, nil
}

func (m *memContacts) PurgeUnclaimedImports(ownerID uint, contactType string, keep []string) (int64, error) {
	keepSet := make(map[string]bool, len(keep))
	for _, email := range keep {
		keepSet[email] = true
	}

	var purged int64
	for key, c := range m.contacts {
		if c.OwnerID == ownerID && c.Type == contactType && c.UserID == nil && !keepSet[c.Email] {
			delete(m.contacts, key)
			purged++
		}
	}
	return purged, nil
}

type memFriendships struct {
	edges map[string]*models.Friendship
	users *memUsers
	next  uint
}

func newMemFriendships(users *memUsers) *memFriendships {
	return &memFriendships{edges: make(map[string]*models.Friendship), users: users}
}

func edgeKey(from, to uint) string {
	return fmt.Sprintf("%d->%d", from, to)
}

func (m *memFriendships) Create(friendship *models.Friendship) error {
	if friendship.FromUserID == friendship.ToUserID {
		return errors.New(errors.ErrCodeSelfFriendship, "cannot befriend yourself")
	}
	if _, ok := m.edges[edgeKey(friendship.FromUserID, friendship.ToUserID)]; ok {
		return errors.New(errors.ErrCodeAlreadyFriends, "edge exists")
	}
	m.next++
	friendship.ID = m.next
	friendship.Added = time.Now()
	m.edges[edgeKey(friendship.FromUserID, friendship.ToUserID)] = friendship

	m.next++
	mirror := &models.Friendship{
		ID:           m.next,
		FromUserID:   friendship.ToUserID,
		ToUserID:     friendship.FromUserID,
		RelationTags: friendship.RelationTags,
		HowRelated:   friendship.HowRelated,
		Added:        friendship.Added,
	}
	m.edges[edgeKey(mirror.FromUserID, mirror.ToUserID)] = mirror
	return nil
}

func (m *memFriendships) AreFriends(userID1, userID2 uint) (bool, error) {
	_, ok := m.edges[edgeKey(userID1, userID2)]
	if !ok {
		_, ok = m.edges[edgeKey(userID2, userID1)]
	}
	return ok, nil
}

func (m *memFriendships) Remove(userID1, userID2 uint) error {
	_, ok1 := m.edges[edgeKey(userID1, userID2)]
	_, ok2 := m.edges[edgeKey(userID2, userID1)]
	if !ok1 && !ok2 {
		return errors.New(errors.ErrCodeNotFound, "friendship not found")
	}
	delete(m.edges, edgeKey(userID1, userID2))
	delete(m.edges, edgeKey(userID2, userID1))
	return nil
}

func (m *memFriendships) FriendsFor(userID uint) ([]repositories.FriendEntry, error) {
	var out []repositories.FriendEntry
	for _, e := range m.edges {
		if e.FromUserID != userID {
			continue
		}
		friend, err := m.users.GetByID(e.ToUserID)
		if err != nil {
			continue
		}
		out = append(out, repositories.FriendEntry{Friend: *friend, Friendship: *e})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Friend.ID < out[j].Friend.ID
	})
	return out, nil
}

func (m *memFriendships) FriendIDs(userID uint) ([]uint, error) {
	var ids []uint
	for _, e := range m.edges {
		if e.FromUserID == userID {
			ids = append(ids, e.ToUserID)
		}
	}
	return ids, nil
}

func (m *memFriendships) FriendsOfFriends(userID uint) ([]models.User, error) {
	direct := make(map[uint]bool)
	for _, e := range m.edges {
		if e.FromUserID == userID {
			direct[e.ToUserID] = true
		}
	}
	seen := make(map[uint]bool)
	var out []models.User
	for friendID := range direct {
		for _, e := range m.edges {
			if e.FromUserID != friendID {
				continue
			}
			candidate := e.ToUserID
			if candidate == userID || direct[candidate] || seen[candidate] {
				continue
			}
			seen[candidate] = true
			if u, err := m.users.GetByID(candidate); err == nil {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (m *memFriendships) SharedFriends(userID1, userID2 uint) ([]models.User, error) {
	var out []models.User
	for _, e := range m.edges {
		if e.FromUserID != userID1 || e.ToUserID == userID2 {
			continue
		}
		if _, ok := m.edges[edgeKey(userID2, e.ToUserID)]; !ok {
			continue
		}
		if u, err := m.users.GetByID(e.ToUserID); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

type memInvitations struct {
	invitations []*models.FriendshipInvitation
	history     []models.FriendshipInvitationHistory
	joins       []*models.JoinInvitation
	next        uint
}

func (m *memInvitations) HasActiveBetween(fromUserID, toUserID uint) (bool, error) {
	for _, inv := range m.invitations {
		if inv.FromUserID != fromUserID || inv.ToUserID != toUserID {
			continue
		}
		switch inv.Status {
		case models.InviteStatusCreated, models.InviteStatusSent, models.InviteStatusFailed:
			return true, nil
		}
	}
	return false, nil
}

func (m *memInvitations) ArchiveAndCreate(invitation *models.FriendshipInvitation) error {
	kept := m.invitations[:0]
	for _, inv := range m.invitations {
		if inv.FromUserID == invitation.FromUserID && inv.ToUserID == invitation.ToUserID {
			m.history = append(m.history, models.FriendshipInvitationHistory{
				FromUserID: inv.FromUserID,
				ToUserID:   inv.ToUserID,
				Message:    inv.Message,
				Sent:       inv.Sent,
				Status:     inv.Status,
				ArchivedAt: time.Now(),
			})
			continue
		}
		kept = append(kept, inv)
	}
	m.invitations = kept

	m.next++
	invitation.ID = m.next
	invitation.UUID = uuid.NewString()
	invitation.Sent = time.Now()
	m.invitations = append(m.invitations, invitation)
	return nil
}

func (m *memInvitations) GetByUUID(uuidStr string) (*models.FriendshipInvitation, error) {
	for _, inv := range m.invitations {
		if inv.UUID == uuidStr {
			return inv, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "invitation not found")
}

func (m *memInvitations) GetPending(fromUserID, toUserID uint) (*models.FriendshipInvitation, error) {
	for _, inv := range m.invitations {
		if inv.FromUserID == fromUserID && inv.ToUserID == toUserID && inv.Status.Live() {
			return inv, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "invitation not found")
}

func (m *memInvitations) UpdateStatus(id uint, status models.InviteStatus) error {
	for _, inv := range m.invitations {
		if inv.ID == id {
			inv.Status = status
			return nil
		}
	}
	return errors.New(errors.ErrCodeNotFound, "invitation not found")
}

func (m *memInvitations) MarkDeletedForPair(fromUserID, toUserID uint) error {
	for _, inv := range m.invitations {
		if inv.FromUserID != fromUserID || inv.ToUserID != toUserID {
			continue
		}
		switch inv.Status {
		case models.InviteStatusCreated, models.InviteStatusSent, models.InviteStatusFailed:
			inv.Status = models.InviteStatusDeleted
		}
	}
	return nil
}

func (m *memInvitations) HistoryForPair(fromUserID, toUserID uint) ([]models.FriendshipInvitationHistory, error) {
	var out []models.FriendshipInvitationHistory
	for _, h := range m.history {
		if h.FromUserID == fromUserID && h.ToUserID == toUserID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memInvitations) CreateJoin(invitation *models.JoinInvitation) error {
	m.next++
	invitation.ID = m.next
	invitation.UUID = uuid.NewString()
	invitation.Sent = time.Now()
	m.joins = append(m.joins, invitation)
	return nil
}

func (m *memInvitations) GetJoinByKey(confirmationKey string) (*models.JoinInvitation, error) {
	for _, inv := range m.joins {
		if inv.ConfirmationKey == confirmationKey {
			return inv, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "invitation not found")
}

func (m *memInvitations) JoinsForEmail(email string) ([]models.JoinInvitation, error) {
	var out []models.JoinInvitation
	for _, inv := range m.joins {
		if strings.EqualFold(inv.Contact.Email, email) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memInvitations) UpdateJoinStatus(id uint, status models.InviteStatus) error {
	for _, inv := range m.joins {
		if inv.ID == id {
			inv.Status = status
			return nil
		}
	}
	return errors.New(errors.ErrCodeNotFound, "invitation not found")
}

type memSuggestions struct {
	suggestions []*models.FriendSuggestion
	next        uint
}

func (m *memSuggestions) GetOrCreate(userID *uint, email string, suggestedUserID uint, why models.SuggestionReason) (*models.FriendSuggestion, bool, error) {
	for _, s := range m.suggestions {
		if s.SuggestedUserID != suggestedUserID {
			continue
		}
		if userID != nil && s.UserID != nil && *s.UserID == *userID {
			return s, false, nil
		}
		if userID == nil && s.UserID == nil && strings.EqualFold(s.Email, email) {
			return s, false, nil
		}
	}
	m.next++
	s := &models.FriendSuggestion{
		ID:              m.next,
		UserID:          userID,
		Email:           strings.ToLower(email),
		SuggestedUserID: suggestedUserID,
		Why:             why,
		Active:          true,
	}
	m.suggestions = append(m.suggestions, s)
	return s, true, nil
}

func (m *memSuggestions) DeactivatePair(userID1, userID2 uint) error {
	for _, s := range m.suggestions {
		if s.UserID == nil {
			continue
		}
		if (*s.UserID == userID1 && s.SuggestedUserID == userID2) ||
			(*s.UserID == userID2 && s.SuggestedUserID == userID1) {
			s.Active = false
		}
	}
	return nil
}

func (m *memSuggestions) LinkUserByEmail(user *models.User) (int64, error) {
	var linked int64
	for _, s := range m.suggestions {
		if s.UserID == nil && strings.EqualFold(s.Email, user.Email) {
			id := user.ID
			s.UserID = &id
			linked++
		}
	}
	return linked, nil
}

func (m *memSuggestions) ActiveFor(userID uint) ([]models.FriendSuggestion, error) {
	var out []models.FriendSuggestion
	for _, s := range m.suggestions {
		if s.Active && s.UserID != nil && *s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

// recordingNotifier captures dispatched events.
type sentEvent struct {
	kind       string
	recipients []uint
}

type recordingNotifier struct {
	events []sentEvent
}

func (r *recordingNotifier) Send(recipients []models.User, eventKind string, context map[string]interface{}) error {
	ids := make([]uint, 0, len(recipients))
	for _, u := range recipients {
		ids = append(ids, u.ID)
	}
	r.events = append(r.events, sentEvent{kind: eventKind, recipients: ids})
	return nil
}

func (r *recordingNotifier) ofKind(kind string) []sentEvent {
	var out []sentEvent
	for _, e := range r.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// recordingMailer captures outbound mail, optionally failing.
type recordingMailer struct {
	sent []string // recipient addresses
	fail bool
}

func (r *recordingMailer) Send(subject, body, from, to string) error {
	if r.fail {
		return fmt.Errorf("smtp unavailable")
	}
	r.sent = append(r.sent, to)
	return nil
}

// graph bundles a fully wired service set over in-memory stores.
type graph struct {
	users       *memUsers
	contacts    *memContacts
	friendships *memFriendships
	invitations *memInvitations
	suggestions *memSuggestions
	notifier    *recordingNotifier
	mailer      *recordingMailer

	friendshipSvc *FriendshipService
	invitationSvc *InvitationService
}

func newGraph() *graph {
	g := &graph{
		users:       &memUsers{},
		invitations: &memInvitations{},
		suggestions: &memSuggestions{},
		notifier:    &recordingNotifier{},
		mailer:      &recordingMailer{},
	}
	g.contacts = newMemContacts()
	g.friendships = newMemFriendships(g.users)

	g.friendshipSvc = NewFriendshipService(
		g.friendships, g.contacts, g.invitations, g.suggestions, g.users,
		g.notifier, true,
	)
	g.invitationSvc = NewInvitationService(
		g.invitations, g.contacts, g.suggestions, g.users, g.friendshipSvc,
		g.notifier, g.mailer,
		InvitationConfig{
			SiteHost:             "friends.example.com",
			ContactEmail:         "support@friends.example.com",
			DefaultFromEmail:     "noreply@friends.example.com",
			TokenSecret:          "test_secret_key_minimum_32_chars",
			InviteTokenTTL:       time.Hour,
			MaxBatchInvites:      5,
			NotificationsEnabled: true,
		},
	)
	return g
}

func (g *graph) addUser(username, email string) *models.User {
	u := &models.User{Username: username, Email: email, Verified: true}
	_ = g.users.Create(u)
	return u
}
