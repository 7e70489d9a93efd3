package importer

import (
	"fmt"
	"strings"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/pkg/errors"
)

// fakeContactStore keeps contacts in memory keyed by (owner, email).
type fakeContactStore struct {
	contacts map[string]*models.Contact
	nextID   uint
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{contacts: make(map[string]*models.Contact)}
}

func contactKey(ownerID uint, email string) string {
	return fmt.Sprintf("%d|%s", ownerID, strings.ToLower(email))
}

func (f *fakeContactStore) GetOrCreate(ownerID uint, email string) (*models.Contact, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if c, ok := f.contacts[contactKey(ownerID, email)]; ok {
		return c, false, nil
	}
	f.nextID++
	c := &models.Contact{
		ID:      f.nextID,
		OwnerID: ownerID,
		Email:   email,
		Type:    models.ContactTypeManual,
	}
	f.contacts[contactKey(ownerID, email)] = c
	return c, true, nil
}

func (f *fakeContactStore) CreateFromUser(ownerID uint, user *models.User) (*models.Contact, error) {
	c, _, err := f.GetOrCreate(ownerID, user.Email)
	if err != nil {
		return nil, err
	}
	c.UserID = &user.ID
	c.Type = models.ContactTypeFriendship
	return c, nil
}

func (f *fakeContactStore) Save(contact *models.Contact) error {
	if err := contact.BeforeSave(nil); err != nil {
		return err
	}
	f.contacts[contactKey(contact.OwnerID, contact.Email)] = contact
	return nil
}

func (f *fakeContactStore) GetByID(id uint) (*models.Contact, error) {
	for _, c := range f.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "contact not found")
}

func (f *fakeContactStore) ListForOwner(ownerID uint) ([]models.Contact, error) {
	var out []models.Contact
	for _, c := range f.contacts {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeContactStore) Search(ownerID uint, query string) ([]models.Contact, error) {
	query = strings.ToLower(query)
	var out []models.Contact
	for _, c := range f.contacts {
		if c.OwnerID == ownerID && strings.Contains(strings.ToLower(c.Name), query) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeContactStore) SoftDelete(id uint) error {
	for key, c := range f.contacts {
		if c.ID == id {
			delete(f.contacts, key)
			return nil
		}
	}
	return errors.New(errors.ErrCodeNotFound, "contact not found")
}

func (f *fakeContactStore) ExistsForOwner(ownerID uint, email string) (bool, error) {
	_, ok := f.contacts[contactKey(ownerID, email)]
	return ok, nil
}

func (f *fakeContactStore) LinkUserByEmail(user *models.User) (int64, error) {
	var linked int64
	for _, c := range f.contacts {
		if c.Email == strings.ToLower(user.Email) && c.UserID == nil {
			id := user.ID
			c.UserID = &id
			linked++
		}
	}
	return linked, nil
}

func (f *fakeContactStore) PurgeUnclaimedImports(ownerID uint, contactType string, keep []string) (int64, error) {
	keepSet := make(map[string]bool, len(keep))
	for _, email := range keep {
		keepSet[email] = true
	}

	var purged int64
	for key, c := range f.contacts {
		if c.OwnerID == ownerID && c.Type == contactType && c.UserID == nil && !keepSet[c.Email] {
			delete(f.contacts, key)
			purged++
		}
	}
	return purged, nil
}

// fakeUserStore serves lookups from a fixed slice.
type fakeUserStore struct {
	users []*models.User
}

func (f *fakeUserStore) Create(user *models.User) error {
	user.ID = uint(len(f.users) + 1)
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserStore) GetByID(id uint) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}

func (f *fakeUserStore) GetByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}

func (f *fakeUserStore) GetByUsername(username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}
