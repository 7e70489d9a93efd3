// Package importer normalizes external address-book data (delimited
// text, XLSX, vCard, Google contacts) into contact rows. Parsing is
// separated from persistence: each format produces ContactData records
// which flow through a single create-or-get entry point.
package importer

import (
	"time"

	"github.com/mroshb/friends/internal/repositories"
	"github.com/mroshb/friends/internal/security"
	"github.com/mroshb/friends/pkg/errors"
	"github.com/mroshb/friends/pkg/logger"
)

// ContactData is one normalized record from an external source.
type ContactData struct {
	Name      string
	FirstName string
	LastName  string
	Address   string
	Country   string
	Email     string
	Phone     string
	Fax       string
	Mobile    string
	Website   string
	Birthday  *time.Time
}

// Result reports what an import run committed. Imported counts newly
// created rows only, so a repeated import of unchanged data reports 0.
type Result struct {
	Imported int
	Total    int
}

type Importer struct {
	contacts repositories.ContactStore
	users    repositories.UserStore
}

func New(contacts repositories.ContactStore, users repositories.UserStore) *Importer {
	return &Importer{contacts: contacts, users: users}
}

// CreateOrGet is the single persistence entry point shared by all
// importers: idempotent on (owner, email), auto-links to an existing
// user by exact email match, and reports whether the row is new so
// import counts stay accurate.
func (im *Importer) CreateOrGet(ownerID uint, contactType string, data ContactData) (bool, error) {
	if data.Email == "" {
		return false, errors.New(errors.ErrCodeValidation, "record has no email address")
	}

	contact, created, err := im.contacts.GetOrCreate(ownerID, data.Email)
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	contact.Type = contactType
	contact.Name = security.SanitizeText(data.Name)
	contact.FirstName = security.SanitizeText(data.FirstName)
	contact.LastName = security.SanitizeText(data.LastName)
	contact.Address = security.SanitizeText(data.Address)
	contact.Country = security.SanitizeText(data.Country)
	contact.Phone = security.SanitizeText(data.Phone)
	contact.Fax = security.SanitizeText(data.Fax)
	contact.Mobile = security.SanitizeText(data.Mobile)
	contact.Website = security.SanitizeText(data.Website)
	contact.Birthday = data.Birthday

	if user, err := im.users.GetByEmail(data.Email); err == nil {
		contact.UserID = &user.ID
	}

	if err := im.contacts.Save(contact); err != nil {
		return false, err
	}
	return true, nil
}

// purgeUnclaimed clears earlier imports of the same source type that
// never got claimed by a registered user and dropped out of the
// incoming batch, so a re-import mirrors the current external state.
// Contacts linked to a user are left untouched, and rows still present
// in the batch survive so unchanged data imports as a no-op.
func (im *Importer) purgeUnclaimed(ownerID uint, contactType string, records []ContactData) {
	keep := make([]string, 0, len(records))
	for _, record := range records {
		if record.Email != "" {
			keep = append(keep, record.Email)
		}
	}

	purged, err := im.contacts.PurgeUnclaimedImports(ownerID, contactType, keep)
	if err != nil {
		logger.Warn("failed to purge stale imported contacts",
			"owner", ownerID, "type", contactType, "error", err)
		return
	}
	if purged > 0 {
		logger.Info("purged stale imported contacts",
			"owner", ownerID, "type", contactType, "count", purged)
	}
}

// persist writes parsed records, skipping per-record failures rather
// than aborting the batch.
func (im *Importer) persist(ownerID uint, contactType string, records []ContactData, result *Result) {
	for _, record := range records {
		created, err := im.CreateOrGet(ownerID, contactType, record)
		if err != nil {
			logger.Warn("failed to import contact record",
				"owner", ownerID, "email", record.Email, "error", err)
			continue
		}
		if created {
			result.Imported++
		}
	}
}

