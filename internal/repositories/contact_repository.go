package repositories

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/pkg/errors"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// GetOrCreate finds or creates the contact row for (owner, email).
// Soft-deleted rows are revived rather than duplicated, so the unique
// key survives delete-then-re-add sequences.
func (r *ContactRepository) GetOrCreate(ownerID uint, email string) (*models.Contact, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, errors.New(errors.ErrCodeValidation, "contact email is required")
	}

	var contact models.Contact
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().
			Where("owner_id = ? AND email = ?", ownerID, email).
			First(&contact)

		if result.Error == nil {
			if contact.Deleted.Valid {
				if err := tx.Unscoped().Model(&contact).Update("deleted", nil).Error; err != nil {
					return err
				}
				contact.Deleted = gorm.DeletedAt{}
			}
			return nil
		}
		if result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}

		contact = models.Contact{
			OwnerID: ownerID,
			Email:   email,
			Type:    models.ContactTypeManual,
		}
		created = true
		return tx.Create(&contact).Error
	})

	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get or create contact")
	}

	return &contact, created, nil
}

// CreateFromUser snapshots a user's name fields into a contact of type
// friendship, used when an edge between two members is established.
func (r *ContactRepository) CreateFromUser(ownerID uint, user *models.User) (*models.Contact, error) {
	contact, _, err := r.GetOrCreate(ownerID, user.Email)
	if err != nil {
		return nil, err
	}

	contact.Type = models.ContactTypeFriendship
	contact.UserID = &user.ID
	if contact.FirstName == "" {
		contact.FirstName = user.FirstName
	}
	if contact.LastName == "" {
		contact.LastName = user.LastName
	}
	if contact.Name == "" {
		contact.Name = user.FullName()
	}

	if err := r.Save(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *ContactRepository) Save(contact *models.Contact) error {
	if err := r.db.Save(contact).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save contact")
	}
	return nil
}

func (r *ContactRepository) GetByID(id uint) (*models.Contact, error) {
	var contact models.Contact
	result := r.db.Preload("User").First(&contact, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "contact not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get contact")
	}

	return &contact, nil
}

// ListForOwner returns the owner's address book, soft-deleted rows
// excluded, ordered for display.
func (r *ContactRepository) ListForOwner(ownerID uint) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.Preload("User").
		Where("owner_id = ?", ownerID).
		Order("last_name, first_name, name, email").
		Find(&contacts).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list contacts")
	}
	return contacts, nil
}

// Search matches every whitespace-separated token of query against the
// name fields of the owner's contacts.
func (r *ContactRepository) Search(ownerID uint, query string) ([]models.Contact, error) {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	tx := r.db.Preload("User").Where("owner_id = ?", ownerID)
	for _, token := range tokens {
		pattern := "%" + strings.ToLower(token) + "%"
		tx = tx.Where(
			"LOWER(name) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var contacts []models.Contact
	if err := tx.Order("last_name, first_name").Find(&contacts).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to search contacts")
	}
	return contacts, nil
}

func (r *ContactRepository) SoftDelete(id uint) error {
	result := r.db.Delete(&models.Contact{}, id)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to delete contact")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "contact not found")
	}
	return nil
}

func (r *ContactRepository) ExistsForOwner(ownerID uint, email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Contact{}).
		Where("owner_id = ? AND email = ?", ownerID, strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error

	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check contact")
	}
	return count > 0, nil
}

// LinkUserByEmail backfills the user reference on every unlinked contact
// carrying the user's email. The fan-out is keyed by email, not owner.
func (r *ContactRepository) LinkUserByEmail(user *models.User) (int64, error) {
	result := r.db.Model(&models.Contact{}).
		Where("email = ? AND user_id IS NULL", strings.ToLower(user.Email)).
		Update("user_id", user.ID)

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to link contacts to user")
	}
	return result.RowsAffected, nil
}

// PurgeUnclaimedImports hard-deletes contacts of the given import type
// that were never linked to a user and no longer appear in the incoming
// batch, so a re-import reflects the current external address book
// instead of accumulating stale rows. Rows whose email is in keep stay
// put, which makes importing unchanged data a no-op.
func (r *ContactRepository) PurgeUnclaimedImports(ownerID uint, contactType string, keep []string) (int64, error) {
	query := r.db.Unscoped().
		Where("owner_id = ? AND type = ? AND user_id IS NULL", ownerID, contactType)
	if len(keep) > 0 {
		query = query.Where("email NOT IN ?", keep)
	}
	result := query.Delete(&models.Contact{})

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to purge imported contacts")
	}
	return result.RowsAffected, nil
}
