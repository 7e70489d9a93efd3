package repositories

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/pkg/errors"
)

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// HasActiveBetween reports whether a pending invitation exists for the
// ordered pair. Terminal rows never block a new invitation; a realized
// one is caught by the already-friends check upstream.
func (r *InvitationRepository) HasActiveBetween(fromUserID, toUserID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.FriendshipInvitation{}).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Where("status IN ?", []models.InviteStatus{models.InviteStatusCreated, models.InviteStatusSent, models.InviteStatusFailed}).
		Count(&count).Error

	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check invitations")
	}
	return count > 0, nil
}

// ArchiveAndCreate moves any existing invitation rows for the ordered
// pair into history with their exact field values, deletes them, and
// writes the new row, all in one transaction.
func (r *InvitationRepository) ArchiveAndCreate(invitation *models.FriendshipInvitation) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var prior []models.FriendshipInvitation
		if err := tx.Where(
			"from_user_id = ? AND to_user_id = ?",
			invitation.FromUserID, invitation.ToUserID,
		).Find(&prior).Error; err != nil {
			return err
		}

		for _, old := range prior {
			history := models.FriendshipInvitationHistory{
				FromUserID: old.FromUserID,
				ToUserID:   old.ToUserID,
				Message:    old.Message,
				Sent:       old.Sent,
				Status:     old.Status,
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
			if err := tx.Delete(&old).Error; err != nil {
				return err
			}
		}

		return tx.Create(invitation).Error
	})

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create invitation")
	}
	return nil
}

func (r *InvitationRepository) GetByUUID(uuid string) (*models.FriendshipInvitation, error) {
	var invitation models.FriendshipInvitation
	result := r.db.Preload("FromUser").Preload("ToUser").
		Where("uuid = ?", uuid).
		First(&invitation)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "invitation not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get invitation")
	}

	return &invitation, nil
}

// GetPending returns the live invitation for the ordered pair, if any.
func (r *InvitationRepository) GetPending(fromUserID, toUserID uint) (*models.FriendshipInvitation, error) {
	var invitation models.FriendshipInvitation
	result := r.db.Preload("FromUser").Preload("ToUser").
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Where("status NOT IN ?", []models.InviteStatus{models.InviteStatusDeclined, models.InviteStatusDeleted}).
		Order("sent DESC").
		First(&invitation)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "no pending invitation")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get invitation")
	}

	return &invitation, nil
}

func (r *InvitationRepository) UpdateStatus(id uint, status models.InviteStatus) error {
	result := r.db.Model(&models.FriendshipInvitation{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update invitation")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "invitation not found")
	}
	return nil
}

// MarkDeletedForPair forces every non-terminal invitation for the
// ordered pair to Deleted. Called when a friendship edge is removed so
// no live invitation artifact can silently re-accept later.
func (r *InvitationRepository) MarkDeletedForPair(fromUserID, toUserID uint) error {
	err := r.db.Model(&models.FriendshipInvitation{}).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Where("status IN ?", []models.InviteStatus{models.InviteStatusCreated, models.InviteStatusSent, models.InviteStatusFailed}).
		Update("status", models.InviteStatusDeleted).Error

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to cascade invitation deletion")
	}
	return nil
}

func (r *InvitationRepository) HistoryForPair(fromUserID, toUserID uint) ([]models.FriendshipInvitationHistory, error) {
	var history []models.FriendshipInvitationHistory
	err := r.db.Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Order("archived_at").
		Find(&history).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load invitation history")
	}
	return history, nil
}

func (r *InvitationRepository) CreateJoin(invitation *models.JoinInvitation) error {
	if err := r.db.Create(invitation).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create join invitation")
	}
	return nil
}

func (r *InvitationRepository) GetJoinByKey(confirmationKey string) (*models.JoinInvitation, error) {
	var invitation models.JoinInvitation
	result := r.db.Preload("FromUser").Preload("Contact").
		Where("confirmation_key = ?", confirmationKey).
		First(&invitation)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "join invitation not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get join invitation")
	}

	return &invitation, nil
}

// JoinsForEmail finds join invitations whose contact carries the given
// email, used when that email becomes a verified account.
func (r *InvitationRepository) JoinsForEmail(email string) ([]models.JoinInvitation, error) {
	var invitations []models.JoinInvitation
	err := r.db.Preload("FromUser").Preload("Contact").
		Joins("JOIN contacts ON contacts.id = join_invitations.contact_id").
		Where("contacts.email = ?", strings.ToLower(strings.TrimSpace(email))).
		Find(&invitations).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load join invitations")
	}
	return invitations, nil
}

func (r *InvitationRepository) UpdateJoinStatus(id uint, status models.InviteStatus) error {
	result := r.db.Model(&models.JoinInvitation{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update join invitation")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "join invitation not found")
	}
	return nil
}
