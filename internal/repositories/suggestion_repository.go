package repositories

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/pkg/errors"
)

type SuggestionRepository struct {
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// GetOrCreate is keyed on (user, suggested_user) when the target user is
// known, else on (email, suggested_user), making every suggestion source
// independently idempotent.
func (r *SuggestionRepository) GetOrCreate(userID *uint, email string, suggestedUserID uint, why models.SuggestionReason) (*models.FriendSuggestion, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	query := r.db.Model(&models.FriendSuggestion{}).Where("suggested_user_id = ?", suggestedUserID)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	} else {
		query = query.Where("user_id IS NULL AND email = ?", email)
	}

	var suggestion models.FriendSuggestion
	result := query.First(&suggestion)
	if result.Error == nil {
		return &suggestion, false, nil
	}
	if result.Error != gorm.ErrRecordNotFound {
		return nil, false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to check suggestion")
	}

	suggestion = models.FriendSuggestion{
		UserID:          userID,
		Email:           email,
		SuggestedUserID: suggestedUserID,
		Why:             why,
		Active:          true,
	}
	if err := r.db.Create(&suggestion).Error; err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create suggestion")
	}

	return &suggestion, true, nil
}

// DeactivatePair marks suggestions in both orientations inactive. Rows
// are kept so realized suggestions are never re-proposed.
func (r *SuggestionRepository) DeactivatePair(userID1, userID2 uint) error {
	err := r.db.Model(&models.FriendSuggestion{}).
		Where(
			"(user_id = ? AND suggested_user_id = ?) OR (user_id = ? AND suggested_user_id = ?)",
			userID1, userID2, userID2, userID1,
		).
		Update("active", false).Error

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to deactivate suggestions")
	}
	return nil
}

// LinkUserByEmail backfills the user side of bare-email suggestions once
// that email registers, mirroring the contact fan-out.
func (r *SuggestionRepository) LinkUserByEmail(user *models.User) (int64, error) {
	result := r.db.Model(&models.FriendSuggestion{}).
		Where("user_id IS NULL AND LOWER(email) = ?", strings.ToLower(user.Email)).
		Update("user_id", user.ID)

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to link suggestions to user")
	}
	return result.RowsAffected, nil
}

func (r *SuggestionRepository) ActiveFor(userID uint) ([]models.FriendSuggestion, error) {
	var suggestions []models.FriendSuggestion
	err := r.db.Preload("SuggestedUser").
		Where("user_id = ? AND active = ?", userID, true).
		Find(&suggestions).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load suggestions")
	}
	return suggestions, nil
}
