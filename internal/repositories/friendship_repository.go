package repositories

import (
	"sort"

	"gorm.io/gorm"

	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/pkg/errors"
)

type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create writes the directed edge and its mirror in one transaction.
// Both rows carry the same relation metadata and added date, so either
// direction is independently queryable with consistent data. The unique
// (to_user_id, from_user_id) index makes concurrent creates collapse
// into get-or-create.
func (r *FriendshipRepository) Create(friendship *models.Friendship) error {
	if friendship.FromUserID == friendship.ToUserID {
		return errors.New(errors.ErrCodeSelfFriendship, "cannot befriend yourself")
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"from_user_id = ? AND to_user_id = ?",
			friendship.FromUserID, friendship.ToUserID,
		).FirstOrCreate(friendship).Error; err != nil {
			return err
		}

		mirror := models.Friendship{
			FromUserID:   friendship.ToUserID,
			ToUserID:     friendship.FromUserID,
			RelationTags: friendship.RelationTags,
			HowRelated:   friendship.HowRelated,
			Added:        friendship.Added,
		}
		return tx.Where(
			"from_user_id = ? AND to_user_id = ?",
			mirror.FromUserID, mirror.ToUserID,
		).FirstOrCreate(&mirror).Error
	})

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create friendship")
	}
	return nil
}

// AreFriends reports whether an edge exists in either direction.
func (r *FriendshipRepository) AreFriends(userID1, userID2 uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Friendship{}).
		Where(
			"(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID1, userID2, userID2, userID1,
		).Count(&count).Error

	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check friendship")
	}
	return count > 0, nil
}

// Remove deletes both directions in one transaction; this is the only
// path that breaks the symmetry invariant, by removing both sides at
// once.
func (r *FriendshipRepository) Remove(userID1, userID2 uint) error {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where(
			"(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID1, userID2, userID2, userID1,
		).Delete(&models.Friendship{})
		affected = result.RowsAffected
		return result.Error
	})

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to remove friendship")
	}
	if affected == 0 {
		return errors.New(errors.ErrCodeNotFound, "friendship not found")
	}
	return nil
}

// FriendsFor returns the de-duplicated friend set, ordered by surname
// then given name. When both directions are present for a counterpart,
// the "from" edge's metadata wins.
func (r *FriendshipRepository) FriendsFor(userID uint) ([]FriendEntry, error) {
	var fromEdges []models.Friendship
	if err := r.db.Preload("ToUser").Where("from_user_id = ?", userID).Find(&fromEdges).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load friendships")
	}

	var toEdges []models.Friendship
	if err := r.db.Preload("FromUser").Where("to_user_id = ?", userID).Find(&toEdges).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load friendships")
	}

	seen := make(map[uint]bool)
	var entries []FriendEntry
	for _, edge := range fromEdges {
		if seen[edge.ToUserID] {
			continue
		}
		seen[edge.ToUserID] = true
		entries = append(entries, FriendEntry{Friend: edge.ToUser, Friendship: edge})
	}
	for _, edge := range toEdges {
		if seen[edge.FromUserID] {
			continue
		}
		seen[edge.FromUserID] = true
		entries = append(entries, FriendEntry{Friend: edge.FromUser, Friendship: edge})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Friend, entries[j].Friend
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.Username < b.Username
	})

	return entries, nil
}

func (r *FriendshipRepository) FriendIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Friendship{}).
		Where("from_user_id = ?", userID).
		Pluck("to_user_id", &ids).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load friend ids")
	}
	return ids, nil
}

// FriendsOfFriends returns users exactly one friendship hop away,
// excluding the user and their direct friends. Edges are mirrored, so
// following the from direction twice covers the whole neighborhood.
func (r *FriendshipRepository) FriendsOfFriends(userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Raw(`
		SELECT DISTINCT u.* FROM users u
		JOIN friendships hop ON hop.to_user_id = u.id
		JOIN friendships direct ON direct.to_user_id = hop.from_user_id
		WHERE direct.from_user_id = ?
		  AND u.id <> ?
		  AND u.id NOT IN (SELECT to_user_id FROM friendships WHERE from_user_id = ?)`,
		userID, userID, userID,
	).Scan(&users).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load friends of friends")
	}
	return users, nil
}

// SharedFriends returns the users befriended by both sides, excluding
// the two users themselves.
func (r *FriendshipRepository) SharedFriends(userID1, userID2 uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Raw(`
		SELECT u.* FROM users u
		WHERE u.id IN (SELECT to_user_id FROM friendships WHERE from_user_id = ?)
		  AND u.id IN (SELECT to_user_id FROM friendships WHERE from_user_id = ?)
		  AND u.id NOT IN (?, ?)`,
		userID1, userID2, userID1, userID2,
	).Scan(&users).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load shared friends")
	}
	return users, nil
}
