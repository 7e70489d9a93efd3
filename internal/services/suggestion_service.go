package services

import (
	"github.com/mroshb/friends/internal/models"
	"github.com/mroshb/friends/internal/repositories"
	"github.com/mroshb/friends/pkg/logger"
)

// ProfileProvider is the optional capability the surrounding profile
// and organization subsystem can supply. A nil provider simply disables
// the coworker and neighbor sources.
type ProfileProvider interface {
	Coworkers(userID uint) ([]models.User, error)
	Neighbors(userID uint) ([]models.User, error)
}

type SuggestionService struct {
	suggestions repositories.SuggestionStore
	friendships repositories.FriendshipStore
	profiles    ProfileProvider

	// neighbor suggestions are skipped entirely once the candidate pool
	// reaches this size, to avoid flooding in dense areas
	maxNeighbors int
}

func NewSuggestionService(
	suggestions repositories.SuggestionStore,
	friendships repositories.FriendshipStore,
	profiles ProfileProvider,
	maxNeighbors int,
) *SuggestionService {
	return &SuggestionService{
		suggestions:  suggestions,
		friendships:  friendships,
		profiles:     profiles,
		maxNeighbors: maxNeighbors,
	}
}

// BuildFor derives candidate friends for the user from every available
// source. Each source is idempotent, so rebuilding never duplicates
// suggestions. Returns the number of new suggestions created.
func (s *SuggestionService) BuildFor(userID uint) (int, error) {
	created := 0

	if s.profiles != nil {
		coworkers, err := s.profiles.Coworkers(userID)
		if err != nil {
			logger.Warn("coworker lookup failed", "user", userID, "error", err)
		} else {
			created += s.suggestAll(userID, coworkers, models.SuggestReasonCoworker)
		}
	}

	fofs, err := s.friendships.FriendsOfFriends(userID)
	if err != nil {
		return created, err
	}
	created += s.suggestAll(userID, fofs, models.SuggestReasonFriendOfFriend)

	if s.profiles != nil {
		neighbors, err := s.profiles.Neighbors(userID)
		if err != nil {
			logger.Warn("neighbor lookup failed", "user", userID, "error", err)
		} else if len(neighbors) < s.maxNeighbors {
			created += s.suggestAll(userID, neighbors, models.SuggestReasonNeighbor)
		}
	}

	return created, nil
}

func (s *SuggestionService) suggestAll(userID uint, candidates []models.User, why models.SuggestionReason) int {
	created := 0
	for _, candidate := range candidates {
		if candidate.ID == userID {
			continue
		}
		friends, err := s.friendships.AreFriends(userID, candidate.ID)
		if err != nil {
			logger.Warn("friendship check failed while suggesting", "user", userID, "error", err)
			continue
		}
		if friends {
			continue
		}

		uid := userID
		_, isNew, err := s.suggestions.GetOrCreate(&uid, candidate.Email, candidate.ID, why)
		if err != nil {
			logger.Warn("failed to store suggestion",
				"user", userID, "suggested", candidate.ID, "error", err)
			continue
		}
		if isNew {
			created++
		}
	}
	return created
}

func (s *SuggestionService) ActiveFor(userID uint) ([]models.FriendSuggestion, error) {
	return s.suggestions.ActiveFor(userID)
}
