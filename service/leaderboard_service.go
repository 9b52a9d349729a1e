package service

import (
	"context"
	"fmt"

	"plombir/models"

	log "github.com/sirupsen/logrus"
)

// TopLimit is the number of users shown on the leaderboard
const TopLimit = 20

// leaderboardService implements the LeaderboardService interface
type leaderboardService struct {
	uowFactory UnitOfWorkFactory
	cache      TopCache
}

// NewLeaderboardService creates a leaderboard service. cache may be nil.
func NewLeaderboardService(uowFactory UnitOfWorkFactory, cache TopCache) LeaderboardService {
	return &leaderboardService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

// Top returns the highest rated users, served from cache when possible
func (s *leaderboardService) Top(ctx context.Context) ([]*models.TopEntry, error) {
	generation := int64(-1)
	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx)
		if err != nil {
			log.WithError(err).Warn("Top cache read failed, falling back to database")
		} else if ok {
			return entries, nil
		}

		if generation, err = s.cache.Generation(ctx); err != nil {
			log.WithError(err).Warn("Top cache generation unavailable, not populating")
			generation = -1
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.UserRepository().GetTop(ctx, TopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top users: %w", err)
	}

	// A balance change that invalidated the cache during the read leaves it empty
	if generation >= 0 {
		if _, err := s.cache.Set(ctx, entries, generation); err != nil {
			log.WithError(err).Warn("Failed to populate top cache")
		}
	}

	return entries, nil
}
