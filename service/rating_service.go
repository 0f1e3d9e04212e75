package service

import (
	"context"
	"fmt"
	"time"

	"guardwars/events"
	"guardwars/models"

	log "github.com/sirupsen/logrus"
)

const ratingCachePrefix = "rating:"

type ratingService struct {
	uowFactory UnitOfWorkFactory
	cache      ListCache
}

// NewRatingService creates a rating service reading through cache
func NewRatingService(uowFactory UnitOfWorkFactory, cache ListCache) RatingService {
	return &ratingService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

func (s *ratingService) TopByStrength(ctx context.Context, limit int) ([]*models.AccountStrength, error) {
	key := fmt.Sprintf("%stop:%d", ratingCachePrefix, limit)

	var rows []*models.AccountStrength
	err := s.cache.GetOrLoad(ctx, key, &rows, func(ctx context.Context) (interface{}, error) {
		return s.read(ctx, func(repo AccountRepository) ([]*models.AccountStrength, error) {
			return repo.TopByStrength(ctx, limit)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return rows, nil
}

// AttackableAccounts lists targets for the account. Shield state changes over time,
// so cached lists can be stale; the attack itself always re-checks.
func (s *ratingService) AttackableAccounts(ctx context.Context, accountID int64, now time.Time, limit int) ([]*models.AccountStrength, error) {
	key := fmt.Sprintf("%sattackable:%d:%d", ratingCachePrefix, accountID, limit)

	var rows []*models.AccountStrength
	err := s.cache.GetOrLoad(ctx, key, &rows, func(ctx context.Context) (interface{}, error) {
		return s.read(ctx, func(repo AccountRepository) ([]*models.AccountStrength, error) {
			return repo.ListAttackable(ctx, accountID, now, limit)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get attackable accounts: %w", err)
	}
	return rows, nil
}

func (s *ratingService) read(ctx context.Context, fn func(AccountRepository) ([]*models.AccountStrength, error)) ([]*models.AccountStrength, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return fn(uow.AccountRepository())
}

// SubscribeRatingInvalidation drops cached lists after any committed change that can
// reorder them
func SubscribeRatingInvalidation(bus *events.Bus, cache ListCache) {
	invalidate := func(ctx context.Context, event events.Event) {
		if err := cache.InvalidatePrefix(ctx, ratingCachePrefix); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Warn("Failed to invalidate rating cache")
		}
	}

	bus.Subscribe(events.EventTypeAttackResolved, invalidate)
	bus.Subscribe(events.EventTypeBoostExtended, invalidate)
	bus.Subscribe(events.EventTypeBalanceChange, invalidate)
	bus.Subscribe(events.EventTypeWarCompleted, invalidate)
}
