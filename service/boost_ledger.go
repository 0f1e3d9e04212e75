package service

import (
	"context"
	"fmt"
	"time"

	"guardwars/events"
	"guardwars/models"

	log "github.com/sirupsen/logrus"
)

// BoostLedger owns boost activation state. Extensions are read-modify-write under
// the owning account's row lock so concurrent purchases never lose time.
type BoostLedger struct{}

// NewBoostLedger creates a boost ledger
func NewBoostLedger() *BoostLedger {
	return &BoostLedger{}
}

// IsActive reports whether a boost of the type is in effect at now
func (l *BoostLedger) IsActive(ctx context.Context, boosts BoostRepository, accountID int64, boostType models.BoostType, now time.Time) (bool, error) {
	boost, err := boosts.GetActive(ctx, accountID, boostType, now)
	if err != nil {
		return false, fmt.Errorf("failed to get active %s boost: %w", boostType, err)
	}
	return boost != nil, nil
}

// Extend adds duration to the account's active boost of the type, or creates one
// starting now. Must be called inside an open unit of work.
func (l *BoostLedger) Extend(ctx context.Context, uow UnitOfWork, accountID int64, boostType models.BoostType, duration time.Duration, now time.Time) (*models.Boost, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("boost duration must be positive")
	}

	locked, err := uow.AccountRepository().LockByIDs(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if locked[accountID] == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	boost, err := uow.BoostRepository().GetActiveForUpdate(ctx, accountID, boostType, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active boost: %w", err)
	}

	if boost == nil {
		end := now.Add(duration)
		boost = &models.Boost{
			AccountID: accountID,
			Type:      boostType,
			EndTime:   &end,
		}
		if err := uow.BoostRepository().Create(ctx, boost); err != nil {
			return nil, fmt.Errorf("failed to create boost: %w", err)
		}
	} else if boost.EndTime != nil {
		// An active boost has end > now, so extending from the end never loses time
		start := *boost.EndTime
		if start.Before(now) {
			start = now
		}
		end := start.Add(duration)
		if err := uow.BoostRepository().UpdateEndTime(ctx, boost.ID, &end); err != nil {
			return nil, fmt.Errorf("failed to extend boost: %w", err)
		}
		boost.EndTime = &end
	}

	if boostType == models.BoostTypeShield {
		if err := uow.AccountRepository().SetShieldUntil(ctx, accountID, boost.EndTime); err != nil {
			return nil, fmt.Errorf("failed to update shield: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"accountID": accountID,
		"boostType": boostType,
		"endTime":   boost.EndTime,
	}).Debug("Boost extended")

	uow.EventBus().Publish(events.BoostExtendedEvent{
		AccountID: accountID,
		BoostType: boostType,
		EndTime:   boost.EndTime,
	})

	return boost, nil
}

// ForceExpire ends every active boost of the type at now. Must be called inside an
// open unit of work.
func (l *BoostLedger) ForceExpire(ctx context.Context, uow UnitOfWork, accountID int64, boostType models.BoostType, now time.Time) (int64, error) {
	expired, err := uow.BoostRepository().ExpireActive(ctx, accountID, boostType, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire %s boosts: %w", boostType, err)
	}

	if boostType == models.BoostTypeShield {
		if err := uow.AccountRepository().SetShieldUntil(ctx, accountID, nil); err != nil {
			return 0, fmt.Errorf("failed to clear shield: %w", err)
		}
	}

	return expired, nil
}
