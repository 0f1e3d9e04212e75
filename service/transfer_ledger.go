package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guardwars/config"
	"guardwars/events"
	"guardwars/metrics"
	"guardwars/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// ResourceTransferLedger applies attack outcomes atomically. Both accounts are locked
// in-process and in the database, in ascending id order, for the whole transaction.
type ResourceTransferLedger struct {
	uowFactory UnitOfWorkFactory
	locks      *KeyedMutex
	cooldowns  *CooldownPolicy
	boosts     *BoostLedger
	recorder   *EventRecorder

	// newBackOff is replaced in tests to avoid sleeping
	newBackOff func() backoff.BackOff
}

// NewResourceTransferLedger creates a transfer ledger
func NewResourceTransferLedger(uowFactory UnitOfWorkFactory, locks *KeyedMutex, cooldowns *CooldownPolicy, boosts *BoostLedger, recorder *EventRecorder) *ResourceTransferLedger {
	return &ResourceTransferLedger{
		uowFactory: uowFactory,
		locks:      locks,
		cooldowns:  cooldowns,
		boosts:     boosts,
		recorder:   recorder,
		newBackOff: defaultTransferBackOff,
	}
}

func defaultTransferBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return b
}

// Apply commits an outcome produced by CombatResolver. Preconditions are checked again
// under lock; the money actually moved is capped at the defender's balance at commit
// time. Retries after serialization failures reuse the same outcome, never a new draw.
func (l *ResourceTransferLedger) Apply(ctx context.Context, outcome *models.AttackOutcome, attackerID, defenderID int64, now time.Time) (*models.CommitResult, error) {
	if attackerID == defenderID {
		return nil, ErrSameAccount
	}

	started := time.Now()
	attempt := 0
	var result *models.CommitResult

	operation := func() error {
		attempt++
		var err error
		result, err = l.applyOnce(ctx, outcome, attackerID, defenderID, now)
		if err == nil {
			return nil
		}
		if isSerializationFailure(err) {
			metrics.RecordTransferRetry()
			log.WithFields(log.Fields{
				"attackerID": attackerID,
				"defenderID": defenderID,
				"attempt":    attempt,
				"error":      err,
			}).Warn("Transfer conflicted, retrying")
			return err
		}
		return backoff.Permanent(err)
	}

	maxRetries := config.Get().TransferMaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(l.newBackOff(), uint64(maxRetries)), ctx)

	err := backoff.Retry(operation, policy)
	metrics.RecordTransfer(time.Since(started), err)
	if err != nil {
		if isSerializationFailure(err) {
			return nil, fmt.Errorf("transfer gave up after %d attempts: %w", attempt, ErrConcurrentModification)
		}
		return nil, err
	}
	return result, nil
}

func (l *ResourceTransferLedger) applyOnce(ctx context.Context, outcome *models.AttackOutcome, attackerID, defenderID int64, now time.Time) (*models.CommitResult, error) {
	release := l.locks.Lock(attackerID, defenderID)
	defer release()

	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	accounts, err := uow.AccountRepository().LockByIDs(ctx, attackerID, defenderID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	attacker, defender := accounts[attackerID], accounts[defenderID]
	if attacker == nil || defender == nil {
		return nil, fmt.Errorf("attack participants: %w", ErrNotFound)
	}

	// A concurrent request may have attacked or shielded since resolution
	nextAttack, err := l.cooldowns.CheckAndReserve(ctx, uow.BoostRepository(), attacker, models.ActionAttack, now)
	if err != nil {
		return nil, err
	}
	shielded, err := l.boosts.IsActive(ctx, uow.BoostRepository(), defenderID, models.BoostTypeShield, now)
	if err != nil {
		return nil, err
	}
	if shielded {
		return nil, ErrShieldActive
	}

	var thiefClanID *int64
	if outcome.WarID != nil {
		war, err := uow.ClanWarRepository().GetByID(ctx, *outcome.WarID)
		if err != nil {
			return nil, fmt.Errorf("failed to get clan war: %w", err)
		}
		if war == nil || !war.IsActiveAt(now) {
			return nil, ErrWarNotActive
		}
		if err := checkWarSides(war, attacker, defender); err != nil {
			return nil, err
		}
		thiefClanID = attacker.ClanID
	}

	result := &models.CommitResult{
		AttackerBalance:    attacker.Balance,
		DefenderBalance:    defender.Balance,
		NextAttackEligible: nextAttack,
	}

	if outcome.IsWin {
		if err := l.moveResources(ctx, uow, outcome, attacker, defender, thiefClanID, result); err != nil {
			return nil, err
		}

		if outcome.WarID != nil {
			counted, err := uow.ClanWarRepository().IncrementWins(ctx, *outcome.WarID, *attacker.ClanID)
			if err != nil {
				return nil, fmt.Errorf("failed to count war win: %w", err)
			}
			if !counted {
				return nil, ErrWarNotActive
			}
		}
	}

	if err := uow.AccountRepository().SetLastActionAt(ctx, attackerID, models.ActionAttack, now); err != nil {
		return nil, fmt.Errorf("failed to consume attack cooldown: %w", err)
	}

	// Attacking breaks the attacker's own protection
	if _, err := l.boosts.ForceExpire(ctx, uow, attackerID, models.BoostTypeShield, now); err != nil {
		return nil, err
	}

	attackEntry, defenseEntry, err := l.recorder.RecordAttack(ctx, uow, outcome, attackerID, defenderID, result.StolenItems)
	if err != nil {
		return nil, err
	}
	result.AttackerHistoryID = attackEntry.ID
	result.DefenderHistoryID = defenseEntry.ID

	uow.EventBus().Publish(events.AttackResolvedEvent{
		AttackerID:       attackerID,
		DefenderID:       defenderID,
		ClanWarID:        outcome.WarID,
		WinChance:        outcome.WinChance,
		IsWin:            outcome.IsWin,
		StolenMoney:      result.StolenMoney,
		CapturedGuardIDs: result.CapturedGuardIDs,
		OccurredAt:       now,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"attackerID":     attackerID,
		"defenderID":     defenderID,
		"win":            outcome.IsWin,
		"stolenMoney":    result.StolenMoney,
		"capturedGuards": len(result.CapturedGuardIDs),
	}).Info("Attack committed")

	return result, nil
}

func (l *ResourceTransferLedger) moveResources(ctx context.Context, uow UnitOfWork, outcome *models.AttackOutcome, attacker, defender *models.Account, thiefClanID *int64, result *models.CommitResult) error {
	record := func(draft models.StolenItemDraft, value int64) error {
		item := &models.StolenItem{
			Type:        draft.Type,
			Value:       value,
			GuardID:     draft.GuardID,
			ThiefID:     attacker.ID,
			VictimID:    defender.ID,
			ClanWarID:   outcome.WarID,
			ThiefClanID: thiefClanID,
		}
		if err := uow.StolenItemRepository().Create(ctx, item); err != nil {
			return fmt.Errorf("failed to record stolen %s: %w", draft.Type, err)
		}
		result.StolenItems = append(result.StolenItems, item)
		return nil
	}

	for _, draft := range outcome.Drafts {
		switch draft.Type {
		case models.StolenItemTypeMoney:
			amount := draft.Value
			if amount > defender.Balance {
				amount = defender.Balance
			}
			if amount <= 0 {
				continue
			}

			defenderBalance, err := uow.AccountRepository().DeductBalance(ctx, defender.ID, amount)
			if err != nil {
				return fmt.Errorf("failed to debit defender: %w", err)
			}
			attackerBalance, err := uow.AccountRepository().AddBalance(ctx, attacker.ID, amount)
			if err != nil {
				return fmt.Errorf("failed to credit attacker: %w", err)
			}
			result.StolenMoney += amount
			result.DefenderBalance = defenderBalance
			result.AttackerBalance = attackerBalance
			defender.Balance = defenderBalance

			if err := record(draft, amount); err != nil {
				return err
			}

		case models.StolenItemTypeGuard:
			if draft.GuardID == nil {
				continue
			}
			moved, err := uow.GuardRepository().Transfer(ctx, *draft.GuardID, defender.ID, attacker.ID)
			if err != nil {
				return fmt.Errorf("failed to capture guard %d: %w", *draft.GuardID, err)
			}
			if !moved {
				// Already captured by a concurrent attack
				continue
			}
			result.CapturedGuardIDs = append(result.CapturedGuardIDs, *draft.GuardID)

			if err := record(draft, draft.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// isSerializationFailure reports a Postgres serialization failure or deadlock
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
