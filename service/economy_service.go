package service

import (
	"context"
	"fmt"
	"time"

	"guardwars/config"
	"guardwars/events"
	"guardwars/models"

	log "github.com/sirupsen/logrus"
)

type economyService struct {
	uowFactory UnitOfWorkFactory
	cooldowns  *CooldownPolicy
	boosts     *BoostLedger
	recorder   *EventRecorder
}

// NewEconomyService creates a new economy service
func NewEconomyService(uowFactory UnitOfWorkFactory, cooldowns *CooldownPolicy, boosts *BoostLedger, recorder *EventRecorder) EconomyService {
	return &economyService{
		uowFactory: uowFactory,
		cooldowns:  cooldowns,
		boosts:     boosts,
		recorder:   recorder,
	}
}

func (s *economyService) Train(ctx context.Context, accountID int64, now time.Time) (*models.TrainingResult, error) {
	cfg := config.Get()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := s.lockAccount(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}

	next, err := s.cooldowns.CheckAndReserve(ctx, uow.BoostRepository(), account, models.ActionTraining, now)
	if err != nil {
		return nil, err
	}
	if account.Balance < cfg.TrainingCost {
		return nil, ErrInsufficientFunds
	}

	guards, err := uow.GuardRepository().GetByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guards: %w", err)
	}
	guard := trainingTarget(guards)
	if guard == nil {
		return nil, fmt.Errorf("account %d has no guards: %w", accountID, ErrNotFound)
	}

	newBalance, err := uow.AccountRepository().DeductBalance(ctx, accountID, cfg.TrainingCost)
	if err != nil {
		return nil, fmt.Errorf("failed to charge training: %w", err)
	}
	if err := uow.GuardRepository().AddStrength(ctx, guard.ID, cfg.TrainingPowerIncrease); err != nil {
		return nil, fmt.Errorf("failed to train guard: %w", err)
	}
	if err := uow.AccountRepository().SetLastActionAt(ctx, accountID, models.ActionTraining, now); err != nil {
		return nil, fmt.Errorf("failed to consume training cooldown: %w", err)
	}

	// A shield whose time has passed is cleared so the account row stops advertising it
	if account.ShieldUntil != nil && !account.ShieldUntil.After(now) {
		if _, err := s.boosts.ForceExpire(ctx, uow, accountID, models.BoostTypeShield, now); err != nil {
			return nil, err
		}
	}

	if _, err := s.recorder.Record(ctx, uow, EventEntry{Type: models.EventTypeTraining, AccountID: accountID}); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		AccountID:    accountID,
		OldBalance:   account.Balance,
		NewBalance:   newBalance,
		Reason:       models.EventTypeTraining,
		ChangeAmount: -cfg.TrainingCost,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.TrainingResult{
		GuardID:        guard.ID,
		NewStrength:    guard.Strength + cfg.TrainingPowerIncrease,
		Cost:           cfg.TrainingCost,
		NewBalance:     newBalance,
		NextTrainingAt: next,
	}, nil
}

func (s *economyService) Contract(ctx context.Context, accountID int64, now time.Time) (*models.ContractResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := s.lockAccount(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}

	next, err := s.cooldowns.CheckAndReserve(ctx, uow.BoostRepository(), account, models.ActionContract, now)
	if err != nil {
		return nil, err
	}

	snapshot, err := loadSnapshot(ctx, uow, account, now)
	if err != nil {
		return nil, err
	}

	income := ContractIncome(snapshot.Strength(), snapshot.HasBoost(models.BoostTypeRewardDoubling))
	newBalance, err := uow.AccountRepository().AddBalance(ctx, accountID, income)
	if err != nil {
		return nil, fmt.Errorf("failed to pay contract: %w", err)
	}
	if err := uow.AccountRepository().SetLastActionAt(ctx, accountID, models.ActionContract, now); err != nil {
		return nil, fmt.Errorf("failed to consume contract cooldown: %w", err)
	}

	if _, err := s.recorder.Record(ctx, uow, EventEntry{Type: models.EventTypeContract, AccountID: accountID}); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		AccountID:    accountID,
		OldBalance:   account.Balance,
		NewBalance:   newBalance,
		Reason:       models.EventTypeContract,
		ChangeAmount: income,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID": accountID,
		"income":    income,
	}).Debug("Contract paid")

	return &models.ContractResult{
		Income:         income,
		Doubled:        snapshot.HasBoost(models.BoostTypeRewardDoubling),
		NewBalance:     newBalance,
		NextContractAt: next,
	}, nil
}

func (s *economyService) lockAccount(ctx context.Context, uow UnitOfWork, accountID int64) (*models.Account, error) {
	locked, err := uow.AccountRepository().LockByIDs(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	account := locked[accountID]
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	return account, nil
}

// ContractIncome is the base income plus a share of strength, doubled with reward doubling
func ContractIncome(strength int64, doubled bool) int64 {
	cfg := config.Get()
	income := saturatingAdd(cfg.ContractBaseIncome, applyBasisPoints(strength, cfg.ContractStrengthBps))
	if doubled {
		income = saturatingAdd(income, income)
	}
	return income
}

// trainingTarget picks the first guard, falling back to the weakest
func trainingTarget(guards []*models.Guard) *models.Guard {
	var weakest *models.Guard
	for _, g := range guards {
		if g.IsFirst {
			return g
		}
		if weakest == nil || g.Strength < weakest.Strength || (g.Strength == weakest.Strength && g.ID < weakest.ID) {
			weakest = g
		}
	}
	return weakest
}
