package service

import (
	"context"
	"fmt"
	"time"

	"guardwars/models"
)

// AttackPipeline runs one attack end to end: load, gate, resolve, apply.
// Loading happens in a read-only transaction; applying happens in the ledger's own.
type AttackPipeline struct {
	uowFactory UnitOfWorkFactory
	cooldowns  *CooldownPolicy
	resolver   *CombatResolver
	ledger     *ResourceTransferLedger
}

// NewAttackPipeline creates an attack pipeline
func NewAttackPipeline(uowFactory UnitOfWorkFactory, cooldowns *CooldownPolicy, resolver *CombatResolver, ledger *ResourceTransferLedger) *AttackPipeline {
	return &AttackPipeline{
		uowFactory: uowFactory,
		cooldowns:  cooldowns,
		resolver:   resolver,
		ledger:     ledger,
	}
}

// Run attacks defenderID on behalf of attackerID, optionally within a war
func (p *AttackPipeline) Run(ctx context.Context, attackerID, defenderID int64, war *models.ClanWar, now time.Time) (*models.AttackResult, error) {
	if attackerID == defenderID {
		return nil, ErrSameAccount
	}

	attacker, defender, err := p.load(ctx, attackerID, defenderID, now)
	if err != nil {
		return nil, err
	}

	outcome, err := p.resolver.Resolve(attacker, defender, ResolveContext{Now: now, War: war})
	if err != nil {
		return nil, err
	}

	commit, err := p.ledger.Apply(ctx, outcome, attackerID, defenderID, now)
	if err != nil {
		return nil, err
	}

	return &models.AttackResult{Outcome: outcome, Commit: commit}, nil
}

func (p *AttackPipeline) load(ctx context.Context, attackerID, defenderID int64, now time.Time) (*models.CombatantSnapshot, *models.CombatantSnapshot, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	attackerAccount, err := uow.AccountRepository().GetByID(ctx, attackerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get attacker: %w", err)
	}
	defenderAccount, err := uow.AccountRepository().GetByID(ctx, defenderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get defender: %w", err)
	}
	if attackerAccount == nil || defenderAccount == nil {
		return nil, nil, fmt.Errorf("attack participants: %w", ErrNotFound)
	}

	if _, err := p.cooldowns.CheckAndReserve(ctx, uow.BoostRepository(), attackerAccount, models.ActionAttack, now); err != nil {
		return nil, nil, err
	}

	attacker, err := loadSnapshot(ctx, uow, attackerAccount, now)
	if err != nil {
		return nil, nil, err
	}
	defender, err := loadSnapshot(ctx, uow, defenderAccount, now)
	if err != nil {
		return nil, nil, err
	}
	return attacker, defender, nil
}

func loadSnapshot(ctx context.Context, uow UnitOfWork, account *models.Account, now time.Time) (*models.CombatantSnapshot, error) {
	guards, err := uow.GuardRepository().GetByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guards for account %d: %w", account.ID, err)
	}
	accessories, err := uow.AccessoryRepository().GetEquippedByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accessories for account %d: %w", account.ID, err)
	}
	active, err := uow.BoostRepository().ActiveTypes(ctx, account.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get boosts for account %d: %w", account.ID, err)
	}

	return &models.CombatantSnapshot{
		Account:     account,
		Guards:      guards,
		Accessories: accessories,
		ActiveBoost: active,
	}, nil
}

type combatService struct {
	pipeline *AttackPipeline
}

// NewCombatService creates a new combat service
func NewCombatService(pipeline *AttackPipeline) CombatService {
	return &combatService{pipeline: pipeline}
}

func (s *combatService) AttackPlayer(ctx context.Context, attackerID, defenderID int64, now time.Time) (*models.AttackResult, error) {
	return s.pipeline.Run(ctx, attackerID, defenderID, nil, now)
}
