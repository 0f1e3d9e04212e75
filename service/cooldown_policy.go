package service

import (
	"context"
	"fmt"
	"time"

	"guardwars/config"
	"guardwars/models"
)

// CooldownPolicy decides whether an account may perform a rate-limited action
type CooldownPolicy struct{}

// NewCooldownPolicy creates a cooldown policy backed by the configured durations
func NewCooldownPolicy() *CooldownPolicy {
	return &CooldownPolicy{}
}

// BaseDuration returns the configured cooldown for an action
func (p *CooldownPolicy) BaseDuration(kind models.ActionKind) time.Duration {
	cfg := config.Get()
	switch kind {
	case models.ActionAttack:
		return cfg.AttackCooldown
	case models.ActionTraining:
		return cfg.TrainingCooldown
	case models.ActionContract:
		return cfg.ContractCooldown
	}
	return 0
}

// CheckAndReserve checks the account's cooldown for the action at now. On success it
// returns when the action will next be available if performed now; persisting the
// action time is left to the caller's transaction.
func (p *CooldownPolicy) CheckAndReserve(ctx context.Context, boosts BoostRepository, account *models.Account, kind models.ActionKind, now time.Time) (time.Time, error) {
	halving, err := boosts.GetActive(ctx, account.ID, models.BoostTypeCooldownHalving, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to check cooldown halving boost: %w", err)
	}
	halved := halving != nil

	base := p.BaseDuration(kind)
	if next := NextEligibleAt(account.LastActionAt(kind), base, halved); now.Before(next) {
		return time.Time{}, newCooldownError(kind, next)
	}

	return now.Add(EffectiveCooldown(base, halved)), nil
}

// EffectiveCooldown applies the halving boost to a base duration
func EffectiveCooldown(base time.Duration, halved bool) time.Duration {
	if halved {
		return base / 2
	}
	return base
}

// NextEligibleAt returns when an action last performed at last becomes available.
// The zero time means the action has never been performed.
func NextEligibleAt(last *time.Time, base time.Duration, halved bool) time.Time {
	if last == nil {
		return time.Time{}
	}
	return last.Add(EffectiveCooldown(base, halved))
}
