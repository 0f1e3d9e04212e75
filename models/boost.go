package models

import "time"

// BoostType identifies a temporary modifier
type BoostType string

const (
	BoostTypeShield          BoostType = "shield"
	BoostTypeRewardDoubling  BoostType = "reward_doubling"
	BoostTypeCooldownHalving BoostType = "cooldown_halving"
)

// Boost is a time-bounded modifier attached to an account.
// A nil EndTime means the boost stays active until explicitly expired.
type Boost struct {
	ID        int64      `db:"id"`
	AccountID int64      `db:"account_id"`
	Type      BoostType  `db:"type"`
	EndTime   *time.Time `db:"end_time"`
	CreatedAt time.Time  `db:"created_at"`
}

// IsActiveAt reports whether the boost is in effect at the given instant
func (b *Boost) IsActiveAt(now time.Time) bool {
	return b.EndTime == nil || b.EndTime.After(now)
}
