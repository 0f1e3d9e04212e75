package models

import "time"

// CombatantSnapshot is the state of one side of an attack as seen at resolution time
type CombatantSnapshot struct {
	Account     *Account
	Guards      []*Guard
	Accessories []*Accessory // only equipped accessories contribute strength
	ActiveBoost map[BoostType]bool
}

// Strength is the sum of guard strength and equipped accessory bonuses
func (c *CombatantSnapshot) Strength() int64 {
	var total int64
	for _, g := range c.Guards {
		total += g.Strength
	}
	for _, a := range c.Accessories {
		if a.Equipped {
			total += a.StrengthBonus
		}
	}
	return total
}

// HasBoost reports whether the boost type was active when the snapshot was taken
func (c *CombatantSnapshot) HasBoost(t BoostType) bool {
	return c.ActiveBoost[t]
}

// AttackOutcome is the decided but not yet applied result of one attack
type AttackOutcome struct {
	WinChance        float64
	IsWin            bool
	StolenMoney      int64
	CapturedGuardIDs []int64
	Drafts           []StolenItemDraft
	WarID            *int64
}

// CommitResult is what the transfer ledger actually applied
type CommitResult struct {
	StolenMoney        int64
	CapturedGuardIDs   []int64
	StolenItems        []*StolenItem
	AttackerBalance    int64
	DefenderBalance    int64
	AttackerHistoryID  int64
	DefenderHistoryID  int64
	NextAttackEligible time.Time
}

// AttackResult is returned to callers of the attack operations
type AttackResult struct {
	Outcome *AttackOutcome
	Commit  *CommitResult
}
