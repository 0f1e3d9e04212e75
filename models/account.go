package models

import (
	"time"
)

// ActionKind names an action gated by a per-account cooldown
type ActionKind string

const (
	ActionAttack   ActionKind = "attack"
	ActionTraining ActionKind = "training"
	ActionContract ActionKind = "contract"
)

// Account represents a player with a balance, guards and cooldown timestamps
type Account struct {
	ID             int64      `db:"id"`
	Username       string     `db:"username"`
	Balance        int64      `db:"balance"`
	ClanID         *int64     `db:"clan_id"`
	ShieldUntil    *time.Time `db:"shield_until"`
	LastAttackAt   *time.Time `db:"last_attack_at"`
	LastTrainingAt *time.Time `db:"last_training_at"`
	LastContractAt *time.Time `db:"last_contract_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// LastActionAt returns when the account last performed the given action, nil if never
func (a *Account) LastActionAt(kind ActionKind) *time.Time {
	switch kind {
	case ActionAttack:
		return a.LastAttackAt
	case ActionTraining:
		return a.LastTrainingAt
	case ActionContract:
		return a.LastContractAt
	}
	return nil
}

// InClan reports whether the account belongs to the given clan
func (a *Account) InClan(clanID int64) bool {
	return a.ClanID != nil && *a.ClanID == clanID
}

// AccountStrength is a rating row: an account with its combined strength
type AccountStrength struct {
	AccountID int64  `db:"account_id" json:"account_id"`
	Username  string `db:"username" json:"username"`
	ClanID    *int64 `db:"clan_id" json:"clan_id,omitempty"`
	Strength  int64  `db:"strength" json:"strength"`
}
