package models

import "time"

// Clan groups accounts for clan wars
type Clan struct {
	ID               int64      `db:"id"`
	Name             string     `db:"name"`
	LeaderID         *int64     `db:"leader_id"`
	WarCooldownUntil *time.Time `db:"war_cooldown_until"`
	Wins             int        `db:"wins"`
	Losses           int        `db:"losses"`
	CreatedAt        time.Time  `db:"created_at"`
}

// IsLeader reports whether the account leads this clan
func (c *Clan) IsLeader(accountID int64) bool {
	return c.LeaderID != nil && *c.LeaderID == accountID
}
