package models

import "time"

// Guard is a combat unit owned by exactly one account
type Guard struct {
	ID        int64     `db:"id"`
	AccountID int64     `db:"account_id"`
	Name      string    `db:"name"`
	Strength  int64     `db:"strength"`
	IsFirst   bool      `db:"is_first"` // first guards can never be captured
	CreatedAt time.Time `db:"created_at"`
}

// Capturable reports whether the guard may be taken by a winning attacker
func (g *Guard) Capturable() bool {
	return !g.IsFirst
}
