package models

import "time"

// EventType classifies an event history entry
type EventType string

const (
	EventTypeAttack     EventType = "attack"
	EventTypeDefense    EventType = "defense"
	EventTypeWarAttack  EventType = "war_attack"
	EventTypeWarDefense EventType = "war_defense"
	EventTypeTraining   EventType = "training"
	EventTypeContract   EventType = "contract"
)

// EventHistory is an append-only audit entry for an account
type EventHistory struct {
	ID          int64         `db:"id"`
	Type        EventType     `db:"type"`
	AccountID   int64         `db:"account_id"`
	OpponentID  *int64        `db:"opponent_id"`
	ClanWarID   *int64        `db:"clan_war_id"`
	WinChance   *float64      `db:"win_chance"`
	IsWin       *bool         `db:"is_win"`
	CreatedAt   time.Time     `db:"created_at"`
	StolenItems []*StolenItem `db:"-"`
}

// EventHistoryPage is one page of an account's history
type EventHistoryPage struct {
	Items []*EventHistory
	Total int64
	Page  int
	Limit int
}
