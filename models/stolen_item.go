package models

import "time"

// StolenItemType identifies what was moved by a successful attack
type StolenItemType string

const (
	StolenItemTypeMoney StolenItemType = "money"
	StolenItemTypeGuard StolenItemType = "guard"
)

// StolenItem is an immutable record of one unit of value moved from victim to thief.
// Money items carry the realized amount, guard items carry the guard strength at capture.
type StolenItem struct {
	ID          int64          `db:"id"`
	Type        StolenItemType `db:"type"`
	Value       int64          `db:"value"`
	GuardID     *int64         `db:"guard_id"`
	ThiefID     int64          `db:"thief_id"`
	VictimID    int64          `db:"victim_id"`
	ClanWarID   *int64         `db:"clan_war_id"`
	ThiefClanID *int64         `db:"thief_clan_id"`
	CreatedAt   time.Time      `db:"created_at"`
}

// StolenItemDraft is a stolen item decided by resolution but not yet applied
type StolenItemDraft struct {
	Type    StolenItemType
	Value   int64
	GuardID *int64
}
