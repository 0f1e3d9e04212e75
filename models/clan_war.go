package models

import "time"

// ClanWarStatus represents the lifecycle state of a clan war
type ClanWarStatus string

const (
	ClanWarStatusInProgress ClanWarStatus = "in_progress"
	ClanWarStatusCompleted  ClanWarStatus = "completed"
)

// ClanWar is a time-boxed conflict between two clans.
// Clan1 is always the declaring clan.
type ClanWar struct {
	ID           int64         `db:"id"`
	Clan1ID      int64         `db:"clan_1_id"`
	Clan2ID      int64         `db:"clan_2_id"`
	StartTime    time.Time     `db:"start_time"`
	EndTime      time.Time     `db:"end_time"`
	Status       ClanWarStatus `db:"status"`
	WinnerClanID *int64        `db:"winner_clan_id"`
	Clan1Wins    int           `db:"clan_1_wins"`
	Clan2Wins    int           `db:"clan_2_wins"`
	CompletedAt  *time.Time    `db:"completed_at"`
	CreatedAt    time.Time     `db:"created_at"`
}

// IsActiveAt reports whether attacks may still be made within this war
func (w *ClanWar) IsActiveAt(now time.Time) bool {
	return w.Status == ClanWarStatusInProgress && now.Before(w.EndTime)
}

// Involves reports whether the clan is one of the two sides
func (w *ClanWar) Involves(clanID int64) bool {
	return w.Clan1ID == clanID || w.Clan2ID == clanID
}

// Side returns 1 or 2 for a participating clan, 0 otherwise
func (w *ClanWar) Side(clanID int64) int {
	switch clanID {
	case w.Clan1ID:
		return 1
	case w.Clan2ID:
		return 2
	}
	return 0
}

// Opponent returns the other side of the war
func (w *ClanWar) Opponent(clanID int64) int64 {
	if clanID == w.Clan1ID {
		return w.Clan2ID
	}
	return w.Clan1ID
}

// WarTally is the per-side attribution computed from a war's stolen items
type WarTally struct {
	Clan1Value   int64
	Clan2Value   int64
	Clan1Attacks int
	Clan2Attacks int
}

// SweepReport summarizes one run of the war closure sweep
type SweepReport struct {
	Examined  int
	Completed []int64
	Skipped   []int64 // already finalized by a concurrent or earlier sweep
}
