package repository

import (
	"context"
	"fmt"

	"guardwars/database"
	"guardwars/models"
)

// EventHistoryRepository implements the EventHistoryRepository interface
type EventHistoryRepository struct {
	q queryable
}

// NewEventHistoryRepository creates a new event history repository
func NewEventHistoryRepository(db *database.DB) *EventHistoryRepository {
	return &EventHistoryRepository{q: db.Pool}
}

func newEventHistoryRepositoryWithTx(tx queryable) *EventHistoryRepository {
	return &EventHistoryRepository{q: tx}
}

// Create appends an entry and links it to the given stolen items
func (r *EventHistoryRepository) Create(ctx context.Context, entry *models.EventHistory, stolenItemIDs []int64) error {
	query := `
		INSERT INTO event_history (type, account_id, opponent_id, clan_war_id, win_chance, is_win)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.Type,
		entry.AccountID,
		entry.OpponentID,
		entry.ClanWarID,
		entry.WinChance,
		entry.IsWin,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event history: %w", err)
	}

	if len(stolenItemIDs) == 0 {
		return nil
	}

	linkQuery := `
		INSERT INTO event_history_stolen_items (event_history_id, stolen_item_id)
		SELECT $1, unnest($2::BIGINT[])
	`
	if _, err := r.q.Exec(ctx, linkQuery, entry.ID, stolenItemIDs); err != nil {
		return fmt.Errorf("failed to link stolen items to event %d: %w", entry.ID, err)
	}
	return nil
}

// GetByAccount returns a page of an account's history, newest first
func (r *EventHistoryRepository) GetByAccount(ctx context.Context, accountID int64, offset, limit int) ([]*models.EventHistory, int64, error) {
	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM event_history WHERE account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count event history: %w", err)
	}

	query := `
		SELECT id, type, account_id, opponent_id, clan_war_id, win_chance, is_win, created_at
		FROM event_history
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, accountID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get event history: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.EventHistory, 0)
	for rows.Next() {
		var e models.EventHistory
		if err := rows.Scan(&e.ID, &e.Type, &e.AccountID, &e.OpponentID, &e.ClanWarID, &e.WinChance, &e.IsWin, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan event history: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate event history: %w", err)
	}
	return entries, total, nil
}
