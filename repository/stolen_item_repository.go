package repository

import (
	"context"
	"fmt"

	"guardwars/database"
	"guardwars/models"
)

// StolenItemRepository implements the StolenItemRepository interface
type StolenItemRepository struct {
	q queryable
}

// NewStolenItemRepository creates a new stolen item repository
func NewStolenItemRepository(db *database.DB) *StolenItemRepository {
	return &StolenItemRepository{q: db.Pool}
}

func newStolenItemRepositoryWithTx(tx queryable) *StolenItemRepository {
	return &StolenItemRepository{q: tx}
}

// Create records a stolen item. Stolen items are never updated afterwards.
func (r *StolenItemRepository) Create(ctx context.Context, item *models.StolenItem) error {
	query := `
		INSERT INTO stolen_items (type, value, guard_id, thief_id, victim_id, clan_war_id, thief_clan_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		item.Type,
		item.Value,
		item.GuardID,
		item.ThiefID,
		item.VictimID,
		item.ClanWarID,
		item.ThiefClanID,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create stolen item: %w", err)
	}
	return nil
}

// GetByEventHistoryIDs returns the stolen items linked to each event history entry
func (r *StolenItemRepository) GetByEventHistoryIDs(ctx context.Context, eventIDs []int64) (map[int64][]*models.StolenItem, error) {
	query := `
		SELECT l.event_history_id, si.id, si.type, si.value, si.guard_id, si.thief_id,
		       si.victim_id, si.clan_war_id, si.thief_clan_id, si.created_at
		FROM event_history_stolen_items l
		JOIN stolen_items si ON si.id = l.stolen_item_id
		WHERE l.event_history_id = ANY($1)
		ORDER BY si.id
	`

	rows, err := r.q.Query(ctx, query, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get stolen items: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]*models.StolenItem)
	for rows.Next() {
		var eventID int64
		var si models.StolenItem
		err := rows.Scan(&eventID, &si.ID, &si.Type, &si.Value, &si.GuardID, &si.ThiefID,
			&si.VictimID, &si.ClanWarID, &si.ThiefClanID, &si.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stolen item: %w", err)
		}
		result[eventID] = append(result[eventID], &si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stolen items: %w", err)
	}
	return result, nil
}
