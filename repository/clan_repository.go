package repository

import (
	"context"
	"fmt"
	"time"

	"guardwars/database"
	"guardwars/models"

	"github.com/jackc/pgx/v5"
)

// ClanRepository implements the ClanRepository interface
type ClanRepository struct {
	q queryable
}

// NewClanRepository creates a new clan repository
func NewClanRepository(db *database.DB) *ClanRepository {
	return &ClanRepository{q: db.Pool}
}

func newClanRepositoryWithTx(tx queryable) *ClanRepository {
	return &ClanRepository{q: tx}
}

const clanColumns = `id, name, leader_id, war_cooldown_until, wins, losses, created_at`

func scanClan(row pgx.Row) (*models.Clan, error) {
	var c models.Clan
	if err := row.Scan(&c.ID, &c.Name, &c.LeaderID, &c.WarCooldownUntil, &c.Wins, &c.Losses, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID retrieves a clan by id
func (r *ClanRepository) GetByID(ctx context.Context, id int64) (*models.Clan, error) {
	clan, err := scanClan(r.q.QueryRow(ctx, `SELECT `+clanColumns+` FROM clans WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clan %d: %w", id, err)
	}
	return clan, nil
}

// GetByIDForUpdate retrieves and locks a clan row
func (r *ClanRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Clan, error) {
	clan, err := scanClan(r.q.QueryRow(ctx, `SELECT `+clanColumns+` FROM clans WHERE id = $1 FOR UPDATE`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock clan %d: %w", id, err)
	}
	return clan, nil
}

// Create creates a new clan
func (r *ClanRepository) Create(ctx context.Context, name string, leaderID *int64) (*models.Clan, error) {
	query := `INSERT INTO clans (name, leader_id) VALUES ($1, $2) RETURNING ` + clanColumns

	clan, err := scanClan(r.q.QueryRow(ctx, query, name, leaderID))
	if err != nil {
		return nil, fmt.Errorf("failed to create clan %q: %w", name, err)
	}
	return clan, nil
}

// SetWarCooldown sets when the clan may next declare war
func (r *ClanRepository) SetWarCooldown(ctx context.Context, clanID int64, until time.Time) error {
	if _, err := r.q.Exec(ctx, `UPDATE clans SET war_cooldown_until = $1 WHERE id = $2`, until, clanID); err != nil {
		return fmt.Errorf("failed to set war cooldown for clan %d: %w", clanID, err)
	}
	return nil
}

// RecordWarResult increments the winner's wins and the loser's losses
func (r *ClanRepository) RecordWarResult(ctx context.Context, winnerClanID, loserClanID int64) error {
	query := `
		UPDATE clans
		SET wins = wins + CASE WHEN id = $1 THEN 1 ELSE 0 END,
		    losses = losses + CASE WHEN id = $2 THEN 1 ELSE 0 END
		WHERE id IN ($1, $2)
	`

	tag, err := r.q.Exec(ctx, query, winnerClanID, loserClanID)
	if err != nil {
		return fmt.Errorf("failed to record war result: %w", err)
	}
	if tag.RowsAffected() != 2 {
		return fmt.Errorf("war result touched %d clans, expected 2", tag.RowsAffected())
	}
	return nil
}
