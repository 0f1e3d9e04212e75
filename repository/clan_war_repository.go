package repository

import (
	"context"
	"fmt"
	"time"

	"guardwars/database"
	"guardwars/models"

	"github.com/jackc/pgx/v5"
)

// ClanWarRepository implements the ClanWarRepository interface
type ClanWarRepository struct {
	q queryable
}

// NewClanWarRepository creates a new clan war repository
func NewClanWarRepository(db *database.DB) *ClanWarRepository {
	return &ClanWarRepository{q: db.Pool}
}

func newClanWarRepositoryWithTx(tx queryable) *ClanWarRepository {
	return &ClanWarRepository{q: tx}
}

const clanWarColumns = `id, clan_1_id, clan_2_id, start_time, end_time, status, winner_clan_id,
	clan_1_wins, clan_2_wins, completed_at, created_at`

func scanClanWar(row pgx.Row) (*models.ClanWar, error) {
	var w models.ClanWar
	err := row.Scan(
		&w.ID,
		&w.Clan1ID,
		&w.Clan2ID,
		&w.StartTime,
		&w.EndTime,
		&w.Status,
		&w.WinnerClanID,
		&w.Clan1Wins,
		&w.Clan2Wins,
		&w.CompletedAt,
		&w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create creates a new clan war
func (r *ClanWarRepository) Create(ctx context.Context, war *models.ClanWar) error {
	query := `
		INSERT INTO clan_wars (clan_1_id, clan_2_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, war.Clan1ID, war.Clan2ID, war.StartTime, war.EndTime, war.Status).
		Scan(&war.ID, &war.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create clan war: %w", err)
	}
	return nil
}

// GetByID retrieves a clan war by id
func (r *ClanWarRepository) GetByID(ctx context.Context, id int64) (*models.ClanWar, error) {
	war, err := scanClanWar(r.q.QueryRow(ctx, `SELECT `+clanWarColumns+` FROM clan_wars WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clan war %d: %w", id, err)
	}
	return war, nil
}

// GetActiveBetween returns the in-progress war between two clans in either direction
func (r *ClanWarRepository) GetActiveBetween(ctx context.Context, clanA, clanB int64) (*models.ClanWar, error) {
	query := `
		SELECT ` + clanWarColumns + `
		FROM clan_wars
		WHERE status = 'in_progress'
		  AND LEAST(clan_1_id, clan_2_id) = LEAST($1::BIGINT, $2::BIGINT)
		  AND GREATEST(clan_1_id, clan_2_id) = GREATEST($1::BIGINT, $2::BIGINT)
	`

	war, err := scanClanWar(r.q.QueryRow(ctx, query, clanA, clanB))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active war between clans %d and %d: %w", clanA, clanB, err)
	}
	return war, nil
}

// ListExpired returns in-progress wars whose end time is at or before now
func (r *ClanWarRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.ClanWar, error) {
	query := `
		SELECT ` + clanWarColumns + `
		FROM clan_wars
		WHERE status = 'in_progress' AND end_time <= $1
		ORDER BY end_time, id
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired wars: %w", err)
	}
	defer rows.Close()

	wars := make([]*models.ClanWar, 0)
	for rows.Next() {
		war, err := scanClanWar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clan war: %w", err)
		}
		wars = append(wars, war)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clan wars: %w", err)
	}
	return wars, nil
}

// Complete transitions an in-progress war to completed. Returns nil if another
// transaction got there first.
func (r *ClanWarRepository) Complete(ctx context.Context, warID int64, completedAt time.Time) (*models.ClanWar, error) {
	query := `
		UPDATE clan_wars
		SET status = 'completed', completed_at = $2
		WHERE id = $1 AND status = 'in_progress'
		RETURNING ` + clanWarColumns

	war, err := scanClanWar(r.q.QueryRow(ctx, query, warID, completedAt))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete clan war %d: %w", warID, err)
	}
	return war, nil
}

// SetWinner records the winning clan of a war
func (r *ClanWarRepository) SetWinner(ctx context.Context, warID int64, winnerClanID int64) error {
	if _, err := r.q.Exec(ctx, `UPDATE clan_wars SET winner_clan_id = $1 WHERE id = $2`, winnerClanID, warID); err != nil {
		return fmt.Errorf("failed to set winner of clan war %d: %w", warID, err)
	}
	return nil
}

// IncrementWins adds one won attack for the clan's side while the war is in progress
func (r *ClanWarRepository) IncrementWins(ctx context.Context, warID int64, clanID int64) (bool, error) {
	query := `
		UPDATE clan_wars
		SET clan_1_wins = clan_1_wins + CASE WHEN clan_1_id = $2 THEN 1 ELSE 0 END,
		    clan_2_wins = clan_2_wins + CASE WHEN clan_2_id = $2 THEN 1 ELSE 0 END
		WHERE id = $1 AND status = 'in_progress' AND $2 IN (clan_1_id, clan_2_id)
	`

	tag, err := r.q.Exec(ctx, query, warID, clanID)
	if err != nil {
		return false, fmt.Errorf("failed to increment wins for clan war %d: %w", warID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Tally sums the stolen value per side and reads the won attack counters
func (r *ClanWarRepository) Tally(ctx context.Context, warID int64, guardValue int64) (*models.WarTally, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN si.thief_clan_id = w.clan_1_id THEN
				CASE WHEN si.type = 'guard' THEN $2 ELSE si.value END END), 0)::BIGINT,
			COALESCE(SUM(CASE WHEN si.thief_clan_id = w.clan_2_id THEN
				CASE WHEN si.type = 'guard' THEN $2 ELSE si.value END END), 0)::BIGINT,
			w.clan_1_wins,
			w.clan_2_wins
		FROM clan_wars w
		LEFT JOIN stolen_items si ON si.clan_war_id = w.id
		WHERE w.id = $1
		GROUP BY w.id
	`

	var t models.WarTally
	err := r.q.QueryRow(ctx, query, warID, guardValue).Scan(&t.Clan1Value, &t.Clan2Value, &t.Clan1Attacks, &t.Clan2Attacks)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("clan war %d not found", warID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to tally clan war %d: %w", warID, err)
	}
	return &t, nil
}
