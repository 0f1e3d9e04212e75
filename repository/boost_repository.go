package repository

import (
	"context"
	"fmt"
	"time"

	"guardwars/database"
	"guardwars/models"

	"github.com/jackc/pgx/v5"
)

// BoostRepository implements the BoostRepository interface
type BoostRepository struct {
	q queryable
}

// NewBoostRepository creates a new boost repository
func NewBoostRepository(db *database.DB) *BoostRepository {
	return &BoostRepository{q: db.Pool}
}

func newBoostRepositoryWithTx(tx queryable) *BoostRepository {
	return &BoostRepository{q: tx}
}

// activeLatest orders indefinite boosts first, then by the furthest end time
const activeBoostQuery = `
	SELECT id, account_id, type, end_time, created_at
	FROM boosts
	WHERE account_id = $1 AND type = $2 AND (end_time IS NULL OR end_time > $3)
	ORDER BY end_time DESC NULLS FIRST, id DESC
	LIMIT 1
`

// GetActive returns the latest active boost of the type
func (r *BoostRepository) GetActive(ctx context.Context, accountID int64, boostType models.BoostType, now time.Time) (*models.Boost, error) {
	return r.getActive(ctx, activeBoostQuery, accountID, boostType, now)
}

// GetActiveForUpdate returns the latest active boost of the type and locks it
func (r *BoostRepository) GetActiveForUpdate(ctx context.Context, accountID int64, boostType models.BoostType, now time.Time) (*models.Boost, error) {
	return r.getActive(ctx, activeBoostQuery+" FOR UPDATE", accountID, boostType, now)
}

func (r *BoostRepository) getActive(ctx context.Context, query string, accountID int64, boostType models.BoostType, now time.Time) (*models.Boost, error) {
	var b models.Boost
	err := r.q.QueryRow(ctx, query, accountID, boostType, now).Scan(&b.ID, &b.AccountID, &b.Type, &b.EndTime, &b.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active %s boost for account %d: %w", boostType, accountID, err)
	}
	return &b, nil
}

// ActiveTypes returns the set of boost types active at now
func (r *BoostRepository) ActiveTypes(ctx context.Context, accountID int64, now time.Time) (map[models.BoostType]bool, error) {
	query := `
		SELECT DISTINCT type
		FROM boosts
		WHERE account_id = $1 AND (end_time IS NULL OR end_time > $2)
	`

	rows, err := r.q.Query(ctx, query, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active boosts for account %d: %w", accountID, err)
	}
	defer rows.Close()

	active := make(map[models.BoostType]bool)
	for rows.Next() {
		var t models.BoostType
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan boost type: %w", err)
		}
		active[t] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate boosts: %w", err)
	}
	return active, nil
}

// Create stores a new boost
func (r *BoostRepository) Create(ctx context.Context, boost *models.Boost) error {
	query := `
		INSERT INTO boosts (account_id, type, end_time)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, boost.AccountID, boost.Type, boost.EndTime).Scan(&boost.ID, &boost.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s boost for account %d: %w", boost.Type, boost.AccountID, err)
	}
	return nil
}

// UpdateEndTime changes a boost's end time
func (r *BoostRepository) UpdateEndTime(ctx context.Context, id int64, endTime *time.Time) error {
	if _, err := r.q.Exec(ctx, `UPDATE boosts SET end_time = $1 WHERE id = $2`, endTime, id); err != nil {
		return fmt.Errorf("failed to update boost %d: %w", id, err)
	}
	return nil
}

// ExpireActive ends every active boost of the type at now
func (r *BoostRepository) ExpireActive(ctx context.Context, accountID int64, boostType models.BoostType, now time.Time) (int64, error) {
	query := `
		UPDATE boosts
		SET end_time = $3
		WHERE account_id = $1 AND type = $2 AND (end_time IS NULL OR end_time > $3)
	`

	tag, err := r.q.Exec(ctx, query, accountID, boostType, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire %s boosts for account %d: %w", boostType, accountID, err)
	}
	return tag.RowsAffected(), nil
}
