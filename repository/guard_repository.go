package repository

import (
	"context"
	"fmt"

	"guardwars/database"
	"guardwars/models"
)

// GuardRepository implements the GuardRepository interface
type GuardRepository struct {
	q queryable
}

// NewGuardRepository creates a new guard repository
func NewGuardRepository(db *database.DB) *GuardRepository {
	return &GuardRepository{q: db.Pool}
}

func newGuardRepositoryWithTx(tx queryable) *GuardRepository {
	return &GuardRepository{q: tx}
}

// Create creates a new guard
func (r *GuardRepository) Create(ctx context.Context, guard *models.Guard) error {
	query := `
		INSERT INTO guards (account_id, name, strength, is_first)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, guard.AccountID, guard.Name, guard.Strength, guard.IsFirst).
		Scan(&guard.ID, &guard.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create guard for account %d: %w", guard.AccountID, err)
	}
	return nil
}

// GetByAccount returns an account's guards, weakest first
func (r *GuardRepository) GetByAccount(ctx context.Context, accountID int64) ([]*models.Guard, error) {
	query := `
		SELECT id, account_id, name, strength, is_first, created_at
		FROM guards
		WHERE account_id = $1
		ORDER BY strength ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guards for account %d: %w", accountID, err)
	}
	defer rows.Close()

	guards := make([]*models.Guard, 0)
	for rows.Next() {
		var g models.Guard
		if err := rows.Scan(&g.ID, &g.AccountID, &g.Name, &g.Strength, &g.IsFirst, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guard: %w", err)
		}
		guards = append(guards, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guards: %w", err)
	}
	return guards, nil
}

// Transfer moves a capturable guard between accounts. Zero rows means another
// attack already took it, or it is a first guard.
func (r *GuardRepository) Transfer(ctx context.Context, guardID, fromAccountID, toAccountID int64) (bool, error) {
	query := `
		UPDATE guards
		SET account_id = $3
		WHERE id = $1 AND account_id = $2 AND NOT is_first
	`

	tag, err := r.q.Exec(ctx, query, guardID, fromAccountID, toAccountID)
	if err != nil {
		return false, fmt.Errorf("failed to transfer guard %d: %w", guardID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// AddStrength increases a guard's strength
func (r *GuardRepository) AddStrength(ctx context.Context, guardID int64, amount int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE guards SET strength = strength + $1 WHERE id = $2`, amount, guardID)
	if err != nil {
		return fmt.Errorf("failed to add strength to guard %d: %w", guardID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("guard %d not found", guardID)
	}
	return nil
}

// CountCapturableByClan counts non-first guards owned by members of the clan
func (r *GuardRepository) CountCapturableByClan(ctx context.Context, clanID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM guards g
		JOIN accounts a ON a.id = g.account_id
		WHERE a.clan_id = $1 AND NOT g.is_first
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, clanID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count capturable guards for clan %d: %w", clanID, err)
	}
	return count, nil
}
