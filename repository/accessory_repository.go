package repository

import (
	"context"
	"fmt"

	"guardwars/database"
	"guardwars/models"

	"github.com/jackc/pgx/v5"
)

// AccessoryRepository implements the AccessoryRepository interface
type AccessoryRepository struct {
	q queryable
}

// NewAccessoryRepository creates a new accessory repository
func NewAccessoryRepository(db *database.DB) *AccessoryRepository {
	return &AccessoryRepository{q: db.Pool}
}

func newAccessoryRepositoryWithTx(tx queryable) *AccessoryRepository {
	return &AccessoryRepository{q: tx}
}

// Create stores a new accessory
func (r *AccessoryRepository) Create(ctx context.Context, accessory *models.Accessory) error {
	query := `
		INSERT INTO accessories (account_id, name, item_type, value, strength_bonus, equipped)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		accessory.AccountID,
		accessory.Name,
		accessory.ItemType,
		accessory.Value,
		accessory.StrengthBonus,
		accessory.Equipped,
	).Scan(&accessory.ID, &accessory.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create accessory for account %d: %w", accessory.AccountID, err)
	}
	return nil
}

// GetByID retrieves an accessory by id
func (r *AccessoryRepository) GetByID(ctx context.Context, id int64) (*models.Accessory, error) {
	query := `
		SELECT id, account_id, name, item_type, value, strength_bonus, equipped, created_at
		FROM accessories
		WHERE id = $1
	`

	var a models.Accessory
	err := r.q.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.AccountID, &a.Name, &a.ItemType, &a.Value, &a.StrengthBonus, &a.Equipped, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get accessory %d: %w", id, err)
	}
	return &a, nil
}

// GetEquippedByAccount returns the account's equipped accessories
func (r *AccessoryRepository) GetEquippedByAccount(ctx context.Context, accountID int64) ([]*models.Accessory, error) {
	query := `
		SELECT id, account_id, name, item_type, value, strength_bonus, equipped, created_at
		FROM accessories
		WHERE account_id = $1 AND equipped
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accessories for account %d: %w", accountID, err)
	}
	defer rows.Close()

	accessories := make([]*models.Accessory, 0)
	for rows.Next() {
		var a models.Accessory
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Name, &a.ItemType, &a.Value, &a.StrengthBonus, &a.Equipped, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan accessory: %w", err)
		}
		accessories = append(accessories, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accessories: %w", err)
	}
	return accessories, nil
}

// Consume deletes an accessory owned by the account
func (r *AccessoryRepository) Consume(ctx context.Context, id int64, accountID int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM accessories WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to consume accessory %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}
