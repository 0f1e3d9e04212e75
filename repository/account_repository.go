package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"guardwars/database"
	"guardwars/models"
	"guardwars/service"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, username, balance, clan_id, shield_until, last_attack_at,
	last_training_at, last_contract_at, created_at, updated_at`

// strengthExpr is an account's guard strength plus equipped accessory bonuses
const strengthExpr = `(
	COALESCE((SELECT SUM(g.strength) FROM guards g WHERE g.account_id = a.id), 0) +
	COALESCE((SELECT SUM(ac.strength_bonus) FROM accessories ac WHERE ac.account_id = a.id AND ac.equipped), 0)
)::BIGINT`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Balance,
		&a.ClanID,
		&a.ShieldUntil,
		&a.LastAttackAt,
		&a.LastTrainingAt,
		&a.LastContractAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an account by id
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// LockByIDs locks the account rows in ascending id order
func (r *AccountRepository) LockByIDs(ctx context.Context, ids ...int64) (map[int64]*models.Account, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := r.q.Query(ctx, query, sorted)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts %v: %w", sorted, err)
	}
	defer rows.Close()

	accounts := make(map[int64]*models.Account, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[account.ID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, username string, initialBalance int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (username, balance)
		VALUES ($1, $2)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, username, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %q: %w", username, err)
	}
	return account, nil
}

// AddBalance adds to an account's balance and returns the new balance
func (r *AccountRepository) AddBalance(ctx context.Context, id int64, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("amount cannot be negative")
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("account %d: %w", id, service.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for account %d: %w", id, err)
	}
	return balance, nil
}

// DeductBalance deducts from an account's balance only if it stays non-negative
func (r *AccountRepository) DeductBalance(ctx context.Context, id int64, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("amount cannot be negative")
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&balance)
	if err == pgx.ErrNoRows {
		account, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return 0, fmt.Errorf("failed to check account: %w", getErr)
		}
		if account == nil {
			return 0, fmt.Errorf("account %d: %w", id, service.ErrNotFound)
		}
		return 0, fmt.Errorf("have %d, need %d: %w", account.Balance, amount, service.ErrInsufficientFunds)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance for account %d: %w", id, err)
	}
	return balance, nil
}

// SetLastActionAt persists the time an action consumed its cooldown
func (r *AccountRepository) SetLastActionAt(ctx context.Context, id int64, kind models.ActionKind, at time.Time) error {
	var column string
	switch kind {
	case models.ActionAttack:
		column = "last_attack_at"
	case models.ActionTraining:
		column = "last_training_at"
	case models.ActionContract:
		column = "last_contract_at"
	default:
		return fmt.Errorf("unknown action kind %q", kind)
	}

	query := `UPDATE accounts SET ` + column + ` = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.q.Exec(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to set %s for account %d: %w", column, id, err)
	}
	return nil
}

// SetShieldUntil mirrors the shield boost end onto the account row
func (r *AccountRepository) SetShieldUntil(ctx context.Context, id int64, until *time.Time) error {
	query := `UPDATE accounts SET shield_until = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.q.Exec(ctx, query, until, id); err != nil {
		return fmt.Errorf("failed to set shield for account %d: %w", id, err)
	}
	return nil
}

// SetClan sets or clears the account's clan
func (r *AccountRepository) SetClan(ctx context.Context, id int64, clanID *int64) error {
	query := `UPDATE accounts SET clan_id = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.q.Exec(ctx, query, clanID, id); err != nil {
		return fmt.Errorf("failed to set clan for account %d: %w", id, err)
	}
	return nil
}

// TopByStrength returns accounts ordered by combined strength
func (r *AccountRepository) TopByStrength(ctx context.Context, limit int) ([]*models.AccountStrength, error) {
	query := `
		SELECT a.id, a.username, a.clan_id, ` + strengthExpr + ` AS strength
		FROM accounts a
		ORDER BY strength DESC, a.id ASC
		LIMIT $1
	`
	return r.queryStrength(ctx, query, limit)
}

// ListAttackable returns accounts the given account may attack at now
func (r *AccountRepository) ListAttackable(ctx context.Context, accountID int64, now time.Time, limit int) ([]*models.AccountStrength, error) {
	query := `
		SELECT a.id, a.username, a.clan_id, ` + strengthExpr + ` AS strength
		FROM accounts a
		WHERE a.id <> $1
		  AND NOT EXISTS (
			SELECT 1 FROM boosts b
			WHERE b.account_id = a.id AND b.type = 'shield'
			  AND (b.end_time IS NULL OR b.end_time > $2)
		  )
		  AND (
			a.clan_id IS NULL
			OR a.clan_id IS DISTINCT FROM (SELECT clan_id FROM accounts WHERE id = $1)
		  )
		ORDER BY strength DESC, a.id ASC
		LIMIT $3
	`
	return r.queryStrength(ctx, query, accountID, now, limit)
}

func (r *AccountRepository) queryStrength(ctx context.Context, query string, args ...any) ([]*models.AccountStrength, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query account strength: %w", err)
	}
	defer rows.Close()

	result := make([]*models.AccountStrength, 0)
	for rows.Next() {
		var s models.AccountStrength
		if err := rows.Scan(&s.AccountID, &s.Username, &s.ClanID, &s.Strength); err != nil {
			return nil, fmt.Errorf("failed to scan account strength: %w", err)
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account strength: %w", err)
	}
	return result, nil
}
