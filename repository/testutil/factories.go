package testutil

import (
	"context"
	"testing"
	"time"

	"guardwars/database"
	"guardwars/models"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// CreateTestAccount inserts an account with the given balance
func CreateTestAccount(t *testing.T, db *database.DB, username string, balance int64) *models.Account {
	t.Helper()
	account := &models.Account{Username: username, Balance: balance}
	err := db.QueryRow(context.Background(), `
		INSERT INTO accounts (username, balance) VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, username, balance).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	require.NoError(t, err)
	return account
}

// CreateTestGuard inserts a guard for the account
func CreateTestGuard(t *testing.T, db *database.DB, accountID int64, strength int64, isFirst bool) *models.Guard {
	t.Helper()
	guard := &models.Guard{AccountID: accountID, Name: "Guard", Strength: strength, IsFirst: isFirst}
	err := db.QueryRow(context.Background(), `
		INSERT INTO guards (account_id, name, strength, is_first) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, accountID, guard.Name, strength, isFirst).Scan(&guard.ID, &guard.CreatedAt)
	require.NoError(t, err)
	return guard
}

// CreateTestClan inserts a clan led by leaderID and places every member in it
func CreateTestClan(t *testing.T, db *database.DB, name string, leaderID int64, memberIDs ...int64) *models.Clan {
	t.Helper()
	ctx := context.Background()
	clan := &models.Clan{Name: name, LeaderID: &leaderID}
	ids := append([]int64{leaderID}, memberIDs...)

	err := db.WithTransaction(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO clans (name, leader_id) VALUES ($1, $2)
			RETURNING id, created_at
		`, name, leaderID).Scan(&clan.ID, &clan.CreatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE accounts SET clan_id = $1 WHERE id = ANY($2)`, clan.ID, ids)
		return err
	})
	require.NoError(t, err)
	return clan
}

// CreateTestWar inserts an in-progress war between two clans ending at end
func CreateTestWar(t *testing.T, db *database.DB, clan1ID, clan2ID int64, start, end time.Time) *models.ClanWar {
	t.Helper()
	war := &models.ClanWar{
		Clan1ID:   clan1ID,
		Clan2ID:   clan2ID,
		StartTime: start,
		EndTime:   end,
		Status:    models.ClanWarStatusInProgress,
	}
	err := db.QueryRow(context.Background(), `
		INSERT INTO clan_wars (clan_1_id, clan_2_id, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, clan1ID, clan2ID, start, end).Scan(&war.ID, &war.CreatedAt)
	require.NoError(t, err)
	return war
}

// GetBalance reads an account balance directly
func GetBalance(t *testing.T, db *database.DB, accountID int64) int64 {
	t.Helper()
	var balance int64
	err := db.QueryRow(context.Background(), `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	require.NoError(t, err)
	return balance
}
