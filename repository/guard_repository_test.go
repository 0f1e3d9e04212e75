package repository

import (
	"context"
	"testing"

	"guardwars/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardRepository_Transfer(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGuardRepository(testDB.DB)
	ctx := context.Background()

	thief := testutil.CreateTestAccount(t, testDB.DB, "thief", 0)
	victim := testutil.CreateTestAccount(t, testDB.DB, "victim", 0)
	first := testutil.CreateTestGuard(t, testDB.DB, victim.ID, 5, true)
	extra := testutil.CreateTestGuard(t, testDB.DB, victim.ID, 7, false)

	t.Run("first guard is never moved", func(t *testing.T) {
		moved, err := repo.Transfer(ctx, first.ID, victim.ID, thief.ID)
		require.NoError(t, err)
		assert.False(t, moved)
	})

	t.Run("capturable guard moves once", func(t *testing.T) {
		moved, err := repo.Transfer(ctx, extra.ID, victim.ID, thief.ID)
		require.NoError(t, err)
		assert.True(t, moved)

		moved, err = repo.Transfer(ctx, extra.ID, victim.ID, thief.ID)
		require.NoError(t, err)
		assert.False(t, moved)
	})

	t.Run("ownership reflects the transfer", func(t *testing.T) {
		guards, err := repo.GetByAccount(ctx, thief.ID)
		require.NoError(t, err)
		require.Len(t, guards, 1)
		assert.Equal(t, extra.ID, guards[0].ID)
		assert.False(t, guards[0].IsFirst)
	})
}

func TestGuardRepository_CountCapturableByClan(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGuardRepository(testDB.DB)
	ctx := context.Background()

	leader := testutil.CreateTestAccount(t, testDB.DB, "leader", 0)
	member := testutil.CreateTestAccount(t, testDB.DB, "member", 0)
	clan := testutil.CreateTestClan(t, testDB.DB, "Ravens", leader.ID, member.ID)

	testutil.CreateTestGuard(t, testDB.DB, leader.ID, 10, true)
	testutil.CreateTestGuard(t, testDB.DB, member.ID, 10, true)

	count, err := repo.CountCapturableByClan(ctx, clan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	testutil.CreateTestGuard(t, testDB.DB, member.ID, 3, false)
	count, err = repo.CountCapturableByClan(ctx, clan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
