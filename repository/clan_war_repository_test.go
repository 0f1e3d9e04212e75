package repository

import (
	"context"
	"testing"
	"time"

	"guardwars/models"
	"guardwars/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClanWarRepository_Lifecycle(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewClanWarRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	leader1 := testutil.CreateTestAccount(t, testDB.DB, "leader1", 0)
	leader2 := testutil.CreateTestAccount(t, testDB.DB, "leader2", 0)
	clan1 := testutil.CreateTestClan(t, testDB.DB, "North", leader1.ID)
	clan2 := testutil.CreateTestClan(t, testDB.DB, "South", leader2.ID)

	war := &models.ClanWar{
		Clan1ID:   clan1.ID,
		Clan2ID:   clan2.ID,
		StartTime: now.Add(-2 * time.Hour),
		EndTime:   now.Add(-time.Minute),
		Status:    models.ClanWarStatusInProgress,
	}
	require.NoError(t, repo.Create(ctx, war))

	t.Run("second active war between the same pair is rejected", func(t *testing.T) {
		dup := &models.ClanWar{
			Clan1ID:   clan2.ID,
			Clan2ID:   clan1.ID,
			StartTime: now,
			EndTime:   now.Add(time.Hour),
			Status:    models.ClanWarStatusInProgress,
		}
		assert.Error(t, repo.Create(ctx, dup))
	})

	t.Run("active lookup is symmetric", func(t *testing.T) {
		found, err := repo.GetActiveBetween(ctx, clan2.ID, clan1.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, war.ID, found.ID)
	})

	t.Run("increment wins per side", func(t *testing.T) {
		ok, err := repo.IncrementWins(ctx, war.ID, clan2.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.IncrementWins(ctx, war.ID, 987654)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired war is listed", func(t *testing.T) {
		wars, err := repo.ListExpired(ctx, now)
		require.NoError(t, err)
		require.Len(t, wars, 1)
		assert.Equal(t, war.ID, wars[0].ID)
	})

	t.Run("tally attributes value by thief clan", func(t *testing.T) {
		stolen := NewStolenItemRepository(testDB.DB)
		require.NoError(t, stolen.Create(ctx, &models.StolenItem{
			Type: models.StolenItemTypeMoney, Value: 250, ThiefID: leader2.ID, VictimID: leader1.ID,
			ClanWarID: &war.ID, ThiefClanID: &clan2.ID,
		}))
		require.NoError(t, stolen.Create(ctx, &models.StolenItem{
			Type: models.StolenItemTypeGuard, Value: 7, ThiefID: leader1.ID, VictimID: leader2.ID,
			ClanWarID: &war.ID, ThiefClanID: &clan1.ID,
		}))

		tally, err := repo.Tally(ctx, war.ID, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(100), tally.Clan1Value)
		assert.Equal(t, int64(250), tally.Clan2Value)
		assert.Equal(t, 0, tally.Clan1Attacks)
		assert.Equal(t, 1, tally.Clan2Attacks)
	})

	t.Run("complete happens once", func(t *testing.T) {
		completed, err := repo.Complete(ctx, war.ID, now)
		require.NoError(t, err)
		require.NotNil(t, completed)
		assert.Equal(t, models.ClanWarStatusCompleted, completed.Status)

		again, err := repo.Complete(ctx, war.ID, now)
		require.NoError(t, err)
		assert.Nil(t, again)

		ok, err := repo.IncrementWins(ctx, war.ID, clan1.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		active, err := repo.GetActiveBetween(ctx, clan1.ID, clan2.ID)
		require.NoError(t, err)
		assert.Nil(t, active)
	})
}
