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

func TestBoostRepository_Active(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBoostRepository(testDB.DB)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	account := testutil.CreateTestAccount(t, testDB.DB, "booster", 0)

	expired := now.Add(-time.Minute)
	require.NoError(t, repo.Create(ctx, &models.Boost{AccountID: account.ID, Type: models.BoostTypeShield, EndTime: &expired}))

	active, err := repo.GetActive(ctx, account.ID, models.BoostTypeShield, now)
	require.NoError(t, err)
	assert.Nil(t, active)

	later := now.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, &models.Boost{AccountID: account.ID, Type: models.BoostTypeShield, EndTime: &later}))
	require.NoError(t, repo.Create(ctx, &models.Boost{AccountID: account.ID, Type: models.BoostTypeRewardDoubling}))

	active, err = repo.GetActive(ctx, account.ID, models.BoostTypeShield, now)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, later.Equal(*active.EndTime))

	types, err := repo.ActiveTypes(ctx, account.ID, now)
	require.NoError(t, err)
	assert.Equal(t, map[models.BoostType]bool{
		models.BoostTypeShield:         true,
		models.BoostTypeRewardDoubling: true,
	}, types)

	expiredCount, err := repo.ExpireActive(ctx, account.ID, models.BoostTypeRewardDoubling, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expiredCount)

	types, err = repo.ActiveTypes(ctx, account.ID, now)
	require.NoError(t, err)
	assert.False(t, types[models.BoostTypeRewardDoubling])
}
