package repository

import (
	"context"
	"testing"

	"guardwars/models"
	"guardwars/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHistoryRepository_CreateAndPage(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEventHistoryRepository(testDB.DB)
	stolen := NewStolenItemRepository(testDB.DB)
	ctx := context.Background()

	thief := testutil.CreateTestAccount(t, testDB.DB, "thief", 0)
	victim := testutil.CreateTestAccount(t, testDB.DB, "victim", 0)

	item := &models.StolenItem{Type: models.StolenItemTypeMoney, Value: 42, ThiefID: thief.ID, VictimID: victim.ID}
	require.NoError(t, stolen.Create(ctx, item))

	win := true
	chance := 0.5
	attack := &models.EventHistory{
		Type:       models.EventTypeAttack,
		AccountID:  thief.ID,
		OpponentID: &victim.ID,
		WinChance:  &chance,
		IsWin:      &win,
	}
	require.NoError(t, repo.Create(ctx, attack, []int64{item.ID}))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.EventHistory{Type: models.EventTypeContract, AccountID: thief.ID}, nil))
	}

	entries, total, err := repo.GetByAccount(ctx, thief.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EventTypeContract, entries[0].Type)

	entries, _, err = repo.GetByAccount(ctx, thief.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, attack.ID, entries[1].ID)

	items, err := stolen.GetByEventHistoryIDs(ctx, []int64{attack.ID})
	require.NoError(t, err)
	require.Len(t, items[attack.ID], 1)
	assert.Equal(t, int64(42), items[attack.ID][0].Value)
}
