package service

import (
	"context"
	"testing"

	"guardwars/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventRecorder_RecordAttack(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	recorder := NewEventRecorder(env.factory)

	items := []*models.StolenItem{{ID: 31}, {ID: 32}}
	env.EventHistory.On("Create", ctx, mock.AnythingOfType("*models.EventHistory"), []int64{31, 32}).
		Return(nil).
		Run(func(args mock.Arguments) {
			entry := args.Get(1).(*models.EventHistory)
			entry.ID = entry.AccountID * 100
		})

	outcome := &models.AttackOutcome{WinChance: 0.7, IsWin: true}
	attack, defense, err := recorder.RecordAttack(ctx, env.uow, outcome, 1, 2, items)
	require.NoError(t, err)

	assert.Equal(t, models.EventTypeAttack, attack.Type)
	assert.Equal(t, int64(100), attack.ID)
	assert.True(t, *attack.IsWin)
	assert.Equal(t, int64(2), *attack.OpponentID)

	assert.Equal(t, models.EventTypeDefense, defense.Type)
	assert.False(t, *defense.IsWin)
	assert.Equal(t, 0.7, *defense.WinChance)
	assert.Len(t, defense.StolenItems, 2)
}

func TestEventRecorder_History(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.expectTx(ctx, false)
	recorder := NewEventRecorder(env.factory)

	entries := []*models.EventHistory{{ID: 8, Type: models.EventTypeDefense}, {ID: 7, Type: models.EventTypeTraining}}
	env.EventHistory.On("GetByAccount", ctx, int64(1), 20, 20).Return(entries, int64(27), nil)
	env.StolenItems.On("GetByEventHistoryIDs", ctx, []int64{8, 7}).Return(map[int64][]*models.StolenItem{
		8: {{ID: 1, Type: models.StolenItemTypeMoney, Value: 30}},
	}, nil)

	// Out-of-range limits fall back to the default page size
	page, err := recorder.History(ctx, 1, 2, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(27), page.Total)
	assert.Equal(t, 20, page.Limit)
	require.Len(t, page.Items, 2)
	assert.Len(t, page.Items[0].StolenItems, 1)
	assert.Empty(t, page.Items[1].StolenItems)
}
