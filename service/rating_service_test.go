package service

import (
	"context"
	"testing"
	"time"

	"guardwars/events"
	"guardwars/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRatingService_TopByStrength(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.expectTx(ctx, false)
	cache := new(MockListCache)
	svc := NewRatingService(env.factory, cache)

	rows := []*models.AccountStrength{{AccountID: 1, Strength: 90}, {AccountID: 2, Strength: 40}}
	cache.On("GetOrLoad", ctx, "rating:top:10").Return(nil)
	env.Accounts.On("TopByStrength", ctx, 10).Return(rows, nil)

	got, err := svc.TopByStrength(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	cache.AssertExpectations(t)
}

func TestRatingService_AttackableAccounts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.expectTx(ctx, false)
	cache := new(MockListCache)
	svc := NewRatingService(env.factory, cache)

	rows := []*models.AccountStrength{{AccountID: 3, Strength: 12}}
	cache.On("GetOrLoad", ctx, "rating:attackable:1:5").Return(nil)
	env.Accounts.On("ListAttackable", ctx, int64(1), testNow, 5).Return(rows, nil)

	got, err := svc.AttackableAccounts(ctx, 1, testNow, 5)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestSubscribeRatingInvalidation(t *testing.T) {
	bus := events.NewBus()
	cache := new(MockListCache)

	invalidated := make(chan struct{}, 4)
	cache.On("InvalidatePrefix", mock.Anything, "rating:").Return(nil).Run(func(args mock.Arguments) {
		invalidated <- struct{}{}
	})

	SubscribeRatingInvalidation(bus, cache)
	bus.Emit(context.Background(), events.AttackResolvedEvent{AttackerID: 1, DefenderID: 2})

	select {
	case <-invalidated:
	case <-time.After(time.Second):
		t.Fatal("rating cache was not invalidated")
	}

	// Declarations do not change ratings
	bus.Emit(context.Background(), events.WarDeclaredEvent{WarID: 1})
	select {
	case <-invalidated:
		t.Fatal("unexpected invalidation")
	case <-time.After(50 * time.Millisecond):
	}
}
