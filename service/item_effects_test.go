package service

import (
	"context"
	"testing"
	"time"

	"guardwars/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestItemEffectService_ApplyKitOrPurchaseEffects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.expectTx(ctx, true)
	svc := NewItemEffectService(env.factory, NewBoostLedger())

	env.Accounts.On("GetByID", ctx, int64(1)).Return(&models.Account{ID: 1}, nil)
	env.Guards.On("Create", ctx, mock.MatchedBy(func(g *models.Guard) bool {
		return g.AccountID == 1 && g.Strength == 40 && !g.IsFirst
	})).Return(nil)
	env.Accessories.On("Create", ctx, mock.MatchedBy(func(a *models.Accessory) bool {
		return a.ItemType == models.AccessoryTypeGear && a.Equipped && a.StrengthBonus == 15
	})).Return(nil)
	env.Accessories.On("Create", ctx, mock.MatchedBy(func(a *models.Accessory) bool {
		return a.ItemType == models.AccessoryTypeShield && !a.Equipped
	})).Return(nil)
	env.Accounts.On("LockByIDs", ctx, []int64{1}).Return(map[int64]*models.Account{1: {ID: 1}}, nil)
	env.Boosts.On("GetActiveForUpdate", ctx, int64(1), models.BoostTypeRewardDoubling, testNow).Return(nil, nil)
	env.Boosts.On("Create", ctx, mock.AnythingOfType("*models.Boost")).Return(nil)
	env.Events.On("Publish", mock.Anything).Return()

	effects := []models.ItemEffect{
		models.EffectFromTemplate(models.TemplateGuard, "Veteran", "40"),
		models.EffectFromTemplate("SWORD", "Sword", "15"),
		models.EffectFromTemplate(models.TemplateShield, "Small shield", "4"),
		models.EffectFromTemplate(models.TemplateRewardDoubling, "Double loot", "2"),
	}

	result, err := svc.ApplyKitOrPurchaseEffects(ctx, 1, effects, testNow)
	require.NoError(t, err)
	assert.Len(t, result.Guards, 1)
	assert.Len(t, result.Accessories, 2)
	require.Len(t, result.Boosts, 1)
	assert.Equal(t, testNow.Add(2*time.Hour), *result.Boosts[0].EndTime)
	env.uow.AssertNumberOfCalls(t, "Commit", 1)
}

func TestItemEffectService_ApplyKitOrPurchaseEffects_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.expectTx(ctx, false)
	svc := NewItemEffectService(env.factory, NewBoostLedger())

	env.Accounts.On("GetByID", ctx, int64(1)).Return(nil, nil)

	_, err := svc.ApplyKitOrPurchaseEffects(ctx, 1, []models.ItemEffect{models.GuardEffect{Name: "x", Strength: 1}}, testNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemEffectService_ActivateShield(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes the accessory and extends the shield", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, true)
		svc := NewItemEffectService(env.factory, NewBoostLedger())
		want := testNow.Add(12 * time.Hour)

		env.Accessories.On("GetByID", ctx, int64(9)).Return(&models.Accessory{
			ID: 9, AccountID: 1, ItemType: models.AccessoryTypeShield, Value: "12",
		}, nil)
		env.Accessories.On("Consume", ctx, int64(9), int64(1)).Return(true, nil)
		env.Accounts.On("LockByIDs", ctx, []int64{1}).Return(map[int64]*models.Account{1: {ID: 1}}, nil)
		env.Boosts.On("GetActiveForUpdate", ctx, int64(1), models.BoostTypeShield, testNow).Return(nil, nil)
		env.Boosts.On("Create", ctx, mock.AnythingOfType("*models.Boost")).Return(nil)
		env.Accounts.On("SetShieldUntil", ctx, int64(1), mock.MatchedBy(func(end *time.Time) bool {
			return end != nil && end.Equal(want)
		})).Return(nil)
		env.Events.On("Publish", mock.Anything).Return()

		boost, err := svc.ActivateShield(ctx, 1, 9, testNow)
		require.NoError(t, err)
		assert.Equal(t, models.BoostTypeShield, boost.Type)
		assert.Equal(t, want, *boost.EndTime)
	})

	t.Run("someone else's accessory", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, false)
		svc := NewItemEffectService(env.factory, NewBoostLedger())
		env.Accessories.On("GetByID", ctx, int64(9)).Return(&models.Accessory{
			ID: 9, AccountID: 2, ItemType: models.AccessoryTypeShield,
		}, nil)

		_, err := svc.ActivateShield(ctx, 1, 9, testNow)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not a shield", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, false)
		svc := NewItemEffectService(env.factory, NewBoostLedger())
		env.Accessories.On("GetByID", ctx, int64(9)).Return(&models.Accessory{
			ID: 9, AccountID: 1, ItemType: models.AccessoryTypeAvatarFrame,
		}, nil)

		_, err := svc.ActivateShield(ctx, 1, 9, testNow)
		assert.ErrorIs(t, err, ErrInvalidAccessory)
		env.Accessories.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already used", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, false)
		svc := NewItemEffectService(env.factory, NewBoostLedger())
		env.Accessories.On("GetByID", ctx, int64(9)).Return(&models.Accessory{
			ID: 9, AccountID: 1, ItemType: models.AccessoryTypeShield,
		}, nil)
		env.Accessories.On("Consume", ctx, int64(9), int64(1)).Return(false, nil)

		_, err := svc.ActivateShield(ctx, 1, 9, testNow)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestShieldDuration(t *testing.T) {
	assert.Equal(t, 4*time.Hour, ShieldDuration(&models.Accessory{Value: "4"}))
	assert.Equal(t, 8*time.Hour, ShieldDuration(&models.Accessory{Value: ""}))
	assert.Equal(t, 8*time.Hour, ShieldDuration(&models.Accessory{Value: "-3"}))
}
