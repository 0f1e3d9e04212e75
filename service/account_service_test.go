package service

import (
	"context"
	"testing"

	"guardwars/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the account with its first guard", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, true)
		svc := NewAccountService(env.factory)

		env.Accounts.On("Create", ctx, "alice", int64(1000)).Return(&models.Account{ID: 1, Username: "alice", Balance: 1000}, nil)
		env.Guards.On("Create", ctx, mock.MatchedBy(func(g *models.Guard) bool {
			return g.AccountID == 1 && g.IsFirst && g.Strength == 10
		})).Return(nil)

		account, err := svc.Register(ctx, "  alice ")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), account.Balance)
		env.Guards.AssertExpectations(t)
	})

	t.Run("blank username", func(t *testing.T) {
		env := newTestEnv()
		svc := NewAccountService(env.factory)

		_, err := svc.Register(ctx, "   ")
		assert.Error(t, err)
		env.factory.AssertNotCalled(t, "Create")
	})
}

func TestAccountService_CreateClan(t *testing.T) {
	ctx := context.Background()

	t.Run("leader joins the new clan", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, true)
		svc := NewAccountService(env.factory)

		leaderID := int64(1)
		env.Accounts.On("LockByIDs", ctx, []int64{1}).Return(map[int64]*models.Account{1: {ID: 1}}, nil)
		env.Clans.On("Create", ctx, "Wolves", &leaderID).Return(&models.Clan{ID: 11, Name: "Wolves", LeaderID: &leaderID}, nil)
		env.Accounts.On("SetClan", ctx, int64(1), int64Ptr(11)).Return(nil)

		clan, err := svc.CreateClan(ctx, 1, "Wolves")
		require.NoError(t, err)
		assert.True(t, clan.IsLeader(1))
	})

	t.Run("already in a clan", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, false)
		svc := NewAccountService(env.factory)

		env.Accounts.On("LockByIDs", ctx, []int64{1}).Return(map[int64]*models.Account{1: {ID: 1, ClanID: int64Ptr(3)}}, nil)

		_, err := svc.CreateClan(ctx, 1, "Wolves")
		assert.ErrorIs(t, err, ErrAlreadyInClan)
		env.Clans.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAccountService_JoinClan(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown clan", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, false)
		svc := NewAccountService(env.factory)

		env.Clans.On("GetByID", ctx, int64(11)).Return(nil, nil)

		err := svc.JoinClan(ctx, 1, 11)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("leader of another clan cannot switch", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, false)
		svc := NewAccountService(env.factory)

		env.Clans.On("GetByID", ctx, int64(22)).Return(&models.Clan{ID: 22, Name: "Ravens", LeaderID: int64Ptr(2)}, nil)
		env.Accounts.On("LockByIDs", ctx, []int64{1}).Return(map[int64]*models.Account{1: {ID: 1, ClanID: int64Ptr(11)}}, nil)

		err := svc.JoinClan(ctx, 1, 22)
		assert.ErrorIs(t, err, ErrAlreadyInClan)
		env.Accounts.AssertNotCalled(t, "SetClan", mock.Anything, mock.Anything, mock.Anything)
		env.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("clanless account joins", func(t *testing.T) {
		env := newTestEnv()
		env.expectTx(ctx, true)
		svc := NewAccountService(env.factory)

		env.Clans.On("GetByID", ctx, int64(22)).Return(&models.Clan{ID: 22, Name: "Ravens", LeaderID: int64Ptr(2)}, nil)
		env.Accounts.On("LockByIDs", ctx, []int64{1}).Return(map[int64]*models.Account{1: {ID: 1}}, nil)
		env.Accounts.On("SetClan", ctx, int64(1), int64Ptr(22)).Return(nil)

		require.NoError(t, svc.JoinClan(ctx, 1, 22))
		env.uow.AssertCalled(t, "Commit")
	})
}
