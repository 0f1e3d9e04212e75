package service

import (
	"math"
	"testing"
	"time"

	"guardwars/config"
	"guardwars/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinChance(t *testing.T) {
	assert.InDelta(t, 0.5, WinChance(100, 100), 1e-9)
	assert.InDelta(t, 0.5, WinChance(0, 0), 1e-9)

	// 100 vs 300 bottoms out at the floor, the reverse hits the ceiling
	assert.InDelta(t, 0.05, WinChance(100, 300), 1e-9)
	assert.InDelta(t, 0.95, WinChance(300, 100), 1e-9)

	prev := 0.0
	for attacker := int64(0); attacker <= 1000; attacker += 25 {
		p := WinChance(attacker, 500)
		assert.GreaterOrEqual(t, p, prev, "win chance must not decrease as attacker strength grows")
		assert.GreaterOrEqual(t, p, 0.05)
		assert.LessOrEqual(t, p, 0.95)
		prev = p
	}
}

func TestStealAmount(t *testing.T) {
	assert.Equal(t, int64(1000), StealAmount(10000, false))
	assert.Equal(t, int64(2000), StealAmount(10000, true))
	assert.Equal(t, int64(0), StealAmount(0, true))

	withConfig(t, func(cfg *config.Config) { cfg.StealBasisPoints = 6000 })
	assert.Equal(t, int64(100), StealAmount(100, true), "doubled share is capped at the balance")
}

func TestStealAmount_LargeBalances(t *testing.T) {
	assert.Equal(t, int64(90_000_000_000_000_000), StealAmount(900_000_000_000_000_000, false))
	assert.Equal(t, int64(180_000_000_000_000_000), StealAmount(900_000_000_000_000_000, true))
	assert.Equal(t, int64(math.MaxInt64/10), StealAmount(math.MaxInt64, false))

	withConfig(t, func(cfg *config.Config) { cfg.StealBasisPoints = 10000 })
	assert.Equal(t, int64(math.MaxInt64), StealAmount(math.MaxInt64, true), "doubling saturates and is capped at the balance")
}

func TestApplyBasisPoints(t *testing.T) {
	assert.Equal(t, int64(0), applyBasisPoints(0, 1000))
	assert.Equal(t, int64(0), applyBasisPoints(9, 1000))
	assert.Equal(t, int64(1), applyBasisPoints(10, 1000))
	assert.Equal(t, int64(1234), applyBasisPoints(12345, 1000))
	assert.Equal(t, int64(24690), applyBasisPoints(12345, 20000))
	assert.Equal(t, int64(math.MaxInt64), applyBasisPoints(math.MaxInt64, 20000))
}

func TestCombatResolver_Resolve(t *testing.T) {
	now := testNow

	t.Run("same account", func(t *testing.T) {
		r := NewCombatResolver(fixedRandom(0))
		a := snapshot(1, 100)
		_, err := r.Resolve(a, a, ResolveContext{Now: now})
		assert.ErrorIs(t, err, ErrSameAccount)
	})

	t.Run("shielded defender", func(t *testing.T) {
		r := NewCombatResolver(fixedRandom(0))
		defender := snapshot(2, 100)
		defender.ActiveBoost[models.BoostTypeShield] = true

		_, err := r.Resolve(snapshot(1, 100), defender, ResolveContext{Now: now})
		assert.ErrorIs(t, err, ErrShieldActive)
	})

	t.Run("win steals money and the weakest capturable guard", func(t *testing.T) {
		rng := &countingRandom{value: 0}
		r := NewCombatResolver(rng)

		attacker := snapshot(1, 0, &models.Guard{ID: 10, Strength: 50, IsFirst: true})
		defender := snapshot(2, 10000,
			&models.Guard{ID: 20, Strength: 1, IsFirst: true},
			&models.Guard{ID: 23, Strength: 5},
			&models.Guard{ID: 22, Strength: 5},
			&models.Guard{ID: 21, Strength: 9},
		)

		outcome, err := r.Resolve(attacker, defender, ResolveContext{Now: now})
		require.NoError(t, err)

		assert.Equal(t, 1, rng.draws)
		assert.True(t, outcome.IsWin)
		assert.Equal(t, int64(1000), outcome.StolenMoney)
		assert.Equal(t, []int64{22}, outcome.CapturedGuardIDs)
		require.Len(t, outcome.Drafts, 2)
		assert.Equal(t, models.StolenItemTypeMoney, outcome.Drafts[0].Type)
		assert.Equal(t, models.StolenItemTypeGuard, outcome.Drafts[1].Type)
		assert.Equal(t, int64(5), outcome.Drafts[1].Value)
		assert.Nil(t, outcome.WarID)
	})

	t.Run("reward doubling doubles the stolen money", func(t *testing.T) {
		r := NewCombatResolver(fixedRandom(0))
		attacker := snapshot(1, 0)
		attacker.ActiveBoost[models.BoostTypeRewardDoubling] = true

		outcome, err := r.Resolve(attacker, snapshot(2, 10000), ResolveContext{Now: now})
		require.NoError(t, err)
		assert.Equal(t, int64(2000), outcome.StolenMoney)
	})

	t.Run("first guard is never captured", func(t *testing.T) {
		withConfig(t, func(cfg *config.Config) { cfg.CapturedGuards = 5 })
		r := NewCombatResolver(fixedRandom(0))
		defender := snapshot(2, 0, &models.Guard{ID: 20, Strength: 1, IsFirst: true})

		outcome, err := r.Resolve(snapshot(1, 0), defender, ResolveContext{Now: now})
		require.NoError(t, err)
		assert.True(t, outcome.IsWin)
		assert.Empty(t, outcome.CapturedGuardIDs)
		assert.Empty(t, outcome.Drafts)
	})

	t.Run("loss moves nothing", func(t *testing.T) {
		r := NewCombatResolver(fixedRandom(0.99))
		defender := snapshot(2, 10000, &models.Guard{ID: 21, Strength: 9})

		outcome, err := r.Resolve(snapshot(1, 0), defender, ResolveContext{Now: now})
		require.NoError(t, err)
		assert.False(t, outcome.IsWin)
		assert.Zero(t, outcome.StolenMoney)
		assert.Empty(t, outcome.Drafts)
	})
}

func TestCombatResolver_ResolveInWar(t *testing.T) {
	now := testNow
	war := &models.ClanWar{
		ID:      7,
		Clan1ID: 100,
		Clan2ID: 200,
		EndTime: now.Add(time.Hour),
		Status:  models.ClanWarStatusInProgress,
	}
	inClan := func(s *models.CombatantSnapshot, clanID int64) *models.CombatantSnapshot {
		s.Account.ClanID = int64Ptr(clanID)
		return s
	}
	r := NewCombatResolver(fixedRandom(0))

	t.Run("opposite sides", func(t *testing.T) {
		outcome, err := r.Resolve(inClan(snapshot(1, 0), 100), inClan(snapshot(2, 500), 200), ResolveContext{Now: now, War: war})
		require.NoError(t, err)
		require.NotNil(t, outcome.WarID)
		assert.Equal(t, int64(7), *outcome.WarID)
	})

	t.Run("war already over", func(t *testing.T) {
		ended := *war
		ended.EndTime = now
		_, err := r.Resolve(inClan(snapshot(1, 0), 100), inClan(snapshot(2, 0), 200), ResolveContext{Now: now, War: &ended})
		assert.ErrorIs(t, err, ErrWarNotActive)
	})

	t.Run("same clan", func(t *testing.T) {
		_, err := r.Resolve(inClan(snapshot(1, 0), 100), inClan(snapshot(2, 0), 100), ResolveContext{Now: now, War: war})
		assert.ErrorIs(t, err, ErrNotWarParticipant)
	})

	t.Run("outsider", func(t *testing.T) {
		_, err := r.Resolve(inClan(snapshot(1, 0), 100), inClan(snapshot(2, 0), 300), ResolveContext{Now: now, War: war})
		assert.ErrorIs(t, err, ErrNotWarParticipant)
	})

	t.Run("clanless attacker", func(t *testing.T) {
		_, err := r.Resolve(snapshot(1, 0), inClan(snapshot(2, 0), 200), ResolveContext{Now: now, War: war})
		assert.ErrorIs(t, err, ErrNotWarParticipant)
	})
}
