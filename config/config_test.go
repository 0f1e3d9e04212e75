package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.WinChanceFloor)
	assert.Equal(t, 0.95, cfg.WinChanceCeiling)
	assert.Equal(t, int64(1000), cfg.StealBasisPoints)
	assert.Equal(t, 6*time.Hour, cfg.WarDuration)
	assert.Equal(t, WarTallyNetValue, cfg.WarTallyPolicy)
	assert.Equal(t, WarTieBreakDraw, cfg.WarTieBreak)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ATTACK_COOLDOWN", "90s")
	t.Setenv("WIN_CHANCE_FLOOR", "0.1")
	t.Setenv("CAPTURED_GUARDS", "3")
	t.Setenv("WAR_TALLY_POLICY", WarTallyAttackCount)
	t.Setenv("WAR_EARLY_DEFEAT", "false")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.AttackCooldown)
	assert.Equal(t, 0.1, cfg.WinChanceFloor)
	assert.Equal(t, 3, cfg.CapturedGuards)
	assert.Equal(t, WarTallyAttackCount, cfg.WarTallyPolicy)
	assert.False(t, cfg.WarEarlyDefeat)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ATTACK_COOLDOWN", "soon")

	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ATTACK_COOLDOWN")
}

func TestLoad_RequiresDatabaseOutsideTests(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "")

	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestValidate(t *testing.T) {
	cfg := NewTestConfig()
	require.NoError(t, cfg.Validate())

	cfg.WinChanceFloor = 0.9
	cfg.WinChanceCeiling = 0.5
	assert.Error(t, cfg.Validate())

	cfg = NewTestConfig()
	cfg.WarTieBreak = "coin_flip"
	assert.Error(t, cfg.Validate())

	cfg = NewTestConfig()
	cfg.StealBasisPoints = 20000
	assert.Error(t, cfg.Validate())
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@host:5432/?sslmode=disable", DatabaseName: "guardwars"}
	assert.Equal(t, "postgres://u:p@host:5432/guardwars?sslmode=disable", cfg.GetDatabaseURL())

	cfg = &Config{DatabaseURL: "postgres://u:p@host:5432/guardwars"}
	assert.Equal(t, "postgres://u:p@host:5432/guardwars", cfg.GetDatabaseURL())
}
