package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectFromTemplate(t *testing.T) {
	tests := []struct {
		name         string
		templateType string
		value        string
		expected     ItemEffect
	}{
		{"guard", "GUARD", "40", GuardEffect{Name: "Knight", Strength: 40}},
		{"shield becomes accessory", "SHIELD", "12", AccessoryEffect{ItemType: AccessoryTypeShield, Name: "Knight", Value: "12"}},
		{"reward doubling", "REWARD_DOUBLING", "24", BoostEffect{Type: BoostTypeRewardDoubling, Duration: 24 * time.Hour}},
		{"cooldown halving lowercase", "cooldown_halving", "2", BoostEffect{Type: BoostTypeCooldownHalving, Duration: 2 * time.Hour}},
		{"nickname color", "NICKNAME_COLOR", "#ff0000", AccessoryEffect{ItemType: AccessoryTypeNicknameColor, Name: "Knight", Value: "#ff0000"}},
		{"unknown is gear", "SWORD", "15", AccessoryEffect{ItemType: AccessoryTypeGear, Name: "Knight", Value: "15", StrengthBonus: 15}},
		{"negative guard strength clamped", "GUARD", "-5", GuardEffect{Name: "Knight", Strength: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EffectFromTemplate(tt.templateType, "Knight", tt.value))
		})
	}
}

func TestBoost_IsActiveAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, (&Boost{}).IsActiveAt(now), "indefinite boost is active")
	assert.True(t, (&Boost{EndTime: &future}).IsActiveAt(now))
	assert.False(t, (&Boost{EndTime: &past}).IsActiveAt(now))
	assert.False(t, (&Boost{EndTime: &now}).IsActiveAt(now), "end time is exclusive")
}

func TestClanWar_Sides(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	war := &ClanWar{Clan1ID: 1, Clan2ID: 2, Status: ClanWarStatusInProgress, StartTime: now, EndTime: now.Add(time.Hour)}

	assert.Equal(t, 1, war.Side(1))
	assert.Equal(t, 2, war.Side(2))
	assert.Equal(t, 0, war.Side(3))
	assert.Equal(t, int64(2), war.Opponent(1))
	assert.True(t, war.Involves(2))
	assert.False(t, war.Involves(3))

	assert.True(t, war.IsActiveAt(now.Add(59*time.Minute)))
	assert.False(t, war.IsActiveAt(now.Add(time.Hour)))

	war.Status = ClanWarStatusCompleted
	assert.False(t, war.IsActiveAt(now))
}

func TestCombatantSnapshot_Strength(t *testing.T) {
	snapshot := &CombatantSnapshot{
		Guards: []*Guard{{Strength: 10}, {Strength: 25}},
		Accessories: []*Accessory{
			{StrengthBonus: 5, Equipped: true},
			{StrengthBonus: 100, Equipped: false},
		},
	}

	assert.Equal(t, int64(40), snapshot.Strength())
}
