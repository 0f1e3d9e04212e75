package models

import (
	"strconv"
	"strings"
	"time"
)

// ItemEffect is the effect an item template has when granted to an account.
// The set of variants is closed: GuardEffect, BoostEffect and AccessoryEffect.
type ItemEffect interface {
	isItemEffect()
}

// GuardEffect creates a new guard
type GuardEffect struct {
	Name     string
	Strength int64
}

// BoostEffect extends (or creates) a boost of the given type
type BoostEffect struct {
	Type     BoostType
	Duration time.Duration
}

// AccessoryEffect stores an accessory for later use or display
type AccessoryEffect struct {
	ItemType      AccessoryType
	Name          string
	Value         string
	StrengthBonus int64
}

func (GuardEffect) isItemEffect()     {}
func (BoostEffect) isItemEffect()     {}
func (AccessoryEffect) isItemEffect() {}

// Catalog template types
const (
	TemplateGuard           = "GUARD"
	TemplateShield          = "SHIELD"
	TemplateRewardDoubling  = "REWARD_DOUBLING"
	TemplateCooldownHalving = "COOLDOWN_HALVING"
	TemplateNicknameColor   = "NICKNAME_COLOR"
	TemplateNicknameIcon    = "NICKNAME_ICON"
	TemplateAvatarFrame     = "AVATAR_FRAME"
)

// EffectFromTemplate maps a catalog template type and its raw value to an effect.
// Numeric values are guard strength for GUARD and duration in hours for timed items.
func EffectFromTemplate(templateType, name, value string) ItemEffect {
	n, _ := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if n < 0 {
		n = 0
	}

	switch strings.ToUpper(templateType) {
	case TemplateGuard:
		return GuardEffect{Name: name, Strength: n}
	case TemplateShield:
		return AccessoryEffect{ItemType: AccessoryTypeShield, Name: name, Value: value}
	case TemplateRewardDoubling:
		return BoostEffect{Type: BoostTypeRewardDoubling, Duration: time.Duration(n) * time.Hour}
	case TemplateCooldownHalving:
		return BoostEffect{Type: BoostTypeCooldownHalving, Duration: time.Duration(n) * time.Hour}
	case TemplateNicknameColor:
		return AccessoryEffect{ItemType: AccessoryTypeNicknameColor, Name: name, Value: value}
	case TemplateNicknameIcon:
		return AccessoryEffect{ItemType: AccessoryTypeNicknameIcon, Name: name, Value: value}
	case TemplateAvatarFrame:
		return AccessoryEffect{ItemType: AccessoryTypeAvatarFrame, Name: name, Value: value}
	default:
		return AccessoryEffect{ItemType: AccessoryTypeGear, Name: name, Value: value, StrengthBonus: n}
	}
}

// EffectsResult summarizes what ApplyKitOrPurchaseEffects granted
type EffectsResult struct {
	Guards      []*Guard
	Boosts      []*Boost
	Accessories []*Accessory
}
