package models

import "time"

// AccessoryType classifies an owned accessory
type AccessoryType string

const (
	AccessoryTypeShield        AccessoryType = "shield"
	AccessoryTypeNicknameColor AccessoryType = "nickname_color"
	AccessoryTypeNicknameIcon  AccessoryType = "nickname_icon"
	AccessoryTypeAvatarFrame   AccessoryType = "avatar_frame"
	AccessoryTypeGear          AccessoryType = "gear"
)

// Accessory is an item owned by an account. Equipped accessories add their
// strength bonus to the owner's combat strength.
type Accessory struct {
	ID            int64         `db:"id"`
	AccountID     int64         `db:"account_id"`
	Name          string        `db:"name"`
	ItemType      AccessoryType `db:"item_type"`
	Value         string        `db:"value"`
	StrengthBonus int64         `db:"strength_bonus"`
	Equipped      bool          `db:"equipped"`
	CreatedAt     time.Time     `db:"created_at"`
}
