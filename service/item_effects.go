package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"guardwars/models"

	log "github.com/sirupsen/logrus"
)

// defaultShieldHours applies when a shield accessory carries no usable duration
const defaultShieldHours = 8

type itemEffectService struct {
	uowFactory UnitOfWorkFactory
	boosts     *BoostLedger
}

// NewItemEffectService creates a new item effect service
func NewItemEffectService(uowFactory UnitOfWorkFactory, boosts *BoostLedger) ItemEffectService {
	return &itemEffectService{
		uowFactory: uowFactory,
		boosts:     boosts,
	}
}

func (s *itemEffectService) ApplyKitOrPurchaseEffects(ctx context.Context, accountID int64, effects []models.ItemEffect, now time.Time) (*models.EffectsResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	result := &models.EffectsResult{}
	for _, effect := range effects {
		switch e := effect.(type) {
		case models.GuardEffect:
			guard := &models.Guard{
				AccountID: accountID,
				Name:      e.Name,
				Strength:  e.Strength,
			}
			if err := uow.GuardRepository().Create(ctx, guard); err != nil {
				return nil, fmt.Errorf("failed to create guard: %w", err)
			}
			result.Guards = append(result.Guards, guard)

		case models.BoostEffect:
			boost, err := s.boosts.Extend(ctx, uow, accountID, e.Type, e.Duration, now)
			if err != nil {
				return nil, err
			}
			result.Boosts = append(result.Boosts, boost)

		case models.AccessoryEffect:
			accessory := &models.Accessory{
				AccountID:     accountID,
				Name:          e.Name,
				ItemType:      e.ItemType,
				Value:         e.Value,
				StrengthBonus: e.StrengthBonus,
				Equipped:      e.ItemType == models.AccessoryTypeGear,
			}
			if err := uow.AccessoryRepository().Create(ctx, accessory); err != nil {
				return nil, fmt.Errorf("failed to create accessory: %w", err)
			}
			result.Accessories = append(result.Accessories, accessory)

		default:
			return nil, fmt.Errorf("unsupported item effect %T", effect)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID":   accountID,
		"guards":      len(result.Guards),
		"boosts":      len(result.Boosts),
		"accessories": len(result.Accessories),
	}).Info("Item effects applied")

	return result, nil
}

func (s *itemEffectService) ActivateShield(ctx context.Context, accountID, accessoryID int64, now time.Time) (*models.Boost, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	accessory, err := uow.AccessoryRepository().GetByID(ctx, accessoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accessory: %w", err)
	}
	if accessory == nil || accessory.AccountID != accountID {
		return nil, fmt.Errorf("accessory %d: %w", accessoryID, ErrNotFound)
	}
	if accessory.ItemType != models.AccessoryTypeShield {
		return nil, ErrInvalidAccessory
	}

	consumed, err := uow.AccessoryRepository().Consume(ctx, accessoryID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume shield: %w", err)
	}
	if !consumed {
		// Activated by a concurrent request
		return nil, fmt.Errorf("accessory %d: %w", accessoryID, ErrNotFound)
	}

	boost, err := s.boosts.Extend(ctx, uow, accountID, models.BoostTypeShield, ShieldDuration(accessory), now)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return boost, nil
}

// ShieldDuration reads the shield length in hours from the accessory value
func ShieldDuration(accessory *models.Accessory) time.Duration {
	hours, err := strconv.Atoi(strings.TrimSpace(accessory.Value))
	if err != nil || hours <= 0 {
		hours = defaultShieldHours
	}
	return time.Duration(hours) * time.Hour
}
