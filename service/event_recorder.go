package service

import (
	"context"
	"fmt"

	"guardwars/models"
)

// EventEntry is one history row to record
type EventEntry struct {
	Type        models.EventType
	AccountID   int64
	OpponentID  *int64
	ClanWarID   *int64
	WinChance   *float64
	IsWin       *bool
	StolenItems []*models.StolenItem
}

// EventRecorder appends event history entries inside the caller's transaction
type EventRecorder struct {
	uowFactory UnitOfWorkFactory
}

// NewEventRecorder creates an event recorder
func NewEventRecorder(uowFactory UnitOfWorkFactory) *EventRecorder {
	return &EventRecorder{uowFactory: uowFactory}
}

// Record writes the entry and links its stolen items. Must be called inside an open unit of work.
func (r *EventRecorder) Record(ctx context.Context, uow UnitOfWork, entry EventEntry) (*models.EventHistory, error) {
	history := &models.EventHistory{
		Type:        entry.Type,
		AccountID:   entry.AccountID,
		OpponentID:  entry.OpponentID,
		ClanWarID:   entry.ClanWarID,
		WinChance:   entry.WinChance,
		IsWin:       entry.IsWin,
		StolenItems: entry.StolenItems,
	}

	itemIDs := make([]int64, 0, len(entry.StolenItems))
	for _, item := range entry.StolenItems {
		itemIDs = append(itemIDs, item.ID)
	}

	if err := uow.EventHistoryRepository().Create(ctx, history, itemIDs); err != nil {
		return nil, fmt.Errorf("failed to record %s event: %w", entry.Type, err)
	}
	return history, nil
}

// RecordAttack writes the paired attack and defense entries for one committed attack
func (r *EventRecorder) RecordAttack(ctx context.Context, uow UnitOfWork, outcome *models.AttackOutcome, attackerID, defenderID int64, items []*models.StolenItem) (attackEntry, defenseEntry *models.EventHistory, err error) {
	attackType, defenseType := models.EventTypeAttack, models.EventTypeDefense
	if outcome.WarID != nil {
		attackType, defenseType = models.EventTypeWarAttack, models.EventTypeWarDefense
	}

	chance := outcome.WinChance
	attackerWon := outcome.IsWin
	defenderWon := !outcome.IsWin

	attackEntry, err = r.Record(ctx, uow, EventEntry{
		Type:        attackType,
		AccountID:   attackerID,
		OpponentID:  &defenderID,
		ClanWarID:   outcome.WarID,
		WinChance:   &chance,
		IsWin:       &attackerWon,
		StolenItems: items,
	})
	if err != nil {
		return nil, nil, err
	}

	defenseEntry, err = r.Record(ctx, uow, EventEntry{
		Type:        defenseType,
		AccountID:   defenderID,
		OpponentID:  &attackerID,
		ClanWarID:   outcome.WarID,
		WinChance:   &chance,
		IsWin:       &defenderWon,
		StolenItems: items,
	})
	if err != nil {
		return nil, nil, err
	}

	return attackEntry, defenseEntry, nil
}

// History returns a page of the account's events with their stolen items
func (r *EventRecorder) History(ctx context.Context, accountID int64, page, limit int) (*models.EventHistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	uow := r.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, total, err := uow.EventHistoryRepository().GetByAccount(ctx, accountID, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get event history: %w", err)
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	if len(ids) > 0 {
		items, err := uow.StolenItemRepository().GetByEventHistoryIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to get stolen items: %w", err)
		}
		for _, e := range entries {
			e.StolenItems = items[e.ID]
		}
	}

	return &models.EventHistoryPage{
		Items: entries,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}
