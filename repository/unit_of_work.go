package repository

import (
	"context"
	"fmt"

	"guardwars/database"
	"guardwars/events"
	"guardwars/service"

	"github.com/jackc/pgx/v5"
)

const notStarted = "unit of work not started - call Begin() first"

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	guardRepo        service.GuardRepository
	accessoryRepo    service.AccessoryRepository
	boostRepo        service.BoostRepository
	clanRepo         service.ClanRepository
	clanWarRepo      service.ClanWarRepository
	stolenItemRepo   service.StolenItemRepository
	eventHistoryRepo service.EventHistoryRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.guardRepo = newGuardRepositoryWithTx(tx)
	u.accessoryRepo = newAccessoryRepositoryWithTx(tx)
	u.boostRepo = newBoostRepositoryWithTx(tx)
	u.clanRepo = newClanRepositoryWithTx(tx)
	u.clanWarRepo = newClanWarRepositoryWithTx(tx)
	u.stolenItemRepo = newStolenItemRepositoryWithTx(tx)
	u.eventHistoryRepo = newEventHistoryRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes buffered events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction. Safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic(notStarted)
	}
	return u.accountRepo
}

func (u *unitOfWork) GuardRepository() service.GuardRepository {
	if u.guardRepo == nil {
		panic(notStarted)
	}
	return u.guardRepo
}

func (u *unitOfWork) AccessoryRepository() service.AccessoryRepository {
	if u.accessoryRepo == nil {
		panic(notStarted)
	}
	return u.accessoryRepo
}

func (u *unitOfWork) BoostRepository() service.BoostRepository {
	if u.boostRepo == nil {
		panic(notStarted)
	}
	return u.boostRepo
}

func (u *unitOfWork) ClanRepository() service.ClanRepository {
	if u.clanRepo == nil {
		panic(notStarted)
	}
	return u.clanRepo
}

func (u *unitOfWork) ClanWarRepository() service.ClanWarRepository {
	if u.clanWarRepo == nil {
		panic(notStarted)
	}
	return u.clanWarRepo
}

func (u *unitOfWork) StolenItemRepository() service.StolenItemRepository {
	if u.stolenItemRepo == nil {
		panic(notStarted)
	}
	return u.stolenItemRepo
}

func (u *unitOfWork) EventHistoryRepository() service.EventHistoryRepository {
	if u.eventHistoryRepo == nil {
		panic(notStarted)
	}
	return u.eventHistoryRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic(notStarted)
	}
	return u.transactionalBus
}
