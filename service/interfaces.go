package service

import (
	"context"
	"time"

	"guardwars/events"
	"guardwars/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account, nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// LockByIDs locks the account rows FOR UPDATE in ascending id order and returns them keyed by id
	LockByIDs(ctx context.Context, ids ...int64) (map[int64]*models.Account, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, username string, initialBalance int64) (*models.Account, error)

	// AddBalance adds to an account's balance and returns the new balance
	AddBalance(ctx context.Context, id int64, amount int64) (int64, error)

	// DeductBalance deducts from an account's balance, failing with ErrInsufficientFunds
	// rather than going negative
	DeductBalance(ctx context.Context, id int64, amount int64) (int64, error)

	// SetLastActionAt persists the time an action consumed its cooldown
	SetLastActionAt(ctx context.Context, id int64, kind models.ActionKind, at time.Time) error

	// SetShieldUntil mirrors the shield boost end onto the account row
	SetShieldUntil(ctx context.Context, id int64, until *time.Time) error

	// SetClan sets or clears the account's clan
	SetClan(ctx context.Context, id int64, clanID *int64) error

	// TopByStrength returns accounts ordered by combined strength
	TopByStrength(ctx context.Context, limit int) ([]*models.AccountStrength, error)

	// ListAttackable returns accounts the given account may attack at now:
	// not itself, not a clan mate, not shielded
	ListAttackable(ctx context.Context, accountID int64, now time.Time, limit int) ([]*models.AccountStrength, error)
}

// GuardRepository defines the interface for guard data access
type GuardRepository interface {
	Create(ctx context.Context, guard *models.Guard) error

	// GetByAccount returns an account's guards ordered by strength, then id
	GetByAccount(ctx context.Context, accountID int64) ([]*models.Guard, error)

	// Transfer moves a capturable guard between accounts. Returns false when the guard
	// is no longer owned by fromAccountID or is a first guard.
	Transfer(ctx context.Context, guardID, fromAccountID, toAccountID int64) (bool, error)

	// AddStrength increases a guard's strength
	AddStrength(ctx context.Context, guardID int64, amount int64) error

	// CountCapturableByClan counts non-first guards owned by members of the clan
	CountCapturableByClan(ctx context.Context, clanID int64) (int64, error)
}

// AccessoryRepository defines the interface for accessory data access
type AccessoryRepository interface {
	Create(ctx context.Context, accessory *models.Accessory) error
	GetByID(ctx context.Context, id int64) (*models.Accessory, error)

	// GetEquippedByAccount returns the accessories that contribute to combat strength
	GetEquippedByAccount(ctx context.Context, accountID int64) ([]*models.Accessory, error)

	// Consume deletes an accessory owned by the account, returning false if it was already gone
	Consume(ctx context.Context, id int64, accountID int64) (bool, error)
}

// BoostRepository defines the interface for boost data access
type BoostRepository interface {
	// GetActive returns the latest boost of the type active at now, nil if none
	GetActive(ctx context.Context, accountID int64, boostType models.BoostType, now time.Time) (*models.Boost, error)

	// GetActiveForUpdate is GetActive with a row lock
	GetActiveForUpdate(ctx context.Context, accountID int64, boostType models.BoostType, now time.Time) (*models.Boost, error)

	// ActiveTypes returns the set of boost types active at now
	ActiveTypes(ctx context.Context, accountID int64, now time.Time) (map[models.BoostType]bool, error)

	Create(ctx context.Context, boost *models.Boost) error
	UpdateEndTime(ctx context.Context, id int64, endTime *time.Time) error

	// ExpireActive sets end_time = now on every boost of the type active at now
	ExpireActive(ctx context.Context, accountID int64, boostType models.BoostType, now time.Time) (int64, error)
}

// ClanRepository defines the interface for clan data access
type ClanRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Clan, error)

	// GetByIDForUpdate retrieves and locks a clan row
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Clan, error)

	Create(ctx context.Context, name string, leaderID *int64) (*models.Clan, error)
	SetWarCooldown(ctx context.Context, clanID int64, until time.Time) error

	// RecordWarResult increments the winner's wins and the loser's losses
	RecordWarResult(ctx context.Context, winnerClanID, loserClanID int64) error
}

// ClanWarRepository defines the interface for clan war data access
type ClanWarRepository interface {
	Create(ctx context.Context, war *models.ClanWar) error
	GetByID(ctx context.Context, id int64) (*models.ClanWar, error)

	// GetActiveBetween returns the in-progress war between two clans in either direction
	GetActiveBetween(ctx context.Context, clanA, clanB int64) (*models.ClanWar, error)

	// ListExpired returns in-progress wars whose end time is at or before now
	ListExpired(ctx context.Context, now time.Time) ([]*models.ClanWar, error)

	// Complete transitions an in-progress war to completed and returns the updated row.
	// Returns nil when the war was already completed, which makes finalization idempotent.
	Complete(ctx context.Context, warID int64, completedAt time.Time) (*models.ClanWar, error)

	// SetWinner records the winning clan of a completed war
	SetWinner(ctx context.Context, warID int64, winnerClanID int64) error

	// IncrementWins adds one won attack for the given side. Returns false when the
	// war is no longer in progress.
	IncrementWins(ctx context.Context, warID int64, clanID int64) (bool, error)

	// Tally sums the stolen value and won attacks per side, counting each captured
	// guard as guardValue
	Tally(ctx context.Context, warID int64, guardValue int64) (*models.WarTally, error)
}

// StolenItemRepository defines the interface for stolen item records
type StolenItemRepository interface {
	Create(ctx context.Context, item *models.StolenItem) error

	// GetByEventHistoryIDs returns the stolen items linked to each event history entry
	GetByEventHistoryIDs(ctx context.Context, eventIDs []int64) (map[int64][]*models.StolenItem, error)
}

// EventHistoryRepository defines the interface for the event history audit trail
type EventHistoryRepository interface {
	// Create appends an entry and links it to the given stolen items
	Create(ctx context.Context, entry *models.EventHistory, stolenItemIDs []int64) error

	// GetByAccount returns a page of an account's history, newest first, and the total count
	GetByAccount(ctx context.Context, accountID int64, offset, limit int) ([]*models.EventHistory, int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	AccountRepository() AccountRepository
	GuardRepository() GuardRepository
	AccessoryRepository() AccessoryRepository
	BoostRepository() BoostRepository
	ClanRepository() ClanRepository
	ClanWarRepository() ClanWarRepository
	StolenItemRepository() StolenItemRepository
	EventHistoryRepository() EventHistoryRepository

	// EventBus returns the transactional event bus for this unit of work
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates new UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// ListCache is a read-through cache for hot lists. Entries are never authoritative.
type ListCache interface {
	// GetOrLoad fills dst from the cache or from load, storing the loaded value
	GetOrLoad(ctx context.Context, key string, dst interface{}, load func(ctx context.Context) (interface{}, error)) error

	// InvalidatePrefix drops every entry whose key starts with prefix
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// CombatService runs player-vs-player attacks
type CombatService interface {
	// AttackPlayer resolves and commits one attack outside of any war
	AttackPlayer(ctx context.Context, attackerID, defenderID int64, now time.Time) (*models.AttackResult, error)
}

// ClanWarService governs the clan war lifecycle
type ClanWarService interface {
	// DeclareWar starts a war between the leader's clan and the target clan
	DeclareWar(ctx context.Context, leaderID, targetClanID int64, now time.Time) (*models.ClanWar, error)

	// AttackInWar resolves and commits one attack scoped to an active war
	AttackInWar(ctx context.Context, attackerID, defenderID, warID int64, now time.Time) (*models.AttackResult, error)

	// Sweep finalizes every in-progress war whose window has closed
	Sweep(ctx context.Context, now time.Time) (*models.SweepReport, error)
}

// ItemEffectService applies granted items to accounts
type ItemEffectService interface {
	// ApplyKitOrPurchaseEffects applies every effect in one transaction
	ApplyKitOrPurchaseEffects(ctx context.Context, accountID int64, effects []models.ItemEffect, now time.Time) (*models.EffectsResult, error)

	// ActivateShield consumes a shield accessory and extends the account's shield
	ActivateShield(ctx context.Context, accountID, accessoryID int64, now time.Time) (*models.Boost, error)
}

// EconomyService runs the non-combat income and training actions
type EconomyService interface {
	// Train spends currency to strengthen the account's guards
	Train(ctx context.Context, accountID int64, now time.Time) (*models.TrainingResult, error)

	// Contract pays income based on the account's strength
	Contract(ctx context.Context, accountID int64, now time.Time) (*models.ContractResult, error)
}

// RatingService serves the cached rating and attackable lists
type RatingService interface {
	TopByStrength(ctx context.Context, limit int) ([]*models.AccountStrength, error)
	AttackableAccounts(ctx context.Context, accountID int64, now time.Time, limit int) ([]*models.AccountStrength, error)
}

// AccountService onboards new accounts and clans
type AccountService interface {
	// Register creates an account with the starting balance and its first guard
	Register(ctx context.Context, username string) (*models.Account, error)

	// CreateClan creates a clan led by the account, who joins it
	CreateClan(ctx context.Context, leaderID int64, name string) (*models.Clan, error)

	// JoinClan moves the account into the clan
	JoinClan(ctx context.Context, accountID, clanID int64) error
}
