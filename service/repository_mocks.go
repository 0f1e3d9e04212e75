package service

import (
	"context"
	"time"

	"guardwars/events"
	"guardwars/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) LockByIDs(ctx context.Context, ids ...int64) (map[int64]*models.Account, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, username string, initialBalance int64) (*models.Account, error) {
	args := m.Called(ctx, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, id int64, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) DeductBalance(ctx context.Context, id int64, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) SetLastActionAt(ctx context.Context, id int64, kind models.ActionKind, at time.Time) error {
	args := m.Called(ctx, id, kind, at)
	return args.Error(0)
}

func (m *MockAccountRepository) SetShieldUntil(ctx context.Context, id int64, until *time.Time) error {
	args := m.Called(ctx, id, until)
	return args.Error(0)
}

func (m *MockAccountRepository) SetClan(ctx context.Context, id int64, clanID *int64) error {
	args := m.Called(ctx, id, clanID)
	return args.Error(0)
}

func (m *MockAccountRepository) TopByStrength(ctx context.Context, limit int) ([]*models.AccountStrength, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AccountStrength), args.Error(1)
}

func (m *MockAccountRepository) ListAttackable(ctx context.Context, accountID int64, now time.Time, limit int) ([]*models.AccountStrength, error) {
	args := m.Called(ctx, accountID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AccountStrength), args.Error(1)
}

// MockGuardRepository is a mock implementation of GuardRepository
type MockGuardRepository struct {
	mock.Mock
}

func (m *MockGuardRepository) Create(ctx context.Context, guard *models.Guard) error {
	args := m.Called(ctx, guard)
	return args.Error(0)
}

func (m *MockGuardRepository) GetByAccount(ctx context.Context, accountID int64) ([]*models.Guard, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Guard), args.Error(1)
}

func (m *MockGuardRepository) Transfer(ctx context.Context, guardID, fromAccountID, toAccountID int64) (bool, error) {
	args := m.Called(ctx, guardID, fromAccountID, toAccountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuardRepository) AddStrength(ctx context.Context, guardID int64, amount int64) error {
	args := m.Called(ctx, guardID, amount)
	return args.Error(0)
}

func (m *MockGuardRepository) CountCapturableByClan(ctx context.Context, clanID int64) (int64, error) {
	args := m.Called(ctx, clanID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAccessoryRepository is a mock implementation of AccessoryRepository
type MockAccessoryRepository struct {
	mock.Mock
}

func (m *MockAccessoryRepository) Create(ctx context.Context, accessory *models.Accessory) error {
	args := m.Called(ctx, accessory)
	return args.Error(0)
}

func (m *MockAccessoryRepository) GetByID(ctx context.Context, id int64) (*models.Accessory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Accessory), args.Error(1)
}

func (m *MockAccessoryRepository) GetEquippedByAccount(ctx context.Context, accountID int64) ([]*models.Accessory, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Accessory), args.Error(1)
}

func (m *MockAccessoryRepository) Consume(ctx context.Context, id int64, accountID int64) (bool, error) {
	args := m.Called(ctx, id, accountID)
	return args.Bool(0), args.Error(1)
}

// MockBoostRepository is a mock implementation of BoostRepository
type MockBoostRepository struct {
	mock.Mock
}

func (m *MockBoostRepository) GetActive(ctx context.Context, accountID int64, boostType models.BoostType, now time.Time) (*models.Boost, error) {
	args := m.Called(ctx, accountID, boostType, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Boost), args.Error(1)
}

func (m *MockBoostRepository) GetActiveForUpdate(ctx context.Context, accountID int64, boostType models.BoostType, now time.Time) (*models.Boost, error) {
	args := m.Called(ctx, accountID, boostType, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Boost), args.Error(1)
}

func (m *MockBoostRepository) ActiveTypes(ctx context.Context, accountID int64, now time.Time) (map[models.BoostType]bool, error) {
	args := m.Called(ctx, accountID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.BoostType]bool), args.Error(1)
}

func (m *MockBoostRepository) Create(ctx context.Context, boost *models.Boost) error {
	args := m.Called(ctx, boost)
	return args.Error(0)
}

func (m *MockBoostRepository) UpdateEndTime(ctx context.Context, id int64, endTime *time.Time) error {
	args := m.Called(ctx, id, endTime)
	return args.Error(0)
}

func (m *MockBoostRepository) ExpireActive(ctx context.Context, accountID int64, boostType models.BoostType, now time.Time) (int64, error) {
	args := m.Called(ctx, accountID, boostType, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockClanRepository is a mock implementation of ClanRepository
type MockClanRepository struct {
	mock.Mock
}

func (m *MockClanRepository) GetByID(ctx context.Context, id int64) (*models.Clan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clan), args.Error(1)
}

func (m *MockClanRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Clan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clan), args.Error(1)
}

func (m *MockClanRepository) Create(ctx context.Context, name string, leaderID *int64) (*models.Clan, error) {
	args := m.Called(ctx, name, leaderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clan), args.Error(1)
}

func (m *MockClanRepository) SetWarCooldown(ctx context.Context, clanID int64, until time.Time) error {
	args := m.Called(ctx, clanID, until)
	return args.Error(0)
}

func (m *MockClanRepository) RecordWarResult(ctx context.Context, winnerClanID, loserClanID int64) error {
	args := m.Called(ctx, winnerClanID, loserClanID)
	return args.Error(0)
}

// MockClanWarRepository is a mock implementation of ClanWarRepository
type MockClanWarRepository struct {
	mock.Mock
}

func (m *MockClanWarRepository) Create(ctx context.Context, war *models.ClanWar) error {
	args := m.Called(ctx, war)
	return args.Error(0)
}

func (m *MockClanWarRepository) GetByID(ctx context.Context, id int64) (*models.ClanWar, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClanWar), args.Error(1)
}

func (m *MockClanWarRepository) GetActiveBetween(ctx context.Context, clanA, clanB int64) (*models.ClanWar, error) {
	args := m.Called(ctx, clanA, clanB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClanWar), args.Error(1)
}

func (m *MockClanWarRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.ClanWar, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ClanWar), args.Error(1)
}

func (m *MockClanWarRepository) Complete(ctx context.Context, warID int64, completedAt time.Time) (*models.ClanWar, error) {
	args := m.Called(ctx, warID, completedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClanWar), args.Error(1)
}

func (m *MockClanWarRepository) SetWinner(ctx context.Context, warID int64, winnerClanID int64) error {
	args := m.Called(ctx, warID, winnerClanID)
	return args.Error(0)
}

func (m *MockClanWarRepository) IncrementWins(ctx context.Context, warID int64, clanID int64) (bool, error) {
	args := m.Called(ctx, warID, clanID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClanWarRepository) Tally(ctx context.Context, warID int64, guardValue int64) (*models.WarTally, error) {
	args := m.Called(ctx, warID, guardValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WarTally), args.Error(1)
}

// MockStolenItemRepository is a mock implementation of StolenItemRepository
type MockStolenItemRepository struct {
	mock.Mock
}

func (m *MockStolenItemRepository) Create(ctx context.Context, item *models.StolenItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStolenItemRepository) GetByEventHistoryIDs(ctx context.Context, eventIDs []int64) (map[int64][]*models.StolenItem, error) {
	args := m.Called(ctx, eventIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*models.StolenItem), args.Error(1)
}

// MockEventHistoryRepository is a mock implementation of EventHistoryRepository
type MockEventHistoryRepository struct {
	mock.Mock
}

func (m *MockEventHistoryRepository) Create(ctx context.Context, entry *models.EventHistory, stolenItemIDs []int64) error {
	args := m.Called(ctx, entry, stolenItemIDs)
	return args.Error(0)
}

func (m *MockEventHistoryRepository) GetByAccount(ctx context.Context, accountID int64, offset, limit int) ([]*models.EventHistory, int64, error) {
	args := m.Called(ctx, accountID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.EventHistory), args.Get(1).(int64), args.Error(2)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockRepositories groups the repositories handed out by MockUnitOfWork
type MockRepositories struct {
	Accounts     *MockAccountRepository
	Guards       *MockGuardRepository
	Accessories  *MockAccessoryRepository
	Boosts       *MockBoostRepository
	Clans        *MockClanRepository
	ClanWars     *MockClanWarRepository
	StolenItems  *MockStolenItemRepository
	EventHistory *MockEventHistoryRepository
	Events       *MockEventPublisher
}

// NewMockRepositories creates a full set of empty repository mocks
func NewMockRepositories() MockRepositories {
	return MockRepositories{
		Accounts:     new(MockAccountRepository),
		Guards:       new(MockGuardRepository),
		Accessories:  new(MockAccessoryRepository),
		Boosts:       new(MockBoostRepository),
		Clans:        new(MockClanRepository),
		ClanWars:     new(MockClanWarRepository),
		StolenItems:  new(MockStolenItemRepository),
		EventHistory: new(MockEventHistoryRepository),
		Events:       new(MockEventPublisher),
	}
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	repos MockRepositories
}

// SetRepositories sets the repositories returned by the unit of work
func (m *MockUnitOfWork) SetRepositories(repos MockRepositories) {
	m.repos = repos
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.repos.Accounts
}

func (m *MockUnitOfWork) GuardRepository() GuardRepository {
	return m.repos.Guards
}

func (m *MockUnitOfWork) AccessoryRepository() AccessoryRepository {
	return m.repos.Accessories
}

func (m *MockUnitOfWork) BoostRepository() BoostRepository {
	return m.repos.Boosts
}

func (m *MockUnitOfWork) ClanRepository() ClanRepository {
	return m.repos.Clans
}

func (m *MockUnitOfWork) ClanWarRepository() ClanWarRepository {
	return m.repos.ClanWars
}

func (m *MockUnitOfWork) StolenItemRepository() StolenItemRepository {
	return m.repos.StolenItems
}

func (m *MockUnitOfWork) EventHistoryRepository() EventHistoryRepository {
	return m.repos.EventHistory
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.repos.Events
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockListCache is a ListCache that always calls through to the loader
type MockListCache struct {
	mock.Mock
}

func (m *MockListCache) GetOrLoad(ctx context.Context, key string, dst interface{}, load func(ctx context.Context) (interface{}, error)) error {
	args := m.Called(ctx, key)
	if err := args.Error(0); err != nil {
		return err
	}
	value, err := load(ctx)
	if err != nil {
		return err
	}
	if rows, ok := dst.(*[]*models.AccountStrength); ok {
		*rows = value.([]*models.AccountStrength)
	}
	return nil
}

func (m *MockListCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}
