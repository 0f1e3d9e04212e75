package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"guardwars/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClanWarService struct {
	mock.Mock
}

func (m *mockClanWarService) DeclareWar(ctx context.Context, leaderID, targetClanID int64, now time.Time) (*models.ClanWar, error) {
	args := m.Called(ctx, leaderID, targetClanID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClanWar), args.Error(1)
}

func (m *mockClanWarService) AttackInWar(ctx context.Context, attackerID, defenderID, warID int64, now time.Time) (*models.AttackResult, error) {
	args := m.Called(ctx, attackerID, defenderID, warID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttackResult), args.Error(1)
}

func (m *mockClanWarService) Sweep(ctx context.Context, now time.Time) (*models.SweepReport, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepReport), args.Error(1)
}

func TestWarSweeper_RunsImmediately(t *testing.T) {
	ctx := context.Background()
	wars := new(mockClanWarService)
	sweeper := NewWarSweeper(wars, time.Hour)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return now }

	wars.On("Sweep", ctx, now).Return(&models.SweepReport{Examined: 2, Completed: []int64{1}, Skipped: []int64{2}}, nil).Once()

	stop, err := sweeper.Start(ctx)
	require.NoError(t, err)
	stop()

	wars.AssertExpectations(t)
}

func TestWarSweeper_ErrorDoesNotStopSchedule(t *testing.T) {
	ctx := context.Background()
	wars := new(mockClanWarService)
	sweeper := NewWarSweeper(wars, time.Second)

	calls := make(chan struct{}, 10)
	wars.On("Sweep", ctx, mock.Anything).
		Run(func(mock.Arguments) { calls <- struct{}{} }).
		Return(&models.SweepReport{Examined: 1}, errors.New("db down"))

	stop, err := sweeper.Start(ctx)
	require.NoError(t, err)
	defer stop()

	<-calls
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled sweep did not run after a failed sweep")
	}
}

func TestWarSweeper_SkipsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wars := new(mockClanWarService)
	sweeper := NewWarSweeper(wars, time.Hour)

	stop, err := sweeper.Start(ctx)
	require.NoError(t, err)
	stop()

	wars.AssertNotCalled(t, "Sweep", mock.Anything, mock.Anything)
	assert.Empty(t, wars.Calls)
}
