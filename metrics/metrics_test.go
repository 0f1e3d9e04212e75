package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"guardwars/events"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_AttackCounters(t *testing.T) {
	bus := events.NewBus()
	Subscribe(bus)

	warAttacks := attacks.WithLabelValues("true", "true")
	before := testutil.ToFloat64(warAttacks)
	stolenBefore := testutil.ToFloat64(stolenMoney)
	guardsBefore := testutil.ToFloat64(capturedGuards)

	warID := int64(3)
	bus.Emit(context.Background(), events.AttackResolvedEvent{
		AttackerID:       1,
		DefenderID:       2,
		ClanWarID:        &warID,
		WinChance:        0.6,
		IsWin:            true,
		StolenMoney:      150,
		CapturedGuardIDs: []int64{7, 8},
	})

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(warAttacks) == before+1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(stolenMoney) == stolenBefore+150 &&
			testutil.ToFloat64(capturedGuards) == guardsBefore+2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribe_WarTransitions(t *testing.T) {
	bus := events.NewBus()
	Subscribe(bus)

	early := wars.WithLabelValues("early_defeat")
	before := testutil.ToFloat64(early)

	bus.Emit(context.Background(), events.WarCompletedEvent{WarID: 1, Clan1ID: 1, Clan2ID: 2, EarlyDefeat: true})

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(early) == before+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecordTransfer(t *testing.T) {
	retriesBefore := testutil.ToFloat64(transferRetries)
	RecordTransferRetry()
	assert.Equal(t, retriesBefore+1, testutil.ToFloat64(transferRetries))

	RecordTransfer(5*time.Millisecond, nil)
	RecordTransfer(5*time.Millisecond, errors.New("conflict"))
	assert.Equal(t, 2, testutil.CollectAndCount(transferDuration))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	RecordSweep(10 * time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "guardwars_wars_sweep_duration_seconds"))
	assert.True(t, strings.Contains(body, "guardwars_ledger_transfer_retries_total"))
}
