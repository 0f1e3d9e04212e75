package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"guardwars/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the engine's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	attacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardwars",
			Subsystem: "combat",
			Name:      "attacks_total",
			Help:      "Total number of committed attacks.",
		},
		[]string{"war", "win"},
	)

	stolenMoney = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "guardwars",
			Subsystem: "combat",
			Name:      "stolen_money_total",
			Help:      "Total currency moved by successful attacks.",
		},
	)

	capturedGuards = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "guardwars",
			Subsystem: "combat",
			Name:      "captured_guards_total",
			Help:      "Total guards captured by successful attacks.",
		},
	)

	winChance = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "guardwars",
			Subsystem: "combat",
			Name:      "win_chance",
			Help:      "Distribution of resolved win probabilities.",
			Buckets:   prometheus.LinearBuckets(0.05, 0.1, 10),
		},
	)

	transferRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "guardwars",
			Subsystem: "ledger",
			Name:      "transfer_retries_total",
			Help:      "Transfers retried after a serialization failure or deadlock.",
		},
	)

	transferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "guardwars",
			Subsystem: "ledger",
			Name:      "transfer_duration_seconds",
			Help:      "Duration of transfer ledger commits including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"status"},
	)

	wars = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardwars",
			Subsystem: "wars",
			Name:      "transitions_total",
			Help:      "Clan war lifecycle transitions.",
		},
		[]string{"transition"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "guardwars",
			Subsystem: "wars",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of war closure sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		attacks,
		stolenMoney,
		capturedGuards,
		winChance,
		transferRetries,
		transferDuration,
		wars,
		sweepDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordTransferRetry counts one retried transfer attempt.
func RecordTransferRetry() {
	transferRetries.Inc()
}

// RecordTransfer records how long a transfer took and whether it committed.
func RecordTransfer(duration time.Duration, err error) {
	status := "committed"
	if err != nil {
		status = "failed"
	}
	transferDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordSweep records the duration of a war closure sweep.
func RecordSweep(duration time.Duration) {
	sweepDuration.Observe(duration.Seconds())
}

// Subscribe registers bus handlers that keep the combat and war counters current.
func Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeAttackResolved, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.AttackResolvedEvent)
		if !ok {
			return
		}
		attacks.WithLabelValues(strconv.FormatBool(e.ClanWarID != nil), strconv.FormatBool(e.IsWin)).Inc()
		winChance.Observe(e.WinChance)
		if e.IsWin {
			stolenMoney.Add(float64(e.StolenMoney))
			capturedGuards.Add(float64(len(e.CapturedGuardIDs)))
		}
	})
	bus.Subscribe(events.EventTypeWarDeclared, func(ctx context.Context, event events.Event) {
		wars.WithLabelValues("declared").Inc()
	})
	bus.Subscribe(events.EventTypeWarCompleted, func(ctx context.Context, event events.Event) {
		transition := "completed"
		if e, ok := event.(events.WarCompletedEvent); ok && e.EarlyDefeat {
			transition = "early_defeat"
		}
		wars.WithLabelValues(transition).Inc()
	})
}
