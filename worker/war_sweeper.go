package worker

import (
	"context"
	"fmt"
	"time"

	"guardwars/service"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// WarSweeper periodically finalizes clan wars whose window has closed
type WarSweeper struct {
	wars     service.ClanWarService
	interval time.Duration
	now      func() time.Time
}

// NewWarSweeper creates a sweeper running every interval
func NewWarSweeper(wars service.ClanWarService, interval time.Duration) *WarSweeper {
	return &WarSweeper{
		wars:     wars,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs one sweep immediately and then schedules the rest.
// Returns a cleanup function that stops the schedule and waits for a running sweep.
func (w *WarSweeper) Start(ctx context.Context) (func(), error) {
	w.runOnce(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", w.interval), func() { w.runOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("failed to schedule war sweep: %w", err)
	}
	c.Start()

	log.WithField("interval", w.interval).Info("War sweep worker started")

	return func() {
		<-c.Stop().Done()
		log.Info("War sweep worker stopped")
	}, nil
}

func (w *WarSweeper) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	report, err := w.wars.Sweep(ctx, w.now())
	if err != nil {
		log.WithError(err).Error("War sweep finished with errors")
	}
	if report == nil || report.Examined == 0 {
		return
	}

	log.WithFields(log.Fields{
		"examined":  report.Examined,
		"completed": len(report.Completed),
		"skipped":   len(report.Skipped),
	}).Info("War sweep finished")
}
