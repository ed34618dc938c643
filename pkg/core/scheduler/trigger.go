// Package scheduler runs availability checks on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cabinwatch/cabinwatch/pkg/core/model"
	"github.com/cabinwatch/cabinwatch/pkg/utils/logging"
)

// LocationCheck runs one full check for a location
type LocationCheck func(ctx context.Context, location model.Location) error

// CycleSummary reports what happened to each location in one cycle
type CycleSummary struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Checked   []string
	Failed    map[string]error
	Skipped   []string // locations whose previous check was still running
}

// Trigger runs a check for every location on each cron tick.
// A location is never checked by two cycles at once.
type Trigger struct {
	schedule  string
	locations []model.Location
	check     LocationCheck
	logger    *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewTrigger validates the schedule and returns a Trigger
func NewTrigger(schedule string, locations []model.Location, check LocationCheck, logger *zap.Logger) (*Trigger, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	return &Trigger{
		schedule:  schedule,
		locations: locations,
		check:     check,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

func (t *Trigger) lockFor(locationID string) *sync.Mutex {
	t.locksMu.Lock()
	defer t.locksMu.Unlock()

	mu, ok := t.locks[locationID]
	if !ok {
		mu = &sync.Mutex{}
		t.locks[locationID] = mu
	}
	return mu
}

// checkLocked runs the check unless another cycle holds the location's lock.
// The lock is released even if the check panics.
func (t *Trigger) checkLocked(ctx context.Context, location model.Location) (bool, error) {
	mu := t.lockFor(location.ID)
	if !mu.TryLock() {
		return false, nil
	}
	defer mu.Unlock()

	return true, t.check(ctx, location)
}

// RunCycle checks each location in order. A failing location is logged and
// recorded in the summary; the cycle moves on to the next one.
func (t *Trigger) RunCycle(ctx context.Context) CycleSummary {
	summary := CycleSummary{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Checked:   []string{},
		Failed:    make(map[string]error),
		Skipped:   []string{},
	}
	logger := t.logger.With(zap.String("cycle", summary.ID))
	logger.Info("Starting cycle", zap.Int("locations", len(t.locations)))

	for _, location := range t.locations {
		if ctx.Err() != nil {
			logger.Warn("Cycle cancelled", zap.Error(ctx.Err()))
			break
		}

		ran, err := t.checkLocked(ctx, location)
		if !ran {
			logger.Warn("Previous check still running, skipping location", zap.String("location", location.ID))
			summary.Skipped = append(summary.Skipped, location.ID)
			continue
		}

		summary.Checked = append(summary.Checked, location.ID)
		if err != nil {
			logger.Error("Location check failed", zap.String("location", location.ID), zap.Error(err))
			summary.Failed[location.ID] = err
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	logger.Info("Finished cycle",
		zap.Int("checked", len(summary.Checked)),
		zap.Int("failed", len(summary.Failed)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Duration("duration", summary.Duration))

	return summary
}

// Run schedules RunCycle and blocks until ctx is cancelled, then waits for a running cycle to finish.
// Panics inside a cycle are recovered and logged; a tick that fires while a cycle is still
// running is skipped.
func (t *Trigger) Run(ctx context.Context) error {
	cronLogger := logging.CronLogger(t.logger)
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	id, err := c.AddFunc(t.schedule, func() { t.RunCycle(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule cycle: %w", err)
	}

	c.Start()
	t.logger.Info("Scheduler started",
		zap.String("schedule", t.schedule),
		zap.Time("next", c.Entry(id).Next))

	<-ctx.Done()

	t.logger.Info("Stopping scheduler, waiting for running cycle")
	<-c.Stop().Done()
	t.logger.Info("Scheduler stopped")
	return nil
}
