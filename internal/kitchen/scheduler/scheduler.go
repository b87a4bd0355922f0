package scheduler

import (
	"context"
	"time"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
	"github.com/tair/central-kitchen/pkg/logger"
)

// Planner runs material planning
type Planner interface {
	Handle(ctx context.Context, cmd command.PlanMaterialsCommand) (*command.PlanResult, error)
}

// Daily runs the planner once a day at a fixed local hour.
type Daily struct {
	planner Planner
	lock    Lock
	clock   domain.Clock
	hour    int
	loc     *time.Location
	key     string
	ttl     time.Duration
}

// NewDaily creates a daily planning schedule at hour in loc
func NewDaily(planner Planner, lock Lock, clock domain.Clock, hour int, loc *time.Location) *Daily {
	if lock == nil {
		lock = LocalLock{}
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Daily{
		planner: planner,
		lock:    lock,
		clock:   clock,
		hour:    hour,
		loc:     loc,
		key:     "kitchen:daily-planning",
		ttl:     30 * time.Minute,
	}
}

// NextRun returns the first instant at hour:00 in loc strictly after now.
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}

// Start runs the schedule until ctx is cancelled
func (d *Daily) Start(ctx context.Context) {
	logger.Logger.Info().
		Int("hour", d.hour).
		Str("timezone", d.loc.String()).
		Msg("Daily planning scheduler started")

	for {
		next := NextRun(d.clock(), d.hour, d.loc)
		timer := time.NewTimer(next.Sub(d.clock()))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Logger.Info().Msg("Daily planning scheduler stopped")
			return
		case <-timer.C:
			if _, err := d.RunOnce(ctx); err != nil {
				logger.Error(ctx).Err(err).Msg("Scheduled planning run failed")
			}
		}
	}
}

// RunOnce plans tomorrow's deliveries under the lock. It reports false
// without error when another instance holds the lock.
func (d *Daily) RunOnce(ctx context.Context) (bool, error) {
	release, ok, err := d.lock.Acquire(ctx, d.key, d.ttl)
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Info(ctx).Str("key", d.key).Msg("Planning run skipped, lock held elsewhere")
		return false, nil
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			logger.Warn(ctx).Err(err).Msg("Failed to release planning lock")
		}
	}()

	result, err := d.planner.Handle(ctx, command.PlanMaterialsCommand{Trigger: command.TriggerSchedule})
	if err != nil {
		return true, err
	}
	logger.Info(ctx).
		Time("target_date", result.TargetDate).
		Int("orders", result.Orders).
		Int("batches", len(result.Batches)).
		Msg("Scheduled planning run completed")
	return true, nil
}
