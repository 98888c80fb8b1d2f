// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	appmetering "chatfleet/internal/application/metering"
	"chatfleet/internal/shared/biztime"
	"chatfleet/internal/shared/logger"
)

// RolloverJob processes billing periods that have reached their end.
type RolloverJob interface {
	Execute(ctx context.Context) (appmetering.RolloverResult, error)
}

// SweepJob expires stale pending reservations and returns the number swept.
type SweepJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager manages all background jobs on a single gocron instance.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a SchedulerManager with gocron initialized in
// the business timezone.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterRolloverJob registers the period rollover loop. It runs immediately
// on startup to catch up on periods that ended while the worker was down.
func (m *SchedulerManager) RegisterRolloverJob(job RolloverJob, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.runRollover(ctx, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("metering", "rollover"),
		gocron.WithName("period-rollover"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered period rollover job", "interval", interval)
	return nil
}

func (m *SchedulerManager) runRollover(ctx context.Context, job RolloverJob) {
	m.logger.Debugw("period rollover started")

	startTime := biztime.NowUTC()

	result, err := job.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("period rollover failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if result.Processed > 0 {
		m.logger.Infow("period rollover completed",
			"processed", result.Processed,
			"advanced", result.Advanced,
			"cancelled", result.Cancelled,
			"failed", result.Failed,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no periods due for rollover",
			"duration", time.Since(startTime),
		)
	}
}

// RegisterSweepJob registers the reservation sweep loop that expires pending
// reservations past their TTL and returns their counters.
func (m *SchedulerManager) RegisterSweepJob(job SweepJob, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.runSweep(ctx, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("metering", "sweep"),
		gocron.WithName("reservation-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered reservation sweep job", "interval", interval)
	return nil
}

func (m *SchedulerManager) runSweep(ctx context.Context, job SweepJob) {
	startTime := biztime.NowUTC()

	sweptCount, err := job.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("reservation sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if sweptCount > 0 {
		m.logger.Infow("expired reservations swept",
			"count", sweptCount,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no expired reservations to sweep",
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler and waits for running jobs.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}
