package metering

import (
	"context"
	"fmt"
	"time"

	"chatfleet/internal/domain/metering"
	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/shared/id"
	"chatfleet/internal/shared/logger"
)

// RolloverConfig tunes the period rollover drain barrier and the length of
// the billing periods it opens.
type RolloverConfig struct {
	// DrainTimeout bounds how long a closing period waits for outstanding
	// reservations before force-expiring them.
	DrainTimeout time.Duration
	// DrainPoll is the interval between drain barrier checks.
	DrainPoll time.Duration
	// PeriodLengthDays is the length of newly opened billing periods. Zero
	// means calendar months.
	PeriodLengthDays int
	// BatchSize caps how many due subscriptions one pass processes.
	BatchSize int
}

// PeriodRollover closes expired billing periods and opens the next ones.
// Per company the sequence is Open -> Closing -> drain -> Closed, then either
// the subscription advances into a fresh zeroed period or, when cancellation
// was scheduled, the subscription is cancelled and no new period opens.
type PeriodRollover struct {
	subRepo         subscription.SubscriptionRepository
	periodRepo      metering.UsagePeriodRepository
	reservationRepo metering.ReservationRepository
	accumulator     *PeriodAccumulator
	cfg             RolloverConfig
	logger          logger.Interface
}

func NewPeriodRollover(
	subRepo subscription.SubscriptionRepository,
	periodRepo metering.UsagePeriodRepository,
	reservationRepo metering.ReservationRepository,
	accumulator *PeriodAccumulator,
	cfg RolloverConfig,
	log logger.Interface,
) *PeriodRollover {
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 30 * time.Second
	}
	if cfg.DrainPoll <= 0 {
		cfg.DrainPoll = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &PeriodRollover{
		subRepo:         subRepo,
		periodRepo:      periodRepo,
		reservationRepo: reservationRepo,
		accumulator:     accumulator,
		cfg:             cfg,
		logger:          log.Named("period-rollover"),
	}
}

// RolloverResult summarizes one rollover pass.
type RolloverResult struct {
	Processed int
	Advanced  int
	Cancelled int
	Failed    int
}

// Execute runs one rollover pass over all subscriptions whose billing period
// has ended. Failures are isolated per company: one broken subscription does
// not stall the rest of the batch.
func (r *PeriodRollover) Execute(ctx context.Context) (RolloverResult, error) {
	now := time.Now().UTC()
	var result RolloverResult

	due, err := r.subRepo.ListPeriodDue(ctx, now, r.cfg.BatchSize)
	if err != nil {
		return result, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	for _, sub := range due {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Processed++
		cancelled, err := r.rolloverOne(ctx, sub, now)
		if err != nil {
			result.Failed++
			r.logger.Errorw("rollover failed for subscription",
				"subscription_id", sub.ID(), "company_id", sub.CompanyID(), "error", err)
			continue
		}
		if cancelled {
			result.Cancelled++
		} else {
			result.Advanced++
		}
	}

	if result.Processed > 0 {
		r.logger.Infow("rollover pass finished",
			"processed", result.Processed,
			"advanced", result.Advanced,
			"cancelled", result.Cancelled,
			"failed", result.Failed)
	}
	return result, nil
}

func (r *PeriodRollover) rolloverOne(ctx context.Context, sub *subscription.Subscription, now time.Time) (cancelled bool, err error) {
	// The expiring period covers the subscription's old window. A company
	// that never metered anything has no period row; there is nothing to
	// close then.
	period, err := r.periodRepo.GetOpenByCompanyID(ctx, sub.CompanyID(), sub.CurrentPeriodStart())
	if err != nil {
		return false, fmt.Errorf("failed to load expiring period: %w", err)
	}

	if period != nil {
		if err := r.closePeriod(ctx, period); err != nil {
			return false, err
		}
	}

	if sub.CancelAtPeriodEnd() {
		if err := sub.Cancel(); err != nil {
			return false, fmt.Errorf("failed to cancel subscription: %w", err)
		}
		if err := r.subRepo.Update(ctx, sub); err != nil {
			return false, fmt.Errorf("failed to persist cancellation: %w", err)
		}
		r.logger.Infow("subscription cancelled at period end",
			"subscription_id", sub.ID(), "company_id", sub.CompanyID())
		return true, nil
	}

	nextEnd := r.nextPeriodEnd(sub.CurrentPeriodEnd())
	// Catch up when rollover lagged more than a full period.
	for !nextEnd.After(now) {
		nextEnd = r.nextPeriodEnd(nextEnd)
	}

	if err := sub.AdvancePeriod(nextEnd); err != nil {
		return false, fmt.Errorf("failed to advance period: %w", err)
	}
	if err := r.subRepo.Update(ctx, sub); err != nil {
		return false, fmt.Errorf("failed to persist advanced period: %w", err)
	}

	// Open the next period eagerly so dashboards see a zeroed row right
	// away. Losing a race against a concurrent lazy creation is fine.
	if err := r.openNextPeriod(ctx, sub); err != nil {
		r.logger.Warnw("failed to open next usage period",
			"subscription_id", sub.ID(), "company_id", sub.CompanyID(), "error", err)
	}

	r.logger.Infow("billing period advanced",
		"subscription_id", sub.ID(),
		"company_id", sub.CompanyID(),
		"period_start", sub.CurrentPeriodStart(),
		"period_end", sub.CurrentPeriodEnd())
	return false, nil
}

// closePeriod runs the drain barrier: no new reservations are admitted once
// the period is closing, and the period freezes only after every outstanding
// reservation resolved or the drain timeout force-expired it.
func (r *PeriodRollover) closePeriod(ctx context.Context, period *metering.UsagePeriod) error {
	if err := r.periodRepo.MarkClosing(ctx, period.ID()); err != nil {
		return fmt.Errorf("failed to mark period closing: %w", err)
	}

	deadline := time.Now().Add(r.cfg.DrainTimeout)
	for {
		pending, err := r.reservationRepo.CountPendingByPeriod(ctx, period.ID())
		if err != nil {
			return fmt.Errorf("failed to count pending reservations: %w", err)
		}
		if pending == 0 {
			break
		}
		if time.Now().After(deadline) {
			if err := r.forceExpirePending(ctx, period.ID(), pending); err != nil {
				return err
			}
			break
		}

		r.logger.Debugw("waiting for reservations to drain",
			"period_id", period.ID(), "pending", pending)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.cfg.DrainPoll):
		}
	}

	if err := r.periodRepo.MarkClosed(ctx, period.ID()); err != nil {
		return fmt.Errorf("failed to mark period closed: %w", err)
	}

	r.logger.Infow("usage period closed",
		"period_id", period.ID(), "company_id", period.CompanyID())
	return nil
}

func (r *PeriodRollover) forceExpirePending(ctx context.Context, periodID uint, pending int64) error {
	r.logger.Warnw("drain timeout reached, force-expiring reservations",
		"period_id", periodID, "pending", pending)

	stuck, err := r.reservationRepo.ListPendingByPeriod(ctx, periodID, 0)
	if err != nil {
		return fmt.Errorf("failed to list stuck reservations: %w", err)
	}
	for _, res := range stuck {
		if err := r.accumulator.ExpireReservation(ctx, res.Token()); err != nil {
			return fmt.Errorf("failed to force-expire reservation %s: %w", res.Token(), err)
		}
	}
	return nil
}

func (r *PeriodRollover) openNextPeriod(ctx context.Context, sub *subscription.Subscription) error {
	sid, err := id.GenerateWithPrefix(id.PrefixUsagePeriod, id.DefaultLength)
	if err != nil {
		return err
	}
	fresh, err := metering.NewUsagePeriod(sid, sub.CompanyID(), sub.ID(), sub.CurrentPeriodStart(), sub.CurrentPeriodEnd())
	if err != nil {
		return err
	}
	if err := r.periodRepo.Create(ctx, fresh); err != nil {
		return err
	}
	return nil
}

func (r *PeriodRollover) nextPeriodEnd(from time.Time) time.Time {
	if r.cfg.PeriodLengthDays > 0 {
		return from.AddDate(0, 0, r.cfg.PeriodLengthDays)
	}
	return from.AddDate(0, 1, 0)
}
