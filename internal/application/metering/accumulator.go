package metering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatfleet/internal/domain/metering"
	"chatfleet/internal/domain/subscription"
	apperrors "chatfleet/internal/shared/errors"
	"chatfleet/internal/shared/id"
	"chatfleet/internal/shared/logger"
)

const (
	// createRetries bounds the lazy period creation race: two concurrent
	// reserves may both miss the period and race on the unique
	// (company_id, period_start) index; the loser re-reads.
	createRetries = 3
	// storageRetries bounds retries of transient storage failures during
	// reserve, commit and release. Exhausting them fails the operation so
	// callers deny instead of admitting unmetered work.
	storageRetries = 3
	retryBackoff   = 25 * time.Millisecond
)

// PeriodAccumulator owns the per-company usage counters for the current
// billing period. All mutations go through reservations: Reserve increments
// a counter and issues a token, Commit finalizes it, Release and Expire
// compensate the increment. Counter updates are atomic at the storage layer
// so concurrent reservations across instances never lose updates.
type PeriodAccumulator struct {
	periodRepo      metering.UsagePeriodRepository
	reservationRepo metering.ReservationRepository
	subRepo         subscription.SubscriptionRepository
	reservationTTL  time.Duration
	logger          logger.Interface
}

func NewPeriodAccumulator(
	periodRepo metering.UsagePeriodRepository,
	reservationRepo metering.ReservationRepository,
	subRepo subscription.SubscriptionRepository,
	reservationTTL time.Duration,
	log logger.Interface,
) *PeriodAccumulator {
	return &PeriodAccumulator{
		periodRepo:      periodRepo,
		reservationRepo: reservationRepo,
		subRepo:         subRepo,
		reservationTTL:  reservationTTL,
		logger:          log.Named("period-accumulator"),
	}
}

// Reserve increments the metric counter of the company's current open period
// and records a pending reservation. limit caps the counter after the
// increment; pass -1 for unlimited. An increment that would overshoot the cap
// fails with a LimitExceededError and leaves the counter untouched. The
// second return is the counter value after the increment.
func (a *PeriodAccumulator) Reserve(ctx context.Context, companyID uint, metric metering.Metric, amount int64, limit int64) (*metering.Reservation, int64, error) {
	if !metric.IsValid() {
		return nil, 0, metering.ErrUnknownMetric
	}
	if amount <= 0 {
		return nil, 0, fmt.Errorf("reservation amount must be positive, got %d", amount)
	}

	now := time.Now().UTC()
	period, err := a.ensureCurrentPeriod(ctx, companyID, now)
	if err != nil {
		return nil, 0, err
	}

	if period.IsClosing() {
		return nil, 0, metering.ErrPeriodClosing
	}

	// The stored row is the authority under concurrency, not the aggregate
	// we loaded above: the guard and the increment happen atomically.
	var used int64
	err = a.retryStorage(ctx, "increment counter", func() error {
		var incErr error
		used, incErr = a.periodRepo.TryIncrementCounter(ctx, period.ID(), metric, amount, limit)
		return incErr
	})
	if err != nil {
		return nil, 0, err
	}

	token, err := id.NewReservationToken()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to generate reservation token: %w", err)
	}

	reservation, err := metering.NewReservation(token, companyID, period.ID(), metric, amount, now.Add(a.reservationTTL))
	if err != nil {
		return nil, 0, err
	}

	if err := a.reservationRepo.Create(ctx, reservation); err != nil {
		if compErr := a.periodRepo.CompensateCounter(ctx, period.ID(), metric, amount); compErr != nil {
			a.logger.Errorw("failed to compensate orphaned increment",
				"company_id", companyID, "metric", metric, "amount", amount, "error", compErr)
		}
		return nil, 0, fmt.Errorf("failed to persist reservation: %w", err)
	}

	a.logger.Debugw("reservation created",
		"token", token, "company_id", companyID, "metric", metric, "amount", amount)
	return reservation, used, nil
}

// Commit finalizes a pending reservation. The counter increment made at
// reserve time stands; only the reservation status changes.
func (a *PeriodAccumulator) Commit(ctx context.Context, token string) error {
	reservation, err := a.reservationRepo.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := reservation.Commit(now); err != nil {
		return err
	}

	var ok bool
	err = a.retryStorage(ctx, "resolve reservation", func() error {
		var resErr error
		ok, resErr = a.reservationRepo.ResolveIfPending(ctx, token, metering.ReservationStatusCommitted, now)
		return resErr
	})
	if err != nil {
		return err
	}
	if !ok {
		return metering.ErrTokenAlreadyResolved
	}

	a.logger.Debugw("reservation committed", "token", token, "metric", reservation.Metric())
	return nil
}

// Release abandons a pending reservation and compensates its counter
// increment. Compensation is allowed while the period is open or closing so
// the rollover drain barrier can make progress.
func (a *PeriodAccumulator) Release(ctx context.Context, token string) error {
	reservation, err := a.reservationRepo.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := reservation.Release(now); err != nil {
		return err
	}

	var ok bool
	err = a.retryStorage(ctx, "resolve reservation", func() error {
		var resErr error
		ok, resErr = a.reservationRepo.ResolveIfPending(ctx, token, metering.ReservationStatusReleased, now)
		return resErr
	})
	if err != nil {
		return err
	}
	if !ok {
		return metering.ErrTokenAlreadyResolved
	}

	err = a.retryStorage(ctx, "compensate counter", func() error {
		return a.periodRepo.CompensateCounter(ctx, reservation.UsagePeriodID(), reservation.Metric(), reservation.Amount())
	})
	if err != nil {
		a.logger.Errorw("failed to compensate released reservation",
			"token", token, "metric", reservation.Metric(), "error", err)
		return err
	}

	a.logger.Debugw("reservation released", "token", token, "metric", reservation.Metric())
	return nil
}

// ExpireReservation force-resolves an overdue pending reservation and
// compensates its increment. Used by the background sweep and by the rollover
// drain timeout. Resolving a token that already resolved is not an error
// here: the sweep races with late confirms.
func (a *PeriodAccumulator) ExpireReservation(ctx context.Context, token string) error {
	reservation, err := a.reservationRepo.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ok, err := a.reservationRepo.ResolveIfPending(ctx, token, metering.ReservationStatusExpired, now)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := a.periodRepo.CompensateCounter(ctx, reservation.UsagePeriodID(), reservation.Metric(), reservation.Amount()); err != nil {
		a.logger.Errorw("failed to compensate expired reservation",
			"token", token, "metric", reservation.Metric(), "error", err)
		return err
	}

	a.logger.Infow("reservation expired",
		"token", token, "company_id", reservation.CompanyID(), "metric", reservation.Metric(), "amount", reservation.Amount())
	return nil
}

// Snapshot returns the company's current usage period. Returns
// ErrPeriodNotFound when no period covers the current instant; callers that
// only need counters should treat that as all-zero usage.
func (a *PeriodAccumulator) Snapshot(ctx context.Context, companyID uint) (*metering.UsagePeriod, error) {
	period, err := a.periodRepo.GetOpenByCompanyID(ctx, companyID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, metering.ErrPeriodNotFound
	}
	return period, nil
}

// retryStorage runs op with bounded backoff, retrying transient storage
// failures. Metering outcomes pass through on the first attempt.
func (a *PeriodAccumulator) retryStorage(ctx context.Context, name string, op func() error) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || isMeteringOutcome(err) {
			return err
		}
		lastErr = err
		if attempt == storageRetries {
			break
		}
		a.logger.Warnw("storage operation failed, retrying",
			"op", name, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, storageRetries, lastErr)
}

// isMeteringOutcome reports whether err is a metering answer rather than a
// storage fault. Outcomes are never retried.
func isMeteringOutcome(err error) bool {
	if metering.IsLimitExceeded(err) {
		return true
	}
	for _, sentinel := range []error{
		metering.ErrSubscriptionNotActive,
		metering.ErrPeriodNotFound,
		metering.ErrPeriodClosing,
		metering.ErrPeriodClosed,
		metering.ErrTokenNotFound,
		metering.ErrTokenAlreadyResolved,
		metering.ErrTokenExpired,
		metering.ErrUnknownMetric,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// ensureCurrentPeriod returns the open period covering now, creating it
// lazily from the subscription's billing window on first use. A company with
// no subscription at all has no period and never will, so that is
// ErrPeriodNotFound; a subscription in an unusable status is
// ErrSubscriptionNotActive.
func (a *PeriodAccumulator) ensureCurrentPeriod(ctx context.Context, companyID uint, now time.Time) (*metering.UsagePeriod, error) {
	sub, err := a.subRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, metering.ErrPeriodNotFound
	}
	if !sub.IsUsable() {
		return nil, metering.ErrSubscriptionNotActive
	}

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		period, err := a.periodRepo.GetOpenByCompanyID(ctx, companyID, now)
		if err != nil {
			return nil, err
		}
		if period != nil {
			return period, nil
		}

		// No period yet. The subscription's billing window must cover now;
		// when it does not, rollover is lagging and we fail closed rather
		// than meter against a stale window.
		if now.Before(sub.CurrentPeriodStart()) || !now.Before(sub.CurrentPeriodEnd()) {
			return nil, metering.ErrPeriodNotFound
		}

		sid, err := id.GenerateWithPrefix(id.PrefixUsagePeriod, id.DefaultLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate usage period SID: %w", err)
		}

		fresh, err := metering.NewUsagePeriod(sid, companyID, sub.ID(), sub.CurrentPeriodStart(), sub.CurrentPeriodEnd())
		if err != nil {
			return nil, err
		}

		err = a.periodRepo.Create(ctx, fresh)
		if err == nil {
			a.logger.Infow("usage period opened",
				"company_id", companyID,
				"period_start", fresh.PeriodStart(),
				"period_end", fresh.PeriodEnd())
			return fresh, nil
		}
		if !apperrors.IsDuplicateError(err) {
			return nil, fmt.Errorf("failed to create usage period: %w", err)
		}

		// Lost the creation race; re-read the winner's row.
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}

	return nil, fmt.Errorf("failed to resolve usage period after %d attempts: %w", createRetries, lastErr)
}
