package metering

import (
	"context"
	"time"
)

// UsagePeriodRepository persists usage periods. Counter mutations are atomic
// single-row read-modify-write operations so concurrent reservations never
// lose updates, even across process instances.
type UsagePeriodRepository interface {
	// Create inserts the period; duplicate (company_id, period_start) rows
	// must surface a duplicate-key error so lazy creation stays idempotent.
	Create(ctx context.Context, period *UsagePeriod) error
	GetByID(ctx context.Context, id uint) (*UsagePeriod, error)
	// GetOpenByCompanyID returns the company's period whose interval contains
	// the given instant and whose status is open or closing, or nil.
	GetOpenByCompanyID(ctx context.Context, companyID uint, at time.Time) (*UsagePeriod, error)
	// TryIncrementCounter atomically adds delta to one counter of an open
	// period, but only when the post-increment value would not exceed limit
	// (limit < 0 means no cap). The guard and the increment are one atomic
	// storage operation so concurrent reserves can neither lose updates nor
	// jointly overshoot the cap. Returns the counter value after the
	// increment. Returns a LimitExceededError when the increment would
	// overshoot, ErrPeriodClosing when the row no longer accepts
	// reservations, ErrPeriodNotFound when the row is missing.
	TryIncrementCounter(ctx context.Context, periodID uint, metric Metric, delta, limit int64) (int64, error)
	// CompensateCounter atomically subtracts amount from one counter while
	// the period is open or closing. Returns ErrPeriodClosed when the period
	// is already frozen.
	CompensateCounter(ctx context.Context, periodID uint, metric Metric, amount int64) error
	// MarkClosing transitions an open period to closing. Idempotent.
	MarkClosing(ctx context.Context, periodID uint) error
	// MarkClosed freezes a closing period. Idempotent.
	MarkClosed(ctx context.Context, periodID uint) error
	// ListExpiredOpen returns open periods whose period_end has passed.
	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*UsagePeriod, error)
	// ListByCompanyID returns the company's usage history newest first.
	ListByCompanyID(ctx context.Context, companyID uint, limit, offset int) ([]*UsagePeriod, error)
}

// ReservationRepository is the token registry. Status transitions are
// compare-and-swap so a token resolves exactly once.
type ReservationRepository interface {
	Create(ctx context.Context, r *Reservation) error
	GetByToken(ctx context.Context, token string) (*Reservation, error)
	// ResolveIfPending atomically moves a pending reservation to the target
	// resolved status. Returns false when the reservation was not pending.
	ResolveIfPending(ctx context.Context, token string, target ReservationStatus, resolvedAt time.Time) (bool, error)
	// CountPendingByPeriod returns the number of unresolved reservations
	// against the given usage period (the rollover drain barrier).
	CountPendingByPeriod(ctx context.Context, periodID uint) (int64, error)
	// ListPendingByPeriod returns unresolved reservations against a period.
	ListPendingByPeriod(ctx context.Context, periodID uint, limit int) ([]*Reservation, error)
	// ListExpiredPending returns pending reservations past their expiry.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*Reservation, error)
}
