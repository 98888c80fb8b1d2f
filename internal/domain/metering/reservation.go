package metering

import (
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation token.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusCommitted ReservationStatus = "committed"
	ReservationStatusReleased  ReservationStatus = "released"
	ReservationStatusExpired   ReservationStatus = "expired"
)

var validReservationStatuses = map[ReservationStatus]bool{
	ReservationStatusPending:   true,
	ReservationStatusCommitted: true,
	ReservationStatusReleased:  true,
	ReservationStatusExpired:   true,
}

func (s ReservationStatus) String() string {
	return string(s)
}

// IsResolved reports whether the reservation reached a final state.
func (s ReservationStatus) IsResolved() bool {
	return s != ReservationStatusPending
}

// Reservation is a pending claim against quota capacity. The counter was
// already incremented when the reservation was created; committing keeps the
// increment, releasing or expiring compensates it.
type Reservation struct {
	id            uint
	token         string
	companyID     uint
	usagePeriodID uint
	metric        Metric
	amount        int64
	status        ReservationStatus
	expiresAt     time.Time
	resolvedAt    *time.Time
	createdAt     time.Time
}

func NewReservation(token string, companyID, usagePeriodID uint, metric Metric, amount int64, expiresAt time.Time) (*Reservation, error) {
	if token == "" {
		return nil, fmt.Errorf("reservation token is required")
	}
	if companyID == 0 {
		return nil, fmt.Errorf("company ID cannot be zero")
	}
	if usagePeriodID == 0 {
		return nil, fmt.Errorf("usage period ID cannot be zero")
	}
	if !metric.IsValid() {
		return nil, ErrUnknownMetric
	}
	if amount <= 0 {
		return nil, fmt.Errorf("reservation amount must be positive")
	}
	if expiresAt.IsZero() {
		return nil, fmt.Errorf("reservation expiry is required")
	}

	return &Reservation{
		token:         token,
		companyID:     companyID,
		usagePeriodID: usagePeriodID,
		metric:        metric,
		amount:        amount,
		status:        ReservationStatusPending,
		expiresAt:     expiresAt,
		createdAt:     time.Now(),
	}, nil
}

func ReconstructReservation(
	id uint,
	token string,
	companyID, usagePeriodID uint,
	metric Metric,
	amount int64,
	status ReservationStatus,
	expiresAt time.Time,
	resolvedAt *time.Time,
	createdAt time.Time,
) (*Reservation, error) {
	if id == 0 {
		return nil, fmt.Errorf("reservation ID cannot be zero")
	}
	if token == "" {
		return nil, fmt.Errorf("reservation token is required")
	}
	if !validReservationStatuses[status] {
		return nil, fmt.Errorf("invalid reservation status: %s", status)
	}

	return &Reservation{
		id:            id,
		token:         token,
		companyID:     companyID,
		usagePeriodID: usagePeriodID,
		metric:        metric,
		amount:        amount,
		status:        status,
		expiresAt:     expiresAt,
		resolvedAt:    resolvedAt,
		createdAt:     createdAt,
	}, nil
}

func (r *Reservation) ID() uint                  { return r.id }
func (r *Reservation) Token() string             { return r.token }
func (r *Reservation) CompanyID() uint           { return r.companyID }
func (r *Reservation) UsagePeriodID() uint       { return r.usagePeriodID }
func (r *Reservation) Metric() Metric            { return r.metric }
func (r *Reservation) Amount() int64             { return r.amount }
func (r *Reservation) Status() ReservationStatus { return r.status }
func (r *Reservation) ExpiresAt() time.Time      { return r.expiresAt }
func (r *Reservation) ResolvedAt() *time.Time    { return r.resolvedAt }
func (r *Reservation) CreatedAt() time.Time      { return r.createdAt }

// SetID sets the reservation ID (only for persistence layer use)
func (r *Reservation) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("reservation ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("reservation ID cannot be zero")
	}
	r.id = id
	return nil
}

// IsExpired reports whether the token's expiry has passed while still pending.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.status == ReservationStatusPending && !now.Before(r.expiresAt)
}

func (r *Reservation) resolve(target ReservationStatus, now time.Time) error {
	if r.status.IsResolved() {
		return ErrTokenAlreadyResolved
	}
	r.status = target
	r.resolvedAt = &now
	return nil
}

// Commit finalizes the reservation; the counter increment stands.
func (r *Reservation) Commit(now time.Time) error {
	if r.IsExpired(now) {
		return ErrTokenExpired
	}
	return r.resolve(ReservationStatusCommitted, now)
}

// Release abandons the reservation; the counter increment is compensated.
func (r *Reservation) Release(now time.Time) error {
	if r.IsExpired(now) {
		return ErrTokenExpired
	}
	return r.resolve(ReservationStatusReleased, now)
}

// Expire resolves an overdue pending reservation during a sweep.
func (r *Reservation) Expire(now time.Time) error {
	return r.resolve(ReservationStatusExpired, now)
}
