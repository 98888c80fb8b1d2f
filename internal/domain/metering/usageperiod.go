package metering

import (
	"fmt"
	"time"
)

// PeriodStatus is the lifecycle state of a usage period.
// Open accepts reservations; Closing drains outstanding reservations during
// rollover; Closed is an immutable historical record.
type PeriodStatus string

const (
	PeriodStatusOpen    PeriodStatus = "open"
	PeriodStatusClosing PeriodStatus = "closing"
	PeriodStatusClosed  PeriodStatus = "closed"
)

var validPeriodStatuses = map[PeriodStatus]bool{
	PeriodStatusOpen:    true,
	PeriodStatusClosing: true,
	PeriodStatusClosed:  true,
}

func (s PeriodStatus) String() string {
	return string(s)
}

// UsagePeriod is the per-company counter set for one billing period.
// Exactly one row exists per (company, period_start); counters are mutated
// only through atomic increments while the period is open or closing.
type UsagePeriod struct {
	id             uint
	sid            string
	companyID      uint
	subscriptionID uint
	periodStart    time.Time
	periodEnd      time.Time
	status         PeriodStatus
	counters       map[Metric]int64
	createdAt      time.Time
	updatedAt      time.Time
}

// NewUsagePeriod opens a zeroed usage period over the half-open interval
// [periodStart, periodEnd).
func NewUsagePeriod(sid string, companyID, subscriptionID uint, periodStart, periodEnd time.Time) (*UsagePeriod, error) {
	if sid == "" {
		return nil, fmt.Errorf("usage period SID is required")
	}
	if companyID == 0 {
		return nil, fmt.Errorf("company ID cannot be zero")
	}
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("period end must be after period start")
	}

	counters := make(map[Metric]int64, len(AllMetrics()))
	for _, m := range AllMetrics() {
		counters[m] = 0
	}

	now := time.Now()
	return &UsagePeriod{
		sid:            sid,
		companyID:      companyID,
		subscriptionID: subscriptionID,
		periodStart:    periodStart,
		periodEnd:      periodEnd,
		status:         PeriodStatusOpen,
		counters:       counters,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructUsagePeriod reconstructs a usage period from persistence.
func ReconstructUsagePeriod(
	id uint,
	sid string,
	companyID, subscriptionID uint,
	periodStart, periodEnd time.Time,
	status PeriodStatus,
	counters map[Metric]int64,
	createdAt, updatedAt time.Time,
) (*UsagePeriod, error) {
	if id == 0 {
		return nil, fmt.Errorf("usage period ID cannot be zero")
	}
	if companyID == 0 {
		return nil, fmt.Errorf("company ID cannot be zero")
	}
	if !validPeriodStatuses[status] {
		return nil, fmt.Errorf("invalid period status: %s", status)
	}
	if counters == nil {
		counters = make(map[Metric]int64)
	}

	return &UsagePeriod{
		id:             id,
		sid:            sid,
		companyID:      companyID,
		subscriptionID: subscriptionID,
		periodStart:    periodStart,
		periodEnd:      periodEnd,
		status:         status,
		counters:       counters,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

func (p *UsagePeriod) ID() uint              { return p.id }
func (p *UsagePeriod) SID() string           { return p.sid }
func (p *UsagePeriod) CompanyID() uint       { return p.companyID }
func (p *UsagePeriod) SubscriptionID() uint  { return p.subscriptionID }
func (p *UsagePeriod) PeriodStart() time.Time { return p.periodStart }
func (p *UsagePeriod) PeriodEnd() time.Time  { return p.periodEnd }
func (p *UsagePeriod) Status() PeriodStatus  { return p.status }
func (p *UsagePeriod) CreatedAt() time.Time  { return p.createdAt }
func (p *UsagePeriod) UpdatedAt() time.Time  { return p.updatedAt }

// Counter returns the current value of the given metric.
func (p *UsagePeriod) Counter(metric Metric) int64 {
	return p.counters[metric]
}

// Counters returns a copy of all counters.
func (p *UsagePeriod) Counters() map[Metric]int64 {
	out := make(map[Metric]int64, len(p.counters))
	for k, v := range p.counters {
		out[k] = v
	}
	return out
}

// Contains reports whether t falls inside the half-open billing interval
// [periodStart, periodEnd).
func (p *UsagePeriod) Contains(t time.Time) bool {
	return !t.Before(p.periodStart) && t.Before(p.periodEnd)
}

// Expired reports whether the period's end has passed as of now.
func (p *UsagePeriod) Expired(now time.Time) bool {
	return !now.Before(p.periodEnd)
}

func (p *UsagePeriod) IsOpen() bool    { return p.status == PeriodStatusOpen }
func (p *UsagePeriod) IsClosing() bool { return p.status == PeriodStatusClosing }
func (p *UsagePeriod) IsClosed() bool  { return p.status == PeriodStatusClosed }

// BeginClosing transitions the period from open to closing. New reservations
// are rejected from this point on.
func (p *UsagePeriod) BeginClosing() error {
	if p.status == PeriodStatusClosing {
		return nil
	}
	if p.status != PeriodStatusOpen {
		return ErrPeriodClosed
	}

	p.status = PeriodStatusClosing
	p.updatedAt = time.Now()
	return nil
}

// Close freezes the period. Counters become immutable history.
func (p *UsagePeriod) Close() error {
	if p.status == PeriodStatusClosed {
		return nil
	}
	if p.status != PeriodStatusClosing {
		return fmt.Errorf("cannot close usage period with status %s", p.status)
	}

	p.status = PeriodStatusClosed
	p.updatedAt = time.Now()
	return nil
}

// SetID sets the usage period ID (only for persistence layer use)
func (p *UsagePeriod) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("usage period ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("usage period ID cannot be zero")
	}
	p.id = id
	return nil
}

// HasUsage reports whether any counter is non-zero.
func (p *UsagePeriod) HasUsage() bool {
	for _, v := range p.counters {
		if v != 0 {
			return true
		}
	}
	return false
}
