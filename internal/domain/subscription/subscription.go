package subscription

import (
	"fmt"
	"time"

	vo "chatfleet/internal/domain/subscription/valueobjects"
)

// Subscription binds a company to a plan for a billing relationship.
// Aggregate root; at most one non-cancelled subscription exists per company.
type Subscription struct {
	id                 uint
	sid                string
	companyID          uint
	planID             uint
	status             vo.SubscriptionStatus
	currentPeriodStart time.Time
	currentPeriodEnd   time.Time
	trialEnd           *time.Time
	cancelAtPeriodEnd  bool
	cancelledAt        *time.Time
	lastPaymentDate    *time.Time
	nextPaymentDate    *time.Time
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// NewSubscription creates a new subscription starting its first billing period
// at periodStart. A non-nil trialEnd starts the subscription trialing,
// otherwise it is created inactive pending first payment.
func NewSubscription(sid string, companyID, planID uint, periodStart, periodEnd time.Time, trialEnd *time.Time) (*Subscription, error) {
	if sid == "" {
		return nil, fmt.Errorf("subscription SID is required")
	}
	if companyID == 0 {
		return nil, fmt.Errorf("company ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("period end must be after period start")
	}

	status := vo.StatusInactive
	if trialEnd != nil {
		status = vo.StatusTrialing
	}

	now := time.Now()
	return &Subscription{
		sid:                sid,
		companyID:          companyID,
		planID:             planID,
		status:             status,
		currentPeriodStart: periodStart,
		currentPeriodEnd:   periodEnd,
		trialEnd:           trialEnd,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructSubscription reconstructs a subscription from persistence
func ReconstructSubscription(
	id uint,
	sid string,
	companyID, planID uint,
	status vo.SubscriptionStatus,
	currentPeriodStart, currentPeriodEnd time.Time,
	trialEnd *time.Time,
	cancelAtPeriodEnd bool,
	cancelledAt *time.Time,
	lastPaymentDate, nextPaymentDate *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if id == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if companyID == 0 {
		return nil, fmt.Errorf("company ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", status)
	}

	return &Subscription{
		id:                 id,
		sid:                sid,
		companyID:          companyID,
		planID:             planID,
		status:             status,
		currentPeriodStart: currentPeriodStart,
		currentPeriodEnd:   currentPeriodEnd,
		trialEnd:           trialEnd,
		cancelAtPeriodEnd:  cancelAtPeriodEnd,
		cancelledAt:        cancelledAt,
		lastPaymentDate:    lastPaymentDate,
		nextPaymentDate:    nextPaymentDate,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}, nil
}

func (s *Subscription) ID() uint                      { return s.id }
func (s *Subscription) SID() string                   { return s.sid }
func (s *Subscription) CompanyID() uint               { return s.companyID }
func (s *Subscription) PlanID() uint                  { return s.planID }
func (s *Subscription) Status() vo.SubscriptionStatus { return s.status }
func (s *Subscription) CurrentPeriodStart() time.Time { return s.currentPeriodStart }
func (s *Subscription) CurrentPeriodEnd() time.Time   { return s.currentPeriodEnd }
func (s *Subscription) TrialEnd() *time.Time          { return s.trialEnd }
func (s *Subscription) CancelAtPeriodEnd() bool       { return s.cancelAtPeriodEnd }
func (s *Subscription) CancelledAt() *time.Time       { return s.cancelledAt }
func (s *Subscription) LastPaymentDate() *time.Time   { return s.lastPaymentDate }
func (s *Subscription) NextPaymentDate() *time.Time   { return s.nextPaymentDate }
func (s *Subscription) Version() int                  { return s.version }
func (s *Subscription) CreatedAt() time.Time          { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time          { return s.updatedAt }

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	return nil
}

func (s *Subscription) touch() {
	s.updatedAt = time.Now()
	s.version++
}

// Activate transitions the subscription to active, typically on payment success.
func (s *Subscription) Activate() error {
	if s.status == vo.StatusActive {
		return nil
	}

	if !s.status.CanTransitionTo(vo.StatusActive) {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	s.status = vo.StatusActive
	s.touch()
	return nil
}

// MarkPastDue transitions the subscription to past_due on payment failure.
func (s *Subscription) MarkPastDue() error {
	if s.status == vo.StatusPastDue {
		return nil
	}

	if !s.status.CanTransitionTo(vo.StatusPastDue) {
		return ErrInvalidTransition(s.status.String(), vo.StatusPastDue.String())
	}

	s.status = vo.StatusPastDue
	s.touch()
	return nil
}

// Cancel cancels the subscription immediately. Cancelled is terminal.
func (s *Subscription) Cancel() error {
	if s.status == vo.StatusCancelled {
		return nil
	}

	if !s.status.CanTransitionTo(vo.StatusCancelled) {
		return ErrInvalidTransition(s.status.String(), vo.StatusCancelled.String())
	}

	now := time.Now()
	s.status = vo.StatusCancelled
	s.cancelledAt = &now
	s.cancelAtPeriodEnd = false
	s.touch()
	return nil
}

// ScheduleCancellation flags the subscription for cancellation at the end of
// the current billing period. Rollover performs the actual cancel.
func (s *Subscription) ScheduleCancellation() error {
	if !s.status.CanUseService() {
		return fmt.Errorf("cannot schedule cancellation for subscription with status %s", s.status)
	}

	if s.cancelAtPeriodEnd {
		return nil
	}

	s.cancelAtPeriodEnd = true
	s.touch()
	return nil
}

// Reactivate clears a pending end-of-period cancellation.
func (s *Subscription) Reactivate() error {
	if s.status == vo.StatusCancelled {
		return fmt.Errorf("%w: cannot reactivate a cancelled subscription", ErrSubscriptionNotActive)
	}

	if !s.cancelAtPeriodEnd {
		return nil
	}

	s.cancelAtPeriodEnd = false
	s.touch()
	return nil
}

// ChangePlan switches the subscription to a different plan effective immediately.
func (s *Subscription) ChangePlan(newPlanID uint) error {
	if newPlanID == 0 {
		return fmt.Errorf("new plan ID is required")
	}

	if newPlanID == s.planID {
		return nil
	}

	if !s.status.CanUseService() {
		return fmt.Errorf("cannot change plan for subscription with status %s", s.status)
	}

	s.planID = newPlanID
	s.touch()
	return nil
}

// AdvancePeriod rolls the billing window forward: the current period end
// becomes the next period start. Used by period rollover.
func (s *Subscription) AdvancePeriod(nextPeriodEnd time.Time) error {
	if !nextPeriodEnd.After(s.currentPeriodEnd) {
		return fmt.Errorf("next period end must be after current period end")
	}

	s.currentPeriodStart = s.currentPeriodEnd
	s.currentPeriodEnd = nextPeriodEnd
	s.nextPaymentDate = &nextPeriodEnd
	s.touch()
	return nil
}

// RecordPayment records a successful payment and activates the subscription
// if it is not already active.
func (s *Subscription) RecordPayment(paidAt time.Time) error {
	s.lastPaymentDate = &paidAt

	if s.status != vo.StatusActive {
		if err := s.Activate(); err != nil {
			return err
		}
		return nil
	}

	s.touch()
	return nil
}

// IsInTrial reports whether the subscription is within an unexpired trial window.
func (s *Subscription) IsInTrial() bool {
	if s.trialEnd == nil || s.status != vo.StatusTrialing {
		return false
	}
	return time.Now().Before(*s.trialEnd)
}

// IsUsable reports whether billable actions are allowed right now.
func (s *Subscription) IsUsable() bool {
	return s.status.CanUseService()
}

// PeriodDue reports whether the current billing period has ended as of now.
// Period intervals are half-open: [start, end).
func (s *Subscription) PeriodDue(now time.Time) bool {
	return !now.Before(s.currentPeriodEnd)
}

// Validate performs domain-level validation
func (s *Subscription) Validate() error {
	if s.companyID == 0 {
		return fmt.Errorf("company ID is required")
	}
	if s.planID == 0 {
		return fmt.Errorf("plan ID is required")
	}
	if !vo.ValidStatuses[s.status] {
		return fmt.Errorf("invalid status: %s", s.status)
	}
	if !s.currentPeriodEnd.After(s.currentPeriodStart) {
		return fmt.Errorf("current period end must be after current period start")
	}
	return nil
}
