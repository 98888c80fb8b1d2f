package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrSubscriptionNotActive rejects billable actions for companies whose
	// subscription is past_due, cancelled, or missing.
	ErrSubscriptionNotActive   = errors.New("subscription not active")
	ErrSubscriptionExists      = errors.New("company already has a subscription")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	ErrPlanNotFound   = errors.New("subscription plan not found")
	ErrPlanInactive   = errors.New("subscription plan inactive")
	ErrPlanSlugExists = errors.New("plan slug already exists")
)

// ErrInvalidTransition wraps ErrInvalidStatusTransition with the attempted
// states.
func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
