package metering

import (
	"errors"
	"fmt"
)

var (
	// ErrSubscriptionNotActive denies metering for companies whose
	// subscription is missing or not in a usable status.
	ErrSubscriptionNotActive = errors.New("subscription not active")
	// ErrPeriodNotFound means no usage period exists and none can be created
	// because the company has no subscription.
	ErrPeriodNotFound = errors.New("usage period not found")
	// ErrPeriodClosing rejects reservations arriving while rollover is
	// draining the expiring period.
	ErrPeriodClosing = errors.New("usage period is closing")
	// ErrPeriodClosed rejects counter mutations against an immutable period.
	ErrPeriodClosed = errors.New("usage period is closed")
	// ErrTokenNotFound means the reservation token does not exist.
	ErrTokenNotFound = errors.New("reservation token not found")
	// ErrTokenAlreadyResolved rejects a second confirm or abandon of a token.
	ErrTokenAlreadyResolved = errors.New("reservation token already resolved")
	// ErrTokenExpired rejects resolution of a token past its expiry.
	ErrTokenExpired = errors.New("reservation token expired")
	// ErrUnknownMetric rejects metric names outside the metered set.
	ErrUnknownMetric = errors.New("unknown metric")
)

// LimitExceededError carries the denied metric and the numbers behind the
// denial so callers can render an upgrade prompt.
type LimitExceededError struct {
	Metric    Metric
	Limit     int64
	Used      int64
	Requested int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limit exceeded for %s: used=%d requested=%d limit=%d",
		e.Metric, e.Used, e.Requested, e.Limit)
}

// NewLimitExceededError builds a LimitExceededError for the given metric.
func NewLimitExceededError(metric Metric, limit, used, requested int64) error {
	return &LimitExceededError{
		Metric:    metric,
		Limit:     limit,
		Used:      used,
		Requested: requested,
	}
}

// IsLimitExceeded reports whether err is a LimitExceededError.
func IsLimitExceeded(err error) bool {
	var lee *LimitExceededError
	return errors.As(err, &lee)
}
