package metering

import "time"

// DenialReason names the limit or state that caused a quota denial.
type DenialReason string

const (
	DenialReasonNone                 DenialReason = ""
	DenialReasonSubscriptionNotActive DenialReason = "subscription_not_active"
	DenialReasonLimitExceeded        DenialReason = "limit_exceeded"
	DenialReasonPeriodClosing        DenialReason = "period_closing"
)

// QuotaDecision is the ephemeral result of evaluating a requested increment
// against the company's plan limits. Never persisted.
type QuotaDecision struct {
	Allowed   bool
	Reason    DenialReason
	Metric    Metric
	Limit     int64 // -1 when unlimited
	Used      int64
	Requested int64
	Remaining int64 // -1 when unlimited
}

// Allow builds an allowing decision.
func Allow(metric Metric, limit, used, requested int64) *QuotaDecision {
	remaining := int64(-1)
	if limit >= 0 {
		remaining = limit - used - requested
		if remaining < 0 {
			remaining = 0
		}
	}
	return &QuotaDecision{
		Allowed:   true,
		Metric:    metric,
		Limit:     limit,
		Used:      used,
		Requested: requested,
		Remaining: remaining,
	}
}

// Deny builds a denying decision with the given reason.
func Deny(reason DenialReason, metric Metric, limit, used, requested int64) *QuotaDecision {
	remaining := int64(0)
	if limit >= 0 && limit > used {
		remaining = limit - used
	}
	return &QuotaDecision{
		Allowed:   false,
		Reason:    reason,
		Metric:    metric,
		Limit:     limit,
		Used:      used,
		Requested: requested,
		Remaining: remaining,
	}
}

// AuthorizationToken is handed to a caller whose billable action was
// authorized. The caller must confirm or abandon it exactly once.
type AuthorizationToken struct {
	Token     string
	Metric    Metric
	Amount    int64
	ExpiresAt time.Time
}
