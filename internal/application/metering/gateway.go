package metering

import (
	"context"

	"chatfleet/internal/domain/metering"
	"chatfleet/internal/shared/logger"
)

// EnforcementGateway is the entry point billable actions go through.
// Authorize evaluates quota and reserves capacity in one call; the caller
// performs its side effect and then resolves the returned token exactly once
// with Confirm or Abandon. Unresolved tokens are expired by the background
// sweep so abandoned work cannot pin capacity forever.
type EnforcementGateway struct {
	evaluator   *QuotaEvaluator
	accumulator *PeriodAccumulator
	logger      logger.Interface
}

func NewEnforcementGateway(evaluator *QuotaEvaluator, accumulator *PeriodAccumulator, log logger.Interface) *EnforcementGateway {
	return &EnforcementGateway{
		evaluator:   evaluator,
		accumulator: accumulator,
		logger:      log.Named("enforcement-gateway"),
	}
}

// AuthorizationResult carries the quota decision and, when allowed, the
// single-use token the caller must resolve.
type AuthorizationResult struct {
	Decision *metering.QuotaDecision
	Token    *metering.AuthorizationToken
}

// Authorize admits or denies a billable action of the given weight. On
// admission the metric counter is already incremented and a pending
// reservation holds the capacity until the caller confirms or abandons.
// Denials are returned as a decision, not an error; errors mean the gateway
// could not reach a decision and the caller must fail closed.
func (g *EnforcementGateway) Authorize(ctx context.Context, companyID uint, metric metering.Metric, amount int64) (*AuthorizationResult, error) {
	limit, err := g.evaluator.LimitFor(ctx, companyID, metric)
	if err != nil {
		if err == metering.ErrSubscriptionNotActive {
			return &AuthorizationResult{
				Decision: metering.Deny(metering.DenialReasonSubscriptionNotActive, metric, 0, 0, amount),
			}, nil
		}
		return nil, err
	}

	reservation, used, err := g.accumulator.Reserve(ctx, companyID, metric, amount, limit)
	if err != nil {
		switch {
		case metering.IsLimitExceeded(err):
			lee := err.(*metering.LimitExceededError)
			return &AuthorizationResult{
				Decision: metering.Deny(metering.DenialReasonLimitExceeded, metric, lee.Limit, lee.Used, lee.Requested),
			}, nil
		case err == metering.ErrPeriodClosing:
			return &AuthorizationResult{
				Decision: metering.Deny(metering.DenialReasonPeriodClosing, metric, limit, 0, amount),
			}, nil
		case err == metering.ErrSubscriptionNotActive:
			return &AuthorizationResult{
				Decision: metering.Deny(metering.DenialReasonSubscriptionNotActive, metric, 0, 0, amount),
			}, nil
		default:
			return nil, err
		}
	}

	g.logger.Debugw("action authorized",
		"company_id", companyID, "metric", metric, "amount", amount, "token", reservation.Token())

	return &AuthorizationResult{
		Decision: metering.Allow(metric, limit, used-amount, amount),
		Token: &metering.AuthorizationToken{
			Token:     reservation.Token(),
			Metric:    metric,
			Amount:    amount,
			ExpiresAt: reservation.ExpiresAt(),
		},
	}, nil
}

// Confirm finalizes an authorized action. The reserved capacity becomes
// permanent usage. A second resolution of the same token fails with
// ErrTokenAlreadyResolved; a token past its expiry fails with
// ErrTokenExpired.
func (g *EnforcementGateway) Confirm(ctx context.Context, token string) error {
	return g.accumulator.Commit(ctx, token)
}

// Abandon cancels an authorized action that never happened. The reserved
// capacity is returned to the pool.
func (g *EnforcementGateway) Abandon(ctx context.Context, token string) error {
	return g.accumulator.Release(ctx, token)
}
