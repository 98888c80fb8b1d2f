package metering

import (
	"context"
	"time"

	"chatfleet/internal/domain/metering"
	"chatfleet/internal/domain/subscription"
	vo "chatfleet/internal/domain/subscription/valueobjects"
	"chatfleet/internal/shared/logger"
)

// QuotaCache caches plan limits per company so the hot authorize path avoids
// two catalog reads per request. Implementations must treat a miss as normal.
type QuotaCache interface {
	GetLimits(ctx context.Context, companyID uint) (*vo.PlanLimits, bool, error)
	SetLimits(ctx context.Context, companyID uint, limits vo.PlanLimits) error
	Invalidate(ctx context.Context, companyID uint) error
}

// QuotaEvaluator answers "would this increment fit" without mutating
// anything. It is advisory under concurrency: the accumulator's post-increment
// check is the authority. Evaluate exists for dashboards, pre-flight checks
// and the gateway's fast-path denial.
type QuotaEvaluator struct {
	subRepo    subscription.SubscriptionRepository
	planRepo   subscription.PlanRepository
	periodRepo metering.UsagePeriodRepository
	cache      QuotaCache
	logger     logger.Interface
}

func NewQuotaEvaluator(
	subRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	periodRepo metering.UsagePeriodRepository,
	cache QuotaCache,
	log logger.Interface,
) *QuotaEvaluator {
	return &QuotaEvaluator{
		subRepo:    subRepo,
		planRepo:   planRepo,
		periodRepo: periodRepo,
		cache:      cache,
		logger:     log.Named("quota-evaluator"),
	}
}

// Evaluate checks whether adding amount to the company's metric counter would
// stay within the plan limit. Read-only: no counter, period or reservation is
// touched. Sent and received messages share one cap but each is evaluated
// against its own counter.
func (e *QuotaEvaluator) Evaluate(ctx context.Context, companyID uint, metric metering.Metric, amount int64) (*metering.QuotaDecision, error) {
	if !metric.IsValid() {
		return nil, metering.ErrUnknownMetric
	}

	limits, active, err := e.limitsForCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !active {
		return metering.Deny(metering.DenialReasonSubscriptionNotActive, metric, 0, 0, amount), nil
	}

	limit, _ := limits.For(metric.String())

	used, err := e.currentUsage(ctx, companyID, metric)
	if err != nil {
		return nil, err
	}

	if vo.IsUnlimited(limit) {
		return metering.Allow(metric, limit, used, amount), nil
	}
	if used+amount > limit {
		return metering.Deny(metering.DenialReasonLimitExceeded, metric, limit, used, amount), nil
	}
	return metering.Allow(metric, limit, used, amount), nil
}

// LimitFor resolves the plan limit applied to the metric for the company.
// Returns ErrSubscriptionNotActive when the company has no usable
// subscription.
func (e *QuotaEvaluator) LimitFor(ctx context.Context, companyID uint, metric metering.Metric) (int64, error) {
	limits, active, err := e.limitsForCompany(ctx, companyID)
	if err != nil {
		return 0, err
	}
	if !active {
		return 0, metering.ErrSubscriptionNotActive
	}
	limit, ok := limits.For(metric.String())
	if !ok {
		return 0, metering.ErrUnknownMetric
	}
	return limit, nil
}

// InvalidateCompany drops the cached limits after a plan change or
// subscription update.
func (e *QuotaEvaluator) InvalidateCompany(ctx context.Context, companyID uint) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, companyID); err != nil {
		e.logger.Warnw("failed to invalidate quota cache", "company_id", companyID, "error", err)
	}
}

func (e *QuotaEvaluator) limitsForCompany(ctx context.Context, companyID uint) (vo.PlanLimits, bool, error) {
	if e.cache != nil {
		if limits, found, err := e.cache.GetLimits(ctx, companyID); err != nil {
			// Cache trouble degrades to a catalog read, never to a denial.
			e.logger.Warnw("quota cache read failed", "company_id", companyID, "error", err)
		} else if found && limits != nil {
			return *limits, true, nil
		}
	}

	sub, err := e.subRepo.GetActiveByCompanyID(ctx, companyID)
	if err != nil {
		return vo.PlanLimits{}, false, err
	}
	if sub == nil || !sub.IsUsable() {
		return vo.PlanLimits{}, false, nil
	}

	plan, err := e.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return vo.PlanLimits{}, false, err
	}

	limits := plan.Limits()
	if e.cache != nil {
		if err := e.cache.SetLimits(ctx, companyID, limits); err != nil {
			e.logger.Warnw("quota cache write failed", "company_id", companyID, "error", err)
		}
	}
	return limits, true, nil
}

func (e *QuotaEvaluator) currentUsage(ctx context.Context, companyID uint, metric metering.Metric) (int64, error) {
	period, err := e.periodRepo.GetOpenByCompanyID(ctx, companyID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if period == nil {
		// Lazy creation semantics: no period yet means nothing consumed.
		return 0, nil
	}
	return period.Counter(metric), nil
}
