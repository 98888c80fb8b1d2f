package usecases

import (
	"context"
	"fmt"
	"time"

	"chatfleet/internal/domain/metering"
	"chatfleet/internal/domain/subscription"
	vo "chatfleet/internal/domain/subscription/valueobjects"
	"chatfleet/internal/shared/logger"
)

type GetUsageQuery struct {
	CompanyID uint
}

// MetricUsage is one row of the dashboard usage summary.
type MetricUsage struct {
	Metric    string `json:"metric"`
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`     // -1 when unlimited
	Remaining int64  `json:"remaining"` // -1 when unlimited
}

type UsageSummary struct {
	PlanName     string        `json:"plan_name"`
	PlanSlug     string        `json:"plan_slug"`
	Status       string        `json:"status"`
	PeriodStart  time.Time     `json:"period_start"`
	PeriodEnd    time.Time     `json:"period_end"`
	PeriodStatus string        `json:"period_status"`
	Metrics      []MetricUsage `json:"metrics"`
}

type GetUsageUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	periodRepo       metering.UsagePeriodRepository
	logger           logger.Interface
}

func NewGetUsageUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	periodRepo metering.UsagePeriodRepository,
	logger logger.Interface,
) *GetUsageUseCase {
	return &GetUsageUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		periodRepo:       periodRepo,
		logger:           logger,
	}
}

// Execute assembles the current billing period usage against the plan limits.
// A company that has not metered anything yet gets a zeroed summary over the
// subscription's billing window.
func (uc *GetUsageUseCase) Execute(ctx context.Context, q GetUsageQuery) (*UsageSummary, error) {
	sub, err := uc.subscriptionRepo.GetByCompanyID(ctx, q.CompanyID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "company_id", q.CompanyID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	plan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		uc.logger.Errorw("failed to get plan", "error", err, "plan_id", sub.PlanID())
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	summary := &UsageSummary{
		PlanName:     plan.Name(),
		PlanSlug:     plan.Slug(),
		Status:       sub.Status().String(),
		PeriodStart:  sub.CurrentPeriodStart(),
		PeriodEnd:    sub.CurrentPeriodEnd(),
		PeriodStatus: metering.PeriodStatusOpen.String(),
	}

	counters := map[metering.Metric]int64{}
	period, err := uc.periodRepo.GetOpenByCompanyID(ctx, q.CompanyID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get usage period: %w", err)
	}
	if period != nil {
		counters = period.Counters()
		summary.PeriodStart = period.PeriodStart()
		summary.PeriodEnd = period.PeriodEnd()
		summary.PeriodStatus = period.Status().String()
	}

	limits := plan.Limits()
	for _, m := range metering.AllMetrics() {
		limit, _ := limits.For(m.String())
		used := counters[m]
		remaining := int64(-1)
		if !vo.IsUnlimited(limit) {
			remaining = limit - used
			if remaining < 0 {
				remaining = 0
			}
		}
		summary.Metrics = append(summary.Metrics, MetricUsage{
			Metric:    m.String(),
			Used:      used,
			Limit:     limit,
			Remaining: remaining,
		})
	}

	return summary, nil
}
