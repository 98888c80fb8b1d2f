package usecases

import (
	"context"
	"fmt"
	"time"

	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/shared/logger"
)

type GetSubscriptionQuery struct {
	CompanyID uint
}

type SubscriptionDetails struct {
	SID               string     `json:"sid"`
	PlanSlug          string     `json:"plan_slug"`
	PlanName          string     `json:"plan_name"`
	Status            string     `json:"status"`
	PeriodStart       time.Time  `json:"period_start"`
	PeriodEnd         time.Time  `json:"period_end"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	LastPaymentDate   *time.Time `json:"last_payment_date,omitempty"`
	NextPaymentDate   *time.Time `json:"next_payment_date,omitempty"`
}

type GetSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	logger           logger.Interface
}

func NewGetSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	logger logger.Interface,
) *GetSubscriptionUseCase {
	return &GetSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		logger:           logger,
	}
}

func (uc *GetSubscriptionUseCase) Execute(ctx context.Context, q GetSubscriptionQuery) (*SubscriptionDetails, error) {
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

	return &SubscriptionDetails{
		SID:               sub.SID(),
		PlanSlug:          plan.Slug(),
		PlanName:          plan.Name(),
		Status:            sub.Status().String(),
		PeriodStart:       sub.CurrentPeriodStart(),
		PeriodEnd:         sub.CurrentPeriodEnd(),
		TrialEnd:          sub.TrialEnd(),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd(),
		LastPaymentDate:   sub.LastPaymentDate(),
		NextPaymentDate:   sub.NextPaymentDate(),
	}, nil
}
