package usecases

import (
	"context"
	"fmt"
	"time"

	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/shared/id"
	"chatfleet/internal/shared/logger"
)

type CreateSubscriptionCommand struct {
	CompanyID uint
	PlanSlug  string
	WithTrial bool
}

type CreateSubscriptionResult struct {
	SubscriptionSID string
	Status          string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	TrialEnd        *time.Time
}

type CreateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	trialDays        int
	periodLengthDays int
	logger           logger.Interface
}

func NewCreateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	trialDays int,
	periodLengthDays int,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		trialDays:        trialDays,
		periodLengthDays: periodLengthDays,
		logger:           logger,
	}
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*CreateSubscriptionResult, error) {
	existing, err := uc.subscriptionRepo.GetActiveByCompanyID(ctx, cmd.CompanyID)
	if err != nil {
		uc.logger.Errorw("failed to check existing subscription", "error", err, "company_id", cmd.CompanyID)
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if existing != nil {
		return nil, subscription.ErrSubscriptionExists
	}

	plan, err := uc.planRepo.GetBySlug(ctx, cmd.PlanSlug)
	if err != nil {
		uc.logger.Warnw("plan lookup failed", "error", err, "plan_slug", cmd.PlanSlug)
		return nil, err
	}
	if !plan.IsActive() {
		return nil, subscription.ErrPlanInactive
	}

	sid, err := id.NewSubscriptionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscription SID: %w", err)
	}

	now := time.Now().UTC()
	periodEnd := uc.periodEnd(now)

	var trialEnd *time.Time
	if cmd.WithTrial && uc.trialDays > 0 {
		te := now.AddDate(0, 0, uc.trialDays)
		trialEnd = &te
	}

	sub, err := subscription.NewSubscription(sid, cmd.CompanyID, plan.ID(), now, periodEnd, trialEnd)
	if err != nil {
		return nil, err
	}

	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		uc.logger.Errorw("failed to create subscription", "error", err, "company_id", cmd.CompanyID)
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	uc.logger.Infow("subscription created",
		"subscription_sid", sid,
		"company_id", cmd.CompanyID,
		"plan_slug", cmd.PlanSlug,
		"status", sub.Status())

	return &CreateSubscriptionResult{
		SubscriptionSID: sid,
		Status:          sub.Status().String(),
		PeriodStart:     sub.CurrentPeriodStart(),
		PeriodEnd:       sub.CurrentPeriodEnd(),
		TrialEnd:        sub.TrialEnd(),
	}, nil
}

func (uc *CreateSubscriptionUseCase) periodEnd(from time.Time) time.Time {
	if uc.periodLengthDays > 0 {
		return from.AddDate(0, 0, uc.periodLengthDays)
	}
	return from.AddDate(0, 1, 0)
}
