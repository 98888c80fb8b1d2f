package usecases

import (
	"context"
	"fmt"

	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/shared/logger"
)

type ChangePlanCommand struct {
	CompanyID   uint
	NewPlanSlug string
}

type ChangePlanUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	quotaInvalidator QuotaCacheInvalidator
	logger           logger.Interface
}

func NewChangePlanUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	quotaInvalidator QuotaCacheInvalidator,
	logger logger.Interface,
) *ChangePlanUseCase {
	return &ChangePlanUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		quotaInvalidator: quotaInvalidator,
		logger:           logger,
	}
}

// Execute switches the company's subscription to a different plan. The new
// limits take effect immediately; usage already accumulated this period
// carries over unchanged.
func (uc *ChangePlanUseCase) Execute(ctx context.Context, cmd ChangePlanCommand) error {
	sub, err := uc.subscriptionRepo.GetActiveByCompanyID(ctx, cmd.CompanyID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "company_id", cmd.CompanyID)
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return subscription.ErrSubscriptionNotActive
	}

	plan, err := uc.planRepo.GetBySlug(ctx, cmd.NewPlanSlug)
	if err != nil {
		uc.logger.Warnw("plan lookup failed", "error", err, "plan_slug", cmd.NewPlanSlug)
		return err
	}
	if !plan.IsActive() {
		return subscription.ErrPlanInactive
	}

	if err := sub.ChangePlan(plan.ID()); err != nil {
		return err
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to persist plan change", "error", err, "company_id", cmd.CompanyID)
		return fmt.Errorf("failed to persist plan change: %w", err)
	}

	// Cached limits are stale the moment the plan changes.
	if uc.quotaInvalidator != nil {
		uc.quotaInvalidator.InvalidateCompany(ctx, cmd.CompanyID)
	}

	uc.logger.Infow("plan changed",
		"company_id", cmd.CompanyID,
		"subscription_sid", sub.SID(),
		"new_plan_slug", cmd.NewPlanSlug)
	return nil
}
