package usecases

import (
	"context"
	"fmt"

	"chatfleet/internal/domain/subscription"
	vo "chatfleet/internal/domain/subscription/valueobjects"
	"chatfleet/internal/shared/id"
	"chatfleet/internal/shared/logger"
)

type CreatePlanCommand struct {
	Name         string
	Slug         string
	Tier         string
	Description  string
	PriceMonthly uint64
	PriceYearly  uint64
	Limits       vo.PlanLimits
	Features     map[string]bool
}

type CreatePlanUseCase struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewCreatePlanUseCase(planRepo subscription.PlanRepository, logger logger.Interface) *CreatePlanUseCase {
	return &CreatePlanUseCase{
		planRepo: planRepo,
		logger:   logger,
	}
}

func (uc *CreatePlanUseCase) Execute(ctx context.Context, cmd CreatePlanCommand) (*subscription.Plan, error) {
	if existing, err := uc.planRepo.GetBySlug(ctx, cmd.Slug); err == nil && existing != nil {
		return nil, subscription.ErrPlanSlugExists
	}

	sid, err := id.NewPlanID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan SID: %w", err)
	}

	plan, err := subscription.NewPlan(sid, cmd.Name, cmd.Slug, subscription.PlanTier(cmd.Tier), cmd.PriceMonthly, cmd.PriceYearly, cmd.Limits)
	if err != nil {
		return nil, err
	}
	if cmd.Description != "" {
		plan.SetDescription(cmd.Description)
	}
	for name, enabled := range cmd.Features {
		plan.SetFeature(name, enabled)
	}

	if err := uc.planRepo.Create(ctx, plan); err != nil {
		uc.logger.Errorw("failed to create plan", "error", err, "slug", cmd.Slug)
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	uc.logger.Infow("plan created", "plan_sid", sid, "slug", cmd.Slug, "tier", cmd.Tier)
	return plan, nil
}
