package usecases

import (
	"context"
	"fmt"

	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/shared/logger"
)

type ListPlansQuery struct {
	// IncludeInactive also returns retired catalog entries.
	IncludeInactive bool
}

type ListPlansUseCase struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewListPlansUseCase(planRepo subscription.PlanRepository, logger logger.Interface) *ListPlansUseCase {
	return &ListPlansUseCase{
		planRepo: planRepo,
		logger:   logger,
	}
}

func (uc *ListPlansUseCase) Execute(ctx context.Context, q ListPlansQuery) ([]*subscription.Plan, error) {
	var (
		plans []*subscription.Plan
		err   error
	)
	if q.IncludeInactive {
		plans, err = uc.planRepo.List(ctx)
	} else {
		plans, err = uc.planRepo.ListActive(ctx)
	}
	if err != nil {
		uc.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}
