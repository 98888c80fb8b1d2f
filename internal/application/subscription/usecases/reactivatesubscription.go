package usecases

import (
	"context"
	"fmt"

	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/shared/logger"
)

type ReactivateSubscriptionCommand struct {
	CompanyID uint
}

// ReactivateSubscriptionUseCase undoes a scheduled end-of-period cancellation.
// A subscription that has already been cancelled cannot come back this way.
type ReactivateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewReactivateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *ReactivateSubscriptionUseCase {
	return &ReactivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *ReactivateSubscriptionUseCase) Execute(ctx context.Context, cmd ReactivateSubscriptionCommand) error {
	sub, err := uc.subscriptionRepo.GetByCompanyID(ctx, cmd.CompanyID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "company_id", cmd.CompanyID)
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return subscription.ErrSubscriptionNotFound
	}

	if err := sub.Reactivate(); err != nil {
		return err
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to persist reactivation", "error", err, "company_id", cmd.CompanyID)
		return fmt.Errorf("failed to persist reactivation: %w", err)
	}

	uc.logger.Infow("subscription reactivated",
		"company_id", cmd.CompanyID,
		"subscription_sid", sub.SID())
	return nil
}
