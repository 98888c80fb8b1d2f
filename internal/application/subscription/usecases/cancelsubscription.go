package usecases

import (
	"context"
	"fmt"

	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/shared/logger"
)

type CancelSubscriptionCommand struct {
	CompanyID uint
	// AtPeriodEnd schedules the cancellation for the end of the current
	// billing period instead of cancelling immediately.
	AtPeriodEnd bool
}

type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	quotaInvalidator QuotaCacheInvalidator
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	quotaInvalidator QuotaCacheInvalidator,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		quotaInvalidator: quotaInvalidator,
		logger:           logger,
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) error {
	sub, err := uc.subscriptionRepo.GetByCompanyID(ctx, cmd.CompanyID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "company_id", cmd.CompanyID)
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return subscription.ErrSubscriptionNotFound
	}

	if cmd.AtPeriodEnd {
		if err := sub.ScheduleCancellation(); err != nil {
			return err
		}
	} else {
		if err := sub.Cancel(); err != nil {
			return err
		}
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to persist cancellation", "error", err, "company_id", cmd.CompanyID)
		return fmt.Errorf("failed to persist cancellation: %w", err)
	}

	if !cmd.AtPeriodEnd && uc.quotaInvalidator != nil {
		uc.quotaInvalidator.InvalidateCompany(ctx, cmd.CompanyID)
	}

	uc.logger.Infow("subscription cancellation recorded",
		"company_id", cmd.CompanyID,
		"subscription_sid", sub.SID(),
		"at_period_end", cmd.AtPeriodEnd)
	return nil
}
