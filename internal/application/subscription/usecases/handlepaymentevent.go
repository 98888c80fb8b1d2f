package usecases

import (
	"context"
	"fmt"
	"time"

	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/shared/logger"
)

// Payment event types accepted from the billing provider webhook.
const (
	PaymentEventSucceeded = "payment.succeeded"
	PaymentEventFailed    = "payment.failed"
)

type HandlePaymentEventCommand struct {
	SubscriptionSID string
	EventType       string
	OccurredAt      time.Time
}

type HandlePaymentEventUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	quotaInvalidator QuotaCacheInvalidator
	logger           logger.Interface
}

func NewHandlePaymentEventUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	quotaInvalidator QuotaCacheInvalidator,
	logger logger.Interface,
) *HandlePaymentEventUseCase {
	return &HandlePaymentEventUseCase{
		subscriptionRepo: subscriptionRepo,
		quotaInvalidator: quotaInvalidator,
		logger:           logger,
	}
}

// Execute applies a billing provider payment event: success activates the
// subscription and records the payment date, failure marks it past due and
// suspends metered access until payment recovers.
func (uc *HandlePaymentEventUseCase) Execute(ctx context.Context, cmd HandlePaymentEventCommand) error {
	sub, err := uc.subscriptionRepo.GetBySID(ctx, cmd.SubscriptionSID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription for payment event",
			"error", err, "subscription_sid", cmd.SubscriptionSID)
		return fmt.Errorf("failed to get subscription: %w", err)
	}

	occurredAt := cmd.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	switch cmd.EventType {
	case PaymentEventSucceeded:
		if err := sub.RecordPayment(occurredAt); err != nil {
			return err
		}
	case PaymentEventFailed:
		if err := sub.MarkPastDue(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown payment event type: %s", cmd.EventType)
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to persist payment event",
			"error", err, "subscription_sid", cmd.SubscriptionSID)
		return fmt.Errorf("failed to persist payment event: %w", err)
	}

	// Status changes flip quota access; drop the cached limits.
	if uc.quotaInvalidator != nil {
		uc.quotaInvalidator.InvalidateCompany(ctx, sub.CompanyID())
	}

	uc.logger.Infow("payment event applied",
		"subscription_sid", cmd.SubscriptionSID,
		"event_type", cmd.EventType,
		"status", sub.Status())
	return nil
}
