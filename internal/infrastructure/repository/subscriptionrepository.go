package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chatfleet/internal/domain/subscription"
	vo "chatfleet/internal/domain/subscription/valueobjects"
	"chatfleet/internal/infrastructure/persistence/models"
	"chatfleet/internal/shared/logger"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *subscription.Subscription) error {
	model := r.toModel(sub)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription", "error", err, "company_id", sub.CompanyID())
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if sub.ID() == 0 && model.ID > 0 {
		if err := sub.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

// Update persists the subscription guarded by its version: a concurrent
// writer that got there first makes this update a no-op error so the caller
// re-reads and retries on fresh state.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *subscription.Subscription) error {
	model := r.toModel(sub)

	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", sub.ID(), sub.Version()-1).
		Updates(map[string]interface{}{
			"plan_id":              model.PlanID,
			"status":               model.Status,
			"current_period_start": model.CurrentPeriodStart,
			"current_period_end":   model.CurrentPeriodEnd,
			"trial_end":            model.TrialEnd,
			"cancel_at_period_end": model.CancelAtPeriodEnd,
			"cancelled_at":         model.CancelledAt,
			"last_payment_date":    model.LastPaymentDate,
			"next_payment_date":    model.NextPaymentDate,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "error", result.Error, "subscription_id", sub.ID())
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("subscription %d was modified concurrently", sub.ID())
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, subscription.ErrSubscriptionNotFound
		}
		r.logger.Errorw("failed to get subscription", "error", err, "subscription_id", id)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return r.toEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, subscription.ErrSubscriptionNotFound
		}
		r.logger.Errorw("failed to get subscription", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return r.toEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetActiveByCompanyID(ctx context.Context, companyID uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND status IN ?", companyID,
			[]string{vo.StatusActive.String(), vo.StatusTrialing.String()}).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get active subscription", "error", err, "company_id", companyID)
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}
	return r.toEntity(&model)
}

func (r *SubscriptionRepositoryImpl) GetByCompanyID(ctx context.Context, companyID uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription", "error", err, "company_id", companyID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return r.toEntity(&model)
}

func (r *SubscriptionRepositoryImpl) ListPeriodDue(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel
	query := r.db.WithContext(ctx).
		Where("status IN ? AND current_period_end <= ?",
			[]string{vo.StatusActive.String(), vo.StatusTrialing.String()}, now).
		Order("current_period_end ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to list due subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	entities := make([]*subscription.Subscription, 0, len(subscriptionModels))
	for _, model := range subscriptionModels {
		entity, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (r *SubscriptionRepositoryImpl) toModel(sub *subscription.Subscription) *models.SubscriptionModel {
	return &models.SubscriptionModel{
		ID:                 sub.ID(),
		SID:                sub.SID(),
		CompanyID:          sub.CompanyID(),
		PlanID:             sub.PlanID(),
		Status:             sub.Status().String(),
		CurrentPeriodStart: sub.CurrentPeriodStart(),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd(),
		TrialEnd:           sub.TrialEnd(),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd(),
		CancelledAt:        sub.CancelledAt(),
		LastPaymentDate:    sub.LastPaymentDate(),
		NextPaymentDate:    sub.NextPaymentDate(),
		Version:            sub.Version(),
		CreatedAt:          sub.CreatedAt(),
		UpdatedAt:          sub.UpdatedAt(),
	}
}

func (r *SubscriptionRepositoryImpl) toEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}
	return subscription.ReconstructSubscription(
		model.ID,
		model.SID,
		model.CompanyID,
		model.PlanID,
		vo.SubscriptionStatus(model.Status),
		model.CurrentPeriodStart,
		model.CurrentPeriodEnd,
		model.TrialEnd,
		model.CancelAtPeriodEnd,
		model.CancelledAt,
		model.LastPaymentDate,
		model.NextPaymentDate,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}
