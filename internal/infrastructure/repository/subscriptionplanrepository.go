package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"chatfleet/internal/domain/subscription"
	vo "chatfleet/internal/domain/subscription/valueobjects"
	"chatfleet/internal/infrastructure/persistence/models"
	"chatfleet/internal/shared/logger"
)

type SubscriptionPlanRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSubscriptionPlanRepository(db *gorm.DB, logger logger.Interface) subscription.PlanRepository {
	return &SubscriptionPlanRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *SubscriptionPlanRepositoryImpl) Create(ctx context.Context, plan *subscription.Plan) error {
	model, err := r.toModel(plan)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "error", err, "slug", plan.Slug())
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if plan.ID() == 0 && model.ID > 0 {
		if err := plan.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *SubscriptionPlanRepositoryImpl) Update(ctx context.Context, plan *subscription.Plan) error {
	model, err := r.toModel(plan)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		r.logger.Errorw("failed to update plan", "error", err, "plan_id", plan.ID())
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return nil
}

func (r *SubscriptionPlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	var model models.SubscriptionPlanModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, subscription.ErrPlanNotFound
		}
		r.logger.Errorw("failed to get plan", "error", err, "plan_id", id)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return r.toEntity(&model)
}

func (r *SubscriptionPlanRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*subscription.Plan, error) {
	var model models.SubscriptionPlanModel
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, subscription.ErrPlanNotFound
		}
		r.logger.Errorw("failed to get plan", "error", err, "slug", slug)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return r.toEntity(&model)
}

func (r *SubscriptionPlanRepositoryImpl) ListActive(ctx context.Context) ([]*subscription.Plan, error) {
	var planModels []*models.SubscriptionPlanModel
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price_monthly ASC").
		Find(&planModels).Error
	if err != nil {
		r.logger.Errorw("failed to list active plans", "error", err)
		return nil, fmt.Errorf("failed to list active plans: %w", err)
	}
	return r.toEntities(planModels)
}

func (r *SubscriptionPlanRepositoryImpl) List(ctx context.Context) ([]*subscription.Plan, error) {
	var planModels []*models.SubscriptionPlanModel
	err := r.db.WithContext(ctx).
		Order("price_monthly ASC").
		Find(&planModels).Error
	if err != nil {
		r.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return r.toEntities(planModels)
}

func (r *SubscriptionPlanRepositoryImpl) toModel(plan *subscription.Plan) (*models.SubscriptionPlanModel, error) {
	features, err := json.Marshal(plan.Features())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan features: %w", err)
	}

	limits := plan.Limits()
	return &models.SubscriptionPlanModel{
		ID:                       plan.ID(),
		SID:                      plan.SID(),
		Name:                     plan.Name(),
		Slug:                     plan.Slug(),
		Tier:                     string(plan.Tier()),
		Description:              plan.Description(),
		PriceMonthly:             plan.PriceMonthly(),
		PriceYearly:              plan.PriceYearly(),
		MaxChatbots:              limits.MaxChatbots,
		MaxConversationsPerMonth: limits.MaxConversationsPerMonth,
		MaxMessagesPerMonth:      limits.MaxMessagesPerMonth,
		MaxAPICallsPerMonth:      limits.MaxAPICallsPerMonth,
		MaxStorageMB:             limits.MaxStorageMB,
		Features:                 datatypes.JSON(features),
		IsActive:                 plan.IsActive(),
		CreatedAt:                plan.CreatedAt(),
		UpdatedAt:                plan.UpdatedAt(),
	}, nil
}

func (r *SubscriptionPlanRepositoryImpl) toEntity(model *models.SubscriptionPlanModel) (*subscription.Plan, error) {
	if model == nil {
		return nil, nil
	}

	features := make(map[string]bool)
	if len(model.Features) > 0 {
		if err := json.Unmarshal(model.Features, &features); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan features: %w", err)
		}
	}

	return subscription.ReconstructPlan(
		model.ID,
		model.SID,
		model.Name,
		model.Slug,
		subscription.PlanTier(model.Tier),
		model.Description,
		model.PriceMonthly,
		model.PriceYearly,
		vo.PlanLimits{
			MaxChatbots:              model.MaxChatbots,
			MaxConversationsPerMonth: model.MaxConversationsPerMonth,
			MaxMessagesPerMonth:      model.MaxMessagesPerMonth,
			MaxAPICallsPerMonth:      model.MaxAPICallsPerMonth,
			MaxStorageMB:             model.MaxStorageMB,
		},
		features,
		model.IsActive,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (r *SubscriptionPlanRepositoryImpl) toEntities(planModels []*models.SubscriptionPlanModel) ([]*subscription.Plan, error) {
	entities := make([]*subscription.Plan, 0, len(planModels))
	for _, model := range planModels {
		entity, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
