package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chatfleet/internal/domain/metering"
	"chatfleet/internal/infrastructure/persistence/models"
	"chatfleet/internal/shared/logger"
)

// metricColumns whitelists the counter column for each metric; counters are
// referenced inside raw UPDATE expressions and must never come from input.
var metricColumns = map[metering.Metric]string{
	metering.MetricChatbots:         "chatbots_used",
	metering.MetricConversations:    "conversations_count",
	metering.MetricMessagesSent:     "messages_sent",
	metering.MetricMessagesReceived: "messages_received",
	metering.MetricAPICalls:         "api_calls_count",
	metering.MetricStorageMB:        "storage_used_mb",
}

type UsagePeriodRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUsagePeriodRepository(db *gorm.DB, logger logger.Interface) metering.UsagePeriodRepository {
	return &UsagePeriodRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *UsagePeriodRepositoryImpl) Create(ctx context.Context, period *metering.UsagePeriod) error {
	model := r.toModel(period)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		// Duplicate (company_id, period_start) surfaces to the caller so
		// lazy creation can re-read the winning row.
		return err
	}

	if period.ID() == 0 && model.ID > 0 {
		if err := period.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *UsagePeriodRepositoryImpl) GetByID(ctx context.Context, id uint) (*metering.UsagePeriod, error) {
	var model models.UsagePeriodModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, metering.ErrPeriodNotFound
		}
		r.logger.Errorw("failed to get usage period", "error", err, "period_id", id)
		return nil, fmt.Errorf("failed to get usage period: %w", err)
	}
	return r.toEntity(&model)
}

func (r *UsagePeriodRepositoryImpl) GetOpenByCompanyID(ctx context.Context, companyID uint, at time.Time) (*metering.UsagePeriod, error) {
	var model models.UsagePeriodModel
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND status IN ? AND period_start <= ? AND period_end > ?",
			companyID, []string{metering.PeriodStatusOpen.String(), metering.PeriodStatusClosing.String()}, at, at).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get open usage period", "error", err, "company_id", companyID)
		return nil, fmt.Errorf("failed to get open usage period: %w", err)
	}
	return r.toEntity(&model)
}

func (r *UsagePeriodRepositoryImpl) TryIncrementCounter(ctx context.Context, periodID uint, metric metering.Metric, delta, limit int64) (int64, error) {
	col, ok := metricColumns[metric]
	if !ok {
		return 0, metering.ErrUnknownMetric
	}

	// Guard and increment in one statement: the row update is atomic, so
	// concurrent reserves serialize on the row and the cap can never be
	// jointly overshot.
	query := r.db.WithContext(ctx).
		Model(&models.UsagePeriodModel{}).
		Where("id = ? AND status = ?", periodID, metering.PeriodStatusOpen.String())
	if limit >= 0 {
		query = query.Where(col+" + ? <= ?", delta, limit)
	}
	result := query.UpdateColumn(col, gorm.Expr(col+" + ?", delta))
	if result.Error != nil {
		r.logger.Errorw("failed to increment usage counter",
			"error", result.Error, "period_id", periodID, "metric", metric)
		return 0, fmt.Errorf("failed to increment usage counter: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return 0, r.classifyRejectedIncrement(ctx, periodID, metric, col, delta, limit)
	}

	// The read-back may include later concurrent increments; it is
	// informational, the admission itself was decided by the UPDATE.
	var value int64
	if err := r.db.WithContext(ctx).
		Model(&models.UsagePeriodModel{}).
		Select(col).
		Where("id = ?", periodID).
		Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("failed to read counter after increment: %w", err)
	}
	return value, nil
}

func (r *UsagePeriodRepositoryImpl) classifyRejectedIncrement(ctx context.Context, periodID uint, metric metering.Metric, col string, delta, limit int64) error {
	var model models.UsagePeriodModel
	err := r.db.WithContext(ctx).First(&model, periodID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return metering.ErrPeriodNotFound
		}
		return fmt.Errorf("failed to classify rejected increment: %w", err)
	}

	switch metering.PeriodStatus(model.Status) {
	case metering.PeriodStatusClosing:
		return metering.ErrPeriodClosing
	case metering.PeriodStatusClosed:
		return metering.ErrPeriodClosed
	}

	var used int64
	switch col {
	case "chatbots_used":
		used = model.ChatbotsUsed
	case "conversations_count":
		used = model.ConversationsCount
	case "messages_sent":
		used = model.MessagesSent
	case "messages_received":
		used = model.MessagesReceived
	case "api_calls_count":
		used = model.APICallsCount
	case "storage_used_mb":
		used = model.StorageUsedMB
	}
	return metering.NewLimitExceededError(metric, limit, used, delta)
}

func (r *UsagePeriodRepositoryImpl) CompensateCounter(ctx context.Context, periodID uint, metric metering.Metric, amount int64) error {
	col, ok := metricColumns[metric]
	if !ok {
		return metering.ErrUnknownMetric
	}

	result := r.db.WithContext(ctx).
		Model(&models.UsagePeriodModel{}).
		Where("id = ? AND status IN ?", periodID,
			[]string{metering.PeriodStatusOpen.String(), metering.PeriodStatusClosing.String()}).
		UpdateColumn(col, gorm.Expr(col+" - ?", amount))
	if result.Error != nil {
		r.logger.Errorw("failed to compensate usage counter",
			"error", result.Error, "period_id", periodID, "metric", metric)
		return fmt.Errorf("failed to compensate usage counter: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var model models.UsagePeriodModel
		err := r.db.WithContext(ctx).First(&model, periodID).Error
		if err == gorm.ErrRecordNotFound {
			return metering.ErrPeriodNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to compensate usage counter: %w", err)
		}
		return metering.ErrPeriodClosed
	}
	return nil
}

func (r *UsagePeriodRepositoryImpl) MarkClosing(ctx context.Context, periodID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.UsagePeriodModel{}).
		Where("id = ? AND status = ?", periodID, metering.PeriodStatusOpen.String()).
		Update("status", metering.PeriodStatusClosing.String())
	if result.Error != nil {
		return fmt.Errorf("failed to mark period closing: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var model models.UsagePeriodModel
	err := r.db.WithContext(ctx).First(&model, periodID).Error
	if err == gorm.ErrRecordNotFound {
		return metering.ErrPeriodNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to mark period closing: %w", err)
	}
	if metering.PeriodStatus(model.Status) == metering.PeriodStatusClosing {
		return nil
	}
	return metering.ErrPeriodClosed
}

func (r *UsagePeriodRepositoryImpl) MarkClosed(ctx context.Context, periodID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.UsagePeriodModel{}).
		Where("id = ? AND status = ?", periodID, metering.PeriodStatusClosing.String()).
		Update("status", metering.PeriodStatusClosed.String())
	if result.Error != nil {
		return fmt.Errorf("failed to mark period closed: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var model models.UsagePeriodModel
	err := r.db.WithContext(ctx).First(&model, periodID).Error
	if err == gorm.ErrRecordNotFound {
		return metering.ErrPeriodNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to mark period closed: %w", err)
	}
	if metering.PeriodStatus(model.Status) == metering.PeriodStatusClosed {
		return nil
	}
	return fmt.Errorf("cannot close usage period with status %s", model.Status)
}

func (r *UsagePeriodRepositoryImpl) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*metering.UsagePeriod, error) {
	var periodModels []*models.UsagePeriodModel
	query := r.db.WithContext(ctx).
		Where("status = ? AND period_end <= ?", metering.PeriodStatusOpen.String(), now).
		Order("period_end ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&periodModels).Error; err != nil {
		r.logger.Errorw("failed to list expired periods", "error", err)
		return nil, fmt.Errorf("failed to list expired periods: %w", err)
	}
	return r.toEntities(periodModels)
}

func (r *UsagePeriodRepositoryImpl) ListByCompanyID(ctx context.Context, companyID uint, limit, offset int) ([]*metering.UsagePeriod, error) {
	var periodModels []*models.UsagePeriodModel
	query := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("period_start DESC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&periodModels).Error; err != nil {
		r.logger.Errorw("failed to list usage periods", "error", err, "company_id", companyID)
		return nil, fmt.Errorf("failed to list usage periods: %w", err)
	}
	return r.toEntities(periodModels)
}

func (r *UsagePeriodRepositoryImpl) toModel(period *metering.UsagePeriod) *models.UsagePeriodModel {
	counters := period.Counters()
	return &models.UsagePeriodModel{
		ID:                 period.ID(),
		SID:                period.SID(),
		CompanyID:          period.CompanyID(),
		SubscriptionID:     period.SubscriptionID(),
		PeriodStart:        period.PeriodStart(),
		PeriodEnd:          period.PeriodEnd(),
		Status:             period.Status().String(),
		ChatbotsUsed:       counters[metering.MetricChatbots],
		ConversationsCount: counters[metering.MetricConversations],
		MessagesSent:       counters[metering.MetricMessagesSent],
		MessagesReceived:   counters[metering.MetricMessagesReceived],
		APICallsCount:      counters[metering.MetricAPICalls],
		StorageUsedMB:      counters[metering.MetricStorageMB],
		CreatedAt:          period.CreatedAt(),
		UpdatedAt:          period.UpdatedAt(),
	}
}

func (r *UsagePeriodRepositoryImpl) toEntity(model *models.UsagePeriodModel) (*metering.UsagePeriod, error) {
	if model == nil {
		return nil, nil
	}
	counters := map[metering.Metric]int64{
		metering.MetricChatbots:         model.ChatbotsUsed,
		metering.MetricConversations:    model.ConversationsCount,
		metering.MetricMessagesSent:     model.MessagesSent,
		metering.MetricMessagesReceived: model.MessagesReceived,
		metering.MetricAPICalls:         model.APICallsCount,
		metering.MetricStorageMB:        model.StorageUsedMB,
	}
	return metering.ReconstructUsagePeriod(
		model.ID,
		model.SID,
		model.CompanyID,
		model.SubscriptionID,
		model.PeriodStart,
		model.PeriodEnd,
		metering.PeriodStatus(model.Status),
		counters,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (r *UsagePeriodRepositoryImpl) toEntities(periodModels []*models.UsagePeriodModel) ([]*metering.UsagePeriod, error) {
	entities := make([]*metering.UsagePeriod, 0, len(periodModels))
	for _, model := range periodModels {
		entity, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
