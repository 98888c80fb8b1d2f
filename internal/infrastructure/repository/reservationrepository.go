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

type ReservationRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewReservationRepository(db *gorm.DB, logger logger.Interface) metering.ReservationRepository {
	return &ReservationRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *ReservationRepositoryImpl) Create(ctx context.Context, reservation *metering.Reservation) error {
	model := r.toModel(reservation)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create reservation", "error", err, "token", reservation.Token())
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	if reservation.ID() == 0 && model.ID > 0 {
		if err := reservation.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReservationRepositoryImpl) GetByToken(ctx context.Context, token string) (*metering.Reservation, error) {
	var model models.ReservationModel
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, metering.ErrTokenNotFound
		}
		r.logger.Errorw("failed to get reservation", "error", err, "token", token)
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r.toEntity(&model)
}

// ResolveIfPending is the single-use guarantee: the guarded UPDATE only
// matches a pending row, so of two racing resolutions exactly one wins.
func (r *ReservationRepositoryImpl) ResolveIfPending(ctx context.Context, token string, target metering.ReservationStatus, resolvedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReservationModel{}).
		Where("token = ? AND status = ?", token, metering.ReservationStatusPending.String()).
		Updates(map[string]interface{}{
			"status":      target.String(),
			"resolved_at": resolvedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to resolve reservation", "error", result.Error, "token", token)
		return false, fmt.Errorf("failed to resolve reservation: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Distinguish an unknown token from a lost race.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.ReservationModel{}).
			Where("token = ?", token).
			Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to resolve reservation: %w", err)
		}
		if count == 0 {
			return false, metering.ErrTokenNotFound
		}
		return false, nil
	}
	return true, nil
}

func (r *ReservationRepositoryImpl) CountPendingByPeriod(ctx context.Context, periodID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReservationModel{}).
		Where("usage_period_id = ? AND status = ?", periodID, metering.ReservationStatusPending.String()).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to count pending reservations", "error", err, "period_id", periodID)
		return 0, fmt.Errorf("failed to count pending reservations: %w", err)
	}
	return count, nil
}

func (r *ReservationRepositoryImpl) ListPendingByPeriod(ctx context.Context, periodID uint, limit int) ([]*metering.Reservation, error) {
	var reservationModels []*models.ReservationModel
	query := r.db.WithContext(ctx).
		Where("usage_period_id = ? AND status = ?", periodID, metering.ReservationStatusPending.String()).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reservationModels).Error; err != nil {
		r.logger.Errorw("failed to list pending reservations", "error", err, "period_id", periodID)
		return nil, fmt.Errorf("failed to list pending reservations: %w", err)
	}
	return r.toEntities(reservationModels)
}

func (r *ReservationRepositoryImpl) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*metering.Reservation, error) {
	var reservationModels []*models.ReservationModel
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", metering.ReservationStatusPending.String(), now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reservationModels).Error; err != nil {
		r.logger.Errorw("failed to list expired reservations", "error", err)
		return nil, fmt.Errorf("failed to list expired reservations: %w", err)
	}
	return r.toEntities(reservationModels)
}

func (r *ReservationRepositoryImpl) toModel(reservation *metering.Reservation) *models.ReservationModel {
	return &models.ReservationModel{
		ID:            reservation.ID(),
		Token:         reservation.Token(),
		CompanyID:     reservation.CompanyID(),
		UsagePeriodID: reservation.UsagePeriodID(),
		Metric:        reservation.Metric().String(),
		Amount:        reservation.Amount(),
		Status:        reservation.Status().String(),
		ExpiresAt:     reservation.ExpiresAt(),
		ResolvedAt:    reservation.ResolvedAt(),
		CreatedAt:     reservation.CreatedAt(),
	}
}

func (r *ReservationRepositoryImpl) toEntity(model *models.ReservationModel) (*metering.Reservation, error) {
	if model == nil {
		return nil, nil
	}
	return metering.ReconstructReservation(
		model.ID,
		model.Token,
		model.CompanyID,
		model.UsagePeriodID,
		metering.Metric(model.Metric),
		model.Amount,
		metering.ReservationStatus(model.Status),
		model.ExpiresAt,
		model.ResolvedAt,
		model.CreatedAt,
	)
}

func (r *ReservationRepositoryImpl) toEntities(reservationModels []*models.ReservationModel) ([]*metering.Reservation, error) {
	entities := make([]*metering.Reservation, 0, len(reservationModels))
	for _, model := range reservationModels {
		entity, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
