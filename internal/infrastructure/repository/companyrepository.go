package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chatfleet/internal/domain/company"
	"chatfleet/internal/infrastructure/persistence/models"
	"chatfleet/internal/shared/logger"
)

type CompanyRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewCompanyRepository(db *gorm.DB, logger logger.Interface) company.Repository {
	return &CompanyRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *CompanyRepositoryImpl) Create(ctx context.Context, c *company.Company) error {
	model := r.toModel(c)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create company", "error", err, "name", c.Name())
		return fmt.Errorf("failed to create company: %w", err)
	}

	if c.ID() == 0 && model.ID > 0 {
		if err := c.SetID(model.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *CompanyRepositoryImpl) Update(ctx context.Context, c *company.Company) error {
	model := r.toModel(c)

	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		r.logger.Errorw("failed to update company", "error", err, "company_id", c.ID())
		return fmt.Errorf("failed to update company: %w", err)
	}
	return nil
}

func (r *CompanyRepositoryImpl) GetByID(ctx context.Context, id uint) (*company.Company, error) {
	var model models.CompanyModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, company.ErrCompanyNotFound
		}
		r.logger.Errorw("failed to get company", "error", err, "company_id", id)
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return r.toEntity(&model)
}

func (r *CompanyRepositoryImpl) GetBySID(ctx context.Context, sid string) (*company.Company, error) {
	var model models.CompanyModel
	err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, company.ErrCompanyNotFound
		}
		r.logger.Errorw("failed to get company", "error", err, "sid", sid)
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return r.toEntity(&model)
}

func (r *CompanyRepositoryImpl) ListActive(ctx context.Context, limit, offset int) ([]*company.Company, error) {
	var companyModels []*models.CompanyModel
	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&companyModels).Error; err != nil {
		r.logger.Errorw("failed to list companies", "error", err)
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	entities := make([]*company.Company, 0, len(companyModels))
	for _, model := range companyModels {
		entity, err := r.toEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (r *CompanyRepositoryImpl) toModel(c *company.Company) *models.CompanyModel {
	model := &models.CompanyModel{
		ID:           c.ID(),
		SID:          c.SID(),
		Name:         c.Name(),
		BusinessType: c.BusinessType(),
		Email:        c.Email(),
		Phone:        c.Phone(),
		Website:      c.Website(),
		Country:      c.Country(),
		Timezone:     c.Timezone(),
		OwnerID:      c.OwnerID(),
		APIKeyHash:   c.APIKeyHash(),
		IsActive:     c.IsActive(),
		CreatedAt:    c.CreatedAt(),
		UpdatedAt:    c.UpdatedAt(),
	}
	if deletedAt := c.DeletedAt(); deletedAt != nil {
		model.DeletedAt = gorm.DeletedAt{Time: *deletedAt, Valid: true}
	}
	return model
}

func (r *CompanyRepositoryImpl) toEntity(model *models.CompanyModel) (*company.Company, error) {
	if model == nil {
		return nil, nil
	}

	var deletedAt *time.Time
	if model.DeletedAt.Valid {
		t := model.DeletedAt.Time
		deletedAt = &t
	}

	return company.ReconstructCompany(
		model.ID,
		model.SID,
		model.Name,
		model.BusinessType,
		model.Email,
		model.Phone,
		model.Website,
		model.Country,
		model.Timezone,
		model.OwnerID,
		model.APIKeyHash,
		model.IsActive,
		deletedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
}
