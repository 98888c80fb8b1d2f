package company

import "context"

type Repository interface {
	Create(ctx context.Context, c *Company) error
	Update(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id uint) (*Company, error)
	GetBySID(ctx context.Context, sid string) (*Company, error)
	ListActive(ctx context.Context, limit, offset int) ([]*Company, error)
}
