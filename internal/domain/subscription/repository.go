package subscription

import (
	"context"
	"time"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	Update(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)
	// GetActiveByCompanyID returns the company's usable subscription
	// (status active or trialing), or nil when none exists.
	GetActiveByCompanyID(ctx context.Context, companyID uint) (*Subscription, error)
	// GetByCompanyID returns the company's most recent subscription regardless
	// of status, or nil when the company never subscribed.
	GetByCompanyID(ctx context.Context, companyID uint) (*Subscription, error)
	// ListPeriodDue returns usable subscriptions whose current period has
	// ended as of the given instant.
	ListPeriodDue(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
}

type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	Update(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id uint) (*Plan, error)
	GetBySlug(ctx context.Context, slug string) (*Plan, error)
	ListActive(ctx context.Context) ([]*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
}
