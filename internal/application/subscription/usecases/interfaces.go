package usecases

import "context"

// QuotaCacheInvalidator drops cached plan limits for a company after its
// subscription or plan changed. Satisfied by the quota evaluator.
type QuotaCacheInvalidator interface {
	InvalidateCompany(ctx context.Context, companyID uint)
}
