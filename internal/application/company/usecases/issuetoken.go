package usecases

import (
	"context"
	"errors"

	"chatfleet/internal/domain/company"
	"chatfleet/internal/shared/logger"
)

// ErrInvalidCredentials hides whether the company SID or the API key was
// wrong.
var ErrInvalidCredentials = errors.New("invalid API credentials")

// APIKeyVerifier checks a plaintext API key against its stored hash.
type APIKeyVerifier interface {
	Verify(key, hash string) error
}

// TokenIssuer signs access tokens for authenticated companies.
type TokenIssuer interface {
	Generate(companyID uint, companySID, scope string) (string, error)
	AccessExpMinutes() int
}

type IssueTokenCommand struct {
	CompanySID string
	APIKey     string
	Scope      string
}

type IssueTokenResponse struct {
	AccessToken      string
	Scope            string
	ExpiresInSeconds int
}

// IssueTokenUseCase exchanges a company API key for a short-lived access
// token carrying the requested scope.
type IssueTokenUseCase struct {
	companyRepo company.Repository
	verifier    APIKeyVerifier
	issuer      TokenIssuer
	logger      logger.Interface
}

func NewIssueTokenUseCase(
	companyRepo company.Repository,
	verifier APIKeyVerifier,
	issuer TokenIssuer,
	log logger.Interface,
) *IssueTokenUseCase {
	return &IssueTokenUseCase{
		companyRepo: companyRepo,
		verifier:    verifier,
		issuer:      issuer,
		logger:      log,
	}
}

func (uc *IssueTokenUseCase) Execute(ctx context.Context, cmd IssueTokenCommand) (*IssueTokenResponse, error) {
	comp, err := uc.companyRepo.GetBySID(ctx, cmd.CompanySID)
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			return nil, ErrInvalidCredentials
		}
		uc.logger.Errorw("failed to look up company", "error", err, "company_sid", cmd.CompanySID)
		return nil, err
	}

	if !comp.IsActive() || comp.IsDeleted() {
		return nil, company.ErrCompanyInactive
	}
	if comp.APIKeyHash() == "" {
		return nil, ErrInvalidCredentials
	}
	if err := uc.verifier.Verify(cmd.APIKey, comp.APIKeyHash()); err != nil {
		uc.logger.Warnw("api key verification failed", "company_sid", cmd.CompanySID)
		return nil, ErrInvalidCredentials
	}

	token, err := uc.issuer.Generate(comp.ID(), comp.SID(), cmd.Scope)
	if err != nil {
		uc.logger.Errorw("failed to issue token", "error", err, "company_sid", cmd.CompanySID)
		return nil, err
	}

	return &IssueTokenResponse{
		AccessToken:      token,
		Scope:            cmd.Scope,
		ExpiresInSeconds: uc.issuer.AccessExpMinutes() * 60,
	}, nil
}
