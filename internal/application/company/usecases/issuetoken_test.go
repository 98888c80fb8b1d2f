package usecases

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatfleet/internal/domain/company"
	"chatfleet/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeCompanyRepo struct {
	companies map[string]*company.Company
}

func newFakeCompanyRepo(companies ...*company.Company) *fakeCompanyRepo {
	r := &fakeCompanyRepo{companies: make(map[string]*company.Company)}
	for _, c := range companies {
		r.companies[c.SID()] = c
	}
	return r
}

func (r *fakeCompanyRepo) Create(_ context.Context, c *company.Company) error {
	r.companies[c.SID()] = c
	return nil
}

func (r *fakeCompanyRepo) Update(_ context.Context, c *company.Company) error {
	r.companies[c.SID()] = c
	return nil
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id uint) (*company.Company, error) {
	for _, c := range r.companies {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, company.ErrCompanyNotFound
}

func (r *fakeCompanyRepo) GetBySID(_ context.Context, sid string) (*company.Company, error) {
	c, ok := r.companies[sid]
	if !ok {
		return nil, company.ErrCompanyNotFound
	}
	return c, nil
}

func (r *fakeCompanyRepo) ListActive(_ context.Context, _, _ int) ([]*company.Company, error) {
	out := make([]*company.Company, 0, len(r.companies))
	for _, c := range r.companies {
		if c.IsActive() {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeVerifier struct {
	acceptKey string
}

func (v *fakeVerifier) Verify(key, _ string) error {
	if key != v.acceptKey {
		return errors.New("api key verification failed")
	}
	return nil
}

type fakeIssuer struct {
	token      string
	err        error
	expMinutes int

	lastCompanyID uint
	lastScope     string
}

func (i *fakeIssuer) Generate(companyID uint, _, scope string) (string, error) {
	i.lastCompanyID = companyID
	i.lastScope = scope
	return i.token, i.err
}

func (i *fakeIssuer) AccessExpMinutes() int {
	return i.expMinutes
}

func testCompany(t *testing.T, sid, apiKeyHash string, active bool, deleted bool) *company.Company {
	t.Helper()
	now := time.Now()
	var deletedAt *time.Time
	if deleted {
		deletedAt = &now
	}
	c, err := company.ReconstructCompany(
		42, sid, "Acme Retail", "retail", "", "", "", "Kazakhstan", "Asia/Almaty",
		7, apiKeyHash, active, deletedAt, now, now,
	)
	require.NoError(t, err)
	return c
}

func TestIssueTokenUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("issues token for valid credentials", func(t *testing.T) {
		repo := newFakeCompanyRepo(testCompany(t, "cmp_abc", "$2a$12$hash", true, false))
		issuer := &fakeIssuer{token: "signed.jwt", expMinutes: 15}
		uc := NewIssueTokenUseCase(repo, &fakeVerifier{acceptKey: "secret-key"}, issuer, testLogger())

		result, err := uc.Execute(ctx, IssueTokenCommand{
			CompanySID: "cmp_abc",
			APIKey:     "secret-key",
			Scope:      "service",
		})
		require.NoError(t, err)
		assert.Equal(t, "signed.jwt", result.AccessToken)
		assert.Equal(t, "service", result.Scope)
		assert.Equal(t, 15*60, result.ExpiresInSeconds)
		assert.Equal(t, uint(42), issuer.lastCompanyID)
		assert.Equal(t, "service", issuer.lastScope)
	})

	t.Run("unknown company maps to invalid credentials", func(t *testing.T) {
		repo := newFakeCompanyRepo()
		uc := NewIssueTokenUseCase(repo, &fakeVerifier{acceptKey: "k"}, &fakeIssuer{}, testLogger())

		_, err := uc.Execute(ctx, IssueTokenCommand{CompanySID: "cmp_missing", APIKey: "k", Scope: "read_only"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong key maps to invalid credentials", func(t *testing.T) {
		repo := newFakeCompanyRepo(testCompany(t, "cmp_abc", "$2a$12$hash", true, false))
		uc := NewIssueTokenUseCase(repo, &fakeVerifier{acceptKey: "right"}, &fakeIssuer{}, testLogger())

		_, err := uc.Execute(ctx, IssueTokenCommand{CompanySID: "cmp_abc", APIKey: "wrong", Scope: "read_only"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("company without provisioned key is rejected", func(t *testing.T) {
		repo := newFakeCompanyRepo(testCompany(t, "cmp_abc", "", true, false))
		uc := NewIssueTokenUseCase(repo, &fakeVerifier{acceptKey: "any"}, &fakeIssuer{}, testLogger())

		_, err := uc.Execute(ctx, IssueTokenCommand{CompanySID: "cmp_abc", APIKey: "any", Scope: "read_only"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive company is rejected before key check", func(t *testing.T) {
		repo := newFakeCompanyRepo(testCompany(t, "cmp_abc", "$2a$12$hash", false, false))
		uc := NewIssueTokenUseCase(repo, &fakeVerifier{acceptKey: "secret-key"}, &fakeIssuer{}, testLogger())

		_, err := uc.Execute(ctx, IssueTokenCommand{CompanySID: "cmp_abc", APIKey: "secret-key", Scope: "service"})
		assert.ErrorIs(t, err, company.ErrCompanyInactive)
	})

	t.Run("soft-deleted company is rejected", func(t *testing.T) {
		repo := newFakeCompanyRepo(testCompany(t, "cmp_abc", "$2a$12$hash", true, true))
		uc := NewIssueTokenUseCase(repo, &fakeVerifier{acceptKey: "secret-key"}, &fakeIssuer{}, testLogger())

		_, err := uc.Execute(ctx, IssueTokenCommand{CompanySID: "cmp_abc", APIKey: "secret-key", Scope: "service"})
		assert.ErrorIs(t, err, company.ErrCompanyInactive)
	})

	t.Run("issuer failure is surfaced", func(t *testing.T) {
		repo := newFakeCompanyRepo(testCompany(t, "cmp_abc", "$2a$12$hash", true, false))
		issuer := &fakeIssuer{err: errors.New("signing key unavailable")}
		uc := NewIssueTokenUseCase(repo, &fakeVerifier{acceptKey: "secret-key"}, issuer, testLogger())

		_, err := uc.Execute(ctx, IssueTokenCommand{CompanySID: "cmp_abc", APIKey: "secret-key", Scope: "service"})
		assert.ErrorContains(t, err, "signing key unavailable")
	})
}
