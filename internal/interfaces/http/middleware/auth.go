package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chatfleet/internal/infrastructure/auth"
	"chatfleet/internal/shared/logger"
	"chatfleet/internal/shared/utils"
)

const (
	ContextKeyCompanyID  = "company_id"
	ContextKeyCompanySID = "company_sid"
	ContextKeyScope      = "scope"
)

type AuthMiddleware struct {
	jwtService *auth.JWTService
	logger     logger.Interface
}

func NewAuthMiddleware(jwtService *auth.JWTService, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     logger,
	}
}

// RequireAuth verifies the bearer token and puts the caller's company into
// the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := m.jwtService.Verify(parts[1])
		if err != nil {
			m.logger.Warnw("failed to verify token", "error", err)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextKeyCompanyID, claims.CompanyID)
		c.Set(ContextKeyCompanySID, claims.CompanySID)
		c.Set(ContextKeyScope, claims.Scope)

		c.Next()
	}
}

// RequireServiceScope rejects read-only tokens on mutating endpoints. Must
// run after RequireAuth.
func (m *AuthMiddleware) RequireServiceScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := c.GetString(ContextKeyScope)
		if scope != auth.ScopeService {
			utils.ErrorResponse(c, http.StatusForbidden, "token scope does not permit this operation")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CompanyID returns the authenticated company from the request context.
func CompanyID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextKeyCompanyID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
