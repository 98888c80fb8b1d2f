package routes

import (
	"github.com/gin-gonic/gin"

	"chatfleet/internal/interfaces/http/handlers"
)

// AuthRouteConfig holds dependencies for token issuance.
type AuthRouteConfig struct {
	AuthHandler *handlers.AuthHandler
}

// SetupAuthRoutes configures the token exchange route. It is the only
// unauthenticated endpoint besides the health check and the public catalog.
func SetupAuthRoutes(engine *gin.Engine, cfg *AuthRouteConfig) {
	authGroup := engine.Group("/v1/auth")
	{
		authGroup.POST("/token", cfg.AuthHandler.IssueToken)
	}
}
