package routes

import (
	"github.com/gin-gonic/gin"

	"chatfleet/internal/interfaces/http/handlers"
	"chatfleet/internal/interfaces/http/middleware"
)

// QuotaRouteConfig holds dependencies for quota enforcement routes.
type QuotaRouteConfig struct {
	QuotaHandler   *handlers.QuotaHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// SetupQuotaRoutes configures the enforcement gateway routes. Evaluate is
// read-only; authorize, confirm and abandon mutate counters and need the
// service scope.
func SetupQuotaRoutes(engine *gin.Engine, cfg *QuotaRouteConfig) {
	quota := engine.Group("/v1/quota")
	quota.Use(cfg.AuthMiddleware.RequireAuth())
	{
		quota.GET("/evaluate", cfg.QuotaHandler.Evaluate)

		enforce := quota.Group("")
		enforce.Use(cfg.AuthMiddleware.RequireServiceScope())
		{
			enforce.POST("/authorize", cfg.QuotaHandler.Authorize)
			enforce.POST("/confirm/:token", cfg.QuotaHandler.Confirm)
			enforce.POST("/abandon/:token", cfg.QuotaHandler.Abandon)
		}
	}
}
