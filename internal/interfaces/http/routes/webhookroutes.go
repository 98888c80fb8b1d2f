package routes

import (
	"github.com/gin-gonic/gin"

	"chatfleet/internal/interfaces/http/handlers"
	"chatfleet/internal/interfaces/http/middleware"
)

// WebhookRouteConfig holds dependencies for billing provider webhooks.
type WebhookRouteConfig struct {
	WebhookHandler *handlers.WebhookHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// SetupWebhookRoutes configures the billing provider webhook routes.
func SetupWebhookRoutes(engine *gin.Engine, cfg *WebhookRouteConfig) {
	webhooks := engine.Group("/v1/webhooks")
	webhooks.Use(cfg.AuthMiddleware.RequireAuth())
	webhooks.Use(cfg.AuthMiddleware.RequireServiceScope())
	{
		webhooks.POST("/payment", cfg.WebhookHandler.HandlePaymentEvent)
	}
}
