package routes

import (
	"github.com/gin-gonic/gin"

	"chatfleet/internal/interfaces/http/handlers"
	"chatfleet/internal/interfaces/http/middleware"
)

// SubscriptionRouteConfig holds dependencies for subscription routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler *handlers.SubscriptionHandler
	UsageHandler        *handlers.UsageHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

// SetupSubscriptionRoutes configures subscription lifecycle and usage routes.
func SetupSubscriptionRoutes(engine *gin.Engine, cfg *SubscriptionRouteConfig) {
	subscriptions := engine.Group("/v1/subscription")
	subscriptions.Use(cfg.AuthMiddleware.RequireAuth())
	{
		subscriptions.GET("", cfg.SubscriptionHandler.GetSubscription)
		subscriptions.GET("/usage", cfg.UsageHandler.GetUsage)

		mutating := subscriptions.Group("")
		mutating.Use(cfg.AuthMiddleware.RequireServiceScope())
		{
			mutating.POST("", cfg.SubscriptionHandler.CreateSubscription)
			mutating.POST("/cancel", cfg.SubscriptionHandler.CancelSubscription)
			mutating.POST("/reactivate", cfg.SubscriptionHandler.ReactivateSubscription)
			mutating.POST("/change-plan", cfg.SubscriptionHandler.ChangePlan)
		}
	}
}
