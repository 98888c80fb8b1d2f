package routes

import (
	"github.com/gin-gonic/gin"

	"chatfleet/internal/interfaces/http/handlers"
	"chatfleet/internal/interfaces/http/middleware"
)

// PlanRouteConfig holds dependencies for plan catalog routes.
type PlanRouteConfig struct {
	PlanHandler    *handlers.PlanHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// SetupPlanRoutes configures plan catalog routes.
func SetupPlanRoutes(engine *gin.Engine, cfg *PlanRouteConfig) {
	plans := engine.Group("/v1/plans")
	{
		// Public catalog listing
		plans.GET("", cfg.PlanHandler.ListPlans)

		plansAdmin := plans.Group("")
		plansAdmin.Use(cfg.AuthMiddleware.RequireAuth())
		plansAdmin.Use(cfg.AuthMiddleware.RequireServiceScope())
		{
			plansAdmin.POST("", cfg.PlanHandler.CreatePlan)
		}
	}
}
