package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	companyusecases "chatfleet/internal/application/company/usecases"
	appmetering "chatfleet/internal/application/metering"
	"chatfleet/internal/application/subscription/usecases"
	"chatfleet/internal/infrastructure/auth"
	"chatfleet/internal/infrastructure/cache"
	"chatfleet/internal/infrastructure/config"
	"chatfleet/internal/infrastructure/repository"
	"chatfleet/internal/interfaces/http/handlers"
	"chatfleet/internal/interfaces/http/middleware"
	"chatfleet/internal/interfaces/http/routes"
	"chatfleet/internal/shared/logger"
)

// Router wires repositories, application services and handlers into a gin
// engine.
type Router struct {
	engine              *gin.Engine
	quotaHandler        *handlers.QuotaHandler
	subscriptionHandler *handlers.SubscriptionHandler
	planHandler         *handlers.PlanHandler
	usageHandler        *handlers.UsageHandler
	webhookHandler      *handlers.WebhookHandler
	authHandler         *handlers.AuthHandler
	authMiddleware      *middleware.AuthMiddleware
	cfg                 *config.Config
}

// NewRouter creates the HTTP router with all dependencies.
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) *Router {
	engine := gin.New()

	periodRepo := repository.NewUsagePeriodRepository(db, log)
	reservationRepo := repository.NewReservationRepository(db, log)
	subscriptionRepo := repository.NewSubscriptionRepository(db, log)
	planRepo := repository.NewSubscriptionPlanRepository(db, log)
	companyRepo := repository.NewCompanyRepository(db, log)

	var quotaCache appmetering.QuotaCache
	if redisClient != nil {
		quotaCache = cache.NewRedisQuotaCache(
			redisClient,
			time.Duration(cfg.Subscription.QuotaCacheTTLMins)*time.Minute,
			log,
		)
	}

	reservationTTL := time.Duration(cfg.Metering.ReservationTTLMinutes) * time.Minute

	accumulator := appmetering.NewPeriodAccumulator(periodRepo, reservationRepo, subscriptionRepo, reservationTTL, log)
	evaluator := appmetering.NewQuotaEvaluator(subscriptionRepo, planRepo, periodRepo, quotaCache, log)
	gateway := appmetering.NewEnforcementGateway(evaluator, accumulator, log)

	createSubscriptionUC := usecases.NewCreateSubscriptionUseCase(
		subscriptionRepo, planRepo, cfg.Subscription.TrialDays, cfg.Subscription.PeriodLengthDays, log)
	getSubscriptionUC := usecases.NewGetSubscriptionUseCase(subscriptionRepo, planRepo, log)
	cancelSubscriptionUC := usecases.NewCancelSubscriptionUseCase(subscriptionRepo, evaluator, log)
	reactivateSubscriptionUC := usecases.NewReactivateSubscriptionUseCase(subscriptionRepo, log)
	changePlanUC := usecases.NewChangePlanUseCase(subscriptionRepo, planRepo, evaluator, log)
	handlePaymentEventUC := usecases.NewHandlePaymentEventUseCase(subscriptionRepo, evaluator, log)
	createPlanUC := usecases.NewCreatePlanUseCase(planRepo, log)
	listPlansUC := usecases.NewListPlansUseCase(planRepo, log)
	getUsageUC := usecases.NewGetUsageUseCase(subscriptionRepo, planRepo, periodRepo, log)

	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)
	apiKeyHasher := auth.NewBcryptAPIKeyHasher(cfg.Auth.APIKey.BcryptCost)
	issueTokenUC := companyusecases.NewIssueTokenUseCase(companyRepo, apiKeyHasher, jwtService, log)

	return &Router{
		engine:              engine,
		quotaHandler:        handlers.NewQuotaHandler(gateway, evaluator),
		subscriptionHandler: handlers.NewSubscriptionHandler(createSubscriptionUC, getSubscriptionUC, cancelSubscriptionUC, reactivateSubscriptionUC, changePlanUC),
		planHandler:         handlers.NewPlanHandler(createPlanUC, listPlansUC),
		usageHandler:        handlers.NewUsageHandler(getUsageUC),
		webhookHandler:      handlers.NewWebhookHandler(handlePaymentEventUC),
		authHandler:         handlers.NewAuthHandler(issueTokenUC),
		authMiddleware:      middleware.NewAuthMiddleware(jwtService, log),
		cfg:                 cfg,
	}
}

// SetupRoutes registers middleware and all route groups.
func (r *Router) SetupRoutes() {
	log := logger.NewLogger().Named("http")
	r.engine.Use(middleware.Recovery(log))
	r.engine.Use(middleware.Logger(log))
	r.engine.Use(middleware.ErrorHandler(log))
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))

	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	routes.SetupAuthRoutes(r.engine, &routes.AuthRouteConfig{
		AuthHandler: r.authHandler,
	})

	routes.SetupQuotaRoutes(r.engine, &routes.QuotaRouteConfig{
		QuotaHandler:   r.quotaHandler,
		AuthMiddleware: r.authMiddleware,
	})

	routes.SetupSubscriptionRoutes(r.engine, &routes.SubscriptionRouteConfig{
		SubscriptionHandler: r.subscriptionHandler,
		UsageHandler:        r.usageHandler,
		AuthMiddleware:      r.authMiddleware,
	})

	routes.SetupPlanRoutes(r.engine, &routes.PlanRouteConfig{
		PlanHandler:    r.planHandler,
		AuthMiddleware: r.authMiddleware,
	})

	routes.SetupWebhookRoutes(r.engine, &routes.WebhookRouteConfig{
		WebhookHandler: r.webhookHandler,
		AuthMiddleware: r.authMiddleware,
	})
}

// GetEngine returns the underlying gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
