package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatfleet/internal/application/subscription/usecases"
	"chatfleet/internal/domain/subscription"
	vo "chatfleet/internal/domain/subscription/valueobjects"
	"chatfleet/internal/shared/logger"
	"chatfleet/internal/shared/utils"
)

type PlanHandler struct {
	createPlanUC *usecases.CreatePlanUseCase
	listPlansUC  *usecases.ListPlansUseCase
	logger       logger.Interface
}

func NewPlanHandler(
	createPlanUC *usecases.CreatePlanUseCase,
	listPlansUC *usecases.ListPlansUseCase,
) *PlanHandler {
	return &PlanHandler{
		createPlanUC: createPlanUC,
		listPlansUC:  listPlansUC,
		logger:       logger.NewLogger(),
	}
}

type PlanLimitsPayload struct {
	MaxChatbots              int64 `json:"max_chatbots"`
	MaxConversationsPerMonth int64 `json:"max_conversations_per_month"`
	MaxMessagesPerMonth      int64 `json:"max_messages_per_month"`
	MaxAPICallsPerMonth      int64 `json:"max_api_calls_per_month"`
	MaxStorageMB             int64 `json:"max_storage_mb"`
}

type CreatePlanRequest struct {
	Name         string            `json:"name" binding:"required"`
	Slug         string            `json:"slug" binding:"required"`
	Tier         string            `json:"tier" binding:"required,oneof=starter business enterprise"`
	Description  string            `json:"description"`
	PriceMonthly uint64            `json:"price_monthly"`
	PriceYearly  uint64            `json:"price_yearly"`
	Limits       PlanLimitsPayload `json:"limits" binding:"required"`
	Features     map[string]bool   `json:"features"`
}

type PlanResponse struct {
	SID          string            `json:"sid"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Tier         string            `json:"tier"`
	Description  string            `json:"description"`
	PriceMonthly uint64            `json:"price_monthly"`
	PriceYearly  uint64            `json:"price_yearly"`
	Limits       PlanLimitsPayload `json:"limits"`
	Features     map[string]bool   `json:"features"`
	IsActive     bool              `json:"is_active"`
}

func toPlanResponse(plan *subscription.Plan) PlanResponse {
	limits := plan.Limits()
	return PlanResponse{
		SID:          plan.SID(),
		Name:         plan.Name(),
		Slug:         plan.Slug(),
		Tier:         string(plan.Tier()),
		Description:  plan.Description(),
		PriceMonthly: plan.PriceMonthly(),
		PriceYearly:  plan.PriceYearly(),
		Limits: PlanLimitsPayload{
			MaxChatbots:              limits.MaxChatbots,
			MaxConversationsPerMonth: limits.MaxConversationsPerMonth,
			MaxMessagesPerMonth:      limits.MaxMessagesPerMonth,
			MaxAPICallsPerMonth:      limits.MaxAPICallsPerMonth,
			MaxStorageMB:             limits.MaxStorageMB,
		},
		Features: plan.Features(),
		IsActive: plan.IsActive(),
	}
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	plan, err := h.createPlanUC.Execute(c.Request.Context(), usecases.CreatePlanCommand{
		Name:         req.Name,
		Slug:         req.Slug,
		Tier:         req.Tier,
		Description:  req.Description,
		PriceMonthly: req.PriceMonthly,
		PriceYearly:  req.PriceYearly,
		Limits: vo.PlanLimits{
			MaxChatbots:              req.Limits.MaxChatbots,
			MaxConversationsPerMonth: req.Limits.MaxConversationsPerMonth,
			MaxMessagesPerMonth:      req.Limits.MaxMessagesPerMonth,
			MaxAPICallsPerMonth:      req.Limits.MaxAPICallsPerMonth,
			MaxStorageMB:             req.Limits.MaxStorageMB,
		},
		Features: req.Features,
	})
	if err != nil {
		h.logger.Errorw("failed to create plan", "error", err, "slug", req.Slug)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, toPlanResponse(plan), "Plan created successfully")
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	plans, err := h.listPlansUC.Execute(c.Request.Context(), usecases.ListPlansQuery{
		IncludeInactive: includeInactive,
	})
	if err != nil {
		h.logger.Errorw("failed to list plans", "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to list plans")
		return
	}

	responses := make([]PlanResponse, 0, len(plans))
	for _, plan := range plans {
		responses = append(responses, toPlanResponse(plan))
	}

	utils.OKResponse(c, responses)
}
