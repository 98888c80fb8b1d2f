package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatfleet/internal/application/subscription/usecases"
	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/interfaces/http/middleware"
	"chatfleet/internal/shared/logger"
	"chatfleet/internal/shared/utils"
)

type SubscriptionHandler struct {
	createSubscriptionUC     *usecases.CreateSubscriptionUseCase
	getSubscriptionUC        *usecases.GetSubscriptionUseCase
	cancelSubscriptionUC     *usecases.CancelSubscriptionUseCase
	reactivateSubscriptionUC *usecases.ReactivateSubscriptionUseCase
	changePlanUC             *usecases.ChangePlanUseCase
	logger                   logger.Interface
}

func NewSubscriptionHandler(
	createSubscriptionUC *usecases.CreateSubscriptionUseCase,
	getSubscriptionUC *usecases.GetSubscriptionUseCase,
	cancelSubscriptionUC *usecases.CancelSubscriptionUseCase,
	reactivateSubscriptionUC *usecases.ReactivateSubscriptionUseCase,
	changePlanUC *usecases.ChangePlanUseCase,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		createSubscriptionUC:     createSubscriptionUC,
		getSubscriptionUC:        getSubscriptionUC,
		cancelSubscriptionUC:     cancelSubscriptionUC,
		reactivateSubscriptionUC: reactivateSubscriptionUC,
		changePlanUC:             changePlanUC,
		logger:                   logger.NewLogger(),
	}
}

type CreateSubscriptionRequest struct {
	PlanSlug  string `json:"plan_slug" binding:"required"`
	WithTrial bool   `json:"with_trial"`
}

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing company identity")
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.createSubscriptionUC.Execute(c.Request.Context(), usecases.CreateSubscriptionCommand{
		CompanyID: companyID,
		PlanSlug:  req.PlanSlug,
		WithTrial: req.WithTrial,
	})
	if err != nil {
		switch err {
		case subscription.ErrSubscriptionExists:
			utils.ErrorResponse(c, http.StatusConflict, "company already has an active subscription")
		case subscription.ErrPlanNotFound:
			utils.ErrorResponse(c, http.StatusNotFound, "plan not found")
		case subscription.ErrPlanInactive:
			utils.ErrorResponse(c, http.StatusUnprocessableEntity, "plan is not available")
		default:
			h.logger.Errorw("failed to create subscription", "error", err, "company_id", companyID)
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to create subscription")
		}
		return
	}

	utils.CreatedResponse(c, result, "Subscription created successfully")
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing company identity")
		return
	}

	details, err := h.getSubscriptionUC.Execute(c.Request.Context(), usecases.GetSubscriptionQuery{
		CompanyID: companyID,
	})
	if err != nil {
		if err == subscription.ErrSubscriptionNotFound {
			utils.ErrorResponse(c, http.StatusNotFound, "subscription not found")
			return
		}
		h.logger.Errorw("failed to get subscription", "error", err, "company_id", companyID)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to get subscription")
		return
	}

	utils.OKResponse(c, details)
}

type CancelSubscriptionRequest struct {
	AtPeriodEnd bool `json:"at_period_end"`
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing company identity")
		return
	}

	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := h.cancelSubscriptionUC.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		CompanyID:   companyID,
		AtPeriodEnd: req.AtPeriodEnd,
	})
	if err != nil {
		if err == subscription.ErrSubscriptionNotFound {
			utils.ErrorResponse(c, http.StatusNotFound, "subscription not found")
			return
		}
		h.logger.Errorw("failed to cancel subscription", "error", err, "company_id", companyID)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to cancel subscription")
		return
	}

	utils.OKResponse(c, gin.H{"at_period_end": req.AtPeriodEnd})
}

func (h *SubscriptionHandler) ReactivateSubscription(c *gin.Context) {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing company identity")
		return
	}

	err := h.reactivateSubscriptionUC.Execute(c.Request.Context(), usecases.ReactivateSubscriptionCommand{
		CompanyID: companyID,
	})
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrSubscriptionNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, "subscription not found")
		case errors.Is(err, subscription.ErrSubscriptionNotActive):
			utils.ErrorResponse(c, http.StatusUnprocessableEntity, "subscription is cancelled")
		default:
			h.logger.Errorw("failed to reactivate subscription", "error", err, "company_id", companyID)
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to reactivate subscription")
		}
		return
	}

	utils.OKResponse(c, gin.H{"cancel_at_period_end": false})
}

type ChangePlanRequest struct {
	PlanSlug string `json:"plan_slug" binding:"required"`
}

func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing company identity")
		return
	}

	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := h.changePlanUC.Execute(c.Request.Context(), usecases.ChangePlanCommand{
		CompanyID:   companyID,
		NewPlanSlug: req.PlanSlug,
	})
	if err != nil {
		switch err {
		case subscription.ErrSubscriptionNotFound:
			utils.ErrorResponse(c, http.StatusNotFound, "subscription not found")
		case subscription.ErrPlanNotFound:
			utils.ErrorResponse(c, http.StatusNotFound, "plan not found")
		case subscription.ErrPlanInactive:
			utils.ErrorResponse(c, http.StatusUnprocessableEntity, "plan is not available")
		default:
			h.logger.Errorw("failed to change plan", "error", err, "company_id", companyID)
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to change plan")
		}
		return
	}

	utils.OKResponse(c, gin.H{"plan_slug": req.PlanSlug})
}
