package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatfleet/internal/application/subscription/usecases"
	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/interfaces/http/middleware"
	"chatfleet/internal/shared/logger"
	"chatfleet/internal/shared/utils"
)

type UsageHandler struct {
	getUsageUC *usecases.GetUsageUseCase
	logger     logger.Interface
}

func NewUsageHandler(getUsageUC *usecases.GetUsageUseCase) *UsageHandler {
	return &UsageHandler{
		getUsageUC: getUsageUC,
		logger:     logger.NewLogger(),
	}
}

// GetUsage returns the current billing period counters against plan limits.
func (h *UsageHandler) GetUsage(c *gin.Context) {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing company identity")
		return
	}

	summary, err := h.getUsageUC.Execute(c.Request.Context(), usecases.GetUsageQuery{
		CompanyID: companyID,
	})
	if err != nil {
		if err == subscription.ErrSubscriptionNotFound {
			utils.ErrorResponse(c, http.StatusNotFound, "subscription not found")
			return
		}
		h.logger.Errorw("failed to get usage summary", "error", err, "company_id", companyID)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to get usage summary")
		return
	}

	utils.OKResponse(c, summary)
}
