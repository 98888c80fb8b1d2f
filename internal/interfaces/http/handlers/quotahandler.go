package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appmetering "chatfleet/internal/application/metering"
	"chatfleet/internal/domain/metering"
	"chatfleet/internal/interfaces/http/middleware"
	"chatfleet/internal/shared/logger"
	"chatfleet/internal/shared/utils"
)

// QuotaHandler exposes the enforcement gateway over HTTP. Callers authorize a
// billable action, perform it, then confirm or abandon the returned token.
type QuotaHandler struct {
	gateway   *appmetering.EnforcementGateway
	evaluator *appmetering.QuotaEvaluator
	logger    logger.Interface
}

func NewQuotaHandler(
	gateway *appmetering.EnforcementGateway,
	evaluator *appmetering.QuotaEvaluator,
) *QuotaHandler {
	return &QuotaHandler{
		gateway:   gateway,
		evaluator: evaluator,
		logger:    logger.NewLogger(),
	}
}

type AuthorizeRequest struct {
	Metric string `json:"metric" binding:"required"`
	Amount int64  `json:"amount" binding:"omitempty,min=1"`
}

type DecisionResponse struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Metric    string `json:"metric"`
	Limit     int64  `json:"limit"`
	Used      int64  `json:"used"`
	Requested int64  `json:"requested"`
	Remaining int64  `json:"remaining"`
}

type AuthorizeResponse struct {
	Decision DecisionResponse `json:"decision"`
	Token    string           `json:"token,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

func toDecisionResponse(d *metering.QuotaDecision) DecisionResponse {
	return DecisionResponse{
		Allowed:   d.Allowed,
		Reason:    string(d.Reason),
		Metric:    d.Metric.String(),
		Limit:     d.Limit,
		Used:      d.Used,
		Requested: d.Requested,
		Remaining: d.Remaining,
	}
}

// Authorize reserves capacity for a billable action. A denial is a 200 with
// allowed=false so callers can distinguish quota outcomes from transport
// failures.
func (h *QuotaHandler) Authorize(c *gin.Context) {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing company identity")
		return
	}

	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	metric, err := metering.ParseMetric(req.Metric)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "unknown metric: "+req.Metric)
		return
	}

	amount := req.Amount
	if amount == 0 {
		amount = 1
	}

	result, err := h.gateway.Authorize(c.Request.Context(), companyID, metric, amount)
	if err != nil {
		h.logger.Errorw("authorize failed", "error", err, "company_id", companyID, "metric", metric)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to authorize action")
		return
	}

	resp := AuthorizeResponse{Decision: toDecisionResponse(result.Decision)}
	if result.Token != nil {
		resp.Token = result.Token.Token
		expiresAt := result.Token.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}

	utils.OKResponse(c, resp)
}

// Confirm finalizes a previously authorized action.
func (h *QuotaHandler) Confirm(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "missing token")
		return
	}

	if err := h.gateway.Confirm(c.Request.Context(), token); err != nil {
		h.respondTokenError(c, token, err)
		return
	}

	utils.OKResponse(c, gin.H{"token": token, "status": "committed"})
}

// Abandon releases the capacity held by a previously authorized action.
func (h *QuotaHandler) Abandon(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "missing token")
		return
	}

	if err := h.gateway.Abandon(c.Request.Context(), token); err != nil {
		h.respondTokenError(c, token, err)
		return
	}

	utils.OKResponse(c, gin.H{"token": token, "status": "released"})
}

type EvaluateRequest struct {
	Metric string `form:"metric" binding:"required"`
	Amount int64  `form:"amount"`
}

// Evaluate answers "would this action be admitted" without reserving
// anything. Advisory only; the admission itself happens in Authorize.
func (h *QuotaHandler) Evaluate(c *gin.Context) {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing company identity")
		return
	}

	var req EvaluateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}

	metric, err := metering.ParseMetric(req.Metric)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "unknown metric: "+req.Metric)
		return
	}

	amount := req.Amount
	if amount == 0 {
		amount = 1
	}

	decision, err := h.evaluator.Evaluate(c.Request.Context(), companyID, metric, amount)
	if err != nil {
		h.logger.Errorw("evaluate failed", "error", err, "company_id", companyID, "metric", metric)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to evaluate quota")
		return
	}

	utils.OKResponse(c, toDecisionResponse(decision))
}

func (h *QuotaHandler) respondTokenError(c *gin.Context, token string, err error) {
	switch err {
	case metering.ErrTokenNotFound:
		utils.ErrorResponse(c, http.StatusNotFound, "reservation token not found")
	case metering.ErrTokenAlreadyResolved:
		utils.ErrorResponse(c, http.StatusConflict, "reservation token already resolved")
	case metering.ErrTokenExpired:
		utils.ErrorResponse(c, http.StatusGone, "reservation token expired")
	default:
		h.logger.Errorw("token resolution failed", "error", err, "token", token)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to resolve token")
	}
}
