package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatfleet/internal/application/subscription/usecases"
	"chatfleet/internal/domain/subscription"
	"chatfleet/internal/shared/logger"
	"chatfleet/internal/shared/utils"
)

// WebhookHandler receives payment lifecycle events from the billing provider.
type WebhookHandler struct {
	handlePaymentEventUC *usecases.HandlePaymentEventUseCase
	logger               logger.Interface
}

func NewWebhookHandler(handlePaymentEventUC *usecases.HandlePaymentEventUseCase) *WebhookHandler {
	return &WebhookHandler{
		handlePaymentEventUC: handlePaymentEventUC,
		logger:               logger.NewLogger(),
	}
}

type PaymentEventRequest struct {
	SubscriptionSID string    `json:"subscription_sid" binding:"required"`
	EventType       string    `json:"event_type" binding:"required,oneof=payment.succeeded payment.failed"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	var req PaymentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := h.handlePaymentEventUC.Execute(c.Request.Context(), usecases.HandlePaymentEventCommand{
		SubscriptionSID: req.SubscriptionSID,
		EventType:       req.EventType,
		OccurredAt:      req.OccurredAt,
	})
	if err != nil {
		if err == subscription.ErrSubscriptionNotFound {
			utils.ErrorResponse(c, http.StatusNotFound, "subscription not found")
			return
		}
		h.logger.Errorw("failed to handle payment event",
			"error", err, "subscription_sid", req.SubscriptionSID, "event_type", req.EventType)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to handle payment event")
		return
	}

	utils.OKResponse(c, gin.H{"subscription_sid": req.SubscriptionSID, "event_type": req.EventType})
}
