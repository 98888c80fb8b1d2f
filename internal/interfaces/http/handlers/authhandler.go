package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatfleet/internal/application/company/usecases"
	"chatfleet/internal/domain/company"
	"chatfleet/internal/infrastructure/auth"
	"chatfleet/internal/shared/logger"
	"chatfleet/internal/shared/utils"
)

// AuthHandler exchanges company API keys for access tokens.
type AuthHandler struct {
	issueTokenUC *usecases.IssueTokenUseCase
	logger       logger.Interface
}

func NewAuthHandler(issueTokenUC *usecases.IssueTokenUseCase) *AuthHandler {
	return &AuthHandler{
		issueTokenUC: issueTokenUC,
		logger:       logger.NewLogger(),
	}
}

type IssueTokenRequest struct {
	CompanySID string `json:"company_sid" binding:"required"`
	APIKey     string `json:"api_key" binding:"required"`
	Scope      string `json:"scope" binding:"omitempty,oneof=service read_only"`
}

type IssueTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Scope == "" {
		req.Scope = auth.ScopeReadOnly
	}

	result, err := h.issueTokenUC.Execute(c.Request.Context(), usecases.IssueTokenCommand{
		CompanySID: req.CompanySID,
		APIKey:     req.APIKey,
		Scope:      req.Scope,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecases.ErrInvalidCredentials):
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid API credentials")
		case errors.Is(err, company.ErrCompanyInactive):
			utils.ErrorResponse(c, http.StatusForbidden, "company is inactive")
		default:
			h.logger.Errorw("failed to issue token", "error", err, "company_sid", req.CompanySID)
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to issue token")
		}
		return
	}

	utils.OKResponse(c, IssueTokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		Scope:       result.Scope,
		ExpiresIn:   result.ExpiresInSeconds,
	})
}
