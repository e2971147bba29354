package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	"github.com/allisson/controlplane/internal/accesscontrol/http/dto"
	accessUseCase "github.com/allisson/controlplane/internal/accesscontrol/usecase"
	"github.com/allisson/controlplane/internal/httputil"
	customValidation "github.com/allisson/controlplane/internal/validation"
)

// TokenHandler handles HTTP requests for token issuance.
type TokenHandler struct {
	tokenUseCase accessUseCase.TokenUseCase
	logger       *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(tokenUseCase accessUseCase.TokenUseCase, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		tokenUseCase: tokenUseCase,
		logger:       logger,
	}
}

// IssueHandler authenticates a client by secret and issues a bearer token.
// POST /v1/auth/token
// Returns 201 Created with the plain token, which is never shown again.
func (h *TokenHandler) IssueHandler(c *gin.Context) {
	var req dto.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	output, err := h.tokenUseCase.Issue(c.Request.Context(), &accessDomain.IssueTokenInput{
		ClientID:     clientID,
		ClientSecret: req.ClientSecret,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIssueTokenOutputToResponse(output))
}
