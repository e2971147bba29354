// Package http provides HTTP handlers and middleware for rate limiting.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/controlplane/internal/httputil"
	"github.com/allisson/controlplane/internal/ratelimit/http/dto"
	ratelimitUseCase "github.com/allisson/controlplane/internal/ratelimit/usecase"
	customValidation "github.com/allisson/controlplane/internal/validation"
)

// CheckHandler handles admission check requests from gateways and services.
type CheckHandler struct {
	limiterUseCase ratelimitUseCase.LimiterUseCase
	logger         *slog.Logger
}

// NewCheckHandler creates a new check handler with required dependencies.
func NewCheckHandler(useCase ratelimitUseCase.LimiterUseCase, logger *slog.Logger) *CheckHandler {
	return &CheckHandler{
		limiterUseCase: useCase,
		logger:         logger,
	}
}

// CheckHandler decides whether one request attributed to an identity is
// admitted under a rule. A denial is a successful check, not an error.
// POST /v1/ratelimit/check
// Returns 200 OK with {allowed, retry_after_seconds}.
func (h *CheckHandler) CheckHandler(c *gin.Context) {
	var req dto.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	decision, err := h.limiterUseCase.Check(c.Request.Context(), req.Rule, req.Identity)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDecisionToResponse(decision))
}
