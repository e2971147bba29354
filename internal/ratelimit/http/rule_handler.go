package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	"github.com/allisson/controlplane/internal/httputil"
	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
	"github.com/allisson/controlplane/internal/ratelimit/http/dto"
	ratelimitUseCase "github.com/allisson/controlplane/internal/ratelimit/usecase"
	customValidation "github.com/allisson/controlplane/internal/validation"
)

// RuleHandler handles rule management requests.
type RuleHandler struct {
	ruleUseCase ratelimitUseCase.RuleUseCase
	logger      *slog.Logger
}

// NewRuleHandler creates a new rule handler with required dependencies.
func NewRuleHandler(useCase ratelimitUseCase.RuleUseCase, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{
		ruleUseCase: useCase,
		logger:      logger,
	}
}

// parseRule binds and validates a rule payload into a domain rule.
func (h *RuleHandler) parseRule(c *gin.Context) (*ratelimitDomain.Rule, error) {
	var req dto.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	scope, err := ratelimitDomain.ParseRuleScope(req.Scope)
	if err != nil {
		return nil, err
	}
	algorithm, err := ratelimitDomain.ParseAlgorithm(req.Algorithm)
	if err != nil {
		return nil, err
	}

	return &ratelimitDomain.Rule{
		Name:          req.Name,
		Scope:         scope,
		Algorithm:     algorithm,
		Limit:         req.Limit,
		Window:        time.Duration(req.WindowSeconds) * time.Second,
		BurstCapacity: req.BurstCapacity,
		Enabled:       req.IsEnabled(),
	}, nil
}

// CreateHandler creates a new rule.
// POST /v1/ratelimit/rules
// Returns 201 Created with the rule, or 409 when the name is taken.
func (h *RuleHandler) CreateHandler(c *gin.Context) {
	rule, err := h.parseRule(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.ruleUseCase.CreateRule(c.Request.Context(), rule); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapRuleToResponse(rule))
}

// UpdateHandler replaces the configuration of an existing rule. The name in
// the URL wins over any name in the payload.
// PUT /v1/ratelimit/rules/:name
// Returns 200 OK with the updated rule.
func (h *RuleHandler) UpdateHandler(c *gin.Context) {
	name := c.Param("name")
	if err := validation.Validate(name, validation.Required, customValidation.Key); err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid name: %w", err), h.logger)
		return
	}

	rule, err := h.parseRule(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	rule.Name = name

	if err := h.ruleUseCase.UpdateRule(c.Request.Context(), rule); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	updated, err := h.ruleUseCase.GetRule(c.Request.Context(), name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRuleToResponse(updated))
}

// GetHandler retrieves a rule by name.
// GET /v1/ratelimit/rules/:name
// Returns 200 OK with the rule.
func (h *RuleHandler) GetHandler(c *gin.Context) {
	name := c.Param("name")
	if err := validation.Validate(name, validation.Required, customValidation.Key); err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid name: %w", err), h.logger)
		return
	}

	rule, err := h.ruleUseCase.GetRule(c.Request.Context(), name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRuleToResponse(rule))
}

// ListHandler retrieves rules with pagination.
// GET /v1/ratelimit/rules?offset=0&limit=50
// Returns 200 OK with rules ordered by name.
func (h *RuleHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	rules, err := h.ruleUseCase.ListRules(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRulesToListResponse(rules))
}

// DeleteHandler removes a rule by name.
// DELETE /v1/ratelimit/rules/:name
// Returns 204 No Content.
func (h *RuleHandler) DeleteHandler(c *gin.Context) {
	name := c.Param("name")
	if err := validation.Validate(name, validation.Required, customValidation.Key); err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid name: %w", err), h.logger)
		return
	}

	if err := h.ruleUseCase.DeleteRule(c.Request.Context(), name); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
