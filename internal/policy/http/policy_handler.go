// Package http provides HTTP handlers for policy management and evaluation.
// Policy updates carry the caller's expected version in the If-Match header,
// mirroring the config API's optimistic concurrency contract.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"

	"github.com/allisson/controlplane/internal/httputil"
	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
	"github.com/allisson/controlplane/internal/policy/http/dto"
	policyUseCase "github.com/allisson/controlplane/internal/policy/usecase"
	customValidation "github.com/allisson/controlplane/internal/validation"
)

// PolicyHandler handles HTTP requests for policy operations.
type PolicyHandler struct {
	policyUseCase policyUseCase.PolicyUseCase
	logger        *slog.Logger
}

// NewPolicyHandler creates a new policy handler with required dependencies.
func NewPolicyHandler(useCase policyUseCase.PolicyUseCase, logger *slog.Logger) *PolicyHandler {
	return &PolicyHandler{
		policyUseCase: useCase,
		logger:        logger,
	}
}

// parseID extracts and validates the policy id URL parameter.
func (h *PolicyHandler) parseID(c *gin.Context) (string, error) {
	id := c.Param("id")
	if err := validation.Validate(id, validation.Required, is.UUID); err != nil {
		return "", fmt.Errorf("invalid policy id: %w", err)
	}
	return id, nil
}

// parseVersion extracts the optional version query parameter. Zero means the
// current version.
func (h *PolicyHandler) parseVersion(c *gin.Context) (uint, error) {
	raw := c.Query("version")
	if raw == "" {
		return 0, nil
	}
	version, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || version == 0 {
		return 0, fmt.Errorf("invalid version")
	}
	return uint(version), nil
}

// CreateHandler creates a new policy at version 1.
// POST /v1/policies
// Returns 201 Created with the policy and its version in the ETag header.
func (h *PolicyHandler) CreateHandler(c *gin.Context) {
	var req dto.PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	policy, err := h.policyUseCase.CreatePolicy(c.Request.Context(), req.Name, req.Rules)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.SetVersionETag(c, policy.Version)
	c.JSON(http.StatusCreated, dto.MapPolicyToResponse(policy))
}

// UpdateHandler replaces a policy's rule set as a new version. The If-Match
// header must carry the version the caller last read.
// PUT /v1/policies/:id
// Returns 200 OK with the new version, or 409 Conflict on a stale version.
func (h *PolicyHandler) UpdateHandler(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	expectedVersion, present, err := httputil.ParseExpectedVersion(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if !present {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("If-Match header is required for update"),
			h.logger,
		)
		return
	}

	var req dto.PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := validation.Validate(req.Rules, validation.Required); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	policy, err := h.policyUseCase.UpdatePolicy(c.Request.Context(), id, req.Rules, expectedVersion)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.SetVersionETag(c, policy.Version)
	c.JSON(http.StatusOK, dto.MapPolicyToResponse(policy))
}

// GetHandler retrieves a policy, optionally pinned at a version.
// GET /v1/policies/:id?version=2
// Returns 200 OK with the policy and its version in the ETag header.
func (h *PolicyHandler) GetHandler(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	version, err := h.parseVersion(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	policy, err := h.policyUseCase.GetPolicy(c.Request.Context(), id, version)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.SetVersionETag(c, policy.Version)
	c.JSON(http.StatusOK, dto.MapPolicyToResponse(policy))
}

// ListHandler retrieves current policies with pagination.
// GET /v1/policies?offset=0&limit=50
// Returns 200 OK with policies ordered by name.
func (h *PolicyHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	policies, err := h.policyUseCase.ListPolicies(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPoliciesToListResponse(policies))
}

// EvaluateHandler evaluates a policy version against the request's attribute
// context. A DENY is a successful evaluation, not an error.
// POST /v1/policies/:id/evaluate
// Returns 200 OK with {decision, matched_rule_id, trace}.
func (h *PolicyHandler) EvaluateHandler(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	decision, err := h.policyUseCase.Evaluate(
		c.Request.Context(),
		id,
		req.Version,
		policyDomain.EvaluationInput{Attributes: req.Attributes},
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDecisionToResponse(decision))
}
