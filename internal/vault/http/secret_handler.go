// Package http provides HTTP handlers for the secrets vault. Secret names are
// path-style, so routes use catch-all parameters; sub-resources like versions
// and access logs live under their own prefixes.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	accesscontrolHTTP "github.com/allisson/controlplane/internal/accesscontrol/http"
	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
	"github.com/allisson/controlplane/internal/httputil"
	customValidation "github.com/allisson/controlplane/internal/validation"
	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
	"github.com/allisson/controlplane/internal/vault/http/dto"
	vaultUseCase "github.com/allisson/controlplane/internal/vault/usecase"
	validation "github.com/jellydator/validation"
)

// SecretHandler handles HTTP requests for secret lifecycle operations.
type SecretHandler struct {
	vaultUseCase vaultUseCase.VaultUseCase
	logger       *slog.Logger
}

// NewSecretHandler creates a new secret handler with required dependencies.
func NewSecretHandler(useCase vaultUseCase.VaultUseCase, logger *slog.Logger) *SecretHandler {
	return &SecretHandler{
		vaultUseCase: useCase,
		logger:       logger,
	}
}

// parseName extracts and validates the secret name from the catch-all URL
// parameter.
func (h *SecretHandler) parseName(c *gin.Context) (string, error) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if err := validation.Validate(name, customValidation.Key); err != nil {
		return "", fmt.Errorf("invalid name: %w", err)
	}
	return name, nil
}

// clientName returns the authenticated client name for the audit trail.
func (h *SecretHandler) clientName(c *gin.Context) string {
	if client, ok := accesscontrolHTTP.GetClient(c.Request.Context()); ok {
		return client.Name
	}
	return "anonymous"
}

// CreateHandler stores a new version of a secret with a caller-supplied value.
// POST /v1/secrets/*name
// Returns 201 Created with the version metadata; the value is never echoed.
func (h *SecretHandler) CreateHandler(c *gin.Context) {
	name, err := h.parseName(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.CreateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	secret, err := h.vaultUseCase.Create(c.Request.Context(), name, req.Value, h.clientName(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSecretToResponse(secret))
}

// ReadHandler retrieves and decrypts a secret. Without a version query the
// active version is returned; deprecated versions stay readable until their
// grace window closes.
// GET /v1/secrets/*name?version=3
// Returns 200 OK with the decrypted value, 404 for missing or revoked
// versions, or 503 when the access could not be audited.
func (h *SecretHandler) ReadHandler(c *gin.Context) {
	name, err := h.parseName(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var secret *vaultDomain.Secret
	if raw := c.Query("version"); raw != "" {
		version, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil || version == 0 {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid version"), h.logger)
			return
		}
		secret, err = h.vaultUseCase.ReadVersion(c.Request.Context(), name, uint(version), h.clientName(c))
	} else {
		secret, err = h.vaultUseCase.Read(c.Request.Context(), name, h.clientName(c))
	}
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(secret.Plaintext)

	c.JSON(http.StatusOK, dto.MapSecretToResponse(secret))
}

// RotateHandler creates a new version with generated secret material. With
// the immediate flag the previous version is revoked right away instead of
// entering its grace window.
// POST /v1/secret-rotations/*name
// Returns 201 Created with the new version metadata.
func (h *SecretHandler) RotateHandler(c *gin.Context) {
	name, err := h.parseName(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.RotateSecretRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
	}

	rotate := h.vaultUseCase.Rotate
	if req.Immediate {
		rotate = h.vaultUseCase.EmergencyRotate
	}

	secret, err := rotate(c.Request.Context(), name, h.clientName(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSecretToResponse(secret))
}

// RevokeHandler marks a specific version as unreadable.
// POST /v1/secret-revocations/*name?version=3
// Returns 204 No Content.
func (h *SecretHandler) RevokeHandler(c *gin.Context) {
	name, err := h.parseName(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	version, err := strconv.ParseUint(c.Query("version"), 10, 32)
	if err != nil || version == 0 {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("version query parameter is required"), h.logger)
		return
	}

	err = h.vaultUseCase.Revoke(c.Request.Context(), name, uint(version), h.clientName(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// ListHandler retrieves active secret versions without values.
// GET /v1/secrets?offset=0&limit=50
// Returns 200 OK with secrets ordered by name.
func (h *SecretHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	secrets, err := h.vaultUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretsToListResponse(secrets))
}

// ListVersionsHandler retrieves all versions of a secret without values.
// GET /v1/secret-versions/*name
// Returns 200 OK with versions ordered newest first.
func (h *SecretHandler) ListVersionsHandler(c *gin.Context) {
	name, err := h.parseName(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	secrets, err := h.vaultUseCase.ListVersions(c.Request.Context(), name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretsToListResponse(secrets))
}

// ListAccessLogsHandler retrieves the access history of a secret.
// GET /v1/secret-access-logs/*name?offset=0&limit=50
// Returns 200 OK with log rows ordered newest first.
func (h *SecretHandler) ListAccessLogsHandler(c *gin.Context) {
	name, err := h.parseName(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	logs, err := h.vaultUseCase.ListAccessLogs(c.Request.Context(), name, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccessLogsToListResponse(logs))
}

// SetRotationPolicyHandler creates or replaces the rotation schedule for a
// secret.
// PUT /v1/rotation-policies/*name
// Returns 200 OK with the stored policy.
func (h *SecretHandler) SetRotationPolicyHandler(c *gin.Context) {
	name, err := h.parseName(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.SetRotationPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	policy, err := h.vaultUseCase.SetRotationPolicy(
		c.Request.Context(),
		name,
		time.Duration(req.IntervalSeconds)*time.Second,
		time.Duration(req.GracePeriodSeconds)*time.Second,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRotationPolicyToResponse(policy))
}

// GetRotationPolicyHandler retrieves the rotation schedule for a secret.
// GET /v1/rotation-policies/*name
// Returns 200 OK with the policy.
func (h *SecretHandler) GetRotationPolicyHandler(c *gin.Context) {
	name, err := h.parseName(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	policy, err := h.vaultUseCase.GetRotationPolicy(c.Request.Context(), name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRotationPolicyToResponse(policy))
}
