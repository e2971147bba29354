// Package http provides HTTP handlers for versioned configuration management.
// Writes carry the caller's expected version in the If-Match header; a stale
// version is rejected with 409 so concurrent editors never overwrite each other.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	accesscontrolHTTP "github.com/allisson/controlplane/internal/accesscontrol/http"
	configDomain "github.com/allisson/controlplane/internal/configstore/domain"
	"github.com/allisson/controlplane/internal/configstore/http/dto"
	configUseCase "github.com/allisson/controlplane/internal/configstore/usecase"
	"github.com/allisson/controlplane/internal/httputil"
	customValidation "github.com/allisson/controlplane/internal/validation"
	validation "github.com/jellydator/validation"
)

// ConfigHandler handles HTTP requests for versioned configuration operations.
type ConfigHandler struct {
	configUseCase configUseCase.ConfigUseCase
	logger        *slog.Logger
}

// NewConfigHandler creates a new config handler with required dependencies.
func NewConfigHandler(useCase configUseCase.ConfigUseCase, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		configUseCase: useCase,
		logger:        logger,
	}
}

// parseKeyAndEnvironment extracts and validates the config key from the URL
// parameter and the environment from the query string. The environment
// defaults to global when absent.
func (h *ConfigHandler) parseKeyAndEnvironment(c *gin.Context) (key, environment string, err error) {
	key = strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		return "", "", fmt.Errorf("key cannot be empty")
	}
	if err := validation.Validate(key, customValidation.Key); err != nil {
		return "", "", fmt.Errorf("invalid key: %w", err)
	}

	environment = c.DefaultQuery("environment", configDomain.EnvironmentGlobal)
	if err := validation.Validate(environment, customValidation.Environment); err != nil {
		return "", "", fmt.Errorf("invalid environment: %w", err)
	}

	return key, environment, nil
}

// author returns the authenticated client name for attribution in the
// entry's history.
func (h *ConfigHandler) author(c *gin.Context) string {
	if client, ok := accesscontrolHTTP.GetClient(c.Request.Context()); ok {
		return client.Name
	}
	return "anonymous"
}

// GetHandler retrieves a config entry, falling back to the global environment
// when no environment-specific override exists.
// GET /v1/configs/*key?environment=production
// Returns 200 OK with the entry and its version in the ETag header.
func (h *ConfigHandler) GetHandler(c *gin.Context) {
	key, environment, err := h.parseKeyAndEnvironment(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	entry, err := h.configUseCase.Get(c.Request.Context(), key, environment)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.SetVersionETag(c, entry.Version)
	c.JSON(http.StatusOK, dto.MapConfigEntryToResponse(entry))
}

// PutHandler creates or updates a config entry under optimistic concurrency
// control. The If-Match header carries the version the caller last read; when
// absent the request is treated as a create.
// PUT /v1/configs/*key?environment=production
// Returns 200 OK with the new entry, or 409 Conflict on a stale version.
func (h *ConfigHandler) PutHandler(c *gin.Context) {
	key, environment, err := h.parseKeyAndEnvironment(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	expectedVersion, _, err := httputil.ParseExpectedVersion(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.PutConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	entry, err := h.configUseCase.Put(
		c.Request.Context(),
		key,
		environment,
		req.Value,
		expectedVersion,
		h.author(c),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.SetVersionETag(c, entry.Version)
	c.JSON(http.StatusOK, dto.MapConfigEntryToResponse(entry))
}

// DeleteHandler soft-deletes a config entry. The If-Match header is required
// so a deletion is subject to the same version guard as an update.
// DELETE /v1/configs/*key?environment=production
// Returns 204 No Content.
func (h *ConfigHandler) DeleteHandler(c *gin.Context) {
	key, environment, err := h.parseKeyAndEnvironment(c)
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
			fmt.Errorf("If-Match header is required for delete"),
			h.logger,
		)
		return
	}

	err = h.configUseCase.Delete(c.Request.Context(), key, environment, expectedVersion, h.author(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// HistoryHandler retrieves the append-only history of a config entry for the
// exact environment; no inheritance applies.
// GET /v1/configs/*key/history is not expressible with a catch-all route, so
// history is requested via GET /v1/config-history/*key?environment=production.
// Returns 200 OK with revisions ordered by version ascending.
func (h *ConfigHandler) HistoryHandler(c *gin.Context) {
	key, environment, err := h.parseKeyAndEnvironment(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	revisions, err := h.configUseCase.GetHistory(c.Request.Context(), key, environment)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRevisionsToHistoryResponse(key, environment, revisions))
}

// ListHandler retrieves config entries for an environment with pagination.
// GET /v1/configs?environment=production&offset=0&limit=50
// Returns 200 OK with entries ordered by key.
func (h *ConfigHandler) ListHandler(c *gin.Context) {
	environment := c.DefaultQuery("environment", configDomain.EnvironmentGlobal)
	if err := validation.Validate(environment, customValidation.Environment); err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid environment: %w", err), h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	entries, err := h.configUseCase.List(c.Request.Context(), environment, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapConfigEntriesToListResponse(entries))
}
