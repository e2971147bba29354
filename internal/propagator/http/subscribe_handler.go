// Package http provides the change subscription endpoint. Subscribers
// receive ordered per-stream events over SSE and resume with since_version;
// delivery is at-least-once, so consumers dedupe by (kind, key, version).
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allisson/controlplane/internal/httputil"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
	propagatorUseCase "github.com/allisson/controlplane/internal/propagator/usecase"
	customValidation "github.com/allisson/controlplane/internal/validation"
	validation "github.com/jellydator/validation"
)

// eventPayload is the SSE data document for one change event.
type eventPayload struct {
	Kind      string          `json:"kind"`
	Key       string          `json:"key"`
	Version   uint64          `json:"version"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

// SubscribeHandler streams change events to long-lived subscribers.
type SubscribeHandler struct {
	broker *propagatorUseCase.Broker
	logger *slog.Logger
}

// NewSubscribeHandler creates a new subscribe handler.
func NewSubscribeHandler(broker *propagatorUseCase.Broker, logger *slog.Logger) *SubscribeHandler {
	return &SubscribeHandler{
		broker: broker,
		logger: logger,
	}
}

// parseKind validates the kind query parameter against the closed kind set.
func parseKind(raw string) (propagatorDomain.EntityKind, error) {
	switch propagatorDomain.EntityKind(raw) {
	case propagatorDomain.KindConfig, propagatorDomain.KindSecret, propagatorDomain.KindPolicy:
		return propagatorDomain.EntityKind(raw), nil
	default:
		return "", fmt.Errorf("kind must be one of config, secret, policy")
	}
}

// SubscribeHandler streams one (kind, key) stream as server-sent events,
// replaying retained events newer than since_version first. When the replay
// window no longer reaches since_version the stream opens with a "resync"
// event; when the subscriber falls behind its buffer it receives a final
// "resync" event and must reconnect from its last acknowledged version.
// GET /v1/subscribe?kind=config&key=prod/db.timeout&since_version=3
func (h *SubscribeHandler) SubscribeHandler(c *gin.Context) {
	kind, err := parseKind(c.Query("kind"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	key := strings.TrimPrefix(c.Query("key"), "/")
	if err := validation.Validate(key, validation.Required, customValidation.Key); err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid key: %w", err), h.logger)
		return
	}

	var sinceVersion uint64
	if raw := c.Query("since_version"); raw != "" {
		sinceVersion, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid since_version"), h.logger)
			return
		}
	}

	sub := h.broker.Subscribe(kind, key, sinceVersion)
	defer h.broker.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	// The replay window no longer covers since_version: whatever replay
	// follows is partial, so tell the subscriber up front to refetch the full
	// state instead of trusting it.
	if sub.Gapped() {
		c.SSEvent("resync", gin.H{"reason": "replay window exceeded"})
		c.Writer.Flush()
	}

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-sub.Events:
			if !ok {
				if sub.Dropped() {
					c.SSEvent("resync", gin.H{"reason": "subscriber buffer overflow"})
					c.Writer.Flush()
				}
				return
			}

			c.SSEvent("change", eventPayload{
				Kind:      string(event.Kind),
				Key:       event.Key,
				Version:   event.Version,
				Payload:   event.Payload,
				CreatedAt: event.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			})
			c.Writer.Flush()
		}
	}
}
