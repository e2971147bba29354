package usecase

import (
	"context"
	"time"

	configDomain "github.com/allisson/controlplane/internal/configstore/domain"
	apperrors "github.com/allisson/controlplane/internal/errors"
	"github.com/allisson/controlplane/internal/metrics"
)

// configUseCaseWithMetrics decorates ConfigUseCase with metrics instrumentation.
type configUseCaseWithMetrics struct {
	next    ConfigUseCase
	metrics metrics.BusinessMetrics
}

// NewConfigUseCaseWithMetrics wraps a ConfigUseCase with metrics recording.
func NewConfigUseCaseWithMetrics(useCase ConfigUseCase, m metrics.BusinessMetrics) ConfigUseCase {
	return &configUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// writeStatus maps write outcomes to a metric status, with version conflicts
// tracked separately from other errors.
func writeStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.Is(err, apperrors.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

// Get records metrics for config retrieval operations.
func (c *configUseCaseWithMetrics) Get(
	ctx context.Context,
	key, environment string,
) (*configDomain.ConfigEntry, error) {
	start := time.Now()
	entry, err := c.next.Get(ctx, key, environment)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "config", "config_get", status)
	c.metrics.RecordDuration(ctx, "config", "config_get", time.Since(start), status)

	return entry, err
}

// Put records metrics for config write operations.
func (c *configUseCaseWithMetrics) Put(
	ctx context.Context,
	key, environment string,
	value []byte,
	expectedVersion uint,
	author string,
) (*configDomain.ConfigEntry, error) {
	start := time.Now()
	entry, err := c.next.Put(ctx, key, environment, value, expectedVersion, author)

	status := writeStatus(err)
	c.metrics.RecordOperation(ctx, "config", "config_put", status)
	c.metrics.RecordDuration(ctx, "config", "config_put", time.Since(start), status)

	return entry, err
}

// Delete records metrics for config deletion operations.
func (c *configUseCaseWithMetrics) Delete(
	ctx context.Context,
	key, environment string,
	expectedVersion uint,
	author string,
) error {
	start := time.Now()
	err := c.next.Delete(ctx, key, environment, expectedVersion, author)

	status := writeStatus(err)
	c.metrics.RecordOperation(ctx, "config", "config_delete", status)
	c.metrics.RecordDuration(ctx, "config", "config_delete", time.Since(start), status)

	return err
}

// GetHistory records metrics for config history retrieval operations.
func (c *configUseCaseWithMetrics) GetHistory(
	ctx context.Context,
	key, environment string,
) ([]*configDomain.ConfigRevision, error) {
	start := time.Now()
	revisions, err := c.next.GetHistory(ctx, key, environment)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "config", "config_history", status)
	c.metrics.RecordDuration(ctx, "config", "config_history", time.Since(start), status)

	return revisions, err
}

// List records metrics for config listing operations.
func (c *configUseCaseWithMetrics) List(
	ctx context.Context,
	environment string,
	offset, limit int,
) ([]*configDomain.ConfigEntry, error) {
	start := time.Now()
	entries, err := c.next.List(ctx, environment, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "config", "config_list", status)
	c.metrics.RecordDuration(ctx, "config", "config_list", time.Since(start), status)

	return entries, err
}
