package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/allisson/controlplane/internal/config"
	"github.com/allisson/controlplane/internal/database"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// Dispatcher drains pending outbox events into the broker. Events that fail
// to publish are retried with exponential backoff until the retry budget is
// exhausted, at which point they are marked failed for operator inspection.
type Dispatcher struct {
	config     *config.Config
	txManager  database.TxManager
	outboxRepo OutboxRepository
	sink       EventSink
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewDispatcher creates a new dispatcher. The rate limiter bounds drain
// throughput so a large backlog cannot flood the broker's queue.
func NewDispatcher(
	cfg *config.Config,
	txManager database.TxManager,
	outboxRepo OutboxRepository,
	sink EventSink,
	logger *slog.Logger,
) *Dispatcher {
	perSecond := float64(cfg.OutboxBatchSize) / cfg.OutboxInterval.Seconds()

	return &Dispatcher{
		config:     cfg,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		sink:       sink,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), cfg.OutboxBatchSize),
		logger:     logger,
	}
}

// Start runs the drain loop until the context is canceled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("starting outbox dispatcher",
		slog.Duration("interval", d.config.OutboxInterval),
		slog.Int("batch_size", d.config.OutboxBatchSize),
	)

	ticker := time.NewTicker(d.config.OutboxInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := d.ProcessEvents(ctx); err != nil {
				d.logger.Error("failed to process outbox events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents drains one batch of pending events inside a transaction, so
// rows stay locked until their new status commits.
func (d *Dispatcher) ProcessEvents(ctx context.Context) error {
	return d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		events, err := d.outboxRepo.GetPendingEvents(txCtx, d.config.OutboxBatchSize)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		// Streams with an earlier event still undelivered in this pass. Later
		// events for those streams are held back so per-key ordering survives
		// retry backoff: version 2 must never reach the broker before version 1.
		held := make(map[string]bool)
		for _, event := range events {
			streamID := string(event.Kind) + "/" + event.Key
			if held[streamID] {
				continue
			}

			if now.Before(d.nextAttemptAt(event)) {
				held[streamID] = true
				continue
			}

			if err := d.limiter.Wait(txCtx); err != nil {
				return err
			}

			if err := d.sink.Publish(event.ToChangeEvent()); err != nil {
				held[streamID] = true
				event.Retries++
				message := err.Error()
				event.LastError = &message
				if event.Retries >= d.config.OutboxMaxRetries {
					event.Status = propagatorDomain.OutboxEventStatusFailed
					d.logger.Error("outbox event exhausted retries",
						slog.String("event_id", event.ID.String()),
						slog.String("stream", streamID),
					)
				}
				event.UpdatedAt = now
				if err := d.outboxRepo.Update(txCtx, event); err != nil {
					return err
				}
				continue
			}

			processedAt := now
			event.Status = propagatorDomain.OutboxEventStatusProcessed
			event.ProcessedAt = &processedAt
			event.UpdatedAt = now
			if err := d.outboxRepo.Update(txCtx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

// nextAttemptAt returns when a previously failed event becomes eligible
// again: the poll interval doubled per retry, capped at one minute.
func (d *Dispatcher) nextAttemptAt(event *propagatorDomain.OutboxEvent) time.Time {
	if event.Retries == 0 {
		return event.CreatedAt
	}

	backoff := d.config.OutboxInterval * time.Duration(1<<uint(event.Retries))
	if backoff > time.Minute {
		backoff = time.Minute
	}
	return event.UpdatedAt.Add(backoff)
}
