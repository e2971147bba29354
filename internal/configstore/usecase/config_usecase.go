// Package usecase implements business logic orchestration for versioned
// configuration. Writes use optimistic concurrency control: a caller supplies
// the version it read, and a mismatch rejects the write so no update is ever
// silently overwritten.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	configDomain "github.com/allisson/controlplane/internal/configstore/domain"
	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// configUseCase implements the ConfigUseCase interface.
type configUseCase struct {
	txManager  database.TxManager
	configRepo ConfigRepository
	publisher  ChangePublisher
	logger     *slog.Logger
}

// changePayload is the JSON document attached to config change events.
type changePayload struct {
	Key         string `json:"key"`
	Environment string `json:"environment"`
	Version     uint   `json:"version"`
	Deleted     bool   `json:"deleted"`
}

// Get retrieves the entry for (key, environment) with environment inheritance:
// if no live entry exists for the requested environment, the global entry is
// consulted. An environment-specific entry, once written, fully shadows the
// global value; a soft-deleted override stops shadowing it.
func (u *configUseCase) Get(
	ctx context.Context,
	key, environment string,
) (*configDomain.ConfigEntry, error) {
	entry, err := u.configRepo.GetExact(ctx, key, environment)
	if err == nil && !entry.Deleted {
		return entry, nil
	}
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if environment != configDomain.EnvironmentGlobal {
		entry, err = u.configRepo.GetExact(ctx, key, configDomain.EnvironmentGlobal)
		if err == nil && !entry.Deleted {
			return entry, nil
		}
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	return nil, configDomain.ErrConfigNotFound
}

// Put writes a new version of the entry under optimistic concurrency control.
// expectedVersion 0 creates the entry at version 1; otherwise the stored
// version must equal expectedVersion or ErrVersionConflict is returned and the
// caller must re-read and retry.
func (u *configUseCase) Put(
	ctx context.Context,
	key, environment string,
	value []byte,
	expectedVersion uint,
	author string,
) (*configDomain.ConfigEntry, error) {
	entry, err := u.write(ctx, key, environment, value, expectedVersion, author, false)
	if err != nil {
		return nil, err
	}

	u.publish(ctx, entry)
	return entry, nil
}

// Delete soft-deletes the entry, guarded by expectedVersion. The deletion is
// recorded as a revision in the append-only history; the version counter keeps
// increasing so a later re-create continues the same history.
func (u *configUseCase) Delete(
	ctx context.Context,
	key, environment string,
	expectedVersion uint,
	author string,
) error {
	entry, err := u.write(ctx, key, environment, nil, expectedVersion, author, true)
	if err != nil {
		return err
	}

	u.publish(ctx, entry)
	return nil
}

// write applies a versioned mutation (value update or soft delete) within a transaction.
func (u *configUseCase) write(
	ctx context.Context,
	key, environment string,
	value []byte,
	expectedVersion uint,
	author string,
	deleted bool,
) (*configDomain.ConfigEntry, error) {
	now := time.Now().UTC()

	var entry *configDomain.ConfigEntry
	err := u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if expectedVersion == 0 {
			if deleted {
				return configDomain.ErrConfigNotFound
			}

			entry = &configDomain.ConfigEntry{
				ID:          uuid.Must(uuid.NewV7()),
				Key:         key,
				Environment: environment,
				Value:       value,
				Version:     1,
				CreatedBy:   author,
				UpdatedBy:   author,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := u.configRepo.Create(txCtx, entry); err != nil {
				if apperrors.Is(err, apperrors.ErrConflict) {
					return configDomain.ErrVersionConflict
				}
				return err
			}
		} else {
			current, err := u.configRepo.GetExact(txCtx, key, environment)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrNotFound) {
					return configDomain.ErrConfigNotFound
				}
				return err
			}

			entry = current
			entry.Value = value
			entry.Version = expectedVersion + 1
			entry.Deleted = deleted
			entry.UpdatedBy = author
			entry.UpdatedAt = now

			if err := u.configRepo.UpdateVersioned(txCtx, entry, expectedVersion); err != nil {
				if apperrors.Is(err, apperrors.ErrConflict) {
					return configDomain.ErrVersionConflict
				}
				return err
			}
		}

		revision := &configDomain.ConfigRevision{
			ID:        uuid.Must(uuid.NewV7()),
			EntryID:   entry.ID,
			Value:     entry.Value,
			Version:   entry.Version,
			Deleted:   deleted,
			ChangedBy: author,
			ChangedAt: now,
		}
		return u.configRepo.CreateRevision(txCtx, revision)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// publish enqueues a change event after the write committed. The enqueue is
// best-effort: a failure is logged and never fails the originating mutation.
func (u *configUseCase) publish(ctx context.Context, entry *configDomain.ConfigEntry) {
	payload, err := json.Marshal(changePayload{
		Key:         entry.Key,
		Environment: entry.Environment,
		Version:     entry.Version,
		Deleted:     entry.Deleted,
	})
	if err != nil {
		u.logger.Warn("failed to marshal config change payload", slog.Any("error", err))
		return
	}

	streamKey := entry.Environment + "/" + entry.Key
	if err := u.publisher.Publish(
		ctx,
		propagatorDomain.KindConfig,
		streamKey,
		uint64(entry.Version),
		payload,
	); err != nil {
		u.logger.Warn("failed to enqueue config change event",
			slog.String("key", entry.Key),
			slog.String("environment", entry.Environment),
			slog.Uint64("version", uint64(entry.Version)),
			slog.Any("error", err),
		)
	}
}

// GetHistory retrieves the append-only history for the exact (key, environment).
// History is returned for the requested environment only; no inheritance applies.
func (u *configUseCase) GetHistory(
	ctx context.Context,
	key, environment string,
) ([]*configDomain.ConfigRevision, error) {
	entry, err := u.configRepo.GetExact(ctx, key, environment)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, configDomain.ErrConfigNotFound
		}
		return nil, err
	}

	return u.configRepo.ListRevisions(ctx, entry.ID)
}

// List retrieves non-deleted entries for an environment ordered by key with pagination.
func (u *configUseCase) List(
	ctx context.Context,
	environment string,
	offset, limit int,
) ([]*configDomain.ConfigEntry, error) {
	return u.configRepo.List(ctx, environment, offset, limit)
}

// NewConfigUseCase creates a new config use case instance with the provided dependencies.
func NewConfigUseCase(
	txManager database.TxManager,
	configRepo ConfigRepository,
	publisher ChangePublisher,
	logger *slog.Logger,
) ConfigUseCase {
	return &configUseCase{
		txManager:  txManager,
		configRepo: configRepo,
		publisher:  publisher,
		logger:     logger,
	}
}
