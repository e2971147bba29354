package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
)

// ruleUseCase implements rule management. Mutations invalidate the admission
// path's rule cache so changes take effect locally without waiting for the
// staleness bound.
type ruleUseCase struct {
	ruleRepo RuleRepository
	cache    *RuleCache
	logger   *slog.Logger
}

// NewRuleUseCase creates a new rule use case instance.
func NewRuleUseCase(ruleRepo RuleRepository, cache *RuleCache, logger *slog.Logger) RuleUseCase {
	return &ruleUseCase{
		ruleRepo: ruleRepo,
		cache:    cache,
		logger:   logger,
	}
}

// CreateRule inserts a new rule.
func (r *ruleUseCase) CreateRule(ctx context.Context, rule *ratelimitDomain.Rule) error {
	now := time.Now().UTC()
	rule.ID = uuid.Must(uuid.NewV7())
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := r.ruleRepo.Create(ctx, rule); err != nil {
		return err
	}

	r.logger.Info("rate limit rule created",
		slog.String("rule", rule.Name),
		slog.String("algorithm", string(rule.Algorithm)),
	)
	return nil
}

// UpdateRule replaces the configuration of an existing rule.
func (r *ruleUseCase) UpdateRule(ctx context.Context, rule *ratelimitDomain.Rule) error {
	rule.UpdatedAt = time.Now().UTC()

	if err := r.ruleRepo.Update(ctx, rule); err != nil {
		return err
	}

	r.cache.Invalidate(rule.Name)
	r.logger.Info("rate limit rule updated", slog.String("rule", rule.Name))
	return nil
}

// GetRule retrieves a rule by name.
func (r *ruleUseCase) GetRule(ctx context.Context, name string) (*ratelimitDomain.Rule, error) {
	return r.ruleRepo.GetByName(ctx, name)
}

// ListRules retrieves rules with pagination.
func (r *ruleUseCase) ListRules(
	ctx context.Context,
	offset, limit int,
) ([]*ratelimitDomain.Rule, error) {
	return r.ruleRepo.List(ctx, offset, limit)
}

// DeleteRule removes a rule by name.
func (r *ruleUseCase) DeleteRule(ctx context.Context, name string) error {
	if err := r.ruleRepo.Delete(ctx, name); err != nil {
		return err
	}

	r.cache.Invalidate(name)
	r.logger.Info("rate limit rule deleted", slog.String("rule", name))
	return nil
}
