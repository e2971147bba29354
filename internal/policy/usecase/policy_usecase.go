package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/controlplane/internal/database"
	apperrors "github.com/allisson/controlplane/internal/errors"
	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
	policyService "github.com/allisson/controlplane/internal/policy/service"
	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
)

// policyUseCase implements the PolicyUseCase interface.
type policyUseCase struct {
	txManager  database.TxManager
	policyRepo PolicyRepository
	evaluator  *policyService.Evaluator
	publisher  ChangePublisher
	logger     *slog.Logger
}

// policyChangePayload is the JSON document attached to policy change events.
type policyChangePayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version uint   `json:"version"`
}

// CreatePolicy stores a new policy at version 1.
func (p *policyUseCase) CreatePolicy(
	ctx context.Context,
	name string,
	rules []policyDomain.Rule,
) (*policyDomain.Policy, error) {
	if err := policyDomain.ValidateRules(rules); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	policy := &policyDomain.Policy{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		Version:   1,
		Rules:     rules,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := p.policyRepo.Create(txCtx, policy); err != nil {
			return err
		}
		return p.policyRepo.InsertVersion(txCtx, policy)
	})
	if err != nil {
		return nil, err
	}

	p.publish(ctx, policy)
	return policy, nil
}

// UpdatePolicy replaces the whole rule set under optimistic concurrency.
func (p *policyUseCase) UpdatePolicy(
	ctx context.Context,
	id string,
	rules []policyDomain.Rule,
	expectedVersion uint,
) (*policyDomain.Policy, error) {
	if err := policyDomain.ValidateRules(rules); err != nil {
		return nil, err
	}

	current, err := p.policyRepo.GetCurrent(ctx, id)
	if err != nil {
		return nil, err
	}

	policy := &policyDomain.Policy{
		ID:        current.ID,
		Name:      current.Name,
		Version:   expectedVersion + 1,
		Rules:     rules,
		CreatedAt: current.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}

	err = p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := p.policyRepo.UpdateVersioned(txCtx, policy, expectedVersion); err != nil {
			return err
		}
		return p.policyRepo.InsertVersion(txCtx, policy)
	})
	if err != nil {
		return nil, err
	}

	p.publish(ctx, policy)
	return policy, nil
}

// GetPolicy retrieves the current version, or a pinned one when version is
// non-zero.
func (p *policyUseCase) GetPolicy(
	ctx context.Context,
	id string,
	version uint,
) (*policyDomain.Policy, error) {
	if version == 0 {
		return p.policyRepo.GetCurrent(ctx, id)
	}
	return p.policyRepo.GetVersion(ctx, id, version)
}

// ListPolicies retrieves current policies with pagination.
func (p *policyUseCase) ListPolicies(
	ctx context.Context,
	offset, limit int,
) ([]*policyDomain.Policy, error) {
	return p.policyRepo.List(ctx, offset, limit)
}

// Evaluate runs the pinned (or current) policy version against the input.
// A missing policy is the caller's error; a corrupt snapshot fails closed
// with a logged DENY.
func (p *policyUseCase) Evaluate(
	ctx context.Context,
	id string,
	version uint,
	input policyDomain.EvaluationInput,
) (*policyDomain.Decision, error) {
	if input.Now.IsZero() {
		input.Now = time.Now().UTC()
	}

	policy, err := p.GetPolicy(ctx, id, version)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		p.logger.Error("policy snapshot unreadable, denying",
			slog.String("policy_id", id),
			slog.Any("error", err),
		)
		return &policyDomain.Decision{
			Effect:        policyDomain.EffectDeny,
			PolicyVersion: version,
			Trace:         []policyDomain.TraceEntry{},
		}, nil
	}

	decision := p.evaluator.Evaluate(policy, input)
	return &decision, nil
}

// publish enqueues a change event after a policy mutation committed.
func (p *policyUseCase) publish(ctx context.Context, policy *policyDomain.Policy) {
	payload, err := json.Marshal(policyChangePayload{
		ID:      policy.ID.String(),
		Name:    policy.Name,
		Version: policy.Version,
	})
	if err != nil {
		p.logger.Warn("failed to marshal policy change payload", slog.Any("error", err))
		return
	}

	if err := p.publisher.Publish(
		ctx,
		propagatorDomain.KindPolicy,
		policy.ID.String(),
		uint64(policy.Version),
		payload,
	); err != nil {
		p.logger.Warn("failed to enqueue policy change event",
			slog.String("policy_id", policy.ID.String()),
			slog.Any("error", err),
		)
	}
}

// NewPolicyUseCase creates a new policy use case instance.
func NewPolicyUseCase(
	txManager database.TxManager,
	policyRepo PolicyRepository,
	evaluator *policyService.Evaluator,
	publisher ChangePublisher,
	logger *slog.Logger,
) PolicyUseCase {
	return &policyUseCase{
		txManager:  txManager,
		policyRepo: policyRepo,
		evaluator:  evaluator,
		publisher:  publisher,
		logger:     logger,
	}
}
