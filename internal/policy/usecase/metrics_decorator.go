package usecase

import (
	"context"
	"time"

	apperrors "github.com/allisson/controlplane/internal/errors"
	"github.com/allisson/controlplane/internal/metrics"
	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
)

// policyUseCaseWithMetrics decorates PolicyUseCase with metrics instrumentation.
type policyUseCaseWithMetrics struct {
	next    PolicyUseCase
	metrics metrics.BusinessMetrics
}

// NewPolicyUseCaseWithMetrics wraps a PolicyUseCase with metrics recording.
func NewPolicyUseCaseWithMetrics(useCase PolicyUseCase, m metrics.BusinessMetrics) PolicyUseCase {
	return &policyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// mutationStatus maps write outcomes to a metric status, tracking version
// conflicts separately.
func mutationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.Is(err, apperrors.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (p *policyUseCaseWithMetrics) record(
	ctx context.Context,
	operation, status string,
	start time.Time,
) {
	p.metrics.RecordOperation(ctx, "policy", operation, status)
	p.metrics.RecordDuration(ctx, "policy", operation, time.Since(start), status)
}

func (p *policyUseCaseWithMetrics) CreatePolicy(
	ctx context.Context,
	name string,
	rules []policyDomain.Rule,
) (*policyDomain.Policy, error) {
	start := time.Now()
	policy, err := p.next.CreatePolicy(ctx, name, rules)
	p.record(ctx, "policy_create", mutationStatus(err), start)
	return policy, err
}

func (p *policyUseCaseWithMetrics) UpdatePolicy(
	ctx context.Context,
	id string,
	rules []policyDomain.Rule,
	expectedVersion uint,
) (*policyDomain.Policy, error) {
	start := time.Now()
	policy, err := p.next.UpdatePolicy(ctx, id, rules, expectedVersion)
	p.record(ctx, "policy_update", mutationStatus(err), start)
	return policy, err
}

func (p *policyUseCaseWithMetrics) GetPolicy(
	ctx context.Context,
	id string,
	version uint,
) (*policyDomain.Policy, error) {
	start := time.Now()
	policy, err := p.next.GetPolicy(ctx, id, version)
	p.record(ctx, "policy_get", mutationStatus(err), start)
	return policy, err
}

func (p *policyUseCaseWithMetrics) ListPolicies(
	ctx context.Context,
	offset, limit int,
) ([]*policyDomain.Policy, error) {
	start := time.Now()
	policies, err := p.next.ListPolicies(ctx, offset, limit)
	p.record(ctx, "policy_list", mutationStatus(err), start)
	return policies, err
}

func (p *policyUseCaseWithMetrics) Evaluate(
	ctx context.Context,
	id string,
	version uint,
	input policyDomain.EvaluationInput,
) (*policyDomain.Decision, error) {
	start := time.Now()
	decision, err := p.next.Evaluate(ctx, id, version, input)

	status := "error"
	switch {
	case err != nil:
	case decision.Effect == policyDomain.EffectAllow:
		status = "allow"
	default:
		status = "deny"
	}

	p.record(ctx, "policy_evaluate", status, start)
	return decision, err
}
