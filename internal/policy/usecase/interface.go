// Package usecase implements policy management and evaluation orchestration.
package usecase

import (
	"context"

	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"

	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
)

// PolicyRepository defines policy persistence operations.
type PolicyRepository interface {
	Create(ctx context.Context, policy *policyDomain.Policy) error
	InsertVersion(ctx context.Context, policy *policyDomain.Policy) error
	UpdateVersioned(ctx context.Context, policy *policyDomain.Policy, expectedVersion uint) error
	GetCurrent(ctx context.Context, id string) (*policyDomain.Policy, error)
	GetVersion(ctx context.Context, id string, version uint) (*policyDomain.Policy, error)
	List(ctx context.Context, offset, limit int) ([]*policyDomain.Policy, error)
}

// ChangePublisher enqueues change events after committed policy mutations.
type ChangePublisher interface {
	Publish(
		ctx context.Context,
		kind propagatorDomain.EntityKind,
		key string,
		version uint64,
		payload []byte,
	) error
}

// PolicyUseCase defines policy operations.
type PolicyUseCase interface {
	// CreatePolicy stores a new policy at version 1.
	CreatePolicy(ctx context.Context, name string, rules []policyDomain.Rule) (*policyDomain.Policy, error)

	// UpdatePolicy replaces the whole rule set under optimistic concurrency.
	UpdatePolicy(
		ctx context.Context,
		id string,
		rules []policyDomain.Rule,
		expectedVersion uint,
	) (*policyDomain.Policy, error)

	// GetPolicy retrieves the current version, or a pinned one when version
	// is non-zero.
	GetPolicy(ctx context.Context, id string, version uint) (*policyDomain.Policy, error)

	// ListPolicies retrieves current policies with pagination.
	ListPolicies(ctx context.Context, offset, limit int) ([]*policyDomain.Policy, error)

	// Evaluate runs the pinned (or current) policy version against the input.
	Evaluate(
		ctx context.Context,
		id string,
		version uint,
		input policyDomain.EvaluationInput,
	) (*policyDomain.Decision, error)
}
