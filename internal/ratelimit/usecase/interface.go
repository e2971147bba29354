// Package usecase implements rate limit admission control and rule management.
package usecase

import (
	"context"

	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
)

// RuleRepository defines rate limit rule persistence operations.
type RuleRepository interface {
	Create(ctx context.Context, rule *ratelimitDomain.Rule) error
	Update(ctx context.Context, rule *ratelimitDomain.Rule) error
	GetByName(ctx context.Context, name string) (*ratelimitDomain.Rule, error)
	List(ctx context.Context, offset, limit int) ([]*ratelimitDomain.Rule, error)
	Delete(ctx context.Context, name string) error
}

// RuleProvider resolves rules for the admission path. The cached
// implementation serves rules with bounded staleness so Check never pays a
// database round trip per decision.
type RuleProvider interface {
	Get(ctx context.Context, name string) (*ratelimitDomain.Rule, error)
}

// LimiterUseCase defines the admission check operation.
type LimiterUseCase interface {
	// Check decides whether one request under the named rule, attributed to
	// identity, is admitted. Disabled rules admit everything.
	Check(ctx context.Context, ruleName, identity string) (*ratelimitDomain.Decision, error)
}

// RuleUseCase defines rule management operations.
type RuleUseCase interface {
	CreateRule(ctx context.Context, rule *ratelimitDomain.Rule) error
	UpdateRule(ctx context.Context, rule *ratelimitDomain.Rule) error
	GetRule(ctx context.Context, name string) (*ratelimitDomain.Rule, error)
	ListRules(ctx context.Context, offset, limit int) ([]*ratelimitDomain.Rule, error)
	DeleteRule(ctx context.Context, name string) error
}
