package usecase

import (
	"context"
	"sync"
	"time"

	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
)

// cachedRule holds one rule with the time it was fetched.
type cachedRule struct {
	rule      *ratelimitDomain.Rule
	fetchedAt time.Time
}

// RuleCache is a RuleProvider serving rules with bounded staleness. Rule
// changes take effect within the TTL without any cross-instance coordination.
type RuleCache struct {
	repo RuleRepository
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedRule
}

// NewRuleCache creates a rule cache with the given staleness bound.
func NewRuleCache(repo RuleRepository, ttl time.Duration) *RuleCache {
	return &RuleCache{
		repo:    repo,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedRule),
	}
}

// Get returns the cached rule when fresh, refreshing from the repository
// otherwise. Not-found results are not cached; a rule created moments ago
// must become usable immediately.
func (c *RuleCache) Get(ctx context.Context, name string) (*ratelimitDomain.Rule, error) {
	c.mu.RLock()
	entry, ok := c.entries[name]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.rule, nil
	}

	rule, err := c.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[name] = cachedRule{rule: rule, fetchedAt: c.now()}
	c.mu.Unlock()

	return rule, nil
}

// Invalidate drops the cached entry for a rule after a mutation.
func (c *RuleCache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}
