// Package domain contains core types for rate limit admission control.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/controlplane/internal/errors"
)

// RuleScope identifies what a rule's counters are partitioned by.
type RuleScope string

// Supported rule scopes.
const (
	ScopeGlobal   RuleScope = "global"
	ScopeUser     RuleScope = "user"
	ScopeIP       RuleScope = "ip"
	ScopeEndpoint RuleScope = "endpoint"
)

// ParseRuleScope converts a string to a RuleScope.
func ParseRuleScope(s string) (RuleScope, error) {
	switch RuleScope(s) {
	case ScopeGlobal, ScopeUser, ScopeIP, ScopeEndpoint:
		return RuleScope(s), nil
	default:
		return "", errors.Wrap(errors.ErrInvalidInput, "unsupported rule scope: "+s)
	}
}

// Algorithm identifies the admission algorithm a rule dispatches to. The set
// is closed; Check switches over it exhaustively.
type Algorithm string

// Supported admission algorithms.
const (
	AlgorithmFixedWindow   Algorithm = "fixed-window"
	AlgorithmSlidingWindow Algorithm = "sliding-window"
	AlgorithmTokenBucket   Algorithm = "token-bucket"
	AlgorithmLeakyBucket   Algorithm = "leaky-bucket"
)

// ParseAlgorithm converts a string to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmFixedWindow, AlgorithmSlidingWindow, AlgorithmTokenBucket, AlgorithmLeakyBucket:
		return Algorithm(s), nil
	default:
		return "", errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm: "+s)
	}
}

// Rule is a named rate limit configuration. Limit admissions are counted per
// Window; BurstCapacity applies to the bucket algorithms and falls back to
// Limit when zero.
type Rule struct {
	ID            uuid.UUID
	Name          string
	Scope         RuleScope
	Algorithm     Algorithm
	Limit         int64
	Window        time.Duration
	BurstCapacity int64
	Enabled       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Capacity returns the bucket capacity for the token and leaky bucket
// algorithms.
func (r *Rule) Capacity() int64 {
	if r.BurstCapacity > 0 {
		return r.BurstCapacity
	}
	return r.Limit
}

// RatePerSecond returns the refill or drain rate derived from Limit and Window.
func (r *Rule) RatePerSecond() float64 {
	seconds := r.Window.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(r.Limit) / seconds
}

// Decision is the outcome of an admission check. RetryAfterSeconds is only
// meaningful when the request was denied.
type Decision struct {
	Allowed           bool
	RetryAfterSeconds int64
}
