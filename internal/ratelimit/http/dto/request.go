// Package dto contains request and response payloads for the rate limit HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
	customValidation "github.com/allisson/controlplane/internal/validation"
)

// CheckRequest is the payload for an admission check.
type CheckRequest struct {
	Rule     string `json:"rule" binding:"required"`
	Identity string `json:"identity"`
}

// Validate validates the check request. Identity may be empty only for
// global-scoped rules, which the use case resolves itself.
func (r CheckRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rule, validation.Required, customValidation.Key),
		validation.Field(&r.Identity, validation.Length(0, 255)),
	)
}

// RuleRequest is the payload for creating or updating a rule.
type RuleRequest struct {
	Name          string `json:"name" binding:"required"`
	Scope         string `json:"scope" binding:"required"`
	Algorithm     string `json:"algorithm" binding:"required"`
	Limit         int64  `json:"limit" binding:"required"`
	WindowSeconds int64  `json:"window_seconds" binding:"required"`
	BurstCapacity int64  `json:"burst_capacity"`
	Enabled       *bool  `json:"enabled"`
}

// Validate validates the rule request.
func (r RuleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, customValidation.Key),
		validation.Field(&r.Scope, validation.Required, customValidation.OneOf(
			string(ratelimitDomain.ScopeGlobal),
			string(ratelimitDomain.ScopeUser),
			string(ratelimitDomain.ScopeIP),
			string(ratelimitDomain.ScopeEndpoint),
		)),
		validation.Field(&r.Algorithm, validation.Required, customValidation.OneOf(
			string(ratelimitDomain.AlgorithmFixedWindow),
			string(ratelimitDomain.AlgorithmSlidingWindow),
			string(ratelimitDomain.AlgorithmTokenBucket),
			string(ratelimitDomain.AlgorithmLeakyBucket),
		)),
		validation.Field(&r.Limit, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.WindowSeconds, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.BurstCapacity, validation.Min(int64(0))),
	)
}

// IsEnabled returns the enabled flag, defaulting to true when absent.
func (r RuleRequest) IsEnabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}
