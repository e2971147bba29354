package dto

import (
	"time"

	"github.com/google/uuid"

	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
)

// CheckResponse represents an admission decision. RetryAfterSeconds is only
// set on denials.
type CheckResponse struct {
	Allowed           bool  `json:"allowed"`
	RetryAfterSeconds int64 `json:"retry_after_seconds,omitempty"`
}

// RuleResponse represents a rule in API responses.
type RuleResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Scope         string    `json:"scope"`
	Algorithm     string    `json:"algorithm"`
	Limit         int64     `json:"limit"`
	WindowSeconds int64     `json:"window_seconds"`
	BurstCapacity int64     `json:"burst_capacity"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListRulesResponse represents a paginated list of rules.
type ListRulesResponse struct {
	Data []RuleResponse `json:"data"`
}

// MapDecisionToResponse converts a domain decision to a response.
func MapDecisionToResponse(decision *ratelimitDomain.Decision) CheckResponse {
	return CheckResponse{
		Allowed:           decision.Allowed,
		RetryAfterSeconds: decision.RetryAfterSeconds,
	}
}

// MapRuleToResponse converts a domain rule to a response.
func MapRuleToResponse(rule *ratelimitDomain.Rule) RuleResponse {
	return RuleResponse{
		ID:            rule.ID,
		Name:          rule.Name,
		Scope:         string(rule.Scope),
		Algorithm:     string(rule.Algorithm),
		Limit:         rule.Limit,
		WindowSeconds: int64(rule.Window.Seconds()),
		BurstCapacity: rule.BurstCapacity,
		Enabled:       rule.Enabled,
		CreatedAt:     rule.CreatedAt,
		UpdatedAt:     rule.UpdatedAt,
	}
}

// MapRulesToListResponse converts domain rules to a list response.
func MapRulesToListResponse(rules []*ratelimitDomain.Rule) ListRulesResponse {
	data := make([]RuleResponse, len(rules))
	for i, rule := range rules {
		data[i] = MapRuleToResponse(rule)
	}
	return ListRulesResponse{Data: data}
}
