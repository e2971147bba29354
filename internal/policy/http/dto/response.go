package dto

import (
	"time"

	"github.com/google/uuid"

	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
)

// PolicyResponse represents a policy version in API responses.
type PolicyResponse struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Version   uint                `json:"version"`
	Rules     []policyDomain.Rule `json:"rules"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ListPoliciesResponse represents a paginated list of policies.
type ListPoliciesResponse struct {
	Data []PolicyResponse `json:"data"`
}

// EvaluateResponse represents an evaluation decision with its audit trace.
type EvaluateResponse struct {
	Decision      string                    `json:"decision"`
	MatchedRuleID string                    `json:"matched_rule_id,omitempty"`
	PolicyVersion uint                      `json:"policy_version"`
	Trace         []policyDomain.TraceEntry `json:"trace"`
}

// MapPolicyToResponse converts a domain policy to a response.
func MapPolicyToResponse(policy *policyDomain.Policy) PolicyResponse {
	return PolicyResponse{
		ID:        policy.ID,
		Name:      policy.Name,
		Version:   policy.Version,
		Rules:     policy.Rules,
		CreatedAt: policy.CreatedAt,
		UpdatedAt: policy.UpdatedAt,
	}
}

// MapPoliciesToListResponse converts domain policies to a list response.
func MapPoliciesToListResponse(policies []*policyDomain.Policy) ListPoliciesResponse {
	data := make([]PolicyResponse, len(policies))
	for i, policy := range policies {
		data[i] = MapPolicyToResponse(policy)
	}
	return ListPoliciesResponse{Data: data}
}

// MapDecisionToResponse converts a domain decision to a response.
func MapDecisionToResponse(decision *policyDomain.Decision) EvaluateResponse {
	return EvaluateResponse{
		Decision:      string(decision.Effect),
		MatchedRuleID: decision.MatchedRuleID,
		PolicyVersion: decision.PolicyVersion,
		Trace:         decision.Trace,
	}
}
