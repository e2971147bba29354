package domain

import "time"

// EvaluationInput is the context a policy is evaluated against. Evaluation is
// a pure function of the input and the pinned policy version.
type EvaluationInput struct {
	Attributes map[string]string
	Now        time.Time
}

// TraceEntry records one predicate evaluation for auditability.
type TraceEntry struct {
	RuleID    string        `json:"rule_id"`
	Predicate PredicateType `json:"predicate"`
	Matched   bool          `json:"matched"`
}

// Decision is the outcome of a policy evaluation. When no rule matches, the
// effect is DENY and MatchedRuleID is empty.
type Decision struct {
	Effect        Effect       `json:"effect"`
	MatchedRuleID string       `json:"matched_rule_id,omitempty"`
	PolicyVersion uint         `json:"policy_version"`
	Trace         []TraceEntry `json:"trace"`
}
