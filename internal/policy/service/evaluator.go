// Package service implements pure policy evaluation over a pinned snapshot.
package service

import (
	"sort"
	"time"

	policyDomain "github.com/allisson/controlplane/internal/policy/domain"
)

// Evaluator evaluates policies against a context. It holds no state and
// performs no I/O, so concurrent use needs no synchronization.
type Evaluator struct{}

// NewEvaluator creates a new evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate walks the policy's rules in descending priority and returns the
// decision of the first matching rule. At equal priority DENY rules are
// checked before ALLOW rules, so an explicit DENY always wins. No matching
// rule means DENY.
func (e *Evaluator) Evaluate(
	policy *policyDomain.Policy,
	input policyDomain.EvaluationInput,
) policyDomain.Decision {
	rules := make([]policyDomain.Rule, len(policy.Rules))
	copy(rules, policy.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].Effect == policyDomain.EffectDeny &&
			rules[j].Effect == policyDomain.EffectAllow
	})

	decision := policyDomain.Decision{
		Effect:        policyDomain.EffectDeny,
		PolicyVersion: policy.Version,
		Trace:         make([]policyDomain.TraceEntry, 0, len(rules)),
	}

	for i := range rules {
		rule := &rules[i]
		matched := e.match(&rule.Predicate, input)
		decision.Trace = append(decision.Trace, policyDomain.TraceEntry{
			RuleID:    rule.ID,
			Predicate: rule.Predicate.Type,
			Matched:   matched,
		})
		if matched {
			decision.Effect = rule.Effect
			decision.MatchedRuleID = rule.ID
			return decision
		}
	}

	return decision
}

// match evaluates one predicate node by structural dispatch over the closed
// variant set. Unknown variants never match.
func (e *Evaluator) match(p *policyDomain.Predicate, input policyDomain.EvaluationInput) bool {
	switch p.Type {
	case policyDomain.PredicateAttributeEquals:
		return input.Attributes[p.Attribute] == p.Value
	case policyDomain.PredicateAttributeInSet:
		value, ok := input.Attributes[p.Attribute]
		if !ok {
			return false
		}
		for _, candidate := range p.Values {
			if value == candidate {
				return true
			}
		}
		return false
	case policyDomain.PredicateTimeWindow:
		return e.inTimeWindow(p.Start, p.End, input.Now)
	case policyDomain.PredicateAnd:
		for i := range p.Predicates {
			if !e.match(&p.Predicates[i], input) {
				return false
			}
		}
		return len(p.Predicates) > 0
	case policyDomain.PredicateOr:
		for i := range p.Predicates {
			if e.match(&p.Predicates[i], input) {
				return true
			}
		}
		return false
	case policyDomain.PredicateNot:
		if p.Predicate == nil {
			return false
		}
		return !e.match(p.Predicate, input)
	default:
		return false
	}
}

// inTimeWindow reports whether now falls inside a daily UTC window. Windows
// crossing midnight ("22:00" to "06:00") wrap.
func (e *Evaluator) inTimeWindow(start, end string, now time.Time) bool {
	startOfDay, err := time.Parse("15:04", start)
	if err != nil {
		return false
	}
	endOfDay, err := time.Parse("15:04", end)
	if err != nil {
		return false
	}

	nowMinutes := now.UTC().Hour()*60 + now.UTC().Minute()
	startMinutes := startOfDay.Hour()*60 + startOfDay.Minute()
	endMinutes := endOfDay.Hour()*60 + endOfDay.Minute()

	if startMinutes <= endMinutes {
		return nowMinutes >= startMinutes && nowMinutes < endMinutes
	}
	return nowMinutes >= startMinutes || nowMinutes < endMinutes
}
