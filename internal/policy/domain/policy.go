// Package domain contains core types for policy definition and evaluation.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/controlplane/internal/errors"
)

// Effect is the outcome a rule contributes when its predicate matches.
type Effect string

// Supported effects.
const (
	EffectAllow Effect = "ALLOW"
	EffectDeny  Effect = "DENY"
)

// ParseEffect converts a string to an Effect.
func ParseEffect(s string) (Effect, error) {
	switch Effect(s) {
	case EffectAllow, EffectDeny:
		return Effect(s), nil
	default:
		return "", errors.Wrap(errors.ErrInvalidInput, "unsupported effect: "+s)
	}
}

// PredicateType identifies a predicate variant. The set is closed; the
// evaluator switches over it exhaustively.
type PredicateType string

// Supported predicate variants.
const (
	PredicateAttributeEquals PredicateType = "attribute-equals"
	PredicateAttributeInSet  PredicateType = "attribute-in-set"
	PredicateTimeWindow      PredicateType = "time-window"
	PredicateAnd             PredicateType = "and"
	PredicateOr              PredicateType = "or"
	PredicateNot             PredicateType = "not"
)

// Predicate is one node of a rule's condition tree, discriminated by Type.
// Attribute/Value/Values apply to the attribute variants, Start/End (as
// "15:04" UTC times of day) to time-window, and Predicates/Predicate to the
// composites.
type Predicate struct {
	Type       PredicateType `json:"type"`
	Attribute  string        `json:"attribute,omitempty"`
	Value      string        `json:"value,omitempty"`
	Values     []string      `json:"values,omitempty"`
	Start      string        `json:"start,omitempty"`
	End        string        `json:"end,omitempty"`
	Predicates []Predicate   `json:"predicates,omitempty"`
	Predicate  *Predicate    `json:"predicate,omitempty"`
}

// Validate checks the predicate tree is structurally sound.
func (p *Predicate) Validate() error {
	switch p.Type {
	case PredicateAttributeEquals:
		if p.Attribute == "" {
			return errors.Wrap(errors.ErrInvalidInput, "attribute-equals requires an attribute")
		}
	case PredicateAttributeInSet:
		if p.Attribute == "" || len(p.Values) == 0 {
			return errors.Wrap(errors.ErrInvalidInput, "attribute-in-set requires an attribute and values")
		}
	case PredicateTimeWindow:
		if _, err := time.Parse("15:04", p.Start); err != nil {
			return errors.Wrap(errors.ErrInvalidInput, "time-window start must be HH:MM")
		}
		if _, err := time.Parse("15:04", p.End); err != nil {
			return errors.Wrap(errors.ErrInvalidInput, "time-window end must be HH:MM")
		}
	case PredicateAnd, PredicateOr:
		if len(p.Predicates) == 0 {
			return errors.Wrap(errors.ErrInvalidInput, "composite predicate requires children")
		}
		for i := range p.Predicates {
			if err := p.Predicates[i].Validate(); err != nil {
				return err
			}
		}
	case PredicateNot:
		if p.Predicate == nil {
			return errors.Wrap(errors.ErrInvalidInput, "not predicate requires a child")
		}
		return p.Predicate.Validate()
	default:
		return errors.Wrap(errors.ErrInvalidInput, "unsupported predicate type: "+string(p.Type))
	}
	return nil
}

// Rule binds a predicate to an effect at a priority. Higher priorities are
// evaluated first.
type Rule struct {
	ID        string    `json:"id"`
	Predicate Predicate `json:"predicate"`
	Effect    Effect    `json:"effect"`
	Priority  int       `json:"priority"`
}

// Policy is an ordered rule set versioned as a whole unit. Updates replace
// the entire rule list under optimistic concurrency; prior versions stay
// readable so evaluations can pin them.
type Policy struct {
	ID        uuid.UUID
	Name      string
	Version   uint
	Rules     []Rule
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateRules checks every rule of a policy.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "policy requires at least one rule")
	}
	seen := make(map[string]struct{}, len(rules))
	for i := range rules {
		rule := &rules[i]
		if rule.ID == "" {
			return errors.Wrap(errors.ErrInvalidInput, "rule requires an id")
		}
		if _, ok := seen[rule.ID]; ok {
			return errors.Wrap(errors.ErrInvalidInput, "duplicate rule id: "+rule.ID)
		}
		seen[rule.ID] = struct{}{}
		if rule.Effect != EffectAllow && rule.Effect != EffectDeny {
			return errors.Wrap(errors.ErrInvalidInput, "unsupported effect: "+string(rule.Effect))
		}
		if err := rule.Predicate.Validate(); err != nil {
			return err
		}
	}
	return nil
}
