package constraints

import (
	"fmt"
	"strings"
)

// Comparators usable in a Condition.
const (
	ComparatorEquals    = "equals"
	ComparatorNotEquals = "not_equals"
	ComparatorGreater   = "greater"
	ComparatorLesser    = "lesser"
	ComparatorIn        = "in"
)

// Condition compares the submitted value of another option with Value.
type Condition struct {
	OptionCode string `json:"option"`
	Comparator string `json:"comparator"`
	Value      any    `json:"value"`
}

// Holds reports whether the condition is met by the submitted form.
func (c Condition) Holds(form map[string]any) bool {
	submitted, ok := form[c.OptionCode]
	if !ok {
		return false
	}

	switch c.Comparator {
	case ComparatorEquals:
		return equalValues(submitted, c.Value)
	case ComparatorNotEquals:
		return !equalValues(submitted, c.Value)
	case ComparatorGreater, ComparatorLesser:
		a, okA := toFloat(submitted)
		b, okB := toFloat(c.Value)
		if !okA || !okB {
			return false
		}
		if c.Comparator == ComparatorGreater {
			return a > b
		}
		return a < b
	case ComparatorIn:
		candidates, ok := c.Value.([]any)
		if !ok {
			return false
		}
		for _, candidate := range candidates {
			if equalValues(submitted, candidate) {
				return true
			}
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return strings.EqualFold(fmt.Sprint(a), fmt.Sprint(b))
}

// ConditionalConstraint applies its constraints only when every condition holds.
type ConditionalConstraint struct {
	Conditions  []Condition
	Constraints []Constraint
}

// Conditional wraps constraints so they only apply when all conditions hold.
func Conditional(conditions []Condition, constraints []Constraint) Constraint {
	return ConditionalConstraint{Conditions: conditions, Constraints: constraints}
}

func (c ConditionalConstraint) Validate(value any, form map[string]any) []string {
	for _, cond := range c.Conditions {
		if !cond.Holds(form) {
			return nil
		}
	}
	var violations []string
	for _, constraint := range c.Constraints {
		violations = append(violations, constraint.Validate(value, form)...)
	}
	return violations
}
