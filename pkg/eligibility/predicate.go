// Package eligibility decides which cases a migration run touches.
//
// Everything is a Predicate. Small building blocks are combined into named
// strategies or compiled from configuration rulesets.
package eligibility

import (
	"strings"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
)

// Predicate reports whether a case is eligible for migration.
type Predicate interface {
	Eligible(c *ccd.CaseDetails) bool
}

// PredicateFunc adapts a function to a Predicate.
type PredicateFunc func(c *ccd.CaseDetails) bool

// Eligible calls f(c).
func (f PredicateFunc) Eligible(c *ccd.CaseDetails) bool {
	return f(c)
}

// HasData matches any case with a non-nil data map.
func HasData() Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		return c != nil && c.Data != nil
	})
}

// CaseTypeIs matches cases whose type is one of types, ignoring case.
func CaseTypeIs(types ...string) Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		return c != nil && inFold(c.CaseTypeID, types)
	})
}

// StateIn matches cases whose state is one of states, ignoring case. A case
// with no state never matches, and blank entries in states are ignored.
func StateIn(states ...string) Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		if c == nil || strings.TrimSpace(c.State) == "" {
			return false
		}
		return inFold(c.State, states)
	})
}

// FieldPresent matches cases where field holds a non-empty value.
func FieldPresent(field string) Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		return c != nil && !c.Fields().Get(field).IsEmpty()
	})
}

// NestedFieldPresent matches cases where field is a mapping whose key holds a
// non-empty value.
func NestedFieldPresent(field, key string) Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		return c != nil && !c.Fields().Path(field, key).IsEmpty()
	})
}

// FieldEquals matches cases where field is a string equal to value, ignoring
// case.
func FieldEquals(field, value string) Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		return c != nil && c.Fields().Get(field).EqualFold(value)
	})
}

// AnyFieldEquals matches cases where at least one of fields equals value,
// ignoring case.
func AnyFieldEquals(value string, fields ...string) Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		if c == nil {
			return false
		}
		data := c.Fields()
		for _, field := range fields {
			if data.Get(field).EqualFold(value) {
				return true
			}
		}
		return false
	})
}

// All matches when every predicate matches. Evaluation stops at the first
// miss. All() with no predicates matches everything.
func All(preds ...Predicate) Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		for _, p := range preds {
			if !p.Eligible(c) {
				return false
			}
		}
		return true
	})
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		return !p.Eligible(c)
	})
}

func inFold(s string, candidates []string) bool {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if strings.EqualFold(s, candidate) {
			return true
		}
	}
	return false
}
