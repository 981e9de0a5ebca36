package eligibility

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
)

// Ruleset is a named set of conditions declared in configuration. All
// conditions must match (AND logic); a ruleset without conditions matches
// every case with data.
//
//	ruleset "pending-consent-orders" {
//	  conditions = {
//	    case_type     = "FinancialRemedyMVP2"
//	    state         = "consentOrderApproved,awaitingResponse"
//	    field_present = "latest_consent_order"
//	  }
//	}
type Ruleset struct {
	Name        string            `hcl:"name,label"`
	Description string            `hcl:"description,optional"`
	Conditions  map[string]string `hcl:"conditions,optional"`
}

// Rulesets is a collection of rulesets.
type Rulesets []Ruleset

// conditionBuilders compile a single condition value into a predicate.
var conditionBuilders = map[string]func(expected string) (Predicate, error){
	"case_type": func(expected string) (Predicate, error) {
		return CaseTypeIs(splitList(expected)...), nil
	},
	"state": func(expected string) (Predicate, error) {
		return StateIn(splitList(expected)...), nil
	},
	"field_present": func(expected string) (Predicate, error) {
		var preds []Predicate
		for _, field := range splitList(expected) {
			preds = append(preds, FieldPresent(fieldName(field)))
		}
		if len(preds) == 0 {
			return nil, fmt.Errorf("at least one field is required")
		}
		return All(preds...), nil
	},
	"field_absent": func(expected string) (Predicate, error) {
		var preds []Predicate
		for _, field := range splitList(expected) {
			preds = append(preds, Not(FieldPresent(fieldName(field))))
		}
		if len(preds) == 0 {
			return nil, fmt.Errorf("at least one field is required")
		}
		return All(preds...), nil
	},
	"nested_field_present": func(expected string) (Predicate, error) {
		field, key, ok := strings.Cut(strings.TrimSpace(expected), ".")
		if !ok || field == "" || key == "" {
			return nil, fmt.Errorf("expected field.key, got %q", expected)
		}
		// Keys inside document fields are snake_case on the wire, so only the
		// top-level field name is converted.
		return NestedFieldPresent(fieldName(field), strings.TrimSpace(key)), nil
	},
	"field_equals": func(expected string) (Predicate, error) {
		field, value, ok := strings.Cut(expected, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("expected field=value, got %q", expected)
		}
		return FieldEquals(fieldName(field), strings.TrimSpace(value)), nil
	},
	"last_modified_before": dateCondition(lastModified, true),
	"last_modified_after":  dateCondition(lastModified, false),
	"created_before":       dateCondition(createdDate, true),
	"created_after":        dateCondition(createdDate, false),
}

// ConditionKeys returns the supported condition keys in sorted order.
func ConditionKeys() []string {
	keys := make([]string, 0, len(conditionBuilders))
	for key := range conditionBuilders {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Predicate compiles the ruleset's conditions.
func (r *Ruleset) Predicate() (Predicate, error) {
	// Sorted so that compile errors and evaluation order are stable.
	keys := make([]string, 0, len(r.Conditions))
	for key := range r.Conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	preds := []Predicate{HasData()}
	var result *multierror.Error
	for _, key := range keys {
		build, ok := conditionBuilders[key]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("ruleset %s: unknown condition %q", r.Name, key))
			continue
		}
		pred, err := build(r.Conditions[key])
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("ruleset %s: condition %s: %w", r.Name, key, err))
			continue
		}
		preds = append(preds, pred)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return All(preds...), nil
}

// Validate checks if the ruleset configuration is valid.
func (r *Ruleset) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("ruleset name is required")
	}
	_, err := r.Predicate()
	return err
}

// ValidateAll validates all rulesets in the collection, including name
// uniqueness.
func (rs Rulesets) ValidateAll() error {
	var result *multierror.Error
	seen := make(map[string]bool, len(rs))
	for i := range rs {
		if err := rs[i].Validate(); err != nil {
			result = multierror.Append(result, err)
		}
		if seen[rs[i].Name] {
			result = multierror.Append(result, fmt.Errorf("duplicate ruleset %q", rs[i].Name))
		}
		seen[rs[i].Name] = true
	}
	return result.ErrorOrNil()
}

// Find returns the ruleset with the given name.
func (rs Rulesets) Find(name string) (*Ruleset, bool) {
	for i := range rs {
		if rs[i].Name == name {
			return &rs[i], true
		}
	}
	return nil, false
}

// fieldName converts snake_case names to the lowerCamel case used by case
// data. Names without underscores are used as written.
func fieldName(name string) string {
	name = strings.TrimSpace(name)
	if !strings.Contains(name, "_") {
		return name
	}
	return strcase.ToLowerCamel(name)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lastModified(c *ccd.CaseDetails) string { return c.LastModified }
func createdDate(c *ccd.CaseDetails) string  { return c.CreatedDate }

// dateCondition compares a case timestamp with a fixed bound. Cases whose
// timestamp is missing or unparseable never match.
func dateCondition(get func(*ccd.CaseDetails) string, before bool) func(string) (Predicate, error) {
	return func(expected string) (Predicate, error) {
		bound, err := dateparse.ParseAny(strings.TrimSpace(expected))
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", expected, err)
		}
		return PredicateFunc(func(c *ccd.CaseDetails) bool {
			if c == nil {
				return false
			}
			actual, ok := parseTimestamp(get(c))
			if !ok {
				return false
			}
			if before {
				return actual.Before(bound)
			}
			return actual.After(bound)
		}), nil
	}
}

func parseTimestamp(s string) (time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
