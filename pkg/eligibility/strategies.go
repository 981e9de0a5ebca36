package eligibility

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
)

// Strategy names accepted by Lookup.
const (
	StrategyConsented      = "consented"
	StrategyContested      = "contested"
	StrategyConsentOrder   = "consent-order"
	StrategyFRCRegionOther = "frc-region-other"
	StrategyAny            = "any"

	// DefaultStrategy is used when no strategy is configured.
	DefaultStrategy = StrategyConsented
)

var strategies = map[string]func() Predicate{
	StrategyConsented: func() Predicate {
		return All(HasData(), CaseTypeIs(ccd.CaseTypeConsented))
	},
	StrategyContested: func() Predicate {
		return All(HasData(), CaseTypeIs(ccd.CaseTypeContested))
	},
	StrategyConsentOrder: func() Predicate {
		return All(HasData(), CaseTypeIs(ccd.CaseTypeConsented), FieldPresent("latestConsentOrder"))
	},
	StrategyFRCRegionOther: func() Predicate {
		return All(HasData(), FRCRegionOther())
	},
	StrategyAny: HasData,
}

// Lookup returns the named strategy. An empty name selects DefaultStrategy.
func Lookup(name string) (Predicate, error) {
	if name == "" {
		name = DefaultStrategy
	}
	build, ok := strategies[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown eligibility strategy %q (valid: %s)",
			name, strings.Join(StrategyNames(), ", "))
	}
	return build(), nil
}

// StrategyNames returns the registered strategy names in sorted order.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// frcRegionFields are the court region selections that can be set to "other".
var frcRegionFields = []string{
	"northWestFRCList",
	"southWestFRCList",
	"southEastFRCList",
	"walesFRCList",
}

// FRCRegionOther matches cases where any of the north west, south west, south
// east or Wales court lists is set to "other". A list holding something other
// than a scalar does not match but the remaining lists are still checked.
func FRCRegionOther() Predicate {
	return PredicateFunc(func(c *ccd.CaseDetails) bool {
		if c == nil || c.Data == nil {
			return false
		}
		for _, field := range frcRegionFields {
			if strings.EqualFold(regionValue(c.Data[field]), "other") {
				return true
			}
		}
		return false
	})
}

// regionValue weakly decodes one region list value, returning "" when it
// cannot be read as a string.
func regionValue(raw any) string {
	if raw == nil {
		return ""
	}
	var region string
	if err := mapstructure.WeakDecode(raw, &region); err != nil {
		return ""
	}
	return region
}
