package queryir

import (
	"fmt"
	"strings"
)

// FilterSeparator splits the predicate from the literal in a filter string.
const FilterSeparator = ";"

// ParseFilter parses a "predicate;literal" filter into a Join with the
// given hop count. Only the first separator splits; the literal keeps any
// further separators. The remaining Join fields keep their zero values.
func ParseFilter(filter string, hops int) (Join, error) {
	property, value, ok := strings.Cut(filter, FilterSeparator)
	if !ok {
		return Join{}, fmt.Errorf("filter %q: missing %q between predicate and literal", filter, FilterSeparator)
	}

	j := Join{
		Predicate: property,
		Literal:   value,
		Hops:      hops,
	}
	if res := Validate(j); !res.Valid {
		return Join{}, fmt.Errorf("filter %q: %s", filter, strings.Join(res.Problems, "; "))
	}
	return j, nil
}
