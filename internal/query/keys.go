package query

import (
	"fmt"
	"sort"
	"strings"
)

// Key derives a cache key from an entity type and its filter parameters.
// Parameters are serialized in sorted order so logically equal filters
// always map to the same key.
func Key(entityType string, filter map[string]any) string {
	if len(filter) == 0 {
		return entityType
	}
	names := make([]string, 0, len(filter))
	for name := range filter {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(entityType)
	for i, name := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", filter[name])
	}
	return b.String()
}
