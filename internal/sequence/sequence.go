package sequence

import (
	"context"
	"fmt"
	"strings"
)

// Repo hands out monotonically increasing values per sequence name.
// Next must be atomic: concurrent calls for one name never return
// duplicates or leave gaps.
type Repo interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Name builds a year-scoped sequence name, e.g. "inv-2025". Using the
// year in the name resets numbering each year.
func Name(prefix string, year int) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(prefix), year)
}

// FormatRef renders a human-readable reference like "INV-2025-0007".
func FormatRef(prefix string, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%04d", strings.ToUpper(prefix), year, value)
}
