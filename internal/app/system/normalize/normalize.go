// Package normalize canonicalises roster values before they are used as keys.
package normalize

import "strings"

// Email trims surrounding whitespace and lower-cases the address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Header trims a column label and strips a leading UTF-8 BOM.
func Header(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}
