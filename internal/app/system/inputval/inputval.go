// Package inputval validates user-supplied values before they reach the
// roster or a remote call.
package inputval

import (
	"strings"
	"unicode"
)

// IsValidEmail reports whether s is a bare addr-spec (no display name).
//
// The check is structural: one '@', non-empty local and domain parts, no
// whitespace, control or format characters (a stray BOM), and no leading,
// trailing, or doubled dots in either part.
// Single-label domains are accepted.
func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) || unicode.Is(unicode.Cf, r) || r == '<' || r == '>' {
			return false
		}
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	if strings.ContainsRune(local, '@') {
		return false
	}
	return dotAtom(local) && dotAtom(domain)
}

func dotAtom(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	return !strings.Contains(s, "..")
}
