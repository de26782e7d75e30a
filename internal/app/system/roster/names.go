package roster

import (
	norm "github.com/dalemusser/assessor/internal/app/system/normalize"
	"github.com/dalemusser/assessor/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Display-name fields in priority order. Matching is case-insensitive.
var nameFields = []string{"Handle", "Nickname", "Name"}

// DisplayName returns the human-readable label for p: the first non-empty
// Handle, Nickname or Name, falling back to "Forename Surname". ok is false
// when none of them resolves.
func DisplayName(p models.Participant) (name string, ok bool) {
	for _, f := range nameFields {
		if v := lookupFold(p, f); v != "" {
			return v, true
		}
	}
	fore, sur := lookupFold(p, "Forename"), lookupFold(p, "Surname")
	if fore != "" && sur != "" {
		return fore + " " + sur, true
	}
	return "", false
}

// lookupFold finds a field by case-insensitive name. An exact match wins
// over a folded one so "Handle" beats "handle" when both columns exist.
func lookupFold(p models.Participant, field string) string {
	if v := norm.Name(p.Field(field)); v != "" {
		return v
	}
	want := text.Fold(field)
	for k, v := range p.Fields {
		if text.Fold(k) == want {
			if v = norm.Name(v); v != "" {
				return v
			}
		}
	}
	return ""
}
