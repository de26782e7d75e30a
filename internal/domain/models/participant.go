// internal/domain/models/participant.go
package models

// Participant is one roster entry.
//
// Email is the unique key within a roster. Fields keeps every roster column
// exactly as it was read (including Email) so display-name lookups and
// per-participant transforms can see the original values.
type Participant struct {
	Email  string            `bson:"email" json:"email" yaml:"email"`
	Fields map[string]string `bson:"fields,omitempty" json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field returns the value stored under the exact column name.
func (p Participant) Field(name string) string {
	if p.Fields == nil {
		return ""
	}
	return p.Fields[name]
}
