package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/assessor/internal/domain/models"
)

// Participant builds a participant with Email set and the given
// field/value pairs.
func Participant(email string, kv ...string) models.Participant {
	fields := map[string]string{"Email": email}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return models.Participant{Email: email, Fields: fields}
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// WriteRoster writes a comma separated roster to dir/name. The first row is
// the header.
func WriteRoster(t *testing.T, dir, name string, rows ...[]string) string {
	t.Helper()
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r, ",")
	}
	return WriteFile(t, dir, name, strings.Join(lines, "\n")+"\n")
}
