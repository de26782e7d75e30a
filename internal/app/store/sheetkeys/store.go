// Package sheetkeys persists the participant-email -> spreadsheet-ID mapping.
//
// Every backend stores the whole mapping at once: Save replaces whatever was
// stored before, and Load returns an empty map when nothing has been saved.
package sheetkeys

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a nil or closed store.
var ErrNotConfigured = errors.New("sheet key store is not configured")

// KeyStore loads and saves the full mapping.
type KeyStore interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, keys map[string]string) error
	Close(ctx context.Context) error
}

// Backend names accepted by storage_type.
const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Backends lists the valid storage_type values.
var Backends = []string{BackendFile, BackendMongo, BackendSQLite}

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

func clone(keys map[string]string) map[string]string {
	out := make(map[string]string, len(keys))
	for k, v := range keys {
		out[k] = v
	}
	return out
}
