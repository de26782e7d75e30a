package sheetkeys

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// FileStore keeps the mapping in a single YAML file. Save writes a temp file
// in the same directory and renames it over the target.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file need not exist.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("keys file path is required")
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the mapping. A missing file yields an empty map.
func (s *FileStore) Load(ctx context.Context) (map[string]string, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	keys := map[string]string{}
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("decode keys file %s: %w", s.path, err)
	}
	return keys, nil
}

// Save replaces the file contents with keys.
func (s *FileStore) Save(ctx context.Context, keys map[string]string) error {
	if s == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(clone(keys))
	if err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create keys dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp keys file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp keys file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp keys file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace keys file: %w", err)
	}
	return nil
}

// Close is a no-op for files.
func (s *FileStore) Close(ctx context.Context) error { return nil }
