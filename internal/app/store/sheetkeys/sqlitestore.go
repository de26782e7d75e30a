package sheetkeys

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sheet_keys (
    namespace  TEXT NOT NULL,
    email      TEXT NOT NULL,
    sheet_id   TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (namespace, email)
);
`

// SQLiteStore keeps the mapping in a local SQLite database. Save replaces
// the namespace's rows inside one transaction.
type SQLiteStore struct {
	sqlDB     *sql.DB
	namespace string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path, namespace string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure sheet_keys table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, namespace: namespace}, nil
}

// Load returns every entry in the namespace.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT email, sheet_id FROM sheet_keys WHERE namespace = ?`, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("query sheet keys: %w", err)
	}
	defer rows.Close()

	keys := map[string]string{}
	for rows.Next() {
		var email, id string
		if err := rows.Scan(&email, &id); err != nil {
			return nil, fmt.Errorf("scan sheet key: %w", err)
		}
		keys[email] = id
	}
	return keys, rows.Err()
}

// Save replaces the namespace's entries with keys.
func (s *SQLiteStore) Save(ctx context.Context, keys map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return ErrNotConfigured
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_keys WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("clear sheet keys: %w", err)
	}
	now := time.Now().UTC().UnixMilli()
	for email, id := range keys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_keys (namespace, email, sheet_id, updated_at) VALUES (?, ?, ?, ?)`,
			s.namespace, email, id, now); err != nil {
			return fmt.Errorf("insert sheet key %s: %w", email, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sheet keys: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
