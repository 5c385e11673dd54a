// Package state records the outcome of every package install per namespace.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/grovetools/zzz/pkg/namespace"

	_ "modernc.org/sqlite"
)

// Status of a single package install.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusFailed    Status = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS install_status (
	namespace  TEXT NOT NULL,
	tool       TEXT NOT NULL,
	method     TEXT NOT NULL,
	link       TEXT NOT NULL,
	status     TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	run_id     TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL,
	PRIMARY KEY (namespace, tool)
);
`

// Entry is the last known install outcome of one tool in one namespace.
type Entry struct {
	Namespace uint64        `json:"namespace,string"`
	Tool      manifest.Tool `json:"tool"`
	Status    Status        `json:"status"`
	Kind      string        `json:"kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	RunID     string        `json:"run_id,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store is a SQLite-backed install status store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the status database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("state: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: open: %w", err)
	}
	// Writes arrive from the install pool; one connection keeps them ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record upserts e. A zero UpdatedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO install_status (namespace, tool, method, link, status, kind, error, run_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(namespace, tool) DO UPDATE SET
			method = excluded.method,
			link = excluded.link,
			status = excluded.status,
			kind = excluded.kind,
			error = excluded.error,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		namespace.Format(e.Namespace),
		e.Tool.Name,
		string(e.Tool.Method),
		e.Tool.Link,
		string(e.Status),
		e.Kind,
		e.Error,
		e.RunID,
		e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("state: record %s: %w", e.Tool.Name, err)
	}
	return nil
}

// List returns every entry of namespace ns ordered by tool name.
func (s *Store) List(ctx context.Context, ns uint64) ([]Entry, error) {
	return s.query(ctx, `WHERE namespace = ?`, namespace.Format(ns))
}

// Failed returns the entries of namespace ns whose last install failed.
func (s *Store) Failed(ctx context.Context, ns uint64) ([]Entry, error) {
	return s.query(ctx, `WHERE namespace = ? AND status = ?`, namespace.Format(ns), string(StatusFailed))
}

// Forget deletes every entry of namespace ns.
func (s *Store) Forget(ctx context.Context, ns uint64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM install_status WHERE namespace = ?`, namespace.Format(ns)); err != nil {
		return fmt.Errorf("state: forget %s: %w", namespace.Format(ns), err)
	}
	return nil
}

func (s *Store) query(ctx context.Context, where string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace, tool, method, link, status, kind, error, run_id, updated_at
		 FROM install_status `+where+` ORDER BY tool ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("state: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e              Entry
			ns, method     string
			status, update string
		)
		if err := rows.Scan(&ns, &e.Tool.Name, &method, &e.Tool.Link, &status, &e.Kind, &e.Error, &e.RunID, &update); err != nil {
			return nil, fmt.Errorf("state: scan: %w", err)
		}
		if e.Namespace, err = namespace.Parse(ns); err != nil {
			return nil, fmt.Errorf("state: bad namespace %q: %w", ns, err)
		}
		e.Tool.Method = manifest.Method(method)
		e.Status = Status(status)
		if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, update); err != nil {
			return nil, fmt.Errorf("state: bad timestamp %q: %w", update, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("state: list: %w", err)
	}
	return entries, nil
}

// Tools returns the tool of every entry.
func Tools(entries []Entry) []manifest.Tool {
	tools := make([]manifest.Tool, len(entries))
	for i, e := range entries {
		tools[i] = e.Tool
	}
	return tools
}
