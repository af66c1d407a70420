// Package history persists role-transition and liveness events to a
// local sqlite database, so operators can answer "when did we last go
// active and why" without grepping the log file. It is a supplemented
// feature: the coordination core itself needs none of this, but the
// original implementation's status/monitoring surface and the
// teacher's own audit log both justify keeping a queryable record, so
// this package adapts the teacher's sqlite schema-and-persist pattern
// (internal/ha's ensureSchema/persistNode) to role-transition events
// instead of peer-node rows.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Kind distinguishes the event rows this package records.
type Kind string

const (
	// EventActivated records the local node transitioning to active.
	EventActivated Kind = "activated"
	// EventDeactivated records the local node transitioning to passive.
	EventDeactivated Kind = "deactivated"
	// EventDeviceUp records a peer or gateway transitioning alive.
	EventDeviceUp Kind = "device_up"
	// EventDeviceDown records a peer or gateway transitioning dead.
	EventDeviceDown Kind = "device_down"
)

// Event is one recorded row.
type Event struct {
	ID        int64
	Kind      Kind
	Device    string
	Detail    string
	Timestamp time.Time
}

// Store wraps the sqlite database backing the history log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS role_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			kind       TEXT NOT NULL,
			device     TEXT NOT NULL DEFAULT '',
			detail     TEXT NOT NULL DEFAULT '',
			occurred_at INTEGER NOT NULL
		)
	`)
	return err
}

// Record inserts one event, stamped with the current time.
func (s *Store) Record(kind Kind, device, detail string) error {
	_, err := s.db.Exec(`
		INSERT INTO role_events (kind, device, detail, occurred_at)
		VALUES (?, ?, ?, ?)
	`, string(kind), device, detail, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("history: record %s: %w", kind, err)
	}
	return nil
}

// Recent returns the most recent events, newest first, up to limit.
func (s *Store) Recent(limit int) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, device, detail, occurred_at
		FROM role_events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var kind string
		var occurredAt int64
		if err := rows.Scan(&e.ID, &kind, &e.Device, &e.Detail, &occurredAt); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		e.Kind = Kind(kind)
		e.Timestamp = time.Unix(occurredAt, 0)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
