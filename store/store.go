// Package store persists log records, contests, and contest entries in
// SQLite. The UNIQUE(owner, fingerprint) constraint on log entries is the
// source of truth for deduplication; callers treat a constraint hit as a
// duplicate, never as a failure.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrDuplicate is returned when an insert loses to an existing row on a
	// uniqueness scope: (owner, fingerprint) for records, (contest, record)
	// for entries.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")
)

// Options tunes the SQLite open path. Zero values get safe defaults.
type Options struct {
	BusyTimeoutMS    int
	PreflightTimeout time.Duration
	SkipPreflight    bool
	Logf             func(string, ...any)
}

// Store wraps the SQLite database holding all persisted state.
type Store struct {
	db *sql.DB
}

// Open runs the preflight check, opens the database, applies pragmas, and
// bootstraps the schema.
func Open(path string, opts Options) (*Store, error) {
	if opts.BusyTimeoutMS <= 0 {
		opts.BusyTimeoutMS = 5000
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir: %w", err)
	}
	if !opts.SkipPreflight {
		if _, err := Preflight(path, opts.PreflightTimeout, opts.Logf); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	pragmas := fmt.Sprintf("pragma journal_mode=WAL; pragma synchronous=NORMAL; pragma foreign_keys=ON; pragma busy_timeout=%d", opts.BusyTimeoutMS)
	if _, err := db.Exec(pragmas); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: pragmas: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	schema := `
create table if not exists log_entries (
	id integer primary key autoincrement,
	owner text not null,
	qso_date text not null,
	time_on text not null,
	call text not null,
	band text,
	mode text,
	freq text,
	rst_sent text,
	rst_rcvd text,
	qso_date_off text,
	time_off text,
	station_callsign text,
	my_gridsquare text,
	gridsquare text,
	name text,
	qth text,
	comment text,
	additional_fields text,
	fingerprint text not null,
	uploaded_at text not null,
	unique(owner, fingerprint)
);
create index if not exists idx_log_entries_owner on log_entries(owner);
create index if not exists idx_log_entries_call on log_entries(call);
create index if not exists idx_log_entries_date on log_entries(qso_date);

create table if not exists contests (
	id integer primary key autoincrement,
	name text not null,
	description text not null default '',
	start_date text not null,
	end_date text not null,
	rules text not null default '{}',
	scoring text not null default '{}',
	is_active integer not null default 1,
	created_at text not null,
	updated_at text not null
);

create table if not exists contest_entries (
	id integer primary key autoincrement,
	contest_id integer not null references contests(id) on delete cascade,
	owner text not null,
	log_entry_id integer not null references log_entries(id) on delete cascade,
	points real not null,
	is_valid integer not null default 1,
	unique(contest_id, log_entry_id)
);
create index if not exists idx_contest_entries_owner on contest_entries(contest_id, owner);

create table if not exists uploads (
	id integer primary key autoincrement,
	owner text not null,
	filename text not null,
	total_records integer not null default 0,
	new_records integer not null default 0,
	duplicate_records integer not null default 0,
	error_records integer not null default 0,
	uploaded_at text not null
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}
