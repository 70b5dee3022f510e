package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Garsondee/Companion-Sense/internal/companion"
)

// ErrNotFound is returned when no record exists for a companion ID.
var ErrNotFound = errors.New("identity: companion not found")

// SQLStore persists companion identities and a trust-event history in SQLite.
type SQLStore struct {
	db   *sql.DB
	once sync.Once
}

// OpenSQLite opens (creating if needed) the store at path. Use ":memory:" for
// a throwaway store.
func OpenSQLite(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companions (
			companion_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			trust INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trust_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			companion_id INTEGER NOT NULL,
			delta INTEGER NOT NULL,
			trust INTEGER NOT NULL,
			reason TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trust_events_companion ON trust_events(companion_id, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database handle. It is safe to call more than once.
func (s *SQLStore) Close() error {
	var err error
	s.once.Do(func() { err = s.db.Close() })
	return err
}

// Save upserts a record.
func (s *SQLStore) Save(ctx context.Context, r *Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companions(companion_id, name, role, trust, updated_at)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(companion_id) DO UPDATE SET
		   name=excluded.name, role=excluded.role, trust=excluded.trust, updated_at=excluded.updated_at`,
		int(r.ID), r.Name, r.Role().String(), r.Trust(), now())
	if err != nil {
		return fmt.Errorf("save companion %d: %w", r.ID, err)
	}
	return nil
}

// Load reads one record. It returns ErrNotFound when the ID is unknown.
func (s *SQLStore) Load(ctx context.Context, id companion.AgentID) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, role, trust FROM companions WHERE companion_id = ?`, int(id))
	var (
		name, role string
		trust      int
	)
	if err := row.Scan(&name, &role, &trust); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load companion %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load companion %d: %w", id, err)
	}
	ro, ok := companion.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("load companion %d: unknown role %q", id, role)
	}
	return NewRecord(id, name, ro, trust), nil
}

// List returns every stored record ordered by ID.
func (s *SQLStore) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT companion_id, name, role, trust FROM companions ORDER BY companion_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			id         int
			name, role string
			trust      int
		)
		if err := rows.Scan(&id, &name, &role, &trust); err != nil {
			return nil, err
		}
		ro, ok := companion.ParseRole(role)
		if !ok {
			return nil, fmt.Errorf("companion %d: unknown role %q", id, role)
		}
		out = append(out, NewRecord(companion.AgentID(id), name, ro, trust))
	}
	return out, rows.Err()
}

// AppendTrustEvent records one trust mutation in the history table.
func (s *SQLStore) AppendTrustEvent(ctx context.Context, ev TrustChange) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trust_events(companion_id, delta, trust, reason, recorded_at) VALUES(?, ?, ?, ?, ?)`,
		int(ev.Companion), ev.Delta, ev.Trust, ev.Reason, now())
	return err
}

// TrustHistory returns the recorded trust events for one companion, oldest first.
func (s *SQLStore) TrustHistory(ctx context.Context, id companion.AgentID) ([]TrustChange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT delta, trust, reason FROM trust_events WHERE companion_id = ? ORDER BY seq`, int(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrustChange
	for rows.Next() {
		ev := TrustChange{Companion: id}
		if err := rows.Scan(&ev.Delta, &ev.Trust, &ev.Reason); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }
