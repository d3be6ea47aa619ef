package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/diff"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/failure"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/healer"
)

// Store persists healing attempts and patterns to SQLite so recurrence data
// survives process restarts.
type Store struct {
	db     *sql.DB
	dbPath string
}

// OpenStore opens (creating if needed) the SQLite database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	attemptsTable := `
	CREATE TABLE IF NOT EXISTS healing_attempts (
		id TEXT PRIMARY KEY,
		test_name TEXT NOT NULL,
		failure_kind TEXT NOT NULL,
		before_code TEXT NOT NULL,
		after_code TEXT NOT NULL,
		confidence REAL NOT NULL,
		method TEXT NOT NULL,
		auto_applied INTEGER NOT NULL,
		changes_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_test ON healing_attempts(test_name);
	CREATE INDEX IF NOT EXISTS idx_attempts_created ON healing_attempts(created_at);
	`

	patternsTable := `
	CREATE TABLE IF NOT EXISTS healing_patterns (
		failure_kind TEXT NOT NULL,
		test_name TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		first_seen DATETIME NOT NULL,
		last_seen DATETIME NOT NULL,
		PRIMARY KEY (failure_kind, test_name)
	);
	`

	for _, table := range []string{attemptsTable, patternsTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// SaveAttempt appends one attempt row. Rows are never updated or deleted.
func (s *Store) SaveAttempt(r healer.Result) error {
	changes, err := json.Marshal(r.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO healing_attempts
			(id, test_name, failure_kind, before_code, after_code, confidence, method, auto_applied, changes_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TestName, string(r.FailureKind), r.BeforeCode, r.AfterCode,
		r.Confidence, string(r.Method), boolToInt(r.AutoApplied), string(changes), r.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

// UpsertPattern bumps the persistent aggregate for (kind, testName).
func (s *Store) UpsertPattern(kind failure.Kind, testName string, seen time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO healing_patterns (failure_kind, test_name, count, first_seen, last_seen)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(failure_kind, test_name) DO UPDATE SET
			count = count + 1,
			last_seen = excluded.last_seen`,
		string(kind), testName, seen, seen)
	if err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}
	return nil
}

// RecentAttempts returns up to limit attempts, newest first.
func (s *Store) RecentAttempts(limit int) ([]healer.Result, error) {
	rows, err := s.db.Query(`
		SELECT id, test_name, failure_kind, before_code, after_code, confidence, method, auto_applied, changes_json, created_at
		FROM healing_attempts
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var out []healer.Result
	for rows.Next() {
		var r healer.Result
		var kind, method, changesJSON string
		var autoApplied int
		if err := rows.Scan(&r.ID, &r.TestName, &kind, &r.BeforeCode, &r.AfterCode,
			&r.Confidence, &method, &autoApplied, &changesJSON, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		r.FailureKind = failure.Kind(kind)
		r.Method = healer.Method(method)
		r.AutoApplied = autoApplied != 0
		if err := json.Unmarshal([]byte(changesJSON), &r.Changes); err != nil {
			r.Changes = []diff.Entry{}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadPatterns returns every persistent aggregate, most recurrent first.
func (s *Store) LoadPatterns() ([]Pattern, error) {
	rows, err := s.db.Query(`
		SELECT failure_kind, test_name, count, first_seen, last_seen
		FROM healing_patterns
		ORDER BY count DESC, test_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var out []Pattern
	for rows.Next() {
		var p Pattern
		var kind string
		if err := rows.Scan(&kind, &p.TestName, &p.Count, &p.FirstSeen, &p.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		p.FailureKind = failure.Kind(kind)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Totals returns the persistent attempt count and auto-applied count.
func (s *Store) Totals() (total, autoApplied int, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(auto_applied), 0)
		FROM healing_attempts`).Scan(&total, &autoApplied)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query totals: %w", err)
	}
	return total, autoApplied, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
