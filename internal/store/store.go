// Package store handles SQLite persistence for typing sessions.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/emrekiracbedel/keystyleid/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session data. Sessions are append-only:
// the store exposes no update or delete operations.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			user_label TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS key_events (
			session_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			key TEXT NOT NULL,
			direction TEXT NOT NULL,
			t_ms REAL NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_label ON sessions(user_label);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession appends a session and its ordered key events.
func (s *Store) InsertSession(ctx context.Context, session model.Session) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (user_label, raw_text, created_at) VALUES (?, ?, ?)`,
		session.UserLabel,
		session.RawText,
		session.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(session.Events) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO key_events (session_id, seq, key, direction, t_ms) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for seq, ev := range session.Events {
			if _, err := stmt.ExecContext(ctx, id, seq, ev.Key, string(ev.Direction), ev.TimeMs); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns all sessions in insertion order, with each
// session's events reassembled in capture order.
func (s *Store) ListSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_label, raw_text, created_at FROM sessions ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.Session
	index := map[int64]int{}
	for rows.Next() {
		var session model.Session
		var createdAt string
		if err := rows.Scan(&session.ID, &session.UserLabel, &session.RawText, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		session.CreatedAt = parsed
		index[session.ID] = len(sessions)
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	eventRows, err := s.db.QueryContext(ctx,
		`SELECT session_id, key, direction, t_ms FROM key_events ORDER BY session_id ASC, seq ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := eventRows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for eventRows.Next() {
		var sessionID int64
		var ev model.KeyEvent
		var direction string
		if err := eventRows.Scan(&sessionID, &ev.Key, &direction, &ev.TimeMs); err != nil {
			return nil, err
		}
		ev.Direction = model.Direction(direction)
		if i, ok := index[sessionID]; ok {
			sessions[i].Events = append(sessions[i].Events, ev)
		}
	}
	if err := eventRows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CountByUser returns the number of stored sessions per user label.
func (s *Store) CountByUser(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_label, COUNT(*) FROM sessions GROUP BY user_label`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	counts := map[string]int{}
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		counts[label] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// TotalSessions returns the number of stored sessions.
func (s *Store) TotalSessions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
