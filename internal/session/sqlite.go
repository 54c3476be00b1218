package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore persists the session as key/value rows in a local SQLite file,
// so a CLI invocation can reuse the token obtained by an earlier login.
type SQLiteStore struct {
	db      *sql.DB
	mu      sync.RWMutex
	current Session
	logger  zerolog.Logger
}

// NewSQLiteStore opens (or creates) the session database at path and loads
// any session persisted there.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS client_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create client_state table: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "session-store").Logger(),
	}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) load() error {
	rows, err := s.db.Query(`SELECT key, value FROM client_state WHERE key IN (?, ?)`, KeyToken, KeyUsername)
	if err != nil {
		return fmt.Errorf("select client_state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loaded Session
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan client_state: %w", err)
		}
		switch key {
		case KeyToken:
			loaded.Token = value
		case KeyUsername:
			loaded.Username = value
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate client_state: %w", err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	s.logger.Debug().
		Bool("authenticated", loaded.Authenticated()).
		Str("username", loaded.Username).
		Msg("session loaded")
	return nil
}

// Current returns the loaded session.
func (s *SQLiteStore) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save writes both keys in one transaction.
func (s *SQLiteStore) Save(sess Session) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	const upsert = `INSERT INTO client_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.Exec(upsert, KeyToken, sess.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if _, err := tx.Exec(upsert, KeyUsername, sess.Username); err != nil {
		return fmt.Errorf("save username: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}

	s.current = sess
	s.logger.Info().Str("username", sess.Username).Msg("session saved")
	return nil
}

// Clear deletes the persisted keys.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM client_state WHERE key IN (?, ?)`, KeyToken, KeyUsername); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.current = Session{}
	s.logger.Info().Msg("session cleared")
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
