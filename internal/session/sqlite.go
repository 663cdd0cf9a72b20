package session

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyike/xagent/internal/sqlite"
)

// SQLiteStore keeps the credential as one row of a key/value table.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func OpenSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db, logger: logger.With(zap.String("component", "session.sqlite"))}
	if err := s.initTable(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initTable() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	if err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(credential string) error {
	_, err := s.db.Exec(`
	INSERT INTO kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		Key, credential)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Read() (string, bool) {
	var token string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, Key).Scan(&token)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("read session row", zap.Error(err))
		}
		return "", false
	}
	return token, true
}

func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, Key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsPresent() bool {
	_, ok := s.Read()
	return ok
}
