// Package session persists the single opaque credential that keeps a user
// signed in between runs.
package session

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dyike/xagent/config"
)

// Key is the fixed name the credential is stored under in every backend.
const Key = "token"

// Store holds at most one credential. Read never fails: unreadable storage
// reads as absent. Clear is idempotent.
type Store interface {
	Save(credential string) error
	Read() (string, bool)
	Clear() error
	IsPresent() bool
}

// Open returns the backend selected by cfg.SessionBackend together with a
// function that releases it.
func Open(cfg *config.Config, logger *zap.Logger) (Store, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.SessionBackend)) {
	case config.SessionBackendMemory:
		return NewMemoryStore(), noop, nil
	case config.SessionBackendSQLite:
		s, err := OpenSQLiteStore(cfg.SessionDB, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.SessionBackendFile, "":
		return NewFileStore(cfg.SessionFile, logger), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

// MemoryStore keeps the credential in process memory only.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(credential string) error {
	m.mu.Lock()
	m.token, m.set = credential, true
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Read() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.set
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.token, m.set = "", false
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) IsPresent() bool {
	_, ok := m.Read()
	return ok
}
