package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// FileStore keeps the credential in a small JSON document, {"token": "..."}.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger.With(zap.String("component", "session.file"))}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(credential string) error {
	data, err := json.Marshal(map[string]string{Key: credential})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(data)
}

func (s *FileStore) Read() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("read session file", zap.String("path", s.path), zap.Error(err))
		}
		return "", false
	}
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("decode session file", zap.String("path", s.path), zap.Error(err))
		return "", false
	}
	token, ok := doc[Key]
	return token, ok
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) IsPresent() bool {
	_, ok := s.Read()
	return ok
}

// write replaces the file atomically; the credential is readable by the
// owner only.
func (s *FileStore) write(data []byte) error {
	if strings.TrimSpace(s.path) == "" {
		return fmt.Errorf("session path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}
