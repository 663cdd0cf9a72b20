package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const settingsFile = "config.json"

// Change is one transition of the settings.
type Change struct {
	Old Config
	New Config
}

func (c Change) Empty() bool { return c.Old == c.New }

// Retarget reports whether the backend address moved. A running dashboard
// points its client at the new address without restarting.
func (c Change) Retarget() bool { return c.Old.APIURL != c.New.APIURL }

// Pending lists the changed keys that are read only at startup.
func (c Change) Pending() []string {
	var keys []string
	add := func(key string, changed bool) {
		if changed {
			keys = append(keys, key)
		}
	}
	add("data_dir", c.Old.DataDir != c.New.DataDir)
	add("session_backend", c.Old.SessionBackend != c.New.SessionBackend)
	add("session_file", c.Old.SessionFile != c.New.SessionFile)
	add("session_db", c.Old.SessionDB != c.New.SessionDB)
	add("request_timeout_seconds", c.Old.RequestTimeoutSeconds != c.New.RequestTimeoutSeconds)
	add("log_level", c.Old.LogLevel != c.New.LogLevel)
	add("log_file", c.Old.LogFile != c.New.LogFile)
	add("debug", c.Old.Debug != c.New.Debug)
	return keys
}

// Manager owns the settings file in the data directory.
type Manager struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	cfg      Config
	watching bool
}

type managerOptions struct {
	configPath    string
	initialConfig *Config
	debounce      time.Duration
	logger        *zap.Logger
}

type ManagerOption func(*managerOptions)

// NewManager loads the settings file, creating it from the initial config
// (or the defaults) on first run.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	o := managerOptions{
		debounce: 300 * time.Millisecond,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.configPath
	if path == "" {
		path = filepath.Join(defaultDataDir(), settingsFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg, err := readConfigFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if cfg, err = seedConfigFile(path, o.initialConfig); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("load config: %w", err)
	default:
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return &Manager{
		path:     path,
		debounce: o.debounce,
		logger:   o.logger.With(zap.String("component", "config")),
		cfg:      cfg,
	}, nil
}

func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

func (m *Manager) Path() string {
	return m.path
}

// Update validates and saves cfg. Watchers hear only about edits made
// outside this Manager; the returned Change is the caller's to apply.
func (m *Manager) Update(cfg Config) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commitLocked(cfg)
}

// Set assigns a single setting addressed by its json key, e.g. "feed_size".
func (m *Manager) Set(key, value string) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.cfg
	if err := setField(&cfg, key, value); err != nil {
		return Change{}, err
	}
	return m.commitLocked(cfg)
}

func (m *Manager) commitLocked(cfg Config) (Change, error) {
	if err := cfg.Validate(); err != nil {
		return Change{}, err
	}
	change := Change{Old: m.cfg, New: cfg}
	if change.Empty() {
		return change, nil
	}
	if err := writeConfigFile(m.path, cfg); err != nil {
		return Change{}, err
	}
	m.cfg = cfg
	return change, nil
}

// Watch calls onChange from a background goroutine whenever the settings
// file is edited elsewhere, for example by `xagent config set` in another
// terminal. Bursts of events are folded into one reload. The watch ends
// with ctx.
func (m *Manager) Watch(ctx context.Context, onChange func(Change)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watching {
		return errors.New("settings are already watched")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch settings: %w", err)
	}
	// The file is replaced on every save, so watch its directory.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch settings: %w", err)
	}
	m.watching = true

	go m.watch(ctx, watcher, onChange)
	return nil
}

func (m *Manager) watch(ctx context.Context, watcher *fsnotify.Watcher, onChange func(Change)) {
	defer watcher.Close()

	settle := time.NewTimer(m.debounce)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) == filepath.Clean(m.path) &&
				evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				settle.Reset(m.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("settings watcher error", zap.Error(err))
		case <-settle.C:
			if change, ok := m.reload(); ok {
				onChange(change)
			}
		}
	}
}

// reload adopts the file when it is valid and differs from memory. Saves
// made through Update are already in memory and come back empty. A missing
// or broken file keeps the current settings.
func (m *Manager) reload() (Change, bool) {
	cfg, err := readConfigFile(m.path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		m.logger.Warn("settings reload skipped", zap.String("path", m.path), zap.Error(err))
		return Change{}, false
	}

	m.mu.Lock()
	change := Change{Old: m.cfg, New: cfg}
	m.cfg = cfg
	m.mu.Unlock()
	if change.Empty() {
		return change, false
	}
	m.logger.Info("settings reloaded",
		zap.String("path", m.path),
		zap.Bool("retarget", change.Retarget()),
		zap.Strings("pending_restart", change.Pending()))
	return change, true
}

// readConfigFile decodes over the defaults so that keys missing from an
// older file keep their default values.
func readConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := *DefaultConfigWithRoot(filepath.Dir(path))
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func seedConfigFile(path string, initial *Config) (Config, error) {
	cfg := *DefaultConfigWithRoot(filepath.Dir(path))
	if initial != nil {
		cfg = *initial
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if err := writeConfigFile(path, cfg); err != nil {
		return Config{}, fmt.Errorf("write initial config: %w", err)
	}
	return cfg, nil
}

// writeConfigFile replaces path atomically.
func writeConfigFile(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("save config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("save config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func setField(cfg *Config, key, value string) error {
	switch key {
	case "api_url":
		cfg.APIURL = value
	case "data_dir":
		cfg.DataDir = value
	case "session_backend":
		cfg.SessionBackend = value
	case "session_file":
		cfg.SessionFile = value
	case "session_db":
		cfg.SessionDB = value
	case "log_level":
		cfg.LogLevel = value
	case "log_file":
		cfg.LogFile = value
	case "request_timeout_seconds", "feed_size", "reply_count", "suggestion_batch":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "request_timeout_seconds":
			cfg.RequestTimeoutSeconds = v
		case "feed_size":
			cfg.FeedSize = v
		case "reply_count":
			cfg.ReplyCount = v
		default:
			cfg.SuggestionBatch = v
		}
	case "confidence_threshold":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.ConfidenceThreshold = v
	case "debug":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Debug = v
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func WithConfigDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		if dir != "" {
			o.configPath = filepath.Join(dir, settingsFile)
		}
	}
}

func WithConfigPath(path string) ManagerOption {
	return func(o *managerOptions) {
		if path != "" {
			o.configPath = path
		}
	}
}

func WithDebounce(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func WithInitialConfig(cfg *Config) ManagerOption {
	return func(o *managerOptions) {
		o.initialConfig = cfg
	}
}

func WithLogger(logger *zap.Logger) ManagerOption {
	return func(o *managerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
