package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL              = "http://localhost:8000"
	DefaultFeedSize            = 10
	DefaultReplyCount          = 3
	DefaultSuggestionBatch     = 3
	DefaultConfidenceThreshold = 0.85
	DefaultRequestTimeout      = 30
)

// Session credential backends.
const (
	SessionBackendFile   = "file"
	SessionBackendSQLite = "sqlite"
	SessionBackendMemory = "memory"
)

type Config struct {
	APIURL  string `json:"api_url"`
	DataDir string `json:"data_dir"`

	SessionBackend string `json:"session_backend"`
	SessionFile    string `json:"session_file"`
	SessionDB      string `json:"session_db"`

	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
	FeedSize              int     `json:"feed_size"`
	ReplyCount            int     `json:"reply_count"`
	SuggestionBatch       int     `json:"suggestion_batch"`
	ConfidenceThreshold   float64 `json:"confidence_threshold"`

	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
	Debug    bool   `json:"debug"`
}

func DefaultConfig() *Config {
	_ = godotenv.Load()

	root := os.Getenv("XAGENT_DATA_DIR")
	if root == "" {
		root = defaultDataDir()
	}
	cfg := DefaultConfigWithRoot(root)
	cfg.loadFromEnv()
	return cfg
}

// DefaultConfigWithRoot returns defaults with every path placed under root.
// Environment overrides are not applied.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		APIURL:  DefaultAPIURL,
		DataDir: root,

		SessionBackend: SessionBackendFile,
		SessionFile:    filepath.Join(root, "session.json"),
		SessionDB:      filepath.Join(root, "session.db"),

		RequestTimeoutSeconds: DefaultRequestTimeout,
		FeedSize:              DefaultFeedSize,
		ReplyCount:            DefaultReplyCount,
		SuggestionBatch:       DefaultSuggestionBatch,
		ConfidenceThreshold:   DefaultConfidenceThreshold,

		LogLevel: "info",
		LogFile:  filepath.Join(root, "xagent.log"),
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".xagent")
	}
	currentDir, _ := os.Getwd()
	return filepath.Join(currentDir, ".xagent")
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("API_URL"); val != "" {
		c.APIURL = val
	}
	if val := os.Getenv("XAGENT_API_URL"); val != "" {
		c.APIURL = val
	}
	if val := os.Getenv("XAGENT_SESSION_BACKEND"); val != "" {
		c.SessionBackend = strings.ToLower(val)
	}
	if val := os.Getenv("XAGENT_SESSION_FILE"); val != "" {
		c.SessionFile = val
	}
	if val := os.Getenv("XAGENT_SESSION_DB"); val != "" {
		c.SessionDB = val
	}

	if val := os.Getenv("XAGENT_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.RequestTimeoutSeconds = int(d.Seconds())
		} else if v, err := strconv.Atoi(val); err == nil {
			c.RequestTimeoutSeconds = v
		}
	}
	if val := os.Getenv("XAGENT_FEED_SIZE"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.FeedSize = v
		}
	}
	if val := os.Getenv("XAGENT_REPLY_COUNT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.ReplyCount = v
		}
	}
	if val := os.Getenv("XAGENT_SUGGESTION_BATCH"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.SuggestionBatch = v
		}
	}
	if val := os.Getenv("XAGENT_CONFIDENCE_THRESHOLD"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.ConfidenceThreshold = v
		}
	}

	if val := os.Getenv("XAGENT_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("XAGENT_LOG_FILE"); val != "" {
		c.LogFile = val
	}
	if val := os.Getenv("XAGENT_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

// ApplyEnv lays the environment overrides over c, e.g. after c was read
// from the settings file.
func (c *Config) ApplyEnv() {
	c.loadFromEnv()
}

// RequestTimeout is the transport timeout applied to every API call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.APIURL))
	if err != nil {
		return fmt.Errorf("invalid api_url %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api_url %q: scheme must be http or https", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api_url %q: missing host", c.APIURL)
	}

	switch c.SessionBackend {
	case SessionBackendFile, SessionBackendSQLite, SessionBackendMemory:
	default:
		return fmt.Errorf("unknown session_backend %q", c.SessionBackend)
	}

	if c.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("request_timeout_seconds must be positive")
	}
	if c.FeedSize < 1 || c.FeedSize > 100 {
		return fmt.Errorf("feed_size must be between 1 and 100")
	}
	if c.ReplyCount < 1 {
		return fmt.Errorf("reply_count must be positive")
	}
	if c.SuggestionBatch < 1 {
		return fmt.Errorf("suggestion_batch must be positive")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be within [0,1]")
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, filepath.Dir(c.SessionFile), filepath.Dir(c.SessionDB), filepath.Dir(c.LogFile)}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
