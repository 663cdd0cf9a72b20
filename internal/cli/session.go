package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dyike/xagent/config"
	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/display"
	"github.com/dyike/xagent/internal/logging"
	"github.com/dyike/xagent/internal/session"
	"github.com/dyike/xagent/internal/store"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	output     string
	apiURL     string
	configPath string
	debug      bool
	ephemeral  bool
}

// app is everything one invocation works with. It is filled in by setup
// before a command runs and released by close.
type app struct {
	opts rootOptions

	manager *config.Manager
	cfg     *config.Config
	format  display.Format
	logger  *zap.Logger

	creds      session.Store
	closeCreds func() error
	client     *api.Client
	st         *store.Store

	closeOnce sync.Once
}

func newApp() *app {
	return &app{logger: zap.NewNop()}
}

// setup loads the settings, applies flags and opens the credential store.
// The dashboard always logs to the log file since it owns the terminal.
func (a *app) setup(cmd *cobra.Command, interactive bool) error {
	format, err := display.ParseFormat(a.opts.output)
	if err != nil {
		return err
	}
	a.format = format

	base := config.DefaultConfig()
	manager, err := config.NewManager(
		config.WithConfigDir(base.DataDir),
		config.WithConfigPath(a.opts.configPath),
		config.WithInitialConfig(base),
	)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	a.manager = manager

	cfg := manager.Get()
	cfg.ApplyEnv()
	if a.opts.apiURL != "" {
		cfg.APIURL = a.opts.apiURL
	}
	if a.opts.debug {
		cfg.Debug = true
	}
	if a.opts.ephemeral {
		cfg.SessionBackend = config.SessionBackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	a.cfg = &cfg

	target := logging.ToFile
	if cfg.Debug && !interactive {
		target = logging.ToStderr
	}
	logger, err := logging.New(a.cfg, target)
	if err != nil {
		return err
	}
	a.logger = logger.With(zap.String("command", cmd.CommandPath()))

	creds, closeCreds, err := session.Open(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	a.creds, a.closeCreds = creds, closeCreds
	a.client = api.New(a.cfg.APIURL, creds,
		api.WithTimeout(a.cfg.RequestTimeout()),
		api.WithLogger(a.logger))

	a.logger.Debug("configured",
		zap.String("api_url", a.cfg.APIURL),
		zap.String("session_backend", a.cfg.SessionBackend),
		zap.String("settings", manager.Path()))
	return nil
}

// store returns a container without session restoration, for commands
// that only need somewhere to dispatch to.
func (a *app) store() *store.Store {
	if a.st == nil {
		a.st = store.New(nil, nil, store.WithLogger(a.logger))
	}
	return a.st
}

// signedIn restores the session and waits for it. It fails when nobody is
// signed in or the backend rejects the stored credential.
func (a *app) signedIn(ctx context.Context) (*store.Store, error) {
	if a.st == nil {
		a.st = store.New(a.creds, a.client.Auth(), store.WithLogger(a.logger))
	}
	select {
	case <-a.st.Ready():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	snap := a.st.Snapshot()
	if snap.IsAuthenticated {
		return a.st, nil
	}
	if msg := snap.ErrorMessage(); msg != "" {
		return nil, fmt.Errorf("restore session: %s", msg)
	}
	return nil, fmt.Errorf("not signed in, run `xagent login` first")
}

func (a *app) write(w io.Writer, v any, table func(io.Writer)) error {
	return display.Write(w, a.format, v, table)
}

func (a *app) close() {
	a.closeOnce.Do(func() {
		if a.st != nil {
			a.st.Close()
		}
		if a.closeCreds != nil {
			if err := a.closeCreds(); err != nil {
				a.logger.Warn("close session store", zap.Error(err))
			}
		}
		_ = a.logger.Sync()
	})
}
