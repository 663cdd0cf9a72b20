package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dyike/xagent/config"
	"github.com/dyike/xagent/internal/display"
	"github.com/dyike/xagent/internal/store"
	"github.com/dyike/xagent/internal/tui"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xagent",
		Short: "xagent - automated posting from your terminal",
		Long: `xagent drives the posting backend: it signs you in, suggests posts,
analyzes posts and drafts replies, follows trending posts and handles payments
for extra suggestions. Without a subcommand it opens the interactive dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["setup"] == "none" {
				return nil
			}
			return a.setup(cmd, cmd == cmd.Root())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDashboard(cmd)
		},
	}

	rootCmd.AddCommand(
		a.newLoginCmd(),
		a.newRegisterCmd(),
		a.newLogoutCmd(),
		a.newWhoamiCmd(),
		a.newConnectCmd(),
		a.newSubscriptionCmd(),
		a.newDashboardCmd(),
		a.newSuggestionsCmd(),
		a.newAnalyzeCmd(),
		a.newRepliesCmd(),
		a.newTrendingCmd(),
		a.newPostsCmd(),
		a.newPublishCmd(),
		a.newReplyCmd(),
		a.newRepostCmd(),
		a.newPayCmd(),
		a.newConfigCmd(),
		newVersionCmd(),
	)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.opts.output, "output", "o", "table", "Output format: table, json or yaml")
	flags.StringVar(&a.opts.apiURL, "api-url", "", "Backend address (overrides settings and XAGENT_API_URL)")
	flags.StringVar(&a.opts.configPath, "config", "", "Settings file path")
	flags.BoolVar(&a.opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&a.opts.ephemeral, "ephemeral", false, "Keep the session in memory only")

	return rootCmd
}

// runDashboard opens the interactive dashboard.
func (a *app) runDashboard(cmd *cobra.Command) error {
	st := store.New(a.creds, a.client.Auth(), store.WithLogger(a.logger))
	a.st = st
	return tui.Run(cmd.Context(), tui.Deps{
		Config:   a.cfg,
		Settings: a.manager,
		Client:   a.client,
		Store:    st,
		Logger:   a.logger,
	})
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Annotations: map[string]string{"setup": "none"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xagent %s\n", Version)
		},
	}
}

// newConfigCmd creates the config command
func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Show, validate and change the settings stored in the settings file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.write(cmd.OutOrStdout(), a.cfg, func(w io.Writer) { showConfig(w, a.cfg) })
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.manager.Get()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration is invalid: %w", err)
			}
			display.Success(cmd.OutOrStdout(), "Configuration is valid: "+a.manager.Path())
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting, e.g. `config set feed_size 20`",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, err := a.manager.Set(args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", args[0], err)
			}
			if change.Empty() {
				display.Info(cmd.OutOrStdout(), fmt.Sprintf("%s is already %s", args[0], args[1]))
				return nil
			}
			display.Success(cmd.OutOrStdout(), fmt.Sprintf("%s = %s", args[0], args[1]))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.manager.Path())
			return nil
		},
	})

	return configCmd
}

// showConfig displays the effective configuration
func showConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, display.HeaderStyle.Render("Current xagent configuration"))
	fmt.Fprintf(w, "API URL:              %s\n", cfg.APIURL)
	fmt.Fprintf(w, "Data directory:       %s\n", cfg.DataDir)
	fmt.Fprintf(w, "Session backend:      %s\n", cfg.SessionBackend)
	switch cfg.SessionBackend {
	case config.SessionBackendFile:
		fmt.Fprintf(w, "Session file:         %s\n", cfg.SessionFile)
	case config.SessionBackendSQLite:
		fmt.Fprintf(w, "Session database:     %s\n", cfg.SessionDB)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Request timeout:      %s\n", cfg.RequestTimeout())
	fmt.Fprintf(w, "Trending feed size:   %d\n", cfg.FeedSize)
	fmt.Fprintf(w, "Reply options:        %d\n", cfg.ReplyCount)
	fmt.Fprintf(w, "Suggestion batch:     %d\n", cfg.SuggestionBatch)
	fmt.Fprintf(w, "High confidence over: %.2f\n", cfg.ConfidenceThreshold)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Log level:            %s\n", cfg.LogLevel)
	fmt.Fprintf(w, "Log file:             %s\n", cfg.LogFile)
	fmt.Fprintf(w, "Debug mode:           %t\n", cfg.Debug)
}
