// Package cli provides the command-line interface for xagent
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyike/xagent/internal/display"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Run starts the CLI application
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	rootCmd := a.rootCmd()
	err := rootCmd.ExecuteContext(ctx)
	a.close()
	if err != nil {
		display.Error(os.Stderr, err)
		os.Exit(1)
	}
}
