package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dyike/xagent/config"
)

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, deps Deps) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, deps)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if deps.Settings != nil {
		err := deps.Settings.Watch(ctx, func(c config.Change) {
			p.Send(configMsg{change: c})
		})
		if err != nil {
			m.logger.Warn("config watch disabled", zap.Error(err))
		}
	}

	_, err := p.Run()
	return err
}
