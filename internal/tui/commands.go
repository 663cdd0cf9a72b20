package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/panels"
	"github.com/dyike/xagent/internal/store"
)

func waitReady(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		<-st.Ready()
		return readyMsg{}
	}
}

func (m Model) submitAuth() tea.Cmd {
	req, err := m.auth.Begin()
	if err != nil {
		return nil
	}
	ctx, auth := m.ctx, m.auth
	return func() tea.Msg {
		return authDoneMsg{res: auth.Execute(ctx, req)}
	}
}

func (m Model) loadPosts() tea.Cmd {
	name, err := m.dashboard.BeginLoad()
	if err != nil {
		return nil
	}
	ctx, p := m.ctx, m.dashboard
	return func() tea.Msg {
		return postsMsg{res: p.RunLoad(ctx, name)}
	}
}

func (m Model) loadTrending() tea.Cmd {
	req := m.trending.BeginLoad()
	ctx, p := m.ctx, m.trending
	return func() tea.Msg {
		return trendingMsg{res: p.RunLoad(ctx, req)}
	}
}

func (m Model) loadSuggestions() tea.Cmd {
	req, err := m.suggestions.BeginLoad()
	if err != nil {
		return nil
	}
	ctx, p := m.ctx, m.suggestions
	return func() tea.Msg {
		return loadedMsg{res: p.RunLoad(ctx, req)}
	}
}

func (m Model) generateSuggestion(topics []string) tea.Cmd {
	if err := m.suggestions.BeginGenerate(); err != nil {
		return nil
	}
	ctx, p := m.ctx, m.suggestions
	return func() tea.Msg {
		return generatedMsg{res: p.RunGenerate(ctx, topics)}
	}
}

func (m Model) approve(id, text string) (tea.Cmd, error) {
	req, err := m.suggestions.BeginApprove(id, text)
	if err != nil {
		return nil, err
	}
	ctx, p := m.ctx, m.suggestions
	return func() tea.Msg {
		return approvedMsg{res: p.RunApprove(ctx, req)}
	}, nil
}

func (m Model) analyze() tea.Cmd {
	req, err := m.analysis.Begin()
	if err != nil {
		return nil
	}
	ctx, p := m.ctx, m.analysis
	return func() tea.Msg {
		return analysisMsg{res: p.Execute(ctx, req)}
	}
}

func (m Model) respond(action, postID, text string) tea.Cmd {
	ctx, p := m.ctx, m.trending
	return func() tea.Msg {
		var post models.Post
		var err error
		if action == "quote" {
			post, err = p.Quote(ctx, postID, text)
		} else {
			post, err = p.Reply(ctx, postID, text)
		}
		return publishedMsg{action: action, post: post, err: err}
	}
}

// accountCmd runs a blocking account panel call off the event loop.
func (m *Model) accountCmd(notice string, fn func(context.Context, *panels.AccountPanel) error) tea.Cmd {
	m.accountBusy++
	ctx, p := m.ctx, m.account
	return func() tea.Msg {
		if err := fn(ctx, p); err != nil {
			return accountMsg{err: err}
		}
		return accountMsg{notice: notice}
	}
}

func (m Model) applySetting(key, value string) tea.Cmd {
	if m.settings == nil {
		return func() tea.Msg {
			return settingsMsg{err: fmt.Errorf("settings are read-only in this session")}
		}
	}
	mgr := m.settings
	return func() tea.Msg {
		change, err := mgr.Set(key, strings.TrimSpace(value))
		if err != nil {
			return settingsMsg{err: err}
		}
		return configMsg{change: change}
	}
}
