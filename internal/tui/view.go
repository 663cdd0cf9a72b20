package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/xagent/internal/display"
	"github.com/dyike/xagent/internal/panels"
	"github.com/dyike/xagent/internal/router"
)

var helpText = map[router.Page]string{
	router.Auth:        "tab next field • enter submit • ctrl+r login/register • ctrl+c quit",
	router.Dashboard:   "r reload",
	router.Suggestions: "↑/↓ select • a approve • e edit & approve • x reject • g generate • v view • / topic • r reload",
	router.Analysis:    "enter edit text • ctrl+s analyze (in editor) • r rerun • m toggle mention",
	router.Trending:    "↑/↓ select • p reply • c quote • a analyze • f filter • / keyword • r refresh",
	router.Account:     "t switch plan • x connect X • b buy suggestions • v verify payment • s status • h history",
	router.Settings:    "u api url • f feed size • c threshold • n reply count • b batch size",
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView() + "\n")
	b.WriteString(m.statusView() + "\n\n")
	b.WriteString(m.viewport.View() + "\n")

	switch {
	case m.prompt != nil:
		b.WriteString("\n" + m.prompt.input.View() + "\n")
		b.WriteString(display.MutedStyle.Render("enter submit • esc cancel") + "\n")
	case m.editing != editNone:
		b.WriteString("\n" + m.editor.View() + "\n")
		b.WriteString(display.MutedStyle.Render("ctrl+s submit • esc close") + "\n")
	default:
		help := helpText[m.page]
		if m.page != router.Auth {
			help += " • tab/1-6 pages • L sign out • q quit"
		}
		b.WriteString("\n" + display.MutedStyle.Render(help) + "\n")
	}
	return b.String()
}

func (m Model) headerView() string {
	title := display.TitleStyle.Render("xagent")
	if m.page == router.Auth {
		return title
	}
	tabs := make([]string, 0, len(router.Pages))
	for i, p := range router.Pages {
		label := fmt.Sprintf("%d %s", i+1, p.Title())
		if p == m.page {
			tabs = append(tabs, display.SelectedStyle.Underline(true).Render(label))
		} else {
			tabs = append(tabs, display.MutedStyle.Render(label))
		}
	}
	user := ""
	if m.snap.User != nil {
		user = display.MutedStyle.Render("  @" + m.snap.User.Username)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", strings.Join(tabs, "  "), user)
}

func (m Model) statusView() string {
	switch {
	case m.busy():
		return m.spinner.View() + " " + display.MutedStyle.Render("Working...")
	case m.snap.Error != nil:
		return display.ErrorStyle.Render(*m.snap.Error)
	case m.notice != "" && m.noticeErr:
		return display.ErrorStyle.Render(m.notice)
	case m.notice != "":
		return display.SuccessStyle.Render(m.notice)
	}
	return ""
}

func (m *Model) syncViewport() {
	height := m.height - 8
	if m.prompt != nil || m.editing != editNone {
		height -= 8
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(height, 5)
	m.viewport.SetContent(m.body())
}

func (m Model) body() string {
	switch m.page {
	case router.Auth:
		return m.authView()
	case router.Dashboard:
		return withError(display.Overview(m.dashboard.Overview()), m.dashboard.Error())
	case router.Suggestions:
		return m.suggestionsView()
	case router.Analysis:
		return m.analysisView()
	case router.Trending:
		return m.trendingView()
	case router.Account:
		return m.accountView()
	case router.Settings:
		return m.settingsView()
	}
	return ""
}

func withError(content, err string) string {
	if err == "" {
		return content
	}
	return display.ErrorStyle.Render(err) + "\n\n" + content
}

var fieldLabels = map[panels.Field]string{
	panels.FieldEmail:    "Email",
	panels.FieldUsername: "Username",
	panels.FieldPassword: "Password",
	panels.FieldConfirm:  "Confirm password",
}

func (m Model) authView() string {
	var b strings.Builder
	if m.auth.Mode() == panels.ModeRegister {
		b.WriteString(display.HeaderStyle.Render("Create an account") + "\n\n")
	} else {
		b.WriteString(display.HeaderStyle.Render("Sign in") + "\n\n")
	}
	for i, f := range m.visibleFields() {
		marker := "  "
		if i == m.focus {
			marker = display.SelectedStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%-18s %s\n", marker, fieldLabels[f], m.fields[f].View())
	}
	if msg := m.auth.Error(); msg != "" {
		b.WriteString("\n" + display.ErrorStyle.Render(msg) + "\n")
	}
	return b.String()
}

func (m Model) suggestionsView() string {
	var b strings.Builder
	header := "All suggestions"
	switch m.suggestions.View() {
	case panels.ViewHighConfidence:
		header = fmt.Sprintf("High confidence (> %.0f%%)", m.suggestions.Threshold()*100)
	case panels.ViewByTopic:
		header = fmt.Sprintf("Topic: %q", m.suggestions.Query())
	}
	b.WriteString(display.HeaderStyle.Render(header) + "\n\n")

	list := m.suggestions.Visible()
	if len(list) == 0 {
		b.WriteString(display.MutedStyle.Render("No suggestions. Press g to generate one.") + "\n")
	}
	for i, s := range list {
		item := display.Suggestions(list[i:i+1], m.suggestions.Threshold())
		if i == m.cursor {
			item = display.SelectedStyle.Render("> ") + strings.TrimLeft(item, " ")
		} else {
			item = "  " + item
		}
		if m.suggestions.Publishing() == s.ID {
			item = strings.TrimRight(item, "\n") + display.WarnStyle.Render("  publishing...") + "\n\n"
		}
		b.WriteString(item)
	}
	return withError(b.String(), m.suggestions.Error())
}

func (m Model) analysisView() string {
	var b strings.Builder
	b.WriteString(display.HeaderStyle.Render("Post") + "\n")
	if text := m.analysis.Text(); text != "" {
		b.WriteString(display.Wrap(text, 76, "  ") + "\n")
	} else {
		b.WriteString(display.MutedStyle.Render("  Press enter to write a post to analyze.") + "\n")
	}
	fmt.Fprintf(&b, "  mention: %t  trending score: %.2f\n\n", m.analysis.Mention(), m.analysis.TrendingScore())

	if a := m.analysis.Analysis(); a != nil {
		b.WriteString(display.Analysis(*a) + "\n")
	}
	if opts := m.analysis.Options(); len(opts) > 0 {
		b.WriteString(display.Replies(opts))
	}
	return withError(b.String(), m.analysis.Error())
}

func (m Model) trendingView() string {
	var b strings.Builder
	b.WriteString(display.HeaderStyle.Render("Trending ("+m.trending.Filter().String()+")") + "\n\n")
	posts := m.trending.Posts()
	if len(posts) == 0 {
		b.WriteString(display.MutedStyle.Render("Nothing to show.") + "\n")
	}
	for i, p := range posts {
		item := display.Post(p)
		if i == m.cursor {
			b.WriteString(display.SelectedStyle.Render("> ") + item + "\n")
		} else {
			b.WriteString("  " + item + "\n")
		}
	}
	return withError(b.String(), m.trending.Error())
}

func (m Model) accountView() string {
	var b strings.Builder
	if m.snap.User != nil {
		b.WriteString(display.User(*m.snap.User) + "\n")
	}
	fmt.Fprintf(&b, "Price: %s BNB per suggestion\n\n", m.account.Quote(1))
	if pending, ok := m.account.Pending(); ok {
		b.WriteString(display.HeaderStyle.Render("Pending payment") + "\n")
		b.WriteString(display.PaymentRequest(pending) + "\n")
	}
	b.WriteString(display.HeaderStyle.Render("Payment history") + "\n")
	b.WriteString(display.Payments(m.account.History()))
	return withError(b.String(), m.account.Error())
}

func (m Model) settingsView() string {
	var b strings.Builder
	b.WriteString(display.HeaderStyle.Render("Settings") + "\n\n")
	rows := [][2]string{
		{"api_url", m.cfg.APIURL},
		{"feed_size", settingValue(m.cfg, "feed_size")},
		{"confidence_threshold", settingValue(m.cfg, "confidence_threshold")},
		{"reply_count", settingValue(m.cfg, "reply_count")},
		{"suggestion_batch", settingValue(m.cfg, "suggestion_batch")},
		{"session_backend", m.cfg.SessionBackend},
		{"log_file", m.cfg.LogFile},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-22s %s\n", r[0], r[1])
	}
	if m.settings != nil {
		b.WriteString("\n" + display.MutedStyle.Render("Saved to "+m.settings.Path()) + "\n")
	} else {
		b.WriteString("\n" + display.MutedStyle.Render("Settings are read-only in this session.") + "\n")
	}
	return b.String()
}
