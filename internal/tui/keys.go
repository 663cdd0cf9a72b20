package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dyike/xagent/config"
	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/panels"
	"github.com/dyike/xagent/internal/router"
)

type promptKind int

const (
	promptTopics promptKind = iota
	promptQuery
	promptKeyword
	promptReply
	promptQuote
	promptBuy
	promptVerify
	promptConnect
	promptSetting
)

// prompt is a one-line input shown under the page.
type prompt struct {
	kind   promptKind
	label  string
	target string
	input  textinput.Model
}

var trendingFilters = []panels.Filter{
	{Kind: panels.FilterAll},
	{Kind: panels.FilterEngagement},
	{Kind: panels.FilterTech},
	{Kind: panels.FilterCrypto},
}

func (m *Model) openPrompt(kind promptKind, label, target, value string) tea.Cmd {
	ti := textinput.New()
	ti.Prompt = label + ": "
	ti.CharLimit = 280
	ti.Width = 60
	ti.SetValue(value)
	m.prompt = &prompt{kind: kind, label: label, target: target, input: ti}
	return m.prompt.input.Focus()
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.prompt != nil {
		return m.handlePromptKey(msg)
	}
	if m.editing != editNone {
		return m.handleEditorKey(msg)
	}
	if m.page == router.Auth {
		return m.handleAuthKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		m.selected = router.Next(m.page)
		return m, nil
	case "shift+tab":
		m.selected = router.Prev(m.page)
		return m, nil
	case "1", "2", "3", "4", "5", "6":
		i, _ := strconv.Atoi(msg.String())
		if i <= len(router.Pages) {
			m.selected = router.Pages[i-1]
		}
		return m, nil
	case "L":
		if err := m.auth.Logout(); err != nil {
			m.setNotice(err.Error(), true)
		} else {
			m.setNotice("Signed out", false)
		}
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "up", "k":
		m.cursor--
		return m, nil
	case "down", "j":
		m.cursor++
		return m, nil
	}

	switch m.page {
	case router.Dashboard:
		return m.handleDashboardKey(msg)
	case router.Suggestions:
		return m.handleSuggestionsKey(msg)
	case router.Analysis:
		return m.handleAnalysisKey(msg)
	case router.Trending:
		return m.handleTrendingKey(msg)
	case router.Account:
		return m.handleAccountKey(msg)
	case router.Settings:
		return m.handleSettingsKey(msg)
	}
	return m, nil
}

func (m Model) visibleFields() []panels.Field {
	if m.auth.Mode() == panels.ModeRegister {
		return []panels.Field{panels.FieldEmail, panels.FieldUsername, panels.FieldPassword, panels.FieldConfirm}
	}
	return []panels.Field{panels.FieldEmail, panels.FieldPassword}
}

func (m *Model) focusField(i int) tea.Cmd {
	fields := m.visibleFields()
	if i < 0 {
		i = len(fields) - 1
	}
	m.focus = i % len(fields)
	for j := range m.fields {
		m.fields[j].Blur()
	}
	return m.fields[fields[m.focus]].Focus()
}

func (m *Model) resetAuthFields() {
	email := m.fields[panels.FieldEmail].Value()
	for i := range m.fields {
		m.fields[i].Reset()
	}
	m.fields[panels.FieldEmail].SetValue(email)
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return m, m.focusField(m.focus + 1)
	case "shift+tab", "up":
		return m, m.focusField(m.focus - 1)
	case "ctrl+r":
		if m.auth.ToggleMode() {
			return m, m.focusField(0)
		}
		return m, nil
	case "enter":
		cmd := m.submitAuth()
		if cmd == nil {
			return m, nil
		}
		return m, tea.Batch(cmd, m.spinner.Tick)
	}

	field := m.visibleFields()[m.focus]
	var cmd tea.Cmd
	m.fields[field], cmd = m.fields[field].Update(msg)
	if m.fields[field].Value() != m.formValue(field) {
		m.auth.SetField(field, m.fields[field].Value())
	}
	return m, cmd
}

func (m Model) formValue(f panels.Field) string {
	form := m.auth.Form()
	switch f {
	case panels.FieldEmail:
		return form.Email
	case panels.FieldPassword:
		return form.Password
	case panels.FieldConfirm:
		return form.Confirm
	default:
		return form.Username
	}
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "r" {
		return m, tea.Batch(m.loadPosts(), m.spinner.Tick)
	}
	return m, nil
}

func (m Model) selectedSuggestion() (models.PostSuggestion, bool) {
	list := m.suggestions.Visible()
	if m.cursor < 0 || m.cursor >= len(list) {
		return models.PostSuggestion{}, false
	}
	return list[m.cursor], true
}

func (m Model) handleSuggestionsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m, tea.Batch(m.loadSuggestions(), m.spinner.Tick)
	case "g":
		return m, m.openPrompt(promptTopics, "Topics (comma separated)", "", "")
	case "/":
		return m, m.openPrompt(promptQuery, "Topic", "", m.suggestions.Query())
	case "v":
		m.suggestions.SetView((m.suggestions.View() + 1) % 3)
		m.cursor = 0
	case "x":
		if s, ok := m.selectedSuggestion(); ok {
			m.suggestions.Reject(s.ID)
			m.setNotice("Rejected suggestion #"+s.ID, false)
		}
	case "a", "enter":
		s, ok := m.selectedSuggestion()
		if !ok {
			return m, nil
		}
		cmd, err := m.approve(s.ID, "")
		if err != nil {
			m.setNotice(api.MessageOf(err), true)
			return m, nil
		}
		return m, tea.Batch(cmd, m.spinner.Tick)
	case "e":
		if s, ok := m.selectedSuggestion(); ok {
			m.editing = editApprove
			m.editID = s.ID
			m.editor.SetValue(s.Text)
			return m, m.editor.Focus()
		}
	}
	return m, nil
}

func (m Model) handleAnalysisKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "i":
		m.editing = editAnalysis
		m.editor.SetValue(m.analysis.Text())
		return m, m.editor.Focus()
	case "m":
		m.analysis.SetMention(!m.analysis.Mention())
	case "r":
		return m.runAnalysis()
	}
	return m, nil
}

func (m Model) runAnalysis() (Model, tea.Cmd) {
	cmd := m.analyze()
	if cmd == nil {
		return m, nil
	}
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.editing == editAnalysis {
			m.analysis.SetText(m.editor.Value())
		}
		m.editing = editNone
		m.editor.Blur()
		return m, nil
	case "ctrl+s":
		mode := m.editing
		text := m.editor.Value()
		m.editing = editNone
		m.editor.Blur()
		if mode == editAnalysis {
			m.analysis.SetText(text)
			return m.runAnalysis()
		}
		cmd, err := m.approve(m.editID, text)
		if err != nil {
			m.setNotice(api.MessageOf(err), true)
			return m, nil
		}
		return m, tea.Batch(cmd, m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) selectedPost() (models.Post, bool) {
	posts := m.trending.Posts()
	if m.cursor < 0 || m.cursor >= len(posts) {
		return models.Post{}, false
	}
	return posts[m.cursor], true
}

func (m Model) handleTrendingKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m, tea.Batch(m.loadTrending(), m.spinner.Tick)
	case "f":
		next := trendingFilters[0]
		for i, f := range trendingFilters {
			if f == m.trending.Filter() {
				next = trendingFilters[(i+1)%len(trendingFilters)]
			}
		}
		m.trending.SetFilter(next)
		m.cursor = 0
	case "/":
		return m, m.openPrompt(promptKeyword, "Keyword", "", "")
	case "p", "c":
		post, ok := m.selectedPost()
		if !ok {
			return m, nil
		}
		if msg.String() == "p" {
			return m, m.openPrompt(promptReply, "Reply to @"+post.Author.Handle, post.ID, "")
		}
		return m, m.openPrompt(promptQuote, "Quote @"+post.Author.Handle, post.ID, "")
	case "a":
		post, ok := m.selectedPost()
		if !ok {
			return m, nil
		}
		m.analysis.SetText(post.Text)
		m.analysis.SetMention(post.IsMention())
		m.analysis.SetTrendingScore(post.Score())
		m.selected = router.Analysis
		return m.runAnalysis()
	}
	return m, nil
}

func (m Model) handleAccountKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "t":
		tier := models.TierPro
		if m.snap.User != nil && m.snap.User.SubscriptionTier == models.TierPro {
			tier = models.TierFree
		}
		return m, m.accountCmd("Plan changed to "+string(tier), func(ctx context.Context, p *panels.AccountPanel) error {
			_, err := p.UpdateTier(ctx, tier)
			return err
		})
	case "x":
		return m, m.openPrompt(promptConnect, "X handle, access token, secret", "", "")
	case "b":
		return m, m.openPrompt(promptBuy, "Suggestions to buy", "", "10")
	case "v":
		pending, ok := m.account.Pending()
		if !ok {
			m.setNotice("No pending payment", true)
			return m, nil
		}
		return m, m.openPrompt(promptVerify, "Transaction hash", pending.Reference(), "")
	case "s":
		pending, ok := m.account.Pending()
		if !ok {
			m.setNotice("No pending payment", true)
			return m, nil
		}
		id := pending.Reference()
		return m, m.accountCmd("", func(ctx context.Context, p *panels.AccountPanel) error {
			_, err := p.Status(ctx, id)
			return err
		})
	case "h":
		return m, m.accountCmd("", func(ctx context.Context, p *panels.AccountPanel) error {
			_, err := p.LoadHistory(ctx)
			return err
		})
	}
	return m, nil
}

var settingKeys = map[string]string{
	"u": "api_url",
	"f": "feed_size",
	"c": "confidence_threshold",
	"n": "reply_count",
	"b": "suggestion_batch",
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key, ok := settingKeys[msg.String()]
	if !ok {
		return m, nil
	}
	return m, m.openPrompt(promptSetting, key, key, settingValue(m.cfg, key))
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = nil
		return m, nil
	case "enter":
		p := m.prompt
		m.prompt = nil
		return m.submitPrompt(p, strings.TrimSpace(p.input.Value()))
	}
	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return m, cmd
}

func (m Model) submitPrompt(p *prompt, value string) (Model, tea.Cmd) {
	switch p.kind {
	case promptTopics:
		var topics []string
		for _, t := range strings.Split(value, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
		return m, tea.Batch(m.generateSuggestion(topics), m.spinner.Tick)

	case promptQuery:
		m.suggestions.SetQuery(value)
		m.suggestions.SetView(panels.ViewByTopic)
		m.cursor = 0

	case promptKeyword:
		if value == "" {
			m.trending.SetFilter(panels.Filter{Kind: panels.FilterAll})
		} else {
			m.trending.SetFilter(panels.Filter{Kind: panels.FilterKeyword, Keyword: value})
		}
		m.cursor = 0

	case promptReply, promptQuote:
		if value == "" {
			return m, nil
		}
		action := "reply"
		if p.kind == promptQuote {
			action = "quote"
		}
		return m, m.respond(action, p.target, value)

	case promptBuy:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			m.setNotice("Enter a positive number", true)
			return m, nil
		}
		return m, m.accountCmd(fmt.Sprintf("Payment requested: %s BNB", m.account.Quote(n)),
			func(ctx context.Context, ap *panels.AccountPanel) error {
				_, err := ap.RequestSuggestions(ctx, n)
				return err
			})

	case promptVerify:
		txID := p.target
		return m, m.accountCmd("", func(ctx context.Context, ap *panels.AccountPanel) error {
			v, err := ap.Verify(ctx, txID, value)
			if err != nil {
				return err
			}
			if !v.Completed() {
				return errors.New(ap.Error())
			}
			return nil
		})

	case promptConnect:
		parts := strings.Fields(value)
		if len(parts) != 3 {
			m.setNotice("Enter handle, access token and secret separated by spaces", true)
			return m, nil
		}
		acct := models.PlatformAccount{Handle: parts[0], AccessToken: parts[1], AccessTokenSecret: parts[2]}
		return m, m.accountCmd("Connected @"+acct.Handle, func(ctx context.Context, ap *panels.AccountPanel) error {
			_, err := ap.ConnectX(ctx, acct)
			return err
		})

	case promptSetting:
		return m, m.applySetting(p.target, value)
	}
	return m, nil
}

func settingValue(cfg config.Config, key string) string {
	switch key {
	case "api_url":
		return cfg.APIURL
	case "feed_size":
		return strconv.Itoa(cfg.FeedSize)
	case "confidence_threshold":
		return strconv.FormatFloat(cfg.ConfidenceThreshold, 'f', -1, 64)
	case "reply_count":
		return strconv.Itoa(cfg.ReplyCount)
	case "suggestion_batch":
		return strconv.Itoa(cfg.SuggestionBatch)
	}
	return ""
}
