// Package tui is the interactive dashboard. It renders the store and the
// feature panels with bubbletea and runs every network step as a tea.Cmd.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dyike/xagent/config"
	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/display"
	"github.com/dyike/xagent/internal/panels"
	"github.com/dyike/xagent/internal/router"
	"github.com/dyike/xagent/internal/store"
)

// Deps are the long-lived objects the dashboard works with.
type Deps struct {
	Config *config.Config
	// Settings persists edits made on the settings page. Nil makes the
	// page read-only.
	Settings *config.Manager
	Client   *api.Client
	Store    *store.Store
	Logger   *zap.Logger
}

type editorMode int

const (
	editNone editorMode = iota
	editAnalysis
	editApprove
)

type Model struct {
	ctx      context.Context
	cfg      config.Config
	settings *config.Manager
	client   *api.Client
	st       *store.Store
	logger   *zap.Logger

	changes     chan struct{}
	unsubscribe func()

	auth        *panels.AuthPanel
	dashboard   *panels.DashboardPanel
	suggestions *panels.SuggestionsPanel
	analysis    *panels.AnalysisPanel
	trending    *panels.TrendingPanel
	account     *panels.AccountPanel

	snap     store.Snapshot
	ready    bool
	selected router.Page
	page     router.Page
	loaded   map[router.Page]bool

	fields      [4]textinput.Model
	focus       int
	cursor      int
	prompt      *prompt
	editor      textarea.Model
	editing     editorMode
	editID      string
	accountBusy int

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int

	notice    string
	noticeErr bool
}

// New builds the dashboard model and subscribes it to the store.
func New(ctx context.Context, deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := config.DefaultConfigWithRoot("")
	if deps.Config != nil {
		cfg = deps.Config
	}

	client := deps.Client
	m := Model{
		ctx:         ctx,
		cfg:         *cfg,
		settings:    deps.Settings,
		client:      client,
		st:          deps.Store,
		logger:      logger.With(zap.String("component", "tui")),
		changes:     make(chan struct{}, 1),
		auth:        panels.NewAuthPanel(client.Auth(), deps.Store),
		dashboard:   panels.NewDashboardPanel(client.Content(), deps.Store, cfg.ConfidenceThreshold),
		suggestions: panels.NewSuggestionsPanel(client.Content(), deps.Store),
		analysis:    panels.NewAnalysisPanel(client.Content(), deps.Store),
		trending:    panels.NewTrendingPanel(client.Content(), deps.Store),
		account:     panels.NewAccountPanel(client.Auth(), client.Payment(), deps.Store),
		selected:    router.Dashboard,
		loaded:      map[router.Page]bool{},
		editor:      textarea.New(),
		spinner:     spinner.New(),
		viewport:    viewport.New(80, 20),
		width:       80,
		height:      24,
	}
	m.configurePanels()

	changes := m.changes
	m.unsubscribe = deps.Store.Subscribe(func(store.Snapshot) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	for i := range m.fields {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 40
		ti.Prompt = ""
		m.fields[i] = ti
	}
	m.fields[panels.FieldEmail].Placeholder = "you@example.com"
	m.fields[panels.FieldUsername].Placeholder = "username"
	for _, f := range []panels.Field{panels.FieldPassword, panels.FieldConfirm} {
		m.fields[f].EchoMode = textinput.EchoPassword
		m.fields[f].EchoCharacter = '•'
	}
	m.fields[panels.FieldEmail].Focus()

	m.editor.Placeholder = "Write or paste a post..."
	m.editor.SetWidth(76)
	m.editor.SetHeight(6)
	m.editor.ShowLineNumbers = false

	m.spinner.Spinner = spinner.Dot
	m.spinner.Style = display.InfoStyle

	m.snap = deps.Store.Snapshot()
	m.page = router.Resolve(m.selected, m.snap.IsAuthenticated)
	m.syncViewport()
	return m
}

// Close detaches the model from the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) configurePanels() {
	m.suggestions.Configure(m.cfg.SuggestionBatch, m.cfg.ConfidenceThreshold)
	m.dashboard.SetThreshold(m.cfg.ConfidenceThreshold)
	m.analysis.SetReplyCount(m.cfg.ReplyCount)
	m.trending.SetFeedSize(m.cfg.FeedSize)
}

func (m Model) waitChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		<-changes
		return snapshotMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitReady(m.st),
		m.waitChange(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.SetWidth(min(msg.Width-4, 100))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case snapshotMsg:
		cmds = append(cmds, m.waitChange())

	case readyMsg:
		m.ready = true
		cmds = append(cmds, m.enterPage())

	case configMsg:
		m.applyConfig(msg.change)

	case authDoneMsg:
		m.auth.Complete(msg.res)
		if msg.res.Err == nil {
			m.resetAuthFields()
			m.setNotice("Signed in as "+msg.res.User.Username, false)
		}

	case postsMsg:
		m.dashboard.CompleteLoad(msg.res)

	case trendingMsg:
		m.trending.CompleteLoad(msg.res)

	case analysisMsg:
		m.analysis.Complete(msg.res)

	case loadedMsg:
		m.suggestions.CompleteLoad(msg.res)

	case generatedMsg:
		m.suggestions.CompleteGenerate(msg.res)

	case approvedMsg:
		m.suggestions.CompleteApprove(msg.res)
		if msg.res.Err == nil {
			m.setNotice("Published suggestion #"+msg.res.ID, false)
		}

	case publishedMsg:
		if msg.err != nil {
			m.setNotice(api.MessageOf(msg.err), true)
		} else {
			m.setNotice("Posted "+msg.action, false)
		}

	case accountMsg:
		m.accountBusy--
		if msg.err != nil {
			m.setNotice(api.MessageOf(msg.err), true)
		} else if msg.notice != "" {
			m.setNotice(msg.notice, false)
		}

	case settingsMsg:
		m.setNotice(msg.err.Error(), true)

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)

	default:
		if m.prompt != nil {
			var cmd tea.Cmd
			m.prompt.input, cmd = m.prompt.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m, cmd := m.refresh()
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// refresh re-reads the store, resolves the page and starts the loads a
// newly shown page needs.
func (m Model) refresh() (Model, tea.Cmd) {
	wasAuthenticated := m.snap.IsAuthenticated
	m.snap = m.st.Snapshot()
	if wasAuthenticated && !m.snap.IsAuthenticated {
		m.signedOut()
	}

	var cmd tea.Cmd
	page := router.Resolve(m.selected, m.snap.IsAuthenticated)
	if page != m.page {
		m.page = page
		m.cursor = 0
		m.viewport.GotoTop()
		cmd = m.enterPage()
	}
	m.clampCursor()
	m.syncViewport()
	return m, cmd
}

func (m *Model) enterPage() tea.Cmd {
	if !m.ready || m.page == router.Auth {
		return nil
	}
	var cmds []tea.Cmd
	switch m.page {
	case router.Dashboard:
		cmds = append(cmds, m.loadPosts())
		if !m.loaded[router.Suggestions] {
			m.loaded[router.Suggestions] = true
			cmds = append(cmds, m.loadSuggestions())
		}
	case router.Suggestions:
		if !m.loaded[router.Suggestions] {
			m.loaded[router.Suggestions] = true
			cmds = append(cmds, m.loadSuggestions())
		}
	case router.Trending:
		if !m.loaded[router.Trending] {
			m.loaded[router.Trending] = true
			cmds = append(cmds, m.loadTrending())
		}
	case router.Account:
		if !m.loaded[router.Account] {
			m.loaded[router.Account] = true
			cmds = append(cmds, m.accountCmd("", func(ctx context.Context, p *panels.AccountPanel) error {
				_, err := p.LoadHistory(ctx)
				return err
			}))
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(append(cmds, m.spinner.Tick)...)
}

func (m *Model) signedOut() {
	m.selected = router.Dashboard
	m.loaded = map[router.Page]bool{}
	m.prompt = nil
	m.editing = editNone
	m.focusField(0)
}

// applyConfig takes the settings that work live. The rest wait for the
// next start and are named in the notice.
func (m *Model) applyConfig(c config.Change) {
	if c.Empty() {
		return
	}
	cfg := c.New
	if c.Retarget() {
		m.client.SetBaseURL(cfg.APIURL)
		m.logger.Info("api url changed", zap.String("url", cfg.APIURL))
	} else {
		// Keep an address given on the command line.
		cfg.APIURL = m.cfg.APIURL
	}
	m.cfg = cfg
	m.configurePanels()
	if pending := c.Pending(); len(pending) > 0 {
		m.setNotice("Saved. Restart xagent to apply "+strings.Join(pending, ", "), false)
		return
	}
	m.setNotice("Settings updated", false)
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m Model) busy() bool {
	return m.auth.Phase() == panels.PhaseSubmitting ||
		m.dashboard.Loading() ||
		m.suggestions.Loading() || m.suggestions.Generating() || m.suggestions.Publishing() != "" ||
		m.analysis.Analyzing() ||
		m.trending.Loading() ||
		m.accountBusy > 0 ||
		!m.ready
}

func (m *Model) clampCursor() {
	n := m.listLen()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) listLen() int {
	switch m.page {
	case router.Suggestions:
		return len(m.suggestions.Visible())
	case router.Trending:
		return len(m.trending.Posts())
	}
	return 0
}
