package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"relay/internal/logging"
	"relay/internal/store"
	"relay/internal/types"
)

const (
	sidebarWidth     = 28
	minViewportWidth = 20
	minContentHeight = 6
	defaultPageSize  = 50
	changeBufferSize = 256
)

type Model struct {
	api      SessionAPI
	st       *store.Store
	repo     store.Repository
	logger   logging.Logger
	inbox    *PromptInbox
	sidebar  *SidebarController
	viewport viewport.Model
	input    textinput.Model

	scheduler   RenderScheduler
	changes     chan store.Change
	unsubscribe func()

	pendingPermission *types.PermissionEvent
	pendingQuestion   *types.QuestionEvent

	appState  types.AppState
	older     []*types.Message
	pageSize  int
	width     int
	height    int
	status    string
	follow    bool
	quitArmed bool
}

type Options struct {
	API      SessionAPI
	Store    *store.Store
	Repo     store.Repository
	Logger   logging.Logger
	Inbox    *PromptInbox
	AppState types.AppState
	PageSize int
}

type ModelOption func(*Model)

func WithRenderScheduler(scheduler RenderScheduler) ModelOption {
	return func(m *Model) {
		if m == nil || scheduler == nil {
			return
		}
		m.scheduler = scheduler
	}
}

func NewModel(opts Options, modelOpts ...ModelOption) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	vp := viewport.New(viewport.WithWidth(minViewportWidth), viewport.WithHeight(minContentHeight))
	input := textinput.New()
	input.Placeholder = "Message the agent"
	input.Focus()

	m := &Model{
		api:       opts.API,
		st:        opts.Store,
		repo:      opts.Repo,
		logger:    logger,
		inbox:     opts.Inbox,
		sidebar:   NewSidebarController(),
		viewport:  vp,
		input:     input,
		scheduler: NewDefaultRenderScheduler(),
		changes:   make(chan store.Change, changeBufferSize),
		appState:  opts.AppState,
		pageSize:  pageSize,
		follow:    true,
	}
	m.sidebar.SetCollapsed(opts.AppState.SidebarCollapsed)
	if m.st != nil {
		m.unsubscribe = m.st.Subscribe(func(c store.Change) {
			select {
			case m.changes <- c:
			default:
			}
		})
		if opts.AppState.CurrentSessionID != "" {
			m.st.SetCurrent(opts.AppState.CurrentSessionID)
		}
	}
	for _, opt := range modelOpts {
		opt(m)
	}
	return m
}

func Run(opts Options) error {
	model := NewModel(opts)
	p := tea.NewProgram(model)
	_, err := p.Run()
	if model.unsubscribe != nil {
		model.unsubscribe()
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(fetchSessionsCmd(m.api, m.repo), tickCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.renderCurrent()
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.handleTick(), tickCmd())
	case sessionsMsg:
		if msg.err != nil {
			m.status = "sessions error: " + msg.err.Error()
			return m, nil
		}
		m.sidebar.SetSessions(msg.sessions, msg.meta)
		for _, s := range msg.sessions {
			m.st.ApplySessionUpdated(*s)
		}
		if m.currentSession() == "" && m.sidebar.Len() > 0 {
			return m, m.selectSession(m.sidebar.SelectedID())
		}
		m.sidebar.Select(m.currentSession())
		return m, nil
	case sessionCreatedMsg:
		if msg.err != nil {
			m.status = "create session error: " + msg.err.Error()
			return m, nil
		}
		if msg.session == nil {
			return m, nil
		}
		m.st.ApplySessionUpdated(*msg.session)
		return m, tea.Batch(m.selectSession(msg.session.ID), fetchSessionsCmd(m.api, m.repo))
	case sendResultMsg:
		if msg.err != nil {
			m.status = "send error: " + msg.err.Error()
		} else {
			m.status = "sent"
		}
		return m, nil
	case olderMessagesMsg:
		if msg.err != nil {
			m.status = "history error: " + msg.err.Error()
			return m, nil
		}
		if msg.sessionID != m.currentSession() || len(msg.messages) == 0 {
			if len(msg.messages) == 0 {
				m.status = "no older messages"
			}
			return m, nil
		}
		m.older = append(append([]*types.Message{}, msg.messages...), m.older...)
		m.st.MarkOlderLoaded(msg.sessionID, len(msg.messages))
		m.follow = false
		m.renderCurrent()
		m.status = fmt.Sprintf("loaded %d older messages", len(msg.messages))
		return m, nil
	case appStateSavedMsg:
		if msg.err != nil {
			m.logger.Warn("app state save failed", logging.F("err", msg.err))
		}
		return m, nil
	case promptRepliedMsg:
		if msg.err != nil {
			m.status = "reply error: " + msg.err.Error()
		}
		return m, nil
	case interruptResultMsg:
		if msg.err != nil {
			m.status = "interrupt error: " + msg.err.Error()
		} else {
			m.status = "interrupt requested"
		}
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleTick drains the change and prompt inboxes and re-renders at most
// once per scheduler interval.
func (m *Model) handleTick() tea.Cmd {
	now := time.Now()
	current := m.currentSession()
	needsRender := false

drain:
	for {
		select {
		case change := <-m.changes:
			if change.SessionID != current {
				continue
			}
			switch change.Reason {
			case store.ChangeStatus, store.ChangeMeta:
				needsRender = true
			default:
				if m.scheduler.Request(now) {
					needsRender = true
				}
			}
		default:
			break drain
		}
	}
	if m.inbox != nil {
		for _, msg := range m.inbox.drain() {
			switch msg := msg.(type) {
			case permissionPromptMsg:
				evt := msg.evt
				m.pendingPermission = &evt
				needsRender = true
			case questionPromptMsg:
				evt := msg.evt
				m.pendingQuestion = &evt
				needsRender = true
			case promptClearedMsg:
				if m.pendingPermission != nil && m.pendingPermission.RequestID == msg.requestID {
					m.pendingPermission = nil
					needsRender = true
				}
				if m.pendingQuestion != nil && m.pendingQuestion.RequestID == msg.requestID {
					m.pendingQuestion = nil
					needsRender = true
				}
			}
		}
	}
	if m.scheduler.ShouldRender(now) {
		needsRender = true
	}
	if needsRender {
		m.renderCurrent()
		m.scheduler.MarkRendered(now)
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "ctrl+c" {
		m.quitArmed = false
	}

	if m.pendingPermission != nil {
		switch key {
		case "y":
			evt := m.pendingPermission
			return m, respondPermissionCmd(m.api, evt.SessionID, evt.RequestID, "allow")
		case "n":
			evt := m.pendingPermission
			return m, respondPermissionCmd(m.api, evt.SessionID, evt.RequestID, "deny")
		}
	}
	if m.pendingQuestion != nil {
		if key == "esc" {
			evt := m.pendingQuestion
			return m, rejectQuestionCmd(m.api, evt.SessionID, evt.RequestID)
		}
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.pendingQuestion.Options) {
			evt := m.pendingQuestion
			return m, answerQuestionCmd(m.api, evt.SessionID, evt.RequestID, evt.Options[n-1])
		}
	}

	switch key {
	case "ctrl+c":
		if m.quitArmed {
			return m, tea.Quit
		}
		m.quitArmed = true
		m.status = "press ctrl+c again to quit"
		return m, nil
	case "ctrl+b":
		m.sidebar.ToggleCollapsed()
		m.appState.SidebarCollapsed = m.sidebar.Collapsed()
		m.resize(m.width, m.height)
		m.renderCurrent()
		return m, saveAppStateCmd(m.repo, m.appState)
	case "ctrl+p":
		m.sidebar.Move(-1)
		return m, m.selectSession(m.sidebar.SelectedID())
	case "ctrl+n":
		m.sidebar.Move(1)
		return m, m.selectSession(m.sidebar.SelectedID())
	case "ctrl+t":
		return m, createSessionCmd(m.api, "")
	case "ctrl+o":
		return m, m.loadOlder()
	case "ctrl+z":
		m.revertLastExchange()
		return m, nil
	case "ctrl+y":
		if err := m.st.Redo(m.currentSession()); err != nil {
			m.status = "redo: " + err.Error()
		} else {
			m.status = "restored"
			m.follow = true
		}
		return m, nil
	case "ctrl+x":
		if id := m.currentSession(); id != "" {
			return m, interruptCmd(m.api, id)
		}
		return m, nil
	case "ctrl+l":
		m.copyLastAgentMessage()
		return m, nil
	case "enter":
		return m, m.submitInput()
	case "pgup", "pgdown", "up", "down":
		m.follow = false
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		if m.viewport.AtBottom() {
			m.follow = true
		}
		return m, cmd
	case "end":
		m.follow = true
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) currentSession() string {
	if m.st == nil {
		return ""
	}
	return m.st.Current()
}

func (m *Model) selectSession(sessionID string) tea.Cmd {
	if sessionID == "" || m.st == nil {
		return nil
	}
	m.st.SetCurrent(sessionID)
	m.sidebar.Select(sessionID)
	m.older = nil
	m.follow = true
	m.pendingPermission = nil
	m.pendingQuestion = nil
	m.appState.CurrentSessionID = sessionID
	m.renderCurrent()
	snap, _ := m.st.Get(sessionID)
	return tea.Batch(
		saveAppStateCmd(m.repo, m.appState),
		touchSessionMetaCmd(m.repo, sessionID, snap.Title),
	)
}

func (m *Model) submitInput() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	sessionID := m.currentSession()
	if sessionID == "" {
		m.status = "no session selected"
		return nil
	}
	m.input.SetValue("")
	m.follow = true
	return sendMessageCmd(m.api, sessionID, text)
}

func (m *Model) loadOlder() tea.Cmd {
	sessionID := m.currentSession()
	if sessionID == "" {
		return nil
	}
	snap, ok := m.st.Get(sessionID)
	if !ok {
		return nil
	}
	before := ""
	if len(m.older) > 0 {
		before = m.older[0].ID
	} else if len(snap.Messages) > 0 {
		before = snap.Messages[0].ID
	}
	if before == "" {
		m.status = "no older messages"
		return nil
	}
	return loadOlderCmd(m.api, sessionID, before, m.pageSize)
}

// revertLastExchange hides the most recent user message and everything the
// agent produced after it.
func (m *Model) revertLastExchange() {
	sessionID := m.currentSession()
	if sessionID == "" {
		return
	}
	snap, ok := m.st.Get(sessionID)
	if !ok || len(snap.Messages) == 0 {
		return
	}
	// Revert to the message just before the last user message, so the user
	// message and the agent's response are hidden together.
	target := -1
	for i := len(snap.Messages) - 1; i >= 0; i-- {
		if snap.Messages[i].Role == types.MessageRoleUser {
			target = i - 1
			break
		}
	}
	if target < 0 {
		m.status = "nothing to revert"
		return
	}
	if err := m.st.Revert(sessionID, target); err != nil {
		m.status = "revert: " + err.Error()
		return
	}
	m.status = "reverted, ctrl+y to restore"
	m.follow = true
}

func (m *Model) copyLastAgentMessage() {
	sessionID := m.currentSession()
	if sessionID == "" {
		return
	}
	snap, ok := m.st.Get(sessionID)
	if !ok {
		return
	}
	for i := len(snap.Messages) - 1; i >= 0; i-- {
		msg := snap.Messages[i]
		if msg.Role != types.MessageRoleAssistant {
			continue
		}
		text := plainMessageText(msg)
		if text == "" {
			m.status = "nothing to copy"
			return
		}
		if _, err := copyTextToClipboard(text); err != nil {
			m.status = "copy failed: " + err.Error()
			return
		}
		m.status = "copied"
		return
	}
	m.status = "nothing to copy"
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	contentWidth := width
	if !m.sidebar.Collapsed() {
		contentWidth -= sidebarWidth + 1
	}
	if contentWidth < minViewportWidth {
		contentWidth = minViewportWidth
	}
	contentHeight := height - 4
	if contentHeight < 1 {
		contentHeight = 1
	}
	m.viewport.SetWidth(contentWidth)
	m.viewport.SetHeight(contentHeight)
	m.input.SetWidth(contentWidth)
}

func (m *Model) renderCurrent() {
	sessionID := m.currentSession()
	if sessionID == "" {
		m.viewport.SetContent(helpStyle.Render("No session. ctrl+t creates one."))
		return
	}
	snap, ok := m.st.Get(sessionID)
	if !ok {
		snap = m.st.GetOrCreate(sessionID)
	}
	width := m.viewport.Width()
	var sections []string
	if len(m.older) > 0 {
		var olderBlocks []string
		for _, msg := range m.older {
			olderBlocks = append(olderBlocks, renderMessage(msg, width))
		}
		sections = append(sections,
			strings.Join(olderBlocks, "\n\n"),
			dividerStyle.Render(strings.Repeat("─", max(1, width))))
	}
	sections = append(sections, renderTranscript(snap, width))
	m.viewport.SetContent(strings.Join(sections, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) View() tea.View {
	view := tea.NewView(m.viewContent())
	view.AltScreen = true
	return view
}

func (m *Model) viewContent() string {
	main := m.renderMain()
	if m.sidebar.Collapsed() {
		return main
	}
	statuses := map[string]types.SessionStatus{}
	for _, s := range m.sidebarSessions() {
		if snap, ok := m.st.Get(s); ok {
			statuses[s] = snap.Status
		}
	}
	side := m.sidebar.View(sidebarWidth, max(1, m.height), statuses)
	return lipgloss.JoinHorizontal(lipgloss.Top, side, dividerStyle.Render("│"), main)
}

func (m *Model) sidebarSessions() []string {
	out := make([]string, 0, m.sidebar.Len())
	for _, s := range m.sidebar.sessions {
		out = append(out, s.ID)
	}
	return out
}

func (m *Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if prompt := m.renderPrompt(); prompt != "" {
		b.WriteString(prompt)
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m *Model) headerLine() string {
	sessionID := m.currentSession()
	if sessionID == "" {
		return headerStyle.Render("relay")
	}
	snap, ok := m.st.Get(sessionID)
	title := sessionID
	if ok && snap.Title != "" {
		title = snap.Title
	}
	header := headerStyle.Render(title)
	if !ok {
		return header
	}
	switch snap.Status {
	case types.SessionStatusBusy:
		header += " " + busyStyle.Render("working")
	case types.SessionStatusError:
		detail := "error"
		if snap.Err != nil {
			detail = snap.Err.Message
		}
		header += " " + errorStyle.Render(detail)
	}
	return header
}

func (m *Model) renderPrompt() string {
	if m.pendingPermission != nil {
		lines := []string{
			"Permission: " + m.pendingPermission.Title,
			helpStyle.Render("y approve · n deny"),
		}
		return promptFrameStyle.Render(strings.Join(lines, "\n"))
	}
	if m.pendingQuestion != nil {
		lines := []string{"Question: " + m.pendingQuestion.Prompt}
		for i, opt := range m.pendingQuestion.Options {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, opt))
		}
		lines = append(lines, helpStyle.Render("number answers · esc rejects"))
		return promptFrameStyle.Render(strings.Join(lines, "\n"))
	}
	return ""
}

func (m *Model) statusLine() string {
	help := "ctrl+t new · ctrl+p/n switch · ctrl+z revert · ctrl+y redo · ctrl+o older · ctrl+x stop · ctrl+c quit"
	if m.status != "" {
		return statusStyle.Render(m.status) + "  " + helpStyle.Render(help)
	}
	return helpStyle.Render(help)
}
