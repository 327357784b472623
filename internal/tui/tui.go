package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/session"
)

const requestTimeout = 5 * time.Second

// Controller is the part of a session the player drives.
type Controller interface {
	Submit(ctx context.Context, handID, seatID string, a game.Action) error
	Start(ctx context.Context) error
	AddBots(ctx context.Context, n int) ([]string, error)
}

type actionResultMsg struct {
	action game.Action
	err    error
}

type startResultMsg struct{ err error }

type botsAddedMsg struct {
	ids []string
	err error
}

// Model is the Bubble Tea model for an offline game. It renders what the
// session reports and turns typed commands into session calls.
type Model struct {
	ctrl      Controller
	bridge    *Bridge
	seatID    string
	logger    *log.Logger
	formatter *game.Formatter

	logViewport viewport.Model
	actionInput textinput.Model
	focusedPane int // 0 = log, 1 = input

	gameLog []string
	names   map[string]string
	state   session.State
	status  string
	ended   *session.SessionEndedEvent

	width       int
	height      int
	initialized bool
	quitting    bool
}

// New creates the model for the human in seatID.
func New(ctrl Controller, bridge *Bridge, seatID string, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "fold, check, call, raise 60, allin"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	ti.TextStyle = lipgloss.NewStyle()
	ti.Prompt = "> "

	m := &Model{
		ctrl:        ctrl,
		bridge:      bridge,
		seatID:      seatID,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
		names:       make(map[string]string),
	}
	m.formatter = game.NewFormatter(game.FormatOptions{ShowHands: true, Perspective: seatID, Pretty: true}, m.name)
	return m
}

func (m *Model) name(seatID string) string {
	if n, ok := m.names[seatID]; ok {
		return n
	}
	return seatID
}

// Init starts listening to the session
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.bridge.wait())
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case stateMsg:
		m.applyState(msg.state)
		return m, m.bridge.wait()

	case eventMsg:
		m.applyEvent(msg.event)
		return m, m.bridge.wait()

	case actionResultMsg:
		switch reason := game.ReasonOf(msg.err); {
		case msg.err == nil:
			m.status = ""
		case reason != "":
			m.status = fmt.Sprintf("%s rejected: %s", msg.action, reason)
		default:
			m.status = msg.err.Error()
		}
		return m, nil

	case startResultMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case botsAddedMsg:
		switch {
		case msg.err != nil && len(msg.ids) == 0:
			m.status = msg.err.Error()
		default:
			m.status = fmt.Sprintf("%d bot(s) joined", len(msg.ids))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				if cmd := m.handleInput(input); cmd != nil {
					return m, cmd
				}
			}
		case "pgup":
			m.logViewport.HalfPageUp()
		case "pgdown":
			m.logViewport.HalfPageDown()
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) handleInput(input string) tea.Cmd {
	if m.ended != nil {
		m.quitting = true
		return tea.Quit
	}
	command, err := ParseCommand(input)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.logger.Debug("Command", "input", input, "kind", command.Kind)
	m.status = ""

	switch command.Kind {
	case CommandQuit:
		m.quitting = true
		return tea.Quit
	case CommandHelp:
		m.addLog(InfoStyle.Render(helpText))
		return nil
	case CommandStart:
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return startResultMsg{err: m.ctrl.Start(ctx)}
		}
	case CommandBots:
		n := command.Count
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			ids, err := m.ctrl.AddBots(ctx, n)
			return botsAddedMsg{ids: ids, err: err}
		}
	}

	if m.state.Hand == nil {
		m.status = "No hand in progress, type 'start' to deal"
		return nil
	}
	handID, action := m.state.Hand.HandID, command.Action
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return actionResultMsg{action: action, err: m.ctrl.Submit(ctx, handID, m.seatID, action)}
	}
}

func (m *Model) applyState(st session.State) {
	m.state = st
	for _, s := range st.Seats {
		m.names[s.ID] = s.Name
	}
	if st.Hand != nil {
		for _, s := range st.Hand.Seats {
			m.names[s.ID] = s.Name
		}
	}
}

func (m *Model) applyEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.HandStartEvent:
		if len(m.gameLog) > 0 {
			m.addLog("")
		}
		m.addLog(HeaderStyle.Render(m.formatter.Format(e)))
		return
	case session.SessionEndedEvent:
		m.ended = &e
		m.addLog("")
		m.addLog(HeaderStyle.Render(fmt.Sprintf("Game over after %d hands (%s)", e.HandsPlayed, e.Reason)))
		for i, s := range e.Standings {
			m.addLog(fmt.Sprintf("%d. %s $%d", i+1, m.formatter.Name(s.SeatID), s.Stack))
		}
		m.addLog(InfoStyle.Render("Press Enter to exit"))
		return
	}
	if line := m.formatter.Format(event); line != "" {
		for _, l := range strings.Split(line, "\n") {
			m.addLog(l)
		}
	}
}

func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the lines written to the game log.
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

// Status returns the message shown above the input.
func (m *Model) Status() string { return m.status }

// MyTurn reports whether the session is waiting for this player.
func (m *Model) MyTurn() bool {
	return m.state.Hand != nil && m.state.Hand.Acting == m.seatID
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := paneStyle.
		BorderForeground(accent).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebar()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 28)
	paneHeight := max(m.height-actionHeight-4, 1)
	sidebarPane := paneStyle.
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}
	logStyle := paneStyle.
		Width(logWidth).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(accent)
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) renderSidebar() string {
	var b strings.Builder
	if h := m.state.Hand; h != nil {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Pot: $%d", h.Pot)))
		if h.CurrentBet > 0 {
			b.WriteString(" | ")
			b.WriteString(WarningStyle.Render(fmt.Sprintf("Bet: $%d", h.CurrentBet)))
		}
		b.WriteString("\n")
		if len(h.Board) > 0 {
			b.WriteString("Board: " + formatCards(h.Board) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(InfoStyle.Render(fmt.Sprintf("Hands played: %d", m.state.HandsPlayed)))
	b.WriteString("\n")
	for _, s := range m.seats() {
		marker := "  "
		switch {
		case s.IsActing:
			marker = "▶ "
		case s.IsDealer:
			marker = "D "
		}
		line := fmt.Sprintf("%s%s: $%d", marker, m.formatter.Name(s.ID), s.Stack)
		if s.Bet > 0 {
			line += fmt.Sprintf(" (bet $%d)", s.Bet)
		}
		switch {
		case s.Status == game.Folded || s.Status == game.SittingOut:
			line = InfoStyle.Render(line)
		case s.Status == game.StatusAllIn:
			line += " all-in"
		case s.ID == m.seatID:
			line = PlayerInfoStyle.Render(line)
		}
		b.WriteString(line + "\n")
		if stats, ok := m.state.Stats[s.ID]; ok && s.IsBot && stats.HandsPlayed > 0 {
			b.WriteString(InfoStyle.Render(fmt.Sprintf("    VPIP %.0f%% PFR %.0f%%", stats.VPIP*100, stats.PFR*100)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// seats prefers the running hand's view, which carries bets and markers.
func (m *Model) seats() []game.SeatView {
	if m.state.Hand != nil && m.state.Hand.Outcome == nil {
		return m.state.Hand.Seats
	}
	return m.state.Seats
}

func (m *Model) renderActionPane() string {
	var b strings.Builder

	if v, ok := m.state.PrivateView(m.seatID); ok && len(v.HoleCards) > 0 {
		b.WriteString(HandInfoStyle.Render("Hand: " + formatCards(v.HoleCards)))
		if m.MyTurn() {
			b.WriteString("\n")
			b.WriteString(renderValidActions(v))
		}
		b.WriteString("\n")
	} else if m.ended == nil {
		b.WriteString(HandInfoStyle.Render("Waiting for the next hand..."))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(ErrorStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.actionInput.View())
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • 'help' for commands • Ctrl+C to quit"))
	return b.String()
}

func renderValidActions(v game.PrivateView) string {
	var actions []string
	for _, va := range v.ValidActions {
		switch va.Type {
		case game.Fold:
			actions = append(actions, ErrorStyle.Render("[fold]"))
		case game.Check:
			actions = append(actions, SuccessStyle.Render("[check]"))
		case game.Call:
			actions = append(actions, SuccessStyle.Render(fmt.Sprintf("[call $%d]", va.Min)))
		case game.Raise:
			actions = append(actions, WarningStyle.Render(fmt.Sprintf("[raise %d-%d]", va.Min, va.Max)))
		case game.AllIn:
			actions = append(actions, WarningStyle.Render(fmt.Sprintf("[allin $%d]", va.Min)))
		}
	}
	if len(actions) == 0 {
		return ErrorStyle.Render("[no actions available]")
	}
	return ActionsStyle.Render("Actions: " + strings.Join(actions, " "))
}

func formatCards(cards []deck.Card) string {
	formatted := make([]string, len(cards))
	for i, c := range cards {
		if c.Suit.IsRed() {
			formatted[i] = RedCardStyle.Render(c.Pretty())
		} else {
			formatted[i] = BlackCardStyle.Render(c.Pretty())
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

// Run drives the model until the player quits or ctx is cancelled.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
