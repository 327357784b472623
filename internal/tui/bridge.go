package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/session"
)

const bridgeBuffer = 1024

type stateMsg struct{ state session.State }

type eventMsg struct{ event game.GameEvent }

// Bridge is the session observer for the terminal UI. It queues what the
// session reports without blocking the session goroutine; the model drains
// the queue one message at a time.
type Bridge struct {
	updates chan tea.Msg
	logger  *log.Logger
}

// NewBridge creates an empty bridge
func NewBridge(logger *log.Logger) *Bridge {
	return &Bridge{
		updates: make(chan tea.Msg, bridgeBuffer),
		logger:  logger.WithPrefix("bridge"),
	}
}

// OnEvent implements session.Observer.
func (b *Bridge) OnEvent(event game.GameEvent) {
	b.push(eventMsg{event: event})
}

// StateChanged implements session.Observer.
func (b *Bridge) StateChanged(state session.State) {
	b.push(stateMsg{state: state})
}

func (b *Bridge) push(msg tea.Msg) {
	select {
	case b.updates <- msg:
	default:
		b.logger.Warn("UI is not keeping up, dropping update", "type", fmt.Sprintf("%T", msg))
	}
}

// wait returns a command that delivers the next queued update.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.updates
	}
}
