package session

import (
	"time"

	"github.com/lox/holdem/internal/bot"
	"github.com/lox/holdem/internal/game"
)

// EventTypeSessionEnded is the type of SessionEndedEvent.
const EventTypeSessionEnded game.EventType = "session_ended"

// Standing is a seat's final position when a session ends.
type Standing struct {
	SeatID string `json:"seatId"`
	Name   string `json:"name"`
	Stack  int    `json:"stack"`
	IsBot  bool   `json:"isBot"`
}

// SessionEndedEvent is delivered once, after the last hand.
type SessionEndedEvent struct {
	Room        string     `json:"room"`
	Reason      string     `json:"reason"`
	HandsPlayed int        `json:"handsPlayed"`
	Standings   []Standing `json:"standings"`
	At          time.Time  `json:"at"`
}

func (e SessionEndedEvent) EventType() game.EventType { return EventTypeSessionEnded }
func (e SessionEndedEvent) Timestamp() time.Time      { return e.At }

// Winner returns the chip leader, if anyone has chips.
func (e SessionEndedEvent) Winner() (Standing, bool) {
	var best Standing
	for _, s := range e.Standings {
		if s.Stack > best.Stack {
			best = s
		}
	}
	return best, best.Stack > 0
}

// State is a snapshot of a room taken after every change. It is immutable
// once delivered.
type State struct {
	Room        string
	Seats       []game.SeatView // current seating, including seats waiting for the next hand
	Hand        *game.PublicView
	Private     map[string]game.PrivateView // by seat ID, for every seat dealt in
	Stats       map[string]bot.Stats
	HandsPlayed int
	Humans      int
	Ended       bool
	Activity    time.Time // last human join, leave or action
}

// PrivateView returns the view for seatID of the hand in the snapshot.
func (s State) PrivateView(seatID string) (game.PrivateView, bool) {
	v, ok := s.Private[seatID]
	return v, ok
}

// Observer receives everything a session does. Both methods are called on the
// session goroutine and must not block or call back into the session.
type Observer interface {
	// OnEvent receives every game event, in order, and finally a
	// SessionEndedEvent.
	OnEvent(event game.GameEvent)
	// StateChanged receives a fresh snapshot after every applied change.
	StateChanged(state State)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnEvent(game.GameEvent) {}
func (NopObserver) StateChanged(State)     {}
