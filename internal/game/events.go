package game

import (
	"time"

	"github.com/lox/holdem/internal/deck"
)

// EventType names a game event.
type EventType string

const (
	EventTypeHandStart      EventType = "hand_start"
	EventTypeBlindsPosted   EventType = "blinds_posted"
	EventTypeAction         EventType = "action"
	EventTypePhaseChanged   EventType = "phase_changed"
	EventTypeHandComplete   EventType = "hand_complete"
	EventTypeHandAborted    EventType = "hand_aborted"
	EventTypeSeatEliminated EventType = "seat_eliminated"
)

func (et EventType) String() string {
	return string(et)
}

// GameEvent is anything published on an EventBus.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// HandStartEvent is published once the blinds are posted and cards dealt.
type HandStartEvent struct {
	HandID     string
	HandNumber int
	Dealer     string
	SmallBlind string
	BigBlind   string
	Seats      []string
	timestamp  time.Time
}

func (e HandStartEvent) EventType() EventType { return EventTypeHandStart }
func (e HandStartEvent) Timestamp() time.Time { return e.timestamp }

// BlindsPostedEvent reports the forced bets.
type BlindsPostedEvent struct {
	HandID      string
	SmallBlind  string
	SmallAmount int
	BigBlind    string
	BigAmount   int
	timestamp   time.Time
}

func (e BlindsPostedEvent) EventType() EventType { return EventTypeBlindsPosted }
func (e BlindsPostedEvent) Timestamp() time.Time { return e.timestamp }

// ActionEvent is published after an action has been applied.
type ActionEvent struct {
	HandID    string
	Record    ActionRecord
	timestamp time.Time
}

func (e ActionEvent) EventType() EventType { return EventTypeAction }
func (e ActionEvent) Timestamp() time.Time { return e.timestamp }

// PhaseChangedEvent is published when the hand moves to a new phase.
type PhaseChangedEvent struct {
	HandID    string
	Phase     Phase
	Board     []deck.Card
	Pot       int
	timestamp time.Time
}

func (e PhaseChangedEvent) EventType() EventType { return EventTypePhaseChanged }
func (e PhaseChangedEvent) Timestamp() time.Time { return e.timestamp }

// HandCompleteEvent carries the payouts of a finished hand.
type HandCompleteEvent struct {
	Outcome   Outcome
	timestamp time.Time
}

func (e HandCompleteEvent) EventType() EventType { return EventTypeHandComplete }
func (e HandCompleteEvent) Timestamp() time.Time { return e.timestamp }

// HandAbortedEvent reports a hand cancelled by a fatal error; all stacks were
// restored to their values before the hand.
type HandAbortedEvent struct {
	HandID    string
	Reason    string
	timestamp time.Time
}

func (e HandAbortedEvent) EventType() EventType { return EventTypeHandAborted }
func (e HandAbortedEvent) Timestamp() time.Time { return e.timestamp }

// SeatEliminatedEvent is published when a seat busts.
type SeatEliminatedEvent struct {
	SeatID    string
	Name      string
	HandID    string
	timestamp time.Time
}

func (e SeatEliminatedEvent) EventType() EventType { return EventTypeSeatEliminated }
func (e SeatEliminatedEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber receives published events.
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus fans events out to subscribers.
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus delivers synchronously, in subscription order, on the
// publishing goroutine.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates an empty bus.
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes subscriber. Subscribers must be comparable.
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			return
		}
	}
}

func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}

type nopBus struct{}

func (nopBus) Subscribe(EventSubscriber)   {}
func (nopBus) Unsubscribe(EventSubscriber) {}
func (nopBus) Publish(GameEvent)           {}
