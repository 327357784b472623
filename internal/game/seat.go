package game

import (
	"fmt"

	"github.com/lox/holdem/internal/deck"
)

// SeatStatus is a seat's state within the current hand.
type SeatStatus int

const (
	Active SeatStatus = iota
	Folded
	StatusAllIn
	SittingOut
)

func (s SeatStatus) String() string {
	switch s {
	case Active:
		return "active"
	case Folded:
		return "folded"
	case StatusAllIn:
		return "all_in"
	case SittingOut:
		return "sitting_out"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s SeatStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a name produced by MarshalText.
func (s *SeatStatus) UnmarshalText(text []byte) error {
	for _, st := range []SeatStatus{Active, Folded, StatusAllIn, SittingOut} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown seat status %q", text)
}

// Seat is one participant slot. It persists across hands; the per-hand fields
// are reset when a hand starts.
type Seat struct {
	ID    string
	Name  string
	IsBot bool

	Stack     int
	HoleCards []deck.Card
	Bet       int // chips put in during the current betting round
	TotalBet  int // chips put in during the whole hand
	Status    SeatStatus
	HasActed  bool

	IsDealer     bool
	IsSmallBlind bool
	IsBigBlind   bool

	// Eliminated seats have busted and are skipped by every future hand.
	Eliminated bool
	LastAction *Action
}

// NewSeat creates a seat with a stack.
func NewSeat(id, name string, stack int, isBot bool) *Seat {
	return &Seat{
		ID:     id,
		Name:   name,
		IsBot:  isBot,
		Stack:  stack,
		Status: SittingOut,
	}
}

// Eligible reports whether the seat can be dealt into the next hand.
func (s *Seat) Eligible() bool {
	return !s.Eliminated && s.Stack > 0
}

// InHand reports whether the seat still contests the pot.
func (s *Seat) InHand() bool {
	return s.Status == Active || s.Status == StatusAllIn
}

func (s *Seat) resetForHand(eligible bool) {
	s.HoleCards = nil
	s.Bet = 0
	s.TotalBet = 0
	s.HasActed = false
	s.IsDealer, s.IsSmallBlind, s.IsBigBlind = false, false, false
	s.LastAction = nil
	if eligible {
		s.Status = Active
	} else {
		s.Status = SittingOut
	}
}

// commit moves up to amount chips from the stack into the current bet and
// returns the chips actually moved. An emptied stack puts the seat all-in.
func (s *Seat) commit(amount int) int {
	if amount > s.Stack {
		amount = s.Stack
	}
	if amount < 0 {
		panic(fmt.Sprintf("game: negative commit %d for seat %s", amount, s.ID))
	}
	s.Stack -= amount
	s.Bet += amount
	s.TotalBet += amount
	if s.Stack == 0 && s.Status == Active {
		s.Status = StatusAllIn
	}
	return amount
}

func (s *Seat) String() string {
	return fmt.Sprintf("%s(%d)", s.Name, s.Stack)
}
