package game

import (
	"slices"

	"github.com/lox/holdem/internal/deck"
)

// SeatView is the public picture of a seat.
type SeatView struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	IsBot        bool        `json:"isBot"`
	Stack        int         `json:"stack"`
	Bet          int         `json:"bet"`
	TotalBet     int         `json:"totalBet"`
	Status       SeatStatus  `json:"status"`
	IsDealer     bool        `json:"isDealer,omitempty"`
	IsSmallBlind bool        `json:"isSmallBlind,omitempty"`
	IsBigBlind   bool        `json:"isBigBlind,omitempty"`
	IsActing     bool        `json:"isActing,omitempty"`
	LastAction   *Action     `json:"lastAction,omitempty"`
	HoleCards    []deck.Card `json:"holeCards,omitempty"` // only once shown down
}

// PublicView is what every observer may see.
type PublicView struct {
	HandID     string      `json:"handId"`
	HandNumber int         `json:"handNumber"`
	Phase      Phase       `json:"phase"`
	Board      []deck.Card `json:"board"`
	Pot        int         `json:"pot"`
	CurrentBet int         `json:"currentBet"`
	MinRaise   int         `json:"minRaise"`
	Acting     string      `json:"acting,omitempty"`
	Seats      []SeatView  `json:"seats"`
	Outcome    *Outcome    `json:"outcome,omitempty"`
}

// PrivateView adds what only one seat may see.
type PrivateView struct {
	PublicView
	SeatID       string        `json:"seatId"`
	Seat         int           `json:"seat"`
	HoleCards    []deck.Card   `json:"holeCards"`
	ValidActions []ValidAction `json:"validActions,omitempty"`
	CallAmount   int           `json:"callAmount"`
	BigBlind     int           `json:"bigBlind"`
	BetIncrement int           `json:"betIncrement"`
}

// PublicView returns the hand with every hidden card masked. Hole cards of
// seats that reached a showdown are revealed.
func (h *Hand) PublicView() PublicView {
	v := PublicView{
		HandID:     h.id,
		HandNumber: h.number,
		Phase:      h.phase,
		Board:      slices.Clone(h.board),
		Pot:        h.pot,
		CurrentBet: h.currentBet,
		MinRaise:   h.minRaise,
		Acting:     h.ActingSeat(),
		Seats:      make([]SeatView, len(h.seats)),
	}
	showdown := h.outcome != nil && h.outcome.Showdown
	for i, s := range h.seats {
		sv := SeatView{
			ID:           s.ID,
			Name:         s.Name,
			IsBot:        s.IsBot,
			Stack:        s.Stack,
			Bet:          s.Bet,
			TotalBet:     s.TotalBet,
			Status:       s.Status,
			IsDealer:     s.IsDealer,
			IsSmallBlind: s.IsSmallBlind,
			IsBigBlind:   s.IsBigBlind,
			IsActing:     i == h.acting && h.phase != Complete,
			LastAction:   s.LastAction,
		}
		if showdown && s.InHand() {
			sv.HoleCards = slices.Clone(s.HoleCards)
		}
		v.Seats[i] = sv
	}
	if h.outcome != nil {
		out := *h.outcome
		v.Outcome = &out
	}
	return v
}

// PrivateView returns the public view plus seatID's own cards and options.
func (h *Hand) PrivateView(seatID string) (PrivateView, bool) {
	i := h.seatIndex(seatID)
	if i < 0 {
		return PrivateView{}, false
	}
	s := h.seats[i]
	return PrivateView{
		PublicView:   h.PublicView(),
		SeatID:       s.ID,
		Seat:         i,
		HoleCards:    slices.Clone(s.HoleCards),
		ValidActions: h.ValidActions(seatID),
		CallAmount:   h.CallAmount(seatID),
		BigBlind:     h.cfg.BigBlind,
		BetIncrement: h.cfg.BetIncrement,
	}, true
}

// Opponents returns the public views of every other seat still in the hand.
func (v PrivateView) Opponents() []SeatView {
	var out []SeatView
	for _, s := range v.Seats {
		if s.ID != v.SeatID && (s.Status == Active || s.Status == StatusAllIn) {
			out = append(out, s)
		}
	}
	return out
}

// Self returns the viewer's own seat.
func (v PrivateView) Self() SeatView {
	return v.Seats[v.Seat]
}
