package bot

import (
	"maps"
	"slices"

	"github.com/lox/holdem/internal/game"
)

// Stats summarise a seat's play over a session.
type Stats struct {
	HandsPlayed   int     `json:"handsPlayed"`
	HandsWon      int     `json:"handsWon"`
	TotalWinnings int     `json:"totalWinnings"`
	BiggestWin    int     `json:"biggestWin"`
	VPIP          float64 `json:"vpip"` // share of hands with chips put in voluntarily pre-flop
	PFR           float64 `json:"pfr"`  // share of hands raised pre-flop
}

type seatStats struct {
	Stats
	vpipHands int
	pfrHands  int
}

// StatsTracker derives Stats for every seat from the event stream.
type StatsTracker struct {
	seats map[string]*seatStats
	vpip  map[string]bool // seats that put chips in voluntarily this hand
	pfr   map[string]bool
}

// NewStatsTracker creates an empty tracker.
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{
		seats: make(map[string]*seatStats),
		vpip:  make(map[string]bool),
		pfr:   make(map[string]bool),
	}
}

func (t *StatsTracker) seat(id string) *seatStats {
	s, ok := t.seats[id]
	if !ok {
		s = &seatStats{}
		t.seats[id] = s
	}
	return s
}

// OnEvent updates the counters.
func (t *StatsTracker) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.HandStartEvent:
		clear(t.vpip)
		clear(t.pfr)
		for _, id := range e.Seats {
			t.seat(id).HandsPlayed++
		}
	case game.ActionEvent:
		r := e.Record
		if r.Phase != game.PreFlop {
			return
		}
		s := t.seat(r.SeatID)
		switch r.Action.Type {
		case game.Call, game.Raise, game.AllIn:
			if !t.vpip[r.SeatID] {
				t.vpip[r.SeatID] = true
				s.vpipHands++
			}
		}
		switch r.Action.Type {
		case game.Raise, game.AllIn:
			if !t.pfr[r.SeatID] {
				t.pfr[r.SeatID] = true
				s.pfrHands++
			}
		}
	case game.HandCompleteEvent:
		for _, p := range e.Outcome.Payouts {
			if p.Amount <= 0 {
				continue
			}
			s := t.seat(p.SeatID)
			s.HandsWon++
			s.TotalWinnings += p.Amount
			s.BiggestWin = max(s.BiggestWin, p.Amount)
		}
	}
}

// Stats returns the summary for one seat.
func (t *StatsTracker) Stats(seatID string) Stats {
	s, ok := t.seats[seatID]
	if !ok {
		return Stats{}
	}
	out := s.Stats
	if out.HandsPlayed > 0 {
		out.VPIP = float64(s.vpipHands) / float64(out.HandsPlayed)
		out.PFR = float64(s.pfrHands) / float64(out.HandsPlayed)
	}
	return out
}

// Seats lists every seat with recorded stats, sorted by ID.
func (t *StatsTracker) Seats() []string {
	return slices.Sorted(maps.Keys(t.seats))
}
