package game

import (
	"slices"
	"time"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/evaluator"
)

// Payout is the chips a seat took from the pot.
type Payout struct {
	SeatID string `json:"seatId"`
	Amount int    `json:"amount"`
}

// PotResult describes how one main or side pot was awarded.
type PotResult struct {
	Amount   int      `json:"amount"`
	Eligible []string `json:"eligible"`
	Winners  []string `json:"winners"`
}

// Outcome is the result of a finished hand.
type Outcome struct {
	HandID     string      `json:"handId"`
	HandNumber int         `json:"handNumber"`
	Pot        int         `json:"pot"`
	Board      []deck.Card `json:"board"`
	Pots       []PotResult `json:"pots,omitempty"`
	Payouts    []Payout    `json:"payouts"`
	// Hands holds the evaluated hand of every seat that reached showdown.
	Hands    map[string]evaluator.HandResult `json:"hands,omitempty"`
	Showdown bool                            `json:"showdown"`
	Aborted  bool                            `json:"aborted,omitempty"`
}

// Won returns the chips seatID collected.
func (o Outcome) Won(seatID string) int {
	total := 0
	for _, p := range o.Payouts {
		if p.SeatID == seatID {
			total += p.Amount
		}
	}
	return total
}

// Winners lists every seat that collected chips, in payout order.
func (o Outcome) Winners() []string {
	var ids []string
	for _, p := range o.Payouts {
		if p.Amount > 0 && !slices.Contains(ids, p.SeatID) {
			ids = append(ids, p.SeatID)
		}
	}
	return ids
}

// finish pays out the pot and completes the hand. Without a showdown the
// single remaining seat takes everything.
func (h *Hand) finish(showdown bool) {
	out := &Outcome{
		HandID:     h.id,
		HandNumber: h.number,
		Pot:        h.pot,
		Board:      slices.Clone(h.board),
		Showdown:   showdown,
	}

	shares := make(map[int]int)
	if showdown {
		h.phase = Showdown
		out.Hands = make(map[string]evaluator.HandResult)
		results := make(map[int]evaluator.HandResult)
		for i, s := range h.seats {
			if s.InHand() {
				r := h.cache.Evaluate(s.HoleCards, h.board)
				results[i] = r
				out.Hands[s.ID] = r
			}
		}
		for _, pot := range buildPots(h.seats) {
			winners := bestOf(pot.Eligible, results)
			for i, amt := range splitPot(pot.Amount, winners, h.dealer, len(h.seats)) {
				shares[i] += amt
			}
			out.Pots = append(out.Pots, PotResult{
				Amount:   pot.Amount,
				Eligible: h.idsOf(pot.Eligible),
				Winners:  h.idsOf(awardOrder(winners, h.dealer, len(h.seats))),
			})
		}
	} else {
		winner := slices.IndexFunc(h.seats, func(s *Seat) bool { return s.InHand() })
		shares[winner] = h.pot
		out.Pots = []PotResult{{
			Amount:   h.pot,
			Eligible: []string{h.seats[winner].ID},
			Winners:  []string{h.seats[winner].ID},
		}}
	}

	order := make([]int, 0, len(shares))
	for i := range shares {
		order = append(order, i)
	}
	for _, i := range awardOrder(order, h.dealer, len(h.seats)) {
		h.seats[i].Stack += shares[i]
		out.Payouts = append(out.Payouts, Payout{SeatID: h.seats[i].ID, Amount: shares[i]})
	}

	h.pot = 0
	for _, s := range h.seats {
		s.Bet = 0
	}
	h.phase = Complete
	h.acting = -1
	h.seq++
	h.outcome = out

	h.logger.Debug("Hand complete", "pot", out.Pot, "showdown", showdown, "winners", out.Winners())
	h.bus.Publish(HandCompleteEvent{Outcome: *out, timestamp: time.Now()})
}

// bestOf returns the eligible seats holding the strongest hand.
func bestOf(eligible []int, results map[int]evaluator.HandResult) []int {
	var winners []int
	var best evaluator.HandResult
	for _, i := range eligible {
		r := results[i]
		switch {
		case len(winners) == 0:
			winners, best = []int{i}, r
		case evaluator.Compare(r, best) > 0:
			winners, best = []int{i}, r
		case evaluator.Compare(r, best) == 0:
			winners = append(winners, i)
		}
	}
	return winners
}

func (h *Hand) idsOf(idx []int) []string {
	ids := make([]string, len(idx))
	for n, i := range idx {
		ids[n] = h.seats[i].ID
	}
	return ids
}
