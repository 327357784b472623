package bot

import (
	"github.com/lox/holdem/internal/evaluator"
	"github.com/lox/holdem/internal/game"
)

// Situation is the snapshot a decision is made from.
type Situation struct {
	Phase    game.Phase
	Strength float64 // 0..1
	Outs     int
	PotOdds  float64
	Position float64 // 0 on the button, k/n for the k-th live seat after it

	// Potential and ImpliedOdds are reported in the decision log only; the
	// weighting rules use Strength and PotOdds.
	Potential   float64 // strength plus a share of the chance to improve
	ImpliedOdds float64

	Pot        int
	CallAmount int
	CurrentBet int
	MinRaiseTo int
	MaxRaiseTo int
	Stack      int
	Bet        int
	StackRatio float64

	ActiveSeats         int
	OpponentAggression  float64
	AggressiveOpponents int

	Result evaluator.HandResult
}

// categoryStrength maps each category to its fixed band.
var categoryStrength = [...]float64{
	evaluator.HighCard:      0.10,
	evaluator.OnePair:       0.25,
	evaluator.TwoPair:       0.45,
	evaluator.ThreeOfAKind:  0.65,
	evaluator.Straight:      0.75,
	evaluator.Flush:         0.80,
	evaluator.FullHouse:     0.90,
	evaluator.FourOfAKind:   0.95,
	evaluator.StraightFlush: 0.98,
	evaluator.RoyalFlush:    1.00,
}

// analyze builds a Situation from the seat's private view and the engine's
// opponent models.
func (e *Engine) analyze(view game.PrivateView) Situation {
	self := view.Self()
	s := Situation{
		Phase:      view.Phase,
		Pot:        view.Pot,
		CallAmount: view.CallAmount,
		CurrentBet: view.CurrentBet,
		MinRaiseTo: view.CurrentBet + view.MinRaise,
		MaxRaiseTo: self.Stack + self.Bet,
		Stack:      self.Stack,
		Bet:        self.Bet,
	}
	for _, sv := range view.Seats {
		if inHand(sv) {
			s.ActiveSeats++
		}
	}
	if view.Pot > 0 {
		s.StackRatio = float64(self.Stack) / float64(view.Pot)
	} else {
		s.StackRatio = float64(self.Stack)
	}

	s.Result = e.cache.Evaluate(view.HoleCards, view.Board)
	s.Strength = strength(s.Result, s.ActiveSeats)
	s.Outs = outs(s.Strength, len(view.Board))
	s.Potential = potential(s.Strength, s.Outs, view.Phase)
	s.PotOdds = potOdds(view.CallAmount, view.Pot)
	s.ImpliedOdds = e.impliedOdds(view, s.PotOdds)
	s.Position = position(view)
	s.OpponentAggression, s.AggressiveOpponents = e.opponentAggression(view)
	return s
}

func inHand(sv game.SeatView) bool {
	return sv.Status == game.Active || sv.Status == game.StatusAllIn
}

// strength scales the evaluated hand into 0..1, discounted as more seats
// contest the pot.
func strength(r evaluator.HandResult, activeSeats int) float64 {
	var v float64
	switch {
	case r.IsNoHand():
		return 0
	case r.Provisional:
		v = r.Score / 10
	default:
		v = categoryStrength[r.Category]
	}
	v *= max(0.5, 1-float64(activeSeats-2)*0.1)
	return clamp(v, 0, 1)
}

// outs is a coarse count of improving cards by strength band.
func outs(strength float64, boardCards int) int {
	switch {
	case strength < 0.3:
		if boardCards <= 3 {
			return 8
		}
		return 4
	case strength < 0.6:
		return 6
	default:
		return 2
	}
}

func potential(strength float64, outs int, phase game.Phase) float64 {
	if phase >= game.River {
		return strength
	}
	cardsLeft := 1
	if phase == game.Flop {
		cardsLeft = 2
	}
	improve := min(1, float64(outs*2*cardsLeft)/100)
	return min(1, strength+improve*0.3)
}

func potOdds(call, pot int) float64 {
	if call <= 0 {
		return 0
	}
	return float64(call) / float64(pot+call)
}

// impliedOdds inflates pot odds by what opponents might still pay: modelled
// opponents contribute stack*callingness*0.3, unknown ones stack*0.1.
func (e *Engine) impliedOdds(view game.PrivateView, potOdds float64) float64 {
	if view.Pot <= 0 {
		return potOdds
	}
	future := 0.0
	for _, opp := range view.Opponents() {
		if m, ok := e.models[opp.ID]; ok && m.Len() > 0 {
			future += float64(opp.Stack) * m.Callingness() * 0.3
		} else {
			future += float64(opp.Stack) * 0.1
		}
	}
	return potOdds * (1 + future/float64(view.Pot))
}

// position is the seat's distance from the button among seats still in the
// hand, as a fraction. It is 0.5 when the button has folded.
func position(view game.PrivateView) float64 {
	var live []game.SeatView
	for _, sv := range view.Seats {
		if inHand(sv) {
			live = append(live, sv)
		}
	}
	self, dealer := -1, -1
	for i, sv := range live {
		if sv.ID == view.SeatID {
			self = i
		}
		if sv.IsDealer {
			dealer = i
		}
	}
	if self < 0 || dealer < 0 {
		return 0.5
	}
	n := len(live)
	return float64((self-dealer+n)%n) / float64(n)
}

func (e *Engine) opponentAggression(view game.PrivateView) (avg float64, aggressive int) {
	modelled := 0
	for _, opp := range view.Opponents() {
		m, ok := e.models[opp.ID]
		if !ok || m.Len() == 0 {
			continue
		}
		a := m.Aggression()
		avg += a
		modelled++
		if a > 0.6 {
			aggressive++
		}
	}
	if modelled > 0 {
		avg /= float64(modelled)
	}
	return avg, aggressive
}
