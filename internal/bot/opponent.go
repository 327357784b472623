package bot

import "github.com/lox/holdem/internal/game"

// opponentWindow is how many recent actions an OpponentModel remembers.
const opponentWindow = 20

// OpponentModel tracks the recent actions of one other seat. Frequencies are
// computed over a sliding window; updates are O(1).
type OpponentModel struct {
	SeatID string

	window [opponentWindow]game.ActionType
	head   int
	size   int
	counts [len(game.ActionTypes)]int

	observed int
}

// NewOpponentModel creates an empty model.
func NewOpponentModel(seatID string) *OpponentModel {
	return &OpponentModel{SeatID: seatID}
}

// Observe records one action, evicting the oldest once the window is full.
func (m *OpponentModel) Observe(a game.ActionType) {
	if m.size == opponentWindow {
		m.counts[m.window[m.head]]--
	} else {
		m.size++
	}
	m.window[m.head] = a
	m.counts[a]++
	m.head = (m.head + 1) % opponentWindow
	m.observed++
}

// Observations counts every action seen, including evicted ones.
func (m *OpponentModel) Observations() int { return m.observed }

// Len returns the number of actions in the window.
func (m *OpponentModel) Len() int { return m.size }

func (m *OpponentModel) freq(n int, prior float64) float64 {
	if m.size == 0 {
		return prior
	}
	return float64(n) / float64(m.size)
}

// FoldFrequency is the share of folds in the window.
func (m *OpponentModel) FoldFrequency() float64 {
	return m.freq(m.counts[game.Fold], 0.4)
}

// RaiseFrequency is the share of raises and all-ins.
func (m *OpponentModel) RaiseFrequency() float64 {
	return m.freq(m.counts[game.Raise]+m.counts[game.AllIn], 0.2)
}

// Callingness is the share of calls and checks.
func (m *OpponentModel) Callingness() float64 {
	return m.freq(m.counts[game.Call]+m.counts[game.Check], 0.5)
}

// Aggression weights raises twice and all-ins three times, normalised so a
// seat that only raises scores 1.
func (m *OpponentModel) Aggression() float64 {
	if m.size == 0 {
		return 0.5
	}
	return float64(m.counts[game.Raise]*2+m.counts[game.AllIn]*3) / float64(2*m.size)
}

// BluffLikelihood is a crude estimate capped at 0.3.
func (m *OpponentModel) BluffLikelihood() float64 {
	if m.size == 0 {
		return 0.1
	}
	return min(0.3, m.RaiseFrequency()*0.5)
}
