package evaluator

import (
	"math"

	"github.com/lox/holdem/internal/deck"
)

// Preflop scores two hole cards by shape. Pocket pairs score 5 to 8, suited
// hands 2 plus a tenth of the high card, other hands 1 plus a tenth of the
// high card; connected non-pairs get a half point on top.
func Preflop(a, b deck.Card) HandResult {
	high, low := a.Rank, b.Rank
	if low > high {
		high, low = low, high
	}

	var score float64
	switch {
	case high == low:
		score = math.Min(5+float64(high-deck.Two)*0.3, 8)
	case a.Suit == b.Suit:
		score = 2 + float64(high)*0.1
	default:
		score = 1 + float64(high)*0.1
	}
	if high != low && (high-low == 1 || (high == deck.Ace && low == deck.Two)) {
		score += 0.5
	}

	return HandResult{
		Category:    HighCard,
		Values:      []deck.Rank{high, low},
		Cards:       []deck.Card{a, b},
		Provisional: true,
		Score:       score,
	}
}
