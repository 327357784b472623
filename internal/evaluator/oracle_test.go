package evaluator

import (
	"testing"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/randutil"
	"github.com/paulhankin/poker"
	"github.com/stretchr/testify/require"
)

// toOracle converts a card to the paulhankin/poker representation, where the
// ace is rank 1.
func toOracle(t *testing.T, c deck.Card) poker.Card {
	t.Helper()

	var s poker.Suit
	switch c.Suit {
	case deck.Clubs:
		s = poker.Club
	case deck.Diamonds:
		s = poker.Diamond
	case deck.Hearts:
		s = poker.Heart
	case deck.Spades:
		s = poker.Spade
	}
	r := poker.Rank(c.Rank)
	if c.Rank == deck.Ace {
		r = poker.Rank(1)
	}
	pc, err := poker.MakeCard(s, r)
	require.NoError(t, err)
	return pc
}

func oracleScore(t *testing.T, hole, board []deck.Card) int16 {
	var seven [7]poker.Card
	for i, c := range append(append([]deck.Card{}, hole...), board...) {
		seven[i] = toOracle(t, c)
	}
	return poker.Eval7(&seven)
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}

// TestEvaluateAgainstOracle compares showdown ordering with an independent
// evaluator across random seven-card deals.
func TestEvaluateAgainstOracle(t *testing.T) {
	t.Parallel()

	rng := randutil.New(2024)
	for i := 0; i < 2000; i++ {
		d := deck.New(rng)
		cards, err := d.DealN(9)
		require.NoError(t, err)
		holeA, holeB, board := cards[0:2], cards[2:4], cards[4:9]

		ours := Compare(Evaluate(holeA, board), Evaluate(holeB, board))
		theirs := sign(int(oracleScore(t, holeA, board)) - int(oracleScore(t, holeB, board)))
		require.Equal(t, theirs, ours, "hand %d: %v vs %v on %v", i, holeA, holeB, board)
	}
}
