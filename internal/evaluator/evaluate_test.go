package evaluator

import (
	"testing"

	"github.com/lox/holdem/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eval5(s string) HandResult {
	return Evaluate(nil, deck.MustParseCards(s))
}

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hole     string
		board    string
		category Category
		values   []deck.Rank
	}{
		{"royal flush", "AsKs", "QsJsTs", RoyalFlush, []deck.Rank{deck.Ace}},
		{"straight flush", "9s8s", "7s6s5s", StraightFlush, []deck.Rank{deck.Nine}},
		{"wheel straight flush", "AhKd", "2h3h4h5h", StraightFlush, []deck.Rank{deck.Five}},
		{"quads", "AhAd", "AcAs2h", FourOfAKind, []deck.Rank{deck.Ace, deck.Two}},
		{"full house", "7h7d", "7c2h2d", FullHouse, []deck.Rank{deck.Seven, deck.Two}},
		{"flush", "Kh9h", "6h4h2h", Flush, []deck.Rank{deck.King, deck.Nine, deck.Six, deck.Four, deck.Two}},
		{"straight", "9c8d", "7h6s5c", Straight, []deck.Rank{deck.Nine}},
		{"wheel", "Ac2d", "3h4s5c", Straight, []deck.Rank{deck.Five}},
		{"broadway", "AcKd", "QhJsTc", Straight, []deck.Rank{deck.Ace}},
		{"trips", "QcQd", "Qh9s3c", ThreeOfAKind, []deck.Rank{deck.Queen, deck.Nine, deck.Three}},
		{"two pair", "KhKd", "9c9h2s", TwoPair, []deck.Rank{deck.King, deck.Nine, deck.Two}},
		{"pair", "JhJd", "8c4h2s", OnePair, []deck.Rank{deck.Jack, deck.Eight, deck.Four, deck.Two}},
		{"high card", "AhJd", "8c4h2s", HighCard, []deck.Rank{deck.Ace, deck.Jack, deck.Eight, deck.Four, deck.Two}},
		{"no wrap straight", "QhKd", "Ac2s3c", HighCard, []deck.Rank{deck.Ace, deck.King, deck.Queen, deck.Three, deck.Two}},
		{"seven cards picks best", "AsAd", "KsQsJsTs2c", RoyalFlush, []deck.Rank{deck.Ace}},
		{"six cards", "8h8d", "8c8s3d2c", FourOfAKind, []deck.Rank{deck.Eight, deck.Three}},
		{"two pair best kicker", "AhKd", "KcQhQs5d5c", TwoPair, []deck.Rank{deck.King, deck.Queen, deck.Ace}},
		{"full house from two trips", "9h9d", "9c5h5s5dKc", FullHouse, []deck.Rank{deck.Nine, deck.Five}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate(deck.MustParseCards(tt.hole), deck.MustParseCards(tt.board))
			assert.False(t, r.Provisional)
			assert.Equal(t, tt.category, r.Category, r.String())
			assert.Equal(t, tt.values, r.Values)
			assert.Len(t, r.Cards, 5)
		})
	}
}

func TestCategoryOrderingFixtures(t *testing.T) {
	t.Parallel()

	royal := eval5("AsKsQsJsTs")
	nineHigh := eval5("9s8s7s6s5s")
	quads := eval5("AhAdAcAs2h")
	fullHouse := eval5("7h7d7c2h2d")
	twoPair := eval5("KhKd9c9h2s")
	wheel := eval5("Ah2h3h4h5h")
	sixHigh := eval5("6h5h4h3h2h")

	assert.Equal(t, RoyalFlush, royal.Category)
	assert.True(t, royal.Beats(nineHigh))
	assert.True(t, nineHigh.Beats(quads))
	assert.True(t, fullHouse.Beats(twoPair))

	assert.Equal(t, StraightFlush, wheel.Category)
	assert.Equal(t, []deck.Rank{deck.Five}, wheel.Values)
	assert.True(t, sixHigh.Beats(wheel))
	assert.Equal(t, deck.Ace, wheel.Cards[4].Rank, "ace should play low")
}

func TestCompareKickers(t *testing.T) {
	t.Parallel()

	board := deck.MustParseCards("AhKd8c4s2c")
	queenKicker := Evaluate(deck.MustParseCards("AsQh"), board)
	jackKicker := Evaluate(deck.MustParseCards("AcJh"), board)
	assert.Equal(t, 1, Compare(queenKicker, jackKicker))
	assert.Equal(t, -1, Compare(jackKicker, queenKicker))

	// Board plays for both: exact tie.
	board = deck.MustParseCards("AhKdQcJsTc")
	a := Evaluate(deck.MustParseCards("2s3h"), board)
	b := Evaluate(deck.MustParseCards("4s5h"), board)
	assert.Equal(t, 0, Compare(a, b))
}

func TestEvaluateProvisional(t *testing.T) {
	t.Parallel()

	aces := Evaluate(deck.MustParseCards("AsAh"), nil)
	require.True(t, aces.Provisional)
	assert.InDelta(t, 8.0, aces.Score, 1e-9)

	deuces := Evaluate(deck.MustParseCards("2s2h"), nil)
	assert.InDelta(t, 5.0, deuces.Score, 1e-9)

	suitedConnector := Evaluate(deck.MustParseCards("9h8h"), nil)
	assert.InDelta(t, 2.0+0.9+0.5, suitedConnector.Score, 1e-9)

	trash := Evaluate(deck.MustParseCards("7c2d"), nil)
	assert.InDelta(t, 1.7, trash.Score, 1e-9)

	assert.True(t, aces.Beats(deuces))
	assert.True(t, deuces.Beats(suitedConnector))
	assert.True(t, suitedConnector.Beats(trash))

	// Flop with the hole cards still needs five cards, so four cards are provisional.
	four := Evaluate(deck.MustParseCards("AsAh"), deck.MustParseCards("Kd2c"))
	assert.True(t, four.Provisional)

	formal := Evaluate(deck.MustParseCards("AsAh"), deck.MustParseCards("Kd2c3c"))
	assert.Panics(t, func() { Compare(aces, formal) })
}

func TestEvaluateNoHand(t *testing.T) {
	t.Parallel()

	r := Evaluate(nil, nil)
	assert.True(t, r.IsNoHand())
	assert.Equal(t, "No Hand", r.String())
	assert.True(t, Evaluate(deck.MustParseCards("2c3d"), nil).Beats(r))
}

func TestEvaluateRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		hole, board []deck.Card
	}{
		{"duplicate", deck.MustParseCards("AsAs"), nil},
		{"duplicate across hole and board", deck.MustParseCards("AsKd"), deck.MustParseCards("As2c3c")},
		{"three hole cards", deck.MustParseCards("AsKdQc"), nil},
		{"six board cards", nil, deck.MustParseCards("2c3c4c5c6c7c")},
		{"invalid card", []deck.Card{{Rank: 1, Suit: deck.Spades}, {Rank: deck.Two, Suit: deck.Clubs}}, nil},
		{"one hole card before the flop", deck.MustParseCards("As"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { Evaluate(tt.hole, tt.board) })
		})
	}
}

func TestCache(t *testing.T) {
	t.Parallel()

	c := NewCache()
	hole := deck.MustParseCards("AsKs")
	board := deck.MustParseCards("QsJsTs")

	first := c.Evaluate(hole, board)
	second := c.Evaluate(hole, board)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Hits())

	// Same cards, different split between hole and board pre-flop.
	c.Evaluate(deck.MustParseCards("Qs2d"), deck.MustParseCards("As"))
	c.Evaluate(deck.MustParseCards("As2d"), deck.MustParseCards("Qs"))
	assert.Equal(t, 3, c.Len())

	c.Reset()
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Hits())
}
