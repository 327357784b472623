package evaluator

import (
	"fmt"
	"strings"

	"github.com/lox/holdem/internal/deck"
)

// Category is the ranking class of a five-card hand, weakest first.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandResult is the outcome of evaluating a seat's cards.
//
// A formal result (five or more cards) carries a Category and the tie-break
// Values: primary group ranks first, then kickers, high to low. A provisional
// result is produced before the flop from the hole cards alone; it only
// carries a Score and must never be compared against a formal result.
type HandResult struct {
	Category    Category    `json:"category"`
	Values      []deck.Rank `json:"values,omitempty"`
	Cards       []deck.Card `json:"cards,omitempty"`
	Provisional bool        `json:"provisional,omitempty"`
	Score       float64     `json:"score,omitempty"`
}

// NoHand is the lowest possible result, returned when a seat holds no cards.
var NoHand = HandResult{Provisional: true}

// IsNoHand reports whether r is the NoHand sentinel.
func (r HandResult) IsNoHand() bool {
	return r.Provisional && r.Score == 0 && len(r.Values) == 0
}

// Compare returns -1, 0 or 1 as a is weaker than, ties or beats b. It panics
// when asked to compare a provisional result with a formal one.
func Compare(a, b HandResult) int {
	if a.Provisional != b.Provisional {
		panic("evaluator: cannot compare a provisional result with a formal one")
	}
	if a.Provisional {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return compareValues(a.Values, b.Values)
	}
	switch {
	case a.Category < b.Category:
		return -1
	case a.Category > b.Category:
		return 1
	}
	return compareValues(a.Values, b.Values)
}

func compareValues(a, b []deck.Rank) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Beats reports whether r is strictly stronger than other.
func (r HandResult) Beats(other HandResult) bool {
	return Compare(r, other) > 0
}

func (r HandResult) String() string {
	if r.IsNoHand() {
		return "No Hand"
	}
	if r.Provisional {
		return fmt.Sprintf("Hole cards (%.1f)", r.Score)
	}
	cards := make([]string, len(r.Cards))
	for i, c := range r.Cards {
		cards[i] = c.String()
	}
	return fmt.Sprintf("%s [%s]", r.Category, strings.Join(cards, " "))
}
