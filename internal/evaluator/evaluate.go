// Package evaluator ranks Texas Hold'em hands.
package evaluator

import (
	"fmt"
	"sort"

	"github.com/lox/holdem/internal/deck"
)

// Evaluate returns the best result for a seat's hole cards and the board.
//
// With fewer than five cards in total the result is provisional. With no hole
// cards at all (the very start of a hand) it is NoHand. Malformed input is a
// programming error and panics.
func Evaluate(hole, board []deck.Card) HandResult {
	validate(hole, board)

	total := len(hole) + len(board)
	if total < 5 {
		if len(hole) == 0 {
			return NoHand
		}
		if len(hole) != 2 {
			panic(fmt.Sprintf("evaluator: provisional evaluation needs 2 hole cards, got %d", len(hole)))
		}
		return Preflop(hole[0], hole[1])
	}

	cards := make([]deck.Card, 0, total)
	cards = append(cards, hole...)
	cards = append(cards, board...)
	if total == 5 {
		return evaluate5(cards)
	}

	var best HandResult
	var five [5]deck.Card
	first := true
	forEachSubset(len(cards), func(idx [5]int) {
		for i, j := range idx {
			five[i] = cards[j]
		}
		r := evaluate5(five[:])
		if first || Compare(r, best) > 0 {
			best = r
			first = false
		}
	})
	return best
}

// validate panics on wrong counts, invalid cards and duplicates.
func validate(hole, board []deck.Card) {
	if len(hole) > 2 {
		panic(fmt.Sprintf("evaluator: %d hole cards", len(hole)))
	}
	if len(board) > 5 {
		panic(fmt.Sprintf("evaluator: %d board cards", len(board)))
	}
	var seen uint64
	check := func(c deck.Card) {
		if !c.Valid() {
			panic(fmt.Sprintf("evaluator: invalid card rank=%d suit=%d", c.Rank, c.Suit))
		}
		bit := uint64(1) << c.Index()
		if seen&bit != 0 {
			panic(fmt.Sprintf("evaluator: duplicate card %s", c))
		}
		seen |= bit
	}
	for _, c := range hole {
		check(c)
	}
	for _, c := range board {
		check(c)
	}
}

// forEachSubset calls fn with every 5-element index combination of n.
func forEachSubset(n int, fn func([5]int)) {
	var idx [5]int
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						idx = [5]int{a, b, c, d, e}
						fn(idx)
					}
				}
			}
		}
	}
}

type group struct {
	rank  deck.Rank
	count int
}

func evaluate5(cards []deck.Card) HandResult {
	sorted := make([]deck.Card, 5)
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Rank != sorted[j].Rank {
			return sorted[i].Rank > sorted[j].Rank
		}
		return sorted[i].Suit < sorted[j].Suit
	})

	flush := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			flush = false
			break
		}
	}

	var counts [deck.Ace + 1]int
	for _, c := range sorted {
		counts[c.Rank]++
	}
	groups := make([]group, 0, 5)
	for r := deck.Ace; r >= deck.Two; r-- {
		if counts[r] > 0 {
			groups = append(groups, group{rank: r, count: counts[r]})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})

	straightHigh := deck.Rank(0)
	if len(groups) == 5 {
		switch {
		case sorted[0].Rank-sorted[4].Rank == 4:
			straightHigh = sorted[0].Rank
		case sorted[0].Rank == deck.Ace && sorted[1].Rank == deck.Five:
			straightHigh = deck.Five
			// the ace plays low: show it last
			sorted = append(sorted[1:], sorted[0])
		}
	}

	result := HandResult{Cards: sorted}
	switch {
	case straightHigh > 0 && flush:
		result.Category = StraightFlush
		if straightHigh == deck.Ace {
			result.Category = RoyalFlush
		}
		result.Values = []deck.Rank{straightHigh}
	case groups[0].count == 4:
		result.Category = FourOfAKind
	case groups[0].count == 3 && groups[1].count == 2:
		result.Category = FullHouse
	case flush:
		result.Category = Flush
	case straightHigh > 0:
		result.Category = Straight
		result.Values = []deck.Rank{straightHigh}
	case groups[0].count == 3:
		result.Category = ThreeOfAKind
	case groups[0].count == 2 && groups[1].count == 2:
		result.Category = TwoPair
	case groups[0].count == 2:
		result.Category = OnePair
	default:
		result.Category = HighCard
	}

	if result.Values == nil {
		result.Values = make([]deck.Rank, len(groups))
		for i, g := range groups {
			result.Values[i] = g.rank
		}
	}
	return result
}
