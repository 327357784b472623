package game

import "sort"

// Pot is one segment of the chips in the middle. The first pot is the main
// pot; later ones are side pots that only deeper stacks contested.
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"` // seat indexes that can win it
}

// buildPots segments contributions into main and side pots by all-in tier.
//
// Each distinct total contribution of a seat still in the hand closes a tier.
// A tier is worth every seat's contribution between the previous level and
// this one, and only seats in the hand that reached the level can win it.
// Chips above the deepest live contribution (possible only from folded seats)
// are folded into the last pot.
func buildPots(seats []*Seat) []Pot {
	levels := make([]int, 0, len(seats))
	seen := make(map[int]bool)
	top := 0
	for _, s := range seats {
		if s.TotalBet > top {
			top = s.TotalBet
		}
		if s.InHand() && s.TotalBet > 0 && !seen[s.TotalBet] {
			seen[s.TotalBet] = true
			levels = append(levels, s.TotalBet)
		}
	}
	sort.Ints(levels)

	var pots []Pot
	prev := 0
	for _, level := range levels {
		amount := 0
		var eligible []int
		for i, s := range seats {
			amount += min(s.TotalBet, level) - min(s.TotalBet, prev)
			if s.InHand() && s.TotalBet >= level {
				eligible = append(eligible, i)
			}
		}
		pots = append(pots, Pot{Amount: amount, Eligible: eligible})
		prev = level
	}

	if top > prev {
		extra := 0
		for _, s := range seats {
			extra += max(s.TotalBet-prev, 0)
		}
		if len(pots) == 0 {
			// nobody left in the hand; cannot happen for a hand that reached payout
			return []Pot{{Amount: extra}}
		}
		pots[len(pots)-1].Amount += extra
	}
	return pots
}

// awardOrder sorts seat indexes clockwise starting with the seat left of the
// button.
func awardOrder(idx []int, dealer, n int) []int {
	out := append([]int(nil), idx...)
	dist := func(i int) int { return (i - dealer - 1 + n) % n }
	sort.Slice(out, func(a, b int) bool { return dist(out[a]) < dist(out[b]) })
	return out
}

// splitPot divides amount among winners with floor division. Remainder chips
// go one at a time to winners nearest the button, clockwise. It returns the
// share per seat index and always distributes exactly amount.
func splitPot(amount int, winners []int, dealer, n int) map[int]int {
	shares := make(map[int]int, len(winners))
	if len(winners) == 0 || amount <= 0 {
		return shares
	}
	ordered := awardOrder(winners, dealer, n)
	each, rem := amount/len(ordered), amount%len(ordered)
	for i, w := range ordered {
		shares[w] = each
		if i < rem {
			shares[w]++
		}
	}
	return shares
}
