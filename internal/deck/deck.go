package deck

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrExhausted is returned when a deal or burn is attempted on an empty deck.
var ErrExhausted = errors.New("deck exhausted")

// Deck is the shoe for a single hand. Cards leave it either dealt or burned and
// never come back; build a new Deck for the next hand.
type Deck struct {
	cards  []Card
	next   int
	dealt  int
	burned int
	rng    *rand.Rand
}

// Standard returns the 52 cards in suit-major order.
func Standard() []Card {
	cards := make([]Card, 0, 52)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// New creates a full deck and shuffles it with rng.
func New(rng *rand.Rand) *Deck {
	d := &Deck{cards: Standard(), rng: rng}
	d.Shuffle()
	return d
}

// NewFromCards creates a deck that deals cards in the given order, without
// shuffling. Used to stack the deck in tests and replays.
func NewFromCards(cards []Card) *Deck {
	cp := make([]Card, len(cards))
	copy(cp, cards)
	return &Deck{cards: cp}
}

// Shuffle permutes the undealt cards with Fisher–Yates.
func (d *Deck) Shuffle() {
	if d.rng == nil {
		return
	}
	rest := d.cards[d.next:]
	for i := len(rest) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		rest[i], rest[j] = rest[j], rest[i]
	}
}

// Deal removes and returns the top card.
func (d *Deck) Deal() (Card, error) {
	card, err := d.draw()
	if err != nil {
		return Card{}, err
	}
	d.dealt++
	return card, nil
}

// DealN deals n cards. On underflow nothing is dealt.
func (d *Deck) DealN(n int) ([]Card, error) {
	if n > d.Remaining() {
		return nil, fmt.Errorf("deal %d with %d remaining: %w", n, d.Remaining(), ErrExhausted)
	}
	cards := make([]Card, n)
	for i := range cards {
		cards[i], _ = d.Deal()
	}
	return cards, nil
}

// Burn discards the top card face down.
func (d *Deck) Burn() error {
	if _, err := d.draw(); err != nil {
		return err
	}
	d.burned++
	return nil
}

func (d *Deck) draw() (Card, error) {
	if d.next >= len(d.cards) {
		return Card{}, ErrExhausted
	}
	card := d.cards[d.next]
	d.next++
	return card, nil
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}

// Dealt returns how many cards were dealt face up or to seats.
func (d *Deck) Dealt() int { return d.dealt }

// Burned returns how many cards were burned.
func (d *Deck) Burned() int { return d.burned }

// Size returns the number of cards the deck started with.
func (d *Deck) Size() int { return len(d.cards) }
