package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/holdem/internal/randutil"
)

var (
	// ErrSessionOver means fewer than two seats can play another hand.
	ErrSessionOver = errors.New("fewer than two eligible seats remain")
	ErrTableFull   = errors.New("table is full")
	ErrSeatTaken   = errors.New("seat id already at table")
	ErrNoSuchSeat  = errors.New("no such seat")
	ErrHandRunning = errors.New("a hand is in progress")
)

// Table is the seating that persists across hands. It rotates the button,
// creates each Hand and settles eliminations once the hand is over.
type Table struct {
	cfg    Config
	seats  []*Seat
	dealer int // index of the last button, -1 before the first hand
	hands  int
	hand   *Hand

	leaving map[string]bool

	rng    *rand.Rand
	bus    EventBus
	logger *log.Logger
}

// NewTable creates an empty table. A nil rng is seeded from the clock and a
// nil bus discards events.
func NewTable(cfg Config, rng *rand.Rand, bus EventBus, logger *log.Logger) *Table {
	if rng == nil {
		rng = randutil.New(randutil.Seed(0))
	}
	if bus == nil {
		bus = nopBus{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Table{
		cfg:     cfg,
		dealer:  -1,
		leaving: make(map[string]bool),
		rng:     rng,
		bus:     bus,
		logger:  logger.WithPrefix("table"),
	}
}

// Config returns the table configuration.
func (t *Table) Config() Config { return t.cfg }

// Seats returns the seats in table order.
func (t *Table) Seats() []*Seat { return slices.Clone(t.seats) }

// Seat finds a seat by ID.
func (t *Table) Seat(id string) (*Seat, bool) {
	i := slices.IndexFunc(t.seats, func(s *Seat) bool { return s.ID == id })
	if i < 0 {
		return nil, false
	}
	return t.seats[i], true
}

// Hand returns the current or most recent hand, or nil before the first.
func (t *Table) Hand() *Hand { return t.hand }

// HandsPlayed counts hands started at this table.
func (t *Table) HandsPlayed() int { return t.hands }

// InHand reports whether a hand is running.
func (t *Table) InHand() bool { return t.hand != nil && !t.hand.Done() }

// Eligible counts the seats that can be dealt into the next hand.
func (t *Table) Eligible() int {
	n := 0
	for _, s := range t.seats {
		if s.Eligible() && !t.leaving[s.ID] {
			n++
		}
	}
	return n
}

// TotalChips sums every stack plus the chips in the current pot.
func (t *Table) TotalChips() int {
	total := 0
	for _, s := range t.seats {
		total += s.Stack
	}
	if t.InHand() {
		total += t.hand.Pot()
	}
	return total
}

// AddSeat seats a new participant. New seats join from the next hand.
func (t *Table) AddSeat(s *Seat) error {
	if _, ok := t.Seat(s.ID); ok {
		return fmt.Errorf("%w: %s", ErrSeatTaken, s.ID)
	}
	if len(t.seats) >= t.cfg.MaxSeats {
		return ErrTableFull
	}
	s.Status = SittingOut
	t.seats = append(t.seats, s)
	t.logger.Debug("Seat added", "seat", s.Name, "stack", s.Stack, "bot", s.IsBot)
	return nil
}

// RemoveSeat takes a seat off the table. A seat dealt into the running hand
// is folded first and removed once the hand is finished.
func (t *Table) RemoveSeat(id string) error {
	if _, ok := t.Seat(id); !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchSeat, id)
	}
	if t.InHand() {
		if _, dealt := t.hand.Seat(id); dealt {
			t.leaving[id] = true
			return t.hand.ForceFold(id)
		}
	}
	t.remove(id)
	return nil
}

func (t *Table) remove(id string) {
	i := slices.IndexFunc(t.seats, func(s *Seat) bool { return s.ID == id })
	if i < 0 {
		return
	}
	t.seats = slices.Delete(t.seats, i, i+1)
	if i <= t.dealer {
		t.dealer--
		if t.dealer < 0 && len(t.seats) > 0 {
			// the button wraps to the last seat so the rotation carries on
			t.dealer = len(t.seats) - 1
		}
	}
	delete(t.leaving, id)
	t.logger.Debug("Seat removed", "seat", id)
}

// NewHand starts the next hand with the button moved to the next eligible
// seat. The first button is a random eligible seat.
func (t *Table) NewHand(id string, opts ...HandOption) (*Hand, error) {
	if t.InHand() {
		return nil, ErrHandRunning
	}
	if t.Eligible() < 2 {
		return nil, ErrSessionOver
	}
	for seatID := range t.leaving {
		t.remove(seatID)
	}
	t.dealer = t.nextDealer()
	t.hands++

	opts = append([]HandOption{
		WithRand(t.rng),
		WithEventBus(t.bus),
		WithLogger(t.logger),
		WithHandNumber(t.hands),
	}, opts...)

	h, err := NewHand(id, t.cfg, t.seats, t.dealer, opts...)
	if h != nil {
		t.hand = h
	}
	return h, err
}

func (t *Table) nextDealer() int {
	if t.dealer < 0 {
		var eligible []int
		for i, s := range t.seats {
			if s.Eligible() {
				eligible = append(eligible, i)
			}
		}
		return eligible[t.rng.IntN(len(eligible))]
	}
	n := len(t.seats)
	for step := 1; step <= n; step++ {
		i := (t.dealer + step) % n
		if t.seats[i].Eligible() {
			return i
		}
	}
	return t.dealer
}

// FinishHand settles a completed hand: busted seats are eliminated and seats
// that left are removed. It returns the newly eliminated seats.
func (t *Table) FinishHand() []*Seat {
	if t.hand == nil || !t.hand.Done() {
		return nil
	}
	var out []*Seat
	for _, s := range t.seats {
		if s.Stack == 0 && !s.Eliminated && s.Status != SittingOut {
			s.Eliminated = true
			out = append(out, s)
			t.logger.Info("Seat eliminated", "seat", s.Name, "hand", t.hand.ID())
			t.bus.Publish(SeatEliminatedEvent{
				SeatID:    s.ID,
				Name:      s.Name,
				HandID:    t.hand.ID(),
				timestamp: time.Now(),
			})
		}
	}
	for id := range t.leaving {
		t.remove(id)
	}
	return out
}
