package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/evaluator"
	"github.com/lox/holdem/internal/randutil"
)

var (
	// ErrNotEnoughSeats is returned when fewer than two seats can be dealt in.
	ErrNotEnoughSeats = errors.New("need at least two eligible seats")
	// ErrHandAborted wraps the fatal error that cancelled a hand.
	ErrHandAborted = errors.New("hand aborted")
	// ErrInvariant reports broken chip accounting.
	ErrInvariant = errors.New("chip invariant violated")
)

// Phase is the stage of a hand.
type Phase int

const (
	PreFlop Phase = iota
	Flop
	Turn
	River
	Showdown
	Complete
)

func (p Phase) String() string {
	switch p {
	case PreFlop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a name produced by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for ph := PreFlop; ph <= Complete; ph++ {
		if ph.String() == string(text) {
			*p = ph
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// boardSize is the number of community cards once a phase has been dealt.
func (p Phase) boardSize() int {
	switch p {
	case Flop:
		return 3
	case Turn:
		return 4
	case River, Showdown:
		return 5
	}
	return 0
}

// HandOption configures NewHand.
type HandOption func(*handConfig)

type handConfig struct {
	rng    *rand.Rand
	deck   *deck.Deck
	bus    EventBus
	logger *log.Logger
	number int
}

// WithRand sets the shuffle source.
func WithRand(rng *rand.Rand) HandOption {
	return func(c *handConfig) { c.rng = rng }
}

// WithDeck uses a prepared deck instead of shuffling a new one.
func WithDeck(d *deck.Deck) HandOption {
	return func(c *handConfig) { c.deck = d }
}

// WithEventBus publishes the hand's events on bus.
func WithEventBus(bus EventBus) HandOption {
	return func(c *handConfig) { c.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) HandOption {
	return func(c *handConfig) { c.logger = logger }
}

// WithHandNumber sets the sequence number shown in views.
func WithHandNumber(n int) HandOption {
	return func(c *handConfig) { c.number = n }
}

// Hand runs one deal from the blinds to the payout. It is not safe for
// concurrent use: the owner serializes every call.
type Hand struct {
	id     string
	number int
	cfg    Config

	seats  []*Seat
	dealer int
	sb, bb int
	acting int // -1 when nobody is to act

	phase      Phase
	board      []deck.Card
	deck       *deck.Deck
	pot        int
	currentBet int
	minRaise   int
	actions    []ActionRecord
	seq        int

	stacksBefore []int
	cache        *evaluator.Cache
	outcome      *Outcome

	bus    EventBus
	logger *log.Logger
}

// NewHand deals a new hand to seats with the button at index dealer: it posts
// the blinds, deals the hole cards and stops at the first decision.
//
// Seats that are eliminated or have no chips sit out. The dealer index must
// point at an eligible seat.
func NewHand(id string, cfg Config, seats []*Seat, dealer int, opts ...HandOption) (*Hand, error) {
	hc := handConfig{}
	for _, opt := range opts {
		opt(&hc)
	}
	if hc.rng == nil {
		hc.rng = randutil.New(randutil.Seed(0))
	}
	if hc.bus == nil {
		hc.bus = nopBus{}
	}
	if hc.logger == nil {
		hc.logger = log.Default()
	}

	eligible := 0
	for _, s := range seats {
		if s.Eligible() {
			eligible++
		}
	}
	if eligible < 2 {
		return nil, ErrNotEnoughSeats
	}
	if dealer < 0 || dealer >= len(seats) || !seats[dealer].Eligible() {
		return nil, fmt.Errorf("dealer seat %d is not eligible", dealer)
	}

	d := hc.deck
	if d == nil {
		d = deck.New(hc.rng)
	}

	h := &Hand{
		id:       id,
		number:   hc.number,
		cfg:      cfg,
		seats:    slices.Clone(seats),
		dealer:   dealer,
		acting:   -1,
		phase:    PreFlop,
		deck:     d,
		minRaise: cfg.BigBlind,
		cache:    evaluator.NewCache(),
		bus:      hc.bus,
		logger:   hc.logger.With("hand", id),
	}

	h.stacksBefore = make([]int, len(seats))
	for i, s := range seats {
		h.stacksBefore[i] = s.Stack
		s.resetForHand(s.Eligible())
	}

	h.setPositions(eligible)
	h.postBlinds()

	if err := h.dealHoleCards(); err != nil {
		return h, h.abort(err)
	}

	h.bus.Publish(HandStartEvent{
		HandID:     h.id,
		HandNumber: h.number,
		Dealer:     seats[h.dealer].ID,
		SmallBlind: seats[h.sb].ID,
		BigBlind:   seats[h.bb].ID,
		Seats:      h.seatIDs(func(s *Seat) bool { return s.Status != SittingOut }),
		timestamp:  time.Now(),
	})
	h.bus.Publish(BlindsPostedEvent{
		HandID:      h.id,
		SmallBlind:  seats[h.sb].ID,
		SmallAmount: seats[h.sb].Bet,
		BigBlind:    seats[h.bb].ID,
		BigAmount:   seats[h.bb].Bet,
		timestamp:   time.Now(),
	})
	h.logger.Debug("Hand started",
		"dealer", seats[h.dealer].Name,
		"sb", seats[h.sb].Name,
		"bb", seats[h.bb].Name,
		"players", eligible)

	h.acting = h.bb
	if err := h.progress(); err != nil {
		return h, err
	}
	return h, nil
}

func (h *Hand) setPositions(eligible int) {
	h.seats[h.dealer].IsDealer = true
	if eligible == 2 {
		h.sb = h.dealer
	} else {
		h.sb = h.nextSeat(h.dealer, func(s *Seat) bool { return s.Status == Active })
	}
	h.bb = h.nextSeat(h.sb, func(s *Seat) bool { return s.Status == Active })
	h.seats[h.sb].IsSmallBlind = true
	h.seats[h.bb].IsBigBlind = true
}

func (h *Hand) postBlinds() {
	h.pot += h.seats[h.sb].commit(h.cfg.SmallBlind)
	h.pot += h.seats[h.bb].commit(h.cfg.BigBlind)
	h.currentBet = h.cfg.BigBlind
}

// dealHoleCards deals one card per pass to every seat, starting left of the
// button.
func (h *Hand) dealHoleCards() error {
	for range 2 {
		i := h.dealer
		for {
			i = h.nextSeat(i, func(s *Seat) bool { return s.Status != SittingOut })
			c, err := h.deck.Deal()
			if err != nil {
				return fmt.Errorf("dealing hole cards: %w", err)
			}
			h.seats[i].HoleCards = append(h.seats[i].HoleCards, c)
			if i == h.dealer {
				break
			}
		}
	}
	return nil
}

// nextSeat returns the first seat after from (clockwise) matching ok, or -1.
func (h *Hand) nextSeat(from int, ok func(*Seat) bool) int {
	n := len(h.seats)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if ok(h.seats[i]) {
			return i
		}
	}
	return -1
}

func (h *Hand) seatIDs(ok func(*Seat) bool) []string {
	var ids []string
	for _, s := range h.seats {
		if ok(s) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func (h *Hand) seatIndex(seatID string) int {
	return slices.IndexFunc(h.seats, func(s *Seat) bool { return s.ID == seatID })
}

// ID returns the hand identifier.
func (h *Hand) ID() string { return h.id }

// Number returns the hand's sequence number within its table.
func (h *Hand) Number() int { return h.number }

// Phase returns the current phase.
func (h *Hand) Phase() Phase { return h.phase }

// Pot returns the chips committed this hand and not yet paid out.
func (h *Hand) Pot() int { return h.pot }

// CurrentBet returns the amount every seat must match this round.
func (h *Hand) CurrentBet() int { return h.currentBet }

// MinRaise returns the minimum raise increment.
func (h *Hand) MinRaise() int { return h.minRaise }

// Board returns a copy of the community cards.
func (h *Hand) Board() []deck.Card { return slices.Clone(h.board) }

// Dealer returns the button's seat index.
func (h *Hand) Dealer() int { return h.dealer }

// Seq increases with every applied action or phase change. Timers armed for
// an older Seq are stale.
func (h *Hand) Seq() int { return h.seq }

// Actions returns a copy of the action log.
func (h *Hand) Actions() []ActionRecord { return slices.Clone(h.actions) }

// Done reports whether the hand is over, paid out or aborted.
func (h *Hand) Done() bool { return h.phase == Complete }

// Outcome returns the result once the hand is done.
func (h *Hand) Outcome() (Outcome, bool) {
	if h.outcome == nil {
		return Outcome{}, false
	}
	return *h.outcome, true
}

// ActingSeat returns the ID of the seat to act, or "" when nobody is.
func (h *Hand) ActingSeat() string {
	if h.acting < 0 || h.phase == Complete {
		return ""
	}
	return h.seats[h.acting].ID
}

// Seat returns the seat with the given ID.
func (h *Hand) Seat(seatID string) (*Seat, bool) {
	i := h.seatIndex(seatID)
	if i < 0 {
		return nil, false
	}
	return h.seats[i], true
}

// CallAmount returns what seatID must add to stay in.
func (h *Hand) CallAmount(seatID string) int {
	s, ok := h.Seat(seatID)
	if !ok {
		return 0
	}
	return max(h.currentBet-s.Bet, 0)
}

// ValidActions lists the legal moves for seatID, which is empty unless it is
// that seat's turn.
func (h *Hand) ValidActions(seatID string) []ValidAction {
	i := h.seatIndex(seatID)
	if i < 0 || i != h.acting || h.phase == Complete {
		return nil
	}
	s := h.seats[i]
	call := h.currentBet - s.Bet

	actions := []ValidAction{{Type: Fold}}
	if call <= 0 {
		actions = append(actions, ValidAction{Type: Check})
	} else {
		c := min(call, s.Stack)
		actions = append(actions, ValidAction{Type: Call, Min: c, Max: c})
	}
	minTo, maxTo := h.currentBet+h.minRaise, s.Stack+s.Bet
	if maxTo >= minTo {
		actions = append(actions, ValidAction{Type: Raise, Min: minTo, Max: maxTo})
	}
	if s.Stack > 0 {
		actions = append(actions, ValidAction{Type: AllIn, Min: s.Stack, Max: s.Stack})
	}
	return actions
}

// Submit validates and applies an action for seatID. An illegal action returns
// a *RejectedError and leaves the hand unchanged. Any other error means the
// hand was aborted.
func (h *Hand) Submit(seatID string, a Action) error {
	return h.submit(seatID, a, false)
}

func (h *Hand) submit(seatID string, a Action, timeout bool) error {
	i, err := h.validate(seatID, a)
	if err != nil {
		return err
	}
	h.apply(i, a, timeout)
	if err := h.checkInvariants(); err != nil {
		return h.abort(err)
	}
	return h.progress()
}

func (h *Hand) validate(seatID string, a Action) (int, error) {
	if h.phase == Complete {
		return -1, reject(ReasonHandComplete, "hand %s is over", h.id)
	}
	i := h.seatIndex(seatID)
	if i < 0 {
		return -1, reject(ReasonUnknownSeat, "no seat %q", seatID)
	}
	if i != h.acting {
		return -1, reject(ReasonNotYourTurn, "waiting for %s", h.ActingSeat())
	}
	s := h.seats[i]
	if s.Status != Active {
		return -1, reject(ReasonSeatNotActive, "seat is %s", s.Status)
	}

	call := h.currentBet - s.Bet
	switch a.Type {
	case Fold:
	case Check:
		if call > 0 {
			return -1, reject(ReasonCannotCheck, "%d to call", call)
		}
	case Call:
		if call <= 0 {
			return -1, reject(ReasonNothingToCall, "no bet to call")
		}
	case Raise:
		minTo, maxTo := h.currentBet+h.minRaise, s.Stack+s.Bet
		if a.Amount < minTo {
			return -1, reject(ReasonRaiseTooSmall, "raise to %d, minimum is %d", a.Amount, minTo)
		}
		if a.Amount > maxTo {
			return -1, reject(ReasonRaiseTooLarge, "raise to %d, maximum is %d", a.Amount, maxTo)
		}
	case AllIn:
		if s.Stack <= 0 {
			return -1, reject(ReasonNoChips, "stack is empty")
		}
	default:
		return -1, reject(ReasonInvalidAction, "unknown action %d", int(a.Type))
	}
	return i, nil
}

func (h *Hand) apply(i int, a Action, timeout bool) {
	s := h.seats[i]
	moved := 0

	switch a.Type {
	case Fold:
		s.Status = Folded
	case Check:
	case Call:
		moved = s.commit(h.currentBet - s.Bet)
	case Raise:
		moved = s.commit(a.Amount - s.Bet)
		h.raiseTo(s.Bet)
	case AllIn:
		moved = s.commit(s.Stack)
		if s.Bet > h.currentBet {
			h.raiseTo(s.Bet)
		}
	}

	h.pot += moved
	s.HasActed = true
	act := a
	s.LastAction = &act
	h.seq++

	rec := ActionRecord{
		Seq:     h.seq,
		SeatID:  s.ID,
		Phase:   h.phase,
		Action:  a,
		Chips:   moved,
		BetTo:   s.Bet,
		PotTo:   h.pot,
		Timeout: timeout,
		Status:  s.Status,
	}
	h.actions = append(h.actions, rec)
	h.logger.Debug("Action applied", "seat", s.Name, "action", a, "chips", moved, "pot", h.pot)
	h.bus.Publish(ActionEvent{HandID: h.id, Record: rec, timestamp: time.Now()})
}

// raiseTo lifts the table bet. A full raise also resets the minimum increment;
// a short all-in only lifts the bet.
func (h *Hand) raiseTo(bet int) {
	if inc := bet - h.currentBet; inc >= h.minRaise {
		h.minRaise = inc
	}
	h.currentBet = bet
}

// ApplyTimeout plays the default action for the acting seat: check when that
// is free, fold otherwise.
func (h *Hand) ApplyTimeout(seatID string) (Action, error) {
	a := Action{Type: Fold}
	if h.CallAmount(seatID) == 0 {
		a = Action{Type: Check}
	}
	return a, h.submit(seatID, a, true)
}

// ForceFold folds a seat that is leaving, whether or not it is its turn. Seats
// already all-in keep their claim on the pot.
func (h *Hand) ForceFold(seatID string) error {
	if h.phase == Complete {
		return nil
	}
	i := h.seatIndex(seatID)
	if i < 0 {
		return reject(ReasonUnknownSeat, "no seat %q", seatID)
	}
	if h.seats[i].Status != Active {
		return nil
	}
	if i == h.acting {
		return h.Submit(seatID, Action{Type: Fold})
	}
	h.apply(i, Action{Type: Fold}, false)
	if err := h.checkInvariants(); err != nil {
		return h.abort(err)
	}
	// The acting seat keeps its turn unless the fold closed the round.
	if h.roundComplete() || h.countSeats(func(s *Seat) bool { return s.InHand() }) == 1 {
		return h.progress()
	}
	return nil
}

func (h *Hand) countSeats(ok func(*Seat) bool) int {
	n := 0
	for _, s := range h.seats {
		if ok(s) {
			n++
		}
	}
	return n
}

// roundComplete reports whether betting on the current street is over.
func (h *Hand) roundComplete() bool {
	var active []*Seat
	for _, s := range h.seats {
		if s.Status == Active {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return true
	}
	if len(active) == 1 && active[0].Bet >= h.currentBet {
		return true
	}
	for _, s := range active {
		if !s.HasActed || s.Bet != h.currentBet {
			return false
		}
	}
	return true
}

func (h *Hand) needsAction(s *Seat) bool {
	return s.Status == Active && (!s.HasActed || s.Bet < h.currentBet)
}

// progress moves the hand forward after a change: to the next seat, the next
// street, the showdown, or an uncontested payout.
func (h *Hand) progress() error {
	for {
		if h.countSeats(func(s *Seat) bool { return s.InHand() }) == 1 {
			h.finish(false)
			return nil
		}
		if !h.roundComplete() {
			h.acting = h.nextSeat(h.acting, h.needsAction)
			return nil
		}
		if h.phase == River {
			h.finish(true)
			return nil
		}
		if err := h.nextStreet(); err != nil {
			return h.abort(err)
		}
	}
}

func (h *Hand) nextStreet() error {
	for _, s := range h.seats {
		s.Bet = 0
		s.HasActed = false
	}
	h.currentBet = 0
	h.minRaise = h.cfg.BigBlind

	next := h.phase + 1
	if err := h.deck.Burn(); err != nil {
		return fmt.Errorf("burn before %s: %w", next, err)
	}
	cards, err := h.deck.DealN(next.boardSize() - len(h.board))
	if err != nil {
		return fmt.Errorf("dealing %s: %w", next, err)
	}
	h.board = append(h.board, cards...)
	h.phase = next
	h.seq++
	h.acting = h.dealer

	h.logger.Debug("Phase changed", "phase", h.phase, "board", h.board, "pot", h.pot)
	h.bus.Publish(PhaseChangedEvent{
		HandID:    h.id,
		Phase:     h.phase,
		Board:     slices.Clone(h.board),
		Pot:       h.pot,
		timestamp: time.Now(),
	})
	return nil
}

func (h *Hand) checkInvariants() error {
	total := 0
	for _, s := range h.seats {
		if s.Stack < 0 {
			return fmt.Errorf("%w: seat %s has stack %d", ErrInvariant, s.ID, s.Stack)
		}
		total += s.TotalBet
	}
	if total != h.pot {
		return fmt.Errorf("%w: pot %d != contributions %d", ErrInvariant, h.pot, total)
	}
	return nil
}

// abort cancels the hand and puts every stack back to its pre-hand value.
func (h *Hand) abort(cause error) error {
	for i, s := range h.seats {
		s.Stack = h.stacksBefore[i]
		s.Bet, s.TotalBet = 0, 0
	}
	h.pot = 0
	h.phase = Complete
	h.acting = -1
	h.seq++
	h.outcome = &Outcome{HandID: h.id, HandNumber: h.number, Aborted: true, Board: slices.Clone(h.board)}

	h.logger.Error("Hand aborted", "error", cause)
	h.bus.Publish(HandAbortedEvent{HandID: h.id, Reason: cause.Error(), timestamp: time.Now()})
	return fmt.Errorf("%w: %w", ErrHandAborted, cause)
}
