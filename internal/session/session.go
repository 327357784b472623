// Package session runs one room: a table, its bots and its timers, all driven
// by a single goroutine. Every change to a hand goes through that goroutine,
// so callers never lock anything.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/holdem/internal/bot"
	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/gameid"
	"github.com/lox/holdem/internal/randutil"
)

var (
	ErrSessionEnded = errors.New("session has ended")
	ErrUnknownHand  = errors.New("unknown hand")
	ErrUnknownSeat  = errors.New("unknown seat")
)

// maxAborts is how many hands in a row may be aborted before the session
// gives up.
const maxAborts = 2

type timerKind int

const (
	turnTimer timerKind = iota
	botTimer
	nextHandTimer
)

func (k timerKind) String() string {
	switch k {
	case turnTimer:
		return "turn"
	case botTimer:
		return "bot"
	default:
		return "next-hand"
	}
}

// tick is a timer expiry. It carries what the timer was armed for so the loop
// can drop expiries that lost a race.
type tick struct {
	id     uint64
	kind   timerKind
	handID string
	seq    int
	seatID string
}

type request struct {
	fn    func() error
	reply chan error
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for every timer.
func WithClock(clock quartz.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithRand sets the random source for dealing, bot decisions and think
// times.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithLogger sets the parent logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithObserver sets the observer that receives events and snapshots.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithHandIDs overrides how hand IDs are generated.
func WithHandIDs(next func() string) Option {
	return func(s *Session) { s.nextID = next }
}

// WithDecks makes every hand deal from a deck built by newDeck.
func WithDecks(newDeck func() *deck.Deck) Option {
	return func(s *Session) { s.newDeck = newDeck }
}

// Session owns one table. Run processes submissions, joins, leaves and timer
// expiries one at a time; the exported methods hand work to it and wait for
// the result.
type Session struct {
	room     string
	cfg      game.Config
	clock    quartz.Clock
	rng      *rand.Rand
	observer Observer
	logger   *log.Logger
	nextID   func() string
	newDeck  func() *deck.Deck

	requests chan request
	ticks    chan tick
	done     chan struct{}

	// owned by the Run goroutine
	table    *game.Table
	bus      *game.SimpleEventBus
	roster   *bot.Roster
	bots     map[string]*bot.Bot
	stats    *bot.StatsTracker
	timer    *quartz.Timer
	timerID  uint64
	aborts   int
	ended    bool
	activity time.Time

	mu    sync.RWMutex
	state State
}

// New creates a session for room. Nothing happens until Run is called.
func New(room string, cfg game.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table config: %w", err)
	}
	s := &Session{
		room:     room,
		cfg:      cfg,
		requests: make(chan request),
		ticks:    make(chan tick, 4),
		done:     make(chan struct{}),
		bots:     make(map[string]*bot.Bot),
		stats:    bot.NewStatsTracker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if s.rng == nil {
		s.rng = randutil.New(randutil.Seed(0))
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.observer == nil {
		s.observer = NopObserver{}
	}
	if s.nextID == nil {
		s.nextID = gameid.New
	}
	s.logger = s.logger.WithPrefix("session").With("room", room)

	s.bus = game.NewEventBus()
	s.bus.Subscribe(forwarder{s})
	s.table = game.NewTable(cfg, s.rng, s.bus, s.logger)
	s.roster = bot.NewRoster(cfg, s.rng, s.logger)
	s.activity = s.clock.Now()
	s.state = State{Room: room, Activity: s.activity}
	return s, nil
}

// Room returns the room name.
func (s *Session) Room() string { return s.room }

// Config returns the table rules.
func (s *Session) Config() game.Config { return s.cfg }

// Done is closed when the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the latest snapshot.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Run is the session loop. It returns when ctx is cancelled or the session
// ends.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("Session started", "seats", s.cfg.MaxSeats, "blinds", fmt.Sprintf("%d/%d", s.cfg.SmallBlind, s.cfg.BigBlind))
	s.publish()
	for !s.ended {
		select {
		case <-ctx.Done():
			s.end("stopped")
		case req := <-s.requests:
			req.reply <- req.fn()
		case t := <-s.ticks:
			s.fire(t)
		}
	}
	return nil
}

// do runs fn on the session goroutine and returns its error.
func (s *Session) do(ctx context.Context, fn func() error) error {
	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionEnded
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrSessionEnded
		}
	}
}

// Submit applies an action for seatID in handID. Illegal actions come back
// as *game.RejectedError and change nothing.
func (s *Session) Submit(ctx context.Context, handID, seatID string, a game.Action) error {
	return s.do(ctx, func() error { return s.submit(handID, seatID, a) })
}

func (s *Session) submit(handID, seatID string, a game.Action) error {
	h := s.table.Hand()
	switch {
	case h == nil || h.ID() != handID:
		return &game.RejectedError{Reason: game.ReasonStaleHand, Detail: fmt.Sprintf("hand %s is not current", handID)}
	case h.Done():
		return &game.RejectedError{Reason: game.ReasonHandComplete, Detail: fmt.Sprintf("hand %s is over", handID)}
	}
	if _, ok := s.bots[seatID]; ok {
		return &game.RejectedError{Reason: game.ReasonNotYourTurn, Detail: "seat is computer controlled"}
	}
	err := h.Submit(seatID, a)
	var rejected *game.RejectedError
	if errors.As(err, &rejected) {
		s.logger.Debug("Action rejected", "seat", seatID, "action", a, "reason", rejected.Reason)
		return err
	}
	s.activity = s.clock.Now()
	s.afterChange()
	return err
}

// Join seats a human. The seat is dealt in from the next hand.
func (s *Session) Join(ctx context.Context, seatID, name string) error {
	return s.do(ctx, func() error {
		if err := s.table.AddSeat(game.NewSeat(seatID, name, s.cfg.StartingStack, false)); err != nil {
			return err
		}
		s.logger.Info("Player joined", "seat", seatID, "name", name)
		s.activity = s.clock.Now()
		s.maybeAutoStart()
		s.publish()
		return nil
	})
}

// AddBots seats up to n bots with random styles and returns their seat IDs.
// It stops early when the table fills; a full table with no bot added is
// game.ErrTableFull.
func (s *Session) AddBots(ctx context.Context, n int) ([]string, error) {
	var ids []string
	err := s.do(ctx, func() error {
		for range n {
			b, err := s.addBot(s.roster.New())
			if err != nil {
				if len(ids) > 0 && errors.Is(err, game.ErrTableFull) {
					break
				}
				return err
			}
			ids = append(ids, b.ID)
		}
		s.maybeAutoStart()
		s.publish()
		return nil
	})
	return ids, err
}

// AddBot seats one bot with the given style.
func (s *Session) AddBot(ctx context.Context, style bot.Archetype) (string, error) {
	var id string
	err := s.do(ctx, func() error {
		b, err := s.addBot(s.roster.NewWithArchetype(style))
		if err != nil {
			return err
		}
		id = b.ID
		s.maybeAutoStart()
		s.publish()
		return nil
	})
	return id, err
}

func (s *Session) addBot(b *bot.Bot) (*bot.Bot, error) {
	if err := s.table.AddSeat(b.Seat(s.cfg.BotStack)); err != nil {
		s.roster.Release(b.Name)
		return nil, err
	}
	s.bots[b.ID] = b
	return b, nil
}

// Leave removes a seat. A seat leaving mid-hand is folded and removed once
// the hand is over.
func (s *Session) Leave(ctx context.Context, seatID string) error {
	return s.do(ctx, func() error {
		seat, ok := s.table.Seat(seatID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSeat, seatID)
		}
		if b, ok := s.bots[seatID]; ok {
			delete(s.bots, seatID)
			s.roster.Release(b.Name)
		} else {
			s.activity = s.clock.Now()
		}
		midHand := false
		if h := s.table.Hand(); h != nil && !h.Done() {
			_, midHand = h.Seat(seatID)
		}
		err := s.table.RemoveSeat(seatID)
		if err != nil && !errors.Is(err, game.ErrHandAborted) {
			return err
		}
		s.logger.Info("Player left", "seat", seatID, "name", seat.Name, "midHand", midHand)
		if midHand {
			s.afterChange()
		} else {
			s.publish()
		}
		return nil
	})
}

// Start deals the next hand now instead of waiting for the timer.
func (s *Session) Start(ctx context.Context) error {
	return s.do(ctx, func() error {
		if s.table.InHand() {
			return game.ErrHandRunning
		}
		return s.startHand()
	})
}

// PublicView returns the public view of handID as of the last change.
func (s *Session) PublicView(handID string) (game.PublicView, error) {
	st := s.State()
	if st.Hand == nil || st.Hand.HandID != handID {
		return game.PublicView{}, fmt.Errorf("%w: %s", ErrUnknownHand, handID)
	}
	return *st.Hand, nil
}

// PrivateView returns seatID's view of handID as of the last change.
func (s *Session) PrivateView(handID, seatID string) (game.PrivateView, error) {
	st := s.State()
	if st.Hand == nil || st.Hand.HandID != handID {
		return game.PrivateView{}, fmt.Errorf("%w: %s", ErrUnknownHand, handID)
	}
	v, ok := st.Private[seatID]
	if !ok {
		return game.PrivateView{}, fmt.Errorf("%w: %s", ErrUnknownSeat, seatID)
	}
	return v, nil
}

func (s *Session) maybeAutoStart() {
	if !s.cfg.AutoStart || s.table.HandsPlayed() > 0 || s.timer != nil || s.table.Eligible() < 2 {
		return
	}
	s.logger.Info("Enough players, starting soon", "in", s.cfg.HandInterval)
	s.arm(tick{kind: nextHandTimer}, s.cfg.HandInterval)
}

func (s *Session) startHand() error {
	s.stopTimer()
	var opts []game.HandOption
	if s.newDeck != nil {
		opts = append(opts, game.WithDeck(s.newDeck()))
	}
	h, err := s.table.NewHand(s.nextID(), opts...)
	if h == nil {
		if errors.Is(err, game.ErrSessionOver) && s.table.HandsPlayed() > 0 {
			s.end("not enough players with chips")
			return err
		}
		s.publish()
		return err
	}
	s.logger.Info("Hand started", "hand", h.ID(), "number", h.Number(), "dealer", h.Dealer())
	s.afterChange()
	if errors.Is(err, game.ErrHandAborted) {
		return nil
	}
	return err
}

// afterChange runs after anything touched the current hand: it settles a
// finished hand or arms the timer for whoever acts next, then publishes.
func (s *Session) afterChange() {
	h := s.table.Hand()
	if h == nil {
		s.publish()
		return
	}
	if !h.Done() {
		s.armTurn(h)
		s.publish()
		return
	}
	reason := s.finishHand(h)
	s.publish()
	if reason != "" {
		s.end(reason)
	}
}

// finishHand settles h and either schedules the next hand or returns why the
// session should end.
func (s *Session) finishHand(h *game.Hand) string {
	s.stopTimer()
	out, _ := h.Outcome()
	if out.Aborted {
		s.aborts++
		s.logger.Warn("Hand aborted, stacks restored", "hand", h.ID(), "inARow", s.aborts)
	} else {
		s.aborts = 0
		s.logger.Info("Hand complete", "hand", h.ID(), "pot", out.Pot, "winners", out.Winners(), "showdown", out.Showdown)
	}
	s.table.FinishHand()

	for id, b := range s.bots {
		if seat, ok := h.Seat(id); ok && seat.Status != game.SittingOut {
			b.Engine.Adapt(out.Won(id) > 0)
		}
	}

	switch {
	case s.aborts >= maxAborts:
		s.logger.Error("Too many aborted hands, ending session", "aborts", s.aborts)
		return fmt.Sprintf("%d hands in a row were aborted", s.aborts)
	case s.table.Eligible() < 2:
		return "not enough players with chips"
	}
	s.arm(tick{kind: nextHandTimer, handID: h.ID()}, s.cfg.HandInterval)
	return ""
}

func (s *Session) armTurn(h *game.Hand) {
	seatID := h.ActingSeat()
	if seatID == "" {
		s.stopTimer()
		return
	}
	t := tick{kind: turnTimer, handID: h.ID(), seq: h.Seq(), seatID: seatID}
	d := s.cfg.TurnTimeout
	if _, ok := s.bots[seatID]; ok {
		t.kind = botTimer
		d = s.thinkTime()
	}
	s.arm(t, d)
}

func (s *Session) thinkTime() time.Duration {
	d := s.cfg.BotThinkMin
	if span := s.cfg.BotThinkMax - s.cfg.BotThinkMin; span > 0 {
		d += time.Duration(s.rng.Int64N(int64(span) + 1))
	}
	return d
}

// arm replaces the pending timer. The callback only enqueues; the loop
// decides whether the expiry still matters.
func (s *Session) arm(t tick, d time.Duration) {
	s.stopTimer()
	s.timerID++
	t.id = s.timerID
	s.timer = s.clock.AfterFunc(d, func() {
		select {
		case s.ticks <- t:
		case <-s.done:
		}
	}, "session", t.kind.String())
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerID++
}

func (s *Session) fire(t tick) {
	if t.id != s.timerID {
		s.logger.Debug("Stale timer dropped", "kind", t.kind, "hand", t.handID, "seq", t.seq)
		return
	}
	s.timer = nil

	if t.kind == nextHandTimer {
		if err := s.startHand(); err != nil && !s.ended {
			s.logger.Warn("Could not start hand", "error", err)
		}
		return
	}

	h := s.table.Hand()
	if h == nil || h.ID() != t.handID || h.Seq() != t.seq || h.Done() || h.ActingSeat() != t.seatID {
		s.logger.Debug("Stale timer dropped", "kind", t.kind, "hand", t.handID, "seq", t.seq)
		return
	}

	switch t.kind {
	case turnTimer:
		a := s.applyTimeout(h, t.seatID)
		s.logger.Info("Turn timed out", "seat", t.seatID, "action", a)
	case botTimer:
		s.playBot(h, t.seatID)
	}
	s.afterChange()
}

// playBot asks the bot's engine for a decision and applies it. An illegal
// decision falls back to the conservative rule, then to the timeout action.
func (s *Session) playBot(h *game.Hand, seatID string) {
	b := s.bots[seatID]
	view, ok := h.PrivateView(seatID)
	if b == nil || !ok {
		s.logger.Error("No engine for acting bot", "seat", seatID)
		s.applyTimeout(h, seatID)
		return
	}
	d := b.Engine.Decide(view)
	err := h.Submit(seatID, d.Action)
	if game.ReasonOf(err) != "" {
		s.logger.Warn("Bot chose an illegal action", "bot", b.Name, "action", d.Action, "error", err)
		d = bot.Fallback(view)
		err = h.Submit(seatID, d.Action)
	}
	if game.ReasonOf(err) != "" {
		s.logger.Error("Fallback action rejected", "bot", b.Name, "action", d.Action, "error", err)
		s.applyTimeout(h, seatID)
		return
	}
	if err != nil {
		s.logger.Warn("Bot action ended the hand early", "bot", b.Name, "action", d.Action, "error", err)
		return
	}
	s.logger.Debug("Bot acted", "bot", b.Name, "action", d.Action, "rationale", d.Rationale)
}

// applyTimeout plays the default action for seatID. An abort is reported
// here; finishHand settles it.
func (s *Session) applyTimeout(h *game.Hand, seatID string) game.Action {
	a, err := h.ApplyTimeout(seatID)
	switch {
	case errors.Is(err, game.ErrHandAborted):
		s.logger.Warn("Timeout action aborted the hand", "seat", seatID, "action", a, "error", err)
	case err != nil:
		s.logger.Error("Timeout action failed", "seat", seatID, "action", a, "error", err)
	}
	return a
}

func (s *Session) end(reason string) {
	if s.ended {
		return
	}
	s.ended = true
	s.stopTimer()

	ev := SessionEndedEvent{
		Room:        s.room,
		Reason:      reason,
		HandsPlayed: s.table.HandsPlayed(),
		At:          s.clock.Now(),
	}
	for _, seat := range s.table.Seats() {
		ev.Standings = append(ev.Standings, Standing{SeatID: seat.ID, Name: seat.Name, Stack: seat.Stack, IsBot: seat.IsBot})
	}
	slices.SortStableFunc(ev.Standings, func(a, b Standing) int { return b.Stack - a.Stack })

	s.logger.Info("Session ended", "reason", reason, "hands", ev.HandsPlayed)
	s.publish()
	s.observer.OnEvent(ev)
	close(s.done)
}

// publish stores a new snapshot and hands it to the observer.
func (s *Session) publish() {
	st := State{
		Room:        s.room,
		HandsPlayed: s.table.HandsPlayed(),
		Ended:       s.ended,
		Activity:    s.activity,
		Stats:       make(map[string]bot.Stats),
	}
	for _, seat := range s.table.Seats() {
		st.Seats = append(st.Seats, game.SeatView{
			ID:     seat.ID,
			Name:   seat.Name,
			IsBot:  seat.IsBot,
			Stack:  seat.Stack,
			Bet:    seat.Bet,
			Status: seat.Status,
		})
		if !seat.IsBot {
			st.Humans++
		}
	}
	for _, id := range s.stats.Seats() {
		st.Stats[id] = s.stats.Stats(id)
	}
	if h := s.table.Hand(); h != nil {
		pv := h.PublicView()
		st.Hand = &pv
		st.Private = make(map[string]game.PrivateView, len(pv.Seats))
		for _, sv := range pv.Seats {
			if v, ok := h.PrivateView(sv.ID); ok {
				st.Private[sv.ID] = v
			}
		}
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.observer.StateChanged(st)
}

// forwarder relays table events to the bots, the stats tracker and the
// observer, on the session goroutine.
type forwarder struct{ s *Session }

func (f forwarder) OnEvent(event game.GameEvent) {
	f.s.stats.OnEvent(event)
	for _, id := range slices.Sorted(maps.Keys(f.s.bots)) {
		f.s.bots[id].Engine.OnEvent(event)
	}
	f.s.observer.OnEvent(event)
}
