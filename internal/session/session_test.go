package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/holdem/internal/bot"
	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type recorder struct {
	mu     sync.Mutex
	events []game.GameEvent
	states chan State
}

func newRecorder() *recorder {
	return &recorder{states: make(chan State, 4096)}
}

func (r *recorder) OnEvent(e game.GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) StateChanged(st State) { r.states <- st }

func (r *recorder) next(t *testing.T) State {
	t.Helper()
	select {
	case st := <-r.states:
		return st
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a state change")
		return State{}
	}
}

func (r *recorder) ofType(et game.EventType) []game.GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []game.GameEvent
	for _, e := range r.events {
		if e.EventType() == et {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	s     *Session
	clock *quartz.Mock
	rec   *recorder
	ctx   context.Context
}

func start(t *testing.T, cfg game.Config, opts ...Option) *harness {
	t.Helper()
	h := &harness{clock: quartz.NewMock(t), rec: newRecorder()}
	n := 0
	opts = append([]Option{
		WithClock(h.clock),
		WithRand(randutil.New(42)),
		WithLogger(quietLogger()),
		WithObserver(h.rec),
		WithHandIDs(func() string { n++; return fmt.Sprintf("hand-%d", n) }),
	}, opts...)
	s, err := New("test", cfg, opts...)
	require.NoError(t, err)
	h.s = s

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	h.ctx = ctx
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errc:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Run did not return")
		}
	})
	h.rec.next(t)
	return h
}

func (h *harness) join(t *testing.T, ids ...string) State {
	t.Helper()
	var st State
	for _, id := range ids {
		require.NoError(t, h.s.Join(h.ctx, id, "Player "+id))
		st = h.rec.next(t)
	}
	return st
}

func (h *harness) advance(t *testing.T, d time.Duration) State {
	t.Helper()
	h.clock.Advance(d).MustWait(h.ctx)
	return h.rec.next(t)
}

func (h *harness) advanceNext(t *testing.T) State {
	t.Helper()
	_, w := h.clock.AdvanceNext()
	w.MustWait(h.ctx)
	return h.rec.next(t)
}

func chips(st State) int {
	total := 0
	for _, s := range st.Seats {
		total += s.Stack
	}
	if st.Hand != nil {
		total += st.Hand.Pot
	}
	return total
}

func other(st State, seatID string) string {
	for _, s := range st.Hand.Seats {
		if s.ID != seatID {
			return s.ID
		}
	}
	return ""
}

func TestAutoStartAfterHandInterval(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	h := start(t, cfg)

	st := h.join(t, "a")
	assert.Nil(t, st.Hand)
	_, pending := h.clock.Peek()
	assert.False(t, pending, "one player must not arm the start timer")

	st = h.join(t, "b")
	assert.Nil(t, st.Hand)
	assert.Equal(t, 2, st.Humans)
	d, pending := h.clock.Peek()
	require.True(t, pending)
	assert.Equal(t, cfg.HandInterval, d)

	st = h.advance(t, cfg.HandInterval)
	require.NotNil(t, st.Hand)
	assert.Equal(t, "hand-1", st.Hand.HandID)
	assert.Equal(t, game.PreFlop, st.Hand.Phase)
	assert.Equal(t, 30, st.Hand.Pot)
	assert.Equal(t, 2000, chips(st))

	priv, ok := st.PrivateView(st.Hand.Acting)
	require.True(t, ok)
	assert.Len(t, priv.HoleCards, 2)
	assert.NotEmpty(t, priv.ValidActions)
	assert.Len(t, h.rec.ofType(game.EventTypeHandStart), 1)
}

func TestTurnTimeoutFolds(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	h := start(t, cfg)
	h.join(t, "a", "b")
	st := h.advance(t, cfg.HandInterval)
	acting := st.Hand.Acting
	winner := other(st, acting)

	// nothing happens before the deadline
	h.clock.Advance(cfg.TurnTimeout - time.Second).MustWait(h.ctx)
	select {
	case st := <-h.rec.states:
		t.Fatalf("unexpected state change: %+v", st.Hand)
	default:
	}

	st = h.advance(t, time.Second)
	require.Equal(t, game.Complete, st.Hand.Phase)
	require.NotNil(t, st.Hand.Outcome)
	assert.Equal(t, []string{winner}, st.Hand.Outcome.Winners())

	actions := h.rec.ofType(game.EventTypeAction)
	require.Len(t, actions, 1)
	rec := actions[0].(game.ActionEvent).Record
	assert.Equal(t, acting, rec.SeatID)
	assert.Equal(t, game.Fold, rec.Action.Type)
	assert.True(t, rec.Timeout)
	assert.Equal(t, 2000, chips(st))

	d, pending := h.clock.Peek()
	require.True(t, pending, "next hand should be scheduled")
	assert.Equal(t, cfg.HandInterval, d)
}

func TestOnlyOneTimerIsArmed(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	h := start(t, cfg)
	h.join(t, "a", "b")
	st := h.advance(t, cfg.HandInterval)
	sb, bb := st.Hand.Acting, other(st, st.Hand.Acting)
	handID := st.Hand.HandID

	h.clock.Advance(10 * time.Second).MustWait(h.ctx)
	require.NoError(t, h.s.Submit(h.ctx, handID, sb, game.Action{Type: game.Call}))
	st = h.rec.next(t)
	assert.Equal(t, bb, st.Hand.Acting)

	// the small blind's original deadline passes without effect
	h.clock.Advance(20 * time.Second).MustWait(h.ctx)
	select {
	case st := <-h.rec.states:
		t.Fatalf("stale timer changed the hand: %+v", st.Hand)
	default:
	}

	// the big blind's own clock runs out: a free check, not a fold
	st = h.advance(t, 10*time.Second)
	assert.Equal(t, game.Flop, st.Hand.Phase)
	actions := h.rec.ofType(game.EventTypeAction)
	require.Len(t, actions, 2)
	rec := actions[1].(game.ActionEvent).Record
	assert.Equal(t, bb, rec.SeatID)
	assert.Equal(t, game.Check, rec.Action.Type)
	assert.True(t, rec.Timeout)
}

func TestSubmitRejections(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	h := start(t, cfg)
	h.join(t, "a", "b")
	st := h.advance(t, cfg.HandInterval)
	acting, waiting := st.Hand.Acting, other(st, st.Hand.Acting)
	handID := st.Hand.HandID

	err := h.s.Submit(h.ctx, "hand-0", acting, game.Action{Type: game.Call})
	assert.Equal(t, game.ReasonStaleHand, game.ReasonOf(err))

	err = h.s.Submit(h.ctx, handID, waiting, game.Action{Type: game.Call})
	assert.Equal(t, game.ReasonNotYourTurn, game.ReasonOf(err))

	err = h.s.Submit(h.ctx, handID, acting, game.RaiseTo(25))
	assert.Equal(t, game.ReasonRaiseTooSmall, game.ReasonOf(err))

	require.NoError(t, h.s.Submit(h.ctx, handID, acting, game.Action{Type: game.Fold}))
	st = h.rec.next(t)
	assert.Equal(t, game.Complete, st.Hand.Phase)

	err = h.s.Submit(h.ctx, handID, waiting, game.Action{Type: game.Check})
	assert.Equal(t, game.ReasonHandComplete, game.ReasonOf(err))

	st = h.advance(t, cfg.HandInterval)
	assert.Equal(t, "hand-2", st.Hand.HandID)
	err = h.s.Submit(h.ctx, handID, st.Hand.Acting, game.Action{Type: game.Fold})
	assert.Equal(t, game.ReasonStaleHand, game.ReasonOf(err))

	// the views follow the current hand only
	_, err = h.s.PublicView(handID)
	assert.ErrorIs(t, err, ErrUnknownHand)
	pv, err := h.s.PrivateView("hand-2", st.Hand.Acting)
	require.NoError(t, err)
	assert.Len(t, pv.HoleCards, 2)
}

func TestBotThinkDelay(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	h := start(t, cfg)
	h.join(t, "human")
	botID, err := h.s.AddBot(h.ctx, bot.Rock)
	require.NoError(t, err)
	h.rec.next(t)

	st := h.advance(t, cfg.HandInterval)
	if st.Hand.Acting == "human" {
		require.NoError(t, h.s.Submit(h.ctx, st.Hand.HandID, "human", game.Action{Type: game.Call}))
		st = h.rec.next(t)
	}
	require.Equal(t, botID, st.Hand.Acting)

	err = h.s.Submit(h.ctx, st.Hand.HandID, botID, game.Action{Type: game.Fold})
	assert.Equal(t, game.ReasonNotYourTurn, game.ReasonOf(err), "bots cannot be driven from outside")

	d, pending := h.clock.Peek()
	require.True(t, pending)
	assert.GreaterOrEqual(t, d, cfg.BotThinkMin)
	assert.LessOrEqual(t, d, cfg.BotThinkMax)

	h.advanceNext(t)
	var botActed bool
	for _, e := range h.rec.ofType(game.EventTypeAction) {
		r := e.(game.ActionEvent).Record
		if r.SeatID == botID {
			botActed = true
			assert.False(t, r.Timeout)
		}
	}
	assert.True(t, botActed)
}

func TestBotsOnlySessionConservesChips(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	h := start(t, cfg)
	ids, err := h.s.AddBots(h.ctx, 3)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	st := h.rec.next(t)
	total := chips(st)
	require.Equal(t, 3*cfg.BotStack, total)

	completed := 0
	for completed < 15 {
		if _, pending := h.clock.Peek(); !pending {
			<-h.s.Done()
			break
		}
		st = h.advanceNext(t)
		require.Equal(t, total, chips(st), "chips must be conserved")
		if st.Ended {
			break
		}
		if st.Hand != nil && st.Hand.Phase == game.Complete {
			require.False(t, st.Hand.Outcome.Aborted)
			completed++
		}
	}
	assert.NotEmpty(t, h.rec.ofType(game.EventTypeHandComplete))
	for _, id := range ids {
		assert.Positive(t, st.Stats[id].HandsPlayed)
	}
}

func TestLeaveMidHandEndsHeadsUpSession(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	h := start(t, cfg)
	h.join(t, "a", "b")
	st := h.advance(t, cfg.HandInterval)
	require.NotNil(t, st.Hand)

	require.NoError(t, h.s.Leave(h.ctx, "a"))
	select {
	case <-h.s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
	}

	ended := h.rec.ofType(EventTypeSessionEnded)
	require.Len(t, ended, 1)
	ev := ended[0].(SessionEndedEvent)
	assert.Equal(t, 1, ev.HandsPlayed)
	winner, ok := ev.Winner()
	require.True(t, ok)
	assert.Equal(t, "b", winner.SeatID)
	assert.Greater(t, winner.Stack, cfg.StartingStack)
	assert.True(t, h.s.State().Ended)

	err := h.s.Submit(context.Background(), st.Hand.HandID, "b", game.Action{Type: game.Check})
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestLeaveBetweenHands(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	cfg.AutoStart = false
	h := start(t, cfg)
	h.join(t, "a", "b", "c")
	require.NoError(t, h.s.Leave(h.ctx, "c"))
	st := h.rec.next(t)
	assert.Len(t, st.Seats, 2)
	assert.ErrorIs(t, h.s.Leave(h.ctx, "c"), ErrUnknownSeat)
}

func TestManualStart(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	cfg.AutoStart = false
	h := start(t, cfg)
	h.join(t, "a")
	assert.ErrorIs(t, h.s.Start(h.ctx), game.ErrSessionOver)
	h.rec.next(t)

	h.join(t, "b")
	_, pending := h.clock.Peek()
	assert.False(t, pending, "auto start is off")

	require.NoError(t, h.s.Start(h.ctx))
	st := h.rec.next(t)
	require.NotNil(t, st.Hand)
	assert.ErrorIs(t, h.s.Start(h.ctx), game.ErrHandRunning)

	select {
	case <-h.s.Done():
		t.Fatal("session should still be running")
	default:
	}
}

func TestRepeatedAbortsEndSession(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	short := func() *deck.Deck { return deck.NewFromCards(deck.MustParseCards("As Kd Qh")) }
	h := start(t, cfg, WithDecks(short))
	h.join(t, "a", "b")

	st := h.advance(t, cfg.HandInterval)
	require.NotNil(t, st.Hand.Outcome)
	assert.True(t, st.Hand.Outcome.Aborted)
	assert.Equal(t, 2000, chips(st))
	for _, s := range st.Seats {
		assert.Equal(t, cfg.StartingStack, s.Stack, "stacks are restored")
	}

	h.advance(t, cfg.HandInterval)
	select {
	case <-h.s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
	}
	assert.Len(t, h.rec.ofType(game.EventTypeHandAborted), 2)
	require.Len(t, h.rec.ofType(EventTypeSessionEnded), 1)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTimeoutAbortIsLogged(t *testing.T) {
	t.Parallel()
	cfg := game.DefaultConfig()
	var logs lockedBuffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.WarnLevel})
	// Enough for the hole cards but not the flop.
	short := func() *deck.Deck { return deck.NewFromCards(deck.MustParseCards("As Kd Qh Jc")) }
	h := start(t, cfg, WithDecks(short), WithLogger(logger))
	h.join(t, "a", "b")

	st := h.advance(t, cfg.HandInterval)
	require.NotNil(t, st.Hand)
	first := st.Hand.Acting
	require.NoError(t, h.s.Submit(h.ctx, st.Hand.HandID, first, game.Action{Type: game.Call}))
	st = h.rec.next(t)
	require.Equal(t, other(st, first), st.Hand.Acting)

	st = h.advance(t, cfg.TurnTimeout)
	require.NotNil(t, st.Hand.Outcome)
	assert.True(t, st.Hand.Outcome.Aborted)
	assert.Equal(t, 2000, chips(st))

	out := logs.String()
	assert.Contains(t, out, "Timeout action aborted the hand")
	assert.Contains(t, out, "Hand aborted, stacks restored")
}

func TestCancelEndsSession(t *testing.T) {
	t.Parallel()
	rec := newRecorder()
	s, err := New("cancel", game.DefaultConfig(), WithClock(quartz.NewMock(t)), WithLogger(quietLogger()), WithObserver(rec))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	rec.next(t)
	cancel()
	require.NoError(t, <-errc)
	<-s.Done()
	ended := rec.ofType(EventTypeSessionEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "stopped", ended[0].(SessionEndedEvent).Reason)
}

func TestStaleTicksAreDropped(t *testing.T) {
	t.Parallel()
	// driven directly, without Run, so the test owns the session goroutine
	mock := quartz.NewMock(t)
	s, err := New("direct", game.DefaultConfig(), WithClock(mock), WithRand(randutil.New(3)), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, s.table.AddSeat(game.NewSeat("a", "A", 1000, false)))
	require.NoError(t, s.table.AddSeat(game.NewSeat("b", "B", 1000, false)))
	require.NoError(t, s.startHand())

	h := s.table.Hand()
	acting, seq := h.ActingSeat(), h.Seq()

	s.fire(tick{id: s.timerID - 1, kind: turnTimer, handID: h.ID(), seq: seq, seatID: acting})
	assert.Equal(t, seq, h.Seq(), "an expiry from a replaced timer is ignored")

	s.fire(tick{id: s.timerID, kind: turnTimer, handID: "other", seq: seq, seatID: acting})
	assert.Equal(t, seq, h.Seq(), "an expiry for another hand is ignored")

	s.fire(tick{id: s.timerID, kind: turnTimer, handID: h.ID(), seq: seq, seatID: acting})
	assert.Greater(t, h.Seq(), seq, "the live timer applies the timeout")
	assert.True(t, h.Done(), "a heads-up small blind facing the big blind folds")
	actions := h.Actions()
	require.Len(t, actions, 1)
	assert.True(t, actions[0].Timeout)
}
