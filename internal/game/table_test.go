package game

import (
	"fmt"
	"testing"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, bus EventBus, stacks ...int) *Table {
	t.Helper()
	table := NewTable(DefaultConfig(), randutil.New(42), bus, quietLogger())
	for _, s := range newSeats(stacks...) {
		require.NoError(t, table.AddSeat(s))
	}
	return table
}

func foldToBigBlind(t *testing.T, h *Hand) {
	t.Helper()
	for !h.Done() {
		require.NoError(t, h.Submit(h.ActingSeat(), Action{Type: Fold}))
	}
}

func TestTableRotatesButton(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, nil, 1000, 1000, 1000)

	var dealers []int
	for i := range 6 {
		h, err := table.NewHand(fmt.Sprintf("h%d", i))
		require.NoError(t, err)
		assert.Equal(t, i+1, h.Number())
		dealers = append(dealers, h.Dealer())
		foldToBigBlind(t, h)
		assert.Empty(t, table.FinishHand())
		assert.Equal(t, 3000, table.TotalChips())
	}
	for i := 1; i < len(dealers); i++ {
		assert.Equal(t, (dealers[i-1]+1)%3, dealers[i])
	}
	assert.Equal(t, 6, table.HandsPlayed())
}

func TestTableRejectsSecondHandWhileRunning(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, nil, 1000, 1000)
	_, err := table.NewHand("h1")
	require.NoError(t, err)
	_, err = table.NewHand("h2")
	require.ErrorIs(t, err, ErrHandRunning)
}

func TestTableAddSeat(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, nil, 1000, 1000)
	require.ErrorIs(t, table.AddSeat(NewSeat("s0", "dup", 1000, false)), ErrSeatTaken)

	cfg := DefaultConfig()
	cfg.MaxSeats = 2
	small := NewTable(cfg, nil, nil, quietLogger())
	require.NoError(t, small.AddSeat(NewSeat("a", "A", 1000, false)))
	require.NoError(t, small.AddSeat(NewSeat("b", "B", 1000, false)))
	require.ErrorIs(t, small.AddSeat(NewSeat("c", "C", 1000, false)), ErrTableFull)
}

func TestTableEliminatesBustedSeat(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	bus := NewEventBus()
	bus.Subscribe(rec)
	table := newTestTable(t, bus, 20, 1000)
	table.dealer = 0 // button moves to s1, so s0 posts the big blind all-in

	// hole cards go s0, s1, s0, s1
	d := deck.NewFromCards(deck.MustParseCards("7c Ah 2d Ad Qc 3s 8h 9c Qd Js Qh 4d"))
	h, err := table.NewHand("h1", WithDeck(d))
	require.NoError(t, err)
	seats := table.Seats()
	assert.Equal(t, StatusAllIn, seats[0].Status)

	require.NoError(t, h.Submit("s1", Action{Type: Call}))
	require.True(t, h.Done())

	eliminated := table.FinishHand()
	require.Len(t, eliminated, 1)
	assert.Equal(t, "s0", eliminated[0].ID)
	assert.True(t, seats[0].Eliminated)
	assert.Equal(t, 1020, seats[1].Stack)

	events := rec.ofType(EventTypeSeatEliminated)
	require.Len(t, events, 1)
	assert.Equal(t, "s0", events[0].(SeatEliminatedEvent).SeatID)

	_, err = table.NewHand("h2")
	require.ErrorIs(t, err, ErrSessionOver)
}

func TestTableRemoveSeatDuringHand(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, nil, 1000, 1000, 1000)
	h, err := table.NewHand("h1")
	require.NoError(t, err)

	leaver := h.ActingSeat()
	require.NoError(t, table.RemoveSeat(leaver))
	s, ok := table.Seat(leaver)
	require.True(t, ok, "seat stays until the hand is settled")
	assert.Equal(t, Folded, s.Status)
	assert.Equal(t, 2, table.Eligible())

	foldToBigBlind(t, h)
	table.FinishHand()
	_, ok = table.Seat(leaver)
	assert.False(t, ok)
	assert.Len(t, table.Seats(), 2)

	require.ErrorIs(t, table.RemoveSeat("nobody"), ErrNoSuchSeat)
}

func TestFormatter(t *testing.T) {
	t.Parallel()
	names := map[string]string{"s0": "Alice", "s1": "Bob"}
	f := NewFormatter(FormatOptions{Perspective: "s1", ShowHands: true}, func(id string) string { return names[id] })

	assert.Equal(t, "Alice: calls $10 (pot $40)",
		f.FormatAction(ActionRecord{SeatID: "s0", Action: Action{Type: Call}, Chips: 10, PotTo: 40}))
	assert.Equal(t, "You: times out and folds",
		f.FormatAction(ActionRecord{SeatID: "s1", Action: Action{Type: Fold}, Timeout: true}))
	assert.Equal(t, "Alice: raises to $60 (pot $90)",
		f.FormatAction(ActionRecord{SeatID: "s0", Action: RaiseTo(60), BetTo: 60, PotTo: 90}))
	assert.Equal(t, "*** TURN *** [Kd Qs 9c] [8s]",
		f.FormatPhase(Turn, deck.MustParseCards("KdQs9c8s")))
	assert.Equal(t, "*** FLOP *** [Kd Qs 9c]",
		f.Format(PhaseChangedEvent{Phase: Flop, Board: deck.MustParseCards("KdQs9c")}))
	assert.Equal(t, "Alice is eliminated", f.Format(SeatEliminatedEvent{SeatID: "s0"}))

	out := Outcome{Pots: []PotResult{{Amount: 40, Winners: []string{"s0"}}}}
	assert.Equal(t, "Pot $40: Alice", f.FormatOutcome(out))
}
