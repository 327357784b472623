package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewsDecodeFromJSON(t *testing.T) {
	t.Parallel()
	seats := newSeats(100, 1000, 1000)
	h := newTestHand(t, seats, 0)
	require.NoError(t, h.Submit("s0", Action{Type: AllIn}))
	require.NoError(t, h.Submit("s1", Action{Type: Call}))
	require.NoError(t, h.Submit("s2", Action{Type: Call}))
	require.NoError(t, h.Submit("s1", Action{Type: Check}))

	want, ok := h.PrivateView("s2")
	require.True(t, ok)
	data, err := json.Marshal(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"phase":"flop"`)
	assert.Contains(t, string(data), `"status":"all_in"`)

	var got PrivateView
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, Flop, got.Phase)
	assert.Equal(t, want.Board, got.Board)
	assert.Equal(t, want.HoleCards, got.HoleCards)
	assert.Equal(t, want.ValidActions, got.ValidActions)
	require.Len(t, got.Seats, 3)
	for i, s := range got.Seats {
		assert.Equal(t, want.Seats[i].Status, s.Status, s.ID)
		assert.Equal(t, want.Seats[i].LastAction, s.LastAction, s.ID)
	}
	assert.Equal(t, StatusAllIn, got.Seats[0].Status)
	assert.Equal(t, Active, got.Seats[1].Status)
}

func TestStatusAndPhaseText(t *testing.T) {
	t.Parallel()
	for _, st := range []SeatStatus{Active, Folded, StatusAllIn, SittingOut} {
		text, err := st.MarshalText()
		require.NoError(t, err)
		var got SeatStatus
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, st, got)
	}
	for ph := PreFlop; ph <= Complete; ph++ {
		text, err := ph.MarshalText()
		require.NoError(t, err)
		var got Phase
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, ph, got)
	}

	var st SeatStatus
	assert.Error(t, st.UnmarshalText([]byte("asleep")))
	var ph Phase
	assert.Error(t, ph.UnmarshalText([]byte("fourth street")))
}
