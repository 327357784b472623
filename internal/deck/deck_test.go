package deck

import (
	"testing"

	"github.com/lox/holdem/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	t.Parallel()

	d := New(randutil.New(1))
	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool, 52)
	for d.Remaining() > 0 {
		c, err := d.Deal()
		require.NoError(t, err)
		require.True(t, c.Valid(), "invalid card %v", c)
		require.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestDeckAccounting(t *testing.T) {
	t.Parallel()

	d := New(randutil.New(7))
	ops := []func() error{
		func() error { _, err := d.DealN(12); return err },
		d.Burn,
		func() error { _, err := d.DealN(3); return err },
		d.Burn,
		func() error { _, err := d.Deal(); return err },
		d.Burn,
		func() error { _, err := d.Deal(); return err },
	}
	for _, op := range ops {
		require.NoError(t, op())
		assert.Equal(t, 52, d.Remaining()+d.Dealt()+d.Burned())
	}
	assert.Equal(t, 17, d.Dealt())
	assert.Equal(t, 3, d.Burned())
}

func TestShuffleIsDeterministicForSeed(t *testing.T) {
	t.Parallel()

	a, err := New(randutil.New(42)).DealN(52)
	require.NoError(t, err)
	b, err := New(randutil.New(42)).DealN(52)
	require.NoError(t, err)
	c, err := New(randutil.New(43)).DealN(52)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, Standard(), a, "shuffle left the deck in order")
}

func TestDeckUnderflow(t *testing.T) {
	t.Parallel()

	d := NewFromCards(MustParseCards("AsKd"))
	c, err := d.Deal()
	require.NoError(t, err)
	assert.Equal(t, "As", c.String())

	require.NoError(t, d.Burn())
	_, err = d.Deal()
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, d.Burn(), ErrExhausted)

	_, err = NewFromCards(MustParseCards("2c3c")).DealN(3)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestParseCards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "royal flush",
			input: "AsKsQsJsTs",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Spades, Rank: King},
				{Suit: Spades, Rank: Queen},
				{Suit: Spades, Rank: Jack},
				{Suit: Spades, Rank: Ten},
			},
		},
		{
			name:  "spaces and mixed case",
			input: "ah Kd 2C",
			expected: []Card{
				{Suit: Hearts, Rank: Ace},
				{Suit: Diamonds, Rank: King},
				{Suit: Clubs, Rank: Two},
			},
		},
		{name: "invalid rank", input: "XsKs", wantErr: true},
		{name: "invalid suit", input: "AxKs", wantErr: true},
		{name: "odd length", input: "AsK", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCardText(t *testing.T) {
	t.Parallel()

	c := NewCard(Diamonds, Ten)
	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Td", string(text))
	assert.Equal(t, "T♦", c.Pretty())
	assert.True(t, c.Suit.IsRed())

	var back Card
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, c, back)

	_, err = Card{}.MarshalText()
	assert.Error(t, err)
}

func TestCardIndexIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[int]bool)
	for _, c := range Standard() {
		i := c.Index()
		require.True(t, i >= 0 && i < 52)
		require.False(t, seen[i])
		seen[i] = true
	}
}
