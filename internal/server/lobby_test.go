package server

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLobby(t *testing.T, cfg *ServerConfig) (*Lobby, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	l := NewLobby(cfg, clock, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return l, clock
}

func TestCleanupRemovesIdleRooms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := manualConfig()
	cfg.Server.CleanupInterval = "24h"
	cfg.Server.StatsInterval = "48h"
	l, clock := startLobby(t, cfg)

	quiet, err := l.Room(ctx, "quiet")
	require.NoError(t, err)
	seat, err := quiet.Join(ctx, nil, "alice")
	require.NoError(t, err)
	require.NoError(t, quiet.Leave(ctx, seat))
	assert.True(t, quiet.Info().Ended, "last player leaving stops the room")

	busy, err := l.Room(ctx, "busy")
	require.NoError(t, err)
	_, err = busy.Join(ctx, nil, "bob")
	require.NoError(t, err)

	assert.Empty(t, l.Cleanup())

	clock.Advance(29 * time.Minute).MustWait(ctx)
	assert.Empty(t, l.Cleanup())

	clock.Advance(2 * time.Minute).MustWait(ctx)
	assert.Equal(t, []string{"quiet"}, l.Cleanup())

	_, ok := l.Lookup("quiet")
	assert.False(t, ok)
	_, ok = l.Lookup("busy")
	assert.True(t, ok, "rooms with a connected player stay open")
}

func TestCleanupRunsOnTicker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := manualConfig()
	cfg.Server.IdleTimeout = "1m"
	l, clock := startLobby(t, cfg)

	room, err := l.Room(ctx, "quiet")
	require.NoError(t, err)
	seat, err := room.Join(ctx, nil, "alice")
	require.NoError(t, err)
	require.NoError(t, room.Leave(ctx, seat))

	clock.Advance(5 * time.Minute).MustWait(ctx)
	require.Eventually(t, func() bool {
		_, ok := l.Lookup("quiet")
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRejoinRestartsEndedRoom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := startLobby(t, manualConfig())

	room, err := l.Room(ctx, "main")
	require.NoError(t, err)
	seat, err := room.Join(ctx, nil, "alice")
	require.NoError(t, err)
	first := room.Session()
	require.NoError(t, room.Leave(ctx, seat))
	<-first.Done()

	_, err = room.Join(ctx, nil, "alice")
	require.NoError(t, err)
	assert.NotSame(t, first, room.Session())
	assert.False(t, room.Info().Ended)
	assert.Equal(t, 1, room.Info().Humans)
}

func TestConfiguredBotsAreSeated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := manualConfig()
	cfg.Rooms[0].Bots = 3
	cfg.Rooms[0].BotStyles = []string{"maniac"}
	l, _ := startLobby(t, cfg)

	room, err := l.Room(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "default", room.Name())
	_, err = room.Join(ctx, nil, "alice")
	require.NoError(t, err)

	info := room.Info()
	assert.Equal(t, 3, info.Bots)
	assert.Equal(t, 1, info.Humans)
	assert.Equal(t, 4, info.Seats)

	st := l.Stats()
	assert.Equal(t, 1, st.Rooms)
	assert.Equal(t, 1, st.Players)
	assert.Equal(t, 1, st.ActiveGames)
}

func TestRoomRequiresName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := startLobby(t, manualConfig())
	room, err := l.Room(ctx, "main")
	require.NoError(t, err)
	_, err = room.Join(ctx, nil, "")
	assert.ErrorIs(t, err, ErrNameNeeded)
	assert.ErrorIs(t, room.Leave(ctx, "p-unknown"), ErrNotSeated)
}

func TestLobbyClosedAfterRun(t *testing.T) {
	t.Parallel()
	l := NewLobby(manualConfig(), quartz.NewMock(t), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	_, err := l.Room(context.Background(), "main")
	require.NoError(t, err)
	cancel()
	require.NoError(t, <-done)

	_, err = l.Room(context.Background(), "other")
	assert.ErrorIs(t, err, ErrLobbyClosed)
}

func TestFormatUptime(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2h 3m 4s"},
		{50 * time.Hour, "2d 2h 0m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.d))
	}
}
