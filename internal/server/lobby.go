package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/holdem/internal/session"
	"golang.org/x/sync/errgroup"
)

var (
	ErrLobbyClosed = errors.New("lobby is closed")
	ErrNoSuchRoom  = errors.New("no such room")
)

// Stats is the server-wide counters exposed by the management API.
type Stats struct {
	Uptime      time.Duration `json:"-"`
	UptimeText  string        `json:"uptime"`
	StartedAt   time.Time     `json:"startedAt"`
	Rooms       int           `json:"rooms"`
	ActiveGames int           `json:"activeGames"`
	Players     int           `json:"players"`     // humans seated across rooms
	Connections int           `json:"connections"` // open websockets
	HandsPlayed int64         `json:"handsPlayed"`
	RoomDetails []RoomInfo    `json:"roomDetails"`
}

// Lobby owns every room. Rooms are created on first join and each room's
// session runs in the lobby's errgroup until the lobby stops or the room is
// cleaned up.
type Lobby struct {
	cfg    *ServerConfig
	clock  quartz.Clock
	logger *log.Logger

	idleTimeout     time.Duration
	cleanupInterval time.Duration
	statsInterval   time.Duration

	started     time.Time
	hands       atomic.Int64
	connections atomic.Int64

	running chan struct{}

	mu     sync.Mutex
	rooms  map[string]*Room
	group  *errgroup.Group
	ctx    context.Context
	closed bool
}

// NewLobby creates a lobby. Nothing runs until Run is called.
func NewLobby(cfg *ServerConfig, clock quartz.Clock, logger *log.Logger) *Lobby {
	return &Lobby{
		cfg:             cfg,
		clock:           clock,
		logger:          logger.WithPrefix("lobby"),
		idleTimeout:     duration(cfg.Server.IdleTimeout, 30*time.Minute),
		cleanupInterval: duration(cfg.Server.CleanupInterval, 5*time.Minute),
		statsInterval:   duration(cfg.Server.StatsInterval, time.Hour),
		started:         clock.Now(),
		running:         make(chan struct{}),
		rooms:           make(map[string]*Room),
	}
}

// Run runs room sessions and the maintenance tasks until ctx is cancelled.
func (l *Lobby) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	cleanup := l.clock.NewTicker(l.cleanupInterval, "lobby", "cleanup")
	stats := l.clock.NewTicker(l.statsInterval, "lobby", "stats")

	l.mu.Lock()
	l.group, l.ctx = g, gctx
	l.mu.Unlock()

	g.Go(func() error {
		defer cleanup.Stop()
		defer stats.Stop()
		defer l.close()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-cleanup.C:
				l.Cleanup()
			case <-stats.C:
				l.logStats()
			}
		}
	})
	close(l.running)
	l.logger.Info("Lobby started", "idleTimeout", l.idleTimeout, "cleanupInterval", l.cleanupInterval)

	err := g.Wait()
	l.logger.Info("Lobby stopped")
	return err
}

func (l *Lobby) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// spawn runs sess in the lobby group and returns a function that stops it.
func (l *Lobby) spawn(sess *session.Session) (context.CancelFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.group == nil {
		return nil, ErrLobbyClosed
	}
	ctx, cancel := context.WithCancel(l.ctx)
	l.group.Go(func() error {
		defer cancel()
		return sess.Run(ctx)
	})
	return cancel, nil
}

// Room returns the named room, creating it from the configuration when it
// does not exist yet. It waits for the lobby to be running.
func (l *Lobby) Room(ctx context.Context, name string) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultRoom
	}
	select {
	case <-l.running:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrLobbyClosed
	}
	if r, ok := l.rooms[name]; ok {
		return r, nil
	}
	r, err := newRoom(l, l.cfg.Room(name))
	if err != nil {
		return nil, err
	}
	l.rooms[name] = r
	l.logger.Info("Room created", "room", name)
	return r, nil
}

// Lookup returns an existing room.
func (l *Lobby) Lookup(name string) (*Room, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.rooms[name]
	return r, ok
}

// Restart ends the named room's session and starts a new one.
func (l *Lobby) Restart(ctx context.Context, name string) error {
	r, ok := l.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchRoom, name)
	}
	return r.Restart(ctx)
}

func (l *Lobby) snapshot() []*Room {
	l.mu.Lock()
	defer l.mu.Unlock()
	rooms := make([]*Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		rooms = append(rooms, r)
	}
	slices.SortFunc(rooms, func(a, b *Room) int { return strings.Compare(a.name, b.name) })
	return rooms
}

// Rooms lists every room, sorted by name.
func (l *Lobby) Rooms() []RoomInfo {
	var out []RoomInfo
	for _, r := range l.snapshot() {
		out = append(out, r.Info())
	}
	return out
}

// Cleanup closes rooms with nobody connected, no hand running and no human
// activity for the idle timeout. It returns the names of the closed rooms.
func (l *Lobby) Cleanup() []string {
	now := l.clock.Now()
	var removed []string
	for _, r := range l.snapshot() {
		if !r.idle(now, l.idleTimeout) {
			continue
		}
		l.mu.Lock()
		delete(l.rooms, r.name)
		l.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r.stop(ctx)
		cancel()
		removed = append(removed, r.name)
		l.logger.Info("Removed inactive room", "room", r.name)
	}
	return removed
}

// Stats returns the server-wide counters.
func (l *Lobby) Stats() Stats {
	uptime := l.clock.Since(l.started)
	st := Stats{
		Uptime:      uptime,
		UptimeText:  formatUptime(uptime),
		StartedAt:   l.started,
		Connections: int(l.connections.Load()),
		HandsPlayed: l.hands.Load(),
		RoomDetails: l.Rooms(),
	}
	st.Rooms = len(st.RoomDetails)
	for _, info := range st.RoomDetails {
		st.Players += info.Humans
		if !info.Ended {
			st.ActiveGames++
		}
	}
	if st.RoomDetails == nil {
		st.RoomDetails = []RoomInfo{}
	}
	return st
}

func (l *Lobby) logStats() {
	st := l.Stats()
	l.logger.Info("Server stats",
		"uptime", st.UptimeText,
		"rooms", st.Rooms,
		"games", st.ActiveGames,
		"players", st.Players,
		"connections", st.Connections,
		"hands", st.HandsPlayed)
}

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, h, m)
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
