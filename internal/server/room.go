package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/holdem/internal/bot"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/session"
)

var (
	ErrNotSeated  = errors.New("not seated in this room")
	ErrNameNeeded = errors.New("player name required")
)

type member struct {
	name string
	conn *Connection
}

// Room binds one session to the websocket connections of its human players.
// It is the session's observer: every snapshot is fanned out with each
// member's own private view.
type Room struct {
	name   string
	cfg    RoomConfig
	table  game.Config
	lobby  *Lobby
	logger *log.Logger

	lifecycle sync.Mutex // serialises restarts

	mu      sync.RWMutex
	sess    *session.Session
	cancel  context.CancelFunc
	members map[string]*member // by seat ID
}

func newRoom(l *Lobby, cfg RoomConfig) (*Room, error) {
	table, err := cfg.GameConfig()
	if err != nil {
		return nil, err
	}
	return &Room{
		name:    cfg.Name,
		cfg:     cfg,
		table:   table,
		lobby:   l,
		logger:  l.logger.WithPrefix("room").With("room", cfg.Name),
		members: make(map[string]*member),
	}, nil
}

// Name returns the room name
func (r *Room) Name() string { return r.name }

// Session returns the room's current session.
func (r *Room) Session() *session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sess
}

// start creates a fresh session, runs it in the lobby's group and seats the
// configured bots.
func (r *Room) start(ctx context.Context) error {
	sess, err := session.New(r.name, r.table,
		session.WithClock(r.lobby.clock),
		session.WithLogger(r.lobby.logger),
		session.WithObserver(r),
	)
	if err != nil {
		return err
	}
	cancel, err := r.lobby.spawn(sess)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.sess, r.cancel = sess, cancel
	r.mu.Unlock()

	for _, style := range r.cfg.Styles() {
		if _, err := sess.AddBot(ctx, style); err != nil {
			return fmt.Errorf("seating bots: %w", err)
		}
	}
	return nil
}

// stop ends the current session and waits for it to finish.
func (r *Room) stop(ctx context.Context) {
	r.mu.RLock()
	sess, cancel := r.sess, r.cancel
	r.mu.RUnlock()
	if sess == nil {
		return
	}
	cancel()
	select {
	case <-sess.Done():
	case <-ctx.Done():
	}
}

// Restart replaces the session with a new one and seats every connected
// member again with a fresh stack.
func (r *Room) Restart(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	return r.restart(ctx)
}

func (r *Room) restart(ctx context.Context) error {
	r.stop(ctx)
	if err := r.start(ctx); err != nil {
		return err
	}
	r.mu.RLock()
	members := make(map[string]string, len(r.members))
	for id, m := range r.members {
		members[id] = m.name
	}
	sess := r.sess
	r.mu.RUnlock()

	for id, name := range members {
		if err := sess.Join(ctx, id, name); err != nil {
			r.logger.Warn("Failed to reseat player", "seat", id, "error", err)
		}
	}
	r.logger.Info("Room restarted", "players", len(members))
	return nil
}

func (r *Room) ended() bool {
	sess := r.Session()
	if sess == nil {
		return true
	}
	select {
	case <-sess.Done():
		return true
	default:
		return false
	}
}

// Join seats a human connected on conn and returns the seat ID. A room whose
// session has ended is restarted first.
func (r *Room) Join(ctx context.Context, conn *Connection, name string) (string, error) {
	if name == "" {
		return "", ErrNameNeeded
	}
	r.lifecycle.Lock()
	if r.ended() {
		if err := r.restart(ctx); err != nil {
			r.lifecycle.Unlock()
			return "", err
		}
	}
	r.lifecycle.Unlock()

	sess := r.Session()
	seatID := "p-" + uuid.NewString()[:8]
	if err := sess.Join(ctx, seatID, name); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[seatID] = &member{name: name, conn: conn}
	if conn != nil {
		st := sess.State()
		r.send(conn, MessageTypeRoomJoined, RoomJoinedData{
			Room:   r.name,
			SeatID: seatID,
			Config: roomConfigData(r.table),
			Seats:  st.Seats,
		})
		r.send(conn, MessageTypeState, stateData(st, seatID))
	}
	return seatID, nil
}

// Leave takes seatID off the table. When the last human leaves the session
// is stopped.
func (r *Room) Leave(ctx context.Context, seatID string) error {
	r.mu.Lock()
	_, ok := r.members[seatID]
	delete(r.members, seatID)
	remaining := len(r.members)
	sess := r.sess
	r.mu.Unlock()
	if !ok {
		return ErrNotSeated
	}

	err := sess.Leave(ctx, seatID)
	if err != nil && !errors.Is(err, session.ErrSessionEnded) && !errors.Is(err, session.ErrUnknownSeat) {
		return err
	}
	if remaining == 0 {
		r.logger.Info("Last player left, stopping room")
		r.stop(ctx)
	}
	return nil
}

// Act submits an action for seatID. An empty hand ID means the current hand.
func (r *Room) Act(ctx context.Context, seatID string, data PlayerActionData) (ActionResultData, error) {
	if !r.seated(seatID) {
		return ActionResultData{}, ErrNotSeated
	}
	sess := r.Session()
	handID := data.HandID
	if handID == "" {
		if st := sess.State(); st.Hand != nil {
			handID = st.Hand.HandID
		}
	}
	result := ActionResultData{HandID: handID}

	at, err := game.ParseActionType(data.Action)
	if err != nil {
		result.Reason = string(game.ReasonInvalidAction)
		result.Detail = err.Error()
		return result, nil
	}
	err = sess.Submit(ctx, handID, seatID, game.Action{Type: at, Amount: data.Amount})
	var rejected *game.RejectedError
	switch {
	case err == nil:
		result.Accepted = true
	case errors.As(err, &rejected):
		result.Reason = string(rejected.Reason)
		result.Detail = rejected.Detail
	default:
		return result, err
	}
	return result, nil
}

// Start deals the next hand immediately.
func (r *Room) Start(ctx context.Context, seatID string) error {
	if !r.seated(seatID) {
		return ErrNotSeated
	}
	return r.Session().Start(ctx)
}

// AddBots seats count bots. An empty style picks random personalities.
func (r *Room) AddBots(ctx context.Context, seatID string, count int, style string) ([]string, error) {
	if !r.seated(seatID) {
		return nil, ErrNotSeated
	}
	if count <= 0 {
		count = 1
	}
	sess := r.Session()
	if style == "" {
		return sess.AddBots(ctx, count)
	}
	archetype, err := bot.ParseArchetype(style)
	if err != nil {
		return nil, err
	}
	var ids []string
	for range count {
		id, err := sess.AddBot(ctx, archetype)
		if err != nil {
			if len(ids) > 0 && errors.Is(err, game.ErrTableFull) {
				break
			}
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Room) seated(seatID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[seatID]
	return ok
}

// Members returns the number of connected humans.
func (r *Room) Members() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Info summarises the room
func (r *Room) Info() RoomInfo {
	info := RoomInfo{Name: r.name, MaxSeats: r.table.MaxSeats, Ended: true}
	sess := r.Session()
	if sess == nil {
		return info
	}
	st := sess.State()
	info.Seats = len(st.Seats)
	info.Humans = st.Humans
	info.Bots = len(st.Seats) - st.Humans
	info.HandsPlayed = st.HandsPlayed
	info.Ended = st.Ended || r.ended()
	info.InHand = !info.Ended && st.Hand != nil && st.Hand.Outcome == nil
	info.LastActive = st.Activity
	return info
}

// idle reports whether the room can be closed: nobody connected, no hand in
// progress and no human activity for at least d.
func (r *Room) idle(now time.Time, d time.Duration) bool {
	if r.Members() > 0 {
		return false
	}
	info := r.Info()
	return !info.InHand && now.Sub(info.LastActive) > d
}

// StateChanged implements session.Observer.
func (r *Room) StateChanged(st session.State) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for seatID, m := range r.members {
		if m.conn != nil {
			r.send(m.conn, MessageTypeState, stateData(st, seatID))
		}
	}
}

// OnEvent implements session.Observer.
func (r *Room) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.HandCompleteEvent:
		if !e.Outcome.Aborted {
			r.lobby.hands.Add(1)
		}
		out := e.Outcome
		r.broadcast(MessageTypeHandComplete, HandCompleteData{Room: r.name, Outcome: &out})
	case game.SeatEliminatedEvent:
		r.broadcast(MessageTypeSeatEliminated, SeatEliminatedData{
			Room:   r.name,
			SeatID: e.SeatID,
			Name:   e.Name,
			HandID: e.HandID,
		})
	case session.SessionEndedEvent:
		r.broadcast(MessageTypeSessionEnded, e)
	}
}

func (r *Room) broadcast(mt MessageType, data interface{}) {
	msg, err := NewMessage(mt, data)
	if err != nil {
		r.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members {
		if m.conn != nil {
			_ = m.conn.SendMessage(msg)
		}
	}
}

func (r *Room) send(conn *Connection, mt MessageType, data interface{}) {
	msg, err := NewMessage(mt, data)
	if err != nil {
		r.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}
	_ = conn.SendMessage(msg)
}
