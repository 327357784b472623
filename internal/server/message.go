package server

import (
	"encoding/json"
	"time"

	"github.com/lox/holdem/internal/bot"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/session"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type JoinRoomData struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

type PlayerActionData struct {
	HandID string `json:"handId"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"` // raise-to total
}

type AddBotsData struct {
	Count int    `json:"count,omitempty"` // default 1
	Style string `json:"style,omitempty"` // archetype name, random when empty
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomJoinedData struct {
	Room   string          `json:"room"`
	SeatID string          `json:"seatId"`
	Config RoomConfigData  `json:"config"`
	Seats  []game.SeatView `json:"seats"`
}

// RoomConfigData is the part of a room's rules a client needs to act.
type RoomConfigData struct {
	SmallBlind    int   `json:"smallBlind"`
	BigBlind      int   `json:"bigBlind"`
	BetIncrement  int   `json:"betIncrement"`
	StartingStack int   `json:"startingStack"`
	MaxSeats      int   `json:"maxSeats"`
	TurnTimeoutMS int64 `json:"turnTimeoutMs"`
	AutoStart     bool  `json:"autoStart"`
}

func roomConfigData(cfg game.Config) RoomConfigData {
	return RoomConfigData{
		SmallBlind:    cfg.SmallBlind,
		BigBlind:      cfg.BigBlind,
		BetIncrement:  cfg.BetIncrement,
		StartingStack: cfg.StartingStack,
		MaxSeats:      cfg.MaxSeats,
		TurnTimeoutMS: cfg.TurnTimeout.Milliseconds(),
		AutoStart:     cfg.AutoStart,
	}
}

// RoomInfo summarises a room for listings and the management API.
type RoomInfo struct {
	Name        string    `json:"name"`
	Seats       int       `json:"seats"`
	MaxSeats    int       `json:"maxSeats"`
	Humans      int       `json:"humans"`
	Bots        int       `json:"bots"`
	HandsPlayed int       `json:"handsPlayed"`
	InHand      bool      `json:"inHand"`
	Ended       bool      `json:"ended"`
	LastActive  time.Time `json:"lastActive"`
}

type RoomListData struct {
	Rooms []RoomInfo `json:"rooms"`
}

// StateData is a room snapshot as seen by one human. Private is only present
// while the recipient is dealt into the current hand.
type StateData struct {
	Room        string               `json:"room"`
	Seats       []game.SeatView      `json:"seats"`
	Hand        *game.PublicView     `json:"hand,omitempty"`
	Private     *PrivateData         `json:"private,omitempty"`
	Stats       map[string]bot.Stats `json:"stats,omitempty"`
	HandsPlayed int                  `json:"handsPlayed"`
	Ended       bool                 `json:"ended"`
}

// PrivateData is the recipient's own slice of a PrivateView.
type PrivateData struct {
	SeatID       string             `json:"seatId"`
	HoleCards    []string           `json:"holeCards"`
	ValidActions []game.ValidAction `json:"validActions,omitempty"`
	CallAmount   int                `json:"callAmount"`
}

func stateData(st session.State, seatID string) StateData {
	data := StateData{
		Room:        st.Room,
		Seats:       st.Seats,
		Hand:        st.Hand,
		Stats:       st.Stats,
		HandsPlayed: st.HandsPlayed,
		Ended:       st.Ended,
	}
	if v, ok := st.PrivateView(seatID); ok {
		p := &PrivateData{
			SeatID:       v.SeatID,
			ValidActions: v.ValidActions,
			CallAmount:   v.CallAmount,
		}
		for _, c := range v.HoleCards {
			p.HoleCards = append(p.HoleCards, c.String())
		}
		data.Private = p
	}
	return data
}

type ActionResultData struct {
	HandID   string `json:"handId"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type BotsAddedData struct {
	SeatIDs []string `json:"seatIds"`
}

type HandCompleteData struct {
	Room    string        `json:"room"`
	Outcome *game.Outcome `json:"outcome"`
}

type SeatEliminatedData struct {
	Room   string `json:"room"`
	SeatID string `json:"seatId"`
	Name   string `json:"name"`
	HandID string `json:"handId"`
}
