package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Time allowed for a room to handle one request
	requestTimeout = 10 * time.Second
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection represents a WebSocket connection to a player
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	lobby     *Lobby
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu     sync.RWMutex
	room   *Room
	seatID string
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, lobby *Lobby, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		lobby:  lobby,
		logger: logger.WithPrefix("conn").With("remote", conn.RemoteAddr().String()),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection. onClose runs once the read side has
// finished.
func (c *Connection) Start(onClose func(*Connection)) {
	go c.writePump()
	go func() {
		c.readPump()
		if onClose != nil {
			onClose(c)
		}
	}()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client without blocking. A client
// that cannot keep up is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Seat returns the room and seat this connection plays, if any.
func (c *Connection) Seat() (*Room, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room, c.seatID
}

func (c *Connection) setSeat(room *Room, seatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room, c.seatID = room, seatID
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	_, seatID := c.Seat()
	c.logger.Debug("Received message", "type", msg.Type, "seat", seatID)

	ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
	defer cancel()

	switch msg.Type {
	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, ErrCodeInvalidMessage, "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(ctx, msg, data)

	case MessageTypeLeaveRoom:
		c.handleLeaveRoom(ctx, msg)

	case MessageTypePlayerAction:
		var data PlayerActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, ErrCodeInvalidMessage, "Failed to parse player action data")
			return
		}
		c.handlePlayerAction(ctx, msg, data)

	case MessageTypeStartGame:
		c.handleStartGame(ctx, msg)

	case MessageTypeAddBots:
		var data AddBotsData
		if len(msg.Data) > 0 && string(msg.Data) != "null" {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError(msg, ErrCodeInvalidMessage, "Failed to parse add bots data")
				return
			}
		}
		c.handleAddBots(ctx, msg, data)

	case MessageTypeListRooms:
		c.reply(msg, MessageTypeRoomList, RoomListData{Rooms: c.lobby.Rooms()})

	default:
		c.sendError(msg, ErrCodeUnknownType, "Unknown message type: "+msg.Type.String())
	}
}

// reply sends a response carrying the request's ID
func (c *Connection) reply(req *Message, mt MessageType, data interface{}) {
	msg, err := NewMessage(mt, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}
	if req != nil {
		msg.RequestID = req.RequestID
	}
	_ = c.SendMessage(msg)
}

// sendError sends an error message to the client
func (c *Connection) sendError(req *Message, code, message string) {
	c.reply(req, MessageTypeError, ErrorData{Code: code, Message: message})
}

func (c *Connection) handleJoinRoom(ctx context.Context, msg *Message, data JoinRoomData) {
	if room, _ := c.Seat(); room != nil {
		c.sendError(msg, ErrCodeJoinFailed, "Already seated in room "+room.Name())
		return
	}
	room, err := c.lobby.Room(ctx, data.Room)
	if err != nil {
		c.sendError(msg, ErrCodeJoinFailed, err.Error())
		return
	}
	seatID, err := room.Join(ctx, c, data.Name)
	if err != nil {
		c.sendError(msg, ErrCodeJoinFailed, err.Error())
		return
	}
	c.setSeat(room, seatID)
	c.logger.Info("Player joined room", "room", room.Name(), "seat", seatID, "name", data.Name)
}

func (c *Connection) handleLeaveRoom(ctx context.Context, msg *Message) {
	room, seatID := c.Seat()
	if room == nil {
		c.sendError(msg, ErrCodeNotInRoom, "Not seated in a room")
		return
	}
	c.setSeat(nil, "")
	if err := room.Leave(ctx, seatID); err != nil {
		c.sendError(msg, ErrCodeLeaveFailed, err.Error())
		return
	}
	c.reply(msg, MessageTypeRoomLeft, map[string]string{"room": room.Name()})
}

func (c *Connection) handlePlayerAction(ctx context.Context, msg *Message, data PlayerActionData) {
	room, seatID := c.Seat()
	if room == nil {
		c.sendError(msg, ErrCodeNotInRoom, "Not seated in a room")
		return
	}
	result, err := room.Act(ctx, seatID, data)
	if err != nil {
		result.Reason = "unavailable"
		result.Detail = err.Error()
	}
	c.reply(msg, MessageTypeActionResult, result)
}

func (c *Connection) handleStartGame(ctx context.Context, msg *Message) {
	room, seatID := c.Seat()
	if room == nil {
		c.sendError(msg, ErrCodeNotInRoom, "Not seated in a room")
		return
	}
	if err := room.Start(ctx, seatID); err != nil {
		c.sendError(msg, ErrCodeStartFailed, err.Error())
	}
}

func (c *Connection) handleAddBots(ctx context.Context, msg *Message, data AddBotsData) {
	room, seatID := c.Seat()
	if room == nil {
		c.sendError(msg, ErrCodeNotInRoom, "Not seated in a room")
		return
	}
	ids, err := room.AddBots(ctx, seatID, data.Count, data.Style)
	if err != nil && len(ids) == 0 {
		c.sendError(msg, ErrCodeAddBotsFailed, err.Error())
		return
	}
	c.reply(msg, MessageTypeBotsAdded, BotsAddedData{SeatIDs: ids})
}

// leave takes the player out of their room after a disconnect.
func (c *Connection) leave() {
	room, seatID := c.Seat()
	if room == nil {
		return
	}
	c.setSeat(nil, "")
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := room.Leave(ctx, seatID); err != nil {
		c.logger.Warn("Failed to leave room on disconnect", "room", room.Name(), "seat", seatID, "error", err)
	}
}
