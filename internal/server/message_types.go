package server

// MessageType names a websocket message
type MessageType string

// Message type constants
const (
	// Client → Server
	MessageTypeJoinRoom     MessageType = "join_room"
	MessageTypeLeaveRoom    MessageType = "leave_room"
	MessageTypePlayerAction MessageType = "player_action"
	MessageTypeStartGame    MessageType = "start_game"
	MessageTypeAddBots      MessageType = "add_bots"
	MessageTypeListRooms    MessageType = "list_rooms"

	// Server → Client
	MessageTypeRoomJoined     MessageType = "room_joined"
	MessageTypeRoomLeft       MessageType = "room_left"
	MessageTypeRoomList       MessageType = "room_list"
	MessageTypeState          MessageType = "state"
	MessageTypeActionResult   MessageType = "action_result"
	MessageTypeBotsAdded      MessageType = "bots_added"
	MessageTypeHandComplete   MessageType = "hand_complete"
	MessageTypeSeatEliminated MessageType = "seat_eliminated"
	MessageTypeSessionEnded   MessageType = "session_ended"
	MessageTypeError          MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Error codes sent in ErrorData.Code
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeUnknownType    = "unknown_message_type"
	ErrCodeNotInRoom      = "not_in_room"
	ErrCodeJoinFailed     = "join_failed"
	ErrCodeStartFailed    = "start_failed"
	ErrCodeAddBotsFailed  = "add_bots_failed"
	ErrCodeLeaveFailed    = "leave_failed"
)
