package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-server communication protocol
const (
	// Client to server messages
	MessageTypeCreateRoom         MessageType = "create_room"
	MessageTypeCreateSinglePlayer MessageType = "create_single_player"
	MessageTypeJoinRoom           MessageType = "join_room"
	MessageTypeAddBot             MessageType = "add_bot"
	MessageTypeStart              MessageType = "start"
	MessageTypeRestart            MessageType = "restart"
	MessageTypePlay               MessageType = "play"
	MessageTypeChat               MessageType = "chat"

	// Server to client messages
	MessageTypeRoomCreated MessageType = "room_created"
	MessageTypeRoomJoined  MessageType = "room_joined"
	MessageTypeGameState   MessageType = "game_state"
	MessageTypeHand        MessageType = "hand"
	MessageTypeLog         MessageType = "log"
	MessageTypeError       MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Error codes sent in error messages alongside game.Reason values
const (
	CodeInvalidMessage     = "invalid_message"
	CodeUnknownMessageType = "unknown_message_type"
	CodeRoomNotFound       = "room_not_found"
	CodeRoomFull           = "room_full"
	CodeTooManyRooms       = "too_many_rooms"
	CodeNotInRoom          = "not_in_room"
	CodeAlreadyInRoom      = "already_in_room"
	CodeNotHost            = "not_host"
	CodeInvalidName        = "invalid_name"
	CodeInvalidDifficulty  = "invalid_difficulty"
)
