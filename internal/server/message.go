package server

import (
	"encoding/json"
	"time"

	"github.com/lox/ninetynine/internal/deck"
	"github.com/lox/ninetynine/internal/game"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
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

type CreateRoomData struct {
	PlayerName string `json:"playerName"`
}

type CreateSinglePlayerData struct {
	PlayerName string `json:"playerName"`
	BotCount   int    `json:"botCount"`
	Difficulty string `json:"difficulty,omitempty"`
}

type JoinRoomData struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type AddBotData struct {
	RoomID     string `json:"roomId"`
	Difficulty string `json:"difficulty,omitempty"`
}

// RoomData is the payload of start and restart
type RoomData struct {
	RoomID string `json:"roomId"`
}

type PlayData struct {
	RoomID  string           `json:"roomId"`
	CardID  string           `json:"cardId"`
	Options game.PlayOptions `json:"options"`
}

type ChatData struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// Server → Client Messages

type RoomCreatedData struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type RoomJoinedData struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Host     bool   `json:"host"`
}

type GameStateData struct {
	RoomID string `json:"roomId"`
	game.Snapshot
}

// HandData is sent only to the seat that holds the cards
type HandData struct {
	RoomID string      `json:"roomId"`
	Cards  []deck.Card `json:"cards"`
}

type LogData struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type ChatMessageData struct {
	RoomID     string `json:"roomId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoomSummary holds lightweight metadata for the room list.
type RoomSummary struct {
	ID        string      `json:"id"`
	Status    game.Status `json:"status"`
	Seats     int         `json:"seats"`
	Humans    int         `json:"humans"`
	Bots      int         `json:"bots"`
	CreatedAt time.Time   `json:"createdAt"`
}
