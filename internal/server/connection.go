package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/ninetynine/internal/game"
	"github.com/lox/ninetynine/internal/gameid"
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

	minSinglePlayerBots = 1
	maxSinglePlayerBots = 3
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// Connection represents a WebSocket connection to a client. A connection
// sits in at most one room at a time.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	store     *RoomStore
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu     sync.RWMutex
	room   *Room
	seatID string
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, store *RoomStore) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		store:  store,
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client without blocking. A client
// that falls too far behind is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// Seat returns the connection's room and seat, if any.
func (c *Connection) Seat() (*Room, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room, c.seatID
}

func (c *Connection) setSeat(room *Room, seatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
	c.seatID = seatID
}

// RoomClosed implements Sender. The room has already dropped the seat, so
// the connection only forgets it.
func (c *Connection) RoomClosed(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room != nil && c.room.ID() == roomID {
		c.room, c.seatID = nil, ""
		c.logger.Info("Seat released by closed room", "room", roomID)
	}
}

// leave gives up the connection's seat, if it holds one.
func (c *Connection) leave() {
	c.mu.Lock()
	room, seatID := c.room, c.seatID
	c.room, c.seatID = nil, ""
	c.mu.Unlock()

	if room != nil {
		room.Leave(seatID)
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	_, seatID := c.Seat()
	c.logger.Debug("Received message", "type", msg.Type, "seat", seatID)

	var err error
	switch msg.Type {
	case MessageTypeCreateRoom:
		var data CreateRoomData
		if !c.decode(msg, &data) {
			return
		}
		err = c.handleCreateRoom(data)

	case MessageTypeCreateSinglePlayer:
		var data CreateSinglePlayerData
		if !c.decode(msg, &data) {
			return
		}
		err = c.handleCreateSinglePlayer(data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if !c.decode(msg, &data) {
			return
		}
		err = c.handleJoinRoom(data)

	case MessageTypeAddBot:
		var data AddBotData
		if !c.decode(msg, &data) {
			return
		}
		err = c.handleAddBot(data)

	case MessageTypeStart, MessageTypeRestart:
		var data RoomData
		if !c.decode(msg, &data) {
			return
		}
		err = c.handleStart(data, msg.Type == MessageTypeRestart)

	case MessageTypePlay:
		var data PlayData
		if !c.decode(msg, &data) {
			return
		}
		err = c.handlePlay(data)

	case MessageTypeChat:
		var data ChatData
		if !c.decode(msg, &data) {
			return
		}
		err = c.handleChat(data)

	default:
		c.sendError(ErrorData{Code: CodeUnknownMessageType, Message: "Unknown message type: " + msg.Type.String()}, msg.RequestID)
		return
	}

	if err != nil {
		c.logger.Debug("Request refused", "type", msg.Type, "error", err)
		c.sendError(errorData(err), msg.RequestID)
	}
}

func (c *Connection) decode(msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError(ErrorData{Code: CodeInvalidMessage, Message: "Failed to parse " + msg.Type.String() + " data"}, msg.RequestID)
		return false
	}
	return true
}

// sendError sends an error message to the client
func (c *Connection) sendError(data ErrorData, requestID string) {
	errorMsg, err := NewMessage(MessageTypeError, data)
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	errorMsg.RequestID = requestID

	_ = c.SendMessage(errorMsg) // Ignore send errors during error handling
}

func (c *Connection) reply(msgType MessageType, data any) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", msgType, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

// createAndJoin makes a room and seats this connection as its host.
func (c *Connection) createAndJoin(name string) (*Room, string, error) {
	if room, _ := c.Seat(); room != nil {
		return nil, "", ErrAlreadyInRoom
	}
	name, err := ValidateName(name)
	if err != nil {
		return nil, "", err
	}

	room, err := c.store.Create()
	if err != nil {
		return nil, "", err
	}
	seatID, err := room.Join(c, name)
	if err != nil {
		c.store.Remove(room.ID(), "Room closed.")
		return nil, "", err
	}
	c.setSeat(room, seatID)
	return room, seatID, nil
}

func (c *Connection) handleCreateRoom(data CreateRoomData) error {
	room, seatID, err := c.createAndJoin(data.PlayerName)
	if err != nil {
		return err
	}
	c.logger.Info("Room created", "room", room.ID(), "seat", seatID)
	c.reply(MessageTypeRoomCreated, RoomCreatedData{RoomID: room.ID(), PlayerID: seatID})
	return nil
}

func (c *Connection) handleCreateSinglePlayer(data CreateSinglePlayerData) error {
	difficulty, err := game.ParseDifficulty(data.Difficulty)
	if err != nil {
		return ErrInvalidDifficulty
	}
	bots := min(max(data.BotCount, minSinglePlayerBots), maxSinglePlayerBots)

	room, seatID, err := c.createAndJoin(data.PlayerName)
	if err != nil {
		return err
	}
	c.reply(MessageTypeRoomCreated, RoomCreatedData{RoomID: room.ID(), PlayerID: seatID})

	for range bots {
		if _, err := room.AddBot(seatID, difficulty); err != nil {
			return err
		}
	}
	c.logger.Info("Single player room created", "room", room.ID(), "bots", bots, "difficulty", difficulty)
	return room.Start(seatID)
}

func (c *Connection) handleJoinRoom(data JoinRoomData) error {
	if room, _ := c.Seat(); room != nil {
		return ErrAlreadyInRoom
	}
	room, ok := c.store.Get(data.RoomID)
	if !ok {
		return ErrRoomNotFound
	}
	seatID, err := room.Join(c, data.PlayerName)
	if err != nil {
		return err
	}
	c.setSeat(room, seatID)
	c.reply(MessageTypeRoomJoined, RoomJoinedData{
		RoomID:   room.ID(),
		PlayerID: seatID,
		Host:     room.IsHost(seatID),
	})
	return nil
}

// seated returns the connection's room if it matches roomID.
func (c *Connection) seated(roomID string) (*Room, string, error) {
	room, seatID := c.Seat()
	if room == nil || (roomID != "" && !sameRoom(room.ID(), roomID)) {
		return nil, "", ErrNotInRoom
	}
	return room, seatID, nil
}

func sameRoom(id, requested string) bool {
	return id == gameid.Normalize(requested)
}

func (c *Connection) handleAddBot(data AddBotData) error {
	room, seatID, err := c.seated(data.RoomID)
	if err != nil {
		return err
	}
	difficulty, err := game.ParseDifficulty(data.Difficulty)
	if err != nil {
		return ErrInvalidDifficulty
	}
	_, err = room.AddBot(seatID, difficulty)
	return err
}

func (c *Connection) handleStart(data RoomData, restart bool) error {
	room, seatID, err := c.seated(data.RoomID)
	if err != nil {
		return err
	}
	if restart {
		return room.Restart(seatID)
	}
	return room.Start(seatID)
}

func (c *Connection) handlePlay(data PlayData) error {
	room, seatID, err := c.seated(data.RoomID)
	if err != nil {
		return err
	}
	return room.Play(seatID, data.CardID, data.Options)
}

func (c *Connection) handleChat(data ChatData) error {
	room, seatID, err := c.seated(data.RoomID)
	if err != nil {
		return err
	}
	return room.Chat(seatID, data.Message)
}
