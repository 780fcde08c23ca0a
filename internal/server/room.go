package server

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/ninetynine/internal/game"
)

const (
	maxNameLength = 20
	maxChatLength = 500
)

// Sender is anything a room can push messages to. RoomClosed is called
// once when the room shuts down with the sender still seated, after which
// the sender holds no seat in it.
type Sender interface {
	SendMessage(msg *Message) error
	RoomClosed(roomID string)
}

type member struct {
	seatID string
	name   string
	conn   Sender
}

// Room is one networked game: a runner plus the connections seated at it.
// The room observes its runner and fans each update out, sending every
// member the public state and only their own hand.
type Room struct {
	id        string
	runner    *game.Runner
	clock     quartz.Clock
	logger    *log.Logger
	createdAt time.Time

	mu         sync.Mutex
	members    map[string]*member
	order      []string // human seat ids in join order; order[0] is host
	bots       int
	lastActive time.Time
	closed     bool
	onEmpty    func(id string)
}

func newRoom(id string, runner *game.Runner, clock quartz.Clock, logger *log.Logger) *Room {
	now := clock.Now("room", "create")
	r := &Room{
		id:         id,
		runner:     runner,
		clock:      clock,
		logger:     logger.WithPrefix("room").With("room", id),
		createdAt:  now,
		members:    make(map[string]*member),
		lastActive: now,
	}
	runner.Subscribe(r)
	return r
}

// ID returns the room code.
func (r *Room) ID() string { return r.id }

// OnUpdate implements game.Observer. It runs under the runner lock, so it
// only queues messages.
func (r *Room) OnUpdate(update game.Update) {
	state, err := NewMessage(MessageTypeGameState, GameStateData{RoomID: r.id, Snapshot: update.Snapshot})
	if err != nil {
		r.logger.Error("Failed to encode game state", "error", err)
		return
	}
	logs := make([]*Message, 0, len(update.Events))
	for _, event := range update.Events {
		msg, err := NewMessage(MessageTypeLog, LogData{RoomID: r.id, Message: game.FormatEvent(event)})
		if err != nil {
			r.logger.Error("Failed to encode log", "error", err)
			continue
		}
		logs = append(logs, msg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		for _, msg := range logs {
			_ = m.conn.SendMessage(msg)
		}
		_ = m.conn.SendMessage(state)

		hand, err := NewMessage(MessageTypeHand, HandData{RoomID: r.id, Cards: update.Hand(m.seatID)})
		if err != nil {
			r.logger.Error("Failed to encode hand", "error", err, "seat", m.seatID)
			continue
		}
		_ = m.conn.SendMessage(hand)
	}
}

// ValidateName trims a player name and checks its length.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// Join seats a human in the lobby and returns their seat id.
func (r *Room) Join(conn Sender, name string) (string, error) {
	name, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	if r.runner.Snapshot().Status != game.StatusWaiting {
		return "", game.ErrAlreadyStarted
	}

	seatID := uuid.NewString()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrRoomNotFound
	}
	// Register first so the update announcing the seat reaches them.
	r.members[seatID] = &member{seatID: seatID, name: name, conn: conn}
	r.order = append(r.order, seatID)
	r.lastActive = r.clock.Now("room", "touch")
	r.mu.Unlock()

	if !r.runner.AddSeat(seatID, name, false, "") {
		r.mu.Lock()
		r.dropMemberLocked(seatID)
		r.mu.Unlock()
		if r.runner.Snapshot().Status != game.StatusWaiting {
			return "", game.ErrAlreadyStarted
		}
		return "", ErrRoomFull
	}
	r.logger.Info("Player joined", "seat", seatID, "name", name)
	return seatID, nil
}

// AddBot adds a bot seat. Only the host may add bots, and only in the lobby.
func (r *Room) AddBot(seatID string, difficulty game.Difficulty) (string, error) {
	if err := r.requireHost(seatID); err != nil {
		return "", err
	}
	if r.runner.Snapshot().Status != game.StatusWaiting {
		return "", game.ErrAlreadyStarted
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrRoomNotFound
	}
	r.bots++
	n := r.bots
	r.mu.Unlock()

	botID := "bot-" + uuid.NewString()
	name := fmt.Sprintf("Bot %d", n)
	if !r.runner.AddSeat(botID, name, true, difficulty) {
		return "", ErrRoomFull
	}
	r.logger.Info("Bot added", "seat", botID, "difficulty", difficulty)
	return botID, nil
}

// Start deals the first round. Host only.
func (r *Room) Start(seatID string) error {
	if err := r.requireHost(seatID); err != nil {
		return err
	}
	return r.runner.Start()
}

// Restart deals a fresh round for the same seats. Host only.
func (r *Room) Restart(seatID string) error {
	if err := r.requireHost(seatID); err != nil {
		return err
	}
	return r.runner.Restart()
}

// Play submits a card for seatID.
func (r *Room) Play(seatID, cardID string, opts game.PlayOptions) error {
	if err := r.touch(seatID); err != nil {
		return err
	}
	_, err := r.runner.Play(seatID, cardID, opts)
	return err
}

// Chat relays a message from seatID to everyone in the room.
func (r *Room) Chat(seatID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) > maxChatLength {
		text = string([]rune(text)[:maxChatLength])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	m, ok := r.members[seatID]
	if !ok {
		return ErrNotInRoom
	}
	r.lastActive = r.clock.Now("room", "touch")
	msg, err := NewMessage(MessageTypeChat, ChatMessageData{
		RoomID:     r.id,
		PlayerID:   seatID,
		PlayerName: m.name,
		Message:    text,
	})
	if err != nil {
		return err
	}
	for _, other := range r.members {
		_ = other.conn.SendMessage(msg)
	}
	return nil
}

// Leave removes a human seat, e.g. on disconnect. The room empties itself
// out of the store once the last human is gone.
func (r *Room) Leave(seatID string) {
	r.mu.Lock()
	if _, ok := r.members[seatID]; !ok {
		r.mu.Unlock()
		return
	}
	r.dropMemberLocked(seatID)
	empty := len(r.members) == 0
	onEmpty := r.onEmpty
	r.mu.Unlock()

	r.runner.RemoveSeat(seatID)
	r.logger.Info("Player left", "seat", seatID, "remaining", r.Humans())

	if empty && onEmpty != nil {
		onEmpty(r.id)
	}
}

// IsHost reports whether seatID is the room's host.
func (r *Room) IsHost(seatID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order) > 0 && r.order[0] == seatID
}

// Humans returns the number of connected humans.
func (r *Room) Humans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// LastActive returns when a human last acted in the room.
func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// Snapshot returns the public game state.
func (r *Room) Snapshot() game.Snapshot {
	return r.runner.Snapshot()
}

// Summary describes the room for the room list.
func (r *Room) Summary() RoomSummary {
	snap := r.runner.Snapshot()
	bots := 0
	for _, s := range snap.Seats {
		if s.Bot {
			bots++
		}
	}
	return RoomSummary{
		ID:        r.id,
		Status:    snap.Status,
		Seats:     len(snap.Seats),
		Humans:    r.Humans(),
		Bots:      bots,
		CreatedAt: r.createdAt,
	}
}

// Close stops bot scheduling, tells remaining members the room is gone and
// releases their seats. Every later action on the room is refused with
// ErrRoomNotFound.
func (r *Room) Close(reason string) {
	r.runner.Stop()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	members := make([]*member, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, m)
	}
	clear(r.members)
	r.order = nil
	r.mu.Unlock()

	if len(members) == 0 {
		return
	}
	msg, err := NewMessage(MessageTypeLog, LogData{RoomID: r.id, Message: reason})
	if err != nil {
		r.logger.Error("Failed to encode close message", "error", err)
	}
	for _, m := range members {
		if msg != nil {
			_ = m.conn.SendMessage(msg)
		}
		m.conn.RoomClosed(r.id)
	}
	r.logger.Info("Room closed", "reason", reason, "released", len(members))
}

// Closed reports whether the room has shut down.
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Room) requireHost(seatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if _, ok := r.members[seatID]; !ok {
		return ErrNotInRoom
	}
	if r.order[0] != seatID {
		return ErrNotHost
	}
	r.lastActive = r.clock.Now("room", "touch")
	return nil
}

func (r *Room) touch(seatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if _, ok := r.members[seatID]; !ok {
		return ErrNotInRoom
	}
	r.lastActive = r.clock.Now("room", "touch")
	return nil
}

func (r *Room) dropMemberLocked(seatID string) {
	delete(r.members, seatID)
	if i := slices.Index(r.order, seatID); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}
