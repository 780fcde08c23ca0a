package server

import (
	"context"
	"io"
	rand "math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/ninetynine/internal/bot"
	"github.com/lox/ninetynine/internal/game"
	"github.com/lox/ninetynine/internal/gameid"
	"github.com/lox/ninetynine/internal/randutil"
)

const codeAttempts = 32

// RoomStore tracks live rooms by code. Rooms are removed when their last
// human leaves or, via the sweeper, after sitting idle.
type RoomStore struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	codes    *gameid.Generator
	rng      *rand.Rand
	clock    quartz.Clock
	maxRooms int
	idleTTL  time.Duration

	thinkTime game.ThinkTimeFunc
	playPause time.Duration
	tuning    bot.Tuning

	onCreate func(*Room)
	onEvict  func(*Room)
	logger   *log.Logger
}

// StoreOption configures a RoomStore.
type StoreOption func(*RoomStore)

// WithStoreClock sets the clock used for bot turns, activity and sweeping.
func WithStoreClock(clock quartz.Clock) StoreOption {
	return func(s *RoomStore) { s.clock = clock }
}

// WithStoreRand seeds room codes, shuffles and bots.
func WithStoreRand(rng *rand.Rand) StoreOption {
	return func(s *RoomStore) { s.rng = rng }
}

// WithMaxRooms caps the number of live rooms.
func WithMaxRooms(n int) StoreOption {
	return func(s *RoomStore) { s.maxRooms = n }
}

// WithIdleTTL sets how long a room may sit without human activity.
func WithIdleTTL(ttl time.Duration) StoreOption {
	return func(s *RoomStore) { s.idleTTL = ttl }
}

// WithBotTiming sets bot think times and the pause before a card lands.
func WithBotTiming(thinkTime game.ThinkTimeFunc, playPause time.Duration) StoreOption {
	return func(s *RoomStore) {
		s.thinkTime = thinkTime
		s.playPause = playPause
	}
}

// WithBotTuning sets the tuning for every bot in every room.
func WithBotTuning(t bot.Tuning) StoreOption {
	return func(s *RoomStore) { s.tuning = t }
}

// OnCreate registers a hook called after a room is created.
func OnCreate(fn func(*Room)) StoreOption {
	return func(s *RoomStore) { s.onCreate = fn }
}

// OnEvict registers a hook called after a room is removed.
func OnEvict(fn func(*Room)) StoreOption {
	return func(s *RoomStore) { s.onEvict = fn }
}

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger *log.Logger) StoreOption {
	return func(s *RoomStore) { s.logger = logger }
}

// NewRoomStore constructs an empty store.
func NewRoomStore(opts ...StoreOption) *RoomStore {
	s := &RoomStore{
		rooms:     make(map[string]*Room),
		maxRooms:  defaultMaxRooms,
		idleTTL:   30 * time.Minute,
		thinkTime: game.DefaultThinkTime,
		playPause: game.DefaultPlayPause,
		tuning:    bot.DefaultTuning,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if s.rng == nil {
		s.rng = randutil.NewEntropy()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.logger = s.logger.WithPrefix("store")
	s.codes = gameid.NewGenerator(s.rng)
	return s
}

// Create makes a new room with a fresh code.
func (s *RoomStore) Create() (*Room, error) {
	s.mu.Lock()
	if len(s.rooms) >= s.maxRooms {
		s.mu.Unlock()
		return nil, ErrTooManyRooms
	}
	code, err := s.codes.Unique(func(c string) bool {
		_, taken := s.rooms[c]
		return taken
	}, codeAttempts)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	engine := game.NewEngine(
		game.WithRand(randutil.New(s.rng.Int64())),
		game.WithLogger(s.logger.With("room", code)),
	)
	runner := game.NewRunner(engine,
		game.WithClock(s.clock),
		game.WithAgents(bot.NewFactory(randutil.New(s.rng.Int64()), s.tuning, s.logger)),
		game.WithThinkTime(s.thinkTime),
		game.WithPlayPause(s.playPause),
		game.WithRunnerRand(randutil.New(s.rng.Int64())),
		game.WithRunnerLogger(s.logger.With("room", code)),
	)
	room := newRoom(code, runner, s.clock, s.logger)
	room.onEmpty = func(id string) {
		s.Remove(id, "Room closed.")
	}
	s.rooms[code] = room
	total := len(s.rooms)
	s.mu.Unlock()

	s.logger.Info("Room created", "room", code, "rooms", total)
	if s.onCreate != nil {
		s.onCreate(room)
	}
	return room, nil
}

// Get retrieves a room by code, ignoring case and surrounding space.
func (s *RoomStore) Get(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[gameid.Normalize(code)]
	return room, ok
}

// Remove closes and forgets a room. It reports whether the room existed.
func (s *RoomStore) Remove(code, reason string) bool {
	s.mu.Lock()
	room, ok := s.rooms[code]
	if ok {
		delete(s.rooms, code)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	room.Close(reason)
	s.logger.Info("Room removed", "room", code, "reason", reason)
	if s.onEvict != nil {
		s.onEvict(room)
	}
	return true
}

// Len returns the number of live rooms.
func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// List returns a summary of every room, oldest first.
func (s *RoomStore) List() []RoomSummary {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}
	slices.SortFunc(summaries, func(a, b RoomSummary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return summaries
}

// Sweep removes rooms idle for longer than the TTL and returns how many.
func (s *RoomStore) Sweep() int {
	now := s.clock.Now("store", "sweep")
	s.mu.RLock()
	var idle []string
	for code, room := range s.rooms {
		if now.Sub(room.LastActive()) > s.idleTTL {
			idle = append(idle, code)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, code := range idle {
		if s.Remove(code, "Room closed after inactivity.") {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("Swept idle rooms", "removed", removed)
	}
	return removed
}

// StartSweeper sweeps every interval until ctx is done.
func (s *RoomStore) StartSweeper(ctx context.Context, interval time.Duration) quartz.Waiter {
	return s.clock.TickerFunc(ctx, interval, func() error {
		s.Sweep()
		return nil
	}, "store", "sweep")
}

// Close removes every room.
func (s *RoomStore) Close() {
	s.mu.RLock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	s.mu.RUnlock()

	for _, code := range codes {
		s.Remove(code, "Server shutting down.")
	}
}
