package game

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/lox/ninetynine/internal/deck"
	"github.com/lox/ninetynine/internal/randutil"
)

// TestEngineOption configures test engine creation
type TestEngineOption func(*testEngineBuilder)

type testEngineBuilder struct {
	seed    int64
	seats   []testSeat
	total   *int
	turn    *int
	hands   map[int][]deck.Card
	bus     EventBus
	started bool
}

type testSeat struct {
	id, name   string
	bot        bool
	difficulty Difficulty
}

// WithSeed sets the engine's random seed.
func WithSeed(seed int64) TestEngineOption {
	return func(b *testEngineBuilder) { b.seed = seed }
}

// WithHumans adds human seats with the given ids.
func WithHumans(ids ...string) TestEngineOption {
	return func(b *testEngineBuilder) {
		for _, id := range ids {
			b.seats = append(b.seats, testSeat{id: id, name: id})
		}
	}
}

// WithBot adds a bot seat.
func WithBot(id string, difficulty Difficulty) TestEngineOption {
	return func(b *testEngineBuilder) {
		b.seats = append(b.seats, testSeat{id: id, name: id, bot: true, difficulty: difficulty})
	}
}

// WithTotal overrides the total after dealing.
func WithTotal(total int) TestEngineOption {
	return func(b *testEngineBuilder) { b.total = &total }
}

// WithTurn overrides whose turn it is after dealing.
func WithTurn(idx int) TestEngineOption {
	return func(b *testEngineBuilder) { b.turn = &idx }
}

// WithHand replaces a seat's dealt hand with the given faces (see TestCard).
func WithHand(seatIdx int, faces ...string) TestEngineOption {
	return func(b *testEngineBuilder) {
		if b.hands == nil {
			b.hands = make(map[int][]deck.Card)
		}
		cards := make([]deck.Card, len(faces))
		for i, f := range faces {
			cards[i] = TestCard(f)
			cards[i].ID = fmt.Sprintf("seat%d-card%d", seatIdx, i)
		}
		b.hands[seatIdx] = cards
	}
}

// WithTestEventBus publishes engine events on bus.
func WithTestEventBus(bus EventBus) TestEngineOption {
	return func(b *testEngineBuilder) { b.bus = bus }
}

// Unstarted leaves the engine in the waiting state.
func Unstarted() TestEngineOption {
	return func(b *testEngineBuilder) { b.started = false }
}

// NewTestEngine creates a started engine for testing with two human seats by
// default. Rigged hands replace dealt cards, so card conservation only holds
// for engines built without WithHand.
func NewTestEngine(opts ...TestEngineOption) *Engine {
	b := &testEngineBuilder{seed: 42, started: true}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.seats) == 0 {
		WithHumans("alice", "bob")(b)
	}

	engineOpts := []Option{WithRand(randutil.New(b.seed)), WithLogger(QuietLogger())}
	if b.bus != nil {
		engineOpts = append(engineOpts, WithEventBus(b.bus))
	}
	e := NewEngine(engineOpts...)
	for _, s := range b.seats {
		e.AddSeat(s.id, s.name, s.bot, s.difficulty)
	}
	if !b.started {
		return e
	}
	if err := e.StartGame(); err != nil {
		panic(err)
	}
	if b.total != nil {
		e.total = *b.total
	}
	if b.turn != nil {
		e.turn = *b.turn
	}
	for idx, cards := range b.hands {
		e.seats[idx].Hand = cards
	}
	return e
}

// TestCard builds a card from a short face: "1"-"8" and "10" are normal
// cards, "±9", "±10", "0" and "J" are specials.
func TestCard(face string) deck.Card {
	switch face {
	case "±9":
		return deck.Card{ID: face, Kind: deck.Special, Face: deck.FaceNine, Label: "9 (±9)"}
	case "±10":
		return deck.Card{ID: face, Kind: deck.Special, Face: deck.FaceTen, Label: "10 (±10)"}
	case "0":
		return deck.Card{ID: face, Kind: deck.Special, Face: deck.FaceZero, Label: "0 (Hold/Rev)"}
	case "J":
		return deck.Card{ID: face, Kind: deck.Special, Face: deck.FaceJack, Label: "J (Set 60-99)"}
	default:
		return deck.Card{ID: face, Kind: deck.Normal, Face: deck.Face(face), Label: face}
	}
}

// QuietLogger returns a logger that only reports errors, to nowhere.
func QuietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}
