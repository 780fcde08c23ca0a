package game

import (
	"io"
	rand "math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/ninetynine/internal/deck"
	"github.com/lox/ninetynine/internal/randutil"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// PlayResult describes an accepted play.
type PlayResult struct {
	Card       deck.Card
	Total      int
	Eliminated bool
	Ended      bool
	WinnerID   string
	Message    string
}

// Engine is the authoritative state of one game: the seat roster, the deck
// and the current round. It is not safe for concurrent use; see Runner.
type Engine struct {
	seats     []*Seat
	deck      *deck.Deck
	rng       *rand.Rand
	total     int
	direction int
	turn      int
	status    Status
	winner    string

	lastPlayedBy string
	scoreChange  int

	// version increases on every state change that can invalidate a
	// scheduled bot move.
	version uint64

	events EventBus
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for shuffling and picking the first
// seat.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEventBus publishes engine events on bus instead of a private one.
func WithEventBus(bus EventBus) Option {
	return func(e *Engine) {
		e.events = bus
	}
}

// WithDeck replaces the deck. The deck is rebuilt on every start.
func WithDeck(d *deck.Deck) Option {
	return func(e *Engine) {
		e.deck = d
	}
}

// NewEngine creates a game in the waiting state with no seats.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		direction: 1,
		status:    StatusWaiting,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = randutil.NewEntropy()
	}
	if e.deck == nil {
		e.deck = deck.New(e.rng)
	}
	if e.events == nil {
		e.events = NewEventBus()
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	e.logger = e.logger.WithPrefix("engine")
	return e
}

// Events returns the bus engine events are published on.
func (e *Engine) Events() EventBus {
	return e.events
}

// AddSeat adds a seat while the game is waiting. It returns false if the game
// has started, the table is full, or the id is taken.
func (e *Engine) AddSeat(id, name string, bot bool, difficulty Difficulty) bool {
	if e.status != StatusWaiting || len(e.seats) >= MaxSeats || e.seatIndex(id) >= 0 {
		return false
	}
	if bot && difficulty == "" {
		difficulty = Normal
	}
	if !bot {
		difficulty = ""
	}
	e.seats = append(e.seats, &Seat{
		ID:         id,
		Name:       name,
		Alive:      true,
		Bot:        bot,
		Difficulty: difficulty,
		BotState:   botState(bot),
	})
	e.version++
	e.logger.Debug("Seat added", "seat", id, "name", name, "bot", bot, "difficulty", difficulty)
	e.events.Publish(SeatJoinedEvent{SeatID: id, Name: name, Bot: bot, timestamp: time.Now()})
	return true
}

// RemoveSeat drops a seat, e.g. on disconnect. During a round the seat's hand
// goes to the discard pile and the turn moves on if it was theirs. If fewer
// than two seats remain alive the round ends immediately.
func (e *Engine) RemoveSeat(id string) bool {
	idx := e.seatIndex(id)
	if idx < 0 {
		return false
	}
	seat := e.seats[idx]
	if len(seat.Hand) > 0 {
		e.deck.Discard(seat.Hand...)
		seat.Hand = nil
	}
	e.seats = slices.Delete(e.seats, idx, idx+1)
	e.version++
	e.logger.Debug("Seat removed", "seat", id, "status", e.status)
	e.events.Publish(SeatLeftEvent{SeatID: id, Name: seat.Name, timestamp: time.Now()})

	if e.status != StatusPlaying {
		if e.turn >= len(e.seats) {
			e.turn = 0
		}
		return true
	}

	n := len(e.seats)
	switch {
	case n == 0:
		e.turn = 0
	case idx < e.turn:
		e.turn--
	case idx == e.turn:
		// Step on from the vacated position.
		if e.direction > 0 {
			e.turn = (idx - 1 + n) % n
		} else {
			e.turn = idx % n
		}
		e.advance()
	}

	if alive := e.aliveSeats(); len(alive) < MinSeats {
		winner := ""
		if len(alive) == 1 {
			winner = alive[0].ID
		}
		e.end(winner)
	}
	return true
}

// StartGame deals a new round. It requires the game to be waiting with at
// least two seats; otherwise nothing changes.
func (e *Engine) StartGame() error {
	if e.status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if len(e.seats) < MinSeats {
		return ErrNotEnoughSeats
	}
	e.deal(false)
	return nil
}

// RestartGame deals a new round for the same seats, from any status.
func (e *Engine) RestartGame() error {
	if len(e.seats) < MinSeats {
		return ErrNotEnoughSeats
	}
	e.status = StatusWaiting
	e.deal(true)
	return nil
}

func (e *Engine) deal(restart bool) {
	e.deck.Build()
	e.deck.Shuffle()

	e.total = startingTotal(len(e.seats))
	for _, s := range e.seats {
		s.Hand = e.deck.Deal(HandSize)
		s.Alive = true
		s.BotState = botState(s.Bot)
	}
	e.turn = e.rng.IntN(len(e.seats))
	e.direction = 1
	e.winner = ""
	e.lastPlayedBy = ""
	e.scoreChange = 0
	e.status = StatusPlaying
	e.version++

	first := e.seats[e.turn]
	e.logger.Info("Game started", "seats", len(e.seats), "total", e.total, "first", first.ID, "restart", restart)
	e.events.Publish(GameStartedEvent{
		Restart:   restart,
		Seats:     len(e.seats),
		Total:     e.total,
		FirstSeat: first.ID,
		FirstName: first.Name,
		timestamp: time.Now(),
	})
}

// startingTotal gives fewer seats a head start towards 99.
func startingTotal(seats int) int {
	switch seats {
	case 2:
		return 40
	case 3:
		return 20
	default:
		return 0
	}
}

// PlayCard plays cardID from seatID's hand. A rejected play returns a
// *RejectedError and leaves all state untouched. A play that pushes the total
// past 99 is accepted and eliminates the seat.
func (e *Engine) PlayCard(seatID, cardID string, opts PlayOptions) (PlayResult, error) {
	if e.status != StatusPlaying {
		return PlayResult{}, ErrGameNotActive
	}
	idx := e.seatIndex(seatID)
	if idx < 0 {
		return PlayResult{}, ErrSeatNotFound
	}
	if idx != e.turn {
		return PlayResult{}, ErrNotYourTurn
	}
	seat := e.seats[idx]
	ci := seat.cardIndex(cardID)
	if ci < 0 {
		return PlayResult{}, ErrCardNotInHand
	}
	card := seat.Hand[ci]

	newTotal, reverse, err := resolve(card, e.total, opts)
	if err != nil {
		return PlayResult{}, err
	}

	if newTotal > MaxTotal {
		e.logger.Debug("Seat busts", "seat", seat.ID, "card", card.Label, "attempted", newTotal)
		e.events.Publish(SeatEliminatedEvent{
			SeatID:    seat.ID,
			Name:      seat.Name,
			Card:      card,
			Attempted: newTotal,
			timestamp: time.Now(),
		})
		e.eliminate(idx)
		return PlayResult{
			Card:       card,
			Total:      e.total,
			Eliminated: true,
			Ended:      e.status == StatusEnded,
			WinnerID:   e.winner,
			Message:    "Player eliminated",
		}, nil
	}

	e.scoreChange = newTotal - e.total
	e.lastPlayedBy = seat.ID
	e.total = max(0, newTotal)

	seat.Hand = slices.Delete(seat.Hand, ci, ci+1)
	e.deck.Discard(card)
	if drawn, ok := e.deck.Draw(); ok {
		seat.Hand = append(seat.Hand, drawn)
	} else {
		e.logger.Debug("Deck exhausted, no replacement card", "seat", seat.ID)
	}

	if reverse {
		e.direction = -e.direction
	}
	e.version++

	e.events.Publish(CardPlayedEvent{
		SeatID:    seat.ID,
		Name:      seat.Name,
		Card:      card,
		Options:   opts,
		Total:     e.total,
		Delta:     e.scoreChange,
		Reversed:  reverse,
		timestamp: time.Now(),
	})

	e.advance()
	return PlayResult{Card: card, Total: e.total}, nil
}

// eliminate marks the seat at idx dead and moves its whole hand to the
// discard pile. The last seat alive wins; otherwise play continues from the
// eliminated seat's position.
func (e *Engine) eliminate(idx int) {
	seat := e.seats[idx]
	seat.Alive = false
	seat.BotState = botState(seat.Bot)
	e.deck.Discard(seat.Hand...)
	seat.Hand = nil
	e.version++

	alive := e.aliveSeats()
	if len(alive) == 1 {
		e.end(alive[0].ID)
		return
	}
	e.advance()
}

func (e *Engine) end(winnerID string) {
	e.status = StatusEnded
	e.winner = winnerID
	e.version++

	name := ""
	if idx := e.seatIndex(winnerID); idx >= 0 {
		name = e.seats[idx].Name
		e.turn = idx
	}
	e.logger.Info("Game ended", "winner", winnerID)
	e.events.Publish(GameEndedEvent{WinnerID: winnerID, WinnerName: name, timestamp: time.Now()})
}

// advance moves the turn to the next alive seat in the current direction. If
// a full lap finds nobody alive the turn stays put.
func (e *Engine) advance() {
	n := len(e.seats)
	if n == 0 {
		return
	}
	next := e.turn
	for step := 0; step < n; step++ {
		next = ((next+e.direction)%n + n) % n
		if e.seats[next].Alive {
			e.turn = next
			return
		}
	}
}

func (e *Engine) seatIndex(id string) int {
	for i, s := range e.seats {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) aliveSeats() []*Seat {
	var alive []*Seat
	for _, s := range e.seats {
		if s.Alive {
			alive = append(alive, s)
		}
	}
	return alive
}

func botState(bot bool) BotState {
	if bot {
		return BotIdle
	}
	return ""
}

// Status returns the game status.
func (e *Engine) Status() Status { return e.status }

// Total returns the current total.
func (e *Engine) Total() int { return e.total }

// Direction returns +1 or -1.
func (e *Engine) Direction() int { return e.direction }

// TurnIndex returns the index of the seat to act.
func (e *Engine) TurnIndex() int { return e.turn }

// Version returns the state version.
func (e *Engine) Version() uint64 { return e.version }

// WinnerID returns the winning seat, if the game ended with one.
func (e *Engine) WinnerID() string { return e.winner }

// SeatCount returns the number of seats.
func (e *Engine) SeatCount() int { return len(e.seats) }

// Seat returns a copy of the seat with the given id.
func (e *Engine) Seat(id string) (Seat, bool) {
	idx := e.seatIndex(id)
	if idx < 0 {
		return Seat{}, false
	}
	return e.seats[idx].clone(), true
}

// CurrentSeat returns a copy of the seat to act.
func (e *Engine) CurrentSeat() (Seat, bool) {
	if e.turn < 0 || e.turn >= len(e.seats) {
		return Seat{}, false
	}
	return e.seats[e.turn].clone(), true
}

// SetBotState records what a bot seat is doing for display. It does not
// change the version.
func (e *Engine) SetBotState(id string, state BotState) {
	if idx := e.seatIndex(id); idx >= 0 && e.seats[idx].Bot {
		e.seats[idx].BotState = state
	}
}

// CardCount returns the number of cards across all hands and both piles.
func (e *Engine) CardCount() int {
	n := e.deck.Count()
	for _, s := range e.seats {
		n += len(s.Hand)
	}
	return n
}
