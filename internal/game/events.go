package game

import (
	"time"

	"github.com/lox/ninetynine/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events
const (
	EventTypeSeatJoined     EventType = "seat_joined"
	EventTypeSeatLeft       EventType = "seat_left"
	EventTypeGameStarted    EventType = "game_started"
	EventTypeCardPlayed     EventType = "card_played"
	EventTypeSeatEliminated EventType = "seat_eliminated"
	EventTypeGameEnded      EventType = "game_ended"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents anything worth narrating that happens during a game.
// Events are a side channel for logs and chat; they carry no state the
// snapshot does not already expose.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// SeatJoinedEvent is published when a seat is added in the lobby
type SeatJoinedEvent struct {
	SeatID    string
	Name      string
	Bot       bool
	timestamp time.Time
}

func (e SeatJoinedEvent) EventType() EventType { return EventTypeSeatJoined }
func (e SeatJoinedEvent) Timestamp() time.Time { return e.timestamp }

// SeatLeftEvent is published when a seat is removed
type SeatLeftEvent struct {
	SeatID    string
	Name      string
	timestamp time.Time
}

func (e SeatLeftEvent) EventType() EventType { return EventTypeSeatLeft }
func (e SeatLeftEvent) Timestamp() time.Time { return e.timestamp }

// GameStartedEvent is published when a round is dealt
type GameStartedEvent struct {
	Restart   bool
	Seats     int
	Total     int
	FirstSeat string
	FirstName string
	timestamp time.Time
}

func (e GameStartedEvent) EventType() EventType { return EventTypeGameStarted }
func (e GameStartedEvent) Timestamp() time.Time { return e.timestamp }

// CardPlayedEvent is published after a play is committed
type CardPlayedEvent struct {
	SeatID    string
	Name      string
	Card      deck.Card
	Options   PlayOptions
	Total     int
	Delta     int
	Reversed  bool
	timestamp time.Time
}

func (e CardPlayedEvent) EventType() EventType { return EventTypeCardPlayed }
func (e CardPlayedEvent) Timestamp() time.Time { return e.timestamp }

// SeatEliminatedEvent is published when a seat pushes the total past 99
type SeatEliminatedEvent struct {
	SeatID    string
	Name      string
	Card      deck.Card
	Attempted int
	timestamp time.Time
}

func (e SeatEliminatedEvent) EventType() EventType { return EventTypeSeatEliminated }
func (e SeatEliminatedEvent) Timestamp() time.Time { return e.timestamp }

// GameEndedEvent is published when the round ends. When the round ends
// because seats left, a sole seat still alive is recorded as the winner just
// as if it had outlasted the others; WinnerID is empty only when nobody alive
// remains.
type GameEndedEvent struct {
	WinnerID   string
	WinnerName string
	timestamp  time.Time
}

func (e GameEndedEvent) EventType() EventType { return EventTypeGameEnded }
func (e GameEndedEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus implementation. Delivery is
// synchronous, on the publisher's goroutine.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}

// EventRecorder buffers events until drained.
type EventRecorder struct {
	events []GameEvent
}

// OnEvent implements EventSubscriber
func (r *EventRecorder) OnEvent(event GameEvent) {
	r.events = append(r.events, event)
}

// Drain returns the buffered events and clears the buffer.
func (r *EventRecorder) Drain() []GameEvent {
	out := r.events
	r.events = nil
	return out
}
