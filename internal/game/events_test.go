package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name     string
		event    GameEvent
		expected string
	}{
		{
			name:     "seat joined",
			event:    SeatJoinedEvent{SeatID: "a", Name: "Alice", timestamp: time.Now()},
			expected: "Alice joined the room.",
		},
		{
			name:     "game started",
			event:    GameStartedEvent{Seats: 3, Total: 20, FirstName: "Bob"},
			expected: "Game started! 3 players, total starts at 20, Bob goes first.",
		},
		{
			name:     "game restarted",
			event:    GameStartedEvent{Restart: true, Seats: 2, Total: 40, FirstName: "Alice"},
			expected: "Game restarted! 2 players, total starts at 40, Alice goes first.",
		},
		{
			name:     "normal card",
			event:    CardPlayedEvent{Name: "Alice", Card: TestCard("8"), Total: 98},
			expected: "Alice played 8 → 98",
		},
		{
			name:     "signed special",
			event:    CardPlayedEvent{Name: "Bob", Card: TestCard("±9"), Options: PlayOptions{Value: -9}, Total: 81},
			expected: "Bob played 9 (±9) [-9] → 81",
		},
		{
			name:     "jack shows the target",
			event:    CardPlayedEvent{Name: "Bob", Card: TestCard("J"), Options: PlayOptions{Value: 75}, Total: 75},
			expected: "Bob played J (Set 60-99) [set 75] → 75",
		},
		{
			name:     "reverse",
			event:    CardPlayedEvent{Name: "Carol", Card: TestCard("0"), Options: PlayOptions{Direction: Change}, Total: 50, Reversed: true},
			expected: "Carol played 0 (Hold/Rev) [change] → 50 (direction reversed)",
		},
		{
			name:     "elimination",
			event:    SeatEliminatedEvent{Name: "Dave", Card: TestCard("±10"), Attempted: 104},
			expected: "Dave played 10 (±10) (104) and is eliminated!",
		},
		{
			name:     "winner",
			event:    GameEndedEvent{WinnerID: "a", WinnerName: "Alice"},
			expected: "Alice wins the game!",
		},
		{
			name:     "no winner",
			event:    GameEndedEvent{},
			expected: "Game over.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatEvent(tt.event))
		})
	}
}

type countingSubscriber struct {
	count int
}

func (c *countingSubscriber) OnEvent(GameEvent) { c.count++ }

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	a, b := &countingSubscriber{}, &countingSubscriber{}
	bus.Subscribe(a)
	bus.Subscribe(b)

	bus.Publish(GameEndedEvent{})
	bus.Unsubscribe(a)
	bus.Publish(GameEndedEvent{})

	assert.Equal(t, 1, a.count)
	assert.Equal(t, 2, b.count)
}

func TestEngineEventSequence(t *testing.T) {
	rec := &EventRecorder{}
	bus := NewEventBus()
	bus.Subscribe(rec)

	e := NewTestEngine(WithTestEventBus(bus), WithTotal(92), WithTurn(0),
		WithHand(0, "5", "1", "2", "3", "4"),
		WithHand(1, "8", "1", "2", "3", "4"))

	_, err := e.PlayCard("alice", "seat0-card0", PlayOptions{})
	assert.NoError(t, err)
	_, err = e.PlayCard("bob", "seat1-card0", PlayOptions{})
	assert.NoError(t, err)

	var types []EventType
	for _, ev := range rec.Drain() {
		types = append(types, ev.EventType())
	}
	assert.Equal(t, []EventType{
		EventTypeSeatJoined,
		EventTypeSeatJoined,
		EventTypeGameStarted,
		EventTypeCardPlayed,
		EventTypeSeatEliminated,
		EventTypeGameEnded,
	}, types)
	assert.Empty(t, rec.Drain())
}
