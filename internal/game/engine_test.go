package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ninetynine/internal/deck"
	"github.com/lox/ninetynine/internal/randutil"
)

// state captures everything a rejected play must leave alone.
type state struct {
	Snapshot Snapshot
	Hands    map[string][]deck.Card
	Discard  []deck.Card
}

func captureState(e *Engine) state {
	hands := make(map[string][]deck.Card)
	for _, s := range e.seats {
		hands[s.ID] = e.Hand(s.ID)
	}
	return state{Snapshot: e.Snapshot(), Hands: hands, Discard: e.deck.DiscardPile()}
}

func TestStartGame(t *testing.T) {
	tests := []struct {
		seats int
		total int
	}{
		{2, 40},
		{3, 20},
		{4, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d seats", tt.seats), func(t *testing.T) {
			ids := make([]string, tt.seats)
			for i := range ids {
				ids[i] = fmt.Sprintf("p%d", i)
			}
			e := NewTestEngine(WithHumans(ids...))

			assert.Equal(t, StatusPlaying, e.Status())
			assert.Equal(t, tt.total, e.Total())
			assert.Equal(t, 1, e.Direction())
			assert.GreaterOrEqual(t, e.TurnIndex(), 0)
			assert.Less(t, e.TurnIndex(), tt.seats)
			for _, id := range ids {
				assert.Len(t, e.Hand(id), HandSize)
			}
			assert.Equal(t, deck.Size-HandSize*tt.seats, e.Snapshot().DrawCount)
			assert.Equal(t, deck.Size, e.CardCount())
		})
	}
}

func TestStartGameRequiresTwoSeats(t *testing.T) {
	e := NewTestEngine(WithHumans("solo"), Unstarted())

	err := e.StartGame()
	require.ErrorIs(t, err, ErrNotEnoughSeats)
	assert.Equal(t, StatusWaiting, e.Status())
	assert.Empty(t, e.Hand("solo"))
}

func TestStartGameOnlyFromWaiting(t *testing.T) {
	e := NewTestEngine()
	before := captureState(e)

	require.ErrorIs(t, e.StartGame(), ErrAlreadyStarted)
	assert.Equal(t, before, captureState(e))
}

func TestAddSeat(t *testing.T) {
	t.Run("rejects a fifth seat", func(t *testing.T) {
		e := NewTestEngine(WithHumans("a", "b", "c", "d"), Unstarted())
		assert.False(t, e.AddSeat("e", "E", false, ""))
		assert.Equal(t, 4, e.SeatCount())
	})

	t.Run("rejects after start", func(t *testing.T) {
		e := NewTestEngine()
		assert.False(t, e.AddSeat("late", "Late", false, ""))
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		e := NewTestEngine(Unstarted())
		assert.False(t, e.AddSeat("alice", "Alice again", false, ""))
	})

	t.Run("bots default to normal", func(t *testing.T) {
		e := NewTestEngine(Unstarted())
		require.True(t, e.AddSeat("bot", "Bot", true, ""))
		seat, ok := e.Seat("bot")
		require.True(t, ok)
		assert.Equal(t, Normal, seat.Difficulty)
		assert.Equal(t, BotIdle, seat.BotState)
	})
}

func TestPlayNormalCard(t *testing.T) {
	e := NewTestEngine(WithTotal(90), WithTurn(0), WithHand(0, "8", "1", "2", "3", "4"))

	res, err := e.PlayCard("alice", "seat0-card0", PlayOptions{})
	require.NoError(t, err)

	assert.False(t, res.Eliminated)
	assert.Equal(t, 98, res.Total)
	assert.Equal(t, 98, e.Total())
	assert.Equal(t, 1, e.TurnIndex(), "turn passes to bob")
	assert.Len(t, e.Hand("alice"), HandSize, "hand is replenished")
	for _, c := range e.Hand("alice") {
		assert.NotEqual(t, "seat0-card0", c.ID)
	}

	snap := e.Snapshot()
	require.NotNil(t, snap.LastCard)
	assert.Equal(t, "seat0-card0", snap.LastCard.ID)
	assert.Equal(t, "alice", snap.LastPlayedBy)
	assert.Equal(t, 8, snap.ScoreChange)
}

func TestBustEliminatesAndEndsTwoSeatGame(t *testing.T) {
	rec := &EventRecorder{}
	bus := NewEventBus()
	bus.Subscribe(rec)
	e := NewTestEngine(WithTestEventBus(bus), WithTotal(95), WithTurn(0), WithHand(0, "±9", "1", "2", "3", "4"))
	rec.Drain()

	res, err := e.PlayCard("alice", "seat0-card0", PlayOptions{Value: 9})
	require.NoError(t, err)

	assert.True(t, res.Eliminated)
	assert.True(t, res.Ended)
	assert.Equal(t, "bob", res.WinnerID)
	assert.Equal(t, 95, e.Total(), "total is unchanged by a bust")
	assert.Equal(t, StatusEnded, e.Status())

	snap := e.Snapshot()
	require.NotNil(t, snap.Winner)
	assert.Equal(t, "bob", snap.Winner.ID)
	assert.Equal(t, "bob", snap.CurrentSeatID())

	var ended int
	for _, ev := range rec.Drain() {
		if ev.EventType() == EventTypeGameEnded {
			ended++
		}
	}
	assert.Equal(t, 1, ended)

	_, err = e.PlayCard("bob", e.Hand("bob")[0].ID, PlayOptions{})
	assert.ErrorIs(t, err, ErrGameNotActive)
}

func TestEliminationMovesHandToDiscard(t *testing.T) {
	e := NewTestEngine(
		WithHumans("alice", "bob", "carol"),
		WithTotal(95),
		WithTurn(1),
		WithHand(1, "10", "1", "2", "J", "0"),
	)
	prior := e.Hand("bob")

	res, err := e.PlayCard("bob", "seat1-card0", PlayOptions{})
	require.NoError(t, err)
	require.True(t, res.Eliminated)
	assert.False(t, res.Ended)

	assert.Empty(t, e.Hand("bob"))
	bob, _ := e.Seat("bob")
	assert.False(t, bob.Alive)

	discard := e.deck.DiscardPile()
	for _, c := range prior {
		assert.Contains(t, discard, c)
	}
	assert.Equal(t, StatusPlaying, e.Status())
	assert.Equal(t, 2, e.TurnIndex(), "play continues from bob's position")
}

func TestTurnSkipsEliminatedSeats(t *testing.T) {
	e := NewTestEngine(WithHumans("a", "b", "c", "d"), WithTurn(0), WithTotal(10))
	e.seats[1].Alive = false
	e.seats[3].Alive = false

	_, err := e.PlayCard("a", e.Hand("a")[0].ID, DefaultOptions(e.Hand("a")[0]))
	require.NoError(t, err)
	assert.Equal(t, 2, e.TurnIndex())

	e.direction = -1
	_, err = e.PlayCard("c", e.Hand("c")[0].ID, DefaultOptions(e.Hand("c")[0]))
	require.NoError(t, err)
	assert.Equal(t, 0, e.TurnIndex())
}

func TestSetTotalBounds(t *testing.T) {
	tests := []struct {
		target int
		ok     bool
	}{
		{59, false},
		{0, false},
		{100, false},
		{60, true},
		{75, true},
		{99, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.target), func(t *testing.T) {
			e := NewTestEngine(WithTotal(30), WithTurn(0), WithHand(0, "J", "1", "2", "3", "4"))
			before := captureState(e)

			res, err := e.PlayCard("alice", "seat0-card0", PlayOptions{Value: tt.target})
			if !tt.ok {
				require.ErrorIs(t, err, ErrTargetOutOfRange)
				assert.Equal(t, ReasonTargetOutOfRange, ReasonOf(err))
				assert.Equal(t, before, captureState(e))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, res.Total)
			assert.Equal(t, tt.target, e.Total())
		})
	}
}

func TestZeroCardDirection(t *testing.T) {
	t.Run("change reverses direction", func(t *testing.T) {
		e := NewTestEngine(WithHumans("a", "b", "c"), WithTotal(50), WithTurn(1), WithHand(1, "0", "1", "2", "3", "4"))

		_, err := e.PlayCard("b", "seat1-card0", PlayOptions{Direction: Change})
		require.NoError(t, err)
		assert.Equal(t, -1, e.Direction())
		assert.Equal(t, 50, e.Total())
		assert.Equal(t, 0, e.TurnIndex(), "next seat in the new direction")
	})

	t.Run("keep changes nothing", func(t *testing.T) {
		e := NewTestEngine(WithHumans("a", "b", "c"), WithTotal(50), WithTurn(1), WithHand(1, "0", "1", "2", "3", "4"))

		_, err := e.PlayCard("b", "seat1-card0", PlayOptions{Direction: Keep})
		require.NoError(t, err)
		assert.Equal(t, 1, e.Direction())
		assert.Equal(t, 50, e.Total())
		assert.Equal(t, 2, e.TurnIndex())
	})

	t.Run("missing direction is rejected", func(t *testing.T) {
		e := NewTestEngine(WithTotal(50), WithTurn(0), WithHand(0, "0", "1", "2", "3", "4"))
		before := captureState(e)

		_, err := e.PlayCard("alice", "seat0-card0", PlayOptions{})
		require.ErrorIs(t, err, ErrInvalidDirection)
		assert.Equal(t, before, captureState(e))
	})
}

func TestSignedSpecials(t *testing.T) {
	tests := []struct {
		name   string
		face   string
		opts   PlayOptions
		total  int
		want   int
		reason Reason
	}{
		{"nine up", "±9", PlayOptions{Value: 9}, 50, 59, ""},
		{"nine down", "±9", PlayOptions{Value: -9}, 50, 41, ""},
		{"ten up", "±10", PlayOptions{Value: 10}, 50, 60, ""},
		{"ten down", "±10", PlayOptions{Value: -10}, 50, 40, ""},
		{"ten down clamps at zero", "±10", PlayOptions{Value: -10}, 4, 0, ""},
		{"nine missing value", "±9", PlayOptions{}, 50, 0, ReasonInvalidValue},
		{"nine wrong value", "±9", PlayOptions{Value: 10}, 50, 0, ReasonInvalidValue},
		{"ten wrong value", "±10", PlayOptions{Value: 9}, 50, 0, ReasonInvalidValue},
		{"ten missing value", "±10", PlayOptions{Direction: Keep}, 50, 0, ReasonInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewTestEngine(WithTotal(tt.total), WithTurn(0), WithHand(0, tt.face, "1", "2", "3", "4"))
			before := captureState(e)

			res, err := e.PlayCard("alice", "seat0-card0", tt.opts)
			if tt.reason != "" {
				require.Error(t, err)
				assert.Equal(t, tt.reason, ReasonOf(err))
				assert.Equal(t, before, captureState(e))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Total)
		})
	}
}

func TestPlayPreconditions(t *testing.T) {
	t.Run("game not active", func(t *testing.T) {
		e := NewTestEngine(Unstarted())
		_, err := e.PlayCard("alice", "x", PlayOptions{})
		assert.ErrorIs(t, err, ErrGameNotActive)
	})

	t.Run("unknown seat", func(t *testing.T) {
		e := NewTestEngine()
		_, err := e.PlayCard("mallory", "x", PlayOptions{})
		assert.ErrorIs(t, err, ErrSeatNotFound)
	})

	t.Run("card not in hand", func(t *testing.T) {
		e := NewTestEngine(WithTurn(0))
		before := captureState(e)
		_, err := e.PlayCard("alice", e.Hand("bob")[0].ID, PlayOptions{})
		assert.ErrorIs(t, err, ErrCardNotInHand)
		assert.Equal(t, before, captureState(e))
	})
}

func TestOutOfTurnPlayIsRejected(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		e := NewTestEngine(WithSeed(seed), WithHumans("a", "b", "c"))
		current := e.Snapshot().CurrentSeatID()

		for _, s := range e.Snapshot().Seats {
			if s.ID == current {
				continue
			}
			before := captureState(e)
			card := e.Hand(s.ID)[0]
			_, err := e.PlayCard(s.ID, card.ID, DefaultOptions(card))
			require.ErrorIs(t, err, ErrNotYourTurn)
			assert.Equal(t, before, captureState(e))
		}
	}
}

// playRandomly plays random legal options for whoever is on turn until the
// game ends, checking card conservation after every play.
func playRandomly(t *testing.T, e *Engine, seed int64) {
	t.Helper()
	rng := randutil.New(seed)
	for steps := 0; e.Status() == StatusPlaying; steps++ {
		require.Less(t, steps, 10000, "game did not terminate")
		seat, ok := e.CurrentSeat()
		require.True(t, ok)
		require.True(t, seat.Alive, "turn must point at an alive seat")

		card := seat.Hand[rng.IntN(len(seat.Hand))]
		opts := DefaultOptions(card)
		switch card.Face {
		case deck.FaceNine, deck.FaceTen:
			if rng.IntN(2) == 0 {
				opts.Value = -opts.Value
			}
		case deck.FaceZero:
			if rng.IntN(2) == 0 {
				opts.Direction = Change
			}
		case deck.FaceJack:
			opts.Value = MinTarget + rng.IntN(MaxTotal-MinTarget+1)
		}

		res, err := e.PlayCard(seat.ID, card.ID, opts)
		require.NoError(t, err)
		require.Equal(t, deck.Size, e.CardCount())
		if !res.Eliminated {
			require.Len(t, e.Hand(seat.ID), HandSize)
		}
		require.GreaterOrEqual(t, e.Total(), 0)
		require.LessOrEqual(t, e.Total(), MaxTotal)
	}
}

func TestCardConservation(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		seats := 2 + int(seed%3)
		ids := make([]string, seats)
		for i := range ids {
			ids[i] = fmt.Sprintf("p%d", i)
		}
		e := NewTestEngine(WithSeed(seed), WithHumans(ids...))
		require.Equal(t, deck.Size, e.CardCount())

		playRandomly(t, e, seed)

		snap := e.Snapshot()
		require.Equal(t, StatusEnded, snap.Status)
		require.NotNil(t, snap.Winner)
		alive := 0
		for _, s := range snap.Seats {
			if s.Alive {
				alive++
				assert.Equal(t, snap.Winner.ID, s.ID)
			}
		}
		assert.Equal(t, 1, alive)
	}
}

func TestRestartGame(t *testing.T) {
	e := NewTestEngine(WithHumans("a", "b", "c"))
	playRandomly(t, e, 7)
	require.Equal(t, StatusEnded, e.Status())

	oldIDs := make(map[string]bool)
	for _, c := range e.deck.DiscardPile() {
		oldIDs[c.ID] = true
	}
	for _, s := range e.seats {
		for _, c := range s.Hand {
			oldIDs[c.ID] = true
		}
	}

	require.NoError(t, e.RestartGame())
	assert.Equal(t, StatusPlaying, e.Status())
	assert.Equal(t, 20, e.Total())
	assert.Equal(t, 1, e.Direction())
	assert.Equal(t, deck.Size, e.CardCount())
	assert.Zero(t, e.deck.DiscardCount())

	snap := e.Snapshot()
	assert.Nil(t, snap.Winner)
	assert.Nil(t, snap.LastCard)
	for i, s := range snap.Seats {
		assert.Equal(t, []string{"a", "b", "c"}[i], s.ID)
		assert.True(t, s.Alive)
		for _, c := range e.Hand(s.ID) {
			assert.False(t, oldIDs[c.ID], "card ids are not reused across rounds")
		}
	}
}

func TestRemoveSeat(t *testing.T) {
	t.Run("in lobby", func(t *testing.T) {
		e := NewTestEngine(Unstarted())
		assert.True(t, e.RemoveSeat("alice"))
		assert.False(t, e.RemoveSeat("alice"))
		assert.Equal(t, 1, e.SeatCount())
		assert.Equal(t, StatusWaiting, e.Status())
	})

	t.Run("current seat leaves", func(t *testing.T) {
		e := NewTestEngine(WithHumans("a", "b", "c", "d"), WithTurn(1))
		require.True(t, e.RemoveSeat("b"))

		assert.Equal(t, StatusPlaying, e.Status())
		assert.Equal(t, "c", e.Snapshot().CurrentSeatID())
		assert.Equal(t, deck.Size, e.CardCount())
	})

	t.Run("current seat leaves going backwards", func(t *testing.T) {
		e := NewTestEngine(WithHumans("a", "b", "c", "d"), WithTurn(1))
		e.direction = -1
		require.True(t, e.RemoveSeat("b"))
		assert.Equal(t, "a", e.Snapshot().CurrentSeatID())
	})

	t.Run("earlier seat leaves", func(t *testing.T) {
		e := NewTestEngine(WithHumans("a", "b", "c"), WithTurn(2))
		require.True(t, e.RemoveSeat("a"))
		assert.Equal(t, "c", e.Snapshot().CurrentSeatID())
	})

	t.Run("leaving a two seat game ends it", func(t *testing.T) {
		e := NewTestEngine(WithTurn(0))
		rec := &EventRecorder{}
		e.Events().Subscribe(rec)
		require.True(t, e.RemoveSeat("alice"))

		snap := e.Snapshot()
		assert.Equal(t, StatusEnded, snap.Status)
		require.NotNil(t, snap.Winner)
		assert.Equal(t, "bob", snap.Winner.ID)

		events := rec.Drain()
		require.NotEmpty(t, events)
		ended, ok := events[len(events)-1].(GameEndedEvent)
		require.True(t, ok)
		assert.Equal(t, "bob", ended.WinnerID)
	})
}

func TestSnapshotHidesHands(t *testing.T) {
	e := NewTestEngine(WithHumans("a", "b", "c"))
	snap := e.Snapshot()

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	for _, s := range snap.Seats {
		assert.Equal(t, HandSize, s.CardCount)
		for _, c := range e.Hand(s.ID) {
			assert.NotContains(t, string(raw), c.ID)
		}
	}

	view := e.ViewFor("a")
	assert.Equal(t, e.Hand("a"), view.Hand)
	raw, err = json.Marshal(view)
	require.NoError(t, err)
	for _, id := range []string{"b", "c"} {
		for _, c := range e.Hand(id) {
			assert.NotContains(t, string(raw), c.ID)
		}
	}
}

func TestHandIsACopy(t *testing.T) {
	e := NewTestEngine()
	hand := e.Hand("alice")
	hand[0] = deck.Card{ID: "forged"}
	assert.NotEqual(t, "forged", e.Hand("alice")[0].ID)
	assert.Nil(t, e.Hand("nobody"))
}

func TestPlayWithEmptyDrawPileRecyclesDiscard(t *testing.T) {
	e := NewTestEngine(WithTotal(10), WithTurn(0))
	// Pull every remaining card out of the piles and park them in bob's hand.
	e.seats[1].Hand = append(e.seats[1].Hand, e.deck.Deal(e.deck.Count())...)
	require.Zero(t, e.deck.Count())

	card := e.Hand("alice")[0]
	_, err := e.PlayCard("alice", card.ID, DefaultOptions(card))
	require.NoError(t, err)

	assert.Len(t, e.Hand("alice"), HandSize, "the discard pile is recycled")
	assert.Equal(t, deck.Size, e.CardCount())
}

func TestVersionAdvances(t *testing.T) {
	e := NewTestEngine(WithTurn(0), WithTotal(10))
	v := e.Version()

	card := e.Hand("alice")[0]
	_, err := e.PlayCard("alice", card.ID, DefaultOptions(card))
	require.NoError(t, err)
	assert.Greater(t, e.Version(), v)

	v = e.Version()
	_, err = e.PlayCard("alice", card.ID, PlayOptions{})
	require.Error(t, err)
	assert.Equal(t, v, e.Version())
}
