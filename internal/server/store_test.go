package server

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ninetynine/internal/game"
	"github.com/lox/ninetynine/internal/gameid"
	"github.com/lox/ninetynine/internal/randutil"
)

func newTestStore(t *testing.T, opts ...StoreOption) (*RoomStore, *quartz.Mock) {
	t.Helper()
	clk := quartz.NewMock(t)
	base := []StoreOption{
		WithStoreClock(clk),
		WithStoreRand(randutil.New(42)),
		WithStoreLogger(testLogger()),
		WithBotTiming(func(game.Difficulty) (time.Duration, time.Duration) {
			return time.Second, time.Second
		}, 0),
	}
	s := NewRoomStore(append(base, opts...)...)
	t.Cleanup(s.Close)
	return s, clk
}

func TestStoreCreateAndGet(t *testing.T) {
	t.Parallel()
	var created []string
	s, _ := newTestStore(t, OnCreate(func(r *Room) { created = append(created, r.ID()) }))

	room, err := s.Create()
	require.NoError(t, err)
	require.NoError(t, gameid.Validate(room.ID()))
	assert.Equal(t, []string{room.ID()}, created)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get("  " + strings.ToLower(room.ID()) + " ")
	require.True(t, ok)
	assert.Same(t, room, got)

	_, ok = s.Get("ZZZZZZ")
	assert.False(t, ok)
}

func TestStoreCodesAreUnique(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	seen := make(map[string]bool)
	for range 50 {
		room, err := s.Create()
		require.NoError(t, err)
		assert.False(t, seen[room.ID()], "duplicate code %s", room.ID())
		seen[room.ID()] = true
	}
	assert.Equal(t, 50, s.Len())
}

func TestStoreMaxRooms(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, WithMaxRooms(2))

	_, err := s.Create()
	require.NoError(t, err)
	_, err = s.Create()
	require.NoError(t, err)

	_, err = s.Create()
	assert.ErrorIs(t, err, ErrTooManyRooms)
	assert.Equal(t, 2, s.Len())
}

func TestStoreRemove(t *testing.T) {
	t.Parallel()
	var evicted []string
	s, _ := newTestStore(t, OnEvict(func(r *Room) { evicted = append(evicted, r.ID()) }))

	room, err := s.Create()
	require.NoError(t, err)
	sender := &recordingSender{}
	_, err = room.Join(sender, "Alice")
	require.NoError(t, err)

	assert.True(t, s.Remove(room.ID(), "Testing."))
	assert.False(t, s.Remove(room.ID(), "Testing."))
	assert.Equal(t, []string{room.ID()}, evicted)
	assert.Zero(t, s.Len())

	logs := sender.ofType(MessageTypeLog)
	require.NotEmpty(t, logs)
	assert.Equal(t, "Testing.", decodeData[LogData](t, logs[len(logs)-1]).Message)

	// A closed room accepts no one.
	_, err = room.Join(&recordingSender{}, "Bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestStoreRemovesRoomWhenLastHumanLeaves(t *testing.T) {
	t.Parallel()
	var evicted int
	s, _ := newTestStore(t, OnEvict(func(*Room) { evicted++ }))

	room, err := s.Create()
	require.NoError(t, err)
	alice, err := room.Join(&recordingSender{}, "Alice")
	require.NoError(t, err)
	bob, err := room.Join(&recordingSender{}, "Bob")
	require.NoError(t, err)

	room.Leave(alice)
	assert.Equal(t, 1, s.Len())

	room.Leave(bob)
	assert.Zero(t, s.Len())
	assert.Equal(t, 1, evicted)
}

func TestStoreList(t *testing.T) {
	t.Parallel()
	s, clk := newTestStore(t)

	first, err := s.Create()
	require.NoError(t, err)
	clk.Advance(time.Second).MustWait(context.Background())
	second, err := s.Create()
	require.NoError(t, err)

	_, err = second.Join(&recordingSender{}, "Alice")
	require.NoError(t, err)
	_, err = second.AddBot(second.order[0], game.Hard)
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID(), list[0].ID)
	assert.Equal(t, second.ID(), list[1].ID)
	assert.Equal(t, game.StatusWaiting, list[1].Status)
	assert.Equal(t, 2, list[1].Seats)
	assert.Equal(t, 1, list[1].Humans)
	assert.Equal(t, 1, list[1].Bots)
}

func TestStoreSweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var mu sync.Mutex
	var evicted []string
	s, clk := newTestStore(t, WithIdleTTL(10*time.Minute), OnEvict(func(r *Room) {
		mu.Lock()
		defer mu.Unlock()
		evicted = append(evicted, r.ID())
	}))

	stale, err := s.Create()
	require.NoError(t, err)
	staleSender := &recordingSender{}
	alice, err := stale.Join(staleSender, "Alice")
	require.NoError(t, err)

	clk.Advance(6 * time.Minute).MustWait(ctx)
	fresh, err := s.Create()
	require.NoError(t, err)
	bob, err := fresh.Join(&recordingSender{}, "Bob")
	require.NoError(t, err)

	clk.Advance(5 * time.Minute).MustWait(ctx)
	require.NoError(t, fresh.Chat(bob, "still here"))

	assert.Equal(t, 1, s.Sweep())
	_, ok := s.Get(stale.ID())
	assert.False(t, ok)
	_, ok = s.Get(fresh.ID())
	assert.True(t, ok)
	assert.Equal(t, []string{stale.ID()}, evicted)

	logs := staleSender.ofType(MessageTypeLog)
	require.NotEmpty(t, logs)
	assert.Equal(t, "Room closed after inactivity.", decodeData[LogData](t, logs[len(logs)-1]).Message)

	// Alice's seat is released and the swept room refuses her.
	assert.Equal(t, []string{stale.ID()}, staleSender.closedRooms())
	assert.True(t, stale.Closed())
	assert.Zero(t, stale.Humans())
	assert.ErrorIs(t, stale.Chat(alice, "hello?"), ErrRoomNotFound)
	assert.ErrorIs(t, stale.Start(alice), ErrRoomNotFound)

	assert.Zero(t, s.Sweep())
}

func TestStoreSweeper(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, clk := newTestStore(t, WithIdleTTL(30*time.Second))

	_, err := s.Create()
	require.NoError(t, err)

	waiter := s.StartSweeper(ctx, time.Minute)

	clk.Advance(time.Minute).MustWait(ctx)
	assert.Zero(t, s.Len())

	cancel()
	assert.ErrorIs(t, waiter.Wait(), context.Canceled)
}

func TestStoreCloseRemovesEverything(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	for range 3 {
		_, err := s.Create()
		require.NoError(t, err)
	}
	s.Close()
	assert.Zero(t, s.Len())
}
