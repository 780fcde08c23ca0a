package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/ninetynine/internal/game"
)

// updatesMsg carries runner updates into the bubbletea loop.
type updatesMsg []game.Update

// updateQueue bridges runner notifications into bubbletea. The runner calls
// OnUpdate under its lock, so OnUpdate only appends and never blocks.
type updateQueue struct {
	mu      sync.Mutex
	pending []game.Update
	ready   chan struct{}
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{ready: make(chan struct{}, 1)}
}

// OnUpdate implements game.Observer
func (q *updateQueue) OnUpdate(update game.Update) {
	q.mu.Lock()
	q.pending = append(q.pending, update)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// drain returns and clears everything queued so far.
func (q *updateQueue) drain() []game.Update {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch
}

// wait returns a command that blocks until updates are queued.
func (q *updateQueue) wait() tea.Cmd {
	return func() tea.Msg {
		<-q.ready
		return updatesMsg(q.drain())
	}
}
