package server

import (
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

// testLogger creates a logger that discards output for tests
func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// recordingSender is a Sender that keeps every message it is given.
type recordingSender struct {
	mu       sync.Mutex
	messages []*Message
	closed   []string
}

func (s *recordingSender) SendMessage(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) RoomClosed(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, roomID)
}

func (s *recordingSender) closedRooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.closed...)
}

func (s *recordingSender) all() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Message(nil), s.messages...)
}

func (s *recordingSender) ofType(mt MessageType) []*Message {
	var out []*Message
	for _, msg := range s.all() {
		if msg.Type == mt {
			out = append(out, msg)
		}
	}
	return out
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// decodeData unmarshals a message payload into T.
func decodeData[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg.Data, &v))
	return v
}
