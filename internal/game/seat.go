package game

import (
	"fmt"
	"strings"

	"github.com/lox/ninetynine/internal/deck"
)

// Difficulty selects a bot's decision policy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

// ParseDifficulty converts a case-insensitive name into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case Easy:
		return Easy, nil
	case Normal, "":
		return Normal, nil
	case Hard:
		return Hard, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// BotState is what a bot seat is currently doing. It is presentation only.
type BotState string

const (
	BotIdle     BotState = "idle"
	BotThinking BotState = "thinking"
	BotPlaying  BotState = "playing"
)

// Seat is a participant in a round, controlled by a human or a bot.
type Seat struct {
	ID         string
	Name       string
	Hand       []deck.Card
	Alive      bool
	Bot        bool
	Difficulty Difficulty
	BotState   BotState
}

func (s *Seat) cardIndex(cardID string) int {
	for i, c := range s.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

func (s *Seat) clone() Seat {
	out := *s
	out.Hand = cloneCards(s.Hand)
	return out
}

func cloneCards(cards []deck.Card) []deck.Card {
	if cards == nil {
		return nil
	}
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	return out
}
