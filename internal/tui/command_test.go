package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ninetynine/internal/deck"
	"github.com/lox/ninetynine/internal/game"
)

func testHand() []deck.Card {
	return []deck.Card{
		game.TestCard("8"),
		game.TestCard("±9"),
		game.TestCard("±10"),
		game.TestCard("0"),
		game.TestCard("J"),
	}
}

func TestParseCommand(t *testing.T) {
	t.Parallel()
	hand := testHand()

	tests := []struct {
		input string
		kind  CommandKind
		card  string
		opts  game.PlayOptions
	}{
		{"1", CommandPlay, "8", game.PlayOptions{}},
		{" 1  ", CommandPlay, "8", game.PlayOptions{}},
		{"2 +", CommandPlay, "±9", game.PlayOptions{Value: 9}},
		{"2 -9", CommandPlay, "±9", game.PlayOptions{Value: -9}},
		{"3 down", CommandPlay, "±10", game.PlayOptions{Value: -10}},
		{"3 +10", CommandPlay, "±10", game.PlayOptions{Value: 10}},
		{"4 keep", CommandPlay, "0", game.PlayOptions{Direction: game.Keep}},
		{"4 C", CommandPlay, "0", game.PlayOptions{Direction: game.Change}},
		{"5 60", CommandPlay, "J", game.PlayOptions{Value: 60}},
		{"5 99", CommandPlay, "J", game.PlayOptions{Value: 99}},
		{"quit", CommandQuit, "", game.PlayOptions{}},
		{"R", CommandRestart, "", game.PlayOptions{}},
		{"?", CommandHelp, "", game.PlayOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			cmd, err := ParseCommand(tt.input, hand)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cmd.Kind)
			if tt.kind == CommandPlay {
				assert.Equal(t, tt.card, cmd.Card.ID)
				assert.Equal(t, tt.opts, cmd.Options)
			}
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	t.Parallel()
	hand := testHand()

	tests := []struct {
		input string
		want  string
	}{
		{"dance", "unknown command"},
		{"0", "no card 0"},
		{"6", "no card 6"},
		{"2", "needs + or -"},
		{"3 x", "needs + or -"},
		{"4", "needs keep or change"},
		{"5", "between 60 and 99"},
		{"5 59", "between 60 and 99"},
		{"5 100", "between 60 and 99"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCommand(tt.input, hand)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := ParseCommand("   ", hand)
	assert.ErrorIs(t, err, errEmpty)
}

func TestUsage(t *testing.T) {
	t.Parallel()
	hand := testHand()
	var got []string
	for i, card := range hand {
		got = append(got, usage(i+1, card))
	}
	assert.Equal(t, []string{"1", "2 +|-", "3 +|-", "4 keep|change", "5 60-99"}, got)
	assert.Equal(t, "1", usage(1, game.TestCard("10")))
}
