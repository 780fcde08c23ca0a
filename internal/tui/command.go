package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/ninetynine/internal/deck"
	"github.com/lox/ninetynine/internal/game"
)

// CommandKind is what the player asked for.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandPlay
	CommandRestart
	CommandHelp
	CommandQuit
)

// Command is a parsed line of player input.
type Command struct {
	Kind    CommandKind
	Card    deck.Card
	Options game.PlayOptions
}

var errEmpty = errors.New("empty command")

// ParseCommand parses a line typed at the prompt. A play is the card's
// position in hand (1-based) followed by the choice a special card needs:
//
//	3          play a normal card
//	2 +        play a 9 or 10 upwards (also "+9", "up")
//	2 -        play a 9 or 10 downwards
//	4 keep     play a 0 and keep direction ("change" reverses)
//	1 75       play a J and set the total to 75
func ParseCommand(input string, hand []deck.Card) (Command, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return Command{}, errEmpty
	}

	switch fields[0] {
	case "quit", "q", "exit":
		return Command{Kind: CommandQuit}, nil
	case "restart", "r", "again":
		return Command{Kind: CommandRestart}, nil
	case "help", "h", "?":
		return Command{Kind: CommandHelp}, nil
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return Command{}, fmt.Errorf("unknown command %q, type help", fields[0])
	}
	if n < 1 || n > len(hand) {
		return Command{}, fmt.Errorf("no card %d in hand", n)
	}
	card := hand[n-1]

	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	opts, err := parseOptions(card, arg)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: CommandPlay, Card: card, Options: opts}, nil
}

func parseOptions(card deck.Card, arg string) (game.PlayOptions, error) {
	if !card.IsSpecial() {
		return game.PlayOptions{}, nil
	}

	switch card.Face {
	case deck.FaceNine, deck.FaceTen:
		amount := 9
		if card.Face == deck.FaceTen {
			amount = 10
		}
		switch arg {
		case "+", "up", "plus", "+" + string(card.Face):
			return game.PlayOptions{Value: amount}, nil
		case "-", "down", "minus", "-" + string(card.Face):
			return game.PlayOptions{Value: -amount}, nil
		}
		return game.PlayOptions{}, fmt.Errorf("%s needs + or -", card.Label)

	case deck.FaceZero:
		switch arg {
		case "keep", "k":
			return game.PlayOptions{Direction: game.Keep}, nil
		case "change", "c", "reverse":
			return game.PlayOptions{Direction: game.Change}, nil
		}
		return game.PlayOptions{}, fmt.Errorf("%s needs keep or change", card.Label)

	case deck.FaceJack:
		v, err := strconv.Atoi(arg)
		if err != nil || v < game.MinTarget || v > game.MaxTotal {
			return game.PlayOptions{}, fmt.Errorf("%s needs a total between %d and %d", card.Label, game.MinTarget, game.MaxTotal)
		}
		return game.PlayOptions{Value: v}, nil
	}
	return game.PlayOptions{}, fmt.Errorf("cannot play %s", card.Label)
}

// usage describes how to play card at position n.
func usage(n int, card deck.Card) string {
	switch card.Face {
	case deck.FaceNine, deck.FaceTen:
		if card.IsSpecial() {
			return fmt.Sprintf("%d +|-", n)
		}
	case deck.FaceZero:
		return fmt.Sprintf("%d keep|change", n)
	case deck.FaceJack:
		return fmt.Sprintf("%d %d-%d", n, game.MinTarget, game.MaxTotal)
	}
	return strconv.Itoa(n)
}

const helpText = "Play a card by its number. 9/10 specials take + or -, a 0 takes keep or change, " +
	"a J takes a total from 60 to 99. Other commands: restart, help, quit."
