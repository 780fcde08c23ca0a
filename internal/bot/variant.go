package bot

import (
	"github.com/lox/ninetynine/internal/deck"
	"github.com/lox/ninetynine/internal/game"
)

// JackTargets are the totals a bot considers when playing a J. Bots never
// search the whole 60-99 range.
var JackTargets = []int{99, 60, 89}

// Variant is one way of playing one card: the card, the options it would be
// played with and the total it would leave.
type Variant struct {
	Card    deck.Card
	Options game.PlayOptions
	Result  int
	// Plain is true for normal cards, which bots spend before specials.
	Plain bool
}

// Safe reports whether the variant keeps the total within [0, 99].
func (v Variant) Safe() bool {
	return v.Result >= 0 && v.Result <= game.MaxTotal
}

// Move converts the variant into a move for the engine.
func (v Variant) Move() game.Move {
	return game.Move{CardID: v.Card.ID, Options: v.Options}
}

// Enumerate lists every variant of every card in hand, in hand order. The
// result is not clamped, so a -10 from 5 yields -5 and counts as unsafe.
func Enumerate(hand []deck.Card, total int) []Variant {
	variants := make([]Variant, 0, len(hand)*2)
	for _, card := range hand {
		if card.Kind == deck.Normal {
			variants = append(variants, Variant{Card: card, Result: total + card.Value(), Plain: true})
			continue
		}

		switch card.Face {
		case deck.FaceNine, deck.FaceTen:
			n := 9
			if card.Face == deck.FaceTen {
				n = 10
			}
			variants = append(variants,
				Variant{Card: card, Options: game.PlayOptions{Value: n}, Result: total + n},
				Variant{Card: card, Options: game.PlayOptions{Value: -n}, Result: total - n},
			)
		case deck.FaceZero:
			variants = append(variants,
				Variant{Card: card, Options: game.PlayOptions{Direction: game.Keep}, Result: total},
				Variant{Card: card, Options: game.PlayOptions{Direction: game.Change}, Result: total},
			)
		case deck.FaceJack:
			for _, target := range JackTargets {
				variants = append(variants, Variant{Card: card, Options: game.PlayOptions{Value: target}, Result: target})
			}
		}
	}
	return variants
}

// filter returns the variants for which keep returns true.
func filter(variants []Variant, keep func(Variant) bool) []Variant {
	var out []Variant
	for _, v := range variants {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func isJackTo(v Variant, target int) bool {
	return v.Card.Face == deck.FaceJack && v.Result == target
}
