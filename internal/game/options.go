package game

import "github.com/lox/ninetynine/internal/deck"

// Direction is the choice made when playing a 0 card.
type Direction string

const (
	Keep   Direction = "keep"
	Change Direction = "change"
)

// PlayOptions carries the choice a special card requires. Value is the signed
// amount for 9 and 10 specials (±9, ±10) or the target for a J (60-99); zero
// means no value was given.
type PlayOptions struct {
	Value     int       `json:"value,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

const (
	// MaxTotal is the highest total a seat can leave on the table.
	MaxTotal = 99
	// MinTarget is the lowest total a J may set.
	MinTarget = 60
	// HandSize is the number of cards each seat holds.
	HandSize = 5
	MinSeats = 2
	MaxSeats = 4
)

// resolve computes the total after playing card on current. reverse reports
// whether the turn direction flips. The error is always a *RejectedError.
func resolve(card deck.Card, current int, opts PlayOptions) (total int, reverse bool, err error) {
	if card.Kind == deck.Normal {
		return current + card.Value(), false, nil
	}

	switch card.Face {
	case deck.FaceNine:
		if opts.Value != 9 && opts.Value != -9 {
			return 0, false, rejectf(ReasonInvalidValue, "must choose +9 or -9")
		}
		return current + opts.Value, false, nil
	case deck.FaceTen:
		if opts.Value != 10 && opts.Value != -10 {
			return 0, false, rejectf(ReasonInvalidValue, "must choose +10 or -10")
		}
		return current + opts.Value, false, nil
	case deck.FaceZero:
		switch opts.Direction {
		case Keep:
			return current, false, nil
		case Change:
			return current, true, nil
		default:
			return 0, false, rejectf(ReasonInvalidDirection, "must choose keep or change")
		}
	case deck.FaceJack:
		if opts.Value < MinTarget || opts.Value > MaxTotal {
			return 0, false, rejectf(ReasonTargetOutOfRange, "must choose a value between %d and %d", MinTarget, MaxTotal)
		}
		return opts.Value, false, nil
	}
	return 0, false, rejectf(ReasonInvalidValue, "unknown card %s", card.Face)
}

// DefaultOptions returns a legal set of options for card, used when a move
// source fails to produce a playable move.
func DefaultOptions(card deck.Card) PlayOptions {
	if card.Kind == deck.Normal {
		return PlayOptions{}
	}
	switch card.Face {
	case deck.FaceNine:
		return PlayOptions{Value: -9}
	case deck.FaceTen:
		return PlayOptions{Value: -10}
	case deck.FaceZero:
		return PlayOptions{Direction: Keep}
	case deck.FaceJack:
		return PlayOptions{Value: MinTarget}
	}
	return PlayOptions{}
}
