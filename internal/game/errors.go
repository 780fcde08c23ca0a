package game

import (
	"errors"
	"fmt"
)

// Reason is a stable code identifying why an intent was rejected. Reasons are
// sent to clients verbatim.
type Reason string

const (
	ReasonGameNotActive    Reason = "game_not_active"
	ReasonSeatNotFound     Reason = "seat_not_found"
	ReasonNotYourTurn      Reason = "not_your_turn"
	ReasonCardNotInHand    Reason = "card_not_in_hand"
	ReasonInvalidValue     Reason = "invalid_value"
	ReasonInvalidDirection Reason = "invalid_direction"
	ReasonTargetOutOfRange Reason = "target_out_of_range"
	ReasonNotEnoughSeats   Reason = "not_enough_seats"
	ReasonAlreadyStarted   Reason = "already_started"
)

// RejectedError reports an intent the engine refused. The engine state is
// unchanged whenever one is returned.
type RejectedError struct {
	Reason  Reason
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Is matches any *RejectedError with the same Reason, so the sentinels below
// work with errors.Is regardless of message.
func (e *RejectedError) Is(target error) bool {
	var t *RejectedError
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

var (
	ErrGameNotActive    = &RejectedError{Reason: ReasonGameNotActive, Message: "game not active"}
	ErrSeatNotFound     = &RejectedError{Reason: ReasonSeatNotFound, Message: "player not found"}
	ErrNotYourTurn      = &RejectedError{Reason: ReasonNotYourTurn, Message: "not your turn"}
	ErrCardNotInHand    = &RejectedError{Reason: ReasonCardNotInHand, Message: "card not in hand"}
	ErrInvalidValue     = &RejectedError{Reason: ReasonInvalidValue}
	ErrInvalidDirection = &RejectedError{Reason: ReasonInvalidDirection}
	ErrTargetOutOfRange = &RejectedError{Reason: ReasonTargetOutOfRange}
	ErrNotEnoughSeats   = &RejectedError{Reason: ReasonNotEnoughSeats, Message: "at least 2 players are required"}
	ErrAlreadyStarted   = &RejectedError{Reason: ReasonAlreadyStarted, Message: "game already started"}
)

func rejectf(reason Reason, format string, args ...any) *RejectedError {
	return &RejectedError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from err, or "" if err is not a
// rejection.
func ReasonOf(err error) Reason {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return ""
}
