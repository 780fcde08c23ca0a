package game

import (
	"fmt"

	"github.com/lox/ninetynine/internal/deck"
)

// FormatEvent renders an event as a one-line narration for logs and chat.
func FormatEvent(event GameEvent) string {
	switch e := event.(type) {
	case SeatJoinedEvent:
		return fmt.Sprintf("%s joined the room.", e.Name)
	case SeatLeftEvent:
		return fmt.Sprintf("%s left the room.", e.Name)
	case GameStartedEvent:
		verb := "started"
		if e.Restart {
			verb = "restarted"
		}
		return fmt.Sprintf("Game %s! %d players, total starts at %d, %s goes first.", verb, e.Seats, e.Total, e.FirstName)
	case CardPlayedEvent:
		return formatCardPlayed(e)
	case SeatEliminatedEvent:
		return fmt.Sprintf("%s played %s (%d) and is eliminated!", e.Name, e.Card.Label, e.Attempted)
	case GameEndedEvent:
		if e.WinnerName == "" {
			return "Game over."
		}
		return fmt.Sprintf("%s wins the game!", e.WinnerName)
	default:
		return string(event.EventType())
	}
}

func formatCardPlayed(e CardPlayedEvent) string {
	text := fmt.Sprintf("%s played %s", e.Name, e.Card.Label)
	if e.Card.IsSpecial() {
		switch {
		case e.Card.Face == deck.FaceJack:
			text += fmt.Sprintf(" [set %d]", e.Options.Value)
		case e.Options.Direction != "":
			text += fmt.Sprintf(" [%s]", e.Options.Direction)
		case e.Options.Value != 0:
			text += fmt.Sprintf(" [%+d]", e.Options.Value)
		}
	}
	text += fmt.Sprintf(" → %d", e.Total)
	if e.Reversed {
		text += " (direction reversed)"
	}
	return text
}
