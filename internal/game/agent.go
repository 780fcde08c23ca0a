package game

import "github.com/lox/ninetynine/internal/deck"

// TurnView is the read-only state a move source sees when it is asked to
// play: its own hand and the public table.
type TurnView struct {
	SeatID     string
	Hand       []deck.Card
	Total      int
	Direction  int
	AliveSeats int
	SeatCount  int
}

// Move is a card to play and the options for it.
type Move struct {
	CardID  string
	Options PlayOptions
}

// Agent produces moves for a seat. Agents receive an immutable view and
// return a move; the engine applies it through PlayCard exactly as it would
// a human's play.
type Agent interface {
	ChooseMove(view TurnView) Move
}

// AgentFactory builds the agent for a bot seat of the given difficulty.
type AgentFactory func(difficulty Difficulty) Agent

// FirstCardAgent plays the first card in hand with default options.
type FirstCardAgent struct{}

// ChooseMove implements Agent
func (FirstCardAgent) ChooseMove(view TurnView) Move {
	if len(view.Hand) == 0 {
		return Move{}
	}
	card := view.Hand[0]
	return Move{CardID: card.ID, Options: DefaultOptions(card)}
}

// TurnView builds the view for seatID.
func (e *Engine) TurnView(seatID string) TurnView {
	return TurnView{
		SeatID:     seatID,
		Hand:       e.Hand(seatID),
		Total:      e.total,
		Direction:  e.direction,
		AliveSeats: len(e.aliveSeats()),
		SeatCount:  len(e.seats),
	}
}
