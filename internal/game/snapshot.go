package game

import "github.com/lox/ninetynine/internal/deck"

// SeatView is the public part of a seat: everything except the cards.
type SeatView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CardCount  int        `json:"cardCount"`
	Alive      bool       `json:"isAlive"`
	Bot        bool       `json:"isBot"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	BotState   BotState   `json:"botState,omitempty"`
}

// WinnerView identifies the winning seat.
type WinnerView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is the state every participant may see. It never includes the
// contents of any hand.
type Snapshot struct {
	Seats        []SeatView  `json:"players"`
	Total        int         `json:"currentTotal"`
	TurnIndex    int         `json:"turnIndex"`
	Direction    int         `json:"direction"`
	DrawCount    int         `json:"deckCount"`
	Status       Status      `json:"status"`
	LastCard     *deck.Card  `json:"lastCard"`
	Winner       *WinnerView `json:"winner"`
	LastPlayedBy string      `json:"lastPlayedBy,omitempty"`
	ScoreChange  int         `json:"scoreChange"`
	Version      uint64      `json:"version"`
}

// CurrentSeatID returns the id of the seat to act, or "" if there is none.
func (s Snapshot) CurrentSeatID() string {
	if s.TurnIndex < 0 || s.TurnIndex >= len(s.Seats) {
		return ""
	}
	return s.Seats[s.TurnIndex].ID
}

// PlayerView is a snapshot as seen by one seat: the public state plus that
// seat's own hand.
type PlayerView struct {
	Snapshot
	SeatID string      `json:"seatId"`
	Hand   []deck.Card `json:"hand"`
}

// Snapshot projects the public state.
func (e *Engine) Snapshot() Snapshot {
	seats := make([]SeatView, len(e.seats))
	for i, s := range e.seats {
		seats[i] = SeatView{
			ID:         s.ID,
			Name:       s.Name,
			CardCount:  len(s.Hand),
			Alive:      s.Alive,
			Bot:        s.Bot,
			Difficulty: s.Difficulty,
			BotState:   s.BotState,
		}
	}

	snap := Snapshot{
		Seats:        seats,
		Total:        e.total,
		TurnIndex:    e.turn,
		Direction:    e.direction,
		DrawCount:    e.deck.DrawCount(),
		Status:       e.status,
		LastPlayedBy: e.lastPlayedBy,
		ScoreChange:  e.scoreChange,
		Version:      e.version,
	}
	if e.status != StatusWaiting {
		if top, ok := e.deck.TopDiscard(); ok {
			snap.LastCard = &top
		}
	}
	if idx := e.seatIndex(e.winner); idx >= 0 {
		snap.Winner = &WinnerView{ID: e.winner, Name: e.seats[idx].Name}
	}
	return snap
}

// Hand returns a copy of the seat's hand, or nil for an unknown seat.
func (e *Engine) Hand(seatID string) []deck.Card {
	idx := e.seatIndex(seatID)
	if idx < 0 {
		return nil
	}
	return cloneCards(e.seats[idx].Hand)
}

// ViewFor returns the snapshot with seatID's own hand attached.
func (e *Engine) ViewFor(seatID string) PlayerView {
	return PlayerView{
		Snapshot: e.Snapshot(),
		SeatID:   seatID,
		Hand:     e.Hand(seatID),
	}
}
