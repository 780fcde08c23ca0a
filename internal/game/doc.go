// Package game implements the rules engine for "99", an elimination card game
// where seats take turns pushing a shared total towards 99.
//
// The main type is Engine, which owns the seat roster, the deck and the round
// state. Engine validates and applies plays, replenishes hands, advances the
// turn, eliminates seats that push the total past 99 and declares the last
// seat standing the winner.
//
// # Basic Usage
//
//	e := game.NewEngine(game.WithRand(randutil.New(42)))
//	e.AddSeat("alice", "Alice", false, "")
//	e.AddSeat("bot-1", "Bot (hard)", true, game.Hard)
//	_ = e.StartGame()
//	view := e.ViewFor("alice")
//	res, err := e.PlayCard("alice", view.Hand[0].ID, game.PlayOptions{Value: 9})
//
// Rejected plays return a *RejectedError with a stable Reason and never
// change state.
//
// # Runner
//
// Engine is not safe for concurrent use. Runner wraps an Engine with a mutex,
// notifies observers after every change and schedules bot turns on a
// quartz.Clock. Each scheduled bot turn captures the engine's version and is
// dropped if the round has moved on by the time it fires.
//
// # Confidentiality
//
// Snapshot never carries hand contents. A seat's cards are only available
// through Hand or ViewFor for that seat.
package game
