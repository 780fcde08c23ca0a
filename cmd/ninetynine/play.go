package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/ninetynine/internal/bot"
	"github.com/lox/ninetynine/internal/game"
	"github.com/lox/ninetynine/internal/randutil"
	"github.com/lox/ninetynine/internal/tui"
)

const humanSeatID = "you"

// PlayCmd runs a local game against bots in the terminal.
type PlayCmd struct {
	Name       string `short:"n" default:"You" help:"Your display name"`
	Bots       int    `short:"b" default:"3" help:"Number of bot opponents (1-3)"`
	Difficulty string `short:"d" default:"normal" enum:"easy,normal,hard" help:"Bot difficulty (easy, normal, hard)"`
	Seed       int64  `default:"0" help:"RNG seed (0 for random)"`
	NoColor    bool   `help:"Disable colour output"`
	LogFile    string `help:"Write debug logs to this file"`
}

func (c *PlayCmd) Run() error {
	if c.Bots < 1 || c.Bots > game.MaxSeats-1 {
		return fmt.Errorf("bots must be between 1 and %d, got %d", game.MaxSeats-1, c.Bots)
	}
	difficulty, err := game.ParseDifficulty(c.Difficulty)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs only go to a file when asked.
	var out io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create debug log: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Error("Failed to close debug log", "error", err)
			}
		}()
		out = f
	}
	logger := newLogger(out, "debug")

	seed := c.Seed
	if seed == 0 {
		seed = randutil.EntropySeed()
	}
	logger.Info("Starting local game", "bots", c.Bots, "difficulty", difficulty, "seed", seed)

	rng := randutil.New(seed)
	engine := game.NewEngine(
		game.WithRand(randutil.New(rng.Int64())),
		game.WithLogger(logger),
	)
	runner := game.NewRunner(engine,
		game.WithAgents(bot.NewFactory(randutil.New(rng.Int64()), bot.DefaultTuning, logger)),
		game.WithRunnerRand(randutil.New(rng.Int64())),
		game.WithRunnerLogger(logger),
	)
	defer runner.Stop()

	runner.AddSeat(humanSeatID, c.Name, false, "")
	for i := 1; i <= c.Bots; i++ {
		runner.AddSeat(fmt.Sprintf("bot-%d", i), fmt.Sprintf("Bot %d", i), true, difficulty)
	}
	if err := runner.Start(); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	tui.ConfigureColors(c.NoColor)
	model := tui.New(runner, humanSeatID, logger)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
