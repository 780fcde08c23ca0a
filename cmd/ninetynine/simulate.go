package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/lox/ninetynine/internal/randutil"
	"github.com/lox/ninetynine/internal/server"
	"github.com/lox/ninetynine/internal/simulator"
)

// SimulateCmd plays bot-only games to compare difficulties.
type SimulateCmd struct {
	Games   int           `short:"g" default:"10000" help:"Number of games to simulate"`
	Lineup  string        `default:"easy,normal,hard" help:"Comma separated bot difficulties, 2 to 4 seats"`
	Seed    int64         `default:"0" help:"RNG seed (0 for random)"`
	Workers int           `short:"w" default:"0" help:"Parallel games (0 for one per CPU)"`
	Timeout time.Duration `default:"10m" help:"Give up after this long"`
	Config  string        `short:"c" help:"HCL config whose tuning block the bots use"`
	Output  string        `short:"o" help:"Also write a JSON report to this file"`
	Verbose bool          `short:"V" help:"Verbose logging"`
}

func (c *SimulateCmd) Run() error {
	level := "info"
	if c.Verbose {
		level = "debug"
	}
	logger := newLogger(os.Stderr, level)

	lineup, err := simulator.ParseLineup(c.Lineup)
	if err != nil {
		return err
	}

	tuning := server.DefaultConfig().BotTuning()
	if c.Config != "" {
		cfg, err := server.LoadConfig(c.Config)
		if err != nil {
			return err
		}
		tuning = cfg.BotTuning()
	}

	seed := c.Seed
	if seed == 0 {
		seed = randutil.EntropySeed()
	}
	logger.Info("Starting simulation", "games", c.Games, "lineup", c.Lineup, "seed", seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	stats, err := simulator.New(simulator.Config{
		Games:   c.Games,
		Lineup:  lineup,
		Seed:    seed,
		Workers: c.Workers,
		Timeout: c.Timeout,
		Tuning:  tuning,
		Logger:  logger,
	}).Run(ctx)
	if err != nil {
		return err
	}

	simulator.PrintSummary(os.Stdout, stats, simulator.LineupString(lineup))
	if c.Output != "" {
		if err := simulator.WriteReport(c.Output, simulator.NewReport(stats, simulator.LineupString(lineup), seed)); err != nil {
			return err
		}
		logger.Info("Wrote report", "path", c.Output)
	}
	logger.Info("Simulation finished", "elapsed", time.Since(start).Round(time.Millisecond), "seed", seed)
	return nil
}
