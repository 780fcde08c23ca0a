package simulator

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/ninetynine/internal/bot"
	"github.com/lox/ninetynine/internal/game"
	"github.com/lox/ninetynine/internal/randutil"
)

// maxPlays bounds a single game. Bots that keep lowering the total can in
// principle play forever; a game that reaches the bound is scored as a draw.
const maxPlays = 10_000

// Config holds configuration for running simulations
type Config struct {
	Games   int
	Lineup  []game.Difficulty // one bot per entry, 2 to 4 seats
	Seed    int64
	Workers int
	Timeout time.Duration
	Tuning  bot.Tuning
	Logger  *log.Logger
}

// Simulator plays bot-only games of 99 to compare difficulties.
type Simulator struct {
	config Config
	logger *log.Logger
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Tuning == (bot.Tuning{}) {
		config.Tuning = bot.DefaultTuning
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Simulator{config: config, logger: logger.WithPrefix("simulator")}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Games <= 0 {
		return fmt.Errorf("games must be positive, got %d", c.Games)
	}
	if len(c.Lineup) < game.MinSeats || len(c.Lineup) > game.MaxSeats {
		return fmt.Errorf("lineup needs %d to %d bots, got %d", game.MinSeats, game.MaxSeats, len(c.Lineup))
	}
	return c.Tuning.Validate()
}

// Run plays all games and returns the aggregated statistics. Games run in
// parallel but each is seeded from Seed and its index, so results do not
// depend on scheduling.
func (s *Simulator) Run(ctx context.Context) (*Statistics, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	results := make([]GameResult, s.config.Games)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for i := range s.config.Games {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seed := s.config.Seed + int64(i)
			result, err := s.playGame(seed, rotate(s.config.Lineup, i))
			if err != nil {
				return fmt.Errorf("game %d (seed %d): %w", i+1, seed, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := NewStatistics(len(s.config.Lineup))
	for _, r := range results {
		stats.Add(r)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	s.logger.Info("Simulation complete", "games", stats.Games, "lineup", LineupString(s.config.Lineup))
	return stats, nil
}

// playGame plays one game to the end. The engine and every bot draw from
// generators derived from seed.
func (s *Simulator) playGame(seed int64, lineup []game.Difficulty) (GameResult, error) {
	quiet := log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
	engine := game.NewEngine(
		game.WithRand(randutil.New(seed)),
		game.WithLogger(quiet),
	)

	agents := make(map[string]game.Agent, len(lineup))
	for i, d := range lineup {
		id := fmt.Sprintf("bot-%d", i+1)
		engine.AddSeat(id, fmt.Sprintf("Bot %d (%s)", i+1, d), true, d)
		agents[id] = bot.New(d,
			bot.WithRand(randutil.New(seed*31+int64(i)+1)),
			bot.WithTuning(s.config.Tuning),
			bot.WithLogger(quiet),
		)
	}
	if err := engine.StartGame(); err != nil {
		return GameResult{}, err
	}

	result := GameResult{Seed: seed, Lineup: lineup, Winner: -1}
	for engine.Status() == game.StatusPlaying {
		if result.Turns >= maxPlays {
			s.logger.Warn("Game hit the play limit, scoring a draw", "seed", seed, "plays", result.Turns)
			return result, nil
		}
		seat, ok := engine.CurrentSeat()
		if !ok {
			return GameResult{}, fmt.Errorf("no seat on turn at total %d", engine.Total())
		}

		move := agents[seat.ID].ChooseMove(engine.TurnView(seat.ID))
		res, err := engine.PlayCard(seat.ID, move.CardID, move.Options)
		if err != nil {
			// Same fallback the runner uses when a bot's move is refused.
			s.logger.Warn("Bot move rejected", "seat", seat.ID, "seed", seed, "error", err)
			move = game.FirstCardAgent{}.ChooseMove(engine.TurnView(seat.ID))
			if res, err = engine.PlayCard(seat.ID, move.CardID, move.Options); err != nil {
				return GameResult{}, err
			}
		}
		result.Turns++
		if res.Eliminated {
			result.Eliminations++
		}
	}

	for i := range lineup {
		if engine.WinnerID() == fmt.Sprintf("bot-%d", i+1) {
			result.Winner = i
		}
	}
	if result.Winner < 0 {
		return GameResult{}, fmt.Errorf("game ended without a winner")
	}
	return result, nil
}

// rotate shifts the lineup by n seats so every difficulty takes every
// position over a run.
func rotate(lineup []game.Difficulty, n int) []game.Difficulty {
	out := make([]game.Difficulty, len(lineup))
	for i := range lineup {
		out[i] = lineup[(i+n)%len(lineup)]
	}
	return out
}

// ParseLineup parses a comma separated list of difficulties such as
// "easy,normal,hard".
func ParseLineup(s string) ([]game.Difficulty, error) {
	var lineup []game.Difficulty
	for _, part := range strings.Split(s, ",") {
		d, err := game.ParseDifficulty(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		lineup = append(lineup, d)
	}
	return lineup, nil
}

// LineupString formats a lineup the way ParseLineup reads it.
func LineupString(lineup []game.Difficulty) string {
	parts := make([]string, len(lineup))
	for i, d := range lineup {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

// RunSimulation is a convenience function for simple use cases
func RunSimulation(ctx context.Context, games int, lineup []game.Difficulty, seed int64, logger *log.Logger) (*Statistics, error) {
	return New(Config{Games: games, Lineup: lineup, Seed: seed, Logger: logger}).Run(ctx)
}
