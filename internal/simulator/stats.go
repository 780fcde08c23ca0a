package simulator

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/lox/ninetynine/internal/game"
)

// GameResult is the outcome of one simulated game.
type GameResult struct {
	Seed         int64
	Lineup       []game.Difficulty // seat order as dealt
	Winner       int               // seat index of the winner
	Turns        int
	Eliminations int
}

// DifficultyStats aggregates results for one difficulty across all the
// seats it occupied.
type DifficultyStats struct {
	Seats int // seat-games played
	Wins  int
}

// WinRate is the share of seat-games won.
func (d DifficultyStats) WinRate() float64 {
	if d.Seats == 0 {
		return 0
	}
	return float64(d.Wins) / float64(d.Seats)
}

// ConfidenceInterval95 is the normal-approximation interval of WinRate.
func (d DifficultyStats) ConfidenceInterval95() (float64, float64) {
	if d.Seats == 0 {
		return 0, 0
	}
	p := d.WinRate()
	margin := 1.96 * math.Sqrt(p*(1-p)/float64(d.Seats))
	return max(p-margin, 0), min(p+margin, 1)
}

// Statistics aggregates simulated games.
type Statistics struct {
	Games        int
	Draws        int
	Turns        int
	MaxTurns     int
	Eliminations int
	ByDifficulty map[game.Difficulty]*DifficultyStats
	BySeat       []DifficultyStats // wins by dealt seat position
}

// NewStatistics creates empty statistics for tables of seats players.
func NewStatistics(seats int) *Statistics {
	return &Statistics{
		ByDifficulty: make(map[game.Difficulty]*DifficultyStats),
		BySeat:       make([]DifficultyStats, seats),
	}
}

// Add records one game.
func (s *Statistics) Add(r GameResult) {
	s.Games++
	s.Turns += r.Turns
	s.MaxTurns = max(s.MaxTurns, r.Turns)
	s.Eliminations += r.Eliminations
	if r.Winner < 0 {
		s.Draws++
	}

	for i, d := range r.Lineup {
		ds, ok := s.ByDifficulty[d]
		if !ok {
			ds = &DifficultyStats{}
			s.ByDifficulty[d] = ds
		}
		ds.Seats++
		if i < len(s.BySeat) {
			s.BySeat[i].Seats++
		}
		if i == r.Winner {
			ds.Wins++
			if i < len(s.BySeat) {
				s.BySeat[i].Wins++
			}
		}
	}
}

// MeanTurns is the average number of plays per game.
func (s *Statistics) MeanTurns() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Turns) / float64(s.Games)
}

// Validate checks the totals add up.
func (s *Statistics) Validate() error {
	wins := 0
	for _, ds := range s.ByDifficulty {
		if ds.Wins > ds.Seats {
			return fmt.Errorf("more wins (%d) than seats (%d)", ds.Wins, ds.Seats)
		}
		wins += ds.Wins
	}
	if wins+s.Draws != s.Games {
		return fmt.Errorf("expected %d wins, one per decided game, got %d", s.Games-s.Draws, wins)
	}
	return nil
}

// difficulties returns the difficulties seen, easiest first.
func (s *Statistics) difficulties() []game.Difficulty {
	order := map[game.Difficulty]int{game.Easy: 0, game.Normal: 1, game.Hard: 2}
	ds := make([]game.Difficulty, 0, len(s.ByDifficulty))
	for d := range s.ByDifficulty {
		ds = append(ds, d)
	}
	slices.SortFunc(ds, func(a, b game.Difficulty) int { return order[a] - order[b] })
	return ds
}

// PrintSummary writes a report of the results to w.
func PrintSummary(w io.Writer, stats *Statistics, lineup string) {
	fmt.Fprintf(w, "\n=== FINAL RESULTS: %s ===\n", lineup)
	fmt.Fprintf(w, "Games played: %d\n", stats.Games)
	fmt.Fprintf(w, "Plays per game: %.1f (max %d)\n", stats.MeanTurns(), stats.MaxTurns)
	fmt.Fprintf(w, "Eliminations: %d\n", stats.Eliminations)
	if stats.Draws > 0 {
		fmt.Fprintf(w, "Draws (play limit reached): %d\n", stats.Draws)
	}

	fmt.Fprintf(w, "\n=== WIN RATE BY DIFFICULTY ===\n")
	for _, d := range stats.difficulties() {
		ds := stats.ByDifficulty[d]
		low, high := ds.ConfidenceInterval95()
		fmt.Fprintf(w, "%-7s %5d/%-5d %5.1f%%  95%% CI [%.1f%%, %.1f%%]\n",
			d, ds.Wins, ds.Seats, ds.WinRate()*100, low*100, high*100)
	}

	fmt.Fprintf(w, "\n=== WIN RATE BY SEAT ===\n")
	for i, ps := range stats.BySeat {
		if ps.Seats > 0 {
			fmt.Fprintf(w, "Seat %d: %d games, %.1f%%\n", i+1, ps.Seats, ps.WinRate()*100)
		}
	}
}
