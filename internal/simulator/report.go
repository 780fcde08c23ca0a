package simulator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Report is the machine-readable form of a run, for comparing tunings
// across runs.
type Report struct {
	Lineup       string                `json:"lineup"`
	Seed         int64                 `json:"seed"`
	Games        int                   `json:"games"`
	Draws        int                   `json:"draws"`
	MeanPlays    float64               `json:"mean_plays"`
	MaxPlays     int                   `json:"max_plays"`
	Eliminations int                   `json:"eliminations"`
	Difficulties map[string]RateReport `json:"difficulties"`
	Seats        []RateReport          `json:"seats"`
}

// RateReport is a win count with its rate and 95% interval.
type RateReport struct {
	Seats   int     `json:"seats"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
	CILow   float64 `json:"ci_low"`
	CIHigh  float64 `json:"ci_high"`
}

func rateReport(ds DifficultyStats) RateReport {
	low, high := ds.ConfidenceInterval95()
	return RateReport{Seats: ds.Seats, Wins: ds.Wins, WinRate: ds.WinRate(), CILow: low, CIHigh: high}
}

// NewReport summarises stats for a run of lineup from seed.
func NewReport(stats *Statistics, lineup string, seed int64) Report {
	r := Report{
		Lineup:       lineup,
		Seed:         seed,
		Games:        stats.Games,
		Draws:        stats.Draws,
		MeanPlays:    stats.MeanTurns(),
		MaxPlays:     stats.MaxTurns,
		Eliminations: stats.Eliminations,
		Difficulties: make(map[string]RateReport, len(stats.ByDifficulty)),
	}
	for d, ds := range stats.ByDifficulty {
		r.Difficulties[string(d)] = rateReport(*ds)
	}
	for _, ps := range stats.BySeat {
		r.Seats = append(r.Seats, rateReport(ps))
	}
	return r
}

// WriteReport writes r as JSON to filename. The file is written to a
// temporary sibling and renamed into place, so readers see either the old
// report or the complete new one.
func WriteReport(filename string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tmp = nil

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
