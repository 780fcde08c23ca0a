package bot

import "fmt"

// Band is an inclusive range of totals.
type Band struct {
	Min int
	Max int
}

// Contains reports whether total falls inside the band.
func (b Band) Contains(total int) bool {
	return total >= b.Min && total <= b.Max
}

// Tuning holds the knobs of the normal and hard policies. The hard policy
// works in bands keyed on the current total: it builds the total up while
// it is low, holds it while it is in the middle, guards it near the top and
// escapes once it reaches the danger line.
type Tuning struct {
	// Normal policy.
	NormalComfort Band

	// BuildBelow is the total under which hard bots play their highest plain
	// cards, landing no higher than BuildCeiling and picking among the top
	// BuildTopN.
	BuildBelow   int
	BuildCeiling int
	BuildTopN    int

	// Below HoldBelow hard bots play plain cards landing inside Hold.
	HoldBelow int
	Hold      Band

	// Below DangerLine hard bots play plain cards landing no higher than
	// GuardCeiling, then specials that lower the total.
	DangerLine   int
	GuardCeiling int

	// EndgameSeats is the alive seat count at or below which hard bots start
	// pressuring with J→99.
	EndgameSeats int
	// PressureChance applies at or above the danger line, EarlyPressureChance
	// below EarlyPressureBelow.
	PressureChance      float64
	EarlyPressureChance float64
	EarlyPressureBelow  int
	// ReverseChance is the chance a stuck hard bot reverses with a 0 card
	// rather than holding.
	ReverseChance float64

	// Comfort is the band the hard fallback prefers.
	Comfort Band
}

// DefaultTuning is the tuning bots use unless configured otherwise.
var DefaultTuning = Tuning{
	NormalComfort:       Band{Min: 30, Max: 85},
	BuildBelow:          50,
	BuildCeiling:        85,
	BuildTopN:           2,
	HoldBelow:           80,
	Hold:                Band{Min: 50, Max: 89},
	DangerLine:          90,
	GuardCeiling:        95,
	EndgameSeats:        2,
	PressureChance:      0.7,
	EarlyPressureChance: 0.4,
	EarlyPressureBelow:  85,
	ReverseChance:       0.5,
	Comfort:             Band{Min: 60, Max: 89},
}

// Validate checks the tuning is internally consistent.
func (t Tuning) Validate() error {
	for name, p := range map[string]float64{
		"pressure_chance":       t.PressureChance,
		"early_pressure_chance": t.EarlyPressureChance,
		"reverse_chance":        t.ReverseChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, p)
		}
	}
	if !(t.BuildBelow <= t.HoldBelow && t.HoldBelow <= t.DangerLine) {
		return fmt.Errorf("bands must be ordered: build_below %d, hold_below %d, danger_line %d",
			t.BuildBelow, t.HoldBelow, t.DangerLine)
	}
	if t.BuildTopN < 1 {
		return fmt.Errorf("build_top_n must be at least 1, got %d", t.BuildTopN)
	}
	for name, b := range map[string]Band{"normal_comfort": t.NormalComfort, "hold": t.Hold, "comfort": t.Comfort} {
		if b.Min > b.Max {
			return fmt.Errorf("%s band is empty: %d > %d", name, b.Min, b.Max)
		}
	}
	return nil
}
