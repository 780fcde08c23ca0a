package bot

import (
	"io"
	rand "math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/lox/ninetynine/internal/deck"
	"github.com/lox/ninetynine/internal/game"
	"github.com/lox/ninetynine/internal/randutil"
)

// Policy picks moves for a bot seat. It only reads the view it is given;
// the runner plays the chosen move through the engine like any other.
type Policy struct {
	difficulty game.Difficulty
	tuning     Tuning
	rng        *rand.Rand
	logger     *log.Logger
}

// Option configures a Policy.
type Option func(*Policy)

// WithRand sets the random source for tie-breaks and pressure plays.
func WithRand(rng *rand.Rand) Option {
	return func(p *Policy) { p.rng = rng }
}

// WithTuning replaces DefaultTuning.
func WithTuning(t Tuning) Option {
	return func(p *Policy) { p.tuning = t }
}

// WithLogger sets the policy logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Policy) { p.logger = logger }
}

// New creates a policy for the given difficulty.
func New(difficulty game.Difficulty, opts ...Option) *Policy {
	p := &Policy{difficulty: difficulty, tuning: DefaultTuning}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = randutil.NewEntropy()
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	p.logger = p.logger.WithPrefix("bot")
	return p
}

// Difficulty returns the policy's tier.
func (p *Policy) Difficulty() game.Difficulty { return p.difficulty }

// ChooseMove implements game.Agent
func (p *Policy) ChooseMove(view game.TurnView) game.Move {
	v, ok := p.Decide(view)
	if !ok {
		return game.Move{}
	}
	p.logger.Debug("Bot decision",
		"seat", view.SeatID,
		"difficulty", p.difficulty,
		"total", view.Total,
		"card", v.Card.Label,
		"result", v.Result)
	return v.Move()
}

// Decide returns the variant the policy would play. ok is false only for an
// empty hand. When no variant is safe the first one is returned, knowing it
// eliminates the seat.
func (p *Policy) Decide(view game.TurnView) (Variant, bool) {
	all := Enumerate(view.Hand, view.Total)
	if len(all) == 0 {
		return Variant{}, false
	}
	safe := filter(all, Variant.Safe)
	if len(safe) == 0 {
		return all[0], true
	}

	switch p.difficulty {
	case game.Easy:
		return p.pick(safe), true
	case game.Hard:
		return p.hard(safe, view), true
	default:
		return p.normal(safe), true
	}
}

// normal avoids 99 and prefers a comfortable middle band.
func (p *Policy) normal(safe []Variant) Variant {
	not99 := filter(safe, func(v Variant) bool { return v.Result < game.MaxTotal })
	if len(not99) == 0 {
		return p.pick(safe)
	}
	if comfy := filter(not99, func(v Variant) bool { return p.tuning.NormalComfort.Contains(v.Result) }); len(comfy) > 0 {
		return p.pick(comfy)
	}
	return p.pick(not99)
}

func (p *Policy) hard(safe []Variant, view game.TurnView) Variant {
	t := p.tuning
	total := view.Total
	endgame := view.AliveSeats <= t.EndgameSeats
	plain := filter(safe, func(v Variant) bool { return v.Plain })

	switch {
	case total < t.BuildBelow:
		build := filter(plain, func(v Variant) bool { return v.Result > total && v.Result <= t.BuildCeiling })
		if len(build) > 0 {
			slices.SortStableFunc(build, func(a, b Variant) int { return b.Result - a.Result })
			return p.pick(build[:min(t.BuildTopN, len(build))])
		}

	case total < t.HoldBelow:
		if hold := filter(plain, func(v Variant) bool { return t.Hold.Contains(v.Result) }); len(hold) > 0 {
			return p.pick(hold)
		}

	case total < t.DangerLine:
		if low := filter(plain, func(v Variant) bool { return v.Result <= t.GuardCeiling }); len(low) > 0 {
			return p.pick(low)
		}
		lower := filter(safe, func(v Variant) bool { return !v.Plain && v.Result < total })
		if len(lower) > 0 {
			return p.pick(lower)
		}

	default:
		escapes := filter(safe, func(v Variant) bool { return v.Result < t.DangerLine })
		if len(escapes) > 0 {
			if endgame && total < game.MaxTotal {
				if v, ok := find(safe, func(v Variant) bool { return isJackTo(v, game.MaxTotal) }); ok && p.chance(t.PressureChance) {
					return v
				}
			}
			slices.SortStableFunc(escapes, func(a, b Variant) int { return a.Result - b.Result })
			return escapes[0]
		}
		zeros := filter(safe, func(v Variant) bool { return v.Card.Face == deck.FaceZero })
		if len(zeros) > 0 {
			if p.chance(t.ReverseChance) {
				if v, ok := find(zeros, func(v Variant) bool { return v.Options.Direction == game.Change }); ok {
					return v
				}
			}
			return zeros[0]
		}
	}

	if endgame && total < t.EarlyPressureBelow {
		if v, ok := find(safe, func(v Variant) bool { return isJackTo(v, game.MaxTotal) }); ok && p.chance(t.EarlyPressureChance) {
			return v
		}
	}

	not99 := filter(safe, func(v Variant) bool { return v.Result < game.MaxTotal })
	if len(not99) > 0 {
		if comfy := filter(not99, func(v Variant) bool { return t.Comfort.Contains(v.Result) }); len(comfy) > 0 {
			return p.pick(comfy)
		}
		return p.pick(not99)
	}
	return p.pick(safe)
}

func (p *Policy) pick(variants []Variant) Variant {
	return variants[p.rng.IntN(len(variants))]
}

func (p *Policy) chance(prob float64) bool {
	return p.rng.Float64() < prob
}

func find(variants []Variant, match func(Variant) bool) (Variant, bool) {
	for _, v := range variants {
		if match(v) {
			return v, true
		}
	}
	return Variant{}, false
}

// NewFactory returns an agent factory for the runner. Each agent gets its
// own random source split from rng so seeded games replay exactly.
func NewFactory(rng *rand.Rand, tuning Tuning, logger *log.Logger) game.AgentFactory {
	return func(d game.Difficulty) game.Agent {
		return New(d,
			WithRand(randutil.New(rng.Int64())),
			WithTuning(tuning),
			WithLogger(logger))
	}
}
