package server

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/ninetynine/internal/bot"
	"github.com/lox/ninetynine/internal/game"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Bots   *BotSettings   `hcl:"bots,block"`
	Tuning *TuningConfig  `hcl:"tuning,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	MaxRooms    int    `hcl:"max_rooms,optional"`
	IdleRoomTTL string `hcl:"idle_room_ttl,optional"`
	Seed        int64  `hcl:"seed,optional"`
}

// BotSettings controls how long bots take over their turns
type BotSettings struct {
	PlayPauseMs int           `hcl:"play_pause_ms,optional"`
	Think       []ThinkConfig `hcl:"think,block"`
}

// ThinkConfig is the think time range for one difficulty
type ThinkConfig struct {
	Difficulty string `hcl:"difficulty,label"`
	MinMs      int    `hcl:"min_ms"`
	MaxMs      int    `hcl:"max_ms"`
}

// TuningConfig overrides individual bot.Tuning knobs. Unset attributes keep
// the defaults.
type TuningConfig struct {
	NormalComfortMin    *int     `hcl:"normal_comfort_min,optional"`
	NormalComfortMax    *int     `hcl:"normal_comfort_max,optional"`
	BuildBelow          *int     `hcl:"build_below,optional"`
	BuildCeiling        *int     `hcl:"build_ceiling,optional"`
	BuildTopN           *int     `hcl:"build_top_n,optional"`
	HoldBelow           *int     `hcl:"hold_below,optional"`
	HoldMin             *int     `hcl:"hold_min,optional"`
	HoldMax             *int     `hcl:"hold_max,optional"`
	DangerLine          *int     `hcl:"danger_line,optional"`
	GuardCeiling        *int     `hcl:"guard_ceiling,optional"`
	EndgameSeats        *int     `hcl:"endgame_seats,optional"`
	PressureChance      *float64 `hcl:"pressure_chance,optional"`
	EarlyPressureChance *float64 `hcl:"early_pressure_chance,optional"`
	EarlyPressureBelow  *int     `hcl:"early_pressure_below,optional"`
	ReverseChance       *float64 `hcl:"reverse_chance,optional"`
	ComfortMin          *int     `hcl:"comfort_min,optional"`
	ComfortMax          *int     `hcl:"comfort_max,optional"`
}

const (
	defaultAddress     = "localhost"
	defaultPort        = 8080
	defaultLogLevel    = "info"
	defaultMaxRooms    = 100
	defaultIdleRoomTTL = "30m"
)

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:     defaultAddress,
			Port:        defaultPort,
			LogLevel:    defaultLogLevel,
			MaxRooms:    defaultMaxRooms,
			IdleRoomTTL: defaultIdleRoomTTL,
		},
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(src, filename)
}

// ParseConfig decodes HCL source and applies defaults for missing values.
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = defaultAddress
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaultPort
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaultLogLevel
	}
	if config.Server.MaxRooms == 0 {
		config.Server.MaxRooms = defaultMaxRooms
	}
	if config.Server.IdleRoomTTL == "" {
		config.Server.IdleRoomTTL = defaultIdleRoomTTL
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Server.LogLevel, err)
	}
	if c.Server.MaxRooms < 1 {
		return fmt.Errorf("max rooms must be positive, got %d", c.Server.MaxRooms)
	}
	if ttl, err := time.ParseDuration(c.Server.IdleRoomTTL); err != nil {
		return fmt.Errorf("invalid idle room ttl %q: %w", c.Server.IdleRoomTTL, err)
	} else if ttl <= 0 {
		return fmt.Errorf("idle room ttl must be positive, got %s", ttl)
	}

	if c.Bots != nil {
		if c.Bots.PlayPauseMs < 0 {
			return fmt.Errorf("play pause must not be negative, got %d", c.Bots.PlayPauseMs)
		}
		for _, think := range c.Bots.Think {
			if _, err := game.ParseDifficulty(think.Difficulty); err != nil {
				return fmt.Errorf("think %q: %w", think.Difficulty, err)
			}
			if think.MinMs < 0 || think.MaxMs < think.MinMs {
				return fmt.Errorf("think %q: need 0 <= min_ms <= max_ms, got %d..%d", think.Difficulty, think.MinMs, think.MaxMs)
			}
		}
	}

	if err := c.BotTuning().Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// IdleTTL returns how long a room may go without activity before it is
// evicted. Call Validate first.
func (c *Config) IdleTTL() time.Duration {
	ttl, err := time.ParseDuration(c.Server.IdleRoomTTL)
	if err != nil {
		ttl, _ = time.ParseDuration(defaultIdleRoomTTL)
	}
	return ttl
}

// ThinkTime returns bot think time ranges with configured overrides.
func (c *Config) ThinkTime() game.ThinkTimeFunc {
	overrides := make(map[game.Difficulty]ThinkConfig)
	if c.Bots != nil {
		for _, think := range c.Bots.Think {
			d, err := game.ParseDifficulty(think.Difficulty)
			if err == nil {
				overrides[d] = think
			}
		}
	}
	return func(d game.Difficulty) (time.Duration, time.Duration) {
		if think, ok := overrides[d]; ok {
			return time.Duration(think.MinMs) * time.Millisecond, time.Duration(think.MaxMs) * time.Millisecond
		}
		return game.DefaultThinkTime(d)
	}
}

// PlayPause returns the pause between a bot deciding and its card landing.
func (c *Config) PlayPause() time.Duration {
	if c.Bots == nil || c.Bots.PlayPauseMs == 0 {
		return game.DefaultPlayPause
	}
	return time.Duration(c.Bots.PlayPauseMs) * time.Millisecond
}

// BotTuning returns bot.DefaultTuning with configured overrides.
func (c *Config) BotTuning() bot.Tuning {
	if c.Tuning == nil {
		return bot.DefaultTuning
	}
	return c.Tuning.Apply(bot.DefaultTuning)
}

// Apply returns base with every set knob overridden.
func (tc *TuningConfig) Apply(base bot.Tuning) bot.Tuning {
	t := base
	setInt(&t.NormalComfort.Min, tc.NormalComfortMin)
	setInt(&t.NormalComfort.Max, tc.NormalComfortMax)
	setInt(&t.BuildBelow, tc.BuildBelow)
	setInt(&t.BuildCeiling, tc.BuildCeiling)
	setInt(&t.BuildTopN, tc.BuildTopN)
	setInt(&t.HoldBelow, tc.HoldBelow)
	setInt(&t.Hold.Min, tc.HoldMin)
	setInt(&t.Hold.Max, tc.HoldMax)
	setInt(&t.DangerLine, tc.DangerLine)
	setInt(&t.GuardCeiling, tc.GuardCeiling)
	setInt(&t.EndgameSeats, tc.EndgameSeats)
	setInt(&t.EarlyPressureBelow, tc.EarlyPressureBelow)
	setInt(&t.Comfort.Min, tc.ComfortMin)
	setInt(&t.Comfort.Max, tc.ComfortMax)
	setFloat(&t.PressureChance, tc.PressureChance)
	setFloat(&t.EarlyPressureChance, tc.EarlyPressureChance)
	setFloat(&t.ReverseChance, tc.ReverseChance)
	return t
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
