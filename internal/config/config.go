package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the kernel and its driver.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Turn    TurnConfig    `mapstructure:"turn"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Memory  MemoryConfig  `mapstructure:"memory"`
	Loop    LoopConfig    `mapstructure:"loop"`
}

// LoggingConfig controls zap logger construction.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// TurnConfig controls the phase state machine.
type TurnConfig struct {
	DrawPerTurn  int           `mapstructure:"draw_per_turn"`
	StartingMana int           `mapstructure:"starting_mana"`
	PhaseTimeout time.Duration `mapstructure:"phase_timeout"` // 0 = unlimited
}

// RulesConfig controls the rule registry.
type RulesConfig struct {
	MaxActive     int     `mapstructure:"max_active"`
	StackPenalty  float64 `mapstructure:"stack_penalty"`
	CostThreshold float64 `mapstructure:"cost_threshold"`
}

// MemoryConfig controls the memory store.
type MemoryConfig struct {
	Capacity             int     `mapstructure:"capacity"`
	AllowDuplicates      bool    `mapstructure:"allow_duplicates"`
	BaseEntropyReduction float64 `mapstructure:"base_entropy_reduction"`
}

// LoopConfig controls the chrono-loop controller and snapshot history.
type LoopConfig struct {
	MaxRewinds       int     `mapstructure:"max_rewinds"`
	EntropyPenalty   float64 `mapstructure:"entropy_penalty"`
	PreserveHealth   bool    `mapstructure:"preserve_health"`
	PreserveMana     bool    `mapstructure:"preserve_mana"`
	SnapshotLookback int     `mapstructure:"snapshot_lookback"` // turns of history retained, 0 = unbounded
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("turn.draw_per_turn", 1)
	v.SetDefault("turn.starting_mana", 3)
	v.SetDefault("turn.phase_timeout", time.Duration(0))

	v.SetDefault("rules.max_active", 5)
	v.SetDefault("rules.stack_penalty", 1.2)
	v.SetDefault("rules.cost_threshold", 50.0)

	v.SetDefault("memory.capacity", 7)
	v.SetDefault("memory.allow_duplicates", false)
	v.SetDefault("memory.base_entropy_reduction", 2.0)

	v.SetDefault("loop.max_rewinds", 3)
	v.SetDefault("loop.entropy_penalty", 5.0)
	v.SetDefault("loop.preserve_health", false)
	v.SetDefault("loop.preserve_mana", false)
	v.SetDefault("loop.snapshot_lookback", 10)
}

// Load reads configuration from the optional yaml file at path, layered
// over built-in defaults and CHRONO_* environment variables. An empty
// path loads defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CHRONO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in defaults without touching the filesystem.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults are static and always validate.
		panic(err)
	}
	return cfg
}

// Validate rejects configurations the kernel cannot run with.
func (c *Config) Validate() error {
	if c.Rules.MaxActive < 1 {
		return fmt.Errorf("rules.max_active must be at least 1, got %d", c.Rules.MaxActive)
	}
	if c.Rules.StackPenalty <= 1.0 {
		return fmt.Errorf("rules.stack_penalty must exceed 1.0, got %f", c.Rules.StackPenalty)
	}
	if c.Memory.Capacity < 1 {
		return fmt.Errorf("memory.capacity must be at least 1, got %d", c.Memory.Capacity)
	}
	if c.Loop.MaxRewinds < 0 {
		return fmt.Errorf("loop.max_rewinds must not be negative, got %d", c.Loop.MaxRewinds)
	}
	if c.Turn.PhaseTimeout < 0 {
		return fmt.Errorf("turn.phase_timeout must not be negative, got %s", c.Turn.PhaseTimeout)
	}
	return nil
}
