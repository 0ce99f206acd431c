// Package config loads process settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds settings that vary per machine or run, as opposed to the
// game rules in the simulation config file.
type Config struct {
	ScreenWidth  int    `env:"TOPDOWN_SCREEN_WIDTH"  envDefault:"1280"`
	ScreenHeight int    `env:"TOPDOWN_SCREEN_HEIGHT" envDefault:"800"`
	TickRate     int    `env:"TOPDOWN_TICK_RATE"     envDefault:"60"` // fixed updates per second
	RulesFile    string `env:"TOPDOWN_RULES_FILE"    envDefault:"data/rules.json"`
	ReplayDir    string `env:"TOPDOWN_REPLAY_DIR"    envDefault:"replays"`
	Seed         int64  `env:"TOPDOWN_SEED"          envDefault:"0"` // 0 picks a time-based seed

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads Config from the given variables instead of the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return fmt.Errorf("invalid screen size %dx%d", c.ScreenWidth, c.ScreenHeight)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("invalid tick rate %d", c.TickRate)
	}
	if c.ReplayDir == "" {
		return fmt.Errorf("replay dir must not be empty")
	}
	return nil
}

// TickDelta is the fixed simulation step in seconds.
func (c Config) TickDelta() float64 {
	return 1.0 / float64(c.TickRate)
}
