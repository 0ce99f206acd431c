// Package simulation provides the arena world and the rules that drive it.
// Rules are loaded from a data file so each arena can tune its own mechanics.
package simulation

import (
	"encoding/json"
	"fmt"
	"os"

	"chosenoffset.com/topdown/internal/replay"
)

// Config holds all simulation rules for an arena
type Config struct {
	Arena ArenaConfig `json:"arena"`

	Player PlayerConfig `json:"player"`

	Enemies EnemyConfig `json:"enemies"`

	Weapons WeaponConfig `json:"weapons"`

	// Replay limits
	Replay ReplayConfig `json:"replay"`
}

// ArenaConfig defines the playfield
type ArenaConfig struct {
	Width  float64 `json:"width"`  // Playfield width in pixels
	Height float64 `json:"height"` // Playfield height in pixels
}

// PlayerConfig defines player movement and durability
type PlayerConfig struct {
	Speed     float64 `json:"speed"`      // Pixels per second
	Radius    float64 `json:"radius"`     // Collision radius
	MaxHealth float64 `json:"max_health"` // Starting health
}

// EnemyConfig defines the enemy wave
type EnemyConfig struct {
	Count         int     `json:"count"`          // Enemies alive at once
	Speed         float64 `json:"speed"`          // Pixels per second
	Radius        float64 `json:"radius"`         // Collision radius
	MaxHealth     float64 `json:"max_health"`     // Health per enemy
	ContactDamage float64 `json:"contact_damage"` // Damage per second while touching the player
	SightRange    float64 `json:"sight_range"`    // Distance at which enemies start chasing
	RespawnDelay  float64 `json:"respawn_delay"`  // Seconds before a dead enemy is replaced
}

// WeaponConfig defines the gun and grenades
type WeaponConfig struct {
	FireInterval    float64 `json:"fire_interval"`    // Seconds between shots
	BulletSpeed     float64 `json:"bullet_speed"`     // Pixels per second
	BulletDamage    float64 `json:"bullet_damage"`    // Damage per hit
	BulletLifetime  float64 `json:"bullet_lifetime"`  // Seconds before a bullet despawns
	GrenadeSpeed    float64 `json:"grenade_speed"`    // Initial throw speed
	GrenadeFriction float64 `json:"grenade_friction"` // Fraction of speed lost per second
	GrenadeFuse     float64 `json:"grenade_fuse"`     // Seconds until detonation
	GrenadeRadius   float64 `json:"grenade_radius"`   // Blast radius
	GrenadeDamage   float64 `json:"grenade_damage"`   // Damage at the centre of the blast
	GrenadeCooldown float64 `json:"grenade_cooldown"` // Seconds between throws
}

// ReplayConfig defines recording and playback limits
type ReplayConfig struct {
	MaxRecordingDuration float64 `json:"max_recording_duration"` // Seconds
	EndingGrace          float64 `json:"ending_grace"`           // Seconds shown after playback ends
	MinSpeed             float64 `json:"min_speed"`
	MaxSpeed             float64 `json:"max_speed"`
}

// Limits converts the config into session limits.
func (r ReplayConfig) Limits() replay.Limits {
	return replay.Limits{
		MaxRecordingDuration: r.MaxRecordingDuration,
		EndingGrace:          r.EndingGrace,
		MinSpeed:             r.MinSpeed,
		MaxSpeed:             r.MaxSpeed,
	}
}

// DefaultConfig returns sensible defaults for a small arena
func DefaultConfig() *Config {
	limits := replay.DefaultLimits()
	return &Config{
		Arena: ArenaConfig{
			Width:  1600,
			Height: 1200,
		},
		Player: PlayerConfig{
			Speed:     220,
			Radius:    12,
			MaxHealth: 100,
		},
		Enemies: EnemyConfig{
			Count:         6,
			Speed:         120,
			Radius:        14,
			MaxHealth:     40,
			ContactDamage: 25,
			SightRange:    500,
			RespawnDelay:  3,
		},
		Weapons: WeaponConfig{
			FireInterval:    0.15,
			BulletSpeed:     900,
			BulletDamage:    20,
			BulletLifetime:  1.2,
			GrenadeSpeed:    500,
			GrenadeFriction: 1.5,
			GrenadeFuse:     1.5,
			GrenadeRadius:   120,
			GrenadeDamage:   80,
			GrenadeCooldown: 1.0,
		},
		Replay: ReplayConfig{
			MaxRecordingDuration: limits.MaxRecordingDuration,
			EndingGrace:          limits.EndingGrace,
			MinSpeed:             limits.MinSpeed,
			MaxSpeed:             limits.MaxSpeed,
		},
	}
}

// LoadConfig loads simulation config from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return defaults if file doesn't exist
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read simulation config: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	return config, nil
}

// Validate checks that the rules describe a playable arena.
func (c *Config) Validate() error {
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		return fmt.Errorf("arena size must be positive, got %vx%v", c.Arena.Width, c.Arena.Height)
	}
	if c.Enemies.Count < 0 {
		return fmt.Errorf("enemy count must not be negative, got %d", c.Enemies.Count)
	}
	if c.Weapons.FireInterval <= 0 {
		return fmt.Errorf("fire interval must be positive, got %v", c.Weapons.FireInterval)
	}
	r := c.Replay
	if r.MaxRecordingDuration <= 0 || r.EndingGrace < 0 {
		return fmt.Errorf("replay durations out of range: max %v, grace %v", r.MaxRecordingDuration, r.EndingGrace)
	}
	if r.MinSpeed <= 0 || r.MaxSpeed < r.MinSpeed {
		return fmt.Errorf("replay speed range invalid: [%v, %v]", r.MinSpeed, r.MaxSpeed)
	}
	return nil
}
