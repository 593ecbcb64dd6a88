// Package reflex implements the balloon-pop variant: entities rise through the
// play field and are popped by a tracked fingertip before they escape at the top.
package reflex

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all tunable parameters for the reflex variant
type Config struct {
	// Play field
	Width       int `yaml:"width"`        // Frame width in pixels
	Height      int `yaml:"height"`       // Frame height in pixels
	MaxEntities int `yaml:"max_entities"` // Live entity cap

	// Spawn ranges (inclusive)
	RadiusMin int     `yaml:"radius_min"` // Pixels
	RadiusMax int     `yaml:"radius_max"`
	SpeedMin  int     `yaml:"speed_min"` // Pixels per second, upward
	SpeedMax  int     `yaml:"speed_max"`
	DriftMax  float64 `yaml:"drift_max"` // Horizontal drift is drawn from ±DriftMax

	// Scoring: points = floor(BasePoints * (ReferenceRadius/radius) * (speed/ReferenceSpeed))
	BasePoints      int `yaml:"base_points"`
	ReferenceRadius int `yaml:"reference_radius"`
	ReferenceSpeed  int `yaml:"reference_speed"`
	MissPenalty     int `yaml:"miss_penalty"`

	// Spawn cadence: interval = max(BaseSpawnInterval - ScoreSpawnStep*score, MinSpawnInterval)
	BaseSpawnInterval time.Duration `yaml:"base_spawn_interval"`
	MinSpawnInterval  time.Duration `yaml:"min_spawn_interval"`
	ScoreSpawnStep    time.Duration `yaml:"score_spawn_step"` // Interval shrink per point of score

	// WaveLength is the active play time per level
	WaveLength time.Duration `yaml:"wave_length"`

	// Seed for spawn randomness; 0 picks a time-based seed
	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns the classic balloon pop tuning
func DefaultConfig() Config {
	return Config{
		Width:       1280,
		Height:      720,
		MaxEntities: 15,

		RadiusMin: 20, // Smaller balloons are worth more
		RadiusMax: 50,
		SpeedMin:  150,
		SpeedMax:  300,
		DriftMax:  1.2,

		BasePoints:      80,
		ReferenceRadius: 50,
		ReferenceSpeed:  250,
		MissPenalty:     35,

		BaseSpawnInterval: 1500 * time.Millisecond,
		MinSpawnInterval:  300 * time.Millisecond,
		ScoreSpawnStep:    200 * time.Microsecond, // 0.2s faster per 1000 points

		WaveLength: 30 * time.Second,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("play field must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.MaxEntities <= 0 {
		return errors.New("max_entities must be positive")
	}
	if c.RadiusMin <= 0 {
		return errors.New("radius_min must be positive")
	}
	if c.RadiusMax < c.RadiusMin {
		return fmt.Errorf("radius range inverted: %d > %d", c.RadiusMin, c.RadiusMax)
	}
	if 2*c.RadiusMax > c.Width {
		return fmt.Errorf("radius_max %d does not fit in width %d", c.RadiusMax, c.Width)
	}
	if c.SpeedMin <= 0 {
		return errors.New("speed_min must be positive")
	}
	if c.SpeedMax < c.SpeedMin {
		return fmt.Errorf("speed range inverted: %d > %d", c.SpeedMin, c.SpeedMax)
	}
	if c.DriftMax < 0 {
		return errors.New("drift_max cannot be negative")
	}
	if c.BasePoints <= 0 || c.ReferenceRadius <= 0 || c.ReferenceSpeed <= 0 {
		return errors.New("base_points, reference_radius and reference_speed must be positive")
	}
	if c.MissPenalty < 0 {
		return errors.New("miss_penalty cannot be negative")
	}
	if c.MinSpawnInterval <= 0 {
		return errors.New("min_spawn_interval must be positive")
	}
	if c.BaseSpawnInterval < c.MinSpawnInterval {
		return errors.New("base_spawn_interval must be at least min_spawn_interval")
	}
	if c.ScoreSpawnStep < 0 {
		return errors.New("score_spawn_step cannot be negative")
	}
	if c.WaveLength <= 0 {
		return errors.New("wave_length must be positive")
	}
	return nil
}
