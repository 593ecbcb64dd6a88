package difficulty

import (
	"fmt"
	"time"
)

// Config holds all tunable parameters for adaptive difficulty
type Config struct {
	// Timing
	Period time.Duration `yaml:"period"` // How often accuracy is evaluated (session time)

	// Accuracy thresholds (0-1)
	UpperThreshold float64 `yaml:"upper_threshold"` // Harder when accuracy is above this
	LowerThreshold float64 `yaml:"lower_threshold"` // Easier when accuracy is below this

	// Factor steps and bounds
	StepUp    float64 `yaml:"step_up"`
	StepDown  float64 `yaml:"step_down"`
	MinFactor float64 `yaml:"min_factor"`
	MaxFactor float64 `yaml:"max_factor"`

	// Derived timing = max(Base / factor, Minimum)
	Base    time.Duration `yaml:"base"`
	Minimum time.Duration `yaml:"minimum"`
}

// DefaultConfig returns the reflex-game tuning: spawn interval 1.2s at factor 1, never below 0.4s
func DefaultConfig() Config {
	return Config{
		Period: 5 * time.Second,

		UpperThreshold: 0.8,
		LowerThreshold: 0.6,

		StepUp:    0.1,
		StepDown:  0.05, // Relax more slowly than we tighten
		MinFactor: 0.6,
		MaxFactor: 2.0,

		Base:    1200 * time.Millisecond,
		Minimum: 400 * time.Millisecond,
	}
}

// RelaxedConfig returns a configuration that ramps up slowly and forgives misses
func RelaxedConfig() Config {
	cfg := DefaultConfig()
	cfg.Period = 8 * time.Second
	cfg.UpperThreshold = 0.9
	cfg.LowerThreshold = 0.7
	cfg.StepUp = 0.05
	cfg.StepDown = 0.1
	cfg.MaxFactor = 1.5
	return cfg
}

// AggressiveConfig returns a configuration for players who want pressure quickly
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.Period = 3 * time.Second
	cfg.UpperThreshold = 0.7
	cfg.LowerThreshold = 0.4
	cfg.StepUp = 0.2
	cfg.StepDown = 0.05
	cfg.MaxFactor = 3.0
	return cfg
}

// Preset returns a named configuration: "default", "relaxed" or "aggressive".
func Preset(name string) (Config, error) {
	switch name {
	case "", "default":
		return DefaultConfig(), nil
	case "relaxed":
		return RelaxedConfig(), nil
	case "aggressive":
		return AggressiveConfig(), nil
	}
	return Config{}, fmt.Errorf("difficulty: unknown preset %q", name)
}

// WithTiming returns a copy retuned for another timing parameter, such as the
// pose reveal duration instead of the reflex spawn interval.
func (c Config) WithTiming(base, minimum time.Duration) Config {
	c.Base = base
	c.Minimum = minimum
	return c
}

// Validate checks that the configuration can drive a controller.
func (c Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("difficulty: period must be positive, got %v", c.Period)
	}
	if c.LowerThreshold < 0 || c.UpperThreshold > 1 || c.LowerThreshold > c.UpperThreshold {
		return fmt.Errorf("difficulty: thresholds must satisfy 0 <= lower (%v) <= upper (%v) <= 1",
			c.LowerThreshold, c.UpperThreshold)
	}
	if c.StepUp < 0 || c.StepDown < 0 {
		return fmt.Errorf("difficulty: steps must be non-negative")
	}
	if c.MinFactor <= 0 || c.MaxFactor < c.MinFactor {
		return fmt.Errorf("difficulty: factor bounds must satisfy 0 < min (%v) <= max (%v)",
			c.MinFactor, c.MaxFactor)
	}
	if c.Base <= 0 {
		return fmt.Errorf("difficulty: base timing must be positive, got %v", c.Base)
	}
	if c.Minimum < 0 {
		return fmt.Errorf("difficulty: minimum timing must be non-negative, got %v", c.Minimum)
	}
	return nil
}
