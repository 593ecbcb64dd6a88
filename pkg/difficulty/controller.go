// Package difficulty implements the accuracy feedback loop that retunes game timing.
package difficulty

import (
	"time"
)

// State is the controller's observable state.
type State struct {
	Factor     float64   `json:"factor"`
	Attempts   int       `json:"attempts"`
	Successes  int       `json:"successes"`
	LastAdjust time.Time `json:"last_adjust"`
}

// Adjustment describes one period boundary.
type Adjustment struct {
	Accuracy  float64
	OldFactor float64
	NewFactor float64
	Timing    time.Duration // Derived timing parameter after the adjustment
}

// Changed reports whether the factor moved.
func (a Adjustment) Changed() bool {
	return a.NewFactor != a.OldFactor
}

// Controller adapts a difficulty factor from windowed accuracy.
// It only touches its own State; callers apply the derived timing.
type Controller struct {
	config Config
	state  State
}

// NewController creates a controller at factor 1 clamped into the configured bounds.
func NewController(config Config) *Controller {
	c := &Controller{config: config}
	c.Reset(time.Time{})
	return c
}

// Reset restarts the controller at the beginning of a session.
func (c *Controller) Reset(now time.Time) {
	c.state = State{
		Factor:     clamp(1.0, c.config.MinFactor, c.config.MaxFactor),
		LastAdjust: now,
	}
}

// Record adds one observation to the current window.
func (c *Controller) Record(attempt, success bool) {
	if attempt {
		c.state.Attempts++
	}
	if success {
		c.state.Successes++
	}
}

// Tick adjusts the factor when a full period has elapsed since the last adjustment.
// Returns the adjustment and true on a period boundary, false otherwise.
func (c *Controller) Tick(now time.Time) (Adjustment, bool) {
	if now.Sub(c.state.LastAdjust) < c.config.Period {
		return Adjustment{}, false
	}

	accuracy := c.Accuracy()
	old := c.state.Factor

	if accuracy > c.config.UpperThreshold && c.state.Factor < c.config.MaxFactor {
		c.state.Factor = clamp(c.state.Factor+c.config.StepUp, c.config.MinFactor, c.config.MaxFactor)
	} else if accuracy < c.config.LowerThreshold && c.state.Factor > c.config.MinFactor {
		c.state.Factor = clamp(c.state.Factor-c.config.StepDown, c.config.MinFactor, c.config.MaxFactor)
	}

	// Reset the window
	c.state.Attempts = 0
	c.state.Successes = 0
	c.state.LastAdjust = now

	return Adjustment{
		Accuracy:  accuracy,
		OldFactor: old,
		NewFactor: c.state.Factor,
		Timing:    c.Timing(),
	}, true
}

// Accuracy returns successes/attempts for the current window, 0 with no attempts.
func (c *Controller) Accuracy() float64 {
	if c.state.Attempts == 0 {
		return 0
	}
	return float64(c.state.Successes) / float64(c.state.Attempts)
}

// Timing returns the derived timing parameter for the current factor.
func (c *Controller) Timing() time.Duration {
	d := time.Duration(float64(c.config.Base) / c.state.Factor)
	if d < c.config.Minimum {
		return c.config.Minimum
	}
	return d
}

// Factor returns the current difficulty factor.
func (c *Controller) Factor() float64 {
	return c.state.Factor
}

// State returns a copy of the controller state.
func (c *Controller) State() State {
	return c.state
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.config
}
