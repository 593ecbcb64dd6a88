// Package pose implements the hole-in-the-wall variant: a challenge silhouette fades in
// and the player's tracked body must sit inside its safe region when the reveal completes.
package pose

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// ChallengeSpec names one challenge image on disk.
type ChallengeSpec struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Config holds all tunable parameters for the pose variant
type Config struct {
	// Mask resolution; challenge images are scaled to this size
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Reveal timing. The difficulty controller retunes the duration between reveals.
	Duration    time.Duration `yaml:"duration"`
	MinDuration time.Duration `yaml:"min_duration"`

	// Matching
	Reward              int                `yaml:"reward"`
	Tolerance           int                `yaml:"tolerance"`            // Neighborhood offset in pixels
	ConfidenceThreshold float64            `yaml:"confidence_threshold"` // Joints below this are skipped
	WhiteThreshold      int                `yaml:"white_threshold"`      // 0-255; brighter pixels are safe
	RequiredJoints      []landmark.JointID `yaml:"required_joints"`

	// StaleAfter bounds how old the last pose may be when a reveal completes
	StaleAfter time.Duration `yaml:"stale_after"`

	// Challenges in play order; the list wraps
	Challenges []ChallengeSpec `yaml:"challenges"`
}

// DefaultConfig returns the classic hole-in-the-wall tuning
func DefaultConfig() Config {
	return Config{
		Width:  1280,
		Height: 720,

		Duration:    5 * time.Second,
		MinDuration: 2 * time.Second,

		Reward:              100,
		Tolerance:           5,
		ConfidenceThreshold: 0.5,
		WhiteThreshold:      230,
		RequiredJoints: []landmark.JointID{
			landmark.LeftShoulder,
			landmark.RightShoulder,
			landmark.LeftHip,
			landmark.RightHip,
		},

		StaleAfter: time.Second,

		Challenges: []ChallengeSpec{
			{Name: "arms-up", Path: "assets/walls/arms-up.png"},
			{Name: "star", Path: "assets/walls/star.png"},
			{Name: "lean-left", Path: "assets/walls/lean-left.png"},
		},
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("mask size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.MinDuration <= 0 {
		return errors.New("min_duration must be positive")
	}
	if c.Duration < c.MinDuration {
		return errors.New("duration must be at least min_duration")
	}
	if c.Reward < 0 {
		return errors.New("reward cannot be negative")
	}
	if c.Tolerance < 0 {
		return errors.New("tolerance cannot be negative")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold %v outside [0, 1]", c.ConfidenceThreshold)
	}
	if c.WhiteThreshold < 0 || c.WhiteThreshold > 255 {
		return fmt.Errorf("white_threshold %d outside [0, 255]", c.WhiteThreshold)
	}
	if len(c.RequiredJoints) == 0 {
		return errors.New("required_joints cannot be empty")
	}
	if c.StaleAfter <= 0 {
		return errors.New("stale_after must be positive")
	}
	if len(c.Challenges) == 0 {
		return errors.New("challenges cannot be empty")
	}
	for i, ch := range c.Challenges {
		if ch.Path == "" {
			return fmt.Errorf("challenge %d has no path", i)
		}
	}
	return nil
}
