package game

import (
	"errors"
	"time"
)

// Config holds engine loop settings.
type Config struct {
	// MaxScore is the upper score bound shared by all variants
	MaxScore int `yaml:"max_score"`

	// MaxFrameFailures is how many consecutive frame failures are tolerated
	// before Run returns ErrFrameSourceLost. Zero disables the limit.
	MaxFrameFailures int `yaml:"max_frame_failures"`

	// MaxFrameDelta caps the per-frame time step after a stall
	MaxFrameDelta time.Duration `yaml:"max_frame_delta"`

	// SnapshotInterval is how often observers receive a Snapshot
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`

	// RecordTimeout bounds each SessionRecorder call
	RecordTimeout time.Duration `yaml:"record_timeout"`

	// Title is shown while idle
	Title string `yaml:"title"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxScore:         10000,
		MaxFrameFailures: 30,
		MaxFrameDelta:    250 * time.Millisecond,
		SnapshotInterval: 250 * time.Millisecond,
		RecordTimeout:    2 * time.Second,
		Title:            "Press S to start",
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.MaxScore <= 0 {
		return errors.New("max_score must be positive")
	}
	if c.MaxFrameFailures < 0 {
		return errors.New("max_frame_failures cannot be negative")
	}
	if c.MaxFrameDelta <= 0 {
		return errors.New("max_frame_delta must be positive")
	}
	if c.SnapshotInterval <= 0 {
		return errors.New("snapshot_interval must be positive")
	}
	if c.RecordTimeout <= 0 {
		return errors.New("record_timeout must be positive")
	}
	return nil
}
