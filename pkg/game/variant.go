package game

import (
	"context"
	"errors"
	"time"

	"github.com/teslashibe/go-arcade/pkg/landmark"
)

// Sentinel errors for the frame loop.
var (
	// ErrNoFrame is returned by a FrameSource when no frame is available this tick.
	ErrNoFrame = errors.New("game: no frame")

	// ErrFrameSourceLost is returned by Run when frame acquisition keeps failing.
	ErrFrameSourceLost = errors.New("game: frame source lost")
)

// FrameSource supplies one frame per call.
type FrameSource interface {
	// Next blocks until a frame is available, or returns ErrNoFrame / another error
	Next(ctx context.Context) (landmark.Frame, error)

	// Close releases the device
	Close() error
}

// Compositor draws a DrawList over a frame and presents it.
type Compositor interface {
	Present(frame landmark.Frame, list *DrawList) error
	Close() error
}

// Command is a discrete player or operator command.
type Command string

const (
	CommandStart          Command = "start"
	CommandQuit           Command = "quit"
	CommandRestart        Command = "restart"
	CommandDebugSkipLevel Command = "skip"
)

// ParseCommand converts a name into a Command.
func ParseCommand(name string) (Command, bool) {
	switch c := Command(name); c {
	case CommandStart, CommandQuit, CommandRestart, CommandDebugSkipLevel:
		return c, true
	}
	return "", false
}

// Input is a non-blocking source of commands, polled once per frame.
type Input interface {
	Poll() []Command
}

// Inputs combines several inputs; commands are returned in input order.
type Inputs []Input

// Poll drains every input.
func (in Inputs) Poll() []Command {
	var cmds []Command
	for _, i := range in {
		if i != nil {
			cmds = append(cmds, i.Poll()...)
		}
	}
	return cmds
}

// Tick is the per-frame input handed to a variant.
type Tick struct {
	Now    time.Time
	DT     time.Duration
	Sets   []landmark.PointSet
	Width  int // Frame width in pixels
	Height int // Frame height in pixels
}

// Variant is one game built on the shared engine.
type Variant interface {
	// Name identifies the variant ("reflex", "pose")
	Name() string

	// Start resets variant state for a new session
	Start(now time.Time, s *Session)

	// Update advances the simulation by one frame
	Update(t Tick, s *Session) []Event

	// Evaluate runs the hit/match predicate against this frame's tracked points
	Evaluate(t Tick, s *Session) []Event

	// IsTerminal reports whether gameplay has ended the session
	IsTerminal() bool

	// ApplyTiming receives the difficulty controller's derived timing parameter
	ApplyTiming(d time.Duration)

	// Command handles variant-specific commands such as DebugSkipLevel
	Command(cmd Command, now time.Time, s *Session) []Event

	// Draw adds entities or the challenge overlay to the draw list
	Draw(list *DrawList)
}
