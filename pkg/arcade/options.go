package arcade

import (
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark"
	"github.com/teslashibe/go-arcade/pkg/pose"
)

// Option overrides a collaborator the App would otherwise open itself.
type Option func(*App)

// WithSource replaces the camera capture.
func WithSource(src game.FrameSource) Option {
	return func(a *App) {
		a.source = src
	}
}

// WithTracker replaces the configured tracker backend.
func WithTracker(t landmark.Tracker) Option {
	return func(a *App) {
		a.tracker = t
	}
}

// WithCompositor replaces the display window. The compositor is also polled
// for commands when it implements game.Input.
func WithCompositor(c game.Compositor) Option {
	return func(a *App) {
		a.compositor = c
	}
}

// WithInput adds a command source.
func WithInput(in game.Input) Option {
	return func(a *App) {
		a.inputs = append(a.inputs, in)
	}
}

// WithClock sets the engine clock.
func WithClock(c game.Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}

// WithMaskLoader sets how pose challenge images become masks.
func WithMaskLoader(load pose.MaskLoader) Option {
	return func(a *App) {
		a.maskLoader = load
	}
}

// WithObserver adds a telemetry observer.
func WithObserver(o game.Observer) Option {
	return func(a *App) {
		a.observers = append(a.observers, o)
	}
}
