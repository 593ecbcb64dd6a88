// Package arcade wires the engine, a game variant, its devices and the
// persistence and dashboard collaborators into one runnable application.
package arcade

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/teslashibe/go-arcade/internal/config"
	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/difficulty"
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark"
	"github.com/teslashibe/go-arcade/pkg/landmark/remote"
	"github.com/teslashibe/go-arcade/pkg/pose"
	"github.com/teslashibe/go-arcade/pkg/profile"
	"github.com/teslashibe/go-arcade/pkg/reflex"
	"github.com/teslashibe/go-arcade/pkg/store"
	"github.com/teslashibe/go-arcade/pkg/vision"
	"github.com/teslashibe/go-arcade/pkg/web"
)

// WindowTitle is the title of the display window.
const WindowTitle = "go-arcade"

// App is the arcade application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config config.File

	// Game
	variant game.Variant
	walls   []string
	engine  *game.Engine

	// Devices, handed to the engine which releases them when Run returns
	source     game.FrameSource
	tracker    landmark.Tracker
	compositor game.Compositor
	inputs     game.Inputs
	clock      game.Clock
	maskLoader pose.MaskLoader
	observers  []game.Observer
	ran        bool

	// Persistence
	db      *store.SQLiteDB
	profile *profile.Profile

	// Web dashboard and push-mode sidecars
	webServer *web.Server
	sidecars  *remote.Hub

	shutdownOnce sync.Once
}

// New creates an application from a validated configuration.
func New(cfg config.File, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config:     cfg,
		maskLoader: vision.LoadMask,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init builds the variant, opens storage, the dashboard and devices, and
// creates the engine. Call this after New() and before Run().
func (a *App) Init(ctx context.Context) (err error) {
	log.Info("arcade starting",
		"variant", a.config.Variant,
		"tracker", a.config.Tracker,
		"difficulty", a.config.Difficulty.Preset)

	defer func() {
		if err != nil {
			a.releaseDevices()
		}
	}()

	if err := a.initVariant(); err != nil {
		return fmt.Errorf("variant init: %w", err)
	}

	a.initProfile()
	a.initStore()
	a.initWeb()

	if err := a.initDevices(ctx); err != nil {
		return fmt.Errorf("devices: %w", err)
	}

	diff := difficulty.NewController(a.config.DifficultyFor(a.config.Variant))

	deps := game.Deps{
		Source:     a.source,
		Tracker:    a.tracker,
		Compositor: a.compositor,
		Input:      a.inputs,
		Clock:      a.clock,
		Observers:  append([]game.Observer{game.LogObserver{}}, a.observers...),
	}
	if a.webServer != nil {
		deps.Observers = append(deps.Observers, a.webServer)
	}
	if a.db != nil {
		deps.Recorders = append(deps.Recorders, a.db)
	}
	if a.profile != nil {
		deps.Recorders = append(deps.Recorders, a.profile)
		deps.ScoreBoard = a.profile
	}

	engine, err := game.NewEngine(a.config.Game, a.variant, diff, deps)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	a.engine = engine

	if a.webServer != nil {
		a.webServer.StartAsync()
	}
	return nil
}

// Run drives the engine until quit or cancellation.
func (a *App) Run(ctx context.Context) error {
	if a.engine == nil {
		return errors.New("arcade: Init must be called before Run")
	}
	a.ran = true
	return a.engine.Run(ctx)
}

// Engine returns the engine created by Init.
func (a *App) Engine() *game.Engine {
	return a.engine
}

// Web returns the dashboard server, nil when disabled.
func (a *App) Web() *web.Server {
	return a.webServer
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		if !a.ran {
			a.releaseDevices()
		}
		if a.webServer != nil {
			if err := a.webServer.Shutdown(); err != nil {
				log.Warn("dashboard shutdown failed", "error", err)
			}
		}
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Warn("failed to close session store", "error", err)
			}
		}
		log.Info("arcade stopped")
	})
}

func (a *App) initVariant() error {
	switch a.config.Variant {
	case reflex.Name:
		v, err := reflex.New(a.config.Reflex)
		if err != nil {
			return err
		}
		a.variant = v

	case pose.Name:
		challenges, err := pose.LoadChallenges(a.config.Pose, a.maskLoader)
		if err != nil {
			return err
		}
		v, err := pose.New(a.config.Pose, challenges)
		if err != nil {
			return err
		}
		a.variant = v
		a.walls = make([]string, len(challenges))
		for i, ch := range challenges {
			a.walls[i] = ch.Path
		}
		log.Info("challenges loaded", "count", len(challenges))

	default:
		return fmt.Errorf("unknown variant %q", a.config.Variant)
	}
	return nil
}

// initProfile opens best-score storage. Failures fall back to a memory-only profile.
func (a *App) initProfile() {
	if !a.config.Profile.Enabled {
		return
	}
	p, err := profile.Open(a.config.Profile.AppName)
	if err != nil {
		log.Warn("profile unavailable, best scores kept in memory", "error", err)
		p = profile.New(nil)
	}
	if err := p.Preload(a.variant.Name()); err != nil {
		log.Warn("failed to load best score", "variant", a.variant.Name(), "error", err)
	}
	a.profile = p
}

// initStore opens session history. Failures disable history.
func (a *App) initStore() {
	if a.config.Store.Path == "" {
		return
	}
	db, err := store.Open(a.config.Store.Path)
	if err != nil {
		log.Warn("session history disabled", "path", a.config.Store.Path, "error", err)
		return
	}
	a.db = db
}

func (a *App) initWeb() {
	if !a.config.Web.Enabled {
		return
	}

	opts := web.Options{
		Port:        a.config.Web.Port,
		StaticDir:   a.config.Web.StaticDir,
		EventBuffer: a.config.Web.EventBuffer,
	}
	if a.db != nil {
		opts.History = a.db
	}
	if a.profile != nil {
		opts.Scores = a.profile
	}
	if a.config.Tracker == config.TrackerSidecar {
		a.sidecars = remote.NewHub(remote.NewFeed(a.config.Remote.MaxAge, nil))
		opts.Sidecars = a.sidecars
	}

	a.webServer = web.NewServer(opts)
	a.inputs = append(a.inputs, a.webServer)
}

func (a *App) initDevices(ctx context.Context) error {
	if a.source == nil {
		capture, err := vision.OpenCapture(a.config.Capture)
		if err != nil {
			return err
		}
		a.source = capture
		log.Info("camera opened", "device", a.config.Capture.Device)
	}

	if a.tracker == nil {
		tracker, err := a.openTracker(ctx)
		if err != nil {
			return fmt.Errorf("tracker: %w", err)
		}
		a.tracker = tracker
	}

	if a.compositor == nil {
		a.compositor = vision.NewWindow(WindowTitle, a.walls)
	}
	if in, ok := a.compositor.(game.Input); ok {
		a.inputs = append(game.Inputs{in}, a.inputs...)
	}
	return nil
}

func (a *App) openTracker(ctx context.Context) (landmark.Tracker, error) {
	switch a.config.Tracker {
	case config.TrackerMarker:
		return vision.NewMarkerTracker(a.config.Marker)

	case config.TrackerRemote:
		client, err := remote.Dial(ctx, a.config.Remote)
		if err != nil {
			return nil, err
		}
		log.Info("landmark sidecar connected", "url", a.config.Remote.URL)
		return client, nil

	case config.TrackerSidecar:
		if a.sidecars == nil {
			return nil, errors.New("sidecar tracker requires the dashboard")
		}
		log.Info("waiting for landmark sidecars", "path", "/ws/landmarks")
		return a.sidecars.Feed(), nil
	}
	return nil, fmt.Errorf("unknown tracker %q", a.config.Tracker)
}

// releaseDevices closes devices the engine never took ownership of.
func (a *App) releaseDevices() {
	if a.compositor != nil {
		a.compositor.Close()
		a.compositor = nil
	}
	if a.tracker != nil {
		a.tracker.Close()
		a.tracker = nil
	}
	if a.source != nil {
		a.source.Close()
		a.source = nil
	}
}
