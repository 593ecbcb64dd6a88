// Arcade - camera-driven arcade games
// Pop balloons with a fingertip (reflex) or fit your body through the wall (pose)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-arcade/internal/config"
	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/arcade"
)

func main() {
	cfg, debug, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	level := config.LogLevel()
	if debug {
		level = "debug"
	}
	log.Init(level)

	app, err := arcade.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		log.Error("initialization failed", "error", err)
		app.Shutdown()
		os.Exit(1)
	}

	err = app.Run(ctx)
	app.Shutdown()
	if err != nil {
		log.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// parseFlags loads the config file, then applies environment variables and
// explicitly set flags on top of it.
func parseFlags() (config.File, bool, error) {
	configPath := flag.String("config", config.Path(), "YAML config file (overrides ARCADE_CONFIG env var)")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	variant := flag.String("variant", "", "Game: reflex (balloon pop) or pose (hole in the wall)")
	camera := flag.String("camera", "", "Camera device index or video file (overrides CAMERA_DEVICE env var)")
	mirror := flag.Bool("mirror", true, "Mirror the camera image")
	tracker := flag.String("tracker", "", "Landmark tracker: marker (reflex only), remote or sidecar")
	trackerURL := flag.String("tracker-url", "", "Sidecar websocket URL for -tracker remote")
	dashboard := flag.Bool("dashboard", false, "Serve the web dashboard")
	port := flag.String("port", "", "Dashboard port (overrides ARCADE_DASHBOARD_PORT env var)")
	db := flag.String("db", "", "Session history database, \"none\" disables (overrides ARCADE_DB env var)")
	preset := flag.String("difficulty", "", "Difficulty preset: default, relaxed or aggressive")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.File{}, false, err
	}

	// Environment variables
	cfg.Capture.Device = config.CameraDevice(cfg.Capture.Device)
	cfg.Web.Port = config.DashboardPort(cfg.Web.Port)
	cfg.Store.Path = config.DBPath(cfg.Store.Path)

	// Flags
	if *variant != "" {
		cfg.Variant = *variant
	}
	if *camera != "" {
		cfg.Capture.Device = *camera
	}
	if set["mirror"] {
		cfg.Capture.Mirror = *mirror
	}
	if *tracker != "" {
		cfg.Tracker = *tracker
	}
	if *trackerURL != "" {
		cfg.Remote.URL = *trackerURL
	}
	if set["dashboard"] {
		cfg.Web.Enabled = *dashboard
	}
	if *port != "" {
		cfg.Web.Port = *port
		cfg.Web.Enabled = true
	}
	if cfg.Tracker == config.TrackerSidecar {
		cfg.Web.Enabled = true
	}
	switch *db {
	case "":
	case "none":
		cfg.Store.Path = ""
	default:
		cfg.Store.Path = *db
	}
	if *preset != "" {
		if err := cfg.UsePreset(*preset); err != nil {
			return config.File{}, false, err
		}
	}

	return cfg, *debug, cfg.Validate()
}
