package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/teslashibe/go-arcade/pkg/difficulty"
	"github.com/teslashibe/go-arcade/pkg/game"
	"github.com/teslashibe/go-arcade/pkg/landmark/remote"
	"github.com/teslashibe/go-arcade/pkg/pose"
	"github.com/teslashibe/go-arcade/pkg/reflex"
	"github.com/teslashibe/go-arcade/pkg/vision"
	"gopkg.in/yaml.v3"
)

// Tracker backends.
const (
	TrackerMarker  = "marker"  // In-process color marker tracking
	TrackerRemote  = "remote"  // Dial a landmark sidecar
	TrackerSidecar = "sidecar" // Sidecars push to the dashboard's /ws/landmarks
)

// ValidationError names the config section that failed validation.
type ValidationError struct {
	Section string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Section, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DifficultySection selects a preset; fields set alongside it override the preset.
type DifficultySection struct {
	Preset            string `yaml:"preset"`
	difficulty.Config `yaml:",inline"`
}

// WebSection configures the dashboard.
type WebSection struct {
	Enabled     bool   `yaml:"enabled"`
	Port        string `yaml:"port"`
	StaticDir   string `yaml:"static_dir"`
	EventBuffer int    `yaml:"event_buffer"`
}

// StoreSection configures session history. An empty path disables it.
type StoreSection struct {
	Path string `yaml:"path"`
}

// ProfileSection configures best-score persistence.
type ProfileSection struct {
	Enabled bool   `yaml:"enabled"`
	AppName string `yaml:"app_name"`
}

// File is the arcade configuration file.
type File struct {
	Variant string `yaml:"variant"` // reflex or pose
	Tracker string `yaml:"tracker"`

	Game       game.Config          `yaml:"game"`
	Reflex     reflex.Config        `yaml:"reflex"`
	Pose       pose.Config          `yaml:"pose"`
	Difficulty DifficultySection    `yaml:"difficulty"`
	Capture    vision.CaptureConfig `yaml:"capture"`
	Marker     vision.MarkerConfig  `yaml:"marker"`
	Remote     remote.ClientConfig  `yaml:"remote"`
	Web        WebSection           `yaml:"web"`
	Store      StoreSection         `yaml:"store"`
	Profile    ProfileSection       `yaml:"profile"`
}

// Default returns the configuration used when no file is given
func Default() File {
	return File{
		Variant: reflex.Name,
		Tracker: TrackerMarker,

		Game:       game.DefaultConfig(),
		Reflex:     reflex.DefaultConfig(),
		Pose:       pose.DefaultConfig(),
		Difficulty: DifficultySection{Preset: "default", Config: difficulty.DefaultConfig()},
		Capture:    vision.DefaultCaptureConfig(),
		Marker:     vision.DefaultMarkerConfig(),
		Remote:     remote.DefaultClientConfig(),
		Web: WebSection{
			Port:        DefaultDashboardPort,
			EventBuffer: 500,
		},
		Store:   StoreSection{Path: DefaultDBPath},
		Profile: ProfileSection{Enabled: true, AppName: "go-arcade"},
	}
}

// Load reads a YAML file over the defaults and validates the result.
// An empty path returns the validated defaults.
func Load(path string) (File, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.overlay(data); err != nil {
		return File{}, err
	}
	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Parse overlays YAML data onto the defaults and validates the result.
func Parse(data []byte) (File, error) {
	cfg := Default()
	if err := cfg.overlay(data); err != nil {
		return File{}, err
	}
	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

func (f *File) overlay(data []byte) error {
	// The preset is resolved first so explicit difficulty fields land on top of it.
	var head struct {
		Difficulty struct {
			Preset string `yaml:"preset"`
		} `yaml:"difficulty"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if head.Difficulty.Preset != "" {
		if err := f.UsePreset(head.Difficulty.Preset); err != nil {
			return &ValidationError{Section: "difficulty", Err: err}
		}
	}

	if err := yaml.Unmarshal(data, f); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

// UsePreset replaces the difficulty settings with a named preset.
func (f *File) UsePreset(name string) error {
	preset, err := difficulty.Preset(name)
	if err != nil {
		return err
	}
	f.Difficulty = DifficultySection{Preset: name, Config: preset}
	return nil
}

// DifficultyFor returns the difficulty settings for a variant. The pose
// variant retunes its reveal duration instead of the spawn interval.
func (f File) DifficultyFor(variant string) difficulty.Config {
	if variant == pose.Name {
		return f.Difficulty.Config.WithTiming(f.Pose.Duration, f.Pose.MinDuration)
	}
	return f.Difficulty.Config
}

// Validate checks every section
func (f File) Validate() error {
	switch f.Variant {
	case reflex.Name, pose.Name:
	default:
		return &ValidationError{Section: "variant", Err: fmt.Errorf("unknown variant %q", f.Variant)}
	}

	switch f.Tracker {
	case TrackerMarker, TrackerRemote:
	case TrackerSidecar:
		if !f.Web.Enabled {
			return &ValidationError{Section: "tracker", Err: errors.New("sidecar tracker requires web.enabled")}
		}
	default:
		return &ValidationError{Section: "tracker", Err: fmt.Errorf("unknown tracker %q", f.Tracker)}
	}

	sections := []check{
		{"game", f.Game.Validate()},
		{"difficulty", f.DifficultyFor(f.Variant).Validate()},
		{"capture", f.Capture.Validate()},
	}
	if f.Variant == reflex.Name {
		sections = append(sections, check{"reflex", f.Reflex.Validate()})
	} else {
		sections = append(sections, check{"pose", f.Pose.Validate()})
	}
	for _, c := range sections {
		if c.err != nil {
			return &ValidationError{Section: c.name, Err: c.err}
		}
	}

	switch f.Tracker {
	case TrackerMarker:
		if f.Variant == pose.Name {
			return &ValidationError{Section: "tracker", Err: errors.New("marker tracker reports fingertips only; pose needs remote or sidecar")}
		}
		if err := f.Marker.Validate(); err != nil {
			return &ValidationError{Section: "marker", Err: err}
		}
	case TrackerRemote:
		if f.Remote.URL == "" {
			return &ValidationError{Section: "remote", Err: errors.New("url is required")}
		}
	}

	if f.Web.Enabled && f.Web.Port == "" {
		return &ValidationError{Section: "web", Err: errors.New("port is required")}
	}
	if f.Profile.Enabled && f.Profile.AppName == "" {
		return &ValidationError{Section: "profile", Err: errors.New("app_name is required")}
	}
	return nil
}

type check struct {
	name string
	err  error
}
