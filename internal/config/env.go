// Package config provides configuration helpers for the arcade commands.
package config

import "os"

// Default environment configuration.
const (
	DefaultLogLevel      = "info"
	DefaultDashboardPort = "8080"
	DefaultCameraDevice  = "0"
	DefaultDBPath        = "arcade.db"
)

// Path returns the config file path from ARCADE_CONFIG, empty when unset.
func Path() string {
	return os.Getenv("ARCADE_CONFIG")
}

// LogLevel returns the log level from ARCADE_LOG_LEVEL or default.
func LogLevel() string {
	return getenv("ARCADE_LOG_LEVEL", DefaultLogLevel)
}

// DashboardPort returns the dashboard port from ARCADE_DASHBOARD_PORT.
// Falls back to the provided default if not set.
func DashboardPort(defaultPort string) string {
	return getenv("ARCADE_DASHBOARD_PORT", defaultPort)
}

// CameraDevice returns the capture device from CAMERA_DEVICE.
// Falls back to the provided default if not set.
func CameraDevice(defaultDevice string) string {
	return getenv("CAMERA_DEVICE", defaultDevice)
}

// DBPath returns the session database path from ARCADE_DB.
// Falls back to the provided default if not set.
func DBPath(defaultPath string) string {
	return getenv("ARCADE_DB", defaultPath)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
