// Package parallax wires the head-tracking pipeline to its camera input,
// renderer outputs and dashboard.
package parallax

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-parallax/internal/config"
	"github.com/teslashibe/go-parallax/pkg/camera"
	"github.com/teslashibe/go-parallax/pkg/tracking"
	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
	"github.com/teslashibe/go-parallax/pkg/web"
)

// Config holds all configuration for the parallax application.
// Flag parsing is done in cmd/parallax/main.go; this struct is data only.
type Config struct {
	// Debug enables debug-level logging.
	Debug bool

	Tracking  tracking.Config
	Detection detection.Config
	Camera    camera.Config
	Web       web.Config

	// NoWeb disables the dashboard.
	NoWeb bool

	// Renderer is an optional ws:// URL that receives every orientation.
	Renderer string

	// Record is an optional file path; orientations are appended as JSON lines.
	Record string

	// History is how many orientations the in-memory recorder keeps.
	History int
}

// DefaultConfig returns sensible defaults for the parallax application.
func DefaultConfig() Config {
	return Config{
		Tracking:  tracking.DefaultConfig(),
		Detection: detection.DefaultConfig(),
		Camera:    camera.DefaultConfig(),
		Web:       web.DefaultConfig(),
		History:   256,
	}
}

// FromFile builds a Config from a loaded configuration file.
func FromFile(f config.File) Config {
	cfg := DefaultConfig()
	cfg.Tracking = f.Tracking
	cfg.Detection = f.Detection
	cfg.Camera = f.Camera
	cfg.Renderer = f.Renderer
	if f.Port > 0 {
		cfg.Web.Port = f.Port
	}
	cfg.Debug = f.LogLevel == "debug"
	return cfg
}

// Validate checks the configuration before any resource is opened.
func (c Config) Validate() error {
	if err := c.Tracking.Validate(); err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: %v", errs)
	}
	switch c.Detection.Backend {
	case detection.BackendYuNet, detection.BackendPigo:
	default:
		return fmt.Errorf("detection: unknown backend %q", c.Detection.Backend)
	}
	if !c.NoWeb && (c.Web.Port <= 0 || c.Web.Port > 65535) {
		return errors.New("web: port must be between 1 and 65535")
	}
	if c.History < 1 {
		return errors.New("history must be positive")
	}
	return nil
}
