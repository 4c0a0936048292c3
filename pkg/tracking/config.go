package tracking

import (
	"fmt"
	"time"
)

// Interpolation selects how the smoother converts elapsed time into a slerp factor
type Interpolation string

const (
	// InterpolationExponential uses t = 1 - exp(-MoveSpeed*dt), independent of frame rate
	InterpolationExponential Interpolation = "exponential"
	// InterpolationLinear uses t = min(1, MoveSpeed*dt)
	InterpolationLinear Interpolation = "linear"
)

// Config holds all tunable parameters for head tracking
type Config struct {
	// Detection
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"` // Detector confidence filter (0-1)
	MarkerCapacity      int     `yaml:"marker_capacity" json:"marker_capacity"`           // Display slots for detections

	// Projection
	Calibration    float64 `yaml:"calibration" json:"calibration"`           // Eye distance of a face at reference distance
	Scale          float64 `yaml:"scale" json:"scale"`                       // Pseudo-depth scale factor
	Epsilon        float64 `yaml:"epsilon" json:"epsilon"`                   // Offset guard against division by zero
	MinEyeDistance float64 `yaml:"min_eye_distance" json:"min_eye_distance"` // Floor for degenerate detections

	// Smoothing
	MoveSpeed       float64       `yaml:"move_speed" json:"move_speed"`             // Convergence rate (per second)
	MotionThreshold float64       `yaml:"motion_threshold" json:"motion_threshold"` // Hysteresis in normalized image units
	Interpolation   Interpolation `yaml:"interpolation" json:"interpolation"`

	// Timing
	FrameInterval time.Duration `yaml:"frame_interval" json:"frame_interval"` // How often Run pulls a frame

	// Logging
	LogThreshold float64 `yaml:"log_threshold" json:"log_threshold"` // Only log target changes larger than this (degrees)
}

// DefaultConfig returns the recommended configuration for responsive tracking.
// It eases with the exponential law so motion does not depend on frame rate;
// ReferenceConfig keeps the plain min(1, MoveSpeed*dt) factor.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.75,
		MarkerCapacity:      16,

		Calibration:    0.05, // Eye distance at 1 meter
		Scale:          1.0,
		Epsilon:        1e-4,
		MinEyeDistance: 1e-3,

		MoveSpeed:       4.0,
		MotionThreshold: 0.01, // 1% of the frame
		Interpolation:   InterpolationExponential,

		FrameInterval: 33 * time.Millisecond, // ~30 fps

		LogThreshold: 2.0,
	}
}

// SlowConfig returns a configuration for slower, smoother camera motion
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.MoveSpeed = 2.0
	cfg.MotionThreshold = 0.02
	return cfg
}

// AggressiveConfig returns a configuration for very fast tracking
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.MoveSpeed = 8.0
	cfg.MotionThreshold = 0.005
	cfg.FrameInterval = 16 * time.Millisecond
	return cfg
}

// ReferenceConfig uses the frame-rate dependent linear slerp factor of the
// first head-tracking demo
func ReferenceConfig() Config {
	cfg := DefaultConfig()
	cfg.Interpolation = InterpolationLinear
	return cfg
}

// Preset returns a named configuration
func Preset(name string) (Config, bool) {
	switch name {
	case "default", "":
		return DefaultConfig(), true
	case "slow":
		return SlowConfig(), true
	case "aggressive":
		return AggressiveConfig(), true
	case "reference":
		return ReferenceConfig(), true
	}
	return Config{}, false
}

// Validate checks that all values are usable
func (c Config) Validate() error {
	switch {
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return fmt.Errorf("confidence_threshold must be between 0 and 1, got %v", c.ConfidenceThreshold)
	case c.MarkerCapacity < 0:
		return fmt.Errorf("marker_capacity must not be negative, got %d", c.MarkerCapacity)
	case c.Calibration <= 0:
		return fmt.Errorf("calibration must be positive, got %v", c.Calibration)
	case c.Scale <= 0:
		return fmt.Errorf("scale must be positive, got %v", c.Scale)
	case c.Epsilon <= 0:
		return fmt.Errorf("epsilon must be positive, got %v", c.Epsilon)
	case c.MinEyeDistance <= 0:
		return fmt.Errorf("min_eye_distance must be positive, got %v", c.MinEyeDistance)
	case c.MoveSpeed <= 0:
		return fmt.Errorf("move_speed must be positive, got %v", c.MoveSpeed)
	case c.MotionThreshold < 0:
		return fmt.Errorf("motion_threshold must not be negative, got %v", c.MotionThreshold)
	case c.FrameInterval <= 0:
		return fmt.Errorf("frame_interval must be positive, got %v", c.FrameInterval)
	}

	switch c.Interpolation {
	case InterpolationExponential, InterpolationLinear:
	default:
		return fmt.Errorf("interpolation must be %q or %q, got %q",
			InterpolationExponential, InterpolationLinear, c.Interpolation)
	}
	return nil
}
