// Package camera provides frame sources for the tracker and their
// runtime-configurable settings.
package camera

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// Device is a capture index ("0") or a video file / stream URL.
	// Ignored when Image is set.
	Device string `yaml:"device" json:"device"`

	// Image is a still image served as every frame instead of a live device
	Image string `yaml:"image" json:"image"`

	// === Resolution ===
	Width     int `yaml:"width" json:"width"`         // Frame width in pixels
	Height    int `yaml:"height" json:"height"`       // Frame height in pixels
	Framerate int `yaml:"framerate" json:"framerate"` // Requested FPS
	Quality   int `yaml:"quality" json:"quality"`     // JPEG quality 1-100

	// Mirror flips frames horizontally so the preview behaves like a mirror
	Mirror bool `yaml:"mirror" json:"mirror"`
}

// Capture limits
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns the standard webcam configuration.
// 640x480 keeps detection fast on CPU.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   85,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Image == "" && c.Device == "" {
		errors = append(errors, "device or image must be set")
	}

	// Resolution
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}

// PresetInfo describes a preset for the dashboard
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Capabilities lists the supported ranges and presets
type Capabilities struct {
	MaxWidth     int          `json:"max_width"`
	MaxHeight    int          `json:"max_height"`
	MaxFramerate int          `json:"max_framerate"`
	Presets      []PresetInfo `json:"presets"`
}

// GetCapabilities returns the supported ranges for the dashboard.
func GetCapabilities() Capabilities {
	presets := make([]PresetInfo, len(presetTable))
	for i, p := range presetTable {
		presets[i] = PresetInfo{Name: p.name, Description: p.description}
	}
	return Capabilities{
		MaxWidth:     MaxWidth,
		MaxHeight:    MaxHeight,
		MaxFramerate: MaxFramerate,
		Presets:      presets,
	}
}
