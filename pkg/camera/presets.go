package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

type preset struct {
	name        string
	description string
	config      func() Config
}

// presetTable is ordered as the dashboard lists it
var presetTable = []preset{
	{PresetDefault, "640x480 @ 30 fps", DefaultConfig},
	{PresetLow, "320x240 for slow machines", LowConfig},
	{Preset720p, "1280x720, steadier landmarks", HD720Config},
	{Preset1080p, "1920x1080 @ 15 fps, slowest detection", HD1080Config},
}

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	out := make(map[string]Config, len(presetTable))
	for _, p := range presetTable {
		out[p.name] = p.config()
	}
	return out
}

// PresetNames returns the preset names in display order.
func PresetNames() []string {
	names := make([]string, len(presetTable))
	for i, p := range presetTable {
		names[i] = p.name
	}
	return names
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	for _, p := range presetTable {
		if p.name == name {
			cfg := p.config()
			return &cfg
		}
	}
	return nil
}

// LowConfig returns 320x240 for slow machines.
func LowConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Quality = 75
	return cfg
}

// HD720Config returns 1280x720.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// HD1080Config returns 1920x1080 at a reduced frame rate.
// Eye landmarks are steadier, detection is slower.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.Framerate = 15
	return cfg
}
