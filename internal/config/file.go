package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-parallax/pkg/camera"
	"github.com/teslashibe/go-parallax/pkg/tracking"
	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
)

// File is the YAML configuration file layout. Omitted fields keep their
// defaults.
type File struct {
	Preset    string           `yaml:"preset"`
	Tracking  tracking.Config  `yaml:"tracking"`
	Detection detection.Config `yaml:"detection"`
	Camera    camera.Config    `yaml:"camera"`
	Renderer  string           `yaml:"renderer"` // ws:// URL of a remote scene renderer
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	LogFile   string           `yaml:"log_file"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() File {
	return File{
		Preset:    "default",
		Tracking:  tracking.DefaultConfig(),
		Detection: detection.DefaultConfig(),
		Camera:    camera.DefaultConfig(),
		Port:      DefaultPort,
		LogLevel:  "info",
	}
}

// Load reads a YAML file over Defaults. A "preset" key selects the
// tracking baseline before the file's tracking section is applied.
func Load(path string) (File, error) {
	return LoadPreset(path, "")
}

// LoadPreset is Load with a preset that takes precedence over the file's
// "preset" key. The file's tracking section still overlays the preset.
func LoadPreset(path, preset string) (File, error) {
	cfg := Defaults()

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}

		var head struct {
			Preset string `yaml:"preset"`
		}
		if err := yaml.Unmarshal(data, &head); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if preset == "" {
			preset = head.Preset
		}
	}

	if preset != "" {
		tc, ok := tracking.Preset(preset)
		if !ok {
			return cfg, fmt.Errorf("unknown tracking preset %q", preset)
		}
		cfg.Tracking = tc
	}
	if data == nil {
		cfg.Preset = presetName(preset)
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Preset = presetName(preset)
	if err := cfg.Tracking.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func presetName(name string) string {
	if name == "" {
		return "default"
	}
	return name
}

// ApplyEnv overrides fields from PARALLAX_* environment variables.
func (f *File) ApplyEnv() {
	f.Tracking.MoveSpeed = Float("PARALLAX_MOVE_SPEED", f.Tracking.MoveSpeed)
	f.Tracking.MotionThreshold = Float("PARALLAX_MOTION_THRESHOLD", f.Tracking.MotionThreshold)
	f.Tracking.Calibration = Float("PARALLAX_CALIBRATION", f.Tracking.Calibration)
	f.Tracking.FrameInterval = Duration("PARALLAX_FRAME_INTERVAL", f.Tracking.FrameInterval)
	if v := String("PARALLAX_INTERPOLATION", ""); v != "" {
		f.Tracking.Interpolation = tracking.Interpolation(v)
	}

	f.Detection.Backend = String("PARALLAX_DETECTOR", f.Detection.Backend)
	f.Detection.ModelPath = String("PARALLAX_MODEL", f.Detection.ModelPath)
	f.Detection.CascadePath = String("PARALLAX_CASCADE", f.Detection.CascadePath)
	f.Detection.PuplocPath = String("PARALLAX_PUPLOC", f.Detection.PuplocPath)

	f.Camera.Device = String("PARALLAX_CAMERA", f.Camera.Device)
	f.Camera.Image = String("PARALLAX_IMAGE", f.Camera.Image)
	f.Camera.Mirror = Bool("PARALLAX_MIRROR", f.Camera.Mirror)

	f.Renderer = String("PARALLAX_RENDERER", f.Renderer)
	f.Port = Int("PARALLAX_PORT", f.Port)
	f.LogLevel = String("LOG_LEVEL", f.LogLevel)
	f.LogFile = String("LOG_FILE", f.LogFile)
}
