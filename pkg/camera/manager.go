package camera

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Patch is a partial camera update from the dashboard.
// Nil fields keep their current value.
type Patch struct {
	Preset    *string `json:"preset,omitempty"`
	Width     *int    `json:"width,omitempty"`
	Height    *int    `json:"height,omitempty"`
	Framerate *int    `json:"framerate,omitempty"`
	Quality   *int    `json:"quality,omitempty"`
	Mirror    *bool   `json:"mirror,omitempty"`
}

// ParsePatch decodes a JSON update. Unknown fields are rejected so a
// misspelled setting is not silently ignored.
func ParsePatch(data []byte) (Patch, error) {
	var p Patch
	if len(bytes.TrimSpace(data)) == 0 {
		return p, fmt.Errorf("empty camera update")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("camera update: %w", err)
	}
	return p, nil
}

// Apply returns base with the patch applied. A preset is applied first and
// keeps base's input; the remaining fields then override it.
func (p Patch) Apply(base Config) (Config, error) {
	cfg := base
	if p.Preset != nil {
		preset := GetPreset(strings.ToLower(*p.Preset))
		if preset == nil {
			return base, fmt.Errorf("unknown preset: %s", *p.Preset)
		}
		cfg = *preset
		cfg.Device = base.Device
		cfg.Image = base.Image
	}

	setInt(&cfg.Width, p.Width)
	setInt(&cfg.Height, p.Height)
	setInt(&cfg.Framerate, p.Framerate)
	setInt(&cfg.Quality, p.Quality)
	if p.Mirror != nil {
		cfg.Mirror = *p.Mirror
	}
	return cfg, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Manager owns the live camera configuration and pushes changes to the
// active source.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// OnConfigChange applies an accepted config to the frame source
	OnConfigChange func(cfg Config) error
}

// NewManager starts from cfg; it is not validated until the first change.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates cfg and applies it through OnConfigChange.
// The stored config only changes when the source accepted it.
func (m *Manager) SetConfig(cfg Config) error {
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid camera config: %s", strings.Join(problems, "; "))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.OnConfigChange != nil {
		if err := m.OnConfigChange(cfg); err != nil {
			return fmt.Errorf("apply camera config: %w", err)
		}
	}
	m.config = cfg
	return nil
}

// Update applies a patch to the current config and returns the result.
func (m *Manager) Update(p Patch) (Config, error) {
	cfg, err := p.Apply(m.GetConfig())
	if err != nil {
		return m.GetConfig(), err
	}
	if err := m.SetConfig(cfg); err != nil {
		return m.GetConfig(), err
	}
	return cfg, nil
}
