package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
)

// missLogThreshold is the consecutive miss count that gets logged once
const missLogThreshold = 5

// FrameSource interface for capturing frames
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
}

// CameraSink receives the orientation to apply to the scene camera
type CameraSink interface {
	ApplyOrientation(o Orientation) error
}

// StateUpdater interface for updating dashboard state
type StateUpdater interface {
	UpdateTracking(result Result)
	AddLog(logType, message string)
}

// FrameObserver is optionally implemented by a StateUpdater that wants raw frames
type FrameObserver interface {
	UpdateFrame(jpeg []byte)
}

// Result is the outcome of one tick
type Result struct {
	Frame         uint64        `json:"frame"`
	Orientation   Orientation   `json:"orientation"`
	Target        Angles        `json:"target"`
	Remaining     float64       `json:"remaining"` // Degrees left between orientation and target
	Dominant      *DominantFace `json:"dominant,omitempty"`
	TargetChanged bool          `json:"target_changed"`
	Detections    int           `json:"detections"`
	Markers       []Marker      `json:"-"` // Arena view, valid until the next tick
}

// Tracker runs the per-frame pipeline: detect, select, project, smooth
type Tracker struct {
	config   Config
	detector detection.Detector
	logger   *slog.Logger

	// Core components
	smoother *Smoother
	markers  *MarkerPool

	// Consumers
	sinks []CameraSink
	state StateUpdater

	// State
	mu                sync.Mutex
	frame             uint64
	consecutiveMisses int
	lastLogged        Angles
	closed            bool

	frameTickerReset chan time.Duration
}

// New creates a tracker that owns detector until Close
func New(config Config, detector detection.Detector, logger *slog.Logger) (*Tracker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("tracking config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		config:           config,
		detector:         detector,
		logger:           logger.With("component", "tracker"),
		smoother:         NewSmoother(NewProjector(config), smootherConfig(config)),
		markers:          NewMarkerPool(config.MarkerCapacity),
		lastLogged:       Angles{Yaw: math.Inf(1), Pitch: math.Inf(1)},
		frameTickerReset: make(chan time.Duration, 1),
	}, nil
}

func smootherConfig(c Config) SmootherConfig {
	return SmootherConfig{
		MoveSpeed:       c.MoveSpeed,
		MotionThreshold: c.MotionThreshold,
		Interpolation:   c.Interpolation,
	}
}

// AddSink registers a camera consumer
func (t *Tracker) AddSink(sink CameraSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sinks = append(t.sinks, sink)
}

// SetStateUpdater sets the dashboard state updater
func (t *Tracker) SetStateUpdater(state StateUpdater) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// Config returns the active configuration
func (t *Tracker) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// Orientation returns the current camera orientation
func (t *Tracker) Orientation() Orientation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.smoother.Current()
}

// Markers returns a copy of the marker slots
func (t *Tracker) Markers() []Marker {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.markers.Snapshot()
}

// ConsecutiveMisses returns how many ticks in a row had no dominant face
func (t *Tracker) ConsecutiveMisses() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consecutiveMisses
}

// Tick detects faces in frame and advances the camera by dt.
// A detector error is returned, but the camera still advances toward the
// last target.
func (t *Tracker) Tick(frame []byte, dt time.Duration) (Result, error) {
	if t.detector == nil {
		return t.Step(nil, dt), fmt.Errorf("no detector")
	}
	dets, err := t.detector.Detect(frame)
	if err != nil {
		return t.Step(nil, dt), fmt.Errorf("detect: %w", err)
	}
	return t.Step(dets, dt), nil
}

// Step runs selection, projection and smoothing on an already detected frame
func (t *Tracker) Step(dets []detection.Detection, dt time.Duration) Result {
	t.mu.Lock()

	face, found := SelectDominant(dets, t.config.MinEyeDistance)
	var dominant *DominantFace
	if found {
		dominant = &face
		t.consecutiveMisses = 0
	} else {
		t.consecutiveMisses++
	}

	current, changed := t.smoother.Update(dt, dominant)
	t.frame++

	result := Result{
		Frame:         t.frame,
		Orientation:   current,
		Target:        t.smoother.TargetAngles(),
		Remaining:     t.smoother.Error(),
		Dominant:      dominant,
		TargetChanged: changed,
		Detections:    len(dets),
		Markers:       t.markers.Bind(dets),
	}

	misses := t.consecutiveMisses
	logChange := changed && t.shouldLog(result.Target)
	sinks := t.sinks
	state := t.state
	t.mu.Unlock()

	if misses == missLogThreshold {
		t.logger.Info("lost face", "misses", misses)
	}
	if logChange {
		t.logger.Info("camera target",
			"yaw", fmt.Sprintf("%.1f", result.Target.Yaw),
			"pitch", fmt.Sprintf("%.1f", result.Target.Pitch),
			"eyes_distance", fmt.Sprintf("%.3f", face.EyesDistance))
	}

	for _, sink := range sinks {
		if err := sink.ApplyOrientation(current); err != nil {
			t.logger.Warn("camera sink failed", "error", err)
		}
	}
	if state != nil {
		state.UpdateTracking(result)
		if logChange {
			state.AddLog("face", fmt.Sprintf("Target yaw=%.1f° pitch=%.1f°", result.Target.Yaw, result.Target.Pitch))
		}
	}

	return result
}

// shouldLog reports whether the target moved more than LogThreshold since the last log
func (t *Tracker) shouldLog(target Angles) bool {
	if math.Abs(target.Yaw-t.lastLogged.Yaw) <= t.config.LogThreshold &&
		math.Abs(target.Pitch-t.lastLogged.Pitch) <= t.config.LogThreshold {
		return false
	}
	t.lastLogged = target
	return true
}

// Run pulls frames from source every FrameInterval until ctx is cancelled
func (t *Tracker) Run(ctx context.Context, source FrameSource) error {
	cfg := t.Config()
	ticker := time.NewTicker(cfg.FrameInterval)
	defer ticker.Stop()

	t.logger.Info("tracker started",
		"interval", cfg.FrameInterval,
		"move_speed", cfg.MoveSpeed,
		"interpolation", cfg.Interpolation)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker stopped")
			return ctx.Err()

		case interval := <-t.frameTickerReset:
			ticker.Reset(interval)
			t.logger.Info("frame interval changed", "interval", interval)

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			t.runFrame(source, dt)
		}
	}
}

// runFrame captures and processes one frame; failures never stop the loop
func (t *Tracker) runFrame(source FrameSource, dt time.Duration) {
	frame, err := source.CaptureJPEG()
	if err != nil {
		t.logger.Debug("capture failed", "error", err)
		t.Step(nil, dt)
		return
	}

	t.mu.Lock()
	state := t.state
	t.mu.Unlock()
	if obs, ok := state.(FrameObserver); ok {
		obs.UpdateFrame(frame)
	}

	if _, err := t.Tick(frame, dt); err != nil {
		t.logger.Warn("detection failed", "error", err)
	}
}

// Close releases the detector. Safe to call more than once.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.detector == nil {
		return nil
	}
	return t.detector.Close()
}
