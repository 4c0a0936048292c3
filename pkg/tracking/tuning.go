package tracking

import "time"

// TuningParams holds the real-time adjustable tracking parameters.
// These can be modified via the tuning API without restarting.
type TuningParams struct {
	// Smoothing
	MoveSpeed       float64 `json:"move_speed"`       // Convergence rate (per second)
	MotionThreshold float64 `json:"motion_threshold"` // Hysteresis distance (normalized)
	Interpolation   string  `json:"interpolation"`    // "exponential" or "linear"

	// Projection
	Calibration    float64 `json:"calibration"`      // Eye distance at reference distance
	Scale          float64 `json:"scale"`            // Pseudo-depth scale
	MinEyeDistance float64 `json:"min_eye_distance"` // Degenerate detection floor

	// Frame rate
	FrameHz float64 `json:"frame_hz"` // Frames pulled per second (1-60 Hz)
}

// GetTuningParams returns current tuning parameters from the tracker.
func (t *Tracker) GetTuningParams() TuningParams {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TuningParams{
		MoveSpeed:       t.config.MoveSpeed,
		MotionThreshold: t.config.MotionThreshold,
		Interpolation:   string(t.config.Interpolation),
		Calibration:     t.config.Calibration,
		Scale:           t.config.Scale,
		MinEyeDistance:  t.config.MinEyeDistance,
		FrameHz:         1.0 / t.config.FrameInterval.Seconds(),
	}
}

// SetTuningParams updates tuning parameters at runtime.
// Only non-zero values are applied; the camera keeps its orientation.
func (t *Tracker) SetTuningParams(params TuningParams) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if params.MoveSpeed > 0 {
		t.config.MoveSpeed = clamp(params.MoveSpeed, 0.1, 60)
	}
	if params.MotionThreshold > 0 {
		t.config.MotionThreshold = clamp(params.MotionThreshold, 0, 0.5)
	}
	switch Interpolation(params.Interpolation) {
	case InterpolationExponential, InterpolationLinear:
		t.config.Interpolation = Interpolation(params.Interpolation)
	}

	if params.Calibration > 0 {
		t.config.Calibration = params.Calibration
	}
	if params.Scale > 0 {
		t.config.Scale = params.Scale
	}
	if params.MinEyeDistance > 0 {
		t.config.MinEyeDistance = clamp(params.MinEyeDistance, 1e-6, 0.5)
	}

	t.smoother.SetConfig(NewProjector(t.config), smootherConfig(t.config))

	// Frame rate (handled by Run via channel)
	if params.FrameHz > 0 {
		t.config.FrameInterval = t.setFrameHz(params.FrameHz)
	}
}

// setFrameHz clamps hz to 1-60 and asks Run to reset its ticker.
// Valid range: 1-60 Hz (16ms to 1000ms interval)
func (t *Tracker) setFrameHz(hz float64) time.Duration {
	hz = clamp(hz, 1, 60)
	interval := time.Duration(float64(time.Second) / hz)

	// Replace any pending update so Run sees the latest value
	select {
	case <-t.frameTickerReset:
	default:
	}
	select {
	case t.frameTickerReset <- interval:
	default:
	}
	return interval
}

// ResetCamera puts the smoother back in its startup state: identity
// orientation and no target. Only the dashboard operator triggers it.
func (t *Tracker) ResetCamera() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.smoother.Reset()
}
