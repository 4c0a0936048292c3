package tracking

import (
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
)

func TestTuningParams_RoundTrip(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig(), detection.NewMock())

	p := tr.GetTuningParams()
	if p.MoveSpeed != 4.0 {
		t.Errorf("MoveSpeed: got %v, want 4.0", p.MoveSpeed)
	}
	if p.Interpolation != string(InterpolationExponential) {
		t.Errorf("Interpolation: got %q", p.Interpolation)
	}
	if math.Abs(p.FrameHz-1/0.033) > 1e-6 {
		t.Errorf("FrameHz: got %v, want ~30.3", p.FrameHz)
	}
}

func TestSetTuningParams(t *testing.T) {
	tests := []struct {
		name   string
		params TuningParams
		check  func(t *testing.T, cfg Config)
	}{
		{
			name:   "zero values ignored",
			params: TuningParams{},
			check: func(t *testing.T, cfg Config) {
				if cfg != DefaultConfig() {
					t.Errorf("config changed: %+v", cfg)
				}
			},
		},
		{
			name:   "move speed",
			params: TuningParams{MoveSpeed: 6},
			check: func(t *testing.T, cfg Config) {
				if cfg.MoveSpeed != 6 {
					t.Errorf("MoveSpeed: got %v, want 6", cfg.MoveSpeed)
				}
			},
		},
		{
			name:   "move speed clamped",
			params: TuningParams{MoveSpeed: 1000},
			check: func(t *testing.T, cfg Config) {
				if cfg.MoveSpeed != 60 {
					t.Errorf("MoveSpeed: got %v, want 60", cfg.MoveSpeed)
				}
			},
		},
		{
			name:   "linear interpolation",
			params: TuningParams{Interpolation: "linear"},
			check: func(t *testing.T, cfg Config) {
				if cfg.Interpolation != InterpolationLinear {
					t.Errorf("Interpolation: got %q", cfg.Interpolation)
				}
			},
		},
		{
			name:   "unknown interpolation ignored",
			params: TuningParams{Interpolation: "cubic"},
			check: func(t *testing.T, cfg Config) {
				if cfg.Interpolation != InterpolationExponential {
					t.Errorf("Interpolation: got %q", cfg.Interpolation)
				}
			},
		},
		{
			name:   "projection",
			params: TuningParams{Calibration: 0.08, Scale: 2, MinEyeDistance: 0.01},
			check: func(t *testing.T, cfg Config) {
				if cfg.Calibration != 0.08 || cfg.Scale != 2 || cfg.MinEyeDistance != 0.01 {
					t.Errorf("projection not applied: %+v", cfg)
				}
			},
		},
		{
			name:   "frame rate clamped",
			params: TuningParams{FrameHz: 500},
			check: func(t *testing.T, cfg Config) {
				want := time.Second / 60
				if cfg.FrameInterval != want {
					t.Errorf("FrameInterval: got %v, want %v", cfg.FrameInterval, want)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestTracker(t, DefaultConfig(), detection.NewMock())
			tr.SetTuningParams(tc.params)
			tc.check(t, tr.Config())
		})
	}
}

func TestSetTuningParams_ReachesSmoother(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig(), detection.NewMock())
	tr.SetTuningParams(TuningParams{MoveSpeed: 1, Calibration: 0.1})

	if tr.smoother.config.MoveSpeed != 1 {
		t.Errorf("smoother MoveSpeed: got %v, want 1", tr.smoother.config.MoveSpeed)
	}
	if tr.smoother.projector.Calibration != 0.1 {
		t.Errorf("projector Calibration: got %v, want 0.1", tr.smoother.projector.Calibration)
	}
}

func TestSetTuningParams_FrameHzSignalsRun(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig(), detection.NewMock())

	tr.SetTuningParams(TuningParams{FrameHz: 10})
	tr.SetTuningParams(TuningParams{FrameHz: 20})

	select {
	case interval := <-tr.frameTickerReset:
		if interval != 50*time.Millisecond {
			t.Errorf("pending interval: got %v, want 50ms", interval)
		}
	default:
		t.Fatal("expected a pending interval")
	}
}

func TestResetCamera(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig(), detection.NewMock([]detection.Detection{detection.Face(0.8, 0.4, 0.1)}))
	tr.Tick(nil, time.Second)

	tr.ResetCamera()

	if tr.Orientation() != Identity() {
		t.Error("ResetCamera should return to identity")
	}
	// Same as a fresh tracker: no target to drift toward
	if r := tr.Step(nil, time.Second); r.Orientation != Identity() || r.Remaining != 0 {
		t.Errorf("after reset without a face: got %+v", r.Orientation)
	}
	result, _ := tr.Tick(nil, 33*time.Millisecond)
	if !result.TargetChanged {
		t.Error("first face after reset should set the target")
	}
}
