package detection

import (
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// MockDetector replays scripted detection sets, one per Detect call.
// After the script is exhausted the last set is repeated.
type MockDetector struct {
	mu     sync.Mutex
	frames [][]Detection
	errs   map[int]error
	calls  int
	closed bool
}

// NewMock creates a mock detector with the given per-call results
func NewMock(frames ...[]Detection) *MockDetector {
	return &MockDetector{
		frames: frames,
		errs:   make(map[int]error),
	}
}

// FailOn makes the n-th Detect call (0-based) return err
func (m *MockDetector) FailOn(call int, err error) *MockDetector {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[call] = err
	return m
}

// Detect returns the next scripted detection set
func (m *MockDetector) Detect(jpeg []byte) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.New("detector closed")
	}

	call := m.calls
	m.calls++

	if err, ok := m.errs[call]; ok {
		return nil, err
	}
	if len(m.frames) == 0 {
		return nil, nil
	}
	if call >= len(m.frames) {
		call = len(m.frames) - 1
	}

	out := make([]Detection, len(m.frames[call]))
	copy(out, m.frames[call])
	return out, nil
}

// Calls returns how many times Detect has been invoked
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the detector closed
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Face builds a detection from eye center and eye distance, eyes level
func Face(cx, cy, eyesDistance float64) Detection {
	half := eyesDistance / 2
	return Detection{
		LeftEye:    r2.Point{X: cx - half, Y: cy},
		RightEye:   r2.Point{X: cx + half, Y: cy},
		X:          cx - eyesDistance,
		Y:          cy - eyesDistance,
		W:          eyesDistance * 2,
		H:          eyesDistance * 2.5,
		Confidence: 0.9,
	}
}
