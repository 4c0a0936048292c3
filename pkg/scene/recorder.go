package scene

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/teslashibe/go-parallax/pkg/tracking"
)

// Recorder keeps the most recent orientations in memory and optionally
// streams each one as a JSON line to a writer
type Recorder struct {
	mu       sync.Mutex
	ring     []tracking.Orientation
	next     int
	count    uint64
	encoder  *json.Encoder
	capacity int
}

// NewRecorder keeps up to capacity orientations. w may be nil.
func NewRecorder(capacity int, w io.Writer) *Recorder {
	if capacity < 1 {
		capacity = 1
	}
	r := &Recorder{
		ring:     make([]tracking.Orientation, 0, capacity),
		capacity: capacity,
	}
	if w != nil {
		r.encoder = json.NewEncoder(w)
	}
	return r
}

// ApplyOrientation records o
func (r *Recorder) ApplyOrientation(o tracking.Orientation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.ring) < r.capacity {
		r.ring = append(r.ring, o)
	} else {
		r.ring[r.next] = o
	}
	r.next = (r.next + 1) % r.capacity
	r.count++

	if r.encoder != nil {
		return r.encoder.Encode(Update{
			Type:        MessageType,
			Seq:         r.count,
			Orientation: o,
		})
	}
	return nil
}

// Last returns the most recent orientation
func (r *Recorder) Last() (tracking.Orientation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ring) == 0 {
		return tracking.Identity(), false
	}
	i := (r.next - 1 + r.capacity) % r.capacity
	return r.ring[i], true
}

// All returns the kept orientations, oldest first
func (r *Recorder) All() []tracking.Orientation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]tracking.Orientation, 0, len(r.ring))
	if len(r.ring) < r.capacity {
		return append(out, r.ring...)
	}
	out = append(out, r.ring[r.next:]...)
	return append(out, r.ring[:r.next]...)
}

// Count returns how many orientations were recorded in total
func (r *Recorder) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
