package tracking

import "github.com/teslashibe/go-parallax/pkg/tracking/detection"

// Marker is a reusable display slot bound to the detection at the same index
// for the current frame. Slots carry no identity across frames.
type Marker struct {
	Slot      int                 `json:"slot"`
	Active    bool                `json:"active"`
	Detection detection.Detection `json:"detection"`
}

// MarkerPool is a fixed arena of marker slots sized at construction
type MarkerPool struct {
	slots  []Marker
	active int
}

// NewMarkerPool allocates capacity slots, all inactive
func NewMarkerPool(capacity int) *MarkerPool {
	if capacity < 0 {
		capacity = 0
	}
	slots := make([]Marker, capacity)
	for i := range slots {
		slots[i].Slot = i
	}
	return &MarkerPool{slots: slots}
}

// Bind activates one slot per detection and deactivates the rest.
// Detections beyond capacity are not displayed. The returned slice is the
// arena itself and is only valid until the next Bind.
func (p *MarkerPool) Bind(dets []detection.Detection) []Marker {
	i := 0
	for ; i < len(dets) && i < len(p.slots); i++ {
		p.slots[i].Detection = dets[i]
		p.slots[i].Active = true
	}
	p.active = i

	for ; i < len(p.slots); i++ {
		p.slots[i].Detection = detection.Detection{}
		p.slots[i].Active = false
	}
	return p.slots
}

// Snapshot returns a copy of all slots
func (p *MarkerPool) Snapshot() []Marker {
	out := make([]Marker, len(p.slots))
	copy(out, p.slots)
	return out
}

// Active returns how many slots are bound this frame
func (p *MarkerPool) Active() int {
	return p.active
}

// Capacity returns the number of slots
func (p *MarkerPool) Capacity() int {
	return len(p.slots)
}
