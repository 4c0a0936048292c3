package tracking

import (
	"github.com/golang/geo/r2"

	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
)

// DominantFace is the closest face in a frame, summarized by its eyes
type DominantFace struct {
	Index        int      `json:"index"`         // Position in the frame's detection list
	EyesCenter   r2.Point `json:"eyes_center"`   // Midpoint between the eyes (0-1 normalized)
	EyesDistance float64  `json:"eyes_distance"` // Inter-eye distance (0-1 normalized)
}

// SelectDominant picks the detection with the largest inter-eye distance.
// The first detection wins ties. Returns false when dets is empty or the
// largest distance is below minDistance.
func SelectDominant(dets []detection.Detection, minDistance float64) (DominantFace, bool) {
	best := -1
	maxDistance := -1.0

	for i := range dets {
		d := dets[i].EyesDistance()
		if d > maxDistance {
			maxDistance = d
			best = i
		}
	}

	if best < 0 || maxDistance < minDistance {
		return DominantFace{}, false
	}

	return DominantFace{
		Index:        best,
		EyesCenter:   dets[best].EyesCenter(),
		EyesDistance: maxDistance,
	}, true
}
