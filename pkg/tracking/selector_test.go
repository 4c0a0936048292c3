package tracking

import (
	"math"
	"testing"

	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
)

func TestSelectDominant(t *testing.T) {
	small := detection.Face(0.3, 0.5, 0.05)
	large := detection.Face(0.7, 0.4, 0.12)

	tests := []struct {
		name       string
		detections []detection.Detection
		expectNone bool
		expectIdx  int
		expectDist float64
	}{
		{
			name:       "empty list",
			detections: []detection.Detection{},
			expectNone: true,
		},
		{
			name:       "nil list",
			detections: nil,
			expectNone: true,
		},
		{
			name:       "single detection",
			detections: []detection.Detection{small},
			expectIdx:  0,
			expectDist: 0.05,
		},
		{
			name:       "larger eye distance wins",
			detections: []detection.Detection{small, large},
			expectIdx:  1,
			expectDist: 0.12,
		},
		{
			name:       "order does not matter",
			detections: []detection.Detection{large, small},
			expectIdx:  0,
			expectDist: 0.12,
		},
		{
			name: "first of equal distances wins",
			detections: []detection.Detection{
				detection.Face(0.2, 0.5, 0.1),
				detection.Face(0.2, 0.7, 0.1),
			},
			expectIdx:  0,
			expectDist: 0.1,
		},
		{
			name: "degenerate faces only",
			detections: []detection.Detection{
				detection.Face(0.5, 0.5, 0),
				detection.Face(0.5, 0.5, 0.0005),
			},
			expectNone: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			face, ok := SelectDominant(tc.detections, 1e-3)
			if tc.expectNone {
				if ok {
					t.Errorf("SelectDominant: expected no face, got %+v", face)
				}
				return
			}
			if !ok {
				t.Fatal("SelectDominant: expected a face, got none")
			}
			if face.Index != tc.expectIdx {
				t.Errorf("Index: got %d, want %d", face.Index, tc.expectIdx)
			}
			if math.Abs(face.EyesDistance-tc.expectDist) > 1e-9 {
				t.Errorf("EyesDistance: got %v, want %v", face.EyesDistance, tc.expectDist)
			}
			want := tc.detections[tc.expectIdx].EyesCenter()
			if face.EyesCenter != want {
				t.Errorf("EyesCenter: got %v, want %v", face.EyesCenter, want)
			}
		})
	}
}

func TestSelectDominant_DoesNotMutate(t *testing.T) {
	dets := []detection.Detection{detection.Face(0.4, 0.4, 0.1), detection.Face(0.6, 0.6, 0.2)}
	before := make([]detection.Detection, len(dets))
	copy(before, dets)

	SelectDominant(dets, 1e-3)

	for i := range dets {
		if dets[i] != before[i] {
			t.Errorf("detection %d mutated: got %+v, want %+v", i, dets[i], before[i])
		}
	}
}

func TestSelectDominant_BeyondMarkerCapacity(t *testing.T) {
	dets := make([]detection.Detection, 20)
	for i := range dets {
		dets[i] = detection.Face(0.5, 0.5, 0.05)
	}
	dets[18] = detection.Face(0.2, 0.3, 0.15)

	face, ok := SelectDominant(dets, 1e-3)
	if !ok || face.Index != 18 {
		t.Errorf("Expected detection 18 to dominate, got %+v (ok=%v)", face, ok)
	}
}
