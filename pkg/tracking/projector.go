package tracking

import (
	"math"

	"github.com/golang/geo/r2"
)

// ImageCenter is the normalized frame center
var ImageCenter = r2.Point{X: 0.5, Y: 0.5}

// Angles is a camera look direction in degrees
type Angles struct {
	Yaw   float64 `json:"yaw"`   // Positive when the face is right of center
	Pitch float64 `json:"pitch"` // Positive when the face is below center
}

// Projector converts eye geometry into target camera angles.
//
// The face's pseudo-depth is Z = Calibration/eyesDistance*Scale, so a closer
// face (wider eyes) gives a smaller Z. Each axis angle is 90° minus
// atan(Z/offset), signed by the side of the frame the face is on. The curve
// is 0 at the center and grows with the offset; it is an inverse-tangent
// sensitivity mapping, not a calibrated field-of-view model.
type Projector struct {
	Calibration    float64
	Scale          float64
	Epsilon        float64
	MinEyeDistance float64
}

// NewProjector creates a projector from tracking configuration
func NewProjector(cfg Config) Projector {
	return Projector{
		Calibration:    cfg.Calibration,
		Scale:          cfg.Scale,
		Epsilon:        cfg.Epsilon,
		MinEyeDistance: cfg.MinEyeDistance,
	}
}

// Depth returns the pseudo-depth for an inter-eye distance
func (p Projector) Depth(eyesDistance float64) float64 {
	// Also catches NaN
	if !(eyesDistance >= p.MinEyeDistance) {
		eyesDistance = p.MinEyeDistance
	}
	return (p.Calibration / eyesDistance) * p.Scale
}

// Project returns the yaw and pitch the camera should turn to
func (p Projector) Project(eyesCenter r2.Point, eyesDistance float64) Angles {
	z := p.Depth(eyesDistance)

	dx := eyesCenter.X - ImageCenter.X
	dy := eyesCenter.Y - ImageCenter.Y

	offsetX := math.Abs(dx) + p.Epsilon
	offsetY := math.Abs(dy) + p.Epsilon

	angleX := MaxProjectedAngle - Degrees(math.Atan(z/offsetX))
	angleY := MaxProjectedAngle - Degrees(math.Atan(z/offsetY))

	return Angles{
		Yaw:   angleX * sign(dx),
		Pitch: angleY * sign(dy),
	}
}

// ProjectFace is Project applied to a selected face
func (p Projector) ProjectFace(face DominantFace) Angles {
	return p.Project(face.EyesCenter, face.EyesDistance)
}
