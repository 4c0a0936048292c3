package tracking

import (
	"math"
	"time"

	"github.com/golang/geo/r2"
)

// SmootherConfig holds the smoother's tunables
type SmootherConfig struct {
	MoveSpeed       float64
	MotionThreshold float64
	Interpolation   Interpolation
}

// Smoother owns the scene-camera orientation and eases it toward the
// target derived from the dominant face
type Smoother struct {
	projector Projector
	config    SmootherConfig

	current      Orientation
	target       Orientation
	targetAngles Angles

	// Hysteresis
	lastCenter r2.Point
	hasTarget  bool
}

// NewSmoother creates a smoother at the identity orientation
func NewSmoother(projector Projector, config SmootherConfig) *Smoother {
	return &Smoother{
		projector: projector,
		config:    config,
		current:   Identity(),
		target:    Identity(),
	}
}

// Factor returns the slerp fraction for an elapsed time
func (s *Smoother) Factor(dt time.Duration) float64 {
	x := s.config.MoveSpeed * dt.Seconds()
	if x <= 0 {
		return 0
	}
	if s.config.Interpolation == InterpolationLinear {
		return math.Min(1, x)
	}
	return 1 - math.Exp(-x)
}

// Update advances one tick. face is nil when no dominant face was found.
// Returns the new current orientation and whether the target changed.
func (s *Smoother) Update(dt time.Duration, face *DominantFace) (Orientation, bool) {
	changed := false
	if face != nil && s.accepts(face.EyesCenter) {
		s.targetAngles = s.projector.ProjectFace(*face)
		s.target = FromAngles(s.targetAngles)
		s.lastCenter = face.EyesCenter
		s.hasTarget = true
		changed = true
	}

	s.current = Slerp(s.current, s.target, s.Factor(dt))
	return s.current, changed
}

// accepts reports whether center moved far enough to retarget
func (s *Smoother) accepts(center r2.Point) bool {
	if !s.hasTarget {
		return true
	}
	return center.Sub(s.lastCenter).Norm() > s.config.MotionThreshold
}

// Current returns the orientation applied to the camera
func (s *Smoother) Current() Orientation {
	return s.current
}

// Target returns the orientation being approached
func (s *Smoother) Target() Orientation {
	return s.target
}

// TargetAngles returns the projected yaw/pitch of the current target
func (s *Smoother) TargetAngles() Angles {
	return s.targetAngles
}

// HasTarget returns true once a face has been accepted
func (s *Smoother) HasTarget() bool {
	return s.hasTarget
}

// Error returns the remaining angle to the target in degrees
func (s *Smoother) Error() float64 {
	return s.current.AngleTo(s.target)
}

// SetConfig replaces tunables; orientation state is kept
func (s *Smoother) SetConfig(projector Projector, config SmootherConfig) {
	s.projector = projector
	s.config = config
}

// Reset returns to identity and forgets the target
func (s *Smoother) Reset() {
	s.current = Identity()
	s.target = Identity()
	s.targetAngles = Angles{}
	s.lastCenter = r2.Point{}
	s.hasTarget = false
}
