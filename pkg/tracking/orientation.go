package tracking

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// nlerpThreshold is the quaternion dot product above which slerp falls back
// to normalized linear interpolation
const nlerpThreshold = 0.9995

// Orientation is a scene-camera rotation stored as a unit quaternion.
// Euler angles use yaw about Y applied after pitch about X (and roll about Z first).
type Orientation struct {
	Q quat.Number
}

// Identity returns the no-rotation orientation
func Identity() Orientation {
	return Orientation{Q: quat.Number{Real: 1}}
}

// FromEuler builds an orientation from pitch, yaw and roll in degrees
func FromEuler(pitch, yaw, roll float64) Orientation {
	hp, hy, hr := Radians(pitch)/2, Radians(yaw)/2, Radians(roll)/2

	qx := quat.Number{Real: math.Cos(hp), Imag: math.Sin(hp)}
	qy := quat.Number{Real: math.Cos(hy), Jmag: math.Sin(hy)}
	qz := quat.Number{Real: math.Cos(hr), Kmag: math.Sin(hr)}

	return Orientation{Q: quat.Mul(quat.Mul(qy, qx), qz)}
}

// FromAngles builds an orientation looking toward a, with no roll
func FromAngles(a Angles) Orientation {
	return FromEuler(a.Pitch, a.Yaw, 0)
}

// Euler returns pitch, yaw and roll in degrees
func (o Orientation) Euler() (pitch, yaw, roll float64) {
	w, x, y, z := o.Q.Real, o.Q.Imag, o.Q.Jmag, o.Q.Kmag

	pitch = math.Asin(clamp(2*(w*x-y*z), -1, 1))
	yaw = math.Atan2(2*(x*z+w*y), 1-2*(x*x+y*y))
	roll = math.Atan2(2*(x*y+w*z), 1-2*(x*x+z*z))

	return Degrees(pitch), Degrees(yaw), Degrees(roll)
}

// Angles returns the yaw and pitch components
func (o Orientation) Angles() Angles {
	pitch, yaw, _ := o.Euler()
	return Angles{Yaw: yaw, Pitch: pitch}
}

// AngleTo returns the rotation angle between o and p in degrees (0-180)
func (o Orientation) AngleTo(p Orientation) float64 {
	d := quat.Mul(quat.Conj(o.Q), p.Q)
	vec := math.Sqrt(d.Imag*d.Imag + d.Jmag*d.Jmag + d.Kmag*d.Kmag)
	return Degrees(2 * math.Atan2(vec, math.Abs(d.Real)))
}

// Slerp interpolates from a toward b along the shortest arc.
// t is clamped to [0, 1].
func Slerp(a, b Orientation, t float64) Orientation {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}

	qa, qb := a.Q, b.Q
	dot := qdot(qa, qb)
	if dot < 0 {
		qb = quat.Scale(-1, qb)
		dot = -dot
	}

	if dot > nlerpThreshold {
		return Orientation{Q: normalize(quat.Add(qa, quat.Scale(t, quat.Sub(qb, qa))))}
	}

	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta

	return Orientation{Q: normalize(quat.Add(quat.Scale(wa, qa), quat.Scale(wb, qb)))}
}

type orientationJSON struct {
	W     float64 `json:"w"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// MarshalJSON encodes the quaternion plus its Euler angles for renderers
func (o Orientation) MarshalJSON() ([]byte, error) {
	pitch, yaw, roll := o.Euler()
	return json.Marshal(orientationJSON{
		W: o.Q.Real, X: o.Q.Imag, Y: o.Q.Jmag, Z: o.Q.Kmag,
		Yaw: yaw, Pitch: pitch, Roll: roll,
	})
}

// UnmarshalJSON decodes the quaternion; Euler fields are ignored
func (o *Orientation) UnmarshalJSON(data []byte) error {
	var v orientationJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Q = quat.Number{Real: v.W, Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	return nil
}

func qdot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < 1e-12 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
