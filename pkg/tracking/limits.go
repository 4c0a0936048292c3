// Package tracking turns face detections into a smoothed scene-camera orientation.
// This file defines angle helpers shared by the projector and smoother.
package tracking

import "math"

// MaxProjectedAngle is the asymptote of the eye-to-angle curve in degrees.
// Projected yaw and pitch always satisfy |angle| < MaxProjectedAngle.
const MaxProjectedAngle = 90.0

// Degrees converts radians to degrees for logging/display.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// sign returns -1, 0 or +1
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
