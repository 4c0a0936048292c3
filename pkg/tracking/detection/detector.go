// Package detection provides face detection with eye landmarks
package detection

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Detection represents a detected face.
// Eye positions are normalized to the image (0-1 on both axes).
type Detection struct {
	LeftEye  r2.Point `json:"left_eye"`
	RightEye r2.Point `json:"right_eye"`

	// Bounding box, top-left plus size (0-1 normalized)
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	Confidence float64 `json:"confidence"`
}

// EyesDistance returns the Euclidean distance between the two eyes
func (d Detection) EyesDistance() float64 {
	return d.LeftEye.Sub(d.RightEye).Norm()
}

// EyesCenter returns the midpoint between the two eyes
func (d Detection) EyesCenter() r2.Point {
	return d.LeftEye.Add(d.RightEye).Mul(0.5)
}

// Detector is the interface for face detection backends
type Detector interface {
	// Detect finds faces in the image and returns their eye positions
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Backend names accepted by New
const (
	BackendYuNet = "yunet"
	BackendPigo  = "pigo"
)

// Config holds detector configuration
type Config struct {
	Backend          string  `yaml:"backend" json:"backend"`
	ModelPath        string  `yaml:"model_path" json:"model_path"`       // YuNet ONNX model
	CascadePath      string  `yaml:"cascade_path" json:"cascade_path"`   // Pigo face cascade
	PuplocPath       string  `yaml:"puploc_path" json:"puploc_path"`     // Pigo pupil cascade
	ConfidenceThresh float64 `yaml:"confidence" json:"confidence"`       // Minimum confidence (default 0.75)
	InputWidth       int     `yaml:"input_width" json:"input_width"`     // Model input width
	InputHeight      int     `yaml:"input_height" json:"input_height"`   // Model input height
	MaxDimension     int     `yaml:"max_dimension" json:"max_dimension"` // Downscale frames larger than this (pigo)
	MinFaceSize      int     `yaml:"min_face_size" json:"min_face_size"` // Smallest face in pixels (pigo)
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		Backend:          BackendYuNet,
		ModelPath:        "models/face_detection_yunet.onnx",
		CascadePath:      "models/facefinder",
		PuplocPath:       "models/puploc",
		ConfidenceThresh: 0.75,
		InputWidth:       320,
		InputHeight:      320,
		MaxDimension:     640,
		MinFaceSize:      40,
	}
}

// New creates the detector selected by cfg.Backend
func New(cfg Config) (Detector, error) {
	switch cfg.Backend {
	case BackendYuNet, "":
		return NewYuNet(cfg)
	case BackendPigo:
		return NewPigo(cfg)
	default:
		return nil, errors.Errorf("unknown detector backend: %q", cfg.Backend)
	}
}

// normalizePoint converts a pixel position to 0-1 image coordinates
func normalizePoint(x, y, width, height float64) r2.Point {
	if width <= 0 || height <= 0 {
		return r2.Point{}
	}
	return r2.Point{X: x / width, Y: y / height}
}
