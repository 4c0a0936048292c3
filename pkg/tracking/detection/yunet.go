package detection

import (
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// YuNet output columns (15 per face):
// 0-3: x, y, w, h (bounding box in pixels)
// 4-5: right eye, 6-7: left eye, 8-9: nose tip, 10-13: mouth corners
// 14: face score
const (
	yunetRightEyeX = 4
	yunetRightEyeY = 5
	yunetLeftEyeX  = 6
	yunetLeftEyeY  = 7
	yunetScore     = 14
)

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	mu       sync.Mutex // Protects inference
	closed   bool
}

// NewYuNet creates a new YuNet face detector using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, errors.Errorf("model file not found: %s", cfg.ModelPath)
	}

	// Input size is updated per-image in Detect
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Detect finds faces in the JPEG image
func (d *YuNetDetector) Detect(jpeg []byte) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errors.New("detector closed")
	}

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	defer img.Close()

	if img.Empty() {
		return nil, errors.New("empty image")
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	detections := make([]Detection, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		at := func(col int) float64 { return float64(faces.GetFloatAt(r, col)) }

		score := at(yunetScore)
		if score < d.config.ConfidenceThresh {
			continue
		}

		detections = append(detections, Detection{
			LeftEye:    normalizePoint(at(yunetLeftEyeX), at(yunetLeftEyeY), imgW, imgH),
			RightEye:   normalizePoint(at(yunetRightEyeX), at(yunetRightEyeY), imgW, imgH),
			X:          at(0) / imgW,
			Y:          at(1) / imgH,
			W:          at(2) / imgW,
			H:          at(3) / imgH,
			Confidence: score,
		})
	}

	return detections, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.detector.Close()
	return nil
}
