package camera

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrame is returned when the device delivers no image
var ErrNoFrame = errors.New("no frame from camera")

// Webcam captures frames from a local device or stream with OpenCV
type Webcam struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	img     gocv.Mat
	config  Config
	closed  bool
}

// OpenWebcam opens cfg.Device and applies the requested resolution
func OpenWebcam(cfg Config) (*Webcam, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid camera config: %v", errs)
	}

	capture, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %q: %w", cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %q not available", cfg.Device)
	}

	w := &Webcam{
		capture: capture,
		img:     gocv.NewMat(),
		config:  cfg,
	}
	w.apply(cfg)
	return w, nil
}

// Apply updates resolution and frame rate on the open device.
// Used as the Manager's OnConfigChange callback.
func (w *Webcam) Apply(cfg Config) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("camera closed")
	}
	w.apply(cfg)
	return nil
}

func (w *Webcam) apply(cfg Config) {
	w.capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	w.capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	w.capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	w.config = cfg
}

// CaptureJPEG reads the next frame and encodes it as JPEG
func (w *Webcam) CaptureJPEG() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.New("camera closed")
	}
	if ok := w.capture.Read(&w.img); !ok || w.img.Empty() {
		return nil, ErrNoFrame
	}
	if w.config.Mirror {
		gocv.Flip(w.img, &w.img, 1)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.img, []int{int(gocv.IMWriteJpegQuality), w.config.Quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return buf.GetBytes(), nil
}

// Close releases the device. Safe to call more than once.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.img.Close()
	return w.capture.Close()
}
