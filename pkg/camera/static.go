package camera

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/disintegration/imaging"
)

// StaticImage serves the same still image as every frame
type StaticImage struct {
	mu     sync.RWMutex
	path   string
	frame  []byte
	bounds image.Rectangle
}

// OpenStaticImage loads cfg.Image, fits it within Width x Height and
// re-encodes it as JPEG at cfg.Quality
func OpenStaticImage(cfg Config) (*StaticImage, error) {
	s := &StaticImage{path: cfg.Image}
	if err := s.load(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *StaticImage) load(cfg Config) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image %s: %w", s.path, err)
	}

	if b := img.Bounds(); cfg.Width > 0 && cfg.Height > 0 && (b.Dx() > cfg.Width || b.Dy() > cfg.Height) {
		img = imaging.Fit(img, cfg.Width, cfg.Height, imaging.Lanczos)
	}
	if cfg.Mirror {
		img = imaging.FlipH(img)
	}

	quality := cfg.Quality
	if quality <= 0 {
		quality = DefaultConfig().Quality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}

	s.mu.Lock()
	s.frame = buf.Bytes()
	s.bounds = img.Bounds()
	s.mu.Unlock()
	return nil
}

// Apply reloads the image with new size and quality settings
func (s *StaticImage) Apply(cfg Config) error {
	return s.load(cfg)
}

// CaptureJPEG returns the encoded image
func (s *StaticImage) CaptureJPEG() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, nil
}

// Size returns the served frame dimensions
func (s *StaticImage) Size() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds.Dx(), s.bounds.Dy()
}

// Close is a no-op
func (s *StaticImage) Close() error {
	return nil
}
