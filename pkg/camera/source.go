package camera

import (
	"fmt"
	"io"
)

// Source is a frame source the tracker can pull from
type Source interface {
	CaptureJPEG() ([]byte, error)
	Apply(cfg Config) error
	io.Closer
}

// Open returns a StaticImage when cfg.Image is set, otherwise a Webcam
func Open(cfg Config) (Source, error) {
	if cfg.Image != "" {
		src, err := OpenStaticImage(cfg)
		if err != nil {
			return nil, fmt.Errorf("static image: %w", err)
		}
		return src, nil
	}
	src, err := OpenWebcam(cfg)
	if err != nil {
		return nil, err
	}
	return src, nil
}
