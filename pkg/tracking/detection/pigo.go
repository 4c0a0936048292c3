package detection

import (
	"bytes"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

const (
	// pigoScoreHalf is the raw cascade score mapped to 0.5 confidence
	pigoScoreHalf = 5.0

	// pigoIoU is the cluster overlap threshold for merging detections
	pigoIoU = 0.2

	// Pupil search perturbations per eye
	pigoPerturbs = 63
)

// PigoDetector is a pure-Go detector built on pigo's face and pupil cascades
type PigoDetector struct {
	classifier *pigo.Pigo
	puploc     *pigo.PuplocCascade
	config     Config
	mu         sync.Mutex
}

// NewPigo loads the face and pupil-localization cascades
func NewPigo(cfg Config) (*PigoDetector, error) {
	faceData, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, errors.Wrap(err, "read face cascade")
	}
	classifier, err := pigo.NewPigo().Unpack(faceData)
	if err != nil {
		return nil, errors.Wrap(err, "unpack face cascade")
	}

	pupilData, err := os.ReadFile(cfg.PuplocPath)
	if err != nil {
		return nil, errors.Wrap(err, "read puploc cascade")
	}
	plc := &pigo.PuplocCascade{}
	plc, err = plc.UnpackCascade(pupilData)
	if err != nil {
		return nil, errors.Wrap(err, "unpack puploc cascade")
	}

	return &PigoDetector{
		classifier: classifier,
		puploc:     plc,
		config:     cfg,
	}, nil
}

// Detect finds faces and localizes both pupils in the JPEG image
func (d *PigoDetector) Detect(jpeg []byte) ([]Detection, error) {
	if len(jpeg) == 0 {
		return nil, errors.New("empty image")
	}

	src, err := imaging.Decode(bytes.NewReader(jpeg))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}

	// Cascade cost grows with pixel count; normalized output is unaffected by the resize
	img := src
	if limit := d.config.MaxDimension; limit > 0 {
		b := src.Bounds()
		if b.Dx() > limit || b.Dy() > limit {
			img = imaging.Fit(src, limit, limit, imaging.Linear)
		}
	}

	cols, rows := img.Bounds().Dx(), img.Bounds().Dy()
	params := pigo.ImageParams{
		Pixels: pigo.RgbToGrayscale(img),
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}

	minSize := d.config.MinFaceSize
	if minSize <= 0 {
		minSize = 20
	}
	maxSize := cols
	if rows > maxSize {
		maxSize = rows
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	faces := d.classifier.RunCascade(pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: params,
	}, 0.0)
	faces = d.classifier.ClusterDetections(faces, pigoIoU)

	w, h := float64(cols), float64(rows)
	detections := make([]Detection, 0, len(faces))
	for _, face := range faces {
		confidence := scoreToConfidence(float64(face.Q))
		if confidence < d.config.ConfidenceThresh {
			continue
		}

		scale := float32(face.Scale)
		left := d.locatePupil(face.Row-int(0.075*scale), face.Col-int(0.175*scale), scale, params)
		right := d.locatePupil(face.Row-int(0.075*scale), face.Col+int(0.185*scale), scale, params)

		half := float64(face.Scale) / 2
		detections = append(detections, Detection{
			LeftEye:    normalizePoint(float64(left.Col), float64(left.Row), w, h),
			RightEye:   normalizePoint(float64(right.Col), float64(right.Row), w, h),
			X:          (float64(face.Col) - half) / w,
			Y:          (float64(face.Row) - half) / h,
			W:          float64(face.Scale) / w,
			H:          float64(face.Scale) / h,
			Confidence: confidence,
		})
	}

	return detections, nil
}

// locatePupil refines an eye estimate, falling back to the estimate itself
func (d *PigoDetector) locatePupil(row, col int, faceScale float32, params pigo.ImageParams) pigo.Puploc {
	guess := pigo.Puploc{
		Row:      row,
		Col:      col,
		Scale:    faceScale * 0.25,
		Perturbs: pigoPerturbs,
	}
	found := d.puploc.RunDetector(guess, params, 0.0, false)
	if found == nil || found.Row <= 0 || found.Col <= 0 {
		return guess
	}
	return *found
}

// Close is a no-op; cascades are plain memory
func (d *PigoDetector) Close() error {
	return nil
}

// scoreToConfidence maps pigo's unbounded cascade score onto 0-1
func scoreToConfidence(q float64) float64 {
	if q <= 0 {
		return 0
	}
	return q / (q + pigoScoreHalf)
}
