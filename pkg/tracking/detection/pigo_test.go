package detection

import (
	"image/color"
	"testing"

	pigo "github.com/esimov/pigo/core"
)

func pigoConfig(t *testing.T) Config {
	t.Helper()
	cascade := findModelFile("facefinder")
	puploc := findModelFile("puploc")
	if cascade == "" || puploc == "" {
		t.Skip("pigo cascades not found, skipping test")
	}
	cfg := DefaultConfig()
	cfg.Backend = BackendPigo
	cfg.CascadePath = cascade
	cfg.PuplocPath = puploc
	return cfg
}

func TestPigoNewInvalidPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CascadePath = "/nonexistent/facefinder"
	cfg.PuplocPath = "/nonexistent/puploc"

	if _, err := NewPigo(cfg); err == nil {
		t.Error("Expected error for missing cascade")
	}
}

func TestPigoDetect_SolidImage(t *testing.T) {
	detector, err := New(pigoConfig(t))
	if err != nil {
		t.Fatalf("New(pigo) failed: %v", err)
	}
	defer detector.Close()

	detections, err := detector.Detect(createSolidJPEG(1280, 720, color.RGBA{40, 40, 40, 255}))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(detections) > 0 {
		t.Errorf("Expected no detections in solid color image, got %d", len(detections))
	}
}

func TestPigoDetect_InvalidImage(t *testing.T) {
	detector, err := NewPigo(pigoConfig(t))
	if err != nil {
		t.Fatalf("NewPigo failed: %v", err)
	}
	defer detector.Close()

	if _, err := detector.Detect(nil); err == nil {
		t.Error("Expected error for empty image")
	}
	if _, err := detector.Detect([]byte("not a jpeg")); err == nil {
		t.Error("Expected error for invalid JPEG")
	}
}

func TestPigoLocatePupil_EmptyCascade(t *testing.T) {
	// A cascade with no stages returns the perturbed guess unchanged
	d := &PigoDetector{puploc: pigo.NewPuplocCascade(), config: DefaultConfig()}
	params := pigo.ImageParams{
		Pixels: make([]uint8, 200*200),
		Rows:   200,
		Cols:   200,
		Dim:    200,
	}

	got := d.locatePupil(100, 120, 40, params)
	if got.Row < 98 || got.Row > 102 {
		t.Errorf("Row: got %d, want ~100", got.Row)
	}
	if got.Col < 118 || got.Col > 122 {
		t.Errorf("Col: got %d, want ~120", got.Col)
	}
}
