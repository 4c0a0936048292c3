package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-parallax/pkg/tracking"
	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
)

type fakeTuner struct {
	params tracking.TuningParams
	set    int
	resets int
}

func (f *fakeTuner) GetTuningParams() tracking.TuningParams { return f.params }
func (f *fakeTuner) ResetCamera()                           { f.resets++ }
func (f *fakeTuner) SetTuningParams(p tracking.TuningParams) {
	f.set++
	if p.MoveSpeed > 0 {
		f.params.MoveSpeed = p.MoveSpeed
	}
}

func testServer() *Server {
	cfg := DefaultConfig()
	cfg.StaticDir = ""
	return NewServer(cfg, "test-session", nil)
}

func doRequest(t *testing.T, s *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func sampleResult() tracking.Result {
	dets := []detection.Detection{detection.Face(0.7, 0.5, 0.1), detection.Face(0.2, 0.5, 0.05)}
	pool := tracking.NewMarkerPool(4)
	return tracking.Result{
		Frame:       7,
		Orientation: tracking.FromEuler(0, 12, 0),
		Target:      tracking.Angles{Yaw: 21.8},
		Remaining:   9.8,
		Dominant:    &tracking.DominantFace{Index: 0, EyesDistance: 0.1},
		Detections:  2,
		Markers:     pool.Bind(dets),
	}
}

func TestStatus(t *testing.T) {
	s := testServer()
	s.UpdateTracking(sampleResult())

	code, body := doRequest(t, s, "GET", "/api/status", "")
	if code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}

	var state struct {
		Session     string                `json:"session"`
		Frame       uint64                `json:"frame"`
		FaceVisible bool                  `json:"face_visible"`
		Detections  int                   `json:"detections"`
		Remaining   float64               `json:"remaining"`
		Target      struct{ Yaw float64 } `json:"target"`
		Orientation struct{ Yaw float64 } `json:"orientation"`
	}
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Session != "test-session" || state.Frame != 7 || !state.FaceVisible || state.Detections != 2 {
		t.Errorf("unexpected state: %s", body)
	}
	if state.Remaining != 9.8 {
		t.Errorf("remaining = %v, want 9.8", state.Remaining)
	}
	if state.Target.Yaw != 21.8 {
		t.Errorf("target yaw = %v, want 21.8", state.Target.Yaw)
	}
	if diff := state.Orientation.Yaw - 12; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("orientation yaw = %v, want 12", state.Orientation.Yaw)
	}
}

func TestMarkers(t *testing.T) {
	s := testServer()
	s.UpdateTracking(sampleResult())

	var all, active []tracking.Marker
	_, body := doRequest(t, s, "GET", "/api/markers", "")
	json.Unmarshal(body, &all)
	_, body = doRequest(t, s, "GET", "/api/markers?active=true", "")
	json.Unmarshal(body, &active)

	if len(all) != 4 {
		t.Errorf("all markers = %d, want 4", len(all))
	}
	if len(active) != 2 {
		t.Errorf("active markers = %d, want 2", len(active))
	}
}

func TestTuning(t *testing.T) {
	s := testServer()

	if code, _ := doRequest(t, s, "GET", "/api/tuning", ""); code != http.StatusServiceUnavailable {
		t.Errorf("without tuner: code = %d, want 503", code)
	}

	tuner := &fakeTuner{params: tracking.TuningParams{MoveSpeed: 4, Interpolation: "exponential"}}
	s.SetTuner(tuner)

	code, body := doRequest(t, s, "GET", "/api/tuning", "")
	if code != http.StatusOK || !strings.Contains(string(body), `"move_speed":4`) {
		t.Errorf("GET tuning: %d %s", code, body)
	}

	code, body = doRequest(t, s, "POST", "/api/tuning", `{"move_speed": 7.5}`)
	if code != http.StatusOK {
		t.Fatalf("POST tuning: %d %s", code, body)
	}
	if tuner.set != 1 || tuner.params.MoveSpeed != 7.5 {
		t.Errorf("tuner not updated: %+v", tuner)
	}
	if !strings.Contains(string(body), `"move_speed":7.5`) {
		t.Errorf("response should echo updated params: %s", body)
	}

	if code, _ := doRequest(t, s, "POST", "/api/tuning", `{bad json`); code != http.StatusBadRequest {
		t.Errorf("bad body: code = %d, want 400", code)
	}

	if code, _ := doRequest(t, s, "POST", "/api/tuning/reset", ""); code != http.StatusOK || tuner.resets != 1 {
		t.Errorf("reset: code = %d, resets = %d", code, tuner.resets)
	}
}

func TestTuning_RealTracker(t *testing.T) {
	tr, err := tracking.New(tracking.DefaultConfig(), detection.NewMock(), nil)
	if err != nil {
		t.Fatalf("tracking.New: %v", err)
	}
	s := testServer()
	s.SetTuner(tr)

	doRequest(t, s, "POST", "/api/tuning", `{"interpolation": "linear", "motion_threshold": 0.05}`)

	cfg := tr.Config()
	if cfg.Interpolation != tracking.InterpolationLinear || cfg.MotionThreshold != 0.05 {
		t.Errorf("tracker config not updated: %+v", cfg)
	}
}

func TestConfigAndCamera(t *testing.T) {
	s := testServer()

	if code, body := doRequest(t, s, "GET", "/api/config", ""); code != http.StatusOK || string(body) != "{}" {
		t.Errorf("empty config: %d %s", code, body)
	}
	if code, _ := doRequest(t, s, "GET", "/api/camera", ""); code != http.StatusServiceUnavailable {
		t.Errorf("camera without callback: code = %d, want 503", code)
	}

	s.OnGetConfig = func() interface{} { return map[string]string{"detector": "yunet"} }
	camera := map[string]interface{}{"width": 640.0}
	s.OnGetCameraConfig = func() interface{} { return camera }
	s.OnSetCameraConfig = func(body []byte) error {
		var params map[string]interface{}
		if err := json.Unmarshal(body, &params); err != nil {
			return err
		}
		if w, ok := params["width"].(float64); ok {
			if w < 160 {
				return errors.New("width must be between 160 and 3840")
			}
			camera["width"] = w
		}
		return nil
	}

	if _, body := doRequest(t, s, "GET", "/api/config", ""); !strings.Contains(string(body), "yunet") {
		t.Errorf("config: %s", body)
	}
	if code, body := doRequest(t, s, "POST", "/api/camera", `{"width": 1280}`); code != http.StatusOK || !strings.Contains(string(body), "1280") {
		t.Errorf("set camera: %d %s", code, body)
	}
	if code, _ := doRequest(t, s, "POST", "/api/camera", `{"width": 10}`); code != http.StatusBadRequest {
		t.Errorf("invalid camera: code = %d, want 400", code)
	}
	if code, _ := doRequest(t, s, "POST", "/api/camera", `{"width":`); code != http.StatusBadRequest {
		t.Errorf("malformed camera body: code = %d, want 400", code)
	}
}

func TestLogsCapped(t *testing.T) {
	s := testServer()
	for i := 0; i < maxLogs+20; i++ {
		s.AddLog("face", fmt.Sprintf("entry %d", i))
	}

	var logs []LogEntry
	_, body := doRequest(t, s, "GET", "/api/logs", "")
	if err := json.Unmarshal(body, &logs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(logs) != maxLogs {
		t.Fatalf("logs = %d, want %d", len(logs), maxLogs)
	}
	if logs[0].Message != "entry 20" {
		t.Errorf("oldest log = %q, want entry 20", logs[0].Message)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := testServer()
	if code, _ := doRequest(t, s, "GET", "/ws/orientation", ""); code != http.StatusUpgradeRequired {
		t.Errorf("plain GET: code = %d, want 426", code)
	}
}

func TestOrientationWebSocket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaticDir = ""
	cfg.Port = 18290
	cfg.OrientationHz = 0
	s := NewServer(cfg, "ws-session", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartAsync(ctx)
	defer s.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18290/ws/orientation", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	// Initial snapshot
	var state TrackingState
	if err := ws.ReadJSON(&state); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if state.Session != "ws-session" {
		t.Errorf("session = %q", state.Session)
	}

	// Wait for registration, then broadcast a tick
	deadline := time.Now().Add(2 * time.Second)
	for s.orientationHub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.UpdateTracking(sampleResult())

	if err := ws.ReadJSON(&state); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if state.Frame != 7 {
		t.Errorf("frame = %d, want 7", state.Frame)
	}
}

func TestCameraPreviewWebSocket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaticDir = ""
	cfg.Port = 18291
	cfg.PreviewHz = 0
	s := NewServer(cfg, "preview-session", nil)

	// No viewers: frame is dropped without blocking
	s.UpdateFrame([]byte{0xFF, 0xD8, 0x00})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartAsync(ctx)
	defer s.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18291/ws/camera", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.cameraHub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	frame := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	s.UpdateFrame(frame)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Errorf("message type = %d, want binary", mt)
	}
	if string(data) != string(frame) {
		t.Errorf("frame = %x, want %x", data, frame)
	}
}
