// Package web provides a real-time dashboard for the parallax tracker
package web

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-parallax/pkg/hub"
	"github.com/teslashibe/go-parallax/pkg/tracking"
)

const maxLogs = 500

// Config holds dashboard settings
type Config struct {
	Port          int     `yaml:"port" json:"port"`
	StaticDir     string  `yaml:"static_dir" json:"static_dir"`         // Served at / when it exists
	OrientationHz float64 `yaml:"orientation_hz" json:"orientation_hz"` // Max orientation broadcasts per second
	PreviewHz     float64 `yaml:"preview_hz" json:"preview_hz"`         // Max preview frames per second
}

// DefaultConfig returns the standard dashboard settings
func DefaultConfig() Config {
	return Config{
		Port:          8090,
		StaticDir:     "./web",
		OrientationHz: 30,
		PreviewHz:     10,
	}
}

// Tuner is the runtime tuning surface of the tracker
type Tuner interface {
	GetTuningParams() tracking.TuningParams
	SetTuningParams(params tracking.TuningParams)
	ResetCamera()
}

// TrackingState is the latest tracker output shown on the dashboard
type TrackingState struct {
	Session     string                 `json:"session"`
	Frame       uint64                 `json:"frame"`
	Orientation tracking.Orientation   `json:"orientation"`
	Target      tracking.Angles        `json:"target"`
	Remaining   float64                `json:"remaining"`
	Dominant    *tracking.DominantFace `json:"dominant,omitempty"`
	Detections  int                    `json:"detections"`
	FaceVisible bool                   `json:"face_visible"`
	FPS         float64                `json:"fps"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, face, error
	Message string `json:"message"`
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	config Config
	logger *slog.Logger

	// State
	state   TrackingState
	markers []tracking.Marker
	stateMu sync.RWMutex

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	orientationHub *hub.Hub
	cameraHub      *hub.Hub
	logHub         *hub.Hub

	tuner   Tuner
	tunerMu sync.RWMutex

	// Config callbacks
	OnGetConfig       func() interface{}
	OnGetCameraConfig func() interface{}
	OnSetCameraConfig func(body []byte) error // Raw JSON from POST /api/camera
}

// NewServer creates a new web dashboard server
func NewServer(cfg Config, session string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")

	s := &Server{
		config:         cfg,
		logger:         logger,
		state:          TrackingState{Session: session, Orientation: tracking.Identity()},
		logs:           make([]LogEntry, 0, maxLogs),
		orientationHub: hub.New("orientation", logger),
		cameraHub:      hub.New("camera", logger),
		logHub:         hub.New("logs", logger),
	}
	s.orientationHub.SetRateLimit(cfg.OrientationHz, 1)
	s.cameraHub.SetRateLimit(cfg.PreviewHz, 1)

	// Viewers only care about the newest pose and frame
	s.orientationHub.SetSlowClientPolicy(hub.DropOldest)
	s.cameraHub.SetSlowClientPolicy(hub.DropOldest)
	s.cameraHub.SetQueueSize(2)

	app := fiber.New(fiber.Config{
		AppName:               "Parallax Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err == nil {
			app.Static("/", cfg.StaticDir)
		}
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/markers", s.handleMarkers)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)
	api.Post("/tuning/reset", s.handleResetCamera)
	api.Get("/config", s.handleGetConfig)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleSetCamera)
	api.Get("/logs", s.handleGetLogs)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/orientation", websocket.New(s.handleOrientationWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// SetTuner connects the tuning API to a tracker
func (s *Server) SetTuner(t Tuner) {
	s.tunerMu.Lock()
	defer s.tunerMu.Unlock()
	s.tuner = t
}

func (s *Server) getTuner() Tuner {
	s.tunerMu.RLock()
	defer s.tunerMu.RUnlock()
	return s.tuner
}

// Start runs the hubs and serves until ctx is cancelled or Listen fails
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("web dashboard", "url", fmt.Sprintf("http://localhost:%d", s.config.Port))

	go s.orientationHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	go s.logHub.Run(ctx)

	return s.app.Listen(fmt.Sprintf(":%d", s.config.Port))
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Warn("web server error", "error", err)
		}
	}()
}

// UpdateTracking stores the latest tick result and broadcasts the orientation
func (s *Server) UpdateTracking(r tracking.Result) {
	now := time.Now()

	s.stateMu.Lock()
	if !s.state.UpdatedAt.IsZero() {
		if dt := now.Sub(s.state.UpdatedAt).Seconds(); dt > 0 {
			// Exponential average so the readout is stable
			s.state.FPS = 0.9*s.state.FPS + 0.1/dt
		}
	}
	s.state.Frame = r.Frame
	s.state.Orientation = r.Orientation
	s.state.Target = r.Target
	s.state.Remaining = r.Remaining
	s.state.Dominant = r.Dominant
	s.state.Detections = r.Detections
	s.state.FaceVisible = r.Dominant != nil
	s.state.UpdatedAt = now
	s.markers = append(s.markers[:0], r.Markers...)
	state := s.state
	s.stateMu.Unlock()

	s.orientationHub.BroadcastJSON(state)
}

// UpdateFrame forwards a preview frame to camera clients
func (s *Server) UpdateFrame(jpeg []byte) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	s.cameraHub.BroadcastFrame(jpeg)
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// State returns a copy of the latest tracking state
func (s *Server) State() TrackingState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
