package parallax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/teslashibe/go-parallax/pkg/camera"
	"github.com/teslashibe/go-parallax/pkg/scene"
	"github.com/teslashibe/go-parallax/pkg/tracking"
	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
	"github.com/teslashibe/go-parallax/pkg/web"
)

// App is the main parallax application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config  Config
	session string
	logger  *slog.Logger

	// Input
	source        camera.Source
	cameraManager *camera.Manager

	// Pipeline
	tracker *tracking.Tracker

	// Outputs
	recorder   *scene.Recorder
	recordFile *os.File
	remote     *scene.Remote
	webServer  *web.Server

	// Constructors, replaced in tests
	newDetector func(detection.Config) (detection.Detector, error)
	openSource  func(camera.Config) (camera.Source, error)
}

// New creates a new parallax application with the given configuration.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	session := uuid.NewString()
	return &App{
		config:      cfg,
		session:     session,
		logger:      logger.With("session", session),
		newDetector: detection.New,
		openSource:  camera.Open,
	}, nil
}

// Session returns the run's unique id
func (a *App) Session() string {
	return a.session
}

// Tracker returns the pipeline, nil before Init
func (a *App) Tracker() *tracking.Tracker {
	return a.tracker
}

// Recorder returns the in-memory orientation history, nil before Init
func (a *App) Recorder() *scene.Recorder {
	return a.recorder
}

// Init opens the camera and detector and connects all outputs.
// Call this after New() and before Run(). Shutdown releases whatever
// Init acquired, even when Init fails.
func (a *App) Init() error {
	a.logger.Info("initializing",
		"detector", a.config.Detection.Backend,
		"camera", a.describeInput(),
		"interpolation", a.config.Tracking.Interpolation)

	detCfg := a.config.Detection
	detCfg.ConfidenceThresh = a.config.Tracking.ConfidenceThreshold
	detector, err := a.newDetector(detCfg)
	if err != nil {
		return fmt.Errorf("detector: %w", err)
	}

	a.tracker, err = tracking.New(a.config.Tracking, detector, a.logger)
	if err != nil {
		detector.Close()
		return err
	}

	a.source, err = a.openSource(a.config.Camera)
	if err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	a.cameraManager = camera.NewManager(a.config.Camera)
	a.cameraManager.OnConfigChange = a.source.Apply

	if err := a.initOutputs(); err != nil {
		return err
	}

	if !a.config.NoWeb {
		a.initWeb()
	}
	return nil
}

func (a *App) initOutputs() error {
	var w io.Writer
	if a.config.Record != "" {
		f, err := os.OpenFile(a.config.Record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("record file: %w", err)
		}
		a.recordFile = f
		w = f
	}
	a.recorder = scene.NewRecorder(a.config.History, w)
	a.tracker.AddSink(a.recorder)

	if a.config.Renderer != "" {
		a.remote = scene.NewRemote(a.config.Renderer, a.session, a.logger)
		a.tracker.AddSink(a.remote)
	}
	return nil
}

// CameraState is what the dashboard shows for the camera
type CameraState struct {
	Config       camera.Config       `json:"config"`
	Capabilities camera.Capabilities `json:"capabilities"`
}

func (a *App) initWeb() {
	a.webServer = web.NewServer(a.config.Web, a.session, a.logger)
	a.webServer.SetTuner(a.tracker)
	a.webServer.OnGetConfig = func() interface{} {
		cfg := a.config
		cfg.Tracking = a.tracker.Config()
		cfg.Camera = a.cameraManager.GetConfig()
		return cfg
	}
	a.webServer.OnGetCameraConfig = func() interface{} {
		return CameraState{
			Config:       a.cameraManager.GetConfig(),
			Capabilities: camera.GetCapabilities(),
		}
	}
	a.webServer.OnSetCameraConfig = func(body []byte) error {
		patch, err := camera.ParsePatch(body)
		if err != nil {
			return err
		}
		cfg, err := a.cameraManager.Update(patch)
		if err != nil {
			return err
		}
		a.logger.Info("camera config updated",
			"width", cfg.Width, "height", cfg.Height, "framerate", cfg.Framerate)
		return nil
	}
	a.tracker.SetStateUpdater(a.webServer)
}

func (a *App) describeInput() string {
	if a.config.Camera.Image != "" {
		return "image:" + a.config.Camera.Image
	}
	return "device:" + a.config.Camera.Device
}

// Run starts the dashboard and the frame loop.
// Blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.tracker == nil || a.source == nil {
		return errors.New("app not initialized")
	}

	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
		a.webServer.AddLog("info", "Parallax started")
	}
	if a.remote != nil {
		if err := a.remote.Connect(); err != nil {
			a.logger.Warn("renderer not reachable, will retry", "error", err)
		}
	}

	a.logger.Info("tracking, press Ctrl+C to exit")
	err := a.tracker.Run(ctx, a.source)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
	if a.remote != nil {
		a.remote.Close()
	}
	if a.tracker != nil {
		if err := a.tracker.Close(); err != nil {
			a.logger.Warn("detector close", "error", err)
		}
	}
	if a.source != nil {
		a.source.Close()
	}
	if a.recordFile != nil {
		a.recordFile.Close()
		a.recordFile = nil
	}
	if a.recorder != nil {
		a.logger.Info("stopped", "frames", a.recorder.Count())
	}
}
