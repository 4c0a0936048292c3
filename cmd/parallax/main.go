// Parallax - head-tracked scene camera
// Turns the closest face seen by a webcam into a smoothed camera orientation
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-parallax/internal/config"
	"github.com/teslashibe/go-parallax/internal/log"
	"github.com/teslashibe/go-parallax/pkg/parallax"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, logOpts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	logger := log.Setup(logOpts)
	defer log.Close()

	app, err := parallax.New(cfg, logger)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	if err := app.Init(); err != nil {
		logger.Error("initialization failed", "error", err)
		app.Shutdown()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
	}
}

// parseFlags layers configuration: preset, then file, then environment, then flags.
func parseFlags(args []string) (parallax.Config, log.Options, error) {
	fs := flag.NewFlagSet("parallax", flag.ContinueOnError)
	configPath := fs.String("config", config.String("PARALLAX_CONFIG", ""), "YAML config file")
	debug := fs.Bool("debug", false, "Enable debug logging")
	preset := fs.String("preset", "", "Tracking preset: default, slow, aggressive, reference")
	detector := fs.String("detector", "", "Face detector: yunet, pigo")
	model := fs.String("model", "", "YuNet ONNX model path")
	cameraDev := fs.String("camera", "", "Camera index or stream URL")
	image := fs.String("image", "", "Serve a still image instead of a camera")
	mirror := fs.Bool("mirror", false, "Mirror the camera horizontally")
	renderer := fs.String("renderer", "", "Renderer websocket URL (ws://...)")
	port := fs.Int("port", 0, "Dashboard port")
	noWeb := fs.Bool("no-web", false, "Disable the dashboard")
	record := fs.String("record", "", "Append orientations to a JSON lines file")
	logFile := fs.String("log-file", "", "Also write logs to a rotating file")
	if err := fs.Parse(args); err != nil {
		return parallax.Config{}, log.Options{}, err
	}

	// The preset is a baseline; file and environment still overlay it
	file, err := config.LoadPreset(*configPath, *preset)
	if err != nil {
		return parallax.Config{}, log.Options{}, err
	}
	file.ApplyEnv()

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["detector"] {
		file.Detection.Backend = *detector
	}
	if set["model"] {
		file.Detection.ModelPath = *model
	}
	if set["camera"] {
		file.Camera.Device = *cameraDev
	}
	if set["image"] {
		file.Camera.Image = *image
	}
	if set["mirror"] {
		file.Camera.Mirror = *mirror
	}
	if set["renderer"] {
		file.Renderer = *renderer
	}
	if set["port"] {
		file.Port = *port
	}
	if set["log-file"] {
		file.LogFile = *logFile
	}
	if *debug {
		file.LogLevel = "debug"
	}

	cfg := parallax.FromFile(file)
	cfg.NoWeb = *noWeb
	cfg.Record = *record

	return cfg, log.Options{Level: file.LogLevel, File: file.LogFile}, nil
}
