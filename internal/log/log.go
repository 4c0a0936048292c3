// Package log provides structured logging for go-parallax.
// It wraps slog with sensible defaults for production use.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu   sync.Mutex
	file *lumberjack.Logger
)

// Options configures the global logger
type Options struct {
	Level string // "debug", "info", "warn", "error"
	JSON  bool   // Force JSON output

	// File, when set, also writes logs to a rotating file
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup (re)configures the global logger and sets it as the slog default.
// JSON is used in production, when forced, or when stdout is not a terminal.
func Setup(opts Options) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 7),
			LocalTime:  true,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	useJSON := opts.JSON ||
		os.Getenv("GO_ENV") == "production" ||
		!term.IsTerminal(int(os.Stdout.Fd()))

	logger := slog.New(NewHandler(out, ParseLevel(opts.Level), useJSON))
	slog.SetDefault(logger)
	return logger
}

// NewHandler returns a text or JSON handler writing to w
func NewHandler(w io.Writer, level slog.Level, json bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps a level name to a slog level; unknown names are info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close flushes and closes the log file, if any
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
