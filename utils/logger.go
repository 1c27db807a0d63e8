package utils

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logMu  sync.RWMutex
	logger *slog.Logger
)

// InitLogger configures the process-wide JSON logger. When filePath is set the output is
// also written to a rotating file.
func InitLogger(component, level, filePath string) *slog.Logger {
	var w io.Writer = os.Stdout
	if filePath != "" {
		_ = os.MkdirAll(filepath.Dir(filePath), 0o755)
		rot := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		w = io.MultiWriter(os.Stdout, rot)
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	l := slog.New(h).With("component", component)

	logMu.Lock()
	logger = l
	logMu.Unlock()
	return l
}

// Log returns the process-wide logger, falling back to slog's default before InitLogger runs.
func Log() *slog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Component returns a child logger tagged with a sub-component name
func Component(name string) *slog.Logger {
	return Log().With("module", name)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
