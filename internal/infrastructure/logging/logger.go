package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/homefleet/appliancelink/internal/infrastructure/config"
)

// Logger is slog with the service identity attached. Every entry carries
// service=appliancelink and the build version, so log lines from several
// services multiplexed into one collector stay attributable.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section of config.yaml. Format is
// "json" unless set to "text"; output is stdout unless set to "stderr";
// an unrecognised level falls back to info.
func New(cfg config.LoggingConfig, version string) *Logger {
	handler := newHandler(writerFor(cfg.Output), cfg.Format, levelFor(cfg.Level))
	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "appliancelink"),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

// Default is the logger used before configuration is loaded: JSON to
// stdout at info level.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// With returns a Logger carrying extra default attributes.
//
//	streamLog := log.With("ha_id", haID)
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(format) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func writerFor(output string) io.Writer {
	if strings.ToLower(output) == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

func levelFor(level string) slog.Level {
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
