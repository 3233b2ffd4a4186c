package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/luminahome/lumina-core/internal/infrastructure/config"
)

// Logger is the application logger. It embeds *slog.Logger, so it also
// satisfies the narrow Debug/Info/Warn/Error interfaces the domain
// packages declare for themselves. Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds the logger described by the logging section of config.yaml.
// Every entry carries service and version fields.
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Application version stamped on every entry
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	return fromHandler(handlerFor(cfg, destination(cfg.Output)), version)
}

// Default is the bootstrap logger used before configuration loads: JSON
// to stdout at info level.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// With returns a new Logger carrying additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component returns a child logger tagged with a component field, the
// convention for scoping entries to one subsystem:
//
//	mqttLog := log.Component("mqtt")
//	mqttLog.Info("connected") // includes component=mqtt
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// fromHandler stamps the default fields onto a handler and wraps it.
func fromHandler(h slog.Handler, version string) *Logger {
	h = h.WithAttrs([]slog.Attr{
		slog.String("service", "lumina"),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

// destination maps the configured output name to a writer. Anything
// unrecognised falls back to stdout.
func destination(output string) io.Writer {
	if strings.ToLower(output) == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

// handlerFor picks the handler for the configured format: text for
// development, JSON otherwise.
func handlerFor(cfg config.LoggingConfig, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLevel maps a config level string to its slog.Level, defaulting to
// info for anything unrecognised.
func parseLevel(level string) slog.Level {
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
