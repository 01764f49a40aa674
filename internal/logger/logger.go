package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	*slog.Logger
}

func New(logLevel string) *Logger {
	return NewWithWriter(os.Stdout, logLevel)
}

// NewWithWriter builds a JSON logger writing to w.
func NewWithWriter(w io.Writer, logLevel string) *Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(logLevel),
		AddSource: logLevel == "debug",
	}

	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, opts)),
	}
}

// Wrap adapts a caller-supplied slog logger. A nil logger yields Nop.
func Wrap(l *slog.Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{Logger: l}
}

// Nop returns a logger that drops everything; the library default.
func Nop() *Logger {
	return &Logger{Logger: slog.New(discardHandler{})}
}

// discardHandler mirrors slog.DiscardHandler (Go 1.24+) for older toolchains.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// ValidLevel reports whether level is one parseLogLevel understands.
func ValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
	}
}

func (l *Logger) WithFields(fields ...interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With(fields...),
	}
}

func (l *Logger) RouteOperation(action, route, gateway string, duration int64, success bool) {
	l.Debug("Route operation completed",
		slog.String("action", action),
		slog.String("route", route),
		slog.String("gateway", gateway),
		slog.Int64("duration_ms", duration),
		slog.Bool("success", success))
}

func (l *Logger) RouteChange(kind, route string, subscribers int) {
	l.Info("Route change detected",
		slog.String("event", kind),
		slog.String("route", route),
		slog.Int("subscribers", subscribers))
}

func (l *Logger) BatchOperation(action string, total, success, failed int, duration int64) {
	l.Info("Batch operation completed",
		slog.String("action", action),
		slog.Int("total", total),
		slog.Int("success", success),
		slog.Int("failed", failed),
		slog.Int64("duration_ms", duration))
}

func (l *Logger) ConfigLoaded(file string, logLevel, family string) {
	l.Info("Configuration loaded",
		slog.String("config_file", file),
		slog.String("log_level", logLevel),
		slog.String("family", family))
}

func (l *Logger) MonitorStart(family string, routes int) {
	l.Info("Route monitor started",
		slog.String("family", family),
		slog.Int("baseline_routes", routes))
}

func (l *Logger) MonitorStop() {
	l.Info("Route monitor stopped")
}

func (l *Logger) Performance(operation string, metrics map[string]interface{}) {
	args := []interface{}{
		"operation", operation,
	}

	for k, v := range metrics {
		args = append(args, k, v)
	}

	l.Debug("performance metrics", args...)
}
