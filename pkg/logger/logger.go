package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const defaultService = "outfit-recommender"

// New builds the process logger from LOG_LEVEL, LOG_FORMAT and SERVICE_NAME.
func New() *slog.Logger {
	return NewWithWriter(os.Stdout, Options{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: os.Getenv("SERVICE_NAME"),
	})
}

// Options selects the handler for NewWithWriter. Format is "json" (default)
// or "text".
type Options struct {
	Level   string
	Format  string
	Service string
}

// NewWithWriter constructs a slog logger writing to w.
func NewWithWriter(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "text") {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	service := strings.TrimSpace(opts.Service)
	if service == "" {
		service = defaultService
	}
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
