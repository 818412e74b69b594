// Package logger provides structured logging setup for the CRM service.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/crm/internal/config"
)

// queueCapacity and queueWorkers size the async handler.
const (
	queueCapacity = 4096
	queueWorkers  = 2
)

// New creates a JSON *slog.Logger writing to stdout. Every record carries a
// "service" attribute plus the request_id and user_id of its context.
// When cfg.Async is set the returned Closer must be closed on shutdown to
// flush buffered records.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg config.Logging) (*slog.Logger, Closer) {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	var closer Closer = nopCloser{}
	if cfg.Async {
		ah := NewAsyncHandler(handler, queueCapacity, queueWorkers)
		handler = ah
		closer = ah
	}

	l := slog.New(ContextHandler{handler})
	if cfg.Service != "" {
		l = l.With("service", cfg.Service)
	}
	return l, closer
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "warning":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
