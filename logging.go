package persist

import (
	"context"
	"log/slog"
	"time"
)

// Op names the storage step a LogEvent describes.
type Op string

const (
	OpCheck     Op = "check"
	OpReset     Op = "reset"
	OpHydrate   Op = "hydrate"
	OpChange    Op = "change"
	OpFlush     Op = "flush"
	OpQuery     Op = "query"
	OpRead      Op = "read"
	OpMalformed Op = "malformed"
	OpActivity  Op = "activity"
)

// LogEvent describes one storage step. Key holds the changed path for
// OpChange, the expression for OpQuery and the reset reason for OpReset.
type LogEvent struct {
	Op        Op
	Namespace string
	Version   string
	Key       string
	Duration  time.Duration
	Err       error
}

// Logger records storage events.
type Logger interface {
	LogStorage(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogStorage implements Logger.
func (f LoggerFunc) LogStorage(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogStorage(LogEvent) {}

type slogLogger struct {
	logger *slog.Logger
}

// SlogLogger adapts a *slog.Logger. Successful steps log at debug level,
// malformed or unreadable records at warn, and failed writes or queries at
// error. A nil logger uses slog.Default.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{logger: logger}
}

func (l slogLogger) LogStorage(event LogEvent) {
	level := slog.LevelDebug
	switch {
	case event.Op == OpMalformed || event.Op == OpRead:
		level = slog.LevelWarn
	case event.Err != nil:
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("namespace", event.Namespace),
		slog.String("version", event.Version),
	}
	if event.Key != "" {
		attrs = append(attrs, slog.String("key", event.Key))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	l.logger.LogAttrs(context.Background(), level, "persist "+string(event.Op), attrs...)
}

func (m *Manager) log(event LogEvent) {
	event.Namespace = m.cfg.namespace
	event.Version = m.cfg.version
	m.cfg.logger.LogStorage(event)
}
