package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger wraps zerolog.Logger to implement the Logger interface.
// All string and interface fields pass through a RedactionFilter so bearer
// tokens and API keys never reach the log output.
type ZeroLogger struct {
	zlog   *zerolog.Logger
	filter *RedactionFilter
}

// Ensure ZeroLogger implements the interface
var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger with the given level. If pretty is true, output is
// formatted for human readability.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithFilter(level, pretty, nil)
}

// NewWithFilter creates a ZeroLogger with a custom redaction configuration.
// A nil config falls back to DefaultRedactionConfig.
func NewWithFilter(level string, pretty bool, cfg *RedactionConfig) *ZeroLogger {
	var l zerolog.Logger

	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, filter: NewRedactionFilter(cfg)}
}

// WithFields returns a logger with additional fields attached to all entries.
// Sensitive field values are masked before being attached.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.filter != nil {
		fields = l.filter.FilterFields(fields)
	}
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log, filter: l.filter}
}

// Info creates an info-level log event
func (l *ZeroLogger) Info() LogEvent {
	return &logEvent{event: l.zlog.Info(), filter: l.filter}
}

// Error creates an error-level log event
func (l *ZeroLogger) Error() LogEvent {
	return &logEvent{event: l.zlog.Error(), filter: l.filter}
}

// Debug creates a debug-level log event
func (l *ZeroLogger) Debug() LogEvent {
	return &logEvent{event: l.zlog.Debug(), filter: l.filter}
}

// Warn creates a warning-level log event
func (l *ZeroLogger) Warn() LogEvent {
	return &logEvent{event: l.zlog.Warn(), filter: l.filter}
}

// logEvent adapts zerolog events to the LogEvent interface.
type logEvent struct {
	event  *zerolog.Event
	filter *RedactionFilter
}

func (e *logEvent) Msg(msg string) {
	e.event.Msg(msg)
}

func (e *logEvent) Msgf(format string, args ...any) {
	e.event.Msgf(format, args...)
}

func (e *logEvent) Err(err error) LogEvent {
	return &logEvent{event: e.event.Err(err), filter: e.filter}
}

func (e *logEvent) Str(key, value string) LogEvent {
	if e.filter != nil {
		value = e.filter.FilterString(key, value)
	}
	return &logEvent{event: e.event.Str(key, value), filter: e.filter}
}

func (e *logEvent) Int(key string, value int) LogEvent {
	return &logEvent{event: e.event.Int(key, value), filter: e.filter}
}

func (e *logEvent) Int64(key string, value int64) LogEvent {
	return &logEvent{event: e.event.Int64(key, value), filter: e.filter}
}

func (e *logEvent) Dur(key string, d time.Duration) LogEvent {
	return &logEvent{event: e.event.Dur(key, d), filter: e.filter}
}

func (e *logEvent) Interface(key string, i any) LogEvent {
	if e.filter != nil {
		i = e.filter.FilterValue(key, i)
	}
	return &logEvent{event: e.event.Interface(key, i), filter: e.filter}
}

func (e *logEvent) Bytes(key string, val []byte) LogEvent {
	return &logEvent{event: e.event.Bytes(key, val), filter: e.filter}
}
