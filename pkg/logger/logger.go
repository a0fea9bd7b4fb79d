package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/robroyhobbs/burgerprice/pkg/config"
	"github.com/rs/zerolog"
)

// Logger is a structured logger wrapper around zerolog
// ⭐ SSOT: all logging goes through this package
type Logger struct {
	zlog zerolog.Logger
}

// Field keys shared by every component.
const (
	FieldComponent = "component"
	FieldPeriod    = "period"
	FieldSubject   = "subject"
)

var levels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

// New creates a Logger from config, writing to stdout
// ⭐ SSOT: zerolog instances are created here only
func New(cfg *config.Config) *Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a Logger that writes to w. LOG_FORMAT=console
// (or pretty) switches to human-readable lines.
func NewWithWriter(cfg *config.Config, w io.Writer) *Logger {
	output := w
	switch cfg.LogFormat {
	case "console", "pretty":
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	return &Logger{zlog: zerolog.New(output).
		With().
		Timestamp().
		Str("env", cfg.Env).
		Str("service", "bpi").
		Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// parseLogLevel falls back to info for unknown names
func parseLogLevel(levelStr string) zerolog.Level {
	if level, ok := levels[strings.ToLower(strings.TrimSpace(levelStr))]; ok {
		return level
	}
	return zerolog.InfoLevel
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// WithField returns a new logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a new logger with multiple fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a new logger with an error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// WithComponent tags every entry with the emitting component
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldComponent, name).Logger()}
}

// WithPeriod tags entries with a week key.
func (l *Logger) WithPeriod(period string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(FieldPeriod, period).Logger()}
}

// WithSubject tags entries with a city slug and, if set, a week key.
func (l *Logger) WithSubject(slug, period string) *Logger {
	ctx := l.zlog.With().Str(FieldSubject, slug)
	if period != "" {
		ctx = ctx.Str(FieldPeriod, period)
	}
	return &Logger{zlog: ctx.Logger()}
}
