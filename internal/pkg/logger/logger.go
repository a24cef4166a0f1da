// Package logger provides structured key/value logging backed by zerolog.
//
// A *Logger is created once at process start and passed to the components
// that need it. There is no package-level logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the minimum level and output format.
type Config struct {
	Level  string    `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string    `yaml:"format" validate:"omitempty,oneof=json console"`
	Output io.Writer `yaml:"-"`
}

// Logger emits structured entries with alternating key/value fields.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger. Empty fields default to info level, JSON format and
// stderr.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	zl := zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger that adds the given fields to every entry.
func (l *Logger) With(fields ...any) *Logger {
	ctx := l.zl.With()
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		ctx = ctx.Interface(key, redactValue(key, fields[i+1]))
	}
	return &Logger{zl: ctx.Logger()}
}

// Debug emits a DEBUG-level entry.
func (l *Logger) Debug(msg string, fields ...any) { l.log(l.zl.Debug(), msg, fields) }

// Info emits an INFO-level entry.
func (l *Logger) Info(msg string, fields ...any) { l.log(l.zl.Info(), msg, fields) }

// Warn emits a WARN-level entry.
func (l *Logger) Warn(msg string, fields ...any) { l.log(l.zl.Warn(), msg, fields) }

// Error emits an ERROR-level entry.
func (l *Logger) Error(msg string, fields ...any) { l.log(l.zl.Error(), msg, fields) }

func (l *Logger) log(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		default:
			ev = ev.Interface(key, redactValue(key, v))
		}
	}
	ev.Msg(msg)
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
