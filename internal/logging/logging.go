// Package logging backs the interfaces.Logger contract with zerolog, with
// opinionated defaults for service use.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigilynx/vigilynx/internal/interfaces"
)

// Options configures the root logger.
type Options struct {
	// Level is the minimum level, one of debug|info|warn|error. Defaults to info.
	Level string

	// Format is json or console. Defaults to json.
	Format string

	// Component is attached as a persistent field when non-empty.
	Component string

	// Writer overrides the output destination; defaults to stdout.
	Writer io.Writer
}

// ZerologLogger implements interfaces.Logger on top of a zerolog.Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

// New builds a ZerologLogger from Options.
func New(opt Options) *ZerologLogger {
	var w io.Writer = os.Stdout
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.EqualFold(opt.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp().Logger()
	if opt.Component != "" {
		zl = zl.With().Str("component", opt.Component).Logger()
	}
	return &ZerologLogger{zl: zl}
}

// NewComponent is shorthand for a json, info-level logger scoped to component.
func NewComponent(component string) *ZerologLogger {
	return New(Options{Component: component})
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []interfaces.Field) {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Debug(msg string, fields ...interfaces.Field) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *ZerologLogger) Info(msg string, fields ...interfaces.Field) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *ZerologLogger) Warn(msg string, fields ...interfaces.Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *ZerologLogger) Error(msg string, fields ...interfaces.Field) {
	l.emit(l.zl.Error(), msg, fields)
}

// With returns a child logger with the given persistent fields.
func (l *ZerologLogger) With(fields ...interfaces.Field) interfaces.Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// Field is re-exported so callers can write logging.Field without importing
// the interfaces package alongside.
type Field = interfaces.Field

// Logger is the contract implemented by this package.
type Logger = interfaces.Logger
