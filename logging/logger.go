// Package logging wraps zerolog behind a small interface, mirroring the
// teacher repo's observability/logger provider-behind-an-interface shape
// (fsvxavier-nexs-lib/observability/logger) trimmed to a single backend:
// this core only ever needs one concrete logging sink, so the
// multi-provider (zap/logrus/slog) machinery was not ported — see
// DESIGN.md for the justification.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Field is a structured key/value pair attached to a log line, mirroring
// the teacher's logger.Field helper type.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field   { return Field{Key: key, Value: value} }
func Int(key string, value int) Field  { return Field{Key: key, Value: value} }
func Any(key string, value any) Field  { return Field{Key: key, Value: value} }
func ErrorField(err error) Field       { return Field{Key: "error", Value: err} }
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d}
}

// Logger is the interface every component in this module depends on,
// never the concrete zerolog type, so logging stays swappable.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type zerologLogger struct {
	l zerolog.Logger
}

// New builds a Logger writing JSON lines to w at the given minimum level.
func New(w io.Writer, level zerolog.Level) Logger {
	if w == nil {
		w = os.Stdout
	}
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &zerologLogger{l: zl}
}

// Default returns a Logger writing to stdout at info level, the
// equivalent of the teacher's DefaultConfig().
func Default() Logger {
	return New(os.Stdout, zerolog.InfoLevel)
}

// Nop returns a Logger that discards everything, useful in tests that
// don't want to assert on log output.
func Nop() Logger {
	return &zerologLogger{l: zerolog.Nop()}
}

func apply(e *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Key, v)
		case error:
			e = e.AnErr(f.Key, v)
		case int:
			e = e.Int(f.Key, v)
		case int64:
			e = e.Int64(f.Key, v)
		case time.Duration:
			e = e.Dur(f.Key, v)
		case bool:
			e = e.Bool(f.Key, v)
		default:
			e = e.Interface(f.Key, v)
		}
	}
	return e
}

func (z *zerologLogger) Debug(msg string, fields ...Field) {
	apply(z.l.Debug(), fields).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...Field) {
	apply(z.l.Info(), fields).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...Field) {
	apply(z.l.Warn(), fields).Msg(msg)
}

func (z *zerologLogger) Error(msg string, fields ...Field) {
	apply(z.l.Error(), fields).Msg(msg)
}

func (z *zerologLogger) With(fields ...Field) Logger {
	ctx := z.l.With()
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			ctx = ctx.Str(f.Key, v)
		case int:
			ctx = ctx.Int(f.Key, v)
		default:
			ctx = ctx.Interface(f.Key, v)
		}
	}
	return &zerologLogger{l: ctx.Logger()}
}
