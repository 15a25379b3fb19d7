package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Zerolog implements Logger on top of a zerolog.Logger.
type Zerolog struct {
	logger zerolog.Logger
}

// NewZerolog wraps an existing zerolog.Logger.
func NewZerolog(logger zerolog.Logger) *Zerolog {
	return &Zerolog{logger: logger}
}

// NewConsole returns a human-readable logger on stderr at the given level.
func NewConsole(level string) (*Zerolog, error) {
	return NewConsoleWriter(os.Stderr, level)
}

// NewConsoleWriter is like NewConsole with an explicit destination.
func NewConsoleWriter(w io.Writer, level string) (*Zerolog, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return &Zerolog{logger: zerolog.New(out).Level(lvl).With().Timestamp().Logger()}, nil
}

// ParseLevel maps "debug", "info", "warn" and "error" to zerolog levels.
// An empty string means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("logging: unknown level %q", level)
}

func (z *Zerolog) Debug(msg string, fields ...Field) { emit(z.logger.Debug(), msg, fields) }
func (z *Zerolog) Info(msg string, fields ...Field)  { emit(z.logger.Info(), msg, fields) }
func (z *Zerolog) Warn(msg string, fields ...Field)  { emit(z.logger.Warn(), msg, fields) }
func (z *Zerolog) Error(msg string, fields ...Field) { emit(z.logger.Error(), msg, fields) }

// With returns a child logger carrying fields in its context.
func (z *Zerolog) With(fields ...Field) Logger {
	ctx := z.logger.With()
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			ctx = ctx.Str(f.Key, v)
		case int:
			ctx = ctx.Int(f.Key, v)
		case float64:
			ctx = ctx.Float64(f.Key, v)
		default:
			ctx = ctx.Interface(f.Key, v)
		}
	}
	return &Zerolog{logger: ctx.Logger()}
}

// Logger returns the underlying zerolog.Logger.
func (z *Zerolog) Logger() zerolog.Logger { return z.logger }

func emit(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		event = addField(event, f)
	}
	event.Msg(msg)
}

func addField(event *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case float64:
		return event.Float64(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case time.Duration:
		return event.Dur(f.Key, v)
	case error:
		return event.AnErr(f.Key, v)
	default:
		return event.Interface(f.Key, v)
	}
}
