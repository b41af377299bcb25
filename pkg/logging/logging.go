// Package logging provides a rest.Logger backed by zerolog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/baguette-io/baguette-utils/pkg/rest"
)

// ZeroLogger wraps zerolog.Logger to implement rest.Logger.
type ZeroLogger struct {
	zlog zerolog.Logger
}

var _ rest.Logger = (*ZeroLogger)(nil)

// New creates a logger writing to stderr at the given level. Unknown levels
// fall back to info. When pretty is true, output is formatted for humans.
func New(level string, pretty bool) *ZeroLogger {
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return NewWithWriter(out, level)
}

// NewWithWriter creates a JSON logger writing to w.
func NewWithWriter(w io.Writer, level string) *ZeroLogger {
	zLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		zLevel = zerolog.InfoLevel
	}

	l := zerolog.New(w).Level(zLevel).With().Timestamp().Logger()

	return &ZeroLogger{zlog: l}
}

// FromZerolog wraps an existing zerolog logger.
func FromZerolog(l zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{zlog: l}
}

// WithFields returns a logger adding fields to every entry.
func (l *ZeroLogger) WithFields(fields map[string]interface{}) *ZeroLogger {
	return &ZeroLogger{zlog: l.zlog.With().Fields(fields).Logger()}
}

func (l *ZeroLogger) Debug(msg string, fields map[string]interface{}) {
	l.zlog.Debug().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Info(msg string, fields map[string]interface{}) {
	l.zlog.Info().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Warn(msg string, fields map[string]interface{}) {
	l.zlog.Warn().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Error(msg string, fields map[string]interface{}) {
	l.zlog.Error().Fields(fields).Msg(msg)
}
