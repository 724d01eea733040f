// Package logger provides the zerolog logger shared by the service.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

var configureOnce sync.Once

// configure renders github.com/pkg/errors stacks on .Stack() events.
func configure() {
	configureOnce.Do(func() {
		zerolog.ErrorStackMarshaler = zpkgerrors.MarshalStack
	})
}

// New returns a JSON logger writing to stdout tagged with the service name.
func New(serviceName, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, serviceName, level)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, serviceName, level string) zerolog.Logger {
	configure()

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// ParseLevel maps a textual level to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
