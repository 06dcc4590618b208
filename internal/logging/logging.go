// ABOUTME: Structured logger construction for the pipeline commands
// ABOUTME: Wraps zerolog with a console writer and CLI-driven level selection
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w at the given level
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// ParseLevel resolves the effective level. The verbose and quiet flags win
// over the configured name.
func ParseLevel(name string, verbose, quiet bool) (zerolog.Level, error) {
	switch {
	case verbose:
		return zerolog.DebugLevel, nil
	case quiet:
		return zerolog.WarnLevel, nil
	}
	if strings.TrimSpace(name) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// Nop returns a logger that discards everything, for tests
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
