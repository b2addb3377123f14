// Package logging bootstraps the process-wide zerolog logger. Components
// keep using fmt.Errorf("...: %w", err) to build error context the way the
// teacher's code does; this package only governs how the transport layer
// and cmd/server emit structured events around that error context.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger at the given level ("debug", "info", "warn",
// "error"; anything unrecognized falls back to info). pretty selects the
// human-readable console writer for local development; production runs
// emit newline-delimited JSON to stdout.
func New(levelName string, pretty bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
