// Package logger builds the zerolog instances used across the ledger.
// All output is structured JSON unless pretty console mode is asked
// for; unknown level names fall back to info.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var levels = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

// New returns the process-wide logger writing to stdout. With pretty
// enabled the output goes through zerolog's console writer instead of
// raw JSON.
func New(level string, pretty bool) zerolog.Logger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Caller().
		Logger()
}

// NewWithWriter returns a JSON logger on an arbitrary writer. Tests
// use it to capture output; it omits the caller annotation.
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	if lvl, ok := levels[level]; ok {
		return lvl
	}
	return zerolog.InfoLevel
}
