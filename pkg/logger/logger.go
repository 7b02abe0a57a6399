package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger writing to stderr.
func Init(level, format string) {
	InitWriter(os.Stderr, level, format)
}

// InitWriter configures the global logger writing to w. Unknown levels fall
// back to info; format "console" switches to human-readable output.
func InitWriter(w io.Writer, level, format string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "medpres").Logger()
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Get returns the global logger
func Get() zerolog.Logger {
	return log.Logger
}
