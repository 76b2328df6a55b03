package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the service logger. Development gets debug level and
// a human-readable console writer; everything else logs JSON at info,
// overridable via LOG_LEVEL. Every line carries the service name so
// the api and worker binaries can share one log stream.
func NewLogger(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "brandstudio").
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}

// Logger aliases zerolog.Logger so the rest of the tree depends on this
// package for its logging contract rather than on the library directly.
type Logger = zerolog.Logger
