// Package logging configures the global zerolog logger of a binary.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup writes human-readable logs to stderr tagged with service.
func Setup(service string, level zerolog.Level) {
	SetupWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, service, level)
}

func SetupWriter(w io.Writer, service string, level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", service).Logger()
}
