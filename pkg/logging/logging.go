// Package logging configures zerolog for the engine and CLI.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Verbosity 0 logs warnings and errors,
// 1 adds info, 2 adds debug, anything higher enables trace. Negative
// verbosity logs errors only.
func Setup(verbosity int, out io.Writer) {
	switch {
	case verbosity < 0:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbosity == 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case verbosity == 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case verbosity == 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	if out == nil {
		out = os.Stderr
	}
	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
	}
	log.Logger = zerolog.New(console).With().Timestamp().Logger()
}

// GetLogger returns a logger tagged with a component name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
