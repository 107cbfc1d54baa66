package logging

import (
	"encoding/hex"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the zerolog logger with the specified debug mode and output format.
func InitLogger(debug, human bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano                 // always initialize base logger with timestamp.
	base := zerolog.New(os.Stdout).With().Timestamp().Logger() // initialize base logger.
	if human {
		log.Logger = base.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339Nano,
		}) // select output format.
	} else {
		log.Logger = base // use JSON logger.
	}
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel) // set debug level.
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel) // set info level.
	}
}

// LogInvocation logs a guest invocation about to run, with structured fields.
func LogInvocation(module, export string, input []byte) {
	log.Debug().
		Str("event", "invocation_start").
		Str("module", module).
		Str("export", export).
		Str("input_hex", hex.EncodeToString(input)).
		Int("input_len", len(input)).
		Msg("invoking guest export")
}

// LogResult logs a decoded guest result with structured fields.
func LogResult(module, export string, result []byte) {
	log.Debug().
		Str("event", "invocation_result").
		Str("module", module).
		Str("export", export).
		Str("result_hex", hex.EncodeToString(result)).
		Int("result_len", len(result)).
		Msg("decoded guest result")
}
