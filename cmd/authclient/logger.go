package main

import (
	"io"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/rs/zerolog"
)

type zerologLogger struct {
	log zerolog.Logger
}

var _ authclient.Logger = zerologLogger{}

func newLogger(w io.Writer, debug bool) zerologLogger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerologLogger{
		log: zerolog.New(zerolog.ConsoleWriter{Out: w}).
			Level(level).
			With().
			Timestamp().
			Str("service", "authclient").
			Logger(),
	}
}

func (z zerologLogger) Debug(msg string, args ...any) {
	z.log.Debug().Fields(args).Msg(msg)
}

func (z zerologLogger) Info(msg string, args ...any) {
	z.log.Info().Fields(args).Msg(msg)
}

func (z zerologLogger) Warn(msg string, args ...any) {
	z.log.Warn().Fields(args).Msg(msg)
}

func (z zerologLogger) Error(msg string, args ...any) {
	z.log.Error().Fields(args).Msg(msg)
}
