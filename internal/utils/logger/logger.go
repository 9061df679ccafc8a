// Package logger provides a global logger for the application
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// LevelFor resolves the log level for an environment. A non-empty override
// (debug, trace, info, warn, error) wins over the environment default.
func LevelFor(environment, override string) zerolog.Level {
	var level zerolog.Level
	switch strings.ToLower(environment) {
	case "dev", "test":
		level = zerolog.TraceLevel
	default:
		level = zerolog.InfoLevel
	}

	if override != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(override)); err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
	}
	return level
}

// Init sets up the global zerolog logger with console output on stderr.
//
//	logger.Init(cfg.Detector.Environment, cfg.Detector.LogLevel) <- inside main()
func Init(environment, override string) {
	InitWithWriter(os.Stderr, environment, override)
}

func InitWithWriter(w io.Writer, environment, override string) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w}).With().Caller().Logger()

	environment = strings.ToLower(environment)
	if environment == "" {
		environment = "prod"
	}

	switch environment {
	case "dev", "test":
		log.Info().Str("environment", environment).Msg("Development/Test environment detected - enabling all log levels")
	case "prod":
		log.Info().Str("environment", environment).Msg("Production environment detected - enabling info level and above")
	default:
		log.Warn().Str("environment", environment).Msg("Unknown environment - defaulting to production log level (info and above)")
	}

	level := LevelFor(environment, override)
	if override != "" {
		log.Info().Str("level", level.String()).Msg("Log level override detected - overriding environment log level")
	}

	zerolog.SetGlobalLevel(level)
}
