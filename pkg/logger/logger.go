// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config controls the behaviour of the logger returned by New.
type Config struct {
	Level  string // debug, info, warn, error; defaults to info
	Pretty bool   // human-readable console writer instead of JSON
}

// New builds a component-root logger and sets the process-wide log level.
// Callers derive scoped loggers from it with .With().Str("component", ...).Logger().
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05Z07:00"

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output = os.Stdout
	logger := zerolog.New(output).With().Timestamp().Logger()

	if level == zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}

	if cfg.Pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"})
	}

	return logger
}

// SetGlobalLogger installs l as zerolog's package-level logger, used by
// third-party code that logs via the global log.Logger instead of an
// injected instance.
func SetGlobalLogger(l zerolog.Logger) {
	zlog.Logger = l
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
