// Package logger configures the global zerolog logger from command line options.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bsaid97/go-polygon-cleaner/cleaning"
)

// Logger holds the logging options shared by every command.
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal" choice:"panic" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log format" choice:"console" choice:"json" default:"console"`
}

// Setup applies the options to the global logger.
func (l Logger) Setup() {
	l.SetupWriter(os.Stderr)
}

// SetupWriter applies the options to the global logger, writing to w.
func (l Logger) SetupWriter(w io.Writer) {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := w
	if l.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Entries mirrors pipeline log entries to zerolog.
func Entries(logger zerolog.Logger, entries []cleaning.LogEntry) {
	for _, entry := range entries {
		var event *zerolog.Event
		switch entry.Severity {
		case cleaning.SeverityWarning:
			event = logger.Warn()
		case cleaning.SeverityError:
			event = logger.Error()
		default:
			event = logger.Info()
		}
		event.
			Str("stage", entry.Stage).
			Str("severity", string(entry.Severity)).
			Msg(entry.Message)
	}
}
