// Package logger builds the zerolog logger shared by the server, the job
// worker and the CLI.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls New.
type Options struct {
	AppName string
	Env     string
	Level   string
	Output  io.Writer
}

// New returns a JSON logger, or a console logger when Env is dev.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Env == "dev" || opts.Env == "" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", opts.AppName).
		Str("env", opts.Env).
		Logger()
}

// ParseLevel maps PORTAL_LOG_LEVEL onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop discards everything. Tests use it.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
