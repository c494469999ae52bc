// Package logger wraps zerolog.Logger with the constructors and context
// helpers used by qrserve. Diagnostics always go to stderr: stdout carries the
// advertised URL and the QR block.
package logger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Settings is read from the environment once at process start.
type Settings struct {
	// Level is a zerolog level name (trace, debug, info, warn, error, fatal, panic, disabled).
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// Format selects json or console output.
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Logger embeds zerolog.Logger so the full zerolog API is available.
type Logger struct {
	zerolog.Logger
}

// SettingsFromEnv parses LOG_LEVEL and LOG_FORMAT.
func SettingsFromEnv() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("error getting log settings: %w", err)
	}
	return s, nil
}

// New builds a logger writing to w. An unknown level or format is an error.
func New(w io.Writer, s Settings) (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s.Level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	switch strings.ToLower(s.Format) {
	case "", FormatJSON:
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return nil, fmt.Errorf("invalid log format %q", s.Format)
	}

	l := zerolog.New(w).Level(level).With().
		Timestamp().
		Logger()

	return &Logger{l}, nil
}

// FromEnv is New(os.Stderr, SettingsFromEnv()).
func FromEnv() (*Logger, error) {
	s, err := SettingsFromEnv()
	if err != nil {
		return nil, err
	}
	return New(os.Stderr, s)
}

// Nop discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// FromRequest returns the logger attached to the request context, or a
// disabled logger when none was attached.
func FromRequest(r *http.Request) *Logger {
	return FromContext(r.Context())
}

// FromContext returns the logger stored in ctx by zerolog's WithContext.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
