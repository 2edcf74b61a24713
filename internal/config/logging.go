package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/alfredjeanlab/eventsvc/internal/ui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds the process logger. Output goes to w (stderr when nil).
// An empty format picks console output on a terminal and JSON otherwise.
func NewLogger(level, format string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	name := strings.ToLower(strings.TrimSpace(level))
	switch name {
	case "warning":
		name = "warn"
	case "critical":
		name = "fatal"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if out == nil {
		out = os.Stderr
	}
	if format == "" {
		format = "json"
		if f, ok := out.(*os.File); ok && ui.IsTerminal(f) {
			format = "console"
		}
	}
	if strings.EqualFold(format, "console") {
		noColor := true
		if f, ok := out.(*os.File); ok {
			noColor = !ui.ShouldUseColor(f)
		}
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: noColor}
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "eventsvc").Logger()
	log.Logger = logger
	return logger
}
