package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. In debug mode output is human readable and the
// level is forced to debug; otherwise JSON lines are written at the given level.
func New(level string, debug bool, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if debug {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		lvl = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
