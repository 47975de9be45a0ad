package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New creates the root structured logger. Unknown levels fall back to info.
func New(level string) zerolog.Logger {
	return NewWithOutput(os.Stdout, level)
}

// NewWithOutput creates a logger writing to the given sink. Used by tests and
// by the daemon when logging to a file.
func NewWithOutput(w io.Writer, level string) zerolog.Logger {
	logger := zerolog.New(w).With().
		Timestamp().
		Str("service", "mirrord").
		Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return logger.Level(lvl)
}
