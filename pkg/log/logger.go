package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	Logger zerolog.Logger
	level  = zerolog.InfoLevel
	mu     sync.Mutex
)

func init() {
	SetOutput(os.Stderr)
}

// consoleWriter wraps out in zerolog's human-readable console format.
func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}
}

// SetOutput sends log output to w. The full-screen UI points it at a file
// so log lines do not tear the terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	Logger = zerolog.New(consoleWriter(w)).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Set global logger
	log.Logger = Logger
}

// SetLevel parses a level name such as "debug" or "warn" and applies it.
func SetLevel(name string) error {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	if parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	mu.Lock()
	defer mu.Unlock()

	level = parsed
	Logger = Logger.Level(level)
	log.Logger = Logger
	return nil
}

// Info logs an info message.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error logs an error message.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn logs a warning message.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug logs a debug message.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal logs a fatal message and exits.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	_ = SetLevel("debug")
}
