// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	// Ignored when File is set.
	Output io.Writer

	// File routes output to a size-rotated log file.
	// The terminal browser sets this so logs don't corrupt the screen.
	File string

	// MaxSizeMB is the rotation threshold for File (default 10).
	MaxSizeMB int
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:     LevelInfo,
		Pretty:    false,
		Output:    os.Stderr,
		MaxSizeMB: 10,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		output = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: 3,
			Compress:   true,
		}
	}
	if cfg.Pretty && cfg.File == "" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts LogLevel to zerolog.Level.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Query cache operations (hit/miss/join, key, age)
//   - Gateway request flow (conditional requests, ETags)
//   - Viewport subscriptions attached and torn down
//
// Info: Normal operation events
//   - Server startup/shutdown
//   - Watchlist mutations
//   - Warm runs
//
// Warn: Warning conditions that don't prevent operation
//   - Provider rate limiting (429)
//   - Retry attempts
//   - Response cache errors (fallback to direct request)
//   - Watchlist persistence failures
//
// Error: Error conditions requiring attention
//   - Failed requests after retries
//   - Configuration errors
//
// Context Fields:
//   - endpoint: provider endpoint path
//   - status_code: HTTP status code
//   - duration: Request duration
//   - error_kind: network, provider, not_found
//   - key: query cache key
//   - page: page number
