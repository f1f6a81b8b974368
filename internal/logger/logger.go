// Package logger provides JSON structured logging using zerolog
package logger

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the logger configuration
type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug"`
	Output     string `json:"output" yaml:"output"` // "stderr" (default) or "stdout"
	TimeFormat string `json:"time_format" yaml:"time_format"`
}

// Logger is the logging surface used across the seed generator
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) Logger
	WithField(key string, value interface{}) Logger
	SetLevel(level zerolog.Level)
}

type zeroLogger struct {
	logger zerolog.Logger
}

// DefaultConfig returns a configuration populated from the environment.
// Logs go to stderr so that stdout stays reserved for the seed list.
func DefaultConfig() Config {
	return Config{
		Level:      getEnvOrDefault("LOG_LEVEL", "info"),
		Debug:      getEnvBoolOrDefault("DEBUG", false),
		Output:     getEnvOrDefault("LOG_OUTPUT", "stderr"),
		TimeFormat: getEnvOrDefault("LOG_TIME_FORMAT", ""),
	}
}

// New creates a logger from the given configuration
func New(config Config) (Logger, error) {
	var output io.Writer = os.Stderr

	if config.Output == "stdout" {
		output = os.Stdout
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return nil, err
		}
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	return NewWithWriter(output, level), nil
}

// NewWithWriter creates a logger writing JSON lines to w
func NewWithWriter(w io.Writer, level zerolog.Level) Logger {
	return &zeroLogger{
		logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// NewTestLogger returns a logger that discards everything
func NewTestLogger() Logger {
	return &zeroLogger{logger: zerolog.Nop()}
}

func (l *zeroLogger) Debug() *zerolog.Event { return l.logger.Debug() }

func (l *zeroLogger) Info() *zerolog.Event { return l.logger.Info() }

func (l *zeroLogger) Warn() *zerolog.Event { return l.logger.Warn() }

func (l *zeroLogger) Error() *zerolog.Event { return l.logger.Error() }

func (l *zeroLogger) Fatal() *zerolog.Event { return l.logger.Fatal() }

func (l *zeroLogger) With() zerolog.Context { return l.logger.With() }

func (l *zeroLogger) WithComponent(component string) Logger {
	return &zeroLogger{logger: l.logger.With().Str("component", component).Logger()}
}

func (l *zeroLogger) WithField(key string, value interface{}) Logger {
	return &zeroLogger{logger: l.logger.With().Interface(key, value).Logger()}
}

func (l *zeroLogger) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}
