// Package logging wraps log/slog with a dynamic level, component scoping
// and an in-memory tail of recent entries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Level represents log severity levels.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Logger wraps slog with a dynamic level and component scoping.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// Config holds logger configuration.
type Config struct {
	Level     Level
	Output    io.Writer
	JSON      bool
	AddSource bool
	// Name tags console lines; defaults to swarmctl.
	Name string
	// Ring receives a copy of every record. Nil means AppLogs().
	Ring *RingBuffer
}

// DefaultConfig returns info-level console output on stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// New creates a Logger.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.Ring == nil {
		cfg.Ring = AppLogs()
	}

	level := &slog.LevelVar{}
	level.Set(cfg.Level)
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = newConsoleHandler(cfg.Output, opts, cfg.Name)
	}

	return &Logger{
		Logger: slog.New(newTap(handler, cfg.Ring)),
		level:  level,
	}
}

// Default returns the process logger.
func Default() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(DefaultConfig())
	}
	return defaultLogger
}

// SetDefault replaces the process logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// SetLevel changes the log level dynamically.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	return l.level.Level()
}

// WithComponent returns a logger tagged with a component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With(componentKey, name), level: l.level}
}

// ParseLevel converts a level name (debug, info, warn, error) to a Level.
// Unknown names fall back to info.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// WithComponent returns a component-scoped child of the default logger.
func WithComponent(name string) *Logger {
	return Default().WithComponent(name)
}
