// Package logging provides leveled logging for rayhunter-go's long-lived
// tasks (capture, analysis, notification, key-input) and HTTP handlers.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog with the level-tagged surface the rest of the
// pipeline calls into.
type Logger struct {
	zl zerolog.Logger
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// LogLevel mirrors zerolog's levels without leaking the dependency into
// callers that only import this package.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config holds logging configuration.
type Config struct {
	Level LogLevel
	// Output is the primary human-readable sink (stderr by default).
	Output io.Writer
	// RotatingFilePath, if set, also writes JSON lines to a
	// size/age-rotated file via lumberjack — used for the on-device
	// capture log so a long-running hotspot doesn't fill its disk.
	RotatingFilePath string
	RotateMaxSizeMB  int
	RotateMaxBackups int
	RotateMaxAgeDays int
	// NoColor disables ANSI colour codes in the console output.
	NoColor bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// NewLogger creates a new logger from config.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	console := zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05.000", NoColor: config.NoColor}

	var writer io.Writer = console
	if config.RotatingFilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   config.RotatingFilePath,
			MaxSize:    nonZero(config.RotateMaxSizeMB, 50),
			MaxBackups: nonZero(config.RotateMaxBackups, 5),
			MaxAge:     nonZero(config.RotateMaxAgeDays, 28),
		}
		writer = zerolog.MultiLevelWriter(console, rotator)
	}

	zl := zerolog.New(writer).With().Timestamp().Logger().Level(config.Level.zerolog())
	return &Logger{zl: zl}
}

func nonZero(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

// Default returns the process-wide default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault installs logger as the process-wide default.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// With returns a child logger carrying the given key/value fields on every
// subsequent line — used to tag a recording name or queue id onto a logger.
func (l *Logger) With(kv ...any) *Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		if err, ok := kv[i+1].(error); ok {
			ctx = ctx.AnErr(key, err)
			continue
		}
		ctx = ctx.Interface(key, kv[i+1])
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) event(lvl zerolog.Level, msg string, args ...any) {
	e := l.zl.WithLevel(lvl)
	for i := 0; i+1 < len(args); i += 2 {
		key, _ := args[i].(string)
		if err, ok := args[i+1].(error); ok {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	e.Msg(msg)
}

func (l *Logger) Debug(msg string, args ...any) { l.event(zerolog.DebugLevel, msg, args...) }
func (l *Logger) Info(msg string, args ...any)   { l.event(zerolog.InfoLevel, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)   { l.event(zerolog.WarnLevel, msg, args...) }
func (l *Logger) Error(msg string, args ...any)  { l.event(zerolog.ErrorLevel, msg, args...) }

// Printf-style logging, kept for call sites (and interface implementations)
// that only format a string.
func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }

// Printf satisfies the minimal Logger interface handlers accept.
func (l *Logger) Printf(format string, args ...any) { l.Infof(format, args...) }

// Global convenience functions operating on the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
