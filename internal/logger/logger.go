package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

type Logger struct {
	level  Level
	logger *log.Logger
}

var global *Logger

// ParseLevel maps a level name to a Level. "warning" is accepted for "warn".
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", levelStr)
	}
}

// New creates a logger writing to stderr.
func New(levelStr string) (*Logger, error) {
	return NewWithWriter(levelStr, os.Stderr)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(levelStr string, w io.Writer) (*Logger, error) {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}

	return &Logger{
		level:  level,
		logger: log.New(w, "", log.LstdFlags),
	}, nil
}

func SetGlobal(l *Logger) {
	global = l
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.level <= level
}

func (l *Logger) logf(level Level, format string, v ...any) {
	if l.Enabled(level) {
		l.logger.Printf("["+level.String()+"] "+format, v...)
	}
}

func (l *Logger) Debug(format string, v ...any) { l.logf(LevelDebug, format, v...) }
func (l *Logger) Info(format string, v ...any)  { l.logf(LevelInfo, format, v...) }
func (l *Logger) Warn(format string, v ...any)  { l.logf(LevelWarn, format, v...) }
func (l *Logger) Error(format string, v ...any) { l.logf(LevelError, format, v...) }

// DebugEnabled reports whether the global logger writes debug output.
// Used to skip building expensive trace messages.
func DebugEnabled() bool {
	return global != nil && global.Enabled(LevelDebug)
}

// Global logging functions
func Debug(format string, v ...any) {
	if global != nil {
		global.Debug(format, v...)
	}
}

func Info(format string, v ...any) {
	if global != nil {
		global.Info(format, v...)
	}
}

func Warn(format string, v ...any) {
	if global != nil {
		global.Warn(format, v...)
	}
}

func Error(format string, v ...any) {
	if global != nil {
		global.Error(format, v...)
	}
}
