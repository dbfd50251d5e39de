// Package logging provides a leveled logger backed by logrus.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity.
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
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	case LevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.PanicLevel // quieter than anything we emit
	}
}

// Options selects the log format and destination.
type Options struct {
	Level  Level
	Format string // "text" (default) or "json"
	// Output is "stderr" (default), "stdout" or a file path. Files are
	// rotated by lumberjack.
	Output     string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

// Logger is a leveled logger. Derived loggers from WithField share the
// parent's output and level.
type Logger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	}
}

// New creates a new text logger writing to stderr.
func New(level Level) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(level.logrus())
	l.SetFormatter(textFormatter())
	return &Logger{base: l, entry: logrus.NewEntry(l)}
}

// Configure builds a logger from options.
func Configure(opts Options) (*Logger, error) {
	lg := New(opts.Level)

	switch strings.ToLower(opts.Format) {
	case "", "text":
	case "json":
		lg.base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		return nil, fmt.Errorf("invalid log format '%s'", opts.Format)
	}

	switch opts.Output {
	case "", "stderr":
	case "stdout":
		lg.base.SetOutput(os.Stdout)
	default:
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		lg.base.SetOutput(&lumberjack.Logger{
			Filename:   opts.Output,
			MaxSize:    maxSize,
			MaxAge:     opts.MaxAgeDays,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		})
	}

	return lg, nil
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.base.SetOutput(w)
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.base.SetLevel(level.logrus())
}

// WithField returns a logger that adds key=value to every line.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithField(key, value)}
}

// WithError returns a logger that attaches err to every line.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithError(err)}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Writer returns a pipe that logs each written line at warn level.
// The caller must close it.
func (l *Logger) Writer() *io.PipeWriter {
	return l.entry.WriterLevel(logrus.WarnLevel)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	l := New(LevelError + 1) // Higher than any level
	l.SetOutput(io.Discard)
	return l
}
