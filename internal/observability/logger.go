package observability

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var logrusLevels = map[LogLevel]logrus.Level{
	DebugLevel: logrus.DebugLevel,
	InfoLevel:  logrus.InfoLevel,
	WarnLevel:  logrus.WarnLevel,
	ErrorLevel: logrus.ErrorLevel,
}

// Logger provides structured logging on top of logrus
type Logger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level   LogLevel
	Output  io.Writer
	Format  string // "json" or "text"
	Service string
	Version string
}

// NewLogger creates a new logger instance
func NewLogger(config LoggerConfig) *Logger {
	base := logrus.New()

	if config.Output == nil {
		config.Output = os.Stderr
	}
	base.SetOutput(config.Output)
	base.SetLevel(logrusLevels[config.Level])

	if strings.EqualFold(config.Format, "text") {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{})
	}

	fields := logrus.Fields{}
	if config.Service != "" {
		fields["service"] = config.Service
	}
	if config.Version != "" {
		fields["version"] = config.Version
	}
	if host, err := os.Hostname(); err == nil {
		fields["host"] = host
	}

	return &Logger{base: base, entry: base.WithFields(fields)}
}

// WithField returns a new logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithField(key, value)}
}

// WithFields returns a new logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a new logger carrying err
func (l *Logger) WithError(err error) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(msg string) { l.entry.Debug(msg) }
func (l *Logger) Info(msg string)  { l.entry.Info(msg) }
func (l *Logger) Warn(msg string)  { l.entry.Warn(msg) }
func (l *Logger) Error(msg string) { l.entry.Error(msg) }

// DebugWithFields logs a debug message with fields
func (l *Logger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

// InfoWithFields logs an info message with fields
func (l *Logger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

// WarnWithFields logs a warning message with fields
func (l *Logger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

// ErrorWithFields logs an error message with fields
func (l *Logger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Error(msg)
}

// LogLevelFromString converts a string to LogLevel
func LogLevelFromString(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Global logger instance
var defaultLogger = NewLogger(LoggerConfig{
	Level:   InfoLevel,
	Service: "labelme",
})

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	if logger == nil {
		panic("observability: nil default logger")
	}
	defaultLogger = logger
}

// GetDefaultLogger returns the global default logger
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *Logger {
	return NewLogger(LoggerConfig{Level: ErrorLevel, Output: io.Discard})
}
