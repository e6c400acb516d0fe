package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"pair-analysis/src/models"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// -----------------------------------------------------------------------------

// Logger is a named component logger backed by logrus.
type Logger struct {
	name  string
	entry *logrus.Entry
	file  *lumberjack.Logger
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. cfg may be nil.
func NewLogger(cfg *models.MConfig, name string) *Logger {
	base := logrus.New()
	var file *lumberjack.Logger
	if cfg != nil && cfg.LogFile.Path != "" {
		file = rotatingFile(cfg.LogFile)
		base.SetOutput(io.MultiWriter(os.Stdout, file))
	} else {
		base.SetOutput(os.Stdout)
	}
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level := logrus.InfoLevel
	if cfg != nil && cfg.LogLevel != "" {
		if parsed, err := ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}
	base.SetLevel(level)

	return &Logger{
		name:  name,
		entry: base.WithField("component", name),
		file:  file,
	}
}

func rotatingFile(cfg models.MLogFileConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB, // MB, lumberjack defaults to 100
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// -----------------------------------------------------------------------------

// ParseLevel accepts the usual logrus names plus WARNING and CRITICAL.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "WARNING":
		return logrus.WarnLevel, nil
	case "CRITICAL":
		return logrus.FatalLevel, nil
	}
	return logrus.ParseLevel(level)
}

// -----------------------------------------------------------------------------

// Named returns a logger sharing this one's output and level under another name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		name:  name,
		entry: l.entry.Logger.WithField("component", name),
		file:  l.file,
	}
}

// SetOutput redirects log output.
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

// Close releases the log file, if any. Loggers from Named share it.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Name returns the component name.
func (l *Logger) Name() string {
	return l.name
}

// -----------------------------------------------------------------------------

func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.entry.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Error(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.entry.Fatal(fmt.Sprintf(format, args...))
}
