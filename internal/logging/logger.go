package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger instance. It discards output until Init.
	Logger = log.New(io.Discard)

	// logFile is the file handle for the log file
	logFile *os.File
)

// DefaultDir returns ~/.datasources/logs.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".datasources", "logs"), nil
}

// Init points the global logger at a dated file in dir (DefaultDir when
// empty). level is a charmbracelet/log level name; empty means debug.
// The terminal belongs to the TUI, so logs never go to stdout.
func Init(dir, level string) error {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, fmt.Sprintf("datasources-%s.log", time.Now().Format(time.DateOnly)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f

	Logger = log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
	})

	Logger.Info("datasources started", "version", "0.1.0")
	return nil
}

func parseLevel(level string) (log.Level, error) {
	if level == "" {
		return log.DebugLevel, nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// SetOutput redirects the global logger, e.g. to a buffer in tests.
func SetOutput(w io.Writer, level log.Level) {
	Logger = log.NewWithOptions(w, log.Options{Level: level})
}

// Close logs the shutdown line and closes the log file.
func Close() {
	Logger.Info("datasources shutting down")
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func Info(msg string, keyvals ...any)  { Logger.Info(msg, keyvals...) }
func Debug(msg string, keyvals ...any) { Logger.Debug(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { Logger.Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { Logger.Error(msg, keyvals...) }

// WithPrefix returns a child of the current logger. Components call it at
// construction, after Init.
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}
