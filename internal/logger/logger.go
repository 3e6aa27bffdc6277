// Package logger provides process-wide logging for the wearsync CLI.
//
// Messages are written through log/slog as text records. Debug output and
// section headers only appear in verbose mode. SetFile adds a rotating log
// file next to the console stream.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	maxFileSizeMB = 10
	maxBackups    = 3
	maxAgeDays    = 28
)

var (
	mu        sync.RWMutex
	verbose   bool
	baseLevel           = slog.LevelInfo
	level               = new(slog.LevelVar)
	output    io.Writer = os.Stderr
	file      io.WriteCloser
	log       = build()
)

func build() *slog.Logger {
	w := output
	if file != nil {
		w = io.MultiWriter(output, file)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(baseLevel)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel sets the minimum level from a name (debug, info, warn, error).
// Verbose mode still forces debug.
func SetLevel(name string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return fmt.Errorf("parse log level %q: %w", name, err)
	}
	mu.Lock()
	defer mu.Unlock()
	baseLevel = l
	if !verbose {
		level.Set(l)
	}
	return nil
}

// SetOutput sets the console writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = build()
}

// SetFile additionally writes logs to a size-rotated file at path.
// An empty path closes the current file.
func SetFile(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		if err := file.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		file = nil
	}
	if path != "" {
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
	}
	log = build()
	return nil
}

// Logger returns the underlying structured logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	Logger().Debug(fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func Info(format string, args ...any) {
	Logger().Info(fmt.Sprintf(format, args...))
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	Logger().Warn(fmt.Sprintf(format, args...))
}

// Error logs an error.
func Error(format string, args ...any) {
	Logger().Error(fmt.Sprintf(format, args...))
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
