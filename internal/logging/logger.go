package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tis24dev/savesync/internal/types"
)

const timeFormat = "2006-01-02 15:04:05"

const (
	colorReset  = "\033[0m"
	colorLabel  = "\033[34m"
	colorSkip   = "\033[35m"
	colorFatal  = "\033[1;31m"
	colorError  = "\033[31m"
	colorWarn   = "\033[33m"
	colorInfo   = "\033[32m"
	colorDetail = "\033[36m"
)

// FileOptions controls the rotation of the persistent log file.
type FileOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileOptions returns the rotation settings used when none are configured.
func DefaultFileOptions() FileOptions {
	return FileOptions{MaxSizeMB: 5, MaxBackups: 3, MaxAgeDays: 30}
}

// Logger writes leveled lines to the console and, optionally, to a rotated
// log file without color codes. A nil *Logger discards everything.
type Logger struct {
	mu       sync.Mutex
	level    types.LogLevel
	useColor bool
	output   io.Writer
	file     *lumberjack.Logger
	now      func() time.Time
}

// New creates a logger writing to stdout.
func New(level types.LogLevel, useColor bool) *Logger {
	return &Logger{
		level:    level,
		useColor: useColor,
		output:   os.Stdout,
		now:      time.Now,
	}
}

// SetOutput sets the console writer; nil restores stdout.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	l.output = w
}

// SetLevel sets the logging level.
func (l *Logger) SetLevel(level types.LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() types.LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// OpenLogFile mirrors every line to a size-rotated file.
func (l *Logger) OpenLogFile(logPath string, opts FileOptions) error {
	if logPath == "" {
		return fmt.Errorf("log path is empty")
	}
	// lumberjack opens lazily; fail here on permission problems instead of
	// on the first write.
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	_ = f.Close()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return nil
}

// CloseLogFile closes the log file, if any.
func (l *Logger) CloseLogFile() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) write(level types.LogLevel, label, color, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if level > l.level {
		return
	}

	if label == "" {
		label = level.String()
	}
	if color == "" {
		color = levelColor(level)
	}
	stamp := l.now().Format(timeFormat)
	message := fmt.Sprintf(format, args...)

	if l.useColor {
		fmt.Fprintf(l.output, "[%s] %s%-8s%s %s\n", stamp, color, label, colorReset, message)
	} else {
		fmt.Fprintf(l.output, "[%s] %-8s %s\n", stamp, label, message)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, "[%s] %-8s %s\n", stamp, label, message)
	}
}

// fileOnly writes message to the log file without echoing it on the console.
func (l *Logger) fileOnly(level types.LogLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	fmt.Fprintf(l.file, "[%s] %-8s %s\n", l.now().Format(timeFormat), level.String(), message)
}

func levelColor(level types.LogLevel) string {
	switch level {
	case types.LogLevelDebug:
		return colorDetail
	case types.LogLevelInfo:
		return colorInfo
	case types.LogLevelWarning:
		return colorWarn
	case types.LogLevelError:
		return colorError
	case types.LogLevelCritical:
		return colorFatal
	}
	return ""
}

// Debug writes a debug line.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(types.LogLevelDebug, "", "", format, args...)
}

// Info writes an informational line.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(types.LogLevelInfo, "", "", format, args...)
}

// Phase marks the start of a run.
func (l *Logger) Phase(format string, args ...interface{}) {
	l.write(types.LogLevelInfo, "PHASE", colorLabel, format, args...)
}

// Step marks one target within a run.
func (l *Logger) Step(format string, args ...interface{}) {
	l.write(types.LogLevelInfo, "STEP", colorLabel, format, args...)
}

// Skip reports a disabled or skipped target or firing.
func (l *Logger) Skip(format string, args ...interface{}) {
	l.write(types.LogLevelInfo, "SKIP", colorSkip, format, args...)
}

// Warning writes a warning line.
func (l *Logger) Warning(format string, args ...interface{}) {
	l.write(types.LogLevelWarning, "", "", format, args...)
}

// Error writes an error line.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(types.LogLevelError, "", "", format, args...)
}

// Critical writes a critical line.
func (l *Logger) Critical(format string, args ...interface{}) {
	l.write(types.LogLevelCritical, "", "", format, args...)
}

// Timed logs a debug start line for operation and returns a function that
// logs its outcome and duration.
func (l *Logger) Timed(operation, format string, args ...interface{}) func(error) {
	if l == nil {
		return func(error) {}
	}
	if format != "" {
		l.Debug("Start %s: %s", operation, fmt.Sprintf(format, args...))
	} else {
		l.Debug("Start %s", operation)
	}
	started := l.now()
	return func(err error) {
		elapsed := l.now().Sub(started).Round(time.Millisecond)
		if err != nil {
			l.Debug("End %s (error=%v, duration=%s)", operation, err, elapsed)
			return
		}
		l.Debug("End %s (ok, duration=%s)", operation, elapsed)
	}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(types.LogLevelInfo, true)
)

// SetDefaultLogger replaces the logger used by components built without one.
func SetDefaultLogger(logger *Logger) {
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// GetDefaultLogger returns the process-wide logger.
func GetDefaultLogger() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}
