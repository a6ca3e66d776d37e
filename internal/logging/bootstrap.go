package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tis24dev/savesync/internal/types"
)

type bootstrapEntry struct {
	level   types.LogLevel
	message string
}

// BootstrapLogger buffers messages produced before the configuration is
// loaded and the real logger exists, then replays them into it.
type BootstrapLogger struct {
	mu      sync.Mutex
	entries []bootstrapEntry
	flushed bool
	stderr  io.Writer
}

// NewBootstrapLogger creates an empty bootstrap logger.
func NewBootstrapLogger() *BootstrapLogger {
	return &BootstrapLogger{stderr: os.Stderr}
}

// Debug records a message without printing it.
func (b *BootstrapLogger) Debug(format string, args ...interface{}) {
	b.record(types.LogLevelDebug, fmt.Sprintf(format, args...))
}

// Info records an early informational message.
func (b *BootstrapLogger) Info(format string, args ...interface{}) {
	b.record(types.LogLevelInfo, fmt.Sprintf(format, args...))
}

// Warning records a message and prints it immediately on stderr.
func (b *BootstrapLogger) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(b.stderr, msg)
	b.record(types.LogLevelWarning, msg)
}

func (b *BootstrapLogger) record(level types.LogLevel, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed {
		return
	}
	b.entries = append(b.entries, bootstrapEntry{level: level, message: message})
}

// Flush replays the buffered entries into logger (only the first time).
func (b *BootstrapLogger) Flush(logger *Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed || logger == nil {
		return
	}
	for _, entry := range b.entries {
		switch entry.level {
		case types.LogLevelDebug:
			logger.Debug("%s", entry.message)
		case types.LogLevelWarning:
			// Already shown on stderr.
			logger.fileOnly(entry.level, entry.message)
		default:
			logger.Info("%s", entry.message)
		}
	}
	b.flushed = true
	b.entries = nil
}
