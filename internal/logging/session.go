package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tis24dev/savesync/internal/types"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Session is a logger whose lines for one run are also kept in their own file.
type Session struct {
	*Logger
	Path string
}

// Close closes the session file.
func (s *Session) Close() {
	if s == nil || s.Logger == nil {
		return
	}
	_ = s.CloseLogFile()
}

// StartSession opens "<flow>-<host>-<timestamp>.log" under dir. An empty dir
// falls back to a savesync directory under the system temp dir. Session
// files are never rotated.
func StartSession(dir, flow string, level types.LogLevel, useColor bool) (*Session, error) {
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "savesync")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session log directory: %w", err)
	}

	host, err := os.Hostname()
	if err != nil {
		host = "host"
	}
	logger := New(level, useColor)
	name := fmt.Sprintf("%s-%s-%s.log", slug(flow, "session"), slug(host, "host"), logger.now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := logger.OpenLogFile(path, FileOptions{MaxSizeMB: 100}); err != nil {
		return nil, err
	}
	return &Session{Logger: logger, Path: path}, nil
}

// slug lowercases s and collapses every run of other characters into "-".
func slug(s, fallback string) string {
	out := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if out == "" {
		return fallback
	}
	return out
}
