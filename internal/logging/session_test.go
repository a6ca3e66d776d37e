package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tis24dev/savesync/internal/types"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "session"},
		{"   ", "session"},
		{"Backup", "backup"},
		{"My Flow", "my-flow"},
		{"a__b", "a-b"},
		{"----", "session"},
		{"AA..BB", "aa-bb"},
		{"Schedule: backup", "schedule-backup"},
	}

	for _, tt := range tests {
		if got := slug(tt.in, "session"); got != tt.want {
			t.Fatalf("slug(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestStartSessionWritesFile(t *testing.T) {
	dir := t.TempDir()
	session, err := StartSession(dir, "Restore", types.LogLevelDebug, false)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	var console bytes.Buffer
	session.SetOutput(&console)

	if filepath.Dir(session.Path) != dir {
		t.Fatalf("log path %q not under %q", session.Path, dir)
	}
	if !strings.HasPrefix(filepath.Base(session.Path), "restore-") {
		t.Fatalf("unexpected log name %q", filepath.Base(session.Path))
	}

	session.Info("session line")
	session.Close()
	session.Close()

	data, err := os.ReadFile(session.Path)
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	if !strings.Contains(string(data), "session line") {
		t.Fatalf("session log missing line: %q", data)
	}
	if !strings.Contains(console.String(), "session line") {
		t.Fatalf("console missing line: %q", console.String())
	}
}

func TestNilSessionCloseIsSafe(t *testing.T) {
	var s *Session
	s.Close()
}
