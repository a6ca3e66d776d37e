package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tis24dev/savesync/internal/types"
)

func newBufferLogger(level types.LogLevel, color bool) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(level, color)
	logger.SetOutput(&buf)
	return logger, &buf
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(types.LogLevelWarning, false)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warning("warning message")
	logger.Error("error message")
	logger.Critical("critical message")

	output := buf.String()
	for _, hidden := range []string{"debug message", "info message"} {
		if strings.Contains(output, hidden) {
			t.Errorf("%q should not appear when level is WARNING", hidden)
		}
	}
	for _, shown := range []string{"warning message", "error message", "critical message"} {
		if !strings.Contains(output, shown) {
			t.Errorf("%q should appear", shown)
		}
	}

	logger.SetLevel(types.LogLevelDebug)
	if logger.GetLevel() != types.LogLevelDebug {
		t.Fatalf("GetLevel = %v", logger.GetLevel())
	}
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatal("debug line missing after SetLevel")
	}
}

func TestLineFormat(t *testing.T) {
	logger, buf := newBufferLogger(types.LogLevelInfo, false)
	logger.now = func() time.Time { return time.Date(2024, 6, 1, 12, 30, 0, 0, time.Local) }

	logger.Info("hello %s", "world")
	if got, want := buf.String(), "[2024-06-01 12:30:00] INFO     hello world\n"; got != want {
		t.Fatalf("line = %q; want %q", got, want)
	}
}

func TestLabeledLines(t *testing.T) {
	tests := []struct {
		name  string
		call  func(*Logger)
		label string
	}{
		{"phase", func(l *Logger) { l.Phase("phase line") }, "PHASE"},
		{"step", func(l *Logger) { l.Step("step line") }, "STEP"},
		{"skip", func(l *Logger) { l.Skip("skip line") }, "SKIP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(types.LogLevelInfo, false)
			tt.call(logger)
			if !strings.Contains(buf.String(), tt.label) {
				t.Fatalf("expected label %s in %q", tt.label, buf.String())
			}
			if strings.Contains(buf.String(), "\033[") {
				t.Fatalf("unexpected color codes with color disabled: %q", buf.String())
			}
		})
	}
}

func TestColorOutput(t *testing.T) {
	logger, buf := newBufferLogger(types.LogLevelInfo, true)

	logger.Error("boom")
	if !strings.Contains(buf.String(), colorError) {
		t.Fatalf("expected red color code, got %q", buf.String())
	}
	buf.Reset()
	logger.Skip("disabled")
	if !strings.Contains(buf.String(), colorSkip) {
		t.Fatalf("expected magenta SKIP, got %q", buf.String())
	}
}

func TestNilReceiverIsNoop(t *testing.T) {
	var logger *Logger
	logger.Debug("x")
	logger.Info("x")
	logger.Step("x")
	logger.Skip("x")
	logger.Warning("x")
	logger.Error("x")
	logger.Timed("op", "")(nil)
}

func TestTimed(t *testing.T) {
	logger, buf := newBufferLogger(types.LogLevelDebug, false)

	logger.Timed("backup PPSSPP", "root=%s", "/games")(nil)
	logger.Timed("restore PPSSPP", "")(errors.New("no archive"))

	out := buf.String()
	for _, want := range []string{
		"Start backup PPSSPP: root=/games",
		"End backup PPSSPP (ok, duration=",
		"Start restore PPSSPP",
		"End restore PPSSPP (error=no archive",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestOpenLogFileMirrorsWithoutColors(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "savesync.log")
	logger, buf := newBufferLogger(types.LogLevelInfo, true)

	if err := logger.OpenLogFile(logPath, DefaultFileOptions()); err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	logger.Info("to file")
	logger.fileOnly(types.LogLevelWarning, "file only")
	if err := logger.CloseLogFile(); err != nil {
		t.Fatalf("CloseLogFile: %v", err)
	}
	if err := logger.CloseLogFile(); err != nil {
		t.Fatalf("second CloseLogFile: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "to file") || !strings.Contains(content, "WARNING  file only") {
		t.Fatalf("log file missing lines: %q", content)
	}
	if strings.Contains(content, "\033[") {
		t.Fatalf("log file must not contain color codes: %q", content)
	}
	if strings.Contains(buf.String(), "file only") {
		t.Fatal("fileOnly must not write to the console")
	}
}

func TestOpenLogFileRejectsEmptyPath(t *testing.T) {
	logger := New(types.LogLevelInfo, false)
	if err := logger.OpenLogFile("", DefaultFileOptions()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestDefaultLogger(t *testing.T) {
	prev := GetDefaultLogger()
	t.Cleanup(func() { SetDefaultLogger(prev) })

	logger, buf := newBufferLogger(types.LogLevelDebug, false)
	SetDefaultLogger(logger)
	GetDefaultLogger().Skip("firing skipped")

	if !strings.Contains(buf.String(), "SKIP") {
		t.Fatalf("default logger not replaced: %q", buf.String())
	}
}
