package types

import "testing"

func TestTargetKindHelpers(t *testing.T) {
	tests := []struct {
		in      string
		want    TargetKind
		ok      bool
		builtin bool
	}{
		{"ppsspp", TargetPPSSPP, true, true},
		{"pcsx2", TargetPCSX2, true, true},
		{"citra", TargetCitra, true, true},
		{"custom", TargetCustom, true, false},
		{"dolphin", "", false, false},
	}

	for _, tt := range tests {
		got, ok := ParseTargetKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseTargetKind(%q) = (%q, %v); want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
		if ok && got.IsBuiltin() != tt.builtin {
			t.Fatalf("%q.IsBuiltin() = %v; want %v", got, got.IsBuiltin(), tt.builtin)
		}
	}
}

func TestBuiltinKindsOrder(t *testing.T) {
	want := []TargetKind{TargetPPSSPP, TargetPCSX2, TargetCitra}
	if len(BuiltinKinds) != len(want) {
		t.Fatalf("BuiltinKinds has %d entries; want %d", len(BuiltinKinds), len(want))
	}
	for i := range want {
		if BuiltinKinds[i] != want[i] {
			t.Fatalf("BuiltinKinds[%d] = %q; want %q", i, BuiltinKinds[i], want[i])
		}
	}
}

func TestLogLevelString(t *testing.T) {
	tests := map[LogLevel]string{
		LogLevelDebug:    "DEBUG",
		LogLevelInfo:     "INFO",
		LogLevelWarning:  "WARNING",
		LogLevelError:    "ERROR",
		LogLevelCritical: "CRITICAL",
		LogLevelNone:     "NONE",
		LogLevel(42):     "UNKNOWN",
	}
	for level, want := range tests {
		if got := level.String(); got != want {
			t.Errorf("LogLevel(%d).String() = %q; want %q", level, got, want)
		}
	}
}

func TestExitCodeString(t *testing.T) {
	tests := map[ExitCode]string{
		ExitSuccess:      "success",
		ExitBackupError:  "backup error",
		ExitRestoreError: "restore error",
		ExitBusyError:    "busy",
		ExitInterrupted:  "interrupted",
		ExitCode(99):     "unknown error",
	}
	for code, want := range tests {
		if got := code.String(); got != want {
			t.Errorf("ExitCode(%d).String() = %q; want %q", code, got, want)
		}
		if code.Int() != int(code) {
			t.Errorf("ExitCode(%d).Int() mismatch", code)
		}
	}
}
