package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withPatchedGlobals(t *testing.T, versionValue, commit string, reader func() (*debug.BuildInfo, bool)) {
	t.Helper()
	originalVersion, originalCommit, originalDate := Version, Commit, Date
	originalReader := readBuildInfo

	Version = versionValue
	Commit = commit
	Date = ""
	if reader != nil {
		readBuildInfo = reader
	}

	t.Cleanup(func() {
		Version, Commit, Date = originalVersion, originalCommit, originalDate
		readBuildInfo = originalReader
	})
}

func TestStringPrefersInjectedVersion(t *testing.T) {
	withPatchedGlobals(t, " v1.2.3 ", "", func() (*debug.BuildInfo, bool) {
		t.Fatalf("unexpected call to readBuildInfo when version is set")
		return nil, false
	})

	if got := String(); got != "1.2.3" {
		t.Fatalf("String() = %q, want %q", got, "1.2.3")
	}
}

func TestStringUsesBuildInfoWhenVersionEmpty(t *testing.T) {
	info := &debug.BuildInfo{Main: debug.Module{Version: "v2.3.4"}}
	withPatchedGlobals(t, "", "", func() (*debug.BuildInfo, bool) {
		return info, true
	})

	if got := String(); got != "2.3.4" {
		t.Fatalf("String() = %q, want %q", got, "2.3.4")
	}
}

func TestStringFallsBackToPlaceholder(t *testing.T) {
	testCases := []struct {
		name   string
		reader func() (*debug.BuildInfo, bool)
	}{
		{"no build info", func() (*debug.BuildInfo, bool) { return nil, false }},
		{"devel module", func() (*debug.BuildInfo, bool) {
			return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			withPatchedGlobals(t, "", "", tc.reader)
			if got := String(); got != devVersion {
				t.Fatalf("String() = %q, want %q", got, devVersion)
			}
		})
	}
}

func TestRevisionFromBuildSettings(t *testing.T) {
	withPatchedGlobals(t, "1.0.0", "", func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}}}, true
	})

	if got := Revision(); got != "0123456789abcdef" {
		t.Fatalf("Revision() = %q", got)
	}
	full := Full()
	if !strings.HasPrefix(full, "savesync 1.0.0 (0123456789ab)") {
		t.Fatalf("Full() = %q", full)
	}
}

func TestRevisionPrefersCommit(t *testing.T) {
	withPatchedGlobals(t, "1.0.0", "abc123", nil)
	Date = "2024-06-01"
	if got := Full(); !strings.HasPrefix(got, "savesync 1.0.0 (abc123, 2024-06-01)") {
		t.Fatalf("Full() = %q", got)
	}
}
