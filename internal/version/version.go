// Package version reports the build version of savesync.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Populated at build time via -ldflags, e.g.
//
//	-X github.com/tis24dev/savesync/internal/version.Version=v0.3.0
var (
	// Version holds the semantic version of the binary.
	Version = ""

	// Commit holds the VCS commit hash used to build the binary (optional).
	Commit = ""

	// Date holds the build timestamp (optional).
	Date = ""
)

const devVersion = "0.0.0-dev"

var readBuildInfo = debug.ReadBuildInfo

// String returns the effective version: the injected Version, else the main
// module version from the build info, else a development placeholder. A
// leading "v" is stripped.
func String() string {
	v := strings.TrimSpace(Version)

	if v == "" {
		if info, ok := readBuildInfo(); ok && info != nil {
			if mv := strings.TrimSpace(info.Main.Version); mv != "" && mv != "(devel)" {
				v = mv
			}
		}
	}

	if v == "" {
		v = devVersion
	}
	return strings.TrimPrefix(v, "v")
}

// Revision returns the commit, falling back to the vcs.revision build setting.
func Revision() string {
	if c := strings.TrimSpace(Commit); c != "" {
		return c
	}
	if info, ok := readBuildInfo(); ok && info != nil {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}

// Full is the one-line description printed by the version command.
func Full() string {
	s := "savesync " + String()
	if rev := Revision(); rev != "" {
		if len(rev) > 12 {
			rev = rev[:12]
		}
		s += " (" + rev
		if Date != "" {
			s += ", " + Date
		}
		s += ")"
	}
	return fmt.Sprintf("%s %s/%s %s", s, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
