package targets

import (
	"os"
	"path/filepath"

	"github.com/tis24dev/savesync/internal/types"
	"github.com/tis24dev/savesync/pkg/utils"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.Getenv

var userHomeDir = os.UserHomeDir

// defaultRootCandidates lists the usual install locations of each emulator.
func defaultRootCandidates(kind types.TargetKind) []string {
	appData := lookupEnv("APPDATA")
	profile := lookupEnv("USERPROFILE")
	home, _ := userHomeDir()
	if profile == "" {
		profile = home
	}

	var out []string
	add := func(base string, elem ...string) {
		if base == "" {
			return
		}
		out = append(out, filepath.Join(append([]string{base}, elem...)...))
	}

	switch kind {
	case types.TargetPPSSPP:
		add(appData, "PPSSPP")
		add(home, ".config", "ppsspp")
	case types.TargetPCSX2:
		add(profile, "Documents", "PCSX2")
		add(home, ".config", "PCSX2")
	case types.TargetCitra:
		add(appData, "Citra")
		add(home, ".local", "share", "citra-emu")
	}
	return out
}

// DetectDefaultRoot returns the first existing default location of kind, or "".
func DetectDefaultRoot(kind types.TargetKind) string {
	for _, candidate := range defaultRootCandidates(kind) {
		if utils.DirExists(candidate) {
			return candidate
		}
	}
	return ""
}

// DetectSyncFolder returns the default Google Drive folder when present.
func DetectSyncFolder() string {
	profile := lookupEnv("USERPROFILE")
	if profile == "" {
		profile, _ = userHomeDir()
	}
	if profile == "" {
		return ""
	}
	candidate := filepath.Join(profile, "Google Drive")
	if utils.DirExists(candidate) {
		return candidate
	}
	return ""
}
