// Package targets describes backup targets and resolves their save-data
// folders on disk.
package targets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tis24dev/savesync/internal/types"
	"github.com/tis24dev/savesync/pkg/utils"
)

// ErrInvalidTarget is returned by Check for custom targets lacking a name or root.
var ErrInvalidTarget = errors.New("target has no name or root path")

// Layout is the accepted on-disk structure of a built-in kind.
type Layout struct {
	// Name is the fixed display name of the target.
	Name string
	// Prefix is the archive filename prefix.
	Prefix string
	// Label names the save folder in user-facing messages.
	Label string
	// SaveDirs are the accepted save folders relative to the root, by precedence.
	SaveDirs []string
}

var layouts = map[types.TargetKind]Layout{
	types.TargetPPSSPP: {
		Name:   "PPSSPP",
		Prefix: "PPSSPP_SAVES",
		Label:  "SAVEDATA",
		SaveDirs: []string{
			filepath.Join("memstick", "PSP", "SAVEDATA"),
			filepath.Join("PSP", "SAVEDATA"),
		},
	},
	types.TargetPCSX2: {
		Name:     "PCSX2",
		Prefix:   "PCSX2_MEMCARDS",
		Label:    "memcards",
		SaveDirs: []string{"memcards"},
	},
	types.TargetCitra: {
		Name:     "CITRA",
		Prefix:   "CITRA_SDMC",
		Label:    "sdmc",
		SaveDirs: []string{"sdmc"},
	},
}

// Target is a unit of backup/restore.
type Target struct {
	Kind     types.TargetKind
	Name     string
	RootPath string
	Enabled  bool
	// BaseFolder is the base name of RootPath at registration time (custom only).
	BaseFolder string
}

// Builtin returns the target of an emulator kind.
func Builtin(kind types.TargetKind, root string, enabled bool) Target {
	return Target{
		Kind:     kind,
		Name:     layouts[kind].Name,
		RootPath: root,
		Enabled:  enabled,
	}
}

// Custom returns a user-defined target.
func Custom(name, root, baseFolder string, enabled bool) Target {
	return Target{
		Kind:       types.TargetCustom,
		Name:       name,
		RootPath:   root,
		Enabled:    enabled,
		BaseFolder: baseFolder,
	}
}

// String returns a log-friendly identifier.
func (t Target) String() string {
	if t.Kind == types.TargetCustom {
		return fmt.Sprintf("custom:%s", t.Name)
	}
	return t.Name
}

// Prefix returns the archive filename prefix.
func (t Target) Prefix() string {
	if t.Kind == types.TargetCustom {
		return CustomPrefix(t.Name)
	}
	return layouts[t.Kind].Prefix
}

// CustomPrefix derives the archive prefix of a custom target name.
func CustomPrefix(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// Label names the save folder in messages.
func (t Target) Label() string {
	if t.Kind == types.TargetCustom {
		return t.Name
	}
	return layouts[t.Kind].Label
}

// Check reports targets that cannot be processed at all.
func (t Target) Check() error {
	if t.Kind == types.TargetCustom && (strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.RootPath) == "") {
		return ErrInvalidTarget
	}
	if _, ok := layouts[t.Kind]; !ok && t.Kind != types.TargetCustom {
		return fmt.Errorf("unknown target kind %q", t.Kind)
	}
	return nil
}

// Validate reports whether root holds an accepted layout for kind.
// Custom roots are valid when the directory exists.
func Validate(kind types.TargetKind, root string) bool {
	if root == "" {
		return false
	}
	if kind == types.TargetCustom {
		return utils.DirExists(root)
	}
	_, ok := ResolveSaveDir(kind, root)
	return ok
}

// ResolveSaveDir returns the first existing save folder under root. When none
// exists it returns the highest precedence candidate and false. An
// unconfigured root resolves to nothing.
func ResolveSaveDir(kind types.TargetKind, root string) (string, bool) {
	if strings.TrimSpace(root) == "" {
		return "", false
	}
	if kind == types.TargetCustom {
		return root, utils.DirExists(root)
	}
	layout := layouts[kind]
	for _, rel := range layout.SaveDirs {
		candidate := filepath.Join(root, rel)
		if utils.DirExists(candidate) {
			return candidate, true
		}
	}
	if len(layout.SaveDirs) == 0 {
		return root, false
	}
	return filepath.Join(root, layout.SaveDirs[0]), false
}

// Validate reports whether the target root holds an accepted layout.
func (t Target) Validate() bool {
	return Validate(t.Kind, t.RootPath)
}

// SaveDir resolves the folder to archive.
func (t Target) SaveDir() (string, bool) {
	return ResolveSaveDir(t.Kind, t.RootPath)
}

// RestoreDir returns the folder archives are extracted into. PPSSPP uses the
// memstick layout when a memstick folder exists under the root.
func (t Target) RestoreDir() string {
	switch t.Kind {
	case types.TargetCustom:
		return t.RootPath
	case types.TargetPPSSPP:
		if utils.DirExists(filepath.Join(t.RootPath, "memstick")) {
			return filepath.Join(t.RootPath, "memstick", "PSP", "SAVEDATA")
		}
		return filepath.Join(t.RootPath, "PSP", "SAVEDATA")
	default:
		return filepath.Join(t.RootPath, layouts[t.Kind].SaveDirs[0])
	}
}
