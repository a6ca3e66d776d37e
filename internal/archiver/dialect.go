package archiver

import (
	"fmt"

	"github.com/tis24dev/savesync/internal/types"
)

// Dialect builds the command lines of one archiver family.
type Dialect struct {
	AddArgs     func(archive string, items []string) []string
	ExtractArgs func(archive, destDir string) []string
}

var dialects = map[types.ArchiverKind]Dialect{
	types.ArchiverWinRAR: {
		AddArgs: func(archive string, items []string) []string {
			return append([]string{"a", "-afzip", "-r", archive}, items...)
		},
		ExtractArgs: func(archive, destDir string) []string {
			return []string{"x", "-y", archive, destDir}
		},
	},
	types.Archiver7Zip: {
		AddArgs: func(archive string, items []string) []string {
			return append([]string{"a", "-tzip", archive}, items...)
		},
		ExtractArgs: func(archive, destDir string) []string {
			return []string{"x", "-y", archive, "-o" + destDir}
		},
	},
}

// DialectFor returns the command-line dialect of kind.
func DialectFor(kind types.ArchiverKind) (Dialect, error) {
	d, ok := dialects[kind]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported archiver kind %q", kind)
	}
	return d, nil
}
