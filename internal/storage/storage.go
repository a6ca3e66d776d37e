// Package storage names archives and moves them in and out of the sync folder.
package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tis24dev/savesync/internal/seal"
	"github.com/tis24dev/savesync/internal/types"
)

const (
	// TimestampLayout is the timestamp embedded in archive names.
	TimestampLayout = "2006-01-02_15-04-05"
	// ArchiveExt is the extension of every archive the tool writes.
	ArchiveExt = ".zip"
)

// ErrNoArchive is returned when no archive matches a prefix.
var ErrNoArchive = errors.New("no matching archive")

// ErrFileTooLarge is returned when the sync folder filesystem cannot hold an archive.
var ErrFileTooLarge = errors.New("archive too large for the sync folder filesystem")

// Archive is one archive file, in staging or in the sync folder.
type Archive struct {
	Prefix    string
	Timestamp time.Time
	Name      string
	Path      string
	Sealed    bool
	Size      int64
	Location  types.StorageLocation
}

// PlainName is the archive name without the sealing extension.
func (a Archive) PlainName() string {
	return strings.TrimSuffix(a.Name, seal.Ext)
}

// HumanSize formats Size for reports.
func (a Archive) HumanSize() string {
	return humanize.Bytes(uint64(max(a.Size, 0)))
}

// ArchiveName builds "{prefix}_{timestamp}.zip".
func ArchiveName(prefix string, ts time.Time) string {
	return prefix + "_" + ts.Format(TimestampLayout) + ArchiveExt
}

// ParseArchiveName splits an archive name produced by ArchiveName, with or
// without the sealing extension.
func ParseArchiveName(name string) (prefix string, ts time.Time, sealed bool, ok bool) {
	base := name
	if strings.HasSuffix(base, seal.Ext) {
		base = strings.TrimSuffix(base, seal.Ext)
		sealed = true
	}
	if !strings.HasSuffix(base, ArchiveExt) {
		return "", time.Time{}, false, false
	}
	base = strings.TrimSuffix(base, ArchiveExt)
	if len(base) < len(TimestampLayout)+2 {
		return "", time.Time{}, false, false
	}
	cut := len(base) - len(TimestampLayout)
	if base[cut-1] != '_' {
		return "", time.Time{}, false, false
	}
	parsed, err := time.ParseInLocation(TimestampLayout, base[cut:], time.Local)
	if err != nil {
		return "", time.Time{}, false, false
	}
	return base[:cut-1], parsed, sealed, true
}

// SortNewestFirst orders archives by descending plain name. For equal names
// the unsealed copy comes first.
func SortNewestFirst(archives []Archive) {
	sort.SliceStable(archives, func(i, j int) bool {
		a, b := archives[i].PlainName(), archives[j].PlainName()
		if a != b {
			return a > b
		}
		return !archives[i].Sealed && archives[j].Sealed
	})
}

// StorageError reports a failed sync folder operation.
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("sync folder %s failed for %s: %v", e.Operation, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SpaceError reports that the sync folder cannot hold an archive.
type SpaceError struct {
	Path string
	Free uint64
	Need uint64
}

func (e *SpaceError) Error() string {
	return fmt.Sprintf("insufficient space on %s: %s free, %s required",
		e.Path, humanize.Bytes(e.Free), humanize.Bytes(e.Need))
}
