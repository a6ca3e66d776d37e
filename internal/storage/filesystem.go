package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/tis24dev/savesync/internal/logging"
)

var partitions = disk.PartitionsWithContext

// FilesystemType represents the filesystem holding a folder.
type FilesystemType string

const (
	FilesystemExt4    FilesystemType = "ext4"
	FilesystemBtrfs   FilesystemType = "btrfs"
	FilesystemXFS     FilesystemType = "xfs"
	FilesystemAPFS    FilesystemType = "apfs"
	FilesystemNTFS    FilesystemType = "ntfs"
	FilesystemFAT32   FilesystemType = "vfat"
	FilesystemExFAT   FilesystemType = "exfat"
	FilesystemFUSE    FilesystemType = "fuse"
	FilesystemNFS     FilesystemType = "nfs"
	FilesystemCIFS    FilesystemType = "cifs"
	FilesystemUnknown FilesystemType = "unknown"
)

// fat32MaxFile is the largest file a FAT32 volume can hold.
const fat32MaxFile = 4*humanize.GiByte - 1

// IsNetworkFilesystem reports filesystems whose calls may stall on the network.
func (f FilesystemType) IsNetworkFilesystem() bool {
	switch f {
	case FilesystemNFS, FilesystemCIFS, FilesystemFUSE:
		return true
	}
	return false
}

// MaxFileSize is the largest file the filesystem accepts, 0 when unbounded.
func (f FilesystemType) MaxFileSize() uint64 {
	if f == FilesystemFAT32 {
		return fat32MaxFile
	}
	return 0
}

func (f FilesystemType) String() string {
	return string(f)
}

// FilesystemInfo describes where a folder is mounted.
type FilesystemInfo struct {
	Path       string
	Type       FilesystemType
	Raw        string
	MountPoint string
	Device     string
}

// FilesystemDetector resolves the filesystem of a folder from the mount table.
type FilesystemDetector struct {
	logger *logging.Logger
}

// NewFilesystemDetector creates a new filesystem detector
func NewFilesystemDetector(logger *logging.Logger) *FilesystemDetector {
	return &FilesystemDetector{logger: logger}
}

// DetectFilesystem finds the longest mount point containing path.
func (d *FilesystemDetector) DetectFilesystem(ctx context.Context, path string) (*FilesystemInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	parts, err := partitions(ctx, true)
	if err != nil && len(parts) == 0 {
		return nil, fmt.Errorf("failed to read mount table: %w", err)
	}

	var best *disk.PartitionStat
	for i := range parts {
		if !underMount(absPath, parts[i].Mountpoint) {
			continue
		}
		if best == nil || len(parts[i].Mountpoint) > len(best.Mountpoint) {
			best = &parts[i]
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no mount point contains %s", absPath)
	}

	info := &FilesystemInfo{
		Path:       absPath,
		Type:       parseFilesystemType(best.Fstype),
		Raw:        best.Fstype,
		MountPoint: best.Mountpoint,
		Device:     best.Device,
	}
	d.logFilesystemInfo(info)
	return info, nil
}

func (d *FilesystemDetector) logFilesystemInfo(info *FilesystemInfo) {
	network := ""
	if info.Type.IsNetworkFilesystem() {
		network = " [network]"
	}
	d.logger.Debug("Path: %s -> Filesystem: %s (%s)%s [mount: %s]",
		info.Path, info.Type, info.Raw, network, info.MountPoint)
}

func underMount(path, mountPoint string) bool {
	if mountPoint == "" {
		return false
	}
	mp := filepath.Clean(mountPoint)
	if runtime.GOOS == "windows" {
		path, mp = strings.ToLower(path), strings.ToLower(mp)
	}
	if path == mp || mp == string(filepath.Separator) {
		return true
	}
	if !strings.HasSuffix(mp, string(filepath.Separator)) {
		mp += string(filepath.Separator)
	}
	return strings.HasPrefix(path, mp)
}

// parseFilesystemType converts a filesystem type string to FilesystemType
func parseFilesystemType(fsTypeStr string) FilesystemType {
	fsTypeStr = strings.ToLower(strings.TrimSpace(fsTypeStr))

	switch {
	case fsTypeStr == "ext4" || fsTypeStr == "ext3" || fsTypeStr == "ext2":
		return FilesystemExt4
	case fsTypeStr == "btrfs":
		return FilesystemBtrfs
	case fsTypeStr == "xfs":
		return FilesystemXFS
	case fsTypeStr == "apfs" || fsTypeStr == "hfs":
		return FilesystemAPFS
	case fsTypeStr == "ntfs" || fsTypeStr == "ntfs3" || fsTypeStr == "ntfs-3g" || fsTypeStr == "refs":
		return FilesystemNTFS
	case fsTypeStr == "vfat" || fsTypeStr == "fat32" || fsTypeStr == "msdos" || fsTypeStr == "fat":
		return FilesystemFAT32
	case fsTypeStr == "exfat":
		return FilesystemExFAT
	case fsTypeStr == "fuse" || strings.HasPrefix(fsTypeStr, "fuse."):
		return FilesystemFUSE
	case strings.HasPrefix(fsTypeStr, "nfs"):
		return FilesystemNFS
	case fsTypeStr == "cifs" || fsTypeStr == "smb" || fsTypeStr == "smbfs" || fsTypeStr == "smb3":
		return FilesystemCIFS
	default:
		return FilesystemUnknown
	}
}
