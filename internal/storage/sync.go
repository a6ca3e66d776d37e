package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/safefs"
	"github.com/tis24dev/savesync/internal/seal"
	"github.com/tis24dev/savesync/internal/types"
)

// UnsealerFunc opens the identities needed for sealed archives. It is only
// called when a sealed archive is fetched.
type UnsealerFunc func() (*seal.Unsealer, error)

// Options tune a SyncFolder.
type Options struct {
	// FSTimeout bounds stat/readdir/statfs calls on the sync folder.
	FSTimeout time.Duration
	// MinFreeBytes must remain free after storing an archive.
	MinFreeBytes uint64
	// Sealer, when set, encrypts stored copies.
	Sealer *seal.Sealer
	// Unsealer opens sealed copies on fetch.
	Unsealer UnsealerFunc
	// Location tags listed archives; empty means types.StorageSync.
	Location types.StorageLocation
}

// SyncFolder is the durable archive location, typically a cloud-sync client folder.
type SyncFolder struct {
	logger *logging.Logger
	path   string
	opts   Options

	fsOnce sync.Once
	fsInfo *FilesystemInfo
}

// NewSyncFolder returns a sync folder rooted at path.
func NewSyncFolder(logger *logging.Logger, path string, opts Options) *SyncFolder {
	return &SyncFolder{logger: logger, path: path, opts: opts}
}

func (s *SyncFolder) location() types.StorageLocation {
	if s.opts.Location == "" {
		return types.StorageSync
	}
	return s.opts.Location
}

// Path returns the folder path.
func (s *SyncFolder) Path() string {
	return s.path
}

// Ensure creates the folder when missing.
func (s *SyncFolder) Ensure(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return &StorageError{Operation: "mkdir", Path: s.path, Err: err}
	}
	return nil
}

// CheckSpace fails when storing need bytes would leave less than MinFreeBytes.
// Filesystems that cannot report usage are not blocked.
func (s *SyncFolder) CheckSpace(ctx context.Context, need uint64) error {
	usage, err := safefs.DiskUsage(ctx, s.path, s.opts.FSTimeout)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		s.logger.Debug("Sync folder: free space unknown for %s: %v", s.path, err)
		return nil
	}
	required := need + s.opts.MinFreeBytes
	s.logger.Debug("Sync folder: %s free on %s (%s), %s required",
		humanize.Bytes(usage.Free), s.path, usage.Fstype, humanize.Bytes(required))
	if usage.Free < required {
		return &SpaceError{Path: s.path, Free: usage.Free, Need: required}
	}
	return nil
}

// Filesystem detects the filesystem holding the folder once and caches the
// result. It returns nil when detection fails.
func (s *SyncFolder) Filesystem(ctx context.Context) *FilesystemInfo {
	s.fsOnce.Do(func() {
		info, err := NewFilesystemDetector(s.logger).DetectFilesystem(ctx, s.path)
		if err != nil {
			s.logger.Debug("Sync folder: filesystem unknown for %s: %v", s.path, err)
			return
		}
		if info.Type.IsNetworkFilesystem() {
			s.logger.Info("Sync folder %s is on a network filesystem (%s)", s.path, info.Raw)
		}
		s.fsInfo = info
	})
	return s.fsInfo
}

// Store copies a local archive into the folder, sealing it when configured,
// and returns the destination path. The local file is left untouched.
func (s *SyncFolder) Store(ctx context.Context, localArchive string) (string, error) {
	info, err := os.Stat(localArchive)
	if err != nil {
		return "", &StorageError{Operation: "store", Path: localArchive, Err: fmt.Errorf("source file not found: %w", err)}
	}
	if err := s.Ensure(ctx); err != nil {
		return "", err
	}
	if err := s.CheckSpace(ctx, uint64(info.Size())); err != nil {
		return "", err
	}
	if fsInfo := s.Filesystem(ctx); fsInfo != nil {
		if limit := fsInfo.Type.MaxFileSize(); limit > 0 && uint64(info.Size()) > limit {
			return "", &StorageError{Operation: "store", Path: s.path, Err: fmt.Errorf("%w: %s exceeds the %s limit of %s",
				ErrFileTooLarge, humanize.Bytes(uint64(info.Size())), fsInfo.Type, humanize.Bytes(limit))}
		}
	}

	dest := filepath.Join(s.path, filepath.Base(localArchive))
	var transform transformFunc
	if s.opts.Sealer != nil {
		dest += seal.Ext
		transform = s.opts.Sealer.Seal
	}

	s.logger.Debug("Copying archive to sync folder: %s -> %s", filepath.Base(localArchive), s.path)
	if err := copyFile(ctx, s.logger, localArchive, dest, transform); err != nil {
		return "", &StorageError{Operation: "store", Path: dest, Err: err}
	}
	return dest, nil
}

// List returns the archives of prefix, newest first. An empty prefix lists
// every archive.
func (s *SyncFolder) List(ctx context.Context, prefix string) ([]Archive, error) {
	entries, err := safefs.ReadDir(ctx, s.path, s.opts.FSTimeout)
	if err != nil {
		return nil, &StorageError{Operation: "list", Path: s.path, Err: err}
	}

	var archives []Archive
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p, ts, sealed, ok := ParseArchiveName(entry.Name())
		if !ok || (prefix != "" && p != prefix) {
			continue
		}
		archive := Archive{
			Prefix:    p,
			Timestamp: ts,
			Name:      entry.Name(),
			Path:      filepath.Join(s.path, entry.Name()),
			Sealed:    sealed,
			Location:  s.location(),
		}
		if info, err := entry.Info(); err == nil {
			archive.Size = info.Size()
		}
		archives = append(archives, archive)
	}
	SortNewestFirst(archives)
	return archives, nil
}

// Latest returns the newest archive of prefix.
func (s *SyncFolder) Latest(ctx context.Context, prefix string) (Archive, error) {
	archives, err := s.List(ctx, prefix)
	if err != nil {
		return Archive{}, err
	}
	if len(archives) == 0 {
		return Archive{}, ErrNoArchive
	}
	return archives[0], nil
}

// Fetch copies archive into destDir under its plain name, unsealing it when
// needed, and returns the local path.
func (s *SyncFolder) Fetch(ctx context.Context, archive Archive, destDir string) (string, error) {
	var transform transformFunc
	if archive.Sealed {
		if s.opts.Unsealer == nil {
			return "", &StorageError{Operation: "fetch", Path: archive.Path, Err: seal.ErrNoIdentity}
		}
		unsealer, err := s.opts.Unsealer()
		if err != nil {
			return "", &StorageError{Operation: "fetch", Path: archive.Path, Err: err}
		}
		transform = unsealer.Unseal
	}

	dest := filepath.Join(destDir, archive.PlainName())
	if err := copyFile(ctx, s.logger, archive.Path, dest, transform); err != nil {
		return "", &StorageError{Operation: "fetch", Path: archive.Path, Err: err}
	}
	return dest, nil
}

type transformFunc func(dst io.Writer, src io.Reader) error
