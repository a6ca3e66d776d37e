package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tis24dev/savesync/internal/logging"
)

const copyBufferSize = 1024 * 1024

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
	n   int64
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// copyFile copies src to dest through a temporary file in dest's directory,
// mirroring mode and modification time. transform, when set, rewrites the
// stream (sealing or unsealing).
func copyFile(ctx context.Context, logger *logging.Logger, src, dest string, transform transformFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sourceInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	destDir := filepath.Dir(dest)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory %s: %w", destDir, err)
	}

	tempFile, err := os.CreateTemp(destDir, fmt.Sprintf(".tmp-%s-", filepath.Base(dest)))
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", destDir, err)
	}
	tempName := tempFile.Name()
	defer func() {
		if tempFile != nil {
			tempFile.Close()
		}
		if tempName != "" {
			os.Remove(tempName)
		}
	}()

	start := time.Now()
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer sourceFile.Close()

	reader := &contextReader{ctx: ctx, r: sourceFile}
	if transform != nil {
		if err := transform(tempFile, reader); err != nil {
			return err
		}
	} else if _, err := io.CopyBuffer(tempFile, reader, make([]byte, copyBufferSize)); err != nil {
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temporary file %s: %w", tempName, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %s: %w", tempName, err)
	}
	tempFile = nil

	if err := os.Chmod(tempName, sourceInfo.Mode().Perm()); err != nil {
		logger.Debug("Copy: unable to mirror permissions on %s: %v", tempName, err)
	}
	if err := os.Chtimes(tempName, sourceInfo.ModTime(), sourceInfo.ModTime()); err != nil {
		logger.Debug("Copy: unable to mirror timestamps on %s: %v", tempName, err)
	}

	if err := os.Rename(tempName, dest); err != nil {
		return fmt.Errorf("failed to finalize copy to %s: %w", dest, err)
	}
	tempName = ""

	elapsed := time.Since(start)
	rate := "n/a"
	if secs := elapsed.Seconds(); secs > 0 {
		rate = humanize.Bytes(uint64(float64(reader.n)/secs)) + "/s"
	}
	logger.Debug("Copied %s (%s) to %s in %s (avg %s)",
		filepath.Base(src), humanize.Bytes(uint64(reader.n)), dest, elapsed.Truncate(time.Millisecond), rate)
	return nil
}
