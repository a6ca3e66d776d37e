// Package safefs wraps filesystem calls that can hang on sync-client mounts
// (cloud drives, network shares) with a timeout.
package safefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
)

var (
	osStat    = os.Stat
	osReadDir = os.ReadDir
	diskUsage = disk.UsageWithContext
)

// ErrTimeout is a sentinel error used to classify filesystem operations that did not
// complete within the configured timeout.
var ErrTimeout = errors.New("filesystem operation timed out")

// TimeoutError is returned when a filesystem operation exceeds its allowed duration.
// Note that this does not cancel the underlying call; it only stops waiting.
type TimeoutError struct {
	Op      string
	Path    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return "filesystem operation timed out"
	}
	if e.Timeout > 0 {
		return fmt.Sprintf("%s %s: timeout after %s", e.Op, e.Path, e.Timeout)
	}
	return fmt.Sprintf("%s %s: timeout", e.Op, e.Path)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Usage is the space accounting of the filesystem holding a path.
type Usage struct {
	Path   string
	Fstype string
	Total  uint64
	Free   uint64
}

func effectiveTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0
		}
		if remaining < timeout {
			return remaining
		}
	}
	return timeout
}

func withTimeout[T any](ctx context.Context, op, path string, timeout time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	timeout = effectiveTimeout(ctx, timeout)
	if timeout <= 0 {
		return fn()
	}

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		value, err := fn()
		ch <- result{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-timer.C:
		return zero, &TimeoutError{Op: op, Path: path, Timeout: timeout}
	}
}

func Stat(ctx context.Context, path string, timeout time.Duration) (fs.FileInfo, error) {
	return withTimeout(ctx, "stat", path, timeout, func() (fs.FileInfo, error) {
		return osStat(path)
	})
}

func ReadDir(ctx context.Context, path string, timeout time.Duration) ([]os.DirEntry, error) {
	return withTimeout(ctx, "readdir", path, timeout, func() ([]os.DirEntry, error) {
		return osReadDir(path)
	})
}

// DiskUsage reports total and free bytes of the filesystem holding path.
func DiskUsage(ctx context.Context, path string, timeout time.Duration) (Usage, error) {
	return withTimeout(ctx, "statfs", path, timeout, func() (Usage, error) {
		stat, err := diskUsage(ctx, path)
		if err != nil {
			return Usage{}, err
		}
		return Usage{Path: stat.Path, Fstype: stat.Fstype, Total: stat.Total, Free: stat.Free}, nil
	})
}
