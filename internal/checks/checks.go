package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/safefs"
)

var (
	osStat     = os.Stat
	osRemove   = os.Remove
	osOpenFile = os.OpenFile
	osMkdirAll = os.MkdirAll
	syncFile   = func(f *os.File) error { return f.Sync() }
	writeLock  = func(f *os.File, content string) error {
		_, err := f.WriteString(content)
		return err
	}
	diskUsage  = safefs.DiskUsage
	now        = time.Now
)

var (
	// ErrLocked is returned when another process holds a fresh lock file.
	ErrLocked = errors.New("another run holds the lock")
	// ErrInsufficientSpace is returned when the staging filesystem is too full.
	ErrInsufficientSpace = errors.New("insufficient disk space")
)

// Checker performs pre-run validation checks
type Checker struct {
	logger *logging.Logger
	config *CheckerConfig
}

// CheckerConfig holds configuration for pre-run checks
type CheckerConfig struct {
	StagingDir   string
	LockFilePath string
	MaxLockAge   time.Duration
	// MinFreeBytes is the free space required on the staging filesystem.
	MinFreeBytes uint64
	FSTimeout    time.Duration
}

// Validate checks if the checker configuration is valid
func (c *CheckerConfig) Validate() error {
	if c.StagingDir == "" {
		return fmt.Errorf("staging directory cannot be empty")
	}
	if c.LockFilePath == "" {
		return fmt.Errorf("lock file path cannot be empty")
	}
	if c.MaxLockAge <= 0 {
		return fmt.Errorf("max lock age must be positive")
	}
	return nil
}

// CheckResult holds the result of a validation check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	Error   error
}

// NewChecker creates a new pre-run checker
func NewChecker(logger *logging.Logger, config *CheckerConfig) *Checker {
	return &Checker{
		logger: logger,
		config: config,
	}
}

// GetDefaultCheckerConfig returns a default checker configuration
func GetDefaultCheckerConfig(stagingDir, lockPath string) *CheckerConfig {
	return &CheckerConfig{
		StagingDir:   stagingDir,
		LockFilePath: lockPath,
		MaxLockAge:   2 * time.Hour,
		MinFreeBytes: 50 * humanize.MByte,
		FSTimeout:    10 * time.Second,
	}
}

// RunAllChecks performs all pre-run validation checks. The lock is taken
// last so a failed check never leaves a lock file behind.
func (c *Checker) RunAllChecks(ctx context.Context) ([]CheckResult, error) {
	c.logger.Debug("Running pre-run validation checks")

	var results []CheckResult

	dirResult := c.CheckDirectories()
	results = append(results, dirResult)
	if !dirResult.Passed {
		return results, fmt.Errorf("directory check failed: %s", dirResult.Message)
	}

	diskResult := c.CheckDiskSpace(ctx)
	results = append(results, diskResult)
	if !diskResult.Passed {
		if diskResult.Error != nil {
			return results, fmt.Errorf("disk space check failed: %w", diskResult.Error)
		}
		return results, fmt.Errorf("disk space check failed: %s", diskResult.Message)
	}

	lockResult := c.CheckLockFile()
	results = append(results, lockResult)
	if !lockResult.Passed {
		if lockResult.Error != nil {
			return results, fmt.Errorf("lock file check failed: %w", lockResult.Error)
		}
		return results, fmt.Errorf("lock file check failed: %s", lockResult.Message)
	}

	c.logger.Debug("All pre-run checks passed")
	return results, nil
}

// CheckDirectories makes sure the staging and lock directories exist
func (c *Checker) CheckDirectories() CheckResult {
	result := CheckResult{Name: "Directories"}

	for _, dir := range []string{c.config.StagingDir, filepath.Dir(c.config.LockFilePath)} {
		if dir == "" {
			continue
		}
		if err := osMkdirAll(dir, 0o755); err != nil {
			result.Error = fmt.Errorf("failed to create %s: %w", dir, err)
			result.Message = result.Error.Error()
			return result
		}
	}

	result.Passed = true
	result.Message = "Required directories available"
	return result
}

// CheckDiskSpace verifies the staging filesystem has room for new archives.
// Filesystems that cannot report usage pass with a debug note.
func (c *Checker) CheckDiskSpace(ctx context.Context) CheckResult {
	result := CheckResult{Name: "Disk Space"}
	if c.config.MinFreeBytes == 0 {
		result.Passed = true
		result.Message = "Disk space check disabled"
		return result
	}

	usage, err := diskUsage(ctx, c.config.StagingDir, c.config.FSTimeout)
	if err != nil {
		if ctx.Err() != nil {
			result.Error = ctx.Err()
			result.Message = result.Error.Error()
			return result
		}
		c.logger.Debug("Disk space unknown for %s: %v", c.config.StagingDir, err)
		result.Passed = true
		result.Message = "Disk space unknown"
		return result
	}

	c.logger.Debug("Staging: %s available, %s required", humanize.Bytes(usage.Free), humanize.Bytes(c.config.MinFreeBytes))
	if usage.Free < c.config.MinFreeBytes {
		result.Error = fmt.Errorf("%w on %s: %s available, %s required",
			ErrInsufficientSpace, c.config.StagingDir, humanize.Bytes(usage.Free), humanize.Bytes(c.config.MinFreeBytes))
		result.Message = result.Error.Error()
		c.logger.Error("%s", result.Message)
		return result
	}

	result.Passed = true
	result.Message = "Sufficient disk space for staging"
	return result
}

// CheckLockFile checks for stale lock files and creates a new lock
func (c *Checker) CheckLockFile() CheckResult {
	result := CheckResult{Name: "Lock File"}

	lockPath := c.config.LockFilePath
	c.logger.Debug("Lock file path: %s", lockPath)

	if info, err := osStat(lockPath); err == nil {
		age := now().Sub(info.ModTime())
		if age > c.config.MaxLockAge {
			c.logger.Warning("Removing stale lock file (age: %v, %s)", age.Truncate(time.Second), describeLock(lockPath))
			if err := osRemove(lockPath); err != nil && !os.IsNotExist(err) {
				result.Error = fmt.Errorf("failed to remove stale lock: %w", err)
				result.Message = result.Error.Error()
				return result
			}
		} else {
			result.Error = ErrLocked
			result.Message = fmt.Sprintf("Another run is in progress (lock age: %v)", age.Truncate(time.Second))
			c.logger.Debug("%s", result.Message)
			return result
		}
	}

	f, err := osOpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if os.IsExist(err) {
			result.Error = ErrLocked
			result.Message = "Another run acquired the lock"
			return result
		}
		result.Error = fmt.Errorf("failed to create lock file: %w", err)
		result.Message = result.Error.Error()
		return result
	}

	hostname, _ := os.Hostname()
	content := fmt.Sprintf("pid=%d\nhost=%s\ntime=%s\n", os.Getpid(), hostname, now().Format(time.RFC3339))
	if err := writeLock(f, content); err != nil {
		_ = f.Close()
		if rmErr := osRemove(lockPath); rmErr != nil && !os.IsNotExist(rmErr) {
			c.logger.Warning("Failed to remove partial lock file %s: %v", lockPath, rmErr)
		}
		result.Error = fmt.Errorf("failed to write lock file: %w", err)
		result.Message = result.Error.Error()
		return result
	}
	if err := syncFile(f); err != nil {
		c.logger.Warning("Failed to sync lock file %s: %v", lockPath, err)
	}
	_ = f.Close()

	result.Passed = true
	result.Message = "Lock file acquired successfully"
	c.logger.Debug("%s", result.Message)
	return result
}

// ReleaseLock removes the lock file
func (c *Checker) ReleaseLock() error {
	if err := osRemove(c.config.LockFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	c.logger.Debug("Lock file released: %s", c.config.LockFilePath)
	return nil
}

// describeLock summarises the owner recorded in a lock file.
func describeLock(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "owner unknown"
	}
	fields := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		if key, value, ok := strings.Cut(line, "="); ok {
			fields[key] = value
		}
	}
	pid, err := strconv.Atoi(fields["pid"])
	if err != nil {
		return "owner unknown"
	}
	return fmt.Sprintf("pid %d on %s", pid, fields["host"])
}
