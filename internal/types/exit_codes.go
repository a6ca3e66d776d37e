// Package types defines shared application data types.
package types

// ExitCode represents the application's exit codes.
type ExitCode int

const (
	// ExitSuccess - Execution completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGenericError - Unspecified generic error.
	ExitGenericError ExitCode = 1

	// ExitConfigError - Configuration error.
	ExitConfigError ExitCode = 2

	// ExitBackupError - At least one target failed to back up.
	ExitBackupError ExitCode = 4

	// ExitStorageError - Error during sync folder operations.
	ExitStorageError ExitCode = 5

	// ExitDiskSpaceError - Insufficient disk space.
	ExitDiskSpaceError ExitCode = 12

	// ExitPanicError - Unhandled panic caught.
	ExitPanicError ExitCode = 13

	// ExitRestoreError - At least one target failed to restore.
	ExitRestoreError ExitCode = 15

	// ExitBusyError - Another run holds the run lock.
	ExitBusyError ExitCode = 16

	// ExitInterrupted - Run cancelled by a signal.
	ExitInterrupted ExitCode = 130
)

// String returns a human-readable description of the exit code.
func (e ExitCode) String() string {
	switch e {
	case ExitSuccess:
		return "success"
	case ExitGenericError:
		return "generic error"
	case ExitConfigError:
		return "configuration error"
	case ExitBackupError:
		return "backup error"
	case ExitStorageError:
		return "storage error"
	case ExitDiskSpaceError:
		return "disk space error"
	case ExitPanicError:
		return "panic error"
	case ExitRestoreError:
		return "restore error"
	case ExitBusyError:
		return "busy"
	case ExitInterrupted:
		return "interrupted"
	default:
		return "unknown error"
	}
}

// Int returns the exit code as an int.
func (e ExitCode) Int() int {
	return int(e)
}
