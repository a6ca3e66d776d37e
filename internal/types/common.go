package types

// TargetKind identifies the family of a backup target.
type TargetKind string

const (
	// TargetPPSSPP - PSP emulator save data (SAVEDATA)
	TargetPPSSPP TargetKind = "ppsspp"

	// TargetPCSX2 - PS2 emulator memory cards
	TargetPCSX2 TargetKind = "pcsx2"

	// TargetCitra - 3DS emulator SD card image
	TargetCitra TargetKind = "citra"

	// TargetCustom - user-registered extra folder
	TargetCustom TargetKind = "custom"
)

// BuiltinKinds lists the emulator kinds in their fixed run order.
var BuiltinKinds = []TargetKind{TargetPPSSPP, TargetPCSX2, TargetCitra}

// String returns the string representation of the target kind.
func (k TargetKind) String() string {
	return string(k)
}

// IsBuiltin reports whether the kind is one of the emulator kinds.
func (k TargetKind) IsBuiltin() bool {
	for _, b := range BuiltinKinds {
		if b == k {
			return true
		}
	}
	return false
}

// ParseTargetKind maps a user supplied string to a TargetKind.
func ParseTargetKind(s string) (TargetKind, bool) {
	switch TargetKind(s) {
	case TargetPPSSPP, TargetPCSX2, TargetCitra, TargetCustom:
		return TargetKind(s), true
	}
	return "", false
}

// ArchiverKind represents the command-line dialect of an archiver.
type ArchiverKind string

const (
	// ArchiverWinRAR - WinRAR dialect (a -afzip -r / x -y <dest>)
	ArchiverWinRAR ArchiverKind = "winrar"

	// Archiver7Zip - 7-Zip dialect (a -tzip / x -y -o<dest>)
	Archiver7Zip ArchiverKind = "7zip"
)

// String returns the string representation of the archiver kind.
func (a ArchiverKind) String() string {
	return string(a)
}

// Operation is the kind of run performed by the orchestrator.
type Operation string

const (
	OperationBackup  Operation = "backup"
	OperationRestore Operation = "restore"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}

// StorageLocation represents where an archive lives.
type StorageLocation string

const (
	// StorageStaging - local staging directory
	StorageStaging StorageLocation = "staging"

	// StorageSync - synchronized folder
	StorageSync StorageLocation = "sync"
)

// String returns the string representation of the location.
func (s StorageLocation) String() string {
	return string(s)
}

// LogLevel represents the logging level.
type LogLevel int

const (
	// LogLevelDebug - Debug logs (maximum detail)
	LogLevelDebug LogLevel = 5

	// LogLevelInfo - General information
	LogLevelInfo LogLevel = 4

	// LogLevelWarning - Warnings
	LogLevelWarning LogLevel = 3

	// LogLevelError - Errors
	LogLevelError LogLevel = 2

	// LogLevelCritical - Critical errors
	LogLevelCritical LogLevel = 1

	// LogLevelNone - No logs
	LogLevelNone LogLevel = 0
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelError:
		return "ERROR"
	case LogLevelCritical:
		return "CRITICAL"
	case LogLevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}
