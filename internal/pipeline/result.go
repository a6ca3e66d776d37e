package pipeline

import (
	"errors"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/storage"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/types"
)

// ErrorKind classifies a failed pipeline run.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	SourceNotFound        ErrorKind = "source_not_found"
	SourceEmpty           ErrorKind = "source_empty"
	CompressorUnavailable ErrorKind = "compressor_unavailable"
	ArchiveToolFailure    ErrorKind = "archive_tool_failure"
	NoMatchingArchive     ErrorKind = "no_matching_archive"
	UnexpectedIO          ErrorKind = "unexpected_io"
	InvalidTarget         ErrorKind = "invalid_target"
	Cancelled             ErrorKind = "cancelled"
)

func (k ErrorKind) String() string {
	if k == KindNone {
		return "ok"
	}
	return string(k)
}

// ErrNoSyncFolder is returned by Restore when no sync folder is configured.
var ErrNoSyncFolder = errors.New("sync folder is not configured")

// Result is the outcome of one pipeline run.
type Result struct {
	OK     bool
	Kind   ErrorKind
	Op     types.Operation
	Target targets.Target
	// Folder is the save folder label used in source errors.
	Folder string
	// Path is the final archive location on success.
	Path string
	// Archive is the archive file name.
	Archive string
	// Synced is set when a backup reached the sync folder.
	Synced   bool
	Size     int64
	Detail   string
	Err      error
	Duration time.Duration
}

// Message formats the localized report line of the result.
func (r Result) Message(msgs i18n.Messages) string {
	if msgs == nil {
		msgs = keyMessages{}
	}
	custom := r.Target.Kind == types.TargetCustom

	if r.OK {
		if r.Op == types.OperationRestore {
			if custom {
				return msgs.Format("restore_success_name", i18n.Vars{"name": r.Target.Name, "path": r.Archive})
			}
			return msgs.Format("restore_success", i18n.Vars{"path": r.Archive})
		}
		if r.Synced {
			return msgs.Format("backup_synced_success", i18n.Vars{"path": r.Path})
		}
		return msgs.Format("backup_success", i18n.Vars{"path": r.Path})
	}

	switch r.Kind {
	case SourceNotFound:
		return msgs.Format("folder_not_found", i18n.Vars{"folder": r.Folder})
	case SourceEmpty:
		return msgs.Format("folder_empty", i18n.Vars{"folder": r.Folder})
	case CompressorUnavailable:
		return msgs.Format("compressor_not_found", nil)
	case InvalidTarget:
		if r.Op == types.OperationRestore {
			return msgs.Format("custom_restore_invalid", nil)
		}
		return msgs.Format("custom_backup_invalid", nil)
	case NoMatchingArchive:
		return msgs.Format("no_backup_found", i18n.Vars{"emulator": r.Target.Name})
	case ArchiveToolFailure:
		if r.Op == types.OperationRestore {
			if custom {
				return msgs.Format("error_extracting_detail_name", i18n.Vars{"name": r.Target.Name, "detail": r.Detail})
			}
			return msgs.Format("error_extracting_detail", i18n.Vars{"detail": r.Detail})
		}
		return msgs.Format("error_compressing_detail", i18n.Vars{"detail": r.Detail})
	case Cancelled:
		return msgs.Format("operation_cancelled", nil)
	}

	var spaceErr *storage.SpaceError
	switch {
	case errors.As(r.Err, &spaceErr):
		return msgs.Format("insufficient_space", i18n.Vars{
			"path": spaceErr.Path,
			"free": humanize.Bytes(spaceErr.Free),
			"need": humanize.Bytes(spaceErr.Need),
		})
	case errors.Is(r.Err, ErrNoSyncFolder):
		return msgs.Format("sync_folder_missing", nil)
	case r.Detail != "":
		return msgs.Format("unexpected_error_detail", i18n.Vars{"detail": r.Detail})
	default:
		return msgs.Format("unexpected_error", nil)
	}
}

// String is a compact log form of the result.
func (r Result) String() string {
	s := string(r.Op) + " " + r.Target.String() + ": " + r.Kind.String()
	if r.Archive != "" {
		s += " archive=" + r.Archive
	}
	if r.Detail != "" {
		s += " detail=" + strconv.Quote(r.Detail)
	}
	return s
}

// CancelledResult is the result of a target never started because the run
// was cancelled.
func CancelledResult(op types.Operation, target targets.Target, err error) Result {
	res := newResult(op, target)
	res.Kind = Cancelled
	res.Err = err
	if err != nil {
		res.Detail = err.Error()
	}
	return res
}
