package orchestrator

import (
	"strings"
	"time"

	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/pipeline"
	"github.com/tis24dev/savesync/internal/types"
)

// Report is the ordered outcome of one run.
type Report struct {
	RunID   string
	Op      types.Operation
	Results []pipeline.Result
	Start   time.Time
	End     time.Time
}

// Succeeded counts successful targets.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK {
			n++
		}
	}
	return n
}

// Failed counts failed targets.
func (r Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Warnings counts backups that succeeded without reaching the sync folder.
func (r Report) Warnings() int {
	n := 0
	for _, res := range r.Results {
		if res.OK && r.Op == types.OperationBackup && !res.Synced {
			n++
		}
	}
	return n
}

// Bytes sums the archive sizes of successful targets.
func (r Report) Bytes() int64 {
	var total int64
	for _, res := range r.Results {
		if res.OK {
			total += res.Size
		}
	}
	return total
}

// Cancelled reports whether any target was stopped by cancellation.
func (r Report) Cancelled() bool {
	for _, res := range r.Results {
		if res.Kind == pipeline.Cancelled {
			return true
		}
	}
	return false
}

// ExitCode maps the report to the process exit code.
func (r Report) ExitCode() types.ExitCode {
	switch {
	case r.Cancelled():
		return types.ExitInterrupted
	case r.Failed() == 0:
		return types.ExitSuccess
	case r.Op == types.OperationRestore:
		return types.ExitRestoreError
	default:
		return types.ExitBackupError
	}
}

// Lines returns one localized line per result, in run order.
func (r Report) Lines(msgs i18n.Messages) []string {
	lines := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		lines = append(lines, res.Message(msgs))
	}
	return lines
}

// Text joins Lines with newlines, the consolidated report shown to users.
func (r Report) Text(msgs i18n.Messages) string {
	return strings.Join(r.Lines(msgs), "\n")
}
