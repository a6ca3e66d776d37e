// Package pipeline implements the backup and restore of a single target.
package pipeline

import (
	"context"
	"errors"
	"os"

	"github.com/tis24dev/savesync/internal/archiver"
	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/types"
)

// DefaultStagingDir is where archives are written before reaching the sync folder.
const DefaultStagingDir = "Multi Savedata Backup"

// Pipeline runs Backup and Restore for one target at a time. It holds no
// per-run state and may be reused.
type Pipeline struct {
	logger     *logging.Logger
	locator    Locator
	runner     Runner
	msgs       i18n.Messages
	clock      TimeProvider
	stagingDir string
}

// New builds a pipeline from deps.
func New(deps Deps) *Pipeline {
	p := &Pipeline{
		logger:     deps.Logger,
		locator:    deps.Locator,
		runner:     deps.Runner,
		msgs:       deps.Messages,
		clock:      deps.Time,
		stagingDir: deps.StagingDir,
	}
	if p.logger == nil {
		p.logger = logging.GetDefaultLogger()
	}
	if p.msgs == nil {
		p.msgs = keyMessages{}
	}
	if p.clock == nil {
		p.clock = realTime{}
	}
	if p.stagingDir == "" {
		p.stagingDir = DefaultStagingDir
	}
	return p
}

// StagingDir returns the local directory archives are written to.
func (p *Pipeline) StagingDir() string {
	return p.stagingDir
}

func (p *Pipeline) text(key string, vars i18n.Vars) string {
	return p.msgs.Format(key, vars)
}

// fail completes res as a failure and resets progress.
func (p *Pipeline) fail(res Result, kind ErrorKind, err error, progress ProgressFunc, message string) Result {
	res.OK = false
	res.Kind = kind
	res.Err = err
	if err != nil && res.Detail == "" {
		res.Detail = err.Error()
	}
	if message == "" || kind == Cancelled {
		message = res.Message(p.msgs)
	}
	progress.Report(0, message)
	p.logger.Warning("%s %s failed: %s", res.Op, res.Target, res.Message(p.msgs))
	return res
}

// classify maps a step error to its kind. Cancellation of the run wins over
// the step's own classification.
func classify(ctx context.Context, err error, fallback ErrorKind) ErrorKind {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return Cancelled
	}
	var toolErr *archiver.ToolError
	if errors.As(err, &toolErr) {
		return ArchiveToolFailure
	}
	if errors.Is(err, archiver.ErrCompressorNotFound) {
		return CompressorUnavailable
	}
	return fallback
}

// removeStaging deletes a staging file. Failures do not affect the result.
func (p *Pipeline) removeStaging(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Debug("Staging file %s not removed: %v", path, err)
	}
}

func newResult(op types.Operation, target targets.Target) Result {
	return Result{Op: op, Target: target, Folder: target.Label()}
}
