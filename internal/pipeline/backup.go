package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tis24dev/savesync/internal/storage"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/types"
	"github.com/tis24dev/savesync/pkg/utils"
)

// Backup archives the save folder of target into the staging directory and,
// when sync is set, moves the archive into the sync folder.
func (p *Pipeline) Backup(ctx context.Context, target targets.Target, sync SyncStore, progress ProgressFunc) (res Result) {
	start := p.clock.Now()
	res = newResult(types.OperationBackup, target)
	done := p.logger.Timed("backup "+target.String(), "root=%s", target.RootPath)
	defer func() {
		res.Duration = p.clock.Now().Sub(start)
		done(res.Err)
	}()

	if err := target.Check(); err != nil {
		return p.fail(res, InvalidTarget, err, progress, "")
	}

	saveDir, ok := target.SaveDir()
	if !ok {
		err := fmt.Errorf("save folder %s not found", saveDir)
		if saveDir == "" {
			err = fmt.Errorf("target root of %s is not configured", target)
		}
		return p.fail(res, SourceNotFound, err, progress, "")
	}
	items, err := utils.ListChildren(saveDir)
	if err != nil {
		return p.fail(res, UnexpectedIO, err, progress, p.text("unexpected_error", nil))
	}
	if len(items) == 0 {
		return p.fail(res, SourceEmpty, fmt.Errorf("save folder %s is empty", saveDir), progress, "")
	}
	p.logger.Debug("Backup %s: %d entries in %s", target, len(items), saveDir)

	if err := ctx.Err(); err != nil {
		return p.fail(res, Cancelled, err, progress, "")
	}

	tool, err := p.locator.Locate()
	if err != nil {
		return p.fail(res, CompressorUnavailable, err, progress, "")
	}

	res.Archive = storage.ArchiveName(target.Prefix(), p.clock.Now())
	if err := os.MkdirAll(p.stagingDir, 0o755); err != nil {
		return p.fail(res, UnexpectedIO, err, progress, p.text("unexpected_error", nil))
	}
	local, err := filepath.Abs(filepath.Join(p.stagingDir, res.Archive))
	if err != nil {
		return p.fail(res, UnexpectedIO, err, progress, p.text("unexpected_error", nil))
	}

	progress.Report(30, p.compactingText(target))
	if err := p.runner.Add(ctx, tool, local, items); err != nil {
		// A half-written archive stays behind under its unique name.
		kind := classify(ctx, err, UnexpectedIO)
		msg := p.text("unexpected_error", nil)
		if kind == ArchiveToolFailure {
			msg = p.text("error_compressing", nil)
		}
		return p.fail(res, kind, err, progress, msg)
	}
	if info, err := os.Stat(local); err == nil {
		res.Size = info.Size()
	}

	if sync == nil {
		progress.Report(100, p.text("backup_finished", nil))
		res.OK = true
		res.Path = local
		p.logger.Info("Backup of %s saved to %s", target, local)
		return res
	}

	if err := ctx.Err(); err != nil {
		return p.fail(res, Cancelled, err, progress, "")
	}
	progress.Report(70, p.text("syncing_backup", nil))
	dest, err := sync.Store(ctx, local)
	if err != nil {
		return p.fail(res, classify(ctx, err, UnexpectedIO), err, progress, p.text("unexpected_error", nil))
	}
	p.removeStaging(local)

	progress.Report(100, p.text("backup_finished", nil))
	res.OK = true
	res.Synced = true
	res.Path = dest
	p.logger.Info("Backup of %s synced to %s", target, dest)
	return res
}

func (p *Pipeline) compactingText(target targets.Target) string {
	if target.Kind == types.TargetCustom {
		return p.text("compacting", nil) + " '" + target.Name + "'"
	}
	return p.text("compacting", nil) + " " + target.Label()
}
