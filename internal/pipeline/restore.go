package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/storage"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/types"
	"github.com/tis24dev/savesync/pkg/utils"
)

// Restore extracts the newest archive of target found in sync over the
// target's save folder. Extraction overwrites files and is not rolled back.
func (p *Pipeline) Restore(ctx context.Context, target targets.Target, sync SyncStore, progress ProgressFunc) (res Result) {
	start := p.clock.Now()
	res = newResult(types.OperationRestore, target)
	done := p.logger.Timed("restore "+target.String(), "root=%s", target.RootPath)
	defer func() {
		res.Duration = p.clock.Now().Sub(start)
		done(res.Err)
	}()

	if err := target.Check(); err != nil {
		return p.fail(res, InvalidTarget, err, progress, "")
	}
	if target.RootPath == "" || (target.Kind == types.TargetCustom && !utils.DirExists(target.RootPath)) {
		return p.fail(res, SourceNotFound, fmt.Errorf("target root %q not found", target.RootPath), progress, "")
	}
	if sync == nil {
		return p.fail(res, UnexpectedIO, ErrNoSyncFolder, progress, "")
	}

	destDir := target.RestoreDir()
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return p.fail(res, UnexpectedIO, err, progress, p.text("unexpected_error", nil))
	}

	archive, err := sync.Latest(ctx, target.Prefix())
	if err != nil {
		if errors.Is(err, storage.ErrNoArchive) {
			return p.fail(res, NoMatchingArchive, err, progress, "")
		}
		return p.fail(res, classify(ctx, err, UnexpectedIO), err, progress, p.text("unexpected_error", nil))
	}
	res.Archive = archive.PlainName()
	res.Size = archive.Size
	p.logger.Debug("Restore %s: selected %s", target, archive.Path)

	progress.Report(30, p.nameText(target, "copying_backup"))
	staged, err := sync.Fetch(ctx, archive, target.RootPath)
	if err != nil {
		return p.fail(res, classify(ctx, err, UnexpectedIO), err, progress, p.text("unexpected_error", nil))
	}

	tool, err := p.locator.Locate()
	if err != nil {
		p.removeStaging(staged)
		return p.fail(res, CompressorUnavailable, err, progress, "")
	}

	progress.Report(50, p.nameText(target, "extracting_backup"))
	if err := p.runner.Extract(ctx, tool, staged, destDir); err != nil {
		p.removeStaging(staged)
		kind := classify(ctx, err, UnexpectedIO)
		res.Detail = err.Error()
		msg := p.text("unexpected_error", nil)
		if kind == ArchiveToolFailure {
			msg = p.extractErrorText(target, res.Detail)
		}
		return p.fail(res, kind, err, progress, msg)
	}

	progress.Report(90, p.text("removing_temp_file", nil))
	p.removeStaging(staged)

	progress.Report(100, p.text("restore_finished", nil))
	res.OK = true
	res.Path = archive.Path
	p.logger.Info("Restore of %s from %s completed into %s", target, archive.Name, destDir)
	return res
}

func (p *Pipeline) nameText(target targets.Target, key string) string {
	if target.Kind == types.TargetCustom {
		return p.text(key+"_name", i18n.Vars{"name": target.Name})
	}
	return p.text(key, nil)
}

func (p *Pipeline) extractErrorText(target targets.Target, detail string) string {
	if target.Kind == types.TargetCustom {
		return p.text("error_extracting_detail_name", i18n.Vars{"name": target.Name, "detail": detail})
	}
	return p.text("error_extracting", nil)
}
