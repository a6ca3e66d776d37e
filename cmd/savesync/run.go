package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/orchestrator"
	"github.com/tis24dev/savesync/internal/pipeline"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/tui"
	"github.com/tis24dev/savesync/internal/tui/components"
	"github.com/tis24dev/savesync/internal/types"
)

type runMode struct {
	op    types.Operation
	short string
}

var (
	runBackup  = runMode{op: types.OperationBackup, short: "Archive every enabled target and copy it to the sync folder"}
	runRestore = runMode{op: types.OperationRestore, short: "Restore every enabled target from its newest archive"}
)

func newRunCmd(opts *rootOptions, mode runMode) *cobra.Command {
	return &cobra.Command{
		Use:   mode.op.String() + " [target...]",
		Short: mode.short,
		Long: mode.short + ".\n\nTargets are the built-in kinds (ppsspp, pcsx2, citra) or extra names; " +
			"without arguments every enabled target runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.runOperation(cmd, mode.op, args)
		},
	}
}

func (a *app) runOperation(cmd *cobra.Command, op types.Operation, names []string) error {
	list := orchestrator.Select(orchestrator.Targets(a.cfg, a.extras.Load()), names)
	if len(names) > 0 && len(list) == 0 {
		return withExitCode(types.ExitConfigError, fmt.Errorf("no target matches %s", strings.Join(names, ", ")))
	}
	if !anyEnabled(list) {
		a.println(a.msgs.T("no_targets_enabled"))
		return nil
	}

	sync, err := a.syncStore()
	if err != nil {
		return err
	}

	logger := a.runLogger(op.String())
	orch, err := a.newOrchestrator(logger)
	if err != nil {
		return err
	}

	report, err := execute(cmd.Context(), orch, op, list, sync, logger)
	if err != nil {
		if errors.Is(err, orchestrator.ErrBusy) {
			a.println(a.msgs.T("run_busy"))
			return withExitCode(types.ExitBusyError, nil)
		}
		return err
	}

	a.showReport(report)
	if code := report.ExitCode(); code != types.ExitSuccess {
		return withExitCode(code, nil)
	}
	return nil
}

// syncStore returns the sync folder as a pipeline store, or a nil store
// when no folder is configured.
func (a *app) syncStore() (pipeline.SyncStore, error) {
	folder, err := a.syncFolder()
	if err != nil {
		return nil, err
	}
	if folder == nil {
		a.logger.Warning("%s", a.msgs.T("sync_folder_missing"))
		return nil, nil
	}
	return folder, nil
}

func execute(ctx context.Context, orch *orchestrator.Orchestrator, op types.Operation, list []targets.Target, sync pipeline.SyncStore, logger *logging.Logger) (orchestrator.Report, error) {
	progress := func(percent int, message string) {
		logger.Info("[%3d%%] %s", percent, message)
	}
	if op == types.OperationRestore {
		return orch.RunRestore(ctx, list, sync, progress)
	}
	return orch.RunBackup(ctx, list, sync, progress)
}

func anyEnabled(list []targets.Target) bool {
	for _, t := range list {
		if t.Enabled {
			return true
		}
	}
	return false
}

func reportTitle(msgs i18n.Messages, op types.Operation) string {
	if op == types.OperationRestore {
		return msgs.Format("report_restore_title", nil)
	}
	return msgs.Format("report_backup_title", nil)
}

func reportSummary(msgs i18n.Messages, report orchestrator.Report) string {
	return msgs.Format("report_summary", i18n.Vars{
		"ok":       fmt.Sprint(report.Succeeded()),
		"failed":   fmt.Sprint(report.Failed()),
		"warnings": fmt.Sprint(report.Warnings()),
		"size":     humanize.Bytes(uint64(max(report.Bytes(), 0))),
	})
}

// reportLines tags each result with the status used for coloring.
func reportLines(msgs i18n.Messages, report orchestrator.Report) []components.ReportLine {
	lines := make([]components.ReportLine, 0, len(report.Results)+1)
	for _, res := range report.Results {
		status := "ok"
		switch {
		case res.Kind == pipeline.Cancelled:
			status = "skipped"
		case !res.OK:
			status = "error"
		case report.Op == types.OperationBackup && !res.Synced:
			status = "warning"
		}
		lines = append(lines, components.ReportLine{Status: status, Text: res.Message(msgs)})
	}
	return lines
}

// showReport prints the consolidated report, in a modal when --tui is set
// and stdin is a terminal.
func (a *app) showReport(report orchestrator.Report) {
	title := reportTitle(a.msgs, report.Op)
	summary := reportSummary(a.msgs, report)
	lines := reportLines(a.msgs, report)

	if a.opts.useTUI && ensureInteractive(a.in) == nil {
		tuiLines := append(lines, components.ReportLine{Status: "info", Text: summary})
		err := components.RunReport(a.labels(), title, tuiLines)
		if err == nil {
			return
		}
		a.logger.Debug("TUI report unavailable: %v", err)
	}

	a.println(title)
	for _, line := range lines {
		a.printf("  %s %s\n", tui.StatusSymbol(line.Status), line.Text)
	}
	a.println(summary)
}
