// Package orchestrator runs backups and restores over the ordered target
// list, one run at a time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tis24dev/savesync/internal/checks"
	"github.com/tis24dev/savesync/internal/history"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/metrics"
	"github.com/tis24dev/savesync/internal/pipeline"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/types"
)

// ErrBusy is returned when a run is already in progress in this process or
// another one.
var ErrBusy = errors.New("another run is in progress")

// Orchestrator coordinates runs over many targets.
type Orchestrator struct {
	logger   *logging.Logger
	pipeline TargetRunner
	lock     RunLock
	history  Recorder
	metrics  MetricsExporter
	clock    TimeProvider
	runID    func() string
	hostname string
	version  string

	busy atomic.Bool
}

// New creates an orchestrator from deps.
func New(deps Deps) *Orchestrator {
	o := &Orchestrator{
		logger:   deps.Logger,
		pipeline: deps.Pipeline,
		lock:     deps.Lock,
		history:  deps.History,
		metrics:  deps.Metrics,
		clock:    deps.Time,
		runID:    deps.NewRunID,
		hostname: deps.Hostname,
		version:  deps.Version,
	}
	if o.logger == nil {
		o.logger = logging.GetDefaultLogger()
	}
	if o.clock == nil {
		o.clock = realTimeProvider{}
	}
	if o.runID == nil {
		o.runID = newRunID
	}
	if o.hostname == "" {
		o.hostname = defaultHostname()
	}
	return o
}

// Busy reports whether a run is in progress in this process.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// RunBackup backs up every enabled target in order. sync may be nil, in
// which case archives stay in the staging directory.
func (o *Orchestrator) RunBackup(ctx context.Context, list []targets.Target, sync pipeline.SyncStore, onProgress pipeline.ProgressFunc) (Report, error) {
	return o.run(ctx, types.OperationBackup, list, sync, onProgress)
}

// RunRestore restores every enabled target in order from sync.
func (o *Orchestrator) RunRestore(ctx context.Context, list []targets.Target, sync pipeline.SyncStore, onProgress pipeline.ProgressFunc) (Report, error) {
	return o.run(ctx, types.OperationRestore, list, sync, onProgress)
}

func (o *Orchestrator) run(ctx context.Context, op types.Operation, list []targets.Target, sync pipeline.SyncStore, onProgress pipeline.ProgressFunc) (Report, error) {
	if o.pipeline == nil {
		return Report{}, fmt.Errorf("orchestrator has no pipeline")
	}
	if !o.busy.CompareAndSwap(false, true) {
		return Report{}, ErrBusy
	}
	defer o.busy.Store(false)

	if o.lock != nil {
		if err := o.lock.Acquire(ctx); err != nil {
			if errors.Is(err, checks.ErrLocked) {
				return Report{}, ErrBusy
			}
			return Report{}, fmt.Errorf("pre-run checks failed: %w", err)
		}
		defer func() {
			if err := o.lock.Release(); err != nil {
				o.logger.Warning("%v", err)
			}
		}()
	}

	report := Report{
		RunID: o.runID(),
		Op:    op,
		Start: o.clock.Now(),
	}
	o.logger.Phase("%s run %s", op, report.RunID)

	for _, target := range list {
		if !target.Enabled {
			o.logger.Skip("%s: disabled", target)
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, pipeline.CancelledResult(op, target, err))
			continue
		}

		o.logger.Step("%s %s", op, target)
		var res pipeline.Result
		if op == types.OperationRestore {
			res = o.pipeline.Restore(ctx, target, sync, onProgress)
		} else {
			res = o.pipeline.Backup(ctx, target, sync, onProgress)
		}
		o.logger.Debug("%s", res)
		report.Results = append(report.Results, res)
	}

	report.End = o.clock.Now()
	o.logger.Info("%s run %s finished: %d ok, %d failed in %s",
		op, report.RunID, report.Succeeded(), report.Failed(), report.End.Sub(report.Start).Truncate(time.Millisecond))

	o.recordHistory(report)
	o.exportMetrics(report)
	return report, nil
}

// recordHistory uses a fresh context so cancelled runs are still recorded.
func (o *Orchestrator) recordHistory(report Report) {
	if o.history == nil || len(report.Results) == 0 {
		return
	}
	entries := make([]history.Entry, 0, len(report.Results))
	started := report.Start
	for _, res := range report.Results {
		entries = append(entries, history.Entry{
			RunID:     report.RunID,
			Op:        report.Op,
			Target:    res.Target.String(),
			Archive:   res.Archive,
			OK:        res.OK,
			Kind:      string(res.Kind),
			Detail:    res.Detail,
			Size:      res.Size,
			StartedAt: started,
			Duration:  res.Duration,
		})
		started = started.Add(res.Duration)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.history.Record(ctx, entries...); err != nil {
		o.logger.Warning("Failed to record run history: %v", err)
	}
}

func (o *Orchestrator) exportMetrics(report Report) {
	if o.metrics == nil {
		return
	}
	m := &metrics.RunMetrics{
		Hostname:      o.hostname,
		Version:       o.version,
		RunID:         report.RunID,
		Op:            string(report.Op),
		StartTime:     report.Start,
		EndTime:       report.End,
		Duration:      report.End.Sub(report.Start),
		ExitCode:      report.ExitCode().Int(),
		TargetsTotal:  len(report.Results),
		TargetsFailed: report.Failed(),
		ArchiveBytes:  report.Bytes(),
		WarningCount:  report.Warnings(),
	}
	if err := o.metrics.Export(m); err != nil {
		o.logger.Warning("Failed to export metrics: %v", err)
	}
}
