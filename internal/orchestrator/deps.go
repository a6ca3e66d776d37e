package orchestrator

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tis24dev/savesync/internal/checks"
	"github.com/tis24dev/savesync/internal/history"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/metrics"
	"github.com/tis24dev/savesync/internal/pipeline"
	"github.com/tis24dev/savesync/internal/targets"
)

// TargetRunner runs one target through the backup or restore pipeline.
type TargetRunner interface {
	Backup(ctx context.Context, target targets.Target, sync pipeline.SyncStore, progress pipeline.ProgressFunc) pipeline.Result
	Restore(ctx context.Context, target targets.Target, sync pipeline.SyncStore, progress pipeline.ProgressFunc) pipeline.Result
}

// RunLock guards against runs in other processes.
type RunLock interface {
	Acquire(ctx context.Context) error
	Release() error
}

// Recorder appends run results to the history.
type Recorder interface {
	Record(ctx context.Context, entries ...history.Entry) error
}

// MetricsExporter publishes a run summary.
type MetricsExporter interface {
	Export(m *metrics.RunMetrics) error
}

// TimeProvider abstracts time acquisition for determinism in tests.
type TimeProvider interface {
	Now() time.Time
}

// Deps groups optional orchestrator dependencies. Pipeline is required.
type Deps struct {
	Logger   *logging.Logger
	Pipeline TargetRunner
	Lock     RunLock
	History  Recorder
	Metrics  MetricsExporter
	Time     TimeProvider
	NewRunID func() string
	Hostname string
	Version  string
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }

func newRunID() string { return uuid.NewString() }

// CheckerLock adapts the pre-run checker to RunLock.
type CheckerLock struct {
	Checker *checks.Checker
}

// Acquire runs the pre-run checks, taking the lock file last.
func (l CheckerLock) Acquire(ctx context.Context) error {
	_, err := l.Checker.RunAllChecks(ctx)
	return err
}

// Release removes the lock file.
func (l CheckerLock) Release() error {
	return l.Checker.ReleaseLock()
}

func defaultHostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
