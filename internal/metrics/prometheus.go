package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tis24dev/savesync/internal/logging"
)

// FileName is the textfile written into the exporter directory.
const FileName = "savesync.prom"

// RunMetrics represents the subset of run statistics exported as Prometheus metrics.
type RunMetrics struct {
	Hostname string
	Version  string
	RunID    string
	// Op is "backup" or "restore".
	Op string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	ExitCode      int
	TargetsTotal  int
	TargetsFailed int
	ArchiveBytes  int64
	WarningCount  int
}

// PrometheusExporter writes run metrics in Prometheus textfile format for node_exporter.
type PrometheusExporter struct {
	textfileDir string
	logger      *logging.Logger
}

// NewPrometheusExporter creates a new PrometheusExporter using the provided directory.
func NewPrometheusExporter(textfileDir string, logger *logging.Logger) *PrometheusExporter {
	return &PrometheusExporter{
		textfileDir: strings.TrimRight(textfileDir, "/"),
		logger:      logger,
	}
}

// Path returns the final textfile location.
func (pe *PrometheusExporter) Path() string {
	return filepath.Join(pe.textfileDir, FileName)
}

// Export writes the given metrics snapshot to savesync.prom in textfileDir.
func (pe *PrometheusExporter) Export(m *RunMetrics) error {
	if pe == nil || m == nil {
		return nil
	}

	if pe.textfileDir == "" {
		return fmt.Errorf("metrics textfile directory is empty")
	}

	if err := os.MkdirAll(pe.textfileDir, 0o755); err != nil {
		return fmt.Errorf("create metrics directory %s: %w", pe.textfileDir, err)
	}

	tmpPath := pe.Path() + ".tmp"
	finalPath := pe.Path()

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create metrics file %s: %w", tmpPath, err)
	}
	defer f.Close()

	op := m.Op
	if op == "" {
		op = "backup"
	}

	writeMetric := func(name, help, format string, value interface{}) {
		fmt.Fprintf(f, "# HELP %s %s\n", name, help)
		fmt.Fprintf(f, "# TYPE %s gauge\n", name)
		fmt.Fprintf(f, "%s{op=%q} "+format+"\n", name, op, value)
	}

	startTs := float64(m.StartTime.Unix())
	endTs := float64(m.EndTime.Unix())
	if m.EndTime.IsZero() && !m.StartTime.IsZero() {
		endTs = float64(m.StartTime.Unix() + int64(m.Duration.Seconds()))
	}

	// Status gauge: 0=success, 1=warning, 2=error
	status := 0
	if m.ExitCode != 0 || m.TargetsFailed > 0 {
		status = 2
	} else if m.WarningCount > 0 {
		status = 1
	}

	writeMetric("savesync_last_run_start_time_seconds", "Unix timestamp of the last run start", "%.0f", startTs)
	writeMetric("savesync_last_run_end_time_seconds", "Unix timestamp of the last run end", "%.0f", endTs)
	writeMetric("savesync_last_run_duration_seconds", "Duration of the last run in seconds", "%.2f", m.Duration.Seconds())
	writeMetric("savesync_last_run_exit_code", "Exit code of the last run", "%d", m.ExitCode)
	writeMetric("savesync_last_run_status", "Status of the last run (0=success,1=warning,2=error)", "%d", status)
	writeMetric("savesync_targets_total", "Targets processed by the last run", "%d", m.TargetsTotal)
	writeMetric("savesync_targets_failed_total", "Targets that failed in the last run", "%d", m.TargetsFailed)
	writeMetric("savesync_archive_bytes", "Bytes of archives written or restored by the last run", "%d", m.ArchiveBytes)

	fmt.Fprintf(f, "# HELP savesync_info Static information about this instance\n")
	fmt.Fprintf(f, "# TYPE savesync_info gauge\n")
	fmt.Fprintf(f, "savesync_info{hostname=%q,version=%q,run_id=%q} 1\n", m.Hostname, m.Version, m.RunID)

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync metrics file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("rename metrics file to %s: %w", finalPath, err)
	}

	if pe.logger != nil {
		pe.logger.Debug("Prometheus metrics exported to %s", finalPath)
	}

	return nil
}
