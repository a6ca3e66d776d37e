package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/orchestrator"
	"github.com/tis24dev/savesync/internal/scheduler"
	"github.com/tis24dev/savesync/internal/types"
)

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run backups periodically until interrupted",
		Long: "Run backups on a cron schedule until interrupted. Expressions take five or six " +
			"fields (seconds optional) or descriptors such as @daily and @every 6h.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("cron") {
				spec = a.cfg.Schedule
			}
			if err := scheduler.Validate(spec); err != nil {
				return withExitCode(types.ExitConfigError, err)
			}

			sync, err := a.syncStore()
			if err != nil {
				return err
			}
			logger := a.runLogger("schedule")
			orch, err := a.newOrchestrator(logger)
			if err != nil {
				return err
			}

			job := func(ctx context.Context) error {
				list := orchestrator.Targets(a.cfg, a.extras.Load())
				report, err := execute(ctx, orch, types.OperationBackup, list, sync, logger)
				if err != nil {
					return err
				}
				a.showReport(report)
				return nil
			}

			s, err := scheduler.New(logger, spec, job)
			if err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			ctx := cmd.Context()
			if err := s.Start(ctx); err != nil {
				return err
			}
			a.println(a.msgs.Format("schedule_started", i18n.Vars{
				"spec": spec,
				"next": s.Next().Format(time.RFC3339),
			}))

			<-ctx.Done()
			s.Stop()
			fired, skipped := s.Stats()
			logger.Info("Scheduler ran %d backup(s), skipped %d", fired, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", "cron expression (default: SCHEDULE from the configuration)")
	return cmd
}
