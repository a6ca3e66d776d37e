package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tis24dev/savesync/internal/history"
	"github.com/tis24dev/savesync/internal/types"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded backup and restore results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.cfg.HistoryEnabled {
				return withExitCode(types.ExitConfigError, fmt.Errorf("run history is disabled (HISTORY_ENABLED=false)"))
			}
			store, err := history.Open(a.cfg.HistoryPath)
			if err != nil {
				return withExitCode(types.ExitStorageError, err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return withExitCode(types.ExitStorageError, err)
			}
			if len(entries) == 0 {
				a.println(a.msgs.T("no_history"))
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tOP\tTARGET\tSTATUS\tSIZE\tDURATION\tARCHIVE")
			for _, e := range entries {
				status := "ok"
				if !e.OK {
					status = e.Kind
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.StartedAt.Format("2006-01-02 15:04:05"), e.Op, e.Target, status,
					e.HumanSize(), e.Duration.Truncate(time.Millisecond), orDash(e.Archive))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 shows all)")
	return cmd
}
