package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tis24dev/savesync/internal/orchestrator"
	"github.com/tis24dev/savesync/internal/storage"
	"github.com/tis24dev/savesync/internal/types"
)

func newArchivesCmd(opts *rootOptions) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "archives",
		Short: "List archives in the sync folder (or staging), newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			prefix := ""
			if target != "" {
				matched := orchestrator.Select(orchestrator.Targets(a.cfg, a.extras.Load()), []string{target})
				if len(matched) == 0 {
					return withExitCode(types.ExitConfigError, fmt.Errorf("no target matches %s", target))
				}
				prefix = matched[0].Prefix()
			}

			folder, err := a.archiveFolder()
			if err != nil {
				return err
			}
			archives, err := folder.List(cmd.Context(), prefix)
			if err != nil {
				return withExitCode(types.ExitStorageError, err)
			}
			if len(archives) == 0 {
				a.println(a.msgs.T("no_archives"))
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ARCHIVE\tCREATED\tSIZE\tSEALED\tLOCATION")
			for _, archive := range archives {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", archive.Name, archive.Timestamp.Format("2006-01-02 15:04:05"),
					archive.HumanSize(), yesNo(archive.Sealed), archive.Location)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "only archives of this target (kind or extra name)")
	return cmd
}

// archiveFolder is the sync folder, or the staging directory when no sync
// folder is configured.
func (a *app) archiveFolder() (*storage.SyncFolder, error) {
	folder, err := a.syncFolder()
	if err != nil || folder != nil {
		return folder, err
	}
	opts, err := a.storageOptions()
	if err != nil {
		return nil, err
	}
	opts.Location = types.StorageStaging
	return storage.NewSyncFolder(a.logger, a.cfg.StagingDir, opts), nil
}
