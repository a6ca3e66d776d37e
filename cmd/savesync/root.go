package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/version"
)

type rootOptions struct {
	configPath string
	debug      bool
	useTUI     bool
	assumeYes  bool

	bootstrap *logging.BootstrapLogger
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	if opts.bootstrap == nil {
		opts.bootstrap = logging.NewBootstrapLogger()
	}
	cmd := &cobra.Command{
		Use:           "savesync",
		Short:         "Back up and restore emulator save data through a synchronized folder",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(version.Full() + "\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (default: per-user config dir)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.useTUI, "tui", false, "show confirmations and reports in the terminal UI")
	flags.BoolVarP(&opts.assumeYes, "yes", "y", false, "answer yes to confirmations")

	cmd.AddCommand(
		newRunCmd(opts, runBackup),
		newRunCmd(opts, runRestore),
		newTargetsCmd(opts),
		newExtrasCmd(opts),
		newArchivesCmd(opts),
		newHistoryCmd(opts),
		newScheduleCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		},
	}
}
