package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tis24dev/savesync/internal/config"
	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/types"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration file",
	}
	cmd.AddCommand(
		newConfigShowCmd(opts),
		newConfigInitCmd(opts),
		newConfigUpgradeCmd(opts),
		newConfigSyncPathCmd(opts),
		newConfigLanguageCmd(opts),
	)
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			cfg := a.cfg
			a.printf("CONFIG=%s (exists: %t)\n", cfg.ConfigPath, cfg.Exists)
			a.printf("LANGUAGE=%s (%s)\n", cfg.Language, a.msgs.Language())
			a.printf("SYNC_PATH=%s\n", orDash(cfg.SyncPath))
			a.printf("STAGING_DIR=%s\n", cfg.StagingDir)
			a.printf("EXTRAS_FILE=%s\n", cfg.ExtrasFile)
			a.printf("ARCHIVER_PATH=%s\n", orDash(cfg.ArchiverPath))
			a.printf("SEAL_ARCHIVES=%t\n", cfg.SealArchives)
			a.printf("HISTORY=%s (enabled: %t)\n", cfg.HistoryPath, cfg.HistoryEnabled)
			a.printf("METRICS=%s (enabled: %t)\n", cfg.MetricsPath, cfg.MetricsEnabled)
			a.printf("SCHEDULE=%s\n", cfg.Schedule)
			return nil
		},
	}
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the configuration file with detected defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cfg.Exists {
				return withExitCode(types.ExitConfigError, fmt.Errorf("%s already exists (use config upgrade)", a.cfg.ConfigPath))
			}
			// First-run defaults are applied in memory by LoadConfig; Save
			// persists them together with the template.
			return detectDefaults(a)
		},
	}
}

func newConfigUpgradeCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Append settings missing from an older configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			result, err := config.UpgradeConfigFile(path, dryRun)
			if err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			out := cmd.OutOrStdout()
			if !result.Changed {
				fmt.Fprintln(out, "Configuration is up to date.")
				return nil
			}
			verb := "Added"
			if dryRun {
				verb = "Would add"
			}
			fmt.Fprintf(out, "%s: %s\n", verb, strings.Join(result.MissingKeys, ", "))
			if result.BackupPath != "" {
				fmt.Fprintf(out, "Previous file saved to %s\n", result.BackupPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report missing keys")
	return cmd
}

func newConfigSyncPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-path <folder>",
		Short: "Set the synchronized folder receiving archives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			a.cfg.SetSyncPath(abs)
			if err := a.cfg.Save(); err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			a.printf("SYNC_PATH=%s\n", abs)
			return nil
		},
	}
}

func newConfigLanguageCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "language <code>",
		Short: "Set the message language (EN, PT or a BCP 47 tag)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			msgs, err := i18n.Load(args[0], a.cfg.LocalesDir)
			if err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			a.cfg.SetLanguage(strings.ToUpper(args[0]))
			if err := a.cfg.Save(); err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			a.printf("LANGUAGE=%s (%s)\n", a.cfg.Language, msgs.Language())
			return nil
		},
	}
}
