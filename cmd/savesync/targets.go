package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tis24dev/savesync/internal/orchestrator"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/types"
)

func newTargetsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Inspect and configure the emulator targets",
	}
	cmd.AddCommand(newTargetsListCmd(opts), newTargetsSetCmd(opts), newTargetsDetectCmd(opts))
	return cmd
}

func newTargetsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in targets and extras in run order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tENABLED\tVALID\tROOT")
			for _, t := range orchestrator.Targets(a.cfg, a.extras.Load()) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Kind, t.String(), yesNo(t.Enabled), yesNo(t.Validate()), orDash(t.RootPath))
			}
			return w.Flush()
		},
	}
}

func newTargetsSetCmd(opts *rootOptions) *cobra.Command {
	var (
		path    string
		enable  bool
		disable bool
	)
	cmd := &cobra.Command{
		Use:   "set <ppsspp|pcsx2|citra>",
		Short: "Change the root folder or enabled state of a built-in target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := types.ParseTargetKind(strings.ToLower(strings.TrimSpace(args[0])))
			if !ok || !kind.IsBuiltin() {
				return withExitCode(types.ExitConfigError, fmt.Errorf("unknown built-in target %q", args[0]))
			}
			if !cmd.Flags().Changed("path") && !enable && !disable {
				return withExitCode(types.ExitConfigError, fmt.Errorf("nothing to change: use --path, --enable or --disable"))
			}

			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			settings := a.cfg.Emulator(kind)
			if cmd.Flags().Changed("path") {
				settings.Path = ""
				if strings.TrimSpace(path) != "" {
					abs, err := filepath.Abs(path)
					if err != nil {
						return withExitCode(types.ExitConfigError, err)
					}
					settings.Path = abs
					if !targets.Validate(kind, abs) {
						a.logger.Warning("%s has no %s save folder yet", abs, kind)
					}
				}
			}
			if enable {
				settings.Enabled = true
			}
			if disable {
				settings.Enabled = false
			}
			if err := a.cfg.SetEmulator(kind, settings); err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			if err := a.cfg.Save(); err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			a.printf("%s: root=%s enabled=%t\n", kind, orDash(settings.Path), settings.Enabled)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "root folder of the emulator (empty clears it)")
	cmd.Flags().BoolVar(&enable, "enable", false, "include the target in runs")
	cmd.Flags().BoolVar(&disable, "disable", false, "exclude the target from runs")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
	return cmd
}

func newTargetsDetectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Fill empty roots and the sync folder from the usual install locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			return detectDefaults(a)
		},
	}
}

func detectDefaults(a *app) error {
	changed := a.cfg.DetectMissing()
	if len(changed) == 0 && a.cfg.Exists {
		a.println("Nothing detected.")
		return nil
	}
	if err := a.cfg.Save(); err != nil {
		return withExitCode(types.ExitConfigError, err)
	}
	for _, key := range changed {
		value, _ := a.cfg.Get(key)
		a.printf("%s=%s\n", key, value)
	}
	a.printf("Saved %s\n", a.cfg.ConfigPath)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
