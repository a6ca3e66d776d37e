package main

import (
	"bufio"
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/registry"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/tui/components"
	"github.com/tis24dev/savesync/internal/types"
)

func newExtrasCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extras",
		Short: "Manage user-defined extra folders",
	}
	cmd.AddCommand(
		newExtrasAddCmd(opts),
		newExtrasListCmd(opts),
		newExtrasToggleCmd(opts, true),
		newExtrasToggleCmd(opts, false),
		newExtrasRenameCmd(opts),
		newExtrasRemoveCmd(opts),
	)
	return cmd
}

// extrasCommand loads the app and hands the extras store to fn.
func extrasCommand(opts *rootOptions, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}

func newExtrasAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <folder>",
		Short: "Register a folder (an existing name is updated in place)",
		Args:  cobra.ExactArgs(2),
		RunE: extrasCommand(opts, func(_ *cobra.Command, a *app, args []string) error {
			extra, err := registry.NewExtra(args[0], args[1])
			if err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			var replaced bool
			if err := a.extras.Update(func(d *registry.Data) error {
				replaced = d.Upsert(extra)
				return nil
			}); err != nil {
				return err
			}
			if replaced {
				a.logger.Debug("Extra %q updated", extra.Name)
			}
			a.println(a.msgs.Format("extra_saved", i18n.Vars{"name": extra.Name, "path": extra.RootPath}))
			return nil
		}),
	}
}

func newExtrasListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered extras",
		Args:  cobra.NoArgs,
		RunE: extrasCommand(opts, func(_ *cobra.Command, a *app, _ []string) error {
			data := a.extras.Load()
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tENABLED\tPREFIX\tFOLDER")
			for _, e := range data.Extras {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, yesNo(e.Enabled), targets.CustomPrefix(e.Name), e.RootPath)
			}
			return w.Flush()
		}),
	}
}

func newExtrasToggleCmd(opts *rootOptions, enabled bool) *cobra.Command {
	use, short := "disable <name>", "Exclude an extra from runs"
	if enabled {
		use, short = "enable <name>", "Include an extra in runs"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: extrasCommand(opts, func(_ *cobra.Command, a *app, args []string) error {
			return a.extras.Update(func(d *registry.Data) error {
				if !d.SetEnabled(args[0], enabled) {
					return withExitCode(types.ExitConfigError, fmt.Errorf("%s", a.msgs.Format("extra_not_found", i18n.Vars{"name": args[0]})))
				}
				return nil
			})
		}),
	}
}

func newExtrasRenameCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename an extra (existing archives keep the old prefix)",
		Args:  cobra.ExactArgs(2),
		RunE: extrasCommand(opts, func(_ *cobra.Command, a *app, args []string) error {
			oldName, newName := args[0], args[1]
			if err := a.extras.Update(func(d *registry.Data) error {
				return d.Rename(oldName, newName)
			}); err != nil {
				return withExitCode(types.ExitConfigError, err)
			}
			oldPrefix, newPrefix := targets.CustomPrefix(oldName), targets.CustomPrefix(newName)
			if oldPrefix != newPrefix {
				a.logger.Warning("%s", a.msgs.Format("rename_orphans", i18n.Vars{"old": oldPrefix, "new": newName}))
			}
			return nil
		}),
	}
}

func newExtrasRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Forget an extra (its archives are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: extrasCommand(opts, func(cmd *cobra.Command, a *app, args []string) error {
			name := args[0]
			if _, ok := a.extras.Load().Find(name); !ok {
				return withExitCode(types.ExitConfigError, fmt.Errorf("%s", a.msgs.Format("extra_not_found", i18n.Vars{"name": name})))
			}
			ok, err := a.confirm(cmd.Context(), a.msgs.Format("confirm_remove_extra", i18n.Vars{"name": name}))
			if err != nil {
				return err
			}
			if !ok {
				a.println(a.msgs.T("operation_cancelled"))
				return nil
			}
			if err := a.extras.Update(func(d *registry.Data) error {
				d.Remove(name)
				return nil
			}); err != nil {
				return err
			}
			a.println(a.msgs.Format("extra_removed", i18n.Vars{"name": name}))
			return nil
		}),
	}
}

// confirm asks a yes/no question through --yes, the TUI modal or a prompt.
func (a *app) confirm(ctx context.Context, question string) (bool, error) {
	if a.opts.assumeYes {
		return true, nil
	}
	if err := ensureInteractive(a.in); err != nil {
		return false, fmt.Errorf("confirmation required, rerun with --yes: %w", err)
	}
	if a.opts.useTUI {
		return components.Confirm(a.labels(), "savesync", question)
	}
	return promptYesNo(ctx, bufio.NewReader(a.in), a.out, question, a.msgs.T("answer_yes_no"), false)
}
