package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tis24dev/savesync/internal/archiver"
	"github.com/tis24dev/savesync/internal/checks"
	"github.com/tis24dev/savesync/internal/config"
	"github.com/tis24dev/savesync/internal/history"
	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/metrics"
	"github.com/tis24dev/savesync/internal/orchestrator"
	"github.com/tis24dev/savesync/internal/pipeline"
	"github.com/tis24dev/savesync/internal/registry"
	"github.com/tis24dev/savesync/internal/seal"
	"github.com/tis24dev/savesync/internal/storage"
	"github.com/tis24dev/savesync/internal/tui/components"
	"github.com/tis24dev/savesync/internal/types"
	"github.com/tis24dev/savesync/internal/version"
)

// app is the state shared by every command once the configuration is loaded.
type app struct {
	opts    *rootOptions
	cfg     *config.Config
	logger  *logging.Logger
	msgs    *i18n.Catalog
	extras  *registry.Store
	out     io.Writer
	errOut  io.Writer
	in      io.Reader
	closers []func()
}

func loadApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, withExitCode(types.ExitConfigError, err)
	}

	level := cfg.DebugLevel
	if opts.debug {
		level = types.LogLevelDebug
	}
	logger := logging.New(level, cfg.UseColor)
	logger.SetOutput(cmd.ErrOrStderr())

	a := &app{
		opts:   opts,
		cfg:    cfg,
		logger: logger,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		in:     cmd.InOrStdin(),
	}

	if cfg.LogPath != "" {
		fileOpts := logging.DefaultFileOptions()
		fileOpts.MaxSizeMB = cfg.LogMaxSizeMB
		fileOpts.MaxBackups = cfg.LogMaxBackups
		if err := logger.OpenLogFile(cfg.LogPath, fileOpts); err != nil {
			logger.Warning("Log file disabled: %v", err)
		} else {
			a.closers = append(a.closers, func() { _ = logger.CloseLogFile() })
		}
	}
	logging.SetDefaultLogger(logger)
	opts.bootstrap.Flush(logger)

	if !cfg.Exists {
		logger.Info("No configuration at %s, using detected defaults", cfg.ConfigPath)
	}

	msgs, err := i18n.Load(cfg.Language, cfg.LocalesDir)
	if err != nil {
		a.Close()
		return nil, withExitCode(types.ExitConfigError, err)
	}
	a.msgs = msgs
	logger.Debug("Language %s (available: %v)", msgs.Language(), msgs.Available())

	a.extras = registry.NewStore(logger, cfg.ExtrasFile)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(text string) {
	fmt.Fprintln(a.out, text)
}

func (a *app) labels() components.Labels {
	return components.Labels{
		Yes:      a.msgs.T("label_yes"),
		No:       a.msgs.T("label_no"),
		OK:       a.msgs.T("label_ok"),
		NavHint:  a.msgs.T("nav_hint"),
		Continue: a.msgs.T("press_enter"),
	}
}

// storageOptions builds the sync folder options, including sealing.
func (a *app) storageOptions() (storage.Options, error) {
	opts := storage.Options{
		FSTimeout:    a.cfg.FSTimeout,
		MinFreeBytes: uint64(max(a.cfg.MinFreeSpaceMB, 0)) * humanize.MByte,
	}
	if a.cfg.SealArchives {
		sealer, err := seal.NewSealer(a.cfg.AgeRecipients, a.cfg.AgeRecipientFile)
		if err != nil {
			return opts, withExitCode(types.ExitConfigError, fmt.Errorf("sealing enabled: %w", err))
		}
		a.logger.Debug("Sealing sync copies for %d recipient(s)", sealer.Recipients())
		opts.Sealer = sealer
	}
	if identity := a.cfg.AgeIdentityFile; identity != "" {
		prompt := passphrasePrompt(a.errOut, identity)
		opts.Unsealer = func() (*seal.Unsealer, error) {
			return seal.NewUnsealer(identity, prompt)
		}
	}
	return opts, nil
}

// syncFolder returns the configured sync folder, or nil when none is set.
func (a *app) syncFolder() (*storage.SyncFolder, error) {
	if a.cfg.SyncPath == "" {
		return nil, nil
	}
	opts, err := a.storageOptions()
	if err != nil {
		return nil, err
	}
	return storage.NewSyncFolder(a.logger, a.cfg.SyncPath, opts), nil
}

// runLogger returns the logger for one run: a session logger when session
// logs are configured, otherwise the application logger.
func (a *app) runLogger(flow string) *logging.Logger {
	if a.cfg.SessionLogDir == "" {
		return a.logger
	}
	session, err := logging.StartSession(a.cfg.SessionLogDir, flow, a.logger.GetLevel(), a.cfg.UseColor)
	if err != nil {
		a.logger.Warning("Session log disabled: %v", err)
		return a.logger
	}
	session.SetOutput(a.errOut)
	a.closers = append(a.closers, session.Close)
	a.logger.Debug("Session log: %s", session.Path)
	return session.Logger
}

// newOrchestrator wires the pipeline, run lock, history and metrics.
func (a *app) newOrchestrator(logger *logging.Logger) (*orchestrator.Orchestrator, error) {
	cfg := a.cfg

	p := pipeline.New(pipeline.Deps{
		Logger:     logger,
		Locator:    archiver.NewLocator(logger, cfg.ArchiverPath, cfg.ArchiverKind),
		Runner:     archiver.NewRunner(logger, cfg.ArchiverTimeout),
		Messages:   a.msgs,
		StagingDir: cfg.StagingDir,
	})

	checkerCfg := checks.GetDefaultCheckerConfig(cfg.StagingDir, cfg.LockPath)
	checkerCfg.MaxLockAge = cfg.MaxLockAge
	checkerCfg.MinFreeBytes = uint64(max(cfg.MinFreeSpaceMB, 0)) * humanize.MByte
	checkerCfg.FSTimeout = cfg.FSTimeout
	if err := checkerCfg.Validate(); err != nil {
		return nil, withExitCode(types.ExitConfigError, err)
	}

	deps := orchestrator.Deps{
		Logger:   logger,
		Pipeline: p,
		Lock:     orchestrator.CheckerLock{Checker: checks.NewChecker(logger, checkerCfg)},
		Version:  version.String(),
	}
	if cfg.HistoryEnabled {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			logger.Warning("Run history disabled: %v", err)
		} else {
			deps.History = store
			a.closers = append(a.closers, func() { _ = store.Close() })
		}
	}
	if cfg.MetricsEnabled {
		deps.Metrics = metrics.NewPrometheusExporter(cfg.MetricsPath, logger)
	}
	return orchestrator.New(deps), nil
}
