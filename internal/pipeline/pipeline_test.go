package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tis24dev/savesync/internal/archiver"
	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/storage"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/types"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeLocator struct {
	err   error
	calls int
}

func (l *fakeLocator) Locate() (archiver.Tool, error) {
	l.calls++
	if l.err != nil {
		return archiver.Tool{}, l.err
	}
	return archiver.Tool{Kind: types.Archiver7Zip, Path: "/usr/bin/7z"}, nil
}

// zipRunner stands in for the archiver process using archive/zip.
type zipRunner struct {
	adds, extracts int
	addErr         error
	extractErr     error
	lastItems      []string
}

func (r *zipRunner) Add(_ context.Context, _ archiver.Tool, archive string, items []string) error {
	r.adds++
	r.lastItems = items
	if r.addErr != nil {
		return r.addErr
	}
	return writeZip(archive, items)
}

func (r *zipRunner) Extract(_ context.Context, _ archiver.Tool, archive, destDir string) error {
	r.extracts++
	if r.extractErr != nil {
		return r.extractErr
	}
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, f := range zr.File {
		dest := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeZip(archive string, items []string) error {
	out, err := os.Create(archive)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for _, item := range items {
		base := filepath.Dir(item)
		err := filepath.WalkDir(item, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				return err
			}
			w, err := zw.Create(filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		})
		if err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

type progressLog struct {
	percents []int
	messages []string
}

func (p *progressLog) fn() ProgressFunc {
	return func(percent int, message string) {
		p.percents = append(p.percents, percent)
		p.messages = append(p.messages, message)
	}
}

func (p *progressLog) last() int {
	if len(p.percents) == 0 {
		return -1
	}
	return p.percents[len(p.percents)-1]
}

func (p *progressLog) monotonic() bool {
	for i := 1; i < len(p.percents); i++ {
		if p.percents[i] < p.percents[i-1] {
			return false
		}
	}
	return true
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)

type fixture struct {
	pipeline *Pipeline
	locator  *fakeLocator
	runner   *zipRunner
	staging  string
	sync     *storage.SyncFolder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.New(types.LogLevelDebug, false)
	logger.SetOutput(&bytes.Buffer{})

	f := &fixture{
		locator: &fakeLocator{},
		runner:  &zipRunner{},
		staging: filepath.Join(t.TempDir(), DefaultStagingDir),
	}
	f.sync = storage.NewSyncFolder(logger, filepath.Join(t.TempDir(), "Drive"), storage.Options{})
	f.pipeline = New(Deps{
		Logger:     logger,
		Locator:    f.locator,
		Runner:     f.runner,
		Time:       fixedClock{testNow},
		StagingDir: f.staging,
	})
	return f
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	files := map[string]string{
		"Mcd001.ps2":            "card one",
		"Mcd002.ps2":            "card two",
		"folder/SLUS-1234/icon": "\x00\x01binary",
	}

	tests := []struct {
		name    string
		target  func(root string) targets.Target
		saveRel string
	}{
		{
			name:    "builtin",
			target:  func(root string) targets.Target { return targets.Builtin(types.TargetPCSX2, root, true) },
			saveRel: "memcards",
		},
		{
			name:    "ppsspp legacy layout",
			target:  func(root string) targets.Target { return targets.Builtin(types.TargetPPSSPP, root, true) },
			saveRel: "PSP/SAVEDATA",
		},
		{
			name:    "custom",
			target:  func(root string) targets.Target { return targets.Custom("My Game", root, filepath.Base(root), true) },
			saveRel: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			srcRoot := t.TempDir()
			writeTree(t, filepath.Join(srcRoot, tt.saveRel), files)

			backup := f.pipeline.Backup(context.Background(), tt.target(srcRoot), f.sync, nil)
			require.True(t, backup.OK, backup.String())
			assert.True(t, backup.Synced)

			dstRoot := t.TempDir()
			restore := f.pipeline.Restore(context.Background(), tt.target(dstRoot), f.sync, nil)
			require.True(t, restore.OK, restore.String())

			assert.Equal(t, files, readTree(t, filepath.Join(dstRoot, tt.saveRel)))
		})
	}
}

func TestBackupWithSync(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "sdmc"), map[string]string{"Nintendo 3DS/save.bin": "x"})

	var progress progressLog
	res := f.pipeline.Backup(context.Background(), targets.Builtin(types.TargetCitra, root, true), f.sync, progress.fn())

	require.True(t, res.OK, res.String())
	assert.Equal(t, "CITRA_SDMC_2024-06-01_12-00-00.zip", res.Archive)
	assert.Equal(t, filepath.Join(f.sync.Path(), res.Archive), res.Path)
	assert.FileExists(t, res.Path)
	assert.NoFileExists(t, filepath.Join(f.staging, res.Archive), "staging copy must be removed")
	assert.Equal(t, []int{30, 70, 100}, progress.percents)
	assert.Equal(t, "compacting sdmc", progress.messages[0])
	assert.Equal(t, []string{filepath.Join(root, "sdmc", "Nintendo 3DS")}, f.runner.lastItems)
	assert.Equal(t, "backup_synced_success", res.Message(nil))
}

func TestBackupWithoutSync(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "memstick", "PSP", "SAVEDATA"), map[string]string{"ULUS10041/DATA.BIN": "d"})

	var progress progressLog
	res := f.pipeline.Backup(context.Background(), targets.Builtin(types.TargetPPSSPP, root, true), nil, progress.fn())

	require.True(t, res.OK, res.String())
	assert.False(t, res.Synced)
	assert.Equal(t, []int{30, 100}, progress.percents)
	assert.FileExists(t, res.Path)
	assert.Equal(t, filepath.Join(f.staging, "PPSSPP_SAVES_2024-06-01_12-00-00.zip"), res.Path)
	assert.Positive(t, res.Size)
}

func TestBackupEmptySourceSpawnsNothing(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "memcards"), 0o755))

	var progress progressLog
	res := f.pipeline.Backup(context.Background(), targets.Builtin(types.TargetPCSX2, root, true), f.sync, progress.fn())

	assert.False(t, res.OK)
	assert.Equal(t, SourceEmpty, res.Kind)
	assert.Zero(t, f.runner.adds)
	assert.Zero(t, f.locator.calls)
	assert.NoDirExists(t, f.staging)
	assert.Equal(t, 0, progress.last())
	assert.Equal(t, "memcards", res.Folder)
}

func TestBackupMissingSource(t *testing.T) {
	f := newFixture(t)
	res := f.pipeline.Backup(context.Background(), targets.Builtin(types.TargetPPSSPP, t.TempDir(), true), f.sync, nil)

	assert.Equal(t, SourceNotFound, res.Kind)
	assert.Equal(t, "SAVEDATA", res.Folder)
	assert.Zero(t, f.runner.adds)

	custom := f.pipeline.Backup(context.Background(),
		targets.Custom("Gone", filepath.Join(t.TempDir(), "gone"), "gone", true), f.sync, nil)
	assert.Equal(t, SourceNotFound, custom.Kind)
	assert.Equal(t, "Gone", custom.Folder)
}

func TestBackupUnconfiguredRootIgnoresWorkingDir(t *testing.T) {
	f := newFixture(t)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	work := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(work, "memcards"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(work, "memcards", "stray.ps2"), []byte("x"), 0o644))
	require.NoError(t, os.Chdir(work))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	var progress progressLog
	res := f.pipeline.Backup(context.Background(), targets.Builtin(types.TargetPCSX2, "", true), f.sync, progress.fn())

	assert.False(t, res.OK)
	assert.Equal(t, SourceNotFound, res.Kind)
	assert.Zero(t, f.runner.adds)
	assert.Zero(t, f.locator.calls)
	assert.Equal(t, 0, progress.last())
}

func TestBackupInvalidCustomTarget(t *testing.T) {
	f := newFixture(t)
	res := f.pipeline.Backup(context.Background(), targets.Custom("", t.TempDir(), "", true), f.sync, nil)
	assert.Equal(t, InvalidTarget, res.Kind)
	assert.ErrorIs(t, res.Err, targets.ErrInvalidTarget)
	assert.Equal(t, "custom_backup_invalid", res.Message(nil))
}

func TestBackupCompressorUnavailable(t *testing.T) {
	f := newFixture(t)
	f.locator.err = archiver.ErrCompressorNotFound
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.sav": "a"})

	var progress progressLog
	res := f.pipeline.Backup(context.Background(), targets.Custom("Game", root, "x", true), f.sync, progress.fn())
	assert.Equal(t, CompressorUnavailable, res.Kind)
	assert.Zero(t, f.runner.adds)
	assert.Equal(t, []int{0}, progress.percents)
}

func TestBackupToolFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.addErr = &archiver.ToolError{Op: "add", Tool: archiver.Tool{Kind: types.Archiver7Zip}, ExitCode: 2, Output: "disk full"}
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.sav": "a"})

	var progress progressLog
	res := f.pipeline.Backup(context.Background(), targets.Custom("Game", root, "x", true), f.sync, progress.fn())

	assert.Equal(t, ArchiveToolFailure, res.Kind)
	assert.Contains(t, res.Detail, "disk full")
	assert.Equal(t, []int{30, 0}, progress.percents)
	assert.Equal(t, "error_compressing", progress.messages[1])
}

func TestBackupCancelled(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.sav": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var progress progressLog
	res := f.pipeline.Backup(ctx, targets.Custom("Game", root, "x", true), f.sync, progress.fn())

	assert.Equal(t, Cancelled, res.Kind)
	assert.Zero(t, f.runner.adds)
	assert.Equal(t, 0, progress.last())
	assert.Equal(t, "operation_cancelled", res.Message(nil))
}

func TestRestoreNoMatchingArchive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sync.Ensure(context.Background()))
	root := t.TempDir()

	var progress progressLog
	res := f.pipeline.Restore(context.Background(), targets.Builtin(types.TargetPCSX2, root, true), f.sync, progress.fn())

	assert.Equal(t, NoMatchingArchive, res.Kind)
	assert.Equal(t, []int{0}, progress.percents)
	assert.Zero(t, f.runner.extracts)
	assert.DirExists(t, filepath.Join(root, "memcards"))
	assert.Empty(t, readTree(t, root))
	assert.Equal(t, "no_backup_found", res.Message(nil))
}

func TestRestoreSelectsNewestArchive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sync.Ensure(context.Background()))

	for name, content := range map[string]string{
		"T_2024-01-01_00-00-00.zip": "january",
		"T_2024-06-01_00-00-00.zip": "june",
	} {
		src := filepath.Join(t.TempDir(), "save.txt")
		require.NoError(t, os.WriteFile(src, []byte(content), 0o644))
		require.NoError(t, writeZip(filepath.Join(f.sync.Path(), name), []string{src}))
	}

	root := t.TempDir()
	var progress progressLog
	res := f.pipeline.Restore(context.Background(), targets.Custom("T", root, filepath.Base(root), true), f.sync, progress.fn())

	require.True(t, res.OK, res.String())
	assert.Equal(t, "T_2024-06-01_00-00-00.zip", res.Archive)
	assert.Equal(t, map[string]string{"save.txt": "june"}, readTree(t, root))
	assert.Equal(t, []int{30, 50, 90, 100}, progress.percents)
	assert.True(t, progress.monotonic())
	assert.Equal(t, "copying_backup_name", progress.messages[0])
	assert.Equal(t, "restore_success_name", res.Message(nil))
}

func TestRestoreExtractFailureCleansStaging(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sync.Ensure(context.Background()))
	src := filepath.Join(t.TempDir(), "save.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	require.NoError(t, writeZip(filepath.Join(f.sync.Path(), "Game_2024-01-01_00-00-00.zip"), []string{src}))

	f.runner.extractErr = &archiver.ToolError{Op: "extract", Tool: archiver.Tool{Kind: types.Archiver7Zip}, ExitCode: 2}
	root := t.TempDir()
	var progress progressLog
	res := f.pipeline.Restore(context.Background(), targets.Custom("Game", root, "x", true), f.sync, progress.fn())

	assert.Equal(t, ArchiveToolFailure, res.Kind)
	assert.Equal(t, []int{30, 50, 0}, progress.percents)
	assert.NoFileExists(t, filepath.Join(root, "Game_2024-01-01_00-00-00.zip"))
	assert.Equal(t, "error_extracting_detail_name", res.Message(nil))
}

func TestRestoreCompressorUnavailableCleansStaging(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sync.Ensure(context.Background()))
	src := filepath.Join(t.TempDir(), "save.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	require.NoError(t, writeZip(filepath.Join(f.sync.Path(), "CITRA_SDMC_2024-01-01_00-00-00.zip"), []string{src}))

	f.locator.err = archiver.ErrCompressorNotFound
	root := t.TempDir()
	res := f.pipeline.Restore(context.Background(), targets.Builtin(types.TargetCitra, root, true), f.sync, nil)

	assert.Equal(t, CompressorUnavailable, res.Kind)
	assert.NoFileExists(t, filepath.Join(root, "CITRA_SDMC_2024-01-01_00-00-00.zip"))
}

func TestRestoreRequiresSyncFolder(t *testing.T) {
	f := newFixture(t)
	res := f.pipeline.Restore(context.Background(), targets.Builtin(types.TargetPCSX2, t.TempDir(), true), nil, nil)
	assert.Equal(t, UnexpectedIO, res.Kind)
	assert.ErrorIs(t, res.Err, ErrNoSyncFolder)
	assert.Equal(t, "sync_folder_missing", res.Message(nil))
}

func TestRestoreMissingCustomRoot(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(t.TempDir(), "missing")
	res := f.pipeline.Restore(context.Background(), targets.Custom("Game", missing, "missing", true), f.sync, nil)
	assert.Equal(t, SourceNotFound, res.Kind)
	assert.NoDirExists(t, missing)
}

func TestResultMessageLocalized(t *testing.T) {
	cat, err := i18n.Load("EN", "")
	require.NoError(t, err)

	ok := Result{OK: true, Op: types.OperationBackup, Synced: true, Path: "/drive/A.zip"}
	assert.Equal(t, "Backup saved to /drive/A.zip", ok.Message(cat))

	notFound := Result{Op: types.OperationBackup, Kind: SourceNotFound, Folder: "SAVEDATA"}
	assert.Equal(t, "Folder 'SAVEDATA' not found.", notFound.Message(cat))

	restored := Result{OK: true, Op: types.OperationRestore, Archive: "PCSX2_MEMCARDS_2024-01-01_00-00-00.zip",
		Target: targets.Builtin(types.TargetPCSX2, "/x", true)}
	assert.Equal(t, "Restored from PCSX2_MEMCARDS_2024-01-01_00-00-00.zip", restored.Message(cat))

	space := Result{Op: types.OperationBackup, Kind: UnexpectedIO,
		Err: &storage.SpaceError{Path: "/drive", Free: 1000, Need: 5000}}
	assert.Contains(t, space.Message(cat), "/drive")

	generic := Result{Op: types.OperationBackup, Kind: UnexpectedIO, Detail: "permission denied"}
	assert.Equal(t, "Unexpected error: permission denied", generic.Message(cat))
}

func TestProgressFuncNilSafe(t *testing.T) {
	var fn ProgressFunc
	assert.NotPanics(t, func() { fn.Report(50, "half") })
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ArchiveToolFailure, classify(ctx, &archiver.ToolError{}, UnexpectedIO))
	assert.Equal(t, UnexpectedIO, classify(ctx, errors.New("boom"), UnexpectedIO))
	assert.Equal(t, Cancelled, classify(ctx, context.Canceled, UnexpectedIO))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Equal(t, Cancelled, classify(cancelled, &archiver.ToolError{}, UnexpectedIO))
}
