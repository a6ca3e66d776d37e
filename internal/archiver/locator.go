// Package archiver finds an external zip-capable archiver and drives it
// through its command-line dialect.
package archiver

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/types"
)

var lookPath = exec.LookPath

// ErrCompressorNotFound is returned when no supported archiver exists on the host.
var ErrCompressorNotFound = errors.New("no supported archiver found")

// Deps groups the host interactions used by Locator and Runner.
type Deps struct {
	LookPath       func(string) (string, error)
	Stat           func(string) (os.FileInfo, error)
	CommandContext func(context.Context, string, ...string) *exec.Cmd
}

func defaultDeps() Deps {
	return Deps{
		LookPath:       lookPath,
		Stat:           os.Stat,
		CommandContext: exec.CommandContext,
	}
}

// WithLookPathOverride temporarily replaces the PATH lookup (for tests) and
// returns a restore function to be deferred.
func WithLookPathOverride(fn func(string) (string, error)) func() {
	original := lookPath
	lookPath = fn
	return func() {
		lookPath = original
	}
}

// Tool is a resolved archiver executable.
type Tool struct {
	Kind types.ArchiverKind
	Path string
}

// Candidate is one place an archiver may live. Exactly one of Path (absolute
// location) or Binary (name searched on PATH) is set.
type Candidate struct {
	Kind   types.ArchiverKind
	Path   string
	Binary string
}

// DefaultCandidates returns the well-known locations in priority order.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Kind: types.ArchiverWinRAR, Path: "C:/Program Files/WinRAR/WinRAR.exe"},
		{Kind: types.Archiver7Zip, Path: "C:/Program Files/7-Zip/7z.exe"},
		{Kind: types.Archiver7Zip, Binary: "7z"},
		{Kind: types.Archiver7Zip, Binary: "7zz"},
		{Kind: types.Archiver7Zip, Binary: "7za"},
	}
}

// GuessKind infers the dialect from an executable name.
func GuessKind(path string) types.ArchiverKind {
	if strings.Contains(strings.ToLower(filepath.Base(path)), "rar") {
		return types.ArchiverWinRAR
	}
	return types.Archiver7Zip
}

// Locator resolves the archiver to use for a pipeline run.
type Locator struct {
	logger     *logging.Logger
	candidates []Candidate
	deps       Deps
}

// NewLocator builds a locator over the default candidates. A non-empty
// override path is tried first; an empty overrideKind is guessed from it.
func NewLocator(logger *logging.Logger, override string, overrideKind types.ArchiverKind) *Locator {
	candidates := DefaultCandidates()
	if override = strings.TrimSpace(override); override != "" {
		if overrideKind == "" {
			overrideKind = GuessKind(override)
		}
		candidates = append([]Candidate{{Kind: overrideKind, Path: override}}, candidates...)
	}
	return &Locator{
		logger:     logger,
		candidates: candidates,
		deps:       defaultDeps(),
	}
}

// Locate returns the first candidate present on the host. It has no side effects.
func (l *Locator) Locate() (Tool, error) {
	for _, c := range l.candidates {
		if c.Path != "" {
			info, err := l.stat(c.Path)
			if err != nil || info.IsDir() {
				continue
			}
			l.logger.Debug("Archiver found: %s (%s)", c.Path, c.Kind)
			return Tool{Kind: c.Kind, Path: c.Path}, nil
		}
		if c.Binary != "" {
			path, err := l.findPath(c.Binary)
			if err != nil || path == "" {
				continue
			}
			l.logger.Debug("Archiver found on PATH: %s (%s)", path, c.Kind)
			return Tool{Kind: c.Kind, Path: path}, nil
		}
	}
	return Tool{}, ErrCompressorNotFound
}

func (l *Locator) stat(path string) (os.FileInfo, error) {
	if l.deps.Stat != nil {
		return l.deps.Stat(path)
	}
	return os.Stat(path)
}

func (l *Locator) findPath(name string) (string, error) {
	if l.deps.LookPath != nil {
		return l.deps.LookPath(name)
	}
	return exec.LookPath(name)
}
