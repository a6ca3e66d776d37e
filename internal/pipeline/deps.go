package pipeline

import (
	"context"
	"time"

	"github.com/tis24dev/savesync/internal/archiver"
	"github.com/tis24dev/savesync/internal/i18n"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/storage"
)

// Locator finds the archiver executable.
type Locator interface {
	Locate() (archiver.Tool, error)
}

// Runner drives the archiver process.
type Runner interface {
	Add(ctx context.Context, tool archiver.Tool, archive string, items []string) error
	Extract(ctx context.Context, tool archiver.Tool, archive, destDir string) error
}

// SyncStore is the durable archive location.
type SyncStore interface {
	Path() string
	Store(ctx context.Context, localArchive string) (string, error)
	Latest(ctx context.Context, prefix string) (storage.Archive, error)
	Fetch(ctx context.Context, archive storage.Archive, destDir string) (string, error)
}

// TimeProvider abstracts time acquisition for determinism in tests.
type TimeProvider interface {
	Now() time.Time
}

type realTime struct{}

func (realTime) Now() time.Time { return time.Now() }

// Deps groups the collaborators of a Pipeline. Time defaults to the wall
// clock and Messages to the raw keys.
type Deps struct {
	Logger     *logging.Logger
	Locator    Locator
	Runner     Runner
	Messages   i18n.Messages
	Time       TimeProvider
	StagingDir string
}

type keyMessages struct{}

func (keyMessages) Format(key string, _ i18n.Vars) string { return key }
