// Package tui runs the modal dialogs of the command line in a tview
// application that shares the process interrupt context.
package tui

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rivo/tview"
)

// ErrAborted is returned by Run when the interrupt context stopped the app.
var ErrAborted = errors.New("dialog aborted")

var (
	abortMu  sync.RWMutex
	abortCtx context.Context
)

// SetAbortContext registers the context whose cancellation stops every App
// created afterwards. A nil ctx clears it.
func SetAbortContext(ctx context.Context) {
	abortMu.Lock()
	abortCtx = ctx
	abortMu.Unlock()
}

func currentAbortContext() context.Context {
	abortMu.RLock()
	defer abortMu.RUnlock()
	return abortCtx
}

// App is a themed tview application.
type App struct {
	*tview.Application
	stopHook func()
	aborted  atomic.Bool
	release  func() bool
}

// NewApp creates an application bound to the abort context.
func NewApp() *App {
	applyTheme()
	app := &App{Application: tview.NewApplication()}
	app.EnableMouse(true)
	app.watchAbort(currentAbortContext())
	return app
}

func (a *App) watchAbort(ctx context.Context) {
	if ctx == nil {
		return
	}
	a.release = context.AfterFunc(ctx, func() {
		a.aborted.Store(true)
		a.Stop()
	})
}

// Run blocks until the dialog is dismissed. It returns ErrAborted when the
// interrupt context ended the dialog.
func (a *App) Run() error {
	err := a.Application.Run()
	if a.release != nil {
		a.release()
	}
	if a.Aborted() {
		return ErrAborted
	}
	return err
}

// Aborted reports whether the interrupt context stopped the app.
func (a *App) Aborted() bool {
	return a != nil && a.aborted.Load()
}

// Stop stops the application; safe on nil.
func (a *App) Stop() {
	if a == nil {
		return
	}
	if a.stopHook != nil {
		a.stopHook()
		return
	}
	if a.Application != nil {
		a.Application.Stop()
	}
}
