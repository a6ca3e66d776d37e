package tui

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func TestNewAppAppliesTheme(t *testing.T) {
	SetAbortContext(nil)
	_ = NewApp()

	if tview.Styles.BorderColor != Accent {
		t.Fatalf("border color = %v; want %v", tview.Styles.BorderColor, Accent)
	}
	if tview.Styles.PrimaryTextColor != tcell.ColorWhite {
		t.Fatalf("primary text color = %v; want white", tview.Styles.PrimaryTextColor)
	}
}

func TestSetAbortContextClears(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	SetAbortContext(ctx)
	if currentAbortContext() != ctx {
		t.Fatal("abort context not stored")
	}
	SetAbortContext(nil)
	if currentAbortContext() != nil {
		t.Fatal("abort context not cleared")
	}
}

func TestWatchAbortStopsApp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	app := &App{stopHook: func() { close(stopped) }}

	app.watchAbort(ctx)
	if app.Aborted() {
		t.Fatal("aborted before cancellation")
	}
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop not called after cancellation")
	}
	if !app.Aborted() {
		t.Fatal("Aborted() = false after cancellation")
	}
}

func TestWatchAbortWithoutContext(t *testing.T) {
	stopped := make(chan struct{})
	app := &App{stopHook: func() { close(stopped) }}
	app.watchAbort(nil)

	select {
	case <-stopped:
		t.Fatal("Stop called without an abort context")
	case <-time.After(50 * time.Millisecond):
	}
	if app.release != nil {
		t.Fatal("release set without an abort context")
	}
}

func TestNilAppIsSafe(t *testing.T) {
	var app *App
	app.Stop()
	if app.Aborted() {
		t.Fatal("nil app reports aborted")
	}
}
