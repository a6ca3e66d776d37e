package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"

	"github.com/tis24dev/savesync/internal/checks"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/orchestrator"
	"github.com/tis24dev/savesync/internal/tui"
	"github.com/tis24dev/savesync/internal/types"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

var closeStdinOnce sync.Once

func run(args []string) (code int) {
	bootstrap := logging.NewBootstrapLogger()

	defer func() {
		if r := recover(); r != nil {
			bootstrap.Warning("PANIC: %v", r)
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			code = types.ExitPanicError.Int()
		}
	}()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			bootstrap.Warning("\nReceived signal %v, initiating graceful shutdown...", sig)
			cancel()
			// Unblock prompts waiting on stdin.
			closeStdinOnce.Do(func() { _ = os.Stdin.Close() })
		case <-ctx.Done():
		}
	}()
	tui.SetAbortContext(ctx)

	root := newRootCmd(&rootOptions{bootstrap: bootstrap})
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if msg := errorMessage(err); msg != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	return exitCodeFor(err).Int()
}

// exitError carries the process exit code of a failed command. A nil err
// means the failure was already reported to the user.
type exitError struct {
	code types.ExitCode
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return e.code.String()
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code types.ExitCode, err error) error {
	return &exitError{code: code, err: err}
}

func exitCodeFor(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		return types.ExitBusyError
	case errors.Is(err, checks.ErrInsufficientSpace):
		return types.ExitDiskSpaceError
	case errors.Is(err, context.Canceled), errors.Is(err, errInteractiveAborted), errors.Is(err, tui.ErrAborted):
		return types.ExitInterrupted
	}
	return types.ExitGenericError
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ee *exitError
	if errors.As(err, &ee) && ee.err == nil {
		return ""
	}
	return err.Error()
}
