package archiver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tis24dev/savesync/internal/logging"
)

const maxOutputTail = 2048

// ToolError reports a non-zero exit (or spawn failure) of the archiver.
type ToolError struct {
	Op       string
	Tool     Tool
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Tool.Kind, e.Op)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
	} else if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Runner spawns the archiver and waits for it.
type Runner struct {
	logger  *logging.Logger
	timeout time.Duration
	deps    Deps
}

// NewRunner creates a runner. A zero timeout means no limit beyond ctx.
func NewRunner(logger *logging.Logger, timeout time.Duration) *Runner {
	return &Runner{logger: logger, timeout: timeout, deps: defaultDeps()}
}

// Add creates archive from items using the tool's dialect.
func (r *Runner) Add(ctx context.Context, tool Tool, archive string, items []string) error {
	d, err := DialectFor(tool.Kind)
	if err != nil {
		return err
	}
	return r.run(ctx, tool, "add", d.AddArgs(archive, items))
}

// Extract unpacks archive into destDir, overwriting existing files.
func (r *Runner) Extract(ctx context.Context, tool Tool, archive, destDir string) error {
	d, err := DialectFor(tool.Kind)
	if err != nil {
		return err
	}
	return r.run(ctx, tool, "extract", d.ExtractArgs(archive, destDir))
}

func (r *Runner) run(ctx context.Context, tool Tool, op string, args []string) (err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := r.logger.Timed("archiver "+op, "%s %s", tool.Path, strings.Join(args, " "))
	defer func() { done(err) }()

	cmd := r.command(ctx, tool.Path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	r.logOutput(tool, out.Bytes())
	if runErr == nil {
		return nil
	}

	toolErr := &ToolError{Op: op, Tool: tool, Output: tail(out.String()), Err: runErr}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		toolErr.Err = fmt.Errorf("%w (%v)", ctxErr, runErr)
		toolErr.ExitCode = 0
	}
	return toolErr
}

func (r *Runner) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	if r.deps.CommandContext != nil {
		return r.deps.CommandContext(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...)
}

func (r *Runner) logOutput(tool Tool, output []byte) {
	if r.logger == nil || len(output) == 0 {
		return
	}
	tag := strings.ToUpper(string(tool.Kind))
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			r.logger.Debug("[%s] %s", tag, line)
		}
	}
}

// tail keeps the last part of the tool output, on a line boundary when possible.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxOutputTail {
		return s
	}
	s = s[len(s)-maxOutputTail:]
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && idx < len(s)-1 {
		s = s[idx+1:]
	}
	return "..." + s
}
