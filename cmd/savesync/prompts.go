package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tis24dev/savesync/internal/seal"
	"golang.org/x/term"
)

var (
	errInteractiveAborted = errors.New("interactive input aborted")
	errPromptInputClosed  = errors.New("stdin closed")
	errNotInteractive     = errors.New("stdin is not a terminal")
)

var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// ensureInteractive fails when in is a file that is not a TTY. Other
// readers (pipes wired by tests) are accepted.
func ensureInteractive(in io.Reader) error {
	if f, ok := in.(*os.File); ok && !isTerminal(int(f.Fd())) {
		return errNotInteractive
	}
	return nil
}

func promptYesNo(ctx context.Context, reader *bufio.Reader, out io.Writer, question, retry string, defaultYes bool) (bool, error) {
	suffix := " [y/N]: "
	if defaultYes {
		suffix = " [Y/n]: "
	}
	for {
		if err := ctx.Err(); err != nil {
			return false, errInteractiveAborted
		}
		fmt.Fprint(out, question+suffix)
		resp, err := readLineWithContext(ctx, reader)
		if err != nil {
			return false, err
		}
		resp = strings.TrimSpace(strings.ToLower(resp))
		if resp == "" {
			return defaultYes, nil
		}
		switch resp {
		case "y", "yes", "s", "sim":
			return true, nil
		case "n", "no", "nao", "não":
			return false, nil
		default:
			fmt.Fprintln(out, retry)
		}
	}
}

func readLineWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := reader.ReadString('\n')
		if err != nil && errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		ch <- result{line: line, err: mapPromptInputError(err)}
	}()
	select {
	case <-ctx.Done():
		return "", errInteractiveAborted
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, errPromptInputClosed) {
				return "", errInteractiveAborted
			}
			return "", res.err
		}
		return res.line, nil
	}
}

func mapPromptInputError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return errPromptInputClosed
	}
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "use of closed file") ||
		strings.Contains(errStr, "bad file descriptor") ||
		strings.Contains(errStr, "file already closed") {
		return errPromptInputClosed
	}
	return err
}

// passphrasePrompt reads the passphrase of an SSH identity from the terminal
// without echo.
func passphrasePrompt(out io.Writer, identity string) seal.PassphraseFunc {
	return func() ([]byte, error) {
		fd := int(os.Stdin.Fd())
		if !isTerminal(fd) {
			return nil, fmt.Errorf("identity %s needs a passphrase: %w", identity, errNotInteractive)
		}
		fmt.Fprintf(out, "Passphrase for %s: ", identity)
		pass, err := readPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return nil, mapPromptInputError(err)
		}
		return pass, nil
	}
}
