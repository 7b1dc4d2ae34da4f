// Package console handles blocking terminal input for the REPL: line reads
// that survive interrupts, password prompts, and interrupt-driven
// cancellation of long calls.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrInterrupted is returned by ReadLine when the user interrupts the read
// instead of entering a line. It is also the process-level signal for a
// top-level interrupt (exit code 130).
var ErrInterrupted = errors.New("interrupted")

type readResult struct {
	line string
	err  error
}

// LineReader reads one line at a time from a single underlying reader. Reads
// happen on a dedicated goroutine so an interrupt can abandon a pending read
// without losing it: the next ReadLine call picks up the line the user
// eventually enters.
type LineReader struct {
	out      io.Writer
	sig      <-chan os.Signal
	requests chan struct{}
	results  chan readResult
	pending  bool
	eof      bool
}

// NewLineReader starts the reader goroutine. sig may be nil when interrupt
// handling is not wanted (tests, non-interactive runs).
func NewLineReader(r io.Reader, out io.Writer, sig <-chan os.Signal) *LineReader {
	lr := &LineReader{
		out:      out,
		sig:      sig,
		requests: make(chan struct{}),
		results:  make(chan readResult),
	}
	go lr.readLoop(r)
	return lr
}

func (lr *LineReader) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for range lr.requests {
		if scanner.Scan() {
			lr.results <- readResult{line: scanner.Text()}
			continue
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		lr.results <- readResult{err: err}
		return
	}
}

// ReadLine prints the prompt and blocks until a line arrives, input ends
// (io.EOF), or the user interrupts (ErrInterrupted).
func (lr *LineReader) ReadLine(prompt string) (string, error) {
	if lr.eof {
		return "", io.EOF
	}
	fmt.Fprint(lr.out, prompt)
	if !lr.pending {
		lr.requests <- struct{}{}
		lr.pending = true
	}
	select {
	case res := <-lr.results:
		lr.pending = false
		if res.err != nil {
			lr.eof = true
			return "", res.err
		}
		return res.line, nil
	case <-lr.sig:
		fmt.Fprintln(lr.out)
		return "", ErrInterrupted
	}
}

// ReadPassword prompts on stderr and reads without echo.
func ReadPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(data), nil
}

// RunCancelable runs fn with a context that is cancelled when a signal
// arrives on sig. Used for long calls when no spinner UI is active; the
// cancelled call returns with context.Canceled.
func RunCancelable(sig <-chan os.Signal, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	for {
		select {
		case err := <-done:
			return err
		case <-sig:
			cancel()
		}
	}
}
