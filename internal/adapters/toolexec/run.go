// Package toolexec runs external build tools as blocking subprocesses.
// The exit status is the only success signal; everything the tool printed is
// captured and handed back verbatim so callers can surface it unchanged.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command describes a single tool invocation.
type Command struct {
	Path string   // executable name or path, resolved via PATH
	Args []string // arguments, not including Path
	Dir  string   // working directory; "" = current
	Env  []string // extra KEY=VALUE pairs appended to os.Environ()
}

// String renders the command line for diagnostics.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Result is the captured output of a successful run.
type Result struct {
	Output []byte // interleaved stdout and stderr
}

// Error reports a tool that could not start or exited non-zero.
type Error struct {
	Cmd      Command
	ExitCode int    // -1 when the process never ran
	Output   string // tool's own diagnostic, verbatim
	Err      error  // underlying exec error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.ExitCode < 0 {
		fmt.Fprintf(&b, "%s: %v", e.Cmd.Path, e.Err)
	} else {
		fmt.Fprintf(&b, "%s exited with status %d", e.Cmd.Path, e.ExitCode)
	}
	if out := strings.TrimRight(e.Output, "\n"); out != "" {
		b.WriteString(":\n")
		b.WriteString(out)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Run executes cmd and waits for it to exit.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	err := c.Run()
	if err == nil {
		return &Result{Output: out.Bytes()}, nil
	}

	te := &Error{Cmd: cmd, ExitCode: -1, Output: out.String(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	return nil, te
}
