package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Maximum length of a captured output excerpt, in bytes.
const excerptLimit = 500

var ErrExec = errors.New("command execution failed")

// Describes a single external command invocation.
type Command struct {
	Path string   // Program to run (name or absolute path).
	Args []string // Arguments, not including the program itself.
	Dir  string   // Working directory. Empty means the current directory.
	Env  []string // Full environment as "key=value" entries. Nil inherits the process environment.
}

// Output of a completed command.
type Result struct {
	ExitCode int    // Exit code of the process.
	Stdout   string // Captured standard output.
	Stderr   string // Captured standard error.
}

// Runs external commands on behalf of the pipeline.
//
// Implementations block until the process exits. A non-zero exit code is
// reported through the [Result], not as an error; the caller decides how to
// handle it. An error is returned only when the process could not be run at
// all (missing program, cancelled context).
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Executes commands directly on the host.
type Exec struct{}

// Runs the command, blocking until it exits.
//
// Both output streams are captured in full. Context cancellation kills the
// process and surfaces as an error.
func (Exec) Run(ctx context.Context, cmd Command) (*Result, error) {
	slog.Debug("run", "path", cmd.Path, "args", strings.Join(cmd.Args, " "), "dir", cmd.Dir)

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		// Exited zero.
	case ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %w", ErrExec, ctx.Err())
	case errors.As(err, &exitErr):
		// Exited non-zero; the caller decides.
	default:
		return nil, fmt.Errorf("%w: %s: %w", ErrExec, cmd.Path, err)
	}

	return &Result{
		ExitCode: c.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// Returns a truncated tail of captured output suitable for diagnostics.
//
// The tail is kept rather than the head because build tools print the
// actionable error last.
func Excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= excerptLimit {
		return s
	}
	return "..." + s[len(s)-excerptLimit:]
}
