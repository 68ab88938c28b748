// Package gitcmd runs git commands against managed clones and parses
// their output. It provides the process executor abstraction the rest of
// lockstep uses for every version-control query, plus a typed query layer
// (Git) and dedicated per-command parsers.
package gitcmd

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/Iron-Ham/lockstep/internal/errors"
)

// DefaultTimeout bounds a single external command invocation.
// Every call site passes a context; the executor adds this deadline when
// the context does not already carry one.
const DefaultTimeout = 30 * time.Second

// Executor abstracts command execution for testability.
// This allows tests to mock git commands without executing them.
type Executor interface {
	// Run executes a command in dir and returns its stdout.
	// A non-zero exit yields a *errors.CommandError carrying the exit
	// code and captured stderr.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

	// RunQuiet executes a command and returns only the error.
	RunQuiet(ctx context.Context, dir string, name string, args ...string) error
}

// CLIExecutor executes commands using os/exec.
type CLIExecutor struct {
	// Timeout applied when the caller's context has no deadline.
	Timeout time.Duration
}

// NewCLIExecutor creates a new CLI executor with the default timeout.
func NewCLIExecutor() *CLIExecutor {
	return &CLIExecutor{Timeout: DefaultTimeout}
}

// Run executes a command and returns its stdout. Stderr is captured
// separately and attached to the returned error on failure.
func (e *CLIExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	ctx, cancel := e.withDeadline(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	if ctxErr := ctx.Err(); ctxErr == context.DeadlineExceeded {
		return nil, errors.NewCommandError(name+" timed out", errors.ErrTimeout).
			WithDir(dir).
			WithStderr(stderr.String())
	}

	cmdErr := errors.NewCommandError(name+" failed", errors.ErrCommandFailed).
		WithDir(dir).
		WithStderr(stderr.String())
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr = cmdErr.WithExitCode(exitErr.ExitCode())
	}
	return nil, cmdErr
}

// RunQuiet executes a command and returns only the error.
func (e *CLIExecutor) RunQuiet(ctx context.Context, dir string, name string, args ...string) error {
	_, err := e.Run(ctx, dir, name, args...)
	return err
}

func (e *CLIExecutor) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Ensure CLIExecutor satisfies the interface at compile time.
var _ Executor = (*CLIExecutor)(nil)
