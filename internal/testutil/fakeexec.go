package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/Iron-Ham/lockstep/internal/errors"
)

// Call records a single command dispatched to a FakeExecutor.
type Call struct {
	Dir     string
	Command string
}

// FakeExecutor satisfies gitcmd.Executor with scripted responses, so
// resolution logic can be tested without spawning processes. Commands are
// keyed by their full command line ("git branch --contains abc");
// unmatched commands fail with ErrCommandFailed.
type FakeExecutor struct {
	mu        sync.Mutex
	responses map[string][]byte
	failures  map[string]error
	calls     []Call
}

// NewFakeExecutor creates an empty FakeExecutor.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		responses: make(map[string][]byte),
		failures:  make(map[string]error),
	}
}

// Respond scripts stdout for a command line.
func (f *FakeExecutor) Respond(commandLine string, stdout string) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[commandLine] = []byte(stdout)
	return f
}

// Fail scripts a failure for a command line.
func (f *FakeExecutor) Fail(commandLine string, err error) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[commandLine] = err
	return f
}

// Run returns the scripted response for the command.
func (f *FakeExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Dir: dir, Command: line})

	if err, ok := f.failures[line]; ok {
		return nil, err
	}
	if out, ok := f.responses[line]; ok {
		return out, nil
	}
	return nil, errors.NewCommandError("unscripted command: "+line, errors.ErrCommandFailed).WithDir(dir)
}

// RunQuiet returns only the error of the scripted response.
func (f *FakeExecutor) RunQuiet(ctx context.Context, dir string, name string, args ...string) error {
	_, err := f.Run(ctx, dir, name, args...)
	return err
}

// Calls returns the commands dispatched so far.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times a command line was dispatched.
func (f *FakeExecutor) CallCount(commandLine string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Command == commandLine {
			n++
		}
	}
	return n
}
