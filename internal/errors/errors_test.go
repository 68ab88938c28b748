package errors

import (
	"errors"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// CommandError Tests
// -----------------------------------------------------------------------------

func TestNewCommandError(t *testing.T) {
	cause := ErrCommandFailed
	err := NewCommandError("git log failed", cause)

	if err.message != "git log failed" {
		t.Errorf("message = %q, want %q", err.message, "git log failed")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", err.ExitCode)
	}
}

func TestCommandError_WithMethods(t *testing.T) {
	err := NewCommandError("test", nil).
		WithDir("/repo").
		WithExitCode(128).
		WithStderr("fatal: bad revision\n")

	if err.Dir != "/repo" {
		t.Errorf("Dir = %q, want %q", err.Dir, "/repo")
	}
	if err.ExitCode != 128 {
		t.Errorf("ExitCode = %d, want 128", err.ExitCode)
	}
	if err.Stderr != "fatal: bad revision" {
		t.Errorf("Stderr = %q, want trimmed stderr", err.Stderr)
	}
}

func TestCommandError_Error(t *testing.T) {
	err := NewCommandError("log query failed", ErrCommandFailed).
		WithDir("/clone").
		WithExitCode(129).
		WithStderr("unknown option")

	msg := err.Error()
	for _, want := range []string{"dir=/clone", "exit=129", "log query failed", "stderr: unknown option"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestCommandError_Is(t *testing.T) {
	err := NewCommandError("failed", nil)

	if !Is(err, ErrCommandFailed) {
		t.Error("CommandError should match ErrCommandFailed even without a cause")
	}

	wrapped := Wrap(NewCommandError("failed", ErrTimeout), "outer")
	if !Is(wrapped, ErrTimeout) {
		t.Error("wrapped CommandError should match its cause")
	}

	var cmdErr *CommandError
	if !As(wrapped, &cmdErr) {
		t.Error("As() should find CommandError through wrapping")
	}
}

// -----------------------------------------------------------------------------
// StoreError Tests
// -----------------------------------------------------------------------------

func TestStoreError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StoreError
		want []string
	}{
		{
			name: "with url and status",
			err: NewStoreError("ledger read failed", ErrStoreUnreachable).
				WithURL("https://api.jsonbin.io/v3/b/abc").
				WithStatusCode(503),
			want: []string{"url=https://api.jsonbin.io/v3/b/abc", "status=503", "store unreachable"},
		},
		{
			name: "bare",
			err:  NewStoreError("ledger write failed", nil),
			want: []string{"store error: ledger write failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, missing %q", msg, want)
				}
			}
		})
	}
}

func TestStoreError_Is(t *testing.T) {
	err := NewStoreError("read failed", ErrStoreUnreachable)

	if !Is(err, ErrStoreUnreachable) {
		t.Error("StoreError should match ErrStoreUnreachable cause")
	}

	var storeErr *StoreError
	if !As(err, &storeErr) {
		t.Error("As() should find StoreError")
	}
	if storeErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", storeErr.StatusCode)
	}
}

// -----------------------------------------------------------------------------
// RepositoryError Tests
// -----------------------------------------------------------------------------

func TestRepositoryError(t *testing.T) {
	err := NewRepositoryError("cannot resolve remote", ErrNoRemote).WithPath("/work/assets")

	if !Is(err, ErrNoRemote) {
		t.Error("RepositoryError should match its cause")
	}
	if !strings.Contains(err.Error(), "path=/work/assets") {
		t.Errorf("Error() = %q, missing path context", err.Error())
	}
}

// -----------------------------------------------------------------------------
// ValidationError Tests
// -----------------------------------------------------------------------------

func TestValidationError(t *testing.T) {
	err := NewValidationError("store headers must be key=value pairs").
		WithField("store_headers").
		WithValue("nonsense").
		WithCause(ErrInvalidStoreConfig)

	if !Is(err, ErrInvalidStoreConfig) {
		t.Error("ValidationError should match its cause")
	}
	msg := err.Error()
	for _, want := range []string{"field=store_headers", "value=nonsense"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

// -----------------------------------------------------------------------------
// Wrap Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	base := errors.New("base")

	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	wrapped := Wrap(base, "context")
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base")
	}
	if wrapped.Error() != "context: base" {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), "context: base")
	}

	formatted := Wrapf(base, "claiming %s", "art/model.fbx")
	if formatted.Error() != "claiming art/model.fbx: base" {
		t.Errorf("Wrapf Error() = %q", formatted.Error())
	}
}
