// Package invoker executes external commands and HTTP requests on behalf of
// connectors without blocking unrelated work, capturing all diagnostic
// output for the failure path.
package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
)

// ExitError is returned when a command exits non-zero. It keeps the exact
// command line plus captured stdout and stderr so the failure can be
// diagnosed without re-running anything.
type ExitError struct {
	Cmd      string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d\n[stdout] %s\n[stderr] %s",
		e.Cmd, e.ExitCode, bytes.TrimSpace(e.Stdout), bytes.TrimSpace(e.Stderr))
}

// Invoker runs an external command and returns its stdout.
type Invoker interface {
	CheckOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecInvoker runs commands through os/exec. Each invocation gets its own
// process and deadline, so many calls can be in flight concurrently without
// one blocking the scheduling of another.
type ExecInvoker struct {
	// Timeout bounds one command round trip. A hung backend call surfaces
	// as an invocation failure instead of hanging the caller.
	Timeout time.Duration
	log     *flog.Logger
}

// NewExecInvoker creates an invoker with the given per-call timeout. A zero
// timeout means no deadline beyond the caller's context.
func NewExecInvoker(timeout time.Duration, log *flog.Logger) *ExecInvoker {
	if log == nil {
		log = flog.NewDefault()
	}
	return &ExecInvoker{Timeout: timeout, log: log}
}

// CheckOutput runs the command and returns its stdout. On non-zero exit it
// returns an invocation error wrapping ExitError with both streams attached.
func (i *ExecInvoker) CheckOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	if i.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	i.log.Debug("invoking command", "cmd", name, "args", strings.Join(args, " "))
	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	exitCode := -1
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		exitCode = ee.ExitCode()
	}
	invErr := &ExitError{
		Cmd:      name + " " + strings.Join(args, " "),
		ExitCode: exitCode,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}
	i.log.Error("command failed", "cmd", name, "exit_code", exitCode, "stderr", stderr.String())
	return stdout.Bytes(), ferr.New(ferr.CodeInvocation, invErr)
}
