package invoker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
)

func quietLog() *flog.Logger {
	return flog.NewLogger(slog.LevelError+1, io.Discard)
}

func TestCheckOutputSuccess(t *testing.T) {
	inv := NewExecInvoker(5*time.Second, quietLog())

	out, err := inv.CheckOutput(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("CheckOutput failed: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Errorf("Expected hello, got %q", out)
	}
}

func TestCheckOutputNonZeroExit(t *testing.T) {
	inv := NewExecInvoker(5*time.Second, quietLog())

	_, err := inv.CheckOutput(context.Background(), "sh", "-c", "echo partial; echo oops >&2; exit 3")
	if err == nil {
		t.Fatal("Expected error for non-zero exit")
	}
	if !ferr.IsCode(err, ferr.CodeInvocation) {
		t.Errorf("Expected invocation error, got %v", err)
	}

	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("Expected ExitError, got %T", err)
	}
	if ee.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", ee.ExitCode)
	}
	if !strings.Contains(string(ee.Stdout), "partial") {
		t.Errorf("Expected captured stdout, got %q", ee.Stdout)
	}
	if !strings.Contains(string(ee.Stderr), "oops") {
		t.Errorf("Expected captured stderr, got %q", ee.Stderr)
	}
}

func TestCheckOutputTimeout(t *testing.T) {
	inv := NewExecInvoker(100*time.Millisecond, quietLog())

	start := time.Now()
	_, err := inv.CheckOutput(context.Background(), "sleep", "10")
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Expected fast timeout, took %s", elapsed)
	}
	if !ferr.IsCode(err, ferr.CodeInvocation) {
		t.Errorf("Expected invocation error, got %v", err)
	}
}
