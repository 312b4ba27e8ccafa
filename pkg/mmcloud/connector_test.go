package mmcloud

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/redartera/flytekit/pkg/connector"
	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
	"github.com/redartera/flytekit/pkg/invoker"
	"github.com/redartera/flytekit/pkg/secrets"
)

func quietLog() *flog.Logger {
	return flog.NewLogger(slog.LevelError+1, io.Discard)
}

// fakeFloat scripts responses for the float binary per subcommand and
// records every invocation.
type fakeFloat struct {
	calls     [][]string
	loggedIn  bool
	logins    int
	submitOut []byte
	submitErr error
	showOut   []byte
	showErr   error
	cancelErr error
}

func (f *fakeFloat) CheckOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	switch args[0] {
	case "login":
		if len(args) > 1 && args[1] == "--info" {
			if f.loggedIn {
				return []byte("session valid"), nil
			}
			return nil, ferr.New(ferr.CodeInvocation, &invoker.ExitError{Cmd: "float login --info", ExitCode: 1})
		}
		f.logins++
		f.loggedIn = true
		return nil, nil
	case "submit":
		return f.submitOut, f.submitErr
	case "show":
		return f.showOut, f.showErr
	case "cancel":
		return nil, f.cancelErr
	}
	return nil, errors.New("unexpected subcommand")
}

func (f *fakeFloat) lastCall(sub string) []string {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if len(f.calls[i]) > 1 && f.calls[i][1] == sub {
			return f.calls[i]
		}
	}
	return nil
}

func testCreds() secrets.Source {
	return secrets.StaticSource{
		SecretAddress:  "opcenter.example.com",
		SecretUsername: "admin",
		SecretPassword: "secret",
	}
}

func TestCreateResourceRanges(t *testing.T) {
	fake := &fakeFloat{submitOut: []byte(`{"id": "job-123"}`)}
	c := NewConnector("float", fake, testCreds(), quietLog())

	req := connector.Request{
		Name:  "train",
		Image: "python:3.12",
		Args:  []string{"python", "train.py"},
		Resources: connector.ResourceBounds{
			MinCPU: 1, MaxCPU: 4, MinMemory: 2,
		},
	}

	handle, err := c.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle.JobID != "job-123" {
		t.Errorf("Expected handle job-123, got %s", handle.JobID)
	}

	submit := strings.Join(fake.lastCall("submit"), " ")
	if !strings.Contains(submit, "--cpu 1:4") {
		t.Errorf("Expected --cpu 1:4 in %s", submit)
	}
	if !strings.Contains(submit, "--mem 2") || strings.Contains(submit, "--mem 2:") {
		t.Errorf("Expected --mem 2 without range in %s", submit)
	}
	if !strings.Contains(submit, "--image python:3.12") {
		t.Errorf("Expected image flag in %s", submit)
	}
	if fake.logins != 1 {
		t.Errorf("Expected one login before submit, got %d", fake.logins)
	}
}

func TestCreateWritesJobScript(t *testing.T) {
	var scriptContent string
	fake := &fakeFloat{submitOut: []byte(`{"id": "job-9"}`)}
	c := NewConnector("float", fake, testCreds(), quietLog())

	// Wrap the fake so we can read the script while the submit call is in
	// flight, before cleanup runs.
	c.inv = invokerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if args[0] == "submit" {
			for i, a := range args {
				if a == "--job" && i+1 < len(args) {
					data, err := os.ReadFile(args[i+1])
					if err != nil {
						t.Errorf("Job script unreadable at submit time: %v", err)
					}
					scriptContent = string(data)
				}
			}
		}
		return fake.CheckOutput(ctx, name, args...)
	})

	req := connector.Request{
		Name:      "script-job",
		Args:      []string{"echo", "hello world"},
		Resources: connector.ResourceBounds{MinCPU: 1, MinMemory: 1},
	}
	if _, err := c.Create(context.Background(), req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !strings.HasPrefix(scriptContent, "#!/bin/bash\n") {
		t.Errorf("Expected bash shebang, got %q", scriptContent)
	}
	if !strings.Contains(scriptContent, "echo 'hello world'") {
		t.Errorf("Expected quoted command, got %q", scriptContent)
	}

	// The temp script must be cleaned up on the success path.
	submit := fake.lastCall("submit")
	for i, a := range submit {
		if a == "--job" {
			if _, err := os.Stat(submit[i+1]); !os.IsNotExist(err) {
				t.Error("Expected job script to be removed after Create")
			}
		}
	}
}

type invokerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f invokerFunc) CheckOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

func TestCreateDecodeErrorDistinctFromInvocation(t *testing.T) {
	fake := &fakeFloat{submitOut: []byte(`{"id": "job-1`)} // truncated
	c := NewConnector("float", fake, testCreds(), quietLog())

	_, err := c.Create(context.Background(), connector.Request{
		Name:      "bad-response",
		Resources: connector.ResourceBounds{MinCPU: 1, MinMemory: 1},
	})
	if err == nil {
		t.Fatal("Expected decode error")
	}
	if !ferr.IsCode(err, ferr.CodeDecode) {
		t.Errorf("Expected decode error, got %v", err)
	}
	if ferr.IsCode(err, ferr.CodeInvocation) {
		t.Error("Decode failure must be distinct from invocation failure")
	}
}

func TestCreateMissingIDError(t *testing.T) {
	fake := &fakeFloat{submitOut: []byte(`{"status": "Submitted"}`)}
	c := NewConnector("float", fake, testCreds(), quietLog())

	_, err := c.Create(context.Background(), connector.Request{
		Name:      "no-id",
		Resources: connector.ResourceBounds{MinCPU: 1, MinMemory: 1},
	})
	if !ferr.IsCode(err, ferr.CodeMissingField) {
		t.Errorf("Expected missing-field error, got %v", err)
	}
}

func TestCreateInvertedBoundsRejectedBeforeBackendCall(t *testing.T) {
	fake := &fakeFloat{}
	c := NewConnector("float", fake, testCreds(), quietLog())

	_, err := c.Create(context.Background(), connector.Request{
		Name:      "bad-bounds",
		Resources: connector.ResourceBounds{MinCPU: 8, MaxCPU: 2},
	})
	if !ferr.IsCode(err, ferr.CodeResource) {
		t.Errorf("Expected resource error, got %v", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("Expected no backend calls, got %v", fake.calls)
	}
}

func TestGetRunningPhase(t *testing.T) {
	fake := &fakeFloat{showOut: []byte(`{"id": "job-123", "status": "running"}`)}
	c := NewConnector("float", fake, testCreds(), quietLog())

	res, err := c.Get(context.Background(), connector.Handle{JobID: "job-123"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Phase != connector.PhaseRunning {
		t.Errorf("Expected running, got %s", res.Phase)
	}
	if res.Outputs != nil || res.Message != "" {
		t.Error("Expected no outputs or message on a non-terminal phase")
	}
}

func TestGetCompletedPhaseCarriesOutputs(t *testing.T) {
	fake := &fakeFloat{showOut: []byte(`{"id": "job-123", "status": "Completed", "rc": "0"}`)}
	c := NewConnector("float", fake, testCreds(), quietLog())

	res, err := c.Get(context.Background(), connector.Handle{JobID: "job-123"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Phase != connector.PhaseSucceeded {
		t.Errorf("Expected succeeded, got %s", res.Phase)
	}
	if res.Outputs == nil {
		t.Error("Expected outputs payload on success")
	}
}

func TestGetFailedPhaseCarriesMessage(t *testing.T) {
	fake := &fakeFloat{showOut: []byte(`{"status": "FailToExecute", "message": "image pull failed"}`)}
	c := NewConnector("float", fake, testCreds(), quietLog())

	res, err := c.Get(context.Background(), connector.Handle{JobID: "job-5"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Phase != connector.PhaseFailed {
		t.Errorf("Expected failed, got %s", res.Phase)
	}
	if res.Message != "image pull failed" {
		t.Errorf("Expected failure message, got %q", res.Message)
	}
}

func TestGetFloatTerminalTokens(t *testing.T) {
	cases := []struct {
		status string
		phase  connector.Phase
	}{
		{"FloatSucceeded", connector.PhaseSucceeded},
		{"FloatFailed", connector.PhaseFailed},
	}
	for _, tc := range cases {
		fake := &fakeFloat{showOut: []byte(`{"status": "` + tc.status + `"}`)}
		c := NewConnector("float", fake, testCreds(), quietLog())

		res, err := c.Get(context.Background(), connector.Handle{JobID: "job-8"})
		if err != nil {
			t.Fatalf("Get failed for %s: %v", tc.status, err)
		}
		if res.Phase != tc.phase {
			t.Errorf("Expected %s for %s, got %s", tc.phase, tc.status, res.Phase)
		}
		if !res.Phase.IsTerminal() {
			t.Errorf("Expected %s to be terminal", tc.status)
		}
	}
}

func TestGetUnknownStatusFallsBack(t *testing.T) {
	fake := &fakeFloat{showOut: []byte(`{"status": "BrandNewState"}`)}
	c := NewConnector("float", fake, testCreds(), quietLog())

	res, err := c.Get(context.Background(), connector.Handle{JobID: "job-7"})
	if err != nil {
		t.Fatalf("Get should not fail on unmapped status: %v", err)
	}
	if res.Phase != connector.PhaseUndefined {
		t.Errorf("Expected undefined fallback, got %s", res.Phase)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	fake := &fakeFloat{}
	c := NewConnector("float", fake, testCreds(), quietLog())
	handle := connector.Handle{JobID: "job-123"}

	if err := c.Delete(context.Background(), handle); err != nil {
		t.Fatalf("First Delete failed: %v", err)
	}
	if err := c.Delete(context.Background(), handle); err != nil {
		t.Fatalf("Second Delete failed: %v", err)
	}

	cancel := fake.lastCall("cancel")
	joined := strings.Join(cancel, " ")
	if !strings.Contains(joined, "--force") {
		t.Errorf("Expected force cancellation, got %s", joined)
	}
}
