package openaibatch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redartera/flytekit/pkg/connector"
	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
	"github.com/redartera/flytekit/pkg/invoker"
	"github.com/redartera/flytekit/pkg/secrets"
)

func quietLog() *flog.Logger {
	return flog.NewLogger(slog.LevelError+1, io.Discard)
}

func newTestConnector(t *testing.T, handler http.Handler) (*Connector, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := invoker.NewClient(srv.URL, 5*time.Second, quietLog())
	creds := secrets.StaticSource{SecretAPIKey: "sk-test"}
	return NewConnector(client, creds, quietLog()), srv
}

func TestCreateSubmitsBatch(t *testing.T) {
	var gotBody map[string]string
	var gotAuth, gotOrg string
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/batches" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotOrg = r.Header.Get("OpenAI-Organization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"id": "batch_abc", "status": "validating"}`))
	}))

	req := connector.Request{
		Name: "embedding-batch",
		Extra: map[string]string{
			ExtraInputFileID:  "file-123",
			ExtraOrganization: "org-456",
		},
	}
	handle, err := c.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if handle.JobID != "batch_abc" || handle.Scope != "org-456" {
		t.Errorf("Expected handle {batch_abc org-456}, got %+v", handle)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Expected API key header, got %q", gotAuth)
	}
	if gotOrg != "org-456" {
		t.Errorf("Expected org header, got %q", gotOrg)
	}
	if gotBody["input_file_id"] != "file-123" {
		t.Errorf("Expected input file id, got %v", gotBody)
	}
	if gotBody["completion_window"] != "24h" || gotBody["endpoint"] != "/v1/chat/completions" {
		t.Errorf("Expected defaulted config, got %v", gotBody)
	}
}

func TestCreateThenGetNonTerminal(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"id": "batch_abc", "status": "validating"}`))
			return
		}
		w.Write([]byte(`{"id": "batch_abc", "status": "in_progress"}`))
	}))

	handle, err := c.Create(context.Background(), connector.Request{
		Name:  "poll-job",
		Extra: map[string]string{ExtraInputFileID: "file-1"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	res, err := c.Get(context.Background(), handle)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Phase.IsTerminal() {
		t.Errorf("Expected non-terminal phase right after create, got %s", res.Phase)
	}
	if res.Phase != connector.PhaseRunning {
		t.Errorf("Expected running, got %s", res.Phase)
	}
	if res.Outputs != nil || res.Message != "" {
		t.Error("Expected no outputs or message on a non-terminal phase")
	}
}

func TestGetCompletedCarriesOutputs(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "batch_abc", "status": "completed", "output_file_id": "file-out"}`))
	}))

	res, err := c.Get(context.Background(), connector.Handle{JobID: "batch_abc"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Phase != connector.PhaseSucceeded {
		t.Errorf("Expected succeeded, got %s", res.Phase)
	}
	if res.Outputs == nil {
		t.Fatal("Expected non-nil outputs on success")
	}
	if res.Outputs["output_file_id"] != "file-out" {
		t.Errorf("Expected output file id in outputs, got %v", res.Outputs)
	}
}

func TestGetFailedExtractsMessage(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "batch_abc",
			"status": "failed",
			"errors": {"data": [{"message": "input file is malformed"}]}
		}`))
	}))

	res, err := c.Get(context.Background(), connector.Handle{JobID: "batch_abc"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Phase != connector.PhaseFailed {
		t.Errorf("Expected failed, got %s", res.Phase)
	}
	if res.Message != "input file is malformed" {
		t.Errorf("Expected error message, got %q", res.Message)
	}
}

func TestGetFailedWithoutDetailIsNotAnError(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "batch_abc", "status": "expired"}`))
	}))

	res, err := c.Get(context.Background(), connector.Handle{JobID: "batch_abc"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Phase != connector.PhaseFailed {
		t.Errorf("Expected failed, got %s", res.Phase)
	}
	if res.Message != "" {
		t.Errorf("Expected empty message, got %q", res.Message)
	}
}

func TestCreateTruncatedResponseIsDecodeError(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "batch_`))
	}))

	_, err := c.Create(context.Background(), connector.Request{
		Name:  "truncated",
		Extra: map[string]string{ExtraInputFileID: "file-1"},
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

func TestDeleteIdempotentOnConflict(t *testing.T) {
	var cancels int
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancels++
		if cancels > 1 {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error": {"message": "batch already completed"}}`))
			return
		}
		w.Write([]byte(`{"id": "batch_abc", "status": "cancelling"}`))
	}))

	handle := connector.Handle{JobID: "batch_abc"}
	if err := c.Delete(context.Background(), handle); err != nil {
		t.Fatalf("First Delete failed: %v", err)
	}
	if err := c.Delete(context.Background(), handle); err != nil {
		t.Fatalf("Second Delete should be a no-op, got %v", err)
	}
}

func TestDeleteServerErrorPropagates(t *testing.T) {
	c, _ := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := c.Delete(context.Background(), connector.Handle{JobID: "batch_abc"})
	if !ferr.IsCode(err, ferr.CodeInvocation) {
		t.Errorf("Expected invocation error, got %v", err)
	}
}
