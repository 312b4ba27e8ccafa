// Package openaibatch adapts the OpenAI Batch HTTP API to the canonical
// connector contract. The handle carries the batch id plus the organization
// scope so an authenticated client can be rebuilt after a restart.
package openaibatch

import (
	"context"
	"errors"
	"net/http"

	"github.com/redartera/flytekit/pkg/connector"
	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
	"github.com/redartera/flytekit/pkg/invoker"
	"github.com/redartera/flytekit/pkg/secrets"
)

// Name is the registry name for this connector.
const Name = "openai-batch"

// SecretAPIKey is the key looked up from the credential source.
const SecretAPIKey = "openai_api_key"

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	defaultCompletionWindow = "24h"
	defaultEndpoint         = "/v1/chat/completions"

	// Request.Extra keys understood by this backend.
	ExtraOrganization     = "organization"
	ExtraInputFileID      = "input_file_id"
	ExtraEndpoint         = "endpoint"
	ExtraCompletionWindow = "completion_window"
)

// Connector drives batch jobs over HTTP. One request/response round trip
// per operation, each bounded by the client's timeout.
type Connector struct {
	client *invoker.Client
	creds  secrets.Source
	table  connector.StatusTable
	log    *flog.Logger
}

// NewConnector builds a connector on top of an HTTP invoker client, usually
// rooted at DefaultBaseURL. The API key is looked up per request and never
// stored.
func NewConnector(client *invoker.Client, creds secrets.Source, log *flog.Logger) *Connector {
	if log == nil {
		log = flog.NewDefault()
	}
	c := &Connector{
		client: client,
		creds:  creds,
		table:  statusTable(log),
		log:    log,
	}
	return c
}

func statusTable(log *flog.Logger) connector.StatusTable {
	return connector.NewStatusTable(connector.PhaseUndefined, map[connector.Phase][]string{
		connector.PhaseQueued:    {"validating"},
		connector.PhaseRunning:   {"in_progress", "finalizing"},
		connector.PhaseSucceeded: {"completed"},
		connector.PhaseFailed:    {"failed", "expired"},
		connector.PhaseCancelled: {"cancelled", "cancelling"},
	}, log)
}

func (c *Connector) editor(org string) func(req *http.Request) error {
	return func(req *http.Request) error {
		key, err := c.creds.Get(SecretAPIKey)
		if err != nil {
			return ferr.New(ferr.CodeAuth, err)
		}
		req.Header.Set("Authorization", "Bearer "+key)
		if org != "" {
			req.Header.Set("OpenAI-Organization", org)
		}
		return nil
	}
}

// batch mirrors the fields of the API's batch object that the connector
// reads; the rest of the payload is ignored.
type batch struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Errors *struct {
		Data []struct {
			Message string `json:"message"`
		} `json:"data"`
	} `json:"errors"`
	OutputFileID string `json:"output_file_id"`
	ErrorFileID  string `json:"error_file_id"`
}

// Create submits one batch. The input file id is required; completion
// window and endpoint default when unset.
func (c *Connector) Create(ctx context.Context, req connector.Request) (connector.Handle, error) {
	if err := req.Validate(); err != nil {
		return connector.Handle{}, err
	}
	inputFileID := req.Extra[ExtraInputFileID]
	if inputFileID == "" {
		return connector.Handle{}, ferr.Newf(ferr.CodeResource, "request has no %s", ExtraInputFileID)
	}

	body := map[string]string{
		"input_file_id":     inputFileID,
		"endpoint":          defaultEndpoint,
		"completion_window": defaultCompletionWindow,
	}
	if v := req.Extra[ExtraEndpoint]; v != "" {
		body["endpoint"] = v
	}
	if v := req.Extra[ExtraCompletionWindow]; v != "" {
		body["completion_window"] = v
	}

	org := req.Extra[ExtraOrganization]
	client := c.client.WithEditor(c.editor(org))

	c.log.Info("submitting batch", "job", req.Name)
	var resp batch
	if err := client.DoJSON(ctx, http.MethodPost, "/batches", body, &resp); err != nil {
		c.log.Error("failed to submit batch", "job", req.Name, "error", err.Error())
		return connector.Handle{}, err
	}
	if resp.ID == "" {
		c.log.Error("batch response carries no id", "job", req.Name)
		return connector.Handle{}, ferr.Newf(ferr.CodeMissingField, "no id in batch response")
	}

	c.log.Info("submitted batch", "job", req.Name, "batch_id", resp.ID)
	return connector.Handle{JobID: resp.ID, Scope: org}, nil
}

// Get retrieves the batch and normalizes its status. On failure phases the
// first structured error message is surfaced; its absence is not an error.
func (c *Connector) Get(ctx context.Context, handle connector.Handle) (*connector.Resource, error) {
	client := c.client.WithEditor(c.editor(handle.Scope))

	var resp batch
	if err := client.DoJSON(ctx, http.MethodGet, "/batches/"+handle.JobID, nil, &resp); err != nil {
		c.log.Error("failed to retrieve batch", "batch_id", handle.JobID, "error", err.Error())
		return nil, err
	}
	if resp.Status == "" {
		c.log.Error("batch response carries no status", "batch_id", handle.JobID)
		return nil, ferr.Newf(ferr.CodeMissingField, "no status in batch %s", handle.JobID)
	}

	phase := c.table.Normalize(resp.Status)
	c.log.Debug("batch status", "batch_id", handle.JobID, "status", resp.Status, "phase", string(phase))

	res := &connector.Resource{Phase: phase}
	switch phase {
	case connector.PhaseSucceeded:
		res.Outputs = map[string]any{
			"batch_id":       resp.ID,
			"output_file_id": resp.OutputFileID,
		}
		if resp.ErrorFileID != "" {
			res.Outputs["error_file_id"] = resp.ErrorFileID
		}
	case connector.PhaseFailed, connector.PhaseCancelled:
		if resp.Errors != nil && len(resp.Errors.Data) > 0 {
			res.Message = resp.Errors.Data[0].Message
		}
	}
	return res, nil
}

// Delete requests cancellation. The API answers 409 when the batch is
// already terminal; that is the idempotent no-op this contract wants, so it
// is swallowed.
func (c *Connector) Delete(ctx context.Context, handle connector.Handle) error {
	client := c.client.WithEditor(c.editor(handle.Scope))

	err := client.DoJSON(ctx, http.MethodPost, "/batches/"+handle.JobID+"/cancel", nil, nil)
	if err != nil {
		var se *invoker.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
			c.log.Debug("batch already terminal", "batch_id", handle.JobID)
			return nil
		}
		c.log.Error("failed to cancel batch", "batch_id", handle.JobID, "error", err.Error())
		return err
	}
	c.log.Info("requested batch cancellation", "batch_id", handle.JobID)
	return nil
}

var _ connector.Connector = (*Connector)(nil)
