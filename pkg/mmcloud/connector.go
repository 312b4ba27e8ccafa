// Package mmcloud adapts the Memory Machine Cloud OpCenter, driven through
// the float command-line tool, to the canonical connector contract.
package mmcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/redartera/flytekit/pkg/connector"
	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
	"github.com/redartera/flytekit/pkg/invoker"
	"github.com/redartera/flytekit/pkg/secrets"
	"github.com/redartera/flytekit/pkg/session"
)

// Name is the registry name for this connector.
const Name = "mmcloud"

// Secret keys looked up from the credential source for the login exchange.
const (
	SecretAddress  = "mmc_address"
	SecretUsername = "mmc_username"
	SecretPassword = "mmc_password"
)

// Connector submits jobs to an OpCenter via the float binary. It holds no
// per-job state; everything needed to resume tracking lives in the Handle.
type Connector struct {
	bin   string
	inv   invoker.Invoker
	sess  *session.Manager
	table connector.StatusTable
	log   *flog.Logger
}

// NewConnector wires a float-driven connector. bin defaults to "float".
func NewConnector(bin string, inv invoker.Invoker, creds secrets.Source, log *flog.Logger) *Connector {
	if bin == "" {
		bin = "float"
	}
	if log == nil {
		log = flog.NewDefault()
	}
	c := &Connector{
		bin:   bin,
		inv:   inv,
		table: statusTable(log),
		log:   log,
	}

	// A successful "login --info" also resets the OpCenter session timer,
	// so probing doubles as a keepalive.
	probe := func(ctx context.Context) error {
		_, err := inv.CheckOutput(ctx, bin, "login", "--info")
		return err
	}
	login := func(ctx context.Context) (string, error) {
		address, err := creds.Get(SecretAddress)
		if err != nil {
			return "", err
		}
		username, err := creds.Get(SecretUsername)
		if err != nil {
			return "", err
		}
		password, err := creds.Get(SecretPassword)
		if err != nil {
			return "", err
		}
		_, err = inv.CheckOutput(ctx, bin, "login",
			"--address", address,
			"--username", username,
			"--password", password,
		)
		// The float binary keeps the session on its side; no token.
		return "", err
	}
	c.sess = session.NewManager(probe, login, log)
	return c
}

func statusTable(log *flog.Logger) connector.StatusTable {
	return connector.NewStatusTable(connector.PhaseUndefined, map[connector.Phase][]string{
		connector.PhaseQueued:    {"submitted", "queued", "initializing", "waitingforlicense"},
		connector.PhaseRunning:   {"starting", "executing", "running", "capturing", "floating", "resuming"},
		connector.PhaseSucceeded: {"completed", "done", "floatsucceeded"},
		connector.PhaseFailed: {
			"failed", "failtocomplete", "failtoexecute", "checkpointfailed", "floatfailed",
			"timedout", "noavailablehost", "expired", "lost", "suspended", "suspending", "unknown",
		},
		connector.PhaseCancelled: {"cancelled", "cancelling"},
	}, log)
}

// submitArgs renders the backend submission flags from a validated request.
// Resource bounds go out as min:max ranges, with the maximum omitted when
// unset.
func submitArgs(req connector.Request) []string {
	args := []string{"submit", "--force", "--format", "json"}
	args = append(args, "--cpu", req.Resources.CPURange())
	args = append(args, "--mem", req.Resources.MemoryRange())
	if req.Image != "" {
		args = append(args, "--image", req.Image)
	}

	keys := make([]string, 0, len(req.Env))
	for k := range req.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--env", fmt.Sprintf("%s=%s", k, req.Env[k]))
	}

	extraKeys := make([]string, 0, len(req.Extra))
	for k := range req.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if v := req.Extra[k]; v != "" {
			args = append(args, "--"+k, v)
		} else {
			args = append(args, "--"+k)
		}
	}
	return args
}

// writeJobScript materializes the job command as a uniquely named temporary
// shell script, flushed before the backend reads it. The caller must remove
// the returned path.
func writeJobScript(args []string) (string, error) {
	f, err := os.CreateTemp("", "mmcloud-job-*.sh")
	if err != nil {
		return "", ferr.New(ferr.CodeResource, err)
	}
	script := "#!/bin/bash\n" + shellJoin(args) + "\n"
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", ferr.New(ferr.CodeResource, err)
	}
	// Close flushes the script so the float binary can read it.
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", ferr.New(ferr.CodeResource, err)
	}
	return f.Name(), nil
}

// Create submits one job to the OpCenter and returns its handle. Exactly
// one submission happens per call; failures are never retried here.
func (c *Connector) Create(ctx context.Context, req connector.Request) (connector.Handle, error) {
	if err := req.Validate(); err != nil {
		return connector.Handle{}, err
	}

	scriptPath, err := writeJobScript(req.Args)
	if err != nil {
		c.log.Error("cannot write job script", "job", req.Name, "error", err.Error())
		return connector.Handle{}, err
	}
	defer os.Remove(scriptPath)

	args := append(submitArgs(req), "--job", scriptPath)

	if err := c.sess.Ensure(ctx); err != nil {
		return connector.Handle{}, err
	}

	c.log.Info("submitting job", "job", req.Name)
	out, err := c.inv.CheckOutput(ctx, c.bin, args...)
	if err != nil {
		c.log.Error("failed to submit job", "job", req.Name, "error", err.Error())
		return connector.Handle{}, err
	}

	var resp map[string]any
	if err := json.Unmarshal(out, &resp); err != nil {
		c.log.Error("failed to decode submit response", "job", req.Name)
		return connector.Handle{}, ferr.New(ferr.CodeDecode, err)
	}
	id, ok := resp["id"].(string)
	if !ok || id == "" {
		c.log.Error("submit response carries no job id", "job", req.Name)
		return connector.Handle{}, ferr.Newf(ferr.CodeMissingField, "no id in submit response")
	}

	c.log.Info("submitted job", "job", req.Name, "job_id", id)
	return connector.Handle{JobID: id}, nil
}

// Get reads the job's current status from the OpCenter and normalizes it.
// It is a pure read, safe at any polling cadence.
func (c *Connector) Get(ctx context.Context, handle connector.Handle) (*connector.Resource, error) {
	if err := c.sess.Ensure(ctx); err != nil {
		return nil, err
	}

	out, err := c.inv.CheckOutput(ctx, c.bin, "show", "--format", "json", "--job", handle.JobID)
	if err != nil {
		c.log.Error("failed to query job status", "job_id", handle.JobID, "error", err.Error())
		return nil, err
	}

	var resp map[string]any
	if err := json.Unmarshal(out, &resp); err != nil {
		c.log.Error("failed to decode show response", "job_id", handle.JobID)
		return nil, ferr.New(ferr.CodeDecode, err)
	}
	raw, ok := resp["status"].(string)
	if !ok {
		c.log.Error("show response carries no status", "job_id", handle.JobID)
		return nil, ferr.Newf(ferr.CodeMissingField, "no status in show response for job %s", handle.JobID)
	}

	phase := c.table.Normalize(raw)
	c.log.Debug("job status", "job_id", handle.JobID, "status", raw, "phase", string(phase))

	res := &connector.Resource{Phase: phase}
	switch phase {
	case connector.PhaseSucceeded:
		res.Outputs = resp
	case connector.PhaseFailed, connector.PhaseCancelled:
		// Best effort; the OpCenter does not always explain failures.
		if msg, ok := resp["message"].(string); ok {
			res.Message = msg
		}
	}
	return res, nil
}

// Delete requests cancellation with force semantics: cancelling a job that
// already reached a terminal phase is a no-op on the OpCenter side, which
// makes this call idempotent. Completion of the cancellation itself is not
// awaited.
func (c *Connector) Delete(ctx context.Context, handle connector.Handle) error {
	if err := c.sess.Ensure(ctx); err != nil {
		return err
	}

	if _, err := c.inv.CheckOutput(ctx, c.bin, "cancel", "--force", "--job", handle.JobID); err != nil {
		c.log.Error("failed to cancel job", "job_id", handle.JobID, "error", err.Error())
		return err
	}
	c.log.Info("requested job cancellation", "job_id", handle.JobID)
	return nil
}

var _ connector.Connector = (*Connector)(nil)
