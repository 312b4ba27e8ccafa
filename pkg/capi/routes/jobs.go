package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/redartera/flytekit/pkg/artifacts"
	"github.com/redartera/flytekit/pkg/capi/schemas"
	"github.com/redartera/flytekit/pkg/capi/services/jobs"
	"github.com/redartera/flytekit/pkg/connector"
	"github.com/redartera/flytekit/pkg/ferr"
)

// SubmitJobInput defines the input for job submission
type SubmitJobInput struct {
	Connector string `path:"connector" doc:"Connector name"`
	Body      schemas.SubmitJobRequest
}

// SubmitJobOutput is the response for submitting a job
type SubmitJobOutput struct {
	Body schemas.HandleResponse
}

// GetJobInput defines the input for polling a job
type GetJobInput struct {
	Connector string `path:"connector" doc:"Connector name"`
	Handle    string `path:"handle" doc:"Opaque handle from submission"`
}

// GetJobOutput is the response for polling a job
type GetJobOutput struct {
	Body schemas.ResourceResponse
}

// CancelJobInput defines the input for cancelling a job
type CancelJobInput struct {
	Connector string `path:"connector" doc:"Connector name"`
	Handle    string `path:"handle" doc:"Opaque handle from submission"`
}

// ListConnectorsOutput is the response for listing connectors
type ListConnectorsOutput struct {
	Body schemas.ConnectorsResponse
}

// GetOutputsInput defines the input for fetching archived outputs
type GetOutputsInput struct {
	Connector string `path:"connector" doc:"Connector name"`
	Handle    string `path:"handle" doc:"Opaque handle from submission"`
}

// GetOutputsOutput is the response for fetching archived outputs
type GetOutputsOutput struct {
	Body schemas.OutputsResponse
}

// ListHistoryInput defines the input for listing submission history
type ListHistoryInput struct {
	Connector string `path:"connector" doc:"Connector name"`
	Limit     int    `query:"limit" doc:"Maximum entries to return" required:"false"`
}

// ListHistoryOutput is the response for listing submission history
type ListHistoryOutput struct {
	Body schemas.HistoryResponse
}

// RegisterJobs registers job-related routes
func RegisterJobs(api huma.API, jobSvc *jobs.Service) {
	// List connectors
	huma.Register(api, huma.Operation{
		OperationID: "list-connectors",
		Method:      http.MethodGet,
		Path:        "/api/connectors",
		Summary:     "List connectors",
		Description: "Get the names of all registered backends",
		Tags:        []string{"Connectors"},
	}, func(ctx context.Context, input *struct{}) (*ListConnectorsOutput, error) {
		resp := &ListConnectorsOutput{}
		resp.Body.Connectors = jobSvc.Connectors()
		return resp, nil
	})

	// Submit job
	huma.Register(api, huma.Operation{
		OperationID: "submit-job",
		Method:      http.MethodPost,
		Path:        "/api/connectors/{connector}/jobs",
		Summary:     "Submit a new job",
		Description: "Submit a job to the named backend",
		Tags:        []string{"Jobs"},
	}, func(ctx context.Context, input *SubmitJobInput) (*SubmitJobOutput, error) {
		if input.Body.Name == "" {
			return nil, huma.Error400BadRequest("name is required")
		}

		req := connector.Request{
			Name:  input.Body.Name,
			Image: input.Body.Image,
			Args:  input.Body.Args,
			Env:   input.Body.Env,
			Resources: connector.ResourceBounds{
				MinCPU:    input.Body.MinCPU,
				MaxCPU:    input.Body.MaxCPU,
				MinMemory: input.Body.MinMemory,
				MaxMemory: input.Body.MaxMemory,
			},
			Extra: input.Body.Extra,
		}

		handle, err := jobSvc.Submit(ctx, input.Connector, req)
		if err != nil {
			return nil, toHumaError("failed to submit job", err)
		}

		encoded, err := jobs.EncodeHandle(handle)
		if err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("failed to encode handle: %v", err))
		}

		resp := &SubmitJobOutput{}
		resp.Body = schemas.HandleResponse{
			Handle: encoded,
			JobID:  handle.JobID,
			Scope:  handle.Scope,
		}
		return resp, nil
	})

	// Poll job
	huma.Register(api, huma.Operation{
		OperationID: "get-job",
		Method:      http.MethodGet,
		Path:        "/api/connectors/{connector}/jobs/{handle}",
		Summary:     "Get job state",
		Description: "Poll the backend for the job's canonical phase",
		Tags:        []string{"Jobs"},
	}, func(ctx context.Context, input *GetJobInput) (*GetJobOutput, error) {
		handle, err := jobs.DecodeHandle(input.Handle)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("bad handle: %v", err))
		}

		res, url, err := jobSvc.Status(ctx, input.Connector, handle)
		if err != nil {
			return nil, toHumaError("failed to poll job", err)
		}

		resp := &GetJobOutput{}
		resp.Body = schemas.ResourceResponse{
			Phase:      string(res.Phase),
			Message:    res.Message,
			Outputs:    res.Outputs,
			OutputsURL: url,
		}
		return resp, nil
	})

	// Cancel job
	huma.Register(api, huma.Operation{
		OperationID: "cancel-job",
		Method:      http.MethodDelete,
		Path:        "/api/connectors/{connector}/jobs/{handle}",
		Summary:     "Cancel a job",
		Description: "Request best-effort cancellation of a job",
		Tags:        []string{"Jobs"},
	}, func(ctx context.Context, input *CancelJobInput) (*struct{}, error) {
		handle, err := jobs.DecodeHandle(input.Handle)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("bad handle: %v", err))
		}

		if err := jobSvc.Cancel(ctx, input.Connector, handle); err != nil {
			return nil, toHumaError("failed to cancel job", err)
		}
		return &struct{}{}, nil
	})

	// Archived outputs
	huma.Register(api, huma.Operation{
		OperationID: "get-job-outputs",
		Method:      http.MethodGet,
		Path:        "/api/connectors/{connector}/jobs/{handle}/outputs",
		Summary:     "Get archived job outputs",
		Description: "Fetch the outputs archived when the job reached a terminal phase",
		Tags:        []string{"Jobs"},
	}, func(ctx context.Context, input *GetOutputsInput) (*GetOutputsOutput, error) {
		handle, err := jobs.DecodeHandle(input.Handle)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("bad handle: %v", err))
		}

		outputs, err := jobSvc.Outputs(ctx, handle)
		if err != nil {
			if errors.Is(err, jobs.ErrNoArtifactStore) || errors.Is(err, artifacts.ErrNotFound) {
				return nil, huma.Error404NotFound(fmt.Sprintf("no archived outputs for job %s", handle.JobID))
			}
			return nil, toHumaError("failed to fetch outputs", err)
		}

		resp := &GetOutputsOutput{}
		resp.Body = schemas.OutputsResponse{JobID: handle.JobID, Outputs: outputs}
		return resp, nil
	})

	// Delete archived outputs
	huma.Register(api, huma.Operation{
		OperationID: "delete-job-outputs",
		Method:      http.MethodDelete,
		Path:        "/api/connectors/{connector}/jobs/{handle}/outputs",
		Summary:     "Delete archived job outputs",
		Tags:        []string{"Jobs"},
	}, func(ctx context.Context, input *GetOutputsInput) (*struct{}, error) {
		handle, err := jobs.DecodeHandle(input.Handle)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("bad handle: %v", err))
		}

		if err := jobSvc.DeleteOutputs(ctx, handle); err != nil {
			if errors.Is(err, jobs.ErrNoArtifactStore) {
				return nil, huma.Error404NotFound("no artifact store configured")
			}
			return nil, toHumaError("failed to delete outputs", err)
		}
		return &struct{}{}, nil
	})

	// Submission history
	huma.Register(api, huma.Operation{
		OperationID: "list-history",
		Method:      http.MethodGet,
		Path:        "/api/connectors/{connector}/history",
		Summary:     "List submission history",
		Description: "Get recent submissions for a connector, newest first",
		Tags:        []string{"History"},
	}, func(ctx context.Context, input *ListHistoryInput) (*ListHistoryOutput, error) {
		subs, err := jobSvc.History(ctx, input.Connector, input.Limit)
		if err != nil {
			if errors.Is(err, jobs.ErrNoHistoryStore) {
				return nil, huma.Error404NotFound("no history store configured")
			}
			return nil, toHumaError("failed to list history", err)
		}

		entries := make([]schemas.HistoryEntry, len(subs))
		for i, sub := range subs {
			entries[i] = schemas.HistoryEntry{
				JobID:     sub.JobID,
				Name:      sub.Name,
				Image:     sub.Image,
				Phase:     sub.Phase,
				Message:   sub.Message,
				CreatedAt: sub.CreatedAt.Format(time.RFC3339),
				UpdatedAt: sub.UpdatedAt.Format(time.RFC3339),
			}
		}

		resp := &ListHistoryOutput{}
		resp.Body.Submissions = entries
		return resp, nil
	})
}

// toHumaError maps the connector error taxonomy onto HTTP statuses.
func toHumaError(prefix string, err error) error {
	msg := fmt.Sprintf("%s: %v", prefix, err)
	switch ferr.CodeOf(err) {
	case ferr.CodeAuth:
		return huma.Error401Unauthorized(msg)
	case ferr.CodeInvocation:
		return huma.Error502BadGateway(msg)
	case ferr.CodeDecode, ferr.CodeMissingField:
		return huma.Error502BadGateway(msg)
	case ferr.CodeResource:
		return huma.Error400BadRequest(msg)
	default:
		return huma.Error500InternalServerError(msg)
	}
}
