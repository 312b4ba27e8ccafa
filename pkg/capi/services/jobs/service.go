// Package jobs routes submissions to registered connectors and layers the
// service concerns on top: caching terminal results, archiving outputs, and
// recording submission history.
package jobs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/redartera/flytekit/pkg/artifacts"
	"github.com/redartera/flytekit/pkg/connector"
	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
	"github.com/redartera/flytekit/pkg/history"
	"github.com/redartera/flytekit/pkg/kv"
)

// Sentinel errors for optional concerns that were not configured. Routes
// map them to 404.
var (
	ErrNoArtifactStore = errors.New("artifact store not configured")
	ErrNoHistoryStore  = errors.New("history store not configured")
)

// History is the slice of the submission history store this service uses.
// *history.Store satisfies it; tests substitute a fake.
type History interface {
	RecordCreate(ctx context.Context, connectorName string, handle connector.Handle, req connector.Request) error
	RecordPhase(ctx context.Context, connectorName, jobID string, phase connector.Phase, message string) error
	List(ctx context.Context, connectorName string, limit int) ([]history.Submission, error)
}

// Service wraps the connector registry for the HTTP surface. The cache,
// artifact store, and history store are each optional; a nil value simply
// disables that concern.
type Service struct {
	registry  *connector.Registry
	cache     kv.Store
	artifacts artifacts.Store
	history   History
	cacheTTL  time.Duration
	log       *flog.Logger
}

func NewService(registry *connector.Registry, cache kv.Store, artStore artifacts.Store, hist History, cacheTTL time.Duration, log *flog.Logger) *Service {
	return &Service{
		registry:  registry,
		cache:     cache,
		artifacts: artStore,
		history:   hist,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// EncodeHandle renders a handle in its URL-safe wire form.
func EncodeHandle(h connector.Handle) (string, error) {
	data, err := h.Encode()
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeHandle parses the URL-safe wire form produced by EncodeHandle.
func DecodeHandle(encoded string) (connector.Handle, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return connector.Handle{}, ferr.New(ferr.CodeDecode, err)
	}
	return connector.DecodeHandle(data)
}

// Connectors returns the registered backend names.
func (s *Service) Connectors() []string {
	return s.registry.Names()
}

// Submit sends the request to the named backend and returns its handle.
func (s *Service) Submit(ctx context.Context, connectorName string, req connector.Request) (connector.Handle, error) {
	conn, err := s.registry.Get(connectorName)
	if err != nil {
		return connector.Handle{}, err
	}

	handle, err := conn.Create(ctx, req)
	if err != nil {
		return connector.Handle{}, err
	}

	if s.history != nil {
		if err := s.history.RecordCreate(ctx, connectorName, handle, req); err != nil {
			s.log.Warn("failed to record submission", "connector", connectorName, "job_id", handle.JobID, "error", err)
		}
	}

	return handle, nil
}

// Status polls the backend for the job's current state. Terminal results are
// cached so repeated polls after completion stop hitting the backend, and
// outputs are archived to the artifact store with a presigned download URL.
func (s *Service) Status(ctx context.Context, connectorName string, handle connector.Handle) (*connector.Resource, string, error) {
	cacheKey := "result:" + connectorName + ":" + handle.JobID

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var res connector.Resource
			if err := json.Unmarshal(data, &res); err == nil {
				return &res, s.outputsURL(ctx, handle, &res), nil
			}
			s.log.Warn("dropping corrupt cached result", "key", cacheKey)
			_ = s.cache.Delete(ctx, cacheKey)
		}
	}

	conn, err := s.registry.Get(connectorName)
	if err != nil {
		return nil, "", err
	}

	res, err := conn.Get(ctx, handle)
	if err != nil {
		return nil, "", err
	}

	if !res.Phase.IsTerminal() {
		return res, "", nil
	}

	if s.history != nil {
		if err := s.history.RecordPhase(ctx, connectorName, handle.JobID, res.Phase, res.Message); err != nil {
			s.log.Warn("failed to record terminal phase", "job_id", handle.JobID, "error", err)
		}
	}

	url := s.archiveOutputs(ctx, handle, res)

	if s.cache != nil {
		if data, err := json.Marshal(res); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL); err != nil {
				s.log.Warn("failed to cache terminal result", "key", cacheKey, "error", err)
			}
		}
	}

	return res, url, nil
}

// Cancel asks the backend to stop the job. Idempotent.
func (s *Service) Cancel(ctx context.Context, connectorName string, handle connector.Handle) error {
	conn, err := s.registry.Get(connectorName)
	if err != nil {
		return err
	}
	return conn.Delete(ctx, handle)
}

// Outputs retrieves a job's archived outputs from the artifact store.
// Returns artifacts.ErrNotFound when the job never archived any.
func (s *Service) Outputs(ctx context.Context, handle connector.Handle) (map[string]any, error) {
	if s.artifacts == nil {
		return nil, ErrNoArtifactStore
	}

	rc, err := s.artifacts.Download(ctx, artifacts.OutputsKey(handle.JobID))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var outputs map[string]any
	if err := json.NewDecoder(rc).Decode(&outputs); err != nil {
		return nil, ferr.New(ferr.CodeDecode, err)
	}
	return outputs, nil
}

// DeleteOutputs removes a job's archived outputs. Operator cleanup for
// payloads that must not outlive their retention.
func (s *Service) DeleteOutputs(ctx context.Context, handle connector.Handle) error {
	if s.artifacts == nil {
		return ErrNoArtifactStore
	}
	return s.artifacts.Delete(ctx, artifacts.OutputsKey(handle.JobID))
}

// History returns the most recent submissions for a connector, newest
// first.
func (s *Service) History(ctx context.Context, connectorName string, limit int) ([]history.Submission, error) {
	if s.history == nil {
		return nil, ErrNoHistoryStore
	}
	return s.history.List(ctx, connectorName, limit)
}

func (s *Service) archiveOutputs(ctx context.Context, handle connector.Handle, res *connector.Resource) string {
	if s.artifacts == nil || len(res.Outputs) == 0 {
		return ""
	}

	data, err := json.Marshal(res.Outputs)
	if err != nil {
		s.log.Warn("failed to marshal outputs", "job_id", handle.JobID, "error", err)
		return ""
	}

	key := artifacts.OutputsKey(handle.JobID)
	if _, err := s.artifacts.Upload(ctx, key, bytes.NewReader(data), "application/json", nil); err != nil {
		s.log.Warn("failed to archive outputs", "job_id", handle.JobID, "error", err)
		return ""
	}

	url, err := s.artifacts.GetPresignedURL(ctx, key, time.Hour)
	if err != nil {
		s.log.Warn("failed to presign outputs", "job_id", handle.JobID, "error", err)
		return ""
	}
	return url
}

func (s *Service) outputsURL(ctx context.Context, handle connector.Handle, res *connector.Resource) string {
	if s.artifacts == nil || len(res.Outputs) == 0 {
		return ""
	}
	url, err := s.artifacts.GetPresignedURL(ctx, artifacts.OutputsKey(handle.JobID), time.Hour)
	if err != nil {
		return ""
	}
	return url
}
