package connector

import (
	"encoding/json"

	"github.com/redartera/flytekit/pkg/ferr"
)

// Handle is the opaque continuation state for one submitted job: the
// backend's job identifier plus whatever scoping context is needed to
// reconstruct an authenticated client after a process restart. The host
// engine persists it between polls; the connector keeps no state of its own.
//
// Handles are immutable values. Two handles are equal iff all fields are
// equal, so they can be compared with ==.
type Handle struct {
	JobID string `json:"job_id"`
	// Scope carries backend-specific tenancy context, e.g. an organization
	// id or a Kubernetes namespace. Empty when the backend needs none.
	Scope string `json:"scope,omitempty"`
}

// Encode serializes the handle into its stable wire form.
func (h Handle) Encode() ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, ferr.New(ferr.CodeDecode, err)
	}
	return data, nil
}

// DecodeHandle parses a handle previously produced by Encode. Round-tripping
// yields a handle equal to the original, field for field.
func DecodeHandle(data []byte) (Handle, error) {
	var h Handle
	if err := json.Unmarshal(data, &h); err != nil {
		return Handle{}, ferr.New(ferr.CodeDecode, err)
	}
	if h.JobID == "" {
		return Handle{}, ferr.Newf(ferr.CodeMissingField, "handle has no job_id")
	}
	return h, nil
}
