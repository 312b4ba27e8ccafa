// Package artifacts provides storage for terminal job outputs using
// S3-compatible storage.
package artifacts

import (
	"context"
	"io"
	"time"
)

// Artifact represents a stored artifact with metadata.
type Artifact struct {
	Key          string            `json:"key"`    // S3 key (e.g., "jobs/abc123/outputs.json")
	Bucket       string            `json:"bucket"` // Bucket name
	Size         int64             `json:"size"`   // Size in bytes
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata"`
	URL          string            `json:"url,omitempty"` // Presigned URL (when requested)
}

// Store defines the interface for artifact storage operations.
type Store interface {
	// Upload uploads data to the artifact store.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, metadata map[string]string) (*Artifact, error)

	// Download retrieves an artifact by key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetPresignedURL generates a presigned URL for downloading an artifact.
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Delete removes an artifact by key.
	Delete(ctx context.Context, key string) error

	// EnsureBucket ensures the bucket exists, creating it if necessary.
	EnsureBucket(ctx context.Context) error
}

// OutputsKey returns the storage key for a job's terminal outputs.
func OutputsKey(jobID string) string {
	return "jobs/" + jobID + "/outputs.json"
}
