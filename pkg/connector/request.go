package connector

import (
	"fmt"

	"github.com/redartera/flytekit/pkg/ferr"
)

// ResourceBounds expresses minimum/maximum CPU (cores) and memory (GiB)
// for a job. Zero means unset; when a maximum is unset only the minimum is
// sent to the backend.
type ResourceBounds struct {
	MinCPU    int `json:"min_cpu,omitempty"`
	MaxCPU    int `json:"max_cpu,omitempty"`
	MinMemory int `json:"min_memory,omitempty"`
	MaxMemory int `json:"max_memory,omitempty"`
}

// CPURange renders the CPU bound in the backend's "min:max" form, or just
// "min" when no maximum is given.
func (b ResourceBounds) CPURange() string {
	if b.MaxCPU != 0 {
		return fmt.Sprintf("%d:%d", b.MinCPU, b.MaxCPU)
	}
	return fmt.Sprintf("%d", b.MinCPU)
}

// MemoryRange renders the memory bound like CPURange.
func (b ResourceBounds) MemoryRange() string {
	if b.MaxMemory != 0 {
		return fmt.Sprintf("%d:%d", b.MinMemory, b.MaxMemory)
	}
	return fmt.Sprintf("%d", b.MinMemory)
}

// Validate rejects inverted bounds. A maximum below its minimum is a caller
// bug, not something to forward to the backend.
func (b ResourceBounds) Validate() error {
	if b.MaxCPU != 0 && b.MaxCPU < b.MinCPU {
		return ferr.Newf(ferr.CodeResource, "max cpu %d below min cpu %d", b.MaxCPU, b.MinCPU)
	}
	if b.MaxMemory != 0 && b.MaxMemory < b.MinMemory {
		return ferr.Newf(ferr.CodeResource, "max memory %d below min memory %d", b.MaxMemory, b.MinMemory)
	}
	return nil
}

// Request is the backend-independent description of one unit of work,
// derived from the host engine's task template.
type Request struct {
	Name      string            `json:"name"`
	Image     string            `json:"image,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	Resources ResourceBounds    `json:"resources,omitempty"`
	// Extra carries backend-specific submission options that the canonical
	// fields cannot express, passed through verbatim.
	Extra map[string]string `json:"extra,omitempty"`
}

// Validate checks the request before any backend call is made.
func (r Request) Validate() error {
	if r.Name == "" {
		return ferr.Newf(ferr.CodeResource, "request has no name")
	}
	return r.Resources.Validate()
}
