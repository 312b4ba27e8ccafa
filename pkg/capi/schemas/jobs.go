package schemas

// SubmitJobRequest represents a request to submit a job to a backend
type SubmitJobRequest struct {
	Name      string            `json:"name" doc:"Job name"`
	Image     string            `json:"image,omitempty" doc:"Container image"`
	Args      []string          `json:"args,omitempty" doc:"Command arguments"`
	Env       map[string]string `json:"env,omitempty" doc:"Environment variables"`
	MinCPU    int               `json:"min_cpu,omitempty" doc:"Minimum CPU cores"`
	MaxCPU    int               `json:"max_cpu,omitempty" doc:"Maximum CPU cores"`
	MinMemory int               `json:"min_memory,omitempty" doc:"Minimum memory in GiB"`
	MaxMemory int               `json:"max_memory,omitempty" doc:"Maximum memory in GiB"`
	Extra     map[string]string `json:"extra,omitempty" doc:"Backend-specific submission options"`
}

// HandleResponse is returned after a successful submission
type HandleResponse struct {
	Handle string `json:"handle" doc:"Opaque handle, pass back to status and cancel calls"`
	JobID  string `json:"job_id" doc:"Backend job identifier"`
	Scope  string `json:"scope,omitempty" doc:"Backend tenancy scope"`
}

// ResourceResponse is the observed state of a remote job
type ResourceResponse struct {
	Phase      string         `json:"phase" doc:"Canonical phase"`
	Message    string         `json:"message,omitempty" doc:"Failure detail if any"`
	Outputs    map[string]any `json:"outputs,omitempty" doc:"Terminal outputs"`
	OutputsURL string         `json:"outputs_url,omitempty" doc:"Presigned URL for archived outputs"`
}

// ConnectorsResponse lists the registered backends
type ConnectorsResponse struct {
	Connectors []string `json:"connectors" doc:"Registered connector names"`
}

// OutputsResponse carries a job's archived outputs
type OutputsResponse struct {
	JobID   string         `json:"job_id" doc:"Backend job identifier"`
	Outputs map[string]any `json:"outputs" doc:"Archived terminal outputs"`
}

// HistoryEntry is one recorded submission
type HistoryEntry struct {
	JobID     string `json:"job_id" doc:"Backend job identifier"`
	Name      string `json:"name,omitempty" doc:"Job name"`
	Image     string `json:"image,omitempty" doc:"Container image"`
	Phase     string `json:"phase" doc:"Last recorded phase"`
	Message   string `json:"message,omitempty" doc:"Failure detail if any"`
	CreatedAt string `json:"created_at" doc:"Submission timestamp"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp"`
}

// HistoryResponse lists recent submissions for a connector
type HistoryResponse struct {
	Submissions []HistoryEntry `json:"submissions" doc:"Recent submissions, newest first"`
}
