package hub

import "time"

// RunStatus mirrors the runner's state machine for stored run records.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSuspended RunStatus = "suspended"
	RunCompleted RunStatus = "completed"
	RunRejected  RunStatus = "rejected"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the stored history of one workflow run.
type RunRecord struct {
	ID          string                    `json:"id"`
	Family      string                    `json:"family"`
	Status      RunStatus                 `json:"status"`
	Route       string                    `json:"route,omitempty"`
	Steps       []StepRecord              `json:"steps,omitempty"`
	Outputs     map[string]map[string]any `json:"outputs,omitempty"`
	Response    string                    `json:"response,omitempty"`
	Error       string                    `json:"error,omitempty"`
	ApprovalID  string                    `json:"approval_id,omitempty"`
	Gate        string                    `json:"gate,omitempty"`
	StartedAt   time.Time                 `json:"started_at"`
	CompletedAt *time.Time                `json:"completed_at,omitempty"`
}
