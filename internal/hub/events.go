package hub

// EventType identifies an event on the per-run stream.
type EventType string

const (
	EventWorkflowStep     EventType = "workflow_step"
	EventApprovalRequired EventType = "approval_required"
	EventResponse         EventType = "response"
	EventError            EventType = "error"
)

// Event is one frame on a run's event stream. Step events carry the full
// ordered history snapshot in AllSteps so a consumer can render cumulative
// progress from any single event (snapshots, not diffs).
type Event struct {
	Type EventType `json:"type"`

	// workflow_step
	Step     *StepRecord  `json:"step,omitempty"`
	AllSteps []StepRecord `json:"all_steps,omitempty"`

	// approval_required
	ApprovalID string            `json:"approval_id,omitempty"`
	Title      string            `json:"title,omitempty"`
	Message    string            `json:"message,omitempty"`
	Details    map[string]string `json:"details,omitempty"`

	// response / error
	Content string `json:"content,omitempty"`
}

// StepEvent builds a workflow_step event for the most recent history entry.
func StepEvent(state *WorkflowState) Event {
	snap := state.HistorySnapshot()
	ev := Event{Type: EventWorkflowStep, AllSteps: snap}
	if len(snap) > 0 {
		last := snap[len(snap)-1]
		ev.Step = &last
	}
	return ev
}

// ResponseEvent builds the terminal response event.
func ResponseEvent(content string) Event {
	return Event{Type: EventResponse, Content: content}
}

// ErrorEvent builds the terminal error event.
func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Content: msg}
}
