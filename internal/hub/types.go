// Package hub defines the domain types shared by the workflow engine:
// workflow state, stage descriptors, and the wire events streamed to clients.
package hub

import (
	"errors"
	"fmt"
)

// StageKind classifies how the runner treats a stage.
type StageKind string

const (
	KindAutomatic       StageKind = "automatic"
	KindApprovalGate    StageKind = "approval-gate"
	KindConditionalFork StageKind = "conditional-fork"
)

// StepStatus is the lifecycle status of a single stage within a run.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepActive   StepStatus = "active"
	StepComplete StepStatus = "complete"
	StepRejected StepStatus = "rejected"
)

// Outcome is a workflow's terminal state. Once set, the state is frozen.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

var (
	// ErrRouteAlreadySet is returned when a fork decision would overwrite
	// a previously recorded route.
	ErrRouteAlreadySet = errors.New("route decision already set")

	// ErrTerminal is returned when a mutation is attempted on a workflow
	// that already reached a terminal outcome.
	ErrTerminal = errors.New("workflow reached terminal outcome")
)

// StepRecord is one entry in a workflow's stage history.
type StepRecord struct {
	Stage   string     `json:"step"`
	Label   string     `json:"label"`
	Status  StepStatus `json:"status"`
	Summary string     `json:"result_summary,omitempty"`
}

// WorkflowState is the mutable record threaded through a single run.
// It is owned by exactly one runner goroutine at a time; suspension stores
// a Clone in the approval ledger and resume hands the clone back.
type WorkflowState struct {
	WorkflowID string                    `json:"workflow_id"`
	Family     string                    `json:"family"`
	History    []StepRecord              `json:"stage_history"`
	Outputs    map[string]map[string]any `json:"accumulated_outputs"`
	Route      string                    `json:"route_decision,omitempty"`
	Outcome    Outcome                   `json:"terminal_outcome,omitempty"`
}

// NewWorkflowState creates an empty state for a run of the given family.
func NewWorkflowState(family string) *WorkflowState {
	return &WorkflowState{
		WorkflowID: GenerateID("wf"),
		Family:     family,
		Outputs:    make(map[string]map[string]any),
	}
}

// Terminal reports whether the workflow has reached a terminal outcome.
func (s *WorkflowState) Terminal() bool { return s.Outcome != "" }

// BeginStage appends an active history entry for the stage. At most one
// entry may be active at a time; beginning a stage while another is active
// or after a terminal outcome is a programming error surfaced as an error.
func (s *WorkflowState) BeginStage(stage, label string) error {
	if s.Terminal() {
		return fmt.Errorf("begin stage %q: %w", stage, ErrTerminal)
	}
	for i := range s.History {
		if s.History[i].Status == StepActive {
			return fmt.Errorf("begin stage %q: stage %q still active", stage, s.History[i].Stage)
		}
	}
	s.History = append(s.History, StepRecord{Stage: stage, Label: label, Status: StepActive})
	return nil
}

// CompleteStage transitions the active entry for stage to complete and
// records its result summary. Completed entries are never mutated again.
func (s *WorkflowState) CompleteStage(stage, summary string) error {
	return s.finishStage(stage, StepComplete, summary)
}

// RejectStage transitions the active entry for stage to rejected.
func (s *WorkflowState) RejectStage(stage, summary string) error {
	return s.finishStage(stage, StepRejected, summary)
}

func (s *WorkflowState) finishStage(stage string, status StepStatus, summary string) error {
	for i := len(s.History) - 1; i >= 0; i-- {
		rec := &s.History[i]
		if rec.Stage != stage {
			continue
		}
		if rec.Status != StepActive {
			return fmt.Errorf("stage %q is %s, not active", stage, rec.Status)
		}
		rec.Status = status
		rec.Summary = summary
		return nil
	}
	return fmt.Errorf("stage %q has no active history entry", stage)
}

// RecordSkipped appends an already-complete entry for a gate the fork
// routed around.
func (s *WorkflowState) RecordSkipped(stage, label string) {
	s.History = append(s.History, StepRecord{
		Stage:   stage,
		Label:   label,
		Status:  StepComplete,
		Summary: "skipped",
	})
}

// SetOutput stores a stage's result payload. Keys are unique per stage;
// a stage writing twice replaces its own entry only.
func (s *WorkflowState) SetOutput(stage string, out map[string]any) {
	if out == nil {
		out = map[string]any{}
	}
	s.Outputs[stage] = out
}

// Output returns the result payload of a stage, or nil if absent.
func (s *WorkflowState) Output(stage string) map[string]any {
	return s.Outputs[stage]
}

// SetRoute records the branch selected at a conditional fork. The decision
// is immutable: a second call with a different route fails.
func (s *WorkflowState) SetRoute(route string) error {
	if s.Route != "" && s.Route != route {
		return fmt.Errorf("set route %q: %w (current %q)", route, ErrRouteAlreadySet, s.Route)
	}
	s.Route = route
	return nil
}

// Finish sets the terminal outcome. Subsequent stage mutations fail.
func (s *WorkflowState) Finish(outcome Outcome) {
	if s.Outcome == "" {
		s.Outcome = outcome
	}
}

// Clone returns a deep copy of the state. History and output maps are
// copied so the snapshot cannot observe later mutations.
func (s *WorkflowState) Clone() *WorkflowState {
	c := &WorkflowState{
		WorkflowID: s.WorkflowID,
		Family:     s.Family,
		Route:      s.Route,
		Outcome:    s.Outcome,
		History:    make([]StepRecord, len(s.History)),
		Outputs:    make(map[string]map[string]any, len(s.Outputs)),
	}
	copy(c.History, s.History)
	for stage, out := range s.Outputs {
		dup := make(map[string]any, len(out))
		for k, v := range out {
			dup[k] = v
		}
		c.Outputs[stage] = dup
	}
	return c
}

// HistorySnapshot returns a copy of the stage history for event emission.
func (s *WorkflowState) HistorySnapshot() []StepRecord {
	snap := make([]StepRecord, len(s.History))
	copy(snap, s.History)
	return snap
}
