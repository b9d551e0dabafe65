// Package services holds the supporting services around the workflow
// engine: run history, concurrency limits, and the approval sweeper.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/repository"
)

// RunHistoryService records run lifecycle transitions into the run
// repository. It implements the runner's Tracker interface; persistence
// failures are logged and swallowed so history never breaks a live run.
type RunHistoryService struct {
	runs repository.RunRepository
	log  *slog.Logger
}

func NewRunHistoryService(runs repository.RunRepository, log *slog.Logger) *RunHistoryService {
	if log == nil {
		log = slog.Default()
	}
	return &RunHistoryService{runs: runs, log: log}
}

// RunStarted creates the run record in running state.
func (s *RunHistoryService) RunStarted(ctx context.Context, state *hub.WorkflowState) {
	rec := &hub.RunRecord{
		ID:        state.WorkflowID,
		Family:    state.Family,
		Status:    hub.RunRunning,
		StartedAt: time.Now(),
	}
	if err := s.runs.Create(ctx, rec); err != nil {
		s.log.Warn("record run start", "workflow_id", state.WorkflowID, "error", err)
	}
}

// RunSuspended marks the run suspended on the given gate.
func (s *RunHistoryService) RunSuspended(ctx context.Context, state *hub.WorkflowState, approvalID, gate string) {
	rec, err := s.runs.Get(ctx, state.WorkflowID)
	if err != nil {
		s.log.Warn("record run suspension", "workflow_id", state.WorkflowID, "error", err)
		return
	}
	rec.Status = hub.RunSuspended
	rec.ApprovalID = approvalID
	rec.Gate = gate
	s.apply(rec, state)
	if err := s.runs.Update(ctx, rec); err != nil {
		s.log.Warn("record run suspension", "workflow_id", state.WorkflowID, "error", err)
	}
}

// RunFinished records the terminal outcome, response, and completion time.
func (s *RunHistoryService) RunFinished(ctx context.Context, state *hub.WorkflowState, response string) {
	rec, err := s.runs.Get(ctx, state.WorkflowID)
	if err != nil {
		s.log.Warn("record run finish", "workflow_id", state.WorkflowID, "error", err)
		return
	}
	switch state.Outcome {
	case hub.OutcomeCompleted:
		rec.Status = hub.RunCompleted
	case hub.OutcomeRejected:
		rec.Status = hub.RunRejected
	default:
		rec.Status = hub.RunFailed
	}
	rec.Response = response
	rec.ApprovalID = ""
	rec.Gate = ""
	now := time.Now()
	rec.CompletedAt = &now
	s.apply(rec, state)
	if err := s.runs.Update(ctx, rec); err != nil {
		s.log.Warn("record run finish", "workflow_id", state.WorkflowID, "error", err)
	}
}

// Abandon marks a suspended run failed after its approval expired.
func (s *RunHistoryService) Abandon(ctx context.Context, workflowID, reason string) error {
	rec, err := s.runs.Get(ctx, workflowID)
	if err != nil {
		return err
	}
	if rec.Status != hub.RunSuspended {
		return nil
	}
	rec.Status = hub.RunFailed
	rec.Error = reason
	rec.ApprovalID = ""
	rec.Gate = ""
	now := time.Now()
	rec.CompletedAt = &now
	return s.runs.Update(ctx, rec)
}

// Get returns one run record.
func (s *RunHistoryService) Get(ctx context.Context, id string) (*hub.RunRecord, error) {
	return s.runs.Get(ctx, id)
}

// List returns recent runs, optionally filtered by family.
func (s *RunHistoryService) List(ctx context.Context, family string, limit int) ([]*hub.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.runs.List(ctx, family, limit)
}

func (s *RunHistoryService) apply(rec *hub.RunRecord, state *hub.WorkflowState) {
	rec.Route = state.Route
	rec.Steps = state.HistorySnapshot()
	rec.Outputs = state.Clone().Outputs
}
