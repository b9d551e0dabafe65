// Package engine drives workflow runs: sequential stage execution, fork
// routing, and suspension at approval gates.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/registry"
)

// emitFunc delivers one event to the run's stream. It returns false when
// the consumer is gone and the run should stop producing.
type emitFunc func(hub.Event) bool

// StageExecutor runs individual stages against a workflow state. The
// executor owns the begin/complete bookkeeping so stage logic stays pure.
type StageExecutor struct {
	log    *slog.Logger
	pacing func(ctx context.Context) // optional delay between step frames
}

func NewStageExecutor(log *slog.Logger, pacing func(ctx context.Context)) *StageExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &StageExecutor{log: log, pacing: pacing}
}

func (e *StageExecutor) pace(ctx context.Context) {
	if e.pacing != nil {
		e.pacing(ctx)
	}
}

// RunAutomatic executes one automatic stage: mark active, emit the step
// frame, run the logic, merge its output, mark complete, emit again.
func (e *StageExecutor) RunAutomatic(ctx context.Context, desc registry.StageDescriptor, state *hub.WorkflowState, emit emitFunc) error {
	if err := state.BeginStage(desc.Name, desc.Label); err != nil {
		return err
	}
	if !emit(hub.StepEvent(state)) {
		return ctx.Err()
	}
	e.pace(ctx)

	result, err := desc.Logic(ctx, state)
	if err != nil {
		e.log.Error("stage failed",
			"workflow_id", state.WorkflowID,
			"family", state.Family,
			"stage", desc.Name,
			"error", err)
		if rerr := state.RejectStage(desc.Name, err.Error()); rerr != nil {
			return rerr
		}
		emit(hub.StepEvent(state))
		return fmt.Errorf("stage %s: %w", desc.Name, err)
	}

	state.SetOutput(desc.Name, result.Output)
	if err := state.CompleteStage(desc.Name, result.Summary); err != nil {
		return err
	}
	e.log.Debug("stage complete",
		"workflow_id", state.WorkflowID,
		"stage", desc.Name,
		"summary", result.Summary)
	if !emit(hub.StepEvent(state)) {
		return ctx.Err()
	}
	e.pace(ctx)
	return nil
}

// SuspendAtGate marks the gate active, snapshots the state into the ledger,
// and emits the approval_required frame carrying the opaque approval id.
// The run's goroutine exits after this; Resume picks the snapshot back up.
func (e *StageExecutor) SuspendAtGate(ctx context.Context, desc registry.StageDescriptor, state *hub.WorkflowState, ledger ApprovalLedger, emit emitFunc) (string, error) {
	if err := state.BeginStage(desc.Name, desc.Label); err != nil {
		return "", err
	}
	if !emit(hub.StepEvent(state)) {
		return "", ctx.Err()
	}
	e.pace(ctx)

	approvalID, err := ledger.Suspend(ctx, state, desc.Name)
	if err != nil {
		return "", fmt.Errorf("suspend at gate %s: %w", desc.Name, err)
	}

	ev := hub.Event{
		Type:       hub.EventApprovalRequired,
		ApprovalID: approvalID,
		Title:      desc.Gate.Title,
		Message:    desc.Gate.Message,
		AllSteps:   state.HistorySnapshot(),
	}
	if desc.Gate.Details != nil {
		ev.Details = desc.Gate.Details(state)
	}
	emit(ev)

	e.log.Info("workflow suspended",
		"workflow_id", state.WorkflowID,
		"family", state.Family,
		"gate", desc.Name,
		"approval_id", approvalID)
	return approvalID, nil
}

// SelectRoute evaluates a conditional fork and records the route decision.
// The decision is made exactly once; the immutability check in SetRoute
// guards against a replayed snapshot re-deciding differently.
func (e *StageExecutor) SelectRoute(desc registry.StageDescriptor, state *hub.WorkflowState) (registry.ForkBranch, error) {
	branch, err := registry.SelectBranch(desc, state)
	if err != nil {
		return registry.ForkBranch{}, err
	}
	if branch.Route != "" {
		if err := state.SetRoute(branch.Route); err != nil {
			return registry.ForkBranch{}, err
		}
	}
	e.log.Debug("fork routed",
		"workflow_id", state.WorkflowID,
		"fork", desc.Name,
		"route", branch.Route,
		"goto", branch.Goto)
	return branch, nil
}
