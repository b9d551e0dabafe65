package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/registry"
)

// ApprovalLedger is the suspension store the runner depends on. Resume is
// destructive: each approval id resolves at most one decision.
type ApprovalLedger interface {
	Suspend(ctx context.Context, state *hub.WorkflowState, gate string) (string, error)
	Resume(ctx context.Context, id string) (*hub.WorkflowState, string, error)
}

// Tracker observes run lifecycle transitions. The runner calls it inline,
// so implementations should be fast; persistence errors are logged by the
// implementation, not surfaced to the run.
type Tracker interface {
	RunStarted(ctx context.Context, state *hub.WorkflowState)
	RunSuspended(ctx context.Context, state *hub.WorkflowState, approvalID, gate string)
	RunFinished(ctx context.Context, state *hub.WorkflowState, response string)
}

// Message is one prior conversational turn supplied with a request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Input is the client request that starts a run.
type Input struct {
	Message     string
	ImageBase64 string
	MimeType    string
	History     []Message
}

// WorkflowRunner owns run execution. Each Start or Resume call spawns one
// producer goroutine that writes an ordered event stream to the returned
// channel and closes it when the run completes, suspends, or fails.
type WorkflowRunner struct {
	registry *registry.Registry
	ledger   ApprovalLedger
	executor *StageExecutor
	tracker  Tracker
	log      *slog.Logger
}

type RunnerOption func(*WorkflowRunner)

// WithTracker attaches a run-history observer.
func WithTracker(t Tracker) RunnerOption {
	return func(r *WorkflowRunner) { r.tracker = t }
}

// WithPacing inserts a delay after each step frame. Demo deployments use
// this to make stage progression visible; zero disables it.
func WithPacing(d time.Duration) RunnerOption {
	return func(r *WorkflowRunner) {
		if d <= 0 {
			return
		}
		r.executor.pacing = func(ctx context.Context) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		}
	}
}

func NewWorkflowRunner(reg *registry.Registry, ledger ApprovalLedger, log *slog.Logger, opts ...RunnerOption) *WorkflowRunner {
	if log == nil {
		log = slog.Default()
	}
	r := &WorkflowRunner{
		registry: reg,
		ledger:   ledger,
		executor: NewStageExecutor(log, nil),
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a run of the named family and returns its event stream.
// The stream carries workflow_step frames for every stage transition and
// ends with exactly one of approval_required, response, or error.
func (r *WorkflowRunner) Start(ctx context.Context, family string, input Input) (<-chan hub.Event, error) {
	fam, ok := r.registry.Family(family)
	if !ok {
		return nil, fmt.Errorf("unknown workflow family %q", family)
	}
	if input.ImageBase64 != "" && !fam.AcceptsImage {
		return nil, fmt.Errorf("family %q does not accept image input", family)
	}

	state := hub.NewWorkflowState(family)
	state.SetOutput("request", requestOutput(input))

	if r.tracker != nil {
		r.tracker.RunStarted(ctx, state)
	}
	r.log.Info("workflow started", "workflow_id", state.WorkflowID, "family", family)

	ch := make(chan hub.Event, 16)
	go func() {
		defer close(ch)
		r.drive(ctx, fam, state, 0, ch)
	}()
	return ch, nil
}

// Resume consumes a pending approval and continues or rejects the run.
// The ledger entry is claimed atomically, so a second decision for the
// same id fails with the ledger's not-found error.
func (r *WorkflowRunner) Resume(ctx context.Context, approvalID string, approved bool) (<-chan hub.Event, error) {
	state, gate, err := r.ledger.Resume(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	fam, ok := r.registry.Family(state.Family)
	if !ok {
		return nil, fmt.Errorf("snapshot references unknown family %q", state.Family)
	}
	gateIdx := fam.StageIndex(gate)
	if gateIdx < 0 {
		return nil, fmt.Errorf("snapshot references unknown gate %q in family %q", gate, state.Family)
	}
	desc := fam.Stages[gateIdx]

	r.log.Info("approval decided",
		"workflow_id", state.WorkflowID,
		"family", state.Family,
		"gate", gate,
		"approved", approved)

	ch := make(chan hub.Event, 16)
	go func() {
		defer close(ch)
		emit := r.emitter(ctx, ch)

		if !approved {
			if err := state.RejectStage(gate, "rejected"); err != nil {
				r.fail(ctx, state, emit, err)
				return
			}
			state.Finish(hub.OutcomeRejected)
			emit(hub.StepEvent(state))
			msg := rejectionMessage(fam, state, gate)
			emit(hub.ResponseEvent(msg))
			if r.tracker != nil {
				r.tracker.RunFinished(ctx, state, msg)
			}
			return
		}

		if err := state.CompleteStage(gate, "approved"); err != nil {
			r.fail(ctx, state, emit, err)
			return
		}
		if !emit(hub.StepEvent(state)) {
			return
		}
		r.drive(ctx, fam, state, successor(desc, fam, gateIdx), ch)
	}()
	return ch, nil
}

// drive executes stages from index start until the run suspends, finishes,
// or fails. It is the single producer for ch; ordering on the channel is
// exactly execution order.
func (r *WorkflowRunner) drive(ctx context.Context, fam *registry.Family, state *hub.WorkflowState, start int, ch chan<- hub.Event) {
	emit := r.emitter(ctx, ch)

	i := start
	for i < len(fam.Stages) {
		if ctx.Err() != nil {
			r.fail(ctx, state, emit, ctx.Err())
			return
		}
		desc := fam.Stages[i]

		switch desc.Kind {
		case hub.KindAutomatic:
			if err := r.executor.RunAutomatic(ctx, desc, state, emit); err != nil {
				r.fail(ctx, state, emit, err)
				return
			}
			i = successor(desc, fam, i)

		case hub.KindApprovalGate:
			approvalID, err := r.executor.SuspendAtGate(ctx, desc, state, r.ledger, emit)
			if err != nil {
				r.fail(ctx, state, emit, err)
				return
			}
			if r.tracker != nil {
				r.tracker.RunSuspended(ctx, state, approvalID, desc.Name)
			}
			return

		case hub.KindConditionalFork:
			branch, err := r.executor.SelectRoute(desc, state)
			if err != nil {
				r.fail(ctx, state, emit, err)
				return
			}
			target := fam.StageIndex(branch.Goto)
			// Gates the route skips over still appear in the history so
			// the rendered progress list stays complete.
			for j := i + 1; j < target; j++ {
				if fam.Stages[j].Kind != hub.KindApprovalGate {
					continue
				}
				state.RecordSkipped(fam.Stages[j].Name, fam.Stages[j].Label)
				if !emit(hub.StepEvent(state)) {
					return
				}
			}
			i = target
		}
	}

	state.Finish(hub.OutcomeCompleted)
	response := fam.Respond(state)
	emit(hub.ResponseEvent(response))
	r.log.Info("workflow completed", "workflow_id", state.WorkflowID, "family", state.Family)
	if r.tracker != nil {
		r.tracker.RunFinished(ctx, state, response)
	}
}

// fail finalizes the run as failed and emits the error frame.
func (r *WorkflowRunner) fail(ctx context.Context, state *hub.WorkflowState, emit emitFunc, err error) {
	state.Finish(hub.OutcomeFailed)
	r.log.Error("workflow failed",
		"workflow_id", state.WorkflowID,
		"family", state.Family,
		"error", err)
	emit(hub.ErrorEvent(err.Error()))
	if r.tracker != nil {
		r.tracker.RunFinished(ctx, state, "")
	}
}

// emitter builds the per-run emit function. Sends give up when the caller's
// context is gone rather than blocking forever on an abandoned stream.
func (r *WorkflowRunner) emitter(ctx context.Context, ch chan<- hub.Event) emitFunc {
	return func(ev hub.Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
}

// successor returns the index execution continues at after stage i.
func successor(desc registry.StageDescriptor, fam *registry.Family, i int) int {
	if desc.Next != "" {
		return fam.StageIndex(desc.Next)
	}
	return i + 1
}

// rejectionMessage composes the terminal response for a denied gate.
func rejectionMessage(fam *registry.Family, state *hub.WorkflowState, gate string) string {
	if fam.RejectMessage != nil {
		return fam.RejectMessage(state, gate)
	}
	return fmt.Sprintf("Request rejected at %s.", gate)
}

// requestOutput seeds the client input into accumulated outputs so stage
// logic and ledger snapshots both see it.
func requestOutput(input Input) map[string]any {
	out := map[string]any{
		"message": input.Message,
	}
	if input.ImageBase64 != "" {
		out["image_base64"] = input.ImageBase64
		out["mime_type"] = input.MimeType
	}
	if len(input.History) > 0 {
		history := make([]map[string]any, 0, len(input.History))
		for _, m := range input.History {
			history = append(history, map[string]any{"role": m.Role, "content": m.Content})
		}
		out["history"] = history
	}
	return out
}
