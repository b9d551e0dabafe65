// Package registry declares the stage tables for each workflow family and
// the branch-selection rules evaluated at conditional forks.
package registry

import (
	"context"
	"fmt"

	"github.com/soochol/aihub/internal/hub"
)

// StageResult is the payload an automatic stage's logic returns.
type StageResult struct {
	Output  map[string]any
	Summary string
}

// StageLogic is the opaque business logic of an automatic stage. It reads
// and returns data through the workflow state; collaborator clients (LLM,
// vision, catalog) are captured when the family is built. Logic must not
// mutate the state directly — the executor merges the result.
type StageLogic func(ctx context.Context, state *hub.WorkflowState) (*StageResult, error)

// GateSpec describes the human-facing side of an approval gate: what the
// approval request looks like when the workflow suspends on it.
type GateSpec struct {
	Title   string
	Message string
	// Details derives the display fields for the pending decision from
	// accumulated outputs.
	Details func(state *hub.WorkflowState) map[string]string
}

// ForkBranch is one candidate branch at a conditional fork. When is an
// expr-lang expression over accumulated outputs; the first truthy branch
// wins. A branch with an empty When is the default.
type ForkBranch struct {
	When  string
	Route string // recorded as the workflow's route_decision
	Goto  string // name of the stage execution continues at
}

// StageDescriptor declares one stage in a family's ordered path.
type StageDescriptor struct {
	Name  string
	Label string
	Kind  hub.StageKind

	Logic    StageLogic   // automatic
	Gate     *GateSpec    // approval-gate
	Branches []ForkBranch // conditional-fork

	// Next optionally overrides the successor: after this stage completes,
	// execution jumps to the named stage instead of the list neighbor.
	// Used by families where a fork selects one of several alternatives
	// that all rejoin at a common stage.
	Next string
}

// Family is one workflow type: its stage path plus response composition.
type Family struct {
	Name         string
	Title        string
	Description  string
	AcceptsImage bool

	Stages []StageDescriptor

	// Respond composes the terminal response after the last stage completes.
	Respond func(state *hub.WorkflowState) string
	// RejectMessage composes the terminal response after a gate rejection.
	RejectMessage func(state *hub.WorkflowState, gate string) string
}

// StageIndex returns the position of the named stage, or -1.
func (f *Family) StageIndex(name string) int {
	for i := range f.Stages {
		if f.Stages[i].Name == name {
			return i
		}
	}
	return -1
}

// Registry holds the registered workflow families.
type Registry struct {
	families map[string]*Family
	order    []string
}

func New() *Registry {
	return &Registry{families: make(map[string]*Family)}
}

// Register validates the family's stage path and adds it.
func (r *Registry) Register(f *Family) error {
	if err := validate(f); err != nil {
		return fmt.Errorf("family %q: %w", f.Name, err)
	}
	if _, exists := r.families[f.Name]; exists {
		return fmt.Errorf("family %q already registered", f.Name)
	}
	r.families[f.Name] = f
	r.order = append(r.order, f.Name)
	return nil
}

// Family returns the named family.
func (r *Registry) Family(name string) (*Family, bool) {
	f, ok := r.families[name]
	return f, ok
}

// List returns all families in registration order.
func (r *Registry) List() []*Family {
	out := make([]*Family, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.families[name])
	}
	return out
}

// validate checks the structural invariants of a stage path: unique names,
// kind-appropriate fields, and forward-only jumps (the path must remain a
// DAG from the entry stage to its terminals).
func validate(f *Family) error {
	if len(f.Stages) == 0 {
		return fmt.Errorf("no stages")
	}
	if f.Respond == nil {
		return fmt.Errorf("missing Respond")
	}
	seen := make(map[string]int, len(f.Stages))
	for i, st := range f.Stages {
		if st.Name == "" {
			return fmt.Errorf("stage %d: empty name", i)
		}
		if prev, dup := seen[st.Name]; dup {
			return fmt.Errorf("stage %q declared at %d and %d", st.Name, prev, i)
		}
		seen[st.Name] = i
	}
	for i, st := range f.Stages {
		switch st.Kind {
		case hub.KindAutomatic:
			if st.Logic == nil {
				return fmt.Errorf("automatic stage %q: missing logic", st.Name)
			}
		case hub.KindApprovalGate:
			if st.Gate == nil {
				return fmt.Errorf("approval gate %q: missing gate spec", st.Name)
			}
		case hub.KindConditionalFork:
			if len(st.Branches) == 0 {
				return fmt.Errorf("fork %q: no branches", st.Name)
			}
			for _, br := range st.Branches {
				j, ok := seen[br.Goto]
				if !ok {
					return fmt.Errorf("fork %q: branch target %q not found", st.Name, br.Goto)
				}
				if j <= i {
					return fmt.Errorf("fork %q: branch target %q is not a later stage", st.Name, br.Goto)
				}
			}
			if last := st.Branches[len(st.Branches)-1]; last.When != "" {
				return fmt.Errorf("fork %q: last branch must be the default (empty condition)", st.Name)
			}
		default:
			return fmt.Errorf("stage %q: unknown kind %q", st.Name, st.Kind)
		}
		if st.Next != "" {
			j, ok := seen[st.Next]
			if !ok {
				return fmt.Errorf("stage %q: successor %q not found", st.Name, st.Next)
			}
			if j <= i {
				return fmt.Errorf("stage %q: successor %q is not a later stage", st.Name, st.Next)
			}
		}
	}
	if last := f.Stages[len(f.Stages)-1]; last.Kind == hub.KindConditionalFork {
		return fmt.Errorf("fork %q cannot be the last stage", last.Name)
	}
	return nil
}
