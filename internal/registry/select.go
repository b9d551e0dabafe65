package registry

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/soochol/aihub/internal/hub"
)

// SelectBranch evaluates a fork's branches against accumulated outputs and
// returns the first truthy branch. Branch conditions are pure: they read
// only fields already present in the outputs, never external state, so a
// fork decision is reproducible from a ledger snapshot.
func SelectBranch(desc StageDescriptor, state *hub.WorkflowState) (ForkBranch, error) {
	if desc.Kind != hub.KindConditionalFork {
		return ForkBranch{}, fmt.Errorf("stage %q is not a conditional fork", desc.Name)
	}

	env := branchEnv(state)
	for _, br := range desc.Branches {
		if br.When == "" {
			return br, nil
		}
		ok, err := evaluateCondition(br.When, env)
		if err != nil {
			return ForkBranch{}, fmt.Errorf("fork %q: %w", desc.Name, err)
		}
		if ok {
			return br, nil
		}
	}
	return ForkBranch{}, fmt.Errorf("fork %q: no branch matched and no default", desc.Name)
}

// branchEnv exposes each stage's output map under the stage name, so
// conditions read like "validate.amount <= 200".
func branchEnv(state *hub.WorkflowState) map[string]any {
	env := make(map[string]any, len(state.Outputs))
	for stage, out := range state.Outputs {
		env[stage] = out
	}
	return env
}

// evaluateCondition compiles and runs an expr-lang expression, reducing the
// result to a boolean.
func evaluateCondition(expression string, env map[string]any) (bool, error) {
	program, err := expr.Compile(expression, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", expression, err)
	}
	return isTruthy(result), nil
}

func isTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
