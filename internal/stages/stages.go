// Package stages defines the built-in workflow families: expense claims,
// taxi receipts, order fulfillment, automotive sales, and the customer
// service supervisor. Each family is a stage table registered with the
// registry; the logic funcs close over the shared dependencies.
package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soochol/aihub/internal/catalog"
	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/model"
	"github.com/soochol/aihub/internal/registry"
)

// Options holds the decision thresholds. All comparisons are inclusive.
type Options struct {
	ExpenseManagerSkip float64 // skip manager gate at or below this amount
	TaxiAutoApprove    float64 // auto-approve fares at or below this
	TaxiMaxFare        float64 // single-trip fare policy limit
	FulfillmentReview  float64 // skip manager gate at or below this order value
}

// DefaultOptions returns the standard policy thresholds.
func DefaultOptions() Options {
	return Options{
		ExpenseManagerSkip: 200,
		TaxiAutoApprove:    100,
		TaxiMaxFare:        500,
		FulfillmentReview:  1000,
	}
}

// Deps bundles the collaborators stage logic draws on. Text and Vision may
// be nil: text generation degrades to deterministic summaries, while
// vision-dependent extraction fails the stage.
type Deps struct {
	Text    model.TextGenerator
	Vision  model.VisionAnalyzer
	Catalog *catalog.Store
	Options Options
	Log     *slog.Logger
}

// RegisterAll registers every built-in family.
func RegisterAll(reg *registry.Registry, d *Deps) error {
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Options == (Options{}) {
		d.Options = DefaultOptions()
	}

	families := []*registry.Family{
		d.expenseFamily(),
		d.taxiFamily(),
		d.fulfillmentFamily(),
		d.automotiveFamily(),
		d.supervisorFamily(),
	}
	for _, f := range families {
		if err := reg.Register(f); err != nil {
			return fmt.Errorf("register stages: %w", err)
		}
	}
	return nil
}

// generate runs the text model and falls back to a canned line when no
// model is configured or the call fails. Narrative text is advisory, so a
// model outage never fails a stage.
func (d *Deps) generate(ctx context.Context, system, prompt, fallback string) string {
	if d.Text == nil {
		return fallback
	}
	out, err := d.Text.Generate(ctx, system, prompt)
	if err != nil {
		d.Log.Warn("text generation failed, using fallback", "provider", d.Text.Name(), "error", err)
		return fallback
	}
	return out
}

// Request input accessors. The runner seeds the client request under the
// "request" output key so it survives ledger snapshots.

func requestMessage(state *hub.WorkflowState) string {
	return outString(state, "request", "message")
}

func requestImage(state *hub.WorkflowState) (imageBase64, mimeType string) {
	return outString(state, "request", "image_base64"), outString(state, "request", "mime_type")
}

func requestHistory(state *hub.WorkflowState) []map[string]any {
	raw, ok := state.Output("request")["history"]
	if !ok {
		return nil
	}
	switch h := raw.(type) {
	case []map[string]any:
		return h
	case []any:
		// JSON round-trip via the persistent ledger widens the slice type.
		out := make([]map[string]any, 0, len(h))
		for _, item := range h {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// Output accessors tolerant of the JSON round-trip through snapshots.

func outString(state *hub.WorkflowState, stage, key string) string {
	if v, ok := state.Output(stage)[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func outFloat(state *hub.WorkflowState, stage, key string) float64 {
	switch v := state.Output(stage)[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func outBool(state *hub.WorkflowState, stage, key string) bool {
	if v, ok := state.Output(stage)[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func outStrings(state *hub.WorkflowState, stage, key string) []string {
	raw, ok := state.Output(stage)[key]
	if !ok {
		return nil
	}
	switch vals := raw.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func outMaps(state *hub.WorkflowState, stage, key string) []map[string]any {
	raw, ok := state.Output(stage)[key]
	if !ok {
		return nil
	}
	switch vals := raw.(type) {
	case []map[string]any:
		return vals
	case []any:
		out := make([]map[string]any, 0, len(vals))
		for _, v := range vals {
			if m, ok := v.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func mapString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func mapFloat(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
