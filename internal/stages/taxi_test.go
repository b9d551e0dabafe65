package stages

import (
	"context"
	"strings"
	"testing"

	"github.com/soochol/aihub/internal/hub"
)

func taxiState(fare, km float64) *hub.WorkflowState {
	state := hub.NewWorkflowState("taxi_receipt")
	state.SetOutput("extract", map[string]any{
		"fare":        fare,
		"distance_km": km,
	})
	return state
}

func TestTaxiExtractFromMessage(t *testing.T) {
	d := testDeps()
	state := stateWithMessage("taxi_receipt", "Taxi from Central to the office, HK$86.50")

	res, err := d.taxiExtract(context.Background(), state)
	if err != nil {
		t.Fatalf("taxiExtract: %v", err)
	}
	if got := mapFloat(res.Output, "fare"); got != 86.50 {
		t.Errorf("fare = %v, want 86.50", got)
	}
	if got := mapString(res.Output, "currency"); got != "HKD" {
		t.Errorf("currency = %q", got)
	}
	if id := mapString(res.Output, "claim_id"); !strings.HasPrefix(id, "TAXI-") {
		t.Errorf("claim_id = %q", id)
	}
}

func TestTaxiValidateAutoApprove(t *testing.T) {
	d := testDeps()
	cases := []struct {
		name        string
		fare        float64
		autoApprove bool
		withinLimit bool
	}{
		{"small fare auto-approves", 86.50, true, true},
		{"auto-approve threshold is inclusive", 100, true, true},
		{"just over needs a supervisor", 100.01, false, true},
		{"policy cap is inclusive", 500, false, true},
		{"over cap is a violation", 500.01, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res, err := d.taxiValidate(context.Background(), taxiState(c.fare, 0))
			if err != nil {
				t.Fatalf("taxiValidate: %v", err)
			}
			if got := res.Output["auto_approve"].(bool); got != c.autoApprove {
				t.Errorf("auto_approve = %v, want %v", got, c.autoApprove)
			}
			if got := res.Output["within_limit"].(bool); got != c.withinLimit {
				t.Errorf("within_limit = %v, want %v", got, c.withinLimit)
			}
		})
	}
}

func TestTaxiValidateOverCapIsFlagged(t *testing.T) {
	d := testDeps()
	res, err := d.taxiValidate(context.Background(), taxiState(620, 0))
	if err != nil {
		t.Fatalf("taxiValidate: %v", err)
	}
	if got := mapString(res.Output, "status"); got != "flagged" {
		t.Errorf("status = %q, want flagged", got)
	}
	violations := res.Output["violations"].([]string)
	if len(violations) != 1 || !strings.Contains(violations[0], "exceeds single trip limit") {
		t.Errorf("violations = %v", violations)
	}
}

func TestTaxiValidateFarePlausibility(t *testing.T) {
	d := testDeps()

	// 10km: plausible fares run roughly HK$39 to HK$104.
	res, err := d.taxiValidate(context.Background(), taxiState(15, 10))
	if err != nil {
		t.Fatalf("taxiValidate: %v", err)
	}
	warnings := res.Output["warnings"].([]string)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "unusually low") {
		t.Errorf("low-fare warnings = %v", warnings)
	}

	res, err = d.taxiValidate(context.Background(), taxiState(180, 10))
	if err != nil {
		t.Fatalf("taxiValidate: %v", err)
	}
	warnings = res.Output["warnings"].([]string)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "seems high") {
		t.Errorf("high-fare warnings = %v", warnings)
	}

	res, err = d.taxiValidate(context.Background(), taxiState(70, 10))
	if err != nil {
		t.Fatalf("taxiValidate: %v", err)
	}
	if got := res.Output["warnings"].([]string); len(got) != 0 {
		t.Errorf("plausible fare warned: %v", got)
	}
}

func TestTaxiPaymentRecordsApprover(t *testing.T) {
	d := testDeps()

	state := taxiState(86.50, 0)
	if err := state.SetRoute("auto_approved"); err != nil {
		t.Fatalf("SetRoute: %v", err)
	}
	res, err := d.taxiPayment(context.Background(), state)
	if err != nil {
		t.Fatalf("taxiPayment: %v", err)
	}
	if got := mapString(res.Output, "approved_by"); got != "Auto-Approval System" {
		t.Errorf("approved_by = %q", got)
	}

	state = taxiState(300, 0)
	if err := state.SetRoute("supervisor_review"); err != nil {
		t.Fatalf("SetRoute: %v", err)
	}
	res, err = d.taxiPayment(context.Background(), state)
	if err != nil {
		t.Fatalf("taxiPayment: %v", err)
	}
	if got := mapString(res.Output, "approved_by"); got != "Supervisor" {
		t.Errorf("approved_by = %q", got)
	}
}

func TestTaxiRejectKeepsClaimID(t *testing.T) {
	state := taxiState(300, 0)
	state.Output("extract")["claim_id"] = "TAXI-DEADBEEF"
	state.Output("extract")["taxi_number"] = "UT-8964"

	text := taxiReject(state, "supervisor")
	if !strings.Contains(text, "TAXI-DEADBEEF") || !strings.Contains(text, "UT-8964") {
		t.Errorf("rejection missing claim details: %q", text)
	}
}
