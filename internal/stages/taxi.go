package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/registry"
)

const taxiOCRPrompt = `You are an OCR specialist for Hong Kong taxi receipts.
These receipts show 車号 (TAXI NO.), 总车费 (TOTAL FARE) in HK$, trip
distance, and timestamps.

Return ONLY a valid JSON object with these exact fields:
{
    "taxi_number": "taxi registration number",
    "start_datetime": "trip start date/time",
    "total_km": 0.00,
    "total_fare": 0.00,
    "surcharge": 0.00,
    "currency": "HKD"
}

The fare is usually shown as "HK$XX.XX".`

func (d *Deps) taxiFamily() *registry.Family {
	return &registry.Family{
		Name:         "taxi_receipt",
		Title:        "HK Taxi Receipt",
		Description:  "Hong Kong taxi receipt claims with fare validation and supervisor approval",
		AcceptsImage: true,
		Stages: []registry.StageDescriptor{
			{
				Name:  "extract",
				Label: "Scan Receipt",
				Kind:  hub.KindAutomatic,
				Logic: d.taxiExtract,
			},
			{
				Name:  "validate",
				Label: "Validate Fare",
				Kind:  hub.KindAutomatic,
				Logic: d.taxiValidate,
			},
			{
				Name: "review",
				Kind: hub.KindConditionalFork,
				Branches: []registry.ForkBranch{
					{When: "validate.auto_approve", Route: "auto_approved", Goto: "payment"},
					{Route: "supervisor_review", Goto: "supervisor"},
				},
			},
			{
				Name:  "supervisor",
				Label: "Approval",
				Kind:  hub.KindApprovalGate,
				Gate: &registry.GateSpec{
					Title:   "Taxi Claim Approval Required",
					Message: "Please review this taxi expense claim for approval.",
					Details: func(state *hub.WorkflowState) map[string]string {
						return map[string]string{
							"claim_id":    outString(state, "extract", "claim_id"),
							"taxi_number": outString(state, "extract", "taxi_number"),
							"fare":        fmt.Sprintf("HK$%.2f", outFloat(state, "extract", "fare")),
							"distance":    fmt.Sprintf("%.2f km", outFloat(state, "extract", "distance_km")),
							"date":        outString(state, "extract", "date"),
							"validation":  outString(state, "validate", "status"),
						}
					},
				},
			},
			{
				Name:  "payment",
				Label: "Schedule Reimbursement",
				Kind:  hub.KindAutomatic,
				Logic: d.taxiPayment,
			},
		},
		Respond:       d.taxiRespond,
		RejectMessage: taxiReject,
	}
}

func (d *Deps) taxiExtract(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)
	image, mime := requestImage(state)

	out := map[string]any{
		"claim_id":    hub.Reference("TAXI"),
		"taxi_number": "UT-8964",
		"date":        time.Now().Format("2006-01-02 15:04"),
		"distance_km": 0.0,
		"fare":        firstAmount(message),
		"surcharge":   0.0,
		"currency":    "HKD",
		"source":      "message",
	}

	if image != "" {
		if d.Vision == nil {
			return nil, fmt.Errorf("receipt image supplied but no vision provider configured")
		}
		analysis, err := d.Vision.Analyze(ctx, image, mime, taxiOCRPrompt)
		if err != nil {
			return nil, fmt.Errorf("taxi receipt OCR: %w", err)
		}
		parsed, ok := parseJSONObject(analysis)
		if !ok {
			parsed = map[string]any{"total_fare": firstAmount(analysis)}
		}
		if n := mapString(parsed, "taxi_number"); n != "" {
			out["taxi_number"] = n
		}
		if dt := mapString(parsed, "start_datetime"); dt != "" {
			out["date"] = dt
		}
		out["distance_km"] = asAmount(parsed["total_km"])
		out["fare"] = asAmount(parsed["total_fare"])
		out["surcharge"] = asAmount(parsed["surcharge"])
		out["source"] = "vision"
	}

	summary := fmt.Sprintf("taxi %s, HK$%.2f", out["taxi_number"], out["fare"])
	return &registry.StageResult{Output: out, Summary: summary}, nil
}

// taxiValidate applies the trip policies: single-trip cap, fare-vs-distance
// plausibility (HK urban rate, ~$24 flag fall), and the auto-approve flag.
func (d *Deps) taxiValidate(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	fare := outFloat(state, "extract", "fare")
	km := outFloat(state, "extract", "distance_km")

	var violations, warnings []string
	withinLimit := fare <= d.Options.TaxiMaxFare
	if !withinLimit {
		violations = append(violations, fmt.Sprintf("Fare HK$%.2f exceeds single trip limit of HK$%.0f", fare, d.Options.TaxiMaxFare))
	}
	if km > 0 {
		expectedMin := 24 + km*1.5
		expectedMax := 24 + km*3 + 50
		if fare < expectedMin*0.5 {
			warnings = append(warnings, fmt.Sprintf("Fare seems unusually low for %.1fkm", km))
		} else if fare > expectedMax {
			warnings = append(warnings, fmt.Sprintf("Fare seems high for %.1fkm - please verify", km))
		}
	}

	status := "passed"
	if len(violations) > 0 {
		status = "flagged"
	}
	autoApprove := fare <= d.Options.TaxiAutoApprove && len(violations) == 0

	out := map[string]any{
		"fare":         fare,
		"trip_km":      km,
		"policy_limit": d.Options.TaxiMaxFare,
		"within_limit": withinLimit,
		"violations":   violations,
		"warnings":     warnings,
		"status":       status,
		"auto_approve": autoApprove,
	}
	return &registry.StageResult{Output: out, Summary: status}, nil
}

func (d *Deps) taxiPayment(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	ref := hub.Reference("TAXI")
	approvedBy := "Supervisor"
	if state.Route == "auto_approved" {
		approvedBy = "Auto-Approval System"
	}
	out := map[string]any{
		"payment_reference": ref,
		"approved_by":       approvedBy,
	}
	return &registry.StageResult{Output: out, Summary: ref}, nil
}

func (d *Deps) taxiRespond(state *hub.WorkflowState) string {
	return fmt.Sprintf(`## Taxi Claim Approved

**Claim ID:** %s
**Payment Reference:** %s

### Claim Summary
| Field | Value |
|-------|-------|
| Taxi No. | %s |
| Fare | HK$%.2f |
| Distance | %.2f km |
| Date | %s |

### Approval Chain
1. **Taxi OCR** - Receipt scanned
2. **Validation** - Policy check %s
3. **Approval** - Approved by %s

### Payment Status
Reimbursement scheduled for processing. Expect payment within 3-5 business days.`,
		outString(state, "extract", "claim_id"),
		outString(state, "payment", "payment_reference"),
		outString(state, "extract", "taxi_number"),
		outFloat(state, "extract", "fare"),
		outFloat(state, "extract", "distance_km"),
		outString(state, "extract", "date"),
		outString(state, "validate", "status"),
		outString(state, "payment", "approved_by"))
}

func taxiReject(state *hub.WorkflowState, gate string) string {
	return fmt.Sprintf(`## Taxi Claim Rejected

**Claim ID:** %s

### Claim Summary
| Field | Value |
|-------|-------|
| Taxi No. | %s |
| Fare | HK$%.2f |

The claim was rejected by the supervisor. Please verify the receipt details
and submit a new claim if applicable.`,
		outString(state, "extract", "claim_id"),
		outString(state, "extract", "taxi_number"),
		outFloat(state, "extract", "fare"))
}
