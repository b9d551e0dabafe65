package stages

import (
	"context"
	"strings"
	"testing"
)

func TestSupervisorClassify(t *testing.T) {
	d := testDeps()
	cases := map[string]string{
		"Where is my order ORD-10002?":             "order_status",
		"I want to return the headphones":          "returns",
		"Please cancel my purchase":                "cancellation",
		"Does the smart watch have a warranty?":    "product_info",
		"I was charged twice on my card":           "payment",
		"This is terrible, the item came broken":   "complaint",
		"I can't login to my account":              "account",
		"Let me speak to a manager":                "escalation",
		"hello there":                              "general",
	}
	for message, want := range cases {
		res, err := d.supervisorClassify(context.Background(), stateWithMessage("supervisor", message))
		if err != nil {
			t.Fatalf("supervisorClassify(%q): %v", message, err)
		}
		if got := mapString(res.Output, "intent"); got != want {
			t.Errorf("classify(%q) = %q, want %q", message, got, want)
		}
	}
}

func TestSupervisorEnrichPullsOrderAndCustomer(t *testing.T) {
	d := testDeps()
	state := stateWithMessage("supervisor", "Where is my order ORD-10002?")
	state.SetOutput("classify", map[string]any{"intent": "order_status"})

	res, err := d.supervisorEnrich(context.Background(), state)
	if err != nil {
		t.Fatalf("supervisorEnrich: %v", err)
	}
	orders := res.Output["orders"].([]string)
	if len(orders) != 1 || orders[0] != "ORD-10002" {
		t.Errorf("orders = %v", orders)
	}
	enriched := mapString(res.Output, "context")
	for _, want := range []string{"ORD-10002", "In Transit", "Alice Wong", "Gold tier", "FAQ (tracking)"} {
		if !strings.Contains(enriched, want) {
			t.Errorf("context missing %q:\n%s", want, enriched)
		}
	}
	if got := mapString(res.Output, "faq"); got != "tracking" {
		t.Errorf("faq = %q", got)
	}
}

func TestSupervisorEnrichMatchesProducts(t *testing.T) {
	d := testDeps()
	state := stateWithMessage("supervisor", "Is the bluetooth speaker in stock?")
	state.SetOutput("classify", map[string]any{"intent": "product_info"})

	res, err := d.supervisorEnrich(context.Background(), state)
	if err != nil {
		t.Fatalf("supervisorEnrich: %v", err)
	}
	products := res.Output["products"].([]string)
	if len(products) != 1 || products[0] != "BS-3000" {
		t.Errorf("products = %v", products)
	}
	if len(res.Output["orders"].([]string)) != 0 {
		t.Errorf("orders = %v, want none", res.Output["orders"])
	}
}

func TestSupervisorRespondWithoutProvider(t *testing.T) {
	d := testDeps()
	state := stateWithMessage("supervisor", "Where is my order ORD-10002?")
	state.SetOutput("classify", map[string]any{"intent": "order_status"})
	state.SetOutput("enrich", map[string]any{"context": "Order ORD-10002: In Transit, ETA Jan 25"})

	res, err := d.supervisorRespond(context.Background(), state)
	if err != nil {
		t.Fatalf("supervisorRespond: %v", err)
	}
	content := mapString(res.Output, "content")
	if !strings.Contains(content, "ORD-10002") {
		t.Errorf("fallback response dropped the enriched record: %q", content)
	}
}

func TestSupervisorFallbackTone(t *testing.T) {
	if got := supervisorFallback("complaint", ""); !strings.Contains(got, "flagged this conversation for a human agent") {
		t.Errorf("complaint fallback = %q", got)
	}
	if got := supervisorFallback("general", ""); !strings.Contains(got, "anything else I can help") {
		t.Errorf("general fallback = %q", got)
	}
}

func TestSupervisorRespondUsesProvider(t *testing.T) {
	d := testDeps()
	d.Text = &stubText{reply: "Your order is on the way."}
	state := stateWithMessage("supervisor", "Where is my order ORD-10002?")
	state.SetOutput("classify", map[string]any{"intent": "order_status"})
	state.SetOutput("enrich", map[string]any{"context": ""})

	res, err := d.supervisorRespond(context.Background(), state)
	if err != nil {
		t.Fatalf("supervisorRespond: %v", err)
	}
	if got := mapString(res.Output, "content"); got != "Your order is on the way." {
		t.Errorf("content = %q", got)
	}
}
