package stages

import (
	"context"
	"strings"
	"testing"

	"github.com/soochol/aihub/internal/hub"
)

func TestFulfillmentIntakeMapsKeywords(t *testing.T) {
	d := testDeps()
	state := stateWithMessage("order_fulfillment", "Restock oat milk and premium green tea for the cafe")

	res, err := d.fulfillmentIntake(context.Background(), state)
	if err != nil {
		t.Fatalf("fulfillmentIntake: %v", err)
	}
	items := res.Output["items"].([]map[string]any)
	if len(items) != 2 {
		t.Fatalf("items = %v, want oat milk and tea", items)
	}
	if mapString(items[0], "sku") != "SKU001" || mapString(items[1], "sku") != "SKU003" {
		t.Errorf("skus = %v, %v", items[0]["sku"], items[1]["sku"])
	}
	if id := mapString(res.Output, "order_id"); !strings.HasPrefix(id, "ORD-") {
		t.Errorf("order_id = %q", id)
	}
}

func TestFulfillmentIntakeDeduplicatesSKUs(t *testing.T) {
	d := testDeps()
	// "tteokbokki" and "korean" both resolve to SKU002.
	state := stateWithMessage("order_fulfillment", "korean tteokbokki please")

	res, err := d.fulfillmentIntake(context.Background(), state)
	if err != nil {
		t.Fatalf("fulfillmentIntake: %v", err)
	}
	items := res.Output["items"].([]map[string]any)
	if len(items) != 1 || mapString(items[0], "sku") != "SKU002" {
		t.Errorf("items = %v, want one SKU002 line", items)
	}
}

func TestFulfillmentIntakeDefaultsWhenNothingMatches(t *testing.T) {
	d := testDeps()
	state := stateWithMessage("order_fulfillment", "send the usual")

	res, err := d.fulfillmentIntake(context.Background(), state)
	if err != nil {
		t.Fatalf("fulfillmentIntake: %v", err)
	}
	items := res.Output["items"].([]map[string]any)
	if len(items) != 1 || mapString(items[0], "sku") != "SKU001" {
		t.Errorf("items = %v, want the default oat milk line", items)
	}
	if got := int(mapFloat(items[0], "quantity")); got != 100 {
		t.Errorf("quantity = %d, want 100", got)
	}
}

func intakeState(items []map[string]any) *hub.WorkflowState {
	state := hub.NewWorkflowState("order_fulfillment")
	state.SetOutput("intake", map[string]any{"items": items})
	return state
}

func TestFulfillmentInventoryAllocates(t *testing.T) {
	d := testDeps()
	state := intakeState([]map[string]any{
		{"sku": "SKU003", "name": "Premium Green Tea", "quantity": 75},
	})

	res, err := d.fulfillmentInventory(context.Background(), state)
	if err != nil {
		t.Fatalf("fulfillmentInventory: %v", err)
	}
	if got := mapFloat(res.Output, "order_value"); got != 75*unitValue {
		t.Errorf("order_value = %v, want %v", got, 75*unitValue)
	}
	if got := res.Output["backordered"].(int); got != 0 {
		t.Errorf("backordered = %d", got)
	}
	used := res.Output["warehouses_used"].([]string)
	if len(used) != 1 || used[0] != "Hong Kong Central Warehouse" {
		t.Errorf("warehouses_used = %v", used)
	}
}

func TestFulfillmentInventorySpansWarehouses(t *testing.T) {
	d := testDeps()
	// 600 units of oat milk: Central holds 500, Kowloon 300.
	state := intakeState([]map[string]any{
		{"sku": "SKU001", "name": "Organic Oat Milk 1L", "quantity": 600},
	})

	res, err := d.fulfillmentInventory(context.Background(), state)
	if err != nil {
		t.Fatalf("fulfillmentInventory: %v", err)
	}
	used := res.Output["warehouses_used"].([]string)
	if len(used) != 2 {
		t.Fatalf("warehouses_used = %v, want both", used)
	}
	// Sorted, not in allocation order.
	if used[0] != "Hong Kong Central Warehouse" || used[1] != "Kowloon Warehouse" {
		t.Errorf("warehouses_used = %v", used)
	}
	line := res.Output["allocations"].([]map[string]any)[0]
	if mapString(line, "status") != "success" {
		t.Errorf("line status = %q", line["status"])
	}
	allocs := line["allocations"].([]map[string]any)
	if len(allocs) != 2 || allocs[0]["quantity"].(int) != 500 || allocs[1]["quantity"].(int) != 100 {
		t.Errorf("allocations = %v, want 500 then 100 largest-stock-first", allocs)
	}
}

func TestFulfillmentInventoryBackorders(t *testing.T) {
	d := testDeps()
	// Sake stock is 80 in Kowloon only.
	state := intakeState([]map[string]any{
		{"sku": "SKU006", "name": "Japanese Sake 720ml", "quantity": 100},
	})

	res, err := d.fulfillmentInventory(context.Background(), state)
	if err != nil {
		t.Fatalf("fulfillmentInventory: %v", err)
	}
	if got := res.Output["backordered"].(int); got != 20 {
		t.Errorf("backordered = %d, want 20", got)
	}
	line := res.Output["allocations"].([]map[string]any)[0]
	if mapString(line, "status") != "partial" {
		t.Errorf("line status = %q, want partial", line["status"])
	}
}

func TestFulfillmentWarehouseCountsPickLines(t *testing.T) {
	d := testDeps()
	state := hub.NewWorkflowState("order_fulfillment")
	state.SetOutput("inventory", map[string]any{
		"allocations": []map[string]any{
			{"sku": "SKU001", "allocations": []map[string]any{{"quantity": 500}, {"quantity": 100}}},
			{"sku": "SKU003", "allocations": []map[string]any{{"quantity": 75}}},
		},
	})

	res, err := d.fulfillmentWarehouse(context.Background(), state)
	if err != nil {
		t.Fatalf("fulfillmentWarehouse: %v", err)
	}
	if got := res.Output["pick_lines"].(int); got != 3 {
		t.Errorf("pick_lines = %d, want 3", got)
	}
	if got := mapString(res.Output, "estimated_pick_time"); got != "15 minutes" {
		t.Errorf("estimated_pick_time = %q", got)
	}
	if id := mapString(res.Output, "pick_list_id"); !strings.HasPrefix(id, "PL-") {
		t.Errorf("pick_list_id = %q", id)
	}
}

func TestFulfillmentShippingBooksCarrier(t *testing.T) {
	d := testDeps()
	res, err := d.fulfillmentShipping(context.Background(), hub.NewWorkflowState("order_fulfillment"))
	if err != nil {
		t.Fatalf("fulfillmentShipping: %v", err)
	}
	if got := mapString(res.Output, "carrier"); got != "Express Logistics" {
		t.Errorf("carrier = %q", got)
	}
	if tn := mapString(res.Output, "tracking_number"); !strings.HasPrefix(tn, "TRK-") {
		t.Errorf("tracking_number = %q", tn)
	}
}

func TestFulfillmentRespondListsAllocations(t *testing.T) {
	d := testDeps()
	state := hub.NewWorkflowState("order_fulfillment")
	state.SetOutput("intake", map[string]any{"order_id": "ORD-CAFEF00D"})
	state.SetOutput("inventory", map[string]any{
		"allocations": []map[string]any{
			{"item_name": "Premium Green Tea", "status": "success"},
			{"item_name": "Japanese Sake 720ml", "status": "partial"},
		},
		"warehouses_used": []string{"Kowloon Warehouse"},
	})
	state.SetOutput("warehouse", map[string]any{"pick_list_id": "PL-00000001", "estimated_pick_time": "10 minutes"})
	state.SetOutput("shipping", map[string]any{"tracking_number": "TRK-00000001", "carrier": "Express Logistics"})

	text := d.fulfillmentRespond(state)
	for _, want := range []string{"ORD-CAFEF00D", "Partially allocated", "PL-00000001", "TRK-00000001"} {
		if !strings.Contains(text, want) {
			t.Errorf("response missing %q", want)
		}
	}
}
