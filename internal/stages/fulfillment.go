package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soochol/aihub/internal/catalog"
	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/registry"
)

// unitValue is the simulated per-unit order value used for the manager
// review threshold.
const unitValue = 15

func (d *Deps) fulfillmentFamily() *registry.Family {
	threshold := d.Options.FulfillmentReview

	return &registry.Family{
		Name:        "order_fulfillment",
		Title:       "Order Fulfillment",
		Description: "Order fulfillment chain: intake, inventory allocation, manager approval, warehouse, shipping",
		Stages: []registry.StageDescriptor{
			{
				Name:  "intake",
				Label: "Order Intake",
				Kind:  hub.KindAutomatic,
				Logic: d.fulfillmentIntake,
			},
			{
				Name:  "inventory",
				Label: "Inventory Allocation",
				Kind:  hub.KindAutomatic,
				Logic: d.fulfillmentInventory,
			},
			{
				Name: "review",
				Kind: hub.KindConditionalFork,
				Branches: []registry.ForkBranch{
					{When: fmt.Sprintf("inventory.order_value <= %g", threshold), Route: "auto_cleared", Goto: "warehouse"},
					{Route: "manager_review", Goto: "manager"},
				},
			},
			{
				Name:  "manager",
				Label: "Manager Approval",
				Kind:  hub.KindApprovalGate,
				Gate: &registry.GateSpec{
					Title:   "Manager Approval Required",
					Message: "This order requires manager approval before the warehouse can proceed.",
					Details: func(state *hub.WorkflowState) map[string]string {
						return map[string]string{
							"order_id":        outString(state, "intake", "order_id"),
							"total_items":     fmt.Sprintf("%.0f", outFloat(state, "inventory", "total_units")),
							"estimated_value": fmt.Sprintf("$%.0f", outFloat(state, "inventory", "order_value")),
							"items_summary":   strings.Join(outStrings(state, "intake", "items_summary"), ", "),
							"warehouses":      strings.Join(outStrings(state, "inventory", "warehouses_used"), ", "),
						}
					},
				},
			},
			{
				Name:  "warehouse",
				Label: "Warehouse Picking",
				Kind:  hub.KindAutomatic,
				Logic: d.fulfillmentWarehouse,
			},
			{
				Name:  "shipping",
				Label: "Shipping",
				Kind:  hub.KindAutomatic,
				Logic: d.fulfillmentShipping,
			},
		},
		Respond:       d.fulfillmentRespond,
		RejectMessage: fulfillmentReject,
	}
}

// fulfillmentIntake parses order items out of the request message. Item
// keywords map to catalog SKUs; an unrecognized order falls back to the
// demo default.
func (d *Deps) fulfillmentIntake(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)

	type orderItem struct {
		keyword  string
		sku      string
		name     string
		quantity int
	}
	known := []orderItem{
		{"oat milk", "SKU001", "Organic Oat Milk 1L", 100},
		{"tteokbokki", "SKU002", "Korean Rosé Tteokbokki", 50},
		{"korean", "SKU002", "Korean Rosé Tteokbokki", 50},
		{"tea", "SKU003", "Premium Green Tea", 75},
		{"pasta", "SKU004", "Imported Italian Pasta", 60},
		{"burger", "SKU005", "Plant-Based Burger Patties", 40},
		{"sake", "SKU006", "Japanese Sake 720ml", 20},
	}

	var items []map[string]any
	var summaries []string
	seen := map[string]bool{}
	for _, it := range known {
		if !containsAny(message, it.keyword) || seen[it.sku] {
			continue
		}
		seen[it.sku] = true
		items = append(items, map[string]any{"sku": it.sku, "name": it.name, "quantity": it.quantity})
		summaries = append(summaries, fmt.Sprintf("%s x%d", it.name, it.quantity))
	}
	if len(items) == 0 {
		items = []map[string]any{{"sku": "SKU001", "name": "Organic Oat Milk 1L", "quantity": 100}}
		summaries = []string{"Organic Oat Milk 1L x100"}
	}

	orderID := hub.Reference("ORD")
	out := map[string]any{
		"order_id":      orderID,
		"items":         items,
		"items_summary": summaries,
		"received_at":   time.Now().Format(time.RFC3339),
	}
	return &registry.StageResult{Output: out, Summary: fmt.Sprintf("%s, %d item(s)", orderID, len(items))}, nil
}

// fulfillmentInventory checks stock for every line in parallel and
// allocates from warehouses largest-stock-first.
func (d *Deps) fulfillmentInventory(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	items := outMaps(state, "intake", "items")

	type lineResult struct {
		item        map[string]any
		allocations []catalog.Allocation
		backordered int
	}
	results := make([]lineResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sku := mapString(item, "sku")
			qty := int(mapFloat(item, "quantity"))
			allocs, back := d.Catalog.Allocate(sku, qty)
			results[i] = lineResult{item: item, allocations: allocs, backordered: back}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("inventory check: %w", err)
	}

	var allocations []map[string]any
	warehouses := map[string]bool{}
	totalUnits := 0
	totalBackordered := 0
	for _, r := range results {
		qty := int(mapFloat(r.item, "quantity"))
		totalUnits += qty
		totalBackordered += r.backordered
		status := "success"
		if r.backordered > 0 {
			status = "partial"
		}
		var lineAllocs []map[string]any
		for _, a := range r.allocations {
			warehouses[a.WarehouseName] = true
			lineAllocs = append(lineAllocs, map[string]any{
				"warehouse_id":   a.WarehouseID,
				"warehouse_name": a.WarehouseName,
				"quantity":       a.Quantity,
				"zone":           a.Zone,
				"pick_sequence":  a.PickSequence,
			})
		}
		allocations = append(allocations, map[string]any{
			"sku":         mapString(r.item, "sku"),
			"item_name":   mapString(r.item, "name"),
			"status":      status,
			"backordered": r.backordered,
			"allocations": lineAllocs,
		})
	}

	var used []string
	for name := range warehouses {
		used = append(used, name)
	}
	sort.Strings(used)

	orderValue := float64(totalUnits * unitValue)
	out := map[string]any{
		"allocations":     allocations,
		"warehouses_used": used,
		"total_units":     totalUnits,
		"order_value":     orderValue,
		"backordered":     totalBackordered,
	}
	summary := fmt.Sprintf("%d units across %d warehouse(s), value $%.0f", totalUnits, len(used), orderValue)
	return &registry.StageResult{Output: out, Summary: summary}, nil
}

func (d *Deps) fulfillmentWarehouse(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	allocations := outMaps(state, "inventory", "allocations")
	lines := 0
	for _, a := range allocations {
		if sub, ok := a["allocations"].([]map[string]any); ok {
			lines += len(sub)
		} else if sub, ok := a["allocations"].([]any); ok {
			lines += len(sub)
		}
	}
	pickListID := hub.Reference("PL")
	out := map[string]any{
		"pick_list_id":        pickListID,
		"pick_lines":          lines,
		"estimated_pick_time": fmt.Sprintf("%d minutes", lines*5),
	}
	return &registry.StageResult{Output: out, Summary: pickListID}, nil
}

func (d *Deps) fulfillmentShipping(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	tracking := hub.Reference("TRK")
	out := map[string]any{
		"tracking_number": tracking,
		"carrier":         "Express Logistics",
		"delivery_date":   time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
		"delivery_window": "9:00 AM - 6:00 PM",
	}
	return &registry.StageResult{Output: out, Summary: tracking}, nil
}

func (d *Deps) fulfillmentRespond(state *hub.WorkflowState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Order Fulfillment Complete\n\n")
	fmt.Fprintf(&b, "**Order ID:** %s\n\n", outString(state, "intake", "order_id"))

	fmt.Fprintf(&b, "### Inventory Allocation\n")
	for _, alloc := range outMaps(state, "inventory", "allocations") {
		status := "Allocated"
		if mapString(alloc, "status") == "partial" {
			status = "Partially allocated"
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", mapString(alloc, "item_name"), status)
	}
	fmt.Fprintf(&b, "- Warehouses: %s\n\n", strings.Join(outStrings(state, "inventory", "warehouses_used"), ", "))

	fmt.Fprintf(&b, "### Warehouse\n")
	fmt.Fprintf(&b, "- **Pick List:** %s\n", outString(state, "warehouse", "pick_list_id"))
	fmt.Fprintf(&b, "- **Est. Pick Time:** %s\n\n", outString(state, "warehouse", "estimated_pick_time"))

	fmt.Fprintf(&b, "### Shipping\n")
	fmt.Fprintf(&b, "- **Tracking:** %s\n", outString(state, "shipping", "tracking_number"))
	fmt.Fprintf(&b, "- **Carrier:** %s\n", outString(state, "shipping", "carrier"))
	fmt.Fprintf(&b, "- **Delivery Date:** %s\n", outString(state, "shipping", "delivery_date"))
	return b.String()
}

func fulfillmentReject(state *hub.WorkflowState, gate string) string {
	return fmt.Sprintf(`## Order Rejected

**Order ID:** %s

The order was rejected by the manager. Warehouse and shipping will not
process this order.`,
		outString(state, "intake", "order_id"))
}
