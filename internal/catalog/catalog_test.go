package catalog

import (
	"strings"
	"testing"
)

func TestAvailableVehicles(t *testing.T) {
	s := Default()

	all := s.AvailableVehicles("", 0)
	for _, v := range all {
		if v.Status != "available" {
			t.Errorf("vehicle %s has status %q", v.ID, v.Status)
		}
	}

	toyotas := s.AvailableVehicles("Toyota", 0)
	if len(toyotas) != 1 || toyotas[0].Model != "Camry" {
		t.Errorf("toyota matches = %v", toyotas)
	}
	if got := s.AvailableVehicles("toyota", 0); len(got) != 1 {
		t.Error("brand filter should be case-insensitive")
	}

	cheap := s.AvailableVehicles("", 40000)
	for _, v := range cheap {
		if v.Price > 40000 {
			t.Errorf("vehicle %s at $%.0f over the cap", v.ID, v.Price)
		}
	}

	// The Mercedes is reserved, so the brand filter finds nothing.
	if got := s.AvailableVehicles("Mercedes", 0); len(got) != 0 {
		t.Errorf("reserved vehicle leaked: %v", got)
	}
}

func TestPartsForService(t *testing.T) {
	s := Default()

	for _, p := range s.PartsForService("brake") {
		if p.ID[0] != 'P' {
			t.Errorf("odd part id %q", p.ID)
		}
		if !strings.Contains(strings.ToLower(p.Name), "brake") {
			t.Errorf("non-brake part %q for brake service", p.Name)
		}
	}

	general := s.PartsForService("oil")
	if len(general) != 3 {
		t.Errorf("general parts = %d, want the common consumables", len(general))
	}
}

func TestFindSKU(t *testing.T) {
	s := Default()

	sku, name, ok := s.FindSKU("green tea")
	if !ok || sku != "SKU003" || name != "Premium Green Tea" {
		t.Errorf("FindSKU = %q, %q, %v", sku, name, ok)
	}
	if _, _, ok := s.FindSKU("durian"); ok {
		t.Error("matched an unknown item")
	}
}

func TestAllocateLargestStockFirst(t *testing.T) {
	s := Default()

	// Oat milk: 500 in Central, 300 in Kowloon.
	allocs, back := s.Allocate("SKU001", 600)
	if back != 0 {
		t.Fatalf("backordered = %d, want 0", back)
	}
	if len(allocs) != 2 {
		t.Fatalf("allocations = %v", allocs)
	}
	if allocs[0].WarehouseID != "WH-HK-CENTRAL" || allocs[0].Quantity != 500 {
		t.Errorf("first allocation = %+v, want 500 from Central", allocs[0])
	}
	if allocs[1].Quantity != 100 || allocs[1].PickSequence != 2 {
		t.Errorf("second allocation = %+v", allocs[1])
	}
}

func TestAllocateBackorders(t *testing.T) {
	s := Default()

	allocs, back := s.Allocate("SKU006", 100)
	if back != 20 {
		t.Errorf("backordered = %d, want 20", back)
	}
	if len(allocs) != 1 || allocs[0].Quantity != 80 {
		t.Errorf("allocations = %v", allocs)
	}

	allocs, back = s.Allocate("SKU999", 10)
	if len(allocs) != 0 || back != 10 {
		t.Errorf("unknown sku: allocs %v, back %d", allocs, back)
	}
}

func TestOrdersMentioned(t *testing.T) {
	s := Default()

	orders := s.OrdersMentioned("what happened to ord-10001 and ORD-10003?")
	if len(orders) != 2 {
		t.Fatalf("orders = %v", orders)
	}
	if orders[0].ID != "ORD-10001" || orders[1].ID != "ORD-10003" {
		t.Errorf("order ids = %s, %s", orders[0].ID, orders[1].ID)
	}
	if got := s.OrdersMentioned("no order ids here"); len(got) != 0 {
		t.Errorf("false positives: %v", got)
	}
}

func TestProductsMentioned(t *testing.T) {
	s := Default()

	products := s.ProductsMentioned("do the wireless headphones come with a case?")
	if len(products) != 1 || products[0].ID != "WH-1000" {
		t.Errorf("products = %v", products)
	}
}

func TestCustomerByID(t *testing.T) {
	s := Default()

	c, ok := s.CustomerByID("c001")
	if !ok || c.Name != "Alice Wong" {
		t.Errorf("CustomerByID = %+v, %v", c, ok)
	}
	if _, ok := s.CustomerByID("C999"); ok {
		t.Error("found a customer that does not exist")
	}
}

func TestFAQ(t *testing.T) {
	s := Default()

	if answer, ok := s.FAQ("Returns"); !ok || answer == "" {
		t.Errorf("FAQ lookup failed: %q, %v", answer, ok)
	}
	if _, ok := s.FAQ("nonexistent"); ok {
		t.Error("answered an unknown topic")
	}
}

func TestCheckInventory(t *testing.T) {
	s := Default()

	stock := s.CheckInventory("SKU001")
	if len(stock) != 2 {
		t.Fatalf("stock = %v, want both warehouses", stock)
	}
	total := 0
	for _, w := range stock {
		total += w.Quantity
	}
	if total != 800 {
		t.Errorf("total stock = %d, want 800", total)
	}
}
