// Package catalog is the read-only demo data store the workflow families
// query: vehicle stock, warehouse inventory, customers, orders, and FAQs.
// Lookups never fail; absent records return zero values.
package catalog

import (
	"sort"
	"strings"
)

// Vehicle is one showroom unit.
type Vehicle struct {
	ID     string  `json:"id"`
	Brand  string  `json:"brand"`
	Model  string  `json:"model"`
	Year   int     `json:"year"`
	Price  float64 `json:"price"`
	Color  string  `json:"color"`
	Status string  `json:"status"`
}

// Part is a service part with compatibility info.
type Part struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	Stock      int      `json:"stock"`
	Compatible []string `json:"compatible"`
}

// StockLevel is one SKU's stock at one warehouse.
type StockLevel struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Zone     string `json:"zone"`
}

// Warehouse holds per-SKU stock levels.
type Warehouse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Location  string                `json:"location"`
	Inventory map[string]StockLevel `json:"inventory"`
}

// Customer is a support-desk customer profile.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Tier  string `json:"tier"`
	Since string `json:"since"`
}

// Order is a prior customer order the chatbot can look up.
type Order struct {
	ID         string   `json:"id"`
	CustomerID string   `json:"customer_id"`
	Status     string   `json:"status"`
	Items      []string `json:"items"`
	Total      string   `json:"total"`
	Date       string   `json:"date"`
	ETA        string   `json:"eta,omitempty"`
}

// Product is a retail product the chatbot can describe.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Stock    string `json:"stock"`
	Warranty string `json:"warranty"`
}

// Store bundles all demo data. The zero data set comes from Default; tests
// may construct smaller stores directly.
type Store struct {
	Vehicles   []Vehicle
	Parts      []Part
	Warehouses []Warehouse
	Customers  []Customer
	Orders     []Order
	Products   []Product
	FAQs       map[string]string
}

// VehicleByID returns the vehicle with the given id.
func (s *Store) VehicleByID(id string) (Vehicle, bool) {
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// AvailableVehicles returns available vehicles, optionally filtered by
// brand (case-insensitive), optionally capped by max price (0 = no cap).
func (s *Store) AvailableVehicles(brand string, maxPrice float64) []Vehicle {
	var out []Vehicle
	for _, v := range s.Vehicles {
		if v.Status != "available" {
			continue
		}
		if brand != "" && !strings.EqualFold(v.Brand, brand) {
			continue
		}
		if maxPrice > 0 && v.Price > maxPrice {
			continue
		}
		out = append(out, v)
	}
	return out
}

// PartsForService returns the parts relevant to a service request. Brake
// work maps to brake parts; anything else gets the common consumables.
func (s *Store) PartsForService(serviceType string) []Part {
	if strings.Contains(strings.ToLower(serviceType), "brake") {
		var out []Part
		for _, p := range s.Parts {
			if strings.Contains(strings.ToLower(p.Name), "brake") {
				out = append(out, p)
			}
		}
		return out
	}
	if len(s.Parts) > 3 {
		return s.Parts[:3]
	}
	return s.Parts
}

// WarehouseStock is one warehouse's availability for a SKU.
type WarehouseStock struct {
	WarehouseID string `json:"warehouse_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Zone        string `json:"zone"`
}

// CheckInventory returns per-warehouse stock for a SKU.
func (s *Store) CheckInventory(sku string) []WarehouseStock {
	var out []WarehouseStock
	for _, wh := range s.Warehouses {
		if level, ok := wh.Inventory[sku]; ok {
			out = append(out, WarehouseStock{
				WarehouseID: wh.ID,
				Name:        wh.Name,
				Quantity:    level.Quantity,
				Zone:        level.Zone,
			})
		}
	}
	return out
}

// FindSKU resolves a free-text item name to a SKU by substring match over
// warehouse inventory names.
func (s *Store) FindSKU(itemName string) (sku, canonical string, ok bool) {
	needle := strings.ToLower(itemName)
	for _, wh := range s.Warehouses {
		for id, level := range wh.Inventory {
			if strings.Contains(strings.ToLower(level.Name), needle) {
				return id, level.Name, true
			}
		}
	}
	return "", "", false
}

// Allocation is one warehouse's share of an inventory allocation.
type Allocation struct {
	WarehouseID   string `json:"warehouse_id"`
	WarehouseName string `json:"warehouse_name"`
	Quantity      int    `json:"quantity"`
	Zone          string `json:"zone"`
	PickSequence  int    `json:"pick_sequence"`
}

// Allocate fills a quantity from warehouses, largest stock first. The
// second return is the backordered remainder.
func (s *Store) Allocate(sku string, quantity int) ([]Allocation, int) {
	stock := s.CheckInventory(sku)
	sort.Slice(stock, func(i, j int) bool { return stock[i].Quantity > stock[j].Quantity })

	var allocations []Allocation
	remaining := quantity
	for _, wh := range stock {
		if remaining <= 0 {
			break
		}
		take := wh.Quantity
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		allocations = append(allocations, Allocation{
			WarehouseID:   wh.WarehouseID,
			WarehouseName: wh.Name,
			Quantity:      take,
			Zone:          wh.Zone,
			PickSequence:  len(allocations) + 1,
		})
		remaining -= take
	}
	return allocations, remaining
}

// CustomerByID returns a customer profile.
func (s *Store) CustomerByID(id string) (Customer, bool) {
	for _, c := range s.Customers {
		if strings.EqualFold(c.ID, id) {
			return c, true
		}
	}
	return Customer{}, false
}

// OrderByID returns an order.
func (s *Store) OrderByID(id string) (Order, bool) {
	for _, o := range s.Orders {
		if strings.EqualFold(o.ID, id) {
			return o, true
		}
	}
	return Order{}, false
}

// OrdersMentioned scans a message for known order ids.
func (s *Store) OrdersMentioned(message string) []Order {
	lower := strings.ToLower(message)
	var out []Order
	for _, o := range s.Orders {
		if strings.Contains(lower, strings.ToLower(o.ID)) {
			out = append(out, o)
		}
	}
	return out
}

// ProductsMentioned scans a message for product name words.
func (s *Store) ProductsMentioned(message string) []Product {
	lower := strings.ToLower(message)
	var out []Product
	for _, p := range s.Products {
		for _, word := range strings.Fields(strings.ToLower(p.Name)) {
			if strings.Contains(lower, word) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// FAQ returns the canned answer for a topic.
func (s *Store) FAQ(topic string) (string, bool) {
	answer, ok := s.FAQs[strings.ToLower(topic)]
	return answer, ok
}
