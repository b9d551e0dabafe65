package catalog

// Default returns the built-in demo data set.
func Default() *Store {
	return &Store{
		Vehicles: []Vehicle{
			{ID: "V001", Brand: "Toyota", Model: "Camry", Year: 2024, Price: 35000, Color: "Silver", Status: "available"},
			{ID: "V002", Brand: "Honda", Model: "Accord", Year: 2024, Price: 38000, Color: "White", Status: "available"},
			{ID: "V003", Brand: "BMW", Model: "3 Series", Year: 2024, Price: 55000, Color: "Black", Status: "available"},
			{ID: "V004", Brand: "Mercedes", Model: "C-Class", Year: 2024, Price: 58000, Color: "Blue", Status: "reserved"},
			{ID: "V005", Brand: "Lexus", Model: "ES", Year: 2024, Price: 48000, Color: "Pearl White", Status: "available"},
		},
		Parts: []Part{
			{ID: "P001", Name: "Brake Pads (Front)", Price: 120, Stock: 45, Compatible: []string{"Toyota", "Honda", "Lexus"}},
			{ID: "P002", Name: "Brake Pads (Rear)", Price: 100, Stock: 38, Compatible: []string{"Toyota", "Honda", "Lexus"}},
			{ID: "P003", Name: "Brake Fluid", Price: 25, Stock: 100, Compatible: []string{"all"}},
			{ID: "P004", Name: "Brake Rotors", Price: 180, Stock: 20, Compatible: []string{"Toyota", "Honda"}},
			{ID: "P005", Name: "Brake Sensors", Price: 65, Stock: 30, Compatible: []string{"BMW", "Mercedes"}},
			{ID: "P006", Name: "Oil Filter", Price: 15, Stock: 200, Compatible: []string{"all"}},
			{ID: "P007", Name: "Air Filter", Price: 35, Stock: 80, Compatible: []string{"all"}},
			{ID: "P008", Name: "Timing Belt", Price: 250, Stock: 15, Compatible: []string{"Toyota", "Honda"}},
		},
		Warehouses: []Warehouse{
			{
				ID:       "WH-HK-CENTRAL",
				Name:     "Hong Kong Central Warehouse",
				Location: "Central, HK",
				Inventory: map[string]StockLevel{
					"SKU001": {Name: "Organic Oat Milk 1L", Quantity: 500, Zone: "A1"},
					"SKU002": {Name: "Korean Rosé Tteokbokki", Quantity: 200, Zone: "B3"},
					"SKU003": {Name: "Premium Green Tea", Quantity: 1000, Zone: "A2"},
					"SKU004": {Name: "Imported Italian Pasta", Quantity: 300, Zone: "C1"},
				},
			},
			{
				ID:       "WH-HK-KOWLOON",
				Name:     "Kowloon Warehouse",
				Location: "Kowloon, HK",
				Inventory: map[string]StockLevel{
					"SKU001": {Name: "Organic Oat Milk 1L", Quantity: 300, Zone: "A1"},
					"SKU005": {Name: "Plant-Based Burger Patties", Quantity: 150, Zone: "F1"},
					"SKU006": {Name: "Japanese Sake 720ml", Quantity: 80, Zone: "B2"},
				},
			},
		},
		Customers: []Customer{
			{ID: "C001", Name: "Alice Wong", Email: "alice@example.com", Tier: "Gold", Since: "2022"},
			{ID: "C002", Name: "Bob Chen", Email: "bob@example.com", Tier: "Silver", Since: "2023"},
			{ID: "C003", Name: "Carol Lee", Email: "carol@example.com", Tier: "Platinum", Since: "2021"},
		},
		Orders: []Order{
			{ID: "ORD-10001", CustomerID: "C001", Status: "Delivered", Items: []string{"Wireless Headphones", "Phone Case"}, Total: "$89.99", Date: "2024-01-15"},
			{ID: "ORD-10002", CustomerID: "C001", Status: "In Transit", Items: []string{"Smart Watch"}, Total: "$299.99", Date: "2024-01-20", ETA: "Jan 25"},
			{ID: "ORD-10003", CustomerID: "C002", Status: "Processing", Items: []string{"Laptop Stand", "USB-C Hub"}, Total: "$124.99", Date: "2024-01-22"},
			{ID: "ORD-10004", CustomerID: "C003", Status: "Pending", Items: []string{"Bluetooth Speaker"}, Total: "$79.99", Date: "2024-01-23"},
		},
		Products: []Product{
			{ID: "WH-1000", Name: "Wireless Headphones Pro", Price: "$149.99", Stock: "In Stock", Warranty: "2 years"},
			{ID: "SW-2000", Name: "Smart Watch Elite", Price: "$299.99", Stock: "Low Stock", Warranty: "1 year"},
			{ID: "BS-3000", Name: "Bluetooth Speaker Max", Price: "$79.99", Stock: "In Stock", Warranty: "1 year"},
			{ID: "LP-4000", Name: "Laptop Stand Ergonomic", Price: "$59.99", Stock: "In Stock", Warranty: "6 months"},
		},
		FAQs: map[string]string{
			"shipping": "Standard shipping takes 3-5 business days. Express shipping (1-2 days) is available for $9.99. Free shipping on orders over $50.",
			"returns":  "We offer a 30-day return policy for unused items in original packaging. Refunds are processed within 5-7 business days after we receive the item.",
			"warranty": "Most products come with a 1-2 year manufacturer warranty. Extended warranty options are available at checkout.",
			"payment":  "We accept all major credit cards (Visa, Mastercard, AMEX), PayPal, Apple Pay, and Google Pay. Installment plans available for orders over $200.",
			"tracking": "You can track your order using the tracking number sent to your email, or by logging into your account and viewing order history.",
			"cancel":   "Orders can be cancelled within 1 hour of placement if not yet processed. Contact support immediately for cancellation requests.",
			"exchange": "Exchanges can be requested within 30 days. We'll ship the new item once we receive your return, or you can do an instant exchange with a card on file.",
			"contact":  "You can reach us via this chat 24/7, by email at support@example.com, or by phone at 1-800-EXAMPLE (Mon-Fri 9AM-6PM EST).",
		},
	}
}
