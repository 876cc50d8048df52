package domain

func intPtr(v int) *int { return &v }

// sampleCatalog is the built-in demo catalog. Stored products shadow these
// entries by identity key but never delete them.
var sampleCatalog = []Product{
	{
		ID:            "1",
		Name:          "Wireless Bluetooth Headphones",
		Price:         89.99,
		DiscountPrice: 69.99,
		Image:         "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400&h=300&fit=crop",
		Category:      "Electronics",
		Stock:         intPtr(15),
		Description:   "High-quality wireless headphones with noise cancellation and premium sound.",
		SKU:           "WH-001",
		Barcode:       "0123456789012",
		Active:        true,
	},
	{
		ID:          "2",
		Name:        "Organic Coffee Beans",
		Price:       24.99,
		Image:       "https://images.unsplash.com/photo-1559056199-641a0ac8b55e?w=400&h=300&fit=crop",
		Category:    "Food & Beverage",
		Stock:       intPtr(8),
		Description: "Premium organic coffee beans sourced from sustainable farms.",
		SKU:         "CF-002",
		Barcode:     "0987654321098",
		Active:      true,
	},
	{
		ID:            "3",
		Name:          "Smart Fitness Watch",
		Price:         199.99,
		DiscountPrice: 149.99,
		Image:         "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=400&h=300&fit=crop",
		Category:      "Electronics",
		Stock:         intPtr(0),
		Description:   "Advanced fitness tracking with heart rate monitoring and GPS.",
		SKU:           "FW-003",
		Barcode:       "1234509876543",
		Active:        true,
	},
	{
		ID:          "4",
		Name:        "Ergonomic Office Chair",
		Price:       299.99,
		Image:       "https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=400&h=300&fit=crop",
		Category:    "Furniture",
		Stock:       intPtr(3),
		Description: "Comfortable ergonomic chair designed for long work sessions.",
		SKU:         "OC-004",
		Barcode:     "2222333344445",
		Active:      true,
	},
}

// SampleCatalog returns fresh copies so callers cannot mutate the shared seed.
func SampleCatalog() []Product {
	out := make([]Product, len(sampleCatalog))
	for i, p := range sampleCatalog {
		if p.Stock != nil {
			stock := *p.Stock
			p.Stock = &stock
		}
		out[i] = p
	}
	return out
}
