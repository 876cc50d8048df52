package cart

import (
	"math"
	"testing"

	"tillpoint/backend/internal/domain"
)

func intPtr(v int) *int { return &v }

func product(id string, price float64, discount float64, stock *int) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          "Product " + id,
		Price:         price,
		DiscountPrice: discount,
		Stock:         stock,
		Active:        true,
	}
}

func TestAddItemIncrementsQuantity(t *testing.T) {
	p := product("p1", 10, 0, nil)

	state := Reduce(Empty(), AddItem{Product: p})
	state = Reduce(state, AddItem{Product: p})

	if len(state.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(state.Items))
	}
	if state.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", state.Items[0].Quantity)
	}
	if state.TotalItems != 2 {
		t.Fatalf("expected total items 2, got %d", state.TotalItems)
	}
}

func TestAddItemRespectsStockCap(t *testing.T) {
	p := product("p1", 10, 0, intPtr(1))

	state := Reduce(Empty(), AddItem{Product: p})
	state = Reduce(state, AddItem{Product: p})

	if state.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity capped at 1, got %d", state.Items[0].Quantity)
	}
}

func TestAddItemOutOfStockIsIgnored(t *testing.T) {
	p := product("p1", 10, 0, intPtr(0))

	state := Reduce(Empty(), AddItem{Product: p})

	if len(state.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(state.Items))
	}
}

func TestUpdateQuantityClampsToStock(t *testing.T) {
	p := product("p1", 10, 0, intPtr(5))

	state := Reduce(Empty(), AddItem{Product: p})
	state = Reduce(state, UpdateQuantity{ProductID: "p1", Quantity: 99})

	if state.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity clamped to 5, got %d", state.Items[0].Quantity)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	p := product("p1", 10, 0, nil)

	state := Reduce(Empty(), AddItem{Product: p})
	state = Reduce(state, UpdateQuantity{ProductID: "p1", Quantity: 0})

	if len(state.Items) != 0 {
		t.Fatalf("expected line removed, got %d lines", len(state.Items))
	}
	if state.TotalItems != 0 || state.TotalPrice != 0 {
		t.Fatalf("expected zero totals, got items=%d price=%.2f", state.TotalItems, state.TotalPrice)
	}
}

func TestTotalsUseDiscountPrice(t *testing.T) {
	p := product("p1", 10, 8, nil)

	state := Reduce(Empty(), AddItem{Product: p})
	state = Reduce(state, UpdateQuantity{ProductID: "p1", Quantity: 3})

	if state.TotalItems != 3 {
		t.Fatalf("expected total items 3, got %d", state.TotalItems)
	}
	if math.Abs(state.TotalPrice-24) > 1e-9 {
		t.Fatalf("expected total price 24, got %.2f", state.TotalPrice)
	}
}

func TestRemoveItem(t *testing.T) {
	a := product("a", 10, 0, nil)
	b := product("b", 5, 0, nil)

	state := Reduce(Empty(), AddItem{Product: a})
	state = Reduce(state, AddItem{Product: b})
	state = Reduce(state, RemoveItem{ProductID: "a"})

	if len(state.Items) != 1 || state.Items[0].Product.ID != "b" {
		t.Fatalf("expected only product b to remain, got %+v", state.Items)
	}
}

func TestClear(t *testing.T) {
	state := Reduce(Empty(), AddItem{Product: product("p1", 10, 0, nil)})
	state = Reduce(state, Clear{})

	if len(state.Items) != 0 || state.TotalItems != 0 || state.TotalPrice != 0 {
		t.Fatalf("expected empty state after clear, got %+v", state)
	}
}

func TestUpdateNotes(t *testing.T) {
	state := Reduce(Empty(), AddItem{Product: product("p1", 10, 0, nil)})
	state = Reduce(state, UpdateNotes{ProductID: "p1", Notes: "no bag"})

	if state.Items[0].Notes != "no bag" {
		t.Fatalf("expected note set, got %q", state.Items[0].Notes)
	}
}

func TestReduceDoesNotMutatePreviousState(t *testing.T) {
	p := product("p1", 10, 0, nil)
	before := Reduce(Empty(), AddItem{Product: p})

	after := Reduce(before, UpdateQuantity{ProductID: "p1", Quantity: 5})

	if before.Items[0].Quantity != 1 {
		t.Fatalf("previous state mutated: quantity %d", before.Items[0].Quantity)
	}
	if after.Items[0].Quantity != 5 {
		t.Fatalf("expected new state quantity 5, got %d", after.Items[0].Quantity)
	}
}
