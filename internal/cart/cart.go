// Package cart implements the cart as a pure reducer. State is never mutated
// in place; Reduce returns a fresh State with totals recomputed, so callers can
// hold old snapshots safely.
package cart

import "tillpoint/backend/internal/domain"

type Line struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
	Notes    string         `json:"notes,omitempty"`
}

type State struct {
	Items      []Line  `json:"items"`
	TotalItems int     `json:"total_items"`
	TotalPrice float64 `json:"total_price"`
}

func Empty() State {
	return State{Items: []Line{}}
}

type Action interface {
	isCartAction()
}

type AddItem struct {
	Product domain.Product
}

type RemoveItem struct {
	ProductID string
}

type UpdateQuantity struct {
	ProductID string
	Quantity  int
}

type Clear struct{}

type UpdateNotes struct {
	ProductID string
	Notes     string
}

func (AddItem) isCartAction()        {}
func (RemoveItem) isCartAction()     {}
func (UpdateQuantity) isCartAction() {}
func (Clear) isCartAction()          {}
func (UpdateNotes) isCartAction()    {}

func Reduce(state State, action Action) State {
	switch act := action.(type) {
	case AddItem:
		return withTotals(addItem(state.Items, act.Product))
	case RemoveItem:
		return withTotals(removeItem(state.Items, act.ProductID))
	case UpdateQuantity:
		if act.Quantity <= 0 {
			return withTotals(removeItem(state.Items, act.ProductID))
		}
		return withTotals(updateQuantity(state.Items, act.ProductID, act.Quantity))
	case Clear:
		return Empty()
	case UpdateNotes:
		return withTotals(updateNotes(state.Items, act.ProductID, act.Notes))
	default:
		return state
	}
}

func addItem(items []Line, product domain.Product) []Line {
	for i, line := range items {
		if line.Product.ID != product.ID {
			continue
		}
		if limit, bounded := line.Product.StockLimit(); bounded && line.Quantity >= limit {
			// At the stock cap: silently ignored, same as the quantity clamp.
			return cloneLines(items)
		}
		next := cloneLines(items)
		next[i].Quantity++
		return next
	}

	if limit, bounded := product.StockLimit(); bounded && limit < 1 {
		return cloneLines(items)
	}
	next := cloneLines(items)
	return append(next, Line{Product: product, Quantity: 1})
}

func removeItem(items []Line, productID string) []Line {
	next := make([]Line, 0, len(items))
	for _, line := range items {
		if line.Product.ID == productID {
			continue
		}
		next = append(next, line)
	}
	return next
}

func updateQuantity(items []Line, productID string, quantity int) []Line {
	next := cloneLines(items)
	for i, line := range next {
		if line.Product.ID != productID {
			continue
		}
		if limit, bounded := line.Product.StockLimit(); bounded && quantity > limit {
			quantity = limit
		}
		next[i].Quantity = quantity
	}
	return next
}

func updateNotes(items []Line, productID string, notes string) []Line {
	next := cloneLines(items)
	for i, line := range next {
		if line.Product.ID == productID {
			next[i].Notes = notes
		}
	}
	return next
}

func withTotals(items []Line) State {
	state := State{Items: items}
	for _, line := range items {
		state.TotalItems += line.Quantity
		state.TotalPrice += line.Product.UnitPrice() * float64(line.Quantity)
	}
	return state
}

func cloneLines(items []Line) []Line {
	next := make([]Line, len(items))
	copy(next, items)
	return next
}
