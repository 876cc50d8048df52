package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"tillpoint/backend/internal/cart"
	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/store"
	"tillpoint/backend/internal/xid"
)

// VAT is a fixed 10%, applied before the coupon discount.
const vatPercentage = 10.0

// couponDiscounts is the full coupon table. Unknown codes are not an error;
// they resolve to a 0% discount plus a message.
var couponDiscounts = map[string]float64{
	"save10": 10,
	"save20": 20,
}

const invalidCouponMessage = "Invalid coupon code."

func roundToCents(value float64) float64 {
	return math.Round(value*100) / 100
}

// buildCart folds the requested lines through the cart reducer so every
// quantity is clamped against the product's stock the same way the cart is.
func (s *Service) buildCart(ctx context.Context, items []domain.CheckoutLine) (cart.State, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return cart.State{}, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	state := cart.Empty()
	for _, line := range items {
		product, ok := byID[line.ProductID]
		if !ok {
			return cart.State{}, errValidation("unknown product: %s", line.ProductID)
		}
		if line.Quantity <= 0 {
			return cart.State{}, errValidation("quantity must be greater than zero for product %s", line.ProductID)
		}
		state = cart.Reduce(state, cart.AddItem{Product: product})
		state = cart.Reduce(state, cart.UpdateQuantity{ProductID: product.ID, Quantity: line.Quantity})
		if line.Notes != "" {
			state = cart.Reduce(state, cart.UpdateNotes{ProductID: product.ID, Notes: line.Notes})
		}
	}
	return state, nil
}

func quoteFromCart(state cart.State, couponCode string) domain.Quote {
	subtotal := state.TotalPrice
	vat := subtotal * (vatPercentage / 100)

	quote := domain.Quote{
		Subtotal:      roundToCents(subtotal),
		VATPercentage: vatPercentage,
		VAT:           roundToCents(vat),
	}

	code := strings.ToLower(strings.TrimSpace(couponCode))
	if code != "" {
		if percent, ok := couponDiscounts[code]; ok {
			quote.DiscountPercentage = percent
		} else {
			quote.CouponMessage = invalidCouponMessage
		}
	}

	discount := (subtotal + vat) * (quote.DiscountPercentage / 100)
	quote.DiscountAmount = roundToCents(discount)
	quote.Total = roundToCents(subtotal + vat - discount)
	return quote
}

// QuoteCheckout prices a cart: subtotal from discounted unit prices, 10% VAT,
// then the coupon discount applied to subtotal plus VAT.
func (s *Service) QuoteCheckout(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	state, err := s.buildCart(ctx, req.Items)
	if err != nil {
		return domain.Quote{}, err
	}
	if len(state.Items) == 0 {
		return domain.Quote{}, errValidation("cart is empty")
	}
	return quoteFromCart(state, req.CouponCode), nil
}

// RemainingForPayment is the cap for one payment line: the total minus every
// other saved amount, floored at zero. The line's own amount never counts
// against itself.
func RemainingForPayment(total float64, payments []domain.PaymentLine, paymentID string) float64 {
	var others float64
	for _, p := range payments {
		if p.ID == paymentID || !p.Saved {
			continue
		}
		others += p.Amount
	}
	remaining := roundToCents(total - others)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CompleteCheckout validates the customer, the split payments and the totals,
// then produces and persists a receipt and leaves the cart to be cleared by
// the caller. An open shift is required; the drawer's cash-sales figure is
// not touched here, it stays a manual entry.
func (s *Service) CompleteCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.Receipt, error) {
	snapshot, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot.Shift == nil || snapshot.Shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrShiftNotOpen
	}

	state, err := s.buildCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if len(state.Items) == 0 {
		return nil, errValidation("cart is empty")
	}
	quote := quoteFromCart(state, req.CouponCode)

	branchID := strings.TrimSpace(req.BranchID)
	if branchID == "" {
		branchID = snapshot.Shift.BranchID
	}
	if !domain.IsValidBranchID(branchID) {
		return nil, store.ErrInvalidRequest
	}

	customer := req.Customer
	customer.Type = strings.TrimSpace(customer.Type)
	if customer.Type == "" {
		customer.Type = domain.CustomerTypeWalkIn
	}
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	switch customer.Type {
	case domain.CustomerTypeWalkIn:
		if customer.Name == "" || customer.Phone == "" {
			return nil, errValidation("Please fill in customer name and phone number.")
		}
	case domain.CustomerTypeRegistered:
		if customer.Phone == "" {
			return nil, errValidation("Please fill in customer phone number.")
		}
	default:
		return nil, errValidation("unsupported customer type: %s", customer.Type)
	}

	var totalPaid float64
	for _, payment := range req.Payments {
		if !payment.Saved {
			continue
		}
		switch payment.Method {
		case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodDigital:
		default:
			return nil, errValidation("unsupported payment method: %s", payment.Method)
		}
		if payment.Amount <= 0 {
			return nil, errValidation("payment amounts must be greater than zero")
		}
		if payment.Method == domain.PaymentMethodCard {
			if strings.TrimSpace(payment.CardNumber) == "" ||
				strings.TrimSpace(payment.ExpiryDate) == "" ||
				strings.TrimSpace(payment.CVV) == "" {
				return nil, errValidation("Please fill in all card details for card payments.")
			}
		}
		totalPaid += payment.Amount
	}
	totalPaid = roundToCents(totalPaid)

	// 0.01 tolerance in both directions, with a direction-specific message.
	if diff := quote.Total - totalPaid; diff >= 0.01 {
		return nil, errValidation("Payment amount ($%.2f) is less than total ($%.2f).", totalPaid, quote.Total)
	} else if diff <= -0.01 {
		return nil, errValidation("Payment amount ($%.2f) exceeds total ($%.2f).", totalPaid, quote.Total)
	}

	receipt := domain.Receipt{
		ID:             xid.New("rcpt"),
		TransactionRef: fmt.Sprintf("TXN-%d", time.Now().UnixMilli()),
		BranchID:       branchID,
		Customer:       customer,
		Items:          make([]domain.ReceiptItem, 0, len(state.Items)),
		Pricing: domain.ReceiptPricing{
			Subtotal:           quote.Subtotal,
			VATPercentage:      quote.VATPercentage,
			VAT:                quote.VAT,
			DiscountPercentage: quote.DiscountPercentage,
			DiscountAmount:     quote.DiscountAmount,
			FinalTotal:         quote.Total,
		},
		Payments:  make([]domain.ReceiptPayment, 0, len(req.Payments)),
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: time.Now().UTC(),
	}

	for _, line := range state.Items {
		unit := line.Product.UnitPrice()
		receipt.Items = append(receipt.Items, domain.ReceiptItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Quantity:  line.Quantity,
			UnitPrice: roundToCents(unit),
			LineTotal: roundToCents(unit * float64(line.Quantity)),
			Notes:     line.Notes,
		})
	}
	for _, payment := range req.Payments {
		if !payment.Saved {
			continue
		}
		entry := domain.ReceiptPayment{
			Method: payment.Method,
			Amount: roundToCents(payment.Amount),
		}
		if payment.Method == domain.PaymentMethodCard {
			entry.CardLastFour = cardLastFour(payment.CardNumber)
		}
		receipt.Payments = append(receipt.Payments, entry)
	}

	if err := s.repo.SaveReceipt(ctx, receipt); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "checkout_complete", "receipt", receipt.ID, fmt.Sprintf("ref=%s,total=%.2f,payments=%d", receipt.TransactionRef, quote.Total, len(receipt.Payments)))
	return &receipt, nil
}

func (s *Service) GetReceipt(ctx context.Context, id string) (*domain.Receipt, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, store.ErrInvalidRequest
	}
	return s.repo.GetReceipt(ctx, id)
}

func (s *Service) ListReceipts(ctx context.Context, limit int) ([]domain.Receipt, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ListReceipts(ctx, limit)
}

func cardLastFour(cardNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cardNumber)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
