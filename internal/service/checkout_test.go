package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/store"
)

func seedCheckoutProduct(t *testing.T, svc *Service, ctx context.Context) {
	t.Helper()
	if _, err := svc.UpsertProducts(ctx, domain.ProductUpsertRequest{
		Products: []domain.Product{
			{ID: "widget-1", Name: "Widget", SKU: "WID-1", Price: 100, Stock: intPtr(50), Active: true},
		},
	}); err != nil {
		t.Fatalf("UpsertProducts: %v", err)
	}
}

func TestQuoteCheckout(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()
	seedCheckoutProduct(t, svc, ctx)

	quote, err := svc.QuoteCheckout(ctx, domain.QuoteRequest{
		Items: []domain.CheckoutLine{{ProductID: "widget-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("QuoteCheckout: %v", err)
	}
	if quote.Subtotal != 100 || quote.VAT != 10 || quote.Total != 110 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if quote.VATPercentage != 10 {
		t.Fatalf("expected 10%% VAT, got %.2f", quote.VATPercentage)
	}
}

func TestQuoteCheckoutCoupons(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()
	seedCheckoutProduct(t, svc, ctx)

	// Codes are matched case-insensitively.
	quote, err := svc.QuoteCheckout(ctx, domain.QuoteRequest{
		Items:      []domain.CheckoutLine{{ProductID: "widget-1", Quantity: 1}},
		CouponCode: " SAVE10 ",
	})
	if err != nil {
		t.Fatalf("QuoteCheckout: %v", err)
	}
	if quote.DiscountPercentage != 10 {
		t.Fatalf("expected 10%% discount, got %.2f", quote.DiscountPercentage)
	}
	// The discount applies to subtotal plus VAT.
	if math.Abs(quote.DiscountAmount-11) > 1e-9 || math.Abs(quote.Total-99) > 1e-9 {
		t.Fatalf("unexpected discounted quote: %+v", quote)
	}

	quote, err = svc.QuoteCheckout(ctx, domain.QuoteRequest{
		Items:      []domain.CheckoutLine{{ProductID: "widget-1", Quantity: 1}},
		CouponCode: "nope",
	})
	if err != nil {
		t.Fatalf("QuoteCheckout: %v", err)
	}
	if quote.CouponMessage != "Invalid coupon code." {
		t.Fatalf("expected invalid coupon message, got %q", quote.CouponMessage)
	}
	if quote.DiscountPercentage != 0 || quote.Total != 110 {
		t.Fatalf("invalid coupon must not discount: %+v", quote)
	}
}

func TestQuoteCheckoutEmptyCart(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.QuoteCheckout(adminCtx(), domain.QuoteRequest{})
	if err == nil || err.Error() != "cart is empty" {
		t.Fatalf("expected cart is empty, got %v", err)
	}
}

func TestRemainingForPayment(t *testing.T) {
	payments := []domain.PaymentLine{
		{ID: "a", Method: domain.PaymentMethodCash, Amount: 60, Saved: true},
		{ID: "b", Method: domain.PaymentMethodCard, Amount: 0, Saved: false},
	}

	if got := RemainingForPayment(110, payments, "b"); math.Abs(got-50) > 1e-9 {
		t.Fatalf("expected 50 remaining for b, got %.2f", got)
	}
	// A line's own saved amount never counts against itself.
	if got := RemainingForPayment(110, payments, "a"); math.Abs(got-110) > 1e-9 {
		t.Fatalf("expected 110 remaining for a, got %.2f", got)
	}
	// Over-collection floors at zero.
	payments[0].Amount = 500
	if got := RemainingForPayment(110, payments, "b"); got != 0 {
		t.Fatalf("expected 0 remaining, got %.2f", got)
	}
}

func TestCompleteCheckoutRequiresOpenShift(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()
	seedCheckoutProduct(t, svc, ctx)

	_, err := svc.CompleteCheckout(ctx, domain.CheckoutRequest{
		Items: []domain.CheckoutLine{{ProductID: "widget-1", Quantity: 1}},
	})
	if !errors.Is(err, store.ErrShiftNotOpen) {
		t.Fatalf("expected ErrShiftNotOpen, got %v", err)
	}
}

func TestCompleteCheckoutCustomerValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()
	seedCheckoutProduct(t, svc, ctx)
	openTestShift(t, svc, ctx)

	base := domain.CheckoutRequest{
		Items:    []domain.CheckoutLine{{ProductID: "widget-1", Quantity: 1}},
		Payments: []domain.PaymentLine{{ID: "p1", Method: domain.PaymentMethodCash, Amount: 110, Saved: true}},
	}

	req := base
	req.Customer = domain.Customer{Type: domain.CustomerTypeWalkIn, Name: "Jo"}
	if _, err := svc.CompleteCheckout(ctx, req); err == nil || err.Error() != "Please fill in customer name and phone number." {
		t.Fatalf("expected walk-in validation, got %v", err)
	}

	req = base
	req.Customer = domain.Customer{Type: domain.CustomerTypeRegistered, Name: "Jo"}
	if _, err := svc.CompleteCheckout(ctx, req); err == nil || err.Error() != "Please fill in customer phone number." {
		t.Fatalf("expected registered validation, got %v", err)
	}
}

func TestCompleteCheckoutPaymentValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()
	seedCheckoutProduct(t, svc, ctx)
	openTestShift(t, svc, ctx)

	customer := domain.Customer{Type: domain.CustomerTypeWalkIn, Name: "Jo", Phone: "555-0100"}

	_, err := svc.CompleteCheckout(ctx, domain.CheckoutRequest{
		Items:    []domain.CheckoutLine{{ProductID: "widget-1", Quantity: 1}},
		Customer: customer,
		Payments: []domain.PaymentLine{{ID: "p1", Method: domain.PaymentMethodCard, Amount: 110, Saved: true}},
	})
	if err == nil || err.Error() != "Please fill in all card details for card payments." {
		t.Fatalf("expected card details validation, got %v", err)
	}

	_, err = svc.CompleteCheckout(ctx, domain.CheckoutRequest{
		Items:    []domain.CheckoutLine{{ProductID: "widget-1", Quantity: 1}},
		Customer: customer,
		Payments: []domain.PaymentLine{{ID: "p1", Method: domain.PaymentMethodCash, Amount: 109.98, Saved: true}},
	})
	if err == nil || err.Error() != "Payment amount ($109.98) is less than total ($110.00)." {
		t.Fatalf("expected underpayment rejection, got %v", err)
	}

	_, err = svc.CompleteCheckout(ctx, domain.CheckoutRequest{
		Items:    []domain.CheckoutLine{{ProductID: "widget-1", Quantity: 1}},
		Customer: customer,
		Payments: []domain.PaymentLine{{ID: "p1", Method: domain.PaymentMethodCash, Amount: 110.02, Saved: true}},
	})
	if err == nil || err.Error() != "Payment amount ($110.02) exceeds total ($110.00)." {
		t.Fatalf("expected overpayment rejection, got %v", err)
	}
}

func TestCompleteCheckoutProducesReceipt(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()
	seedCheckoutProduct(t, svc, ctx)
	openTestShift(t, svc, ctx)

	receipt, err := svc.CompleteCheckout(ctx, domain.CheckoutRequest{
		Items:    []domain.CheckoutLine{{ProductID: "widget-1", Quantity: 1, Notes: "gift wrap"}},
		Customer: domain.Customer{Type: domain.CustomerTypeWalkIn, Name: "Jo", Phone: "555-0100"},
		Payments: []domain.PaymentLine{
			{ID: "p1", Method: domain.PaymentMethodCard, Amount: 110, Saved: true, CardNumber: "4111 1111 1111 1234", ExpiryDate: "12/27", CVV: "123"},
			{ID: "p2", Method: domain.PaymentMethodCash, Amount: 999, Saved: false},
		},
	})
	if err != nil {
		t.Fatalf("CompleteCheckout: %v", err)
	}

	if !strings.HasPrefix(receipt.TransactionRef, "TXN-") {
		t.Fatalf("unexpected transaction ref %q", receipt.TransactionRef)
	}
	if receipt.BranchID != "branch-nyc" {
		t.Fatalf("expected shift branch on receipt, got %s", receipt.BranchID)
	}
	if len(receipt.Items) != 1 || receipt.Items[0].LineTotal != 100 || receipt.Items[0].Notes != "gift wrap" {
		t.Fatalf("unexpected receipt items: %+v", receipt.Items)
	}
	if receipt.Pricing.FinalTotal != 110 {
		t.Fatalf("expected final total 110, got %.2f", receipt.Pricing.FinalTotal)
	}
	// Unsaved payment lines are drafts and never reach the receipt.
	if len(receipt.Payments) != 1 {
		t.Fatalf("expected 1 saved payment, got %d", len(receipt.Payments))
	}
	if receipt.Payments[0].CardLastFour != "1234" {
		t.Fatalf("expected card last four 1234, got %q", receipt.Payments[0].CardLastFour)
	}

	stored, err := svc.GetReceipt(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceipt: %v", err)
	}
	if stored.TransactionRef != receipt.TransactionRef {
		t.Fatalf("stored receipt mismatch: %s != %s", stored.TransactionRef, receipt.TransactionRef)
	}

	receipts, err := svc.ListReceipts(ctx, 10)
	if err != nil {
		t.Fatalf("ListReceipts: %v", err)
	}
	if len(receipts) != 1 || receipts[0].ID != receipt.ID {
		t.Fatalf("expected the receipt listed, got %+v", receipts)
	}
}

func TestCompleteCheckoutUnknownProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()
	openTestShift(t, svc, ctx)

	_, err := svc.CompleteCheckout(ctx, domain.CheckoutRequest{
		Items:    []domain.CheckoutLine{{ProductID: "ghost", Quantity: 1}},
		Customer: domain.Customer{Type: domain.CustomerTypeWalkIn, Name: "Jo", Phone: "555-0100"},
	})
	var validation ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error for unknown product, got %v", err)
	}
}
