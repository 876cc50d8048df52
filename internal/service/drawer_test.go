package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/store"
)

func openTestShift(t *testing.T, svc *Service, ctx context.Context) *domain.Shift {
	t.Helper()
	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{
		BranchID: "branch-nyc", OpenedBy: "amy", OpeningCash: 100,
	})
	if err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	return shift
}

func TestOpenShiftValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()

	if _, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{BranchID: "branch-nyc"}); err == nil || err.Error() != "opened_by is required" {
		t.Fatalf("expected opened_by validation, got %v", err)
	}
	if _, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{BranchID: "branch-nowhere", OpenedBy: "amy"}); err == nil || err.Error() != "a valid branch is required" {
		t.Fatalf("expected branch validation, got %v", err)
	}
}

func TestOpenShiftSetsCurrentBranch(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()

	if _, err := svc.SetCurrentBranch(ctx, "branch-chi"); err != nil {
		t.Fatalf("SetCurrentBranch: %v", err)
	}
	shift := openTestShift(t, svc, ctx)

	if shift.Status != domain.ShiftStatusOpen || shift.OpeningCash != 100 {
		t.Fatalf("unexpected shift: %+v", shift)
	}
	branch, _ := svc.CurrentBranch(ctx)
	if branch.ID != "branch-nyc" {
		t.Fatalf("opening a shift should move the branch selector, got %s", branch.ID)
	}
}

func TestDrawerExpectedCash(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()
	openTestShift(t, svc, ctx)

	if _, err := svc.UpdateCashSales(ctx, domain.CashSalesUpdateRequest{Amount: 50}); err != nil {
		t.Fatalf("UpdateCashSales: %v", err)
	}
	status, err := svc.AddCashMovement(ctx, domain.CashMovementRequest{
		Type: domain.CashMovementIn, Amount: 25, Reason: "change float",
	})
	if err != nil {
		t.Fatalf("AddCashMovement in: %v", err)
	}
	if math.Abs(status.ExpectedCash-175) > 1e-9 {
		t.Fatalf("expected cash 175, got %.2f", status.ExpectedCash)
	}

	// A payout larger than the drawer holds is blocked.
	if _, err := svc.AddCashMovement(ctx, domain.CashMovementRequest{
		Type: domain.CashMovementOut, Amount: 200, Reason: "bank drop",
	}); err == nil || err.Error() != "cash out exceeds expected cash in drawer" {
		t.Fatalf("expected cash out rejection, got %v", err)
	}

	status, err = svc.AddCashMovement(ctx, domain.CashMovementRequest{
		Type: domain.CashMovementOut, Amount: 30, Reason: "bank drop",
	})
	if err != nil {
		t.Fatalf("AddCashMovement out: %v", err)
	}
	if math.Abs(status.ExpectedCash-145) > 1e-9 {
		t.Fatalf("expected cash 145, got %.2f", status.ExpectedCash)
	}
	if len(status.Movements) != 2 || status.Movements[0].Type != domain.CashMovementOut {
		t.Fatalf("expected newest movement first, got %+v", status.Movements)
	}
}

func TestAddCashMovementValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()

	if _, err := svc.AddCashMovement(ctx, domain.CashMovementRequest{
		Type: domain.CashMovementIn, Amount: 5, Reason: "x",
	}); !errors.Is(err, store.ErrShiftNotOpen) {
		t.Fatalf("expected ErrShiftNotOpen before any shift, got %v", err)
	}

	openTestShift(t, svc, ctx)

	if _, err := svc.AddCashMovement(ctx, domain.CashMovementRequest{
		Type: "sideways", Amount: 5, Reason: "x",
	}); err == nil || err.Error() != "movement type must be in or out" {
		t.Fatalf("expected type validation, got %v", err)
	}
	if _, err := svc.AddCashMovement(ctx, domain.CashMovementRequest{
		Type: domain.CashMovementIn, Amount: 5,
	}); err == nil || err.Error() != "reason is required" {
		t.Fatalf("expected reason validation, got %v", err)
	}
	if _, err := svc.AddCashMovement(ctx, domain.CashMovementRequest{
		Type: domain.CashMovementIn, Amount: 0, Reason: "x",
	}); err == nil || err.Error() != "amount must be greater than zero" {
		t.Fatalf("expected amount validation, got %v", err)
	}
}

func TestCloseShiftComputesOverShort(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()
	openTestShift(t, svc, ctx)

	if _, err := svc.UpdateCashSales(ctx, domain.CashSalesUpdateRequest{Amount: 45}); err != nil {
		t.Fatalf("UpdateCashSales: %v", err)
	}

	status, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{
		ClosedBy: "sam", CountedCash: 150, Notes: "till balanced by hand",
	})
	if err != nil {
		t.Fatalf("CloseShift: %v", err)
	}
	if status.Shift.Status != domain.ShiftStatusClosed || status.Shift.ClosedBy != "sam" {
		t.Fatalf("unexpected closed shift: %+v", status.Shift)
	}
	if status.OverShort == nil {
		t.Fatal("expected over/short after close")
	}
	// Expected 145 (100 opening + 45 sales), counted 150: over by 5.
	if math.Abs(*status.OverShort-5) > 1e-9 {
		t.Fatalf("expected over/short +5, got %.2f", *status.OverShort)
	}

	if _, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{ClosedBy: "sam", CountedCash: 1}); !errors.Is(err, store.ErrShiftNotOpen) {
		t.Fatalf("expected ErrShiftNotOpen on double close, got %v", err)
	}
	if _, err := svc.AddCashMovement(ctx, domain.CashMovementRequest{
		Type: domain.CashMovementIn, Amount: 5, Reason: "late",
	}); !errors.Is(err, store.ErrShiftNotOpen) {
		t.Fatalf("expected ErrShiftNotOpen after close, got %v", err)
	}
}

func TestDrawerStatusBeforeAnyShift(t *testing.T) {
	svc := newTestService(t)

	status, err := svc.DrawerStatus(context.Background())
	if err != nil {
		t.Fatalf("DrawerStatus: %v", err)
	}
	if status.Shift != nil {
		t.Fatalf("expected no shift, got %+v", status.Shift)
	}
	if status.Movements == nil {
		t.Fatal("movements must never be nil")
	}
	if status.ExpectedCash != 0 {
		t.Fatalf("expected zero cash, got %.2f", status.ExpectedCash)
	}
}
