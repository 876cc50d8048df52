package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/store"
)

func TestStockMovementsNewestFirst(t *testing.T) {
	databaseURL := os.Getenv("TILLPOINT_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TILLPOINT_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prod-it-%d", stamp)
	branchID := "branch-nyc"

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM branch_inventory WHERE product_id = $1`, productID)
	})

	if err := s.UpsertInventoryRecord(ctx, domain.BranchInventoryRecord{
		BranchID: branchID, ProductID: productID, Stock: 10, UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("upsert inventory: %v", err)
	}

	for i, qty := range []int{10, -3} {
		if err := s.AppendMovement(ctx, domain.StockMovement{
			ID:        fmt.Sprintf("mov-it-%d-%d", stamp, i),
			BranchID:  branchID,
			ProductID: productID,
			Type:      domain.MovementAdjustment,
			Quantity:  qty,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("append movement %d: %v", i, err)
		}
	}

	stock, err := s.GetBranchStock(ctx, branchID, productID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if stock != 10 {
		t.Fatalf("expected stock 10, got %d", stock)
	}

	movements, err := s.ListMovements(ctx, 100)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	var mine []domain.StockMovement
	for _, m := range movements {
		if m.ProductID == productID {
			mine = append(mine, m)
		}
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(mine))
	}
	if mine[0].Quantity != -3 || mine[1].Quantity != 10 {
		t.Fatalf("expected newest first, got %+v", mine)
	}
}

func TestDrawerSnapshotRoundtrip(t *testing.T) {
	databaseURL := os.Getenv("TILLPOINT_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TILLPOINT_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM drawer WHERE slot = 1`)
	})

	opened := time.Now().UTC().Truncate(time.Second)
	snapshot := domain.DrawerSnapshot{
		Shift: &domain.Shift{
			ID:          fmt.Sprintf("shift-it-%d", time.Now().UnixNano()),
			Status:      domain.ShiftStatusOpen,
			BranchID:    "branch-nyc",
			OpenedAt:    opened,
			OpenedBy:    "amy",
			OpeningCash: 100,
		},
		Movements: []domain.CashMovement{
			{ID: "cm-1", Type: domain.CashMovementIn, Amount: 25, Reason: "float", CreatedAt: opened},
		},
	}

	if err := s.SaveDrawer(ctx, snapshot); err != nil {
		t.Fatalf("save drawer: %v", err)
	}

	loaded, err := s.GetDrawer(ctx)
	if err != nil {
		t.Fatalf("get drawer: %v", err)
	}
	if loaded.Shift == nil || loaded.Shift.ID != snapshot.Shift.ID {
		t.Fatalf("unexpected shift: %+v", loaded.Shift)
	}
	if len(loaded.Movements) != 1 || loaded.Movements[0].Amount != 25 {
		t.Fatalf("unexpected movements: %+v", loaded.Movements)
	}
}

func TestDeleteStoredProductMissing(t *testing.T) {
	databaseURL := os.Getenv("TILLPOINT_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TILLPOINT_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	if err := s.DeleteStoredProduct(ctx, fmt.Sprintf("ghost-%d", time.Now().UnixNano())); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
