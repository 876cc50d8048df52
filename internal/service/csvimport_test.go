package service

import (
	"context"
	"strings"
	"testing"
)

func TestImportProductsCSVRequiresAdmin(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ImportProductsCSV(context.Background(), strings.NewReader("name,sku,price\nWidget,W-1,5\n"))
	if err == nil || err.Error() != "admin role required" {
		t.Fatalf("expected admin role required, got %v", err)
	}
}

func TestImportProductsCSVEmptyFile(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ImportProductsCSV(adminCtx(), strings.NewReader(""))
	if err == nil || err.Error() != "CSV file is empty" {
		t.Fatalf("expected empty file rejection, got %v", err)
	}
}

func TestImportProductsCSVMissingHeaders(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ImportProductsCSV(adminCtx(), strings.NewReader("foo,bar\n1,2\n"))
	if err == nil || err.Error() != "Missing required headers: name, price, sku or barcode." {
		t.Fatalf("expected missing headers error, got %v", err)
	}

	// A barcode column satisfies the identity requirement without sku.
	if _, err := svc.ImportProductsCSV(adminCtx(), strings.NewReader("name,price,barcode\nWidget,5,111\n")); err != nil {
		t.Fatalf("barcode-only headers should import, got %v", err)
	}
}

func TestImportProductsCSVRowValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()

	csv := strings.Join([]string{
		"name,sku,price,stock",
		"Widget,W-1,9.99,5",
		",W-2,9.99,5",
		"NoKey,,9.99,5",
		"Bad,W-3,abc,5",
		"Zero,W-4,,5",
		"Dup,W-1,5,1",
		"Sample,WH-001,5,1",
	}, "\n") + "\n"

	result, err := svc.ImportProductsCSV(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportProductsCSV: %v", err)
	}

	if result.Parsed != 7 || result.Imported != 1 || result.Invalid != 6 {
		t.Fatalf("unexpected counts: parsed=%d imported=%d invalid=%d", result.Parsed, result.Imported, result.Invalid)
	}
	if result.Message != "6 rows need fixes before import." {
		t.Fatalf("unexpected message %q", result.Message)
	}

	wantErrors := map[int]string{
		2: "Missing name",
		3: "Missing sku or barcode",
		4: "Invalid price",
		5: "Price must be > 0", // a blank price cell reads as zero
		6: "Duplicate sku/barcode in CSV",
		7: "Duplicate sku/barcode in store",
	}
	for _, row := range result.Rows {
		want, bad := wantErrors[row.Line]
		if !bad {
			if len(row.Errors) != 0 {
				t.Fatalf("row %d should be valid, got %v", row.Line, row.Errors)
			}
			continue
		}
		found := false
		for _, msg := range row.Errors {
			if msg == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("row %d missing error %q, got %v", row.Line, want, row.Errors)
		}
	}

	// The valid row lands in the catalog with a csv-derived ID and its stock.
	products, err := svc.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	var imported bool
	for _, p := range products {
		if p.SKU != "W-1" {
			continue
		}
		imported = true
		if !strings.HasPrefix(p.ID, "csv_") {
			t.Fatalf("expected csv-derived ID, got %s", p.ID)
		}
		if p.Stock == nil || *p.Stock != 5 {
			t.Fatalf("expected stock 5, got %v", p.Stock)
		}
		if p.Price != 9.99 {
			t.Fatalf("expected price 9.99, got %.2f", p.Price)
		}
	}
	if !imported {
		t.Fatal("expected W-1 in the catalog after import")
	}
}

func TestImportProductsCSVDiscountAndActive(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()

	csv := strings.Join([]string{
		"name,sku,price,discountPrice,isActive",
		"Cheap,D-1,10,8,false",
		"Wrong,D-2,10,12,true",
	}, "\n") + "\n"

	result, err := svc.ImportProductsCSV(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportProductsCSV: %v", err)
	}
	if result.Imported != 1 || result.Invalid != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.Message != "1 row need fixes before import." {
		t.Fatalf("unexpected message %q", result.Message)
	}

	foundDiscountError := false
	for _, row := range result.Rows {
		for _, msg := range row.Errors {
			if msg == "Discount must be < price" {
				foundDiscountError = true
			}
		}
	}
	if !foundDiscountError {
		t.Fatal("expected discount >= price rejection")
	}

	products, _ := svc.ListProducts(ctx)
	for _, p := range products {
		if p.SKU == "D-1" {
			if p.Active {
				t.Fatal("expected isActive=false to carry through")
			}
			if p.DiscountPrice != 8 {
				t.Fatalf("expected discount price 8, got %.2f", p.DiscountPrice)
			}
		}
	}
}
