package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"tillpoint/backend/internal/domain"
)

// requiredCSVHeaders must all be present; additionally at least one of sku or
// barcode must appear so every row can carry an identity key.
var requiredCSVHeaders = []string{"name", "price"}

// ImportProductsCSV parses a bulk-upload CSV, validates every row
// independently, and imports only the error-free rows through the regular
// upsert path. Row errors are reported back verbatim so the uploader can fix
// the file; one bad row never blocks the rest.
func (s *Service) ImportProductsCSV(ctx context.Context, reader io.Reader) (domain.CSVImportResult, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.CSVImportResult{}, fmt.Errorf("admin role required")
	}

	parser := csv.NewReader(reader)
	parser.FieldsPerRecord = -1
	parser.TrimLeadingSpace = true

	header, err := parser.Read()
	if err == io.EOF {
		return domain.CSVImportResult{}, errValidation("CSV file is empty")
	}
	if err != nil {
		return domain.CSVImportResult{}, errValidation("could not parse CSV: %v", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	missing := make([]string, 0, 3)
	for _, required := range requiredCSVHeaders {
		if !containsHeader(headers, required) {
			missing = append(missing, required)
		}
	}
	if !containsHeader(headers, "sku") && !containsHeader(headers, "barcode") {
		missing = append(missing, "sku or barcode")
	}
	if len(missing) > 0 {
		return domain.CSVImportResult{}, errValidation("Missing required headers: %s.", strings.Join(missing, ", "))
	}

	existing, err := s.ListProducts(ctx)
	if err != nil {
		return domain.CSVImportResult{}, err
	}
	existingKeys := make(map[string]bool, len(existing))
	for _, p := range existing {
		if key := normalizeImportKey(firstNonEmpty(p.SKU, p.Barcode)); key != "" {
			existingKeys[key] = true
		}
	}
	seenKeys := make(map[string]bool)

	result := domain.CSVImportResult{Rows: make([]domain.CSVRowResult, 0, 16)}
	valid := make([]domain.Product, 0, 16)
	batchStamp := time.Now().UnixMilli()

	for line := 1; ; line++ {
		record, err := parser.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Rows = append(result.Rows, domain.CSVRowResult{
				Line:   line,
				Errors: []string{fmt.Sprintf("could not parse row: %v", err)},
			})
			result.Parsed++
			continue
		}

		row := make(map[string]string, len(headers))
		for i, key := range headers {
			if i < len(record) {
				row[key] = record[i]
			} else {
				row[key] = ""
			}
		}

		product, rowErrors := buildImportedProduct(row, line, batchStamp, seenKeys, existingKeys)
		result.Parsed++
		result.Rows = append(result.Rows, domain.CSVRowResult{
			Line:   line,
			Name:   product.Name,
			Errors: rowErrors,
		})
		if len(rowErrors) == 0 {
			valid = append(valid, product)
		} else {
			result.Invalid++
		}
	}

	if len(valid) > 0 {
		if _, err := s.UpsertProducts(ctx, domain.ProductUpsertRequest{Products: valid}); err != nil {
			return domain.CSVImportResult{}, err
		}
	}
	result.Imported = len(valid)

	if result.Invalid > 0 {
		plural := "s"
		if result.Invalid == 1 {
			plural = ""
		}
		result.Message = fmt.Sprintf("%d row%s need fixes before import.", result.Invalid, plural)
	} else {
		result.Message = fmt.Sprintf("Imported %d products.", result.Imported)
	}

	s.logAudit(ctx, "products_import_csv", "product", fmt.Sprintf("%d", result.Imported), fmt.Sprintf("parsed=%d,invalid=%d", result.Parsed, result.Invalid))
	return result, nil
}

// buildImportedProduct validates a single row and accumulates every
// independent error rather than stopping at the first.
func buildImportedProduct(row map[string]string, line int, batchStamp int64, seenKeys map[string]bool, existingKeys map[string]bool) (domain.Product, []string) {
	errors := make([]string, 0, 4)

	name := strings.TrimSpace(row["name"])
	sku := strings.TrimSpace(row["sku"])
	barcode := strings.TrimSpace(row["barcode"])

	price, priceValid := parseCSVNumber(row["price"])
	if name == "" {
		errors = append(errors, "Missing name")
	}
	if sku == "" && barcode == "" {
		errors = append(errors, "Missing sku or barcode")
	}
	if !priceValid {
		errors = append(errors, "Invalid price")
	}
	if priceValid && price <= 0 {
		errors = append(errors, "Price must be > 0")
	}

	var discountPrice float64
	discountSet := strings.TrimSpace(row["discountprice"]) != ""
	discountValid := true
	if discountSet {
		discountPrice, discountValid = parseCSVNumber(row["discountprice"])
		if !discountValid {
			errors = append(errors, "Invalid discountPrice")
		}
	}
	if priceValid && discountSet && discountValid && discountPrice >= price {
		errors = append(errors, "Discount must be < price")
	}

	var stock float64
	stockSet := strings.TrimSpace(row["stock"]) != ""
	stockValid := true
	if stockSet {
		stock, stockValid = parseCSVNumber(row["stock"])
		if !stockValid {
			errors = append(errors, "Invalid stock")
		}
	}
	if stockSet && stockValid && stock < 0 {
		errors = append(errors, "Stock must be >= 0")
	}

	if key := normalizeImportKey(firstNonEmpty(sku, barcode)); key != "" {
		if seenKeys[key] {
			errors = append(errors, "Duplicate sku/barcode in CSV")
		} else {
			seenKeys[key] = true
		}
		if existingKeys[key] {
			errors = append(errors, "Duplicate sku/barcode in store")
		}
	}

	active := true
	if raw := strings.TrimSpace(row["isactive"]); raw != "" {
		active = strings.ToLower(raw) != "false"
	}

	product := domain.Product{
		ID:       fmt.Sprintf("csv_%d_%d", batchStamp, line),
		Name:     name,
		SKU:      sku,
		Barcode:  barcode,
		Price:    price,
		Category: strings.TrimSpace(row["category"]),
		Image:    strings.TrimSpace(row["image"]),
		Active:   active,
	}
	if discountSet && discountValid {
		product.DiscountPrice = discountPrice
	}
	if description := strings.TrimSpace(row["description"]); description != "" {
		product.Description = description
	}
	if stockSet && stockValid {
		qty := int(stock)
		product.Stock = &qty
	}

	return product, errors
}

// parseCSVNumber treats a blank cell as zero, matching loose spreadsheet
// conventions where an empty price column means "0", not "invalid".
func parseCSVNumber(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, true
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func normalizeImportKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func containsHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
