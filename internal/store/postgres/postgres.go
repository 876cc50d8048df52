package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates all tables on first run. Statements are idempotent so
// restarting against an existing database is safe.
func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			identity_key TEXT PRIMARY KEY,
			position BIGSERIAL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			discount_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			image TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			stock INTEGER,
			description TEXT NOT NULL DEFAULT '',
			sku TEXT NOT NULL DEFAULT '',
			barcode TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS branch_inventory (
			branch_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			stock INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (branch_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			branch_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			type TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			from_branch_id TEXT NOT NULL DEFAULT '',
			to_branch_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transfer_requests (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			product_id TEXT NOT NULL,
			from_branch_id TEXT NOT NULL,
			to_branch_id TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			status TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS drawer (
			slot SMALLINT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS receipts (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			actor_username TEXT NOT NULL,
			actor_role TEXT NOT NULL,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListStoredProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, discount_price, image, category, stock, description,
			sku, barcode, active, created_at, updated_at
		FROM products
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) UpsertStoredProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range products {
		var stock sql.NullInt64
		if p.Stock != nil {
			stock = sql.NullInt64{Int64: int64(*p.Stock), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (
				identity_key, id, name, price, discount_price, image, category,
				stock, description, sku, barcode, active, created_at, updated_at
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (identity_key)
			DO UPDATE SET
				id = EXCLUDED.id,
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				discount_price = EXCLUDED.discount_price,
				image = EXCLUDED.image,
				category = EXCLUDED.category,
				stock = EXCLUDED.stock,
				description = EXCLUDED.description,
				sku = EXCLUDED.sku,
				barcode = EXCLUDED.barcode,
				active = EXCLUDED.active,
				updated_at = EXCLUDED.updated_at
		`, p.IdentityKey(), p.ID, p.Name, p.Price, p.DiscountPrice, p.Image, p.Category,
			stock, p.Description, p.SKU, p.Barcode, p.Active, nullTime(p.CreatedAt), nullTime(p.UpdatedAt))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) DeleteStoredProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.BranchInventoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT branch_id, product_id, stock, updated_at
		FROM branch_inventory
		ORDER BY branch_id, product_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.BranchInventoryRecord, 0, 64)
	for rows.Next() {
		var record domain.BranchInventoryRecord
		if err := rows.Scan(&record.BranchID, &record.ProductID, &record.Stock, &record.UpdatedAt); err != nil {
			return nil, err
		}
		record.UpdatedAt = record.UpdatedAt.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) GetBranchStock(ctx context.Context, branchID string, productID string) (int, error) {
	var stock int
	err := s.db.QueryRowContext(ctx, `
		SELECT stock
		FROM branch_inventory
		WHERE branch_id = $1 AND product_id = $2
	`, branchID, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return stock, nil
}

func (s *Store) UpsertInventoryRecord(ctx context.Context, record domain.BranchInventoryRecord) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO branch_inventory (branch_id, product_id, stock, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (branch_id, product_id)
		DO UPDATE SET stock = EXCLUDED.stock, updated_at = EXCLUDED.updated_at
	`, record.BranchID, record.ProductID, record.Stock, record.UpdatedAt)
	return err
}

func (s *Store) DeleteInventoryByProduct(ctx context.Context, productID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM branch_inventory WHERE product_id = $1`, productID)
	return err
}

func (s *Store) AppendMovement(ctx context.Context, movement domain.StockMovement) error {
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_movements (id, branch_id, product_id, type, quantity, reason, from_branch_id, to_branch_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, movement.ID, movement.BranchID, movement.ProductID, movement.Type, movement.Quantity,
		movement.Reason, movement.FromBranchID, movement.ToBranchID, movement.CreatedAt)
	return err
}

func (s *Store) ListMovements(ctx context.Context, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, branch_id, product_id, type, quantity, reason, from_branch_id, to_branch_id, created_at
		FROM stock_movements
		ORDER BY seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.BranchID, &m.ProductID, &m.Type, &m.Quantity, &m.Reason, &m.FromBranchID, &m.ToBranchID, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.CreatedAt = m.CreatedAt.UTC()
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) AppendTransferRequest(ctx context.Context, request domain.TransferRequest) error {
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transfer_requests (id, product_id, from_branch_id, to_branch_id, quantity, status, note, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, request.ID, request.ProductID, request.FromBranchID, request.ToBranchID, request.Quantity,
		request.Status, request.Note, request.CreatedAt, nullTime(request.UpdatedAt))
	return err
}

func (s *Store) ListTransferRequests(ctx context.Context, limit int) ([]domain.TransferRequest, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, from_branch_id, to_branch_id, quantity, status, note, created_at, updated_at
		FROM transfer_requests
		ORDER BY seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]domain.TransferRequest, 0, limit)
	for rows.Next() {
		var r domain.TransferRequest
		var updatedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.ProductID, &r.FromBranchID, &r.ToBranchID, &r.Quantity, &r.Status, &r.Note, &r.CreatedAt, &updatedAt); err != nil {
			return nil, err
		}
		r.CreatedAt = r.CreatedAt.UTC()
		if updatedAt.Valid {
			at := updatedAt.Time.UTC()
			r.UpdatedAt = &at
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *Store) CurrentBranch(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = 'current_branch'`).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *Store) SetCurrentBranch(ctx context.Context, branchID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value)
		VALUES ('current_branch', $1)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value
	`, branchID)
	return err
}

func (s *Store) GetDrawer(ctx context.Context) (domain.DrawerSnapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM drawer WHERE slot = 1`).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DrawerSnapshot{Movements: []domain.CashMovement{}}, nil
		}
		return domain.DrawerSnapshot{}, err
	}

	var snapshot domain.DrawerSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.DrawerSnapshot{}, err
	}
	if snapshot.Movements == nil {
		snapshot.Movements = []domain.CashMovement{}
	}
	return snapshot, nil
}

func (s *Store) SaveDrawer(ctx context.Context, snapshot domain.DrawerSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drawer (slot, payload, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (slot)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, payload)
	return err
}

func (s *Store) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO receipts (id, payload, created_at)
		VALUES ($1,$2,$3)
	`, receipt.ID, payload, receipt.CreatedAt)
	return err
}

func (s *Store) GetReceipt(ctx context.Context, id string) (*domain.Receipt, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM receipts WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var receipt domain.Receipt
	if err := json.Unmarshal(payload, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (s *Store) ListReceipts(ctx context.Context, limit int) ([]domain.Receipt, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM receipts
		ORDER BY seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := make([]domain.Receipt, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var receipt domain.Receipt
		if err := json.Unmarshal(payload, &receipt); err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return receipts, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidRequest
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type productScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row productScanner) (domain.Product, error) {
	var p domain.Product
	var stock sql.NullInt64
	var createdAt, updatedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.DiscountPrice, &p.Image, &p.Category,
		&stock, &p.Description, &p.SKU, &p.Barcode, &p.Active, &createdAt, &updatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if stock.Valid {
		qty := int(stock.Int64)
		p.Stock = &qty
	}
	if createdAt.Valid {
		at := createdAt.Time.UTC()
		p.CreatedAt = &at
	}
	if updatedAt.Valid {
		at := updatedAt.Time.UTC()
		p.UpdatedAt = &at
	}
	return p, nil
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
