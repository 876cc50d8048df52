package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/store"
)

type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	productOrder     []string
	inventory        map[string]map[string]domain.BranchInventoryRecord
	movements        []domain.StockMovement
	transferRequests []domain.TransferRequest
	currentBranch    string
	drawer           domain.DrawerSnapshot
	receiptsByID     map[string]domain.Receipt
	receiptOrder     []string
	auditLogs        []domain.AuditLog
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	return &Store{
		products:         make(map[string]domain.Product),
		productOrder:     make([]string, 0, 16),
		inventory:        make(map[string]map[string]domain.BranchInventoryRecord),
		movements:        make([]domain.StockMovement, 0, 64),
		transferRequests: make([]domain.TransferRequest, 0, 16),
		drawer:           domain.DrawerSnapshot{Movements: []domain.CashMovement{}},
		receiptsByID:     make(map[string]domain.Receipt),
		receiptOrder:     make([]string, 0, 32),
		auditLogs:        make([]domain.AuditLog, 0, 128),
		usersByUsername:  seedUsers(),
	}
}

func (s *Store) ListStoredProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productOrder))
	for _, key := range s.productOrder {
		products = append(products, cloneProduct(s.products[key]))
	}
	return products, nil
}

func (s *Store) UpsertStoredProducts(_ context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		key := p.IdentityKey()
		if key == "" {
			return store.ErrInvalidRequest
		}
		if _, exists := s.products[key]; !exists {
			s.productOrder = append(s.productOrder, key)
		}
		s.products[key] = cloneProduct(p)
	}
	return nil
}

func (s *Store) DeleteStoredProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, p := range s.products {
		if p.ID != id {
			continue
		}
		delete(s.products, key)
		s.productOrder = slices.DeleteFunc(s.productOrder, func(k string) bool {
			return k == key
		})
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) ListInventory(_ context.Context) ([]domain.BranchInventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.BranchInventoryRecord, 0, 32)
	for _, byProduct := range s.inventory {
		for _, record := range byProduct {
			records = append(records, record)
		}
	}

	slices.SortFunc(records, func(a, b domain.BranchInventoryRecord) int {
		if a.BranchID == b.BranchID {
			return cmpString(a.ProductID, b.ProductID)
		}
		return cmpString(a.BranchID, b.BranchID)
	})

	return records, nil
}

func (s *Store) GetBranchStock(_ context.Context, branchID string, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byProduct, ok := s.inventory[branchID]
	if !ok {
		return 0, nil
	}
	record, ok := byProduct[productID]
	if !ok {
		return 0, nil
	}
	return record.Stock, nil
}

func (s *Store) UpsertInventoryRecord(_ context.Context, record domain.BranchInventoryRecord) error {
	if record.BranchID == "" || record.ProductID == "" {
		return store.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byProduct, ok := s.inventory[record.BranchID]
	if !ok {
		byProduct = make(map[string]domain.BranchInventoryRecord)
		s.inventory[record.BranchID] = byProduct
	}
	byProduct[record.ProductID] = record
	return nil
}

func (s *Store) DeleteInventoryByProduct(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, byProduct := range s.inventory {
		delete(byProduct, productID)
	}
	return nil
}

func (s *Store) AppendMovement(_ context.Context, movement domain.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first, matching the read order ListMovements promises.
	s.movements = append([]domain.StockMovement{movement}, s.movements...)
	return nil
}

func (s *Store) ListMovements(_ context.Context, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.movements)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.StockMovement, n)
	copy(out, s.movements[:n])
	return out, nil
}

func (s *Store) AppendTransferRequest(_ context.Context, request domain.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transferRequests = append([]domain.TransferRequest{request}, s.transferRequests...)
	return nil
}

func (s *Store) ListTransferRequests(_ context.Context, limit int) ([]domain.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.transferRequests)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.TransferRequest, n)
	copy(out, s.transferRequests[:n])
	return out, nil
}

func (s *Store) CurrentBranch(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentBranch, nil
}

func (s *Store) SetCurrentBranch(_ context.Context, branchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentBranch = branchID
	return nil
}

func (s *Store) GetDrawer(_ context.Context) (domain.DrawerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDrawer(s.drawer), nil
}

func (s *Store) SaveDrawer(_ context.Context, snapshot domain.DrawerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawer = cloneDrawer(snapshot)
	return nil
}

func (s *Store) SaveReceipt(_ context.Context, receipt domain.Receipt) error {
	if receipt.ID == "" {
		return store.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.receiptsByID[receipt.ID]; !exists {
		s.receiptOrder = append(s.receiptOrder, receipt.ID)
	}
	s.receiptsByID[receipt.ID] = receipt
	return nil
}

func (s *Store) GetReceipt(_ context.Context, id string) (*domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipt, ok := s.receiptsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyReceipt := receipt
	return &copyReceipt, nil
}

func (s *Store) ListReceipts(_ context.Context, limit int) ([]domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Receipt, 0, len(s.receiptOrder))
	for i := len(s.receiptOrder) - 1; i >= 0; i-- {
		out = append(out, s.receiptsByID[s.receiptOrder[i]])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditLog, 0, len(s.auditLogs))
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		out = append(out, s.auditLogs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidRequest
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneProduct(p domain.Product) domain.Product {
	if p.Stock != nil {
		stock := *p.Stock
		p.Stock = &stock
	}
	if p.CreatedAt != nil {
		at := *p.CreatedAt
		p.CreatedAt = &at
	}
	if p.UpdatedAt != nil {
		at := *p.UpdatedAt
		p.UpdatedAt = &at
	}
	return p
}

func cloneDrawer(d domain.DrawerSnapshot) domain.DrawerSnapshot {
	out := domain.DrawerSnapshot{
		Movements: make([]domain.CashMovement, len(d.Movements)),
	}
	copy(out.Movements, d.Movements)
	if d.Shift != nil {
		shift := *d.Shift
		if shift.ClosedAt != nil {
			at := *shift.ClosedAt
			shift.ClosedAt = &at
		}
		if shift.CountedCash != nil {
			counted := *shift.CountedCash
			shift.CountedCash = &counted
		}
		out.Shift = &shift
	}
	return out
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
