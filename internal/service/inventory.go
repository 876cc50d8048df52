package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/eventbus"
	"tillpoint/backend/internal/store"
	"tillpoint/backend/internal/xid"
)

// hashString reproduces the 32-bit accumulator hash the seed data was
// generated with: h = h*31 + charCode, wrapping at int32, absolute value.
// Changing it would re-seed every deployment with different quantities.
func hashString(value string) int {
	var h int32
	for i := 0; i < len(value); i++ {
		h = h*31 + int32(value[i])
	}
	if h < 0 {
		h = -h
	}
	return int(h)
}

// seedStock derives a deterministic per-branch starting quantity from the
// product's base stock: a variance in [-2, 3] from the product ID hash plus
// the branch index as a fixed offset, floored at zero.
func seedStock(productID string, baseStock int, branchIndex int) int {
	variance := (hashString(productID) + branchIndex*7) % 6
	delta := variance - 2
	seeded := baseStock + delta + branchIndex
	if seeded < 0 {
		return 0
	}
	return seeded
}

// EnsureSeededInventory populates one inventory record per branch and product
// when no records exist yet. Repeated calls are no-ops once seeded.
func (s *Service) EnsureSeededInventory(ctx context.Context) error {
	records, err := s.repo.ListInventory(ctx)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		return nil
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for idx, branch := range domain.Branches() {
		for _, product := range products {
			base := 0
			if product.Stock != nil {
				base = *product.Stock
			}
			record := domain.BranchInventoryRecord{
				BranchID:  branch.ID,
				ProductID: product.ID,
				Stock:     seedStock(product.ID, base, idx),
				UpdatedAt: now,
			}
			if err := s.repo.UpsertInventoryRecord(ctx, record); err != nil {
				return fmt.Errorf("seed inventory %s/%s: %w", branch.ID, product.ID, err)
			}
		}
	}

	log.Printf("[service] seeded inventory for %d branches x %d products", len(domain.Branches()), len(products))
	return nil
}

func (s *Service) ListInventory(ctx context.Context) ([]domain.BranchInventoryRecord, error) {
	return s.repo.ListInventory(ctx)
}

// GetBranchStock returns the stock on hand; a missing record means zero, not
// an error.
func (s *Service) GetBranchStock(ctx context.Context, branchID string, productID string) (domain.StockResponse, error) {
	branchID = strings.TrimSpace(branchID)
	productID = strings.TrimSpace(productID)
	if branchID == "" || productID == "" {
		return domain.StockResponse{}, store.ErrInvalidRequest
	}

	stock, err := s.repo.GetBranchStock(ctx, branchID, productID)
	if err != nil {
		return domain.StockResponse{}, err
	}
	return domain.StockResponse{BranchID: branchID, ProductID: productID, Stock: stock}, nil
}

// SetBranchStock sets the stock to an exact value. The delta against the
// pre-update value is captured as a single adjustment movement; setting the
// same value appends nothing.
func (s *Service) SetBranchStock(ctx context.Context, req domain.StockSetRequest) (domain.StockResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.StockResponse{}, fmt.Errorf("admin role required")
	}

	req.BranchID = strings.TrimSpace(req.BranchID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || !domain.IsValidBranchID(req.BranchID) {
		return domain.StockResponse{}, store.ErrInvalidRequest
	}
	if req.Stock < 0 {
		return domain.StockResponse{}, errValidation("stock must be zero or greater")
	}

	resp, err := s.setBranchStock(ctx, req.BranchID, req.ProductID, req.Stock, req.Reason)
	if err != nil {
		return domain.StockResponse{}, err
	}

	s.logAudit(ctx, "stock_set", "inventory", req.BranchID+"/"+req.ProductID, fmt.Sprintf("stock=%d,reason=%s", req.Stock, req.Reason))
	return resp, nil
}

// setBranchStock is the shared write path for exact-value updates. The
// previous value must be read before the record is replaced; the movement
// quantity is the signed delta against it.
func (s *Service) setBranchStock(ctx context.Context, branchID string, productID string, stock int, reason string) (domain.StockResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Stock set"
	}

	previous, err := s.repo.GetBranchStock(ctx, branchID, productID)
	if err != nil {
		return domain.StockResponse{}, err
	}

	now := time.Now().UTC()
	if err := s.repo.UpsertInventoryRecord(ctx, domain.BranchInventoryRecord{
		BranchID:  branchID,
		ProductID: productID,
		Stock:     stock,
		UpdatedAt: now,
	}); err != nil {
		return domain.StockResponse{}, err
	}

	if delta := stock - previous; delta != 0 {
		if err := s.repo.AppendMovement(ctx, domain.StockMovement{
			ID:        xid.New("mv"),
			BranchID:  branchID,
			ProductID: productID,
			Type:      domain.MovementAdjustment,
			Quantity:  delta,
			Reason:    reason,
			CreatedAt: now,
		}); err != nil {
			return domain.StockResponse{}, err
		}
	}

	s.bus.Publish(eventbus.Event{
		Topic:     eventbus.TopicInventoryUpdated,
		BranchID:  branchID,
		ProductID: productID,
	})

	return domain.StockResponse{BranchID: branchID, ProductID: productID, Stock: stock}, nil
}

// AdjustBranchStock applies a signed delta, flooring the result at zero.
// Over-subtracting silently clamps rather than failing.
func (s *Service) AdjustBranchStock(ctx context.Context, req domain.StockAdjustRequest) (domain.StockResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.StockResponse{}, fmt.Errorf("admin role required")
	}

	req.BranchID = strings.TrimSpace(req.BranchID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || !domain.IsValidBranchID(req.BranchID) {
		return domain.StockResponse{}, store.ErrInvalidRequest
	}

	current, err := s.repo.GetBranchStock(ctx, req.BranchID, req.ProductID)
	if err != nil {
		return domain.StockResponse{}, err
	}
	next := current + req.Delta
	if next < 0 {
		next = 0
	}

	resp, err := s.setBranchStock(ctx, req.BranchID, req.ProductID, next, req.Reason)
	if err != nil {
		return domain.StockResponse{}, err
	}

	s.logAudit(ctx, "stock_adjust", "inventory", req.BranchID+"/"+req.ProductID, fmt.Sprintf("delta=%d,stock=%d,reason=%s", req.Delta, next, req.Reason))
	return resp, nil
}

// CreateTransferRequest records an advisory request to move stock between
// branches. It validates quantity and source availability but never moves
// stock; fulfillment is a separate workflow that does not exist yet.
func (s *Service) CreateTransferRequest(ctx context.Context, req domain.TransferRequestCreate) (*domain.TransferRequest, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || !domain.IsValidBranchID(req.FromBranchID) || !domain.IsValidBranchID(req.ToBranchID) {
		return nil, store.ErrInvalidRequest
	}
	if req.Quantity <= 0 {
		return nil, errValidation("Quantity must be greater than zero.")
	}

	available, err := s.repo.GetBranchStock(ctx, req.FromBranchID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if available < req.Quantity {
		return nil, errValidation("Not enough stock at the source branch.")
	}

	now := time.Now().UTC()
	request := domain.TransferRequest{
		ID:           xid.New("req"),
		ProductID:    req.ProductID,
		FromBranchID: req.FromBranchID,
		ToBranchID:   req.ToBranchID,
		Quantity:     req.Quantity,
		Status:       domain.TransferStatusPending,
		Note:         strings.TrimSpace(req.Note),
		CreatedAt:    now,
	}
	if err := s.repo.AppendTransferRequest(ctx, request); err != nil {
		return nil, err
	}

	reason := request.Note
	if reason == "" {
		reason = "Transfer requested"
	}
	// The movement is attributed to the destination branch: it is the branch
	// asking for stock, even though nothing has moved yet.
	if err := s.repo.AppendMovement(ctx, domain.StockMovement{
		ID:           xid.New("mv"),
		BranchID:     req.ToBranchID,
		ProductID:    req.ProductID,
		Type:         domain.MovementTransferRequest,
		Quantity:     req.Quantity,
		Reason:       reason,
		FromBranchID: req.FromBranchID,
		ToBranchID:   req.ToBranchID,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}

	s.bus.Publish(eventbus.Event{
		Topic:     eventbus.TopicInventoryUpdated,
		BranchID:  req.ToBranchID,
		ProductID: req.ProductID,
	})

	s.logAudit(ctx, "transfer_request", "transfer", request.ID, fmt.Sprintf("product=%s,from=%s,to=%s,qty=%d", req.ProductID, req.FromBranchID, req.ToBranchID, req.Quantity))
	return &request, nil
}

// GetBranchAvailability reports the stock for every branch for one product,
// served from the availability cache when warm.
func (s *Service) GetBranchAvailability(ctx context.Context, productID string) ([]domain.BranchAvailability, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, store.ErrInvalidRequest
	}

	if rows, hit, err := s.cache.Get(ctx, productID); err == nil && hit {
		return rows, nil
	} else if err != nil {
		log.Printf("[service] WARN: availability cache read failed product=%s: %v", productID, err)
	}

	rows := make([]domain.BranchAvailability, 0, len(domain.Branches()))
	for _, branch := range domain.Branches() {
		stock, err := s.repo.GetBranchStock(ctx, branch.ID, productID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, domain.BranchAvailability{Branch: branch, Stock: stock})
	}

	if err := s.cache.Set(ctx, productID, rows, s.availabilityTTL); err != nil {
		log.Printf("[service] WARN: availability cache write failed product=%s: %v", productID, err)
	}
	return rows, nil
}

// EnsureInventoryForProduct creates any missing inventory records for the
// product: initialStock at the named branch, zero everywhere else. Existing
// records are left untouched.
func (s *Service) EnsureInventoryForProduct(ctx context.Context, productID string, initialStock int, branchID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" || !domain.IsValidBranchID(branchID) {
		return store.ErrInvalidRequest
	}
	if initialStock < 0 {
		initialStock = 0
	}

	records, err := s.repo.ListInventory(ctx)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(records))
	for _, record := range records {
		existing[record.BranchID+"|"+record.ProductID] = true
	}

	now := time.Now().UTC()
	created := false
	for _, branch := range domain.Branches() {
		if existing[branch.ID+"|"+productID] {
			continue
		}
		stock := 0
		if branch.ID == branchID {
			stock = initialStock
		}
		if err := s.repo.UpsertInventoryRecord(ctx, domain.BranchInventoryRecord{
			BranchID:  branch.ID,
			ProductID: productID,
			Stock:     stock,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		created = true
	}

	if created {
		s.bus.Publish(eventbus.Event{
			Topic:     eventbus.TopicInventoryUpdated,
			ProductID: productID,
		})
	}
	return nil
}

func (s *Service) RemoveInventoryForProduct(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return store.ErrInvalidRequest
	}
	if err := s.repo.DeleteInventoryByProduct(ctx, productID); err != nil {
		return err
	}
	s.bus.Publish(eventbus.Event{
		Topic:     eventbus.TopicInventoryUpdated,
		ProductID: productID,
	})
	return nil
}

func (s *Service) ListMovements(ctx context.Context, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListMovements(ctx, limit)
}

func (s *Service) ListTransferRequests(ctx context.Context, limit int) ([]domain.TransferRequest, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListTransferRequests(ctx, limit)
}

// CurrentBranch returns the persisted branch selector, falling back to the
// first branch and persisting the fallback when unset or stale.
func (s *Service) CurrentBranch(ctx context.Context) (domain.Branch, error) {
	id, err := s.repo.CurrentBranch(ctx)
	if err != nil {
		return domain.Branch{}, err
	}
	if id == "" || !domain.IsValidBranchID(id) {
		fallback := domain.DefaultBranchID()
		if err := s.repo.SetCurrentBranch(ctx, fallback); err != nil {
			return domain.Branch{}, err
		}
		return domain.BranchByID(fallback), nil
	}
	return domain.BranchByID(id), nil
}

func (s *Service) SetCurrentBranch(ctx context.Context, branchID string) (domain.Branch, error) {
	if !domain.IsValidBranchID(branchID) {
		return domain.Branch{}, store.ErrInvalidRequest
	}
	if err := s.repo.SetCurrentBranch(ctx, branchID); err != nil {
		return domain.Branch{}, err
	}
	return domain.BranchByID(branchID), nil
}

// WatchInventoryEvents drops availability cache entries as inventory change
// events arrive. It blocks until ctx is done; run it on its own goroutine.
func (s *Service) WatchInventoryEvents(ctx context.Context) {
	events, cancel := s.bus.Subscribe(eventbus.TopicInventoryUpdated, 32)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			if event.ProductID == "" {
				continue
			}
			if err := s.cache.Invalidate(ctx, event.ProductID); err != nil {
				log.Printf("[service] WARN: availability cache invalidate failed product=%s: %v", event.ProductID, err)
			}
		}
	}
}
