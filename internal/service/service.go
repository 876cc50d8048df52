package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"tillpoint/backend/internal/cache"
	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/eventbus"
	"tillpoint/backend/internal/store"
	"tillpoint/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// ValidationError carries a user-facing message for a blocked action. The API
// layer returns these verbatim with a 4xx status; everything else is treated
// as an internal failure.
type ValidationError struct {
	msg string
}

func (e ValidationError) Error() string {
	return e.msg
}

func errValidation(format string, args ...any) error {
	return ValidationError{msg: fmt.Sprintf(format, args...)}
}

type Service struct {
	repo            store.Repository
	cache           cache.AvailabilityCache
	bus             *eventbus.Bus
	availabilityTTL time.Duration
}

func New(repo store.Repository, availability cache.AvailabilityCache, bus *eventbus.Bus, availabilityTTL time.Duration) *Service {
	if availability == nil {
		availability = cache.NoopAvailabilityCache{}
	}
	if bus == nil {
		bus = eventbus.New()
	}
	if availabilityTTL <= 0 {
		availabilityTTL = 30 * time.Second
	}

	return &Service{
		repo:            repo,
		cache:           availability,
		bus:             bus,
		availabilityTTL: availabilityTTL,
	}
}

func (s *Service) Bus() *eventbus.Bus {
	return s.bus
}

// ListProducts merges the built-in sample catalog with stored products.
// Stored entries override sample entries with the same identity key and keep
// the sample's position; the remainder is appended in insertion order.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	stored, err := s.repo.ListStoredProducts(ctx)
	if err != nil {
		return nil, err
	}

	storedByKey := make(map[string]domain.Product, len(stored))
	for _, p := range stored {
		storedByKey[p.IdentityKey()] = p
	}

	merged := make([]domain.Product, 0, len(stored)+4)
	for _, p := range domain.SampleCatalog() {
		if override, ok := storedByKey[p.IdentityKey()]; ok {
			merged = append(merged, override)
			delete(storedByKey, p.IdentityKey())
			continue
		}
		merged = append(merged, p)
	}
	for _, p := range stored {
		if _, pending := storedByKey[p.IdentityKey()]; !pending {
			continue
		}
		merged = append(merged, p)
		delete(storedByKey, p.IdentityKey())
	}

	return merged, nil
}

// UpsertProducts merges the incoming batch into the stored catalog, incoming
// entries winning per identity key. Products that carry a stock figure get
// inventory records ensured at the current branch.
func (s *Service) UpsertProducts(ctx context.Context, req domain.ProductUpsertRequest) ([]domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	if len(req.Products) == 0 {
		return nil, errValidation("no products to upsert")
	}

	now := time.Now().UTC()
	incoming := make([]domain.Product, 0, len(req.Products))
	for _, p := range req.Products {
		p.Name = strings.TrimSpace(p.Name)
		p.SKU = strings.TrimSpace(p.SKU)
		p.Barcode = strings.TrimSpace(p.Barcode)
		if p.ID == "" {
			p.ID = xid.New("prod")
		}
		if p.IdentityKey() == "" {
			return nil, errValidation("product %q has no sku, barcode or id", p.Name)
		}
		if p.Name == "" {
			return nil, errValidation("product %s has no name", p.IdentityKey())
		}
		stamp := now
		p.UpdatedAt = &stamp
		if p.CreatedAt == nil {
			p.CreatedAt = &stamp
		}
		incoming = append(incoming, p)
	}

	if err := s.repo.UpsertStoredProducts(ctx, incoming); err != nil {
		return nil, err
	}

	currentBranch, err := s.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range incoming {
		if p.Stock == nil {
			continue
		}
		if err := s.EnsureInventoryForProduct(ctx, p.ID, *p.Stock, currentBranch.ID); err != nil {
			log.Printf("[service] WARN: failed to ensure inventory for product %s: %v", p.ID, err)
		}
	}

	s.logAudit(ctx, "products_upsert", "product", fmt.Sprintf("%d", len(incoming)), summarizeProducts(incoming))
	return s.ListProducts(ctx)
}

// FindProductByBarcode scans the merged catalog for an exact barcode match.
func (s *Service) FindProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, store.ErrInvalidRequest
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.Barcode == barcode {
			found := p
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

// RemoveProduct deletes a stored product by ID and drops its inventory
// records. Sample catalog items are not stored, so they cannot be removed,
// only shadowed by an override.
func (s *Service) RemoveProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidRequest
	}

	if err := s.repo.DeleteStoredProduct(ctx, id); err != nil {
		return err
	}
	if err := s.RemoveInventoryForProduct(ctx, id); err != nil {
		log.Printf("[service] WARN: failed to remove inventory for product %s: %v", id, err)
	}

	s.logAudit(ctx, "product_remove", "product", id, "")
	return nil
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func summarizeProducts(products []domain.Product) string {
	keys := make([]string, 0, len(products))
	for _, p := range products {
		keys = append(keys, p.IdentityKey())
		if len(keys) == 10 {
			keys = append(keys, "...")
			break
		}
	}
	return strings.Join(keys, ",")
}
