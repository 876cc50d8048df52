package cache

import (
	"context"
	"time"

	"tillpoint/backend/internal/domain"
)

// AvailabilityCache holds per-product cross-branch stock snapshots. Entries
// are invalidated whenever inventory changes, so a miss is always safe.
type AvailabilityCache interface {
	Get(ctx context.Context, productID string) ([]domain.BranchAvailability, bool, error)
	Set(ctx context.Context, productID string, rows []domain.BranchAvailability, ttl time.Duration) error
	Invalidate(ctx context.Context, productID string) error
}

type NoopAvailabilityCache struct{}

func (NoopAvailabilityCache) Get(_ context.Context, _ string) ([]domain.BranchAvailability, bool, error) {
	return nil, false, nil
}

func (NoopAvailabilityCache) Set(_ context.Context, _ string, _ []domain.BranchAvailability, _ time.Duration) error {
	return nil
}

func (NoopAvailabilityCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
