package store

import (
	"context"
	"errors"

	"tillpoint/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrShiftNotOpen      = errors.New("shift not open")
)

// CatalogRepository holds the stored (user-created) product overrides. The
// built-in sample catalog never lives here; merging is the service's job.
type CatalogRepository interface {
	ListStoredProducts(ctx context.Context) ([]domain.Product, error)
	UpsertStoredProducts(ctx context.Context, products []domain.Product) error
	DeleteStoredProduct(ctx context.Context, id string) error
}

type InventoryRepository interface {
	ListInventory(ctx context.Context) ([]domain.BranchInventoryRecord, error)
	GetBranchStock(ctx context.Context, branchID string, productID string) (int, error)
	UpsertInventoryRecord(ctx context.Context, record domain.BranchInventoryRecord) error
	DeleteInventoryByProduct(ctx context.Context, productID string) error
	AppendMovement(ctx context.Context, movement domain.StockMovement) error
	ListMovements(ctx context.Context, limit int) ([]domain.StockMovement, error)
	AppendTransferRequest(ctx context.Context, request domain.TransferRequest) error
	ListTransferRequests(ctx context.Context, limit int) ([]domain.TransferRequest, error)
	CurrentBranch(ctx context.Context) (string, error)
	SetCurrentBranch(ctx context.Context, branchID string) error
}

// DrawerRepository is a single-slot store: one shift plus its cash movements.
// SaveDrawer replaces the whole snapshot.
type DrawerRepository interface {
	GetDrawer(ctx context.Context) (domain.DrawerSnapshot, error)
	SaveDrawer(ctx context.Context, snapshot domain.DrawerSnapshot) error
}

type ReceiptRepository interface {
	SaveReceipt(ctx context.Context, receipt domain.Receipt) error
	GetReceipt(ctx context.Context, id string) (*domain.Receipt, error)
	ListReceipts(ctx context.Context, limit int) ([]domain.Receipt, error)
}

type AuditRepository interface {
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

type Repository interface {
	CatalogRepository
	InventoryRepository
	DrawerRepository
	ReceiptRepository
	AuditRepository
	UserRepository
}
