package inventory

import (
	"context"
	"time"

	"github.com/shoplane/inventory-service/internal/inventory/dto"
	"github.com/shoplane/inventory-service/internal/model"
)

// MutateFunc transforms a freshly read product in place and returns the
// history entries to append alongside the write. Returning ErrUnchanged
// commits nothing; any other error aborts the transaction. The function may
// run more than once when the optimistic write loses a race, so it must not
// carry side effects of its own.
type MutateFunc func(p *model.Product) ([]model.InventoryHistoryEntry, error)

type Repository interface {
	// Products
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	BatchGetProducts(ctx context.Context, productIDs []string) ([]model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product, entries []model.InventoryHistoryEntry) error

	// Atomic stock mutation: product write and history append commit together
	// or not at all. Conflicts are retried internally a bounded number of
	// times before ErrTxConflict surfaces.
	MutateProduct(ctx context.Context, productID string, fn MutateFunc) (*model.Product, error)

	// Audit log
	ListHistory(ctx context.Context, f *dto.HistoryFilters) ([]model.InventoryHistoryEntry, error)

	// Status queries against the cached inventory_status column
	FindByStatus(ctx context.Context, statuses []model.InventoryStatus, limit int) ([]model.Product, error)
}

// Locker serializes writers of one stock scope across processes. It sits in
// front of the store's version checks to cut down conflict retries; losing a
// lock never loses an update.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}
