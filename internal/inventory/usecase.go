package inventory

import (
	"context"

	"github.com/shoplane/inventory-service/internal/inventory/dto"
	"github.com/shoplane/inventory-service/internal/model"
)

type UseCase interface {
	// Products
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)

	// Stock mutation
	MutateStock(ctx context.Context, input *dto.MutateStockInput) (*dto.StockMutation, error)
	SetStockLevel(ctx context.Context, input *dto.SetStockLevelInput) (*dto.StockMutation, error)

	// Pre-order forecast, read only
	ValidateOrderItems(ctx context.Context, items []dto.OrderItemInput) (*dto.ValidationResult, error)

	// Order lifecycle; per-item failures are collected, never returned as errors
	ProcessOrderInventory(ctx context.Context, input *dto.OrderInventoryInput) *dto.OrderInventoryResult
	RestoreOrderInventory(ctx context.Context, input *dto.OrderInventoryInput) *dto.OrderInventoryResult

	// Cached status upkeep
	Reconcile(ctx context.Context, scope dto.Scope) (*model.Product, error)

	// Audit / dashboards
	GetInventoryHistory(ctx context.Context, f *dto.HistoryFilters) ([]model.InventoryHistoryEntry, error)
	GetLowStockProducts(ctx context.Context, limit int) ([]model.Product, error)
	GetOutOfStockProducts(ctx context.Context, limit int) ([]model.Product, error)
	GetProductsNeedingRestock(ctx context.Context, limit int) ([]model.Product, error)
}
