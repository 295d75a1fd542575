package dto

import "github.com/shoplane/inventory-service/internal/model"

// Scope addresses a stock record: the product itself, or one of its
// embedded variants when VariantID is set.
type Scope struct {
	ProductID string
	VariantID *string
}

type MutateStockInput struct {
	Scope
	Delta   int                // requested change, negative deducts
	Reason  model.ChangeReason // empty defaults to ADJUSTMENT
	OrderID string
	UserID  string
	Notes   string
}

type SetStockLevelInput struct {
	Scope
	NewStock int
	Reason   model.ChangeReason // empty defaults to ADJUSTMENT
	UserID   string
	Notes    string
}

type OrderItemInput struct {
	ProductID string
	VariantID *string
	Quantity  int
}

type OrderInventoryInput struct {
	OrderID string
	UserID  string
	Items   []OrderItemInput
	Reason  model.ChangeReason // restore only; empty defaults to RETURN
}

type CreateProductInput struct {
	SKU               string
	Name              string
	TrackInventory    *bool // nil defaults to true
	Stock             int
	LowStockThreshold *int // nil takes the configured default
	BackorderEnabled  bool
	BackorderLimit    *int
	Variants          []VariantInput
}

type VariantInput struct {
	SKU               string
	Name              string
	Stock             int
	TrackInventory    *bool
	LowStockThreshold *int
	BackorderEnabled  *bool
	BackorderLimit    *int
}
