package dto

import "github.com/shoplane/inventory-service/internal/model"

type HistoryFilters struct {
	ProductID string
	VariantID *string // nil matches all rows, "" matches product-level rows only
	Reason    model.ChangeReason
	Limit     int
}

// StockMutation is what a committed (or skipped) stock change looks like to
// callers. Entry is nil and Skipped true when tracking resolved false and
// nothing was written. Shortfall is the part of a deduction the clamp ate.
type StockMutation struct {
	Product   *model.Product               `json:"product"`
	Entry     *model.InventoryHistoryEntry `json:"entry,omitempty"`
	Shortfall int                          `json:"shortfall"`
	Skipped   bool                         `json:"skipped"`
}

type ValidationResult struct {
	Valid            bool              `json:"valid"`
	InvalidItems     []InvalidItem     `json:"invalid_items,omitempty"`
	BackorderedItems []BackorderedItem `json:"backordered_items,omitempty"`
}

type InvalidItem struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Requested int     `json:"requested"`
	Available int     `json:"available"`
	Reason    string  `json:"reason"`
}

type BackorderedItem struct {
	ProductID   string  `json:"product_id"`
	VariantID   *string `json:"variant_id,omitempty"`
	Available   int     `json:"available"`
	Backordered int     `json:"backordered"`
}

// OrderInventoryResult aggregates per-item outcomes of an order-driven stock
// pass. Failures never abort the pass; completed items stay applied.
type OrderInventoryResult struct {
	OrderID      string        `json:"order_id"`
	AllSucceeded bool          `json:"all_succeeded"`
	Failed       []ItemFailure `json:"failed,omitempty"`
}

type ItemFailure struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	Error     string  `json:"error"`
}
