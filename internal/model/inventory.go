package model

import "time"

// InventoryStatus is the cached classification of a stock record. It is
// recomputed by the reconciler after every stock write; reads never derive it
// on the fly.
type InventoryStatus string

const (
	StatusInStock      InventoryStatus = "IN_STOCK"
	StatusLowStock     InventoryStatus = "LOW_STOCK"
	StatusOutOfStock   InventoryStatus = "OUT_OF_STOCK"
	StatusBackorder    InventoryStatus = "BACKORDER"
	StatusDiscontinued InventoryStatus = "DISCONTINUED"
)

// ChangeReason tags a history entry with why stock moved.
type ChangeReason string

const (
	ReasonSale       ChangeReason = "SALE"
	ReasonReturn     ChangeReason = "RETURN"
	ReasonAdjustment ChangeReason = "ADJUSTMENT"
	ReasonRestock    ChangeReason = "RESTOCK"
	ReasonDamaged    ChangeReason = "DAMAGED"
	ReasonInitial    ChangeReason = "INITIAL"
	ReasonSync       ChangeReason = "SYNC"
)

func (r ChangeReason) Valid() bool {
	switch r {
	case ReasonSale, ReasonReturn, ReasonAdjustment, ReasonRestock,
		ReasonDamaged, ReasonInitial, ReasonSync:
		return true
	}
	return false
}

// ClassifyStock derives an inventory status from a stock level and the
// effective low-stock threshold and backorder flag. DISCONTINUED is never
// produced here; it only exists as a stored value until the next reconcile.
func ClassifyStock(stock, threshold int, backorderEnabled bool) InventoryStatus {
	switch {
	case stock <= 0 && backorderEnabled:
		return StatusBackorder
	case stock <= 0:
		return StatusOutOfStock
	case stock <= threshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// ClampStock applies delta to current and floors the result at zero.
// Shortfall is the part of a negative delta that could not be applied.
func ClampStock(current, delta int) (newStock, shortfall int) {
	newStock = current + delta
	if newStock < 0 {
		shortfall = -newStock
		newStock = 0
	}
	return newStock, shortfall
}

// InventoryHistoryEntry is one row of the append-only stock audit log.
// Entries are written in the same transaction as the stock change they
// describe and are never updated afterwards. Change records the requested
// delta, which can differ from NewStock-PreviousStock when clamping kicked in.
type InventoryHistoryEntry struct {
	ID            string       `db:"id" json:"id"`
	ProductID     string       `db:"product_id" json:"product_id"`
	VariantID     *string      `db:"variant_id" json:"variant_id"`
	PreviousStock int          `db:"previous_stock" json:"previous_stock"`
	NewStock      int          `db:"new_stock" json:"new_stock"`
	Change        int          `db:"quantity_change" json:"change"`
	Reason        ChangeReason `db:"reason" json:"reason"`
	OrderID       *string      `db:"order_id" json:"order_id"`
	UserID        *string      `db:"user_id" json:"user_id"`
	Notes         string       `db:"notes" json:"notes"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}
