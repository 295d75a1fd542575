package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Product struct {
	BaseModel
	SKU               string          `db:"sku" json:"sku"`
	Name              string          `db:"name" json:"name"`
	TrackInventory    bool            `db:"track_inventory" json:"track_inventory"`
	Stock             int             `db:"stock" json:"stock"`
	LowStockThreshold int             `db:"low_stock_threshold" json:"low_stock_threshold"`
	BackorderEnabled  bool            `db:"backorder_enabled" json:"backorder_enabled"`
	BackorderLimit    *int            `db:"backorder_limit" json:"backorder_limit"` // Nullable, nil = unbounded
	InventoryStatus   InventoryStatus `db:"inventory_status" json:"inventory_status"`
	Variants          VariantList     `db:"variants" json:"variants"` // jsonb column, whole list per row
	Version           int             `db:"version" json:"-"`
}

// Variant lives inside the product's jsonb column, never in its own table.
// The pointer fields override the product's settings when set and inherit
// them when nil.
type Variant struct {
	ID                string          `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Stock             int             `json:"stock"`
	TrackInventory    *bool           `json:"track_inventory,omitempty"`
	LowStockThreshold *int            `json:"low_stock_threshold,omitempty"`
	BackorderEnabled  *bool           `json:"backorder_enabled,omitempty"`
	BackorderLimit    *int            `json:"backorder_limit,omitempty"`
	InventoryStatus   InventoryStatus `json:"inventory_status"`
}

// FindVariant returns a pointer into the product's variant list so callers
// can mutate the entry in place before the row is written back. Nil when the
// variant does not exist.
func (p *Product) FindVariant(variantID string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// TrackingFor resolves track_inventory for a variant, falling back to the
// product when the variant does not set it. A nil variant means the product
// itself.
func (p *Product) TrackingFor(v *Variant) bool {
	if v != nil && v.TrackInventory != nil {
		return *v.TrackInventory
	}
	return p.TrackInventory
}

func (p *Product) ThresholdFor(v *Variant) int {
	if v != nil && v.LowStockThreshold != nil {
		return *v.LowStockThreshold
	}
	return p.LowStockThreshold
}

// BackorderFor resolves the backorder policy for a variant. Each field falls
// back independently; a nil limit means unbounded.
func (p *Product) BackorderFor(v *Variant) (enabled bool, limit *int) {
	enabled = p.BackorderEnabled
	limit = p.BackorderLimit
	if v != nil {
		if v.BackorderEnabled != nil {
			enabled = *v.BackorderEnabled
		}
		if v.BackorderLimit != nil {
			limit = v.BackorderLimit
		}
	}
	return enabled, limit
}

// StatusFor classifies the current stock of the product (nil variant) or of
// one of its variants, using the effective settings for that scope.
func (p *Product) StatusFor(v *Variant) InventoryStatus {
	enabled, _ := p.BackorderFor(v)
	if v != nil {
		return ClassifyStock(v.Stock, p.ThresholdFor(v), enabled)
	}
	return ClassifyStock(p.Stock, p.LowStockThreshold, enabled)
}

type VariantList []Variant

// Value stores the list as a single jsonb document on the product row.
func (vl VariantList) Value() (driver.Value, error) {
	if len(vl) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(vl)
}

func (vl *VariantList) Scan(src interface{}) error {
	switch data := src.(type) {
	case nil:
		*vl = nil
		return nil
	case []byte:
		return json.Unmarshal(data, vl)
	case string:
		return json.Unmarshal([]byte(data), vl)
	default:
		return fmt.Errorf("unsupported variants column type %T", src)
	}
}
