package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

// ============================================
// Classifier Tests
// ============================================

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name             string
		stock            int
		threshold        int
		backorderEnabled bool
		expected         InventoryStatus
	}{
		{"zero stock no backorder", 0, 5, false, StatusOutOfStock},
		{"zero stock with backorder", 0, 5, true, StatusBackorder},
		{"below threshold", 3, 5, false, StatusLowStock},
		{"at threshold", 5, 5, false, StatusLowStock},
		{"above threshold", 10, 5, false, StatusInStock},
		{"positive stock ignores backorder flag", 3, 5, true, StatusLowStock},
		{"zero threshold in stock", 1, 0, false, StatusInStock},
		{"zero threshold out of stock", 0, 0, false, StatusOutOfStock},
		{"negative stock treated as empty", -2, 5, false, StatusOutOfStock},
		{"negative stock with backorder", -2, 5, true, StatusBackorder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyStock(tt.stock, tt.threshold, tt.backorderEnabled)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClampStock(t *testing.T) {
	tests := []struct {
		name              string
		current           int
		delta             int
		expectedStock     int
		expectedShortfall int
	}{
		{"increment", 10, 5, 15, 0},
		{"decrement within stock", 10, -4, 6, 0},
		{"decrement to zero", 3, -3, 0, 0},
		{"decrement past zero clamps", 1, -3, 0, 2},
		{"decrement from zero clamps fully", 0, -5, 0, 5},
		{"zero delta", 7, 0, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newStock, shortfall := ClampStock(tt.current, tt.delta)
			assert.Equal(t, tt.expectedStock, newStock)
			assert.Equal(t, tt.expectedShortfall, shortfall)
		})
	}
}

func TestChangeReason_Valid(t *testing.T) {
	for _, r := range []ChangeReason{ReasonSale, ReasonReturn, ReasonAdjustment, ReasonRestock, ReasonDamaged, ReasonInitial, ReasonSync} {
		assert.True(t, r.Valid(), string(r))
	}
	assert.False(t, ChangeReason("PROMOTION").Valid())
	assert.False(t, ChangeReason("").Valid())
}

// ============================================
// Variant Fallback Tests
// ============================================

func TestProduct_TrackingFor(t *testing.T) {
	product := &Product{TrackInventory: false}

	t.Run("product scope", func(t *testing.T) {
		assert.False(t, product.TrackingFor(nil))
	})

	t.Run("variant inherits unset tracking", func(t *testing.T) {
		v := &Variant{ID: "var-1"}
		assert.False(t, product.TrackingFor(v))
	})

	t.Run("variant overrides tracking", func(t *testing.T) {
		v := &Variant{ID: "var-1", TrackInventory: boolPtr(true)}
		assert.True(t, product.TrackingFor(v))
	})
}

func TestProduct_ThresholdFor(t *testing.T) {
	product := &Product{LowStockThreshold: 5}

	assert.Equal(t, 5, product.ThresholdFor(nil))
	assert.Equal(t, 5, product.ThresholdFor(&Variant{}))
	assert.Equal(t, 2, product.ThresholdFor(&Variant{LowStockThreshold: intPtr(2)}))
}

func TestProduct_BackorderFor(t *testing.T) {
	t.Run("variant inherits product policy", func(t *testing.T) {
		product := &Product{BackorderEnabled: true, BackorderLimit: intPtr(10)}

		enabled, limit := product.BackorderFor(&Variant{})
		assert.True(t, enabled)
		require.NotNil(t, limit)
		assert.Equal(t, 10, *limit)
	})

	t.Run("variant overrides enabled only", func(t *testing.T) {
		product := &Product{BackorderEnabled: false, BackorderLimit: intPtr(10)}

		enabled, limit := product.BackorderFor(&Variant{BackorderEnabled: boolPtr(true)})
		assert.True(t, enabled)
		require.NotNil(t, limit)
		assert.Equal(t, 10, *limit)
	})

	t.Run("nil limits everywhere means unbounded", func(t *testing.T) {
		product := &Product{BackorderEnabled: true}

		enabled, limit := product.BackorderFor(&Variant{})
		assert.True(t, enabled)
		assert.Nil(t, limit)
	})
}

func TestProduct_StatusFor(t *testing.T) {
	product := &Product{
		Stock:             0,
		LowStockThreshold: 5,
		BackorderEnabled:  true,
		Variants: VariantList{
			{ID: "var-1", Stock: 3},
			{ID: "var-2", Stock: 0, BackorderEnabled: boolPtr(false)},
		},
	}

	assert.Equal(t, StatusBackorder, product.StatusFor(nil))
	assert.Equal(t, StatusLowStock, product.StatusFor(product.FindVariant("var-1")))
	assert.Equal(t, StatusOutOfStock, product.StatusFor(product.FindVariant("var-2")))
}

func TestProduct_FindVariant(t *testing.T) {
	product := &Product{
		Variants: VariantList{{ID: "var-1", Stock: 4}, {ID: "var-2", Stock: 9}},
	}

	require.Nil(t, product.FindVariant("missing"))

	v := product.FindVariant("var-2")
	require.NotNil(t, v)
	assert.Equal(t, 9, v.Stock)

	// Mutations through the pointer land in the list itself.
	v.Stock = 1
	assert.Equal(t, 1, product.Variants[1].Stock)
}

// ============================================
// VariantList jsonb Tests
// ============================================

func TestVariantList_Value(t *testing.T) {
	t.Run("nil list stored as empty array", func(t *testing.T) {
		var vl VariantList
		val, err := vl.Value()
		require.NoError(t, err)
		assert.Equal(t, []byte("[]"), val)
	})

	t.Run("entries serialized with overrides only when set", func(t *testing.T) {
		vl := VariantList{{ID: "var-1", SKU: "SKU-1", Stock: 3, InventoryStatus: StatusLowStock}}
		val, err := vl.Value()
		require.NoError(t, err)

		data, ok := val.([]byte)
		require.True(t, ok)
		assert.Contains(t, string(data), `"id":"var-1"`)
		assert.NotContains(t, string(data), "track_inventory")
	})
}

func TestVariantList_Scan(t *testing.T) {
	raw := `[{"id":"var-1","sku":"SKU-1","stock":7,"low_stock_threshold":2,"inventory_status":"IN_STOCK"}]`

	t.Run("from bytes", func(t *testing.T) {
		var vl VariantList
		require.NoError(t, vl.Scan([]byte(raw)))
		require.Len(t, vl, 1)
		assert.Equal(t, "var-1", vl[0].ID)
		assert.Equal(t, 7, vl[0].Stock)
		require.NotNil(t, vl[0].LowStockThreshold)
		assert.Equal(t, 2, *vl[0].LowStockThreshold)
		assert.Nil(t, vl[0].TrackInventory)
	})

	t.Run("from string", func(t *testing.T) {
		var vl VariantList
		require.NoError(t, vl.Scan(raw))
		require.Len(t, vl, 1)
	})

	t.Run("from nil", func(t *testing.T) {
		vl := VariantList{{ID: "stale"}}
		require.NoError(t, vl.Scan(nil))
		assert.Nil(t, vl)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var vl VariantList
		assert.Error(t, vl.Scan(42))
	})
}
