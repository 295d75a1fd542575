package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shoplane/inventory-service/internal/inventory"
	"github.com/shoplane/inventory-service/internal/inventory/dto"
	"github.com/shoplane/inventory-service/internal/model"
)

const defaultTxAttempts = 3

type PGRepository struct {
	DB         *sqlx.DB
	txAttempts int
}

func NewPGRepository(db *sqlx.DB, txAttempts int) *PGRepository {
	if txAttempts < 1 {
		txAttempts = defaultTxAttempts
	}
	return &PGRepository{DB: db, txAttempts: txAttempts}
}

func (r *PGRepository) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Missing is not an error here; callers decide
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) BatchGetProducts(ctx context.Context, productIDs []string) ([]model.Product, error) {
	if len(productIDs) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM products WHERE id IN (?)`, productIDs)
	if err != nil {
		return nil, err
	}

	// Rebind for Postgres ($1, $2...)
	query = r.DB.Rebind(query)

	var items []model.Product
	err = r.DB.SelectContext(ctx, &items, query, args...)
	return items, err
}

// CreateProduct inserts the product row together with its initial history
// entries, so seeded stock is ledgered from the very first write.
func (r *PGRepository) CreateProduct(ctx context.Context, p *model.Product, entries []model.InventoryHistoryEntry) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO products (
            id, sku, name, track_inventory, stock, low_stock_threshold,
            backorder_enabled, backorder_limit, inventory_status, variants,
            version, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :track_inventory, :stock, :low_stock_threshold,
            :backorder_enabled, :backorder_limit, :inventory_status, :variants,
            :version, :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	if err := insertHistory(ctx, tx, entries); err != nil {
		return err
	}

	return tx.Commit()
}

// MutateProduct runs the read-transform-write cycle for a single product row.
// fn gets the row as read; the write back is guarded by that row's version,
// so a concurrent writer makes the UPDATE match zero rows and the whole cycle
// re-runs with a fresh read. History entries returned by fn land in the same
// transaction as the product write.
func (r *PGRepository) MutateProduct(ctx context.Context, productID string, fn inventory.MutateFunc) (*model.Product, error) {
	for attempt := 0; attempt < r.txAttempts; attempt++ {
		p, err := r.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, inventory.ErrProductNotFound
		}

		entries, err := fn(p)
		if err != nil {
			if errors.Is(err, inventory.ErrUnchanged) {
				return p, nil
			}
			return nil, err
		}

		applied, err := r.writeGuarded(ctx, p, entries)
		if err != nil {
			return nil, err
		}
		if applied {
			return p, nil
		}
	}
	return nil, inventory.ErrTxConflict
}

func (r *PGRepository) writeGuarded(ctx context.Context, p *model.Product, entries []model.InventoryHistoryEntry) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// 1. Write the product row, guarded by the version it was read at
	updateQuery := `
        UPDATE products SET
            sku = :sku,
            name = :name,
            track_inventory = :track_inventory,
            stock = :stock,
            low_stock_threshold = :low_stock_threshold,
            backorder_enabled = :backorder_enabled,
            backorder_limit = :backorder_limit,
            inventory_status = :inventory_status,
            variants = :variants,
            version = version + 1,
            updated_at = :updated_at
        WHERE id = :id AND version = :version
    `
	res, err := tx.NamedExecContext(ctx, updateQuery, p)
	if err != nil {
		return false, fmt.Errorf("failed to update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Version moved under us; caller re-reads and retries
		return false, nil
	}

	// 2. Append history entries
	if err := insertHistory(ctx, tx, entries); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	p.Version++
	return true, nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, entries []model.InventoryHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
        INSERT INTO inventory_history (
            id, product_id, variant_id, previous_stock, new_stock,
            quantity_change, reason, order_id, user_id, notes, created_at
        )
        VALUES (
            :id, :product_id, :variant_id, :previous_stock, :new_stock,
            :quantity_change, :reason, :order_id, :user_id, :notes, :created_at
        )
    `
	for i := range entries {
		if _, err := tx.NamedExecContext(ctx, query, &entries[i]); err != nil {
			return fmt.Errorf("failed to log history entry: %w", err)
		}
	}
	return nil
}

func (r *PGRepository) ListHistory(ctx context.Context, f *dto.HistoryFilters) ([]model.InventoryHistoryEntry, error) {
	conditions := []string{"product_id = :product_id"}
	args := map[string]interface{}{"product_id": f.ProductID}

	if f.VariantID != nil {
		if *f.VariantID == "" {
			conditions = append(conditions, "variant_id IS NULL")
		} else {
			conditions = append(conditions, "variant_id = :variant_id")
			args["variant_id"] = *f.VariantID
		}
	}
	if f.Reason != "" {
		conditions = append(conditions, "reason = :reason")
		args["reason"] = string(f.Reason)
	}

	query := "SELECT * FROM inventory_history WHERE " + strings.Join(conditions, " AND ") + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	var items []model.InventoryHistoryEntry
	err = nstmt.SelectContext(ctx, &items, args)
	return items, err
}

func (r *PGRepository) FindByStatus(ctx context.Context, statuses []model.InventoryStatus, limit int) ([]model.Product, error) {
	if len(statuses) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM products WHERE inventory_status IN (?)`, statuses)
	if err != nil {
		return nil, err
	}

	// A product also qualifies when any embedded variant carries one of the
	// wanted cached statuses.
	for _, s := range statuses {
		query += ` OR variants @> ?::jsonb`
		args = append(args, fmt.Sprintf(`[{"inventory_status":%q}]`, string(s)))
	}

	query = r.DB.Rebind(query)
	query += " ORDER BY updated_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var items []model.Product
	err = r.DB.SelectContext(ctx, &items, query, args...)
	return items, err
}
