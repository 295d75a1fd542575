package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/inventory-service/internal/inventory"
	"github.com/shoplane/inventory-service/internal/inventory/dto"
	"github.com/shoplane/inventory-service/internal/model"
	"github.com/shoplane/inventory-service/pkg/cache"
	"github.com/shoplane/inventory-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	lockTTL        = 5 * time.Second
	lockAttempts   = 3
	lockRetryDelay = 100 * time.Millisecond

	defaultQueryLimit   = 50
	defaultHistoryLimit = 50
)

type inventoryUseCase struct {
	repo             inventory.Repository
	locks            inventory.Locker
	queryCache       *cache.TTLCache
	logger           logger.ZapLogger
	defaultThreshold int
}

func NewInventoryUseCase(repo inventory.Repository, locks inventory.Locker, queryCache *cache.TTLCache, log logger.ZapLogger, defaultThreshold int) inventory.UseCase {
	if defaultThreshold < 0 {
		defaultThreshold = 0
	}
	return &inventoryUseCase{
		repo:             repo,
		locks:            locks,
		queryCache:       queryCache,
		logger:           log,
		defaultThreshold: defaultThreshold,
	}
}

func (uc *inventoryUseCase) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	p, err := uc.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, inventory.ErrProductNotFound
	}
	return p, nil
}

func (uc *inventoryUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if input.SKU == "" {
		return nil, fmt.Errorf("%w: sku is required", inventory.ErrInvalidInput)
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", inventory.ErrInvalidInput)
	}

	now := time.Now()

	tracking := true
	if input.TrackInventory != nil {
		tracking = *input.TrackInventory
	}
	threshold := uc.defaultThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}

	p := &model.Product{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SKU:               input.SKU,
		Name:              input.Name,
		TrackInventory:    tracking,
		Stock:             input.Stock,
		LowStockThreshold: threshold,
		BackorderEnabled:  input.BackorderEnabled,
		BackorderLimit:    input.BackorderLimit,
		Version:           1,
	}
	for _, v := range input.Variants {
		p.Variants = append(p.Variants, model.Variant{
			ID:                uuid.New().String(),
			SKU:               v.SKU,
			Name:              v.Name,
			Stock:             v.Stock,
			TrackInventory:    v.TrackInventory,
			LowStockThreshold: v.LowStockThreshold,
			BackorderEnabled:  v.BackorderEnabled,
			BackorderLimit:    v.BackorderLimit,
		})
	}

	// New records enter with their statuses already reconciled
	p.InventoryStatus = p.StatusFor(nil)
	for i := range p.Variants {
		p.Variants[i].InventoryStatus = p.StatusFor(&p.Variants[i])
	}

	// Seeded stock gets an INITIAL ledger entry per scope
	var entries []model.InventoryHistoryEntry
	if p.Stock > 0 {
		entries = append(entries, model.InventoryHistoryEntry{
			ID:            uuid.New().String(),
			ProductID:     p.ID,
			PreviousStock: 0,
			NewStock:      p.Stock,
			Change:        p.Stock,
			Reason:        model.ReasonInitial,
			Notes:         "Initial stock",
			CreatedAt:     now,
		})
	}
	for i := range p.Variants {
		if p.Variants[i].Stock > 0 {
			variantID := p.Variants[i].ID
			entries = append(entries, model.InventoryHistoryEntry{
				ID:            uuid.New().String(),
				ProductID:     p.ID,
				VariantID:     &variantID,
				PreviousStock: 0,
				NewStock:      p.Variants[i].Stock,
				Change:        p.Variants[i].Stock,
				Reason:        model.ReasonInitial,
				Notes:         "Initial stock",
				CreatedAt:     now,
			})
		}
	}

	if err := uc.repo.CreateProduct(ctx, p, entries); err != nil {
		return nil, err
	}

	uc.queryCache.Flush()
	return p, nil
}

func (uc *inventoryUseCase) MutateStock(ctx context.Context, input *dto.MutateStockInput) (*dto.StockMutation, error) {
	reason := input.Reason
	if reason == "" {
		reason = model.ReasonAdjustment
	}
	if !reason.Valid() {
		return nil, fmt.Errorf("%w: unknown change reason %q", inventory.ErrInvalidInput, string(reason))
	}

	// 0. Serialize writers on this scope
	release, err := uc.lockScope(ctx, input.Scope)
	if err != nil {
		return nil, err
	}
	defer release()

	// 1. Read-clamp-write with the ledger entry in the same transaction.
	// The callback may re-run on version conflicts, so it rebuilds the
	// result from scratch each attempt.
	result := &dto.StockMutation{}
	product, err := uc.repo.MutateProduct(ctx, input.ProductID, func(p *model.Product) ([]model.InventoryHistoryEntry, error) {
		result.Entry = nil
		result.Shortfall = 0
		result.Skipped = false

		var target *model.Variant
		if input.VariantID != nil {
			if target = p.FindVariant(*input.VariantID); target == nil {
				return nil, inventory.ErrVariantNotFound
			}
		}

		if !p.TrackingFor(target) {
			result.Skipped = true
			return nil, inventory.ErrUnchanged
		}

		current := p.Stock
		if target != nil {
			current = target.Stock
		}
		newStock, shortfall := model.ClampStock(current, input.Delta)

		now := time.Now()
		if target != nil {
			target.Stock = newStock
		} else {
			p.Stock = newStock
		}
		p.UpdatedAt = now

		entry := model.InventoryHistoryEntry{
			ID:            uuid.New().String(),
			ProductID:     p.ID,
			VariantID:     input.VariantID,
			PreviousStock: current,
			NewStock:      newStock,
			Change:        input.Delta,
			Reason:        reason,
			OrderID:       optional(input.OrderID),
			UserID:        optional(input.UserID),
			Notes:         input.Notes,
			CreatedAt:     now,
		}
		result.Entry = &entry
		result.Shortfall = shortfall
		return []model.InventoryHistoryEntry{entry}, nil
	})
	if err != nil {
		return nil, err
	}
	result.Product = product

	if result.Skipped {
		return result, nil
	}

	// 2. Refresh the cached status for the scope we just wrote. A variant
	// write also rechecks the parent's own cached status, since both live
	// on the same record.
	result.Product = uc.reconcileAfterWrite(ctx, input.Scope, result.Product)
	if input.VariantID != nil {
		result.Product = uc.reconcileAfterWrite(ctx, dto.Scope{ProductID: input.ProductID}, result.Product)
	}

	uc.queryCache.Flush()
	return result, nil
}

func (uc *inventoryUseCase) SetStockLevel(ctx context.Context, input *dto.SetStockLevelInput) (*dto.StockMutation, error) {
	if input.NewStock < 0 {
		return nil, fmt.Errorf("%w: stock level cannot be negative", inventory.ErrInvalidInput)
	}

	reason := input.Reason
	if reason == "" {
		reason = model.ReasonAdjustment
	}
	if !reason.Valid() {
		return nil, fmt.Errorf("%w: unknown change reason %q", inventory.ErrInvalidInput, string(reason))
	}

	release, err := uc.lockScope(ctx, input.Scope)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &dto.StockMutation{}
	product, err := uc.repo.MutateProduct(ctx, input.ProductID, func(p *model.Product) ([]model.InventoryHistoryEntry, error) {
		result.Entry = nil
		result.Skipped = false

		var target *model.Variant
		if input.VariantID != nil {
			if target = p.FindVariant(*input.VariantID); target == nil {
				return nil, inventory.ErrVariantNotFound
			}
		}

		if !p.TrackingFor(target) {
			result.Skipped = true
			return nil, inventory.ErrUnchanged
		}

		current := p.Stock
		if target != nil {
			current = target.Stock
		}
		if current == input.NewStock {
			return nil, inventory.ErrUnchanged
		}

		now := time.Now()
		if target != nil {
			target.Stock = input.NewStock
		} else {
			p.Stock = input.NewStock
		}
		p.UpdatedAt = now

		// The ledger records the delta this set amounted to
		entry := model.InventoryHistoryEntry{
			ID:            uuid.New().String(),
			ProductID:     p.ID,
			VariantID:     input.VariantID,
			PreviousStock: current,
			NewStock:      input.NewStock,
			Change:        input.NewStock - current,
			Reason:        reason,
			UserID:        optional(input.UserID),
			Notes:         input.Notes,
			CreatedAt:     now,
		}
		result.Entry = &entry
		return []model.InventoryHistoryEntry{entry}, nil
	})
	if err != nil {
		return nil, err
	}
	result.Product = product

	if result.Skipped || result.Entry == nil {
		return result, nil
	}

	result.Product = uc.reconcileAfterWrite(ctx, input.Scope, result.Product)
	if input.VariantID != nil {
		result.Product = uc.reconcileAfterWrite(ctx, dto.Scope{ProductID: input.ProductID}, result.Product)
	}

	uc.queryCache.Flush()
	return result, nil
}

// reconcileAfterWrite refreshes the cached status for scope once a stock
// write has committed. A reconcile failure is logged and the pre-reconcile
// record returned; the mutation itself already stands.
func (uc *inventoryUseCase) reconcileAfterWrite(ctx context.Context, scope dto.Scope, current *model.Product) *model.Product {
	updated, err := uc.Reconcile(ctx, scope)
	if err != nil {
		uc.logger.Error("failed to reconcile status after mutation",
			zap.String("product_id", scope.ProductID),
			zap.Stringp("variant_id", scope.VariantID),
			zap.Error(err))
		return current
	}
	return updated
}

// ValidateOrderItems is a read-only forecast of whether an order's items can
// be satisfied right now. Nothing is reserved: stock can change between this
// call and the actual decrement, and the decrement clamps rather than fails.
// Read failures never abort the forecast either; items whose stock could not
// be read come back invalid with zero availability.
func (uc *inventoryUseCase) ValidateOrderItems(ctx context.Context, items []dto.OrderItemInput) (*dto.ValidationResult, error) {
	result := &dto.ValidationResult{Valid: true}
	if len(items) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := uc.repo.BatchGetProducts(ctx, ids)
	if err != nil {
		uc.logger.Error("failed to read products for order validation", zap.Error(err))
		for _, item := range items {
			result.InvalidItems = append(result.InvalidItems, dto.InvalidItem{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Requested: item.Quantity,
				Available: 0,
				Reason:    "inventory read failed",
			})
		}
		result.Valid = false
		return result, nil
	}
	byID := make(map[string]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, item := range items {
		p := byID[item.ProductID]
		if p == nil {
			result.InvalidItems = append(result.InvalidItems, dto.InvalidItem{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Requested: item.Quantity,
				Available: 0,
				Reason:    "product not found",
			})
			continue
		}

		var target *model.Variant
		if item.VariantID != nil {
			if target = p.FindVariant(*item.VariantID); target == nil {
				result.InvalidItems = append(result.InvalidItems, dto.InvalidItem{
					ProductID: item.ProductID,
					VariantID: item.VariantID,
					Requested: item.Quantity,
					Available: 0,
					Reason:    "variant not found",
				})
				continue
			}
		}

		// Untracked scopes are treated as infinite stock
		if !p.TrackingFor(target) {
			continue
		}

		stock := p.Stock
		if target != nil {
			stock = target.Stock
		}
		if stock >= item.Quantity {
			continue
		}

		if enabled, limit := p.BackorderFor(target); enabled {
			backorderNeeded := item.Quantity - stock
			if limit == nil || backorderNeeded <= *limit {
				result.BackorderedItems = append(result.BackorderedItems, dto.BackorderedItem{
					ProductID:   item.ProductID,
					VariantID:   item.VariantID,
					Available:   stock,
					Backordered: backorderNeeded,
				})
				continue
			}
		}

		result.InvalidItems = append(result.InvalidItems, dto.InvalidItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Requested: item.Quantity,
			Available: stock,
			Reason:    "insufficient stock",
		})
	}

	result.Valid = len(result.InvalidItems) == 0
	return result, nil
}

// ProcessOrderInventory deducts stock for every line item of a placed order.
// Items fail individually; a failed item never stops the rest, and applied
// items are not rolled back. Calling twice for the same order double-applies.
func (uc *inventoryUseCase) ProcessOrderInventory(ctx context.Context, input *dto.OrderInventoryInput) *dto.OrderInventoryResult {
	notes := fmt.Sprintf("Order %s placed", input.OrderID)
	return uc.applyOrderItems(ctx, input, model.ReasonSale, -1, notes)
}

// RestoreOrderInventory re-adds stock for a cancelled or returned order.
// The reason defaults to RETURN; callers may override it, e.g. DAMAGED.
func (uc *inventoryUseCase) RestoreOrderInventory(ctx context.Context, input *dto.OrderInventoryInput) *dto.OrderInventoryResult {
	notes := fmt.Sprintf("Order %s restored", input.OrderID)
	return uc.applyOrderItems(ctx, input, input.Reason, 1, notes)
}

func (uc *inventoryUseCase) applyOrderItems(ctx context.Context, input *dto.OrderInventoryInput, reason model.ChangeReason, sign int, notes string) *dto.OrderInventoryResult {
	if reason == "" {
		reason = model.ReasonReturn
	}

	result := &dto.OrderInventoryResult{OrderID: input.OrderID, AllSucceeded: true}
	for _, item := range input.Items {
		_, err := uc.MutateStock(ctx, &dto.MutateStockInput{
			Scope:   dto.Scope{ProductID: item.ProductID, VariantID: item.VariantID},
			Delta:   sign * item.Quantity,
			Reason:  reason,
			OrderID: input.OrderID,
			UserID:  input.UserID,
			Notes:   notes,
		})
		if err != nil {
			uc.logger.Error("failed to apply stock change for order item",
				zap.String("order_id", input.OrderID),
				zap.String("product_id", item.ProductID),
				zap.Stringp("variant_id", item.VariantID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
			result.AllSucceeded = false
			result.Failed = append(result.Failed, dto.ItemFailure{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
				Error:     err.Error(),
			})
		}
	}
	return result
}

// Reconcile recomputes the cached status for one scope from its current
// stock and effective settings. Idempotent: when the stored value already
// matches, nothing is written.
func (uc *inventoryUseCase) Reconcile(ctx context.Context, scope dto.Scope) (*model.Product, error) {
	changed := false
	p, err := uc.repo.MutateProduct(ctx, scope.ProductID, func(p *model.Product) ([]model.InventoryHistoryEntry, error) {
		changed = false

		var target *model.Variant
		if scope.VariantID != nil {
			if target = p.FindVariant(*scope.VariantID); target == nil {
				return nil, inventory.ErrVariantNotFound
			}
		}

		status := p.StatusFor(target)
		if target != nil {
			if target.InventoryStatus == status {
				return nil, inventory.ErrUnchanged
			}
			target.InventoryStatus = status
		} else {
			if p.InventoryStatus == status {
				return nil, inventory.ErrUnchanged
			}
			p.InventoryStatus = status
		}
		p.UpdatedAt = time.Now()
		changed = true

		// Status upkeep never writes ledger entries
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	// A rewritten status moves the record between the dashboard queries
	if changed {
		uc.queryCache.Flush()
	}
	return p, nil
}

func (uc *inventoryUseCase) GetInventoryHistory(ctx context.Context, f *dto.HistoryFilters) ([]model.InventoryHistoryEntry, error) {
	if f.ProductID == "" {
		return nil, fmt.Errorf("%w: product id is required", inventory.ErrInvalidInput)
	}
	if f.Limit <= 0 {
		f.Limit = defaultHistoryLimit
	}
	return uc.repo.ListHistory(ctx, f)
}

func (uc *inventoryUseCase) GetLowStockProducts(ctx context.Context, limit int) ([]model.Product, error) {
	return uc.findByStatuses(ctx, "low_stock", []model.InventoryStatus{model.StatusLowStock}, limit)
}

func (uc *inventoryUseCase) GetOutOfStockProducts(ctx context.Context, limit int) ([]model.Product, error) {
	return uc.findByStatuses(ctx, "out_of_stock", []model.InventoryStatus{model.StatusOutOfStock, model.StatusBackorder}, limit)
}

func (uc *inventoryUseCase) GetProductsNeedingRestock(ctx context.Context, limit int) ([]model.Product, error) {
	return uc.findByStatuses(ctx, "restock_needed", []model.InventoryStatus{model.StatusLowStock, model.StatusOutOfStock, model.StatusBackorder}, limit)
}

func (uc *inventoryUseCase) findByStatuses(ctx context.Context, name string, statuses []model.InventoryStatus, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	cacheKey := fmt.Sprintf("inventory:%s:%d", name, limit)
	if cached, ok := uc.queryCache.Get(cacheKey); ok {
		return cached.([]model.Product), nil
	}

	items, err := uc.repo.FindByStatus(ctx, statuses, limit)
	if err != nil {
		return nil, err
	}

	uc.queryCache.Set(cacheKey, items)
	return items, nil
}

func (uc *inventoryUseCase) lockScope(ctx context.Context, scope dto.Scope) (func(), error) {
	lockKey := "lock:inventory:" + scope.ProductID
	if scope.VariantID != nil {
		lockKey += ":" + *scope.VariantID
	}
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.locks.AcquireLock(ctx, lockKey, lockValue, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire scope lock", zap.String("key", lockKey), zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(lockRetryDelay)
	}
	if !acquired {
		return nil, inventory.ErrScopeBusy
	}

	return func() {
		uc.locks.ReleaseLock(ctx, lockKey, lockValue)
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
