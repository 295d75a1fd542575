package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/shoplane/inventory-service/internal/inventory"
	"github.com/shoplane/inventory-service/internal/inventory/dto"
	"github.com/shoplane/inventory-service/internal/model"
)

// MockRepository keeps products in memory and mimics the Postgres store's
// version-guarded mutation loop, bounded conflict retry included. Tests can
// interleave a competing writer through BeforeWrite + ForceWrite to replay
// lost-update races deterministically.
type MockRepository struct {
	mu       sync.Mutex
	products map[string]*model.Product

	// History holds every committed ledger entry in append order.
	History []model.InventoryHistoryEntry

	TxAttempts  int
	MutateCalls []string
	WriteCount  int
	FindCalls   int

	// BeforeWrite runs after fn but before the guarded write of that
	// attempt, so a test can steal the version underneath it.
	BeforeWrite func(productID string)

	GetErr    error
	CreateErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		products:   map[string]*model.Product{},
		TxAttempts: 3,
	}
}

// Seed stores a product directly, bypassing the ledger.
func (m *MockRepository) Seed(p *model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = cloneProduct(p)
}

// StoredProduct returns a copy of what the store currently holds.
func (m *MockRepository) StoredProduct(productID string) *model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil
	}
	return cloneProduct(p)
}

// ForceWrite applies mutate to the stored product and bumps its version,
// exactly like a competing transaction that committed first.
func (m *MockRepository) ForceWrite(productID string, mutate func(p *model.Product)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return
	}
	mutate(p)
	p.Version++
	m.WriteCount++
}

// Delete removes the product, for scenarios where a scope disappears
// mid-order.
func (m *MockRepository) Delete(productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, productID)
}

func (m *MockRepository) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (m *MockRepository) BatchGetProducts(ctx context.Context, productIDs []string) ([]model.Product, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []model.Product{}
	for _, id := range productIDs {
		if p, ok := m.products[id]; ok {
			items = append(items, *cloneProduct(p))
		}
	}
	return items, nil
}

func (m *MockRepository) CreateProduct(ctx context.Context, p *model.Product, entries []model.InventoryHistoryEntry) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = cloneProduct(p)
	m.History = append(m.History, entries...)
	m.WriteCount++
	return nil
}

func (m *MockRepository) MutateProduct(ctx context.Context, productID string, fn inventory.MutateFunc) (*model.Product, error) {
	m.MutateCalls = append(m.MutateCalls, productID)

	for attempt := 0; attempt < m.TxAttempts; attempt++ {
		p, err := m.GetProduct(ctx, productID)
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

		if m.BeforeWrite != nil {
			m.BeforeWrite(productID)
		}

		m.mu.Lock()
		stored, ok := m.products[productID]
		if !ok {
			m.mu.Unlock()
			return nil, inventory.ErrProductNotFound
		}
		if stored.Version != p.Version {
			// Lost the race; re-read and retry
			m.mu.Unlock()
			continue
		}
		p.Version++
		m.products[productID] = cloneProduct(p)
		m.History = append(m.History, entries...)
		m.WriteCount++
		m.mu.Unlock()
		return p, nil
	}
	return nil, inventory.ErrTxConflict
}

func (m *MockRepository) ListHistory(ctx context.Context, f *dto.HistoryFilters) ([]model.InventoryHistoryEntry, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := []model.InventoryHistoryEntry{}
	// Newest first: walk the append-ordered ledger backwards
	for i := len(m.History) - 1; i >= 0; i-- {
		entry := m.History[i]
		if entry.ProductID != f.ProductID {
			continue
		}
		if f.VariantID != nil {
			if *f.VariantID == "" {
				if entry.VariantID != nil {
					continue
				}
			} else if entry.VariantID == nil || *entry.VariantID != *f.VariantID {
				continue
			}
		}
		if f.Reason != "" && entry.Reason != f.Reason {
			continue
		}
		items = append(items, entry)
		if f.Limit > 0 && len(items) >= f.Limit {
			break
		}
	}
	return items, nil
}

func (m *MockRepository) FindByStatus(ctx context.Context, statuses []model.InventoryStatus, limit int) ([]model.Product, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++

	wanted := map[model.InventoryStatus]bool{}
	for _, s := range statuses {
		wanted[s] = true
	}

	items := []model.Product{}
	for _, p := range m.products {
		match := wanted[p.InventoryStatus]
		for i := range p.Variants {
			if wanted[p.Variants[i].InventoryStatus] {
				match = true
			}
		}
		if match {
			items = append(items, *cloneProduct(p))
			if limit > 0 && len(items) >= limit {
				break
			}
		}
	}
	return items, nil
}

func cloneProduct(p *model.Product) *model.Product {
	cp := *p
	if p.Variants != nil {
		cp.Variants = make(model.VariantList, len(p.Variants))
		copy(cp.Variants, p.Variants)
	}
	return &cp
}
