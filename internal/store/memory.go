package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/rgehrsitz/nursetax/internal/planner"
)

var _ planner.Store = (*MemoryStore)(nil)

// MemoryStore keeps payments in memory with the same constraints as SQLiteStore.
type MemoryStore struct {
	mu       sync.RWMutex
	payments map[string]domain.QuarterlyPayment
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{payments: make(map[string]domain.QuarterlyPayment)}
}

// Fetch returns the payments matching filter ordered by year and quarter.
func (m *MemoryStore) Fetch(ctx context.Context, filter domain.PaymentFilter) ([]domain.QuarterlyPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.QuarterlyPayment
	for _, p := range m.payments {
		if filter.Matches(p) {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaxYear != out[j].TaxYear {
			return out[i].TaxYear < out[j].TaxYear
		}
		return out[i].Quarter < out[j].Quarter
	})
	return out, nil
}

// Insert adds new payments. Either all are added or none.
func (m *MemoryStore) Insert(ctx context.Context, payments ...domain.QuarterlyPayment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[[2]int]bool, len(m.payments)+len(payments))
	for _, p := range m.payments {
		seen[[2]int{p.TaxYear, p.Quarter}] = true
	}
	for _, p := range payments {
		if _, ok := m.payments[p.ID]; ok {
			return fmt.Errorf("inserting %s: duplicate id %s", p.Label(), p.ID)
		}
		key := [2]int{p.TaxYear, p.Quarter}
		if seen[key] {
			return fmt.Errorf("inserting %s: quarter already exists", p.Label())
		}
		seen[key] = true
	}
	for _, p := range payments {
		m.payments[p.ID] = clonePayment(p)
	}
	return nil
}

// Save replaces existing payments. Either all are saved or none.
func (m *MemoryStore) Save(ctx context.Context, payments ...domain.QuarterlyPayment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range payments {
		if _, ok := m.payments[p.ID]; !ok {
			return fmt.Errorf("updating %s: no payment with id %s", p.Label(), p.ID)
		}
	}
	for _, p := range payments {
		m.payments[p.ID] = clonePayment(p)
	}
	return nil
}

// Delete removes payments by ID. Unknown IDs are ignored.
func (m *MemoryStore) Delete(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.payments, id)
	}
	return nil
}

func clonePayment(p domain.QuarterlyPayment) domain.QuarterlyPayment {
	if p.PaymentDate != nil {
		t := *p.PaymentDate
		p.PaymentDate = &t
	}
	return p
}
