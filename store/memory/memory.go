// Package memory provides an in-memory rewards.Repository.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/customer-rewards/rewards"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	customers    map[rewards.CustomerID]rewards.Customer
	transactions []rewards.Transaction
	nextCustomer rewards.CustomerID
	nextTx       rewards.TransactionID
}

var _ rewards.Repository = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		customers:    make(map[rewards.CustomerID]rewards.Customer),
		nextCustomer: 1,
		nextTx:       1,
	}
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func (m *Memory) SaveCustomer(_ context.Context, c rewards.Customer) (rewards.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == 0 {
		c.ID = m.nextCustomer
	}
	if c.ID >= m.nextCustomer {
		m.nextCustomer = c.ID + 1
	}
	m.customers[c.ID] = c
	return c, nil
}

func (m *Memory) GetCustomer(_ context.Context, id rewards.CustomerID) (*rewards.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) ListCustomers(_ context.Context) ([]rewards.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]rewards.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) CustomerExists(_ context.Context, id rewards.CustomerID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.customers[id]
	return ok, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// SaveTransaction appends a transaction. Dates are truncated to the day.
func (m *Memory) SaveTransaction(_ context.Context, tx rewards.Transaction) (rewards.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.ID == 0 {
		tx.ID = m.nextTx
	}
	if tx.ID >= m.nextTx {
		m.nextTx = tx.ID + 1
	}
	tx.Date = rewards.Date(tx.Date.Year(), tx.Date.Month(), tx.Date.Day())
	m.transactions = append(m.transactions, tx)
	return tx, nil
}

func (m *Memory) FindAll(_ context.Context) ([]rewards.Transaction, error) {
	return m.filter(func(rewards.Transaction) bool { return true }), nil
}

func (m *Memory) FindByCustomer(_ context.Context, customerID rewards.CustomerID) ([]rewards.Transaction, error) {
	return m.filter(func(tx rewards.Transaction) bool { return tx.CustomerID == customerID }), nil
}

func (m *Memory) FindByDateRange(_ context.Context, from, to time.Time) ([]rewards.Transaction, error) {
	rng := rewards.DateRange{Start: from, End: to}
	return m.filter(func(tx rewards.Transaction) bool { return rng.Contains(tx.Date) }), nil
}

func (m *Memory) FindByCustomerAndDateRange(_ context.Context, customerID rewards.CustomerID, from, to time.Time) ([]rewards.Transaction, error) {
	rng := rewards.DateRange{Start: from, End: to}
	return m.filter(func(tx rewards.Transaction) bool {
		return tx.CustomerID == customerID && rng.Contains(tx.Date)
	}), nil
}

func (m *Memory) filter(keep func(rewards.Transaction) bool) []rewards.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]rewards.Transaction, 0)
	for _, tx := range m.transactions {
		if keep(tx) {
			result = append(result, tx)
		}
	}
	return result
}

// =============================================================================
// ADMIN
// =============================================================================

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.customers = make(map[rewards.CustomerID]rewards.Customer)
	m.transactions = nil
	m.nextCustomer = 1
	m.nextTx = 1
	return nil
}

func (m *Memory) Close() error { return nil }
