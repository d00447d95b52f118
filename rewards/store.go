/*
store.go - Persistence contracts used by the rewards engine

KEY INTERFACES:
  TransactionStore: the four retrievals the selector dispatches to
  CustomerStore:    existence checks for query validation
  Repository:       everything above plus writes, used by the API,
                    seeding and demo scenarios

ORDERING:
  Stores may return transactions in any order. The aggregator does not
  depend on order and the selector does not sort.

IMPLEMENTATIONS:
  - store/memory:   in-memory, for tests and DB_DRIVER=memory
  - store/sqlite:   default backend
  - store/postgres: pgx pool backend
*/
package rewards

import (
	"context"
	"time"
)

// TransactionStore retrieves purchase transactions. Date bounds are
// inclusive calendar days.
type TransactionStore interface {
	FindAll(ctx context.Context) ([]Transaction, error)
	FindByCustomer(ctx context.Context, customerID CustomerID) ([]Transaction, error)
	FindByDateRange(ctx context.Context, from, to time.Time) ([]Transaction, error)
	FindByCustomerAndDateRange(ctx context.Context, customerID CustomerID, from, to time.Time) ([]Transaction, error)
}

// CustomerStore answers customer existence.
type CustomerStore interface {
	CustomerExists(ctx context.Context, id CustomerID) (bool, error)
}

// Repository is the full store surface.
type Repository interface {
	TransactionStore
	CustomerStore

	// SaveCustomer inserts or replaces a customer. A zero ID asks the store
	// to assign one; the stored customer is returned.
	SaveCustomer(ctx context.Context, c Customer) (Customer, error)
	GetCustomer(ctx context.Context, id CustomerID) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)

	// SaveTransaction inserts a transaction. A zero ID asks the store to
	// assign one; the stored transaction is returned.
	SaveTransaction(ctx context.Context, tx Transaction) (Transaction, error)

	// Reset removes all customers and transactions.
	Reset(ctx context.Context) error

	Close() error
}
