/*
Package sqlite provides a SQLite-backed rewards.Repository.

KEY TABLES:
  customers:     customer records (integer ids)
  transactions:  purchases; amount as decimal text, date as YYYY-MM-DD

INDEXES:
  - idx_transactions_customer:      FindByCustomer
  - idx_transactions_date:          FindByDateRange
  - idx_transactions_customer_date: FindByCustomerAndDateRange

MIGRATION:
  Versioned migrations live in migrations/*.sql, embedded into the binary
  and applied with golang-migrate on New().

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to
  a single connection; every extra connection would open an empty
  database.

USAGE:
  store, err := sqlite.New("./data/rewards.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - rewards/store.go: interface definitions
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/customer-rewards/rewards"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements rewards.Repository using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ rewards.Repository = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.HasPrefix(dbPath, ":memory:") || strings.Contains(dbPath, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// migrateUp applies embedded migrations. The migrate instance is not
// closed: closing it would close db as well.
func migrateUp(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	defer src.Close()

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// SaveCustomer inserts a customer, or updates the name of an existing id.
func (s *Store) SaveCustomer(ctx context.Context, c rewards.Customer) (rewards.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if c.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO customers (name, created_at) VALUES (?, ?)",
			c.Name, now,
		)
		if err != nil {
			return c, fmt.Errorf("failed to insert customer: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return c, fmt.Errorf("failed to read customer id: %w", err)
		}
		c.ID = rewards.CustomerID(id)
		return c, nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, c.ID, c.Name, now)
	if err != nil {
		return c, fmt.Errorf("failed to save customer: %w", err)
	}
	return c, nil
}

// GetCustomer retrieves a customer by ID. Returns nil if absent.
func (s *Store) GetCustomer(ctx context.Context, id rewards.CustomerID) (*rewards.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c rewards.Customer
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM customers WHERE id = ?", id,
	).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

// ListCustomers returns all customers ordered by id.
func (s *Store) ListCustomers(ctx context.Context) ([]rewards.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM customers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []rewards.Customer{}
	for rows.Next() {
		var c rewards.Customer
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// CustomerExists checks whether a customer id is stored.
func (s *Store) CustomerExists(ctx context.Context, id rewards.CustomerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM customers WHERE id = ?", id,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// TRANSACTIONS (rewards.TransactionStore)
// =============================================================================

const selectTransactions = `
	SELECT id, customer_id, amount, transaction_date
	FROM transactions
`

// SaveTransaction inserts a purchase.
func (s *Store) SaveTransaction(ctx context.Context, tx rewards.Transaction) (rewards.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	date := tx.Date.Format(rewards.DateLayout)

	var (
		res sql.Result
		err error
	)
	if tx.ID == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO transactions (customer_id, amount, transaction_date, created_at)
			VALUES (?, ?, ?, ?)
		`, tx.CustomerID, tx.Amount.String(), date, now)
	} else {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO transactions (id, customer_id, amount, transaction_date, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, tx.ID, tx.CustomerID, tx.Amount.String(), date, now)
	}
	if err != nil {
		return tx, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if tx.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return tx, fmt.Errorf("failed to read transaction id: %w", err)
		}
		tx.ID = rewards.TransactionID(id)
	}
	tx.Date, _ = rewards.ParseDate(date)
	return tx, nil
}

// FindAll returns every transaction.
func (s *Store) FindAll(ctx context.Context) ([]rewards.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx, selectTransactions+" ORDER BY id")
}

// FindByCustomer returns a customer's transactions across all dates.
func (s *Store) FindByCustomer(ctx context.Context, customerID rewards.CustomerID) ([]rewards.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx,
		selectTransactions+" WHERE customer_id = ? ORDER BY id",
		customerID,
	)
}

// FindByDateRange returns transactions dated within [from, to].
func (s *Store) FindByDateRange(ctx context.Context, from, to time.Time) ([]rewards.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx,
		selectTransactions+" WHERE transaction_date >= ? AND transaction_date <= ? ORDER BY id",
		from.Format(rewards.DateLayout), to.Format(rewards.DateLayout),
	)
}

// FindByCustomerAndDateRange returns a customer's transactions within [from, to].
func (s *Store) FindByCustomerAndDateRange(ctx context.Context, customerID rewards.CustomerID, from, to time.Time) ([]rewards.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx,
		selectTransactions+" WHERE customer_id = ? AND transaction_date >= ? AND transaction_date <= ? ORDER BY id",
		customerID, from.Format(rewards.DateLayout), to.Format(rewards.DateLayout),
	)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]rewards.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []rewards.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (rewards.Transaction, error) {
	var (
		tx     rewards.Transaction
		amount string
		date   string
	)
	if err := rows.Scan(&tx.ID, &tx.CustomerID, &amount, &date); err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return tx, fmt.Errorf("transaction %d: bad amount %q: %w", tx.ID, amount, err)
	}
	if tx.Date, err = rewards.ParseDate(date); err != nil {
		return tx, fmt.Errorf("transaction %d: bad date %q: %w", tx.ID, date, err)
	}
	return tx, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []string{
		"DELETE FROM transactions",
		"DELETE FROM customers",
		"DELETE FROM sqlite_sequence WHERE name IN ('transactions', 'customers')",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}
