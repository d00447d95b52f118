// Package postgres provides a PostgreSQL-backed rewards.Repository on a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/warp/customer-rewards/rewards"
)

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
	id BIGSERIAL PRIMARY KEY,
	customer_id BIGINT NOT NULL REFERENCES customers(id),
	amount NUMERIC(14, 2) NOT NULL CHECK (amount >= 0),
	transaction_date DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_customer_date
	ON transactions(customer_id, transaction_date);
CREATE INDEX IF NOT EXISTS idx_transactions_date
	ON transactions(transaction_date);
`

// Store implements rewards.Repository on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ rewards.Repository = (*Store)(nil)

// New connects to dsn, pings and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store/postgres: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store/postgres: schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func (s *Store) SaveCustomer(ctx context.Context, c rewards.Customer) (rewards.Customer, error) {
	if c.ID == 0 {
		var id int64
		err := s.pool.QueryRow(ctx,
			"INSERT INTO customers (name) VALUES ($1) RETURNING id", c.Name,
		).Scan(&id)
		if err != nil {
			return c, fmt.Errorf("store/postgres: insert customer: %w", err)
		}
		c.ID = rewards.CustomerID(id)
		return c, nil
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO customers (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, int64(c.ID), c.Name)
	if err != nil {
		return c, fmt.Errorf("store/postgres: save customer: %w", err)
	}
	// Keep the sequence ahead of explicitly assigned ids.
	_, err = s.pool.Exec(ctx,
		"SELECT setval(pg_get_serial_sequence('customers', 'id'), GREATEST((SELECT MAX(id) FROM customers), 1))",
	)
	if err != nil {
		return c, fmt.Errorf("store/postgres: bump customer sequence: %w", err)
	}
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, id rewards.CustomerID) (*rewards.Customer, error) {
	var (
		c   rewards.Customer
		cid int64
	)
	err := s.pool.QueryRow(ctx,
		"SELECT id, name FROM customers WHERE id = $1", int64(id),
	).Scan(&cid, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store/postgres: get customer: %w", err)
	}
	c.ID = rewards.CustomerID(cid)
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]rewards.Customer, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM customers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store/postgres: list customers: %w", err)
	}
	defer rows.Close()

	customers := []rewards.Customer{}
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		customers = append(customers, rewards.Customer{ID: rewards.CustomerID(id), Name: name})
	}
	return customers, rows.Err()
}

func (s *Store) CustomerExists(ctx context.Context, id rewards.CustomerID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)", int64(id),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store/postgres: customer exists: %w", err)
	}
	return exists, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// amount is read back as text so decimal parsing stays exact.
const selectTransactions = `
	SELECT id, customer_id, amount::text, transaction_date
	FROM transactions
`

func (s *Store) SaveTransaction(ctx context.Context, tx rewards.Transaction) (rewards.Transaction, error) {
	date := rewards.Date(tx.Date.Year(), tx.Date.Month(), tx.Date.Day())

	if tx.ID == 0 {
		var id int64
		err := s.pool.QueryRow(ctx, `
			INSERT INTO transactions (customer_id, amount, transaction_date)
			VALUES ($1, $2::text::numeric, $3)
			RETURNING id
		`, int64(tx.CustomerID), tx.Amount.String(), date).Scan(&id)
		if err != nil {
			return tx, fmt.Errorf("store/postgres: insert transaction: %w", err)
		}
		tx.ID = rewards.TransactionID(id)
	} else {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO transactions (id, customer_id, amount, transaction_date)
			VALUES ($1, $2, $3::text::numeric, $4)
		`, int64(tx.ID), int64(tx.CustomerID), tx.Amount.String(), date)
		if err != nil {
			return tx, fmt.Errorf("store/postgres: insert transaction: %w", err)
		}
	}
	tx.Date = date
	return tx, nil
}

func (s *Store) FindAll(ctx context.Context) ([]rewards.Transaction, error) {
	return s.queryTransactions(ctx, selectTransactions+" ORDER BY id")
}

func (s *Store) FindByCustomer(ctx context.Context, customerID rewards.CustomerID) ([]rewards.Transaction, error) {
	return s.queryTransactions(ctx,
		selectTransactions+" WHERE customer_id = $1 ORDER BY id",
		int64(customerID),
	)
}

func (s *Store) FindByDateRange(ctx context.Context, from, to time.Time) ([]rewards.Transaction, error) {
	return s.queryTransactions(ctx,
		selectTransactions+" WHERE transaction_date BETWEEN $1 AND $2 ORDER BY id",
		from, to,
	)
}

func (s *Store) FindByCustomerAndDateRange(ctx context.Context, customerID rewards.CustomerID, from, to time.Time) ([]rewards.Transaction, error) {
	return s.queryTransactions(ctx,
		selectTransactions+" WHERE customer_id = $1 AND transaction_date BETWEEN $2 AND $3 ORDER BY id",
		int64(customerID), from, to,
	)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]rewards.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []rewards.Transaction{}
	for rows.Next() {
		var (
			id, customerID int64
			amount         string
			date           time.Time
		)
		if err := rows.Scan(&id, &customerID, &amount, &date); err != nil {
			return nil, fmt.Errorf("store/postgres: scan transaction: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("store/postgres: transaction %d amount %q: %w", id, amount, err)
		}
		transactions = append(transactions, rewards.Transaction{
			ID:         rewards.TransactionID(id),
			CustomerID: rewards.CustomerID(customerID),
			Amount:     value,
			Date:       rewards.Date(date.Year(), date.Month(), date.Day()),
		})
	}
	return transactions, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE transactions, customers RESTART IDENTITY")
	if err != nil {
		return fmt.Errorf("store/postgres: reset: %w", err)
	}
	return nil
}
