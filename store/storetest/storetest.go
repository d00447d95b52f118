// Package storetest holds the behaviour every rewards.Repository must
// share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/customer-rewards/rewards"
)

// Factory returns an empty store. The store is closed by the caller's
// t.Cleanup.
type Factory func(t *testing.T) rewards.Repository

// Run executes the shared repository tests against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Customers", func(t *testing.T) { testCustomers(t, newStore(t)) })
	t.Run("Finds", func(t *testing.T) { testFinds(t, newStore(t)) })
	t.Run("EmptyFinds", func(t *testing.T) { testEmptyFinds(t, newStore(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, newStore(t)) })
}

func testCustomers(t *testing.T, s rewards.Repository) {
	ctx := context.Background()

	// GIVEN: A customer saved with a fixed id, then one without
	// WHEN: Reading them back
	// THEN: The generated id follows the fixed one

	fixed, err := s.SaveCustomer(ctx, rewards.Customer{ID: 10, Name: "John"})
	require.NoError(t, err)
	assert.Equal(t, rewards.CustomerID(10), fixed.ID)

	generated, err := s.SaveCustomer(ctx, rewards.Customer{Name: "Jane"})
	require.NoError(t, err)
	assert.Greater(t, generated.ID, fixed.ID)

	renamed, err := s.SaveCustomer(ctx, rewards.Customer{ID: 10, Name: "Johnny"})
	require.NoError(t, err)
	assert.Equal(t, "Johnny", renamed.Name)

	got, err := s.GetCustomer(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Johnny", got.Name)

	missing, err := s.GetCustomer(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := s.CustomerExists(ctx, generated.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.CustomerExists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, exists)

	all, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []rewards.Customer{{ID: 10, Name: "Johnny"}, generated}, all)
}

func seedFinds(t *testing.T, s rewards.Repository) []rewards.Transaction {
	ctx := context.Background()
	for _, c := range []rewards.Customer{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}} {
		_, err := s.SaveCustomer(ctx, c)
		require.NoError(t, err)
	}

	var saved []rewards.Transaction
	for _, tx := range []rewards.Transaction{
		{CustomerID: 1, Amount: decimal.RequireFromString("120.00"), Date: rewards.Date(2026, time.January, 31)},
		{CustomerID: 1, Amount: decimal.RequireFromString("75.25"), Date: rewards.Date(2026, time.February, 1)},
		{CustomerID: 2, Amount: decimal.RequireFromString("200"), Date: rewards.Date(2026, time.February, 28)},
		{CustomerID: 1, Amount: decimal.RequireFromString("99.99"), Date: rewards.Date(2025, time.February, 14)},
		{CustomerID: 2, Amount: decimal.RequireFromString("0"), Date: rewards.Date(2026, time.March, 1)},
	} {
		out, err := s.SaveTransaction(ctx, tx)
		require.NoError(t, err)
		require.NotZero(t, out.ID)
		saved = append(saved, out)
	}
	return saved
}

func ids(txs []rewards.Transaction) []rewards.TransactionID {
	out := make([]rewards.TransactionID, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func testFinds(t *testing.T, s rewards.Repository) {
	ctx := context.Background()
	saved := seedFinds(t, s)
	feb, err := rewards.MonthRange("February", 2026)
	require.NoError(t, err)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids(saved), ids(all))

	// Amounts and dates survive the round trip exactly.
	for _, tx := range all {
		if tx.ID == saved[1].ID {
			assert.True(t, decimal.RequireFromString("75.25").Equal(tx.Amount), "got %s", tx.Amount)
			assert.Equal(t, rewards.Date(2026, time.February, 1), tx.Date)
			assert.Equal(t, rewards.CustomerID(1), tx.CustomerID)
		}
	}

	byCustomer, err := s.FindByCustomer(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids([]rewards.Transaction{saved[0], saved[1], saved[3]}), ids(byCustomer))

	byRange, err := s.FindByDateRange(ctx, feb.Start, feb.End)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids([]rewards.Transaction{saved[1], saved[2]}), ids(byRange))

	both, err := s.FindByCustomerAndDateRange(ctx, 1, feb.Start, feb.End)
	require.NoError(t, err)
	assert.Equal(t, ids([]rewards.Transaction{saved[1]}), ids(both))

	// Bounds are inclusive on both ends.
	edges, err := s.FindByDateRange(ctx, rewards.Date(2026, time.January, 31), rewards.Date(2026, time.March, 1))
	require.NoError(t, err)
	assert.Len(t, edges, 4)
}

func testEmptyFinds(t *testing.T, s rewards.Repository) {
	ctx := context.Background()

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	byCustomer, err := s.FindByCustomer(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, byCustomer)

	customers, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, customers)
	assert.Empty(t, customers)
}

func testReset(t *testing.T, s rewards.Repository) {
	ctx := context.Background()
	seedFinds(t, s)

	require.NoError(t, s.Reset(ctx))

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	customers, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, customers)

	// Ids start over after a reset.
	c, err := s.SaveCustomer(ctx, rewards.Customer{Name: "Fresh"})
	require.NoError(t, err)
	assert.Equal(t, rewards.CustomerID(1), c.ID)
}
