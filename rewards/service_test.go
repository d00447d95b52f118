package rewards_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/customer-rewards/rewards"
	"github.com/warp/customer-rewards/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var serviceNow = time.Date(2026, time.March, 25, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts rewards.Options) (*rewards.Service, *memory.Memory) {
	t.Helper()
	store := memory.New()
	opts.Store = store
	if opts.Clock == nil {
		opts.Clock = rewards.FixedClock(serviceNow)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	}
	svc := rewards.NewService(opts)

	ctx := context.Background()
	for _, c := range []rewards.Customer{{ID: 1, Name: "John"}, {ID: 2, Name: "Jane"}} {
		_, err := store.SaveCustomer(ctx, c)
		require.NoError(t, err)
	}
	for _, tx := range []rewards.Transaction{
		purchase(1, "120", 2026, time.January, 5),
		purchase(1, "75", 2026, time.February, 11),
		purchase(1, "117.50", 2026, time.March, 20),
		purchase(1, "200", 2025, time.February, 3),
		purchase(2, "150", 2026, time.February, 28),
	} {
		_, err := store.SaveTransaction(ctx, tx)
		require.NoError(t, err)
	}
	return svc, store
}

// =============================================================================
// COMPUTE REWARDS
// =============================================================================

func TestComputeRewards_Modes(t *testing.T) {
	svc, _ := newTestService(t, rewards.Options{})
	ctx := context.Background()

	tests := []struct {
		name   string
		query  rewards.Query
		totals map[rewards.CustomerID]string
	}{
		// 2025-02 purchase (250 points) joins February for customer-only and unfiltered queries.
		{"all", rewards.Query{}, map[rewards.CustomerID]string{1: "450", 2: "150"}},
		{"customer", rewards.Query{}.ForCustomer(1), map[rewards.CustomerID]string{1: "450"}},
		{"month", rewards.Query{}.ForMonth("february"), map[rewards.CustomerID]string{1: "25", 2: "150"}},
		{"customer and month", rewards.Query{}.ForCustomer(1).ForMonth("February"), map[rewards.CustomerID]string{1: "25"}},
		{"month without purchases", rewards.Query{}.ForMonth("July"), map[rewards.CustomerID]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ComputeRewards(ctx, tt.query)
			require.NoError(t, err)

			got := make(map[rewards.CustomerID]string, len(res.TotalPerCustomer))
			for c, p := range res.TotalPerCustomer {
				got[c] = p.String()
			}
			assert.Equal(t, tt.totals, got)
			assertInvariants(t, res)
		})
	}
}

func TestComputeRewards_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(t, rewards.Options{})
	ctx := context.Background()

	tests := []struct {
		name  string
		query rewards.Query
		want  error
	}{
		{"zero customer", rewards.Query{}.ForCustomer(0), rewards.ErrInvalidCustomerID},
		{"negative customer", rewards.Query{}.ForCustomer(-4), rewards.ErrInvalidCustomerID},
		{"missing customer", rewards.Query{}.ForCustomer(404), rewards.ErrCustomerNotFound},
		{"bad month", rewards.Query{}.ForMonth("Jani"), rewards.ErrInvalidMonth},
		{"bad month for valid customer", rewards.Query{}.ForCustomer(1).ForMonth("Jani"), rewards.ErrInvalidMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ComputeRewards(ctx, tt.query)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, rewards.IsClientError(err) || rewards.IsNotFound(err))
		})
	}
}

func TestComputeRewards_NotFoundCarriesID(t *testing.T) {
	svc, _ := newTestService(t, rewards.Options{})

	_, err := svc.ComputeRewards(context.Background(), rewards.Query{}.ForCustomer(404))
	var nf *rewards.CustomerNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, rewards.CustomerID(404), nf.ID)
	assert.True(t, rewards.IsNotFound(err))
	assert.Equal(t, "customer with id 404 not found", err.Error())
}

func TestComputeRewards_ParallelPathMatches(t *testing.T) {
	// GIVEN: A service configured to aggregate in parallel for any input size
	// WHEN: Computing rewards over all purchases
	// THEN: The result equals the sequential service's

	seq, _ := newTestService(t, rewards.Options{})
	par, _ := newTestService(t, rewards.Options{Workers: 3, ParallelMin: 1})
	ctx := context.Background()

	want, err := seq.ComputeRewards(ctx, rewards.Query{})
	require.NoError(t, err)
	got, err := par.ComputeRewards(ctx, rewards.Query{})
	require.NoError(t, err)
	assertResultEqual(t, want, got)
}

func TestComputeRewards_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	svc, _ := newTestService(t, rewards.Options{Logger: logger})

	_, err := svc.ComputeRewards(context.Background(), rewards.Query{}.ForMonth("March"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "computed rewards")
	assert.Contains(t, out, "selection=range")
	assert.Contains(t, out, "transactions=1")
}

func TestListTransactions(t *testing.T) {
	svc, _ := newTestService(t, rewards.Options{})

	txs, err := svc.ListTransactions(context.Background(), rewards.Query{}.ForCustomer(1).ForMonth("January"))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, rewards.Date(2026, time.January, 5), txs[0].Date)
}

// =============================================================================
// WRITES
// =============================================================================

func TestCreateCustomer(t *testing.T) {
	svc, _ := newTestService(t, rewards.Options{})
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, "Alex")
	require.NoError(t, err)
	assert.Equal(t, rewards.CustomerID(3), c.ID)

	_, err = svc.CreateCustomer(ctx, "")
	assert.ErrorIs(t, err, rewards.ErrInvalidInput)

	customers, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 3)
}

func TestRecordTransaction(t *testing.T) {
	svc, _ := newTestService(t, rewards.Options{})
	ctx := context.Background()

	tx, err := svc.RecordTransaction(ctx, 2, decimal.NewFromInt(130), "2026-03-01")
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
	assert.Equal(t, "March", tx.MonthLabel())

	res, err := svc.ComputeRewards(ctx, rewards.Query{}.ForCustomer(2).ForMonth("March"))
	require.NoError(t, err)
	assert.Equal(t, "110", res.TotalPerCustomer[2].String())
}

func TestRecordTransaction_Errors(t *testing.T) {
	svc, _ := newTestService(t, rewards.Options{})
	ctx := context.Background()

	_, err := svc.RecordTransaction(ctx, 1, decimal.NewFromInt(-1), "2026-03-01")
	assert.ErrorIs(t, err, rewards.ErrInvalidAmount)

	_, err = svc.RecordTransaction(ctx, 1, decimal.NewFromInt(10), "March 1st")
	assert.ErrorIs(t, err, rewards.ErrInvalidInput)

	_, err = svc.RecordTransaction(ctx, 0, decimal.NewFromInt(10), "2026-03-01")
	assert.ErrorIs(t, err, rewards.ErrInvalidCustomerID)

	_, err = svc.RecordTransaction(ctx, 8, decimal.NewFromInt(10), "2026-03-01")
	assert.ErrorIs(t, err, rewards.ErrCustomerNotFound)
}
