/*
aggregate.go - Transactions → three rollups

ROLLUPS:
  PerCustomerPerMonth  customer → month label → points
  PerMonth             month label → points across all customers
  TotalPerCustomer     customer → sum of that customer's monthly points

INVARIANTS (for any input):
  TotalPerCustomer[c] == Σ PerCustomerPerMonth[c][*]
  PerMonth[m]         == Σ_c PerCustomerPerMonth[c][m]

ALGORITHM:
  One pass. For each transaction: month label from its date, points from
  the Calculator, added into the nested map and the per-month map with
  get-or-insert-zero. Totals are computed from the nested map afterwards.

  Addition over decimal.Decimal is exact, so the result does not depend
  on input order. AggregateParallel relies on this: partitions are
  aggregated independently and merged.

  The aggregator folds exactly what it is given. It never re-filters by
  date or customer.
*/
package rewards

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// RESULT
// =============================================================================

// Result holds the three rollups. All maps are non-nil.
type Result struct {
	PerCustomerPerMonth map[CustomerID]map[string]decimal.Decimal
	PerMonth            map[string]decimal.Decimal
	TotalPerCustomer    map[CustomerID]decimal.Decimal
}

// NewResult returns a result with three empty maps.
func NewResult() *Result {
	return &Result{
		PerCustomerPerMonth: make(map[CustomerID]map[string]decimal.Decimal),
		PerMonth:            make(map[string]decimal.Decimal),
		TotalPerCustomer:    make(map[CustomerID]decimal.Decimal),
	}
}

// add accumulates points into the customer/month and month rollups.
// Totals are not touched; call finalize after the last add.
func (r *Result) add(customer CustomerID, month string, points decimal.Decimal) {
	r.addCustomerMonth(customer, month, points)
	r.PerMonth[month] = r.PerMonth[month].Add(points)
}

func (r *Result) addCustomerMonth(customer CustomerID, month string, points decimal.Decimal) {
	months, ok := r.PerCustomerPerMonth[customer]
	if !ok {
		months = make(map[string]decimal.Decimal)
		r.PerCustomerPerMonth[customer] = months
	}
	months[month] = months[month].Add(points)
}

// finalize recomputes TotalPerCustomer from PerCustomerPerMonth.
func (r *Result) finalize() {
	r.TotalPerCustomer = make(map[CustomerID]decimal.Decimal, len(r.PerCustomerPerMonth))
	for customer, months := range r.PerCustomerPerMonth {
		total := decimal.Zero
		for _, points := range months {
			total = total.Add(points)
		}
		r.TotalPerCustomer[customer] = total
	}
}

// Merge folds other into r and recomputes totals. Merge is associative and
// commutative; other is not modified.
func (r *Result) Merge(other *Result) {
	for customer, months := range other.PerCustomerPerMonth {
		for month, points := range months {
			r.addCustomerMonth(customer, month, points)
		}
	}
	for month, points := range other.PerMonth {
		r.PerMonth[month] = r.PerMonth[month].Add(points)
	}
	r.finalize()
}

// Customers returns the number of customers with points.
func (r *Result) Customers() int { return len(r.PerCustomerPerMonth) }

// CustomerIDs returns the customers with points in ascending id order.
func (r *Result) CustomerIDs() []CustomerID {
	ids := make([]CustomerID, 0, len(r.TotalPerCustomer))
	for id := range r.TotalPerCustomer {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedMonths returns the keys of m January first. Keys that are not
// month names sort last, alphabetically.
func SortedMonths[V any](m map[string]V) []string {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, errA := ParseMonth(labels[i])
		b, errB := ParseMonth(labels[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return labels[i] < labels[j]
		}
	})
	return labels
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator folds transactions into a Result using Calculator.
type Aggregator struct {
	Calculator Calculator
}

// NewAggregator returns an aggregator on calc, or DefaultRule if nil.
func NewAggregator(calc Calculator) *Aggregator {
	if calc == nil {
		calc = DefaultRule
	}
	return &Aggregator{Calculator: calc}
}

// Aggregate builds the three rollups for txs. Empty input yields three
// empty maps.
func (a *Aggregator) Aggregate(txs []Transaction) *Result {
	result := a.accumulate(txs)
	result.finalize()
	return result
}

func (a *Aggregator) accumulate(txs []Transaction) *Result {
	result := NewResult()
	calc := a.calculator()
	for _, tx := range txs {
		result.add(tx.CustomerID, tx.MonthLabel(), calc.Points(tx.Amount))
	}
	return result
}

// AggregateParallel splits txs into at most workers partitions, aggregates
// them concurrently and merges the partials. The result equals Aggregate(txs).
func (a *Aggregator) AggregateParallel(ctx context.Context, txs []Transaction, workers int) (*Result, error) {
	if workers <= 1 || len(txs) < 2 {
		return a.Aggregate(txs), nil
	}
	if workers > len(txs) {
		workers = len(txs)
	}

	partials := make([]*Result, workers)
	size := (len(txs) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		lo := i * size
		if lo >= len(txs) {
			partials[i] = NewResult()
			continue
		}
		hi := min(lo+size, len(txs))
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[i] = a.accumulate(txs[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := NewResult()
	for _, p := range partials {
		result.Merge(p)
	}
	return result, nil
}

func (a *Aggregator) calculator() Calculator {
	if a.Calculator == nil {
		return DefaultRule
	}
	return a.Calculator
}
