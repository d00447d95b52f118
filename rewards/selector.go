package rewards

import (
	"context"
	"fmt"
)

// Selector dispatches a Selection to exactly one TransactionStore retrieval.
// It does not filter, sort or deduplicate what the store returns.
type Selector struct {
	Store TransactionStore
}

// NewSelector creates a selector over store.
func NewSelector(store TransactionStore) *Selector {
	return &Selector{Store: store}
}

// Select retrieves the transactions for sel.
func (s *Selector) Select(ctx context.Context, sel Selection) ([]Transaction, error) {
	var (
		txs []Transaction
		err error
	)
	switch sel.Kind {
	case SelectByCustomerAndRange:
		txs, err = s.Store.FindByCustomerAndDateRange(ctx, sel.CustomerID, sel.Range.Start, sel.Range.End)
	case SelectByCustomer:
		txs, err = s.Store.FindByCustomer(ctx, sel.CustomerID)
	case SelectByRange:
		txs, err = s.Store.FindByDateRange(ctx, sel.Range.Start, sel.Range.End)
	case SelectAll:
		txs, err = s.Store.FindAll(ctx)
	default:
		return nil, fmt.Errorf("select transactions: unknown selection kind %d", sel.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("select transactions (%s): %w", sel.Kind, err)
	}
	return txs, nil
}
