/*
service.go - Query orchestration

REQUEST FLOW (ComputeRewards):
  1. Validate query fields (positive customer id, canonical month name)
  2. Check the customer exists
  3. Resolve the query into a Selection
  4. Select transactions from the store
  5. Aggregate into a Result

Steps 1-2 fail with typed errors (see errors.go); the transport maps
them onto status codes. The resolver re-checks the month name on its own,
so a caller skipping validation still cannot pass garbage through.

The Service also hosts the small write paths used by the API and seeding
(customers, transactions) so that validation lives in one place.
*/
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Options configures a Service.
type Options struct {
	Store      Repository
	Calculator Calculator
	Clock      Clock
	Logger     *slog.Logger

	// Workers above 1 enables parallel aggregation for inputs of at least
	// ParallelMin transactions.
	Workers     int
	ParallelMin int
}

// Service computes rewards and records purchases.
type Service struct {
	store       Repository
	resolver    *FilterResolver
	selector    *Selector
	aggregator  *Aggregator
	logger      *slog.Logger
	validate    *validator.Validate
	workers     int
	parallelMin int
}

// NewService wires a Service. Nil Calculator, Clock and Logger fall back to
// DefaultRule, SystemClock and slog.Default.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       opts.Store,
		resolver:    NewFilterResolver(opts.Clock),
		selector:    NewSelector(opts.Store),
		aggregator:  NewAggregator(opts.Calculator),
		logger:      logger.With(slog.String("component", "rewards")),
		validate:    newValidator(),
		workers:     opts.Workers,
		parallelMin: opts.ParallelMin,
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

type queryInput struct {
	CustomerID *int64  `validate:"omitnil,gt=0"`
	Month      *string `validate:"omitnil,month"`
}

type customerInput struct {
	Name string `validate:"required,max=200"`
}

type transactionInput struct {
	CustomerID int64  `validate:"gt=0"`
	Date       string `validate:"required,datetime=2006-01-02"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		return IsValidMonth(fl.Field().String())
	})
	return v
}

// ValidateQuery checks q without touching the store.
func (s *Service) ValidateQuery(q Query) error {
	in := queryInput{Month: q.Month}
	if q.CustomerID != nil {
		id := int64(*q.CustomerID)
		in.CustomerID = &id
	}
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	switch verrs[0].StructField() {
	case "CustomerID":
		return &InvalidCustomerError{ID: *q.CustomerID}
	case "Month":
		return &InvalidMonthError{Month: *q.Month}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidInput, verrs[0].Error())
	}
}

func (s *Service) ensureCustomer(ctx context.Context, id CustomerID) error {
	exists, err := s.store.CustomerExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check customer %d: %w", id, err)
	}
	if !exists {
		return &CustomerNotFoundError{ID: id}
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// ComputeRewards validates q, selects the matching transactions and
// aggregates them.
func (s *Service) ComputeRewards(ctx context.Context, q Query) (*Result, error) {
	txs, sel, err := s.selectTransactions(ctx, q)
	if err != nil {
		return nil, err
	}

	var result *Result
	if s.workers > 1 && len(txs) >= s.parallelMin {
		result, err = s.aggregator.AggregateParallel(ctx, txs, s.workers)
		if err != nil {
			return nil, fmt.Errorf("aggregate rewards: %w", err)
		}
	} else {
		result = s.aggregator.Aggregate(txs)
	}

	s.logger.InfoContext(ctx, "computed rewards",
		slog.String("selection", sel.Kind.String()),
		slog.Int("transactions", len(txs)),
		slog.Int("customers", result.Customers()),
	)
	return result, nil
}

// ListTransactions returns the transactions q selects, without aggregating.
func (s *Service) ListTransactions(ctx context.Context, q Query) ([]Transaction, error) {
	txs, _, err := s.selectTransactions(ctx, q)
	return txs, err
}

func (s *Service) selectTransactions(ctx context.Context, q Query) ([]Transaction, Selection, error) {
	if err := s.ValidateQuery(q); err != nil {
		s.logger.WarnContext(ctx, "rejected rewards query", slog.Any("error", err))
		return nil, Selection{}, err
	}
	if q.CustomerID != nil {
		if err := s.ensureCustomer(ctx, *q.CustomerID); err != nil {
			s.logger.WarnContext(ctx, "rejected rewards query", slog.Any("error", err))
			return nil, Selection{}, err
		}
	}

	sel, err := s.resolver.Resolve(q)
	if err != nil {
		return nil, Selection{}, err
	}
	if sel.Kind == SelectByRange || sel.Kind == SelectByCustomerAndRange {
		s.logger.DebugContext(ctx, "resolved month range", slog.String("range", sel.Range.String()))
	}

	txs, err := s.selector.Select(ctx, sel)
	if err != nil {
		return nil, sel, err
	}
	for _, tx := range txs {
		s.logger.DebugContext(ctx, "selected transaction",
			slog.Int64("transaction_id", int64(tx.ID)),
			slog.Int64("customer_id", int64(tx.CustomerID)),
		)
	}
	return txs, sel, nil
}

// ListCustomers returns every customer.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.store.ListCustomers(ctx)
}

// =============================================================================
// WRITES
// =============================================================================

// CreateCustomer stores a new customer and returns it with its assigned id.
func (s *Service) CreateCustomer(ctx context.Context, name string) (Customer, error) {
	if err := s.validate.Struct(customerInput{Name: name}); err != nil {
		return Customer{}, fmt.Errorf("%w: customer name: %v", ErrInvalidInput, err)
	}
	c, err := s.store.SaveCustomer(ctx, Customer{Name: name})
	if err != nil {
		return Customer{}, fmt.Errorf("save customer: %w", err)
	}
	s.logger.InfoContext(ctx, "created customer", slog.Int64("customer_id", int64(c.ID)))
	return c, nil
}

// RecordTransaction stores a purchase for an existing customer. date is
// YYYY-MM-DD.
func (s *Service) RecordTransaction(ctx context.Context, customerID CustomerID, amount decimal.Decimal, date string) (Transaction, error) {
	if err := s.validate.Struct(transactionInput{CustomerID: int64(customerID), Date: date}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].StructField() == "CustomerID" {
			return Transaction{}, &InvalidCustomerError{ID: customerID}
		}
		return Transaction{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if amount.IsNegative() {
		return Transaction{}, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}
	d, err := ParseDate(date)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: date: %v", ErrInvalidInput, err)
	}
	if err := s.ensureCustomer(ctx, customerID); err != nil {
		return Transaction{}, err
	}

	tx, err := s.store.SaveTransaction(ctx, Transaction{CustomerID: customerID, Amount: amount, Date: d})
	if err != nil {
		return Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "recorded transaction",
		slog.Int64("transaction_id", int64(tx.ID)),
		slog.Int64("customer_id", int64(customerID)),
	)
	return tx, nil
}
