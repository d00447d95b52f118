/*
filter.go - Query → Selection

PURPOSE:
  Turns an optional customer id and an optional month name into one of
  four concrete selections against the transaction store:

    customer  month   selection
    --------  -----   ---------------------------------------------
    set       set     SelectByCustomerAndRange(customer, month range)
    set       -       SelectByCustomer(customer)
    -         set     SelectByRange(month range)
    -         -       SelectAll

MONTH RANGE:
  First through last calendar day of the named month in the CURRENT year,
  taken from the resolver's Clock. Both ends are inclusive.

  This means a month filter never returns purchases from earlier years,
  while customer-only and unfiltered queries do. Those older purchases
  then share month labels with current-year ones during aggregation.
  Callers mixing the two modes need to be aware of the asymmetry.

MONTH NAMES:
  Matched case-insensitively against "January" … "December". Anything else
  is an *InvalidMonthError; the resolver never defaults.
*/
package rewards

import (
	"strings"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// =============================================================================
// QUERY
// =============================================================================

// Query is the caller's filter. Nil fields are absent.
type Query struct {
	CustomerID *CustomerID
	Month      *string
}

// ForCustomer sets the customer filter.
func (q Query) ForCustomer(id CustomerID) Query {
	q.CustomerID = &id
	return q
}

// ForMonth sets the month filter.
func (q Query) ForMonth(month string) Query {
	q.Month = &month
	return q
}

// =============================================================================
// DATE RANGE
// =============================================================================

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls on a day within the range.
func (r DateRange) Contains(d time.Time) bool {
	day := Date(d.Year(), d.Month(), d.Day())
	return !day.Before(r.Start) && !day.After(r.End)
}

func (r DateRange) String() string {
	return "[" + r.Start.Format(DateLayout) + ", " + r.End.Format(DateLayout) + "]"
}

// ParseMonth matches name against the twelve month names, ignoring case.
func ParseMonth(name string) (time.Month, error) {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return 0, &InvalidMonthError{Month: name}
}

// IsValidMonth reports whether name is a month name.
func IsValidMonth(name string) bool {
	_, err := ParseMonth(name)
	return err == nil
}

// MonthRange returns the first and last day of the named month in year.
func MonthRange(name string, year int) (DateRange, error) {
	month, err := ParseMonth(name)
	if err != nil {
		return DateRange{}, err
	}
	start := Date(year, month, 1)
	return DateRange{Start: start, End: start.AddDate(0, 1, -1)}, nil
}

// =============================================================================
// SELECTION - Tagged variant produced once, matched once
// =============================================================================

// SelectionKind tags which store retrieval a Selection maps to.
type SelectionKind int

const (
	SelectAll SelectionKind = iota
	SelectByCustomer
	SelectByRange
	SelectByCustomerAndRange
)

func (k SelectionKind) String() string {
	switch k {
	case SelectAll:
		return "all"
	case SelectByCustomer:
		return "customer"
	case SelectByRange:
		return "range"
	case SelectByCustomerAndRange:
		return "customer_and_range"
	default:
		return "unknown"
	}
}

// Selection is a resolved query. CustomerID is set for the customer kinds;
// Range is set for the range kinds.
type Selection struct {
	Kind       SelectionKind
	CustomerID CustomerID
	Range      DateRange
}

// =============================================================================
// RESOLVER
// =============================================================================

// FilterResolver resolves queries against the year reported by Clock.
type FilterResolver struct {
	Clock Clock
}

// NewFilterResolver returns a resolver on clock, or the system clock if nil.
func NewFilterResolver(clock Clock) *FilterResolver {
	if clock == nil {
		clock = SystemClock
	}
	return &FilterResolver{Clock: clock}
}

// Resolve converts q into a Selection.
func (r *FilterResolver) Resolve(q Query) (Selection, error) {
	var (
		rng      DateRange
		hasRange bool
	)
	if q.Month != nil {
		var err error
		rng, err = MonthRange(*q.Month, r.now().Year())
		if err != nil {
			return Selection{}, err
		}
		hasRange = true
	}

	switch {
	case q.CustomerID != nil && hasRange:
		return Selection{Kind: SelectByCustomerAndRange, CustomerID: *q.CustomerID, Range: rng}, nil
	case q.CustomerID != nil:
		return Selection{Kind: SelectByCustomer, CustomerID: *q.CustomerID}, nil
	case hasRange:
		return Selection{Kind: SelectByRange, Range: rng}, nil
	default:
		return Selection{Kind: SelectAll}, nil
	}
}

func (r *FilterResolver) now() time.Time {
	if r.Clock == nil {
		return SystemClock()
	}
	return r.Clock()
}
