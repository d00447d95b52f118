/*
Package rewards computes loyalty reward points from purchase transactions.

PURPOSE:
  Given an optional customer and an optional calendar month, the engine
  selects the matching purchase transactions from a store, converts each
  purchase amount into points with a tiered spending rule, and rolls the
  points up into three summary views.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: an immutable purchase record owned by the store
  - Customer: the owner of transactions, used as a grouping key
  - Month label: full English month name, year discarded

PIPELINE:
  Query ──► FilterResolver ──► Selection ──► Selector ──► []Transaction
                                                              │
  Result ◄──────────────── Aggregator (Calculator per tx) ◄───┘

PRECISION:
  Amounts and points are decimal.Decimal. Sums across many transactions
  are exact, so rollups compare bit-for-bit across runs.

MONTH LABELS IGNORE THE YEAR:
  A purchase in March 2024 and one in March 2025 both land in "March".
  Month filtering, on the other hand, always uses the current year.
  The two behaviors are intentionally asymmetric; see filter.go.

SEE ALSO:
  - calculator.go: tiered rule
  - filter.go: query → selection
  - selector.go: selection → store call
  - aggregate.go: transactions → rollups
  - service.go: validation and orchestration
*/
package rewards

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// CustomerID identifies a customer in the store.
type CustomerID int64

func (id CustomerID) String() string { return strconv.FormatInt(int64(id), 10) }

// TransactionID identifies a purchase transaction in the store.
type TransactionID int64

// =============================================================================
// CUSTOMER
// =============================================================================

// Customer owns purchase transactions. The engine only reads its ID.
type Customer struct {
	ID   CustomerID
	Name string
}

// =============================================================================
// TRANSACTION - Immutable purchase record
// =============================================================================

// Transaction is a single purchase. Date carries no time-of-day component.
type Transaction struct {
	ID         TransactionID
	CustomerID CustomerID
	Amount     decimal.Decimal
	Date       time.Time
}

// MonthLabel returns the grouping key for the transaction: the full English
// name of its calendar month. The year is discarded.
func (t Transaction) MonthLabel() string {
	return MonthLabel(t.Date)
}

// MonthLabel returns the full English month name of d ("January" … "December").
func MonthLabel(d time.Time) string {
	return d.Month().String()
}

// Date returns the calendar date as UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire and storage format for transaction dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
