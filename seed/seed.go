/*
Package seed loads customer and purchase fixtures into a rewards store.

PURPOSE:
  Datasets are small YAML documents used for demos, local development and
  tests. A few are embedded as named scenarios; any other file can be
  loaded from disk.

FORMAT:
  name: default
  description: ...
  customers:
    - {id: 1, name: John}
  transactions:
    - {customer: 1, amount: "120.00", date: "2025-01-05"}
    - {customer: 1, amount: "75.00", month: February, day: 11}
    - {customer: 1, amount: "80.00", month: March, day: 2, years_ago: 1}

  A transaction carries either an absolute date, or a month/day pair
  resolved against the current year (minus years_ago) when the dataset is
  applied. Relative dates keep month-filtered demos meaningful in any year.

HOW SCENARIOS WORK:
 1. Reset the store
 2. Save customers with their fixture ids
 3. Save transactions with resolved dates

SEE ALSO:
  - api/scenarios.go: list/load endpoints
  - cmd/rewards: `seed` command
*/
package seed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/customer-rewards/rewards"
)

//go:embed scenarios/*.yaml
var scenariosFS embed.FS

// ErrUnknownScenario is returned for a scenario name with no embedded dataset.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// DATASET
// =============================================================================

// Dataset is a set of customers and their purchases.
type Dataset struct {
	Name         string               `yaml:"name"`
	Description  string               `yaml:"description"`
	Customers    []CustomerFixture    `yaml:"customers" validate:"dive"`
	Transactions []TransactionFixture `yaml:"transactions" validate:"dive"`
}

// CustomerFixture is a customer with a fixed id.
type CustomerFixture struct {
	ID   int64  `yaml:"id" validate:"gt=0"`
	Name string `yaml:"name" validate:"required"`
}

// TransactionFixture is a purchase. Either Date or Month+Day is set.
type TransactionFixture struct {
	Customer int64  `yaml:"customer" validate:"gt=0"`
	Amount   string `yaml:"amount" validate:"required"`
	Date     string `yaml:"date" validate:"omitempty,datetime=2006-01-02"`
	Month    string `yaml:"month" validate:"required_without=Date"`
	Day      int    `yaml:"day" validate:"required_without=Date,omitempty,min=1,max=31"`
	YearsAgo int    `yaml:"years_ago" validate:"min=0"`
}

// Summary reports what Apply stored.
type Summary struct {
	Customers    int `json:"customers"`
	Transactions int `json:"transactions"`
}

var validate = validator.New()

// Parse decodes and validates a YAML dataset.
func Parse(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed: decode dataset: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// LoadFile parses the dataset at path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Validate checks field formats, amounts, month names and that every
// transaction references a customer in the dataset.
func (d *Dataset) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("seed: %w: %v", rewards.ErrInvalidInput, err)
	}

	known := make(map[int64]bool, len(d.Customers))
	for _, c := range d.Customers {
		known[c.ID] = true
	}
	for i, tx := range d.Transactions {
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			return fmt.Errorf("seed: transaction %d: %w: amount %q", i, rewards.ErrInvalidAmount, tx.Amount)
		}
		if amount.IsNegative() {
			return fmt.Errorf("seed: transaction %d: %w: amount %s is negative", i, rewards.ErrInvalidAmount, amount)
		}
		if tx.Date == "" {
			if _, err := rewards.ParseMonth(tx.Month); err != nil {
				return fmt.Errorf("seed: transaction %d: %w", i, err)
			}
		}
		if !known[tx.Customer] {
			return fmt.Errorf("seed: transaction %d: %w", i, &rewards.CustomerNotFoundError{ID: rewards.CustomerID(tx.Customer)})
		}
	}
	return nil
}

// Resolve converts fixtures into transactions. Relative dates use the year
// reported by clock.
func (d *Dataset) Resolve(clock rewards.Clock) ([]rewards.Transaction, error) {
	if clock == nil {
		clock = rewards.SystemClock
	}
	year := clock().Year()

	txs := make([]rewards.Transaction, 0, len(d.Transactions))
	for i, f := range d.Transactions {
		amount, err := decimal.NewFromString(f.Amount)
		if err != nil {
			return nil, fmt.Errorf("seed: transaction %d: %w", i, err)
		}

		var date time.Time
		if f.Date != "" {
			date, err = rewards.ParseDate(f.Date)
			if err != nil {
				return nil, fmt.Errorf("seed: transaction %d: %w", i, err)
			}
		} else {
			month, err := rewards.ParseMonth(f.Month)
			if err != nil {
				return nil, fmt.Errorf("seed: transaction %d: %w", i, err)
			}
			y := year - f.YearsAgo
			date = rewards.Date(y, month, f.Day)
			if date.Month() != month {
				return nil, fmt.Errorf("seed: transaction %d: %w: %s %d does not exist in %d",
					i, rewards.ErrInvalidInput, month, f.Day, y)
			}
		}

		txs = append(txs, rewards.Transaction{
			CustomerID: rewards.CustomerID(f.Customer),
			Amount:     amount,
			Date:       date,
		})
	}
	return txs, nil
}

// Apply stores the dataset's customers and transactions. The store is not
// reset; call Load for a clean slate.
func (d *Dataset) Apply(ctx context.Context, repo rewards.Repository, clock rewards.Clock) (Summary, error) {
	txs, err := d.Resolve(clock)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, c := range d.Customers {
		if _, err := repo.SaveCustomer(ctx, rewards.Customer{ID: rewards.CustomerID(c.ID), Name: c.Name}); err != nil {
			return sum, fmt.Errorf("seed: save customer %d: %w", c.ID, err)
		}
		sum.Customers++
	}
	for _, tx := range txs {
		if _, err := repo.SaveTransaction(ctx, tx); err != nil {
			return sum, fmt.Errorf("seed: save transaction for customer %d: %w", tx.CustomerID, err)
		}
		sum.Transactions++
	}
	return sum, nil
}

// Load resets repo and applies the dataset.
func (d *Dataset) Load(ctx context.Context, repo rewards.Repository, clock rewards.Clock) (Summary, error) {
	if err := repo.Reset(ctx); err != nil {
		return Summary{}, fmt.Errorf("seed: reset store: %w", err)
	}
	return d.Apply(ctx, repo, clock)
}

// =============================================================================
// EMBEDDED SCENARIOS
// =============================================================================

// Scenario returns the embedded dataset called name.
func Scenario(name string) (*Dataset, error) {
	f, err := scenariosFS.Open(path.Join("scenarios", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	defer f.Close()
	return Parse(f)
}

// Scenarios returns every embedded dataset, ordered by name.
func Scenarios() ([]*Dataset, error) {
	entries, err := scenariosFS.ReadDir("scenarios")
	if err != nil {
		return nil, err
	}

	var out []*Dataset
	for _, e := range entries {
		ds, err := Scenario(strings.TrimSuffix(e.Name(), ".yaml"))
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
