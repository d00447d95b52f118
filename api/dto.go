/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the rewards model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

WIRE SHAPE (RewardsDTO):
  {
    "rewardsPerCustomer":      {"1": {"January": 90, "February": 25}},
    "rewardsPerMonth":         {"January": 90, "February": 25},
    "totalRewardsPerCustomer": {"1": 115}
  }
  Customer ids are object keys and therefore strings. Points are JSON
  numbers; the exact values stay decimal internally.

SEE ALSO:
  - handlers.go: Uses these types
  - rewards/aggregate.go: Result
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/customer-rewards/rewards"
	"github.com/warp/customer-rewards/seed"
)

// =============================================================================
// REWARDS
// =============================================================================

// RewardsDTO is the JSON form of rewards.Result.
type RewardsDTO struct {
	RewardsPerCustomer      map[string]map[string]float64 `json:"rewardsPerCustomer"`
	RewardsPerMonth         map[string]float64            `json:"rewardsPerMonth"`
	TotalRewardsPerCustomer map[string]float64            `json:"totalRewardsPerCustomer"`
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// CustomerDTO represents a customer in API responses.
type CustomerDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateCustomerRequest is the body of POST /api/customers.
type CreateCustomerRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionDTO represents a purchase. Points are the reward for this
// purchase alone.
type TransactionDTO struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customerId"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`
	Month      string          `json:"month"`
	Points     decimal.Decimal `json:"points"`
}

// CreateTransactionRequest is the body of POST /api/transactions. Amount
// accepts a JSON number or a decimal string.
type CreateTransactionRequest struct {
	CustomerID int64           `json:"customerId"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes an embedded dataset.
type ScenarioDTO struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	Customers    int    `json:"customers"`
	Transactions int    `json:"transactions"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// LoadScenarioResponse reports what a scenario load stored.
type LoadScenarioResponse struct {
	Status   string       `json:"status"`
	Scenario string       `json:"scenario"`
	Loaded   seed.Summary `json:"loaded"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// NewRewardsDTO converts res into its wire form.
func NewRewardsDTO(res *rewards.Result) RewardsDTO {
	dto := RewardsDTO{
		RewardsPerCustomer:      make(map[string]map[string]float64, len(res.PerCustomerPerMonth)),
		RewardsPerMonth:         make(map[string]float64, len(res.PerMonth)),
		TotalRewardsPerCustomer: make(map[string]float64, len(res.TotalPerCustomer)),
	}
	for customer, months := range res.PerCustomerPerMonth {
		m := make(map[string]float64, len(months))
		for month, points := range months {
			m[month] = points.InexactFloat64()
		}
		dto.RewardsPerCustomer[customer.String()] = m
	}
	for month, points := range res.PerMonth {
		dto.RewardsPerMonth[month] = points.InexactFloat64()
	}
	for customer, points := range res.TotalPerCustomer {
		dto.TotalRewardsPerCustomer[customer.String()] = points.InexactFloat64()
	}
	return dto
}

func toCustomerDTO(c rewards.Customer) CustomerDTO {
	return CustomerDTO{ID: int64(c.ID), Name: c.Name}
}

func toTransactionDTO(tx rewards.Transaction, calc rewards.Calculator) TransactionDTO {
	return TransactionDTO{
		ID:         int64(tx.ID),
		CustomerID: int64(tx.CustomerID),
		Amount:     tx.Amount,
		Date:       tx.Date.Format(rewards.DateLayout),
		Month:      tx.MonthLabel(),
		Points:     calc.Points(tx.Amount),
	}
}

func toScenarioDTO(ds *seed.Dataset) ScenarioDTO {
	return ScenarioDTO{
		ID:           ds.Name,
		Description:  ds.Description,
		Customers:    len(ds.Customers),
		Transactions: len(ds.Transactions),
	}
}
