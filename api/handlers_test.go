/*
handlers_test.go - HTTP tests for the rewards API

Tests for:
- Rewards computation across the four filter modes
- Error mapping (400 / 404) and the error body
- Customer and transaction writes
- Workbook export
- Middleware (security headers, rate limiting)
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/customer-rewards/logging"
	"github.com/warp/customer-rewards/report"
	"github.com/warp/customer-rewards/rewards"
	"github.com/warp/customer-rewards/seed"
	"github.com/warp/customer-rewards/store/sqlite"
)

var testNow = time.Date(2026, time.April, 15, 9, 30, 0, 0, time.UTC)

// =============================================================================
// TEST SETUP
// =============================================================================

func setupTestHandler(t *testing.T) (*Handler, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := rewards.FixedClock(testNow)
	svc := rewards.NewService(rewards.Options{Store: store, Clock: clock, Logger: logging.Discard()})
	return NewHandler(svc, store, clock, logging.Discard()), store
}

func setupTestRouter(t *testing.T, scenario string) (*chi.Mux, *sqlite.Store) {
	h, store := setupTestHandler(t)
	if scenario != "" {
		ds, err := seed.Scenario(scenario)
		require.NoError(t, err)
		_, err = ds.Load(context.Background(), store, h.Clock)
		require.NoError(t, err)
	}
	return NewRouter(h, RouterOptions{Logger: logging.Discard()}), store
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeRewards(t *testing.T, rec *httptest.ResponseRecorder) RewardsDTO {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dto RewardsDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
	return dto
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// =============================================================================
// REWARDS
// =============================================================================

func TestGetRewards_AllCustomers(t *testing.T) {
	// GIVEN: The default dataset
	// WHEN: Requesting rewards without filters
	// THEN: Every customer appears; last year's January purchase joins January

	router, _ := setupTestRouter(t, "default")
	dto := decodeRewards(t, do(t, router, http.MethodGet, "/api/rewards", nil))

	assert.Len(t, dto.TotalRewardsPerCustomer, 4)
	assert.InDelta(t, 200, dto.TotalRewardsPerCustomer["1"], 1e-9)
	assert.InDelta(t, 360, dto.TotalRewardsPerCustomer["2"], 1e-9)
	assert.InDelta(t, 519.99, dto.TotalRewardsPerCustomer["3"], 1e-9)
	assert.InDelta(t, 151, dto.TotalRewardsPerCustomer["4"], 1e-9)

	assert.InDelta(t, 491, dto.RewardsPerMonth["January"], 1e-9)
	assert.InDelta(t, 74.99, dto.RewardsPerMonth["February"], 1e-9)
	assert.InDelta(t, 665, dto.RewardsPerMonth["March"], 1e-9)
}

func TestGetRewards_CustomerOnly(t *testing.T) {
	router, _ := setupTestRouter(t, "default")
	dto := decodeRewards(t, do(t, router, http.MethodGet, "/api/rewards?customerId=1", nil))

	assert.Equal(t, map[string]map[string]float64{
		"1": {"January": 90, "February": 25, "March": 85},
	}, dto.RewardsPerCustomer)
	assert.Equal(t, map[string]float64{"January": 90, "February": 25, "March": 85}, dto.RewardsPerMonth)
	assert.Equal(t, map[string]float64{"1": 200}, dto.TotalRewardsPerCustomer)
}

func TestGetRewards_MonthOnly_CurrentYear(t *testing.T) {
	// GIVEN: Customer 4 bought in January this year and last year
	// WHEN: Filtering by month=january
	// THEN: Only this year's purchase counts

	router, _ := setupTestRouter(t, "default")
	dto := decodeRewards(t, do(t, router, http.MethodGet, "/api/rewards?month=january", nil))

	assert.Equal(t, map[string]float64{"1": 90, "2": 250, "4": 1}, dto.TotalRewardsPerCustomer)
	assert.Equal(t, map[string]float64{"January": 341}, dto.RewardsPerMonth)
}

func TestGetRewards_CustomerAndMonth(t *testing.T) {
	router, _ := setupTestRouter(t, "default")
	dto := decodeRewards(t, do(t, router, http.MethodGet, "/api/rewards?customerId=3&month=FEBRUARY", nil))

	assert.Len(t, dto.RewardsPerCustomer, 1)
	assert.InDelta(t, 49.99, dto.RewardsPerCustomer["3"]["February"], 1e-9)
	assert.InDelta(t, 49.99, dto.TotalRewardsPerCustomer["3"], 1e-9)
}

func TestGetRewards_CustomerOnly_CollapsesYears(t *testing.T) {
	router, _ := setupTestRouter(t, "default")
	dto := decodeRewards(t, do(t, router, http.MethodGet, "/api/rewards?customerId=4", nil))

	assert.Equal(t, map[string]float64{"January": 151}, dto.RewardsPerCustomer["4"])
}

func TestGetRewards_EmptyStore(t *testing.T) {
	// GIVEN: No data
	// WHEN: Requesting rewards
	// THEN: Three empty objects, not nulls

	router, _ := setupTestRouter(t, "")
	rec := do(t, router, http.MethodGet, "/api/rewards", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rewardsPerCustomer":{},"rewardsPerMonth":{},"totalRewardsPerCustomer":{}}`, rec.Body.String())
}

func TestGetRewards_Errors(t *testing.T) {
	router, _ := setupTestRouter(t, "default")

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"zero customer", "/api/rewards?customerId=0", http.StatusBadRequest, codeInvalidCustomerID},
		{"negative customer", "/api/rewards?customerId=-3", http.StatusBadRequest, codeInvalidCustomerID},
		{"non-numeric customer", "/api/rewards?customerId=abc", http.StatusBadRequest, codeInvalidInput},
		{"unknown customer", "/api/rewards?customerId=99", http.StatusNotFound, codeCustomerNotFound},
		{"misspelled month", "/api/rewards?month=Jani", http.StatusBadRequest, codeInvalidMonth},
		{"abbreviated month", "/api/rewards?customerId=1&month=Jan", http.StatusBadRequest, codeInvalidMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Details)
		})
	}
}

func TestExportRewards(t *testing.T) {
	router, _ := setupTestRouter(t, "default")
	rec := do(t, router, http.MethodGet, "/api/rewards/export?customerId=1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rewards.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetTotals)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Customer", "Name", "Points"}, {"1", "John", "200"}}, rows)
}

func TestExportRewards_UnknownCustomer(t *testing.T) {
	router, _ := setupTestRouter(t, "default")
	rec := do(t, router, http.MethodGet, "/api/rewards/export?customerId=42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// CUSTOMERS & TRANSACTIONS
// =============================================================================

func TestCreateCustomerAndTransaction(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: Creating a customer and recording a 150.00 purchase this April
	// THEN: The customer earns 150 points in April

	router, _ := setupTestRouter(t, "")

	rec := do(t, router, http.MethodPost, "/api/customers", CreateCustomerRequest{Name: "Nina"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var customer CustomerDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&customer))
	assert.Equal(t, "Nina", customer.Name)
	assert.Positive(t, customer.ID)

	body := map[string]any{"customerId": customer.ID, "amount": "150.00", "date": "2026-04-02"}
	rec = do(t, router, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tx TransactionDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tx))
	assert.Equal(t, "April", tx.Month)
	assert.Equal(t, "150", tx.Points.String())

	rec = do(t, router, http.MethodGet, "/api/customers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var customers []CustomerDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&customers))
	assert.Equal(t, []CustomerDTO{customer}, customers)

	dto := decodeRewards(t, do(t, router, http.MethodGet, "/api/rewards?month=April", nil))
	assert.Len(t, dto.TotalRewardsPerCustomer, 1)
	for _, total := range dto.TotalRewardsPerCustomer {
		assert.InDelta(t, 150, total, 1e-9)
	}
}

func TestCreateCustomer_Invalid(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	rec := do(t, router, http.MethodPost, "/api/customers", CreateCustomerRequest{Name: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/customers", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransaction_Errors(t *testing.T) {
	router, _ := setupTestRouter(t, "default")

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"negative amount", map[string]any{"customerId": 1, "amount": -5, "date": "2026-01-01"}, http.StatusBadRequest},
		{"bad date", map[string]any{"customerId": 1, "amount": 5, "date": "01/02/2026"}, http.StatusBadRequest},
		{"zero customer", map[string]any{"customerId": 0, "amount": 5, "date": "2026-01-01"}, http.StatusBadRequest},
		{"unknown customer", map[string]any{"customerId": 77, "amount": 5, "date": "2026-01-01"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestListTransactions_ByCustomerAndMonth(t *testing.T) {
	router, _ := setupTestRouter(t, "default")
	rec := do(t, router, http.MethodGet, "/api/transactions?customerId=2&month=march", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var txs []TransactionDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "2026-03-30", txs[0].Date)
	assert.Equal(t, "110", txs[0].Points.String())
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestHealthz_SecurityHeaders(t *testing.T) {
	router, _ := setupTestRouter(t, "")
	rec := do(t, router, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRateLimit(t *testing.T) {
	h, _ := setupTestHandler(t)
	router := NewRouter(h, RouterOptions{Logger: logging.Discard(), RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/customers", nil).Code)
	}
	rec := do(t, router, http.MethodGet, "/api/customers", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)
}
