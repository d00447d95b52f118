/*
handlers.go - HTTP API handlers for the customer rewards service

PURPOSE:
  Exposes the rewards engine via REST API. Handles HTTP request/response
  and JSON serialization, and delegates to rewards.Service.

ENDPOINTS:
  Rewards:
    GET    /api/rewards?customerId=&month=         Compute rewards
    GET    /api/rewards/export?customerId=&month=  Same, as an XLSX workbook

  Customers:
    GET    /api/customers              List customers
    POST   /api/customers              Create customer

  Transactions:
    GET    /api/transactions?customerId=&month=  List selected purchases
    POST   /api/transactions                     Record purchase

  Scenarios:
    GET    /api/scenarios              List demo datasets
    GET    /api/scenarios/current      Currently loaded dataset
    POST   /api/scenarios/load         Reset and load a dataset

REQUEST FLOW:
  1. Parse query parameters or body
  2. Call the service (validation lives there)
  3. Serialize response
  4. Map errors through respondError

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: invalid customer id, invalid month, malformed input
  - 404: customer not found
  - 500: internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo dataset handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/warp/customer-rewards/logging"
	"github.com/warp/customer-rewards/report"
	"github.com/warp/customer-rewards/rewards"
	"github.com/warp/customer-rewards/seed"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service    *rewards.Service
	Store      rewards.Repository
	Calculator rewards.Calculator
	Clock      rewards.Clock
	Logger     *slog.Logger

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a handler around svc. store must be the repository
// svc was built on; scenarios reset and reload it directly.
func NewHandler(svc *rewards.Service, store rewards.Repository, clock rewards.Clock, logger *slog.Logger) *Handler {
	if clock == nil {
		clock = rewards.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Service:    svc,
		Store:      store,
		Calculator: rewards.DefaultRule,
		Clock:      clock,
		Logger:     logger,
	}
}

// =============================================================================
// REWARDS HANDLERS
// =============================================================================

// GetRewards computes the three rollups for the optional customerId and
// month query parameters.
func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.Service.ComputeRewards(r.Context(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewRewardsDTO(res))
}

// ExportRewards computes rewards like GetRewards and returns them as an
// XLSX workbook.
func (h *Handler) ExportRewards(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	res, err := h.Service.ComputeRewards(ctx, q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	customers, err := h.Service.ListCustomers(ctx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	f, err := report.Build(res, report.CustomerNames(customers))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="rewards.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "write workbook", slog.Any("error", err))
	}
}

// =============================================================================
// CUSTOMER HANDLERS
// =============================================================================

// ListCustomers returns all customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Service.ListCustomers(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	dtos := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		dtos[i] = toCustomerDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCustomer creates a customer with a store-assigned id.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", codeInvalidInput, err)
		return
	}

	c, err := h.Service.CreateCustomer(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerDTO(c))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns the purchases the query selects, with the
// points each one earns.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	txs, err := h.Service.ListTransactions(r.Context(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx, h.Calculator)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTransaction records a purchase for an existing customer.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", codeInvalidInput, err)
		return
	}

	tx, err := h.Service.RecordTransaction(r.Context(), rewards.CustomerID(req.CustomerID), req.Amount, req.Date)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx, h.Calculator))
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

const (
	codeInvalidCustomerID = "INVALID_CUSTOMER_ID"
	codeCustomerNotFound  = "CUSTOMER_NOT_FOUND"
	codeInvalidMonth      = "INVALID_MONTH"
	codeInvalidInput      = "INVALID_INPUT"
	codeInternal          = "INTERNAL_ERROR"
)

// parseQuery reads the optional customerId and month parameters. An empty
// parameter counts as absent.
func parseQuery(r *http.Request) (rewards.Query, error) {
	var q rewards.Query
	values := r.URL.Query()

	if raw := strings.TrimSpace(values.Get("customerId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, &queryParamError{Param: "customerId", Value: raw}
		}
		q = q.ForCustomer(rewards.CustomerID(id))
	}
	if month := strings.TrimSpace(values.Get("month")); month != "" {
		q = q.ForMonth(month)
	}
	return q, nil
}

type queryParamError struct {
	Param string
	Value string
}

func (e *queryParamError) Error() string {
	return "invalid value " + strconv.Quote(e.Value) + " for parameter " + e.Param
}

func (e *queryParamError) Unwrap() error { return rewards.ErrInvalidInput }

// respondError maps err onto a status code and error code.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status  int
		code    string
		message string
	)
	switch {
	case errors.Is(err, rewards.ErrCustomerNotFound):
		status, code, message = http.StatusNotFound, codeCustomerNotFound, "Customer not found"
	case errors.Is(err, rewards.ErrInvalidCustomerID):
		status, code, message = http.StatusBadRequest, codeInvalidCustomerID, "Invalid customer id"
	case errors.Is(err, rewards.ErrInvalidMonth):
		status, code, message = http.StatusBadRequest, codeInvalidMonth, "Invalid month"
	case errors.Is(err, rewards.ErrInvalidInput),
		errors.Is(err, rewards.ErrInvalidAmount),
		errors.Is(err, seed.ErrUnknownScenario):
		status, code, message = http.StatusBadRequest, codeInvalidInput, "Invalid input"
	default:
		ctx := r.Context()
		logging.FromContext(ctx).ErrorContext(ctx, "request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Internal error", codeInternal, nil)
		return
	}
	writeError(w, status, message, code, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
