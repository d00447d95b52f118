/*
scenarios.go - Demo dataset handlers

PURPOSE:
  Exposes the embedded seed datasets so a demo or a manual test can start
  from a known store state.

AVAILABLE SCENARIOS (seed/scenarios/*.yaml):
  default:     four customers over the first quarter, one older purchase
  quarter:     one customer hitting each tier boundary
  cross-year:  the same month across several years

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create customers with fixed ids
 3. Add purchases, dated relative to the handler's clock

USAGE VIA API:
  POST /api/scenarios/load
  {"scenarioId": "default"}

NOTE:
  Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - seed/seed.go: dataset format and loader
*/
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/warp/customer-rewards/seed"
)

// ListScenarios returns the embedded datasets.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	all, err := seed.Scenarios()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	dtos := make([]ScenarioDTO, len(all))
	for i, ds := range all {
		dtos[i] = toScenarioDTO(ds)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the last loaded dataset, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	ds, err := seed.Scenario(current)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTO(ds))
}

// LoadScenario resets the store and loads a dataset.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", codeInvalidInput, err)
		return
	}

	summary, err := h.UseScenario(r.Context(), req.ScenarioID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoadScenarioResponse{Status: "loaded", Scenario: req.ScenarioID, Loaded: summary})
}

// UseScenario resets the store, loads the embedded dataset called name and
// records it as current. A failed load leaves no current scenario.
func (h *Handler) UseScenario(ctx context.Context, name string) (seed.Summary, error) {
	ds, err := seed.Scenario(name)
	if err != nil {
		return seed.Summary{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	summary, err := ds.Load(ctx, h.Store, h.Clock)
	if err != nil {
		return summary, err
	}
	h.currentScenario = ds.Name

	h.Logger.InfoContext(ctx, "loaded scenario",
		slog.String("scenario", ds.Name),
		slog.Int("customers", summary.Customers),
		slog.Int("transactions", summary.Transactions),
	)
	return summary, nil
}
