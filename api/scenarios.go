/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built configurations that populate the store with
	realistic firms, account types and accounts. Each scenario shows a
	specific projection behavior.

AVAILABLE SCENARIOS:

	single-firm:    One firm, one account type, a couple of funded accounts
	multi-firm:     Sibling account types competing for one firm's cap
	near-capacity:  A firm one slot from its cap; costs stop almost at once

HOW SCENARIOS WORK:
 1. Build the bundle JSON (payout start relative to today)
 2. Parse it through the config factory, like an import
 3. Replace the stored configuration and settings

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "multi-firm"}

NOTE:

	Scenarios replace the stored configuration. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: Import handler
  - factory/config.go: Bundle JSON schema
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/propdash/generic"
)

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "single-firm",
		Name:        "Single Firm",
		Description: "One firm with a 20-account cap and two funded accounts, payouts from next month",
	},
	{
		ID:          "multi-firm",
		Name:        "Multi-Firm",
		Description: "Two account sizes with a consistency rule sharing one firm's cap, plus a smaller second firm",
	},
	{
		ID:          "near-capacity",
		Name:        "Near Capacity",
		Description: "Four of five funded slots taken: one more pass fills the firm",
	},
}

// scenarioBundles are bundle templates; %s is the payout start month.
var scenarioBundles = map[string]string{
	"single-firm": `{
		"firms": [{"id": "apex", "name": "Apex Trader Funding", "max_funded": 20}],
		"account_types": [{
			"id": "apex-50k", "firm_id": "apex", "name": "50K Evaluation",
			"eval_cost": 167, "activation_cost": 85, "default_profit_target": 3000,
			"expected_payout": 2000, "has_consistency_rule": true
		}],
		"accounts": [
			{"id": "apex-50k-1", "account_type_id": "apex-50k", "name": "PA-1", "status": "funded", "balance": 51250},
			{"id": "apex-50k-2", "account_type_id": "apex-50k", "name": "PA-2", "status": "funded", "balance": 50400},
			{"id": "apex-50k-3", "account_type_id": "apex-50k", "name": "Eval-3", "status": "halfway", "balance": 51600}
		],
		"settings": {"pass_rate": 20, "payout_start": "%s"}
	}`,
	"multi-firm": `{
		"firms": [
			{"id": "apex", "name": "Apex Trader Funding", "max_funded": 20},
			{"id": "topstep", "name": "Topstep", "max_funded": 5}
		],
		"account_types": [
			{"id": "apex-50k", "firm_id": "apex", "name": "50K", "eval_cost": 167, "activation_cost": 85, "expected_payout": 2000, "has_consistency_rule": true},
			{"id": "apex-100k", "firm_id": "apex", "name": "100K", "eval_cost": 207, "activation_cost": 105, "expected_payout": 3500, "has_consistency_rule": true},
			{"id": "topstep-50k", "firm_id": "topstep", "name": "50K Combine", "eval_cost": 49, "activation_cost": 149, "expected_payout": 1500}
		],
		"accounts": [
			{"id": "apex-100k-1", "account_type_id": "apex-100k", "status": "funded"},
			{"id": "topstep-50k-1", "account_type_id": "topstep-50k", "status": "passed"},
			{"id": "topstep-50k-2", "account_type_id": "topstep-50k", "status": "failed"}
		],
		"settings": {"pass_rate": 15, "payout_start": "%s"}
	}`,
	"near-capacity": `{
		"firms": [{"id": "tradeify", "name": "Tradeify", "max_funded": 5}],
		"account_types": [{"id": "tradeify-50k", "firm_id": "tradeify", "name": "50K", "eval_cost": 99, "expected_payout": 1800}],
		"accounts": [
			{"id": "t1", "account_type_id": "tradeify-50k", "status": "funded"},
			{"id": "t2", "account_type_id": "tradeify-50k", "status": "funded"},
			{"id": "t3", "account_type_id": "tradeify-50k", "status": "funded"},
			{"id": "t4", "account_type_id": "tradeify-50k", "status": "passed"}
		],
		"settings": {"pass_rate": 25, "payout_start": "%s"}
	}`,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the stored configuration with a predefined one.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	template, ok := scenarioBundles[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	// Payouts start the month after today, so the first month shows costs only.
	today := h.today()
	next := generic.StartOfMonth(today.Year(), today.Month()).AddMonths(1)
	start := generic.YearMonth{Year: next.Year(), Month: next.Month()}

	snap, settings, err := h.Factory.ParseBundle([]byte(fmt.Sprintf(template, start)))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to parse scenario", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Import(ctx, snap); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	if err := h.Store.SaveSettings(ctx, *settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}
