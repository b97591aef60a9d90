/*
handlers.go - HTTP API handlers for the projection dashboard

PURPOSE:
  Exposes the projection engine and its configuration via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  the projection builders.

ENDPOINTS:
  Configuration:
    GET    /api/firms                  List firms
    POST   /api/firms                  Create or update a firm
    GET    /api/account-types          List account types
    POST   /api/account-types          Create or update an account type
    GET    /api/accounts               List accounts
    POST   /api/accounts               Create or update an account
    POST   /api/import                 Replace firms, types and accounts

  Calendar:
    GET    /api/holidays               List market closures
    POST   /api/holidays               Add a market closure
    DELETE /api/holidays/{id}          Remove a market closure
    POST   /api/holidays/defaults      Add the configured closure table

  Settings:
    GET    /api/settings               Pass rate and payout start
    PUT    /api/settings               Save pass rate and payout start

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    GET    /api/scenarios/current      Last loaded scenario
    POST   /api/scenarios/load         Load a demo scenario

  Projection:
    GET    /api/projection/calendar    Monthly calendar (?year=&month=&pass_rate=)
    GET    /api/projection/yearly      12-month cumulative series (?pass_rate=)
    POST   /api/projection/what-if     Project an unsaved configuration

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: configuration persistence
  - Factory: lenient JSON to projection types
  - Defaults: settings used until the user saves their own
  - Holidays: configured closure table, stored on the first holiday edit

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Referenced firm, account type or holiday not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/propdash/factory"
	"github.com/warp/propdash/generic"
	"github.com/warp/propdash/projection"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    projection.Store
	Factory  *factory.ConfigFactory
	Defaults projection.Settings
	Holidays []generic.Holiday

	// Now is the clock projections take "today" from.
	Now func() time.Time

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store projection.Store, defaults projection.Settings, holidays []generic.Holiday) *Handler {
	return &Handler{
		Store:    store,
		Factory:  factory.NewConfigFactory(),
		Defaults: defaults,
		Holidays: holidays,
		Now:      time.Now,
	}
}

func (h *Handler) today() generic.TimePoint {
	return generic.DayOf(h.Now())
}

// settings returns the stored settings, or the configured defaults.
func (h *Handler) settings(ctx context.Context) (projection.Settings, error) {
	s, ok, err := h.Store.GetSettings(ctx)
	if err != nil {
		return projection.Settings{}, err
	}
	if !ok {
		return h.Defaults, nil
	}
	return s, nil
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

// ListFirms returns all firms.
func (h *Handler) ListFirms(w http.ResponseWriter, r *http.Request) {
	firms, err := h.Store.ListFirms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list firms", err)
		return
	}

	dtos := make([]factory.FirmJSON, len(firms))
	for i, f := range firms {
		dtos[i] = factory.FirmToJSON(f)
	}
	writeJSON(w, http.StatusOK, map[string]any{"firms": dtos})
}

// CreateFirm creates or updates a firm.
func (h *Handler) CreateFirm(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	firm, err := h.Factory.ParseFirm(body)
	if err != nil {
		writeDomainError(w, "Invalid firm", err)
		return
	}
	if err := h.Store.SaveFirm(r.Context(), firm); err != nil {
		writeDomainError(w, "Failed to save firm", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.FirmToJSON(firm))
}

// ListAccountTypes returns all account types in evaluation order.
func (h *Handler) ListAccountTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListAccountTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list account types", err)
		return
	}

	dtos := make([]factory.AccountTypeJSON, len(types))
	for i, t := range types {
		dtos[i] = factory.AccountTypeToJSON(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_types": dtos})
}

// CreateAccountType creates or updates an account type.
func (h *Handler) CreateAccountType(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	t, err := h.Factory.ParseAccountType(body)
	if err != nil {
		writeDomainError(w, "Invalid account type", err)
		return
	}
	if err := h.Store.SaveAccountType(r.Context(), t); err != nil {
		writeDomainError(w, "Failed to save account type", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.AccountTypeToJSON(t))
}

// ListAccounts returns all accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	dtos := make([]factory.AccountJSON, len(accounts))
	for i, a := range accounts {
		dtos[i] = factory.AccountToJSON(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": dtos})
}

// CreateAccount creates or updates an account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	a, err := h.Factory.ParseAccount(body)
	if err != nil {
		writeDomainError(w, "Invalid account", err)
		return
	}
	if err := h.Store.SaveAccount(r.Context(), a); err != nil {
		writeDomainError(w, "Failed to save account", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.AccountToJSON(a))
}

// Import replaces firms, account types and accounts with a bundle. Settings
// in the bundle are saved too.
// POST /api/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	snap, settings, err := h.Factory.ParseBundle(body)
	if err != nil {
		writeDomainError(w, "Invalid bundle", err)
		return
	}
	if err := h.Store.Import(ctx, snap); err != nil {
		writeDomainError(w, "Failed to import", err)
		return
	}
	if settings != nil {
		if err := h.Store.SaveSettings(ctx, *settings); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "imported",
		"firms":         len(snap.Firms),
		"account_types": len(snap.AccountTypes),
		"accounts":      len(snap.Accounts),
	})
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns stored market closures, or the configured table
// when none are stored.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	cal, err := projection.LoadCalendar(r.Context(), h.Store, h.Holidays)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holidays", err)
		return
	}

	holidays := cal.Holidays()
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday adds a market closure.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}

	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeDomainError(w, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.ensureHolidays(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed holidays", err)
		return
	}

	holiday := generic.Holiday{ID: h.Factory.NewID(), Date: date, Name: req.Name}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday removes a market closure.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.ensureHolidays(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed holidays", err)
		return
	}
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// AddDefaultHolidays stores the configured closure table, restoring any
// default that was deleted. Closures added by the user on other dates stay.
// POST /api/holidays/defaults
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	if err := projection.SaveHolidays(r.Context(), h.Store, h.Holidays); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add default holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "added", "count": len(h.Holidays)})
}

// ensureHolidays stores the configured table before the first edit, so the
// edit applies on top of the closures already listed.
func (h *Handler) ensureHolidays(ctx context.Context) error {
	seeded, err := projection.SeedHolidays(ctx, h.Store, h.Holidays)
	if seeded {
		log.Printf("seeded %d configured holidays", len(h.Holidays))
	}
	return err
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the projection settings in effect.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.SettingsToJSON(s))
}

// UpdateSettings saves the pass rate and payout start.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	s, err := h.Factory.ParseSettings(body)
	if err != nil {
		writeDomainError(w, "Invalid settings", err)
		return
	}
	if err := h.Store.SaveSettings(r.Context(), s); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.SettingsToJSON(s))
}

// =============================================================================
// PROJECTION HANDLERS
// =============================================================================

// scenario assembles the builder input from the store, with an optional
// pass_rate query override.
func (h *Handler) scenario(r *http.Request, snap projection.Snapshot, settings projection.Settings) (projection.Scenario, error) {
	if v := r.URL.Query().Get("pass_rate"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return projection.Scenario{}, &generic.ParseError{Field: "pass_rate", Value: v, Err: generic.ErrInvalidInput}
		}
		settings.PassRatePercent = rate
	}

	cal, err := projection.LoadCalendar(r.Context(), h.Store, h.Holidays)
	if err != nil {
		return projection.Scenario{}, err
	}

	return projection.Scenario{
		Snapshot:    snap,
		PassRate:    settings.PassRate(),
		PayoutStart: settings.PayoutStart,
		Calendar:    cal,
		Today:       h.today(),
	}, nil
}

func (h *Handler) storedScenario(r *http.Request) (projection.Scenario, float64, error) {
	ctx := r.Context()

	snap, err := projection.LoadSnapshot(ctx, h.Store)
	if err != nil {
		return projection.Scenario{}, 0, err
	}
	settings, err := h.settings(ctx)
	if err != nil {
		return projection.Scenario{}, 0, err
	}
	sc, err := h.scenario(r, snap, settings)
	if err != nil {
		return projection.Scenario{}, 0, err
	}
	return sc, generic.ToFloat(sc.PassRate.Shift(2)), nil
}

// GetCalendar returns the calendar projection of one month. Year and month
// default to the current month.
// GET /api/projection/calendar?year=2026&month=11&pass_rate=20
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.targetMonth(r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if err != nil {
		writeDomainError(w, "Invalid month", err)
		return
	}

	sc, passRate, err := h.storedScenario(r)
	if err != nil {
		writeDomainError(w, "Failed to build projection", err)
		return
	}

	writeJSON(w, http.StatusOK, h.calendar(sc, year, month, passRate))
}

// GetYearly returns the 12-month cumulative projection.
// GET /api/projection/yearly?pass_rate=20
func (h *Handler) GetYearly(w http.ResponseWriter, r *http.Request) {
	sc, passRate, err := h.storedScenario(r)
	if err != nil {
		writeDomainError(w, "Failed to build projection", err)
		return
	}

	writeJSON(w, http.StatusOK, h.yearly(sc, passRate))
}

// WhatIf projects a configuration posted inline, leaving the store
// untouched. Stored holidays still apply.
// POST /api/projection/what-if
func (h *Handler) WhatIf(w http.ResponseWriter, r *http.Request) {
	var req WhatIfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	data, err := json.Marshal(req.BundleJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read bundle", err)
		return
	}
	snap, bundled, err := h.Factory.ParseBundle(data)
	if err != nil {
		writeDomainError(w, "Invalid bundle", err)
		return
	}

	var settings projection.Settings
	if bundled != nil {
		settings = *bundled
	} else if settings, err = h.settings(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get settings", err)
		return
	}

	sc, err := h.scenario(r, snap, settings)
	if err != nil {
		writeDomainError(w, "Failed to build projection", err)
		return
	}
	passRate := generic.ToFloat(sc.PassRate.Shift(2))

	resp := WhatIfDTO{Yearly: h.yearly(sc, passRate)}
	if req.Year != 0 || req.Month != 0 {
		year, month, err := h.targetMonth(optionalInt(req.Year), optionalInt(req.Month))
		if err != nil {
			writeDomainError(w, "Invalid month", err)
			return
		}
		cal := h.calendar(sc, year, month, passRate)
		resp.Calendar = &cal
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) calendar(sc projection.Scenario, year int, month time.Month, passRate float64) CalendarDTO {
	warnings := horizonWarnings(sc.Calendar, sc.Horizon(year, month))
	return toCalendarDTO(projection.BuildMonthCalendar(sc, year, month), passRate, warnings)
}

func (h *Handler) yearly(sc projection.Scenario, passRate float64) YearlyDTO {
	warnings := horizonWarnings(sc.Calendar, sc.YearlyHorizon())
	return toYearlyDTO(projection.BuildYearlyProjection(sc), passRate, warnings)
}

// targetMonth parses year and month query values; empty values default to
// the current month.
func (h *Handler) targetMonth(yearParam, monthParam string) (int, time.Month, error) {
	today := h.today()
	year, month := today.Year(), today.Month()

	if yearParam != "" {
		y, err := strconv.Atoi(yearParam)
		if err != nil || y < 1 {
			return 0, 0, &generic.ParseError{Field: "year", Value: yearParam, Err: generic.ErrInvalidInput}
		}
		year = y
	}
	if monthParam != "" {
		m, err := strconv.Atoi(monthParam)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, &generic.ParseError{Field: "month", Value: monthParam, Err: generic.ErrInvalidInput}
		}
		month = time.Month(m)
	}
	return year, month, nil
}

func optionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// horizonWarnings flags simulated years the holiday table does not cover;
// every weekday of those years counts as a market day.
func horizonWarnings(cal generic.HolidayCalendar, horizon generic.Period) []string {
	var warnings []string
	for _, year := range generic.UncoveredYears(cal, horizon.Start, horizon.End) {
		msg := fmt.Sprintf("no holiday table for %d: every weekday is treated as a market day", year)
		log.Printf("Warning: %s", msg)
		warnings = append(warnings, msg)
	}
	return warnings
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error category.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
