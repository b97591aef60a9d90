/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Configuration endpoints (firms, account types, accounts, import)
- Holidays and settings
- Projection endpoints, pass_rate override and horizon warnings
- Error status mapping
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/propdash/generic"
	"github.com/warp/propdash/projection"
	"github.com/warp/propdash/projection/store"
)

// One firm capped at 20, one type charging 150 per evaluation day,
// everyone passes daily, payouts from October 2026.
const apexBundle = `{
	"firms": [{"id": "apex", "name": "Apex", "max_funded": 20}],
	"account_types": [{"id": "apex-50k", "firm_id": "apex", "name": "50K", "eval_cost": "150"}],
	"settings": {"pass_rate": 100, "payout_start": "2026-10"}
}`

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	h := NewHandler(store.NewMemory(), projection.Settings{PassRatePercent: 20}, generic.DefaultHolidays())
	// Monday 19 October 2026.
	h.Now = func() time.Time { return time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC) }
	return h, NewRouter(h, []string{"http://localhost:5173"})
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func importApex(t *testing.T, router http.Handler) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/import", apexBundle)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// =============================================================================
// PROJECTION
// =============================================================================

func TestGetCalendar_ImportedConfiguration(t *testing.T) {
	// GIVEN: the Apex bundle imported
	_, router := newTestServer(t)
	importApex(t, router)

	// WHEN: requesting October 2026
	rec := do(t, router, http.MethodGet, "/api/projection/calendar?year=2026&month=10", "")

	// THEN: ten projected market days, one account each
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cal := decodeBody[CalendarDTO](t, rec)

	assert.Equal(t, 2026, cal.Year)
	assert.Equal(t, 10, cal.Month)
	assert.Equal(t, 100.0, cal.PassRate)
	assert.True(t, cal.PayoutsEnabled)
	assert.Equal(t, 22, cal.MarketDays)
	assert.Len(t, cal.Days, 4+31)
	assert.True(t, cal.Days[0].Blank)
	assert.Empty(t, cal.Warnings)

	assert.Equal(t, 10, cal.Summary.PassedAccounts)
	assert.Equal(t, 1500.0, cal.Summary.TotalCosts)
	assert.Equal(t, 20000.0, cal.Summary.Payout)
	assert.Equal(t, 18500.0, cal.Summary.NetProfit)
}

func TestGetCalendar_DefaultsToCurrentMonth(t *testing.T) {
	_, router := newTestServer(t)
	importApex(t, router)

	rec := do(t, router, http.MethodGet, "/api/projection/calendar", "")

	require.Equal(t, http.StatusOK, rec.Code)
	cal := decodeBody[CalendarDTO](t, rec)
	assert.Equal(t, 2026, cal.Year)
	assert.Equal(t, 10, cal.Month)
}

func TestGetCalendar_PassRateOverride(t *testing.T) {
	// GIVEN: a stored pass rate of 100%
	_, router := newTestServer(t)
	importApex(t, router)

	// WHEN: overriding it with 50% on the query
	rec := do(t, router, http.MethodGet, "/api/projection/calendar?year=2026&month=10&pass_rate=50", "")

	// THEN: half an account per day, every day still charged
	require.Equal(t, http.StatusOK, rec.Code)
	cal := decodeBody[CalendarDTO](t, rec)
	assert.Equal(t, 50.0, cal.PassRate)
	assert.Equal(t, 5, cal.Summary.PassedAccounts)
	assert.Equal(t, 1500.0, cal.Summary.TotalCosts)
	assert.Equal(t, 10000.0, cal.Summary.Payout)
}

func TestGetCalendar_InvalidParams(t *testing.T) {
	_, router := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"month too large", "year=2026&month=13"},
		{"month zero", "year=2026&month=0"},
		{"year not a number", "year=next&month=1"},
		{"pass rate not a number", "pass_rate=lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/projection/calendar?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody[ErrorResponse](t, rec).Error)
		})
	}
}

func TestGetYearly_WarnsOutsideHolidayTable(t *testing.T) {
	// GIVEN: the Apex bundle imported on 19 October 2026
	_, router := newTestServer(t)
	importApex(t, router)

	// WHEN: requesting the yearly series
	rec := do(t, router, http.MethodGet, "/api/projection/yearly", "")

	// THEN: twelve months into 2027, which the holiday table doesn't cover
	require.Equal(t, http.StatusOK, rec.Code)
	yearly := decodeBody[YearlyDTO](t, rec)
	require.Len(t, yearly.Months, 12)
	require.Len(t, yearly.Warnings, 1)
	assert.Contains(t, yearly.Warnings[0], "2027")

	// October: 12 market days before the 19th fill without cost, the
	// remaining 8 accounts are charged, then the firm is full.
	oct := yearly.Months[0]
	assert.Equal(t, "Oct 2026", oct.Label)
	assert.Equal(t, 20, oct.PassedAccounts)
	assert.Equal(t, 1200.0, oct.MonthCost)
	assert.Equal(t, 40000.0, oct.MonthPayout)

	nov := yearly.Months[1]
	assert.Equal(t, 0.0, nov.MonthCost)
	assert.Equal(t, 80000.0, nov.CumulativePayout)
	assert.Equal(t, 78800.0, nov.Net)
	assert.Equal(t, "Sep 2027", yearly.Months[11].Label)
}

func TestWhatIf_LeavesStoreUntouched(t *testing.T) {
	// GIVEN: an empty store
	h, router := newTestServer(t)

	// WHEN: projecting an inline bundle with a calendar month
	body := strings.TrimSuffix(strings.TrimSpace(apexBundle), "}") + `, "year": 2026, "month": 10}`
	rec := do(t, router, http.MethodPost, "/api/projection/what-if", body)

	// THEN: both projections come back and nothing was saved
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[WhatIfDTO](t, rec)
	require.NotNil(t, resp.Calendar)
	assert.Equal(t, 10, resp.Calendar.Summary.PassedAccounts)
	assert.Len(t, resp.Yearly.Months, 12)

	firms, err := h.Store.ListFirms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, firms)
}

func TestWhatIf_FallsBackToDefaultSettings(t *testing.T) {
	// GIVEN: no stored settings and none in the bundle
	_, router := newTestServer(t)
	body := `{"firms": [{"id": "apex", "max_funded": 20}], "account_types": [{"id": "t", "firm_id": "apex"}]}`

	rec := do(t, router, http.MethodPost, "/api/projection/what-if", body)

	// THEN: the configured 20% default applies and payouts stay off
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[WhatIfDTO](t, rec)
	assert.Equal(t, 20.0, resp.Yearly.PassRate)
	assert.Nil(t, resp.Calendar)
	for _, m := range resp.Yearly.Months {
		assert.False(t, m.PayoutsEnabled)
		assert.Equal(t, 0.0, m.MonthPayout)
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func TestCreateFirm_AssignsIDAndFloorsCap(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/firms", `{"name": "Apex", "max_funded": "20.7"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[map[string]any](t, rec)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, 20.0, created["max_funded"])

	rec = do(t, router, http.MethodGet, "/api/firms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[map[string][]map[string]any](t, rec)
	require.Len(t, list["firms"], 1)
	assert.Equal(t, "Apex", list["firms"][0]["name"])
}

func TestCreateAccountType_UnknownFirm(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/account-types", `{"id": "t", "firm_id": "nowhere"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAccount_InvalidStatus(t *testing.T) {
	_, router := newTestServer(t)
	importApex(t, router)

	rec := do(t, router, http.MethodPost, "/api/accounts", `{"account_type_id": "apex-50k", "status": "blown"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/accounts", `{"account_type_id": "apex-50k", "status": "funded"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/accounts", "")
	list := decodeBody[map[string][]map[string]any](t, rec)
	require.Len(t, list["accounts"], 1)
	assert.Equal(t, "funded", list["accounts"][0]["status"])
}

func TestImport_RejectsMalformedBundle(t *testing.T) {
	_, router := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/import", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/import",
		`{"settings": {"payout_start": "November"}}`).Code)
}

func TestListAccountTypes_PreservesOrder(t *testing.T) {
	_, router := newTestServer(t)
	importApex(t, router)

	rec := do(t, router, http.MethodPost, "/api/account-types", `{"id": "apex-100k", "firm_id": "apex", "eval_cost": 200}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/account-types", "")
	list := decodeBody[map[string][]map[string]any](t, rec)
	require.Len(t, list["account_types"], 2)
	assert.Equal(t, "apex-50k", list["account_types"][0]["id"])
	assert.Equal(t, "apex-100k", list["account_types"][1]["id"])
}

// =============================================================================
// HOLIDAYS AND SETTINGS
// =============================================================================

func listHolidays(t *testing.T, router http.Handler) []HolidayDTO {
	t.Helper()
	rec := do(t, router, http.MethodGet, "/api/holidays", "")
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody[map[string][]HolidayDTO](t, rec)["holidays"]
}

func TestHolidays_AddingClosureKeepsDefaults(t *testing.T) {
	_, router := newTestServer(t)

	// GIVEN: nothing stored, the configured table is listed
	defaults := len(generic.DefaultHolidays())
	assert.Len(t, listHolidays(t, router), defaults)

	// WHEN: adding a different closure
	rec := do(t, router, http.MethodPost, "/api/holidays", `{"date": "2026-11-27", "name": "Day after Thanksgiving"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[HolidayDTO](t, rec)
	assert.Equal(t, "2026-11-27", created.Date)

	// THEN: the defaults are still listed next to the new closure
	assert.Len(t, listHolidays(t, router), defaults+1)

	// AND: Thanksgiving is still closed in the projection
	rec = do(t, router, http.MethodGet, "/api/projection/calendar?year=2026&month=11", "")
	require.Equal(t, http.StatusOK, rec.Code)
	nov := decodeBody[CalendarDTO](t, rec)
	assert.Equal(t, 19, nov.MarketDays)
	for _, cell := range nov.Days {
		switch cell.Date {
		case "2026-11-26", "2026-11-27":
			assert.True(t, cell.IsHoliday, cell.Date)
		}
	}

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodDelete, "/api/holidays/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/api/holidays/"+created.ID, "").Code)
	assert.Len(t, listHolidays(t, router), defaults)
}

func TestHolidays_ListedDefaultsAreDeletable(t *testing.T) {
	_, router := newTestServer(t)

	// GIVEN: Christmas listed from the configured table
	var christmas HolidayDTO
	for _, hol := range listHolidays(t, router) {
		if hol.Date == "2026-12-25" {
			christmas = hol
		}
	}
	require.Equal(t, "default-2026-12-25", christmas.ID)

	// WHEN: deleting it by its listed ID
	rec := do(t, router, http.MethodDelete, "/api/holidays/"+christmas.ID, "")

	// THEN: it is gone and every other default stays
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	remaining := listHolidays(t, router)
	assert.Len(t, remaining, len(generic.DefaultHolidays())-1)
	for _, hol := range remaining {
		assert.NotEqual(t, christmas.ID, hol.ID)
	}

	// AND: restoring the defaults brings it back without duplicates
	rec = do(t, router, http.MethodPost, "/api/holidays/defaults", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, listHolidays(t, router), len(generic.DefaultHolidays()))

	rec = do(t, router, http.MethodPost, "/api/holidays/defaults", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, listHolidays(t, router), len(generic.DefaultHolidays()))
}

func TestCreateHoliday_Validation(t *testing.T) {
	_, router := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/holidays", `{"date": "2026-11-27"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/holidays", `{"date": "27/11/2026", "name": "x"}`).Code)
}

func TestSettings_DefaultsThenSaved(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decodeBody[map[string]any](t, rec)
	assert.Equal(t, 20.0, settings["pass_rate"])
	assert.Equal(t, "", settings["payout_start"])

	rec = do(t, router, http.MethodPut, "/api/settings", `{"pass_rate": "35", "payout_start": "2026-12"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/settings", "")
	settings = decodeBody[map[string]any](t, rec)
	assert.Equal(t, 35.0, settings["pass_rate"])
	assert.Equal(t, "2026-12", settings["payout_start"])

	rec = do(t, router, http.MethodPut, "/api/settings", `{"pass_rate": 35, "payout_start": "12/2026"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
