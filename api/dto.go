/*
dto.go - Data Transfer Objects for API requests/responses

PURPOSE:
  Defines the JSON structures for HTTP API communication. DTOs decouple
  the API contract from the projection types: money and fractional
  counts are decimals inside the engine and plain numbers on the wire.

NAMING CONVENTION:
  - *DTO: Response objects (what the API returns)
  - *Request: Request objects (what the API accepts)

CONFIGURATION RECORDS:
  Firms, account types, accounts and settings reuse the factory JSON
  types, so a GET response can be posted back unchanged.

DATE FORMAT:
  Dates are ISO 8601 strings ("2026-10-19"); months are 1-12.

SEE ALSO:
  - handlers.go: Uses these DTOs
  - factory/config.go: Configuration JSON types
*/
package api

import (
	"github.com/warp/propdash/factory"
	"github.com/warp/propdash/generic"
	"github.com/warp/propdash/projection"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HolidayDTO represents a market closure.
type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// CreateHolidayRequest is the request to add a market closure.
type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// =============================================================================
// PROJECTION DTOs
// =============================================================================

// DayCellDTO is one cell of the calendar grid.
type DayCellDTO struct {
	Blank          bool    `json:"blank"`
	Date           string  `json:"date,omitempty"`
	Day            int     `json:"day,omitempty"`
	IsWeekend      bool    `json:"is_weekend"`
	IsHoliday      bool    `json:"is_holiday"`
	IsToday        bool    `json:"is_today"`
	IsPast         bool    `json:"is_past"`
	Projected      bool    `json:"projected"`
	DayCost        float64 `json:"day_cost"`
	CumulativeCost float64 `json:"cumulative_cost"`
	PassedAccounts int     `json:"passed_accounts"`
	Payout         float64 `json:"payout"`
}

// MonthSummaryDTO closes a calendar month.
type MonthSummaryDTO struct {
	PassedAccounts int     `json:"passed_accounts"`
	TotalCosts     float64 `json:"total_costs"`
	Payout         float64 `json:"payout"`
	NetProfit      float64 `json:"net_profit"`
}

// CalendarDTO is the monthly calendar projection.
type CalendarDTO struct {
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	PassRate       float64         `json:"pass_rate"`
	PayoutsEnabled bool            `json:"payouts_enabled"`
	MarketDays     int             `json:"market_days"`
	Days           []DayCellDTO    `json:"days"`
	Summary        MonthSummaryDTO `json:"summary"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// MonthProjectionDTO is one point of the yearly series.
type MonthProjectionDTO struct {
	Label            string  `json:"label"`
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	MonthCost        float64 `json:"month_cost"`
	MonthPayout      float64 `json:"month_payout"`
	CumulativeCost   float64 `json:"cumulative_cost"`
	CumulativePayout float64 `json:"cumulative_payout"`
	Net              float64 `json:"net"`
	PassedAccounts   int     `json:"passed_accounts"`
	PayoutsEnabled   bool    `json:"payouts_enabled"`
}

// YearlyDTO is the 12-month cumulative projection.
type YearlyDTO struct {
	PassRate float64              `json:"pass_rate"`
	Months   []MonthProjectionDTO `json:"months"`
	Warnings []string             `json:"warnings,omitempty"`
}

// WhatIfRequest runs a projection against an unsaved configuration.
// Settings missing from the bundle fall back to the stored ones.
type WhatIfRequest struct {
	factory.BundleJSON
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
}

// WhatIfDTO carries the yearly series, plus the calendar when a month
// was asked for.
type WhatIfDTO struct {
	Yearly   YearlyDTO    `json:"yearly"`
	Calendar *CalendarDTO `json:"calendar,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name}
}

func toCalendarDTO(c projection.MonthCalendar, passRate float64, warnings []string) CalendarDTO {
	days := make([]DayCellDTO, len(c.Cells))
	for i, cell := range c.Cells {
		if cell.Blank {
			days[i] = DayCellDTO{Blank: true}
			continue
		}
		days[i] = DayCellDTO{
			Date:           cell.Date.String(),
			Day:            cell.Date.Day(),
			IsWeekend:      cell.IsWeekend,
			IsHoliday:      cell.IsHoliday,
			IsToday:        cell.IsToday,
			IsPast:         cell.IsPast,
			Projected:      cell.Projected,
			DayCost:        generic.ToFloat(cell.DayCost),
			CumulativeCost: generic.ToFloat(cell.CumulativeCost),
			PassedAccounts: cell.PassedAccounts,
			Payout:         generic.ToFloat(cell.Payout),
		}
	}
	return CalendarDTO{
		Year:           c.Year,
		Month:          int(c.Month),
		PassRate:       passRate,
		PayoutsEnabled: c.PayoutsEnabled,
		MarketDays:     c.MarketDays,
		Days:           days,
		Summary: MonthSummaryDTO{
			PassedAccounts: c.Summary.PassedAccounts,
			TotalCosts:     generic.ToFloat(c.Summary.TotalCosts),
			Payout:         generic.ToFloat(c.Summary.Payout),
			NetProfit:      generic.ToFloat(c.Summary.NetProfit),
		},
		Warnings: warnings,
	}
}

func toYearlyDTO(months []projection.MonthProjection, passRate float64, warnings []string) YearlyDTO {
	out := YearlyDTO{PassRate: passRate, Months: make([]MonthProjectionDTO, len(months)), Warnings: warnings}
	for i, m := range months {
		out.Months[i] = MonthProjectionDTO{
			Label:            m.Label,
			Year:             m.Year,
			Month:            int(m.Month),
			MonthCost:        generic.ToFloat(m.MonthCost),
			MonthPayout:      generic.ToFloat(m.MonthPayout),
			CumulativeCost:   generic.ToFloat(m.CumulativeCost),
			CumulativePayout: generic.ToFloat(m.CumulativePayout),
			Net:              generic.ToFloat(m.Net),
			PassedAccounts:   m.PassedAccounts,
			PayoutsEnabled:   m.PayoutsEnabled,
		}
	}
	return out
}
