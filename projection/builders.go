package projection

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/propdash/generic"
)

// Scenario is the shared input of both projection builders. Today is the
// reference date: days before it are history, never charged.
type Scenario struct {
	Snapshot    Snapshot
	PassRate    decimal.Decimal
	PayoutStart *generic.YearMonth
	Calendar    generic.HolidayCalendar
	Today       generic.TimePoint
}

func (sc Scenario) holidays() generic.HolidayCalendar {
	if sc.Calendar == nil {
		return generic.DefaultHolidayCalendar{}
	}
	return sc.Calendar
}

func (sc Scenario) newSimulation() *Simulation {
	return NewSimulation(sc.Snapshot, sc.PassRate, PayoutGate{Start: sc.PayoutStart})
}

// =============================================================================
// MONTHLY CALENDAR
// =============================================================================

// DayCell is one cell of the calendar grid. Leading cells before the first
// of the month are Blank.
type DayCell struct {
	Blank     bool
	Date      generic.TimePoint
	IsWeekend bool
	IsHoliday bool
	IsToday   bool
	IsPast    bool

	// Projected is set on market days from today onwards; only then are the
	// figures below filled in.
	Projected      bool
	DayCost        decimal.Decimal
	CumulativeCost decimal.Decimal
	PassedAccounts int
	Payout         decimal.Decimal
}

// MonthSummary closes a calendar month.
type MonthSummary struct {
	PassedAccounts int
	TotalCosts     decimal.Decimal
	Payout         decimal.Decimal
	NetProfit      decimal.Decimal
}

// MonthCalendar is the calendar view of one projected month.
type MonthCalendar struct {
	Year           int
	Month          time.Month
	PayoutsEnabled bool
	MarketDays     int
	Cells          []DayCell
	Summary        MonthSummary
}

// BuildMonthCalendar projects a single month as a calendar grid.
//
// For a month after today the simulation first catches up, without costs,
// over the market days strictly between today and the first of the month.
// Payout eligibility is evaluated once for the whole month.
func BuildMonthCalendar(sc Scenario, year int, month time.Month) MonthCalendar {
	cal := sc.holidays()
	sim := sc.newSimulation()
	period := generic.MonthPeriod(year, month)

	if period.Start.After(sc.Today) {
		for d := sc.Today.AddDays(1); d.Before(period.Start); d = d.AddDays(1) {
			if generic.IsMarketDay(cal, d) {
				sim.AdvanceDay(false)
			}
		}
	}

	enabled := sim.PayoutsEnabled(year, month)
	out := MonthCalendar{
		Year:           year,
		Month:          month,
		PayoutsEnabled: enabled,
		MarketDays:     period.MarketDays(cal),
	}

	for i := 0; i < int(period.Start.Weekday()); i++ {
		out.Cells = append(out.Cells, DayCell{Blank: true})
	}

	monthCosts := decimal.Zero
	for _, d := range period.Days() {
		cell := DayCell{
			Date:      d,
			IsWeekend: d.IsWeekend(),
			IsHoliday: cal.IsHoliday(d),
			IsToday:   d.Equal(sc.Today),
			IsPast:    d.Before(sc.Today),
		}
		if generic.IsMarketDay(cal, d) && !cell.IsPast {
			cell.Projected = true
			cell.DayCost = sim.AdvanceDay(true)
			monthCosts = monthCosts.Add(cell.DayCost)
			cell.CumulativeCost = monthCosts
			cell.PassedAccounts = sim.TotalPassedAccounts()
			cell.Payout = sim.PayoutAmount(enabled)
		}
		out.Cells = append(out.Cells, cell)
	}

	payout := sim.PayoutAmount(enabled)
	out.Summary = MonthSummary{
		PassedAccounts: sim.TotalPassedAccounts(),
		TotalCosts:     monthCosts,
		Payout:         payout,
		NetProfit:      payout.Sub(monthCosts),
	}
	return out
}

// =============================================================================
// YEARLY CUMULATIVE SERIES
// =============================================================================

// MonthProjection is one point of the 12-month cumulative series.
type MonthProjection struct {
	Label            string
	Year             int
	Month            time.Month
	MonthCost        decimal.Decimal
	MonthPayout      decimal.Decimal
	CumulativeCost   decimal.Decimal
	CumulativePayout decimal.Decimal
	Net              decimal.Decimal
	PassedAccounts   int
	PayoutsEnabled   bool
}

// YearlyMonths is the length of the yearly series.
const YearlyMonths = 12

// BuildYearlyProjection projects the twelve months starting with the month
// containing Today. Market days before Today advance state without costs.
//
// Passed counts differ from BuildMonthCalendar for the same month. The
// calendar accrues from Today on (later months catch up from the day after
// Today), while the series also replays the current month's past market
// days. The series' passed count and payout are therefore higher and the
// gap carries into later months. With one type at 20% on 19 October 2026:
// October shows 2 passed in the calendar and 4 here, November 5 and 8.
// Current-month costs match.
func BuildYearlyProjection(sc Scenario) []MonthProjection {
	cal := sc.holidays()
	sim := sc.newSimulation().Clone()

	var (
		out              = make([]MonthProjection, 0, YearlyMonths)
		cumulativeCost   = decimal.Zero
		cumulativePayout = decimal.Zero
		period           = generic.MonthPeriod(sc.Today.Year(), sc.Today.Month())
	)

	for i := 0; i < YearlyMonths; i++ {
		monthCost := decimal.Zero
		for _, d := range period.Days() {
			if !generic.IsMarketDay(cal, d) {
				continue
			}
			if d.Before(sc.Today) {
				sim.AdvanceDay(false)
				continue
			}
			monthCost = monthCost.Add(sim.AdvanceDay(true))
		}
		cumulativeCost = cumulativeCost.Add(monthCost)

		year, month := period.Start.Year(), period.Start.Month()
		enabled := sim.PayoutsEnabled(year, month)
		monthPayout := sim.PayoutAmount(enabled)
		cumulativePayout = cumulativePayout.Add(monthPayout)

		out = append(out, MonthProjection{
			Label:            period.Start.Time.Format("Jan 2006"),
			Year:             year,
			Month:            month,
			MonthCost:        monthCost,
			MonthPayout:      monthPayout,
			CumulativeCost:   cumulativeCost,
			CumulativePayout: cumulativePayout,
			Net:              cumulativePayout.Sub(cumulativeCost),
			PassedAccounts:   sim.TotalPassedAccounts(),
			PayoutsEnabled:   enabled,
		})
		period = period.NextMonth()
	}
	return out
}

// Horizon returns the day range a builder simulates for the given target
// month; used to check holiday coverage.
func (sc Scenario) Horizon(year int, month time.Month) generic.Period {
	end := generic.EndOfMonth(year, month)
	start := sc.Today
	if end.Before(start) {
		start = generic.StartOfMonth(year, month)
	}
	return generic.Period{Start: start, End: end}
}

// YearlyHorizon is the day range BuildYearlyProjection simulates.
func (sc Scenario) YearlyHorizon() generic.Period {
	start := generic.StartOfMonth(sc.Today.Year(), sc.Today.Month())
	last := start.AddMonths(YearlyMonths - 1)
	return generic.Period{Start: start, End: generic.EndOfMonth(last.Year(), last.Month())}
}
