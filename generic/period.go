package generic

import "time"

// =============================================================================
// PERIOD - A closed range of calendar days
// =============================================================================

// Period is the inclusive day range [Start, End].
type Period struct {
	Start TimePoint
	End   TimePoint
}

// MonthPeriod returns the period covering a whole calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// MarketDays counts the market days inside the period.
func (p Period) MarketDays(calendar HolidayCalendar) int {
	return MarketDayCount(calendar, p.Start, p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// NextMonth returns the calendar month following the one containing Start.
func (p Period) NextMonth() Period {
	next := StartOfMonth(p.Start.Year(), p.Start.Month()).AddMonths(1)
	return MonthPeriod(next.Year(), next.Month())
}
