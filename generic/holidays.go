package generic

import "time"

// US equity market full-day closures.
var defaultHolidayTable = []struct {
	year  int
	month time.Month
	day   int
	name  string
}{
	{2025, time.January, 1, "New Year's Day"},
	{2025, time.January, 20, "Martin Luther King Jr. Day"},
	{2025, time.February, 17, "Washington's Birthday"},
	{2025, time.April, 18, "Good Friday"},
	{2025, time.May, 26, "Memorial Day"},
	{2025, time.June, 19, "Juneteenth"},
	{2025, time.July, 4, "Independence Day"},
	{2025, time.September, 1, "Labor Day"},
	{2025, time.November, 27, "Thanksgiving Day"},
	{2025, time.December, 25, "Christmas Day"},

	{2026, time.January, 1, "New Year's Day"},
	{2026, time.January, 19, "Martin Luther King Jr. Day"},
	{2026, time.February, 16, "Washington's Birthday"},
	{2026, time.April, 3, "Good Friday"},
	{2026, time.May, 25, "Memorial Day"},
	{2026, time.June, 19, "Juneteenth"},
	{2026, time.July, 3, "Independence Day (observed)"},
	{2026, time.September, 7, "Labor Day"},
	{2026, time.November, 26, "Thanksgiving Day"},
	{2026, time.December, 25, "Christmas Day"},
}

// DefaultHolidays returns the built-in holiday table (2025 and 2026).
func DefaultHolidays() []Holiday {
	out := make([]Holiday, len(defaultHolidayTable))
	for i, h := range defaultHolidayTable {
		date := NewTimePoint(h.year, h.month, h.day)
		out[i] = Holiday{ID: "default-" + date.String(), Date: date, Name: h.name}
	}
	return out
}

// DefaultMarketCalendar returns a MarketCalendar over DefaultHolidays.
func DefaultMarketCalendar() *MarketCalendar {
	return NewMarketCalendar(DefaultHolidays())
}
