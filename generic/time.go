package generic

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// TIME POINT - Calendar day used as the simulation clock
// =============================================================================

// TimePoint is a calendar day. All comparisons ignore the time of day.
type TimePoint struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates t to its calendar day in t's own location.
func DayOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return DayOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return TimePoint{}, &ParseError{Field: "date", Value: s, Err: ErrInvalidDate}
	}
	return DayOf(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, n, 0)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (tp TimePoint) String() string { return tp.Time.Format(dateLayout) }

// =============================================================================
// YEAR-MONTH - Month granularity used by the payout gate
// =============================================================================

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses "YYYY-MM". An empty string yields (nil, nil): no start configured.
func ParseYearMonth(s string) (*YearMonth, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return nil, &ParseError{Field: "year_month", Value: s, Err: ErrInvalidYearMonth}
	}
	return &YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) String() string { return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month)) }

// Reached reports whether (year, month) is at or after ym.
func (ym YearMonth) Reached(year int, month time.Month) bool {
	if year != ym.Year {
		return year > ym.Year
	}
	return month >= ym.Month
}

// =============================================================================
// HOLIDAY CALENDAR - Exchange holidays
// =============================================================================

// Holiday is a full market closure on a specific date.
type Holiday struct {
	ID   string
	Date TimePoint
	Name string
}

// HolidayCalendar provides holiday lookup functionality.
type HolidayCalendar interface {
	// IsHoliday reports whether the market is closed on date for a holiday.
	IsHoliday(date TimePoint) bool

	// Covers reports whether the calendar carries a holiday table for year.
	// Dates in uncovered years are never holidays.
	Covers(year int) bool
}

// DefaultHolidayCalendar is a no-op calendar for when holidays are disabled.
type DefaultHolidayCalendar struct{}

func (DefaultHolidayCalendar) IsHoliday(TimePoint) bool { return false }
func (DefaultHolidayCalendar) Covers(int) bool          { return false }

// MarketCalendar is a fixed set of holiday dates.
type MarketCalendar struct {
	byDate map[string]Holiday
	years  map[int]bool
}

// NewMarketCalendar indexes holidays by date. Later duplicates win.
func NewMarketCalendar(holidays []Holiday) *MarketCalendar {
	c := &MarketCalendar{
		byDate: make(map[string]Holiday, len(holidays)),
		years:  make(map[int]bool),
	}
	for _, h := range holidays {
		c.byDate[h.Date.String()] = h
		c.years[h.Date.Year()] = true
	}
	return c
}

func (c *MarketCalendar) IsHoliday(date TimePoint) bool {
	_, ok := c.byDate[date.String()]
	return ok
}

func (c *MarketCalendar) Covers(year int) bool { return c.years[year] }

// Holidays returns the table sorted by date.
func (c *MarketCalendar) Holidays() []Holiday {
	out := make([]Holiday, 0, len(c.byDate))
	for _, h := range c.byDate {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// IsMarketDay reports whether date is a weekday that is not a holiday.
// A nil calendar has no holidays.
func IsMarketDay(calendar HolidayCalendar, date TimePoint) bool {
	if date.IsWeekend() {
		return false
	}
	if calendar != nil && calendar.IsHoliday(date) {
		return false
	}
	return true
}

// MarketDayCount counts market days in [start, end].
func MarketDayCount(calendar HolidayCalendar, start, end TimePoint) int {
	n := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if IsMarketDay(calendar, d) {
			n++
		}
	}
	return n
}

// UncoveredYears lists the years in [from, to] without a holiday table.
func UncoveredYears(calendar HolidayCalendar, from, to TimePoint) []int {
	var years []int
	for y := from.Year(); y <= to.Year(); y++ {
		if calendar == nil || !calendar.Covers(y) {
			years = append(years, y)
		}
	}
	return years
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }
func EndOfMonth(year int, month time.Month) TimePoint {
	return TimePoint{Time: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}
