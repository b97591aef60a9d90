package generic_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/propdash/generic"
)

func day(year int, month time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(year, month, d)
}

// =============================================================================
// CALENDAR CLASSIFIER
// =============================================================================

func TestIsMarketDay(t *testing.T) {
	cal := generic.DefaultMarketCalendar()

	tests := []struct {
		name string
		date generic.TimePoint
		want bool
	}{
		{"monday", day(2026, time.October, 19), true},
		{"saturday", day(2026, time.October, 17), false},
		{"sunday", day(2026, time.October, 18), false},
		{"thanksgiving", day(2026, time.November, 26), false},
		{"day after thanksgiving", day(2026, time.November, 27), true},
		{"observed independence day", day(2026, time.July, 3), false},
		{"new year outside the table", day(2027, time.January, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generic.IsMarketDay(cal, tt.date))
		})
	}
}

func TestIsMarketDay_DefaultHolidaysAreClosed(t *testing.T) {
	cal := generic.DefaultMarketCalendar()

	holidays := generic.DefaultHolidays()
	require.NotEmpty(t, holidays)
	for _, h := range holidays {
		assert.False(t, generic.IsMarketDay(cal, h.Date), "%s %s", h.Date, h.Name)
	}
}

func TestIsMarketDay_WeekendsAreClosed(t *testing.T) {
	cal := generic.DefaultMarketCalendar()

	for _, year := range []int{2026, 2027} {
		weekends := 0
		for d := day(year, time.January, 1); d.Year() == year; d = d.AddDays(1) {
			if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
				weekends++
				assert.False(t, generic.IsMarketDay(cal, d), d.String())
				assert.False(t, generic.IsMarketDay(nil, d), d.String())
			}
		}
		assert.GreaterOrEqual(t, weekends, 104, "%d", year)
	}
}

func TestIsMarketDay_NilCalendarHasNoHolidays(t *testing.T) {
	christmas := day(2026, time.December, 25)

	assert.True(t, generic.IsMarketDay(nil, christmas))
	assert.True(t, generic.IsMarketDay(generic.DefaultHolidayCalendar{}, christmas))
	assert.False(t, generic.IsMarketDay(generic.DefaultMarketCalendar(), christmas))
}

func TestMarketDayCount(t *testing.T) {
	cal := generic.DefaultMarketCalendar()

	// October 2026 has 22 weekdays and no closures.
	assert.Equal(t, 22, generic.MarketDayCount(cal, day(2026, time.October, 1), day(2026, time.October, 31)))
	// November 2026 has 21 weekdays, minus Thanksgiving.
	assert.Equal(t, 20, generic.MonthPeriod(2026, time.November).MarketDays(cal))
	// Both ends are inclusive.
	assert.Equal(t, 1, generic.MarketDayCount(cal, day(2026, time.October, 19), day(2026, time.October, 19)))
	assert.Equal(t, 0, generic.MarketDayCount(cal, day(2026, time.October, 20), day(2026, time.October, 19)))
}

func TestUncoveredYears(t *testing.T) {
	from, to := day(2026, time.October, 1), day(2027, time.September, 30)

	assert.Equal(t, []int{2027}, generic.UncoveredYears(generic.DefaultMarketCalendar(), from, to))
	assert.Equal(t, []int{2026, 2027}, generic.UncoveredYears(nil, from, to))
	assert.Empty(t, generic.UncoveredYears(generic.DefaultMarketCalendar(), from, day(2026, time.December, 31)))
}

func TestMarketCalendar_HolidaysSortedAndDeduplicated(t *testing.T) {
	cal := generic.NewMarketCalendar([]generic.Holiday{
		{ID: "b", Date: day(2027, time.December, 24), Name: "Christmas Eve"},
		{ID: "a", Date: day(2027, time.January, 1), Name: "New Year"},
		{ID: "c", Date: day(2027, time.December, 24), Name: "Christmas Eve (half day)"},
	})

	holidays := cal.Holidays()
	require.Len(t, holidays, 2)
	assert.Equal(t, "a", holidays[0].ID)
	assert.Equal(t, "c", holidays[1].ID, "later duplicates win")
	assert.True(t, cal.Covers(2027))
	assert.False(t, cal.Covers(2026))
}

// =============================================================================
// TIME POINTS AND MONTHS
// =============================================================================

func TestTimePoint_IgnoresTimeOfDay(t *testing.T) {
	evening := generic.TimePoint{Time: time.Date(2026, time.October, 19, 23, 15, 0, 0, time.UTC)}

	assert.True(t, evening.Equal(day(2026, time.October, 19)))
	assert.False(t, evening.After(day(2026, time.October, 19)))
	assert.Equal(t, "2026-10-20", evening.AddDays(1).String())
}

func TestParseDate(t *testing.T) {
	d, err := generic.ParseDate("2026-11-26")
	require.NoError(t, err)
	assert.True(t, d.Equal(day(2026, time.November, 26)))

	_, err = generic.ParseDate("26/11/2026")
	require.ErrorIs(t, err, generic.ErrInvalidDate)
	assert.True(t, generic.IsClientError(err))

	var pe *generic.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "26/11/2026", pe.Value)
}

func TestParseYearMonth(t *testing.T) {
	ym, err := generic.ParseYearMonth("")
	require.NoError(t, err)
	assert.Nil(t, ym, "empty means no start")

	ym, err = generic.ParseYearMonth("2026-11")
	require.NoError(t, err)
	assert.Equal(t, generic.YearMonth{Year: 2026, Month: time.November}, *ym)
	assert.Equal(t, "2026-11", ym.String())

	for _, bad := range []string{"2026-13", "11/2026", "November"} {
		_, err := generic.ParseYearMonth(bad)
		assert.ErrorIs(t, err, generic.ErrInvalidYearMonth, bad)
	}
}

func TestYearMonth_Reached(t *testing.T) {
	start := generic.YearMonth{Year: 2026, Month: time.November}

	tests := []struct {
		year  int
		month time.Month
		want  bool
	}{
		{2026, time.October, false},
		{2026, time.November, true},
		{2026, time.December, true},
		{2027, time.January, true},
		{2025, time.December, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, start.Reached(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestEndOfMonth(t *testing.T) {
	assert.Equal(t, 29, generic.EndOfMonth(2028, time.February).Day())
	assert.Equal(t, 28, generic.EndOfMonth(2027, time.February).Day())
	assert.Equal(t, 31, generic.EndOfMonth(2026, time.December).Day())
}

// =============================================================================
// PERIODS
// =============================================================================

func TestPeriod(t *testing.T) {
	feb := generic.MonthPeriod(2027, time.February)

	assert.Len(t, feb.Days(), 28)
	assert.True(t, feb.Contains(day(2027, time.February, 28)))
	assert.False(t, feb.Contains(day(2027, time.March, 1)))
	assert.Equal(t, "[2027-02-01, 2027-02-28]", feb.String())

	jan := generic.MonthPeriod(2026, time.December).NextMonth()
	assert.Equal(t, "[2027-01-01, 2027-01-31]", jan.String())
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

func TestRateFromPercentIsExact(t *testing.T) {
	rate := generic.RateFromPercent(10)

	sum := decimal.Zero
	for i := 0; i < 10; i++ {
		sum = sum.Add(rate)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(1)), sum.String())
	assert.Equal(t, 1, generic.FloorInt(sum))
	assert.Equal(t, 0, generic.FloorInt(sum.Sub(decimal.New(1, -9))))
}
