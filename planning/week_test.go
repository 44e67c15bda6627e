package planning_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/weekplan/planning"
)

// =============================================================================
// ISO WEEK NUMBER
// =============================================================================

func TestISOWeekNumber_KnownDates(t *testing.T) {
	tests := []struct {
		name string
		date planning.Date
		want int
	}{
		{"mid-year Wednesday", planning.NewDate(2025, time.March, 5), 10},
		{"first days belong to week 1", planning.NewDate(2025, time.January, 1), 1},
		{"December Monday owned by next year", planning.NewDate(2024, time.December, 30), 1},
		{"January Sunday owned by prior year", planning.NewDate(2023, time.January, 1), 52},
		{"53-week year spills into January", planning.NewDate(2021, time.January, 1), 53},
		{"last Thursday of a 53-week year", planning.NewDate(2020, time.December, 31), 53},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, planning.ISOWeekNumber(tt.date))
		})
	}
}

func TestISOWeekNumber_MatchesStdlib(t *testing.T) {
	// The Thursday-shift construction must agree with time.Time.ISOWeek
	// for every day of several years, including leap and 53-week years.
	for _, year := range []int{2015, 2020, 2021, 2024, 2025, 2026} {
		d := planning.NewDate(year, time.January, 1)
		for d.Year() == year {
			_, want := d.Time.ISOWeek()
			assert.Equal(t, want, planning.ISOWeekNumber(d), "date %s", d)
			d = d.AddDays(1)
		}
	}
}

func TestMondayOfWeek_RoundTrip(t *testing.T) {
	// For all selectable (week, year) pairs, the Monday's week number is
	// the week it was built from.
	for year := 2020; year <= 2030; year++ {
		for week := 1; week <= 52; week++ {
			monday := planning.MondayOfWeek(week, year)
			assert.Equal(t, time.Monday, monday.Weekday(), "%d-W%02d", year, week)
			assert.Equal(t, week, planning.ISOWeekNumber(monday), "%d-W%02d", year, week)
		}
	}
}

func TestWeekOf_YearBoundary(t *testing.T) {
	// Week 1 of 2026 starts in December 2025; the key must still say 2026.
	monday := planning.NewWeekKey(2026, 1).Monday()
	assert.Equal(t, planning.NewDate(2025, time.December, 29), monday)
	assert.Equal(t, planning.NewWeekKey(2026, 1), planning.WeekOf(monday))
}

// =============================================================================
// WEEK KEY ARITHMETIC
// =============================================================================

func TestWeekKey_NextWrapsAt52(t *testing.T) {
	assert.Equal(t, planning.NewWeekKey(2025, 11), planning.NewWeekKey(2025, 10).Next())
	// Week 53 is never produced: the grid caps at 52 even in 53-week years.
	assert.Equal(t, planning.NewWeekKey(2026, 1), planning.NewWeekKey(2025, 52).Next())
}

func TestWeekKey_PreviousWrapsAt1(t *testing.T) {
	assert.Equal(t, planning.NewWeekKey(2025, 9), planning.NewWeekKey(2025, 10).Previous())
	assert.Equal(t, planning.NewWeekKey(2024, 52), planning.NewWeekKey(2025, 1).Previous())
}

func TestWeekKey_Weekdays(t *testing.T) {
	days := planning.NewWeekKey(2025, 10).Weekdays()
	assert.Len(t, days, 5)
	assert.Equal(t, planning.NewDate(2025, time.March, 3), days[0])
	assert.Equal(t, planning.NewDate(2025, time.March, 7), days[4])
}

func TestWeekKey_Valid(t *testing.T) {
	assert.True(t, planning.NewWeekKey(2025, 1).Valid())
	assert.True(t, planning.NewWeekKey(2025, 52).Valid())
	assert.False(t, planning.NewWeekKey(2025, 0).Valid())
	assert.False(t, planning.NewWeekKey(2025, 53).Valid())
}

// =============================================================================
// PREVIOUS WORKING DAY
// =============================================================================

func TestPreviousWorkingDay(t *testing.T) {
	friday := planning.NewDate(2025, time.March, 7)

	tests := []struct {
		name string
		from planning.Date
		want planning.Date
	}{
		{"Monday reaches prior Friday", planning.NewDate(2025, time.March, 10), friday},
		{"Sunday collapses to Friday", planning.NewDate(2025, time.March, 9), friday},
		{"Saturday collapses to Friday", planning.NewDate(2025, time.March, 8), friday},
		{"Tuesday steps back one day", planning.NewDate(2025, time.March, 11), planning.NewDate(2025, time.March, 10)},
		{"Friday steps back one day", friday, planning.NewDate(2025, time.March, 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, planning.PreviousWorkingDay(tt.from))
		})
	}
}
