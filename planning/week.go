/*
week.go - Calendar arithmetic for the planning grid

PURPOSE:
  Dates, ISO week numbers, and the WeekKey identity that partitions the
  allocation grid. All bulk operations address allocations through a
  (year, week) pair; this file owns the mapping between those pairs and
  concrete Monday-to-Sunday date ranges.

WEEK NUMBERING:
  ISOWeekNumber follows ISO-8601: the week belongs to the year that owns
  its Thursday. MondayOfWeek uses the simple "January 1st plus (week-1)*7,
  snapped to the nearest Monday" construction. The two round-trip for
  weeks 1-52 of any year.

KNOWN LIMITATION:
  The grid caps week numbers at 52. In 53-week ISO years, NextWeek wraps
  week 52 straight to week 1 of the following year. This is a documented
  limitation of the five-day grid layout, not a bug to silently correct.

SEE ALSO:
  - types.go: Allocation carries Week/Year denormalized from its Date
  - transition.go: Week rollover operations built on NextWeek
*/
package planning

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (always UTC)
// =============================================================================

type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now().UTC()) }

func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }
func (d Date) IsZero() bool       { return d.Time.IsZero() }

func (d Date) Year() int              { return d.Time.Year() }
func (d Date) Weekday() time.Weekday  { return d.Time.Weekday() }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Date) IsWorkday() bool { return !d.IsWeekend() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// DaysBetween returns the whole days from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}

// =============================================================================
// ISO WEEK NUMBER
// =============================================================================

// ISOWeekNumber returns the ISO-8601 week number of a date. The week is
// shifted to its Thursday first, so the week belongs to the year owning
// the Thursday. Returns 53 for dates in the last week of 53-week years.
func ISOWeekNumber(d Date) int {
	dow := int(d.Weekday()) // Sunday=0 .. Saturday=6
	if dow == 0 {
		dow = 7 // Monday=1 .. Sunday=7
	}
	thursday := d.AddDays(4 - dow)
	yearStart := NewDate(thursday.Year(), time.January, 1)
	return (DaysBetween(yearStart, thursday) + 7) / 7
}

// MondayOfWeek returns the Monday starting the given ISO week. It uses the
// simple construction the grid relies on: January 1st plus (week-1)*7 days,
// snapped to the Monday of that calendar week (back for Mon-Thu, forward
// for Fri-Sun). Consistent with ISOWeekNumber for round-tripping.
func MondayOfWeek(week, year int) Date {
	simple := NewDate(year, time.January, 1).AddDays((week - 1) * 7)
	dow := int(simple.Weekday()) // Sunday=0 .. Saturday=6
	if dow <= 4 {
		return simple.AddDays(1 - dow)
	}
	return simple.AddDays(8 - dow)
}

// PreviousWorkingDay returns the closest working day strictly before d:
// Monday reaches back to the prior week's Friday, weekend days collapse to
// the Friday just before them, every other day steps back one day.
func PreviousWorkingDay(d Date) Date {
	switch d.Weekday() {
	case time.Monday:
		return d.AddDays(-3)
	case time.Sunday:
		return d.AddDays(-2)
	case time.Saturday:
		return d.AddDays(-1)
	default:
		return d.AddDays(-1)
	}
}

// =============================================================================
// WEEK KEY - (year, week) identity of a planning period
// =============================================================================

// WeekKey identifies one planning week. It is derived, never stored as a
// row of its own: allocations are partitioned by it for display and bulk
// operations.
type WeekKey struct {
	Year int
	Week int
}

func NewWeekKey(year, week int) WeekKey { return WeekKey{Year: year, Week: week} }

// WeekOf returns the week key containing a date. Year follows the
// Thursday of the date's week, per ISO.
func WeekOf(d Date) WeekKey {
	dow := int(d.Weekday())
	if dow == 0 {
		dow = 7
	}
	thursday := d.AddDays(4 - dow)
	return WeekKey{Year: thursday.Year(), Week: ISOWeekNumber(d)}
}

// Next returns the following week, wrapping week 52 to week 1 of the next
// year. The grid never shows week 53 (see package limitation note).
func (k WeekKey) Next() WeekKey {
	if k.Week >= 52 {
		return WeekKey{Year: k.Year + 1, Week: 1}
	}
	return WeekKey{Year: k.Year, Week: k.Week + 1}
}

// Previous returns the preceding week, wrapping week 1 to week 52 of the
// prior year.
func (k WeekKey) Previous() WeekKey {
	if k.Week <= 1 {
		return WeekKey{Year: k.Year - 1, Week: 52}
	}
	return WeekKey{Year: k.Year, Week: k.Week - 1}
}

// Monday returns the first day of the week.
func (k WeekKey) Monday() Date { return MondayOfWeek(k.Week, k.Year) }

// Weekdays returns the Monday-Friday dates of the week, the five columns
// the grid displays.
func (k WeekKey) Weekdays() []Date {
	monday := k.Monday()
	days := make([]Date, 5)
	for i := range days {
		days[i] = monday.AddDays(i)
	}
	return days
}

// Days returns all seven dates of the week. Weekend allocations are not
// displayed but still count toward week totals.
func (k WeekKey) Days() []Date {
	monday := k.Monday()
	days := make([]Date, 7)
	for i := range days {
		days[i] = monday.AddDays(i)
	}
	return days
}

// Contains reports whether the date falls inside the week's seven days.
func (k WeekKey) Contains(d Date) bool {
	monday := k.Monday()
	sunday := monday.AddDays(6)
	return !d.Before(monday) && !d.After(sunday)
}

// Valid reports whether the key addresses a selectable grid week.
func (k WeekKey) Valid() bool {
	return k.Week >= 1 && k.Week <= 52 && k.Year > 0
}

func (k WeekKey) String() string { return fmt.Sprintf("%04d-W%02d", k.Year, k.Week) }
