/*
aggregate.go - Per-collaborator daily and weekly totals

PURPOSE:
  Turns a week's flat allocation set into the structure the grid renders:
  one row per collaborator, five weekday buckets, a day total per bucket,
  and a week total. Pure derivation - stored records are never mutated,
  and display rounding happens on the way out only.

PROJECTIONS:
  The same aggregate serves both the editable planning grid and the
  read-only viewer; the difference is presentation, not data. Area
  scoping happened at the store boundary before records reach here.

WEEKEND HOURS:
  The grid lays out Monday-Friday. Weekend allocations get no bucket but
  DO count toward the week total - a limitation of the five-day layout,
  kept deliberately.
*/
package planning

// =============================================================================
// BANDING - Visual state of a total
// =============================================================================

type Band string

const (
	BandOver   Band = "over"   // total > 40h
	BandNormal Band = "normal" // 0 < total <= 40h
	BandEmpty  Band = "empty"  // total == 0
)

// BandFor classifies a total. Pure function of the number: exactly 40 is
// normal, anything above is over, zero is empty.
func BandFor(t Hours) Band {
	switch {
	case t.GreaterThan(NewHoursFromInt(40)):
		return BandOver
	case t.IsZero():
		return BandEmpty
	default:
		return BandNormal
	}
}

// =============================================================================
// AGGREGATE - Grid rows
// =============================================================================

// DayEntry is one client's hours inside a day bucket.
type DayEntry struct {
	AllocationID AllocationID
	ClientID     ClientID
	Hours        Hours
}

// CollaboratorWeek is one grid row.
type CollaboratorWeek struct {
	CollaboratorID CollaboratorID
	Name           string
	Days           map[Date][]DayEntry
	DayTotals      map[Date]Hours
	WeekTotal      Hours
}

// DayBand returns the band of one day bucket.
func (cw *CollaboratorWeek) DayBand(d Date) Band {
	return BandFor(cw.DayTotals[d])
}

// WeekBand returns the band of the row total.
func (cw *CollaboratorWeek) WeekBand() Band { return BandFor(cw.WeekTotal) }

// WeekAggregate is the full grid for one week.
type WeekAggregate struct {
	Week     WeekKey
	Weekdays []Date
	Rows     map[CollaboratorID]*CollaboratorWeek
}

// Aggregate groups a week's allocations by collaborator. Collaborators
// without a single positive-hour record are omitted entirely - the grid
// shows no zero rows. Insertion order of the input never changes totals.
// The names index fills display names; unknown ids keep an empty name.
func Aggregate(week WeekKey, allocations []Allocation, names map[CollaboratorID]string) *WeekAggregate {
	agg := &WeekAggregate{
		Week:     week,
		Weekdays: week.Weekdays(),
		Rows:     make(map[CollaboratorID]*CollaboratorWeek),
	}

	weekday := make(map[Date]bool, 5)
	for _, d := range agg.Weekdays {
		weekday[d] = true
	}

	positive := make(map[CollaboratorID]bool)
	for _, a := range allocations {
		if a.Hours.IsPositive() {
			positive[a.CollaboratorID] = true
		}
	}

	for _, a := range allocations {
		if !positive[a.CollaboratorID] {
			continue
		}
		row, ok := agg.Rows[a.CollaboratorID]
		if !ok {
			row = &CollaboratorWeek{
				CollaboratorID: a.CollaboratorID,
				Name:           names[a.CollaboratorID],
				Days:           make(map[Date][]DayEntry),
				DayTotals:      make(map[Date]Hours),
				WeekTotal:      ZeroHours(),
			}
			agg.Rows[a.CollaboratorID] = row
		}

		// Weekend records count in the week total only.
		if weekday[a.Date] {
			row.Days[a.Date] = append(row.Days[a.Date], DayEntry{
				AllocationID: a.ID,
				ClientID:     a.ClientID,
				Hours:        a.Hours,
			})
			row.DayTotals[a.Date] = row.DayTotals[a.Date].Add(a.Hours)
		}
		row.WeekTotal = row.WeekTotal.Add(a.Hours)
	}

	return agg
}
