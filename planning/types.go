/*
Package planning provides the weekly allocation grid engine.

PURPOSE:
  This package contains the core types and algorithms for planning
  collaborator hours across clients week by week. It covers calendar math
  (ISO weeks), aggregation of allocations into per-day and per-week totals,
  and the bulk week-transition operations (copy day, copy week, seed a
  template week, delete).

KEY CONCEPTS IN THIS FILE (types.go):
  - Allocation: A single (collaborator, client, date, hours) record
  - Collaborator/Client: The directory entities referenced by allocations
  - Hours: A decimal quantity of hours (display rounding never mutates it)
  - Typed IDs: Prevent mixing collaborator, client, and area identifiers

DESIGN PRINCIPLES:
  1. Natural-key upsert: at most one allocation per
     (collaborator, client, date); a second write replaces the first
  2. Precision: decimal.Decimal for hours, no floating-point drift
  3. Derivation only: aggregation never mutates stored records
  4. Explicit parameters: every operation takes (year, week, area)
     arguments, nothing reads ambient state

SEE ALSO:
  - week.go: WeekKey and calendar arithmetic
  - store.go: Persistence contract the engine relies on
  - aggregate.go: Per-collaborator totals and banding
  - transition.go: Bulk copy/seed/delete operations
*/
package planning

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AllocationID string
type CollaboratorID string
type ClientID string
type AreaID string
type ProjectTypeID string
type ProjectCategoryID string

// =============================================================================
// HOURS - Decimal hour quantity
// =============================================================================

// Hours is a non-negative quantity of hours. Stored values keep full
// precision; rounding to one decimal happens only at display time.
type Hours struct {
	Value decimal.Decimal
}

func NewHours(v float64) Hours             { return Hours{Value: decimal.NewFromFloat(v)} }
func ParseHours(s string) (Hours, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Hours{}, err
	}
	return Hours{Value: d}, nil
}
func NewHoursFromInt(v int) Hours          { return Hours{Value: decimal.NewFromInt(int64(v))} }
func ZeroHours() Hours                     { return Hours{Value: decimal.Zero} }
func (h Hours) Add(o Hours) Hours          { return Hours{Value: h.Value.Add(o.Value)} }
func (h Hours) IsZero() bool               { return h.Value.IsZero() }
func (h Hours) IsPositive() bool           { return h.Value.IsPositive() }
func (h Hours) IsNegative() bool           { return h.Value.IsNegative() }
func (h Hours) GreaterThan(o Hours) bool   { return h.Value.GreaterThan(o.Value) }
func (h Hours) Equal(o Hours) bool         { return h.Value.Equal(o.Value) }

// Rounded returns the display value, rounded to one decimal place.
// The receiver is never mutated: rounding is a presentation transform.
func (h Hours) Rounded() decimal.Decimal { return h.Value.Round(1) }

func (h Hours) String() string { return h.Rounded().String() }

// MustParseDecimal parses a stored decimal string, falling back to zero
// on corrupt input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MaxWeekHours caps a single allocation: there are only 168 hours in a week.
var MaxWeekHours = NewHoursFromInt(168)

// ValidHours reports whether h is acceptable for an allocation.
func ValidHours(h Hours) bool {
	return !h.IsNegative() && !h.GreaterThan(MaxWeekHours)
}

// =============================================================================
// ALLOCATION - The leaf record of the planning grid
// =============================================================================

// Allocation assigns hours of one collaborator to one client on one date.
// Invariant: at most one allocation exists per (CollaboratorID, ClientID,
// Date) triple; writes to an existing triple replace the stored hours.
type Allocation struct {
	ID             AllocationID
	CollaboratorID CollaboratorID
	ClientID       ClientID
	Date           Date
	Hours          Hours
	Week           int
	Year           int
	AreaID         *AreaID
}

// Key returns the natural key that de-duplicates allocations.
func (a Allocation) Key() AllocationKey {
	return AllocationKey{
		CollaboratorID: a.CollaboratorID,
		ClientID:       a.ClientID,
		Date:           a.Date,
	}
}

// AllocationKey is the natural identity of an allocation.
type AllocationKey struct {
	CollaboratorID CollaboratorID
	ClientID       ClientID
	Date           Date
}

// =============================================================================
// DIRECTORY ENTITIES
// =============================================================================

// Collaborator is a person whose hours are planned. The optional area
// restricts which callers see their allocations.
type Collaborator struct {
	ID     CollaboratorID
	Name   string
	AreaID *AreaID
}

// Client is an allocation target (a project, in UI terms). One client per
// area may carry the vacation category, making it the default target when
// seeding a placeholder week.
type Client struct {
	ID                ClientID
	Name              string
	ProjectTypeID     ProjectTypeID
	ProjectCategoryID ProjectCategoryID
	AreaID            *AreaID
}
