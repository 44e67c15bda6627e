/*
errors.go - Centralized error types for the planning engine

PURPOSE:
  All error kinds in one place. The engine never swallows a failed write:
  every mutation's outcome (a count or one of these errors) is observable
  by the caller, and no error here is fatal to the process.

ERROR CATEGORIES:
  1. Recoverable no-ops - Empty copy sources, nothing to seed
  2. Bulk outcomes - Partial success of multi-record operations
  3. Store errors - Persistence-level failures, stale week versions

SEE ALSO:
  - transition.go: Produces these errors
  - api/handlers.go: Maps them to HTTP statuses
*/
package planning

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoPriorData is returned when a copy operation finds no source
	// allocations. Recoverable: surfaced to the user as a no-op notice.
	ErrNoPriorData = errors.New("no prior allocations to copy")

	// ErrNoCollaborators is returned when seeding a template week finds
	// neither prior-week collaborators nor any assigned to the area.
	// The operation aborts before any writes.
	ErrNoCollaborators = errors.New("no collaborators to seed")

	// ErrStoreUnavailable is returned when the persistence layer is
	// unreachable. The engine attempts no retry of its own.
	ErrStoreUnavailable = errors.New("allocation store unavailable")

	// ErrStaleWeek is returned when an optimistic week version check
	// fails: another operation mutated the week since the caller read it.
	ErrStaleWeek = errors.New("week was modified concurrently")

	// ErrAllocationNotFound is returned when an id does not resolve.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrInvalidHours is returned for negative hours or more hours than
	// a week holds.
	ErrInvalidHours = errors.New("hours must be between 0 and 168")

	// ErrInvalidWeek is returned for week numbers outside 1-52.
	ErrInvalidWeek = errors.New("week number out of range")

	// ErrNoFallbackClient is returned when a template week cannot resolve
	// a vacation client for the area and no global fallback is configured.
	ErrNoFallbackClient = errors.New("no fallback client configured")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NoPriorDataError reports which source the copy found empty.
type NoPriorDataError struct {
	CollaboratorID CollaboratorID
	Source         Date
	SourceWeek     WeekKey
}

func (e *NoPriorDataError) Error() string {
	if !e.Source.IsZero() {
		return fmt.Sprintf("no allocations on %s to copy", e.Source)
	}
	return fmt.Sprintf("no allocations in %s to copy", e.SourceWeek)
}

func (e *NoPriorDataError) Unwrap() error { return ErrNoPriorData }

// PartialBulkError reports a best-effort bulk operation that completed
// with failures. Successfully written records are NOT rolled back.
type PartialBulkError struct {
	Operation string
	Succeeded int
	Total     int
	Errs      []error
}

func (e *PartialBulkError) Error() string {
	return fmt.Sprintf("%s: %d of %d records applied", e.Operation, e.Succeeded, e.Total)
}

func (e *PartialBulkError) Unwrap() error {
	if len(e.Errs) == 1 {
		return e.Errs[0]
	}
	return nil
}

// StaleWeekError reports an optimistic concurrency rejection.
type StaleWeekError struct {
	Week     WeekKey
	Expected int64
	Actual   int64
}

func (e *StaleWeekError) Error() string {
	return fmt.Sprintf("week %s version %d, expected %d", e.Week, e.Actual, e.Expected)
}

func (e *StaleWeekError) Unwrap() error { return ErrStaleWeek }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNoOp returns true when the error means "nothing to do", which the UI
// surfaces as a notice rather than a failure.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrNoPriorData)
}

// IsClientError returns true if the error is due to invalid caller input
// or a recoverable condition.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoPriorData) ||
		errors.Is(err, ErrNoCollaborators) ||
		errors.Is(err, ErrInvalidHours) ||
		errors.Is(err, ErrInvalidWeek) ||
		errors.Is(err, ErrStaleWeek)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAllocationNotFound)
}
