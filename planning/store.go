/*
store.go - Persistence contract for allocations and the directory

PURPOSE:
  Defines the interface between the planning engine and the database.
  The engine never touches SQL; it addresses allocations through the
  operations below. Different implementations back this with SQLite or
  in-memory storage.

KEY INTERFACES:
  AllocationStore: Allocation persistence (list, upsert, scoped deletes)
  Directory:       Collaborator and client lookups
  Store:           Both, as implementations provide them together

UPSERT CONTRACT:
  Upsert is keyed by (collaborator, client, date). If a record with that
  natural key exists its hours are replaced; otherwise a new record is
  created with a fresh id. Repeated or overlapping copy operations
  therefore converge instead of duplicating.

AREA SCOPING:
  Every list/delete takes an optional area. A nil area is administrative
  scope: all records. Scoping is enforced HERE, at the store boundary;
  the aggregation engine never re-checks it.

WEEK VERSIONS:
  Implementations maintain a version counter per (year, week), bumped on
  every mutation touching the week. Bulk operations use it to detect
  concurrent edits (see transition.go).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - planning/store/memory.go: In-memory for testing/dev
*/
package planning

import "context"

// =============================================================================
// ALLOCATION STORE - Interface for allocation persistence
// =============================================================================

// AllocationStore handles persistence of allocation records. Each delete
// variant is atomic from the caller's perspective and reports how many
// records it removed.
type AllocationStore interface {
	// ListWeek returns all allocations of a week, optionally area-scoped.
	ListWeek(ctx context.Context, week WeekKey, area *AreaID) ([]Allocation, error)

	// ListCollaboratorDay returns one collaborator's allocations on a
	// single date, optionally area-scoped.
	ListCollaboratorDay(ctx context.Context, id CollaboratorID, day Date, area *AreaID) ([]Allocation, error)

	// WeeksWithData returns the distinct week numbers carrying records in
	// a year, ascending. Used to populate week pickers.
	WeeksWithData(ctx context.Context, year int, area *AreaID) ([]int, error)

	// Upsert creates the allocation, or replaces the hours of the record
	// sharing its (collaborator, client, date) key. Returns the stored
	// record with its assigned id.
	Upsert(ctx context.Context, a Allocation) (Allocation, error)

	// Delete removes one allocation by id.
	Delete(ctx context.Context, id AllocationID) error

	// DeleteCollaboratorDay clears one collaborator's date. Invoked and
	// awaited before re-creating records in the copy-day flow so no stale
	// entry survives the copy.
	DeleteCollaboratorDay(ctx context.Context, id CollaboratorID, day Date, area *AreaID) (int, error)

	// DeleteCollaboratorWeek clears one collaborator's week.
	DeleteCollaboratorWeek(ctx context.Context, id CollaboratorID, week WeekKey) (int, error)

	// DeleteWeek clears a whole week, optionally area-scoped.
	DeleteWeek(ctx context.Context, week WeekKey, area *AreaID) (int, error)

	// WeekVersion returns the optimistic version token of a week. Zero
	// means the week has never been written.
	WeekVersion(ctx context.Context, week WeekKey) (int64, error)
}

// =============================================================================
// DIRECTORY - Collaborator and client lookups
// =============================================================================

// Directory provides the reference data allocations point at.
type Directory interface {
	// Collaborators returns collaborators, optionally filtered by area.
	Collaborators(ctx context.Context, area *AreaID) ([]Collaborator, error)

	// Clients returns clients, optionally filtered by area.
	Clients(ctx context.Context, area *AreaID) ([]Client, error)

	SaveCollaborator(ctx context.Context, c Collaborator) error
	SaveClient(ctx context.Context, c Client) error
}

// Store is the full persistence surface the server wires up.
type Store interface {
	AllocationStore
	Directory
}
