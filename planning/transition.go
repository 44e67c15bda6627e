/*
transition.go - Week rollover and bulk copy operations

PURPOSE:
  The only component that creates or deletes allocations in bulk. Each
  operation takes explicit (year, week, area) arguments and runs as a
  sequence of awaited store calls - there is no ambient selection state.

OPERATIONS:
  CopyPreviousDay:  Overwrite one collaborator's day from the previous
                    working day. Destructive overwrite, not merge.
  CopyPreviousWeek: Copy a whole week into the next one, upserting by
                    natural key at the target.
  CreateNextWeek:   Seed the next week as a placeholder template: one 8h
                    Monday allocation per collaborator, against the
                    area's vacation client. An approximation on purpose,
                    not a forecast. Distinct from CopyPreviousWeek and
                    intentionally kept so.
  DeleteWeek / DeleteCollaboratorWeek: Scoped bulk deletes, idempotent.

FAILURE SEMANTICS:
  Individual record writes fully succeed or fully fail. Multi-record
  operations are best-effort: a failed record is counted and skipped,
  never retried, and successes are not rolled back. The caller gets a
  PartialBulkError carrying succeeded/total.

CONCURRENCY:
  CreateNextWeek seeds collaborators concurrently - each write targets a
  disjoint (collaborator, date) key, so writes cannot conflict. Bulk
  operations optionally carry an expected week version; a mismatch means
  another caller mutated the target week and the operation is rejected
  before any write (ErrStaleWeek). Version 0 skips the check.
*/
package planning

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// TemplateHours is the placeholder granted per collaborator when seeding
// a template week.
var TemplateHours = NewHoursFromInt(8)

// seedConcurrency bounds parallel writes in CreateNextWeek.
const seedConcurrency = 4

// Engine executes the week-transition operations against a store.
type Engine struct {
	Store     AllocationStore
	Directory Directory
	Fallback  *FallbackResolver
	Log       zerolog.Logger
}

func NewEngine(store AllocationStore, dir Directory, fallback *FallbackResolver, log zerolog.Logger) *Engine {
	return &Engine{Store: store, Directory: dir, Fallback: fallback, Log: log}
}

// =============================================================================
// SINGLE-RECORD EDIT
// =============================================================================

// UpsertAllocation validates and stores one allocation, deriving the
// week/year columns from the date. Writing to an existing
// (collaborator, client, date) key replaces the stored hours.
func (e *Engine) UpsertAllocation(ctx context.Context, a Allocation) (Allocation, error) {
	if !ValidHours(a.Hours) {
		return Allocation{}, ErrInvalidHours
	}
	wk := WeekOf(a.Date)
	a.Week = wk.Week
	a.Year = wk.Year
	return e.Store.Upsert(ctx, a)
}

// =============================================================================
// COPY PREVIOUS DAY
// =============================================================================

// CopyPreviousDay overwrites a collaborator's target date with the
// allocations of the previous working day (Friday for Monday targets).
// The target day is cleared first and the delete is awaited, so no stale
// entry survives. Returns the number of allocations created. Repeating
// the call with an unchanged source yields the same final set.
func (e *Engine) CopyPreviousDay(ctx context.Context, id CollaboratorID, target Date, area *AreaID) (int, error) {
	source := PreviousWorkingDay(target)

	src, err := e.Store.ListCollaboratorDay(ctx, id, source, area)
	if err != nil {
		return 0, err
	}
	if len(src) == 0 {
		return 0, &NoPriorDataError{CollaboratorID: id, Source: source}
	}

	// Full overwrite: clear the target before writing replacements.
	if _, err := e.Store.DeleteCollaboratorDay(ctx, id, target, area); err != nil {
		return 0, err
	}

	wk := WeekOf(target)
	created := 0
	var errs []error
	for _, a := range src {
		_, err := e.Store.Upsert(ctx, Allocation{
			CollaboratorID: a.CollaboratorID,
			ClientID:       a.ClientID,
			Date:           target,
			Hours:          a.Hours,
			Week:           wk.Week,
			Year:           wk.Year,
			AreaID:         a.AreaID,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		created++
	}

	e.Log.Info().
		Str("collaborator", string(id)).
		Str("source", source.String()).
		Str("target", target.String()).
		Int("created", created).
		Msg("copied previous day")

	if len(errs) > 0 {
		return created, &PartialBulkError{Operation: "copy previous day", Succeeded: created, Total: len(src), Errs: errs}
	}
	return created, nil
}

// =============================================================================
// COPY PREVIOUS WEEK
// =============================================================================

// CopyPreviousWeek copies every allocation of the source week into the
// following week, shifting dates by seven days and rewriting week/year.
// Additive at the target: conflicting natural keys are replaced via
// upsert, never duplicated. Returns the number of allocations written.
func (e *Engine) CopyPreviousWeek(ctx context.Context, source WeekKey, area *AreaID, expectedVersion int64) (int, error) {
	if !source.Valid() {
		return 0, ErrInvalidWeek
	}
	target := source.Next()

	if err := e.checkVersion(ctx, target, expectedVersion); err != nil {
		return 0, err
	}

	src, err := e.Store.ListWeek(ctx, source, area)
	if err != nil {
		return 0, err
	}
	if len(src) == 0 {
		return 0, &NoPriorDataError{SourceWeek: source}
	}

	copied := 0
	var errs []error
	for _, a := range src {
		_, err := e.Store.Upsert(ctx, Allocation{
			CollaboratorID: a.CollaboratorID,
			ClientID:       a.ClientID,
			Date:           a.Date.AddDays(7),
			Hours:          a.Hours,
			Week:           target.Week,
			Year:           target.Year,
			AreaID:         a.AreaID,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		copied++
	}

	e.Log.Info().
		Str("source", source.String()).
		Str("target", target.String()).
		Int("copied", copied).
		Msg("copied previous week")

	if len(errs) > 0 {
		return copied, &PartialBulkError{Operation: "copy previous week", Succeeded: copied, Total: len(src), Errs: errs}
	}
	return copied, nil
}

// =============================================================================
// CREATE NEXT WEEK (template seeding)
// =============================================================================

// CreateNextWeek seeds the week after source with a placeholder: one
// TemplateHours allocation on the new week's Monday per collaborator.
// Collaborators come from the source week's allocations; when the source
// is empty, from the area's directory. The target client is the area's
// vacation client, else the global fallback. Seeding is concurrent since
// every write targets a disjoint (collaborator, date) key.
func (e *Engine) CreateNextWeek(ctx context.Context, source WeekKey, area *AreaID, expectedVersion int64) (int, error) {
	if !source.Valid() {
		return 0, ErrInvalidWeek
	}
	target := source.Next()

	if err := e.checkVersion(ctx, target, expectedVersion); err != nil {
		return 0, err
	}

	collaborators, err := e.seedCollaborators(ctx, source, area)
	if err != nil {
		return 0, err
	}

	client, err := e.Fallback.Resolve(area)
	if err != nil {
		return 0, err
	}

	monday := target.Monday()

	var (
		mu      sync.Mutex
		created int
		errs    []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)
	for _, id := range collaborators {
		id := id
		g.Go(func() error {
			_, err := e.Store.Upsert(gctx, Allocation{
				CollaboratorID: id,
				ClientID:       client,
				Date:           monday,
				Hours:          TemplateHours,
				Week:           target.Week,
				Year:           target.Year,
				AreaID:         area,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			} else {
				created++
			}
			// Best-effort bulk: a failed record is counted, not fatal.
			return nil
		})
	}
	_ = g.Wait()

	e.Log.Info().
		Str("target", target.String()).
		Int("seeded", created).
		Int("collaborators", len(collaborators)).
		Msg("created next week template")

	if len(errs) > 0 {
		return created, &PartialBulkError{Operation: "create next week", Succeeded: created, Total: len(collaborators), Errs: errs}
	}
	return created, nil
}

// seedCollaborators returns the distinct collaborators of the source
// week, falling back to the directory of the area when the week is empty.
func (e *Engine) seedCollaborators(ctx context.Context, source WeekKey, area *AreaID) ([]CollaboratorID, error) {
	src, err := e.Store.ListWeek(ctx, source, area)
	if err != nil {
		return nil, err
	}

	seen := make(map[CollaboratorID]bool)
	var ids []CollaboratorID
	for _, a := range src {
		if !seen[a.CollaboratorID] {
			seen[a.CollaboratorID] = true
			ids = append(ids, a.CollaboratorID)
		}
	}
	if len(ids) > 0 {
		return ids, nil
	}

	members, err := e.Directory.Collaborators(ctx, area)
	if err != nil {
		return nil, err
	}
	for _, c := range members {
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return nil, ErrNoCollaborators
	}
	return ids, nil
}

// =============================================================================
// DELETES
// =============================================================================

// DeleteCollaboratorWeek removes one collaborator's allocations in a
// week. Idempotent: repeated calls return 0.
func (e *Engine) DeleteCollaboratorWeek(ctx context.Context, id CollaboratorID, week WeekKey) (int, error) {
	n, err := e.Store.DeleteCollaboratorWeek(ctx, id, week)
	if err != nil {
		return 0, err
	}
	e.Log.Info().Str("collaborator", string(id)).Str("week", week.String()).Int("deleted", n).Msg("deleted collaborator week")
	return n, nil
}

// DeleteWeek removes a whole week, optionally area-scoped. The engine
// applies no confirmation of its own - requiring the user to confirm
// twice is the caller's contract. Idempotent.
func (e *Engine) DeleteWeek(ctx context.Context, week WeekKey, area *AreaID, expectedVersion int64) (int, error) {
	if err := e.checkVersion(ctx, week, expectedVersion); err != nil {
		return 0, err
	}
	n, err := e.Store.DeleteWeek(ctx, week, area)
	if err != nil {
		return 0, err
	}
	e.Log.Info().Str("week", week.String()).Int("deleted", n).Msg("deleted week")
	return n, nil
}

// checkVersion rejects the operation when the week's version token moved
// past what the caller read. expected == 0 disables the check.
func (e *Engine) checkVersion(ctx context.Context, week WeekKey, expected int64) error {
	if expected == 0 {
		return nil
	}
	actual, err := e.Store.WeekVersion(ctx, week)
	if err != nil {
		return err
	}
	if actual != expected {
		return &StaleWeekError{Week: week, Expected: expected, Actual: actual}
	}
	return nil
}
