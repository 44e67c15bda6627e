/*
fallback.go - Default allocation target for template weeks

PURPOSE:
  When createNextWeek seeds a placeholder week, every collaborator gets a
  single 8h allocation against their area's "vacation" client. Which
  client that is gets resolved ONCE, at configuration time, from the
  client directory and the configured vacation category id. Re-deriving
  it by scanning clients on every call was deliberately dropped: the
  binding is a named capability, not a magic-id lookup.

RESOLUTION ORDER:
  1. The client of the requested area carrying the vacation category
  2. A vacation-category client with no area (global)
  3. The explicitly configured global fallback client
*/
package planning

import "context"

// FallbackResolver answers "which client receives placeholder hours for
// area X". Built once at startup, consulted by the transition engine.
type FallbackResolver struct {
	byArea   map[AreaID]ClientID
	global   ClientID
	hasGlobal bool
}

// NewFallbackResolver indexes the vacation clients of the directory.
// globalFallback may be empty when a global vacation client exists.
func NewFallbackResolver(ctx context.Context, dir Directory, vacationCategory ProjectCategoryID, globalFallback ClientID) (*FallbackResolver, error) {
	clients, err := dir.Clients(ctx, nil)
	if err != nil {
		return nil, err
	}

	r := &FallbackResolver{byArea: make(map[AreaID]ClientID)}
	for _, c := range clients {
		if c.ProjectCategoryID != vacationCategory {
			continue
		}
		if c.AreaID != nil {
			r.byArea[*c.AreaID] = c.ID
		} else if !r.hasGlobal {
			r.global = c.ID
			r.hasGlobal = true
		}
	}
	if globalFallback != "" {
		r.global = globalFallback
		r.hasGlobal = true
	}
	return r, nil
}

// Resolve returns the fallback client for an area. A nil area, or an area
// with no vacation client of its own, falls through to the global client.
func (r *FallbackResolver) Resolve(area *AreaID) (ClientID, error) {
	if area != nil {
		if id, ok := r.byArea[*area]; ok {
			return id, nil
		}
	}
	if r.hasGlobal {
		return r.global, nil
	}
	return "", ErrNoFallbackClient
}
