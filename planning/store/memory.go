// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/weekplan/planning"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	allocations   map[planning.AllocationKey]planning.Allocation
	versions      map[planning.WeekKey]int64
	collaborators map[planning.CollaboratorID]planning.Collaborator
	clients       map[planning.ClientID]planning.Client
}

func NewMemory() *Memory {
	return &Memory{
		allocations:   make(map[planning.AllocationKey]planning.Allocation),
		versions:      make(map[planning.WeekKey]int64),
		collaborators: make(map[planning.CollaboratorID]planning.Collaborator),
		clients:       make(map[planning.ClientID]planning.Client),
	}
}

func inArea(recordArea, filter *planning.AreaID) bool {
	if filter == nil {
		return true
	}
	return recordArea != nil && *recordArea == *filter
}

// =============================================================================
// ALLOCATION STORE
// =============================================================================

func (m *Memory) ListWeek(_ context.Context, week planning.WeekKey, area *planning.AreaID) ([]planning.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []planning.Allocation
	for _, a := range m.allocations {
		if a.Year == week.Year && a.Week == week.Week && inArea(a.AreaID, area) {
			result = append(result, a)
		}
	}
	sortAllocations(result)
	return result, nil
}

func (m *Memory) ListCollaboratorDay(_ context.Context, id planning.CollaboratorID, day planning.Date, area *planning.AreaID) ([]planning.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []planning.Allocation
	for _, a := range m.allocations {
		if a.CollaboratorID == id && a.Date.Equal(day) && inArea(a.AreaID, area) {
			result = append(result, a)
		}
	}
	sortAllocations(result)
	return result, nil
}

func (m *Memory) WeeksWithData(_ context.Context, year int, area *planning.AreaID) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int]bool)
	for _, a := range m.allocations {
		if a.Year == year && inArea(a.AreaID, area) {
			seen[a.Week] = true
		}
	}
	weeks := make([]int, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks, nil
}

// Upsert replaces the record sharing the natural key, or creates a new
// one with a fresh id. The week version is bumped either way.
func (m *Memory) Upsert(_ context.Context, a planning.Allocation) (planning.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := a.Key()
	if existing, ok := m.allocations[k]; ok {
		a.ID = existing.ID
	} else {
		a.ID = planning.AllocationID(uuid.NewString())
	}
	m.allocations[k] = a
	m.bumpLocked(planning.NewWeekKey(a.Year, a.Week))
	return a, nil
}

func (m *Memory) Delete(_ context.Context, id planning.AllocationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, a := range m.allocations {
		if a.ID == id {
			delete(m.allocations, k)
			m.bumpLocked(planning.NewWeekKey(a.Year, a.Week))
			return nil
		}
	}
	return planning.ErrAllocationNotFound
}

func (m *Memory) DeleteCollaboratorDay(_ context.Context, id planning.CollaboratorID, day planning.Date, area *planning.AreaID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteWhereLocked(func(a planning.Allocation) bool {
		return a.CollaboratorID == id && a.Date.Equal(day) && inArea(a.AreaID, area)
	}), nil
}

func (m *Memory) DeleteCollaboratorWeek(_ context.Context, id planning.CollaboratorID, week planning.WeekKey) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteWhereLocked(func(a planning.Allocation) bool {
		return a.CollaboratorID == id && a.Year == week.Year && a.Week == week.Week
	}), nil
}

func (m *Memory) DeleteWeek(_ context.Context, week planning.WeekKey, area *planning.AreaID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteWhereLocked(func(a planning.Allocation) bool {
		return a.Year == week.Year && a.Week == week.Week && inArea(a.AreaID, area)
	}), nil
}

func (m *Memory) WeekVersion(_ context.Context, week planning.WeekKey) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[week], nil
}

func (m *Memory) deleteWhereLocked(match func(planning.Allocation) bool) int {
	count := 0
	for k, a := range m.allocations {
		if match(a) {
			delete(m.allocations, k)
			m.bumpLocked(planning.NewWeekKey(a.Year, a.Week))
			count++
		}
	}
	return count
}

func (m *Memory) bumpLocked(week planning.WeekKey) {
	m.versions[week]++
}

// sortAllocations gives list results a stable order: by collaborator,
// then date, then client.
func sortAllocations(as []planning.Allocation) {
	sort.Slice(as, func(i, j int) bool {
		if as[i].CollaboratorID != as[j].CollaboratorID {
			return as[i].CollaboratorID < as[j].CollaboratorID
		}
		if !as[i].Date.Equal(as[j].Date) {
			return as[i].Date.Before(as[j].Date)
		}
		return as[i].ClientID < as[j].ClientID
	})
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (m *Memory) Collaborators(_ context.Context, area *planning.AreaID) ([]planning.Collaborator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []planning.Collaborator
	for _, c := range m.collaborators {
		if inArea(c.AreaID, area) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) Clients(_ context.Context, area *planning.AreaID) ([]planning.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []planning.Client
	for _, c := range m.clients {
		if inArea(c.AreaID, area) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveCollaborator(_ context.Context, c planning.Collaborator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collaborators[c.ID] = c
	return nil
}

func (m *Memory) SaveClient(_ context.Context, c planning.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return nil
}
