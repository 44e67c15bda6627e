package planning

// =============================================================================
// AREA SCOPE - Role/area visibility predicate
// =============================================================================

// Scope is the caller's visibility. A nil Area is administrative scope:
// every record is visible. A set Area narrows listing, editing, and the
// default selection of area pickers to that area.
type Scope struct {
	Area *AreaID
}

// AdminScope sees everything.
func AdminScope() Scope { return Scope{} }

// AreaScope sees a single area.
func AreaScope(area AreaID) Scope { return Scope{Area: &area} }

// IsAdmin reports whether the scope is unrestricted.
func (s Scope) IsAdmin() bool { return s.Area == nil }

// Visible reports whether an allocation is visible to the scope. This is
// the single predicate of the role/area filter: callers with no area see
// all, callers with an area see only matching records. Records without an
// area are visible to everyone.
func (s Scope) Visible(a Allocation) bool {
	if s.Area == nil {
		return true
	}
	return a.AreaID != nil && *a.AreaID == *s.Area
}

// VisibleCollaborator mirrors Visible for directory entries, used by the
// area-selector defaults.
func (s Scope) VisibleCollaborator(c Collaborator) bool {
	if s.Area == nil {
		return true
	}
	return c.AreaID != nil && *c.AreaID == *s.Area
}
