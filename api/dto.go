/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal planning model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers. Hour values cross the wire as strings to keep decimal
  precision out of float64 territory.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/weekplan/planning"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// AllocationDTO represents one allocation record.
type AllocationDTO struct {
	ID             string  `json:"id"`
	CollaboratorID string  `json:"collaborator_id"`
	ClientID       string  `json:"client_id"`
	Date           string  `json:"date"`
	Hours          string  `json:"hours"`
	Week           int     `json:"week"`
	Year           int     `json:"year"`
	AreaID         *string `json:"area_id,omitempty"`
}

// UpsertAllocationRequest creates or replaces an allocation by its
// (collaborator, client, date) key.
type UpsertAllocationRequest struct {
	CollaboratorID string  `json:"collaborator_id"`
	ClientID       string  `json:"client_id"`
	Date           string  `json:"date"`
	Hours          float64 `json:"hours"`
	AreaID         *string `json:"area_id,omitempty"`
}

// DayEntryDTO is one client's hours inside a grid cell.
type DayEntryDTO struct {
	AllocationID string `json:"allocation_id"`
	ClientID     string `json:"client_id"`
	Hours        string `json:"hours"`
}

// DayCellDTO is one weekday cell of a row: its entries, rounded total,
// and band.
type DayCellDTO struct {
	Date    string        `json:"date"`
	Entries []DayEntryDTO `json:"entries"`
	Total   string        `json:"total"`
	Band    string        `json:"band"`
}

// GridRowDTO is one collaborator's row of the weekly grid.
type GridRowDTO struct {
	CollaboratorID string       `json:"collaborator_id"`
	Name           string       `json:"name"`
	Days           []DayCellDTO `json:"days"`
	WeekTotal      string       `json:"week_total"`
	WeekBand       string       `json:"week_band"`
}

// GridDTO is the aggregated week the grid renders.
type GridDTO struct {
	Year     int          `json:"year"`
	Week     int          `json:"week"`
	Weekdays []string     `json:"weekdays"`
	Rows     []GridRowDTO `json:"rows"`
	Version  int64        `json:"version"`
}

// CopyDayRequest drives the copy-previous-day operation.
type CopyDayRequest struct {
	TargetDate string  `json:"target_date"`
	AreaID     *string `json:"area_id,omitempty"`
}

// WeekOperationRequest drives copy-previous-week and create-next-week.
// Version, when non-zero, is the week version the caller last read;
// a mismatch rejects the operation.
type WeekOperationRequest struct {
	AreaID  *string `json:"area_id,omitempty"`
	Version int64   `json:"version,omitempty"`
}

// BulkResultDTO reports the outcome of a bulk operation. Failed is
// non-zero when the operation completed partially.
type BulkResultDTO struct {
	Applied int    `json:"applied"`
	Failed  int    `json:"failed,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

// DeleteResultDTO reports how many records a delete removed.
type DeleteResultDTO struct {
	Deleted int `json:"deleted"`
}

// CollaboratorDTO represents a directory entry.
type CollaboratorDTO struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	AreaID *string `json:"area_id,omitempty"`
}

// ClientDTO represents an allocation target.
type ClientDTO struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	ProjectTypeID     string  `json:"project_type_id,omitempty"`
	ProjectCategoryID string  `json:"project_category_id,omitempty"`
	AreaID            *string `json:"area_id,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toAllocationDTO(a planning.Allocation) AllocationDTO {
	return AllocationDTO{
		ID:             string(a.ID),
		CollaboratorID: string(a.CollaboratorID),
		ClientID:       string(a.ClientID),
		Date:           a.Date.String(),
		Hours:          a.Hours.Rounded().String(),
		Week:           a.Week,
		Year:           a.Year,
		AreaID:         areaString(a.AreaID),
	}
}

func areaString(a *planning.AreaID) *string {
	if a == nil {
		return nil
	}
	s := string(*a)
	return &s
}

func areaID(s *string) *planning.AreaID {
	if s == nil || *s == "" {
		return nil
	}
	a := planning.AreaID(*s)
	return &a
}
