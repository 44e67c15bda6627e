/*
handlers.go - HTTP API handlers for the planning grid

PURPOSE:
  Exposes the allocation grid and week-transition engine via REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  the planning package.

ENDPOINTS:
  Grid:
    GET    /api/grid/{year}/{week}                Aggregated week grid
    GET    /api/weeks/{year}                      Week numbers with data

  Allocations:
    POST   /api/allocations                       Natural-key upsert
    DELETE /api/allocations/{id}                  Delete one record

  Week transitions:
    POST   /api/weeks/{year}/{week}/copy-next     Copy week into the next
    POST   /api/weeks/{year}/{week}/create-next   Seed next week template
    POST   /api/collaborators/{id}/copy-previous-day
    DELETE /api/weeks/{year}/{week}               Delete whole week
    DELETE /api/weeks/{year}/{week}/collaborators/{id}

  Directory:
    GET/POST /api/collaborators
    GET/POST /api/clients

AREA SCOPING:
  Every read/delete accepts ?area=; an absent area is administrative
  scope. Scoping is applied at the store boundary by the planning layer.

ERROR HANDLING:
  - Empty copy sources are a 200 no-op notice, not a failure
  - Partial bulk results are 200 with applied/failed counts
  - Stale week versions and empty seeds are 409
  - Invalid input is 400, missing records 404, store failures 500

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/weekplan/planning"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  planning.Store
	Engine *planning.Engine
	Log    zerolog.Logger
}

// NewHandler creates a new handler around the store and engine.
func NewHandler(store planning.Store, engine *planning.Engine, log zerolog.Logger) *Handler {
	return &Handler{Store: store, Engine: engine, Log: log}
}

// =============================================================================
// GRID HANDLERS
// =============================================================================

// GetGrid returns the aggregated allocation grid for one week.
// GET /api/grid/{year}/{week}?area=
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	area := areaQuery(r)

	allocations, err := h.Store.ListWeek(r.Context(), week, area)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list allocations", err)
		return
	}

	collaborators, err := h.Store.Collaborators(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list collaborators", err)
		return
	}
	names := make(map[planning.CollaboratorID]string, len(collaborators))
	for _, c := range collaborators {
		names[c.ID] = c.Name
	}

	version, err := h.Store.WeekVersion(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read week version", err)
		return
	}

	agg := planning.Aggregate(week, allocations, names)
	writeJSON(w, http.StatusOK, toGridDTO(agg, version))
}

// ListWeeks returns the week numbers of a year that carry data.
// GET /api/weeks/{year}?area=
func (h *Handler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	weeks, err := h.Store.WeeksWithData(r.Context(), year, areaQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list weeks", err)
		return
	}
	if weeks == nil {
		weeks = []int{}
	}
	writeJSON(w, http.StatusOK, weeks)
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// UpsertAllocation creates or replaces one allocation.
// POST /api/allocations
func (h *Handler) UpsertAllocation(w http.ResponseWriter, r *http.Request) {
	var req UpsertAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CollaboratorID == "" || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "collaborator_id and client_id are required", nil)
		return
	}
	date, err := planning.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	stored, err := h.Engine.UpsertAllocation(r.Context(), planning.Allocation{
		CollaboratorID: planning.CollaboratorID(req.CollaboratorID),
		ClientID:       planning.ClientID(req.ClientID),
		Date:           date,
		Hours:          planning.NewHours(req.Hours),
		AreaID:         areaID(req.AreaID),
	})
	if err != nil {
		h.writeOperationError(w, "Failed to store allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(stored))
}

// DeleteAllocation removes one allocation by id.
// DELETE /api/allocations/{id}
func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	id := planning.AllocationID(chi.URLParam(r, "id"))
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.writeOperationError(w, "Failed to delete allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResultDTO{Deleted: 1})
}

// =============================================================================
// WEEK TRANSITION HANDLERS
// =============================================================================

// CopyPreviousDay overwrites a collaborator's day from the previous
// working day.
// POST /api/collaborators/{id}/copy-previous-day
func (h *Handler) CopyPreviousDay(w http.ResponseWriter, r *http.Request) {
	id := planning.CollaboratorID(chi.URLParam(r, "id"))

	var req CopyDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	target, err := planning.ParseDate(req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target_date format (use YYYY-MM-DD)", err)
		return
	}

	created, err := h.Engine.CopyPreviousDay(r.Context(), id, target, areaID(req.AreaID))
	h.writeBulkResult(w, created, err)
}

// CopyPreviousWeek copies the addressed week into the following one.
// POST /api/weeks/{year}/{week}/copy-next
func (h *Handler) CopyPreviousWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	req, ok := weekOperationBody(w, r)
	if !ok {
		return
	}

	copied, err := h.Engine.CopyPreviousWeek(r.Context(), week, areaID(req.AreaID), req.Version)
	h.writeBulkResult(w, copied, err)
}

// CreateNextWeek seeds the week after the addressed one as a template.
// POST /api/weeks/{year}/{week}/create-next
func (h *Handler) CreateNextWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	req, ok := weekOperationBody(w, r)
	if !ok {
		return
	}

	created, err := h.Engine.CreateNextWeek(r.Context(), week, areaID(req.AreaID), req.Version)
	h.writeBulkResult(w, created, err)
}

// DeleteWeek removes all allocations of a week. Callers are expected to
// double-confirm before invoking this; the engine applies no safety
// check of its own.
// DELETE /api/weeks/{year}/{week}?area=&version=
func (h *Handler) DeleteWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	version, _ := strconv.ParseInt(r.URL.Query().Get("version"), 10, 64)

	deleted, err := h.Engine.DeleteWeek(r.Context(), week, areaQuery(r), version)
	if err != nil {
		h.writeOperationError(w, "Failed to delete week", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResultDTO{Deleted: deleted})
}

// DeleteCollaboratorWeek removes one collaborator's week.
// DELETE /api/weeks/{year}/{week}/collaborators/{id}
func (h *Handler) DeleteCollaboratorWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}
	id := planning.CollaboratorID(chi.URLParam(r, "id"))

	deleted, err := h.Engine.DeleteCollaboratorWeek(r.Context(), id, week)
	if err != nil {
		h.writeOperationError(w, "Failed to delete collaborator week", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResultDTO{Deleted: deleted})
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// ListCollaborators returns collaborators, optionally area-scoped.
// GET /api/collaborators?area=
func (h *Handler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	collaborators, err := h.Store.Collaborators(r.Context(), areaQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list collaborators", err)
		return
	}
	dtos := make([]CollaboratorDTO, len(collaborators))
	for i, c := range collaborators {
		dtos[i] = CollaboratorDTO{ID: string(c.ID), Name: c.Name, AreaID: areaString(c.AreaID)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCollaborator saves a directory entry.
// POST /api/collaborators
func (h *Handler) CreateCollaborator(w http.ResponseWriter, r *http.Request) {
	var req CollaboratorDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	err := h.Store.SaveCollaborator(r.Context(), planning.Collaborator{
		ID:     planning.CollaboratorID(req.ID),
		Name:   req.Name,
		AreaID: areaID(req.AreaID),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save collaborator", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListClients returns clients, optionally area-scoped.
// GET /api/clients?area=
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.Clients(r.Context(), areaQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = ClientDTO{
			ID:                string(c.ID),
			Name:              c.Name,
			ProjectTypeID:     string(c.ProjectTypeID),
			ProjectCategoryID: string(c.ProjectCategoryID),
			AreaID:            areaString(c.AreaID),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateClient saves an allocation target.
// POST /api/clients
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	err := h.Store.SaveClient(r.Context(), planning.Client{
		ID:                planning.ClientID(req.ID),
		Name:              req.Name,
		ProjectTypeID:     planning.ProjectTypeID(req.ProjectTypeID),
		ProjectCategoryID: planning.ProjectCategoryID(req.ProjectCategoryID),
		AreaID:            areaID(req.AreaID),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save client", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESULT WRITING
// =============================================================================

// writeBulkResult maps a bulk operation outcome onto the wire. An empty
// source is a no-op notice, a partial failure still reports its counts.
func (h *Handler) writeBulkResult(w http.ResponseWriter, applied int, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, BulkResultDTO{Applied: applied})
		return
	}

	var partial *planning.PartialBulkError
	if errors.As(err, &partial) {
		h.Log.Warn().Int("applied", partial.Succeeded).Int("total", partial.Total).Msg(partial.Operation + " completed partially")
		writeJSON(w, http.StatusOK, BulkResultDTO{
			Applied: partial.Succeeded,
			Failed:  partial.Total - partial.Succeeded,
			Notice:  partial.Error(),
		})
		return
	}

	if planning.IsNoOp(err) {
		writeJSON(w, http.StatusOK, BulkResultDTO{Applied: 0, Notice: err.Error()})
		return
	}

	h.writeOperationError(w, "Operation failed", err)
}

func (h *Handler) writeOperationError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, planning.ErrStaleWeek),
		errors.Is(err, planning.ErrNoCollaborators),
		errors.Is(err, planning.ErrNoFallbackClient):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, planning.ErrInvalidHours), errors.Is(err, planning.ErrInvalidWeek):
		writeError(w, http.StatusBadRequest, message, err)
	case planning.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.Log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func weekParam(w http.ResponseWriter, r *http.Request) (planning.WeekKey, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return planning.WeekKey{}, false
	}
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week", err)
		return planning.WeekKey{}, false
	}
	key := planning.NewWeekKey(year, week)
	if !key.Valid() {
		writeError(w, http.StatusBadRequest, "Week number out of range", planning.ErrInvalidWeek)
		return planning.WeekKey{}, false
	}
	return key, true
}

func weekOperationBody(w http.ResponseWriter, r *http.Request) (WeekOperationRequest, bool) {
	var req WeekOperationRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return req, false
		}
	}
	return req, true
}

func areaQuery(r *http.Request) *planning.AreaID {
	v := r.URL.Query().Get("area")
	if v == "" {
		return nil
	}
	a := planning.AreaID(v)
	return &a
}

func toGridDTO(agg *planning.WeekAggregate, version int64) GridDTO {
	dto := GridDTO{
		Year:    agg.Week.Year,
		Week:    agg.Week.Week,
		Rows:    []GridRowDTO{},
		Version: version,
	}
	for _, d := range agg.Weekdays {
		dto.Weekdays = append(dto.Weekdays, d.String())
	}

	for _, row := range agg.Rows {
		rowDTO := GridRowDTO{
			CollaboratorID: string(row.CollaboratorID),
			Name:           row.Name,
			WeekTotal:      row.WeekTotal.Rounded().String(),
			WeekBand:       string(row.WeekBand()),
		}
		for _, d := range agg.Weekdays {
			cell := DayCellDTO{
				Date:    d.String(),
				Entries: []DayEntryDTO{},
				Total:   row.DayTotals[d].Rounded().String(),
				Band:    string(row.DayBand(d)),
			}
			for _, e := range row.Days[d] {
				cell.Entries = append(cell.Entries, DayEntryDTO{
					AllocationID: string(e.AllocationID),
					ClientID:     string(e.ClientID),
					Hours:        e.Hours.Rounded().String(),
				})
			}
			rowDTO.Days = append(rowDTO.Days, cell)
		}
		dto.Rows = append(dto.Rows, rowDTO)
	}

	// Stable row order: by name, then id.
	sort.Slice(dto.Rows, func(i, j int) bool {
		if dto.Rows[i].Name != dto.Rows[j].Name {
			return dto.Rows[i].Name < dto.Rows[j].Name
		}
		return dto.Rows[i].CollaboratorID < dto.Rows[j].CollaboratorID
	})
	return dto
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
