package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/weekplan/api"
	"github.com/warp/weekplan/planning"
	"github.com/warp/weekplan/planning/store"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type harness struct {
	mem    *store.Memory
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	require.NoError(t, mem.SaveCollaborator(ctx, planning.Collaborator{ID: "c-ada", Name: "Ada"}))
	require.NoError(t, mem.SaveClient(ctx, planning.Client{
		ID: "client-vac", Name: "Vacation", ProjectCategoryID: "cat-vacation",
	}))
	require.NoError(t, mem.SaveClient(ctx, planning.Client{ID: "client-acme", Name: "ACME"}))

	resolver, err := planning.NewFallbackResolver(ctx, mem, "cat-vacation", "")
	require.NoError(t, err)

	log := zerolog.Nop()
	engine := planning.NewEngine(mem, mem, resolver, log)
	handler := api.NewHandler(mem, engine, log)
	return &harness{mem: mem, router: api.NewRouter(handler, log)}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func (h *harness) seedAllocation(t *testing.T, collab, client string, date planning.Date, hours float64) {
	t.Helper()
	wk := planning.WeekOf(date)
	_, err := h.mem.Upsert(context.Background(), planning.Allocation{
		CollaboratorID: planning.CollaboratorID(collab),
		ClientID:       planning.ClientID(client),
		Date:           date,
		Hours:          planning.NewHours(hours),
		Week:           wk.Week,
		Year:           wk.Year,
	})
	require.NoError(t, err)
}

type gridResponse struct {
	Year     int      `json:"year"`
	Week     int      `json:"week"`
	Weekdays []string `json:"weekdays"`
	Rows     []struct {
		CollaboratorID string `json:"collaborator_id"`
		Name           string `json:"name"`
		Days           []struct {
			Date  string `json:"date"`
			Total string `json:"total"`
			Band  string `json:"band"`
		} `json:"days"`
		WeekTotal string `json:"week_total"`
		WeekBand  string `json:"week_band"`
	} `json:"rows"`
	Version int64 `json:"version"`
}

type bulkResponse struct {
	Applied int    `json:"applied"`
	Failed  int    `json:"failed"`
	Notice  string `json:"notice"`
}

// =============================================================================
// GRID
// =============================================================================

func TestGetGrid(t *testing.T) {
	h := newHarness(t)
	monday := planning.NewDate(2025, time.March, 3) // week 10
	h.seedAllocation(t, "c-ada", "client-acme", monday, 5)
	h.seedAllocation(t, "c-ada", "client-acme", monday.AddDays(1), 3)

	rec := h.do(t, http.MethodGet, "/api/grid/2025/10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	grid := decode[gridResponse](t, rec)
	assert.Equal(t, 2025, grid.Year)
	assert.Equal(t, 10, grid.Week)
	require.Len(t, grid.Weekdays, 5)
	assert.Equal(t, "2025-03-03", grid.Weekdays[0])

	require.Len(t, grid.Rows, 1)
	row := grid.Rows[0]
	assert.Equal(t, "Ada", row.Name)
	assert.Equal(t, "8", row.WeekTotal)
	assert.Equal(t, "normal", row.WeekBand)
	require.Len(t, row.Days, 5)
	assert.Equal(t, "5", row.Days[0].Total)
	assert.Equal(t, "empty", row.Days[2].Band)
	assert.NotZero(t, grid.Version)
}

func TestGetGrid_InvalidWeek(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/grid/2025/53", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListWeeks(t *testing.T) {
	h := newHarness(t)
	h.seedAllocation(t, "c-ada", "client-acme", planning.NewDate(2025, time.March, 3), 5)
	h.seedAllocation(t, "c-ada", "client-acme", planning.NewDate(2025, time.March, 17), 5)

	rec := h.do(t, http.MethodGet, "/api/weeks/2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{10, 12}, decode[[]int](t, rec))
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func TestUpsertAllocation_ReplacesOnSecondWrite(t *testing.T) {
	h := newHarness(t)
	body := map[string]any{
		"collaborator_id": "c-ada",
		"client_id":       "client-acme",
		"date":            "2025-03-03",
		"hours":           4,
	}

	rec := h.do(t, http.MethodPost, "/api/allocations", body)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[map[string]any](t, rec)

	body["hours"] = 6
	rec = h.do(t, http.MethodPost, "/api/allocations", body)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[map[string]any](t, rec)

	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, "6", second["hours"])
	assert.Equal(t, float64(10), second["week"])
}

func TestUpsertAllocation_RejectsNegativeHours(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/allocations", map[string]any{
		"collaborator_id": "c-ada",
		"client_id":       "client-acme",
		"date":            "2025-03-03",
		"hours":           -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// WEEK TRANSITIONS
// =============================================================================

func TestCopyNextWeek(t *testing.T) {
	h := newHarness(t)
	monday := planning.NewDate(2025, time.March, 3)
	h.seedAllocation(t, "c-ada", "client-acme", monday, 5)

	rec := h.do(t, http.MethodPost, "/api/weeks/2025/10/copy-next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[bulkResponse](t, rec).Applied)

	grid := decode[gridResponse](t, h.do(t, http.MethodGet, "/api/grid/2025/11", nil))
	require.Len(t, grid.Rows, 1)
	assert.Equal(t, "5", grid.Rows[0].Days[0].Total)
}

func TestCopyNextWeek_EmptySourceIsNoticeNotError(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/weeks/2025/10/copy-next", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[bulkResponse](t, rec)
	assert.Zero(t, result.Applied)
	assert.NotEmpty(t, result.Notice)
}

func TestCreateNextWeek_SeedsTemplate(t *testing.T) {
	h := newHarness(t)

	// Empty source week; the area directory (here: everyone) seeds one
	// 8h Monday allocation against the vacation client.
	rec := h.do(t, http.MethodPost, "/api/weeks/2025/10/create-next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[bulkResponse](t, rec).Applied)

	grid := decode[gridResponse](t, h.do(t, http.MethodGet, "/api/grid/2025/11", nil))
	require.Len(t, grid.Rows, 1)
	assert.Equal(t, "8", grid.Rows[0].Days[0].Total)
}

func TestCopyPreviousDay_NoSourceNotice(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/collaborators/c-ada/copy-previous-day", map[string]any{
		"target_date": "2025-03-10",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[bulkResponse](t, rec)
	assert.Zero(t, result.Applied)
	assert.NotEmpty(t, result.Notice)
}

func TestCopyPreviousDay(t *testing.T) {
	h := newHarness(t)
	friday := planning.NewDate(2025, time.March, 7)
	h.seedAllocation(t, "c-ada", "client-acme", friday, 7.5)

	rec := h.do(t, http.MethodPost, "/api/collaborators/c-ada/copy-previous-day", map[string]any{
		"target_date": "2025-03-10",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[bulkResponse](t, rec).Applied)
}

func TestDeleteWeek(t *testing.T) {
	h := newHarness(t)
	monday := planning.NewDate(2025, time.March, 3)
	h.seedAllocation(t, "c-ada", "client-acme", monday, 5)
	h.seedAllocation(t, "c-ada", "client-acme", monday.AddDays(1), 5)

	rec := h.do(t, http.MethodDelete, "/api/weeks/2025/10/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[map[string]int](t, rec)["deleted"])

	// Second delete is an idempotent zero.
	rec = h.do(t, http.MethodDelete, "/api/weeks/2025/10/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[map[string]int](t, rec)["deleted"])
}

func TestDeleteWeek_StaleVersion(t *testing.T) {
	h := newHarness(t)
	monday := planning.NewDate(2025, time.March, 3)
	h.seedAllocation(t, "c-ada", "client-acme", monday, 5)

	version, err := h.mem.WeekVersion(context.Background(), planning.NewWeekKey(2025, 10))
	require.NoError(t, err)

	rec := h.do(t, http.MethodDelete, fmt.Sprintf("/api/weeks/2025/10/?version=%d", version+1), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodDelete, fmt.Sprintf("/api/weeks/2025/10/?version=%d", version), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteCollaboratorWeek(t *testing.T) {
	h := newHarness(t)
	monday := planning.NewDate(2025, time.March, 3)
	h.seedAllocation(t, "c-ada", "client-acme", monday, 5)

	rec := h.do(t, http.MethodDelete, "/api/weeks/2025/10/collaborators/c-ada", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[map[string]int](t, rec)["deleted"])
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestDirectoryEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/collaborators", map[string]any{
		"id": "c-bea", "name": "Bea", "area_id": "area-north",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/collaborators?area=area-north", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Bea", list[0]["name"])

	rec = h.do(t, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
