/*
Package sqlite provides the SQLite-backed implementation of the planning
storage interfaces.

PURPOSE:
  Implements planning.AllocationStore and planning.Directory on SQLite.
  The same patterns apply to PostgreSQL - only minor dialect differences.

KEY TABLES:
  allocations:    The grid records, one row per (collaborator, client, date)
  collaborators:  Directory of people
  clients:        Directory of allocation targets (projects)
  week_versions:  Optimistic version token per (year, week)

NATURAL-KEY UPSERT:
  allocations carries a UNIQUE(collaborator_id, client_id, date) index.
  Upsert uses INSERT ... ON CONFLICT DO UPDATE, so a second write to the
  same triple replaces the hours instead of duplicating the row. Bulk
  copy operations converge because of this.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

SEE ALSO:
  - planning/store.go: Interface definitions
  - planning/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/weekplan/planning"
)

// Store implements planning.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", planning.ErrStoreUnavailable, err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collaborators (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		area_id TEXT
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		project_type_id TEXT NOT NULL DEFAULT '',
		project_category_id TEXT NOT NULL DEFAULT '',
		area_id TEXT
	);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		collaborator_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		week INTEGER NOT NULL,
		year INTEGER NOT NULL,
		area_id TEXT
	);

	-- CRITICAL: one allocation per (collaborator, client, date).
	-- Upserts replace hours instead of inserting a second row.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_allocations_natural_key
		ON allocations(collaborator_id, client_id, date);

	-- Grid reads are always week-partitioned (hot path)
	CREATE INDEX IF NOT EXISTS idx_allocations_year_week
		ON allocations(year, week);
	CREATE INDEX IF NOT EXISTS idx_allocations_collaborator_date
		ON allocations(collaborator_id, date);

	CREATE TABLE IF NOT EXISTS week_versions (
		year INTEGER NOT NULL,
		week INTEGER NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (year, week)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

const allocationColumns = `id, collaborator_id, client_id, date, hours, week, year, area_id`

func (s *Store) ListWeek(ctx context.Context, week planning.WeekKey, area *planning.AreaID) ([]planning.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE year = ? AND week = ?`
	args := []any{week.Year, week.Week}
	if area != nil {
		query += ` AND area_id = ?`
		args = append(args, string(*area))
	}
	query += ` ORDER BY collaborator_id, date, client_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list week: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (s *Store) ListCollaboratorDay(ctx context.Context, id planning.CollaboratorID, day planning.Date, area *planning.AreaID) ([]planning.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE collaborator_id = ? AND date = ?`
	args := []any{string(id), day.String()}
	if area != nil {
		query += ` AND area_id = ?`
		args = append(args, string(*area))
	}
	query += ` ORDER BY client_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collaborator day: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (s *Store) WeeksWithData(ctx context.Context, year int, area *planning.AreaID) ([]int, error) {
	query := `SELECT DISTINCT week FROM allocations WHERE year = ?`
	args := []any{year}
	if area != nil {
		query += ` AND area_id = ?`
		args = append(args, string(*area))
	}
	query += ` ORDER BY week`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("weeks with data: %w", err)
	}
	defer rows.Close()

	var weeks []int
	for rows.Next() {
		var w int
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, a planning.Allocation) (planning.Allocation, error) {
	if a.ID == "" {
		a.ID = planning.AllocationID(uuid.NewString())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return planning.Allocation{}, fmt.Errorf("upsert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO allocations (id, collaborator_id, client_id, date, hours, week, year, area_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collaborator_id, client_id, date) DO UPDATE SET
			hours = excluded.hours,
			week = excluded.week,
			year = excluded.year,
			area_id = excluded.area_id`,
		string(a.ID), string(a.CollaboratorID), string(a.ClientID), a.Date.String(),
		a.Hours.Value.String(), a.Week, a.Year, areaValue(a.AreaID))
	if err != nil {
		return planning.Allocation{}, fmt.Errorf("upsert: %w", err)
	}

	// The conflict path keeps the original id; read it back.
	var id string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM allocations WHERE collaborator_id = ? AND client_id = ? AND date = ?`,
		string(a.CollaboratorID), string(a.ClientID), a.Date.String()).Scan(&id)
	if err != nil {
		return planning.Allocation{}, fmt.Errorf("upsert: %w", err)
	}
	a.ID = planning.AllocationID(id)

	if err := bumpVersionTx(ctx, tx, a.Year, a.Week); err != nil {
		return planning.Allocation{}, err
	}
	if err := tx.Commit(); err != nil {
		return planning.Allocation{}, fmt.Errorf("upsert: %w", err)
	}
	return a, nil
}

func (s *Store) Delete(ctx context.Context, id planning.AllocationID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer tx.Rollback()

	var year, week int
	err = tx.QueryRowContext(ctx, `SELECT year, week FROM allocations WHERE id = ?`, string(id)).Scan(&year, &week)
	if err == sql.ErrNoRows {
		return planning.ErrAllocationNotFound
	}
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM allocations WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := bumpVersionTx(ctx, tx, year, week); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) DeleteCollaboratorDay(ctx context.Context, id planning.CollaboratorID, day planning.Date, area *planning.AreaID) (int, error) {
	query := `DELETE FROM allocations WHERE collaborator_id = ? AND date = ?`
	args := []any{string(id), day.String()}
	if area != nil {
		query += ` AND area_id = ?`
		args = append(args, string(*area))
	}
	return s.deleteAndBump(ctx, planning.WeekOf(day), query, args...)
}

func (s *Store) DeleteCollaboratorWeek(ctx context.Context, id planning.CollaboratorID, week planning.WeekKey) (int, error) {
	return s.deleteAndBump(ctx, week,
		`DELETE FROM allocations WHERE collaborator_id = ? AND year = ? AND week = ?`,
		string(id), week.Year, week.Week)
}

func (s *Store) DeleteWeek(ctx context.Context, week planning.WeekKey, area *planning.AreaID) (int, error) {
	query := `DELETE FROM allocations WHERE year = ? AND week = ?`
	args := []any{week.Year, week.Week}
	if area != nil {
		query += ` AND area_id = ?`
		args = append(args, string(*area))
	}
	return s.deleteAndBump(ctx, week, query, args...)
}

// deleteAndBump runs a bulk delete and bumps the week version in one
// transaction, so the delete is atomic from the caller's perspective.
func (s *Store) deleteAndBump(ctx context.Context, week planning.WeekKey, query string, args ...any) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	if n > 0 {
		if err := bumpVersionTx(ctx, tx, week.Year, week.Week); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	return int(n), nil
}

func (s *Store) WeekVersion(ctx context.Context, week planning.WeekKey) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM week_versions WHERE year = ? AND week = ?`,
		week.Year, week.Week).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("week version: %w", err)
	}
	return v, nil
}

func bumpVersionTx(ctx context.Context, tx *sql.Tx, year, week int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO week_versions (year, week, version) VALUES (?, ?, 1)
		ON CONFLICT(year, week) DO UPDATE SET version = version + 1`,
		year, week)
	if err != nil {
		return fmt.Errorf("bump week version: %w", err)
	}
	return nil
}

func scanAllocations(rows *sql.Rows) ([]planning.Allocation, error) {
	var result []planning.Allocation
	for rows.Next() {
		var (
			id, collaborator, client, date, hours string
			week, year                            int
			area                                  sql.NullString
		)
		if err := rows.Scan(&id, &collaborator, &client, &date, &hours, &week, &year, &area); err != nil {
			return nil, err
		}
		d, err := planning.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("corrupt date %q: %w", date, err)
		}
		result = append(result, planning.Allocation{
			ID:             planning.AllocationID(id),
			CollaboratorID: planning.CollaboratorID(collaborator),
			ClientID:       planning.ClientID(client),
			Date:           d,
			Hours:          planning.Hours{Value: planning.MustParseDecimal(hours)},
			Week:           week,
			Year:           year,
			AreaID:         areaPtr(area),
		})
	}
	return result, rows.Err()
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) Collaborators(ctx context.Context, area *planning.AreaID) ([]planning.Collaborator, error) {
	query := `SELECT id, name, area_id FROM collaborators`
	var args []any
	if area != nil {
		query += ` WHERE area_id = ?`
		args = append(args, string(*area))
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	defer rows.Close()

	var result []planning.Collaborator
	for rows.Next() {
		var (
			id, name string
			a        sql.NullString
		)
		if err := rows.Scan(&id, &name, &a); err != nil {
			return nil, err
		}
		result = append(result, planning.Collaborator{
			ID:     planning.CollaboratorID(id),
			Name:   name,
			AreaID: areaPtr(a),
		})
	}
	return result, rows.Err()
}

func (s *Store) Clients(ctx context.Context, area *planning.AreaID) ([]planning.Client, error) {
	query := `SELECT id, name, project_type_id, project_category_id, area_id FROM clients`
	var args []any
	if area != nil {
		query += ` WHERE area_id = ?`
		args = append(args, string(*area))
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var result []planning.Client
	for rows.Next() {
		var (
			id, name, ptype, pcat string
			a                     sql.NullString
		)
		if err := rows.Scan(&id, &name, &ptype, &pcat, &a); err != nil {
			return nil, err
		}
		result = append(result, planning.Client{
			ID:                planning.ClientID(id),
			Name:              name,
			ProjectTypeID:     planning.ProjectTypeID(ptype),
			ProjectCategoryID: planning.ProjectCategoryID(pcat),
			AreaID:            areaPtr(a),
		})
	}
	return result, rows.Err()
}

func (s *Store) SaveCollaborator(ctx context.Context, c planning.Collaborator) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collaborators (id, name, area_id) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, area_id = excluded.area_id`,
		string(c.ID), c.Name, areaValue(c.AreaID))
	if err != nil {
		return fmt.Errorf("save collaborator: %w", err)
	}
	return nil
}

func (s *Store) SaveClient(ctx context.Context, c planning.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, project_type_id, project_category_id, area_id) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			project_type_id = excluded.project_type_id,
			project_category_id = excluded.project_category_id,
			area_id = excluded.area_id`,
		string(c.ID), c.Name, string(c.ProjectTypeID), string(c.ProjectCategoryID), areaValue(c.AreaID))
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

// =============================================================================
// NULLABLE AREA HELPERS
// =============================================================================

func areaValue(a *planning.AreaID) any {
	if a == nil {
		return nil
	}
	return string(*a)
}

func areaPtr(v sql.NullString) *planning.AreaID {
	if !v.Valid {
		return nil
	}
	a := planning.AreaID(v.String)
	return &a
}
