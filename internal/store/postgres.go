package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgres returns a Store backed by the given connection pool.
func NewPostgres(pool *pgxpool.Pool) *Store {
	return &Store{
		Jobs:             &pgJobStore{pool: pool},
		RackDrawings:     &pgRackDrawingStore{pool: pool},
		Catalog:          &pgCatalogStore{pool: pool},
		Items:            &pgPullsheetItemStore{pool: pool},
		GenericEquipment: &pgGenericEquipmentStore{pool: pool},
	}
}

const uniqueViolation = "23505"

// mapPgError translates driver errors into the store's sentinel errors.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

// ----------------------------------------------------------------------------
// Jobs
// ----------------------------------------------------------------------------

type pgJobStore struct {
	pool *pgxpool.Pool
}

const jobColumns = `id, name, description, flex_pullsheet_id, created_at`

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Name, &j.Description, &j.FlexPullsheetID, &j.CreatedAt)
	return j, mapPgError(err)
}

func (s *pgJobStore) Create(ctx context.Context, j NewJob) (Job, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO jobs (name, description, flex_pullsheet_id)
		VALUES ($1, $2, $3)
		RETURNING `+jobColumns,
		j.Name, j.Description, j.FlexPullsheetID)
	return scanJob(row)
}

func (s *pgJobStore) GetByID(ctx context.Context, id int64) (Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

func (s *pgJobStore) GetByFlexPullsheetID(ctx context.Context, pullsheetID string) (Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE flex_pullsheet_id = $1`, pullsheetID)
	return scanJob(row)
}

func (s *pgJobStore) List(ctx context.Context) ([]Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, mapPgError(rows.Err())
}

func (s *pgJobStore) Update(ctx context.Context, id int64, u JobUpdate) (Job, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE jobs
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description)
		WHERE id = $1
		RETURNING `+jobColumns,
		id, u.Name, u.Description)
	return scanJob(row)
}

func (s *pgJobStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ----------------------------------------------------------------------------
// Rack drawings
// ----------------------------------------------------------------------------

type pgRackDrawingStore struct {
	pool *pgxpool.Pool
}

const rackColumns = `id, job_id, name, total_spaces, is_double_wide, flex_section, notes, created_at`

func scanRack(row pgx.Row) (RackDrawing, error) {
	var r RackDrawing
	err := row.Scan(&r.ID, &r.JobID, &r.Name, &r.TotalSpaces, &r.IsDoubleWide, &r.FlexSection, &r.Notes, &r.CreatedAt)
	return r, mapPgError(err)
}

func (s *pgRackDrawingStore) Create(ctx context.Context, r NewRackDrawing) (RackDrawing, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO rack_drawings (job_id, name, total_spaces, is_double_wide, flex_section, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+rackColumns,
		r.JobID, r.Name, r.TotalSpaces, r.IsDoubleWide, r.FlexSection, r.Notes)
	return scanRack(row)
}

func (s *pgRackDrawingStore) List(ctx context.Context) ([]RackDrawing, error) {
	return s.queryRacks(ctx, `SELECT `+rackColumns+` FROM rack_drawings ORDER BY id`)
}

func (s *pgRackDrawingStore) ListByJob(ctx context.Context, jobID int64) ([]RackDrawing, error) {
	return s.queryRacks(ctx, `SELECT `+rackColumns+` FROM rack_drawings WHERE job_id = $1 ORDER BY id`, jobID)
}

func (s *pgRackDrawingStore) queryRacks(ctx context.Context, sql string, args ...any) ([]RackDrawing, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	racks := []RackDrawing{}
	for rows.Next() {
		r, err := scanRack(rows)
		if err != nil {
			return nil, err
		}
		racks = append(racks, r)
	}
	return racks, mapPgError(rows.Err())
}

func (s *pgRackDrawingStore) GetByID(ctx context.Context, id int64) (RackDrawing, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+rackColumns+` FROM rack_drawings WHERE id = $1`, id)
	return scanRack(row)
}

func (s *pgRackDrawingStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rack_drawings WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ----------------------------------------------------------------------------
// Equipment catalog
// ----------------------------------------------------------------------------

type pgCatalogStore struct {
	pool *pgxpool.Pool
}

func (s *pgCatalogStore) GetByResourceIDs(ctx context.Context, resourceIDs []string) ([]CatalogEntry, error) {
	if len(resourceIDs) == 0 {
		return []CatalogEntry{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, flex_resource_id, name, display_name, rack_units
		FROM equipment_catalog
		WHERE flex_resource_id = ANY($1)`,
		resourceIDs)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	entries := []CatalogEntry{}
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.ID, &e.FlexResourceID, &e.Name, &e.DisplayName, &e.RackUnits); err != nil {
			return nil, mapPgError(err)
		}
		entries = append(entries, e)
	}
	return entries, mapPgError(rows.Err())
}

// CreateMissing bulk-inserts catalog entries. ON CONFLICT DO NOTHING makes a
// concurrent insert of the same resource id a benign no-op rather than an
// error, which is what the import's catalog phase relies on.
func (s *pgCatalogStore) CreateMissing(ctx context.Context, entries []NewCatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO equipment_catalog (flex_resource_id, name, display_name, rack_units)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (flex_resource_id) DO NOTHING`,
			e.FlexResourceID, e.Name, e.DisplayName, e.RackUnits)
	}
	return mapPgError(s.pool.SendBatch(ctx, batch).Close())
}

// ----------------------------------------------------------------------------
// Pullsheet items
// ----------------------------------------------------------------------------

type pgPullsheetItemStore struct {
	pool *pgxpool.Pool
}

const itemColumns = `id, job_id, equipment_catalog_id, generic_equipment_id, rack_drawing_id, parent_id,
	flex_resource_id, flex_section, name, display_name_override, rack_units, quantity, notes,
	is_from_pullsheet, start_position, side, created_at`

func scanItem(row pgx.Row) (PullsheetItem, error) {
	var it PullsheetItem
	err := row.Scan(
		&it.ID, &it.JobID, &it.EquipmentCatalogID, &it.GenericEquipmentID, &it.RackDrawingID, &it.ParentID,
		&it.FlexResourceID, &it.FlexSection, &it.Name, &it.DisplayNameOverride, &it.RackUnits, &it.Quantity,
		&it.Notes, &it.IsFromPullsheet, &it.StartPosition, &it.Side, &it.CreatedAt)
	return it, mapPgError(err)
}

const itemInsert = `
	INSERT INTO pullsheet_items (
		job_id, equipment_catalog_id, generic_equipment_id, rack_drawing_id, parent_id,
		flex_resource_id, flex_section, name, display_name_override, rack_units, quantity,
		notes, is_from_pullsheet, start_position, side
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

func itemArgs(item NewPullsheetItem) []any {
	return []any{
		item.JobID, item.EquipmentCatalogID, item.GenericEquipmentID, item.RackDrawingID, item.ParentID,
		item.FlexResourceID, item.FlexSection, item.Name, item.DisplayNameOverride, item.RackUnits,
		item.Quantity, item.Notes, item.IsFromPullsheet, item.StartPosition, item.Side,
	}
}

func (s *pgPullsheetItemStore) Create(ctx context.Context, item NewPullsheetItem) (PullsheetItem, error) {
	row := s.pool.QueryRow(ctx, itemInsert+` RETURNING `+itemColumns, itemArgs(item)...)
	return scanItem(row)
}

func (s *pgPullsheetItemStore) CreateMany(ctx context.Context, items []NewPullsheetItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(itemInsert, itemArgs(item)...)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, mapPgError(err)
	}
	return len(items), nil
}

func (s *pgPullsheetItemStore) GetByID(ctx context.Context, id int64) (PullsheetItem, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM pullsheet_items WHERE id = $1`, id)
	return scanItem(row)
}

func (s *pgPullsheetItemStore) List(ctx context.Context) ([]PullsheetItem, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM pullsheet_items ORDER BY id`)
}

func (s *pgPullsheetItemStore) ListUnplaced(ctx context.Context, jobID int64) ([]PullsheetItem, error) {
	return s.queryItems(ctx, `
		SELECT `+itemColumns+` FROM pullsheet_items
		WHERE job_id = $1 AND rack_drawing_id IS NULL
		ORDER BY id`, jobID)
}

func (s *pgPullsheetItemStore) queryItems(ctx context.Context, sql string, args ...any) ([]PullsheetItem, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	items := []PullsheetItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, mapPgError(rows.Err())
}

func (s *pgPullsheetItemStore) UpdatePlacement(ctx context.Context, id int64, rackDrawingID *int64, startPosition *int, side *string) (PullsheetItem, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE pullsheet_items
		SET rack_drawing_id = $2, start_position = $3, side = $4
		WHERE id = $1
		RETURNING `+itemColumns,
		id, rackDrawingID, startPosition, side)
	return scanItem(row)
}

func (s *pgPullsheetItemStore) UpdatePosition(ctx context.Context, id int64, startPosition int, side string) (PullsheetItem, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE pullsheet_items
		SET start_position = $2, side = $3
		WHERE id = $1
		RETURNING `+itemColumns,
		id, startPosition, side)
	return scanItem(row)
}

func (s *pgPullsheetItemStore) UpdateDisplayName(ctx context.Context, id int64, displayNameOverride string) (PullsheetItem, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE pullsheet_items
		SET display_name_override = $2
		WHERE id = $1
		RETURNING `+itemColumns,
		id, strings.TrimSpace(displayNameOverride))
	return scanItem(row)
}

func (s *pgPullsheetItemStore) ClearRackPlacements(ctx context.Context, rackDrawingID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE pullsheet_items
		SET rack_drawing_id = NULL, start_position = NULL, side = NULL
		WHERE rack_drawing_id = $1`,
		rackDrawingID)
	return mapPgError(err)
}

// ----------------------------------------------------------------------------
// Generic equipment
// ----------------------------------------------------------------------------

type pgGenericEquipmentStore struct {
	pool *pgxpool.Pool
}

const genericColumns = `id, name, display_name, category, rack_units, is_active`

func scanGeneric(row pgx.Row) (GenericEquipment, error) {
	var g GenericEquipment
	err := row.Scan(&g.ID, &g.Name, &g.DisplayName, &g.Category, &g.RackUnits, &g.IsActive)
	return g, mapPgError(err)
}

func (s *pgGenericEquipmentStore) Create(ctx context.Context, g NewGenericEquipment) (GenericEquipment, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO generic_equipment (name, display_name, category, rack_units)
		VALUES ($1, $2, $3, $4)
		RETURNING `+genericColumns,
		g.Name, g.DisplayName, g.Category, g.RackUnits)
	return scanGeneric(row)
}

func (s *pgGenericEquipmentStore) GetByID(ctx context.Context, id int64) (GenericEquipment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+genericColumns+` FROM generic_equipment WHERE id = $1`, id)
	return scanGeneric(row)
}

func (s *pgGenericEquipmentStore) ListActive(ctx context.Context) ([]GenericEquipment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+genericColumns+` FROM generic_equipment
		WHERE is_active
		ORDER BY category, name`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	entries := []GenericEquipment{}
	for rows.Next() {
		g, err := scanGeneric(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, g)
	}
	return entries, mapPgError(rows.Err())
}
