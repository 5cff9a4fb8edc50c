// Package store defines the persistence model and the store interfaces the
// core operates against, plus two implementations: Postgres (pgx) for
// production and an in-memory store for tests. Both enforce the same
// uniqueness constraints; the job-import race in particular is resolved by
// the unique index on jobs.flex_pullsheet_id, not by application locking.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Job is one imported (or manually created) equipment-list job.
type Job struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	FlexPullsheetID string    `json:"flexPullsheetId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewJob holds the fields for job creation.
type NewJob struct {
	Name            string
	Description     *string
	FlexPullsheetID string
}

// JobUpdate holds the mutable job fields; nil means leave unchanged.
type JobUpdate struct {
	Name        *string
	Description *string
}

// RackDrawing is a persisted rack container belonging to a job.
type RackDrawing struct {
	ID           int64     `json:"id"`
	JobID        int64     `json:"jobId"`
	Name         string    `json:"name"`
	TotalSpaces  int       `json:"totalSpaces"`
	IsDoubleWide bool      `json:"isDoubleWide"`
	FlexSection  string    `json:"flexSection"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewRackDrawing holds the fields for rack creation.
type NewRackDrawing struct {
	JobID        int64
	Name         string
	TotalSpaces  int
	IsDoubleWide bool
	FlexSection  string
	Notes        *string
}

// CatalogEntry is the deduplicated canonical record for one equipment type,
// shared by every item instance with the same Flex resource id.
type CatalogEntry struct {
	ID             int64   `json:"id"`
	FlexResourceID string  `json:"flexResourceId"`
	Name           string  `json:"name"`
	DisplayName    *string `json:"displayName"`
	RackUnits      *int    `json:"rackUnits"`
}

// NewCatalogEntry holds the fields for catalog insertion.
type NewCatalogEntry struct {
	FlexResourceID string
	Name           string
	DisplayName    *string
	RackUnits      *int
}

// PullsheetItem is one persisted equipment line. Placement fields are nil
// until the item is placed in a rack by the drawing UI.
type PullsheetItem struct {
	ID                  int64     `json:"id"`
	JobID               int64     `json:"jobId"`
	EquipmentCatalogID  *int64    `json:"equipmentCatalogId"`
	GenericEquipmentID  *int64    `json:"genericEquipmentId"`
	RackDrawingID       *int64    `json:"rackDrawingId"`
	ParentID            *int64    `json:"parentId"`
	FlexResourceID      string    `json:"flexResourceId"`
	FlexSection         string    `json:"flexSection"`
	Name                string    `json:"name"`
	DisplayNameOverride *string   `json:"displayNameOverride"`
	RackUnits           int       `json:"rackUnits"`
	Quantity            int       `json:"quantity"`
	Notes               *string   `json:"notes"`
	IsFromPullsheet     bool      `json:"isFromPullsheet"`
	StartPosition       *int      `json:"startPosition"`
	Side                *string   `json:"side"`
	CreatedAt           time.Time `json:"createdAt"`
}

// NewPullsheetItem holds the fields for item creation.
type NewPullsheetItem struct {
	JobID               int64
	EquipmentCatalogID  *int64
	GenericEquipmentID  *int64
	RackDrawingID       *int64
	ParentID            *int64
	FlexResourceID      string
	FlexSection         string
	Name                string
	DisplayNameOverride *string
	RackUnits           int
	Quantity            int
	Notes               *string
	IsFromPullsheet     bool
	StartPosition       *int
	Side                *string
}

// GenericEquipment is a manually curated equipment type that can be placed
// without a Flex import.
type GenericEquipment struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DisplayName *string `json:"displayName"`
	Category    string  `json:"category"`
	RackUnits   int     `json:"rackUnits"`
	IsActive    bool    `json:"isActive"`
}

// NewGenericEquipment holds the fields for generic-equipment creation.
type NewGenericEquipment struct {
	Name        string
	DisplayName *string
	Category    string
	RackUnits   int
}

// JobStore persists jobs. Create returns ErrDuplicate when another job with
// the same flex pullsheet id already exists.
type JobStore interface {
	Create(ctx context.Context, j NewJob) (Job, error)
	GetByID(ctx context.Context, id int64) (Job, error)
	GetByFlexPullsheetID(ctx context.Context, pullsheetID string) (Job, error)
	List(ctx context.Context) ([]Job, error)
	Update(ctx context.Context, id int64, u JobUpdate) (Job, error)
	Delete(ctx context.Context, id int64) error
}

// RackDrawingStore persists rack drawings.
type RackDrawingStore interface {
	Create(ctx context.Context, r NewRackDrawing) (RackDrawing, error)
	List(ctx context.Context) ([]RackDrawing, error)
	ListByJob(ctx context.Context, jobID int64) ([]RackDrawing, error)
	GetByID(ctx context.Context, id int64) (RackDrawing, error)
	Delete(ctx context.Context, id int64) error
}

// CatalogStore persists the deduplicated equipment catalog.
// CreateMissing silently skips entries whose flex resource id already
// exists, including ones inserted by a concurrent import.
type CatalogStore interface {
	GetByResourceIDs(ctx context.Context, resourceIDs []string) ([]CatalogEntry, error)
	CreateMissing(ctx context.Context, entries []NewCatalogEntry) error
}

// PullsheetItemStore persists equipment line items.
type PullsheetItemStore interface {
	Create(ctx context.Context, item NewPullsheetItem) (PullsheetItem, error)
	CreateMany(ctx context.Context, items []NewPullsheetItem) (int, error)
	GetByID(ctx context.Context, id int64) (PullsheetItem, error)
	List(ctx context.Context) ([]PullsheetItem, error)
	ListUnplaced(ctx context.Context, jobID int64) ([]PullsheetItem, error)
	// UpdatePlacement sets rack, start position and side together; all nil
	// moves the item back to unplaced.
	UpdatePlacement(ctx context.Context, id int64, rackDrawingID *int64, startPosition *int, side *string) (PullsheetItem, error)
	// UpdatePosition moves an item within its current rack.
	UpdatePosition(ctx context.Context, id int64, startPosition int, side string) (PullsheetItem, error)
	UpdateDisplayName(ctx context.Context, id int64, displayNameOverride string) (PullsheetItem, error)
	// ClearRackPlacements unplaces every item currently in the given rack.
	ClearRackPlacements(ctx context.Context, rackDrawingID int64) error
}

// GenericEquipmentStore persists the curated generic-equipment catalog.
type GenericEquipmentStore interface {
	Create(ctx context.Context, g NewGenericEquipment) (GenericEquipment, error)
	GetByID(ctx context.Context, id int64) (GenericEquipment, error)
	ListActive(ctx context.Context) ([]GenericEquipment, error)
}

// Store bundles the per-entity stores one implementation provides.
type Store struct {
	Jobs             JobStore
	RackDrawings     RackDrawingStore
	Catalog          CatalogStore
	Items            PullsheetItemStore
	GenericEquipment GenericEquipmentStore
}
