// Package core implements the business logic of the rack-planning backend:
// the pullsheet import pipeline (fetch, flatten, catalog resolution,
// persistence) and the job/rack/equipment operations the HTTP layer exposes.
package core

import (
	"context"
	"errors"
	"strings"

	"github.com/avcrew/rackplan/internal/flex"
	"github.com/avcrew/rackplan/internal/store"
)

// defaultCreateConcurrency bounds the fan-out used when creating racks and
// parent items during an import.
const defaultCreateConcurrency = 8

// Service provides the application's business operations over a store and
// the Flex API client.
type Service struct {
	store   *store.Store
	fetcher flex.Fetcher

	createConcurrency int
}

// Options tunes Service behavior.
type Options struct {
	// CreateConcurrency bounds concurrent rack/item creation during imports.
	// Zero means the default.
	CreateConcurrency int
}

// NewService creates a Service.
func NewService(st *store.Store, fetcher flex.Fetcher, opts Options) *Service {
	cc := opts.CreateConcurrency
	if cc <= 0 {
		cc = defaultCreateConcurrency
	}
	return &Service{
		store:             st,
		fetcher:           fetcher,
		createConcurrency: cc,
	}
}

// ----------------------------------------------------------------------------
// Jobs
// ----------------------------------------------------------------------------

// ListJobs returns all jobs, newest first.
func (s *Service) ListJobs(ctx context.Context) ([]store.Job, error) {
	return s.store.Jobs.List(ctx)
}

// CreateJob creates a job manually, outside the import flow.
func (s *Service) CreateJob(ctx context.Context, name, flexPullsheetID string, description *string) (store.Job, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(flexPullsheetID) == "" {
		return store.Job{}, invalidf("name and flexPullsheetId are required")
	}
	return s.store.Jobs.Create(ctx, store.NewJob{
		Name:            name,
		Description:     description,
		FlexPullsheetID: flexPullsheetID,
	})
}

// UpdateJob edits a job's name and/or description.
func (s *Service) UpdateJob(ctx context.Context, id int64, u store.JobUpdate) (store.Job, error) {
	if u.Name == nil && u.Description == nil {
		return store.Job{}, invalidf("at least one field (name or description) is required")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return store.Job{}, invalidf("name must not be empty")
	}
	return s.store.Jobs.Update(ctx, id, u)
}

// DeleteJob removes a job; rack drawings and items cascade with it.
func (s *Service) DeleteJob(ctx context.Context, id int64) error {
	return s.store.Jobs.Delete(ctx, id)
}

// ----------------------------------------------------------------------------
// Rack drawings
// ----------------------------------------------------------------------------

// ListRackDrawings returns all rack drawings.
func (s *Service) ListRackDrawings(ctx context.Context) ([]store.RackDrawing, error) {
	return s.store.RackDrawings.List(ctx)
}

// ListRackDrawingsByJob returns a job's rack drawings.
func (s *Service) ListRackDrawingsByJob(ctx context.Context, jobID int64) ([]store.RackDrawing, error) {
	return s.store.RackDrawings.ListByJob(ctx, jobID)
}

// DeleteRackDrawing removes a rack drawing. Equipment placed in the rack is
// moved back to unplaced first so no item keeps stale placement fields.
func (s *Service) DeleteRackDrawing(ctx context.Context, id int64) error {
	if _, err := s.store.RackDrawings.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.Items.ClearRackPlacements(ctx, id); err != nil {
		return err
	}
	err := s.store.RackDrawings.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted concurrently after placements were cleared; the end state
		// is the one requested.
		return nil
	}
	return err
}
