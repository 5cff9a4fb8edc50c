package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avcrew/rackplan/internal/flex"
	"github.com/avcrew/rackplan/internal/metrics"
	"github.com/avcrew/rackplan/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ImportResult is the outcome of a successful pullsheet import.
type ImportResult struct {
	Job                   store.Job `json:"job"`
	RackDrawingsCreated   int       `json:"rackDrawingsCreated"`
	PullsheetItemsCreated int       `json:"pullsheetItemsCreated"`
}

// ParsePullsheetURL extracts the pullsheet id from a Flex UI URL of the form
//
//	https://host/f5/ui/#equipment-list-scan/{uuid}/prep
//
// The id lives in the second segment of the URL fragment and must be a UUID.
func ParsePullsheetURL(flexURL string) (string, error) {
	u, err := url.Parse(flexURL)
	if err != nil {
		return "", ErrInvalidFlexURL
	}
	parts := strings.Split(u.Fragment, "/")
	if len(parts) < 2 || parts[1] == "" {
		return "", ErrInvalidFlexURL
	}
	if _, err := uuid.Parse(parts[1]); err != nil {
		return "", ErrInvalidFlexURL
	}
	return parts[1], nil
}

// importItem is one flattened record plus the rack it persists into.
type importItem struct {
	flex.Item
	RackDrawingID *int64
}

// ImportPullsheet runs the full import pipeline for one Flex URL: locator
// validation, duplicate check, fetch, flatten, then persistence of the job,
// its rack drawings, the equipment catalog and the pullsheet items.
//
// Duplicate imports terminate with *ConflictError carrying the existing job
// id. Two near-simultaneous imports of the same pullsheet are resolved by
// the unique constraint on the job's pullsheet id: exactly one creates the
// job, the loser re-reads the winner's row and reports the same conflict.
func (s *Service) ImportPullsheet(ctx context.Context, flexURL string) (*ImportResult, error) {
	start := time.Now()
	res, err := s.importPullsheet(ctx, flexURL)
	metrics.ImportsTotal.WithLabelValues(importOutcome(err)).Inc()
	if err == nil {
		metrics.ImportDuration.Observe(time.Since(start).Seconds())
		metrics.RacksCreated.Add(float64(res.RackDrawingsCreated))
		metrics.ItemsCreated.Add(float64(res.PullsheetItemsCreated))
	}
	return res, err
}

func importOutcome(err error) string {
	var conflict *ConflictError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &conflict):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrInvalidFlexURL):
		return metrics.OutcomeInvalidURL
	case errors.Is(err, errFetch):
		return metrics.OutcomeFetchError
	default:
		return metrics.OutcomeError
	}
}

// errFetch tags upstream fetch failures for metrics/logging classification.
var errFetch = errors.New("flex fetch failed")

func (s *Service) importPullsheet(ctx context.Context, flexURL string) (*ImportResult, error) {
	pullsheetID, err := ParsePullsheetURL(flexURL)
	if err != nil {
		return nil, err
	}
	log := slog.With("pullsheet_id", pullsheetID)

	// Fast-path duplicate check. The real guarantee is the unique
	// constraint hit at job creation below; this check just avoids the
	// upstream fetch for the common sequential re-import.
	existing, err := s.store.Jobs.GetByFlexPullsheetID(ctx, pullsheetID)
	switch {
	case err == nil:
		return nil, &ConflictError{JobID: &existing.ID}
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("check existing job: %w", err)
	}

	sections, err := s.fetcher.FetchPullsheet(ctx, pullsheetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFetch, err)
	}

	parsed := flex.Flatten(sections)
	log.Info("pullsheet flattened",
		"job_name", parsed.JobName,
		"racks", len(parsed.RackDrawings),
		"loose_items", len(parsed.LooseEquipment),
	)

	job, err := s.createJobGuarded(ctx, parsed.JobName, pullsheetID)
	if err != nil {
		return nil, err
	}

	rackIDByName, err := s.createRackDrawings(ctx, job.ID, parsed.RackDrawings)
	if err != nil {
		return nil, fmt.Errorf("create rack drawings: %w", err)
	}

	all := collectEquipment(parsed, rackIDByName)

	catalog, err := s.resolveCatalog(ctx, flatRecords(all))
	if err != nil {
		return nil, err
	}

	created, err := s.createItems(ctx, job.ID, all, catalog)
	if err != nil {
		return nil, fmt.Errorf("create pullsheet items: %w", err)
	}

	log.Info("pullsheet imported", "job_id", job.ID, "racks", len(parsed.RackDrawings), "items", created)
	return &ImportResult{
		Job:                   job,
		RackDrawingsCreated:   len(parsed.RackDrawings),
		PullsheetItemsCreated: created,
	}, nil
}

// createJobGuarded creates the job row, resolving the duplicate-import race
// through the unique constraint: on a duplicate-key failure the conflicting
// job is re-read and returned as a conflict, with a nil job id if the row
// vanished before it could be re-read.
func (s *Service) createJobGuarded(ctx context.Context, name, pullsheetID string) (store.Job, error) {
	job, err := s.store.Jobs.Create(ctx, store.NewJob{Name: name, FlexPullsheetID: pullsheetID})
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return store.Job{}, fmt.Errorf("create job: %w", err)
	}

	winner, lookupErr := s.store.Jobs.GetByFlexPullsheetID(ctx, pullsheetID)
	if lookupErr != nil {
		if errors.Is(lookupErr, store.ErrNotFound) {
			return store.Job{}, &ConflictError{}
		}
		return store.Job{}, fmt.Errorf("re-read conflicting job: %w", lookupErr)
	}
	return store.Job{}, &ConflictError{JobID: &winner.ID}
}

// createRackDrawings creates all rack rows concurrently and returns the
// name-to-id lookup used to attach rack equipment. Creation order is not
// significant; any failure fails the whole import.
//
// Two racks sharing a display name within one import collapse to one map
// entry (the later one in document order). Observed legacy behavior, kept.
func (s *Service) createRackDrawings(ctx context.Context, jobID int64, racks []flex.Rack) (map[string]int64, error) {
	ids := make([]int64, len(racks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.createConcurrency)
	for i, rack := range racks {
		g.Go(func() error {
			created, err := s.store.RackDrawings.Create(gctx, store.NewRackDrawing{
				JobID:        jobID,
				Name:         rack.Name,
				TotalSpaces:  rack.TotalSpaces,
				IsDoubleWide: rack.IsDoubleWide,
				FlexSection:  rack.Section,
				Notes:        rack.Notes,
			})
			if err != nil {
				return fmt.Errorf("rack %q: %w", rack.Name, err)
			}
			ids[i] = created.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byName := make(map[string]int64, len(racks))
	for i, rack := range racks {
		byName[rack.Name] = ids[i]
	}
	return byName, nil
}

// collectEquipment merges rack-scoped and loose equipment into one list,
// attaching each rack item's persisted rack id.
func collectEquipment(parsed flex.ParsedPullsheet, rackIDByName map[string]int64) []importItem {
	var all []importItem
	for _, rack := range parsed.RackDrawings {
		rackID := rackIDByName[rack.Name]
		for _, item := range rack.Equipment {
			id := rackID
			all = append(all, importItem{Item: item, RackDrawingID: &id})
		}
	}
	for _, item := range parsed.LooseEquipment {
		all = append(all, importItem{Item: item})
	}
	return all
}

func flatRecords(items []importItem) []flex.Item {
	records := make([]flex.Item, len(items))
	for i, it := range items {
		records[i] = it.Item
	}
	return records
}

// createItems persists the flattened equipment in two phases: records with
// no parent reference are created concurrently (collecting their assigned
// ids), then child records are bulk-inserted with parent ids resolved
// through that map. A child whose parent reference does not resolve is
// inserted with a nil parent rather than failing the batch; one malformed
// subtree must not block an otherwise-valid import.
func (s *Service) createItems(ctx context.Context, jobID int64, all []importItem, catalog map[string]catalogRef) (int, error) {
	var parents, children []importItem
	for _, item := range all {
		if item.ParentResourceID == nil {
			parents = append(parents, item)
		} else {
			children = append(children, item)
		}
	}

	newItem := func(item importItem, parentID *int64) store.NewPullsheetItem {
		row := store.NewPullsheetItem{
			JobID:           jobID,
			RackDrawingID:   item.RackDrawingID,
			ParentID:        parentID,
			FlexResourceID:  item.ResourceID,
			FlexSection:     item.Section,
			Name:            item.Name,
			RackUnits:       item.RackUnits,
			Quantity:        item.Quantity,
			Notes:           item.Notes,
			IsFromPullsheet: true,
		}
		if ref, ok := catalog[item.ResourceID]; ok {
			id := ref.ID
			row.EquipmentCatalogID = &id
			row.DisplayNameOverride = ref.DisplayName
		}
		return row
	}

	idByResource := make(map[string]int64, len(parents))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.createConcurrency)
	for _, item := range parents {
		g.Go(func() error {
			created, err := s.store.Items.Create(gctx, newItem(item, nil))
			if err != nil {
				return fmt.Errorf("item %q: %w", item.Name, err)
			}
			mu.Lock()
			idByResource[item.ResourceID] = created.ID
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if len(children) == 0 {
		return len(parents), nil
	}

	// For detecting truly dangling references (parent id absent from the
	// whole import, a contract violation of the source tree) as opposed to
	// parents that simply were not in the parent phase (nested children).
	known := make(map[string]bool, len(all))
	for _, item := range all {
		known[item.ResourceID] = true
	}

	rows := make([]store.NewPullsheetItem, 0, len(children))
	for _, item := range children {
		var parentID *int64
		if id, ok := idByResource[*item.ParentResourceID]; ok {
			parentID = &id
		} else if !known[*item.ParentResourceID] {
			slog.Warn("dangling parent reference, inserting without parent",
				"resource_id", item.ResourceID,
				"parent_resource_id", *item.ParentResourceID,
			)
		}
		rows = append(rows, newItem(item, parentID))
	}
	inserted, err := s.store.Items.CreateMany(ctx, rows)
	if err != nil {
		return 0, err
	}
	return len(parents) + inserted, nil
}
