package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memoryState holds all in-memory rows behind one mutex. Uniqueness
// constraints are checked under the lock, which gives the same observable
// semantics as the Postgres unique indexes for the import race.
type memoryState struct {
	mu sync.Mutex

	nextID  int64
	jobs    map[int64]Job
	racks   map[int64]RackDrawing
	catalog map[int64]CatalogEntry
	items   map[int64]PullsheetItem
	generic map[int64]GenericEquipment
}

// NewMemory returns a Store backed by process memory. It is intended for
// tests; data does not survive the process.
func NewMemory() *Store {
	st := &memoryState{
		jobs:    make(map[int64]Job),
		racks:   make(map[int64]RackDrawing),
		catalog: make(map[int64]CatalogEntry),
		items:   make(map[int64]PullsheetItem),
		generic: make(map[int64]GenericEquipment),
	}
	return &Store{
		Jobs:             &memJobStore{st},
		RackDrawings:     &memRackDrawingStore{st},
		Catalog:          &memCatalogStore{st},
		Items:            &memPullsheetItemStore{st},
		GenericEquipment: &memGenericEquipmentStore{st},
	}
}

func (st *memoryState) id() int64 {
	st.nextID++
	return st.nextID
}

// sortedByID returns map values ordered by id, mirroring ORDER BY id.
func sortedByID[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

// ----------------------------------------------------------------------------
// Jobs
// ----------------------------------------------------------------------------

type memJobStore struct{ st *memoryState }

func (s *memJobStore) Create(_ context.Context, j NewJob) (Job, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	for _, existing := range s.st.jobs {
		if existing.FlexPullsheetID == j.FlexPullsheetID {
			return Job{}, fmt.Errorf("%w: jobs_flex_pullsheet_id_key", ErrDuplicate)
		}
	}
	job := Job{
		ID:              s.st.id(),
		Name:            j.Name,
		Description:     j.Description,
		FlexPullsheetID: j.FlexPullsheetID,
		CreatedAt:       time.Now(),
	}
	s.st.jobs[job.ID] = job
	return job, nil
}

func (s *memJobStore) GetByID(_ context.Context, id int64) (Job, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	job, ok := s.st.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (s *memJobStore) GetByFlexPullsheetID(_ context.Context, pullsheetID string) (Job, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, job := range s.st.jobs {
		if job.FlexPullsheetID == pullsheetID {
			return job, nil
		}
	}
	return Job{}, ErrNotFound
}

func (s *memJobStore) List(_ context.Context) ([]Job, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	jobs := sortedByID(s.st.jobs, func(j Job) int64 { return j.ID })
	// Newest first, as the Postgres store orders them.
	sort.SliceStable(jobs, func(i, k int) bool { return jobs[i].ID > jobs[k].ID })
	return jobs, nil
}

func (s *memJobStore) Update(_ context.Context, id int64, u JobUpdate) (Job, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	job, ok := s.st.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	if u.Name != nil {
		job.Name = *u.Name
	}
	if u.Description != nil {
		job.Description = u.Description
	}
	s.st.jobs[id] = job
	return job, nil
}

// Delete cascades to rack drawings and items, mirroring the FK cascade.
func (s *memJobStore) Delete(_ context.Context, id int64) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, ok := s.st.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.st.jobs, id)
	for rid, r := range s.st.racks {
		if r.JobID == id {
			delete(s.st.racks, rid)
		}
	}
	for iid, it := range s.st.items {
		if it.JobID == id {
			delete(s.st.items, iid)
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Rack drawings
// ----------------------------------------------------------------------------

type memRackDrawingStore struct{ st *memoryState }

func (s *memRackDrawingStore) Create(_ context.Context, r NewRackDrawing) (RackDrawing, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	rack := RackDrawing{
		ID:           s.st.id(),
		JobID:        r.JobID,
		Name:         r.Name,
		TotalSpaces:  r.TotalSpaces,
		IsDoubleWide: r.IsDoubleWide,
		FlexSection:  r.FlexSection,
		Notes:        r.Notes,
		CreatedAt:    time.Now(),
	}
	s.st.racks[rack.ID] = rack
	return rack, nil
}

func (s *memRackDrawingStore) List(_ context.Context) ([]RackDrawing, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return sortedByID(s.st.racks, func(r RackDrawing) int64 { return r.ID }), nil
}

func (s *memRackDrawingStore) ListByJob(_ context.Context, jobID int64) ([]RackDrawing, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	racks := []RackDrawing{}
	for _, r := range sortedByID(s.st.racks, func(r RackDrawing) int64 { return r.ID }) {
		if r.JobID == jobID {
			racks = append(racks, r)
		}
	}
	return racks, nil
}

func (s *memRackDrawingStore) GetByID(_ context.Context, id int64) (RackDrawing, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	r, ok := s.st.racks[id]
	if !ok {
		return RackDrawing{}, ErrNotFound
	}
	return r, nil
}

// Delete removes the rack and detaches its items, mirroring ON DELETE SET NULL.
func (s *memRackDrawingStore) Delete(_ context.Context, id int64) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, ok := s.st.racks[id]; !ok {
		return ErrNotFound
	}
	delete(s.st.racks, id)
	for iid, it := range s.st.items {
		if it.RackDrawingID != nil && *it.RackDrawingID == id {
			it.RackDrawingID = nil
			s.st.items[iid] = it
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Equipment catalog
// ----------------------------------------------------------------------------

type memCatalogStore struct{ st *memoryState }

func (s *memCatalogStore) GetByResourceIDs(_ context.Context, resourceIDs []string) ([]CatalogEntry, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	want := make(map[string]bool, len(resourceIDs))
	for _, id := range resourceIDs {
		want[id] = true
	}
	entries := []CatalogEntry{}
	for _, e := range sortedByID(s.st.catalog, func(e CatalogEntry) int64 { return e.ID }) {
		if want[e.FlexResourceID] {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *memCatalogStore) CreateMissing(_ context.Context, entries []NewCatalogEntry) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	existing := make(map[string]bool, len(s.st.catalog))
	for _, e := range s.st.catalog {
		existing[e.FlexResourceID] = true
	}
	for _, e := range entries {
		if existing[e.FlexResourceID] {
			continue
		}
		existing[e.FlexResourceID] = true
		entry := CatalogEntry{
			ID:             s.st.id(),
			FlexResourceID: e.FlexResourceID,
			Name:           e.Name,
			DisplayName:    e.DisplayName,
			RackUnits:      e.RackUnits,
		}
		s.st.catalog[entry.ID] = entry
	}
	return nil
}

// ----------------------------------------------------------------------------
// Pullsheet items
// ----------------------------------------------------------------------------

type memPullsheetItemStore struct{ st *memoryState }

func (s *memPullsheetItemStore) Create(_ context.Context, item NewPullsheetItem) (PullsheetItem, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.insert(item), nil
}

func (s *memPullsheetItemStore) insert(item NewPullsheetItem) PullsheetItem {
	row := PullsheetItem{
		ID:                  s.st.id(),
		JobID:               item.JobID,
		EquipmentCatalogID:  item.EquipmentCatalogID,
		GenericEquipmentID:  item.GenericEquipmentID,
		RackDrawingID:       item.RackDrawingID,
		ParentID:            item.ParentID,
		FlexResourceID:      item.FlexResourceID,
		FlexSection:         item.FlexSection,
		Name:                item.Name,
		DisplayNameOverride: item.DisplayNameOverride,
		RackUnits:           item.RackUnits,
		Quantity:            item.Quantity,
		Notes:               item.Notes,
		IsFromPullsheet:     item.IsFromPullsheet,
		StartPosition:       item.StartPosition,
		Side:                item.Side,
		CreatedAt:           time.Now(),
	}
	s.st.items[row.ID] = row
	return row
}

func (s *memPullsheetItemStore) CreateMany(_ context.Context, items []NewPullsheetItem) (int, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, item := range items {
		s.insert(item)
	}
	return len(items), nil
}

func (s *memPullsheetItemStore) GetByID(_ context.Context, id int64) (PullsheetItem, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	it, ok := s.st.items[id]
	if !ok {
		return PullsheetItem{}, ErrNotFound
	}
	return it, nil
}

func (s *memPullsheetItemStore) List(_ context.Context) ([]PullsheetItem, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return sortedByID(s.st.items, func(i PullsheetItem) int64 { return i.ID }), nil
}

func (s *memPullsheetItemStore) ListUnplaced(_ context.Context, jobID int64) ([]PullsheetItem, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	items := []PullsheetItem{}
	for _, it := range sortedByID(s.st.items, func(i PullsheetItem) int64 { return i.ID }) {
		if it.JobID == jobID && it.RackDrawingID == nil {
			items = append(items, it)
		}
	}
	return items, nil
}

func (s *memPullsheetItemStore) UpdatePlacement(_ context.Context, id int64, rackDrawingID *int64, startPosition *int, side *string) (PullsheetItem, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	it, ok := s.st.items[id]
	if !ok {
		return PullsheetItem{}, ErrNotFound
	}
	it.RackDrawingID = rackDrawingID
	it.StartPosition = startPosition
	it.Side = side
	s.st.items[id] = it
	return it, nil
}

func (s *memPullsheetItemStore) UpdatePosition(_ context.Context, id int64, startPosition int, side string) (PullsheetItem, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	it, ok := s.st.items[id]
	if !ok {
		return PullsheetItem{}, ErrNotFound
	}
	it.StartPosition = &startPosition
	it.Side = &side
	s.st.items[id] = it
	return it, nil
}

func (s *memPullsheetItemStore) UpdateDisplayName(_ context.Context, id int64, displayNameOverride string) (PullsheetItem, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	it, ok := s.st.items[id]
	if !ok {
		return PullsheetItem{}, ErrNotFound
	}
	it.DisplayNameOverride = &displayNameOverride
	s.st.items[id] = it
	return it, nil
}

func (s *memPullsheetItemStore) ClearRackPlacements(_ context.Context, rackDrawingID int64) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for id, it := range s.st.items {
		if it.RackDrawingID != nil && *it.RackDrawingID == rackDrawingID {
			it.RackDrawingID = nil
			it.StartPosition = nil
			it.Side = nil
			s.st.items[id] = it
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Generic equipment
// ----------------------------------------------------------------------------

type memGenericEquipmentStore struct{ st *memoryState }

func (s *memGenericEquipmentStore) Create(_ context.Context, g NewGenericEquipment) (GenericEquipment, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	entry := GenericEquipment{
		ID:          s.st.id(),
		Name:        g.Name,
		DisplayName: g.DisplayName,
		Category:    g.Category,
		RackUnits:   g.RackUnits,
		IsActive:    true,
	}
	s.st.generic[entry.ID] = entry
	return entry, nil
}

func (s *memGenericEquipmentStore) GetByID(_ context.Context, id int64) (GenericEquipment, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	g, ok := s.st.generic[id]
	if !ok {
		return GenericEquipment{}, ErrNotFound
	}
	return g, nil
}

func (s *memGenericEquipmentStore) ListActive(_ context.Context) ([]GenericEquipment, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	entries := []GenericEquipment{}
	for _, g := range sortedByID(s.st.generic, func(g GenericEquipment) int64 { return g.ID }) {
		if g.IsActive {
			entries = append(entries, g)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
