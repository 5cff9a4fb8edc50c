package core

import (
	"context"
	"fmt"

	"github.com/avcrew/rackplan/internal/flex"
	"github.com/avcrew/rackplan/internal/store"
)

// catalogRef is one resolved catalog mapping: the internal catalog id and
// the catalog's display name, carried onto items as their name override.
type catalogRef struct {
	ID          int64
	DisplayName *string
}

// resolveCatalog maps every distinct flex resource id in the given records
// to a catalog entry, creating entries that do not exist yet.
//
// The first record carrying a given resource id (input order) is the
// template for the new entry's name and rack units; later duplicates are
// not separately inserted. Insertion tolerates concurrent creation of the
// same resource id: missing entries are bulk-inserted duplicate-tolerantly,
// then the full id set is re-queried so entries inserted by a concurrent
// import are picked up too.
func (s *Service) resolveCatalog(ctx context.Context, records []flex.Item) (map[string]catalogRef, error) {
	// Distinct resource ids in first-occurrence order.
	var ids []string
	firstByID := make(map[string]flex.Item)
	for _, rec := range records {
		if _, seen := firstByID[rec.ResourceID]; seen {
			continue
		}
		firstByID[rec.ResourceID] = rec
		ids = append(ids, rec.ResourceID)
	}
	if len(ids) == 0 {
		return map[string]catalogRef{}, nil
	}

	existing, err := s.store.Catalog.GetByResourceIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("look up equipment catalog: %w", err)
	}
	existingSet := make(map[string]bool, len(existing))
	for _, e := range existing {
		existingSet[e.FlexResourceID] = true
	}

	var missing []store.NewCatalogEntry
	for _, id := range ids {
		if existingSet[id] {
			continue
		}
		tmpl := firstByID[id]
		name := tmpl.Name
		entry := store.NewCatalogEntry{
			FlexResourceID: id,
			Name:           name,
			DisplayName:    &name,
		}
		if tmpl.RackUnits > 0 {
			ru := tmpl.RackUnits
			entry.RackUnits = &ru
		}
		missing = append(missing, entry)
	}
	if len(missing) > 0 {
		if err := s.store.Catalog.CreateMissing(ctx, missing); err != nil {
			return nil, fmt.Errorf("insert equipment catalog entries: %w", err)
		}
	}

	final, err := s.store.Catalog.GetByResourceIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("re-query equipment catalog: %w", err)
	}
	refs := make(map[string]catalogRef, len(final))
	for _, e := range final {
		refs[e.FlexResourceID] = catalogRef{ID: e.ID, DisplayName: e.DisplayName}
	}
	if len(refs) != len(ids) {
		return nil, fmt.Errorf("equipment catalog resolution incomplete: %d of %d resource ids resolved", len(refs), len(ids))
	}
	return refs, nil
}
