package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJobs_UniquePullsheetID(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	first, err := st.Jobs.Create(ctx, NewJob{Name: "A", FlexPullsheetID: "ps-1"})
	require.NoError(t, err)

	_, err = st.Jobs.Create(ctx, NewJob{Name: "B", FlexPullsheetID: "ps-1"})
	require.ErrorIs(t, err, ErrDuplicate)

	got, err := st.Jobs.GetByFlexPullsheetID(ctx, "ps-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "A", got.Name)
}

func TestMemoryJobs_ListNewestFirst(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	a, err := st.Jobs.Create(ctx, NewJob{Name: "A", FlexPullsheetID: "ps-1"})
	require.NoError(t, err)
	b, err := st.Jobs.Create(ctx, NewJob{Name: "B", FlexPullsheetID: "ps-2"})
	require.NoError(t, err)

	jobs, err := st.Jobs.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, b.ID, jobs[0].ID)
	assert.Equal(t, a.ID, jobs[1].ID)
}

func TestMemoryJobs_DeleteCascades(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	job, err := st.Jobs.Create(ctx, NewJob{Name: "A", FlexPullsheetID: "ps-1"})
	require.NoError(t, err)
	rack, err := st.RackDrawings.Create(ctx, NewRackDrawing{JobID: job.ID, Name: "Rack", FlexSection: "FOH"})
	require.NoError(t, err)
	_, err = st.Items.Create(ctx, NewPullsheetItem{JobID: job.ID, FlexResourceID: "e1", FlexSection: "FOH", Name: "Amp", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, st.Jobs.Delete(ctx, job.ID))

	_, err = st.RackDrawings.GetByID(ctx, rack.ID)
	require.ErrorIs(t, err, ErrNotFound)
	items, err := st.Items.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.ErrorIs(t, st.Jobs.Delete(ctx, job.ID), ErrNotFound)
}

func TestMemoryRackDrawings_DeleteDetachesItems(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	job, err := st.Jobs.Create(ctx, NewJob{Name: "A", FlexPullsheetID: "ps-1"})
	require.NoError(t, err)
	rack, err := st.RackDrawings.Create(ctx, NewRackDrawing{JobID: job.ID, Name: "Rack", FlexSection: "FOH"})
	require.NoError(t, err)
	item, err := st.Items.Create(ctx, NewPullsheetItem{
		JobID: job.ID, RackDrawingID: &rack.ID,
		FlexResourceID: "e1", FlexSection: "FOH", Name: "Amp", Quantity: 1,
	})
	require.NoError(t, err)

	require.NoError(t, st.RackDrawings.Delete(ctx, rack.ID))

	got, err := st.Items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RackDrawingID, "item survives with the rack reference nulled")
}

func TestMemoryCatalog_CreateMissingIsDuplicateTolerant(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	err := st.Catalog.CreateMissing(ctx, []NewCatalogEntry{
		{FlexResourceID: "r1", Name: "First"},
		{FlexResourceID: "r1", Name: "Second"},
	})
	require.NoError(t, err)

	// Re-inserting an existing id is a no-op, as with ON CONFLICT DO NOTHING.
	err = st.Catalog.CreateMissing(ctx, []NewCatalogEntry{{FlexResourceID: "r1", Name: "Third"}})
	require.NoError(t, err)

	entries, err := st.Catalog.GetByResourceIDs(ctx, []string{"r1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "First", entries[0].Name)
}

func TestMemoryItems_ListUnplaced(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	job, err := st.Jobs.Create(ctx, NewJob{Name: "A", FlexPullsheetID: "ps-1"})
	require.NoError(t, err)
	rack, err := st.RackDrawings.Create(ctx, NewRackDrawing{JobID: job.ID, Name: "Rack", FlexSection: "FOH"})
	require.NoError(t, err)

	placed, err := st.Items.Create(ctx, NewPullsheetItem{
		JobID: job.ID, RackDrawingID: &rack.ID,
		FlexResourceID: "e1", FlexSection: "FOH", Name: "Placed", Quantity: 1,
	})
	require.NoError(t, err)
	loose, err := st.Items.Create(ctx, NewPullsheetItem{
		JobID: job.ID, FlexResourceID: "e2", FlexSection: "FOH", Name: "Loose", Quantity: 1,
	})
	require.NoError(t, err)

	unplaced, err := st.Items.ListUnplaced(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, unplaced, 1)
	assert.Equal(t, loose.ID, unplaced[0].ID)
	assert.NotEqual(t, placed.ID, unplaced[0].ID)
}

func TestMemoryGenericEquipment_ListActiveOrder(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	for _, g := range []NewGenericEquipment{
		{Name: "Zeta Panel", Category: "Panels", RackUnits: 1},
		{Name: "Alpha Drawer", Category: "Drawers", RackUnits: 2},
		{Name: "Beta Panel", Category: "Panels", RackUnits: 1},
	} {
		_, err := st.GenericEquipment.Create(ctx, g)
		require.NoError(t, err)
	}

	entries, err := st.GenericEquipment.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Alpha Drawer", "Beta Panel", "Zeta Panel"}, names)
}
