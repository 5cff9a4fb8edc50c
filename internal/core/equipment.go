package core

import (
	"context"
	"errors"
	"strings"

	"github.com/avcrew/rackplan/internal/store"
)

// validSides are the rack sides equipment can be placed on.
var validSides = map[string]bool{
	"FRONT":       true,
	"BACK":        true,
	"FRONT_LEFT":  true,
	"FRONT_RIGHT": true,
	"BACK_LEFT":   true,
	"BACK_RIGHT":  true,
}

// MoveParams describes an equipment move. RackSet distinguishes "rack field
// present as null" (move to unplaced) from "rack field absent" (move within
// the current rack).
type MoveParams struct {
	RackSet       bool
	RackDrawingID *int64
	StartPosition *int
	Side          *string
}

// ListPlacedEquipment returns all pullsheet items.
func (s *Service) ListPlacedEquipment(ctx context.Context) ([]store.PullsheetItem, error) {
	return s.store.Items.List(ctx)
}

// MoveEquipment updates an item's placement.
//
//   - rack explicitly null: the item moves to unplaced, position cleared
//   - rack set: start position and side are required
//   - rack absent: only position and side change (move within the rack)
func (s *Service) MoveEquipment(ctx context.Context, id int64, p MoveParams) (store.PullsheetItem, error) {
	if p.RackSet && p.RackDrawingID == nil {
		return s.store.Items.UpdatePlacement(ctx, id, nil, nil, nil)
	}

	if p.StartPosition == nil || p.Side == nil {
		return store.PullsheetItem{}, invalidf("startPosition and side are required when placing equipment in a rack")
	}
	if !validSides[*p.Side] {
		return store.PullsheetItem{}, invalidf("side must be a valid value")
	}

	if p.RackSet {
		if _, err := s.store.RackDrawings.GetByID(ctx, *p.RackDrawingID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.PullsheetItem{}, invalidf("rack drawing %d does not exist", *p.RackDrawingID)
			}
			return store.PullsheetItem{}, err
		}
		return s.store.Items.UpdatePlacement(ctx, id, p.RackDrawingID, p.StartPosition, p.Side)
	}
	return s.store.Items.UpdatePosition(ctx, id, *p.StartPosition, *p.Side)
}

// RenameEquipment sets an item's display-name override.
func (s *Service) RenameEquipment(ctx context.Context, id int64, displayNameOverride string) (store.PullsheetItem, error) {
	if strings.TrimSpace(displayNameOverride) == "" {
		return store.PullsheetItem{}, invalidf("displayNameOverride must be a non-empty string")
	}
	return s.store.Items.UpdateDisplayName(ctx, id, displayNameOverride)
}

// UnplacedItems returns a job's items that are not in any rack.
func (s *Service) UnplacedItems(ctx context.Context, jobID int64) ([]store.PullsheetItem, error) {
	return s.store.Items.ListUnplaced(ctx, jobID)
}

// PlaceGenericParams describes placing a generic-equipment entry into a rack.
type PlaceGenericParams struct {
	GenericEquipmentID int64
	RackDrawingID      int64
	Quantity           int
	StartPosition      int
	Side               string
}

// PlaceGenericEquipment creates a placed pullsheet item from a curated
// generic-equipment entry, snapshotting its name and rack units.
func (s *Service) PlaceGenericEquipment(ctx context.Context, jobID int64, p PlaceGenericParams) (store.PullsheetItem, error) {
	switch {
	case p.GenericEquipmentID <= 0:
		return store.PullsheetItem{}, invalidf("genericEquipmentId is required and must be a positive integer")
	case p.RackDrawingID <= 0:
		return store.PullsheetItem{}, invalidf("rackDrawingId is required and must be a positive integer")
	case p.Quantity <= 0:
		return store.PullsheetItem{}, invalidf("quantity is required and must be a positive integer")
	case p.StartPosition < 0:
		return store.PullsheetItem{}, invalidf("startPosition is required and must be a non-negative integer")
	case !validSides[p.Side]:
		return store.PullsheetItem{}, invalidf("side is required and must be a valid value")
	}

	generic, err := s.store.GenericEquipment.GetByID(ctx, p.GenericEquipmentID)
	if err != nil {
		return store.PullsheetItem{}, err
	}

	return s.store.Items.Create(ctx, store.NewPullsheetItem{
		JobID:              jobID,
		GenericEquipmentID: &generic.ID,
		RackDrawingID:      &p.RackDrawingID,
		FlexResourceID:     "",
		FlexSection:        "Generic",
		Name:               generic.Name,
		RackUnits:          generic.RackUnits,
		Quantity:           p.Quantity,
		IsFromPullsheet:    false,
		StartPosition:      &p.StartPosition,
		Side:               &p.Side,
	})
}

// ListGenericEquipment returns active curated equipment, by category then name.
func (s *Service) ListGenericEquipment(ctx context.Context) ([]store.GenericEquipment, error) {
	return s.store.GenericEquipment.ListActive(ctx)
}

// CreateGenericEquipment adds a curated equipment type.
func (s *Service) CreateGenericEquipment(ctx context.Context, g store.NewGenericEquipment) (store.GenericEquipment, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.Category = strings.TrimSpace(g.Category)
	if g.Name == "" {
		return store.GenericEquipment{}, invalidf("name is required and must be a non-empty string")
	}
	if g.Category == "" {
		return store.GenericEquipment{}, invalidf("category is required and must be a non-empty string")
	}
	if g.RackUnits <= 0 {
		return store.GenericEquipment{}, invalidf("rackUnits is required and must be a positive integer")
	}
	if g.DisplayName != nil {
		trimmed := strings.TrimSpace(*g.DisplayName)
		if trimmed == "" {
			g.DisplayName = nil
		} else {
			g.DisplayName = &trimmed
		}
	}
	return s.store.GenericEquipment.Create(ctx, g)
}
