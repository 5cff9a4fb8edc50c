package web

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/avcrew/rackplan/internal/core"
	"github.com/avcrew/rackplan/internal/store"
)

// optionalInt64 distinguishes an absent JSON field from an explicit null.
// The move endpoint needs all three states: absent (leave the rack alone),
// null (move to unplaced), value (place into that rack).
type optionalInt64 struct {
	Set   bool
	Value *int64
}

func (o *optionalInt64) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ----------------------------------------------------------------------------
// Placed equipment
// ----------------------------------------------------------------------------

func (s *Server) handleListPlacedEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListPlacedEquipment(r.Context())
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to fetch placed equipment")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type moveEquipmentRequest struct {
	RackDrawingID optionalInt64 `json:"rackDrawingId"`
	StartPosition *int          `json:"startPosition"`
	Side          *string       `json:"side"`
}

func (s *Server) handleMoveEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		s.respondError(w, r, errBadID, http.StatusBadRequest, "Invalid equipment ID")
		return
	}
	var req moveEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondCoreError(w, r, err, "")
		return
	}
	item, err := s.service.MoveEquipment(r.Context(), id, core.MoveParams{
		RackSet:       req.RackDrawingID.Set,
		RackDrawingID: req.RackDrawingID.Value,
		StartPosition: req.StartPosition,
		Side:          req.Side,
	})
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to move equipment")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type renameEquipmentRequest struct {
	DisplayNameOverride string `json:"displayNameOverride"`
}

func (s *Server) handleRenameEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		s.respondError(w, r, errBadID, http.StatusBadRequest, "Equipment ID must be a number")
		return
	}
	var req renameEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondCoreError(w, r, err, "")
		return
	}
	item, err := s.service.RenameEquipment(r.Context(), id, req.DisplayNameOverride)
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to update equipment name")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ----------------------------------------------------------------------------
// Pullsheet items within a job
// ----------------------------------------------------------------------------

func (s *Server) handleUnplacedItems(w http.ResponseWriter, r *http.Request) {
	jobID, ok := idParam(r, "jobID")
	if !ok {
		s.respondError(w, r, errBadID, http.StatusBadRequest, "Invalid job ID")
		return
	}
	items, err := s.service.UnplacedItems(r.Context(), jobID)
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to fetch unplaced items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type placeGenericRequest struct {
	GenericEquipmentID int64  `json:"genericEquipmentId"`
	RackDrawingID      int64  `json:"rackDrawingId"`
	Quantity           int    `json:"quantity"`
	StartPosition      int    `json:"startPosition"`
	Side               string `json:"side"`
}

func (s *Server) handlePlaceGeneric(w http.ResponseWriter, r *http.Request) {
	jobID, ok := idParam(r, "jobID")
	if !ok {
		s.respondError(w, r, errBadID, http.StatusBadRequest, "Invalid job ID")
		return
	}
	var req placeGenericRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondCoreError(w, r, err, "")
		return
	}
	item, err := s.service.PlaceGenericEquipment(r.Context(), jobID, core.PlaceGenericParams{
		GenericEquipmentID: req.GenericEquipmentID,
		RackDrawingID:      req.RackDrawingID,
		Quantity:           req.Quantity,
		StartPosition:      req.StartPosition,
		Side:               req.Side,
	})
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to place generic equipment")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ----------------------------------------------------------------------------
// Generic equipment
// ----------------------------------------------------------------------------

func (s *Server) handleListGenericEquipment(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListGenericEquipment(r.Context())
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to fetch generic equipment")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type createGenericEquipmentRequest struct {
	Name        string  `json:"name"`
	DisplayName *string `json:"displayName"`
	Category    string  `json:"category"`
	RackUnits   int     `json:"rackUnits"`
}

func (s *Server) handleCreateGenericEquipment(w http.ResponseWriter, r *http.Request) {
	var req createGenericEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondCoreError(w, r, err, "")
		return
	}
	entry, err := s.service.CreateGenericEquipment(r.Context(), store.NewGenericEquipment{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Category:    req.Category,
		RackUnits:   req.RackUnits,
	})
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to create generic equipment")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
