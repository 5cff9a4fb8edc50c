package web

import (
	"net/http"
	"strconv"

	"github.com/avcrew/rackplan/internal/store"
	"github.com/go-chi/chi/v5"
)

// idParam parses a numeric chi URL parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

// ----------------------------------------------------------------------------
// Pullsheet import
// ----------------------------------------------------------------------------

type importRequest struct {
	FlexURL string `json:"flexUrl"`
}

func (s *Server) handleImportPullsheet(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondCoreError(w, r, err, "")
		return
	}
	if req.FlexURL == "" {
		s.respondError(w, r, errMissingField("flexUrl"), http.StatusBadRequest, "flexUrl is required")
		return
	}

	result, err := s.service.ImportPullsheet(r.Context(), req.FlexURL)
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to import pullsheet")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ----------------------------------------------------------------------------
// Jobs
// ----------------------------------------------------------------------------

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.service.ListJobs(r.Context())
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to fetch jobs")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

type createJobRequest struct {
	Name            string  `json:"name"`
	FlexPullsheetID string  `json:"flexPullsheetId"`
	Description     *string `json:"description"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondCoreError(w, r, err, "")
		return
	}
	job, err := s.service.CreateJob(r.Context(), req.Name, req.FlexPullsheetID, req.Description)
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to create job")
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

type updateJobRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		s.respondError(w, r, errBadID, http.StatusBadRequest, "Job ID is required")
		return
	}
	var req updateJobRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondCoreError(w, r, err, "")
		return
	}
	job, err := s.service.UpdateJob(r.Context(), id, store.JobUpdate{Name: req.Name, Description: req.Description})
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to update job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		s.respondError(w, r, errBadID, http.StatusBadRequest, "Job ID is required")
		return
	}
	if err := s.service.DeleteJob(r.Context(), id); err != nil {
		s.respondCoreError(w, r, err, "Failed to delete job")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------------------
// Rack drawings
// ----------------------------------------------------------------------------

func (s *Server) handleListRackDrawings(w http.ResponseWriter, r *http.Request) {
	racks, err := s.service.ListRackDrawings(r.Context())
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to fetch rack drawings")
		return
	}
	writeJSON(w, http.StatusOK, racks)
}

func (s *Server) handleListJobRackDrawings(w http.ResponseWriter, r *http.Request) {
	jobID, ok := idParam(r, "jobID")
	if !ok {
		s.respondError(w, r, errBadID, http.StatusBadRequest, "Invalid job ID")
		return
	}
	racks, err := s.service.ListRackDrawingsByJob(r.Context(), jobID)
	if err != nil {
		s.respondCoreError(w, r, err, "Failed to fetch rack drawings")
		return
	}
	writeJSON(w, http.StatusOK, racks)
}

func (s *Server) handleDeleteRackDrawing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		s.respondError(w, r, errBadID, http.StatusBadRequest, "Rack drawing ID is required")
		return
	}
	if err := s.service.DeleteRackDrawing(r.Context(), id); err != nil {
		s.respondCoreError(w, r, err, "Failed to delete rack drawing")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
