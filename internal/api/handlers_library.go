package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/soundstage/soundstage/internal/jobs"
	"github.com/soundstage/soundstage/internal/models"
)

func (s *Server) handleListLibraries(w http.ResponseWriter, r *http.Request) {
	libraries, err := s.libRepo.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list libraries")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: libraries})
}

type createLibraryRequest struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	AutoScan bool   `json:"auto_scan"`
}

func (s *Server) handleCreateLibrary(w http.ResponseWriter, r *http.Request) {
	var req createLibraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	libType := models.LibraryType(req.Type)
	if !libType.Valid() {
		s.respondError(w, http.StatusBadRequest, "invalid library type")
		return
	}
	if req.Name == "" || req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "name and path are required")
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		s.respondError(w, http.StatusBadRequest, "library path is not accessible")
		return
	}

	library := models.Library{
		ID:       uuid.New(),
		Name:     req.Name,
		Path:     req.Path,
		Type:     libType,
		AutoScan: req.AutoScan,
	}
	if err := s.libRepo.Create(&library); err != nil {
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: library})
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid library ID")
		return
	}
	library, err := s.libRepo.GetByID(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "library not found")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: library})
}

func (s *Server) handleDeleteLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid library ID")
		return
	}
	if err := s.libRepo.Delete(id); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to delete library")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

func (s *Server) handleScanLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid library ID")
		return
	}
	library, err := s.libRepo.GetByID(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "library not found")
		return
	}

	// Enqueue an async scan, deduplicated by library ID.
	if s.jobQueue != nil {
		uniqueID := "scan:" + id.String()
		jobID, err := s.jobQueue.EnqueueUnique(jobs.TaskScanLibrary, jobs.ScanPayload{
			LibraryID: id.String(),
		}, uniqueID, asynq.Timeout(6*time.Hour), asynq.Retention(1*time.Hour))
		if err != nil {
			log.Printf("API: failed to enqueue scan, falling back to sync: %v", err)
		} else {
			log.Printf("API: scan job enqueued for library %q: %s", library.Name, jobID)
			s.respondJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]string{
				"job_id":  jobID,
				"message": "scan job enqueued",
			}})
			return
		}
	}

	result, err := s.scanner.ScanLibrary(r.Context(), library, nil)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}
