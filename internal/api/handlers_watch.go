package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/soundstage/soundstage/internal/models"
)

func (s *Server) handleGetWatch(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	mediaID, err := uuid.Parse(r.PathValue("mediaID"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid media ID")
		return
	}

	entry, err := s.watchRepo.Get(userID, mediaID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load watch state")
		return
	}
	if entry == nil {
		s.respondError(w, http.StatusNotFound, "no watch state")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: entry})
}

type saveWatchRequest struct {
	Position  int  `json:"position"`
	Completed bool `json:"completed"`
}

func (s *Server) handleSaveWatch(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	mediaID, err := uuid.Parse(r.PathValue("mediaID"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid media ID")
		return
	}

	var req saveWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Position < 0 {
		s.respondError(w, http.StatusBadRequest, "position must be non-negative")
		return
	}

	entry := &models.WatchEntry{
		UserID:    userID,
		MediaID:   mediaID,
		Position:  req.Position,
		Completed: req.Completed,
	}
	if err := s.watchRepo.Upsert(entry); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to save watch state")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: entry})
}

func (s *Server) handleContinueWatching(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	entries, err := s.watchRepo.ContinueWatching(userID, 20)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load continue watching")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: entries})
}
