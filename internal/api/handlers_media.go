package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/soundstage/soundstage/internal/models"
)

func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid library ID")
		return
	}
	items, err := s.mediaRepo.ListByLibrary(id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list media")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: items})
}

// mediaDetail is a media row with its children attached for container types.
type mediaDetail struct {
	*models.MediaItem
	Seasons  []*models.Season  `json:"seasons,omitempty"`
	Episodes []*models.Episode `json:"episodes,omitempty"`
	Tracks   []*models.Track   `json:"tracks,omitempty"`
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid media ID")
		return
	}
	item, err := s.mediaRepo.GetByID(id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load media")
		return
	}
	if item == nil {
		s.respondError(w, http.StatusNotFound, "media not found")
		return
	}

	detail := &mediaDetail{MediaItem: item}
	switch item.Type {
	case models.MediaTypeTVShow:
		if detail.Seasons, err = s.tvRepo.ListSeasons(id); err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to load seasons")
			return
		}
		if detail.Episodes, err = s.tvRepo.ListEpisodes(id); err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to load episodes")
			return
		}
	case models.MediaTypeAlbum:
		if detail.Tracks, err = s.musicRepo.ListTracks(id); err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to load tracks")
			return
		}
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: detail})
}
