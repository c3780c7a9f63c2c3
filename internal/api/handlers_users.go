package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/soundstage/soundstage/internal/models"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userRepo.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: users})
}

type createUserRequest struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name"`
	IsAdmin     bool    `json:"is_admin"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		s.respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	user := models.User{
		ID:          uuid.New(),
		Username:    req.Username,
		DisplayName: req.DisplayName,
		IsAdmin:     req.IsAdmin,
	}
	if err := s.userRepo.Create(&user, req.Password); err != nil {
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: user})
}
