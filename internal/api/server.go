package api

import (
	"encoding/json"
	"net/http"

	"github.com/soundstage/soundstage/internal/config"
	"github.com/soundstage/soundstage/internal/db"
	"github.com/soundstage/soundstage/internal/events"
	"github.com/soundstage/soundstage/internal/jobs"
	"github.com/soundstage/soundstage/internal/repository"
	"github.com/soundstage/soundstage/internal/scanner"
)

type Server struct {
	config       *config.Config
	db           *db.DB
	userRepo     *repository.UserRepository
	libRepo      *repository.LibraryRepository
	mediaRepo    *repository.MediaRepository
	tvRepo       *repository.TVRepository
	musicRepo    *repository.MusicRepository
	watchRepo    *repository.WatchHistoryRepository
	settingsRepo *repository.SettingsRepository
	scanner      *scanner.Scanner
	jobQueue     *jobs.Queue
	hub          *events.Hub
	router       *http.ServeMux
}

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewServer(cfg *config.Config, database *db.DB, sc *scanner.Scanner, jobQueue *jobs.Queue, hub *events.Hub) *Server {
	s := &Server{
		config:       cfg,
		db:           database,
		userRepo:     repository.NewUserRepository(database.DB),
		libRepo:      repository.NewLibraryRepository(database.DB),
		mediaRepo:    repository.NewMediaRepository(database.DB),
		tvRepo:       repository.NewTVRepository(database.DB),
		musicRepo:    repository.NewMusicRepository(database.DB),
		watchRepo:    repository.NewWatchHistoryRepository(database.DB),
		settingsRepo: repository.NewSettingsRepository(database.DB),
		scanner:      sc,
		jobQueue:     jobQueue,
		hub:          hub,
		router:       http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) Hub() *events.Hub {
	return s.hub
}

func (s *Server) LibRepo() *repository.LibraryRepository {
	return s.libRepo
}

func (s *Server) Scanner() *scanner.Scanner {
	return s.scanner
}

func (s *Server) setupRoutes() {
	// Cached provider artwork
	imageFS := http.StripPrefix("/cache/images/", http.FileServer(http.Dir(s.config.ImageCacheDir())))
	s.router.Handle("GET /cache/images/", imageFS)

	s.router.HandleFunc("GET /health", s.handleHealth)

	// Libraries
	s.router.HandleFunc("GET /api/v1/libraries", s.handleListLibraries)
	s.router.HandleFunc("POST /api/v1/libraries", s.handleCreateLibrary)
	s.router.HandleFunc("GET /api/v1/libraries/{id}", s.handleGetLibrary)
	s.router.HandleFunc("DELETE /api/v1/libraries/{id}", s.handleDeleteLibrary)
	s.router.HandleFunc("POST /api/v1/libraries/{id}/scan", s.handleScanLibrary)

	// Media
	s.router.HandleFunc("GET /api/v1/libraries/{id}/media", s.handleListMedia)
	s.router.HandleFunc("GET /api/v1/media/{id}", s.handleGetMedia)

	// Users and playback state
	s.router.HandleFunc("GET /api/v1/users", s.handleListUsers)
	s.router.HandleFunc("POST /api/v1/users", s.handleCreateUser)
	s.router.HandleFunc("GET /api/v1/users/{id}/continue", s.handleContinueWatching)
	s.router.HandleFunc("GET /api/v1/users/{id}/watch/{mediaID}", s.handleGetWatch)
	s.router.HandleFunc("PUT /api/v1/users/{id}/watch/{mediaID}", s.handleSaveWatch)

	// Events
	s.router.HandleFunc("GET /api/v1/ws", s.hub.ServeHTTP)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"status": "ok"}})
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, Response{Success: false, Error: message})
}
