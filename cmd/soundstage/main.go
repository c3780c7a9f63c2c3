package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/soundstage/soundstage/internal/api"
	"github.com/soundstage/soundstage/internal/config"
	"github.com/soundstage/soundstage/internal/db"
	"github.com/soundstage/soundstage/internal/events"
	"github.com/soundstage/soundstage/internal/jobs"
	"github.com/soundstage/soundstage/internal/metadata"
	"github.com/soundstage/soundstage/internal/repository"
	"github.com/soundstage/soundstage/internal/scanner"
	"github.com/soundstage/soundstage/internal/scheduler"
)

func main() {
	log.Println("SoundStage starting...")

	cfg := config.Load()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer database.Close()

	if err := database.Init(); err != nil {
		log.Fatalf("schema init failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)

	libRepo := repository.NewLibraryRepository(database.DB)
	mediaRepo := repository.NewMediaRepository(database.DB)
	tvRepo := repository.NewTVRepository(database.DB)
	musicRepo := repository.NewMusicRepository(database.DB)

	var provider metadata.Provider
	if cfg.TMDBAPIKey != "" {
		provider = metadata.NewTMDBClient(cfg.TMDBAPIKey, cfg.ImageCacheDir())
	} else {
		log.Println("TMDB API key not set; scans will use filename metadata only")
	}
	prober := scanner.NewFFprobe(cfg.FFprobePath)

	sc := scanner.New(provider, prober, libRepo, mediaRepo, tvRepo, musicRepo, cfg.ScanWorkers)

	hub := events.NewHub()

	queue := jobs.NewQueue(cfg.RedisAddr)
	queue.RegisterHandler(jobs.TaskScanLibrary, jobs.NewScanHandler(sc, libRepo, hub))
	if err := queue.Start(); err != nil {
		log.Fatalf("job queue start failed: %v", err)
	}
	defer queue.Stop()

	sched := scheduler.New(libRepo, func(libraryID uuid.UUID) {
		id := libraryID.String()
		if _, err := queue.EnqueueUnique(jobs.TaskScanLibrary, jobs.ScanPayload{LibraryID: id},
			"scan:"+id, asynq.Timeout(6*time.Hour), asynq.Retention(1*time.Hour)); err != nil {
			log.Printf("scheduler enqueue failed for %s: %v", id, err)
		}
	}, os.Getenv("SCAN_SCHEDULE"))
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler start failed: %v", err)
	}
	defer sched.Stop()

	srv := api.NewServer(cfg, database, sc, queue, hub)

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
