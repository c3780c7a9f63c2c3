package scheduler

import (
	"log"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/soundstage/soundstage/internal/repository"
)

// EnqueueFunc requests a scan for one library. The queue deduplicates, so a
// tick firing while a scan is still running is harmless.
type EnqueueFunc func(libraryID uuid.UUID)

// Scheduler periodically rescans every library enrolled in auto-scan.
type Scheduler struct {
	libRepo *repository.LibraryRepository
	enqueue EnqueueFunc
	spec    string
	cron    *cron.Cron
}

// New builds a scheduler; spec is a cron expression, empty means nightly.
func New(libRepo *repository.LibraryRepository, enqueue EnqueueFunc, spec string) *Scheduler {
	if spec == "" {
		spec = "0 3 * * *"
	}
	return &Scheduler{
		libRepo: libRepo,
		enqueue: enqueue,
		spec:    spec,
		cron:    cron.New(),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("Scheduler: auto-scan schedule %q active", s.spec)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler: stopped")
}

func (s *Scheduler) tick() {
	libs, err := s.libRepo.ListAutoScan()
	if err != nil {
		log.Printf("Scheduler: list auto-scan libraries: %v", err)
		return
	}
	for _, lib := range libs {
		log.Printf("Scheduler: library %q due for rescan", lib.Name)
		s.enqueue(lib.ID)
	}
}
