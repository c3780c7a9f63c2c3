package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/soundstage/soundstage/internal/repository"
	"github.com/soundstage/soundstage/internal/scanner"
)

// ScanPayload identifies the library a scan task operates on.
type ScanPayload struct {
	LibraryID string `json:"library_id"`
}

// EventNotifier pushes scan lifecycle events to connected clients.
type EventNotifier interface {
	Broadcast(event string, data interface{})
}

type ScanHandler struct {
	scanner  *scanner.Scanner
	libRepo  *repository.LibraryRepository
	notifier EventNotifier
}

func NewScanHandler(sc *scanner.Scanner, libRepo *repository.LibraryRepository, notifier EventNotifier) *ScanHandler {
	return &ScanHandler{scanner: sc, libRepo: libRepo, notifier: notifier}
}

func (h *ScanHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ScanPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	libID, err := uuid.Parse(p.LibraryID)
	if err != nil {
		return fmt.Errorf("library id: %w", err)
	}
	library, err := h.libRepo.GetByID(libID)
	if err != nil {
		return fmt.Errorf("get library: %w", err)
	}

	taskID := "scan:" + p.LibraryID
	taskDesc := "Scanning: " + library.Name

	log.Printf("Job: scanning library %q", library.Name)
	if h.notifier != nil {
		h.notifier.Broadcast("scan:start", map[string]string{"library_id": p.LibraryID, "name": library.Name})
		h.notifier.Broadcast("task:update", map[string]interface{}{
			"task_id": taskID, "task_type": TaskScanLibrary,
			"status": "running", "progress": 0, "description": taskDesc,
		})
	}

	// Broadcast progress at most every 500ms, plus always on the last file.
	var progressFn scanner.ProgressFunc
	if h.notifier != nil {
		var lastBroadcast time.Time
		progressFn = func(processed, total int) {
			now := time.Now()
			if now.Sub(lastBroadcast) < 500*time.Millisecond && processed != total {
				return
			}
			lastBroadcast = now
			pct := 0
			if total > 0 {
				pct = processed * 100 / total
			}
			h.notifier.Broadcast("scan:progress", map[string]interface{}{
				"library_id": p.LibraryID,
				"processed":  processed,
				"total":      total,
			})
			desc := fmt.Sprintf("Scanning %s (%d/%d)", library.Name, processed, total)
			h.notifier.Broadcast("task:update", map[string]interface{}{
				"task_id": taskID, "task_type": TaskScanLibrary,
				"status": "running", "progress": pct, "description": desc,
			})
		}
	}

	result, err := h.scanner.ScanLibrary(ctx, library, progressFn)
	if err != nil {
		if h.notifier != nil {
			h.notifier.Broadcast("task:update", map[string]interface{}{
				"task_id": taskID, "task_type": TaskScanLibrary,
				"status": "failed", "progress": 0, "description": taskDesc,
			})
		}
		return fmt.Errorf("scan: %w", err)
	}

	log.Printf("Job: scan complete — %d found, %d items created", result.FilesFound, result.ItemsCreated)
	if h.notifier != nil {
		h.notifier.Broadcast("scan:complete", map[string]interface{}{
			"library_id": p.LibraryID,
			"result":     result,
		})
		h.notifier.Broadcast("task:update", map[string]interface{}{
			"task_id": taskID, "task_type": TaskScanLibrary,
			"status": "complete", "progress": 100, "description": taskDesc,
		})
	}
	return nil
}
