package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/soundstage/soundstage/internal/models"
)

type WatchHistoryRepository struct {
	db *sql.DB
}

func NewWatchHistoryRepository(db *sql.DB) *WatchHistoryRepository {
	return &WatchHistoryRepository{db: db}
}

// Upsert saves the current position for a (user, media) pair, replacing any
// previous row for the same pair.
func (r *WatchHistoryRepository) Upsert(e *models.WatchEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.WatchedAt = time.Now().UTC()
	query := `
		INSERT INTO watch_history (id, user_id, media_id, position, completed, watched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, media_id)
		DO UPDATE SET position=excluded.position, completed=excluded.completed,
			watched_at=excluded.watched_at`
	_, err := r.db.Exec(query, e.ID, e.UserID, e.MediaID, e.Position,
		e.Completed, e.WatchedAt)
	return err
}

func (r *WatchHistoryRepository) Get(userID, mediaID uuid.UUID) (*models.WatchEntry, error) {
	e := &models.WatchEntry{}
	err := r.db.QueryRow(`
		SELECT id, user_id, media_id, position, completed, watched_at
		FROM watch_history WHERE user_id = ? AND media_id = ?`,
		userID, mediaID,
	).Scan(&e.ID, &e.UserID, &e.MediaID, &e.Position, &e.Completed, &e.WatchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ContinueWatching lists in-progress entries, most recent first.
func (r *WatchHistoryRepository) ContinueWatching(userID uuid.UUID, limit int) ([]*models.WatchEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`
		SELECT id, user_id, media_id, position, completed, watched_at
		FROM watch_history
		WHERE user_id = ? AND completed = 0 AND position > 0
		ORDER BY watched_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*models.WatchEntry{}
	for rows.Next() {
		e := &models.WatchEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.MediaID, &e.Position,
			&e.Completed, &e.WatchedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
