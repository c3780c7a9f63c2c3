package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/soundstage/soundstage/internal/models"
)

// MusicRepository manages the track children of album media rows.
type MusicRepository struct {
	db *sql.DB
}

func NewMusicRepository(db *sql.DB) *MusicRepository {
	return &MusicRepository{db: db}
}

func (r *MusicRepository) CreateTrack(t *models.Track) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO tracks (id, media_id, title, track_number, disc_number,
			duration, artist, path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, t.ID, t.MediaID, t.Title, t.TrackNumber,
		t.DiscNumber, t.Duration, t.Artist, t.Path)
	return err
}

func (r *MusicRepository) ListTracks(mediaID uuid.UUID) ([]*models.Track, error) {
	query := `
		SELECT id, media_id, title, track_number, disc_number, duration,
		       artist, path
		FROM tracks WHERE media_id = ?
		ORDER BY disc_number, track_number, title`
	rows, err := r.db.Query(query, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []*models.Track{}
	for rows.Next() {
		t := &models.Track{}
		if err := rows.Scan(&t.ID, &t.MediaID, &t.Title, &t.TrackNumber,
			&t.DiscNumber, &t.Duration, &t.Artist, &t.Path); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
