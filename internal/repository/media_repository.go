package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/soundstage/soundstage/internal/models"
)

type MediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

const mediaColumns = `id, library_id, title, original_title, type, path, file_name,
	file_size, duration, year, end_year, overview, tagline, poster_path,
	backdrop_path, logo_path, rating, content_rating, genres, cast_members,
	directors, writers, studio, tmdb_id, imdb_id, season_count, episode_count,
	status, added_at`

func scanMediaItem(row interface{ Scan(dest ...interface{}) error }) (*models.MediaItem, error) {
	m := &models.MediaItem{}
	err := row.Scan(
		&m.ID, &m.LibraryID, &m.Title, &m.OriginalTitle, &m.Type, &m.Path,
		&m.FileName, &m.FileSize, &m.Duration, &m.Year, &m.EndYear,
		&m.Overview, &m.Tagline, &m.PosterPath, &m.BackdropPath, &m.LogoPath,
		&m.Rating, &m.ContentRating, &m.Genres, &m.Cast, &m.Directors,
		&m.Writers, &m.Studio, &m.TMDBID, &m.IMDBID, &m.SeasonCount,
		&m.EpisodeCount, &m.Status, &m.AddedAt,
	)
	return m, err
}

func (r *MediaRepository) Create(m *models.MediaItem) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `
		INSERT INTO media (id, library_id, title, original_title, type, path,
			file_name, file_size, duration, year, end_year, overview, tagline,
			poster_path, backdrop_path, logo_path, rating, content_rating,
			genres, cast_members, directors, writers, studio, tmdb_id, imdb_id,
			season_count, episode_count, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query,
		m.ID, m.LibraryID, m.Title, m.OriginalTitle, m.Type, m.Path,
		m.FileName, m.FileSize, m.Duration, m.Year, m.EndYear, m.Overview,
		m.Tagline, m.PosterPath, m.BackdropPath, m.LogoPath, m.Rating,
		m.ContentRating, m.Genres, m.Cast, m.Directors, m.Writers, m.Studio,
		m.TMDBID, m.IMDBID, m.SeasonCount, m.EpisodeCount, m.Status)
	return err
}

func (r *MediaRepository) GetByID(id uuid.UUID) (*models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = ?`
	m, err := scanMediaItem(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MediaRepository) GetByPath(path string) (*models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE path = ?`
	m, err := scanMediaItem(r.db.QueryRow(query, path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MediaRepository) ListByLibrary(libraryID uuid.UUID) ([]*models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE library_id = ? ORDER BY title`
	rows, err := r.db.Query(query, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.MediaItem{}
	for rows.Next() {
		m, err := scanMediaItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// DeleteByLibrary removes every media row for a library; episodes, seasons,
// tracks, and watch history follow via cascade. This is the Clear step of a
// full rebuild scan.
func (r *MediaRepository) DeleteByLibrary(libraryID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM media WHERE library_id = ?`, libraryID)
	return err
}

func (r *MediaRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM media WHERE id = ?`, id)
	return err
}

func (r *MediaRepository) CountByLibrary(libraryID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM media WHERE library_id = ?`, libraryID).Scan(&n)
	return n, err
}
