package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/soundstage/soundstage/internal/models"
)

// TVRepository manages the season and episode children of show media rows.
type TVRepository struct {
	db *sql.DB
}

func NewTVRepository(db *sql.DB) *TVRepository {
	return &TVRepository{db: db}
}

// UpsertSeason inserts or refreshes season-level metadata. Seasons can be
// known from the provider before any episode file for them exists locally.
func (r *TVRepository) UpsertSeason(s *models.Season) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	query := `
		INSERT INTO seasons (id, media_id, season_number, name, overview,
			poster_path, episode_count, air_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (media_id, season_number)
		DO UPDATE SET name=excluded.name, overview=excluded.overview,
			poster_path=excluded.poster_path, episode_count=excluded.episode_count,
			air_date=excluded.air_date`
	_, err := r.db.Exec(query, s.ID, s.MediaID, s.SeasonNumber, s.Name,
		s.Overview, s.PosterPath, s.EpisodeCount, s.AirDate)
	return err
}

func (r *TVRepository) ListSeasons(mediaID uuid.UUID) ([]*models.Season, error) {
	query := `
		SELECT id, media_id, season_number, name, overview, poster_path,
		       episode_count, air_date
		FROM seasons WHERE media_id = ? ORDER BY season_number`
	rows, err := r.db.Query(query, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seasons := []*models.Season{}
	for rows.Next() {
		s := &models.Season{}
		if err := rows.Scan(&s.ID, &s.MediaID, &s.SeasonNumber, &s.Name,
			&s.Overview, &s.PosterPath, &s.EpisodeCount, &s.AirDate); err != nil {
			return nil, err
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

// CreateEpisode inserts one episode row. Duplicate (show, season, episode)
// slots resolve first-wins: the insert is ignored and created is false.
func (r *TVRepository) CreateEpisode(e *models.Episode) (created bool, err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := `
		INSERT OR IGNORE INTO episodes (id, media_id, season_number,
			episode_number, title, overview, path, duration, still_path,
			air_date, runtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.Exec(query, e.ID, e.MediaID, e.SeasonNumber,
		e.EpisodeNumber, e.Title, e.Overview, e.Path, e.Duration, e.StillPath,
		e.AirDate, e.Runtime)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const episodeColumns = `id, media_id, season_number, episode_number, title,
	overview, path, duration, still_path, air_date, runtime`

func scanEpisode(row interface{ Scan(dest ...interface{}) error }) (*models.Episode, error) {
	e := &models.Episode{}
	err := row.Scan(&e.ID, &e.MediaID, &e.SeasonNumber, &e.EpisodeNumber,
		&e.Title, &e.Overview, &e.Path, &e.Duration, &e.StillPath, &e.AirDate,
		&e.Runtime)
	return e, err
}

func (r *TVRepository) ListEpisodes(mediaID uuid.UUID) ([]*models.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes
		WHERE media_id = ? ORDER BY season_number, episode_number`
	rows, err := r.db.Query(query, mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	episodes := []*models.Episode{}
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

func (r *TVRepository) GetEpisode(id uuid.UUID) (*models.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE id = ?`
	e, err := scanEpisode(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
