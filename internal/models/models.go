package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LibraryType is the declared kind of a library root.
type LibraryType string

const (
	LibraryTypeMovies  LibraryType = "movies"
	LibraryTypeTVShows LibraryType = "tvshows"
	LibraryTypeMusic   LibraryType = "music"
	LibraryTypePhotos  LibraryType = "photos"
)

// Valid reports whether t is one of the known library types.
func (t LibraryType) Valid() bool {
	switch t {
	case LibraryTypeMovies, LibraryTypeTVShows, LibraryTypeMusic, LibraryTypePhotos:
		return true
	}
	return false
}

// MediaType is the kind of a persisted media entity. A tvshow or album row is
// a container; its playable files live in the episodes/tracks tables.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeTVShow MediaType = "tvshow"
	MediaTypeAlbum  MediaType = "album"
	MediaTypePhoto  MediaType = "photo"
)

// EntityType returns the media type produced by scanning a library of type t.
func (t LibraryType) EntityType() MediaType {
	switch t {
	case LibraryTypeTVShows:
		return MediaTypeTVShow
	case LibraryTypeMusic:
		return MediaTypeAlbum
	case LibraryTypePhotos:
		return MediaTypePhoto
	default:
		return MediaTypeMovie
	}
}

type Library struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Type      LibraryType `json:"type"`
	AutoScan  bool       `json:"auto_scan"`
	LastScan  *time.Time `json:"last_scan"`
	CreatedAt time.Time  `json:"created_at"`
}

// CastMember is one credited cast entry. ProfilePath is the provider's image
// URL as returned; cast headshots are not cached locally.
type CastMember struct {
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
}

// StringList is a []string stored as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// CastList is a []CastMember stored as a JSON text column.
type CastList []CastMember

func (l CastList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *CastList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func scanJSON(src, dst interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), dst)
	case []byte:
		return json.Unmarshal(v, dst)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", src)
	}
}

// MediaItem is the unit the UI displays: a movie, a show or album container,
// or a photo. Enrichment fields are nil for degraded entities.
type MediaItem struct {
	ID            uuid.UUID  `json:"id"`
	LibraryID     uuid.UUID  `json:"library_id"`
	Title         string     `json:"title"`
	OriginalTitle *string    `json:"original_title"`
	Type          MediaType  `json:"type"`
	Path          string     `json:"path"`
	FileName      string     `json:"file_name"`
	FileSize      *int64     `json:"file_size"`
	Duration      *int       `json:"duration"` // seconds
	Year          *int       `json:"year"`
	EndYear       *int       `json:"end_year"`
	Overview      *string    `json:"overview"`
	Tagline       *string    `json:"tagline"`
	PosterPath    *string    `json:"poster_path"`
	BackdropPath  *string    `json:"backdrop_path"`
	LogoPath      *string    `json:"logo_path"`
	Rating        *float64   `json:"rating"`
	ContentRating *string    `json:"content_rating"`
	Genres        StringList `json:"genres"`
	Cast          CastList   `json:"cast"`
	Directors     StringList `json:"directors"`
	Writers       StringList `json:"writers"`
	Studio        *string    `json:"studio"`
	TMDBID        *int       `json:"tmdb_id"`
	IMDBID        *string    `json:"imdb_id"`
	SeasonCount   *int       `json:"season_count"`
	EpisodeCount  *int       `json:"episode_count"`
	Status        *string    `json:"status"`
	AddedAt       time.Time  `json:"added_at"`
}

// Season caches provider season metadata for a show, independent of which
// episode files are locally present.
type Season struct {
	ID           uuid.UUID `json:"id"`
	MediaID      uuid.UUID `json:"media_id"`
	SeasonNumber int       `json:"season_number"`
	Name         *string   `json:"name"`
	Overview     *string   `json:"overview"`
	PosterPath   *string   `json:"poster_path"`
	EpisodeCount *int      `json:"episode_count"`
	AirDate      *string   `json:"air_date"`
}

// Episode is one playable file belonging to a show.
type Episode struct {
	ID            uuid.UUID `json:"id"`
	MediaID       uuid.UUID `json:"media_id"`
	SeasonNumber  int       `json:"season_number"`
	EpisodeNumber int       `json:"episode_number"`
	Title         *string   `json:"title"`
	Overview      *string   `json:"overview"`
	Path          string    `json:"path"`
	Duration      *int      `json:"duration"`
	StillPath     *string   `json:"still_path"`
	AirDate       *string   `json:"air_date"`
	Runtime       *int      `json:"runtime"` // minutes, from the provider
}

// Track is one playable file belonging to an album.
type Track struct {
	ID          uuid.UUID `json:"id"`
	MediaID     uuid.UUID `json:"media_id"`
	Title       string    `json:"title"`
	TrackNumber *int      `json:"track_number"`
	DiscNumber  *int      `json:"disc_number"`
	Duration    *int      `json:"duration"`
	Artist      *string   `json:"artist"`
	Path        string    `json:"path"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  *string   `json:"display_name"`
	AvatarPath   *string   `json:"avatar_path"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// WatchEntry is the single current playback position for a (user, media)
// pair. Saving again replaces the row; this is an upsert, not a history log.
type WatchEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	MediaID   uuid.UUID `json:"media_id"`
	Position  int       `json:"position"` // seconds
	Completed bool      `json:"completed"`
	WatchedAt time.Time `json:"watched_at"`
}

// ScanResult summarizes one library scan.
type ScanResult struct {
	FilesFound      int      `json:"files_found"`
	FilesSkipped    int      `json:"files_skipped"`
	ItemsCreated    int      `json:"items_created"`
	EpisodesCreated int      `json:"episodes_created"`
	TracksCreated   int      `json:"tracks_created"`
	LookupsFailed   int      `json:"lookups_failed"`
	Errors          []string `json:"errors,omitempty"`
}
