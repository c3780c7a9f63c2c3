package metadata

import (
	"context"

	"github.com/soundstage/soundstage/internal/models"
)

// Provider resolves parsed titles against an external catalog. Every call is
// best-effort: a nil result means "no metadata available" and the caller
// proceeds with filesystem-derived fields only. Implementations never return
// errors for single lookups; they log and degrade.
type Provider interface {
	// FindMovie searches by title (year filter when known) and, on a hit,
	// returns the provider's top-ranked result fully resolved.
	FindMovie(ctx context.Context, title string, year *int) *MovieMeta
	// FindTVShow is the show-catalog analogue, including season summaries.
	FindTVShow(ctx context.Context, title string, year *int) *TVShowMeta
	// GetSeason fetches one season's episode list. Called once per distinct
	// season encountered during a scan, not once per episode file.
	GetSeason(ctx context.Context, showID, seasonNumber int) *SeasonMeta
}

// MovieMeta is a fully resolved movie record. Artwork paths are local cache
// paths, never provider URLs.
type MovieMeta struct {
	TMDBID        int
	IMDBID        *string
	Title         string
	OriginalTitle *string
	Overview      *string
	Tagline       *string
	Year          *int
	Runtime       *int // minutes
	Rating        *float64
	PosterPath    *string
	BackdropPath  *string
	Genres        []string
	Studio        *string
	Directors     []string
	Writers       []string
	Cast          []models.CastMember
	ContentRating *string
	Status        *string
}

// SeasonSummary is the per-season overview returned with show details,
// available before any episode file for the season is locally present.
type SeasonSummary struct {
	SeasonNumber int
	Name         *string
	Overview     *string
	EpisodeCount *int
	AirDate      *string
	PosterPath   *string
}

// TVShowMeta is a fully resolved show record plus season summaries.
type TVShowMeta struct {
	TMDBID        int
	IMDBID        *string
	Title         string
	OriginalTitle *string
	Overview      *string
	Tagline       *string
	Year          *int
	EndYear       *int
	Rating        *float64
	PosterPath    *string
	BackdropPath  *string
	Genres        []string
	Studio        *string
	Creators      []string
	Cast          []models.CastMember
	ContentRating *string
	Status        *string
	SeasonCount   *int
	EpisodeCount  *int
	Seasons       []SeasonSummary
}

// EpisodeMeta is one episode entry from a season's detail listing.
type EpisodeMeta struct {
	EpisodeNumber int
	Name          string
	Overview      *string
	AirDate       *string
	Runtime       *int
	StillPath     *string
	Rating        *float64
}

// SeasonMeta is a season with its full episode list.
type SeasonMeta struct {
	SeasonNumber int
	Name         *string
	Overview     *string
	AirDate      *string
	Episodes     []EpisodeMeta
}

// EpisodeByNumber returns the entry for an episode number, or nil.
func (s *SeasonMeta) EpisodeByNumber(n int) *EpisodeMeta {
	if s == nil {
		return nil
	}
	for i := range s.Episodes {
		if s.Episodes[i].EpisodeNumber == n {
			return &s.Episodes[i]
		}
	}
	return nil
}
