package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/soundstage/soundstage/internal/models"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"

	// Writers are credited under either job on TMDB.
	jobDirector   = "Director"
	jobWriter     = "Writer"
	jobScreenplay = "Screenplay"
)

// TMDBClient talks to The Movie Database. The API key is injected at
// construction; there is no process-wide key. All lookups degrade to nil on
// any transport, status, or decode failure — a single slow or broken lookup
// must never abort a library scan.
type TMDBClient struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	cacheDir     string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

func NewTMDBClient(apiKey, cacheDir string) *TMDBClient {
	return &TMDBClient{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		imageBaseURL: defaultImageBaseURL,
		cacheDir:     cacheDir,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		// TMDB allows ~50 req/s; stay well under it even with scan workers
		// hitting the client concurrently.
		limiter: rate.NewLimiter(rate.Limit(20), 10),
	}
}

// request performs a rate-limited GET against the API and decodes the JSON
// body into v.
func (c *TMDBClient) request(ctx context.Context, endpoint string, params url.Values, v interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("TMDB API key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDB returned %d for %s", resp.StatusCode, endpoint)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// SearchResult is one catalog search candidate.
type SearchResult struct {
	ID    int
	Title string
	Year  *int
}

type tmdbSearchResponse struct {
	Results []struct {
		ID           int    `json:"id"`
		Title        string `json:"title"`
		Name         string `json:"name"`
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
	} `json:"results"`
}

// SearchMovie returns the provider's top-ranked movie for a title, or nil.
// No secondary re-ranking is applied.
func (c *TMDBClient) SearchMovie(ctx context.Context, title string, year *int) *SearchResult {
	params := url.Values{"query": {title}}
	if year != nil {
		params.Set("year", strconv.Itoa(*year))
	}
	var data tmdbSearchResponse
	if err := c.request(ctx, "/search/movie", params, &data); err != nil {
		log.Printf("TMDB: movie search %q failed: %v", title, err)
		return nil
	}
	if len(data.Results) == 0 {
		return nil
	}
	top := data.Results[0]
	return &SearchResult{ID: top.ID, Title: top.Title, Year: yearOf(top.ReleaseDate)}
}

// SearchTVShow returns the top-ranked show for a title, filtering by first
// air year when known, or nil.
func (c *TMDBClient) SearchTVShow(ctx context.Context, title string, year *int) *SearchResult {
	params := url.Values{"query": {title}}
	if year != nil {
		params.Set("first_air_date_year", strconv.Itoa(*year))
	}
	var data tmdbSearchResponse
	if err := c.request(ctx, "/search/tv", params, &data); err != nil {
		log.Printf("TMDB: tv search %q failed: %v", title, err)
		return nil
	}
	if len(data.Results) == 0 {
		return nil
	}
	top := data.Results[0]
	return &SearchResult{ID: top.ID, Title: top.Name, Year: yearOf(top.FirstAirDate)}
}

type tmdbCredits struct {
	Cast []struct {
		Name        string `json:"name"`
		Character   string `json:"character"`
		ProfilePath string `json:"profile_path"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

func (c *TMDBClient) castMembers(credits tmdbCredits) []models.CastMember {
	cast := credits.Cast
	if len(cast) > 10 {
		cast = cast[:10]
	}
	out := make([]models.CastMember, 0, len(cast))
	for _, m := range cast {
		member := models.CastMember{Name: m.Name, Character: m.Character}
		if m.ProfilePath != "" {
			p := c.imageBaseURL + "/w185" + m.ProfilePath
			member.ProfilePath = &p
		}
		out = append(out, member)
	}
	return out
}

func crewByJob(credits tmdbCredits, jobs ...string) []string {
	var names []string
	for _, m := range credits.Crew {
		for _, job := range jobs {
			if m.Job == job {
				names = append(names, m.Name)
				break
			}
		}
	}
	return names
}

// GetMovieDetails fetches the extended movie record, caching artwork locally.
func (c *TMDBClient) GetMovieDetails(ctx context.Context, tmdbID int) *MovieMeta {
	var data struct {
		ID            int     `json:"id"`
		Title         string  `json:"title"`
		OriginalTitle string  `json:"original_title"`
		Overview      string  `json:"overview"`
		Tagline       string  `json:"tagline"`
		ReleaseDate   string  `json:"release_date"`
		Runtime       int     `json:"runtime"`
		VoteAverage   float64 `json:"vote_average"`
		PosterPath    string  `json:"poster_path"`
		BackdropPath  string  `json:"backdrop_path"`
		Status        string  `json:"status"`
		Genres        []struct {
			Name string `json:"name"`
		} `json:"genres"`
		ProductionCompanies []struct {
			Name string `json:"name"`
		} `json:"production_companies"`
		ExternalIDs struct {
			IMDBId string `json:"imdb_id"`
		} `json:"external_ids"`
		Credits tmdbCredits `json:"credits"`
	}
	params := url.Values{"append_to_response": {"credits,external_ids"}}
	if err := c.request(ctx, "/movie/"+strconv.Itoa(tmdbID), params, &data); err != nil {
		log.Printf("TMDB: movie details %d failed: %v", tmdbID, err)
		return nil
	}

	meta := &MovieMeta{
		TMDBID:        data.ID,
		IMDBID:        optString(data.ExternalIDs.IMDBId),
		Title:         data.Title,
		OriginalTitle: optString(data.OriginalTitle),
		Overview:      optString(data.Overview),
		Tagline:       optString(data.Tagline),
		Year:          yearOf(data.ReleaseDate),
		Runtime:       optInt(data.Runtime),
		Rating:        optFloat(data.VoteAverage),
		PosterPath:    c.CacheImage(data.PosterPath, ImagePoster),
		BackdropPath:  c.CacheImage(data.BackdropPath, ImageBackdrop),
		Directors:     crewByJob(data.Credits, jobDirector),
		Writers:       crewByJob(data.Credits, jobWriter, jobScreenplay),
		Cast:          c.castMembers(data.Credits),
		Status:        optString(data.Status),
	}
	for _, g := range data.Genres {
		meta.Genres = append(meta.Genres, g.Name)
	}
	if len(data.ProductionCompanies) > 0 {
		meta.Studio = optString(data.ProductionCompanies[0].Name)
	}
	return meta
}

// GetTVShowDetails fetches the extended show record with season summaries.
func (c *TMDBClient) GetTVShowDetails(ctx context.Context, tmdbID int) *TVShowMeta {
	var data struct {
		ID               int     `json:"id"`
		Name             string  `json:"name"`
		OriginalName     string  `json:"original_name"`
		Overview         string  `json:"overview"`
		Tagline          string  `json:"tagline"`
		FirstAirDate     string  `json:"first_air_date"`
		LastAirDate      string  `json:"last_air_date"`
		VoteAverage      float64 `json:"vote_average"`
		PosterPath       string  `json:"poster_path"`
		BackdropPath     string  `json:"backdrop_path"`
		Status           string  `json:"status"`
		NumberOfSeasons  int     `json:"number_of_seasons"`
		NumberOfEpisodes int     `json:"number_of_episodes"`
		Genres           []struct {
			Name string `json:"name"`
		} `json:"genres"`
		Networks []struct {
			Name string `json:"name"`
		} `json:"networks"`
		ProductionCompanies []struct {
			Name string `json:"name"`
		} `json:"production_companies"`
		CreatedBy []struct {
			Name string `json:"name"`
		} `json:"created_by"`
		ExternalIDs struct {
			IMDBId string `json:"imdb_id"`
		} `json:"external_ids"`
		ContentRatings struct {
			Results []struct {
				ISO31661 string `json:"iso_3166_1"`
				Rating   string `json:"rating"`
			} `json:"results"`
		} `json:"content_ratings"`
		Credits tmdbCredits `json:"credits"`
		Seasons []struct {
			SeasonNumber int    `json:"season_number"`
			Name         string `json:"name"`
			Overview     string `json:"overview"`
			EpisodeCount int    `json:"episode_count"`
			AirDate      string `json:"air_date"`
			PosterPath   string `json:"poster_path"`
		} `json:"seasons"`
	}
	params := url.Values{"append_to_response": {"credits,external_ids,content_ratings"}}
	if err := c.request(ctx, "/tv/"+strconv.Itoa(tmdbID), params, &data); err != nil {
		log.Printf("TMDB: tv details %d failed: %v", tmdbID, err)
		return nil
	}

	meta := &TVShowMeta{
		TMDBID:        data.ID,
		IMDBID:        optString(data.ExternalIDs.IMDBId),
		Title:         data.Name,
		OriginalTitle: optString(data.OriginalName),
		Overview:      optString(data.Overview),
		Tagline:       optString(data.Tagline),
		Year:          yearOf(data.FirstAirDate),
		EndYear:       yearOf(data.LastAirDate),
		Rating:        optFloat(data.VoteAverage),
		PosterPath:    c.CacheImage(data.PosterPath, ImagePoster),
		BackdropPath:  c.CacheImage(data.BackdropPath, ImageBackdrop),
		Cast:          c.castMembers(data.Credits),
		Status:        optString(data.Status),
		SeasonCount:   optInt(data.NumberOfSeasons),
		EpisodeCount:  optInt(data.NumberOfEpisodes),
	}
	for _, g := range data.Genres {
		meta.Genres = append(meta.Genres, g.Name)
	}
	for _, cr := range data.CreatedBy {
		meta.Creators = append(meta.Creators, cr.Name)
	}
	// Studio: first network, else first production company.
	if len(data.Networks) > 0 {
		meta.Studio = optString(data.Networks[0].Name)
	} else if len(data.ProductionCompanies) > 0 {
		meta.Studio = optString(data.ProductionCompanies[0].Name)
	}
	for _, r := range data.ContentRatings.Results {
		if r.ISO31661 == "US" && r.Rating != "" {
			meta.ContentRating = optString(r.Rating)
			break
		}
	}
	for _, s := range data.Seasons {
		meta.Seasons = append(meta.Seasons, SeasonSummary{
			SeasonNumber: s.SeasonNumber,
			Name:         optString(s.Name),
			Overview:     optString(s.Overview),
			EpisodeCount: optInt(s.EpisodeCount),
			AirDate:      optString(s.AirDate),
			PosterPath:   c.CacheImage(s.PosterPath, ImageSeason),
		})
	}
	return meta
}

// GetSeason fetches one season's episode list; episode stills are cached
// locally like all other artwork.
func (c *TMDBClient) GetSeason(ctx context.Context, showID, seasonNumber int) *SeasonMeta {
	var data struct {
		SeasonNumber int    `json:"season_number"`
		Name         string `json:"name"`
		Overview     string `json:"overview"`
		AirDate      string `json:"air_date"`
		Episodes     []struct {
			EpisodeNumber int     `json:"episode_number"`
			Name          string  `json:"name"`
			Overview      string  `json:"overview"`
			AirDate       string  `json:"air_date"`
			Runtime       int     `json:"runtime"`
			StillPath     string  `json:"still_path"`
			VoteAverage   float64 `json:"vote_average"`
		} `json:"episodes"`
	}
	endpoint := fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber)
	if err := c.request(ctx, endpoint, nil, &data); err != nil {
		log.Printf("TMDB: season %d of show %d failed: %v", seasonNumber, showID, err)
		return nil
	}

	meta := &SeasonMeta{
		SeasonNumber: data.SeasonNumber,
		Name:         optString(data.Name),
		Overview:     optString(data.Overview),
		AirDate:      optString(data.AirDate),
	}
	for _, e := range data.Episodes {
		meta.Episodes = append(meta.Episodes, EpisodeMeta{
			EpisodeNumber: e.EpisodeNumber,
			Name:          e.Name,
			Overview:      optString(e.Overview),
			AirDate:       optString(e.AirDate),
			Runtime:       optInt(e.Runtime),
			StillPath:     c.CacheImage(e.StillPath, ImageStill),
			Rating:        optFloat(e.VoteAverage),
		})
	}
	return meta
}

// FindMovie resolves a title to a full movie record: top search result,
// then detail fetch. Nil on any failure along the way.
func (c *TMDBClient) FindMovie(ctx context.Context, title string, year *int) *MovieMeta {
	hit := c.SearchMovie(ctx, title, year)
	if hit == nil {
		return nil
	}
	return c.GetMovieDetails(ctx, hit.ID)
}

// FindTVShow resolves a show title to a full show record.
func (c *TMDBClient) FindTVShow(ctx context.Context, title string, year *int) *TVShowMeta {
	hit := c.SearchTVShow(ctx, title, year)
	if hit == nil {
		return nil
	}
	return c.GetTVShowDetails(ctx, hit.ID)
}

func yearOf(date string) *int {
	if len(date) < 4 {
		return nil
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y == 0 {
		return nil
	}
	return &y
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func optFloat(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}
