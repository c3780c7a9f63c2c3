package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundstage/soundstage/internal/db"
	"github.com/soundstage/soundstage/internal/metadata"
	"github.com/soundstage/soundstage/internal/models"
	"github.com/soundstage/soundstage/internal/repository"
)

// fakeProvider implements metadata.Provider with injectable behavior and call
// counters. Nil function fields mean "no match" for everything.
type fakeProvider struct {
	movie  func(title string, year *int) *metadata.MovieMeta
	show   func(title string, year *int) *metadata.TVShowMeta
	season func(showID, seasonNumber int) *metadata.SeasonMeta

	movieCalls  int64
	showCalls   int64
	seasonCalls int64
}

func (p *fakeProvider) FindMovie(ctx context.Context, title string, year *int) *metadata.MovieMeta {
	atomic.AddInt64(&p.movieCalls, 1)
	if p.movie == nil {
		return nil
	}
	return p.movie(title, year)
}

func (p *fakeProvider) FindTVShow(ctx context.Context, title string, year *int) *metadata.TVShowMeta {
	atomic.AddInt64(&p.showCalls, 1)
	if p.show == nil {
		return nil
	}
	return p.show(title, year)
}

func (p *fakeProvider) GetSeason(ctx context.Context, showID, seasonNumber int) *metadata.SeasonMeta {
	atomic.AddInt64(&p.seasonCalls, 1)
	if p.season == nil {
		return nil
	}
	return p.season(showID, seasonNumber)
}

type scanEnv struct {
	db      *db.DB
	libs    *repository.LibraryRepository
	media   *repository.MediaRepository
	tv      *repository.TVRepository
	music   *repository.MusicRepository
	library *models.Library
}

func newScanEnv(t *testing.T, libType models.LibraryType) *scanEnv {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)
	require.NoError(t, database.Init())
	t.Cleanup(func() { database.Close() })

	env := &scanEnv{
		db:    database,
		libs:  repository.NewLibraryRepository(database.DB),
		media: repository.NewMediaRepository(database.DB),
		tv:    repository.NewTVRepository(database.DB),
		music: repository.NewMusicRepository(database.DB),
	}
	env.library = &models.Library{
		Name: "Test",
		Path: t.TempDir(),
		Type: libType,
	}
	require.NoError(t, env.libs.Create(env.library))
	return env
}

func (e *scanEnv) scanner(provider metadata.Provider) *Scanner {
	return New(provider, nil, e.libs, e.media, e.tv, e.music, 2)
}

func TestScanMoviesDegraded(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeMovies)
	touch(t, filepath.Join(env.library.Path, "The.Matrix.1999.1080p.BluRay.x264.mkv"))
	touch(t, filepath.Join(env.library.Path, "Inception.(2010).mkv"))
	touch(t, filepath.Join(env.library.Path, "Unknown.Film.mkv"))

	provider := &fakeProvider{} // always "no match"
	result, err := env.scanner(provider).ScanLibrary(context.Background(), env.library, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.FilesFound)
	assert.Equal(t, 3, result.ItemsCreated)
	assert.Equal(t, 3, result.LookupsFailed)
	assert.Empty(t, result.Errors)

	items, err := env.media.ListByLibrary(env.library.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	byTitle := map[string]*models.MediaItem{}
	for _, it := range items {
		byTitle[it.Title] = it
	}
	matrix := byTitle["The Matrix"]
	require.NotNil(t, matrix)
	require.NotNil(t, matrix.Year)
	assert.Equal(t, 1999, *matrix.Year)
	assert.Nil(t, matrix.Overview)
	assert.Nil(t, matrix.TMDBID)
	assert.NotNil(t, matrix.FileSize)
}

func TestScanMovieEnrichment(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeMovies)
	touch(t, filepath.Join(env.library.Path, "The.Matrix.1999.mkv"))

	overview := "A hacker learns the truth."
	runtime := 136
	studio := "Warner Bros."
	provider := &fakeProvider{
		movie: func(title string, year *int) *metadata.MovieMeta {
			assert.Equal(t, "The Matrix", title)
			require.NotNil(t, year)
			assert.Equal(t, 1999, *year)
			return &metadata.MovieMeta{
				TMDBID:    603,
				Title:     "The Matrix",
				Overview:  &overview,
				Runtime:   &runtime,
				Studio:    &studio,
				Genres:    []string{"Action"},
				Directors: []string{"Lana Wachowski", "Lilly Wachowski"},
				Cast:      []models.CastMember{{Name: "Keanu Reeves", Character: "Neo"}},
			}
		},
	}

	result, err := env.scanner(provider).ScanLibrary(context.Background(), env.library, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsCreated)
	assert.Equal(t, 0, result.LookupsFailed)

	items, err := env.media.ListByLibrary(env.library.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	m := items[0]
	require.NotNil(t, m.TMDBID)
	assert.Equal(t, 603, *m.TMDBID)
	require.NotNil(t, m.Overview)
	assert.Equal(t, overview, *m.Overview)
	require.NotNil(t, m.Duration)
	assert.Equal(t, 136*60, *m.Duration) // provider runtime in minutes
	assert.Equal(t, models.StringList{"Action"}, m.Genres)
	require.Len(t, m.Cast, 1)
	assert.Equal(t, "Neo", m.Cast[0].Character)
}

func TestScanTVGrouping(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeTVShows)
	touch(t, filepath.Join(env.library.Path, "Show Name", "Show.Name.S01E01.mkv"))
	touch(t, filepath.Join(env.library.Path, "Show Name", "Show.Name.S01E02.mkv"))
	touch(t, filepath.Join(env.library.Path, "Show Name", "Show.Name.S02E01.mkv"))
	touch(t, filepath.Join(env.library.Path, "Show Name", "random_clip.mkv"))

	pilot := "Pilot"
	epCount := 2
	provider := &fakeProvider{
		show: func(title string, year *int) *metadata.TVShowMeta {
			return &metadata.TVShowMeta{
				TMDBID: 77,
				Title:  "Show Name",
				Seasons: []metadata.SeasonSummary{
					{SeasonNumber: 1, EpisodeCount: &epCount},
					{SeasonNumber: 2},
				},
			}
		},
		season: func(showID, seasonNumber int) *metadata.SeasonMeta {
			if seasonNumber != 1 {
				return &metadata.SeasonMeta{SeasonNumber: seasonNumber}
			}
			return &metadata.SeasonMeta{
				SeasonNumber: 1,
				Episodes: []metadata.EpisodeMeta{
					{EpisodeNumber: 1, Name: pilot},
					{EpisodeNumber: 2, Name: "Second"},
				},
			}
		},
	}

	sc := env.scanner(provider)
	result, err := sc.ScanLibrary(context.Background(), env.library, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.FilesFound)
	assert.Equal(t, 1, result.ItemsCreated, "exactly one show container")
	assert.Equal(t, 3, result.EpisodesCreated)
	assert.Equal(t, 1, result.FilesSkipped, "non-episodic file skipped")
	assert.Empty(t, result.Errors)

	// One show lookup, one season listing per distinct season.
	assert.EqualValues(t, 1, atomic.LoadInt64(&provider.showCalls))
	assert.EqualValues(t, 2, atomic.LoadInt64(&provider.seasonCalls))

	items, err := env.media.ListByLibrary(env.library.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	show := items[0]
	assert.Equal(t, models.MediaTypeTVShow, show.Type)
	require.NotNil(t, show.TMDBID)
	assert.Equal(t, 77, *show.TMDBID)

	seasons, err := env.tv.ListSeasons(show.ID)
	require.NoError(t, err)
	assert.Len(t, seasons, 2)

	episodes, err := env.tv.ListEpisodes(show.ID)
	require.NoError(t, err)
	require.Len(t, episodes, 3)
	require.NotNil(t, episodes[0].Title)
	assert.Equal(t, "Pilot", *episodes[0].Title)
}

func TestScanTVDuplicateSlotFirstWins(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeTVShows)
	// Two files resolving to the same (show, season, episode) slot.
	touch(t, filepath.Join(env.library.Path, "Show", "Show.S01E01.720p.mkv"))
	touch(t, filepath.Join(env.library.Path, "Show", "Show.S01E01.1080p.mkv"))

	result, err := env.scanner(&fakeProvider{}).ScanLibrary(context.Background(), env.library, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EpisodesCreated)
	assert.Equal(t, 1, result.FilesSkipped)

	items, err := env.media.ListByLibrary(env.library.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	episodes, err := env.tv.ListEpisodes(items[0].ID)
	require.NoError(t, err)
	assert.Len(t, episodes, 1)
}

func TestScanIdempotent(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeTVShows)
	touch(t, filepath.Join(env.library.Path, "Show", "Show.S01E01.mkv"))
	touch(t, filepath.Join(env.library.Path, "Show", "Show.S01E02.mkv"))

	sc := env.scanner(&fakeProvider{})
	first, err := sc.ScanLibrary(context.Background(), env.library, nil)
	require.NoError(t, err)
	second, err := sc.ScanLibrary(context.Background(), env.library, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ItemsCreated, second.ItemsCreated)
	assert.Equal(t, first.EpisodesCreated, second.EpisodesCreated)

	count, err := env.media.CountByLibrary(env.library.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	items, err := env.media.ListByLibrary(env.library.ID)
	require.NoError(t, err)
	episodes, err := env.tv.ListEpisodes(items[0].ID)
	require.NoError(t, err)
	assert.Len(t, episodes, 2)
}

func TestScanMusicGrouping(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeMusic)
	touch(t, filepath.Join(env.library.Path, "Abbey Road", "01 - Come Together.mp3"))
	touch(t, filepath.Join(env.library.Path, "Abbey Road", "02 - Something.mp3"))

	result, err := env.scanner(nil).ScanLibrary(context.Background(), env.library, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsCreated)
	assert.Equal(t, 2, result.TracksCreated)

	items, err := env.media.ListByLibrary(env.library.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	album := items[0]
	assert.Equal(t, models.MediaTypeAlbum, album.Type)
	assert.Equal(t, "Abbey Road", album.Title)

	tracks, err := env.music.ListTracks(album.ID)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	require.NotNil(t, tracks[0].TrackNumber)
	assert.Equal(t, 1, *tracks[0].TrackNumber)
}

func TestScanStampsLastScanOnCompletion(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeMovies)
	touch(t, filepath.Join(env.library.Path, "Movie.mkv"))

	_, err := env.scanner(nil).ScanLibrary(context.Background(), env.library, nil)
	require.NoError(t, err)

	lib, err := env.libs.GetByID(env.library.ID)
	require.NoError(t, err)
	assert.NotNil(t, lib.LastScan)
}

func TestScanCancelledContext(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeMovies)
	touch(t, filepath.Join(env.library.Path, "Movie.mkv"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.scanner(nil).ScanLibrary(ctx, env.library, nil)
	assert.ErrorIs(t, err, context.Canceled)

	// An interrupted scan never stamps completion.
	lib, err := env.libs.GetByID(env.library.ID)
	require.NoError(t, err)
	assert.Nil(t, lib.LastScan)
}

func TestScanMissingRootFails(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeMovies)
	env.library.Path = filepath.Join(env.library.Path, "gone")

	_, err := env.scanner(nil).ScanLibrary(context.Background(), env.library, nil)
	assert.Error(t, err)
}

func TestScanPartialLookupFailures(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeMovies)
	for i := 0; i < 10; i++ {
		touch(t, filepath.Join(env.library.Path, fmt.Sprintf("Movie.%02d.mkv", i)))
	}

	overview := "found"
	provider := &fakeProvider{
		movie: func(title string, year *int) *metadata.MovieMeta {
			// Two titles the provider cannot resolve.
			if title == "Movie 03" || title == "Movie 07" {
				return nil
			}
			return &metadata.MovieMeta{TMDBID: 1, Title: title, Overview: &overview}
		},
	}

	result, err := env.scanner(provider).ScanLibrary(context.Background(), env.library, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, result.FilesFound)
	assert.Equal(t, 10, result.ItemsCreated)
	assert.Equal(t, 2, result.LookupsFailed)
	assert.Empty(t, result.Errors)

	count, err := env.media.CountByLibrary(env.library.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	// The scan completed despite the misses.
	lib, err := env.libs.GetByID(env.library.ID)
	require.NoError(t, err)
	assert.NotNil(t, lib.LastScan)
}

func TestScanReportsProgress(t *testing.T) {
	env := newScanEnv(t, models.LibraryTypeMovies)
	touch(t, filepath.Join(env.library.Path, "A.mkv"))
	touch(t, filepath.Join(env.library.Path, "B.mkv"))

	var calls int64
	var final int64
	_, err := env.scanner(nil).ScanLibrary(context.Background(), env.library,
		func(processed, total int) {
			atomic.AddInt64(&calls, 1)
			if processed == total {
				atomic.AddInt64(&final, 1)
			}
			assert.Equal(t, 2, total)
		})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
	assert.EqualValues(t, 1, atomic.LoadInt64(&final))
}
