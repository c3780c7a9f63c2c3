package repository

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundstage/soundstage/internal/db"
	"github.com/soundstage/soundstage/internal/models"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Init())
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestLibrary(t *testing.T, database *db.DB, libType models.LibraryType) *models.Library {
	t.Helper()
	lib := &models.Library{
		Name: "Test " + string(libType),
		Path: filepath.Join(t.TempDir(), string(libType)),
		Type: libType,
	}
	require.NoError(t, NewLibraryRepository(database.DB).Create(lib))
	return lib
}

func TestLibraryPathUnique(t *testing.T) {
	database := newTestDB(t)
	repo := NewLibraryRepository(database.DB)

	lib := &models.Library{Name: "Movies", Path: "/media/movies", Type: models.LibraryTypeMovies}
	require.NoError(t, repo.Create(lib))

	dup := &models.Library{Name: "Movies Again", Path: "/media/movies", Type: models.LibraryTypeMovies}
	err := repo.Create(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestLibraryGetByIDNotFound(t *testing.T) {
	database := newTestDB(t)
	repo := NewLibraryRepository(database.DB)

	_, err := repo.GetByID(uuid.New())
	assert.ErrorIs(t, err, ErrLibraryNotFound)
}

func TestLibraryUpdateLastScan(t *testing.T) {
	database := newTestDB(t)
	repo := NewLibraryRepository(database.DB)
	lib := newTestLibrary(t, database, models.LibraryTypeMovies)
	require.Nil(t, lib.LastScan)

	require.NoError(t, repo.UpdateLastScan(lib.ID))

	got, err := repo.GetByID(lib.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastScan)
}

func TestMediaPathUnique(t *testing.T) {
	database := newTestDB(t)
	lib := newTestLibrary(t, database, models.LibraryTypeMovies)
	repo := NewMediaRepository(database.DB)

	item := &models.MediaItem{
		LibraryID: lib.ID, Title: "A", Type: models.MediaTypeMovie,
		Path: "/media/movies/a.mkv", FileName: "a.mkv",
	}
	require.NoError(t, repo.Create(item))

	dup := &models.MediaItem{
		LibraryID: lib.ID, Title: "A2", Type: models.MediaTypeMovie,
		Path: "/media/movies/a.mkv", FileName: "a.mkv",
	}
	err := repo.Create(dup)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestMediaJSONColumnsRoundTrip(t *testing.T) {
	database := newTestDB(t)
	lib := newTestLibrary(t, database, models.LibraryTypeMovies)
	repo := NewMediaRepository(database.DB)

	profile := "https://image.example/w185/p.jpg"
	item := &models.MediaItem{
		LibraryID: lib.ID, Title: "A", Type: models.MediaTypeMovie,
		Path: "/media/movies/a.mkv", FileName: "a.mkv",
		Genres:    models.StringList{"Drama", "Sci-Fi"},
		Directors: models.StringList{"Someone"},
		Cast: models.CastList{
			{Name: "Actor One", Character: "Lead", ProfilePath: &profile},
			{Name: "Actor Two", Character: "Support"},
		},
	}
	require.NoError(t, repo.Create(item))

	got, err := repo.GetByID(item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item.Genres, got.Genres)
	assert.Equal(t, item.Cast, got.Cast)
	assert.Nil(t, got.Writers)
}

func TestLibraryDeleteCascades(t *testing.T) {
	database := newTestDB(t)
	lib := newTestLibrary(t, database, models.LibraryTypeTVShows)
	libRepo := NewLibraryRepository(database.DB)
	mediaRepo := NewMediaRepository(database.DB)
	tvRepo := NewTVRepository(database.DB)
	watchRepo := NewWatchHistoryRepository(database.DB)
	userRepo := NewUserRepository(database.DB)

	show := &models.MediaItem{
		LibraryID: lib.ID, Title: "Show", Type: models.MediaTypeTVShow,
		Path: "/media/tv/Show", FileName: "Show",
	}
	require.NoError(t, mediaRepo.Create(show))
	require.NoError(t, tvRepo.UpsertSeason(&models.Season{MediaID: show.ID, SeasonNumber: 1}))
	_, err := tvRepo.CreateEpisode(&models.Episode{
		MediaID: show.ID, SeasonNumber: 1, EpisodeNumber: 1, Path: "/media/tv/Show/s01e01.mkv",
	})
	require.NoError(t, err)

	user := &models.User{Username: "alice"}
	require.NoError(t, userRepo.Create(user, "secret"))
	require.NoError(t, watchRepo.Upsert(&models.WatchEntry{
		UserID: user.ID, MediaID: show.ID, Position: 120,
	}))

	require.NoError(t, libRepo.Delete(lib.ID))

	item, err := mediaRepo.GetByID(show.ID)
	require.NoError(t, err)
	assert.Nil(t, item)

	episodes, err := tvRepo.ListEpisodes(show.ID)
	require.NoError(t, err)
	assert.Empty(t, episodes)

	seasons, err := tvRepo.ListSeasons(show.ID)
	require.NoError(t, err)
	assert.Empty(t, seasons)

	entry, err := watchRepo.Get(user.ID, show.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestEpisodeSlotFirstWins(t *testing.T) {
	database := newTestDB(t)
	lib := newTestLibrary(t, database, models.LibraryTypeTVShows)
	mediaRepo := NewMediaRepository(database.DB)
	tvRepo := NewTVRepository(database.DB)

	show := &models.MediaItem{
		LibraryID: lib.ID, Title: "Show", Type: models.MediaTypeTVShow,
		Path: "/media/tv/Show", FileName: "Show",
	}
	require.NoError(t, mediaRepo.Create(show))

	first := "First Copy"
	created, err := tvRepo.CreateEpisode(&models.Episode{
		MediaID: show.ID, SeasonNumber: 1, EpisodeNumber: 1,
		Title: &first, Path: "/a/s01e01.mkv",
	})
	require.NoError(t, err)
	assert.True(t, created)

	second := "Second Copy"
	created, err = tvRepo.CreateEpisode(&models.Episode{
		MediaID: show.ID, SeasonNumber: 1, EpisodeNumber: 1,
		Title: &second, Path: "/b/s01e01.mkv",
	})
	require.NoError(t, err)
	assert.False(t, created)

	episodes, err := tvRepo.ListEpisodes(show.ID)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	require.NotNil(t, episodes[0].Title)
	assert.Equal(t, "First Copy", *episodes[0].Title)
}

func TestSeasonUpsert(t *testing.T) {
	database := newTestDB(t)
	lib := newTestLibrary(t, database, models.LibraryTypeTVShows)
	mediaRepo := NewMediaRepository(database.DB)
	tvRepo := NewTVRepository(database.DB)

	show := &models.MediaItem{
		LibraryID: lib.ID, Title: "Show", Type: models.MediaTypeTVShow,
		Path: "/media/tv/Show", FileName: "Show",
	}
	require.NoError(t, mediaRepo.Create(show))

	name1 := "Season One"
	require.NoError(t, tvRepo.UpsertSeason(&models.Season{
		MediaID: show.ID, SeasonNumber: 1, Name: &name1,
	}))
	name2 := "Season 1 (refreshed)"
	require.NoError(t, tvRepo.UpsertSeason(&models.Season{
		MediaID: show.ID, SeasonNumber: 1, Name: &name2,
	}))

	seasons, err := tvRepo.ListSeasons(show.ID)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	require.NotNil(t, seasons[0].Name)
	assert.Equal(t, name2, *seasons[0].Name)
}

func TestWatchUpsertReplacesPosition(t *testing.T) {
	database := newTestDB(t)
	lib := newTestLibrary(t, database, models.LibraryTypeMovies)
	mediaRepo := NewMediaRepository(database.DB)
	userRepo := NewUserRepository(database.DB)
	watchRepo := NewWatchHistoryRepository(database.DB)

	movie := &models.MediaItem{
		LibraryID: lib.ID, Title: "Movie", Type: models.MediaTypeMovie,
		Path: "/media/movies/m.mkv", FileName: "m.mkv",
	}
	require.NoError(t, mediaRepo.Create(movie))
	user := &models.User{Username: "bob"}
	require.NoError(t, userRepo.Create(user, ""))

	require.NoError(t, watchRepo.Upsert(&models.WatchEntry{
		UserID: user.ID, MediaID: movie.ID, Position: 60,
	}))
	require.NoError(t, watchRepo.Upsert(&models.WatchEntry{
		UserID: user.ID, MediaID: movie.ID, Position: 300,
	}))

	entry, err := watchRepo.Get(user.ID, movie.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 300, entry.Position)

	inProgress, err := watchRepo.ContinueWatching(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)

	// Completing removes it from continue-watching.
	require.NoError(t, watchRepo.Upsert(&models.WatchEntry{
		UserID: user.ID, MediaID: movie.ID, Position: 5400, Completed: true,
	}))
	inProgress, err = watchRepo.ContinueWatching(user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, inProgress)
}

func TestUserPasswords(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository(database.DB)

	admin := &models.User{Username: "admin", IsAdmin: true}
	require.NoError(t, repo.Create(admin, "hunter2"))
	assert.True(t, repo.CheckPassword(admin, "hunter2"))
	assert.False(t, repo.CheckPassword(admin, "wrong"))

	kid := &models.User{Username: "kid"}
	require.NoError(t, repo.Create(kid, ""))
	assert.True(t, repo.CheckPassword(kid, ""))
	assert.False(t, repo.CheckPassword(kid, "anything"))

	dup := &models.User{Username: "admin"}
	err := repo.Create(dup, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestSettingsUpsert(t *testing.T) {
	database := newTestDB(t)
	repo := NewSettingsRepository(database.DB)

	val, err := repo.Get("tmdb_api_key")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	require.NoError(t, repo.Set("tmdb_api_key", "abc"))
	require.NoError(t, repo.Set("tmdb_api_key", "def"))

	val, err = repo.Get("tmdb_api_key")
	require.NoError(t, err)
	assert.Equal(t, "def", val)

	all, err := repo.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tmdb_api_key": "def"}, all)
}
