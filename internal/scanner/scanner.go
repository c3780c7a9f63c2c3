package scanner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/soundstage/soundstage/internal/metadata"
	"github.com/soundstage/soundstage/internal/models"
	"github.com/soundstage/soundstage/internal/repository"
)

// ProgressFunc receives scan progress after each processed file.
type ProgressFunc func(processed, total int)

// Scanner rebuilds a library's catalog from the filesystem. Scans are
// destructive: existing rows for the library are deleted up front and the
// catalog is rebuilt from what is currently on disk.
type Scanner struct {
	provider  metadata.Provider // nil disables enrichment entirely
	prober    Prober            // nil disables duration probing
	libraries *repository.LibraryRepository
	media     *repository.MediaRepository
	tv        *repository.TVRepository
	music     *repository.MusicRepository
	workers   int
}

func New(provider metadata.Provider, prober Prober,
	libraries *repository.LibraryRepository, media *repository.MediaRepository,
	tv *repository.TVRepository, music *repository.MusicRepository,
	workers int) *Scanner {
	if workers < 1 {
		workers = 4
	}
	return &Scanner{
		provider:  provider,
		prober:    prober,
		libraries: libraries,
		media:     media,
		tv:        tv,
		music:     music,
		workers:   workers,
	}
}

// scanState is the shared mutable state of one scan. A single mutex guards
// both the result counters and the entity-group caches; find-or-create of
// show and album containers is serialized through it so concurrent workers
// never race two containers for the same group.
type scanState struct {
	mu     sync.Mutex
	result models.ScanResult

	shows    map[string]uuid.UUID // lowercased show title -> media row
	showTMDB map[uuid.UUID]int    // show media row -> provider id
	seasons  map[string]*metadata.SeasonMeta
	albums   map[string]uuid.UUID // album directory -> media row
}

func newScanState() *scanState {
	return &scanState{
		shows:    map[string]uuid.UUID{},
		showTMDB: map[uuid.UUID]int{},
		seasons:  map[string]*metadata.SeasonMeta{},
		albums:   map[string]uuid.UUID{},
	}
}

func (st *scanState) addError(format string, args ...interface{}) {
	st.mu.Lock()
	st.result.Errors = append(st.result.Errors, fmt.Sprintf(format, args...))
	st.mu.Unlock()
}

func (st *scanState) lookupFailed() {
	st.mu.Lock()
	st.result.LookupsFailed++
	st.mu.Unlock()
}

func (st *scanState) skipped() {
	st.mu.Lock()
	st.result.FilesSkipped++
	st.mu.Unlock()
}

func (st *scanState) itemCreated() {
	st.mu.Lock()
	st.result.ItemsCreated++
	st.mu.Unlock()
}

// ScanLibrary runs one full scan. Per-file failures are recorded in the
// result and never abort the scan; the only fatal conditions are an
// unreadable library root, a failed clear, and context cancellation. The
// library's last_scan stamp is updated only when the scan runs to completion.
func (s *Scanner) ScanLibrary(ctx context.Context, lib *models.Library, progress ProgressFunc) (*models.ScanResult, error) {
	log.Printf("Scanner: starting scan of library %q (%s) at %s", lib.Name, lib.Type, lib.Path)

	if err := s.media.DeleteByLibrary(lib.ID); err != nil {
		return nil, fmt.Errorf("clear library %s: %w", lib.ID, err)
	}

	files, dirFailures, err := Walk(lib.Path, lib.Type)
	if err != nil {
		return nil, err
	}

	st := newScanState()
	st.result.FilesFound = len(files)
	for _, f := range dirFailures {
		st.result.Errors = append(st.result.Errors, f)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	processed := 0

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				s.processFile(ctx, lib, path, st)

				progressMu.Lock()
				processed++
				done := processed
				progressMu.Unlock()
				if progress != nil {
					progress(done, len(files))
				}
			}
		}()
	}

	cancelled := false
	for _, path := range files {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	if cancelled {
		log.Printf("Scanner: scan of %q cancelled after %d files", lib.Name, processed)
		return &st.result, ctx.Err()
	}

	if err := s.libraries.UpdateLastScan(lib.ID); err != nil {
		st.addError("update last_scan: %v", err)
	}

	log.Printf("Scanner: finished %q: %d files, %d items, %d episodes, %d tracks, %d skipped, %d lookup misses, %d errors",
		lib.Name, st.result.FilesFound, st.result.ItemsCreated,
		st.result.EpisodesCreated, st.result.TracksCreated,
		st.result.FilesSkipped, st.result.LookupsFailed, len(st.result.Errors))
	return &st.result, nil
}

func (s *Scanner) processFile(ctx context.Context, lib *models.Library, path string, st *scanState) {
	var err error
	switch lib.Type {
	case models.LibraryTypeTVShows:
		err = s.processEpisodeFile(ctx, lib, path, st)
	case models.LibraryTypeMusic:
		err = s.processTrackFile(lib, path, st)
	case models.LibraryTypePhotos:
		err = s.processPhotoFile(lib, path, st)
	default:
		err = s.processMovieFile(ctx, lib, path, st)
	}
	if err != nil {
		st.addError("%s: %v", path, err)
	}
}

// baseMediaItem fills the filesystem-derived fields every entity gets even
// when enrichment is unavailable.
func baseMediaItem(lib *models.Library, path, title string, mediaType models.MediaType) *models.MediaItem {
	item := &models.MediaItem{
		ID:        uuid.New(),
		LibraryID: lib.ID,
		Title:     title,
		Type:      mediaType,
		Path:      path,
		FileName:  filepath.Base(path),
	}
	if info, err := os.Stat(path); err == nil {
		size := info.Size()
		item.FileSize = &size
	}
	return item
}

func (s *Scanner) probeDuration(path string) *int {
	if s.prober == nil {
		return nil
	}
	res, err := s.prober.Probe(path)
	if err != nil || res.Duration <= 0 {
		return nil
	}
	secs := int(res.Duration)
	return &secs
}

func (s *Scanner) processMovieFile(ctx context.Context, lib *models.Library, path string, st *scanState) error {
	fileName := filepath.Base(path)
	title := ParseTitle(fileName)
	year := ParseYear(fileName)

	item := baseMediaItem(lib, path, title, models.MediaTypeMovie)
	item.Year = year

	var meta *metadata.MovieMeta
	if s.provider != nil {
		if meta = s.provider.FindMovie(ctx, title, year); meta == nil {
			st.lookupFailed()
		}
	}
	if meta != nil {
		if meta.Title != "" {
			item.Title = meta.Title
		}
		item.OriginalTitle = meta.OriginalTitle
		item.Overview = meta.Overview
		item.Tagline = meta.Tagline
		if meta.Year != nil {
			item.Year = meta.Year
		}
		item.PosterPath = meta.PosterPath
		item.BackdropPath = meta.BackdropPath
		item.Rating = meta.Rating
		item.ContentRating = meta.ContentRating
		item.Genres = meta.Genres
		item.Cast = meta.Cast
		item.Directors = meta.Directors
		item.Writers = meta.Writers
		item.Studio = meta.Studio
		tmdbID := meta.TMDBID
		item.TMDBID = &tmdbID
		item.IMDBID = meta.IMDBID
		item.Status = meta.Status
		if meta.Runtime != nil {
			secs := *meta.Runtime * 60
			item.Duration = &secs
		}
	}
	applyLocalArtwork(item, path)
	if item.Duration == nil {
		item.Duration = s.probeDuration(path)
	}

	if err := s.media.Create(item); err != nil {
		return err
	}
	st.itemCreated()
	return nil
}

// applyLocalArtwork backfills artwork from sidecar files for any slot the
// provider left empty.
func applyLocalArtwork(item *models.MediaItem, mediaFilePath string) {
	art := DetectLocalArtwork(mediaFilePath)
	if item.PosterPath == nil && art.PosterPath != "" {
		item.PosterPath = &art.PosterPath
	}
	if item.BackdropPath == nil && art.BackdropPath != "" {
		item.BackdropPath = &art.BackdropPath
	}
}

func (s *Scanner) processEpisodeFile(ctx context.Context, lib *models.Library, path string, st *scanState) error {
	info := ParseEpisodeInfo(path)
	if info == nil {
		// Not an episode file; specials and extras without SxxEyy markers
		// are skipped rather than guessed at.
		st.skipped()
		return nil
	}

	showID, err := s.findOrCreateShow(ctx, lib, info.ShowTitle, path, st)
	if err != nil {
		return err
	}

	epMeta := s.seasonEpisode(ctx, showID, info.Season, info.Episode, st)

	episode := &models.Episode{
		ID:            uuid.New(),
		MediaID:       showID,
		SeasonNumber:  info.Season,
		EpisodeNumber: info.Episode,
		Path:          path,
		Duration:      s.probeDuration(path),
	}
	if epMeta != nil {
		if epMeta.Name != "" {
			episode.Title = &epMeta.Name
		}
		episode.Overview = epMeta.Overview
		episode.StillPath = epMeta.StillPath
		episode.AirDate = epMeta.AirDate
		episode.Runtime = epMeta.Runtime
	}

	created, err := s.tv.CreateEpisode(episode)
	if err != nil {
		return err
	}
	st.mu.Lock()
	if created {
		st.result.EpisodesCreated++
	} else {
		// Another file already claimed this (show, season, episode) slot;
		// first one in wins.
		st.result.FilesSkipped++
	}
	st.mu.Unlock()
	return nil
}

// findOrCreateShow returns the media row for a show title, creating and
// enriching it on first sight. The whole operation holds the state mutex so
// two workers processing episodes of the same new show cannot both create it.
func (s *Scanner) findOrCreateShow(ctx context.Context, lib *models.Library, showTitle, episodePath string, st *scanState) (uuid.UUID, error) {
	key := strings.ToLower(showTitle)

	st.mu.Lock()
	defer st.mu.Unlock()
	if id, ok := st.shows[key]; ok {
		return id, nil
	}

	// The container row carries a synthetic path under the library root so
	// path uniqueness holds across shows.
	showPath := filepath.Join(lib.Path, showTitle)
	item := baseMediaItem(lib, showPath, showTitle, models.MediaTypeTVShow)
	item.FileSize = nil
	item.FileName = showTitle

	var meta *metadata.TVShowMeta
	if s.provider != nil {
		if meta = s.provider.FindTVShow(ctx, showTitle, nil); meta == nil {
			st.result.LookupsFailed++
		}
	}
	if meta != nil {
		if meta.Title != "" {
			item.Title = meta.Title
		}
		item.OriginalTitle = meta.OriginalTitle
		item.Overview = meta.Overview
		item.Tagline = meta.Tagline
		item.Year = meta.Year
		item.EndYear = meta.EndYear
		item.PosterPath = meta.PosterPath
		item.BackdropPath = meta.BackdropPath
		item.Rating = meta.Rating
		item.ContentRating = meta.ContentRating
		item.Genres = meta.Genres
		item.Cast = meta.Cast
		// Shows credit creators rather than per-file directors and writers.
		item.Directors = meta.Creators
		item.Writers = meta.Creators
		item.Studio = meta.Studio
		tmdbID := meta.TMDBID
		item.TMDBID = &tmdbID
		item.IMDBID = meta.IMDBID
		item.SeasonCount = meta.SeasonCount
		item.EpisodeCount = meta.EpisodeCount
		item.Status = meta.Status
	}
	applyLocalArtwork(item, episodePath)

	if err := s.media.Create(item); err != nil {
		return uuid.Nil, err
	}
	st.shows[key] = item.ID
	st.result.ItemsCreated++
	if meta != nil {
		st.showTMDB[item.ID] = meta.TMDBID
		for _, sum := range meta.Seasons {
			season := &models.Season{
				MediaID:      item.ID,
				SeasonNumber: sum.SeasonNumber,
				Name:         sum.Name,
				Overview:     sum.Overview,
				PosterPath:   sum.PosterPath,
				EpisodeCount: sum.EpisodeCount,
				AirDate:      sum.AirDate,
			}
			if err := s.tv.UpsertSeason(season); err != nil {
				st.result.Errors = append(st.result.Errors,
					fmt.Sprintf("season %d of %s: %v", sum.SeasonNumber, item.Title, err))
			}
		}
	}
	return item.ID, nil
}

// seasonEpisode returns provider metadata for one episode, fetching each
// distinct (show, season) listing at most once per scan. A failed fetch is
// cached too, so a broken season is not retried for every episode in it.
func (s *Scanner) seasonEpisode(ctx context.Context, showID uuid.UUID, season, episode int, st *scanState) *metadata.EpisodeMeta {
	// The fetch runs under the state mutex so each (show, season) listing is
	// fetched exactly once even when workers race on sibling episodes.
	st.mu.Lock()
	defer st.mu.Unlock()

	tmdbID, enriched := st.showTMDB[showID]
	if !enriched || s.provider == nil {
		return nil
	}

	key := fmt.Sprintf("%s:%d", showID, season)
	meta, cached := st.seasons[key]
	if !cached {
		meta = s.provider.GetSeason(ctx, tmdbID, season)
		st.seasons[key] = meta
		if meta == nil {
			st.result.LookupsFailed++
		}
	}
	return meta.EpisodeByNumber(episode)
}

func (s *Scanner) processTrackFile(lib *models.Library, path string, st *scanState) error {
	ti := ParseTrackInfo(path)

	albumID, err := s.findOrCreateAlbum(lib, path, ti.Album, st)
	if err != nil {
		return err
	}

	track := &models.Track{
		ID:          uuid.New(),
		MediaID:     albumID,
		Title:       ti.Title,
		TrackNumber: ti.Track,
		Path:        path,
		Duration:    s.probeDuration(path),
	}

	// Embedded tags beat filename guesses when present.
	if f, err := os.Open(path); err == nil {
		if meta, err := tag.ReadFrom(f); err == nil {
			if t := meta.Title(); t != "" {
				track.Title = t
			}
			if a := meta.Artist(); a != "" {
				track.Artist = &a
			}
			if n, _ := meta.Track(); n > 0 {
				track.TrackNumber = &n
			}
			if d, _ := meta.Disc(); d > 0 {
				track.DiscNumber = &d
			}
		}
		f.Close()
	}

	if err := s.music.CreateTrack(track); err != nil {
		return err
	}
	st.mu.Lock()
	st.result.TracksCreated++
	st.mu.Unlock()
	return nil
}

// findOrCreateAlbum groups tracks by their containing directory; the album
// title is the directory name.
func (s *Scanner) findOrCreateAlbum(lib *models.Library, trackPath, album string, st *scanState) (uuid.UUID, error) {
	dir := filepath.Dir(trackPath)

	st.mu.Lock()
	defer st.mu.Unlock()
	if id, ok := st.albums[dir]; ok {
		return id, nil
	}

	item := baseMediaItem(lib, dir, album, models.MediaTypeAlbum)
	item.FileSize = nil
	item.FileName = album
	applyLocalArtwork(item, trackPath)

	if err := s.media.Create(item); err != nil {
		return uuid.Nil, err
	}
	st.albums[dir] = item.ID
	st.result.ItemsCreated++
	return item.ID, nil
}

func (s *Scanner) processPhotoFile(lib *models.Library, path string, st *scanState) error {
	title := ParseTitle(filepath.Base(path))
	item := baseMediaItem(lib, path, title, models.MediaTypePhoto)
	if err := s.media.Create(item); err != nil {
		return err
	}
	st.itemCreated()
	return nil
}
