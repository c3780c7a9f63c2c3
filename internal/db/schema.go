package db

import "fmt"

// schema is the full relational model. Every statement is idempotent so Init
// can run on every startup.
//
// Invariants the scanner depends on:
//   - libraries.path and media.path are unique.
//   - deleting a library cascades to its media; deleting a media row cascades
//     to its episodes, seasons, tracks, and watch history.
//   - (media_id, season_number, episode_number) identifies one episode row.
//   - (user_id, media_id) identifies one watch history row.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL DEFAULT '',
		display_name TEXT,
		avatar_path TEXT,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS libraries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT UNIQUE NOT NULL,
		type TEXT NOT NULL,
		auto_scan INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_scan DATETIME
	)`,

	`CREATE TABLE IF NOT EXISTS media (
		id TEXT PRIMARY KEY,
		library_id TEXT NOT NULL,
		title TEXT NOT NULL,
		original_title TEXT,
		type TEXT NOT NULL,
		path TEXT UNIQUE NOT NULL,
		file_name TEXT,
		file_size INTEGER,
		duration INTEGER,
		year INTEGER,
		end_year INTEGER,
		overview TEXT,
		tagline TEXT,
		poster_path TEXT,
		backdrop_path TEXT,
		logo_path TEXT,
		rating REAL,
		content_rating TEXT,
		genres TEXT,
		cast_members TEXT,
		directors TEXT,
		writers TEXT,
		studio TEXT,
		tmdb_id INTEGER,
		imdb_id TEXT,
		season_count INTEGER,
		episode_count INTEGER,
		status TEXT,
		added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (library_id) REFERENCES libraries(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_media_library ON media(library_id)`,
	`CREATE INDEX IF NOT EXISTS idx_media_title ON media(library_id, title, type)`,

	`CREATE TABLE IF NOT EXISTS seasons (
		id TEXT PRIMARY KEY,
		media_id TEXT NOT NULL,
		season_number INTEGER NOT NULL,
		name TEXT,
		overview TEXT,
		poster_path TEXT,
		episode_count INTEGER,
		air_date TEXT,
		UNIQUE (media_id, season_number),
		FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS episodes (
		id TEXT PRIMARY KEY,
		media_id TEXT NOT NULL,
		season_number INTEGER NOT NULL,
		episode_number INTEGER NOT NULL,
		title TEXT,
		overview TEXT,
		path TEXT NOT NULL,
		duration INTEGER,
		still_path TEXT,
		air_date TEXT,
		runtime INTEGER,
		UNIQUE (media_id, season_number, episode_number),
		FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		media_id TEXT NOT NULL,
		title TEXT NOT NULL,
		track_number INTEGER,
		disc_number INTEGER,
		duration INTEGER,
		artist TEXT,
		path TEXT NOT NULL,
		FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS watch_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		media_id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		watched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, media_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT
	)`,
}

// Init creates all tables and indexes.
func (d *DB) Init() error {
	for _, stmt := range schema {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
