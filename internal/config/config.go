package config

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
)

type Config struct {
	Port         int
	DatabasePath string
	DataDir      string
	TMDBAPIKey   string
	FFprobePath  string
	ScanWorkers  int
	RedisAddr    string
}

func Load() *Config {
	dataDir := env("SOUNDSTAGE_DATA_DIR", "./data")
	return &Config{
		Port:         envInt("PORT", 8080),
		DataDir:      dataDir,
		DatabasePath: env("DATABASE_PATH", filepath.Join(dataDir, "soundstage.db")),
		TMDBAPIKey:   env("TMDB_API_KEY", ""),
		FFprobePath:  env("FFPROBE_PATH", "ffprobe"),
		ScanWorkers:  envInt("SCAN_WORKERS", 4),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
	}
}

// ImageCacheDir is where downloaded artwork lands; served under /cache/images.
func (c *Config) ImageCacheDir() string {
	return filepath.Join(c.DataDir, "cache", "images")
}

// MergeFromDB applies overrides stored in the settings table. Missing table or
// rows are not an error; env/default values stand.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "tmdb_api_key":
			c.TMDBAPIKey = value
		case "ffprobe_path":
			c.FFprobePath = value
		case "scan_workers":
			if v := cast.ToInt(value); v > 0 {
				c.ScanWorkers = v
			}
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i := cast.ToInt(v); i != 0 {
			return i
		}
	}
	return fallback
}
