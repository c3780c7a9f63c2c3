package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// Sidecar artwork naming conventions (Plex/Jellyfin/Kodi style), used as a
// fallback when the metadata provider yields nothing for an entity.
var artworkExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// LocalArtwork holds artwork files found next to a media file.
type LocalArtwork struct {
	PosterPath   string
	BackdropPath string
}

// DetectLocalArtwork checks the directory containing a media file for poster
// and backdrop sidecar files.
func DetectLocalArtwork(mediaFilePath string) *LocalArtwork {
	dir := filepath.Dir(mediaFilePath)
	base := strings.TrimSuffix(filepath.Base(mediaFilePath), filepath.Ext(mediaFilePath))

	return &LocalArtwork{
		PosterPath:   findArtworkFile(dir, []string{base + "-poster", "poster", "folder", "cover"}),
		BackdropPath: findArtworkFile(dir, []string{base + "-fanart", "backdrop", "fanart", "background"}),
	}
}

func findArtworkFile(dir string, baseNames []string) string {
	for _, baseName := range baseNames {
		for _, ext := range artworkExtensions {
			path := filepath.Join(dir, baseName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
