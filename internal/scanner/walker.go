package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/soundstage/soundstage/internal/models"
)

// Extension allow-lists per library type.
var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
}

var audioExtensions = map[string]bool{
	".mp3": true, ".flac": true, ".m4a": true, ".aac": true,
	".ogg": true, ".wav": true, ".wma": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true,
}

func allowedExtension(libType models.LibraryType, ext string) bool {
	switch libType {
	case models.LibraryTypeMusic:
		return audioExtensions[ext]
	case models.LibraryTypePhotos:
		return imageExtensions[ext]
	default:
		return videoExtensions[ext]
	}
}

// Walk enumerates the media files under root for a library type. The walk is
// an explicit worklist rather than recursion, so directory depth is not bound
// by the call stack. Entries whose name starts with "." are skipped entirely.
// Directory symlinks are not followed.
//
// A subdirectory that cannot be read is recorded in failures and the walk
// continues; an unreadable root is a hard error. Returned paths are sorted
// for stable ordering within one invocation.
func Walk(root string, libType models.LibraryType) (files []string, failures []string, err error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil, fmt.Errorf("library root %s: %w", root, err)
	}

	pending := []string{root}
	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			if dir == root {
				return nil, nil, fmt.Errorf("read library root: %w", err)
			}
			failures = append(failures, fmt.Sprintf("%s: %v", dir, err))
			continue
		}

		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			full := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				pending = append(pending, full)
				continue
			}
			if !entry.Type().IsRegular() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if allowedExtension(libType, ext) {
				files = append(files, full)
			}
		}
	}

	sort.Strings(files)
	return files, failures, nil
}
