package metadata

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ImageKind selects the size tier an image is fetched at and prefixes its
// cache filename.
type ImageKind string

const (
	ImagePoster   ImageKind = "poster"
	ImageBackdrop ImageKind = "backdrop"
	ImageSeason   ImageKind = "season"
	ImageStill    ImageKind = "still"
)

func (k ImageKind) sizeTier() string {
	switch k {
	case ImagePoster:
		return "w500"
	case ImageBackdrop:
		return "w1280"
	default:
		return "w300"
	}
}

// CacheImage downloads a provider image to the local cache and returns the
// web path it will be served under, or nil when remotePath is empty or the
// download fails. The cache filename is derived from the provider path, so a
// second scan finding the same artwork reuses the file without refetching.
//
// Concurrent calls for the same image are harmless: both write the same
// bytes, and the Stat check makes the common case a no-op.
func (c *TMDBClient) CacheImage(remotePath string, kind ImageKind) *string {
	if remotePath == "" {
		return nil
	}

	filename := string(kind) + "_" + strings.ReplaceAll(remotePath, "/", "")
	localPath := filepath.Join(c.cacheDir, filename)
	webPath := "/cache/images/" + filename

	if _, err := os.Stat(localPath); err == nil {
		return &webPath
	}

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		log.Printf("TMDB: create image cache dir: %v", err)
		return nil
	}

	imageURL := c.imageBaseURL + "/" + kind.sizeTier() + remotePath
	resp, err := c.httpClient.Get(imageURL)
	if err != nil {
		log.Printf("TMDB: fetch image %s: %v", remotePath, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("TMDB: fetch image %s: status %d", remotePath, resp.StatusCode)
		return nil
	}

	out, err := os.Create(localPath)
	if err != nil {
		log.Printf("TMDB: write image %s: %v", filename, err)
		return nil
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(localPath)
		log.Printf("TMDB: write image %s: %v", filename, err)
		return nil
	}

	return &webPath
}
