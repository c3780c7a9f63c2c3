package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Cleaning passes applied to a filename, in order. Bracket/paren groups are
// stripped after the explicit year and episode tokens so that a bare year
// like "Movie 2020 1080p" is still removed.
var (
	parenYearRe    = regexp.MustCompile(`\(\d{4}\)`)
	bracketYearRe  = regexp.MustCompile(`\[\d{4}\]`)
	trailingYearRe = regexp.MustCompile(`\d{4}$`)
	sxxExxRe       = regexp.MustCompile(`(?i)S\d{2}E\d{2}`)
	nxmRe          = regexp.MustCompile(`(?i)\d+x\d+`)
	releaseJunkRe  = regexp.MustCompile(`(?i)720p|1080p|2160p|4[kK]|HDR|BluRay|WEB-DL|HDTV|x264|x265|HEVC`)
	bracketGroupRe = regexp.MustCompile(`\[.*?\]`)
	parenGroupRe   = regexp.MustCompile(`\(.*?\)`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)

	yearRe        = regexp.MustCompile(`[(\[]?(\d{4})[)\]]?`)
	episodeSERe   = regexp.MustCompile(`(?i)S(\d{1,2})E(\d{1,2})`)
	episodeNxMRe  = regexp.MustCompile(`(?i)(\d{1,2})x(\d{1,2})`)
	leadingNumRe  = regexp.MustCompile(`^(\d{1,2})`)
)

// ParseTitle derives a display title from a raw filename. Identical input
// always yields identical output; no I/O. If cleaning strips everything, the
// original filename is returned verbatim.
func ParseTitle(fileName string) string {
	title := cleanTitle(fileName)
	if title == "" {
		return fileName
	}
	return title
}

func cleanTitle(fileName string) string {
	title := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	title = parenYearRe.ReplaceAllString(title, "")
	title = bracketYearRe.ReplaceAllString(title, "")
	title = trailingYearRe.ReplaceAllString(title, "")
	title = sxxExxRe.ReplaceAllString(title, "")
	title = nxmRe.ReplaceAllString(title, "")
	title = releaseJunkRe.ReplaceAllString(title, "")
	title = bracketGroupRe.ReplaceAllString(title, "")
	title = parenGroupRe.ReplaceAllString(title, "")

	title = strings.ReplaceAll(title, ".", " ")
	title = strings.ReplaceAll(title, "_", " ")
	title = strings.ReplaceAll(title, "-", " ")
	title = multiSpaceRe.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)

	// A year that was shielded from the first trailing-year pass by release
	// junk ("Title 1999 1080p") surfaces at the end once the junk is gone.
	title = trailingYearRe.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// ParseYear extracts a release year from a filename: the first 4-digit run,
// optionally wrapped in parens or brackets, accepted only within
// 1900..current_year+1. An out-of-range first run means no year.
func ParseYear(fileName string) *int {
	m := yearRe.FindStringSubmatch(fileName)
	if m == nil {
		return nil
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	if year < 1900 || year > time.Now().Year()+1 {
		return nil
	}
	return &year
}

// EpisodeInfo is the parsed identity of an episodic file.
type EpisodeInfo struct {
	ShowTitle string
	Season    int
	Episode   int
}

// ParseEpisodeInfo recognizes SxxEyy and NxM episode patterns in a filename.
// The show title comes from the text before the matched pattern; when that
// cleans down to nothing, the parent directory name is parsed instead.
// Returns nil when neither pattern matches: the file is not episodic.
func ParseEpisodeInfo(path string) *EpisodeInfo {
	fileName := filepath.Base(path)
	dirName := filepath.Base(filepath.Dir(path))

	for _, re := range []*regexp.Regexp{episodeSERe, episodeNxMRe} {
		loc := re.FindStringSubmatchIndex(fileName)
		if loc == nil {
			continue
		}
		season, _ := strconv.Atoi(fileName[loc[2]:loc[3]])
		episode, _ := strconv.Atoi(fileName[loc[4]:loc[5]])

		showTitle := cleanTitle(fileName[:loc[0]])
		if showTitle == "" {
			showTitle = ParseTitle(dirName)
		}
		return &EpisodeInfo{ShowTitle: showTitle, Season: season, Episode: episode}
	}
	return nil
}

// TrackInfo is the parsed identity of a music file. Album identity is purely
// the parent directory name; there is no metadata-based override at grouping
// time.
type TrackInfo struct {
	Album string
	Title string
	Track *int
}

// ParseTrackInfo derives album, track title, and an optional leading track
// number from a music file path.
func ParseTrackInfo(path string) TrackInfo {
	fileName := filepath.Base(path)
	dirName := filepath.Base(filepath.Dir(path))

	info := TrackInfo{
		Album: dirName,
		Title: ParseTitle(fileName),
	}
	if info.Album == "" || info.Album == "." || info.Album == string(filepath.Separator) {
		info.Album = "Unknown Album"
	}
	if m := leadingNumRe.FindStringSubmatch(fileName); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			info.Track = &n
		}
	}
	return info
}
