// Package metadata extracts track metadata from channel message text and
// from tags embedded in downloaded audio files. Extraction is heuristic and
// best-effort: parsing never fails, it just returns empty fields.
package metadata

import (
	"regexp"
	"strings"
)

// Partial holds candidate metadata parsed from free-form message text.
// Every field is a string (possibly empty); collections default to empty
// slices rather than nil.
type Partial struct {
	Artist    string
	Album     string
	Title     string
	Year      string
	Genre     string
	Label     string
	Format    string
	Country   string
	TrackList []string
	URLs      []string
}

var (
	urlPattern       = regexp.MustCompile(`https?://[^\s]+`)
	yearPattern      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	albumYearPattern = regexp.MustCompile(`^(.*\S)\s*\(((19|20)\d{2})\)$`)

	// Track-list markers: "1. Name", "A1 - Name", "Side A: Name".
	trackNumberPattern = regexp.MustCompile(`^\d+[.\-\s]+\S`)
	vinylSidePattern   = regexp.MustCompile(`^[A-Z]\d+[.\-\s]+\S`)
	sidePrefixPattern  = regexp.MustCompile(`^Side [AB][\s:]`)
)

// fieldKeywords maps each metadata field to the caption keywords that may
// introduce it, e.g. "Genre: Dangdut" or "sello: Musica Enteng".
var fieldKeywords = map[string][]string{
	"genre":   {"genre", "style", "género"},
	"label":   {"label", "sello", "editora"},
	"format":  {"format", "formato", "vinyl", "cd", "cassette", "digital"},
	"country": {"country", "país", "origin"},
}

// Parse extracts candidate metadata from raw message text. It is
// deterministic, performs no I/O and never fails; unmatched fields stay
// empty. The first line shaped like "Artist - Album" wins, splitting on the
// FIRST " - " only, so "Artist - Title - Remix" yields album "Title - Remix".
func Parse(raw string) Partial {
	out := Partial{
		TrackList: []string{},
		URLs:      []string{},
	}
	if raw == "" {
		return out
	}

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			continue
		}
		if strings.HasPrefix(line, "Track") {
			continue
		}
		if !strings.Contains(line, " - ") {
			continue
		}
		parts := strings.SplitN(line, " - ", 2)
		artist := strings.TrimSpace(parts[0])
		album := strings.TrimSpace(parts[1])
		if artist != "" && album != "" {
			// "Abbey Road (1969)" names the album plus its release year.
			if m := albumYearPattern.FindStringSubmatch(album); m != nil {
				album = m[1]
				out.Year = m[2]
			}
			out.Artist = artist
			out.Album = album
			break
		}
	}

	if out.Year == "" {
		if m := yearPattern.FindString(raw); m != "" {
			out.Year = m
		}
	}

	out.URLs = append(out.URLs, urlPattern.FindAllString(raw, -1)...)

	for _, line := range lines {
		if trackNumberPattern.MatchString(line) ||
			vinylSidePattern.MatchString(line) ||
			sidePrefixPattern.MatchString(line) {
			out.TrackList = append(out.TrackList, line)
		}
	}

	lower := strings.ToLower(raw)
	out.Genre = findKeywordValue(lower, fieldKeywords["genre"])
	out.Label = findKeywordValue(lower, fieldKeywords["label"])
	out.Format = findKeywordValue(lower, fieldKeywords["format"])
	out.Country = findKeywordValue(lower, fieldKeywords["country"])

	return out
}

// findKeywordValue searches for "<keyword>: <value>" (or whitespace after the
// keyword) case-insensitively; the first keyword that matches wins.
func findKeywordValue(lowerText string, keywords []string) string {
	for _, keyword := range keywords {
		pattern := regexp.MustCompile(regexp.QuoteMeta(keyword) + `[\s:]+([^\n\r]+)`)
		if m := pattern.FindStringSubmatch(lowerText); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
