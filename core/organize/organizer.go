// Package organize computes deterministic, collision-safe destination paths
// for downloaded tracks following an Artist - Album (Year)/Side/Title layout.
package organize

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lavai-rg/telegram-automation/model"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// Sanitize strips the reserved filesystem characters <>:"/\|?* and ASCII
// control characters, then trims surrounding whitespace. Deterministic for
// any input, including empty and non-ASCII strings.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// AlbumFolder builds the album directory name: "Artist - Album", with the
// year appended in parentheses when known. Empty artist or album fall back
// to the Unknown placeholders after sanitization.
func AlbumFolder(artist, album, year string) string {
	artist = Sanitize(artist)
	if artist == "" {
		artist = unknownArtist
	}
	album = Sanitize(album)
	if album == "" {
		album = unknownAlbum
	}
	if year != "" {
		return fmt.Sprintf("%s - %s (%s)", artist, album, year)
	}
	return fmt.Sprintf("%s - %s", artist, album)
}

// Path computes the relative destination path for a track. The side segment
// is included only when side folders are enabled. The caller must guarantee
// a non-empty title (e.g. Track_<item_id>); ext is the original file
// extension including the dot. Pure and deterministic, so re-running the
// pipeline on the same metadata always lands on the same path.
func Path(item *model.TrackItem, ext string, sideFolders bool) string {
	folder := AlbumFolder(item.Artist, item.Album, Sanitize(item.Year))
	file := Sanitize(item.Title) + ext

	if sideFolders {
		return filepath.Join(folder, string(item.Side), file)
	}
	return filepath.Join(folder, file)
}
