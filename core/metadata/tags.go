package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/lavai-rg/telegram-automation/model"
)

// Embedded is metadata read from tags inside the audio file itself.
type Embedded struct {
	Title    string
	Artist   string
	Album    string
	Year     string
	Duration int // seconds, 0 when the file declares none
}

// TagReader reads embedded metadata from a local audio file.
type TagReader interface {
	Read(path string) (Embedded, error)
}

// ID3Reader reads ID3v2 tags from mp3 files.
type ID3Reader struct{}

func NewID3Reader() *ID3Reader {
	return &ID3Reader{}
}

// Read opens the file and extracts the common text frames. Files without a
// tag are not an error; they just produce empty metadata.
func (r *ID3Reader) Read(path string) (Embedded, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Embedded{}, fmt.Errorf("failed to open id3 tag in %s: %w", path, err)
	}
	defer tag.Close()

	emb := Embedded{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
		Album:  strings.TrimSpace(tag.Album()),
		Year:   strings.TrimSpace(tag.Year()),
	}

	// TLEN is the track length in milliseconds, when present.
	if frame := tag.GetTextFrame(tag.CommonID("Length")); frame.Text != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(frame.Text)); err == nil && ms > 0 {
			emb.Duration = ms / 1000
		}
	}

	return emb, nil
}

// Refine merges embedded tag metadata into an already-classified item.
// Channel captions are usually more accurate than file tags, so parsed
// title/artist are kept when present and tags only fill the gaps; for the
// remaining fields a non-empty tag value overrides the parsed one.
func Refine(item *model.TrackItem, emb Embedded) {
	if item.Title == "" && emb.Title != "" {
		item.Title = emb.Title
	}
	if item.Artist == "" && emb.Artist != "" {
		item.Artist = emb.Artist
	}
	if emb.Album != "" {
		item.Album = emb.Album
	}
	if emb.Year != "" {
		item.Year = emb.Year
	}
	if emb.Duration > 0 {
		item.Duration = emb.Duration
	}
	// Side depends on title/album, so recompute after any change.
	item.Side = Side(item.Title, item.Album)
}
