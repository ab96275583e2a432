package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_ArtistAlbumLine(t *testing.T) {
	t.Run("artist and album with release year", func(t *testing.T) {
		text := "The Beatles - Abbey Road (1969)\nGenre: Rock\nhttps://en.wikipedia.org/wiki/Abbey_Road"

		got := Parse(text)

		assert.Equal(t, "The Beatles", got.Artist)
		assert.Equal(t, "Abbey Road", got.Album)
		assert.Equal(t, "1969", got.Year)
		assert.Equal(t, "rock", got.Genre)
		assert.Equal(t, []string{"https://en.wikipedia.org/wiki/Abbey_Road"}, got.URLs)
	})

	t.Run("splits on first separator only", func(t *testing.T) {
		got := Parse("Orkes Melayu - Best Of - Volume 2")

		assert.Equal(t, "Orkes Melayu", got.Artist)
		assert.Equal(t, "Best Of - Volume 2", got.Album)
	})

	t.Run("first matching line wins", func(t *testing.T) {
		got := Parse("Rhoma Irama - Begadang\nElvy Sukaesih - Mimpi Buruk")

		assert.Equal(t, "Rhoma Irama", got.Artist)
		assert.Equal(t, "Begadang", got.Album)
	})

	t.Run("url and track lines are not artist lines", func(t *testing.T) {
		got := Parse("https://example.com/a - b\nTrack 01 - Intro\nKoes Plus - Dheg Dheg Plas")

		assert.Equal(t, "Koes Plus", got.Artist)
		assert.Equal(t, "Dheg Dheg Plas", got.Album)
	})
}

func TestParse_Year(t *testing.T) {
	t.Run("year anywhere in text when album has none", func(t *testing.T) {
		got := Parse("Koes Plus - Volume 1\nReleased in 1973 on Remaco")
		assert.Equal(t, "1973", got.Year)
	})

	t.Run("album year beats later years", func(t *testing.T) {
		got := Parse("Koes Plus - Volume 1 (1971)\nReissued 1999")
		assert.Equal(t, "1971", got.Year)
		assert.Equal(t, "Volume 1", got.Album)
	})

	t.Run("no year", func(t *testing.T) {
		got := Parse("Koes Plus - Volume 1")
		assert.Empty(t, got.Year)
	})
}

func TestParse_AlbumCaptionScenario(t *testing.T) {
	got := Parse("The Beatles - Abbey Road (1969)\n1. Come Together\n2. Something")

	assert.Equal(t, "The Beatles", got.Artist)
	assert.Equal(t, "Abbey Road", got.Album)
	assert.Equal(t, "1969", got.Year)
	assert.Equal(t, []string{"1. Come Together", "2. Something"}, got.TrackList)
}

func TestParse_TrackList(t *testing.T) {
	text := strings.Join([]string{
		"Various - Pop Melayu Vol. 3 (1978)",
		"1. Bunga Nirwana",
		"2 - Juwita Malam",
		"A1. Payung Fantasi",
		"Side B: Kr. Moritsko",
		"just a comment line",
	}, "\n")

	got := Parse(text)

	assert.Equal(t, []string{
		"1. Bunga Nirwana",
		"2 - Juwita Malam",
		"A1. Payung Fantasi",
		"Side B: Kr. Moritsko",
	}, got.TrackList)
}

func TestParse_KeywordFields(t *testing.T) {
	text := "Genre: Dangdut\nLabel: Musica Studios\nFormat: Vinyl LP\nCountry: Indonesia"

	got := Parse(text)

	assert.Equal(t, "dangdut", got.Genre)
	assert.Equal(t, "musica studios", got.Label)
	assert.Equal(t, "vinyl lp", got.Format)
	assert.Equal(t, "indonesia", got.Country)
}

// Parse must never fail, whatever the caption looks like.
func TestParse_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t\n   ",
		"no separator here",
		" - ",
		"🎵🎵🎵",
		strings.Repeat("x - y\n", 1000),
		"Side A\nSide B\nhttps://t.me/c/123",
		"\x00\x01 weird bytes - still fine",
	}
	for _, input := range inputs {
		got := Parse(input)
		assert.NotNil(t, got.TrackList)
		assert.NotNil(t, got.URLs)
	}
}
