package organize

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lavai-rg/telegram-automation/model"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`AC/DC: Back <in> Black?`, "ACDC Back in Black"},
		{"plain name", "plain name"},
		{"  padded  ", "padded"},
		{"tab\there", "tabhere"},
		{`"quoted"`, "quoted"},
		{"", ""},
		{`\\|?*<>:"`, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in), "input %q", tc.in)
	}

	t.Run("no reserved characters survive", func(t *testing.T) {
		out := Sanitize("a<b>c:d\"e/f\\g|h?i*j\x00k\x1fl")
		assert.False(t, strings.ContainsAny(out, `<>:"/\|?*`))
		for _, r := range out {
			assert.GreaterOrEqual(t, r, rune(0x20))
		}
	})
}

func TestAlbumFolder(t *testing.T) {
	assert.Equal(t, "The Beatles - Abbey Road (1969)", AlbumFolder("The Beatles", "Abbey Road", "1969"))
	assert.Equal(t, "The Beatles - Abbey Road", AlbumFolder("The Beatles", "Abbey Road", ""))
	assert.Equal(t, "Unknown Artist - Abbey Road", AlbumFolder("", "Abbey Road", ""))
	assert.Equal(t, "The Beatles - Unknown Album", AlbumFolder("The Beatles", "", ""))
	assert.Equal(t, "Unknown Artist - Unknown Album", AlbumFolder("?*", "<>", ""))
}

func TestPath(t *testing.T) {
	item := &model.TrackItem{
		Title:  "Come Together",
		Artist: "The Beatles",
		Album:  "Abbey Road",
		Year:   "1969",
		Side:   model.SideA,
	}

	t.Run("with side folders", func(t *testing.T) {
		got := Path(item, ".mp3", true)
		want := filepath.Join("The Beatles - Abbey Road (1969)", "Side A", "Come Together.mp3")
		assert.Equal(t, want, got)
	})

	t.Run("without side folders", func(t *testing.T) {
		got := Path(item, ".mp3", false)
		want := filepath.Join("The Beatles - Abbey Road (1969)", "Come Together.mp3")
		assert.Equal(t, want, got)
	})

	t.Run("deterministic", func(t *testing.T) {
		first := Path(item, ".flac", true)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Path(item, ".flac", true))
		}
	})

	t.Run("missing metadata lands under unknown folders", func(t *testing.T) {
		bare := &model.TrackItem{Title: "Track_12345", Side: model.SideA}
		got := Path(bare, ".mp3", true)
		want := filepath.Join("Unknown Artist - Unknown Album", "Side A", "Track_12345.mp3")
		assert.Equal(t, want, got)
	})
}
