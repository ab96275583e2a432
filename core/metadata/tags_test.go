package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lavai-rg/telegram-automation/model"
)

func TestRefine(t *testing.T) {
	t.Run("caption title and artist are kept", func(t *testing.T) {
		item := &model.TrackItem{Title: "Begadang", Artist: "Rhoma Irama"}

		Refine(item, Embedded{Title: "track01", Artist: "Unknown"})

		assert.Equal(t, "Begadang", item.Title)
		assert.Equal(t, "Rhoma Irama", item.Artist)
	})

	t.Run("tags fill missing title and artist", func(t *testing.T) {
		item := &model.TrackItem{Title: "", Artist: ""}

		Refine(item, Embedded{Title: "Come Together", Artist: "The Beatles"})

		assert.Equal(t, "Come Together", item.Title)
		assert.Equal(t, "The Beatles", item.Artist)
	})

	t.Run("non-empty tags override album year duration", func(t *testing.T) {
		item := &model.TrackItem{
			Title: "Come Together", Album: "Unknown", Year: "1970", Duration: 0,
		}

		Refine(item, Embedded{Album: "Abbey Road", Year: "1969", Duration: 259})

		assert.Equal(t, "Abbey Road", item.Album)
		assert.Equal(t, "1969", item.Year)
		assert.Equal(t, 259, item.Duration)
	})

	t.Run("empty tags leave parsed values alone", func(t *testing.T) {
		item := &model.TrackItem{Album: "Abbey Road", Year: "1969", Duration: 259}

		Refine(item, Embedded{})

		assert.Equal(t, "Abbey Road", item.Album)
		assert.Equal(t, "1969", item.Year)
		assert.Equal(t, 259, item.Duration)
	})

	t.Run("side is recomputed after refinement", func(t *testing.T) {
		item := &model.TrackItem{Title: "Love Song", Side: model.SideA}

		Refine(item, Embedded{Album: "Remixes 1980-1985"})

		assert.Equal(t, model.SideB, item.Side)
	})
}
