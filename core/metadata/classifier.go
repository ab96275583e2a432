package metadata

import (
	"strings"

	"github.com/lavai-rg/telegram-automation/core/telegram"
	"github.com/lavai-rg/telegram-automation/model"
)

// sideBKeywords mark a track as flip-side or alternate content. Matching is
// case-insensitive substring; false positives and negatives are expected.
var sideBKeywords = []string{
	"side b", "b-side", "bside", "flip", "instrumental",
	"remix", "version", "alternate", "demo", "unreleased",
}

// IsAudio reports whether the message carries a music file: a document
// attachment whose MIME type starts with audio/ or that declares an audio
// attribute. A message without media is never audio, never an error.
func IsAudio(msg *telegram.Message) bool {
	if msg == nil || msg.Document == nil {
		return false
	}
	if strings.HasPrefix(msg.Document.MimeType, "audio/") {
		return true
	}
	return msg.Document.Audio != nil
}

// Side decides Side A vs Side B placement from title and album keywords.
// Defaults to Side A; this is a heuristic, not a guarantee.
func Side(title, album string) model.Side {
	titleLower := strings.ToLower(title)
	albumLower := strings.ToLower(album)

	for _, keyword := range sideBKeywords {
		if strings.Contains(titleLower, keyword) || strings.Contains(albumLower, keyword) {
			return model.SideB
		}
	}
	return model.SideA
}
