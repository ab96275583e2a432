// Package telegram defines the boundary to the messaging platform. The scan
// driver and sink dispatchers consume these interfaces. ExportSource binds
// them to an offline Telegram Desktop channel export; a live MTProto
// transport plugs in behind the same interfaces.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AudioAttributes carries the audio descriptor a document attachment may
// declare: embedded duration and, when the uploader filled them, title and
// performer.
type AudioAttributes struct {
	Duration  int // seconds
	Title     string
	Performer string
	Voice     bool
}

// Document is a file attachment on a channel message.
type Document struct {
	ID       int64
	FileName string
	MimeType string
	Size     int64
	Audio    *AudioAttributes // nil when the document declares no audio attribute
}

// Message is one raw channel message as seen by the scan driver.
type Message struct {
	ID        int64
	ChannelID string
	Date      time.Time
	Text      string
	Document  *Document // nil for messages without a document attachment
}

// FloodWaitError signals a rate-limit condition from the platform. The
// caller must wait at least Wait before retrying the same operation; the
// operation is not considered consumed.
type FloodWaitError struct {
	Wait time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %s", e.Wait)
}

// AsFloodWait reports whether err is (or wraps) a FloodWaitError.
func AsFloodWait(err error) (*FloodWaitError, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw, true
	}
	return nil, false
}

// ErrEndOfHistory is returned by MessageCursor.Next when the iteration is
// exhausted.
var ErrEndOfHistory = errors.New("telegram: end of channel history")

// IterateOptions filters channel history iteration. MinID excludes all
// messages with id <= MinID, which is how a resumed scan skips already-seen
// items. Zero values disable the respective filter.
type IterateOptions struct {
	MinID       int64
	MaxMessages int
	StartDate   time.Time
	EndDate     time.Time
}

// MessageCursor iterates channel history newest-first. Next may return a
// FloodWaitError, in which case the same message is redelivered on the next
// call after the wait.
type MessageCursor interface {
	Next(ctx context.Context) (*Message, error)
	Close() error
}

// MessageSource is the platform collaborator consumed by the scan driver
// and the forward dispatcher.
type MessageSource interface {
	// Iterate opens a history cursor over the channel with the given filters.
	Iterate(ctx context.Context, channel string, opts IterateOptions) (MessageCursor, error)

	// Download fetches the media of a message into destPath and returns the
	// final file path.
	Download(ctx context.Context, channelID string, messageID int64, destPath string) (string, error)

	// Forward copies a message to another channel.
	Forward(ctx context.Context, fromChannelID string, messageID int64, toChannelID string) error
}
