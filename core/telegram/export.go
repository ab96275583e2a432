package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ExportSource implements MessageSource on top of a Telegram Desktop channel
// export (result.json plus the exported media files). It lets the full
// pipeline run against an offline snapshot; a live MTProto binding plugs in
// behind the same interface.
type ExportSource struct {
	dir string

	once    sync.Once
	export  *exportFile
	byID    map[int64]*exportedMessage
	loadErr error
}

func NewExportSource(dir string) *ExportSource {
	return &ExportSource{dir: dir}
}

// exportFile mirrors the subset of the Telegram Desktop export schema the
// scanner consumes.
type exportFile struct {
	Name     string            `json:"name"`
	ID       int64             `json:"id"`
	Messages []exportedMessage `json:"messages"`
}

type exportedMessage struct {
	ID              int64           `json:"id"`
	Type            string          `json:"type"`
	Date            string          `json:"date"`
	Text            json.RawMessage `json:"text"`
	File            string          `json:"file"`
	FileName        string          `json:"file_name"`
	MimeType        string          `json:"mime_type"`
	MediaType       string          `json:"media_type"`
	DurationSeconds int             `json:"duration_seconds"`
	Title           string          `json:"title"`
	Performer       string          `json:"performer"`
}

// exportDateLayout is the timestamp format Telegram Desktop writes.
const exportDateLayout = "2006-01-02T15:04:05"

// load parses result.json once and indexes messages by id.
func (s *ExportSource) load() (*exportFile, error) {
	s.once.Do(func() {
		path := filepath.Join(s.dir, "result.json")
		data, err := os.ReadFile(path)
		if err != nil {
			s.loadErr = fmt.Errorf("failed to read channel export: %w", err)
			return
		}
		var export exportFile
		if err := json.Unmarshal(data, &export); err != nil {
			s.loadErr = fmt.Errorf("failed to parse channel export: %w", err)
			return
		}
		s.export = &export
		s.byID = make(map[int64]*exportedMessage, len(export.Messages))
		for i := range export.Messages {
			s.byID[export.Messages[i].ID] = &export.Messages[i]
		}
	})
	return s.export, s.loadErr
}

// Iterate walks the export's messages in ascending id order, applying the
// MinID and MaxMessages filters. Date filtering stays with the caller, which
// also handles live sources that cannot filter server-side.
func (s *ExportSource) Iterate(ctx context.Context, channel string, opts IterateOptions) (MessageCursor, error) {
	export, err := s.load()
	if err != nil {
		return nil, err
	}

	channelID := fmt.Sprintf("%d", export.ID)
	if export.ID == 0 {
		channelID = channel
	}

	messages := make([]*Message, 0, len(export.Messages))
	for i := range export.Messages {
		raw := &export.Messages[i]
		if raw.Type != "" && raw.Type != "message" {
			continue
		}
		if raw.ID <= opts.MinID {
			continue
		}
		messages = append(messages, s.toMessage(raw, channelID))
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })

	if opts.MaxMessages > 0 && len(messages) > opts.MaxMessages {
		messages = messages[:opts.MaxMessages]
	}

	return &sliceCursor{messages: messages}, nil
}

func (s *ExportSource) toMessage(raw *exportedMessage, channelID string) *Message {
	msg := &Message{
		ID:        raw.ID,
		ChannelID: channelID,
		Text:      flattenText(raw.Text),
	}
	if date, err := time.ParseInLocation(exportDateLayout, raw.Date, time.Local); err == nil {
		msg.Date = date
	}

	if raw.File != "" {
		fileName := raw.FileName
		if fileName == "" {
			fileName = filepath.Base(raw.File)
		}
		doc := &Document{
			ID:       raw.ID,
			FileName: fileName,
			MimeType: raw.MimeType,
		}
		if info, err := os.Stat(filepath.Join(s.dir, raw.File)); err == nil {
			doc.Size = info.Size()
		}
		if raw.MediaType == "audio_file" || raw.MediaType == "voice_message" {
			doc.Audio = &AudioAttributes{
				Duration:  raw.DurationSeconds,
				Title:     raw.Title,
				Performer: raw.Performer,
				Voice:     raw.MediaType == "voice_message",
			}
		}
		msg.Document = doc
	}
	return msg
}

// flattenText joins the export's text field, which is either a plain string
// or an array mixing strings and typed entities.
func flattenText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var out string
	for _, part := range parts {
		var str string
		if err := json.Unmarshal(part, &str); err == nil {
			out += str
			continue
		}
		var entity struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(part, &entity); err == nil {
			out += entity.Text
		}
	}
	return out
}

// Download copies the exported media file into destPath.
func (s *ExportSource) Download(ctx context.Context, channelID string, messageID int64, destPath string) (string, error) {
	if _, err := s.load(); err != nil {
		return "", err
	}
	raw, ok := s.byID[messageID]
	if !ok || raw.File == "" {
		return "", fmt.Errorf("no media file in export for message %d", messageID)
	}
	if err := copyFile(filepath.Join(s.dir, raw.File), destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

// Forward stages the media into an outbox directory named after the target
// channel. An offline export cannot reach the live platform; the outbox is
// what a later online pass forwards.
func (s *ExportSource) Forward(ctx context.Context, fromChannelID string, messageID int64, toChannelID string) error {
	if _, err := s.load(); err != nil {
		return err
	}
	raw, ok := s.byID[messageID]
	if !ok || raw.File == "" {
		return fmt.Errorf("no media file in export for message %d", messageID)
	}
	dest := filepath.Join(s.dir, "outbox", toChannelID, filepath.Base(raw.File))
	return copyFile(filepath.Join(s.dir, raw.File), dest)
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return out.Sync()
}

type sliceCursor struct {
	messages []*Message
	pos      int
}

func (c *sliceCursor) Next(ctx context.Context) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.pos >= len(c.messages) {
		return nil, ErrEndOfHistory
	}
	msg := c.messages[c.pos]
	c.pos++
	return msg, nil
}

func (c *sliceCursor) Close() error { return nil }
