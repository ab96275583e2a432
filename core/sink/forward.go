package sink

import (
	"context"
	"time"

	"github.com/lavai-rg/telegram-automation/core/telegram"
	"github.com/lavai-rg/telegram-automation/model"
)

// ForwardDispatcher forwards the original message to the private mirror
// channel. ForwardedAt is set once and never reset, so a retried item that
// was already forwarded does not get a new timestamp.
type ForwardDispatcher struct {
	source        telegram.MessageSource
	targetChannel string
}

func NewForwardDispatcher(source telegram.MessageSource, targetChannel string) *ForwardDispatcher {
	return &ForwardDispatcher{source: source, targetChannel: targetChannel}
}

func (d *ForwardDispatcher) Name() string { return "forward" }

func (d *ForwardDispatcher) Advances() model.Status { return model.StatusForwarded }

func (d *ForwardDispatcher) Dispatch(ctx context.Context, item *model.TrackItem) error {
	if err := d.source.Forward(ctx, item.SourceChannelID, item.SourceMessageID, d.targetChannel); err != nil {
		return err
	}
	if item.ForwardedAt == nil {
		now := time.Now()
		item.ForwardedAt = &now
	}
	return nil
}
