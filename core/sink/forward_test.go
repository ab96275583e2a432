package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavai-rg/telegram-automation/core/telegram"
	"github.com/lavai-rg/telegram-automation/model"
)

type forwardRecorder struct {
	calls []string
	err   error
}

func (f *forwardRecorder) Iterate(ctx context.Context, channel string, opts telegram.IterateOptions) (telegram.MessageCursor, error) {
	return nil, errors.New("not implemented")
}

func (f *forwardRecorder) Download(ctx context.Context, channelID string, messageID int64, destPath string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *forwardRecorder) Forward(ctx context.Context, fromChannelID string, messageID int64, toChannelID string) error {
	f.calls = append(f.calls, toChannelID)
	return f.err
}

func TestForwardDispatcher(t *testing.T) {
	t.Run("forwards and stamps once", func(t *testing.T) {
		source := &forwardRecorder{}
		dispatcher := NewForwardDispatcher(source, "private-chan")
		item := &model.TrackItem{ItemID: "1", SourceChannelID: "chan", SourceMessageID: 77}

		require.NoError(t, dispatcher.Dispatch(context.Background(), item))
		require.NotNil(t, item.ForwardedAt)
		first := *item.ForwardedAt

		time.Sleep(time.Millisecond)
		require.NoError(t, dispatcher.Dispatch(context.Background(), item))

		assert.Equal(t, first, *item.ForwardedAt, "timestamp is set once")
		assert.Equal(t, []string{"private-chan", "private-chan"}, source.calls)
		assert.Equal(t, model.StatusForwarded, dispatcher.Advances())
	})

	t.Run("error leaves item untouched", func(t *testing.T) {
		source := &forwardRecorder{err: errors.New("flood wait")}
		dispatcher := NewForwardDispatcher(source, "private-chan")
		item := &model.TrackItem{ItemID: "1"}

		require.Error(t, dispatcher.Dispatch(context.Background(), item))
		assert.Nil(t, item.ForwardedAt)
	})
}
