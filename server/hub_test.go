package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavai-rg/telegram-automation/cache"
)

func TestProgressHub_ShutdownReleasesClients(t *testing.T) {
	hub := NewProgressHub(cache.NewProgressCache(nil))
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &wsClient{hub: hub, send: make(chan []byte, clientSendSize)}
	require.True(t, hub.attach(client))

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop on context cancel")
	}

	_, open := <-client.send
	assert.False(t, open, "send channel is closed on shutdown")

	// A pump unregistering after shutdown must return instead of blocking
	// on a channel nobody receives from anymore.
	released := make(chan struct{})
	go func() {
		hub.drop(client)
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("drop blocked after hub shutdown")
	}

	assert.False(t, hub.attach(client), "attach reports shutdown instead of blocking")
}
