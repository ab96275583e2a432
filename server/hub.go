package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lavai-rg/telegram-automation/cache"
	"github.com/lavai-rg/telegram-automation/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	pollInterval   = 2 * time.Second
	clientSendSize = 16
)

// ProgressHub fans the latest scan progress snapshot out to every connected
// dashboard websocket. A single goroutine polls the cache; clients only
// receive.
type ProgressHub struct {
	progress *cache.ProgressCache

	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{} // closed when Run returns
}

func NewProgressHub(progress *cache.ProgressCache) *ProgressHub {
	return &ProgressHub{
		progress:   progress,
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
}

// Run polls the progress cache and broadcasts changed snapshots until the
// context is cancelled.
func (h *ProgressHub) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastSent time.Time
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case <-ticker.C:
			if len(h.clients) == 0 {
				continue
			}
			snap, err := h.progress.Latest(ctx)
			if err != nil {
				logger.Warn("failed to read scan progress", logger.ErrorField(err))
				continue
			}
			if snap == nil || !snap.UpdatedAt.After(lastSent) {
				continue
			}
			data, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			lastSent = snap.UpdatedAt
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*wsClient]bool)
			close(h.done)
			return
		}
	}
}

// attach registers a client, unless the hub has already shut down.
func (h *ProgressHub) attach(c *wsClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// drop unregisters a client. After shutdown the hub no longer receives, so
// the pump goroutines must not block here.
func (h *ProgressHub) drop(c *wsClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

type wsClient struct {
	hub  *ProgressHub
	conn *websocket.Conn
	send chan []byte
}

// readPump drains client frames so pings and close messages are handled,
// unregistering on disconnect.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
