package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/lavai-rg/telegram-automation/logger"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// progressSocketHandler attaches a dashboard client to the progress hub.
func (s *Server) progressSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &wsClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}
	if !s.hub.attach(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
