package websocket

import (
	"github.com/gofiber/websocket/v2"

	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/internal/session"
)

// ServeWs attaches a connection to a session and blocks until it ends.
func ServeWs(hub *Hub, conn *websocket.Conn, sessionID string, sub *session.Subscription, applier FrameApplier, log logger.ILogger) {
	client := &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, sendBuffer),
		applier:   applier,
		sub:       sub,
		logger:    log,
		done:      make(chan struct{}),
	}
	client.Hub.register <- client
	defer sub.Cancel()

	go client.writePump()
	go client.viewPump()
	client.readPump()
}
