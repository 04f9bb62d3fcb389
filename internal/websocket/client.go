package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"ai-editor-be/internal/dto"
	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/internal/pkg/serverutils"
	"ai-editor-be/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// load frames carry a whole document
	maxMessageSize = 1 << 20
	applyTimeout   = 5 * time.Second
	sendBuffer     = 256
)

// closedFrame prefixes the marshaled dto.ServerFrame{Type: dto.FrameClosed}.
var closedFrame = []byte(`{"type":"` + dto.FrameClosed + `"`)

// FrameApplier runs a client frame against a session.
type FrameApplier interface {
	Apply(ctx context.Context, id string, frame dto.ClientFrame) (bool, error)
}

// Client is a middleman between the websocket connection and one editor
// session.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	SessionID string

	// Buffered channel of outbound messages.
	Send chan []byte

	applier FrameApplier
	sub     *session.Subscription
	logger  logger.ILogger

	done      chan struct{}
	closeOnce sync.Once
}

// enqueue hands a message to the write pump without blocking. It reports
// false when the buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.Send <- msg:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) sendFrame(frame dto.ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("WSClient", "Failed to marshal frame", map[string]interface{}{"error": err.Error()})
		return
	}
	if !c.enqueue(data) {
		c.logger.Warn("WSClient", "Send buffer full, dropping frame", map[string]interface{}{"session_id": c.SessionID, "type": frame.Type})
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump decodes client frames and applies them to the session in order.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.close()
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WSClient", "Unexpected close", map[string]interface{}{"session_id": c.SessionID, "error": err.Error()})
			}
			return
		}

		var frame dto.ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.sendFrame(dto.ServerFrame{Type: dto.FrameError, Error: "malformed frame"})
			continue
		}
		if err := serverutils.ValidateRequest(frame); err != nil {
			c.sendFrame(dto.ServerFrame{Type: dto.FrameError, Seq: frame.Seq, Error: err.Error()})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		handled, err := c.applier.Apply(ctx, c.SessionID, frame)
		cancel()
		if err != nil {
			c.logger.Debug("WSClient", "Frame rejected", map[string]interface{}{
				"session_id": c.SessionID,
				"type":       frame.Type,
				"error":      err.Error(),
			})
			c.sendFrame(dto.ServerFrame{Type: dto.FrameError, Seq: frame.Seq, Error: err.Error()})
			continue
		}
		if frame.Seq != 0 || handled {
			c.sendFrame(dto.ServerFrame{Type: dto.FrameAck, Seq: frame.Seq, Handled: handled})
		}
	}
}

// viewPump forwards editor views until the session or the connection ends.
func (c *Client) viewPump() {
	for {
		select {
		case <-c.done:
			return
		case view, ok := <-c.sub.C():
			if !ok {
				c.sendFrame(dto.ServerFrame{Type: dto.FrameClosed})
				// let the write pump flush the notice before hanging up
				time.AfterFunc(writeWait, c.close)
				return
			}
			c.sendFrame(dto.ServerFrame{Type: dto.FrameView, Data: &view})
		}
	}
}

// writePump pumps messages to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.close()
				return
			}
			if bytes.HasPrefix(message, closedFrame) {
				c.close()
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
