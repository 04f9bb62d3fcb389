package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/internal/pkg/serverutils"
	"ai-editor-be/internal/service"
	internalWS "ai-editor-be/internal/websocket"
)

// EditorHandler upgrades authenticated requests to an editor session socket.
type EditorHandler struct {
	sessions  service.ISessionService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewEditorHandler(sessions service.ISessionService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *EditorHandler {
	return &EditorHandler{
		sessions:  sessions,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (h *EditorHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/editor/v1/ws", h.ServeWs)
}

// ServeWs authenticates with the "token" query parameter (browsers cannot
// set headers on a websocket) or a Bearer header, then attaches to the
// session named by the "session" query parameter.
func (h *EditorHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = serverutils.BearerToken(c)
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Missing token (Query 'token' or Header 'Authorization')"))
	}
	if _, err := serverutils.ParseToken(tokenStr, h.jwtSecret); err != nil {
		h.logger.Warn("EditorHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	sessionID := c.Query("session")
	sess, err := h.sessions.Open(sessionID)
	if errors.Is(err, service.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	if err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		sub, err := sess.Subscribe(context.Background())
		if err != nil {
			h.logger.Warn("EditorHandler", "Session ended before subscribing", map[string]interface{}{"session_id": sessionID})
			conn.Close()
			return
		}
		h.logger.Info("EditorHandler", "Starting editor socket", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID, sub, h.sessions, h.logger)
		h.logger.Info("EditorHandler", "Editor socket ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}
