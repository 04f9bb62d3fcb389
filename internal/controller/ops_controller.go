package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ai-editor-be/internal/dto"
	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/internal/pkg/serverutils"
	"ai-editor-be/internal/service"
)

type IOpsController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Health(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Logs(ctx *fiber.Ctx) error
	Log(ctx *fiber.Ctx) error
}

type opsController struct {
	activity service.IActivityService
	sessions service.ISessionService
	logs     logger.ILogger
}

func NewOpsController(activity service.IActivityService, sessions service.ISessionService, logs logger.ILogger) IOpsController {
	return &opsController{activity: activity, sessions: sessions, logs: logs}
}

func (c *opsController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	r.Get("/health", c.Health)

	h := r.Group("/ops/v1", jwtMiddleware)
	h.Get("/stats", c.Stats)
	h.Get("/logs", c.Logs)
	h.Get("/logs/:id", c.Log)
}

func (c *opsController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{"status": "up"}))
}

func (c *opsController) Stats(ctx *fiber.Ctx) error {
	stats := c.activity.Stats()
	stats.LiveSessions = c.sessions.Count()
	return ctx.JSON(serverutils.SuccessResponse("Stats retrieved", stats))
}

func (c *opsController) Logs(ctx *fiber.Ctx) error {
	var q dto.LogsQuery
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}
	if q.Limit == 0 {
		q.Limit = 50
	}

	entries, err := c.logs.GetLogs(q.Level, q.Limit, q.Offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Logs retrieved", dto.LogsResponse{Logs: entries}))
}

func (c *opsController) Log(ctx *fiber.Ctx) error {
	entry, err := c.logs.GetLogById(ctx.Params("id"))
	if errors.Is(err, logger.ErrLogNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log retrieved", entry))
}
