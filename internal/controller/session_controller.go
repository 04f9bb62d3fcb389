package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ai-editor-be/internal/dto"
	"ai-editor-be/internal/pkg/serverutils"
	"ai-editor-be/internal/service"
	"ai-editor-be/pkg/editor"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Apply(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/editor/v1/sessions", jwtMiddleware)
	h.Post("/", c.Create)
	h.Get("/:id", c.Show)
	h.Post("/:id/events", c.Apply)
	h.Delete("/:id", c.Delete)
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnknownFrameType),
		errors.Is(err, editor.ErrLineNotFound),
		errors.Is(err, editor.ErrNotEditable),
		errors.Is(err, editor.ErrNoExchange),
		errors.Is(err, editor.ErrMenuClosed),
		errors.Is(err, editor.ErrOptionOutOfRange):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return err
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Show(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return sessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session retrieved", res))
}

// Apply runs one editor event, the same frames the websocket accepts, and
// answers with the resulting view.
func (c *sessionController) Apply(ctx *fiber.Ctx) error {
	var frame dto.ClientFrame
	if err := ctx.BodyParser(&frame); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(frame); err != nil {
		return err
	}

	id := ctx.Params("id")
	handled, err := c.service.Apply(ctx.UserContext(), id, frame)
	if err != nil {
		return sessionError(err)
	}
	res, err := c.service.Show(ctx.UserContext(), id)
	if err != nil {
		return sessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Event applied", fiber.Map{
		"handled": handled,
		"view":    res.View,
	}))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return sessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session deleted", nil))
}
